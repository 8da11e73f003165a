package models

import "time"

// Review is one timestamped submission against an ArticleReviewer assignment.
type Review struct {
	ID                int64     `db:"id" json:"id"`
	ArticleReviewerID int64     `db:"article_reviewer_id" json:"articleReviewerId"`
	Comments          string    `db:"comments" json:"comments"`
	File              []byte    `db:"file" json:"file"`
	OriginalFile      []byte    `db:"original_file" json:"originalFile,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`

	// Set by file-less projections in place of File and OriginalFile.
	FileSize         int64 `db:"file_size" json:"-"`
	OriginalFileSize int64 `db:"original_file_size" json:"-"`
}

// FileBytes is the size of the annotated PDF, loaded or not.
func (r Review) FileBytes() int64 {
	if r.File != nil {
		return int64(len(r.File))
	}
	return r.FileSize
}

// OriginalFileBytes is the size of the original PDF, zero when absent.
func (r Review) OriginalFileBytes() int64 {
	if r.OriginalFile != nil {
		return int64(len(r.OriginalFile))
	}
	return r.OriginalFileSize
}

// FlatReview is a review labelled with its reviewer's display name.
type FlatReview struct {
	ID           int64     `json:"id"`
	ReviewerName string    `json:"reviewerName"`
	Comments     string    `json:"comments"`
	File         []byte    `json:"file"`
	OriginalFile []byte    `json:"originalFile,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`

	FileSize         int64 `json:"-"`
	OriginalFileSize int64 `json:"-"`
}
