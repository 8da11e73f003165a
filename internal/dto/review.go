package dto

// SubmitReviewRequest is the payload of POST /article-reviewer/:id/review.
type SubmitReviewRequest struct {
	Comments     string `json:"comments" validate:"max=20000"`
	File         string `json:"file" validate:"required"`
	OriginalFile string `json:"originalFile,omitempty"`
}
