package models

import (
	"encoding/json"
	"time"
)

// Article is a submitted PDF tied to one creator and one event.
type Article struct {
	ID          int64     `db:"id" json:"id"`
	CreatorID   int64     `db:"creator_id" json:"creatorId"`
	EventID     int64     `db:"event_id" json:"eventId"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	File        []byte    `db:"file" json:"file"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`

	Creator          *UserSummary      `db:"-" json:"creator,omitempty"`
	Event            *Event            `db:"-" json:"event,omitempty"`
	ArticleReviewers []ArticleReviewer `db:"-" json:"articleReviewer"`
}

// MarshalJSON always emits articleReviewer as a list, empty when the relation was not loaded.
func (a Article) MarshalJSON() ([]byte, error) {
	type plain Article
	out := plain(a)
	if out.ArticleReviewers == nil {
		out.ArticleReviewers = []ArticleReviewer{}
	}
	return json.Marshal(out)
}

// ArticleSummary is an article without its file and relations.
type ArticleSummary struct {
	ID          int64     `db:"id" json:"id"`
	CreatorID   int64     `db:"creator_id" json:"creatorId"`
	EventID     int64     `db:"event_id" json:"eventId"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// ArticleReviewer assigns one reviewer to one article and anchors their reviews.
type ArticleReviewer struct {
	ID         int64     `db:"id" json:"id"`
	ArticleID  int64     `db:"article_id" json:"articleId"`
	ReviewerID int64     `db:"reviewer_id" json:"reviewerId"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`

	Reviewer *UserSummary    `db:"-" json:"reviewer,omitempty"`
	Article  *ArticleSummary `db:"-" json:"article,omitempty"`
	Reviews  []Review        `db:"-" json:"reviews"`
}

// MarshalJSON always emits reviews as a list.
func (ar ArticleReviewer) MarshalJSON() ([]byte, error) {
	type plain ArticleReviewer
	out := plain(ar)
	if out.Reviews == nil {
		out.Reviews = []Review{}
	}
	return json.Marshal(out)
}
