package dto

// CreateArticleRequest is the payload of POST /article. File is base64 text,
// optionally carrying a data:application/pdf;base64, prefix.
type CreateArticleRequest struct {
	EventID     int64  `json:"event" validate:"required,gt=0"`
	Creator     *int64 `json:"creator,omitempty"`
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"required"`
	File        string `json:"file" validate:"required"`
}

// UpdateArticleFileRequest is the payload of PUT /article/:id.
type UpdateArticleFileRequest struct {
	File string `json:"file" validate:"required"`
}

// AssignReviewerRequest is the payload of POST /article/:id/reviewer.
type AssignReviewerRequest struct {
	ReviewerID int64 `json:"reviewerId" validate:"required,gt=0"`
}

// ExportFormat selects the rendering of an export.
type ExportFormat string

const (
	ExportFormatPDF ExportFormat = "pdf"
	ExportFormatCSV ExportFormat = "csv"
)

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
