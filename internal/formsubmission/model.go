package formsubmission

import (
	"errors"
	"fmt"
	"time"

	"tmi-forms-api/internal/form"
)

const SubmissionsCollection = "form_submissions"

var (
	ErrTemplateInactive = errors.New("template is not accepting submissions")
	ErrUnknownField     = errors.New("template has no such field")
	ErrNotFileField     = errors.New("field does not accept file uploads")
	ErrUploadsDisabled  = errors.New("file uploads are not configured")
	ErrForeignBucket    = errors.New("upload is not in the upload bucket")
	ErrInvalidUpload    = errors.New("invalid upload")
	ErrUploadNotFound   = errors.New("upload not found")
)

// RejectedError carries every violation found in a rejected payload.
type RejectedError struct {
	Violations []form.Violation
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("submission rejected: %s", form.Result{Violations: e.Violations}.Summary())
}

type UploadRequest struct {
	TemplateID string `json:"templateId" binding:"required"`
	FieldID    string `json:"fieldId" binding:"required"`
	FileName   string `json:"fileName" binding:"required"`
	MimeType   string `json:"mimeType"`
	DataBase64 string `json:"dataBase64" binding:"required"`
}

type UploadResult struct {
	URL       string `json:"url"`
	SizeBytes int64  `json:"sizeBytes"`
}

// UploadInfo describes one stored upload of a template.
type UploadInfo struct {
	URL         string    `json:"url"`
	FieldID     string    `json:"fieldId"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type UploadListQuery struct {
	FieldID string `form:"field_id"`
}

// Download is an uploaded file read back from storage.
type Download struct {
	Data        []byte
	ContentType string
	FileName    string
}

type ExportQuery struct {
	Format string `form:"format" binding:"omitempty,oneof=xlsx json"`
}

// column is one export column: a template field and its header text.
type column struct {
	FieldID string
	Header  string
}
