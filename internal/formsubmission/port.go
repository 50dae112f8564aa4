package formsubmission

import (
	"context"

	"tmi-forms-api/internal/form"

	"cloud.google.com/go/storage"
	"github.com/iancoleman/orderedmap"
)

// TemplateSource loads templates for validation and export.
type TemplateSource interface {
	Get(ctx context.Context, id string) (*form.Template, error)
}

type SubmissionServiceAPI interface {
	Submit(ctx context.Context, templateID string, payload form.Payload) (form.FormSubmission, error)
	Get(ctx context.Context, id string) (form.FormSubmission, error)
	ListByTemplate(ctx context.Context, templateID string) ([]form.FormSubmission, error)
	Delete(ctx context.Context, id string) error
	ExportXLSX(ctx context.Context, templateID string) ([]byte, string, error)
	ExportRows(ctx context.Context, templateID string) ([]*orderedmap.OrderedMap, error)
	UploadFile(ctx context.Context, req UploadRequest) (UploadResult, error)
	OpenUpload(ctx context.Context, url string) (*Download, error)
	ListUploads(ctx context.Context, templateID, fieldID string) ([]UploadInfo, error)
}

var _ SubmissionServiceAPI = (*SubmissionService)(nil)

var newGCSClientHook = func(ctx context.Context) (*storage.Client, error) {
	return storage.NewClient(ctx)
}
