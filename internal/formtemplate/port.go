package formtemplate

import (
	"context"

	"tmi-forms-api/internal/form"
)

type TemplateServiceAPI interface {
	Create(ctx context.Context, req CreateTemplateRequest) (SaveResult, error)
	CreateFromStock(ctx context.Context, key string) (SaveResult, error)
	Import(ctx context.Context, text []byte) (SaveResult, error)
	Export(ctx context.Context, id string) ([]byte, error)
	Get(ctx context.Context, id string) (*form.Template, error)
	List(ctx context.Context, filter ListFilter) ([]*form.Template, error)
	Replace(ctx context.Context, id string, text []byte) (SaveResult, error)
	Delete(ctx context.Context, id string) error
	Edit(ctx context.Context, id string, req EditRequest) (SaveResult, error)
	Structure(ctx context.Context, id string) ([]form.StructuralViolation, error)
	Publish(ctx context.Context, id string) (SaveResult, error)
	Unpublish(ctx context.Context, id string) (SaveResult, error)
	AddToUser(ctx context.Context, userID, templateID string) error
	ListForUser(ctx context.Context, userID string) ([]*form.Template, error)
}

var _ TemplateServiceAPI = (*TemplateService)(nil)
