package document

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
	ErrInvalidBody   = errors.New("document body is not valid JSON")
)

// Filter matches documents whose top-level string field equals the given
// value, for every key.
type Filter map[string]string

type Record struct {
	ID   string
	Body []byte
}

// Store keeps JSON documents grouped in named collections. Nested
// collections are addressed by path, e.g. "users/42/myForms".
type Store interface {
	// Create stores body under id; an empty id gets a generated one.
	Create(ctx context.Context, collection, id string, body []byte) (string, error)
	Update(ctx context.Context, collection, id string, body []byte) error
	Delete(ctx context.Context, collection, id string) error
	FetchByID(ctx context.Context, collection, id string) ([]byte, error)
	// FetchAll returns matching documents in insertion order.
	FetchAll(ctx context.Context, collection string, filter Filter) ([]Record, error)
}
