package document

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore implements Store in process memory. Nothing survives a
// restart; it backs DB_DRIVER=memory and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	order []string
	docs  map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: map[string]*memCollection{}}
}

func (s *MemoryStore) Create(_ context.Context, collection, id string, body []byte) (string, error) {
	if !json.Valid(body) {
		return "", ErrInvalidBody
	}
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collection]
	if !ok {
		c = &memCollection{docs: map[string][]byte{}}
		s.collections[collection] = c
	}
	if _, exists := c.docs[id]; exists {
		return "", fmt.Errorf("%s/%s: %w", collection, id, ErrAlreadyExists)
	}
	c.docs[id] = append([]byte(nil), body...)
	c.order = append(c.order, id)
	return id, nil
}

func (s *MemoryStore) Update(_ context.Context, collection, id string, body []byte) error {
	if !json.Valid(body) {
		return ErrInvalidBody
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collection]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	if _, exists := c.docs[id]; !exists {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	c.docs[id] = append([]byte(nil), body...)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collection]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	if _, exists := c.docs[id]; !exists {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	delete(c.docs, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) FetchByID(_ context.Context, collection, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	body, exists := c.docs[id]
	if !exists {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return append([]byte(nil), body...), nil
}

func (s *MemoryStore) FetchAll(_ context.Context, collection string, filter Filter) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collection]
	if !ok {
		return []Record{}, nil
	}

	out := make([]Record, 0, len(c.order))
	for _, id := range c.order {
		body := c.docs[id]
		if !matches(body, filter) {
			continue
		}
		out = append(out, Record{ID: id, Body: append([]byte(nil), body...)})
	}
	return out, nil
}

func matches(body []byte, filter Filter) bool {
	if len(filter) == 0 {
		return true
	}
	var top map[string]any
	if err := json.Unmarshal(body, &top); err != nil {
		return false
	}
	for key, want := range filter {
		got, ok := top[key].(string)
		if !ok || got != want {
			return false
		}
	}
	return true
}
