package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps every collection in the documents table.
type GormStore struct {
	DB *gorm.DB
}

var _ Store = (*GormStore)(nil)

func (s *GormStore) Migrate() error {
	return s.DB.AutoMigrate(&Document{})
}

func (s *GormStore) Create(ctx context.Context, collection, id string, body []byte) (string, error) {
	if !json.Valid(body) {
		return "", ErrInvalidBody
	}
	if id == "" {
		id = uuid.NewString()
	}

	// A concurrent Create of the same key loses at the primary key; the
	// conflict is swallowed and reported through RowsAffected.
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&Document{Collection: collection, ID: id, Body: datatypes.JSON(body)})
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return "", fmt.Errorf("%s/%s: %w", collection, id, ErrAlreadyExists)
	}
	return id, nil
}

func (s *GormStore) Update(ctx context.Context, collection, id string, body []byte) error {
	if !json.Valid(body) {
		return ErrInvalidBody
	}
	res := s.DB.WithContext(ctx).
		Model(&Document{}).
		Where("collection = ? AND id = ?", collection, id).
		Update("body", datatypes.JSON(body))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, collection, id string) error {
	res := s.DB.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&Document{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return nil
}

func (s *GormStore) FetchByID(ctx context.Context, collection, id string) ([]byte, error) {
	var doc Document
	err := s.DB.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
		}
		return nil, err
	}
	return []byte(doc.Body), nil
}

func (s *GormStore) FetchAll(ctx context.Context, collection string, filter Filter) ([]Record, error) {
	q := s.DB.WithContext(ctx).Where("collection = ?", collection)
	for key, value := range filter {
		q = q.Where(datatypes.JSONQuery("body").Equals(value, key))
	}

	var docs []Document
	if err := q.Order("created_at ASC").Order("id ASC").Find(&docs).Error; err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, Record{ID: d.ID, Body: []byte(d.Body)})
	}
	return out, nil
}
