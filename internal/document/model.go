package document

import (
	"time"

	"gorm.io/datatypes"
)

type Document struct {
	Collection string         `gorm:"primaryKey;size:255"`
	ID         string         `gorm:"primaryKey;size:255"`
	Body       datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time      `gorm:"not null;autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"not null;autoUpdateTime"`
}

func (Document) TableName() string { return "documents" }
