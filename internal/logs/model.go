package logs

import (
	"time"

	"github.com/lib/pq"
)

const (
	ActionTemplateCreated    = "TEMPLATE_CREATED"
	ActionTemplateUpdated    = "TEMPLATE_UPDATED"
	ActionTemplateDeleted    = "TEMPLATE_DELETED"
	ActionTemplatePublished  = "TEMPLATE_PUBLISHED"
	ActionSubmissionAccepted = "SUBMISSION_ACCEPTED"
	ActionSubmissionRejected = "SUBMISSION_REJECTED"
)

type SystemLog struct {
	ID         uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Level      string         `gorm:"size:20;not null" json:"level"`
	Service    string         `gorm:"size:100;not null" json:"service"`
	Action     string         `gorm:"size:255;not null" json:"action"`
	Message    string         `gorm:"type:text;not null" json:"message"`
	TemplateID *string        `gorm:"size:255;index" json:"template_id,omitempty"`
	FieldIDs   pq.StringArray `gorm:"type:text[];column:field_ids" json:"field_ids"`
	Metadata   *string        `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (SystemLog) TableName() string {
	return "logs"
}

type LogFilterInput struct {
	TemplateID string `form:"template_id"`
	Level      string `form:"level" binding:"omitempty,oneof=info warn error"`
	Action     string `form:"action"`
	StartDate  string `form:"start_date"`
	EndDate    string `form:"end_date"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (in *LogFilterInput) normalize() {
	if in.Page <= 0 {
		in.Page = 1
	}
	if in.PageSize <= 0 || in.PageSize > maxPageSize {
		in.PageSize = defaultPageSize
	}
}

// LogPage is one page of activity entries plus aggregates over the whole
// filtered set.
type LogPage struct {
	Data       []SystemLog   `json:"data"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	Total      int64         `json:"total"`
	TotalPages int           `json:"total_pages"`
	Aggregates LogAggregates `json:"aggregates"`
}

type AggItem struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

type LogAggregates struct {
	ByAction []AggItem `json:"by_action"`
	ByField  []AggItem `json:"by_field"`
}
