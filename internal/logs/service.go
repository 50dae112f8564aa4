package logs

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tmi-forms-api/internal/util"

	"gorm.io/gorm"
)

var ErrInvalidFilter = errors.New("invalid log filter")

const aggregateLimit = 12

type LogService struct {
	DB *gorm.DB
}

// Log stores one activity entry. Metadata that cannot be encoded is dropped
// rather than failing the write.
func (ls *LogService) Log(entry SystemLog, metadata interface{}) error {
	row := SystemLog{
		Level:      entry.Level,
		Service:    entry.Service,
		Action:     entry.Action,
		Message:    entry.Message,
		TemplateID: entry.TemplateID,
		FieldIDs:   entry.FieldIDs,
		CreatedAt:  time.Now().UTC(),
	}
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			meta := string(b)
			row.Metadata = &meta
		}
	}
	return ls.DB.Create(&row).Error
}

// GetLogs pages the activity log newest first.
func (ls *LogService) GetLogs(input LogFilterInput) (LogPage, error) {
	input.normalize()

	base, err := ls.filtered(input)
	if err != nil {
		return LogPage{}, err
	}

	page := LogPage{Page: input.Page, PageSize: input.PageSize}
	if err := base.Session(&gorm.Session{}).Count(&page.Total).Error; err != nil {
		return LogPage{}, err
	}
	page.TotalPages = int((page.Total + int64(input.PageSize) - 1) / int64(input.PageSize))
	if page.TotalPages == 0 {
		page.TotalPages = 1
	}

	if err := base.Session(&gorm.Session{}).
		Select("logs.*").
		Order("logs.created_at DESC").
		Limit(input.PageSize).
		Offset((input.Page - 1) * input.PageSize).
		Scan(&page.Data).Error; err != nil {
		return LogPage{}, err
	}
	if page.Data == nil {
		page.Data = []SystemLog{}
	}

	if page.Aggregates, err = ls.aggregate(base); err != nil {
		return LogPage{}, err
	}
	return page, nil
}

func (ls *LogService) filtered(input LogFilterInput) (*gorm.DB, error) {
	q := ls.DB.Table("logs")

	for _, eq := range [...]struct{ column, value string }{
		{"logs.template_id", input.TemplateID},
		{"logs.level", input.Level},
		{"logs.action", input.Action},
	} {
		if v := strings.TrimSpace(eq.value); v != "" {
			q = q.Where(eq.column+" = ?", v)
		}
	}

	start, hasStart, endExclusive, hasEnd, err := util.ParseDateRange(&input.StartDate, &input.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	if hasStart {
		q = q.Where("logs.created_at >= ?", start)
	}
	if hasEnd {
		q = q.Where("logs.created_at < ?", endExclusive)
	}
	return q, nil
}

// aggregate counts the filtered rows per action and per field id. The field
// counts show which fields reject submissions most often.
func (ls *LogService) aggregate(base *gorm.DB) (LogAggregates, error) {
	aggs := LogAggregates{ByAction: []AggItem{}, ByField: []AggItem{}}

	derived := ls.DB.Table("(?) as x", base.Session(&gorm.Session{}).Select("logs.action, logs.field_ids"))

	if err := derived.Session(&gorm.Session{}).
		Select("x.action AS label, COUNT(*) AS count").
		Group("x.action").
		Order("count DESC").
		Limit(aggregateLimit).
		Scan(&aggs.ByAction).Error; err != nil {
		return LogAggregates{}, err
	}

	// unnest over text[] is postgres only; other dialects skip field counts.
	if ls.DB.Dialector.Name() == "postgres" {
		if err := derived.Session(&gorm.Session{}).
			Select("f AS label, COUNT(*) AS count").
			Joins("JOIN LATERAL unnest(x.field_ids) AS f ON TRUE").
			Group("f").
			Order("count DESC").
			Limit(aggregateLimit).
			Scan(&aggs.ByField).Error; err != nil {
			return LogAggregates{}, err
		}
	}

	if aggs.ByAction == nil {
		aggs.ByAction = []AggItem{}
	}
	if aggs.ByField == nil {
		aggs.ByField = []AggItem{}
	}
	return aggs, nil
}
