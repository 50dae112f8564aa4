package formsubmission

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tmi-forms-api/internal/form"
	"tmi-forms-api/internal/util"

	"github.com/iancoleman/orderedmap"
	"github.com/xuri/excelize/v2"
)

const (
	colSubmissionID = "submission_id"
	colSubmittedAt  = "submitted_at"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// exportColumns lists the template's fields in section/field order. Labels
// used more than once are prefixed with their section title.
func exportColumns(t *form.Template) []column {
	count := map[string]int{}
	for _, f := range t.Fields() {
		count[f.Label]++
	}

	cols := make([]column, 0, len(count))
	used := map[string]int{colSubmissionID: 1, colSubmittedAt: 1}
	for _, s := range t.Sections {
		for _, f := range s.Fields {
			header := f.Label
			if count[f.Label] > 1 {
				header = s.Title + " / " + f.Label
			}
			if n := used[header]; n > 0 {
				used[header] = n + 1
				header = fmt.Sprintf("%s (%d)", header, n+1)
			} else {
				used[header] = 1
			}
			cols = append(cols, column{FieldID: f.ID, Header: header})
		}
	}
	return cols
}

func cellText(p form.Payload, fieldID string) string {
	v, ok := p[fieldID]
	if !ok {
		return ""
	}
	return v.Display()
}

func (s *SubmissionService) exportData(ctx context.Context, templateID string) (*form.Template, []column, []form.FormSubmission, error) {
	tmpl, err := s.Templates.Get(ctx, templateID)
	if err != nil {
		return nil, nil, nil, err
	}
	subs, err := s.ListByTemplate(ctx, templateID)
	if err != nil {
		return nil, nil, nil, err
	}
	return tmpl, exportColumns(tmpl), subs, nil
}

// ExportRows returns one JSON object per submission with keys in column order.
func (s *SubmissionService) ExportRows(ctx context.Context, templateID string) ([]*orderedmap.OrderedMap, error) {
	_, cols, subs, err := s.exportData(ctx, templateID)
	if err != nil {
		return nil, err
	}

	rows := make([]*orderedmap.OrderedMap, 0, len(subs))
	for _, sub := range subs {
		row := orderedmap.New()
		row.Set(colSubmissionID, sub.ID)
		row.Set(colSubmittedAt, sub.SubmittedAt.Format(time.RFC3339))
		for _, c := range cols {
			row.Set(c.Header, cellText(sub.Data, c.FieldID))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ExportXLSX renders the template's submissions as a one-sheet workbook and
// returns it with a download file name.
func (s *SubmissionService) ExportXLSX(ctx context.Context, templateID string) ([]byte, string, error) {
	tmpl, cols, subs, err := s.exportData(ctx, templateID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := safeSheetName(tmpl.Name)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, "", err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E2E8F0"}},
	})

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return nil, "", err
	}

	header := []interface{}{
		excelize.Cell{Value: colSubmissionID, StyleID: headerStyle},
		excelize.Cell{Value: colSubmittedAt, StyleID: headerStyle},
	}
	for _, c := range cols {
		header = append(header, excelize.Cell{Value: c.Header, StyleID: headerStyle})
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, "", err
	}

	for i, sub := range subs {
		values := []interface{}{sub.ID, sub.SubmittedAt.Format(time.RFC3339)}
		for _, c := range cols {
			values = append(values, cellText(sub.Data, c.FieldID))
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, values); err != nil {
			return nil, "", err
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, "", err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}
	return buf.Bytes(), fmt.Sprintf("submissions_%s.xlsx", util.SanitizePart(tmpl.Name)), nil
}

// safeSheetName drops characters Excel forbids and keeps the 31 rune limit.
func safeSheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return -1
		default:
			return r
		}
	}, strings.TrimSpace(name))
	name = strings.Trim(name, "'")
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	if name == "" {
		return "Submissions"
	}
	return name
}
