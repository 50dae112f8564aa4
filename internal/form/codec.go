package form

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ParseError describes malformed template or submission text. Path is a
// JSON path such as sections[0].fields[2].type; Offset is set when the text
// is not valid JSON at all.
type ParseError struct {
	Path   string
	Offset int64
	Msg    string
}

func (e *ParseError) Error() string {
	switch {
	case e.Path != "":
		return fmt.Sprintf("parse error at %s: %s", e.Path, e.Msg)
	case e.Offset > 0:
		return fmt.Sprintf("parse error at byte %d: %s", e.Offset, e.Msg)
	default:
		return "parse error: " + e.Msg
	}
}

type wireTemplate struct {
	ID                  string         `json:"id"`
	Name                *string        `json:"name"`
	TemplateDescription string         `json:"templateDescription"`
	Sections            *[]wireSection `json:"sections"`
	CreatedAt           string         `json:"createdAt,omitempty"`
	UpdatedAt           string         `json:"updatedAt,omitempty"`
	IsActive            bool           `json:"isActive"`
	ImageName           *string        `json:"imageName,omitempty"`
	Category            *string        `json:"category,omitempty"`
	IsFree              *bool          `json:"isFree,omitempty"`
}

type wireSection struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Fields   []wireField `json:"fields"`
	Location *wirePoint  `json:"location,omitempty"`
}

type wirePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type wireField struct {
	ID              string     `json:"id"`
	Label           *string    `json:"label"`
	Type            *string    `json:"type"`
	IsRequired      bool       `json:"isRequired"`
	ValidationRules []wireRule `json:"validationRules"`
	Options         *[]string  `json:"options,omitempty"`
}

type wireRule struct {
	ID      string          `json:"id"`
	Rule    *string         `json:"rule"`
	Message string          `json:"message"`
	Value   json.RawMessage `json:"value,omitempty"`
}

// Serialize encodes t in the portable template format.
func Serialize(t *Template) ([]byte, error) {
	if t == nil {
		return nil, errors.New("form: nil template")
	}

	sections := make([]wireSection, 0, len(t.Sections))
	for _, sec := range t.Sections {
		ws, err := encodeSection(sec)
		if err != nil {
			return nil, err
		}
		sections = append(sections, ws)
	}

	name := t.Name
	w := wireTemplate{
		ID:                  t.ID,
		Name:                &name,
		TemplateDescription: t.Description,
		Sections:            &sections,
		CreatedAt:           formatTime(t.CreatedAt),
		UpdatedAt:           formatTime(t.UpdatedAt),
		IsActive:            t.IsActive,
		ImageName:           cloneString(t.ImageName),
		Category:            cloneString(t.Category),
		IsFree:              t.IsFree,
	}
	return json.Marshal(w)
}

// SerializeSection encodes one section the way it appears inside a template.
func SerializeSection(s Section) ([]byte, error) {
	ws, err := encodeSection(s)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ws)
}

func encodeSection(s Section) (wireSection, error) {
	ws := wireSection{ID: s.ID, Title: s.Title, Fields: make([]wireField, 0, len(s.Fields))}
	if s.Location != nil {
		ws.Location = &wirePoint{X: s.Location.X, Y: s.Location.Y}
	}
	for _, f := range s.Fields {
		label := f.Label
		typ := string(f.Type)
		wf := wireField{
			ID:         f.ID,
			Label:      &label,
			Type:       &typ,
			IsRequired: f.IsRequired,
		}
		if f.Options != nil {
			opts := append(make([]string, 0, len(f.Options)), f.Options...)
			wf.Options = &opts
		}
		rules, err := encodeRules(f.Rules)
		if err != nil {
			return wireSection{}, err
		}
		wf.ValidationRules = rules
		ws.Fields = append(ws.Fields, wf)
	}
	return ws, nil
}

func encodeRules(rules []ValidationRule) ([]wireRule, error) {
	out := make([]wireRule, 0, len(rules))
	for _, r := range rules {
		kind := string(r.Kind)
		wr := wireRule{ID: r.ID, Rule: &kind, Message: r.Message}
		if r.Value != nil {
			raw, err := json.Marshal(*r.Value)
			if err != nil {
				return nil, fmt.Errorf("form: rule %s: %w", r.ID, err)
			}
			wr.Value = raw
		}
		out = append(out, wr)
	}
	return out, nil
}

// Deserialize decodes the portable template format. Every failure is a
// *ParseError.
func Deserialize(data []byte) (*Template, error) {
	var w wireTemplate
	if err := strictUnmarshal(data, &w); err != nil {
		return nil, err
	}

	if w.Name == nil {
		return nil, &ParseError{Path: "name", Msg: "is required"}
	}
	if w.Sections == nil {
		return nil, &ParseError{Path: "sections", Msg: "is required"}
	}

	t := &Template{
		ID:          w.ID,
		Name:        *w.Name,
		Description: w.TemplateDescription,
		IsActive:    w.IsActive,
		ImageName:   w.ImageName,
		Category:    w.Category,
		IsFree:      w.IsFree,
	}

	var err error
	if t.CreatedAt, err = parseTime("createdAt", w.CreatedAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime("updatedAt", w.UpdatedAt); err != nil {
		return nil, err
	}

	for si, ws := range *w.Sections {
		s := Section{ID: ws.ID, Title: ws.Title}
		if ws.Location != nil {
			s.Location = &Point{X: ws.Location.X, Y: ws.Location.Y}
		}
		for fi, wf := range ws.Fields {
			path := fmt.Sprintf("sections[%d].fields[%d]", si, fi)
			f, err := decodeField(path, wf)
			if err != nil {
				return nil, err
			}
			s.Fields = append(s.Fields, f)
		}
		t.Sections = append(t.Sections, s)
	}
	return t, nil
}

func decodeField(path string, wf wireField) (Field, error) {
	if wf.Label == nil {
		return Field{}, &ParseError{Path: path + ".label", Msg: "is required"}
	}
	if wf.Type == nil {
		return Field{}, &ParseError{Path: path + ".type", Msg: "is required"}
	}
	ft, ok := ParseFieldType(*wf.Type)
	if !ok {
		return Field{}, &ParseError{Path: path + ".type", Msg: fmt.Sprintf("unknown field type %q", *wf.Type)}
	}

	f := Field{ID: wf.ID, Label: *wf.Label, Type: ft, IsRequired: wf.IsRequired}
	if wf.Options != nil {
		f.Options = append(make([]string, 0, len(*wf.Options)), *wf.Options...)
	}

	rules, err := decodeRules(path+".validationRules", wf.ValidationRules)
	if err != nil {
		return Field{}, err
	}
	f.Rules = rules
	return f, nil
}

// DeserializeRules decodes a JSON array of rules in the template format.
func DeserializeRules(data []byte) ([]ValidationRule, error) {
	var wrs []wireRule
	if err := strictUnmarshal(data, &wrs); err != nil {
		return nil, err
	}
	return decodeRules("", wrs)
}

func decodeRules(path string, wrs []wireRule) ([]ValidationRule, error) {
	var out []ValidationRule
	for ri, wr := range wrs {
		rpath := fmt.Sprintf("%s[%d]", path, ri)
		if wr.Rule == nil {
			return nil, &ParseError{Path: rpath + ".rule", Msg: "is required"}
		}
		kind, ok := ParseRuleKind(*wr.Rule)
		if !ok {
			return nil, &ParseError{Path: rpath + ".rule", Msg: fmt.Sprintf("unknown rule %q", *wr.Rule)}
		}
		r := ValidationRule{ID: wr.ID, Kind: kind, Message: wr.Message}
		if len(wr.Value) > 0 && !bytes.Equal(bytes.TrimSpace(wr.Value), []byte("null")) {
			var v Value
			if err := v.UnmarshalJSON(wr.Value); err != nil {
				return nil, &ParseError{Path: rpath + ".value", Msg: err.Error()}
			}
			r.Value = &v
		}
		out = append(out, r)
	}
	return out, nil
}

type wireSubmission struct {
	ID          string                     `json:"id"`
	FormID      *string                    `json:"formId"`
	Data        map[string]json.RawMessage `json:"data"`
	SubmittedAt string                     `json:"submittedAt,omitempty"`
}

func MarshalSubmission(s FormSubmission) ([]byte, error) {
	formID := s.FormID
	w := wireSubmission{
		ID:          s.ID,
		FormID:      &formID,
		Data:        make(map[string]json.RawMessage, len(s.Data)),
		SubmittedAt: formatTime(s.SubmittedAt),
	}
	for id, v := range s.Data {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("form: data %s: %w", id, err)
		}
		w.Data[id] = raw
	}
	return json.Marshal(w)
}

func UnmarshalSubmission(data []byte) (FormSubmission, error) {
	var w wireSubmission
	if err := strictUnmarshal(data, &w); err != nil {
		return FormSubmission{}, err
	}
	if w.FormID == nil {
		return FormSubmission{}, &ParseError{Path: "formId", Msg: "is required"}
	}
	at, err := parseTime("submittedAt", w.SubmittedAt)
	if err != nil {
		return FormSubmission{}, err
	}
	payload, err := decodePayload("data", w.Data)
	if err != nil {
		return FormSubmission{}, err
	}
	return FormSubmission{ID: w.ID, FormID: *w.FormID, Data: payload, SubmittedAt: at}, nil
}

// DecodePayload reads a JSON object of field id to value.
func DecodePayload(data []byte) (Payload, error) {
	var raw map[string]json.RawMessage
	if err := strictUnmarshal(data, &raw); err != nil {
		return nil, err
	}
	return decodePayload("", raw)
}

func decodePayload(prefix string, raw map[string]json.RawMessage) (Payload, error) {
	p := make(Payload, len(raw))
	for id, r := range raw {
		var v Value
		if err := v.UnmarshalJSON(r); err != nil {
			path := id
			if prefix != "" {
				path = prefix + "." + id
			}
			return nil, &ParseError{Path: path, Msg: err.Error()}
		}
		if !v.IsZero() {
			p[id] = v
		}
	}
	return p, nil
}

func strictUnmarshal(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return &ParseError{Msg: "empty document"}
	}
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}

	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syn):
		return &ParseError{Offset: syn.Offset, Msg: syn.Error()}
	case errors.As(err, &typ):
		return &ParseError{
			Path:   typ.Field,
			Offset: typ.Offset,
			Msg:    fmt.Sprintf("expected %s, got %s", typ.Type, typ.Value),
		}
	default:
		return &ParseError{Msg: err.Error()}
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(path, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, &ParseError{Path: path, Msg: "expected an RFC 3339 timestamp"}
	}
	return t, nil
}
