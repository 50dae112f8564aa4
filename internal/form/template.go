package form

import (
	"time"

	"github.com/google/uuid"
)

// Field is a single typed input slot. Options is nil when the type takes no
// option list; a non-nil empty slice means "takes options, none defined yet".
type Field struct {
	ID         string
	Label      string
	Type       FieldType
	IsRequired bool
	Rules      []ValidationRule
	Options    []string
}

// Point is the legacy drag position a section may carry. It is preserved
// across import/export but plays no part in ordering.
type Point struct {
	X float64
	Y float64
}

type Section struct {
	ID       string
	Title    string
	Fields   []Field
	Location *Point
}

// Template is the root aggregate: it owns its sections, their fields and the
// fields' rules. A Template must not be mutated by two goroutines at once;
// concurrent readers should work on a Clone.
type Template struct {
	ID          string
	Name        string
	Description string
	Sections    []Section
	CreatedAt   time.Time
	UpdatedAt   time.Time
	IsActive    bool
	ImageName   *string
	Category    *string
	IsFree      *bool
}

// Payload maps field ids to submitted values.
type Payload map[string]Value

// FormSubmission is an accepted payload as it is stored.
type FormSubmission struct {
	ID          string
	FormID      string
	Data        Payload
	SubmittedAt time.Time
}

// NewID returns a fresh opaque identifier.
func NewID() string { return uuid.NewString() }

// FieldPath locates a field by id.
func FieldPath(t *Template, fieldID string) (sectionIndex, fieldIndex int, ok bool) {
	if t == nil {
		return 0, 0, false
	}
	for si := range t.Sections {
		for fi := range t.Sections[si].Fields {
			if t.Sections[si].Fields[fi].ID == fieldID {
				return si, fi, true
			}
		}
	}
	return 0, 0, false
}

// FieldByID returns a copy of the field with the given id.
func (t *Template) FieldByID(fieldID string) (Field, bool) {
	si, fi, ok := FieldPath(t, fieldID)
	if !ok {
		return Field{}, false
	}
	return t.Sections[si].Fields[fi], true
}

// Fields returns every field in section-then-field order.
func (t *Template) Fields() []Field {
	var out []Field
	for _, s := range t.Sections {
		out = append(out, s.Fields...)
	}
	return out
}

func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	c := *t
	c.ImageName = cloneString(t.ImageName)
	c.Category = cloneString(t.Category)
	if t.IsFree != nil {
		v := *t.IsFree
		c.IsFree = &v
	}
	c.Sections = nil
	for _, s := range t.Sections {
		c.Sections = append(c.Sections, s.clone())
	}
	return &c
}

func (s Section) clone() Section {
	c := s
	if s.Location != nil {
		p := *s.Location
		c.Location = &p
	}
	c.Fields = nil
	for _, f := range s.Fields {
		c.Fields = append(c.Fields, f.clone())
	}
	return c
}

func (f Field) clone() Field {
	c := f
	if f.Options != nil {
		c.Options = append(make([]string, 0, len(f.Options)), f.Options...)
	}
	c.Rules = nil
	for _, r := range f.Rules {
		c.Rules = append(c.Rules, r.clone())
	}
	return c
}

func (r ValidationRule) clone() ValidationRule {
	c := r
	if r.Value != nil {
		v := *r.Value
		if v.list != nil {
			v.list = append([]string(nil), v.list...)
		}
		c.Value = &v
	}
	return c
}

// Reidentify gives the template and everything it owns fresh ids.
func Reidentify(t *Template, newID func() string) {
	if newID == nil {
		newID = NewID
	}
	t.ID = newID()
	for si := range t.Sections {
		reidentifySection(&t.Sections[si], newID)
	}
}

func reidentifySection(s *Section, newID func() string) {
	s.ID = newID()
	for fi := range s.Fields {
		reidentifyField(&s.Fields[fi], newID)
	}
}

func reidentifyField(f *Field, newID func() string) {
	f.ID = newID()
	for ri := range f.Rules {
		f.Rules[ri].ID = newID()
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
