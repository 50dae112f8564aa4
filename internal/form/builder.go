package form

import "time"

type Direction int

const (
	Up Direction = iota
	Down
)

func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "up":
		return Up, true
	case "down":
		return Down, true
	default:
		return 0, false
	}
}

// Builder performs structural edits on a Template. Operations given an index
// that is out of range (for example one held across another edit) do nothing.
// Every edit that changes the template sets UpdatedAt.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	t     *Template
	now   func() time.Time
	newID func() string
}

type BuilderOption func(*Builder)

func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

func WithIDGenerator(newID func() string) BuilderOption {
	return func(b *Builder) { b.newID = newID }
}

// NewBuilder edits t in place.
func NewBuilder(t *Template, opts ...BuilderOption) *Builder {
	b := &Builder{
		t:     t,
		now:   func() time.Time { return time.Now().UTC() },
		newID: NewID,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// NewTemplate starts an empty, inactive template.
func (b *Builder) NewTemplate(name, description string) *Template {
	now := b.now()
	b.t = &Template{
		ID:          b.newID(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return b.t
}

func (b *Builder) Template() *Template { return b.t }

func (b *Builder) touch() { b.t.UpdatedAt = b.now() }

func (b *Builder) section(i int) *Section {
	if b.t == nil || i < 0 || i >= len(b.t.Sections) {
		return nil
	}
	return &b.t.Sections[i]
}

func (b *Builder) field(si, fi int) *Field {
	s := b.section(si)
	if s == nil || fi < 0 || fi >= len(s.Fields) {
		return nil
	}
	return &s.Fields[fi]
}

func (b *Builder) SetName(name string) {
	if b.t == nil {
		return
	}
	b.t.Name = name
	b.touch()
}

func (b *Builder) SetDescription(description string) {
	if b.t == nil {
		return
	}
	b.t.Description = description
	b.touch()
}

func (b *Builder) SetCategory(category *string) {
	if b.t == nil {
		return
	}
	b.t.Category = cloneString(category)
	b.touch()
}

func (b *Builder) AddSection(title string) string {
	if b.t == nil {
		return ""
	}
	id := b.newID()
	b.t.Sections = append(b.t.Sections, Section{ID: id, Title: title})
	b.touch()
	return id
}

func (b *Builder) RemoveSection(index int) {
	if b.section(index) == nil {
		return
	}
	b.t.Sections = append(b.t.Sections[:index], b.t.Sections[index+1:]...)
	b.touch()
}

// MoveSection swaps the section with its neighbour; nothing happens at the
// boundaries.
func (b *Builder) MoveSection(index int, dir Direction) {
	to, ok := neighbour(index, dir)
	if !ok || b.section(index) == nil || b.section(to) == nil {
		return
	}
	b.t.Sections[index], b.t.Sections[to] = b.t.Sections[to], b.t.Sections[index]
	b.touch()
}

func (b *Builder) SetSectionTitle(index int, title string) {
	s := b.section(index)
	if s == nil {
		return
	}
	s.Title = title
	b.touch()
}

// AddField appends a field of type ft with the type's default label. Option
// fields start with a single "Option 1".
func (b *Builder) AddField(sectionIndex int, ft FieldType) string {
	s := b.section(sectionIndex)
	if s == nil || !ft.Valid() {
		return ""
	}
	f := Field{
		ID:    b.newID(),
		Label: ft.DefaultLabel(),
		Type:  ft,
	}
	if ft.RequiresOptions() {
		f.Options = []string{"Option 1"}
	}
	s.Fields = append(s.Fields, f)
	b.touch()
	return f.ID
}

func (b *Builder) RemoveField(sectionIndex, fieldIndex int) {
	if b.field(sectionIndex, fieldIndex) == nil {
		return
	}
	s := &b.t.Sections[sectionIndex]
	s.Fields = append(s.Fields[:fieldIndex], s.Fields[fieldIndex+1:]...)
	b.touch()
}

func (b *Builder) MoveField(sectionIndex, fieldIndex int, dir Direction) {
	to, ok := neighbour(fieldIndex, dir)
	if !ok || b.field(sectionIndex, fieldIndex) == nil || b.field(sectionIndex, to) == nil {
		return
	}
	fs := b.t.Sections[sectionIndex].Fields
	fs[fieldIndex], fs[to] = fs[to], fs[fieldIndex]
	b.touch()
}

// DuplicateField inserts a copy right after the source field. The copy and
// its rules get fresh ids.
func (b *Builder) DuplicateField(sectionIndex, fieldIndex int) string {
	src := b.field(sectionIndex, fieldIndex)
	if src == nil {
		return ""
	}
	dup := src.clone()
	reidentifyField(&dup, b.newID)

	s := &b.t.Sections[sectionIndex]
	s.Fields = append(s.Fields, Field{})
	copy(s.Fields[fieldIndex+2:], s.Fields[fieldIndex+1:])
	s.Fields[fieldIndex+1] = dup
	b.touch()
	return dup.ID
}

func (b *Builder) SetFieldLabel(sectionIndex, fieldIndex int, label string) {
	f := b.field(sectionIndex, fieldIndex)
	if f == nil {
		return
	}
	f.Label = label
	b.touch()
}

func (b *Builder) SetFieldRequired(sectionIndex, fieldIndex int, required bool) {
	f := b.field(sectionIndex, fieldIndex)
	if f == nil {
		return
	}
	f.IsRequired = required
	b.touch()
}

// SetFieldOptions replaces the option list; ignored for types without options.
func (b *Builder) SetFieldOptions(sectionIndex, fieldIndex int, options []string) {
	f := b.field(sectionIndex, fieldIndex)
	if f == nil || !f.Type.Valid() || !f.Type.RequiresOptions() {
		return
	}
	f.Options = append(make([]string, 0, len(options)), options...)
	b.touch()
}

func (b *Builder) AddOption(sectionIndex, fieldIndex int, value string) {
	f := b.field(sectionIndex, fieldIndex)
	if f == nil || !f.Type.Valid() || !f.Type.RequiresOptions() {
		return
	}
	f.Options = append(f.Options, value)
	b.touch()
}

// RemoveOption deletes one option. Removing the last one leaves an empty,
// non-nil list; ValidateStructure reports it.
func (b *Builder) RemoveOption(sectionIndex, fieldIndex, optionIndex int) {
	f := b.field(sectionIndex, fieldIndex)
	if f == nil || optionIndex < 0 || optionIndex >= len(f.Options) {
		return
	}
	f.Options = append(f.Options[:optionIndex], f.Options[optionIndex+1:]...)
	b.touch()
}

// AttachDefaultSection appends a deep copy of src with fresh section, field
// and rule ids.
func (b *Builder) AttachDefaultSection(src Section) string {
	if b.t == nil {
		return ""
	}
	s := src.clone()
	reidentifySection(&s, b.newID)
	b.t.Sections = append(b.t.Sections, s)
	b.touch()
	return s.ID
}

// SetValidationRules replaces the field's rules as given. Applicability is not
// filtered here; ValidateStructure reports rules that do not apply.
func (b *Builder) SetValidationRules(sectionIndex, fieldIndex int, rules []ValidationRule) {
	f := b.field(sectionIndex, fieldIndex)
	if f == nil {
		return
	}
	f.Rules = nil
	for _, r := range rules {
		if r.ID == "" {
			r.ID = b.newID()
		}
		f.Rules = append(f.Rules, r.clone())
	}
	b.touch()
}

func neighbour(index int, dir Direction) (int, bool) {
	switch dir {
	case Up:
		return index - 1, true
	case Down:
		return index + 1, true
	default:
		return 0, false
	}
}
