package formtemplate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tmi-forms-api/config"
	"tmi-forms-api/internal/document"
	"tmi-forms-api/internal/form"
	"tmi-forms-api/internal/logs"
)

type TemplateService struct {
	Store document.Store
	Log   logs.Logger
	Now   func() time.Time
}

func (s *TemplateService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *TemplateService) Create(ctx context.Context, req CreateTemplateRequest) (SaveResult, error) {
	tmpl := form.NewBuilder(nil, form.WithClock(s.now)).NewTemplate(req.Name, req.Description)
	tmpl.Category = req.Category
	return s.insert(ctx, tmpl)
}

func (s *TemplateService) CreateFromStock(ctx context.Context, key string) (SaveResult, error) {
	tmpl, ok := form.StockTemplate(key, s.now())
	if !ok {
		return SaveResult{}, fmt.Errorf("%w: %q", ErrUnknownStock, key)
	}
	return s.insert(ctx, tmpl)
}

// Import stores a template given in the portable text format. The imported
// id is kept unless it is empty or already taken.
func (s *TemplateService) Import(ctx context.Context, text []byte) (SaveResult, error) {
	tmpl, err := form.Deserialize(text)
	if err != nil {
		return SaveResult{}, err
	}

	if tmpl.ID != "" {
		_, err := s.Store.FetchByID(ctx, TemplatesCollection, tmpl.ID)
		switch {
		case err == nil:
			tmpl.ID = form.NewID()
		case !errors.Is(err, document.ErrNotFound):
			return SaveResult{}, err
		}
	} else {
		tmpl.ID = form.NewID()
	}

	now := s.now()
	if tmpl.CreatedAt.IsZero() {
		tmpl.CreatedAt = now
	}
	tmpl.UpdatedAt = now
	return s.insert(ctx, tmpl)
}

func (s *TemplateService) Export(ctx context.Context, id string) ([]byte, error) {
	tmpl, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return form.Serialize(tmpl)
}

func (s *TemplateService) Get(ctx context.Context, id string) (*form.Template, error) {
	body, err := s.Store.FetchByID(ctx, TemplatesCollection, id)
	if err != nil {
		return nil, err
	}
	tmpl, err := form.Deserialize(body)
	if err != nil {
		return nil, fmt.Errorf("stored template %s: %w", id, err)
	}
	return tmpl, nil
}

func (s *TemplateService) List(ctx context.Context, filter ListFilter) ([]*form.Template, error) {
	var f document.Filter
	if filter.Category != "" {
		f = document.Filter{"category": filter.Category}
	}

	recs, err := s.Store.FetchAll(ctx, TemplatesCollection, f)
	if err != nil {
		return nil, err
	}

	out := make([]*form.Template, 0, len(recs))
	for _, rec := range recs {
		tmpl, err := form.Deserialize(rec.Body)
		if err != nil {
			return nil, fmt.Errorf("stored template %s: %w", rec.ID, err)
		}
		if filter.ActiveOnly && !tmpl.IsActive {
			continue
		}
		out = append(out, tmpl)
	}
	return out, nil
}

// Replace overwrites a stored template with text. The id in the path wins
// over the one in the text and the creation time is kept.
func (s *TemplateService) Replace(ctx context.Context, id string, text []byte) (SaveResult, error) {
	incoming, err := form.Deserialize(text)
	if err != nil {
		return SaveResult{}, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return SaveResult{}, err
	}

	incoming.ID = id
	incoming.CreatedAt = current.CreatedAt
	incoming.UpdatedAt = s.now()
	return s.save(ctx, incoming)
}

func (s *TemplateService) Delete(ctx context.Context, id string) error {
	if err := s.Store.Delete(ctx, TemplatesCollection, id); err != nil {
		return err
	}
	s.record(logs.SystemLog{
		Level:      "info",
		Action:     logs.ActionTemplateDeleted,
		Message:    "template deleted",
		TemplateID: &id,
	}, nil)
	return nil
}

func (s *TemplateService) Edit(ctx context.Context, id string, req EditRequest) (SaveResult, error) {
	tmpl, err := s.Get(ctx, id)
	if err != nil {
		return SaveResult{}, err
	}
	if err := applyEdit(form.NewBuilder(tmpl, form.WithClock(s.now)), req); err != nil {
		return SaveResult{}, err
	}
	return s.save(ctx, tmpl)
}

func applyEdit(b *form.Builder, req EditRequest) error {
	switch req.Op {
	case OpSetName:
		b.SetName(req.Text)
	case OpSetDescription:
		b.SetDescription(req.Text)
	case OpSetCategory:
		b.SetCategory(req.Category)
	case OpAddSection:
		b.AddSection(req.Text)
	case OpRemoveSection:
		b.RemoveSection(req.Section)
	case OpMoveSection:
		dir, err := parseDirection(req.Direction)
		if err != nil {
			return err
		}
		b.MoveSection(req.Section, dir)
	case OpSetSectionTitle:
		b.SetSectionTitle(req.Section, req.Text)
	case OpAttachDefaultSection:
		sec, ok := form.DefaultSection(req.DefaultSection)
		if !ok {
			return fmt.Errorf("%w: unknown default section %q", ErrInvalidEdit, req.DefaultSection)
		}
		b.AttachDefaultSection(sec)
	case OpAddField:
		ft, ok := form.ParseFieldType(req.FieldType)
		if !ok {
			return fmt.Errorf("%w: unknown field type %q", ErrInvalidEdit, req.FieldType)
		}
		b.AddField(req.Section, ft)
	case OpRemoveField:
		b.RemoveField(req.Section, req.Field)
	case OpMoveField:
		dir, err := parseDirection(req.Direction)
		if err != nil {
			return err
		}
		b.MoveField(req.Section, req.Field, dir)
	case OpDuplicateField:
		b.DuplicateField(req.Section, req.Field)
	case OpSetFieldLabel:
		b.SetFieldLabel(req.Section, req.Field, req.Text)
	case OpSetFieldRequired:
		b.SetFieldRequired(req.Section, req.Field, req.Required)
	case OpSetFieldOptions:
		b.SetFieldOptions(req.Section, req.Field, req.Options)
	case OpAddOption:
		b.AddOption(req.Section, req.Field, req.Text)
	case OpRemoveOption:
		b.RemoveOption(req.Section, req.Field, req.Option)
	case OpSetValidationRules:
		var rules []form.ValidationRule
		if len(req.Rules) > 0 {
			var err error
			if rules, err = form.DeserializeRules(req.Rules); err != nil {
				return err
			}
		}
		b.SetValidationRules(req.Section, req.Field, rules)
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidEdit, req.Op)
	}
	return nil
}

func parseDirection(s string) (form.Direction, error) {
	dir, ok := form.ParseDirection(s)
	if !ok {
		return 0, fmt.Errorf("%w: direction must be up or down, got %q", ErrInvalidEdit, s)
	}
	return dir, nil
}

func (s *TemplateService) Structure(ctx context.Context, id string) ([]form.StructuralViolation, error) {
	tmpl, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return form.ValidateStructure(tmpl), nil
}

// Publish opens a template for submissions. Templates with structural
// violations stay unpublished.
func (s *TemplateService) Publish(ctx context.Context, id string) (SaveResult, error) {
	tmpl, err := s.Get(ctx, id)
	if err != nil {
		return SaveResult{}, err
	}
	if vs := form.ValidateStructure(tmpl); len(vs) > 0 {
		return SaveResult{}, &PublishBlockedError{Violations: vs}
	}
	if tmpl.IsActive {
		return SaveResult{Template: tmpl, Violations: []form.StructuralViolation{}}, nil
	}

	tmpl.IsActive = true
	tmpl.UpdatedAt = s.now()
	res, err := s.store(ctx, tmpl, false)
	if err != nil {
		return SaveResult{}, err
	}
	s.record(logs.SystemLog{
		Level:      "info",
		Action:     logs.ActionTemplatePublished,
		Message:    "template published",
		TemplateID: &tmpl.ID,
	}, nil)
	return res, nil
}

func (s *TemplateService) Unpublish(ctx context.Context, id string) (SaveResult, error) {
	tmpl, err := s.Get(ctx, id)
	if err != nil {
		return SaveResult{}, err
	}
	if !tmpl.IsActive {
		return SaveResult{Template: tmpl, Violations: nonNil(form.ValidateStructure(tmpl))}, nil
	}
	tmpl.IsActive = false
	tmpl.UpdatedAt = s.now()
	return s.save(ctx, tmpl)
}

// AddToUser bookmarks a template in the user's "my forms" list. Adding the
// same template twice is a no-op.
func (s *TemplateService) AddToUser(ctx context.Context, userID, templateID string) error {
	if _, err := s.Store.FetchByID(ctx, TemplatesCollection, templateID); err != nil {
		return err
	}
	body, err := json.Marshal(UserForm{FormID: templateID, AddedOn: s.now()})
	if err != nil {
		return err
	}
	_, err = s.Store.Create(ctx, userFormsCollection(userID), templateID, body)
	if errors.Is(err, document.ErrAlreadyExists) {
		return nil
	}
	return err
}

// ListForUser returns the user's bookmarked templates in the order they were
// added. Bookmarks whose template was deleted are skipped.
func (s *TemplateService) ListForUser(ctx context.Context, userID string) ([]*form.Template, error) {
	recs, err := s.Store.FetchAll(ctx, userFormsCollection(userID), nil)
	if err != nil {
		return nil, err
	}

	out := make([]*form.Template, 0, len(recs))
	for _, rec := range recs {
		var uf UserForm
		if err := json.Unmarshal(rec.Body, &uf); err != nil {
			return nil, fmt.Errorf("user form %s: %w", rec.ID, err)
		}
		tmpl, err := s.Get(ctx, uf.FormID)
		if errors.Is(err, document.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, tmpl)
	}
	return out, nil
}

func (s *TemplateService) insert(ctx context.Context, tmpl *form.Template) (SaveResult, error) {
	res, err := s.store(ctx, tmpl, true)
	if err != nil {
		return SaveResult{}, err
	}
	s.record(logs.SystemLog{
		Level:      "info",
		Action:     logs.ActionTemplateCreated,
		Message:    fmt.Sprintf("template %q created", tmpl.Name),
		TemplateID: &tmpl.ID,
	}, nil)
	return res, nil
}

func (s *TemplateService) save(ctx context.Context, tmpl *form.Template) (SaveResult, error) {
	res, err := s.store(ctx, tmpl, false)
	if err != nil {
		return SaveResult{}, err
	}
	s.record(logs.SystemLog{
		Level:      "info",
		Action:     logs.ActionTemplateUpdated,
		Message:    "template updated",
		TemplateID: &tmpl.ID,
	}, map[string]int{"structural_violations": len(res.Violations)})
	return res, nil
}

// store writes tmpl. A template with structural violations is never left
// open for submissions, whichever path produced it.
func (s *TemplateService) store(ctx context.Context, tmpl *form.Template, create bool) (SaveResult, error) {
	vs := nonNil(form.ValidateStructure(tmpl))
	if len(vs) > 0 && tmpl.IsActive {
		tmpl.IsActive = false
		config.Log.WithField("template_id", tmpl.ID).
			WithField("structural_violations", len(vs)).
			Info("template deactivated until its structure is fixed")
	}

	body, err := form.Serialize(tmpl)
	if err != nil {
		return SaveResult{}, err
	}
	if create {
		_, err = s.Store.Create(ctx, TemplatesCollection, tmpl.ID, body)
	} else {
		err = s.Store.Update(ctx, TemplatesCollection, tmpl.ID, body)
	}
	if err != nil {
		return SaveResult{}, err
	}
	return SaveResult{Template: tmpl, Violations: vs}, nil
}

// record writes an activity entry. A failed write is reported to the process
// log and never fails the caller.
func (s *TemplateService) record(entry logs.SystemLog, metadata interface{}) {
	if s.Log == nil {
		return
	}
	entry.Service = "formtemplate"
	if err := s.Log.Log(entry, metadata); err != nil {
		config.Log.WithError(err).WithField("action", entry.Action).Warn("activity log write failed")
	}
}

func nonNil(vs []form.StructuralViolation) []form.StructuralViolation {
	if vs == nil {
		return []form.StructuralViolation{}
	}
	return vs
}
