package formtemplate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"tmi-forms-api/internal/document"
	"tmi-forms-api/internal/form"
	"tmi-forms-api/internal/logs"
)

type recordingLogger struct {
	entries []logs.SystemLog
	err     error
}

func (r *recordingLogger) Log(entry logs.SystemLog, _ interface{}) error {
	r.entries = append(r.entries, entry)
	return r.err
}

func (r *recordingLogger) actions() []string {
	var out []string
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

var testEpoch = time.Date(2024, 9, 14, 10, 0, 0, 0, time.UTC)

func newTestService() (*TemplateService, *recordingLogger) {
	now := testEpoch
	rec := &recordingLogger{}
	return &TemplateService{
		Store: document.NewMemoryStore(),
		Log:   rec,
		Now: func() time.Time {
			now = now.Add(time.Second)
			return now
		},
	}, rec
}

func mustCreate(t *testing.T, svc *TemplateService, name string) *form.Template {
	t.Helper()
	res, err := svc.Create(context.Background(), CreateTemplateRequest{Name: name})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return res.Template
}

func mustEdit(t *testing.T, svc *TemplateService, id string, req EditRequest) SaveResult {
	t.Helper()
	res, err := svc.Edit(context.Background(), id, req)
	if err != nil {
		t.Fatalf("Edit(%s): %v", req.Op, err)
	}
	return res
}

func TestTemplateService_CreateAndGet(t *testing.T) {
	svc, rec := newTestService()
	ctx := context.Background()
	cat := "Camps"

	res, err := svc.Create(ctx, CreateTemplateRequest{Name: "Signup", Description: "d", Category: &cat})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.Template.IsActive {
		t.Fatalf("new template must be inactive")
	}
	if res.Violations == nil || len(res.Violations) != 0 {
		t.Fatalf("violations=%v", res.Violations)
	}

	got, err := svc.Get(ctx, res.Template.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Signup" || got.Category == nil || *got.Category != "Camps" {
		t.Fatalf("got %+v", got)
	}
	if !got.CreatedAt.Equal(res.Template.CreatedAt) {
		t.Fatalf("createdAt=%v want %v", got.CreatedAt, res.Template.CreatedAt)
	}
	if len(rec.entries) != 1 || rec.entries[0].Action != logs.ActionTemplateCreated || rec.entries[0].Service != "formtemplate" {
		t.Fatalf("log entries=%+v", rec.entries)
	}

	if _, err := svc.Get(ctx, "missing"); !errors.Is(err, document.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTemplateService_EditFlow(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	tmpl := mustCreate(t, svc, "Signup")

	mustEdit(t, svc, tmpl.ID, EditRequest{Op: OpAddSection, Text: "Contact"})
	res := mustEdit(t, svc, tmpl.ID, EditRequest{Op: OpAddField, Section: 0, FieldType: "dropdown"})
	if len(res.Violations) != 0 {
		t.Fatalf("violations=%+v", res.Violations)
	}
	res = mustEdit(t, svc, tmpl.ID, EditRequest{Op: OpRemoveOption, Section: 0, Field: 0, Option: 0})
	if len(res.Violations) != 1 || res.Violations[0].Code != form.CodeMissingOptions {
		t.Fatalf("violations=%+v", res.Violations)
	}

	res = mustEdit(t, svc, tmpl.ID, EditRequest{Op: OpAddOption, Section: 0, Field: 0, Text: "Blue"})
	if len(res.Violations) != 0 {
		t.Fatalf("violations=%+v", res.Violations)
	}

	mustEdit(t, svc, tmpl.ID, EditRequest{Op: OpAddField, Section: 0, FieldType: "email"})
	mustEdit(t, svc, tmpl.ID, EditRequest{Op: OpSetFieldLabel, Section: 0, Field: 1, Text: "Email"})
	mustEdit(t, svc, tmpl.ID, EditRequest{
		Op: OpSetValidationRules, Section: 0, Field: 1,
		Rules: json.RawMessage(`[{"rule":"Email Format","message":"Enter a valid email"}]`),
	})
	mustEdit(t, svc, tmpl.ID, EditRequest{Op: OpMoveField, Section: 0, Field: 1, Direction: "up"})
	mustEdit(t, svc, tmpl.ID, EditRequest{Op: OpAttachDefaultSection, DefaultSection: "consent"})

	got, err := svc.Get(ctx, tmpl.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Sections) != 2 || got.Sections[1].Title != "Consent" {
		t.Fatalf("sections=%+v", got.Sections)
	}
	email := got.Sections[0].Fields[0]
	if email.Label != "Email" || len(email.Rules) != 1 || email.Rules[0].ID == "" {
		t.Fatalf("email field=%+v", email)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Fatalf("updatedAt %v should follow createdAt %v", got.UpdatedAt, got.CreatedAt)
	}
}

func TestTemplateService_EditErrors(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	tmpl := mustCreate(t, svc, "Signup")
	mustEdit(t, svc, tmpl.ID, EditRequest{Op: OpAddSection, Text: "S"})

	cases := []EditRequest{
		{Op: OpAddField, FieldType: "slider"},
		{Op: OpMoveSection, Direction: "sideways"},
		{Op: OpAttachDefaultSection, DefaultSection: "nope"},
		{Op: "explode"},
	}
	for _, req := range cases {
		if _, err := svc.Edit(ctx, tmpl.ID, req); !errors.Is(err, ErrInvalidEdit) {
			t.Fatalf("%s: expected ErrInvalidEdit, got %v", req.Op, err)
		}
	}

	_, err := svc.Edit(ctx, tmpl.ID, EditRequest{Op: OpSetValidationRules, Rules: json.RawMessage(`[{"rule":"Nope"}]`)})
	var pe *form.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}

	if _, err := svc.Edit(ctx, "missing", EditRequest{Op: OpSetName, Text: "x"}); !errors.Is(err, document.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTemplateService_OutOfRangeEditIsNoop(t *testing.T) {
	svc, _ := newTestService()
	tmpl := mustCreate(t, svc, "Signup")

	res := mustEdit(t, svc, tmpl.ID, EditRequest{Op: OpRemoveField, Section: 4, Field: 2})
	if !res.Template.UpdatedAt.Equal(tmpl.UpdatedAt) {
		t.Fatalf("updatedAt changed on a no-op edit")
	}
}

func TestTemplateService_PublishGate(t *testing.T) {
	svc, rec := newTestService()
	ctx := context.Background()
	tmpl := mustCreate(t, svc, "Signup")
	mustEdit(t, svc, tmpl.ID, EditRequest{Op: OpAddSection, Text: "S"})
	mustEdit(t, svc, tmpl.ID, EditRequest{Op: OpAddField, FieldType: "multipleChoice"})
	mustEdit(t, svc, tmpl.ID, EditRequest{Op: OpSetFieldOptions, Options: []string{}})

	_, err := svc.Publish(ctx, tmpl.ID)
	var blocked *PublishBlockedError
	if !errors.As(err, &blocked) || len(blocked.Violations) != 1 {
		t.Fatalf("expected PublishBlockedError, got %v", err)
	}

	mustEdit(t, svc, tmpl.ID, EditRequest{Op: OpAddOption, Text: "A"})
	res, err := svc.Publish(ctx, tmpl.ID)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !res.Template.IsActive {
		t.Fatalf("expected active template")
	}
	if last := rec.actions()[len(rec.entries)-1]; last != logs.ActionTemplatePublished {
		t.Fatalf("last action=%s", last)
	}

	res, err = svc.Unpublish(ctx, tmpl.ID)
	if err != nil || res.Template.IsActive {
		t.Fatalf("Unpublish: active=%v err=%v", res.Template.IsActive, err)
	}
}

func TestTemplateService_ImportExport(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	stock, err := svc.CreateFromStock(ctx, "jobApplication")
	if err != nil {
		t.Fatalf("CreateFromStock: %v", err)
	}
	text, err := svc.Export(ctx, stock.Template.ID)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	imported, err := svc.Import(ctx, text)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if imported.Template.ID == stock.Template.ID {
		t.Fatalf("import of an existing id must get a fresh id")
	}
	if imported.Template.Name != stock.Template.Name || len(imported.Template.Sections) != len(stock.Template.Sections) {
		t.Fatalf("imported=%+v", imported.Template)
	}
	if !imported.Template.CreatedAt.Equal(stock.Template.CreatedAt) {
		t.Fatalf("createdAt should be kept from the text")
	}

	fresh, err := svc.Import(ctx, []byte(`{"id":"legacy-1","name":"Legacy","sections":[]}`))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if fresh.Template.ID != "legacy-1" || fresh.Template.CreatedAt.IsZero() {
		t.Fatalf("fresh=%+v", fresh.Template)
	}

	_, err = svc.Import(ctx, []byte(`{"name":"x","sections":[{"fields":[{"label":"a","type":"slider"}]}]}`))
	var pe *form.ParseError
	if !errors.As(err, &pe) || pe.Path != "sections[0].fields[0].type" {
		t.Fatalf("expected ParseError at type, got %v", err)
	}

	if _, err := svc.CreateFromStock(ctx, "nope"); !errors.Is(err, ErrUnknownStock) {
		t.Fatalf("expected ErrUnknownStock, got %v", err)
	}
}

func TestTemplateService_Replace(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	tmpl := mustCreate(t, svc, "Old")

	res, err := svc.Replace(ctx, tmpl.ID, []byte(`{"id":"other","name":"New","sections":[{"id":"s","title":"S","fields":[]}]}`))
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if res.Template.ID != tmpl.ID || res.Template.Name != "New" {
		t.Fatalf("replaced=%+v", res.Template)
	}
	if !res.Template.CreatedAt.Equal(tmpl.CreatedAt) {
		t.Fatalf("createdAt not kept")
	}

	if _, err := svc.Replace(ctx, "missing", []byte(`{"name":"x","sections":[]}`)); !errors.Is(err, document.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTemplateService_StructurallyInvalidNeverActive(t *testing.T) {
	const broken = `{"id":"%s","name":"Broken","isActive":true,"sections":[{"id":"s","title":"S","fields":[
		{"id":"pick","label":"Pick","type":"dropdown","isRequired":false,"validationRules":[
			{"id":"r","rule":"Minimum Numeric Value","message":"min 10","value":10}]}]}]}`

	assertInactive := func(t *testing.T, svc *TemplateService, res SaveResult) {
		t.Helper()
		if res.Template.IsActive || len(res.Violations) == 0 {
			t.Fatalf("active=%v violations=%v", res.Template.IsActive, res.Violations)
		}
		stored, err := svc.Get(context.Background(), res.Template.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if stored.IsActive {
			t.Fatalf("stored template is still active")
		}
	}

	t.Run("import", func(t *testing.T) {
		svc, _ := newTestService()
		res, err := svc.Import(context.Background(), []byte(fmt.Sprintf(broken, "imp-1")))
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		assertInactive(t, svc, res)
	})

	t.Run("replace", func(t *testing.T) {
		svc, _ := newTestService()
		tmpl := mustCreate(t, svc, "Old")
		res, err := svc.Replace(context.Background(), tmpl.ID, []byte(fmt.Sprintf(broken, tmpl.ID)))
		if err != nil {
			t.Fatalf("Replace: %v", err)
		}
		assertInactive(t, svc, res)
	})

	t.Run("edit", func(t *testing.T) {
		svc, _ := newTestService()
		tmpl := mustCreate(t, svc, "Survey")
		mustEdit(t, svc, tmpl.ID, EditRequest{Op: OpAddSection, Text: "S"})
		mustEdit(t, svc, tmpl.ID, EditRequest{Op: OpAddField, FieldType: "multipleChoice"})
		mustEdit(t, svc, tmpl.ID, EditRequest{Op: OpSetFieldOptions, Options: []string{"A"}})
		if res, err := svc.Publish(context.Background(), tmpl.ID); err != nil || !res.Template.IsActive {
			t.Fatalf("Publish: err=%v", err)
		}

		assertInactive(t, svc, mustEdit(t, svc, tmpl.ID, EditRequest{Op: OpSetFieldOptions, Options: []string{}}))
	})

	t.Run("valid import stays active", func(t *testing.T) {
		svc, _ := newTestService()
		res, err := svc.Import(context.Background(), []byte(`{"id":"ok-1","name":"Fine","isActive":true,"sections":[]}`))
		if err != nil || !res.Template.IsActive {
			t.Fatalf("Import: active=%v err=%v", res.Template.IsActive, err)
		}
	})
}

func TestTemplateService_ListAndDelete(t *testing.T) {
	svc, rec := newTestService()
	ctx := context.Background()
	cat := "Jobs"

	if _, err := svc.Create(ctx, CreateTemplateRequest{Name: "A", Category: &cat}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	b := mustCreate(t, svc, "B")
	stock, err := svc.CreateFromStock(ctx, "camperRegistration")
	if err != nil {
		t.Fatalf("CreateFromStock: %v", err)
	}

	all, err := svc.List(ctx, ListFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("List all: n=%d err=%v", len(all), err)
	}
	jobs, _ := svc.List(ctx, ListFilter{Category: "Jobs"})
	if len(jobs) != 1 || jobs[0].Name != "A" {
		t.Fatalf("jobs=%v", jobs)
	}
	active, _ := svc.List(ctx, ListFilter{ActiveOnly: true})
	if len(active) != 1 || active[0].ID != stock.Template.ID {
		t.Fatalf("active=%v", active)
	}

	if err := svc.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, b.ID); !errors.Is(err, document.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if last := rec.actions()[len(rec.entries)-1]; last != logs.ActionTemplateDeleted {
		t.Fatalf("last action=%s", last)
	}
}

func TestTemplateService_UserForms(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a := mustCreate(t, svc, "A")
	b := mustCreate(t, svc, "B")

	for _, id := range []string{a.ID, b.ID, a.ID} {
		if err := svc.AddToUser(ctx, "u1", id); err != nil {
			t.Fatalf("AddToUser(%s): %v", id, err)
		}
	}
	if err := svc.AddToUser(ctx, "u1", "missing"); !errors.Is(err, document.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := svc.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	mine, err := svc.ListForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != a.ID {
		t.Fatalf("mine=%v", mine)
	}

	other, err := svc.ListForUser(ctx, "u2")
	if err != nil || len(other) != 0 {
		t.Fatalf("other=%v err=%v", other, err)
	}
}

func TestTemplateService_LogFailureDoesNotFailSave(t *testing.T) {
	svc, rec := newTestService()
	rec.err = errors.New("log table down")

	if _, err := svc.Create(context.Background(), CreateTemplateRequest{Name: "A"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
}
