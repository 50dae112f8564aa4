package formtemplate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tmi-forms-api/internal/document"
	"tmi-forms-api/internal/form"

	"github.com/gin-gonic/gin"
)

type mockTemplateService struct {
	createFn          func(ctx context.Context, req CreateTemplateRequest) (SaveResult, error)
	createFromStockFn func(ctx context.Context, key string) (SaveResult, error)
	importFn          func(ctx context.Context, text []byte) (SaveResult, error)
	exportFn          func(ctx context.Context, id string) ([]byte, error)
	getFn             func(ctx context.Context, id string) (*form.Template, error)
	listFn            func(ctx context.Context, filter ListFilter) ([]*form.Template, error)
	replaceFn         func(ctx context.Context, id string, text []byte) (SaveResult, error)
	deleteFn          func(ctx context.Context, id string) error
	editFn            func(ctx context.Context, id string, req EditRequest) (SaveResult, error)
	structureFn       func(ctx context.Context, id string) ([]form.StructuralViolation, error)
	publishFn         func(ctx context.Context, id string) (SaveResult, error)
	unpublishFn       func(ctx context.Context, id string) (SaveResult, error)
	addToUserFn       func(ctx context.Context, userID, templateID string) error
	listForUserFn     func(ctx context.Context, userID string) ([]*form.Template, error)
}

var errNotMocked = errors.New("not mocked")

func (m *mockTemplateService) Create(ctx context.Context, req CreateTemplateRequest) (SaveResult, error) {
	if m.createFn == nil {
		return SaveResult{}, errNotMocked
	}
	return m.createFn(ctx, req)
}

func (m *mockTemplateService) CreateFromStock(ctx context.Context, key string) (SaveResult, error) {
	if m.createFromStockFn == nil {
		return SaveResult{}, errNotMocked
	}
	return m.createFromStockFn(ctx, key)
}

func (m *mockTemplateService) Import(ctx context.Context, text []byte) (SaveResult, error) {
	if m.importFn == nil {
		return SaveResult{}, errNotMocked
	}
	return m.importFn(ctx, text)
}

func (m *mockTemplateService) Export(ctx context.Context, id string) ([]byte, error) {
	if m.exportFn == nil {
		return nil, errNotMocked
	}
	return m.exportFn(ctx, id)
}

func (m *mockTemplateService) Get(ctx context.Context, id string) (*form.Template, error) {
	if m.getFn == nil {
		return nil, errNotMocked
	}
	return m.getFn(ctx, id)
}

func (m *mockTemplateService) List(ctx context.Context, filter ListFilter) ([]*form.Template, error) {
	if m.listFn == nil {
		return nil, errNotMocked
	}
	return m.listFn(ctx, filter)
}

func (m *mockTemplateService) Replace(ctx context.Context, id string, text []byte) (SaveResult, error) {
	if m.replaceFn == nil {
		return SaveResult{}, errNotMocked
	}
	return m.replaceFn(ctx, id, text)
}

func (m *mockTemplateService) Delete(ctx context.Context, id string) error {
	if m.deleteFn == nil {
		return errNotMocked
	}
	return m.deleteFn(ctx, id)
}

func (m *mockTemplateService) Edit(ctx context.Context, id string, req EditRequest) (SaveResult, error) {
	if m.editFn == nil {
		return SaveResult{}, errNotMocked
	}
	return m.editFn(ctx, id, req)
}

func (m *mockTemplateService) Structure(ctx context.Context, id string) ([]form.StructuralViolation, error) {
	if m.structureFn == nil {
		return nil, errNotMocked
	}
	return m.structureFn(ctx, id)
}

func (m *mockTemplateService) Publish(ctx context.Context, id string) (SaveResult, error) {
	if m.publishFn == nil {
		return SaveResult{}, errNotMocked
	}
	return m.publishFn(ctx, id)
}

func (m *mockTemplateService) Unpublish(ctx context.Context, id string) (SaveResult, error) {
	if m.unpublishFn == nil {
		return SaveResult{}, errNotMocked
	}
	return m.unpublishFn(ctx, id)
}

func (m *mockTemplateService) AddToUser(ctx context.Context, userID, templateID string) error {
	if m.addToUserFn == nil {
		return errNotMocked
	}
	return m.addToUserFn(ctx, userID, templateID)
}

func (m *mockTemplateService) ListForUser(ctx context.Context, userID string) ([]*form.Template, error) {
	if m.listForUserFn == nil {
		return nil, errNotMocked
	}
	return m.listForUserFn(ctx, userID)
}

func setupRouter(svc TemplateServiceAPI) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, svc)
	return r
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
	return m
}

func sampleTemplate() *form.Template {
	return &form.Template{
		ID:   "t1",
		Name: "Signup",
		Sections: []form.Section{{ID: "s1", Title: "S", Fields: []form.Field{
			{ID: "f1", Label: "Pick", Type: form.FieldDropdown, Options: []string{}},
		}}},
	}
}

func TestCreateTemplate(t *testing.T) {
	t.Run("validation error", func(t *testing.T) {
		r := setupRouter(&mockTemplateService{})
		w := doRequest(r, http.MethodPost, "/api/forms/templates", `{"description":"x"}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status=%d", w.Code)
		}
		body := decodeBody(t, w)
		if body["error"] != "validation failed" {
			t.Fatalf("body=%v", body)
		}
	})

	t.Run("created", func(t *testing.T) {
		var got CreateTemplateRequest
		r := setupRouter(&mockTemplateService{
			createFn: func(_ context.Context, req CreateTemplateRequest) (SaveResult, error) {
				got = req
				return SaveResult{Template: &form.Template{ID: "t1", Name: req.Name}}, nil
			},
		})
		w := doRequest(r, http.MethodPost, "/api/forms/templates", `{"name":"Signup","category":"Jobs"}`)
		if w.Code != http.StatusCreated {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		if got.Name != "Signup" || got.Category == nil || *got.Category != "Jobs" {
			t.Fatalf("request=%+v", got)
		}
		body := decodeBody(t, w)
		tmpl := body["template"].(map[string]interface{})
		if tmpl["name"] != "Signup" || tmpl["id"] != "t1" {
			t.Fatalf("template=%v", tmpl)
		}
		if vs, ok := body["violations"].([]interface{}); !ok || len(vs) != 0 {
			t.Fatalf("violations=%v", body["violations"])
		}
	})
}

func TestImportTemplate_ParseError(t *testing.T) {
	r := setupRouter(&mockTemplateService{
		importFn: func(_ context.Context, text []byte) (SaveResult, error) {
			_, err := form.Deserialize(text)
			return SaveResult{}, err
		},
	})

	w := doRequest(r, http.MethodPost, "/api/forms/templates/import", `{"name":"x","sections":[{"fields":[{"label":"a","type":"slider"}]}]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	if msg := decodeBody(t, w)["error"].(string); !strings.Contains(msg, "sections[0].fields[0].type") {
		t.Fatalf("error=%q", msg)
	}
}

func TestGetTemplate(t *testing.T) {
	r := setupRouter(&mockTemplateService{
		getFn: func(_ context.Context, id string) (*form.Template, error) {
			if id != "t1" {
				return nil, fmt.Errorf("get %s: %w", id, document.ErrNotFound)
			}
			return sampleTemplate(), nil
		},
	})

	w := doRequest(r, http.MethodGet, "/api/forms/templates/t1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if decodeBody(t, w)["name"] != "Signup" {
		t.Fatalf("body=%s", w.Body.String())
	}

	w = doRequest(r, http.MethodGet, "/api/forms/templates/zzz", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestPublishTemplate_Blocked(t *testing.T) {
	r := setupRouter(&mockTemplateService{
		publishFn: func(_ context.Context, _ string) (SaveResult, error) {
			return SaveResult{}, &PublishBlockedError{Violations: form.ValidateStructure(sampleTemplate())}
		},
	})

	w := doRequest(r, http.MethodPost, "/api/forms/templates/t1/publish", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d", w.Code)
	}
	vs := decodeBody(t, w)["violations"].([]interface{})
	if len(vs) != 1 || vs[0].(map[string]interface{})["code"] != string(form.CodeMissingOptions) {
		t.Fatalf("violations=%v", vs)
	}
}

func TestEditTemplate(t *testing.T) {
	t.Run("unknown op", func(t *testing.T) {
		r := setupRouter(&mockTemplateService{})
		w := doRequest(r, http.MethodPost, "/api/forms/templates/t1/edit", `{"op":"explode"}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status=%d", w.Code)
		}
	})

	t.Run("invalid edit from service", func(t *testing.T) {
		r := setupRouter(&mockTemplateService{
			editFn: func(_ context.Context, _ string, _ EditRequest) (SaveResult, error) {
				return SaveResult{}, fmt.Errorf("%w: unknown field type", ErrInvalidEdit)
			},
		})
		w := doRequest(r, http.MethodPost, "/api/forms/templates/t1/edit", `{"op":"addField","fieldType":"slider"}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status=%d", w.Code)
		}
	})

	t.Run("ok carries violations", func(t *testing.T) {
		var got EditRequest
		r := setupRouter(&mockTemplateService{
			editFn: func(_ context.Context, id string, req EditRequest) (SaveResult, error) {
				got = req
				tmpl := sampleTemplate()
				return SaveResult{Template: tmpl, Violations: form.ValidateStructure(tmpl)}, nil
			},
		})
		w := doRequest(r, http.MethodPost, "/api/forms/templates/t1/edit", `{"op":"removeOption","section":0,"field":0,"option":0}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		if got.Op != OpRemoveOption {
			t.Fatalf("op=%q", got.Op)
		}
		if vs := decodeBody(t, w)["violations"].([]interface{}); len(vs) != 1 {
			t.Fatalf("violations=%v", vs)
		}
	})
}

func TestExportTemplate(t *testing.T) {
	r := setupRouter(&mockTemplateService{
		exportFn: func(_ context.Context, id string) ([]byte, error) {
			return form.Serialize(sampleTemplate())
		},
	})

	w := doRequest(r, http.MethodGet, "/api/forms/templates/t1/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="template_t1.json"` {
		t.Fatalf("Content-Disposition=%q", cd)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	r := setupRouter(&mockTemplateService{})

	w := doRequest(r, http.MethodGet, "/api/forms/field-types", "")
	if w.Code != http.StatusOK {
		t.Fatalf("field-types status=%d", w.Code)
	}
	if data := decodeBody(t, w)["data"].([]interface{}); len(data) != len(form.FieldTypes()) {
		t.Fatalf("field types=%d", len(data))
	}

	w = doRequest(r, http.MethodGet, "/api/forms/rule-kinds?field_type=email", "")
	if w.Code != http.StatusOK {
		t.Fatalf("rule-kinds status=%d", w.Code)
	}
	if data := decodeBody(t, w)["data"].([]interface{}); len(data) != len(form.ApplicableRuleKinds(form.FieldEmail)) {
		t.Fatalf("rule kinds=%d", len(data))
	}

	w = doRequest(r, http.MethodGet, "/api/forms/rule-kinds?field_type=slider", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("rule-kinds bad type status=%d", w.Code)
	}

	w = doRequest(r, http.MethodGet, "/api/forms/sections/defaults", "")
	if w.Code != http.StatusOK {
		t.Fatalf("sections status=%d", w.Code)
	}
	data := decodeBody(t, w)["data"].([]interface{})
	if len(data) != len(form.DefaultSectionKeys()) || data[0].(map[string]interface{})["key"] != "camperDetails" {
		t.Fatalf("sections=%v", data)
	}
}

func TestUserTemplates(t *testing.T) {
	var added [2]string
	r := setupRouter(&mockTemplateService{
		addToUserFn: func(_ context.Context, userID, templateID string) error {
			added = [2]string{userID, templateID}
			return nil
		},
		listForUserFn: func(_ context.Context, userID string) ([]*form.Template, error) {
			return []*form.Template{sampleTemplate()}, nil
		},
	})

	w := doRequest(r, http.MethodPost, "/api/forms/users/u1/templates", `{"templateId":"t1"}`)
	if w.Code != http.StatusOK || added != [2]string{"u1", "t1"} {
		t.Fatalf("status=%d added=%v", w.Code, added)
	}

	w = doRequest(r, http.MethodGet, "/api/forms/users/u1/templates", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if data := decodeBody(t, w)["data"].([]interface{}); len(data) != 1 {
		t.Fatalf("data=%v", data)
	}
}

func TestWriteError_Internal(t *testing.T) {
	r := setupRouter(&mockTemplateService{
		deleteFn: func(_ context.Context, _ string) error { return errors.New("db down") },
	})

	w := doRequest(r, http.MethodDelete, "/api/forms/templates/t1", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
}
