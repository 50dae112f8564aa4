package formdraft

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tmi-forms-api/internal/form"

	"github.com/gin-gonic/gin"
)

type mockDraftService struct {
	draftFn func(ctx context.Context, prompt string) (Draft, error)
}

var errNotMocked = errors.New("not mocked")

func (m *mockDraftService) Draft(ctx context.Context, prompt string) (Draft, error) {
	if m.draftFn == nil {
		return Draft{}, errNotMocked
	}
	return m.draftFn(ctx, prompt)
}

func newDraftRouter(svc DraftServiceAPI) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, svc)
	return r
}

func postDraft(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/forms/drafts", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateDraft_OK(t *testing.T) {
	r := newDraftRouter(&mockDraftService{draftFn: func(_ context.Context, prompt string) (Draft, error) {
		if prompt != "camp form" {
			t.Fatalf("prompt=%q", prompt)
		}
		return Draft{Template: &form.Template{ID: "t1", Name: "Camp", Sections: []form.Section{}}}, nil
	}})

	w := postDraft(r, `{"prompt":"camp form"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	var body struct {
		Template   map[string]any `json:"template"`
		Violations []any          `json:"violations"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Template["name"] != "Camp" || body.Violations == nil || len(body.Violations) != 0 {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestCreateDraft_Errors(t *testing.T) {
	cases := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"missing prompt", `{}`, nil, http.StatusBadRequest},
		{"disabled", `{"prompt":"x"}`, ErrDraftsDisabled, http.StatusServiceUnavailable},
		{"blank prompt", `{"prompt":" "}`, ErrEmptyPrompt, http.StatusBadRequest},
		{"bad model output", `{"prompt":"x"}`, &form.ParseError{Path: "name", Msg: "missing"}, http.StatusBadGateway},
		{"generation failure", `{"prompt":"x"}`, errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newDraftRouter(&mockDraftService{draftFn: func(context.Context, string) (Draft, error) {
				return Draft{}, tc.err
			}})
			w := postDraft(r, tc.body)
			if w.Code != tc.want {
				t.Fatalf("status=%d want %d body=%s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}
