package middlewares

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tmi-forms-api/config"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFmt, prevLevel := config.Log.Out, config.Log.Formatter, config.Log.GetLevel()
	config.Log.SetOutput(&buf)
	config.Log.SetFormatter(&logrus.JSONFormatter{})
	config.Log.SetLevel(logrus.InfoLevel)
	t.Cleanup(func() {
		config.Log.SetOutput(prevOut)
		config.Log.SetFormatter(prevFmt)
		config.Log.SetLevel(prevLevel)
	})
	return &buf
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ok", func(c *gin.Context) {
		id, _ := c.Get(RequestIDKey)
		c.JSON(http.StatusOK, gin.H{"request_id": id})
	})
	r.GET("/missing", func(c *gin.Context) { c.JSON(http.StatusNotFound, gin.H{"error": "nope"}) })
	r.GET("/boom", func(c *gin.Context) { c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"}) })
	return r
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var m map[string]interface{}
	if err := json.Unmarshal(lines[len(lines)-1], &m); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}
	return m
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	buf := captureLog(t)
	r := newRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok?x=1", nil))

	id := w.Header().Get("X-Request-ID")
	if id == "" {
		t.Fatalf("expected X-Request-ID header")
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["request_id"] != id {
		t.Fatalf("context id=%q header id=%q", body["request_id"], id)
	}

	line := lastLine(t, buf)
	if line["request_id"] != id || line["uri"] != "/ok?x=1" || line["http_method"] != "GET" {
		t.Fatalf("line=%v", line)
	}
	if line["level"] != "info" || line["status_code"] != float64(200) {
		t.Fatalf("line=%v", line)
	}
}

func TestRequestLogger_ReusesIncomingID(t *testing.T) {
	captureLog(t)
	r := newRouter()

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("X-Request-ID=%q", got)
	}
}

func TestRequestLogger_LevelByStatus(t *testing.T) {
	cases := map[string]string{
		"/missing": "warning",
		"/boom":    "error",
	}
	for path, want := range cases {
		t.Run(path, func(t *testing.T) {
			buf := captureLog(t)
			r := newRouter()
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))

			if got := lastLine(t, buf)["level"]; got != want {
				t.Fatalf("level=%v want %v", got, want)
			}
		})
	}
}
