package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"employee-assistant/cmd/internal/trace"
)

func newEngine(t *testing.T, seen *string, body *string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestTrace())
	handler := func(c *gin.Context) {
		*seen = trace.RequestIDFromContext(c.Request.Context())
		if c.Request.Body != nil {
			b, _ := io.ReadAll(c.Request.Body)
			*body = string(b)
		}
		c.Status(http.StatusNoContent)
	}
	r.POST("/api/v1/message", handler)
	r.POST("/api/v1/upload", handler)
	return r
}

func TestRequestTraceKeepsIncomingRequestID(t *testing.T) {
	var seen, body string
	r := newEngine(t, &seen, &body)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/message", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set(headerRequestID, "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if seen != "req-123" {
		t.Fatalf("expected request id in context, got %q", seen)
	}
	if got := rec.Header().Get(headerRequestID); got != "req-123" {
		t.Fatalf("expected echoed request id, got %q", got)
	}
	if body != `{"message":"hi"}` {
		t.Fatalf("expected body to be restored, got %q", body)
	}
}

func TestRequestTraceGeneratesRequestID(t *testing.T) {
	var seen, body string
	r := newEngine(t, &seen, &body)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/upload", strings.NewReader(`{}`)))

	if seen == "" || rec.Header().Get(headerRequestID) != seen {
		t.Fatalf("expected generated request id, ctx=%q header=%q", seen, rec.Header().Get(headerRequestID))
	}
	if body != `{}` {
		t.Fatalf("upload body must reach the handler, got %q", body)
	}
}

func TestShouldLogBody(t *testing.T) {
	testCases := []struct {
		method string
		path   string
		want   bool
	}{
		{http.MethodPost, "/api/v1/message", true},
		{http.MethodPost, "/api/v1/upload", false},
		{http.MethodPost, "/auth/token", false},
		{http.MethodGet, "/api/v1/conversations", false},
	}
	for _, testCase := range testCases {
		req := httptest.NewRequest(testCase.method, testCase.path, strings.NewReader("x"))
		if got := shouldLogBody(req); got != testCase.want {
			t.Fatalf("%s %s: got %v want %v", testCase.method, testCase.path, got, testCase.want)
		}
	}
}
