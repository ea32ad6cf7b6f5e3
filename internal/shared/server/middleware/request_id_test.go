package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequestIDKeepsClientValueAndReplacesOversized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFromContext(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Body.String() != "abc-123" || resp.Header().Get("X-Request-Id") != "abc-123" {
		t.Fatalf("expected client id echoed, got %q", resp.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", strings.Repeat("x", maxRequestIDLength+1))
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if got := resp.Body.String(); got == "" || len(got) > maxRequestIDLength {
		t.Fatalf("expected generated id, got %q", got)
	}
}
