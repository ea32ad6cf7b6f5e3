package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestStartRequiresConfiguration(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewGoogleService("", "", "", "", nil).RegisterRoutes(r.Group("/api/v1"))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestStartRedirectsWithState(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewGoogleService("client", "secret", "http://localhost/cb", "http://localhost/ui", nil)
	r := gin.New()
	svc.RegisterRoutes(r.Group("/api/v1"))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	if resp.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.Code)
	}
	loc, err := url.Parse(resp.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	state := loc.Query().Get("state")
	if state == "" || !svc.stateStore.consume(state) {
		t.Fatalf("expected a stored state, got %q", state)
	}
}

func TestCallbackRejectsUnknownState(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewGoogleService("client", "secret", "http://localhost/cb", "http://localhost/ui", nil).RegisterRoutes(r.Group("/api/v1"))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=nope&code=abc", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestStateStoreExpiresAndConsumesOnce(t *testing.T) {
	s := newStateStore()
	s.put("fresh", time.Now().Add(time.Minute))
	s.put("stale", time.Now().Add(-time.Minute))

	if !s.consume("fresh") {
		t.Fatalf("expected fresh state to be valid")
	}
	if s.consume("fresh") {
		t.Fatalf("state must only be consumed once")
	}
	if s.consume("stale") {
		t.Fatalf("expected stale state to be rejected")
	}
}

func TestAppendTokenKeepsQuery(t *testing.T) {
	got, err := appendToken("https://app.example.com/login?next=/edit", "abc")
	if err != nil {
		t.Fatalf("appendToken: %v", err)
	}
	if !strings.Contains(got, "next=%2Fedit") || !strings.Contains(got, "token=abc") {
		t.Fatalf("unexpected url %q", got)
	}
	if _, err := appendToken("", "abc"); err == nil {
		t.Fatalf("expected error for empty redirect")
	}
}
