package bootstrap

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"portfolio-backend/internal/shared/auth"
	"portfolio-backend/internal/shared/config"
)

func devConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Env:             "dev",
		GuestStoreType:  "memory",
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		PublicBaseURL:   "http://localhost:8080",
		ImageProvider:   "none",
	}
}

func TestBuildDevServesHealthAndMetrics(t *testing.T) {
	app, err := Build(devConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()

	for _, path := range []string{"/api/v1/health", "/metrics"} {
		resp := httptest.NewRecorder()
		app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.Code)
		}
	}
}

func TestBuildWiresEditingFlow(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	app, err := Build(devConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()

	token, err := auth.SignJWT(auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "google:1"}, Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	send := func(method, path string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			_ = json.NewEncoder(&buf).Encode(body)
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		app.Router.ServeHTTP(resp, req)
		return resp
	}

	created := send(http.MethodPost, "/api/v1/portfolios", map[string]any{"title": "Ada"})
	if created.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", created.Code, created.Body.String())
	}
	var doc struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(created.Body.Bytes(), &doc)

	edited := send(http.MethodPatch, "/api/v1/portfolios/"+doc.ID+"/fields", map[string]any{"path": "hero.headline", "value": "Engineer"})
	if edited.Code != http.StatusOK || !strings.Contains(edited.Body.String(), "Engineer") {
		t.Fatalf("edit: expected 200 with headline, got %d: %s", edited.Code, edited.Body.String())
	}

	gen := send(http.MethodPost, "/api/v1/portfolios/"+doc.ID+"/assets/generate", map[string]any{"path": "hero.avatarUrl", "prompt": "a fox"})
	if gen.Code != http.StatusServiceUnavailable {
		t.Fatalf("generate without provider: expected 503, got %d: %s", gen.Code, gen.Body.String())
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	cfg := devConfig(t)
	cfg.Env = "production"
	if _, err := Build(cfg); err == nil {
		t.Fatalf("expected error without DATABASE_URL in production")
	}
}

func TestBuildRejectsRedisGuestStoreWithoutURL(t *testing.T) {
	cfg := devConfig(t)
	cfg.GuestStoreType = "redis"
	if _, err := Build(cfg); err == nil {
		t.Fatalf("expected error for redis guest store without REDIS_URL")
	}
}
