package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"portfolio-backend/internal/imagegen"
)

func withBaseURL(t *testing.T, url string) {
	t.Helper()
	old := baseURL
	baseURL = url
	t.Cleanup(func() { baseURL = old })
}

func TestGenerateReturnsDataURL(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/generations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing auth header")
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"b64_json":"aGVsbG8="}]}`))
	}))
	defer server.Close()
	withBaseURL(t, server.URL)

	client, err := NewClient("test-key", "gpt-image-1", 100)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	img, err := client.Generate(context.Background(), imagegen.Request{Prompt: "a red fox"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if img.URL != "data:image/png;base64,aGVsbG8=" {
		t.Fatalf("unexpected url %q", img.URL)
	}
	if payload["prompt"] != "a red fox" || payload["model"] != "gpt-image-1" || payload["size"] != defaultSize {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestGenerateEditsSourceImage(t *testing.T) {
	var sawEdit atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/source.png":
			_, _ = w.Write([]byte("\x89PNG fake"))
		case "/images/edits":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("parse multipart: %v", err)
			}
			if r.FormValue("prompt") != "make it blue" {
				t.Errorf("unexpected prompt %q", r.FormValue("prompt"))
			}
			if _, _, err := r.FormFile("image"); err != nil {
				t.Errorf("missing image part: %v", err)
			}
			sawEdit.Store(true)
			_, _ = w.Write([]byte(`{"data":[{"url":"https://images.example.com/out.png"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()
	withBaseURL(t, server.URL)

	client, _ := NewClient("test-key", "gpt-image-1", 100)
	img, err := client.Generate(context.Background(), imagegen.Request{Prompt: "make it blue", SourceURL: server.URL + "/source.png"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !sawEdit.Load() || img.URL != "https://images.example.com/out.png" {
		t.Fatalf("expected edit result, got %+v", img)
	}
}

func TestGenerateSurfacesProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"content policy","type":"invalid_request_error"}}`))
	}))
	defer server.Close()
	withBaseURL(t, server.URL)

	client, _ := NewClient("test-key", "gpt-image-1", 100)
	_, err := client.Generate(context.Background(), imagegen.Request{Prompt: "x"})
	if err == nil || !strings.Contains(err.Error(), "content policy") {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestGenerateRejectsEmptyPromptWithoutCalling(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()
	withBaseURL(t, server.URL)

	client, _ := NewClient("test-key", "gpt-image-1", 100)
	if _, err := client.Generate(context.Background(), imagegen.Request{Prompt: "  "}); err != imagegen.ErrEmptyPrompt {
		t.Fatalf("expected ErrEmptyPrompt, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("provider must not be called")
	}
}

func TestGenerateHonorsThrottle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"url":"https://images.example.com/a.png"}]}`))
	}))
	defer server.Close()
	withBaseURL(t, server.URL)

	client, _ := NewClient("test-key", "gpt-image-1", 0.001)
	if _, err := client.Generate(context.Background(), imagegen.Request{Prompt: "first"}); err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := client.Generate(ctx, imagegen.Request{Prompt: "second"}); err == nil {
		t.Fatalf("expected throttled call to fail within the deadline")
	}
}

func TestNewClientRequiresKeyAndModel(t *testing.T) {
	if _, err := NewClient("", "gpt-image-1", 1); err == nil {
		t.Fatalf("expected missing key error")
	}
	if _, err := NewClient("k", " ", 1); err == nil {
		t.Fatalf("expected missing model error")
	}
}
