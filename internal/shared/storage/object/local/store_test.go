package local

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestSaveOpenAndURL(t *testing.T) {
	store := New(t.TempDir(), "http://localhost:8080/")

	key, size, mime, err := store.Save(context.Background(), "google:1", "me.txt", strings.NewReader("hello avatar"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if size != int64(len("hello avatar")) {
		t.Fatalf("unexpected size %d", size)
	}
	if !strings.HasPrefix(mime, "text/plain") {
		t.Fatalf("unexpected mime %q", mime)
	}
	if !strings.HasSuffix(key, "_me.txt") {
		t.Fatalf("unexpected key %q", key)
	}

	rc, err := store.Open(context.Background(), key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "hello avatar" {
		t.Fatalf("unexpected body %q", body)
	}

	if got := store.URL(key); got != "http://localhost:8080/api/v1/assets/"+key {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestOpenRejectsTraversal(t *testing.T) {
	store := New(t.TempDir(), "")
	if _, err := store.Open(context.Background(), "../secret"); err == nil {
		t.Fatalf("expected traversal key to be rejected")
	}
}
