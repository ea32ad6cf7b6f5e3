package util

import (
	"bytes"
	"testing"
)

func TestHashUserKey(t *testing.T) {
	id := "google:12345"
	got := HashUserKey(id)
	if got != HashUserKey(id) {
		t.Fatalf("expected stable hash, got %s", got)
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("hash contains non-hex character: %c", ch)
		}
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
}

func TestSanitizeFileName(t *testing.T) {
	got, err := SanitizeFileName(" avatars/me.png ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "avatars_me.png" {
		t.Fatalf("expected separators replaced, got %q", got)
	}
	if _, err := SanitizeFileName("../etc/passwd"); err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
	if _, err := SanitizeFileName("   "); err == nil {
		t.Fatalf("expected blank name to be rejected")
	}
}

func TestSniffContentTypeKeepsPrefix(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	mime, prefix, err := SniffContentType(bytes.NewReader(png))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mime != "image/png" {
		t.Fatalf("expected image/png, got %q", mime)
	}
	if !bytes.Equal(prefix, png) {
		t.Fatalf("expected sniffed prefix to equal input")
	}
	if len(RandomID()) != 32 {
		t.Fatalf("expected 32 hex characters")
	}
}
