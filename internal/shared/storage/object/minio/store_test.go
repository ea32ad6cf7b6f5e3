package minio

import "testing"

func TestURLJoinsBaseAndKey(t *testing.T) {
	s := &Store{bucket: "assets", baseURL: "http://localhost:9000/assets"}
	if got := s.URL("/abc/file.png"); got != "http://localhost:9000/assets/abc/file.png" {
		t.Fatalf("unexpected url %q", got)
	}
}
