package s3

import "testing"

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "user/file.pdf", want: "user/file.pdf"},
		{name: "simple prefix", prefix: "root", key: "user/file.pdf", want: "root/user/file.pdf"},
		{name: "prefix trailing slash", prefix: "root/", key: "user/file.pdf", want: "root/user/file.pdf"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/user/file.pdf", want: "root/user/file.pdf"},
		{name: "nested prefix", prefix: "root/sub", key: "user/file.pdf", want: "root/sub/user/file.pdf"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestPublicURL(t *testing.T) {
	if got := publicURL("", "assets", "eu-west-1", "p/a.png"); got != "https://assets.s3.eu-west-1.amazonaws.com/p/a.png" {
		t.Fatalf("unexpected regional url %q", got)
	}
	if got := publicURL("", "assets", "", "a.png"); got != "https://assets.s3.amazonaws.com/a.png" {
		t.Fatalf("unexpected global url %q", got)
	}
	if got := publicURL("https://cdn.example.com", "assets", "eu-west-1", "a.png"); got != "https://cdn.example.com/a.png" {
		t.Fatalf("unexpected cdn url %q", got)
	}
}
