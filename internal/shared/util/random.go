package util

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RandomID returns 32 hex characters, falling back to the clock if the system RNG fails.
func RandomID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}

// SniffContentType reads up to 512 bytes from r and returns the detected mime type
// together with a reader that replays the sniffed prefix.
func SniffContentType(r io.Reader) (string, []byte, error) {
	var sniff [512]byte
	n, err := io.ReadFull(r, sniff[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, fmt.Errorf("read sniff: %w", err)
	}
	return http.DetectContentType(sniff[:n]), sniff[:n], nil
}
