package object

import (
	"context"
	"io"
)

// ObjectStore defines the contract for saving and serving binary assets.
type ObjectStore interface {
	Save(ctx context.Context, ownerID string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	// URL returns a publicly fetchable reference for a stored key.
	URL(storageKey string) string
}
