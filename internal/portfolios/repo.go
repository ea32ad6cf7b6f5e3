package portfolios

import (
	"context"
)

// Repo persists raw documents per owner. Records returned carry id, ownerId,
// createdAt and updatedAt alongside the stored data.
type Repo interface {
	Get(ctx context.Context, ownerID, id string) (Record, error)
	// Merge replaces the patch's top-level keys and leaves the rest untouched.
	// updatedAt never moves backwards.
	Merge(ctx context.Context, ownerID, id string, patch Patch, updatedAt int64) error
	Create(ctx context.Context, ownerID, id string, data Record, now int64) error
	Delete(ctx context.Context, ownerID, id string) error
	List(ctx context.Context, ownerID string) ([]Record, error)
}

// Store is the remote persistence contract the editing engine depends on.
type Store interface {
	Get(ctx context.Context, ownerID, id string) (Record, error)
	Merge(ctx context.Context, ownerID, id string, patch Patch) error
	Create(ctx context.Context, ownerID string, data Record) (string, error)
	Delete(ctx context.Context, ownerID, id string) error
	List(ctx context.Context, ownerID string) ([]Record, error)
	// Subscribe calls fn with the latest full record after every change,
	// including the subscriber's own acknowledged writes. The returned func
	// releases the subscription.
	Subscribe(ctx context.Context, ownerID, id string, fn func(Record)) (func(), error)
}

func withMeta(data Record, ownerID, id string, createdAt, updatedAt int64) Record {
	out := data.Clone()
	out["id"] = id
	out["ownerId"] = ownerID
	out["createdAt"] = createdAt
	out["updatedAt"] = updatedAt
	return out
}

func stripMeta(data Record) Record {
	out := make(Record, len(data))
	for k, v := range data {
		if _, ok := immutableKeys[k]; ok {
			continue
		}
		out[k] = v
	}
	return out
}
