package identity

import (
	"context"

	"portfolio-backend/internal/shared/telemetry"
)

// HandleLookup translates a handle into an account id.
type HandleLookup interface {
	LookupByHandle(ctx context.Context, handle string) (string, error)
}

// Resolver decides which owner partition a document belongs to.
type Resolver struct {
	Lookup HandleLookup
}

// Resolve never fails: a handle that cannot be looked up falls back to the
// caller's own account so they can keep editing their documents.
func (r *Resolver) Resolve(ctx context.Context, s Session, documentID, handle string) Owner {
	if !s.Authenticated() {
		return GuestOwner()
	}
	self := Owner{ID: s.UserID, Kind: KindSelf}

	handle = NormalizeHandle(handle)
	if handle == "" || handle == s.Handle() {
		return self
	}
	if r == nil || r.Lookup == nil {
		telemetry.Warn("identity.lookup_unavailable", map[string]any{
			"document_id": documentID,
			"handle":      handle,
		})
		return self
	}

	ownerID, err := r.Lookup.LookupByHandle(ctx, handle)
	if err != nil || ownerID == "" {
		telemetry.Warn("identity.lookup_failed", map[string]any{
			"document_id": documentID,
			"handle":      handle,
			"user_id":     s.UserID,
			"error":       err,
		})
		return self
	}
	if ownerID == s.UserID {
		return self
	}
	return Owner{ID: ownerID, Kind: KindOther}
}
