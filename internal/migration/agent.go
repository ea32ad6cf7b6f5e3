package migration

import (
	"context"
	"errors"
	"fmt"

	"portfolio-backend/internal/guest"
	"portfolio-backend/internal/identity"
	"portfolio-backend/internal/portfolios"
	"portfolio-backend/internal/shared/metrics"
	"portfolio-backend/internal/shared/telemetry"
)

// Creator is the part of the remote store migration writes through.
type Creator interface {
	Create(ctx context.Context, ownerID string, data portfolios.Record) (string, error)
}

// Moved pairs a guest-local id with the id the remote store assigned.
type Moved struct {
	GuestID  string `json:"guestId"`
	RemoteID string `json:"id"`
}

// Failure is a snapshot that stayed in the guest store.
type Failure struct {
	GuestID string `json:"guestId"`
	Err     error  `json:"-"`
	Message string `json:"error"`
}

type Result struct {
	Migrated []Moved   `json:"migrated"`
	Failed   []Failure `json:"failed"`
}

// Agent promotes guest snapshots into an account.
type Agent struct {
	Guest  *guest.Store
	Remote Creator
}

// Run creates one new remote document per guest snapshot and clears each
// snapshot only after its create succeeded. Failures are kept for a later
// run. The error is non-nil only when the guest store cannot be listed.
func (a *Agent) Run(ctx context.Context, ownerID string) (Result, error) {
	res := Result{Migrated: []Moved{}, Failed: []Failure{}}
	if ownerID == "" || ownerID == identity.GuestOwnerID {
		return res, portfolios.ErrGuestOwner
	}
	snaps, err := a.Guest.LoadAll(ctx)
	if err != nil {
		return res, fmt.Errorf("list guest snapshots: %w", err)
	}

	for _, snap := range snaps {
		data := snap.Data.Clone()
		delete(data, "id")
		delete(data, "ownerId")

		remoteID, err := a.Remote.Create(ctx, ownerID, data)
		if err != nil {
			res.Failed = append(res.Failed, failure(snap.ID, ownerID, err))
			continue
		}
		if err := a.Guest.Clear(ctx, snap.ID); err != nil {
			// The document now exists remotely; a later run would copy it again.
			telemetry.Warn("migration.clear_failed", map[string]any{
				"guest_id":     snap.ID,
				"portfolio_id": remoteID,
				"owner_id":     ownerID,
				"error":        err.Error(),
			})
		}
		metrics.IncMigrated()
		telemetry.Info("migration.migrated", map[string]any{
			"guest_id":     snap.ID,
			"portfolio_id": remoteID,
			"owner_id":     ownerID,
		})
		res.Migrated = append(res.Migrated, Moved{GuestID: snap.ID, RemoteID: remoteID})
	}
	return res, nil
}

func failure(guestID, ownerID string, err error) Failure {
	metrics.IncMigrationFailed()
	telemetry.Warn("migration.create_failed", map[string]any{
		"guest_id": guestID,
		"owner_id": ownerID,
		"error":    err.Error(),
	})
	return Failure{GuestID: guestID, Err: err, Message: err.Error()}
}

// ErrNoTransition is returned when identity did not go from anonymous to
// signed in.
var ErrNoTransition = errors.New("migration: no sign-in transition")

// OnIdentityChange runs the agent once per anonymous to signed-in change.
func (a *Agent) OnIdentityChange(ctx context.Context, prev, next identity.Session) (Result, error) {
	if prev.Authenticated() || !next.Authenticated() {
		return Result{}, ErrNoTransition
	}
	return a.Run(ctx, next.UserID)
}
