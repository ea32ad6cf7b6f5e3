package migration

import (
	"context"
	"errors"
	"testing"

	"portfolio-backend/internal/guest"
	"portfolio-backend/internal/identity"
	"portfolio-backend/internal/portfolios"
)

type failingCreator struct{ err error }

func (f failingCreator) Create(ctx context.Context, ownerID string, data portfolios.Record) (string, error) {
	return "", f.err
}

func seededGuestStore(t *testing.T, ids ...string) *guest.Store {
	t.Helper()
	gs := guest.NewStore(guest.NewMemoryKV())
	for _, id := range ids {
		gs.Save(context.Background(), portfolios.Generate(portfolios.GenerateOptions{
			ID:      id,
			OwnerID: identity.GuestOwnerID,
			Title:   "Guest " + id,
		}))
	}
	return gs
}

func TestMigrationSuccessClearsLocalCopy(t *testing.T) {
	ctx := context.Background()
	gs := seededGuestStore(t, "local-1")
	svc := portfolios.NewService(portfolios.NewMemoryRepo(), nil)
	agent := &Agent{Guest: gs, Remote: svc}

	res, err := agent.Run(ctx, "google:1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Migrated) != 1 || len(res.Failed) != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	moved := res.Migrated[0]
	if moved.GuestID != "local-1" || moved.RemoteID == "" || moved.RemoteID == "local-1" {
		t.Fatalf("expected a new remote id, got %+v", moved)
	}

	left, err := gs.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("expected guest store to be empty, got %d entries", len(left))
	}

	doc, err := svc.Load(ctx, "google:1", moved.RemoteID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Title != "Guest local-1" || doc.OwnerID != "google:1" {
		t.Fatalf("unexpected migrated doc %+v", doc)
	}
}

func TestMigrationFailurePreservesLocalCopy(t *testing.T) {
	ctx := context.Background()
	gs := seededGuestStore(t, "local-1", "local-2")
	agent := &Agent{Guest: gs, Remote: failingCreator{err: errors.New("quota exceeded")}}

	res, err := agent.Run(ctx, "google:1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Failed) != 2 || len(res.Migrated) != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Failed[0].Message != "quota exceeded" {
		t.Fatalf("unexpected failure message %q", res.Failed[0].Message)
	}
	left, _ := gs.LoadAll(ctx)
	if len(left) != 2 {
		t.Fatalf("expected both entries kept, got %d", len(left))
	}
}

func TestMigrationRefusesGuestOwner(t *testing.T) {
	agent := &Agent{Guest: seededGuestStore(t, "a"), Remote: failingCreator{}}
	if _, err := agent.Run(context.Background(), identity.GuestOwnerID); !errors.Is(err, portfolios.ErrGuestOwner) {
		t.Fatalf("expected ErrGuestOwner, got %v", err)
	}
}

func TestOnIdentityChangeOnlyOnSignIn(t *testing.T) {
	ctx := context.Background()
	gs := seededGuestStore(t, "a")
	svc := portfolios.NewService(portfolios.NewMemoryRepo(), nil)
	agent := &Agent{Guest: gs, Remote: svc}
	ada := identity.Session{UserID: "google:1", Email: "ada@example.com"}

	if _, err := agent.OnIdentityChange(ctx, ada, ada); !errors.Is(err, ErrNoTransition) {
		t.Fatalf("expected no run for unchanged identity, got %v", err)
	}
	if _, err := agent.OnIdentityChange(ctx, ada, identity.Anonymous); !errors.Is(err, ErrNoTransition) {
		t.Fatalf("expected no run on sign-out, got %v", err)
	}
	res, err := agent.OnIdentityChange(ctx, identity.Anonymous, ada)
	if err != nil || len(res.Migrated) != 1 {
		t.Fatalf("expected migration on sign-in, got %+v err=%v", res, err)
	}
}
