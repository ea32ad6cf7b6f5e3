package portfolios

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"portfolio-backend/internal/identity"
	"portfolio-backend/internal/shared/telemetry"
)

// Service is the remote store: a Repo for state plus a Feed for change
// notifications.
type Service struct {
	Repo Repo
	Feed Feed
	Now  func() time.Time
}

// NewService wires a repo and a feed; a nil feed means in-process delivery.
func NewService(repo Repo, feed Feed) *Service {
	if feed == nil {
		feed = NewMemoryFeed()
	}
	return &Service{Repo: repo, Feed: feed}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func checkOwner(ownerID string) error {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" || ownerID == identity.GuestOwnerID || strings.HasPrefix(ownerID, "guest:") {
		return ErrGuestOwner
	}
	return nil
}

func (s *Service) Get(ctx context.Context, ownerID, id string) (Record, error) {
	if err := checkOwner(ownerID); err != nil {
		return nil, err
	}
	return s.Repo.Get(ctx, ownerID, id)
}

// Merge writes the patch and notifies subscribers. A failed notification is
// logged; the write itself has succeeded.
func (s *Service) Merge(ctx context.Context, ownerID, id string, patch Patch) error {
	if err := checkOwner(ownerID); err != nil {
		return err
	}
	patch = patch.Sanitized()
	if len(patch) == 0 {
		return nil
	}
	if err := s.Repo.Merge(ctx, ownerID, id, patch, s.now().UnixMilli()); err != nil {
		return err
	}
	s.publish(ctx, ownerID, id)
	return nil
}

// Create stores data as a new document and returns the id assigned to it.
// Any id carried by data is ignored.
func (s *Service) Create(ctx context.Context, ownerID string, data Record) (string, error) {
	if err := checkOwner(ownerID); err != nil {
		return "", err
	}
	id := uuid.NewString()
	if err := s.Repo.Create(ctx, ownerID, id, stripMeta(data), s.now().UnixMilli()); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := checkOwner(ownerID); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.publish(ctx, ownerID, id)
	return nil
}

func (s *Service) List(ctx context.Context, ownerID string) ([]Record, error) {
	if err := checkOwner(ownerID); err != nil {
		return nil, err
	}
	return s.Repo.List(ctx, ownerID)
}

// Subscribe re-reads the record on every notification. Reads that fail
// (including a deleted document) are logged and skipped.
func (s *Service) Subscribe(ctx context.Context, ownerID, id string, fn func(Record)) (func(), error) {
	if err := checkOwner(ownerID); err != nil {
		return nil, err
	}
	subCtx, cancel := context.WithCancel(ctx)
	stop, err := s.Feed.Subscribe(subCtx, ownerID, id, func() {
		rec, err := s.Repo.Get(subCtx, ownerID, id)
		if err != nil {
			if subCtx.Err() == nil {
				telemetry.Warn("portfolio.subscription_read_failed", map[string]any{
					"portfolio_id": id,
					"owner_id":     ownerID,
					"error":        err,
				})
			}
			return
		}
		fn(rec)
	})
	if err != nil {
		cancel()
		return nil, err
	}
	return func() {
		stop()
		cancel()
	}, nil
}

// Load reads and hydrates one document.
func (s *Service) Load(ctx context.Context, ownerID, id string) (Portfolio, error) {
	rec, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return Portfolio{}, err
	}
	return Hydrator{Now: s.Now}.Hydrate(rec, ownerID), nil
}

// LoadAll lists and hydrates every document of an owner.
func (s *Service) LoadAll(ctx context.Context, ownerID string) ([]Portfolio, error) {
	recs, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	h := Hydrator{Now: s.Now}
	out := make([]Portfolio, 0, len(recs))
	for _, rec := range recs {
		out = append(out, h.Hydrate(rec, ownerID))
	}
	return out, nil
}

func (s *Service) publish(ctx context.Context, ownerID, id string) {
	if s.Feed == nil {
		return
	}
	if err := s.Feed.Publish(ctx, ownerID, id); err != nil {
		telemetry.Warn("portfolio.publish_failed", map[string]any{
			"portfolio_id": id,
			"owner_id":     ownerID,
			"error":        err,
		})
	}
}

var _ Store = (*Service)(nil)
