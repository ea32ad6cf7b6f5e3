package guest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"portfolio-backend/internal/portfolios"
	"portfolio-backend/internal/shared/telemetry"
)

const keyPrefix = "portfolio_"

// Key is the storage key of a document id.
func Key(id string) string {
	return keyPrefix + id
}

// Snapshot is one stored guest document.
type Snapshot struct {
	ID   string
	Data portfolios.Record
}

// Store holds at most one document per id on top of a KV.
type Store struct {
	KV KV
}

func NewStore(kv KV) *Store {
	return &Store{KV: kv}
}

// Save overwrites the snapshot for doc.ID. Failures are logged only.
func (s *Store) Save(ctx context.Context, doc portfolios.Portfolio) {
	if strings.TrimSpace(doc.ID) == "" {
		telemetry.Warn("guest.save_skipped", map[string]any{"reason": "missing id"})
		return
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		telemetry.Warn("guest.save_failed", map[string]any{"document_id": doc.ID, "error": err.Error()})
		return
	}
	if err := s.KV.Set(ctx, Key(doc.ID), string(raw)); err != nil {
		telemetry.Warn("guest.save_failed", map[string]any{"document_id": doc.ID, "error": err.Error()})
	}
}

// Load returns the raw snapshot for id, or ErrKeyNotFound.
func (s *Store) Load(ctx context.Context, id string) (portfolios.Record, error) {
	raw, err := s.KV.Get(ctx, Key(id))
	if err != nil {
		return nil, err
	}
	rec, err := parseSnapshot(raw)
	if err != nil {
		return nil, fmt.Errorf("guest snapshot %s: %w", id, err)
	}
	return rec, nil
}

// LoadAll returns every usable snapshot in key order. Entries that fail to
// parse or lack a title and hero are skipped.
func (s *Store) LoadAll(ctx context.Context) ([]Snapshot, error) {
	keys, err := s.KV.ListKeysWithPrefix(ctx, keyPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]Snapshot, 0, len(keys))
	for _, key := range keys {
		id := strings.TrimPrefix(key, keyPrefix)
		raw, err := s.KV.Get(ctx, key)
		if err != nil {
			telemetry.Warn("guest.load_failed", map[string]any{"document_id": id, "error": err.Error()})
			continue
		}
		rec, err := parseSnapshot(raw)
		if err != nil {
			telemetry.Warn("guest.snapshot_skipped", map[string]any{"document_id": id, "error": err.Error()})
			continue
		}
		out = append(out, Snapshot{ID: id, Data: rec})
	}
	return out, nil
}

// Clear removes the snapshot for id.
func (s *Store) Clear(ctx context.Context, id string) error {
	return s.KV.Delete(ctx, Key(id))
}

func parseSnapshot(raw string) (portfolios.Record, error) {
	var rec portfolios.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("snapshot is not an object")
	}
	if _, ok := rec["title"]; !ok {
		return nil, fmt.Errorf("snapshot has no title")
	}
	if _, ok := rec["hero"]; !ok {
		return nil, fmt.Errorf("snapshot has no hero")
	}
	return rec, nil
}
