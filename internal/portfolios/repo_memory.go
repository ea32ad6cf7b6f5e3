package portfolios

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
)

type memoryEntry struct {
	ownerID   string
	data      Record
	createdAt int64
	updatedAt int64
}

type MemoryRepo struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{entries: make(map[string]memoryEntry)}
}

func (r *MemoryRepo) Get(ctx context.Context, ownerID, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok || e.ownerID != ownerID {
		return nil, ErrNotFound
	}
	return withMeta(deepCopy(e.data), ownerID, id, e.createdAt, e.updatedAt), nil
}

func (r *MemoryRepo) Merge(ctx context.Context, ownerID, id string, patch Patch, updatedAt int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	normalized, err := patch.Sanitized().Normalized()
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.ownerID != ownerID {
		return ErrNotFound
	}
	data := e.data.Clone()
	for k, v := range normalized {
		data[k] = v
	}
	e.data = data
	if updatedAt > e.updatedAt {
		e.updatedAt = updatedAt
	}
	r.entries[id] = e
	return nil
}

func (r *MemoryRepo) Create(ctx context.Context, ownerID, id string, data Record, now int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	normalized, err := Patch(stripMeta(data)).Normalized()
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[id]; exists {
		return ErrInvalidInput
	}
	r.entries[id] = memoryEntry{ownerID: ownerID, data: Record(normalized), createdAt: now, updatedAt: now}
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, ownerID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.ownerID != ownerID {
		return ErrNotFound
	}
	delete(r.entries, id)
	return nil
}

func (r *MemoryRepo) List(ctx context.Context, ownerID string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	type item struct {
		id string
		e  memoryEntry
	}
	var items []item
	for id, e := range r.entries {
		if e.ownerID == ownerID {
			items = append(items, item{id: id, e: e})
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].e.updatedAt == items[j].e.updatedAt {
			return items[i].id < items[j].id
		}
		return items[i].e.updatedAt > items[j].e.updatedAt
	})
	out := make([]Record, 0, len(items))
	for _, it := range items {
		out = append(out, withMeta(deepCopy(it.e.data), ownerID, it.id, it.e.createdAt, it.e.updatedAt))
	}
	return out, nil
}

// deepCopy keeps callers from mutating stored nested maps.
func deepCopy(r Record) Record {
	raw, err := json.Marshal(r)
	if err != nil {
		return r.Clone()
	}
	var out Record
	if err := json.Unmarshal(raw, &out); err != nil {
		return r.Clone()
	}
	return out
}
