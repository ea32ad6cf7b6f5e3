package portfolios

import (
	"context"
	"sync"
)

// Feed carries change notifications for single documents. Notifications
// carry no payload; subscribers re-read the record.
type Feed interface {
	Publish(ctx context.Context, ownerID, id string) error
	Subscribe(ctx context.Context, ownerID, id string, fn func()) (func(), error)
}

// MemoryFeed delivers notifications within one process.
type MemoryFeed struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan struct{}
}

func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{subs: make(map[string]map[int]chan struct{})}
}

func feedChannel(ownerID, id string) string {
	return "portfolio:" + ownerID + ":" + id
}

// Publish never blocks: a subscriber that has not consumed its previous
// notification gets the two coalesced.
func (f *MemoryFeed) Publish(ctx context.Context, ownerID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs[feedChannel(ownerID, id)] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

// Subscribe runs fn on its own goroutine, one notification at a time.
func (f *MemoryFeed) Subscribe(ctx context.Context, ownerID, id string, fn func()) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := feedChannel(ownerID, id)
	ch := make(chan struct{}, 1)
	done := make(chan struct{})

	f.mu.Lock()
	subID := f.nextID
	f.nextID++
	if f.subs[key] == nil {
		f.subs[key] = make(map[int]chan struct{})
	}
	f.subs[key][subID] = ch
	f.mu.Unlock()

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ch:
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs[key], subID)
			if len(f.subs[key]) == 0 {
				delete(f.subs, key)
			}
			f.mu.Unlock()
			close(done)
		})
	}, nil
}
