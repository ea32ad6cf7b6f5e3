package editor

import (
	"context"
	"errors"
	"sync"
	"time"

	"portfolio-backend/internal/guest"
	"portfolio-backend/internal/identity"
	"portfolio-backend/internal/portfolios"
	"portfolio-backend/internal/shared/metrics"
	"portfolio-backend/internal/shared/telemetry"
)

// Options configures one editing session.
type Options struct {
	DocumentID string
	Owner      identity.Owner
	// Handle of the signed-in account, used for the canonical address.
	Handle string
	// TemplateID seeds a generated document in guest mode.
	TemplateID string

	Store portfolios.Store
	Guest *guest.Store

	Hydrator  portfolios.Hydrator
	Navigator Navigator

	// OnChange sees every new in-memory document, local or remote.
	OnChange func(portfolios.Portfolio)
	// OnWriteError sees remote merge failures. Local state is kept.
	OnWriteError func(error)
}

// Session owns the in-memory document of one (document, owner) pair.
type Session struct {
	opts Options

	mu      sync.Mutex
	doc     portfolios.Portfolio
	ready   bool
	closed  bool
	loadErr error
	stop    func()
	// lastWrite is closed when the most recent merge finishes; merges are
	// sent in the order their updates were made.
	lastWrite chan struct{}

	loaded chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	writes sync.WaitGroup
}

// Open starts a session. Guest sessions are ready on return; others load in
// the background and become ready once the first read hydrates.
func Open(ctx context.Context, opts Options) *Session {
	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &Session{
		opts:   opts,
		loaded: make(chan struct{}),
		ctx:    sctx,
		cancel: cancel,
	}
	if opts.Owner.IsGuest() {
		s.seedGuest(ctx)
		close(s.loaded)
		return s
	}
	go s.load()
	return s
}

func (s *Session) seedGuest(ctx context.Context) {
	var doc portfolios.Portfolio
	seeded := false
	if s.opts.Guest != nil {
		rec, err := s.opts.Guest.Load(ctx, s.opts.DocumentID)
		switch {
		case err == nil:
			doc = s.opts.Hydrator.Hydrate(rec, identity.GuestOwnerID)
			doc.ID = s.opts.DocumentID
			seeded = true
		case !errors.Is(err, guest.ErrKeyNotFound):
			telemetry.Warn("editor.guest_seed_failed", map[string]any{
				"portfolio_id": s.opts.DocumentID,
				"error":        err.Error(),
			})
		}
	}
	if !seeded {
		doc = portfolios.Generate(portfolios.GenerateOptions{
			ID:         s.opts.DocumentID,
			OwnerID:    identity.GuestOwnerID,
			TemplateID: s.opts.TemplateID,
			Now:        s.now(),
		})
	}
	s.mu.Lock()
	s.doc, s.ready = doc, true
	s.mu.Unlock()
	s.notify(doc)
}

// load subscribes before the first read so a change committed in between is
// still delivered. The read is dropped if a remote snapshot already landed.
func (s *Session) load() {
	defer close(s.loaded)
	id, owner := s.opts.DocumentID, s.opts.Owner

	stop, err := s.opts.Store.Subscribe(s.ctx, owner.ID, id, s.applyRemote)
	if err != nil {
		s.failLoad("editor.subscribe_failed", err)
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		stop()
		return
	}
	s.stop = stop
	s.mu.Unlock()

	rec, err := s.opts.Store.Get(s.ctx, owner.ID, id)
	if err != nil {
		s.mu.Lock()
		if s.ready {
			s.mu.Unlock()
			return
		}
		stop, s.stop = s.stop, nil
		s.mu.Unlock()
		if stop != nil {
			stop()
		}
		s.failLoad("editor.load_failed", err)
		return
	}
	doc := s.opts.Hydrator.Hydrate(rec, owner.ID)
	doc.ID = id

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.ready {
		doc = s.doc
	} else {
		s.doc, s.ready = doc, true
	}
	s.mu.Unlock()
	s.notify(doc)

	if s.opts.Navigator != nil && s.opts.Handle != "" && owner.Kind == identity.KindSelf {
		s.opts.Navigator.Replace(CanonicalPath(s.opts.Handle, id))
	}
}

func (s *Session) failLoad(msg string, err error) {
	s.mu.Lock()
	s.loadErr = err
	s.mu.Unlock()
	if s.ctx.Err() != nil {
		return
	}
	telemetry.Warn(msg, map[string]any{
		"portfolio_id": s.opts.DocumentID,
		"owner_id":     s.opts.Owner.ID,
		"error":        err.Error(),
	})
}

// applyRemote replaces local state wholesale, pending local edits included.
func (s *Session) applyRemote(rec portfolios.Record) {
	doc := s.opts.Hydrator.Hydrate(rec, s.opts.Owner.ID)
	doc.ID = s.opts.DocumentID
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.doc, s.ready = doc, true
	s.mu.Unlock()
	metrics.IncRemoteEvent()
	s.notify(doc)
}

// WaitReady blocks until the first load attempt finishes.
func (s *Session) WaitReady(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.loaded:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}
	if s.loadErr != nil {
		return errors.Join(ErrNotReady, s.loadErr)
	}
	return ErrNotReady
}

// Ready reports whether a hydrated document is available.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Current returns the in-memory document.
func (s *Session) Current() (portfolios.Portfolio, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc, s.ready
}

// Owner returns the owner the session was opened for.
func (s *Session) Owner() identity.Owner {
	return s.opts.Owner
}

// Update applies patch locally right away, then persists it: to the guest
// store for guests, otherwise as a remote merge that runs in the background.
// A failed merge is reported, not rolled back.
func (s *Session) Update(patch portfolios.Patch) error {
	patch = patch.Sanitized()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if !s.ready {
		s.mu.Unlock()
		return ErrNotReady
	}
	if len(patch) == 0 {
		s.mu.Unlock()
		return nil
	}
	next := s.opts.Hydrator.ApplyPatch(s.doc, patch)
	s.doc = next

	if s.opts.Owner.IsGuest() {
		s.mu.Unlock()
		if s.opts.Guest != nil {
			s.opts.Guest.Save(s.ctx, next)
		}
		s.notify(next)
		return nil
	}

	prev := s.lastWrite
	done := make(chan struct{})
	s.lastWrite = done
	s.writes.Add(1)
	s.mu.Unlock()

	s.notify(next)
	go s.merge(prev, done, patch)
	return nil
}

func (s *Session) merge(prev <-chan struct{}, done chan struct{}, patch portfolios.Patch) {
	defer s.writes.Done()
	defer close(done)
	if prev != nil {
		<-prev
	}
	start := time.Now()
	err := s.opts.Store.Merge(context.WithoutCancel(s.ctx), s.opts.Owner.ID, s.opts.DocumentID, patch)
	metrics.ObserveWriteDurationMs(metrics.SinceMs(start))
	if err == nil {
		metrics.IncWrite()
		return
	}
	metrics.IncWriteFailed()
	telemetry.Error("editor.write_failed", map[string]any{
		"portfolio_id": s.opts.DocumentID,
		"owner_id":     s.opts.Owner.ID,
		"keys":         patch.Keys(),
		"error":        err.Error(),
	})
	if s.opts.OnWriteError != nil {
		s.opts.OnWriteError(err)
	}
}

// Updater returns a field updater bound to this session.
func (s *Session) Updater() Updater {
	return Updater{Target: s}
}

// Wait blocks until every merge issued so far has finished.
func (s *Session) Wait() {
	s.writes.Wait()
}

// Close releases the subscription. Events arriving afterwards are ignored;
// in-flight merges still complete.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
	s.cancel()
}

func (s *Session) notify(doc portfolios.Portfolio) {
	if s.opts.OnChange != nil {
		s.opts.OnChange(doc)
	}
}

func (s *Session) now() time.Time {
	if s.opts.Hydrator.Now != nil {
		return s.opts.Hydrator.Now()
	}
	return time.Now()
}

var _ Target = (*Session)(nil)
