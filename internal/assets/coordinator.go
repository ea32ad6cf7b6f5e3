package assets

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"sync"

	"portfolio-backend/internal/identity"
	"portfolio-backend/internal/imagegen"
	"portfolio-backend/internal/shared/metrics"
	"portfolio-backend/internal/shared/storage/object"
	"portfolio-backend/internal/shared/telemetry"
	"portfolio-backend/internal/usage"
)

// Writer stores a resolved image reference at a field path. editor.Updater
// satisfies it.
type Writer interface {
	Set(path string, value any) error
}

// Uploader stores a file and returns a publicly fetchable reference.
type Uploader interface {
	Upload(ctx context.Context, ownerID, fileName string, r io.Reader) (string, error)
}

// Credits is the usage counter consulted before AI generation.
type Credits interface {
	CanConsume(ctx context.Context, userID string, n int) (bool, usage.Usage, error)
	Consume(ctx context.Context, userID string, n int) (usage.Usage, error)
}

// StoreUploader uploads through an object store.
type StoreUploader struct {
	Store object.ObjectStore
}

func (u StoreUploader) Upload(ctx context.Context, ownerID, fileName string, r io.Reader) (string, error) {
	key, _, _, err := u.Store.Save(ctx, ownerID, fileName, r)
	if err != nil {
		return "", err
	}
	return u.Store.URL(key), nil
}

// Coordinator fills one image field at a time from an upload, a library
// pick or an AI generation, then writes the reference through Writer.
// Each Open bumps a ticket; a result whose ticket is stale is dropped.
type Coordinator struct {
	Writer    Writer
	Uploader  Uploader
	Generator imagegen.Generator
	Credits   Credits
	Session   identity.Session

	mu     sync.Mutex
	active string
	ticket uint64
}

// Open makes path the single active target, superseding any pending one.
func (c *Coordinator) Open(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = strings.TrimSpace(path)
	c.ticket++
}

// Cancel clears the active target.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = ""
	c.ticket++
}

// Active returns the current target path.
func (c *Coordinator) Active() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active, c.active != ""
}

func (c *Coordinator) begin() (string, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active, c.ticket, c.active != ""
}

// release clears the target if ticket still owns it.
func (c *Coordinator) release(ticket uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ticket != ticket {
		return false
	}
	c.active = ""
	return true
}

// Upload stores the file and writes its reference to the active target.
func (c *Coordinator) Upload(ctx context.Context, fileName string, r io.Reader) (string, error) {
	return c.run(SourceUpload, func(path string) (string, *Error) {
		owner := c.Session.UserID
		if !c.Session.Authenticated() {
			owner = identity.GuestOwnerID
		}
		ref, err := c.Uploader.Upload(ctx, owner, fileName, r)
		if err != nil {
			return "", &Error{Kind: KindAsset, Err: err}
		}
		return ref, nil
	})
}

// UseLibrary writes a pre-hosted reference to the active target.
func (c *Coordinator) UseLibrary(ctx context.Context, ref string) (string, error) {
	return c.run(SourceLibrary, func(path string) (string, *Error) {
		ref = strings.TrimSpace(ref)
		u, err := url.Parse(ref)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return "", &Error{Kind: KindAsset, Err: ErrInvalidReference}
		}
		return ref, nil
	})
}

// Generate asks the image provider for a new image, optionally derived
// from sourceURL. Credit is checked before the provider is called and one
// credit is spent after it succeeds.
func (c *Coordinator) Generate(ctx context.Context, prompt, sourceURL string) (string, error) {
	return c.run(SourceGenerate, func(path string) (string, *Error) {
		if !c.Session.Authenticated() {
			return "", &Error{Kind: KindLogin, Err: ErrLoginRequired}
		}
		userID := c.Session.UserID
		ok, u, err := c.Credits.CanConsume(ctx, userID, 1)
		if err != nil {
			return "", &Error{Kind: KindAsset, Err: err}
		}
		if !ok {
			metrics.IncCreditRefused()
			telemetry.Warn("assets.credit_refused", map[string]any{
				"userId": userID,
				"used":   u.Used,
				"limit":  u.Limit,
			})
			return "", &Error{Kind: KindCredit, Err: ErrCreditExhausted}
		}

		img, err := c.Generator.Generate(ctx, imagegen.Request{Prompt: prompt, SourceURL: sourceURL})
		if err != nil {
			return "", &Error{Kind: KindAsset, Err: err}
		}
		if _, err := c.Credits.Consume(ctx, userID, 1); err != nil {
			// Image already produced; log the accounting miss.
			telemetry.Warn("assets.consume_failed", map[string]any{
				"userId": userID,
				"err":    err.Error(),
			})
		}
		return img.URL, nil
	})
}

func (c *Coordinator) run(src Source, produce func(path string) (string, *Error)) (string, error) {
	path, ticket, ok := c.begin()
	if !ok {
		return "", &Error{Kind: KindTarget, Source: src, Err: ErrNoActiveTarget}
	}

	ref, failure := produce(path)
	if failure == nil && !c.release(ticket) {
		failure = &Error{Kind: KindTarget, Err: ErrSuperseded}
	}
	if failure == nil {
		if err := c.Writer.Set(path, ref); err != nil {
			failure = &Error{Kind: KindWrite, Err: err}
		}
	}
	if failure != nil {
		if !errors.Is(failure.Err, ErrSuperseded) {
			c.release(ticket)
		}
		failure.Source, failure.Path = src, path
		metrics.IncAssetFailed()
		telemetry.Warn("assets.failed", map[string]any{
			"source": string(src),
			"path":   path,
			"kind":   string(failure.Kind),
			"err":    failure.Err.Error(),
		})
		return "", failure
	}

	metrics.IncAssetApplied()
	telemetry.Info("assets.applied", map[string]any{
		"source": string(src),
		"path":   path,
	})
	return ref, nil
}
