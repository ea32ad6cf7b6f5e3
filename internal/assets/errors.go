package assets

import (
	"errors"
	"fmt"
)

var (
	// ErrNoActiveTarget is returned when an operation runs without Open.
	ErrNoActiveTarget = errors.New("assets: no active target")
	// ErrSuperseded is returned when another Open replaced the target while
	// the operation was pending. Its result is dropped.
	ErrSuperseded = errors.New("assets: target superseded")
	// ErrCreditExhausted refuses AI generation before any provider call.
	ErrCreditExhausted = errors.New("assets: generation credit exhausted")
	// ErrLoginRequired refuses AI generation for anonymous callers.
	ErrLoginRequired = errors.New("assets: login required")
	// ErrInvalidReference rejects library picks that are not http(s) URLs.
	ErrInvalidReference = errors.New("assets: invalid image reference")
)

// Kind classifies a failed asset operation for the caller.
type Kind string

const (
	KindAsset  Kind = "asset"
	KindCredit Kind = "credit"
	KindLogin  Kind = "login"
	KindTarget Kind = "target"
	KindWrite  Kind = "write"
)

// Source names the three ways an image field can be filled.
type Source string

const (
	SourceUpload   Source = "upload"
	SourceLibrary  Source = "library"
	SourceGenerate Source = "generate"
)

// Error is returned by every failed Coordinator operation.
type Error struct {
	Kind   Kind
	Source Source
	Path   string
	Err    error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s %s: %v", e.Source, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s at %s: %v", e.Source, e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable is false for refusals the caller cannot fix by trying again.
func (e *Error) Retryable() bool {
	return e.Kind == KindAsset || e.Kind == KindWrite
}
