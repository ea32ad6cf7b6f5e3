package editor

import "errors"

var (
	// ErrNotReady is returned while the session has no hydrated document.
	ErrNotReady = errors.New("editor: document not ready")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("editor: session closed")
	// ErrInvalidPath reports a path or key that names no document field.
	ErrInvalidPath = errors.New("editor: invalid field path")
	// ErrInvalidValue reports a value of the wrong shape for its field.
	ErrInvalidValue = errors.New("editor: invalid field value")
	// ErrEntryNotFound reports a list entry id that does not exist.
	ErrEntryNotFound = errors.New("editor: entry not found")
)
