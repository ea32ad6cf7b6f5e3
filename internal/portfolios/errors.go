package portfolios

import "errors"

var (
	// ErrNotFound indicates the document does not exist for the owner.
	ErrNotFound = errors.New("portfolio not found")
	// ErrGuestOwner is returned when the guest sentinel reaches the remote store.
	ErrGuestOwner = errors.New("guest owner cannot use the remote store")
	// ErrInvalidInput indicates a malformed id, owner or patch.
	ErrInvalidInput = errors.New("invalid input")
)
