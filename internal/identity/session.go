package identity

import (
	"strings"
	"unicode"
)

// GuestOwnerID is the owner sentinel used while no account is signed in.
// It never reaches the remote store.
const GuestOwnerID = "guest"

// Session is the signed-in caller as seen by the editing engine.
type Session struct {
	UserID      string
	Email       string
	DisplayName string
}

// Anonymous is the session of a caller without an account.
var Anonymous = Session{}

// Authenticated reports whether the session carries an account id.
func (s Session) Authenticated() bool {
	return strings.TrimSpace(s.UserID) != ""
}

// Handle is the human-readable handle derived from the session email.
func (s Session) Handle() string {
	return DeriveHandle(s.Email)
}

// Kind tells how an owner was resolved.
type Kind string

const (
	KindSelf  Kind = "self"
	KindOther Kind = "other"
	KindGuest Kind = "guest"
)

// Owner is the partition a document belongs to for one editing session.
type Owner struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`
}

// GuestOwner returns the guest sentinel owner.
func GuestOwner() Owner {
	return Owner{ID: GuestOwnerID, Kind: KindGuest}
}

// IsGuest reports whether o is the guest sentinel.
func (o Owner) IsGuest() bool {
	return o.Kind == KindGuest || o.ID == GuestOwnerID || strings.TrimSpace(o.ID) == ""
}

// DeriveHandle returns the lower-cased local part of an email with anything
// outside [a-z0-9._-] dropped.
func DeriveHandle(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	local = strings.ToLower(local)
	var b strings.Builder
	for _, r := range local {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeHandle lower-cases and trims a handle taken from a route.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}
