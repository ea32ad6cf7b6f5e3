package identity

import (
	"context"
	"errors"
	"testing"
)

type fakeLookup struct {
	ids   map[string]string
	err   error
	calls int
}

func (f *fakeLookup) LookupByHandle(ctx context.Context, handle string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	id, ok := f.ids[handle]
	if !ok {
		return "", errors.New("not found")
	}
	return id, nil
}

var ada = Session{UserID: "google:1", Email: "Ada.Lovelace@example.com", DisplayName: "Ada"}

func TestResolveWithoutIdentityIsGuest(t *testing.T) {
	lookup := &fakeLookup{ids: map[string]string{"grace": "google:2"}}
	r := &Resolver{Lookup: lookup}

	owner := r.Resolve(context.Background(), Anonymous, "doc-1", "grace")
	if !owner.IsGuest() || owner.ID != GuestOwnerID {
		t.Fatalf("expected guest owner, got %+v", owner)
	}
	if lookup.calls != 0 {
		t.Fatalf("expected no lookup for anonymous caller")
	}
}

func TestResolveOwnHandleSkipsLookup(t *testing.T) {
	lookup := &fakeLookup{}
	r := &Resolver{Lookup: lookup}

	owner := r.Resolve(context.Background(), ada, "doc-1", "ada.lovelace")
	if owner.ID != "google:1" || owner.Kind != KindSelf {
		t.Fatalf("expected self owner, got %+v", owner)
	}
	if lookup.calls != 0 {
		t.Fatalf("expected lookup to be skipped, got %d calls", lookup.calls)
	}
}

func TestResolveOtherHandle(t *testing.T) {
	r := &Resolver{Lookup: &fakeLookup{ids: map[string]string{"grace": "google:2"}}}

	owner := r.Resolve(context.Background(), ada, "doc-1", "Grace")
	if owner.ID != "google:2" || owner.Kind != KindOther {
		t.Fatalf("expected other owner, got %+v", owner)
	}
}

func TestResolveLookupFailureFallsBackToSelf(t *testing.T) {
	r := &Resolver{Lookup: &fakeLookup{err: errors.New("boom")}}

	owner := r.Resolve(context.Background(), ada, "doc-1", "grace")
	if owner.ID != "google:1" || owner.Kind != KindSelf {
		t.Fatalf("expected fallback to self, got %+v", owner)
	}
}

func TestResolveNoHandleIsSelf(t *testing.T) {
	r := &Resolver{}
	owner := r.Resolve(context.Background(), ada, "doc-1", "")
	if owner.ID != "google:1" {
		t.Fatalf("expected self, got %+v", owner)
	}
}

func TestDeriveHandle(t *testing.T) {
	cases := map[string]string{
		"Ada.Lovelace@example.com": "ada.lovelace",
		"  bob+tag@x.io ":          "bobtag",
		"no-at-sign":               "no-at-sign",
		"":                         "",
	}
	for in, want := range cases {
		if got := DeriveHandle(in); got != want {
			t.Fatalf("DeriveHandle(%q) = %q, want %q", in, got, want)
		}
	}
}
