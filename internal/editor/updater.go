package editor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"portfolio-backend/internal/portfolios"
)

// Target is what an Updater writes through; *Session implements it.
type Target interface {
	Current() (portfolios.Portfolio, bool)
	Update(patch portfolios.Patch) error
}

// Updater turns field-level edits into top-level patches. Every call
// produces exactly one top-level key.
type Updater struct {
	Target Target
}

// Merge replaces one top-level key.
func (u Updater) Merge(key string, value any) error {
	if !IsWritableKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, key)
	}
	return u.Target.Update(portfolios.Patch{key: value})
}

// Set changes the single field at path and writes back its whole section.
func (u Updater) Set(path string, value any) error {
	doc, ok := u.Target.Current()
	if !ok {
		return ErrNotReady
	}
	_, patch, err := SetPath(doc, path, value)
	if err != nil {
		return err
	}
	return u.Target.Update(patch)
}

// Insert adds entry to the named list at position at and returns the id it
// was stored under.
func (u Updater) Insert(list string, at int, entry json.RawMessage) (string, error) {
	ops, doc, err := u.list(list)
	if err != nil {
		return "", err
	}
	next, patch, id, err := ops.insert(doc, at, entry)
	if err != nil {
		return "", err
	}
	return id, u.Target.Update(plainPatch(next, patch))
}

// Remove drops the entry with id from the named list.
func (u Updater) Remove(list, id string) error {
	ops, doc, err := u.list(list)
	if err != nil {
		return err
	}
	next, patch, err := ops.remove(doc, id)
	if err != nil {
		return err
	}
	return u.Target.Update(plainPatch(next, patch))
}

// Move relocates the entry with id within the named list.
func (u Updater) Move(list, id string, to int) error {
	ops, doc, err := u.list(list)
	if err != nil {
		return err
	}
	next, patch, err := ops.move(doc, id, to)
	if err != nil {
		return err
	}
	return u.Target.Update(plainPatch(next, patch))
}

func (u Updater) list(name string) (listOps, portfolios.Portfolio, error) {
	ops, ok := lists[name]
	if !ok {
		return nil, portfolios.Portfolio{}, fmt.Errorf("%w: %q is not a list", ErrInvalidPath, name)
	}
	doc, ok := u.Target.Current()
	if !ok {
		return nil, portfolios.Portfolio{}, ErrNotReady
	}
	return ops, doc, nil
}

// plainPatch re-reads the patched sections from next as plain JSON values.
func plainPatch(next portfolios.Portfolio, patch portfolios.Patch) portfolios.Patch {
	rec := next.Record()
	out := make(portfolios.Patch, len(patch))
	for k := range patch {
		out[k] = rec[k]
	}
	return out
}

// IsWritableKey reports whether a top-level key may appear in a patch.
func IsWritableKey(key string) bool {
	switch key {
	case "id", "ownerId", "createdAt", "updatedAt":
		return false
	}
	return portfolios.IsTopLevelKey(key)
}

// SetPath sets one field of doc. Path segments are field names, except
// inside lists where a segment is an entry id:
//
//	hero.headline
//	projects.project-1.title
//	linkInBio.links.link-0.imageUrl
//
// The returned patch holds the whole top-level section.
func SetPath(doc portfolios.Portfolio, path string, value any) (portfolios.Portfolio, portfolios.Patch, error) {
	segments := strings.Split(strings.TrimSpace(path), ".")
	for _, seg := range segments {
		if seg == "" {
			return doc, nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	key := segments[0]
	if !IsWritableKey(key) {
		return doc, nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	plain, err := toPlain(value)
	if err != nil {
		return doc, nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	rec := doc.Record()
	section, err := setIn(rec[key], segments[1:], plain, path)
	if err != nil {
		return doc, nil, err
	}
	rec[key] = section

	next, err := decodeStrict(rec)
	if err != nil {
		return doc, nil, err
	}
	next.OwnerID = doc.OwnerID
	return next, portfolios.Patch{key: next.Record()[key]}, nil
}

// setIn returns a copy of node with value stored under rest. Only the
// containers along the path are copied.
func setIn(node any, rest []string, value any, path string) (any, error) {
	if len(rest) == 0 {
		return value, nil
	}
	seg := rest[0]
	switch n := node.(type) {
	case map[string]any:
		if seg == "id" {
			return nil, fmt.Errorf("%w: %q: ids are immutable", ErrInvalidPath, path)
		}
		child, err := setIn(n[seg], rest[1:], value, path)
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(n)+1)
		for k, v := range n {
			out[k] = v
		}
		out[seg] = child
		return out, nil
	case []any:
		for i, item := range n {
			entry, ok := item.(map[string]any)
			if !ok || entry["id"] != seg {
				continue
			}
			if len(rest) == 1 {
				return nil, fmt.Errorf("%w: %q: set a field of the entry", ErrInvalidPath, path)
			}
			child, err := setIn(entry, rest[1:], value, path)
			if err != nil {
				return nil, err
			}
			out := make([]any, len(n))
			copy(out, n)
			out[i] = child
			return out, nil
		}
		return nil, fmt.Errorf("%w: %q", ErrEntryNotFound, path)
	case nil:
		// Absent optional object; decodeStrict rejects it if the name is wrong.
		child, err := setIn(nil, rest[1:], value, path)
		if err != nil {
			return nil, err
		}
		return map[string]any{seg: child}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
}

func decodeStrict(rec portfolios.Record) (portfolios.Portfolio, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return portfolios.Portfolio{}, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var doc portfolios.Portfolio
	if err := dec.Decode(&doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return portfolios.Portfolio{}, fmt.Errorf("%w: %s", ErrInvalidValue, typeErr.Field)
		}
		return portfolios.Portfolio{}, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	return doc, nil
}

func toPlain(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
