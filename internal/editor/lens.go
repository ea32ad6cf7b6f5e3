package editor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"portfolio-backend/internal/portfolios"
)

// Entry is a list element addressed by id.
type Entry interface {
	EntryID() string
}

// ObjectLens focuses one object-shaped section of the document.
type ObjectLens[T any] struct {
	Key string
	get func(portfolios.Portfolio) T
	set func(*portfolios.Portfolio, T)
}

// Get returns the section. Object sections are plain values.
func (l ObjectLens[T]) Get(doc portfolios.Portfolio) T {
	return l.get(doc)
}

// Put replaces the section and returns the next document with the patch that
// carries the whole section.
func (l ObjectLens[T]) Put(doc portfolios.Portfolio, v T) (portfolios.Portfolio, portfolios.Patch) {
	l.set(&doc, v)
	return doc, portfolios.Patch{l.Key: v}
}

// Modify applies fn to a copy of the section.
func (l ObjectLens[T]) Modify(doc portfolios.Portfolio, fn func(T) T) (portfolios.Portfolio, portfolios.Patch) {
	return l.Put(doc, fn(l.Get(doc)))
}

// ListLens focuses a list of entries. Entries are found by id, never by
// index, and every operation copies the list before changing it.
type ListLens[T Entry] struct {
	Kind    string
	get     func(portfolios.Portfolio) []T
	set     func(*portfolios.Portfolio, []T)
	section func(portfolios.Portfolio) (string, any)
	withID  func(T, string) T
	// clone copies the parts of an entry that share memory, if any.
	clone func(T) T
}

// Items returns a copy of the list; entries share nothing with doc.
func (l ListLens[T]) Items(doc portfolios.Portfolio) []T {
	items := slices.Clone(l.get(doc))
	if l.clone != nil {
		for i := range items {
			items[i] = l.clone(items[i])
		}
	}
	return items
}

// Find returns the entry with id.
func (l ListLens[T]) Find(doc portfolios.Portfolio, id string) (T, bool) {
	items := l.get(doc)
	if i := indexOf(items, id); i >= 0 {
		return items[i], true
	}
	var zero T
	return zero, false
}

// Replace swaps the entry with id for fn's result. The id cannot change.
func (l ListLens[T]) Replace(doc portfolios.Portfolio, id string, fn func(T) T) (portfolios.Portfolio, portfolios.Patch, error) {
	items := l.Items(doc)
	i := indexOf(items, id)
	if i < 0 {
		return doc, nil, fmt.Errorf("%w: %s %q", ErrEntryNotFound, l.Kind, id)
	}
	next := fn(items[i])
	if next.EntryID() != id {
		return doc, nil, fmt.Errorf("%w: %s id is immutable", ErrInvalidValue, l.Kind)
	}
	items[i] = next
	return l.commit(doc, items)
}

// Insert places entry at position at (clamped to the list bounds). An entry
// without an id, or with one already in use, gets a fresh id.
func (l ListLens[T]) Insert(doc portfolios.Portfolio, at int, entry T) (portfolios.Portfolio, portfolios.Patch, string, error) {
	items := l.Items(doc)
	id := entry.EntryID()
	if id == "" || indexOf(items, id) >= 0 {
		id = l.freshID(items)
		entry = l.withID(entry, id)
	}
	at = max(0, min(at, len(items)))
	items = slices.Insert(items, at, entry)
	next, patch, err := l.commit(doc, items)
	return next, patch, id, err
}

// Remove drops the entry with id.
func (l ListLens[T]) Remove(doc portfolios.Portfolio, id string) (portfolios.Portfolio, portfolios.Patch, error) {
	items := l.Items(doc)
	i := indexOf(items, id)
	if i < 0 {
		return doc, nil, fmt.Errorf("%w: %s %q", ErrEntryNotFound, l.Kind, id)
	}
	return l.commit(doc, slices.Delete(items, i, i+1))
}

// Move relocates the entry with id to position to.
func (l ListLens[T]) Move(doc portfolios.Portfolio, id string, to int) (portfolios.Portfolio, portfolios.Patch, error) {
	items := l.Items(doc)
	i := indexOf(items, id)
	if i < 0 {
		return doc, nil, fmt.Errorf("%w: %s %q", ErrEntryNotFound, l.Kind, id)
	}
	entry := items[i]
	items = slices.Delete(items, i, i+1)
	to = max(0, min(to, len(items)))
	return l.commit(doc, slices.Insert(items, to, entry))
}

func (l ListLens[T]) commit(doc portfolios.Portfolio, items []T) (portfolios.Portfolio, portfolios.Patch, error) {
	l.set(&doc, items)
	key, value := l.section(doc)
	return doc, portfolios.Patch{key: value}, nil
}

func (l ListLens[T]) freshID(items []T) string {
	for n := len(items); ; n++ {
		id := fmt.Sprintf("%s-%d", l.Kind, n)
		if indexOf(items, id) < 0 {
			return id
		}
	}
}

func indexOf[T Entry](items []T, id string) int {
	return slices.IndexFunc(items, func(e T) bool { return e.EntryID() == id })
}

// Object sections.
var (
	ThemeLens = ObjectLens[portfolios.Theme]{
		Key: "theme",
		get: func(d portfolios.Portfolio) portfolios.Theme { return d.Theme },
		set: func(d *portfolios.Portfolio, v portfolios.Theme) { d.Theme = v },
	}
	BusinessCardLens = ObjectLens[portfolios.BusinessCard]{
		Key: "businessCard",
		get: func(d portfolios.Portfolio) portfolios.BusinessCard { return d.BusinessCard },
		set: func(d *portfolios.Portfolio, v portfolios.BusinessCard) { d.BusinessCard = v },
	}
)

// List sections.
var (
	TimelineLens = ListLens[portfolios.TimelineEntry]{
		Kind:    "timeline",
		get:     func(d portfolios.Portfolio) []portfolios.TimelineEntry { return d.Timeline },
		set:     func(d *portfolios.Portfolio, v []portfolios.TimelineEntry) { d.Timeline = v },
		section: func(d portfolios.Portfolio) (string, any) { return "timeline", d.Timeline },
		withID: func(e portfolios.TimelineEntry, id string) portfolios.TimelineEntry {
			e.ID = id
			return e
		},
	}
	TechStackLens = ListLens[portfolios.TechItem]{
		Kind:    "tech",
		get:     func(d portfolios.Portfolio) []portfolios.TechItem { return d.TechStack },
		set:     func(d *portfolios.Portfolio, v []portfolios.TechItem) { d.TechStack = v },
		section: func(d portfolios.Portfolio) (string, any) { return "techStack", d.TechStack },
		withID: func(e portfolios.TechItem, id string) portfolios.TechItem {
			e.ID = id
			return e
		},
	}
	ProjectsLens = ListLens[portfolios.Project]{
		Kind:    "project",
		get:     func(d portfolios.Portfolio) []portfolios.Project { return d.Projects },
		set:     func(d *portfolios.Portfolio, v []portfolios.Project) { d.Projects = v },
		section: func(d portfolios.Portfolio) (string, any) { return "projects", d.Projects },
		withID: func(e portfolios.Project, id string) portfolios.Project {
			e.ID = id
			return e
		},
		clone: func(e portfolios.Project) portfolios.Project {
			e.Tags = slices.Clone(e.Tags)
			return e
		},
	}
	SocialLinksLens = ListLens[portfolios.SocialLink]{
		Kind:    "social",
		get:     func(d portfolios.Portfolio) []portfolios.SocialLink { return d.SocialLinks },
		set:     func(d *portfolios.Portfolio, v []portfolios.SocialLink) { d.SocialLinks = v },
		section: func(d portfolios.Portfolio) (string, any) { return "socialLinks", d.SocialLinks },
		withID: func(e portfolios.SocialLink, id string) portfolios.SocialLink {
			e.ID = id
			return e
		},
	}
	// LinksLens reaches linkInBio.links; its patch carries all of linkInBio.
	LinksLens = ListLens[portfolios.Link]{
		Kind: "link",
		get:  func(d portfolios.Portfolio) []portfolios.Link { return d.LinkInBio.Links },
		set: func(d *portfolios.Portfolio, v []portfolios.Link) {
			lib := d.LinkInBio
			lib.Links = v
			d.LinkInBio = lib
		},
		section: func(d portfolios.Portfolio) (string, any) { return "linkInBio", d.LinkInBio },
		withID: func(e portfolios.Link, id string) portfolios.Link {
			e.ID = id
			return e
		},
	}
)

// listOps is the untyped face of a ListLens used by the list routes.
type listOps interface {
	insert(doc portfolios.Portfolio, at int, raw json.RawMessage) (portfolios.Portfolio, portfolios.Patch, string, error)
	remove(doc portfolios.Portfolio, id string) (portfolios.Portfolio, portfolios.Patch, error)
	move(doc portfolios.Portfolio, id string, to int) (portfolios.Portfolio, portfolios.Patch, error)
}

func (l ListLens[T]) insert(doc portfolios.Portfolio, at int, raw json.RawMessage) (portfolios.Portfolio, portfolios.Patch, string, error) {
	var entry T
	if len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&entry); err != nil {
			return doc, nil, "", fmt.Errorf("%w: %s: %v", ErrInvalidValue, l.Kind, err)
		}
	}
	return l.Insert(doc, at, entry)
}

func (l ListLens[T]) remove(doc portfolios.Portfolio, id string) (portfolios.Portfolio, portfolios.Patch, error) {
	return l.Remove(doc, id)
}

func (l ListLens[T]) move(doc portfolios.Portfolio, id string, to int) (portfolios.Portfolio, portfolios.Patch, error) {
	return l.Move(doc, id, to)
}

// lists maps a list's path in the document to its lens.
var lists = map[string]listOps{
	"timeline":        TimelineLens,
	"techStack":       TechStackLens,
	"projects":        ProjectsLens,
	"socialLinks":     SocialLinksLens,
	"linkInBio.links": LinksLens,
}
