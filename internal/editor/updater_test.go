package editor

import (
	"encoding/json"
	"errors"
	"testing"

	"portfolio-backend/internal/portfolios"
)

func sectionJSON(t *testing.T, doc portfolios.Portfolio) map[string]string {
	t.Helper()
	out := map[string]string{}
	for k, v := range doc.Record() {
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal %s: %v", k, err)
		}
		out[k] = string(raw)
	}
	return out
}

func TestSetPathIsolatesSection(t *testing.T) {
	doc := sampleDoc()
	before := sectionJSON(t, doc)

	next, patch, err := SetPath(doc, "hero.headline", "New headline")
	if err != nil {
		t.Fatalf("SetPath: %v", err)
	}
	if len(patch) != 1 {
		t.Fatalf("expected one top-level key, got %v", patch.Keys())
	}
	if _, ok := patch["hero"]; !ok {
		t.Fatalf("expected hero patch, got %v", patch.Keys())
	}
	if next.Hero.Headline != "New headline" || next.Hero.SubHeadline != doc.Hero.SubHeadline {
		t.Fatalf("unexpected hero %+v", next.Hero)
	}

	applied := portfolios.Hydrator{}.ApplyPatch(doc, patch)
	after := sectionJSON(t, applied)
	for k, v := range before {
		if k == "hero" {
			continue
		}
		if after[k] != v {
			t.Fatalf("section %s changed:\n%s\n%s", k, v, after[k])
		}
	}
}

func TestSetPathAddressesEntriesByID(t *testing.T) {
	doc := sampleDoc()
	doc, _, err := ProjectsLens.Move(doc, "p2", 0)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}

	next, patch, err := SetPath(doc, "projects.p2.title", "Renamed")
	if err != nil {
		t.Fatalf("SetPath: %v", err)
	}
	for _, p := range next.Projects {
		switch p.ID {
		case "p2":
			if p.Title != "Renamed" {
				t.Fatalf("p2 not updated: %+v", p)
			}
		case "p1", "p3":
			if p.Title == "Renamed" {
				t.Fatalf("wrong entry updated: %+v", p)
			}
		}
	}
	if projectIDs(next.Projects)[0] != "p2" {
		t.Fatalf("order changed: %v", projectIDs(next.Projects))
	}
	if _, ok := patch["projects"]; !ok || len(patch) != 1 {
		t.Fatalf("expected projects patch, got %v", patch.Keys())
	}
}

func TestSetPathNestedLink(t *testing.T) {
	doc := sampleDoc()
	next, patch, err := SetPath(doc, "linkInBio.links.l1.imageUrl", "https://cdn.example.com/x.png")
	if err != nil {
		t.Fatalf("SetPath: %v", err)
	}
	if next.LinkInBio.Links[0].ImageURL != "https://cdn.example.com/x.png" {
		t.Fatalf("link image not set")
	}
	if !next.LinkInBio.ShowSocials {
		t.Fatalf("sibling field lost")
	}
	if _, ok := patch["linkInBio"]; !ok || len(patch) != 1 {
		t.Fatalf("expected linkInBio patch, got %v", patch.Keys())
	}
}

func TestSetPathOptionalObjectField(t *testing.T) {
	doc := sampleDoc()
	next, _, err := SetPath(doc, "linkInBio.customStyle.buttonColor", "#ff0000")
	if err != nil {
		t.Fatalf("SetPath: %v", err)
	}
	if next.LinkInBio.CustomStyle.ButtonColor != "#ff0000" {
		t.Fatalf("button color not set")
	}
}

func TestSetPathRejections(t *testing.T) {
	doc := sampleDoc()
	cases := []struct {
		path  string
		value any
		want  error
	}{
		{"hero.nope", "x", ErrInvalidPath},
		{"nope", "x", ErrInvalidPath},
		{"id", "x", ErrInvalidPath},
		{"updatedAt", 1, ErrInvalidPath},
		{"projects.p1.id", "p9", ErrInvalidPath},
		{"projects.p1", map[string]any{"title": "x"}, ErrInvalidPath},
		{"projects.missing.title", "x", ErrEntryNotFound},
		{"title.deeper", "x", ErrInvalidPath},
		{"hero..headline", "x", ErrInvalidPath},
		{"hero.headline", 42, ErrInvalidValue},
		{"linkInBio.showAvatar", "yes", ErrInvalidValue},
	}
	for _, tc := range cases {
		_, _, err := SetPath(doc, tc.path, tc.value)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.path, tc.want, err)
		}
	}
}
