package portfolios

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"portfolio-backend/internal/shared/telemetry"
)

// Hydrator turns raw records into complete documents. Now is only consulted
// for timestamps missing from the record.
type Hydrator struct {
	Now func() time.Time
}

// Hydrate uses the wall clock.
func Hydrate(raw Record, ownerID string) Portfolio {
	return Hydrator{}.Hydrate(raw, ownerID)
}

// Default returns the empty document every hydration starts from.
func Default() Portfolio {
	return Portfolio{
		Mode:          ModePortfolio,
		Section:       DefaultSection,
		SectionLabels: map[string]string{},
		Timeline:      []TimelineEntry{},
		TechStack:     []TechItem{},
		Projects:      []Project{},
		SocialLinks:   []SocialLink{},
		LinkInBio: LinkInBio{
			Links:       []Link{},
			ShowAvatar:  true,
			ShowSocials: true,
		},
		BusinessCard: BusinessCard{Orientation: "horizontal"},
	}
}

// Hydrate fills every field of the canonical shape. Fields of the wrong type
// keep their default; nothing is rejected.
func (h Hydrator) Hydrate(raw Record, ownerID string) Portfolio {
	doc := Default()

	body := make(Record, len(raw))
	for k, v := range raw {
		switch k {
		case "id", "ownerId", "mode", "createdAt", "updatedAt":
			continue
		}
		body[k] = v
	}
	if encoded, err := json.Marshal(body); err != nil {
		telemetry.Warn("portfolio.hydrate_encode_failed", map[string]any{"error": err})
	} else if err := json.Unmarshal(encoded, &doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			doc = Default()
		}
		telemetry.Warn("portfolio.hydrate_field_skipped", map[string]any{"error": err})
	}

	doc.ID = strings.TrimSpace(raw.StringField("id"))
	doc.OwnerID = ownerID
	if strings.TrimSpace(doc.Section) == "" {
		doc.Section = DefaultSection
	}
	doc.Mode = ResolveMode(raw["mode"], doc.TemplateID)

	now := h.now().UnixMilli()
	created, ok := toMillis(raw["createdAt"])
	if !ok {
		created = now
	}
	updated, ok := toMillis(raw["updatedAt"])
	if !ok {
		updated = created
	}
	doc.CreatedAt = created
	doc.UpdatedAt = updated

	normalizeCollections(&doc)
	return doc
}

// ApplyPatch overlays the patch on doc and rehydrates the result.
func (h Hydrator) ApplyPatch(doc Portfolio, patch Patch) Portfolio {
	rec := doc.Record()
	for k, v := range patch.Sanitized() {
		rec[k] = v
	}
	return h.Hydrate(rec, doc.OwnerID)
}

func (h Hydrator) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func normalizeCollections(doc *Portfolio) {
	if doc.SectionLabels == nil {
		doc.SectionLabels = map[string]string{}
	}
	if doc.Timeline == nil {
		doc.Timeline = []TimelineEntry{}
	}
	if doc.TechStack == nil {
		doc.TechStack = []TechItem{}
	}
	if doc.Projects == nil {
		doc.Projects = []Project{}
	}
	if doc.SocialLinks == nil {
		doc.SocialLinks = []SocialLink{}
	}
	if doc.LinkInBio.Links == nil {
		doc.LinkInBio.Links = []Link{}
	}
	for i := range doc.Projects {
		if doc.Projects[i].Tags == nil {
			doc.Projects[i].Tags = []string{}
		}
	}

	ensureIDs(doc.Timeline, "timeline", func(e *TimelineEntry) *string { return &e.ID })
	ensureIDs(doc.TechStack, "tech", func(e *TechItem) *string { return &e.ID })
	ensureIDs(doc.Projects, "project", func(e *Project) *string { return &e.ID })
	ensureIDs(doc.SocialLinks, "social", func(e *SocialLink) *string { return &e.ID })
	ensureIDs(doc.LinkInBio.Links, "link", func(e *Link) *string { return &e.ID })
}

// ensureIDs gives entries with a missing or repeated id the id "<kind>-<index>".
// The slices were freshly decoded, so they are safe to modify in place.
func ensureIDs[T any](items []T, kind string, id func(*T) *string) {
	seen := make(map[string]struct{}, len(items))
	for i := range items {
		p := id(&items[i])
		*p = strings.TrimSpace(*p)
		if _, dup := seen[*p]; *p == "" || dup {
			candidate := fmt.Sprintf("%s-%d", kind, i)
			for n := 1; ; n++ {
				if _, taken := seen[candidate]; !taken {
					break
				}
				candidate = fmt.Sprintf("%s-%d-%d", kind, i, n)
			}
			*p = candidate
		}
		seen[*p] = struct{}{}
	}
}

// toMillis accepts epoch milliseconds, server timestamp objects in seconds,
// RFC3339 strings and time values.
func toMillis(v any) (int64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		return numberToMillis(t)
	case int64:
		return numberToMillis(float64(t))
	case int:
		return numberToMillis(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return numberToMillis(f)
	case time.Time:
		if t.IsZero() {
			return 0, false
		}
		return t.UnixMilli(), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return numberToMillis(f)
		}
		if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return parsed.UnixMilli(), true
		}
		return 0, false
	case map[string]any:
		secs, ok := firstNumber(t, "seconds", "_seconds")
		if !ok {
			return 0, false
		}
		nanos, _ := firstNumber(t, "nanoseconds", "_nanoseconds")
		return numberToMillis(secs*1000 + math.Floor(nanos/float64(time.Millisecond)))
	case Record:
		return toMillis(map[string]any(t))
	}
	return 0, false
}

// Plain numbers are always epoch milliseconds, so hydrated output reads
// back unchanged.
func numberToMillis(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return int64(f), true
}

func firstNumber(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch n := m[k].(type) {
		case float64:
			return n, true
		case int64:
			return float64(n), true
		case int:
			return float64(n), true
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}
