package portfolios

import (
	"encoding/json"
)

// Mode selects which editor and renderer a document uses.
type Mode string

const (
	ModePortfolio    Mode = "portfolio"
	ModeLinkInBio    Mode = "link-in-bio"
	ModeBusinessCard Mode = "business-card"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModePortfolio, ModeLinkInBio, ModeBusinessCard:
		return true
	}
	return false
}

// DefaultSection is the storage section documents live under.
const DefaultSection = "portfolios"

type CTA struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

type Hero struct {
	Headline     string `json:"headline"`
	SubHeadline  string `json:"subHeadline"`
	PrimaryCTA   CTA    `json:"primaryCta"`
	SecondaryCTA CTA    `json:"secondaryCta"`
	AvatarURL    string `json:"avatarUrl"`
}

type TimelineEntry struct {
	ID          string `json:"id"`
	Role        string `json:"role"`
	Employer    string `json:"employer"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
}

type TechItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Level string `json:"level"`
}

type Project struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
	ThumbnailURL string   `json:"thumbnailUrl"`
	DemoURL      string   `json:"demoUrl"`
	RepoURL      string   `json:"repoUrl"`
}

type SocialLink struct {
	ID       string `json:"id"`
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

type Link struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Icon     string `json:"icon"`
	ImageURL string `json:"imageUrl"`
	Enabled  bool   `json:"enabled"`
}

// CustomStyle holds per-page overrides on top of the link theme. Unset
// values are omitted so that they read as absent.
type CustomStyle struct {
	ButtonColor     string `json:"buttonColor,omitempty"`
	ButtonTextColor string `json:"buttonTextColor,omitempty"`
	FontFamily      string `json:"fontFamily,omitempty"`
	Background      string `json:"background,omitempty"`
	BackgroundType  string `json:"backgroundType,omitempty"`
	BackgroundImage string `json:"backgroundImage,omitempty"`
}

type LinkInBio struct {
	Links       []Link      `json:"links"`
	ShowAvatar  bool        `json:"showAvatar"`
	ShowSocials bool        `json:"showSocials"`
	ThemeID     string      `json:"themeId"`
	CustomStyle CustomStyle `json:"customStyle"`
	Storefront  bool        `json:"storefront"`
}

type BusinessCard struct {
	Orientation string `json:"orientation"`
	ThemeRef    string `json:"themeRef"`
}

type Theme struct {
	PrimaryColor    string `json:"primaryColor"`
	SecondaryColor  string `json:"secondaryColor"`
	TextColor       string `json:"textColor"`
	BackgroundColor string `json:"backgroundColor"`
	FontFamily      string `json:"fontFamily"`
	ButtonColor     string `json:"buttonColor,omitempty"`
	ButtonTextColor string `json:"buttonTextColor,omitempty"`
	DarkMode        bool   `json:"darkMode"`
}

// Portfolio is the hydrated, fully defaulted document.
type Portfolio struct {
	ID            string            `json:"id"`
	OwnerID       string            `json:"ownerId"`
	Mode          Mode              `json:"mode"`
	TemplateID    string            `json:"templateId"`
	Section       string            `json:"section"`
	Title         string            `json:"title"`
	Hero          Hero              `json:"hero"`
	About         string            `json:"about"`
	SectionLabels map[string]string `json:"sectionLabels"`
	Timeline      []TimelineEntry   `json:"timeline"`
	TechStack     []TechItem        `json:"techStack"`
	Projects      []Project         `json:"projects"`
	SocialLinks   []SocialLink      `json:"socialLinks"`
	LinkInBio     LinkInBio         `json:"linkInBio"`
	BusinessCard  BusinessCard      `json:"businessCard"`
	Theme         Theme             `json:"theme"`
	ContactEmail  string            `json:"contactEmail"`
	Phone         string            `json:"phone"`
	CreatedAt     int64             `json:"createdAt"`
	UpdatedAt     int64             `json:"updatedAt"`
}

func (e TimelineEntry) EntryID() string { return e.ID }
func (e TechItem) EntryID() string      { return e.ID }
func (e Project) EntryID() string       { return e.ID }
func (e SocialLink) EntryID() string    { return e.ID }
func (e Link) EntryID() string          { return e.ID }

// Record is a raw, possibly partial document as stored remotely.
type Record map[string]any

// Patch is a top-level partial update: each key replaces one whole section.
type Patch map[string]any

// Keys that a patch can never change.
var immutableKeys = map[string]struct{}{
	"id":        {},
	"ownerId":   {},
	"createdAt": {},
	"updatedAt": {},
}

// TopLevelKeys lists every key of the canonical document shape.
var TopLevelKeys = []string{
	"id", "ownerId", "mode", "templateId", "section", "title", "hero", "about",
	"sectionLabels", "timeline", "techStack", "projects", "socialLinks",
	"linkInBio", "businessCard", "theme", "contactEmail", "phone",
	"createdAt", "updatedAt",
}

// IsTopLevelKey reports whether key names a section of the document.
func IsTopLevelKey(key string) bool {
	for _, k := range TopLevelKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Record converts the document back to its raw form.
func (p Portfolio) Record() Record {
	raw, err := json.Marshal(p)
	if err != nil {
		return Record{}
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}
	}
	return rec
}

// Sanitized drops the keys a patch is not allowed to carry.
func (p Patch) Sanitized() Patch {
	out := make(Patch, len(p))
	for k, v := range p {
		if _, ok := immutableKeys[k]; ok {
			continue
		}
		out[k] = v
	}
	return out
}

// Normalized returns the patch with every value reduced to plain JSON types.
func (p Patch) Normalized() (Patch, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var out Patch
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Keys returns the patch keys.
func (p Patch) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	return keys
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// StringField returns r[key] when it holds a string.
func (r Record) StringField(key string) string {
	if s, ok := r[key].(string); ok {
		return s
	}
	return ""
}
