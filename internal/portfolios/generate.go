package portfolios

import (
	"strings"
	"time"
)

// GenerateOptions describes a document to create from a template.
type GenerateOptions struct {
	ID         string
	OwnerID    string
	TemplateID string
	Mode       Mode
	Title      string
	Email      string
	Now        time.Time
}

// Generate builds a fully populated starter document. Mode falls back to
// the mode implied by the template.
func Generate(opts GenerateOptions) Portfolio {
	doc := Default()
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	doc.ID = opts.ID
	doc.OwnerID = opts.OwnerID
	doc.TemplateID = strings.TrimSpace(opts.TemplateID)
	doc.Mode = opts.Mode
	if !doc.Mode.Valid() {
		doc.Mode = InferMode(doc.TemplateID)
	}
	doc.CreatedAt = now.UnixMilli()
	doc.UpdatedAt = doc.CreatedAt

	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = "My Portfolio"
	}
	doc.Title = title
	doc.ContactEmail = opts.Email
	doc.Hero = Hero{
		Headline:     title,
		SubHeadline:  "Building things people love.",
		PrimaryCTA:   CTA{Label: "View projects", URL: "#projects"},
		SecondaryCTA: CTA{Label: "Get in touch", URL: "#contact"},
	}
	doc.About = "Tell visitors who you are and what you work on."
	doc.SectionLabels = map[string]string{
		"timeline":  "Experience",
		"techStack": "Tech Stack",
		"projects":  "Projects",
		"contact":   "Contact",
	}
	doc.Timeline = []TimelineEntry{
		{ID: "timeline-0", Role: "Software Engineer", Employer: "Acme Corp", StartDate: "2022", EndDate: "Present", Description: "Shipped features end to end."},
	}
	doc.TechStack = []TechItem{
		{ID: "tech-0", Name: "Go", Level: "advanced"},
		{ID: "tech-1", Name: "TypeScript", Level: "intermediate"},
	}
	doc.Projects = []Project{
		{ID: "project-0", Title: "First project", Description: "A short description of what it does.", Tags: []string{"web"}},
	}
	doc.SocialLinks = []SocialLink{
		{ID: "social-0", Platform: "github", URL: ""},
	}
	doc.Theme = Theme{
		PrimaryColor:    "#2563eb",
		SecondaryColor:  "#0f172a",
		TextColor:       "#111827",
		BackgroundColor: "#ffffff",
		FontFamily:      "Inter",
	}

	switch doc.Mode {
	case ModeLinkInBio:
		base := ResolveLinkTheme(doc)
		doc.LinkInBio.ThemeID = base.ID
		doc.LinkInBio.Links = []Link{
			{ID: "link-0", Title: "My website", URL: "https://example.com", Enabled: true},
			{ID: "link-1", Title: "Latest project", URL: "", Enabled: true},
		}
		doc.Theme = Theme{
			PrimaryColor:    base.Primary,
			SecondaryColor:  base.Secondary,
			TextColor:       base.Text,
			BackgroundColor: base.Background,
			FontFamily:      base.FontFamily,
		}
	case ModeBusinessCard:
		doc.BusinessCard = BusinessCard{Orientation: "horizontal"}
	}
	return doc
}
