package portfolios

import "strings"

// LinkTheme is a registered visual theme for link-in-bio pages.
type LinkTheme struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Text       string `json:"text"`
	Background string `json:"background"`
	FontFamily string `json:"fontFamily"`
}

// DefaultLinkThemeID is used when a link-in-bio page names no known theme.
const DefaultLinkThemeID = "minimal"

var linkThemes = map[string]LinkTheme{
	"minimal":  {ID: "minimal", Name: "Minimal", Primary: "#111827", Secondary: "#6b7280", Text: "#111827", Background: "#ffffff", FontFamily: "Inter"},
	"bento":    {ID: "bento", Name: "Bento", Primary: "#f97316", Secondary: "#fde68a", Text: "#1f2937", Background: "#fff7ed", FontFamily: "Space Grotesk"},
	"glass":    {ID: "glass", Name: "Glass", Primary: "#38bdf8", Secondary: "#e0f2fe", Text: "#f8fafc", Background: "#0f172a", FontFamily: "Poppins"},
	"sunset":   {ID: "sunset", Name: "Sunset", Primary: "#f43f5e", Secondary: "#fb923c", Text: "#ffffff", Background: "#7c2d12", FontFamily: "DM Sans"},
	"forest":   {ID: "forest", Name: "Forest", Primary: "#16a34a", Secondary: "#bbf7d0", Text: "#052e16", Background: "#f0fdf4", FontFamily: "Merriweather"},
	"midnight": {ID: "midnight", Name: "Midnight", Primary: "#a78bfa", Secondary: "#312e81", Text: "#e0e7ff", Background: "#020617", FontFamily: "IBM Plex Sans"},
	"neon":     {ID: "neon", Name: "Neon", Primary: "#22d3ee", Secondary: "#f0abfc", Text: "#ecfeff", Background: "#000000", FontFamily: "Orbitron"},
}

// Legacy template ids that select a registered theme.
var legacyThemeAliases = map[string]string{
	"linktree":         "minimal",
	"linktree_minimal": "minimal",
	"linktree_bento":   "bento",
	"linktree_glass":   "glass",
	"link-in-bio":      "minimal",
	"linkinbio":        "minimal",
}

// LookupLinkTheme returns a registered link theme by id.
func LookupLinkTheme(id string) (LinkTheme, bool) {
	t, ok := linkThemes[strings.ToLower(strings.TrimSpace(id))]
	return t, ok
}

// ResolveLinkTheme picks the base theme of a link-in-bio page: its themeId,
// then its template id, then the default theme.
func ResolveLinkTheme(doc Portfolio) LinkTheme {
	for _, id := range []string{doc.LinkInBio.ThemeID, doc.TemplateID} {
		id = strings.ToLower(strings.TrimSpace(id))
		if t, ok := linkThemes[id]; ok {
			return t
		}
		if alias, ok := legacyThemeAliases[id]; ok {
			return linkThemes[alias]
		}
	}
	return linkThemes[DefaultLinkThemeID]
}

// LinkThemes lists the registry in a stable order.
func LinkThemes() []LinkTheme {
	ids := []string{"minimal", "bento", "glass", "sunset", "forest", "midnight", "neon"}
	out := make([]LinkTheme, 0, len(ids))
	for _, id := range ids {
		out = append(out, linkThemes[id])
	}
	return out
}
