package themes

import (
	"regexp"
	"strings"

	"portfolio-backend/internal/portfolios"
)

// Descriptor is the portable style of one document. A nil field was not
// set on the source and must not be written to a destination.
type Descriptor struct {
	PrimaryColor    *string `json:"primaryColor,omitempty"`
	SecondaryColor  *string `json:"secondaryColor,omitempty"`
	TextColor       *string `json:"textColor,omitempty"`
	BackgroundColor *string `json:"backgroundColor,omitempty"`
	FontFamily      *string `json:"fontFamily,omitempty"`
	ButtonColor     *string `json:"buttonColor,omitempty"`
	ButtonTextColor *string `json:"buttonTextColor,omitempty"`
	ThemeName       *string `json:"themeName,omitempty"`
}

// Empty reports whether d carries no style at all.
func (d Descriptor) Empty() bool {
	return d == Descriptor{}
}

var plainColor = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|(rgb|rgba|hsl|hsla)\([^()]*\)|[a-zA-Z]+)$`)

// isPlainColor rejects gradients, images and anything else that is not a
// single solid color.
func isPlainColor(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" || strings.Contains(v, "gradient") || strings.Contains(v, "url(") {
		return false
	}
	return plainColor.MatchString(v)
}

// Extract reads the style fields of doc. Link-in-bio documents fall back to
// their registered base theme and then apply their customStyle overrides.
func Extract(doc portfolios.Portfolio) Descriptor {
	t := doc.Theme
	var d Descriptor
	set(&d.PrimaryColor, t.PrimaryColor)
	set(&d.SecondaryColor, t.SecondaryColor)
	set(&d.TextColor, t.TextColor)
	set(&d.BackgroundColor, t.BackgroundColor)
	set(&d.FontFamily, t.FontFamily)
	set(&d.ButtonColor, t.ButtonColor)
	set(&d.ButtonTextColor, t.ButtonTextColor)

	if doc.Mode != portfolios.ModeLinkInBio {
		return d
	}

	base := portfolios.ResolveLinkTheme(doc)
	fill(&d.PrimaryColor, base.Primary)
	fill(&d.SecondaryColor, base.Secondary)
	fill(&d.TextColor, base.Text)
	fill(&d.BackgroundColor, base.Background)
	fill(&d.FontFamily, base.FontFamily)
	set(&d.ThemeName, base.Name)

	cs := doc.LinkInBio.CustomStyle
	set(&d.ButtonColor, cs.ButtonColor)
	set(&d.ButtonTextColor, cs.ButtonTextColor)
	set(&d.FontFamily, cs.FontFamily)
	switch strings.ToLower(strings.TrimSpace(cs.BackgroundType)) {
	case "color":
		set(&d.BackgroundColor, cs.Background)
	case "":
		if isPlainColor(cs.Background) {
			set(&d.BackgroundColor, cs.Background)
		}
	}
	return d
}

// set overwrites *dst when v is non-empty.
func set(dst **string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = &v
	}
}

// fill only writes an unset field.
func fill(dst **string, v string) {
	if *dst == nil {
		set(dst, v)
	}
}
