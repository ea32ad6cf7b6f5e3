package themes

import (
	"portfolio-backend/internal/editor"
	"portfolio-backend/internal/portfolios"
)

// Merger replaces one top-level key of the destination document.
// editor.Updater satisfies it.
type Merger interface {
	Merge(key string, value any) error
}

// Merged returns dst with the present descriptor fields written over it.
func Merged(dst portfolios.Theme, d Descriptor) portfolios.Theme {
	put := func(field *string, v *string) {
		if v != nil {
			*field = *v
		}
	}
	put(&dst.PrimaryColor, d.PrimaryColor)
	put(&dst.SecondaryColor, d.SecondaryColor)
	put(&dst.TextColor, d.TextColor)
	put(&dst.BackgroundColor, d.BackgroundColor)
	put(&dst.FontFamily, d.FontFamily)
	put(&dst.ButtonColor, d.ButtonColor)
	put(&dst.ButtonTextColor, d.ButtonTextColor)
	return dst
}

// Apply merges d into dst's theme and, when d names its source theme,
// records it on the business card. Nothing else is written.
func Apply(m Merger, dst portfolios.Portfolio, d Descriptor) error {
	if d.Empty() {
		return nil
	}
	if theme := Merged(editor.ThemeLens.Get(dst), d); theme != dst.Theme {
		if err := m.Merge(editor.ThemeLens.Key, theme); err != nil {
			return err
		}
	}
	if d.ThemeName != nil && *d.ThemeName != dst.BusinessCard.ThemeRef {
		_, patch := editor.BusinessCardLens.Modify(dst, func(card portfolios.BusinessCard) portfolios.BusinessCard {
			card.ThemeRef = *d.ThemeName
			return card
		})
		if err := m.Merge(editor.BusinessCardLens.Key, patch[editor.BusinessCardLens.Key]); err != nil {
			return err
		}
	}
	return nil
}
