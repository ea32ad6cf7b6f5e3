package portfolios

import "strings"

// legacyLinkInBioTemplates predate the link theme registry.
var legacyLinkInBioTemplates = map[string]struct{}{
	"linktree":         {},
	"linktree_bento":   {},
	"linktree_minimal": {},
	"linktree_glass":   {},
	"link-in-bio":      {},
	"linkinbio":        {},
}

// InferMode maps a template id to the mode it implies. Every input yields a mode.
func InferMode(templateID string) Mode {
	id := strings.ToLower(strings.TrimSpace(templateID))
	if _, ok := legacyLinkInBioTemplates[id]; ok {
		return ModeLinkInBio
	}
	if _, ok := LookupLinkTheme(id); ok {
		return ModeLinkInBio
	}
	return ModePortfolio
}

// ResolveMode prefers a valid stored mode over inference.
func ResolveMode(stored any, templateID string) Mode {
	if s, ok := stored.(string); ok {
		if m := Mode(strings.TrimSpace(s)); m.Valid() {
			return m
		}
	}
	return InferMode(templateID)
}
