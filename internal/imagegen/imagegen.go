package imagegen

import (
	"context"
	"errors"
)

// Request describes one image to produce. With SourceURL set the provider
// edits that image instead of starting from nothing.
type Request struct {
	Prompt    string
	SourceURL string
	Size      string
}

// Image is a generated result. URL is either a hosted link or a data URL.
type Image struct {
	URL      string
	MimeType string
}

// Generator abstracts image providers.
type Generator interface {
	Generate(ctx context.Context, req Request) (Image, error)
}

// ErrNotConfigured is returned when no provider is wired.
var ErrNotConfigured = errors.New("image generation not configured")

// ErrEmptyPrompt rejects blank prompts before any provider call.
var ErrEmptyPrompt = errors.New("image prompt is required")

// PlaceholderGenerator is used when IMAGE_PROVIDER is none.
type PlaceholderGenerator struct{}

func (PlaceholderGenerator) Generate(ctx context.Context, req Request) (Image, error) {
	return Image{}, ErrNotConfigured
}
