// Package images generates images to accompany posts.
package images

import (
	"context"

	"social-agent/internal/character"
)

// Provider turns a prompt into image bytes.
type Provider interface {
	GenerateImage(ctx context.Context, prompt string, c *character.Character) ([]byte, error)
}

// NewProvider resolves the character's configured image provider. The
// registry is built per call from configuration; there is no process-wide
// mutable provider table.
func NewProvider(c *character.Character) (Provider, error) {
	if c.ImageGeneration == nil {
		return nil, &character.ConfigError{Field: "imageGenerationBehavior", Msg: "not configured"}
	}
	switch c.ImageGeneration.Provider {
	case "", "ms2":
		return NewMS2Provider(nil), nil
	default:
		return nil, &character.ConfigError{
			Field: "imageGenerationBehavior.provider",
			Msg:   "unknown provider " + c.ImageGeneration.Provider,
		}
	}
}
