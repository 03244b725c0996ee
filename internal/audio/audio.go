// Package audio generates speech for replies.
package audio

import (
	"context"

	"social-agent/internal/character"
)

// Provider turns reply text into audio bytes.
type Provider interface {
	GenerateAudio(ctx context.Context, text string, c *character.Character) ([]byte, error)
}

// NewProvider resolves the character's configured speech provider from
// configuration, kokoro by default.
func NewProvider(c *character.Character) (Provider, error) {
	if c.AudioGeneration == nil {
		return nil, &character.ConfigError{Field: "audioGenerationBehavior", Msg: "not configured"}
	}
	switch c.AudioGeneration.Provider {
	case "", "kokoro":
		return NewKokoroProvider(nil), nil
	case "openai":
		return NewOpenAIProvider(nil), nil
	default:
		return nil, &character.ConfigError{
			Field: "audioGenerationBehavior.provider",
			Msg:   "unknown provider " + c.AudioGeneration.Provider,
		}
	}
}
