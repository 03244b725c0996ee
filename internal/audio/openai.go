package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"social-agent/internal/character"
	"social-agent/internal/llm"
	"social-agent/internal/logger"
)

const openaiDefaultBaseURL = "https://api.openai.com"

// OpenAIProvider generates speech through the OpenAI TTS API or a
// compatible endpoint.
type OpenAIProvider struct {
	HTTPClient *http.Client
}

// NewOpenAIProvider builds the provider. A nil httpClient uses the default.
func NewOpenAIProvider(httpClient *http.Client) *OpenAIProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OpenAIProvider{HTTPClient: httpClient}
}

// GenerateAudio synthesizes the text with the character's configured voice.
func (p *OpenAIProvider) GenerateAudio(ctx context.Context, text string, c *character.Character) ([]byte, error) {
	if c.AudioGeneration == nil || c.AudioGeneration.OpenAI == nil {
		return nil, &character.ConfigError{Field: "audioGenerationBehavior.openai", Msg: "not configured"}
	}
	cfg := c.AudioGeneration.OpenAI
	if cfg.APIKey == "" {
		return nil, &character.ConfigError{Field: "audioGenerationBehavior.openai.apiKey", Msg: "required"}
	}
	if cfg.Voice == "" {
		return nil, &character.ConfigError{Field: "audioGenerationBehavior.openai.voice", Msg: "required"}
	}

	model := cfg.Model
	if model == "" {
		model = "tts-1"
	}
	speed := cfg.Speed
	if speed == 0 {
		speed = 1.0
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openaiDefaultBaseURL
	}

	log := logger.With("audio")
	log.Info().Str("provider", "openai").Int("chars", len(text)).
		Msg("generating audio")

	payload, err := json.Marshal(speechRequest{
		Model:          model,
		Input:          text,
		Voice:          cfg.Voice,
		ResponseFormat: "opus",
		Speed:          speed,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal speech request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/audio/speech", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create speech request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, &llm.ProviderError{Provider: "openai-audio", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &llm.ProviderError{Provider: "openai-audio", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	return io.ReadAll(resp.Body)
}
