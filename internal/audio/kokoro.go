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

const kokoroDefaultBaseURL = "http://localhost:8880"

// KokoroProvider generates speech through a local kokoro server.
type KokoroProvider struct {
	HTTPClient *http.Client
}

// NewKokoroProvider builds the provider. A nil httpClient uses the default.
func NewKokoroProvider(httpClient *http.Client) *KokoroProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &KokoroProvider{HTTPClient: httpClient}
}

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed"`
}

// GenerateAudio synthesizes the text with the character's kokoro voice.
func (p *KokoroProvider) GenerateAudio(ctx context.Context, text string, c *character.Character) ([]byte, error) {
	if c.AudioGeneration == nil || c.AudioGeneration.Kokoro == nil || c.AudioGeneration.Kokoro.Voice == "" {
		return nil, &character.ConfigError{Field: "audioGenerationBehavior.kokoro.voice", Msg: "required"}
	}
	cfg := c.AudioGeneration.Kokoro

	speed := cfg.Speed
	if speed == 0 {
		speed = 1.1
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = kokoroDefaultBaseURL
	}

	log := logger.With("audio")
	log.Info().Str("provider", "kokoro").Int("chars", len(text)).
		Msg("generating audio")

	payload, err := json.Marshal(speechRequest{
		Model:          "kokoro",
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

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, &llm.ProviderError{Provider: "kokoro", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &llm.ProviderError{Provider: "kokoro", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	return io.ReadAll(resp.Body)
}
