package images

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"

	"social-agent/internal/character"
	"social-agent/internal/llm"
	"social-agent/internal/logger"
)

const ms2BaseURL = "https://www.miladystation2.net/api/v1"

// MS2Provider generates images through the ms2 HTTP API.
type MS2Provider struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewMS2Provider builds the provider. A nil httpClient uses the default.
func NewMS2Provider(httpClient *http.Client) *MS2Provider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &MS2Provider{BaseURL: ms2BaseURL, HTTPClient: httpClient}
}

type ms2Request struct {
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
	Wait   bool   `json:"wait"`
}

type ms2Response struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateImage submits the prompt and downloads the resulting image.
func (p *MS2Provider) GenerateImage(ctx context.Context, prompt string, c *character.Character) ([]byte, error) {
	if c.ImageGeneration == nil || c.ImageGeneration.MS2 == nil || c.ImageGeneration.MS2.APIKey == "" {
		return nil, &character.ConfigError{Field: "imageGenerationBehavior.ms2.apiKey", Msg: "required"}
	}

	prompt = p.enhancePrompt(prompt, c.ImageGeneration.MS2)
	log := logger.With("images")
	log.Info().Str("prompt", prompt).Msg("generating ms2 image")

	url, err := p.requestImage(ctx, prompt, c.ImageGeneration.MS2.APIKey)
	if err != nil {
		return nil, err
	}
	return p.download(ctx, url)
}

// enhancePrompt occasionally prefixes house-style trigger words.
func (p *MS2Provider) enhancePrompt(prompt string, cfg *character.MS2Config) string {
	cheeseChance := cfg.CheeseworldChance
	if cheeseChance == 0 {
		cheeseChance = 0.01
	}
	miladyChance := cfg.MiladyChance
	if miladyChance == 0 {
		miladyChance = 0.01
	}
	if rand.Float64() < cheeseChance {
		prompt = "cheeseworld6 " + prompt
	}
	if rand.Float64() < miladyChance {
		prompt = "milady " + prompt
	}
	return prompt
}

func (p *MS2Provider) requestImage(ctx context.Context, prompt, apiKey string) (string, error) {
	payload, err := json.Marshal(ms2Request{Prompt: prompt, N: 1, Size: "1024x1024", Wait: true})
	if err != nil {
		return "", fmt.Errorf("marshal ms2 request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/images/generations", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create ms2 request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return "", &llm.ProviderError{Provider: "ms2", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &llm.ProviderError{Provider: "ms2", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var parsed ms2Response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &llm.ProviderError{Provider: "ms2", Err: fmt.Errorf("parse response: %w", err)}
	}
	if parsed.Error != nil {
		return "", &llm.ProviderError{Provider: "ms2", Err: fmt.Errorf("%s", parsed.Error.Message)}
	}
	if len(parsed.Data) == 0 || parsed.Data[0].URL == "" {
		return "", &llm.ProviderError{Provider: "ms2"}
	}
	return parsed.Data[0].URL, nil
}

func (p *MS2Provider) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}
	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, &llm.ProviderError{Provider: "ms2", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &llm.ProviderError{Provider: "ms2", Err: fmt.Errorf("download status %d", resp.StatusCode)}
	}
	return io.ReadAll(resp.Body)
}
