// Package llm wraps the chat-completion provider.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"

	"social-agent/internal/logger"
	"social-agent/internal/metrics"
)

// DefaultMaxTokens bounds reply length; social posts are short.
const DefaultMaxTokens = 70

// CompletionRequest describes one completion call. Model is always explicit
// so callers can switch to a fallback model without mutating shared state.
type CompletionRequest struct {
	Model       string
	System      string // optional; when set, User is sent as a separate user turn
	User        string
	MaxTokens   int
	Temperature float64
}

// Completer issues one completion request and returns the generated text.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ProviderError reports an upstream failure or an empty completion. It
// propagates to the caller; periodic tasks catch and log it at the top level.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: no completion content received", e.Provider)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Client is the production Completer backed by the provider SDK.
type Client struct {
	client anthropic.Client
	log    zerolog.Logger
}

// NewClient builds a client for the configured gateway. An empty baseURL
// uses the SDK default endpoint.
func NewClient(baseURL, apiKey string) *Client {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Client{
		client: anthropic.NewClient(opts...),
		log:    logger.With("llm"),
	}
}

// Complete issues a single completion request.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	start := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	duration := time.Since(start)

	if err != nil {
		metrics.CompletionsTotal.WithLabelValues(req.Model, "error").Inc()
		c.log.Error().Err(err).Str("model", req.Model).Dur("duration", duration).
			Msg("completion call failed")
		return "", &ProviderError{Provider: "completion", Err: err}
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			out.WriteString(text.Text)
		}
	}
	if out.Len() == 0 {
		metrics.CompletionsTotal.WithLabelValues(req.Model, "empty").Inc()
		return "", &ProviderError{Provider: "completion"}
	}

	metrics.CompletionsTotal.WithLabelValues(req.Model, "ok").Inc()
	metrics.CompletionDuration.WithLabelValues(req.Model).Observe(duration.Seconds())
	c.log.Debug().Str("model", req.Model).Dur("duration", duration).
		Int("chars", out.Len()).Msg("completion done")
	return out.String(), nil
}
