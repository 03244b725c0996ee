// Package generate is the reply pipeline: prompt assembly, completion,
// and the moderation/length retry loop that gates what gets posted.
package generate

import (
	"context"
	"math/rand"
	"strings"

	"github.com/rs/zerolog"

	"social-agent/internal/character"
	"social-agent/internal/llm"
	"social-agent/internal/logger"
	"social-agent/internal/metrics"
	"social-agent/internal/prompt"
)

const (
	// DefaultMaxReplyLength is the platform post length bound.
	DefaultMaxReplyLength = 280
	// DefaultBanThreshold is how many banned verdicts trigger the
	// fallback model.
	DefaultBanThreshold = 3
	// maxModerationAttempts caps total regenerations. The length-only
	// failure path would otherwise retry forever against a model that
	// keeps producing long replies, burning quota on every pass.
	maxModerationAttempts = 12
)

// Completion is the transient result of one reply generation: the prompt
// that was used and the text that came back.
type Completion struct {
	Prompt string
	Reply  string
}

// Generator drives reply generation for characters.
type Generator struct {
	completer llm.Completer
	log       zerolog.Logger
}

// New builds a Generator on top of a completion client.
func New(completer llm.Completer) *Generator {
	return &Generator{
		completer: completer,
		log:       logger.With("generate"),
	}
}

// complete issues one completion with an explicit model. The character is
// read, never written; fallback handling passes a different model here
// instead of swapping a shared field.
func (g *Generator) complete(ctx context.Context, c *character.Character, model, system, user string) (string, error) {
	return g.completer.Complete(ctx, llm.CompletionRequest{
		Model:       model,
		System:      system,
		User:        user,
		Temperature: c.Temperature,
	})
}

// GenerateReply produces a reply to an inbound message. Chat mode uses the
// conversational prompt as the system turn and skips the moderation loop;
// platform replies go through ModerateReply before being accepted.
func (g *Generator) GenerateReply(ctx context.Context, c *character.Character, input string, chatMode bool, recentHistory string) (*Completion, error) {
	rendered := prompt.ForReply(c, input, chatMode, recentHistory)

	model := c.Model
	if chatMode {
		model = c.ChatModel()
	}

	reply, err := g.complete(ctx, c, model, rendered, input)
	if err != nil {
		return nil, err
	}

	if !chatMode {
		reply, err = g.ModerateReply(ctx, c, rendered, reply, DefaultMaxReplyLength, DefaultBanThreshold)
		if err != nil {
			return nil, err
		}
	}

	return &Completion{Prompt: rendered, Reply: formatReply(reply, c)}, nil
}

// GenerateTopicPost produces a standalone post about a random topic from
// the character's topic list.
func (g *Generator) GenerateTopicPost(ctx context.Context, c *character.Character, recentHistory string) (*Completion, error) {
	if len(c.Topics) == 0 {
		return nil, &character.ConfigError{Field: "topics", Msg: "required for topic posts"}
	}
	if len(c.Adjectives) == 0 {
		return nil, &character.ConfigError{Field: "adjectives", Msg: "required for topic posts"}
	}
	topic := c.Topics[rand.Intn(len(c.Topics))]
	adjective := c.Adjectives[rand.Intn(len(c.Adjectives))]

	rendered := prompt.ForTopic(c, recentHistory)
	userTurn := "Generate a post that is " + adjective + " about " + topic

	reply, err := g.complete(ctx, c, c.Model, rendered, userTurn)
	if err != nil {
		return nil, err
	}

	reply, err = g.ModerateReply(ctx, c, rendered, reply, DefaultMaxReplyLength, DefaultBanThreshold)
	if err != nil {
		return nil, err
	}

	g.log.Info().Str("username", c.Username).Str("topic", topic).
		Str("adjective", adjective).Msg("topic post generated")
	return &Completion{Prompt: rendered, Reply: unescapeNewlines(reply)}, nil
}

// GenerateImagePrompt produces a one-sentence image-generation prompt to
// accompany a post.
func (g *Generator) GenerateImagePrompt(ctx context.Context, c *character.Character, post string) (string, error) {
	rendered, err := prompt.ForImage(c, post)
	if err != nil {
		return "", err
	}
	model := c.Model
	if c.ImageGeneration != nil && c.ImageGeneration.PromptModel != "" {
		model = c.ImageGeneration.PromptModel
	}
	return g.complete(ctx, c, model, "", rendered)
}

// ModerateReply regenerates a candidate until the moderation classifier
// clears it and it fits maxLength. After banThreshold banned verdicts a
// configured fallback model generates once and the result is accepted
// without further checks. Total attempts are capped; hitting the cap
// returns the last candidate as-is.
func (g *Generator) ModerateReply(ctx context.Context, c *character.Character, renderedPrompt, reply string, maxLength, banThreshold int) (string, error) {
	current := reply
	banCount := 0
	attempts := 0

	banned, err := g.checkBanned(ctx, c, current)
	if err != nil {
		return "", err
	}

	for banned || len(current) > maxLength {
		if attempts >= maxModerationAttempts {
			g.log.Warn().Str("username", c.Username).Int("attempts", attempts).
				Msg("moderation retry cap reached, accepting last candidate")
			break
		}
		attempts++

		if banned {
			banCount++
			metrics.ModerationRetriesTotal.WithLabelValues("banned").Inc()
			g.log.Info().Int("attempt", banCount).Int("threshold", banThreshold).
				Msg("reply was banned, regenerating")

			if banCount >= banThreshold && c.FallbackModel != "" {
				g.log.Info().Str("model", c.FallbackModel).
					Msg("switching to fallback model")
				return g.complete(ctx, c, c.FallbackModel, "", renderedPrompt)
			}
		} else {
			metrics.ModerationRetriesTotal.WithLabelValues("length").Inc()
			g.log.Info().Int("length", len(current)).Int("max", maxLength).
				Msg("reply too long, regenerating")
		}

		current, err = g.complete(ctx, c, c.Model, "", renderedPrompt)
		if err != nil {
			return "", err
		}
		banned, err = g.checkBanned(ctx, c, current)
		if err != nil {
			return "", err
		}
	}

	return current, nil
}

// checkBanned runs the moderation classifier: a completion against the
// banned-check prompt, answered YES or NO.
func (g *Generator) checkBanned(ctx context.Context, c *character.Character, reply string) (bool, error) {
	verdict, err := g.complete(ctx, c, c.Model, "", prompt.ForBannedCheck(c, reply))
	if err != nil {
		return false, err
	}
	return strings.ToUpper(strings.TrimSpace(verdict)) == "YES", nil
}

func formatReply(reply string, c *character.Character) string {
	formatted := unescapeNewlines(reply)
	if c.PostingBehavior.RemovePeriods {
		formatted = strings.ReplaceAll(formatted, ".", "")
	}
	if c.PostingBehavior.OnlyKeepFirstSentence {
		formatted = strings.SplitN(formatted, "\n", 2)[0]
	}
	return formatted
}

// unescapeNewlines turns literal \n sequences the model emits into real
// line breaks.
func unescapeNewlines(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}
