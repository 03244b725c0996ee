// Package character defines agent personas and their behavioral settings.
package character

import (
	"fmt"
	"strings"
)

// Character is one configured agent persona. It is loaded once at startup
// and never mutated while the process runs.
type Character struct {
	AgentName string `json:"agentName"`
	Username  string `json:"username"`

	Bio            []string `json:"bio"`
	Lore           []string `json:"lore"`
	PostDirections []string `json:"postDirections"`
	Knowledge      string   `json:"knowledge,omitempty"`
	Topics         []string `json:"topics,omitempty"`
	Adjectives     []string `json:"adjectives,omitempty"`

	Model         string  `json:"model"`
	FallbackModel string  `json:"fallbackModel,omitempty"`
	Temperature   float64 `json:"temperature"`

	PostingBehavior PostingBehavior `json:"postingBehavior"`

	ImageGeneration *ImageGeneration `json:"imageGenerationBehavior,omitempty"`
	AudioGeneration *AudioGeneration `json:"audioGenerationBehavior,omitempty"`

	DiscordAPIKey      string `json:"discordApiKey,omitempty"`
	DiscordBotUsername string `json:"discordBotUsername,omitempty"`
	TelegramAPIKey     string `json:"telegramApiKey,omitempty"`
	TwitterAPIKey      string `json:"twitterApiKey,omitempty"`
	TwitterUserID      string `json:"twitterUserId,omitempty"`
}

// PostingBehavior tunes how and how often the agent posts.
type PostingBehavior struct {
	ChatModeModel         string   `json:"chatModeModel,omitempty"`
	ChatModeRules         []string `json:"chatModeRules,omitempty"`
	RemovePeriods         bool     `json:"removePeriods,omitempty"`
	OnlyKeepFirstSentence bool     `json:"onlyKeepFirstSentence,omitempty"`
	DontTweetAt           []string `json:"dontTweetAt,omitempty"`

	// Intervals in minutes. Each periodic job fires at a random point in
	// [interval-lowerBound, interval+upperBound].
	TopicIntervalMinutes int `json:"topicIntervalMinutes,omitempty"`
	ReplyIntervalMinutes int `json:"replyIntervalMinutes,omitempty"`
	LowerBoundMinutes    int `json:"lowerBoundMinutes,omitempty"`
	UpperBoundMinutes    int `json:"upperBoundMinutes,omitempty"`

	ReplyDelaySeconds        int     `json:"replyDelaySeconds,omitempty"`
	GenerateImagePrompt      bool    `json:"generateImagePrompt,omitempty"`
	ImagePromptChance        float64 `json:"imagePromptChance,omitempty"`
	IgnoreTwitterReplies     bool    `json:"ignoreTwitterReplies,omitempty"`
	MinMentionFollowersCount int     `json:"minMentionFollowersCount,omitempty"`
}

// ImageGeneration selects and configures an image provider.
type ImageGeneration struct {
	Provider    string     `json:"provider"`
	PromptModel string     `json:"imageGenerationPromptModel,omitempty"`
	MS2         *MS2Config `json:"ms2,omitempty"`
}

// MS2Config holds credentials for the ms2 image provider.
type MS2Config struct {
	APIKey            string  `json:"apiKey"`
	CheeseworldChance float64 `json:"cheeseworldChance,omitempty"`
	MiladyChance      float64 `json:"miladyChance,omitempty"`
}

// AudioGeneration selects and configures a speech provider.
type AudioGeneration struct {
	Provider string             `json:"provider"`
	Kokoro   *KokoroAudioConfig `json:"kokoro,omitempty"`
	OpenAI   *OpenAIAudioConfig `json:"openai,omitempty"`
}

// KokoroAudioConfig configures the kokoro speech provider.
type KokoroAudioConfig struct {
	Voice   string  `json:"voice"`
	Speed   float64 `json:"speed,omitempty"`
	BaseURL string  `json:"baseUrl,omitempty"`
}

// OpenAIAudioConfig configures the openai speech provider.
type OpenAIAudioConfig struct {
	APIKey  string  `json:"apiKey"`
	Model   string  `json:"model,omitempty"`
	Voice   string  `json:"voice"`
	Speed   float64 `json:"speed,omitempty"`
	BaseURL string  `json:"baseUrl,omitempty"`
}

// ConfigError reports a missing or invalid character setting. It is fatal
// to the operation that needed the setting and is never retried.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("character config: %s: %s", e.Field, e.Msg)
}

// ChatModel returns the model used for chat-mode completions.
func (c *Character) ChatModel() string {
	if c.PostingBehavior.ChatModeModel != "" {
		return c.PostingBehavior.ChatModeModel
	}
	return c.Model
}

// BioText joins the bio lines for prompt rendering.
func (c *Character) BioText() string { return strings.Join(c.Bio, "\n") }

// LoreText joins the lore lines for prompt rendering.
func (c *Character) LoreText() string { return strings.Join(c.Lore, "\n") }

// PostDirectionsText joins the post directions for prompt rendering.
func (c *Character) PostDirectionsText() string {
	return strings.Join(c.PostDirections, "\n")
}

// ChatRulesText joins the chat-mode rules for prompt rendering.
func (c *Character) ChatRulesText() string {
	return strings.Join(c.PostingBehavior.ChatModeRules, "\n")
}

// Blocklisted reports whether the agent must never reply to the given user.
func (c *Character) Blocklisted(userID string) bool {
	for _, id := range c.PostingBehavior.DontTweetAt {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Character) validate() error {
	if c.Username == "" {
		return &ConfigError{Field: "username", Msg: "required"}
	}
	if c.AgentName == "" {
		return &ConfigError{Field: "agentName", Msg: "required"}
	}
	if c.Model == "" {
		return &ConfigError{Field: "model", Msg: "required"}
	}
	return nil
}
