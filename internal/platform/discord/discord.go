// Package discord is the push-based Discord adapter: the agent replies
// when mentioned in a channel it can read.
package discord

import (
	"context"
	"database/sql"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"social-agent/internal/character"
	"social-agent/internal/generate"
	"social-agent/internal/history"
	"social-agent/internal/logger"
	"social-agent/internal/metrics"
)

const historyLimit = 10

// Provider is the Discord bot for one character.
type Provider struct {
	char    *character.Character
	db      *sql.DB
	gen     *generate.Generator
	session *discordgo.Session
	log     zerolog.Logger
}

// New validates credentials and builds the bot.
func New(char *character.Character, db *sql.DB, gen *generate.Generator) (*Provider, error) {
	if char.DiscordAPIKey == "" {
		return nil, &character.ConfigError{Field: "discordApiKey", Msg: "required"}
	}
	session, err := discordgo.New("Bot " + char.DiscordAPIKey)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	return &Provider{
		char:    char,
		db:      db,
		gen:     gen,
		session: session,
		log:     logger.With("discord"),
	}, nil
}

// Run connects and serves events until ctx is cancelled.
func (p *Provider) Run(ctx context.Context) error {
	p.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		p.handleMessage(ctx, s, m)
	})

	if err := p.session.Open(); err != nil {
		return err
	}
	p.log.Info().Str("username", p.char.Username).Msg("discord bot started")

	<-ctx.Done()
	p.log.Info().Str("username", p.char.Username).Msg("discord bot stopping")
	return p.session.Close()
}

// handleMessage replies when the bot is mentioned by a non-bot user. Errors
// are logged; one failed message never takes the bot down.
func (p *Provider) handleMessage(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if s.State.User == nil || !p.mentioned(s.State.User.ID, m) {
		return
	}

	p.log.Info().Str("channel_id", m.ChannelID).Str("user", m.Author.Username).
		Msg("bot mentioned")

	if err := p.reply(ctx, s, m); err != nil {
		p.log.Error().Err(err).Str("message_id", m.ID).Msg("failed to reply")
	}
}

func (p *Provider) mentioned(botID string, m *discordgo.MessageCreate) bool {
	for _, user := range m.Mentions {
		if user.ID == botID {
			return true
		}
	}
	return false
}

func (p *Provider) reply(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) error {
	if err := history.SaveChatMessage(p.db, &history.ChatMessage{
		Platform:  history.PlatformDiscord,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		UserID:    m.Author.ID,
		Username:  m.Author.Username,
		Content:   m.Content,
	}); err != nil {
		return err
	}

	recent, err := history.GetRecentMessages(p.db, history.DiscordScope(m.ChannelID), historyLimit)
	if err != nil {
		return err
	}

	completion, err := p.gen.GenerateReply(ctx, p.char, m.Content, true, history.FormatChatHistory(recent))
	if err != nil {
		return err
	}

	sent, err := s.ChannelMessageSendReply(m.ChannelID, completion.Reply, m.Reference())
	if err != nil {
		return err
	}

	botID := ""
	if s.State.User != nil {
		botID = s.State.User.ID
	}
	if err := history.SaveChatMessage(p.db, &history.ChatMessage{
		Platform:      history.PlatformDiscord,
		ChannelID:     m.ChannelID,
		MessageID:     sent.ID,
		UserID:        botID,
		Username:      p.char.Username,
		Content:       completion.Reply,
		IsBotResponse: true,
		Prompt:        completion.Prompt,
	}); err != nil {
		return err
	}

	metrics.RepliesSentTotal.WithLabelValues(string(history.PlatformDiscord)).Inc()
	return nil
}
