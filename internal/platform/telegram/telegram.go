// Package telegram is the push-based Telegram adapter: the agent replies
// in private chats and when mentioned in groups.
package telegram

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"social-agent/internal/audio"
	"social-agent/internal/character"
	"social-agent/internal/generate"
	"social-agent/internal/history"
	"social-agent/internal/logger"
	"social-agent/internal/metrics"
)

const historyLimit = 10

// Provider is the Telegram bot for one character.
type Provider struct {
	char  *character.Character
	db    *sql.DB
	gen   *generate.Generator
	bot   *tgbotapi.BotAPI
	voice audio.Provider // nil when speech is not configured
	log   zerolog.Logger
}

// New validates credentials and builds the bot.
func New(char *character.Character, db *sql.DB, gen *generate.Generator) (*Provider, error) {
	if char.TelegramAPIKey == "" {
		return nil, &character.ConfigError{Field: "telegramApiKey", Msg: "required"}
	}
	bot, err := tgbotapi.NewBotAPI(char.TelegramAPIKey)
	if err != nil {
		return nil, err
	}

	var voice audio.Provider
	if char.AudioGeneration != nil {
		voice, err = audio.NewProvider(char)
		if err != nil {
			return nil, err
		}
	}

	return &Provider{
		char:  char,
		db:    db,
		gen:   gen,
		bot:   bot,
		voice: voice,
		log:   logger.With("telegram"),
	}, nil
}

// Run polls updates until ctx is cancelled.
func (p *Provider) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 60
	updates := p.bot.GetUpdatesChan(cfg)

	p.log.Info().Str("username", p.char.Username).
		Str("bot", p.bot.Self.UserName).Msg("telegram bot started")

	for {
		select {
		case <-ctx.Done():
			p.bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			if err := p.handleMessage(ctx, update.Message); err != nil {
				p.log.Error().Err(err).Int("message_id", update.Message.MessageID).
					Msg("failed to handle message")
			}
		}
	}
}

func (p *Provider) handleMessage(ctx context.Context, m *tgbotapi.Message) error {
	if m.From == nil || m.From.IsBot || m.Text == "" {
		return nil
	}
	// Groups require an explicit mention; private chats always answer.
	if !m.Chat.IsPrivate() && !strings.Contains(m.Text, "@"+p.bot.Self.UserName) {
		return nil
	}

	chatID := strconv.FormatInt(m.Chat.ID, 10)
	p.log.Info().Str("chat_id", chatID).Str("user", m.From.UserName).Msg("message received")

	if err := history.SaveChatMessage(p.db, &history.ChatMessage{
		Platform:  history.PlatformTelegram,
		ChannelID: chatID,
		MessageID: strconv.Itoa(m.MessageID),
		UserID:    strconv.FormatInt(m.From.ID, 10),
		Username:  m.From.UserName,
		Content:   m.Text,
	}); err != nil {
		return err
	}

	recent, err := history.GetRecentMessages(p.db, history.TelegramScope(chatID), historyLimit)
	if err != nil {
		return err
	}

	completion, err := p.gen.GenerateReply(ctx, p.char, m.Text, true, history.FormatChatHistory(recent))
	if err != nil {
		return err
	}

	reply := tgbotapi.NewMessage(m.Chat.ID, completion.Reply)
	reply.ReplyToMessageID = m.MessageID
	sent, err := p.bot.Send(reply)
	if err != nil {
		return err
	}

	if err := history.SaveChatMessage(p.db, &history.ChatMessage{
		Platform:      history.PlatformTelegram,
		ChannelID:     chatID,
		MessageID:     strconv.Itoa(sent.MessageID),
		UserID:        strconv.FormatInt(p.bot.Self.ID, 10),
		Username:      p.char.Username,
		Content:       completion.Reply,
		IsBotResponse: true,
		Prompt:        completion.Prompt,
	}); err != nil {
		return err
	}

	metrics.RepliesSentTotal.WithLabelValues(string(history.PlatformTelegram)).Inc()

	// Voice notes are best effort: a speech failure never loses the reply.
	if p.voice != nil {
		if err := p.sendVoiceNote(ctx, m, completion.Reply); err != nil {
			p.log.Error().Err(err).Str("chat_id", chatID).Msg("failed to send voice note")
		}
	}
	return nil
}

func (p *Provider) sendVoiceNote(ctx context.Context, m *tgbotapi.Message, text string) error {
	data, err := p.voice.GenerateAudio(ctx, text, p.char)
	if err != nil {
		return err
	}
	note := tgbotapi.NewVoice(m.Chat.ID, tgbotapi.FileBytes{Name: "reply.opus", Bytes: data})
	note.ReplyToMessageID = m.MessageID
	_, err = p.bot.Send(note)
	return err
}
