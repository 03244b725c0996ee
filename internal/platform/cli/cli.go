// Package cli is the interactive terminal adapter: one local chat session
// against a character, history-backed like every other platform.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"social-agent/internal/character"
	"social-agent/internal/generate"
	"social-agent/internal/history"
	"social-agent/internal/logger"
	"social-agent/internal/metrics"
)

const historyLimit = 10

// Provider runs a line-oriented chat session on stdin/stdout.
type Provider struct {
	char      *character.Character
	db        *sql.DB
	gen       *generate.Generator
	sessionID string
	in        io.Reader
	out       io.Writer
	log       zerolog.Logger
}

// New builds a session with a fresh session id.
func New(char *character.Character, db *sql.DB, gen *generate.Generator) *Provider {
	return &Provider{
		char:      char,
		db:        db,
		gen:       gen,
		sessionID: uuid.NewString(),
		in:        os.Stdin,
		out:       os.Stdout,
		log:       logger.With("cli"),
	}
}

// NewWithIO builds a session with explicit streams and session id.
func NewWithIO(char *character.Character, db *sql.DB, gen *generate.Generator, sessionID string, in io.Reader, out io.Writer) *Provider {
	p := New(char, db, gen)
	if sessionID != "" {
		p.sessionID = sessionID
	}
	p.in = in
	p.out = out
	return p
}

// Run reads lines until EOF or ctx cancellation. Per-line errors are
// logged and the session continues.
func (p *Provider) Run(ctx context.Context) error {
	p.log.Info().Str("username", p.char.Username).Str("session_id", p.sessionID).
		Msg("cli session started")
	fmt.Fprintf(p.out, "Chatting with %s. Type your messages and press Enter. (Ctrl+C to quit)\n", p.char.Username)

	scanner := bufio.NewScanner(p.in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := p.HandleInput(ctx, line); err != nil {
			p.log.Error().Err(err).Msg("failed to handle input")
		}
	}
	fmt.Fprintln(p.out, "\nGoodbye!")
	return scanner.Err()
}

// HandleInput processes one inbound line: persist, build context, generate
// a chat-mode reply, persist the reply with its prompt, print it.
func (p *Provider) HandleInput(ctx context.Context, input string) error {
	if err := history.SaveChatMessage(p.db, &history.ChatMessage{
		Platform:  history.PlatformCLI,
		SessionID: p.sessionID,
		Content:   input,
	}); err != nil {
		return err
	}

	scope := history.CLIScope(p.sessionID)
	recent, err := history.GetRecentMessages(p.db, scope, historyLimit)
	if err != nil {
		return err
	}

	completion, err := p.gen.GenerateReply(ctx, p.char, input, true, history.FormatChatHistory(recent))
	if err != nil {
		return err
	}

	if err := history.SaveChatMessage(p.db, &history.ChatMessage{
		Platform:      history.PlatformCLI,
		SessionID:     p.sessionID,
		Content:       completion.Reply,
		IsBotResponse: true,
		Prompt:        completion.Prompt,
	}); err != nil {
		return err
	}

	metrics.RepliesSentTotal.WithLabelValues(string(history.PlatformCLI)).Inc()
	fmt.Fprintln(p.out, completion.Reply)
	return nil
}
