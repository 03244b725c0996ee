// Package command wires the CLI: one subcommand per platform surface,
// sharing config loading, logging, and the character/database setup.
package command

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"social-agent/internal/character"
	"social-agent/internal/config"
	"social-agent/internal/generate"
	"social-agent/internal/history"
	"social-agent/internal/llm"
	"social-agent/internal/logger"
)

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "social-agent",
		Short: "Run LLM character agents across chat and social platforms",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := config.Load()
			logger.Init(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogDev})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		NewChatCmd(),
		NewDiscordCmd(),
		NewTelegramCmd(),
		NewAutoResponderCmd(),
		NewTopicPostCmd(),
		NewReplyMentionsCmd(),
	)
	return cmd
}

// Execute runs the CLI. ctx cancellation stops the long-running commands.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// runtime is everything a platform subcommand needs.
type runtime struct {
	cfg  *config.Config
	db   *sql.DB
	char *character.Character
	gen  *generate.Generator
}

func (r *runtime) close() {
	if r.db != nil {
		r.db.Close()
	}
}

// setup opens the database, loads the selected character, and builds the
// generator against the configured completion gateway.
func setup(username string) (*runtime, error) {
	cfg := config.Load()
	if cfg.ProviderKey == "" {
		return nil, fmt.Errorf("LLM_PROVIDER_API_KEY is not set")
	}

	characters, err := character.LoadDir(cfg.CharactersDir)
	if err != nil {
		return nil, fmt.Errorf("load characters: %w", err)
	}
	char, err := character.Find(characters, username)
	if err != nil {
		return nil, err
	}
	applyEnvCredentials(char)

	db, err := history.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	client := llm.NewClient(cfg.ProviderURL, cfg.ProviderKey)
	return &runtime{
		cfg:  cfg,
		db:   db,
		char: char,
		gen:  generate.New(client),
	}, nil
}

// applyEnvCredentials lets deployments keep platform secrets out of the
// character JSON. Env values win over profile values.
func applyEnvCredentials(c *character.Character) {
	if v := os.Getenv("DISCORD_API_KEY"); v != "" {
		c.DiscordAPIKey = v
	}
	if v := os.Getenv("TELEGRAM_API_KEY"); v != "" {
		c.TelegramAPIKey = v
	}
	if v := os.Getenv("TWITTER_API_KEY"); v != "" {
		c.TwitterAPIKey = v
	}
}
