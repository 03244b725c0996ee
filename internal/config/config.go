// Package config reads process configuration from the environment.
package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config is the process-level configuration. Character profiles carry
// per-agent settings; this covers what is shared across all of them.
type Config struct {
	ProviderURL string // base URL of the chat-completion gateway
	ProviderKey string // API key for the gateway

	TwitterAPIURL string // base URL of the Twitter-compatible gateway

	DBPath        string
	CharactersDir string

	LogLevel string
	LogDev   bool

	HTTPAddr string // health + metrics listener for long-running commands
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "TRUE"
}

// Load reads .env (if present) and builds the config.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	return &Config{
		ProviderURL: getEnv("LLM_PROVIDER_URL", ""),
		ProviderKey: getEnv("LLM_PROVIDER_API_KEY", ""),

		TwitterAPIURL: getEnv("TWITTER_API_URL", ""),

		DBPath:        getEnv("AGENT_DB_PATH", "database.db"),
		CharactersDir: getEnv("AGENT_CHARACTERS_DIR", "characters"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogDev:   getBoolEnv("AGENT_LOG_DEV", true),

		HTTPAddr: getEnv("AGENT_HTTP_ADDR", ":8081"),
	}
}
