// Package history is the persisted append-only log of every inbound and
// outbound message, keyed by platform + channel + user. It backs prompt
// context, the deduplication gate, and the interaction throttle.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Open opens (or creates) the agent database and ensures the schema.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Single connection serializes writes; sqlite has no row-level locking
	// and concurrent platform loops share this handle.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// InitSchema creates the tables and indexes if they do not exist.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS chat_messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			platform TEXT NOT NULL,
			platform_channel_id TEXT,
			platform_message_id TEXT,
			platform_user_id TEXT,
			username TEXT,
			session_id TEXT,
			message_content TEXT NOT NULL,
			message_type TEXT NOT NULL DEFAULT 'text',
			metadata TEXT,
			is_bot_response INTEGER NOT NULL DEFAULT 0,
			prompt TEXT,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_chat_messages_platform ON chat_messages(platform);
		CREATE INDEX IF NOT EXISTS idx_chat_messages_platform_channel ON chat_messages(platform, platform_channel_id);
		CREATE INDEX IF NOT EXISTS idx_chat_messages_created_at ON chat_messages(created_at);

		CREATE TABLE IF NOT EXISTS twitter_history (
			twitter_user_id TEXT NOT NULL,
			tweet_id TEXT NOT NULL,
			tweet_text TEXT NOT NULL,
			created_at TEXT NOT NULL,
			is_bot_tweet INTEGER NOT NULL DEFAULT 0,
			conversation_id TEXT,
			prompt TEXT,
			username TEXT,
			input_tweet_id TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_twitter_history_user_id ON twitter_history(twitter_user_id);
		CREATE INDEX IF NOT EXISTS idx_twitter_history_conversation ON twitter_history(conversation_id);
		CREATE INDEX IF NOT EXISTS idx_twitter_history_created_at ON twitter_history(created_at);
		CREATE INDEX IF NOT EXISTS idx_twitter_history_tweet_id ON twitter_history(tweet_id);
		CREATE INDEX IF NOT EXISTS idx_twitter_history_input_tweet ON twitter_history(input_tweet_id);
	`)
	if err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// timeFormat is the canonical stored timestamp layout. All rows use it so
// lexicographic comparison matches chronological order.
const timeFormat = "2006-01-02 15:04:05.000"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ValidationError reports a write with a missing required identity field.
// The write is rejected; nothing is partially inserted.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("history: missing required field %s", e.Field)
}
