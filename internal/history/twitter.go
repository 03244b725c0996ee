package history

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// TwitterRecord is one row of the timeline history: either an inbound post
// the agent saw or an outbound post the agent published.
type TwitterRecord struct {
	UserID         string // author: platform user id, or the bot's username for bot rows
	TweetID        string
	Text           string
	CreatedAt      time.Time
	IsBot          bool
	ConversationID string
	Prompt         string
	Username       string
	InputTweetID   string // for bot rows: the inbound tweet this replies to
}

// SaveTwitterRecord appends one timeline row.
func SaveTwitterRecord(db *sql.DB, rec *TwitterRecord) error {
	switch {
	case rec.UserID == "":
		return &ValidationError{Field: "twitter_user_id"}
	case rec.TweetID == "":
		return &ValidationError{Field: "tweet_id"}
	case rec.Text == "":
		return &ValidationError{Field: "tweet_text"}
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	botFlag := 0
	if rec.IsBot {
		botFlag = 1
	}

	_, err := db.Exec(`
		INSERT INTO twitter_history (
			twitter_user_id, tweet_id, tweet_text, created_at,
			is_bot_tweet, conversation_id, prompt, username, input_tweet_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.UserID, rec.TweetID, rec.Text, formatTime(rec.CreatedAt),
		botFlag, nullable(rec.ConversationID), nullable(rec.Prompt),
		nullable(rec.Username), nullable(rec.InputTweetID),
	)
	if err != nil {
		return fmt.Errorf("insert twitter record: %w", err)
	}
	return nil
}

// Reply bundles the outbound post with the inbound post that triggered it.
// InputTweetID empty means a standalone post (topic post).
type Reply struct {
	InputTweetID        string
	InputTweetText      string
	InputTweetUserID    string
	InputTweetUsername  string
	InputTweetCreatedAt time.Time
	NewTweetID          string
	NewTweetText        string
	Prompt              string
	ConversationID      string
}

// InsertReply records an outbound reply, and the inbound post it answers
// when there is one. Rows are linked by input_tweet_id and conversation_id.
func InsertReply(db *sql.DB, botUsername string, reply *Reply) error {
	if botUsername == "" {
		return &ValidationError{Field: "username"}
	}
	if reply.NewTweetID == "" {
		return &ValidationError{Field: "tweet_id"}
	}
	if reply.NewTweetText == "" {
		return &ValidationError{Field: "tweet_text"}
	}

	if reply.InputTweetID != "" {
		if err := SaveTwitterRecord(db, &TwitterRecord{
			UserID:         reply.InputTweetUserID,
			TweetID:        reply.InputTweetID,
			Text:           reply.InputTweetText,
			CreatedAt:      reply.InputTweetCreatedAt,
			ConversationID: reply.ConversationID,
			Username:       reply.InputTweetUsername,
		}); err != nil {
			return err
		}
	}

	return SaveTwitterRecord(db, &TwitterRecord{
		UserID:         botUsername,
		TweetID:        reply.NewTweetID,
		Text:           reply.NewTweetText,
		CreatedAt:      time.Now(),
		IsBot:          true,
		ConversationID: reply.ConversationID,
		Prompt:         reply.Prompt,
		Username:       botUsername,
		InputTweetID:   reply.InputTweetID,
	})
}

const twitterColumns = `twitter_user_id, tweet_id, tweet_text, created_at,
	is_bot_tweet, conversation_id, prompt, username, input_tweet_id`

func scanTwitterRecords(rows *sql.Rows) ([]TwitterRecord, error) {
	defer rows.Close()
	var records []TwitterRecord
	for rows.Next() {
		var (
			rec                                  TwitterRecord
			conversationID, promptText, username sql.NullString
			inputTweetID                         sql.NullString
			botFlag                              int
			createdAt                            string
		)
		if err := rows.Scan(&rec.UserID, &rec.TweetID, &rec.Text, &createdAt,
			&botFlag, &conversationID, &promptText, &username, &inputTweetID); err != nil {
			return nil, fmt.Errorf("scan twitter record: %w", err)
		}
		rec.CreatedAt = parseTime(createdAt)
		rec.IsBot = botFlag == 1
		rec.ConversationID = conversationID.String
		rec.Prompt = promptText.String
		rec.Username = username.String
		rec.InputTweetID = inputTweetID.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// GetTwitterHistory returns a user's newest rows, newest first.
func GetTwitterHistory(db *sql.DB, userID string, limit int) ([]TwitterRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT `+twitterColumns+` FROM twitter_history
		WHERE twitter_user_id = ?
		ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query twitter history: %w", err)
	}
	return scanTwitterRecords(rows)
}

// GetConversationHistory returns the newest rows of one conversation thread.
func GetConversationHistory(db *sql.DB, conversationID string, limit int) ([]TwitterRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT `+twitterColumns+` FROM twitter_history
		WHERE conversation_id = ?
		ORDER BY created_at DESC LIMIT ?`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("query conversation history: %w", err)
	}
	return scanTwitterRecords(rows)
}

// GetReplyByInputID returns the bot reply whose input tweet id matches, or
// nil when the input has not been answered yet. This is the deduplication
// gate: it runs before any completion call.
func GetReplyByInputID(db *sql.DB, inputTweetID string) (*TwitterRecord, error) {
	rows, err := db.Query(`
		SELECT `+twitterColumns+` FROM twitter_history
		WHERE input_tweet_id = ? LIMIT 1`, inputTweetID)
	if err != nil {
		return nil, fmt.Errorf("query reply by input id: %w", err)
	}
	records, err := scanTwitterRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// CountUserInteractions counts bot posts within the window that either
// reply directly to one of the user's posts or sit in a conversation the
// user has posted in. Callers skip a candidate when the count exceeds the
// interaction limit.
func CountUserInteractions(db *sql.DB, userID, botUsername string, window time.Duration) (int, error) {
	cutoff := formatTime(time.Now().Add(-window))

	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM twitter_history
		WHERE is_bot_tweet = 1
		AND twitter_user_id = ?
		AND created_at >= ?
		AND (
			input_tweet_id IN (
				SELECT tweet_id FROM twitter_history WHERE twitter_user_id = ?
			)
			OR conversation_id IN (
				SELECT conversation_id FROM twitter_history
				WHERE twitter_user_id = ? AND conversation_id IS NOT NULL
			)
		)`, botUsername, cutoff, userID, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count interactions: %w", err)
	}
	return count, nil
}

// FormatTwitterHistory renders timeline rows for prompt context.
func FormatTwitterHistory(records []TwitterRecord, includePrompts bool) string {
	var parts []string
	for _, rec := range records {
		text := fmt.Sprintf("@%s: %s", rec.Username, rec.Text)
		if includePrompts && rec.Prompt != "" {
			text += fmt.Sprintf("\nPrompt used: %s", rec.Prompt)
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n")
}
