package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Platform tags which transport a chat message came through.
type Platform string

const (
	PlatformCLI      Platform = "cli"
	PlatformDiscord  Platform = "discord"
	PlatformTelegram Platform = "telegram"
)

// MessageType tags the payload kind of a chat message.
type MessageType string

const (
	TypeText    MessageType = "text"
	TypeSticker MessageType = "sticker"
	TypeImage   MessageType = "image"
	TypeVoice   MessageType = "voice"
	TypeVideo   MessageType = "video"
	TypeAction  MessageType = "action"
)

// Scope identifies one conversation on one platform. Each platform has
// exactly one identifying column, fixed by its constructor, so queries
// never dispatch on the platform tag.
type Scope struct {
	Platform Platform
	column   string
	id       string
}

// CLIScope scopes history to a local session.
func CLIScope(sessionID string) Scope {
	return Scope{Platform: PlatformCLI, column: "session_id", id: sessionID}
}

// DiscordScope scopes history to a Discord channel.
func DiscordScope(channelID string) Scope {
	return Scope{Platform: PlatformDiscord, column: "platform_channel_id", id: channelID}
}

// TelegramScope scopes history to a Telegram chat.
func TelegramScope(chatID string) Scope {
	return Scope{Platform: PlatformTelegram, column: "platform_channel_id", id: chatID}
}

func (s Scope) validate() error {
	if s.id == "" {
		return &ValidationError{Field: s.column}
	}
	return nil
}

// ChatMessage is one inbound or outbound chat unit. Records are never
// mutated or deleted after insert.
type ChatMessage struct {
	ID            int64
	Platform      Platform
	ChannelID     string
	MessageID     string
	UserID        string
	Username      string
	SessionID     string
	Content       string
	Type          MessageType
	Metadata      map[string]string
	IsBotResponse bool
	Prompt        string
	CreatedAt     time.Time
}

// SaveChatMessage appends one chat record.
func SaveChatMessage(db *sql.DB, msg *ChatMessage) error {
	if msg.Content == "" {
		return &ValidationError{Field: "message_content"}
	}
	if msg.Platform == "" {
		return &ValidationError{Field: "platform"}
	}
	if msg.Type == "" {
		msg.Type = TypeText
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	var metadata any
	if len(msg.Metadata) > 0 {
		data, err := json.Marshal(msg.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		metadata = string(data)
	}

	botFlag := 0
	if msg.IsBotResponse {
		botFlag = 1
	}

	_, err := db.Exec(`
		INSERT INTO chat_messages (
			platform, platform_channel_id, platform_message_id,
			platform_user_id, username, session_id,
			message_content, message_type, metadata,
			is_bot_response, prompt, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.Platform, nullable(msg.ChannelID), nullable(msg.MessageID),
		nullable(msg.UserID), nullable(msg.Username), nullable(msg.SessionID),
		msg.Content, msg.Type, metadata,
		botFlag, nullable(msg.Prompt), formatTime(msg.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

// GetRecentMessages returns the newest messages in a scope, newest first.
func GetRecentMessages(db *sql.DB, scope Scope, limit int) ([]ChatMessage, error) {
	if err := scope.validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	query := fmt.Sprintf(`
		SELECT id, platform, platform_channel_id, platform_message_id,
		       platform_user_id, username, session_id,
		       message_content, message_type, metadata,
		       is_bot_response, prompt, created_at
		FROM chat_messages
		WHERE platform = ? AND %s = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, scope.column)

	rows, err := db.Query(query, scope.Platform, scope.id, limit)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	defer rows.Close()

	var messages []ChatMessage
	for rows.Next() {
		var (
			msg                                    ChatMessage
			channelID, messageID, userID, username sql.NullString
			sessionID, metadata, promptText        sql.NullString
			botFlag                                int
			createdAt                              string
		)
		if err := rows.Scan(&msg.ID, &msg.Platform, &channelID, &messageID,
			&userID, &username, &sessionID,
			&msg.Content, &msg.Type, &metadata,
			&botFlag, &promptText, &createdAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		msg.ChannelID = channelID.String
		msg.MessageID = messageID.String
		msg.UserID = userID.String
		msg.Username = username.String
		msg.SessionID = sessionID.String
		msg.Prompt = promptText.String
		msg.IsBotResponse = botFlag == 1
		msg.CreatedAt = parseTime(createdAt)
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &msg.Metadata); err != nil {
				return nil, fmt.Errorf("parse metadata: %w", err)
			}
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

// FormatChatHistory renders messages for prompt context, oldest first,
// with User/Assistant roles and payload-type markers.
func FormatChatHistory(messages []ChatMessage) string {
	var lines []string
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		role := "User"
		if msg.IsBotResponse {
			role = "Assistant"
		}

		content := msg.Content
		if msg.Type != TypeText {
			switch msg.Type {
			case TypeSticker:
				content = fmt.Sprintf("[Sent sticker: %s]", msg.Content)
			case TypeAction:
				content = fmt.Sprintf("[%s]", msg.Content)
			default:
				content = fmt.Sprintf("[Sent %s: %s]", msg.Type, msg.Content)
			}
			if len(msg.Metadata) > 0 {
				keys := make([]string, 0, len(msg.Metadata))
				for k := range msg.Metadata {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				pairs := make([]string, 0, len(keys))
				for _, k := range keys {
					pairs = append(pairs, fmt.Sprintf("%s: %s", k, msg.Metadata[k]))
				}
				content += fmt.Sprintf(" (%s)", strings.Join(pairs, ", "))
			}
		}

		lines = append(lines, fmt.Sprintf("%s: %s", role, content))
	}
	return strings.Join(lines, "\n")
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
