package character

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const validProfile = `{
	"agentName": "Carl",
	"username": "carl_agent",
	"bio": ["line one", "line two"],
	"lore": ["made of json"],
	"postDirections": ["be brief"],
	"model": "primary",
	"fallbackModel": "backup",
	"temperature": 0.7,
	"postingBehavior": {
		"chatModeModel": "chat-model",
		"dontTweetAt": ["spammer"],
		"topicIntervalMinutes": 60
	}
}`

func writeProfile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeProfile(t, t.TempDir(), "carl.json", validProfile)

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if c.AgentName != "Carl" || c.Username != "carl_agent" {
		t.Errorf("identity = %q / %q", c.AgentName, c.Username)
	}
	if c.PostingBehavior.TopicIntervalMinutes != 60 {
		t.Errorf("posting behavior not parsed: %+v", c.PostingBehavior)
	}
}

func TestLoadFileValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"missing username", `{"agentName": "Carl", "model": "m"}`, "username"},
		{"missing agent name", `{"username": "carl", "model": "m"}`, "agentName"},
		{"missing model", `{"username": "carl", "agentName": "Carl"}`, "model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeProfile(t, t.TempDir(), "bad.json", tt.content)
			_, err := LoadFile(path)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestLoadDirAndFind(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "carl.json", validProfile)
	writeProfile(t, dir, "notes.txt", "not a profile")

	characters, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(characters) != 1 {
		t.Fatalf("loaded %d characters, want 1", len(characters))
	}

	if _, err := Find(characters, "carl_agent"); err != nil {
		t.Errorf("Find: %v", err)
	}
	if _, err := Find(characters, "nobody"); err == nil {
		t.Error("Find should fail for an unknown username")
	}
}

func TestChatModel(t *testing.T) {
	c := &Character{Model: "primary"}
	if got := c.ChatModel(); got != "primary" {
		t.Errorf("ChatModel = %q, want the base model", got)
	}
	c.PostingBehavior.ChatModeModel = "chat-model"
	if got := c.ChatModel(); got != "chat-model" {
		t.Errorf("ChatModel = %q, want the chat override", got)
	}
}

func TestBlocklisted(t *testing.T) {
	c := &Character{PostingBehavior: PostingBehavior{DontTweetAt: []string{"u1", "u2"}}}
	if !c.Blocklisted("u1") {
		t.Error("u1 should be blocklisted")
	}
	if c.Blocklisted("u3") {
		t.Error("u3 should not be blocklisted")
	}
}

func TestTextHelpers(t *testing.T) {
	c := &Character{
		Bio:  []string{"a", "b"},
		Lore: []string{"c"},
	}
	if got := c.BioText(); got != "a\nb" {
		t.Errorf("BioText = %q", got)
	}
	if got := c.LoreText(); got != "c" {
		t.Errorf("LoreText = %q", got)
	}
}
