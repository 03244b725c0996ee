package audio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"social-agent/internal/character"
)

func kokoroCharacter(voice, baseURL string) *character.Character {
	return &character.Character{
		AgentName: "Carl",
		Username:  "carl_agent",
		Model:     "primary",
		AudioGeneration: &character.AudioGeneration{
			Provider: "kokoro",
			Kokoro:   &character.KokoroAudioConfig{Voice: voice, BaseURL: baseURL},
		},
	}
}

func TestNewProvider(t *testing.T) {
	if _, err := NewProvider(&character.Character{}); err == nil {
		t.Error("expected error without audio config")
	}

	c := kokoroCharacter("af_sky", "")
	provider, err := NewProvider(c)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if _, ok := provider.(*KokoroProvider); !ok {
		t.Errorf("provider = %T, want *KokoroProvider", provider)
	}

	c.AudioGeneration.Provider = "openai"
	provider, err = NewProvider(c)
	if err != nil {
		t.Fatalf("NewProvider openai: %v", err)
	}
	if _, ok := provider.(*OpenAIProvider); !ok {
		t.Errorf("provider = %T, want *OpenAIProvider", provider)
	}

	c.AudioGeneration.Provider = "shouting"
	if _, err := NewProvider(c); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestKokoroGenerateAudio(t *testing.T) {
	audioBody := []byte("opus bytes")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/speech" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req speechRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Voice != "af_sky" || req.Input != "hello" || req.ResponseFormat != "opus" {
			t.Errorf("request = %+v", req)
		}
		if req.Speed != 1.1 {
			t.Errorf("speed = %v, want the 1.1 default", req.Speed)
		}
		w.Write(audioBody)
	}))
	defer server.Close()

	provider := NewKokoroProvider(server.Client())
	got, err := provider.GenerateAudio(context.Background(), "hello", kokoroCharacter("af_sky", server.URL))
	if err != nil {
		t.Fatalf("GenerateAudio: %v", err)
	}
	if string(got) != string(audioBody) {
		t.Errorf("audio bytes = %q", got)
	}
}

func TestKokoroRequiresVoice(t *testing.T) {
	provider := NewKokoroProvider(nil)
	_, err := provider.GenerateAudio(context.Background(), "hello", kokoroCharacter("", ""))
	var cfgErr *character.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}
