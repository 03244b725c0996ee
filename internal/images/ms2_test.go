package images

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"social-agent/internal/character"
	"social-agent/internal/llm"
)

func ms2Character(apiKey string) *character.Character {
	return &character.Character{
		AgentName: "Carl",
		Username:  "carl_agent",
		Model:     "primary",
		ImageGeneration: &character.ImageGeneration{
			Provider: "ms2",
			MS2:      &character.MS2Config{APIKey: apiKey},
		},
	}
}

func TestMS2GenerateImage(t *testing.T) {
	imageBody := []byte("fake image bytes")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/images/generations":
			if got := r.Header.Get("Authorization"); got != "Bearer key123" {
				t.Errorf("auth header = %q", got)
			}
			var req struct {
				Prompt string `json:"prompt"`
				N      int    `json:"n"`
				Wait   bool   `json:"wait"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode request: %v", err)
			}
			if req.N != 1 || !req.Wait {
				t.Errorf("request = %+v", req)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]string{{"url": "http://" + r.Host + "/image.jpg"}},
			})
		case "/image.jpg":
			w.Write(imageBody)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	provider := NewMS2Provider(server.Client())
	provider.BaseURL = server.URL

	got, err := provider.GenerateImage(context.Background(), "a cloud", ms2Character("key123"))
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if string(got) != string(imageBody) {
		t.Errorf("image bytes = %q", got)
	}
}

func TestMS2GenerateImageAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "quota exceeded"},
		})
	}))
	defer server.Close()

	provider := NewMS2Provider(server.Client())
	provider.BaseURL = server.URL

	_, err := provider.GenerateImage(context.Background(), "a cloud", ms2Character("key123"))
	var pErr *llm.ProviderError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
}

func TestMS2GenerateImageRequiresKey(t *testing.T) {
	provider := NewMS2Provider(nil)
	_, err := provider.GenerateImage(context.Background(), "a cloud", ms2Character(""))
	var cfgErr *character.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestNewProvider(t *testing.T) {
	if _, err := NewProvider(&character.Character{}); err == nil {
		t.Error("expected error without image config")
	}

	c := ms2Character("k")
	provider, err := NewProvider(c)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if _, ok := provider.(*MS2Provider); !ok {
		t.Errorf("provider = %T, want *MS2Provider", provider)
	}

	c.ImageGeneration.Provider = "unknown"
	if _, err := NewProvider(c); err == nil {
		t.Error("expected error for unknown provider")
	}
}
