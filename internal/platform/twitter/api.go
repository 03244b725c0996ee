package twitter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"social-agent/internal/llm"
)

// APIClient is the HTTP implementation of Client against a Twitter-like
// REST gateway.
type APIClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewAPIClient builds the client. A nil httpClient uses a 30s-timeout client.
func NewAPIClient(baseURL, token string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &APIClient{BaseURL: baseURL, Token: token, HTTPClient: httpClient}
}

type apiPost struct {
	ID             string `json:"id"`
	Text           string `json:"text"`
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	CreatedAt      string `json:"created_at"`
	ConversationID string `json:"conversation_id,omitempty"`
	FollowersCount int    `json:"followers_count,omitempty"`
}

type listResponse struct {
	Data []apiPost `json:"data"`
}

type createRequest struct {
	Text      string `json:"text"`
	InReplyTo string `json:"in_reply_to,omitempty"`
	Media     string `json:"media,omitempty"`
	MediaType string `json:"media_type,omitempty"`
}

type createResponse struct {
	Data *struct {
		ID string `json:"id"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"errors"`
}

func (c *APIClient) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &llm.ProviderError{Provider: "twitter", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &llm.ProviderError{
			Provider: "twitter",
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, string(data)),
		}
	}
	return data, nil
}

func (c *APIClient) fetchPosts(ctx context.Context, path string) ([]Post, error) {
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var parsed listResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse posts: %w", err)
	}

	posts := make([]Post, 0, len(parsed.Data))
	for _, item := range parsed.Data {
		createdAt, err := time.Parse(time.RFC3339, item.CreatedAt)
		if err != nil {
			// Skip malformed entries rather than failing the batch.
			continue
		}
		posts = append(posts, Post{
			ID:             item.ID,
			Text:           item.Text,
			UserID:         item.UserID,
			Username:       item.Username,
			CreatedAt:      createdAt,
			ConversationID: item.ConversationID,
			FollowersCount: item.FollowersCount,
		})
	}
	return posts, nil
}

// HomeTimeline implements Client.
func (c *APIClient) HomeTimeline(ctx context.Context, limit int) ([]Post, error) {
	return c.fetchPosts(ctx, "/v1/timeline?limit="+strconv.Itoa(limit))
}

// SearchMentions implements Client.
func (c *APIClient) SearchMentions(ctx context.Context, username string, limit int) ([]Post, error) {
	return c.fetchPosts(ctx, "/v1/mentions?username="+url.QueryEscape(username)+"&limit="+strconv.Itoa(limit))
}

func (c *APIClient) create(ctx context.Context, req createRequest) (string, error) {
	data, err := c.do(ctx, http.MethodPost, "/v1/tweets", req)
	if err != nil {
		return "", err
	}
	var parsed createResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("parse create response: %w", err)
	}
	if len(parsed.Errors) > 0 {
		return "", &llm.ProviderError{
			Provider: "twitter",
			Err:      fmt.Errorf("create tweet: %s", parsed.Errors[0].Message),
		}
	}
	if parsed.Data == nil || parsed.Data.ID == "" {
		return "", &llm.ProviderError{Provider: "twitter"}
	}
	return parsed.Data.ID, nil
}

// PostTweet implements Client.
func (c *APIClient) PostTweet(ctx context.Context, text, inReplyTo string) (string, error) {
	return c.create(ctx, createRequest{Text: text, InReplyTo: inReplyTo})
}

// PostTweetWithMedia implements Client.
func (c *APIClient) PostTweetWithMedia(ctx context.Context, text string, media Media) (string, error) {
	return c.create(ctx, createRequest{
		Text:      text,
		Media:     base64.StdEncoding.EncodeToString(media.Data),
		MediaType: media.ContentType,
	})
}
