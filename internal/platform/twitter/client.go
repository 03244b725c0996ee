// Package twitter is the poll-based adapter for a Twitter-like platform:
// timeline auto-responses, mention replies, and standalone topic posts.
package twitter

import (
	"context"
	"time"
)

// Post is one cleaned timeline or mention item.
type Post struct {
	ID             string
	Text           string
	UserID         string
	Username       string
	CreatedAt      time.Time
	ConversationID string
	FollowersCount int
}

// Media is an attachment for an outbound post.
type Media struct {
	Data        []byte
	ContentType string
}

// Client is the platform transport. The bot loops only ever see this
// interface; tests drive them with a fake.
type Client interface {
	// HomeTimeline fetches up to limit recent posts from the home feed.
	HomeTimeline(ctx context.Context, limit int) ([]Post, error)
	// SearchMentions fetches up to limit recent posts mentioning username.
	SearchMentions(ctx context.Context, username string, limit int) ([]Post, error)
	// PostTweet publishes text, optionally as a reply, and returns the new
	// post's id.
	PostTweet(ctx context.Context, text, inReplyTo string) (string, error)
	// PostTweetWithMedia publishes text with an attachment.
	PostTweetWithMedia(ctx context.Context, text string, media Media) (string, error)
}
