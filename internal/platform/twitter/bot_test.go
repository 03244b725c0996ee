package twitter

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"social-agent/internal/character"
	"social-agent/internal/generate"
	"social-agent/internal/history"
	"social-agent/internal/llm"
)

type postedTweet struct {
	text      string
	inReplyTo string
	hasMedia  bool
}

// fakeClient serves canned feeds and records outbound posts.
type fakeClient struct {
	timeline []Post
	mentions []Post
	posted   []postedTweet
	nextID   int
}

func (f *fakeClient) HomeTimeline(ctx context.Context, limit int) ([]Post, error) {
	return f.timeline, nil
}

func (f *fakeClient) SearchMentions(ctx context.Context, username string, limit int) ([]Post, error) {
	return f.mentions, nil
}

func (f *fakeClient) PostTweet(ctx context.Context, text, inReplyTo string) (string, error) {
	f.nextID++
	f.posted = append(f.posted, postedTweet{text: text, inReplyTo: inReplyTo})
	return fmt.Sprintf("new%d", f.nextID), nil
}

func (f *fakeClient) PostTweetWithMedia(ctx context.Context, text string, media Media) (string, error) {
	f.nextID++
	f.posted = append(f.posted, postedTweet{text: text, hasMedia: true})
	return fmt.Sprintf("new%d", f.nextID), nil
}

type scriptedCompleter struct{}

func (scriptedCompleter) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	if strings.Contains(req.User, "YES or NO") {
		return "NO", nil
	}
	return "a fine reply", nil
}

func testCharacter() *character.Character {
	return &character.Character{
		AgentName:     "Carl",
		Username:      "carl_agent",
		Model:         "primary",
		TwitterUserID: "bot-uid",
		Topics:        []string{"clouds"},
		Adjectives:    []string{"wistful"},
	}
}

func newTestBot(t *testing.T, char *character.Character, client *fakeClient) (*Bot, *sql.DB) {
	t.Helper()
	db, err := history.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	bot := NewBot(char, db, generate.New(scriptedCompleter{}), client, nil)
	bot.sleep = func(ctx context.Context, d time.Duration) {}
	return bot, db
}

func timelinePost(id, userID, text string, age time.Duration) Post {
	return Post{
		ID:        id,
		Text:      text,
		UserID:    userID,
		Username:  "user_" + userID,
		CreatedAt: time.Now().Add(-age),
	}
}

func TestRespondToTimelinePicksNewestEligible(t *testing.T) {
	client := &fakeClient{timeline: []Post{
		timelinePost("t1", "bot-uid", "my own post", time.Minute),
		timelinePost("t2", "u1", "check out http://spam.example", time.Minute),
		timelinePost("t3", "u2", "an older post", time.Hour),
		timelinePost("t4", "u3", "the newest post", time.Minute),
	}}
	bot, db := newTestBot(t, testCharacter(), client)

	if err := bot.RespondToTimeline(context.Background()); err != nil {
		t.Fatalf("RespondToTimeline: %v", err)
	}

	if len(client.posted) != 1 {
		t.Fatalf("posted %d tweets, want 1", len(client.posted))
	}
	if client.posted[0].inReplyTo != "t4" {
		t.Errorf("replied to %q, want the newest eligible post t4", client.posted[0].inReplyTo)
	}

	saved, err := history.GetReplyByInputID(db, "t4")
	if err != nil {
		t.Fatal(err)
	}
	if saved == nil {
		t.Error("reply not recorded in history")
	}
}

func TestRespondToTimelineDedup(t *testing.T) {
	client := &fakeClient{timeline: []Post{
		timelinePost("t1", "u1", "a nice post", time.Minute),
	}}
	bot, _ := newTestBot(t, testCharacter(), client)

	if err := bot.RespondToTimeline(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := bot.RespondToTimeline(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(client.posted) != 1 {
		t.Errorf("posted %d tweets, want 1: an answered post must never be answered again", len(client.posted))
	}
}

func TestRespondToTimelineBlocklist(t *testing.T) {
	char := testCharacter()
	char.PostingBehavior.DontTweetAt = []string{"u1"}
	client := &fakeClient{timeline: []Post{
		timelinePost("t1", "u1", "a nice post", time.Minute),
	}}
	bot, _ := newTestBot(t, char, client)

	if err := bot.RespondToTimeline(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(client.posted) != 0 {
		t.Error("replied to a blocklisted user")
	}
}

func TestRespondToTimelineIgnoresReplies(t *testing.T) {
	char := testCharacter()
	char.PostingBehavior.IgnoreTwitterReplies = true

	replyPost := timelinePost("t1", "u1", "replying to someone", time.Minute)
	replyPost.ConversationID = "root0"
	rootPost := timelinePost("t2", "u2", "a fresh thread", time.Hour)
	rootPost.ConversationID = "t2"

	client := &fakeClient{timeline: []Post{replyPost, rootPost}}
	bot, _ := newTestBot(t, char, client)

	if err := bot.RespondToTimeline(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(client.posted) != 1 || client.posted[0].inReplyTo != "t2" {
		t.Errorf("posted = %+v, want a single reply to the thread root", client.posted)
	}
}

func TestReplyToMentionsThrottle(t *testing.T) {
	client := &fakeClient{mentions: []Post{
		timelinePost("m1", "heavy", "hey again", time.Minute),
		timelinePost("m2", "fresh", "first time here", time.Minute),
	}}
	bot, db := newTestBot(t, testCharacter(), client)

	// Four prior interactions put "heavy" past the per-hour limit.
	for i := 0; i < 4; i++ {
		if err := history.InsertReply(db, "carl_agent", &history.Reply{
			InputTweetID:     fmt.Sprintf("old%d", i),
			InputTweetText:   "ping",
			InputTweetUserID: "heavy",
			NewTweetID:       fmt.Sprintf("oldout%d", i),
			NewTweetText:     "pong",
		}); err != nil {
			t.Fatal(err)
		}
	}

	if err := bot.ReplyToMentions(context.Background()); err != nil {
		t.Fatalf("ReplyToMentions: %v", err)
	}

	if len(client.posted) != 1 {
		t.Fatalf("posted %d tweets, want 1", len(client.posted))
	}
	saved, err := history.GetReplyByInputID(db, "m2")
	if err != nil {
		t.Fatal(err)
	}
	if saved == nil {
		t.Error("mention from the fresh user was not answered")
	}
	if saved, _ := history.GetReplyByInputID(db, "m1"); saved != nil {
		t.Error("mention from the throttled user was answered")
	}
}

func TestReplyToMentionsLowFollowers(t *testing.T) {
	lowFollowers := timelinePost("m1", "u1", "hello", time.Minute)
	lowFollowers.FollowersCount = 5
	unknownFollowers := timelinePost("m2", "u2", "hello", time.Minute)

	client := &fakeClient{mentions: []Post{lowFollowers, unknownFollowers}}
	bot, _ := newTestBot(t, testCharacter(), client)

	if err := bot.ReplyToMentions(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(client.posted) != 1 {
		t.Fatalf("posted %d tweets, want 1", len(client.posted))
	}
	if client.posted[0].inReplyTo != "m2" {
		t.Errorf("replied to %q, want m2: unknown follower counts pass the gate", client.posted[0].inReplyTo)
	}
}

func TestReplyToMentionsProcessedOnce(t *testing.T) {
	client := &fakeClient{mentions: []Post{
		timelinePost("m1", "u1", "hello there", time.Minute),
	}}
	bot, _ := newTestBot(t, testCharacter(), client)

	if err := bot.ReplyToMentions(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := bot.ReplyToMentions(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(client.posted) != 1 {
		t.Errorf("posted %d tweets, want 1: the same mention must be answered once", len(client.posted))
	}
}

func TestPostTopic(t *testing.T) {
	client := &fakeClient{}
	bot, db := newTestBot(t, testCharacter(), client)

	if err := bot.PostTopic(context.Background()); err != nil {
		t.Fatalf("PostTopic: %v", err)
	}

	if len(client.posted) != 1 {
		t.Fatalf("posted %d tweets, want 1", len(client.posted))
	}
	if client.posted[0].inReplyTo != "" {
		t.Error("topic posts are standalone, not replies")
	}

	rows, err := history.GetTwitterHistory(db, "carl_agent", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || !rows[0].IsBot {
		t.Errorf("topic post not recorded: %+v", rows)
	}
}

func TestConversationIDDefaultsToPostID(t *testing.T) {
	client := &fakeClient{timeline: []Post{
		timelinePost("t1", "u1", "a rootless post", time.Minute),
	}}
	bot, db := newTestBot(t, testCharacter(), client)

	if err := bot.RespondToTimeline(context.Background()); err != nil {
		t.Fatal(err)
	}

	saved, err := history.GetReplyByInputID(db, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if saved == nil || saved.ConversationID != "t1" {
		t.Errorf("conversation id should fall back to the post id, got %+v", saved)
	}
}
