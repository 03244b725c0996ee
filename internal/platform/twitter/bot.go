package twitter

import (
	"context"
	"database/sql"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"social-agent/internal/character"
	"social-agent/internal/generate"
	"social-agent/internal/history"
	"social-agent/internal/images"
	"social-agent/internal/logger"
	"social-agent/internal/metrics"
	"social-agent/internal/schedule"
)

const (
	// interactionLimit caps bot replies per user per window. A user at
	// the limit is still eligible; one past it is skipped.
	interactionLimit  = 3
	interactionWindow = time.Hour

	timelineFetchLimit = 50
	mentionsFetchLimit = 10
	historyLimit       = 10

	defaultReplyDelay          = 15 * time.Second
	defaultMinMentionFollowers = 50
	defaultImagePromptChance   = 0.3
	imagePromptMaxLength       = 1024
)

// Bot drives the poll-based loops for one character.
type Bot struct {
	char   *character.Character
	db     *sql.DB
	gen    *generate.Generator
	client Client
	images images.Provider // nil when image generation is not configured
	log    zerolog.Logger

	sleep     func(ctx context.Context, d time.Duration)
	randFloat func() float64
}

// NewBot wires the bot. images may be nil.
func NewBot(char *character.Character, db *sql.DB, gen *generate.Generator, client Client, imageProvider images.Provider) *Bot {
	return &Bot{
		char:   char,
		db:     db,
		gen:    gen,
		client: client,
		images: imageProvider,
		log:    logger.With("twitter").With().Str("username", char.Username).Logger(),

		sleep:     sleepCtx,
		randFloat: rand.Float64,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// RunAutoResponder periodically replies to the most recent eligible
// timeline post. Blocks until ctx is cancelled.
func (b *Bot) RunAutoResponder(ctx context.Context) {
	lower, upper := schedule.Bounds(
		b.char.PostingBehavior.ReplyIntervalMinutes,
		b.char.PostingBehavior.LowerBoundMinutes,
		b.char.PostingBehavior.UpperBoundMinutes,
		15, 5,
	)
	schedule.Run(ctx, "auto-responder", lower, upper, b.RespondToTimeline)
}

// RunTopicPosts periodically publishes a standalone topic post. Blocks
// until ctx is cancelled.
func (b *Bot) RunTopicPosts(ctx context.Context) {
	lower, upper := schedule.Bounds(
		b.char.PostingBehavior.TopicIntervalMinutes,
		b.char.PostingBehavior.LowerBoundMinutes,
		b.char.PostingBehavior.UpperBoundMinutes,
		45, 30,
	)
	schedule.Run(ctx, "topic-post", lower, upper, b.PostTopic)
}

// RunReplyToMentions periodically answers unprocessed mentions. Blocks
// until ctx is cancelled.
func (b *Bot) RunReplyToMentions(ctx context.Context) {
	lower, upper := schedule.Bounds(
		10,
		b.char.PostingBehavior.LowerBoundMinutes,
		b.char.PostingBehavior.UpperBoundMinutes,
		10, 2,
	)
	schedule.Run(ctx, "reply-mentions", lower, upper, b.ReplyToMentions)
}

// RespondToTimeline fetches the home feed, filters it down to eligible
// posts, and replies to the most recent one. Both gates (dedup and the
// interaction throttle) run before any completion call.
func (b *Bot) RespondToTimeline(ctx context.Context) error {
	timeline, err := b.client.HomeTimeline(ctx, timelineFetchLimit)
	if err != nil {
		return err
	}
	b.log.Info().Int("fetched", len(timeline)).Msg("fetched timeline")

	var eligible []Post
	for _, post := range timeline {
		if skip, reason := b.shouldSkipPost(post); skip {
			metrics.CandidatesSkippedTotal.WithLabelValues(reason).Inc()
			continue
		}
		eligible = append(eligible, post)
	}
	b.log.Info().Int("eligible", len(eligible)).Msg("filtered timeline")
	if len(eligible) == 0 {
		return nil
	}

	target := eligible[0]
	for _, post := range eligible[1:] {
		if post.CreatedAt.After(target.CreatedAt) {
			target = post
		}
	}
	b.log.Info().Str("tweet_id", target.ID).Str("user", target.Username).
		Time("created_at", target.CreatedAt).Msg("replying to timeline post")

	return b.replyToPost(ctx, target)
}

// ReplyToMentions processes each fresh mention independently: one failed
// mention is logged and the batch continues.
func (b *Bot) ReplyToMentions(ctx context.Context) error {
	mentions, err := b.client.SearchMentions(ctx, b.char.Username, mentionsFetchLimit)
	if err != nil {
		return err
	}
	b.log.Info().Int("count", len(mentions)).Msg("found mentions")

	for _, mention := range mentions {
		if skip, reason := b.shouldSkipMention(mention); skip {
			b.log.Info().Str("tweet_id", mention.ID).Str("reason", reason).
				Msg("skipping mention")
			metrics.CandidatesSkippedTotal.WithLabelValues(reason).Inc()
			continue
		}

		b.log.Info().Str("tweet_id", mention.ID).Str("user", mention.Username).
			Msg("processing mention")
		b.sleep(ctx, b.replyDelay())
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := b.replyToPost(ctx, mention); err != nil {
			b.log.Error().Err(err).Str("tweet_id", mention.ID).
				Msg("failed to reply to mention")
		}
	}
	return nil
}

// PostTopic publishes a standalone topic post, optionally with a
// generated image.
func (b *Bot) PostTopic(ctx context.Context) error {
	botHistory, err := history.GetTwitterHistory(b.db, b.char.Username, historyLimit)
	if err != nil {
		return err
	}

	completion, err := b.gen.GenerateTopicPost(ctx, b.char, history.FormatTwitterHistory(botHistory, false))
	if err != nil {
		return err
	}

	newID := ""
	if b.shouldAttachImage() {
		newID, err = b.postWithImage(ctx, completion)
		if err != nil {
			b.log.Error().Err(err).Msg("image post failed, falling back to text")
			newID = ""
		}
	}
	if newID == "" {
		newID, err = b.client.PostTweet(ctx, completion.Reply, "")
		if err != nil {
			return err
		}
	}
	b.log.Info().Str("tweet_id", newID).Msg("topic post sent")

	metrics.RepliesSentTotal.WithLabelValues("twitter").Inc()
	return history.InsertReply(b.db, b.char.Username, &history.Reply{
		NewTweetID:   newID,
		NewTweetText: completion.Reply,
		Prompt:       completion.Prompt,
	})
}

func (b *Bot) replyToPost(ctx context.Context, post Post) error {
	recent, err := b.contextFor(post)
	if err != nil {
		return err
	}

	completion, err := b.gen.GenerateReply(ctx, b.char, post.Text, false, recent)
	if err != nil {
		return err
	}
	b.log.Info().Str("tweet_id", post.ID).Int("chars", len(completion.Reply)).
		Msg("reply generated")

	newID, err := b.client.PostTweet(ctx, completion.Reply, post.ID)
	if err != nil {
		return err
	}
	b.log.Info().Str("new_tweet_id", newID).Msg("reply sent")

	conversationID := post.ConversationID
	if conversationID == "" {
		conversationID = post.ID
	}

	metrics.RepliesSentTotal.WithLabelValues("twitter").Inc()
	return history.InsertReply(b.db, b.char.Username, &history.Reply{
		InputTweetID:        post.ID,
		InputTweetText:      post.Text,
		InputTweetUserID:    post.UserID,
		InputTweetUsername:  post.Username,
		InputTweetCreatedAt: post.CreatedAt,
		NewTweetID:          newID,
		NewTweetText:        completion.Reply,
		Prompt:              completion.Prompt,
		ConversationID:      conversationID,
	})
}

// contextFor builds prompt history: the bot's own recent posts plus the
// author's, and the conversation thread when there is one.
func (b *Bot) contextFor(post Post) (string, error) {
	records, err := history.GetTwitterHistory(b.db, b.char.Username, historyLimit)
	if err != nil {
		return "", err
	}
	byUser, err := history.GetTwitterHistory(b.db, post.UserID, historyLimit)
	if err != nil {
		return "", err
	}
	records = append(records, byUser...)

	if post.ConversationID != "" {
		thread, err := history.GetConversationHistory(b.db, post.ConversationID, historyLimit)
		if err != nil {
			return "", err
		}
		records = append(records, thread...)
	}
	return history.FormatTwitterHistory(records, false), nil
}

// shouldSkipPost applies the timeline eligibility gates.
func (b *Bot) shouldSkipPost(post Post) (bool, string) {
	if post.ID == "" || post.Text == "" || post.UserID == "" {
		return true, "invalid"
	}
	if post.UserID == b.char.TwitterUserID || post.Username == b.char.Username {
		return true, "own_post"
	}
	if strings.Contains(post.Text, "http") {
		return true, "link"
	}
	// A post whose conversation root is another post is itself a reply.
	if b.char.PostingBehavior.IgnoreTwitterReplies &&
		post.ConversationID != "" && post.ConversationID != post.ID {
		return true, "reply"
	}
	return b.shouldSkipCommon(post)
}

// shouldSkipMention applies the mention eligibility gates. Errors while
// checking mean skip: better to miss one reply than to double-post.
func (b *Bot) shouldSkipMention(post Post) (bool, string) {
	if post.ID == "" || post.Text == "" || post.UserID == "" {
		return true, "invalid"
	}
	minFollowers := b.char.PostingBehavior.MinMentionFollowersCount
	if minFollowers <= 0 {
		minFollowers = defaultMinMentionFollowers
	}
	if post.FollowersCount > 0 && post.FollowersCount < minFollowers {
		return true, "low_followers"
	}
	return b.shouldSkipCommon(post)
}

func (b *Bot) shouldSkipCommon(post Post) (bool, string) {
	if b.char.Blocklisted(post.UserID) {
		return true, "blocklist"
	}

	existing, err := history.GetReplyByInputID(b.db, post.ID)
	if err != nil {
		b.log.Error().Err(err).Str("tweet_id", post.ID).Msg("dedup check failed")
		return true, "check_error"
	}
	if existing != nil {
		return true, "already_answered"
	}

	count, err := history.CountUserInteractions(b.db, post.UserID, b.char.Username, interactionWindow)
	if err != nil {
		b.log.Error().Err(err).Str("user_id", post.UserID).Msg("throttle check failed")
		return true, "check_error"
	}
	if count > interactionLimit {
		b.log.Info().Str("user_id", post.UserID).Int("interactions", count).
			Msg("user over interaction limit")
		return true, "throttled"
	}
	return false, ""
}

func (b *Bot) shouldAttachImage() bool {
	if b.images == nil || !b.char.PostingBehavior.GenerateImagePrompt {
		return false
	}
	chance := b.char.PostingBehavior.ImagePromptChance
	if chance == 0 {
		chance = defaultImagePromptChance
	}
	return b.randFloat() < chance
}

func (b *Bot) postWithImage(ctx context.Context, completion *generate.Completion) (string, error) {
	imagePrompt, err := b.gen.GenerateImagePrompt(ctx, b.char, completion.Reply)
	if err != nil {
		return "", err
	}
	imagePrompt, err = b.gen.ModerateReply(ctx, b.char, imagePrompt, imagePrompt,
		imagePromptMaxLength, generate.DefaultBanThreshold)
	if err != nil {
		return "", err
	}

	data, err := b.images.GenerateImage(ctx, imagePrompt, b.char)
	if err != nil {
		return "", err
	}
	return b.client.PostTweetWithMedia(ctx, completion.Reply, Media{
		Data:        data,
		ContentType: "image/jpeg",
	})
}

func (b *Bot) replyDelay() time.Duration {
	if b.char.PostingBehavior.ReplyDelaySeconds > 0 {
		return time.Duration(b.char.PostingBehavior.ReplyDelaySeconds) * time.Second
	}
	return defaultReplyDelay
}
