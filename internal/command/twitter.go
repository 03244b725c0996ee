package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"social-agent/internal/images"
	"social-agent/internal/metrics"
	"social-agent/internal/platform/twitter"
)

func twitterBot(rt *runtime) (*twitter.Bot, error) {
	if rt.char.TwitterAPIKey == "" {
		return nil, fmt.Errorf("character %s has no twitterApiKey", rt.char.Username)
	}
	if rt.cfg.TwitterAPIURL == "" {
		return nil, fmt.Errorf("TWITTER_API_URL is not set")
	}
	client := twitter.NewAPIClient(rt.cfg.TwitterAPIURL, rt.char.TwitterAPIKey, nil)

	var imageProvider images.Provider
	if rt.char.PostingBehavior.GenerateImagePrompt {
		provider, err := images.NewProvider(rt.char)
		if err != nil {
			return nil, err
		}
		imageProvider = provider
	}

	return twitter.NewBot(rt.char, rt.db, rt.gen, client, imageProvider), nil
}

func runTwitterCmd(cmd *cobra.Command, username string, run func(*twitter.Bot, context.Context)) error {
	rt, err := setup(username)
	if err != nil {
		return err
	}
	defer rt.close()

	bot, err := twitterBot(rt)
	if err != nil {
		return err
	}

	go metrics.Serve(cmd.Context(), rt.cfg.HTTPAddr)
	run(bot, cmd.Context())
	return nil
}

// NewAutoResponderCmd creates the auto-responder command.
func NewAutoResponderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auto-responder <username>",
		Short: "Periodically reply to the most recent eligible timeline post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTwitterCmd(cmd, args[0], func(bot *twitter.Bot, ctx context.Context) {
				bot.RunAutoResponder(ctx)
			})
		},
	}
}

// NewTopicPostCmd creates the topic-post command.
func NewTopicPostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topic-post <username>",
		Short: "Periodically publish a standalone post about a character topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTwitterCmd(cmd, args[0], func(bot *twitter.Bot, ctx context.Context) {
				bot.RunTopicPosts(ctx)
			})
		},
	}
}

// NewReplyMentionsCmd creates the reply-mentions command.
func NewReplyMentionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reply-mentions <username>",
		Short: "Periodically answer fresh mentions of the character",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTwitterCmd(cmd, args[0], func(bot *twitter.Bot, ctx context.Context) {
				bot.RunReplyToMentions(ctx)
			})
		},
	}
}
