package command

import (
	"github.com/spf13/cobra"

	"social-agent/internal/metrics"
	"social-agent/internal/platform/discord"
)

// NewDiscordCmd creates the discord command.
func NewDiscordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discord <username>",
		Short: "Run the character as a Discord bot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(args[0])
			if err != nil {
				return err
			}
			defer rt.close()

			provider, err := discord.New(rt.char, rt.db, rt.gen)
			if err != nil {
				return err
			}

			go metrics.Serve(cmd.Context(), rt.cfg.HTTPAddr)
			return provider.Run(cmd.Context())
		},
	}
}
