package command

import (
	"github.com/spf13/cobra"

	"social-agent/internal/metrics"
	"social-agent/internal/platform/telegram"
)

// NewTelegramCmd creates the telegram command.
func NewTelegramCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "telegram <username>",
		Short: "Run the character as a Telegram bot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(args[0])
			if err != nil {
				return err
			}
			defer rt.close()

			provider, err := telegram.New(rt.char, rt.db, rt.gen)
			if err != nil {
				return err
			}

			go metrics.Serve(cmd.Context(), rt.cfg.HTTPAddr)
			return provider.Run(cmd.Context())
		},
	}
}
