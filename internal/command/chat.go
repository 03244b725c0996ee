package command

import (
	"github.com/spf13/cobra"

	"social-agent/internal/platform/cli"
)

// NewChatCmd creates the chat command.
func NewChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <username>",
		Short: "Talk to a character on stdin/stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(args[0])
			if err != nil {
				return err
			}
			defer rt.close()

			return cli.New(rt.char, rt.db, rt.gen).Run(cmd.Context())
		},
	}
}
