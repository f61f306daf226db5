package cli

import (
	"github.com/spf13/cobra"
)

func newBlockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "block <player_id>",
		Short: "Block another player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			townID, err := cfg.RequireSession()
			if err != nil {
				return err
			}

			var result BlockResult
			if err := client.Post(townPath(townID, "blocks"), map[string]string{"player_id": args[0]}, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newUnblockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unblock <player_id>",
		Short: "Unblock a player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			townID, err := cfg.RequireSession()
			if err != nil {
				return err
			}

			var result BlockResult
			if err := client.Delete(townPath(townID, "blocks", args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}
