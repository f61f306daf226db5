package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newJoinCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "join <town_id>",
		Short: "Join a town and remember the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			townID := args[0]
			req := map[string]string{"user_name": name}
			var result JoinResult

			if err := client.Post(townPath(townID, "sessions"), req, &result); err != nil {
				return err
			}

			// Save session
			state := State{TownID: townID, PlayerID: result.PlayerID, Token: result.SessionToken}
			if err := cfg.SaveState(state); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "User name (required)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave",
		Short: "Leave the current town",
		RunE: func(cmd *cobra.Command, args []string) error {
			townID, err := cfg.RequireSession()
			if err != nil {
				return err
			}

			if err := client.Delete(townPath(townID, "sessions"), nil); err != nil {
				return err
			}
			if err := cfg.ClearState(); err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.PrintMessage("Left town " + townID)
			return nil
		},
	}
}

func newSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Show the current session and town snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			townID, err := cfg.RequireSession()
			if err != nil {
				return err
			}

			var result JoinResult
			if err := client.Get(townPath(townID, "sessions"), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}
