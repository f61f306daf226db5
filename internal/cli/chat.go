package cli

import (
	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat roster commands",
		Long: `Manage the chats you belong to. Messages are sent and received over
the town socket; see "covey events --chat".`,
	}

	cmd.AddCommand(newChatListCmd())
	cmd.AddCommand(newChatCreateCmd())
	cmd.AddCommand(newChatRenameCmd())
	cmd.AddCommand(newChatAddCmd())
	cmd.AddCommand(newChatRemoveCmd())

	return cmd
}

func newChatListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the chats you belong to",
		RunE: func(cmd *cobra.Command, args []string) error {
			townID, err := cfg.RequireSession()
			if err != nil {
				return err
			}

			var result ChatList
			if err := client.Get(townPath(townID, "chats"), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newChatCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a chat with yourself as author",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			townID, err := cfg.RequireSession()
			if err != nil {
				return err
			}

			var result Chat
			if err := client.Post(townPath(townID, "chats"), map[string]string{"chat_name": args[0]}, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newChatRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <chat_id> <name>",
		Short: "Rename a chat you belong to",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			townID, err := cfg.RequireSession()
			if err != nil {
				return err
			}

			var result Chat
			if err := client.Patch(townPath(townID, "chats", args[0]), map[string]string{"chat_name": args[1]}, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newChatAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <chat_id> <player_id>...",
		Short: "Add players to a chat",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateChatRoster(cmd, args[0], args[1:], "players")
		},
	}
}

func newChatRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <chat_id> <player_id>...",
		Short: "Remove players from a chat",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateChatRoster(cmd, args[0], args[1:], "players", "remove")
		},
	}
}

func updateChatRoster(cmd *cobra.Command, chatID string, playerIDs []string, suffix ...string) error {
	townID, err := cfg.RequireSession()
	if err != nil {
		return err
	}

	parts := append([]string{"chats", chatID}, suffix...)
	var result Chat
	if err := client.Post(townPath(townID, parts...), map[string][]string{"player_ids": playerIDs}, &result); err != nil {
		return err
	}

	out := NewOutput(cfg.Output, cmd.OutOrStdout())
	if result.ID == "" {
		// The last member left
		out.PrintMessage("Chat " + chatID + " deleted")
		return nil
	}
	out.Print(result)
	return nil
}
