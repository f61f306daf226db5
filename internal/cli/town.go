package cli

import (
	"github.com/spf13/cobra"
)

func newTownCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "town",
		Short: "Town management commands",
	}

	cmd.AddCommand(newTownCreateCmd())
	cmd.AddCommand(newTownListCmd())
	cmd.AddCommand(newTownUpdateCmd())
	cmd.AddCommand(newTownDeleteCmd())

	return cmd
}

func newTownCreateCmd() *cobra.Command {
	var name string
	var private bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new town",
		Long: `Create a new town. The update password is printed once and cannot be
recovered; it is required to update or delete the town.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"friendly_name":      name,
				"is_publicly_listed": !private,
			}
			var result CreateTownResult

			if err := client.Post("/api/v1/towns", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Friendly name (required)")
	cmd.Flags().BoolVar(&private, "private", false, "Hide the town from the public listing")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newTownListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List publicly listed towns",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result TownList

			if err := client.Get("/api/v1/towns", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newTownUpdateCmd() *cobra.Command {
	var password, name string
	var public bool

	cmd := &cobra.Command{
		Use:   "update <town_id>",
		Short: "Rename a town or change its visibility",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{"town_password": password}
			if cmd.Flags().Changed("name") {
				req["friendly_name"] = name
			}
			if cmd.Flags().Changed("public") {
				req["is_publicly_listed"] = public
			}

			if err := client.Patch(townPath(args[0]), req, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.PrintMessage("Town updated")
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Town update password (required)")
	cmd.Flags().StringVar(&name, "name", "", "New friendly name")
	cmd.Flags().BoolVar(&public, "public", true, "Whether the town is publicly listed")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newTownDeleteCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "delete <town_id>",
		Short: "Delete a town, disconnecting everyone in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(townPath(args[0], password), nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.PrintMessage("Town deleted")
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Town update password (required)")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
