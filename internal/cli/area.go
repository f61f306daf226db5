package cli

import (
	"github.com/spf13/cobra"
)

func newAreaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "area",
		Short: "Conversation area commands",
	}

	cmd.AddCommand(newAreaCreateCmd())
	cmd.AddCommand(newAreaListCmd())

	return cmd
}

func newAreaCreateCmd() *cobra.Command {
	var label, topic string
	var box BoundingBox

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a conversation area centered on (x, y)",
		RunE: func(cmd *cobra.Command, args []string) error {
			townID, err := cfg.RequireSession()
			if err != nil {
				return err
			}

			req := map[string]any{
				"label":        label,
				"topic":        topic,
				"bounding_box": box,
			}
			var result ConversationArea

			if err := client.Post(townPath(townID, "conversation-areas"), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "Area label (required)")
	cmd.Flags().StringVar(&topic, "topic", "", "Area topic (required)")
	cmd.Flags().Float64Var(&box.X, "x", 0, "Center x")
	cmd.Flags().Float64Var(&box.Y, "y", 0, "Center y")
	cmd.Flags().Float64Var(&box.Width, "width", 0, "Width (required)")
	cmd.Flags().Float64Var(&box.Height, "height", 0, "Height (required)")
	_ = cmd.MarkFlagRequired("label")
	_ = cmd.MarkFlagRequired("topic")
	_ = cmd.MarkFlagRequired("width")
	_ = cmd.MarkFlagRequired("height")

	return cmd
}

func newAreaListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List conversation areas",
		RunE: func(cmd *cobra.Command, args []string) error {
			townID, err := cfg.RequireSession()
			if err != nil {
				return err
			}

			var result []ConversationArea
			if err := client.Get(townPath(townID, "conversation-areas"), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			if cfg.Output == "json" {
				out.Print(result)
				return nil
			}
			for _, a := range result {
				out.Print(a)
			}
			return nil
		},
	}
}
