package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "covey",
		Short: "CLI tool for the Covey.Town server API",
		Long: `covey is a CLI tool for interacting with a Covey.Town server.

It supports creating and managing towns, joining a town, conversation areas,
chats, blocking, and streaming live town events over the socket.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load session from file if not provided via flag/env
			if err := cfg.LoadState(); err != nil {
				return err
			}

			// Create HTTP client
			client = NewClient(cfg.ServerURL, cfg.Token)
			if cfg.Verbose {
				client.SetTrace(cmd.ErrOrStderr())
			}
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: COVEY_URL)")
	rootCmd.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "Session token (env: COVEY_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&cfg.TownID, "town", cfg.TownID, "Town id (env: COVEY_TOWN)")
	rootCmd.PersistentFlags().StringVar(&cfg.StateFile, "state-file", cfg.StateFile, "Session state file (env: COVEY_STATE_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newTownCmd())
	rootCmd.AddCommand(newJoinCmd())
	rootCmd.AddCommand(newLeaveCmd())
	rootCmd.AddCommand(newSessionCmd())
	rootCmd.AddCommand(newAreaCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newBlockCmd())
	rootCmd.AddCommand(newUnblockCmd())
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
