package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var envFile string

// rootCmd represents the base command for the inboxpulse application
var rootCmd = &cobra.Command{
	Use:   "inboxpulse",
	Short: "Read-only Gmail inbox insights over MCP",
	Long: `inboxpulse surfaces what matters in a Gmail inbox: unread mail,
important messages that slipped through, per-sender summaries and a
weekly overview, each scored with a deterministic importance heuristic.

It can run as:
  - An MCP (Model Context Protocol) server for AI assistants (default)
  - A standalone CLI that prints a weekly inbox digest`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile == "" {
			return nil
		}
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
		return nil
	},
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "inboxpulse version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment variables from this file before running")

	rootCmd.AddCommand(newDigestCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
