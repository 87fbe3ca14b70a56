// internal/cli/root.go

// Package cli contains the CLI commands for the application, built using the
// Cobra library.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "collector",
	Short: "Ingests GitHub organization activity into Postgres",
	Long: `collector fetches repositories, pull requests, reviews, and user
profiles for a GitHub organization and persists them as normalized records.
Configuration comes from environment variables or a .env file.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
