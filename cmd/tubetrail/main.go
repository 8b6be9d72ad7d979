package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:     "tubetrail",
	Short:   "Collect public contact traces from video platform search results",
	Version: version,
	Long: `tubetrail runs keyword hunts against a video platform, stores what it
finds in a local SQLite database, and extracts contact handles (telegram,
discord, email, links, pastebin) from video descriptions, channel
descriptions, and comments for OSINT triage.

Examples:
  tubetrail hunt "free robux generator"
  tubetrail stats
  tubetrail contacts --type telegram
  tubetrail report --format md --out report.md`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(huntCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(useCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(videosCmd)
	rootCmd.AddCommand(channelsCmd)
	rootCmd.AddCommand(contactsCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
