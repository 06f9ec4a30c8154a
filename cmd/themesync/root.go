package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/joshkremer/themesync/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "themesync",
	Short: "Snapshot and sanitize Shopify themes",
	Long: `themesync drives the Shopify CLI to list, pull, push and snapshot the themes
of a store. It never touches the live theme without --allow-live, and it can
strip app blocks from JSON templates before a push.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", config.DefaultFile, "path to config file")
	rootCmd.PersistentFlags().String("store", "", "Shopify store (overrides config and shopify.theme.toml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Bool("json", false, "print results as JSON")
}

// Execute runs the root command. An interrupt cancels the running command's
// context so subprocesses are stopped.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
