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

func main() {
	rootCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Faceted tire catalog browser",
		Long: `catalog serves and queries a faceted tire catalog.

Configuration is read from CATALOG_* environment variables (and .env).`,
		Version: version,
	}
	rootCmd.PersistentFlags().String("file", "", "Dataset file (JSON array or JSON lines, optionally gzipped)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(suggestCmd())
	rootCmd.AddCommand(browseCmd())
	rootCmd.AddCommand(importCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
