package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonathan/resource-curator/internal/app"
)

var discoverCmd = &cobra.Command{
	Use:   "discover <query>",
	Short: "Discover resources for a single search query",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiscover,
}

var discoverMax int

func init() {
	discoverCmd.Flags().IntVar(&discoverMax, "max", 0, "Maximum resources to return (defaults to pipeline.max_results_per_query)")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	limit := discoverMax
	if limit <= 0 {
		limit = cfg.Pipeline.MaxResultsPerQuery
	}
	return writeJSON(cmd.OutOrStdout(), a.Discoverer.Discover(ctx, args[0], limit))
}
