package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resource-curator/internal/app"
	"github.com/jonathan/resource-curator/internal/profile"
	"github.com/jonathan/resource-curator/internal/queries"
)

var queriesCmd = &cobra.Command{
	Use:   "queries",
	Short: "Print the search queries generated for a set of answers",
	RunE:  runQueries,
}

var (
	queriesAnswers string
	queriesOffline bool
)

func init() {
	queriesCmd.Flags().StringVarP(&queriesAnswers, "answers", "a", "", "Path to a JSON file of onboarding answers")
	queriesCmd.Flags().BoolVar(&queriesOffline, "offline", false, "Print the deterministic fallback queries without calling the model")
	if err := queriesCmd.MarkFlagRequired("answers"); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(queriesCmd)
}

func runQueries(cmd *cobra.Command, _ []string) error {
	answers, err := readAnswers(queriesAnswers)
	if err != nil {
		return err
	}
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
	p := profile.Extract(answers)

	gen := queries.NewGenerator(nil, log, cfg.Pipeline.MaxQueries)
	if !queriesOffline {
		client, err := app.NewLLMClient(ctx, cfg)
		if err != nil {
			return err
		}
		defer client.Close() //nolint:errcheck
		gen = queries.NewGenerator(client, log, cfg.Pipeline.MaxQueries)
	}

	out := cmd.OutOrStdout()
	for _, q := range gen.Generate(ctx, p) {
		if _, err := fmt.Fprintln(out, q); err != nil {
			return err
		}
	}
	return nil
}
