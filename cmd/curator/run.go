package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jonathan/resource-curator/internal/app"
	"github.com/jonathan/resource-curator/internal/observability"
	"github.com/jonathan/resource-curator/internal/types"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full curation pipeline for one set of answers",
	Long: `Runs profile extraction, query generation, discovery and categorization for the
answers in --answers and prints the result as JSON.

With --user-id the result is also saved as that user's home record in the configured store.`,
	RunE: runPipelineCmd,
}

var (
	runAnswers string
	runUserID  string
	runVerbose bool
)

func init() {
	runCommand.Flags().StringVarP(&runAnswers, "answers", "a", "", "Path to a JSON file of onboarding answers")
	runCommand.Flags().StringVar(&runUserID, "user-id", "", "Persist the result as this user's home record")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print a readable summary of the run to stderr")
	if err := runCommand.MarkFlagRequired("answers"); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	answers, err := readAnswers(runAnswers)
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	var result *types.PipelineResult
	if runUserID == "" {
		result, err = a.Pipeline.Run(ctx, answers)
	} else {
		st, openErr := a.OpenStore(ctx)
		if openErr != nil {
			return openErr
		}
		var homeID string
		homeID, result, err = a.Pipeline.RunAndSave(ctx, runUserID, answers, st)
		if err == nil {
			log.Info("[PIPELINE] Saved home record", "user_id", runUserID, "home_doc_id", homeID)
		}
	}
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	if runVerbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintResult(result)
	}

	return writeJSON(cmd.OutOrStdout(), result)
}
