package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jonathan/resource-curator/internal/config"
	"github.com/jonathan/resource-curator/internal/logging"
	"github.com/jonathan/resource-curator/internal/types"
)

// loadConfig reads and validates the configuration selected by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	log, err := logging.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

// readAnswers loads onboarding answers from a JSON file holding either a
// bare array or an object with an "answers" array.
func readAnswers(path string) ([]types.Answer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read answers file: %w", err)
	}

	var answers []types.Answer
	if err := json.Unmarshal(data, &answers); err == nil {
		return answers, nil
	}

	var wrapped struct {
		Answers []types.Answer `json:"answers"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse answers file: %w", err)
	}
	if wrapped.Answers == nil {
		return nil, fmt.Errorf("answers file %s has no answers", path)
	}
	return wrapped.Answers, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
