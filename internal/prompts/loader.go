// Package prompts holds the curator's prompt templates.
// Templates live in embedded JSON files keyed by prompt name and use {{.Key}} placeholders.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

// File is the prompt file used by the pipeline stages.
const File = "curator.json"

// Prompt keys in File.
const (
	GenerateQueries     = "generate-queries"
	SuggestURLs         = "suggest-urls"
	ResourceMetadata    = "resource-metadata"
	CategorizeResources = "categorize-resources"
)

var (
	cache   = make(map[string]map[string]string)
	cacheMu sync.RWMutex

	placeholderRe = regexp.MustCompile(`\{\{\.[A-Za-z][A-Za-z0-9]*\}\}`)
)

// Get retrieves a prompt by filename and key.
func Get(filename, key string) (string, error) {
	prompts, err := loadFile(filename)
	if err != nil {
		return "", err
	}

	prompt, exists := prompts[key]
	if !exists {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return prompt, nil
}

// Format replaces {{.Key}} placeholders in one pass over template; values are
// not rescanned. Placeholders without a value are left in place.
func Format(template string, data map[string]string) string {
	out, _ := fill(template, data)
	return out
}

// Render loads a prompt from File and fills it. It fails when a placeholder of
// the template has no value in data.
func Render(key string, data map[string]string) (string, error) {
	tpl, err := Get(File, key)
	if err != nil {
		return "", err
	}

	out, missing := fill(tpl, data)
	if len(missing) > 0 {
		return "", fmt.Errorf("prompt %q: unfilled placeholders %s", key, strings.Join(missing, ", "))
	}
	return out, nil
}

func fill(template string, data map[string]string) (string, []string) {
	var missing []string
	out := placeholderRe.ReplaceAllStringFunc(template, func(ph string) string {
		value, ok := data[ph[3:len(ph)-2]]
		if !ok {
			missing = append(missing, ph)
			return ph
		}
		return value
	})
	return out, missing
}

// Verify checks that File parses and carries every key the pipeline stages
// render.
func Verify() error {
	keys, err := List(File)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(keys))
	for _, k := range keys {
		have[k] = true
	}
	for _, k := range []string{GenerateQueries, SuggestURLs, ResourceMetadata, CategorizeResources} {
		if !have[k] {
			return fmt.Errorf("prompt key %q not found in %s", k, File)
		}
	}
	return nil
}

func loadFile(filename string) (map[string]string, error) {
	cacheMu.RLock()
	prompts, exists := cache[filename]
	cacheMu.RUnlock()
	if exists {
		return prompts, nil
	}

	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}

	if err := json.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	cacheMu.Lock()
	cache[filename] = prompts
	cacheMu.Unlock()

	return prompts, nil
}

// List returns the prompt keys in a file, sorted.
func List(filename string) ([]string, error) {
	prompts, err := loadFile(filename)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(prompts))
	for key := range prompts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
