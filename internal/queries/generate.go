// Package queries turns a learner profile into search queries.
package queries

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/resource-curator/internal/llm"
	"github.com/jonathan/resource-curator/internal/logging"
	"github.com/jonathan/resource-curator/internal/profile"
	"github.com/jonathan/resource-curator/internal/prompts"
	"github.com/jonathan/resource-curator/internal/types"
)

// MaxQueries caps the query list on both the generated and fallback paths.
const MaxQueries = 15

// Generator produces search queries with the generative client, falling back
// to a deterministic template expansion of the profile.
type Generator struct {
	client llm.Client
	log    *logging.Logger
	limit  int
}

// NewGenerator creates a Generator. A limit <= 0 or above MaxQueries means MaxQueries.
func NewGenerator(client llm.Client, log *logging.Logger, limit int) *Generator {
	if limit <= 0 || limit > MaxQueries {
		limit = MaxQueries
	}
	return &Generator{client: client, log: logging.OrNop(log), limit: limit}
}

// Generate returns at most limit queries. It never fails: any error from the
// client, or a response with no usable lines, yields Fallback(p).
func (g *Generator) Generate(ctx context.Context, p types.Profile) []string {
	queries, err := g.generate(ctx, p)
	if err != nil {
		g.log.Warn("[QUERIES] generation failed, using fallback", "error", err)
		return truncate(Fallback(p), g.limit)
	}

	g.log.Info("[QUERIES] generated", "count", len(queries))
	return truncate(queries, g.limit)
}

func (g *Generator) generate(ctx context.Context, p types.Profile) ([]string, error) {
	if g.client == nil {
		return nil, fmt.Errorf("no generative client configured")
	}

	prompt, err := BuildPrompt(p)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.GenerateContent(ctx, prompt, llm.TierLite)
	if err != nil {
		return nil, fmt.Errorf("generate queries: %w", err)
	}

	queries := ParseLines(resp)
	if len(queries) == 0 {
		return nil, fmt.Errorf("generate queries: empty response")
	}
	return queries, nil
}

// BuildPrompt embeds every profile field in the query-generation prompt.
func BuildPrompt(p types.Profile) (string, error) {
	return prompts.Render(prompts.GenerateQueries, map[string]string{
		"Name":               p.Name,
		"Status":             p.Status,
		"Education":          p.Education,
		"GraduationYear":     p.GraduationYear,
		"PrimaryLanguage":    p.PrimaryLanguage,
		"TechStack":          strings.Join(p.TechStack, ", "),
		"FamiliarTopics":     strings.Join(p.FamiliarTopics, ", "),
		"WeakAreas":          strings.Join(p.WeakAreas, ", "),
		"TargetCompanies":    strings.Join(p.TargetCompanies, ", "),
		"PreferredRole":      p.PreferredRole,
		"TargetTimeline":     p.TargetTimeline,
		"PreferredResources": strings.Join(p.PreferredResources, ", "),
	})
}

// ParseLines splits a model response into trimmed, non-empty lines.
func ParseLines(resp string) []string {
	var out []string
	for _, line := range strings.Split(resp, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Fallback expands the profile into queries without any I/O:
// two per weak area, one per target company, one per tech-stack entry, capped
// at MaxQueries. Blank list entries are skipped.
func Fallback(p types.Profile) []string {
	var out []string

	for _, area := range profile.NonBlank(p.WeakAreas) {
		out = append(out,
			normalize(area+" tutorial "+p.PrimaryLanguage),
			normalize(area+" interview questions"),
		)
	}
	for _, company := range profile.NonBlank(p.TargetCompanies) {
		out = append(out, normalize(company+" "+p.PreferredRole+" interview preparation"))
	}
	for _, tech := range profile.NonBlank(p.TechStack) {
		out = append(out, normalize(tech+" best practices tutorial"))
	}

	return truncate(out, MaxQueries)
}

// normalize collapses runs of whitespace left by empty profile fields.
func normalize(q string) string {
	return strings.Join(strings.Fields(q), " ")
}

func truncate(qs []string, n int) []string {
	if qs == nil {
		return []string{}
	}
	if len(qs) > n {
		return qs[:n]
	}
	return qs
}
