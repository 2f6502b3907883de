// Package categorize sorts resources into the six report categories.
package categorize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/resource-curator/internal/llm"
	"github.com/jonathan/resource-curator/internal/logging"
	"github.com/jonathan/resource-curator/internal/profile"
	"github.com/jonathan/resource-curator/internal/prompts"
	"github.com/jonathan/resource-curator/internal/types"
)

// Categorizer assigns each resource to exactly one category.
type Categorizer struct {
	client llm.Client
	log    *logging.Logger
}

// NewCategorizer creates a Categorizer.
func NewCategorizer(client llm.Client, log *logging.Logger) *Categorizer {
	return &Categorizer{client: client, log: logging.OrNop(log)}
}

// Assignment maps a resource title to a category name.
type Assignment map[string]string

// Categorize returns a report containing every input resource exactly once.
//
// A model call or parse failure falls back to keyword matching. A failure
// before the call can be made puts every resource in general_learning.
func (c *Categorizer) Categorize(ctx context.Context, resources []types.Resource, p types.Profile) types.CategorizedReport {
	if len(resources) == 0 {
		return types.NewReport()
	}

	prompt, err := BuildPrompt(resources, p)
	if err != nil {
		c.log.Error("[CATEGORIZE] categorization failed, placing all resources in general", "error", err)
		return AllGeneral(resources)
	}

	assignment, err := c.assign(ctx, prompt)
	if err != nil {
		c.log.Warn("[CATEGORIZE] model categorization failed, using keyword fallback", "error", err)
		assignment = Fallback(resources, p)
	}

	report := Apply(resources, assignment)
	c.log.Info("[CATEGORIZE] categorized", "total", report.Total())
	return report
}

func (c *Categorizer) assign(ctx context.Context, prompt string) (Assignment, error) {
	if c.client == nil {
		return nil, fmt.Errorf("no generative client configured")
	}

	raw, err := c.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, fmt.Errorf("generate categorization: %w", err)
	}
	return llm.ParseStructured[Assignment](raw)
}

type promptResource struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// BuildPrompt renders the batched categorization prompt.
func BuildPrompt(resources []types.Resource, p types.Profile) (string, error) {
	items := make([]promptResource, len(resources))
	for i, r := range resources {
		tags := r.Tags
		if tags == nil {
			tags = []string{}
		}
		items[i] = promptResource{Title: r.Title, Description: r.Description, Tags: tags}
	}

	payload, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal resources: %w", err)
	}

	return prompts.Render(prompts.CategorizeResources, map[string]string{
		"WeakAreas":       strings.Join(p.WeakAreas, ", "),
		"TargetCompanies": strings.Join(p.TargetCompanies, ", "),
		"PreferredRole":   p.PreferredRole,
		"TechStack":       strings.Join(p.TechStack, ", "),
		"Resources":       string(payload),
	})
}

// Apply builds the report from an assignment. Titles missing from the
// assignment, or mapped to an unknown category, go to general_learning.
func Apply(resources []types.Resource, assignment Assignment) types.CategorizedReport {
	report := types.NewReport()
	for _, r := range resources {
		report.Add(types.Category(assignment[r.Title]), r)
	}
	return report
}

// AllGeneral places every resource in general_learning.
func AllGeneral(resources []types.Resource) types.CategorizedReport {
	report := types.NewReport()
	for _, r := range resources {
		report.Add(types.CategoryGeneral, r)
	}
	return report
}

// Fallback assigns categories by case-insensitive title matching, first rule
// wins: weak area, target company, "practice"/"problem", tech stack, general.
func Fallback(resources []types.Resource, p types.Profile) Assignment {
	weak := lowered(p.WeakAreas)
	companies := lowered(p.TargetCompanies)
	tech := lowered(p.TechStack)

	out := make(Assignment, len(resources))
	for _, r := range resources {
		if _, done := out[r.Title]; done {
			continue
		}
		out[r.Title] = string(classify(strings.ToLower(r.Title), weak, companies, tech))
	}
	return out
}

func classify(title string, weak, companies, tech []string) types.Category {
	switch {
	case containsAny(title, weak):
		return types.CategoryWeakAreas
	case containsAny(title, companies):
		return types.CategoryInterviewPrep
	case strings.Contains(title, "practice") || strings.Contains(title, "problem"):
		return types.CategoryPractice
	case containsAny(title, tech):
		return types.CategoryTechTutorials
	default:
		return types.CategoryGeneral
	}
}

func lowered(list []string) []string {
	terms := profile.NonBlank(list)
	for i, t := range terms {
		terms[i] = strings.ToLower(t)
	}
	return terms
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
