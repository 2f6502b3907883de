package queries

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resource-curator/internal/llm"
	"github.com/jonathan/resource-curator/internal/llm/llmtest"
	"github.com/jonathan/resource-curator/internal/profile"
	"github.com/jonathan/resource-curator/internal/types"
)

func TestFallback_WeakAreasOnly(t *testing.T) {
	p := profile.Extract([]types.Answer{
		{QuestionID: "weak_areas", Answer: "DSA, System Design"},
		{QuestionID: "primary_language", Answer: "Python"},
	})

	assert.Equal(t, []string{
		"DSA tutorial Python",
		"DSA interview questions",
		"System Design tutorial Python",
		"System Design interview questions",
	}, Fallback(p))
}

func TestFallback_AllSources(t *testing.T) {
	p := types.NewProfile()
	p.PrimaryLanguage = "Go"
	p.PreferredRole = "Backend Engineer"
	p.WeakAreas = []string{"Graphs"}
	p.TargetCompanies = []string{"Google", "Stripe"}
	p.TechStack = []string{"Postgres"}

	assert.Equal(t, []string{
		"Graphs tutorial Go",
		"Graphs interview questions",
		"Google Backend Engineer interview preparation",
		"Stripe Backend Engineer interview preparation",
		"Postgres best practices tutorial",
	}, Fallback(p))
}

func TestFallback_EmptyFieldsAndSegments(t *testing.T) {
	p := types.NewProfile()
	p.WeakAreas = []string{"Trees", "", " "}
	p.TargetCompanies = []string{"Meta"}

	got := Fallback(p)
	assert.Equal(t, []string{
		"Trees tutorial",
		"Trees interview questions",
		"Meta interview preparation",
	}, got)

	assert.Equal(t, []string{}, Fallback(types.NewProfile()))
}

func TestFallback_TruncatesAndIsDeterministic(t *testing.T) {
	p := types.NewProfile()
	for i := 0; i < 10; i++ {
		p.WeakAreas = append(p.WeakAreas, fmt.Sprintf("area%d", i))
	}

	first := Fallback(p)
	require.Len(t, first, MaxQueries)
	assert.Equal(t, first, Fallback(p))
	assert.Equal(t, "area7 tutorial", first[14])
}

func TestGenerate_UsesModelLines(t *testing.T) {
	client := llmtest.New().On("generate 10-15", "  binary search drills \n\n\ngraph BFS tutorial\n   \nsystem design primer")
	g := NewGenerator(client, nil, 0)

	got := g.Generate(context.Background(), types.NewProfile())

	assert.Equal(t, []string{"binary search drills", "graph BFS tutorial", "system design primer"}, got)
	calls := client.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, llm.TierLite, calls[0].Tier)
}

func TestGenerate_ProfileWithTemplateSyntax(t *testing.T) {
	client := llmtest.New().On("generate 10-15", "graph BFS tutorial")
	p := types.NewProfile()
	p.Name = "{{.Me}}"
	p.WeakAreas = []string{"DSA"}
	p.TechStack = []string{"{{.Status}}"}
	p.Status = "Student"

	got := NewGenerator(client, nil, 0).Generate(context.Background(), p)

	assert.Equal(t, []string{"graph BFS tutorial"}, got)
	calls := client.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "Name: {{.Me}}")
	assert.Contains(t, calls[0].Prompt, "Tech Stack: {{.Status}}")
	assert.Contains(t, calls[0].Prompt, "Status: Student")
}

func TestGenerate_CapsAtMax(t *testing.T) {
	var lines []string
	for i := 0; i < 20; i++ {
		lines = append(lines, fmt.Sprintf("query %d", i))
	}
	client := llmtest.New().Default(strings.Join(lines, "\n"), nil)

	assert.Len(t, NewGenerator(client, nil, 0).Generate(context.Background(), types.NewProfile()), MaxQueries)
	assert.Len(t, NewGenerator(client, nil, 4).Generate(context.Background(), types.NewProfile()), 4)
}

func TestGenerate_FallsBack(t *testing.T) {
	p := types.NewProfile()
	p.WeakAreas = []string{"DSA", "System Design"}

	tests := []struct {
		name   string
		client llm.Client
	}{
		{"client error", llmtest.New().Default("", errors.New("quota exceeded"))},
		{"empty response", llmtest.New().Default(" \n \n", nil)},
		{"no client", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewGenerator(tt.client, nil, 0).Generate(context.Background(), p)
			assert.Equal(t, Fallback(p), got)
			assert.Len(t, got, 4)
		})
	}
}

func TestBuildPrompt_EmbedsProfile(t *testing.T) {
	p := types.NewProfile()
	p.Name = "Ada"
	p.TechStack = []string{"Go", "Redis"}
	p.TargetTimeline = "6 weeks"

	prompt, err := BuildPrompt(p)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Name: Ada")
	assert.Contains(t, prompt, "Tech Stack: Go, Redis")
	assert.Contains(t, prompt, "Timeline: 6 weeks")
}
