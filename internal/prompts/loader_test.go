package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	prompt, err := Get(File, GenerateQueries)
	require.NoError(t, err)
	assert.Contains(t, prompt, "one per line")
}

func TestGet_InvalidFile(t *testing.T) {
	_, err := Get("nonexistent.json", "some-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	_, err := Get(File, "nonexistent-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     map[string]string
		expected string
	}{
		{"fills", "Find {{.Query}} on {{.Domains}}", map[string]string{"Query": "go", "Domains": "go.dev"}, "Find go on go.dev"},
		{"no placeholders", "plain", map[string]string{"Query": "x"}, "plain"},
		{"missing value kept", "Hello {{.Name}}", map[string]string{}, "Hello {{.Name}}"},
		{"repeated", "{{.A}}-{{.A}}", map[string]string{"A": "x"}, "x-x"},
		{"value with braces kept", "Hi {{.A}} {{.B}}", map[string]string{"A": "{{.B}}", "B": "there"}, "Hi {{.B}} there"},
		{"value naming itself", "{{.A}}", map[string]string{"A": "{{.A}}"}, "{{.A}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(tt.template, tt.data))
		})
	}
}

func TestRender_AllCuratorPrompts(t *testing.T) {
	cases := map[string]map[string]string{
		GenerateQueries: {
			"Name": "Ada", "Status": "Student", "Education": "BSc", "GraduationYear": "2026",
			"PrimaryLanguage": "Go", "TechStack": "Go", "FamiliarTopics": "", "WeakAreas": "DSA",
			"TargetCompanies": "", "PreferredRole": "Backend", "TargetTimeline": "3 months",
			"PreferredResources": "Videos",
		},
		SuggestURLs:         {"Query": "graphs", "Domains": "youtube.com"},
		ResourceMetadata:    {"URL": "https://go.dev/tour", "Query": "go basics", "PageContext": ""},
		CategorizeResources: {"WeakAreas": "", "TargetCompanies": "", "PreferredRole": "", "TechStack": "", "Resources": "[]"},
	}

	for key, data := range cases {
		t.Run(key, func(t *testing.T) {
			out, err := Render(key, data)
			require.NoError(t, err)
			assert.NotContains(t, out, "{{.")
		})
	}
}

func TestRender_UnfilledPlaceholder(t *testing.T) {
	_, err := Render(SuggestURLs, map[string]string{"Query": "graphs"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "{{.Domains}}")
}

func TestRender_ValuesWithTemplateSyntax(t *testing.T) {
	title := "Go templates: {{.Name}} explained"
	out, err := Render(CategorizeResources, map[string]string{
		"WeakAreas":       "{{.Me}}",
		"TargetCompanies": "{{.Resources}}",
		"PreferredRole":   "Backend",
		"TechStack":       "Go",
		"Resources":       `[{"title": "` + title + `"}]`,
	})
	require.NoError(t, err)
	assert.Contains(t, out, title)
	assert.Contains(t, out, "{{.Me}}")
	assert.Contains(t, out, "{{.Resources}}")
	assert.Equal(t, 1, strings.Count(out, title))
}

func TestVerify(t *testing.T) {
	assert.NoError(t, Verify())
}

func TestList(t *testing.T) {
	keys, err := List(File)
	require.NoError(t, err)
	assert.Equal(t, []string{CategorizeResources, GenerateQueries, ResourceMetadata, SuggestURLs}, keys)
}
