package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleMetadata struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	EstimatedTime int      `json:"estimated_time,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

func TestSchemaFor_RequiredFields(t *testing.T) {
	schema, err := SchemaFor[sampleMetadata]()
	require.NoError(t, err)

	s := string(schema)
	assert.Contains(t, s, `"required":["title","description"]`)
	assert.NotContains(t, s, `$schema`)
	assert.NotContains(t, s, `$ref`)
}

func TestParseStructured_Valid(t *testing.T) {
	raw := "```json\n{\"title\": \"Go Concurrency\", \"description\": \"Channels\", \"estimated_time\": 15, \"tags\": [\"go\"]}\n```"

	got, err := ParseStructured[sampleMetadata](raw)
	require.NoError(t, err)
	assert.Equal(t, "Go Concurrency", got.Title)
	assert.Equal(t, 15, got.EstimatedTime)
	assert.Equal(t, []string{"go"}, got.Tags)
}

func TestParseStructured_ExtraFieldsAllowed(t *testing.T) {
	got, err := ParseStructured[sampleMetadata](`{"title": "t", "description": "d", "confidence": 0.9}`)
	require.NoError(t, err)
	assert.Equal(t, "t", got.Title)
}

func TestParseStructured_Map(t *testing.T) {
	got, err := ParseStructured[map[string]string](`Here you go: {"Intro to Graphs": "weak_areas_improvement"}`)
	require.NoError(t, err)
	assert.Equal(t, "weak_areas_improvement", got["Intro to Graphs"])
}

func TestParseStructured_Failures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		msg  string
	}{
		{"empty", "   ", "empty response"},
		{"not json", "I cannot help with that", "invalid JSON"},
		{"missing required", `{"title": "only title"}`, "does not match schema"},
		{"wrong type", `{"title": "t", "description": "d", "estimated_time": "ten"}`, "does not match schema"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStructured[sampleMetadata](tt.raw)
			require.Error(t, err)

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Contains(t, parseErr.Error(), tt.msg)
			assert.Equal(t, tt.raw, parseErr.Raw)
		})
	}
}
