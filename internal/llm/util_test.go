package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json code block",
			input:    "```json\n{\"title\": \"Go Tour\"}\n```",
			expected: `{"title": "Go Tour"}`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"title\": \"Go Tour\"}\n```",
			expected: `{"title": "Go Tour"}`,
		},
		{
			name:     "code block with other language tag",
			input:    "```javascript\n[\"a\", \"b\"]\n```",
			expected: `["a", "b"]`,
		},
		{
			name:     "plain object",
			input:    `{"title": "Go Tour"}`,
			expected: `{"title": "Go Tour"}`,
		},
		{
			name:     "preamble before object",
			input:    "Sure! Here is the metadata:\n{\"resource_type\": \"video\"}",
			expected: `{"resource_type": "video"}`,
		},
		{
			name:     "preamble before array",
			input:    "Resources:\n[{\"index\": 0, \"category\": \"practice\"}]",
			expected: `[{"index": 0, "category": "practice"}]`,
		},
		{
			name:     "trailing commentary",
			input:    "{\"difficulty\": \"beginner\"}\n\nLet me know if you need more.",
			expected: `{"difficulty": "beginner"}`,
		},
		{
			name:     "escaped quotes and braces in strings",
			input:    "Result: {\"description\": \"Covers \\\"map[string]{}\\\" usage}\"}",
			expected: `{"description": "Covers \"map[string]{}\" usage}"}`,
		},
		{
			name:     "no json at all",
			input:    "  I could not find anything.  ",
			expected: "I could not find anything.",
		},
		{
			name:     "unbalanced object is returned as is",
			input:    `{"title": "cut off`,
			expected: `{"title": "cut off`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", `{"k": "v"}`, `{"k": "v"}`},
		{"nested", `{"a": {"b": [1, {"c": 2}]}}`, `{"a": {"b": [1, {"c": 2}]}}`},
		{"trailing text", `{"k": "v"} and more`, `{"k": "v"}`},
		{"braces inside string", `{"t": "Hello {name}!"}`, `{"t": "Hello {name}!"}`},
		{"empty", "", ""},
		{"not an object", "not json", ""},
		{"array is not an object", `[1]`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractJSONObject(tt.input))
		})
	}
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", `["a", "b"]`, `["a", "b"]`},
		{"nested", `[[1, 2], [3]]`, `[[1, 2], [3]]`},
		{"objects", `[{"id": 1}, {"id": 2}]`, `[{"id": 1}, {"id": 2}]`},
		{"bracket inside string", `["a]", "b"] tail`, `["a]", "b"]`},
		{"empty", "", ""},
		{"not an array", "nope", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractJSONArray(tt.input))
		})
	}
}
