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
			name:     "plain JSON untouched",
			input:    `{"winner": "Response A"}`,
			expected: `{"winner": "Response A"}`,
		},
		{
			name:     "json fenced block",
			input:    "```json\n{\"winner\": \"Response A\"}\n```",
			expected: `{"winner": "Response A"}`,
		},
		{
			name:     "generic fenced block",
			input:    "```\n{\"winner\": \"Response A\"}\n```",
			expected: `{"winner": "Response A"}`,
		},
		{
			name:     "surrounding whitespace",
			input:    "  \n```json\n{}\n```\n  ",
			expected: "{}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}
