package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_KnownPrompts(t *testing.T) {
	for _, key := range []string{"style-guide", "draft", "peer-ranking", "judge", "polish"} {
		prompt, err := Get("council.json", key)
		require.NoError(t, err, "prompt %s", key)
		assert.NotEmpty(t, prompt)
	}
}

func TestGet_MissingKey(t *testing.T) {
	_, err := Get("council.json", "nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent")
}

func TestGet_MissingFile(t *testing.T) {
	_, err := Get("missing.json", "draft")
	require.Error(t, err)
}

func TestFormat(t *testing.T) {
	out := Format("Hello {{.Name}}, rank {{.Count}} drafts", map[string]string{
		"Name":  "judge",
		"Count": "4",
	})
	assert.Equal(t, "Hello judge, rank 4 drafts", out)
}

func TestFormat_UnknownPlaceholderLeftIntact(t *testing.T) {
	out := Format("{{.Known}} and {{.Unknown}}", map[string]string{"Known": "x"})
	assert.Equal(t, "x and {{.Unknown}}", out)
}

func TestDraftPromptHasRequiredSections(t *testing.T) {
	prompt := MustGet("council.json", "draft")
	for _, heading := range []string{"Summary", "Education", "Technical Skills", "Professional Experience", "Projects", "Certifications"} {
		assert.True(t, strings.Contains(prompt, heading), "draft prompt missing %s", heading)
	}
}
