package council

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignLabels_ConfigurationOrder(t *testing.T) {
	drafts := []Draft{
		{ProducerID: "openai/gpt-5.1", Status: StatusOK, Text: "one"},
		{ProducerID: "google/gemini-3-pro-preview", Status: StatusOK, Text: "two"},
		{ProducerID: "anthropic/claude-sonnet-4.5", Status: StatusOK, Text: "three"},
	}

	labels := AssignLabels(drafts)
	assert.Equal(t, []string{"Response A", "Response B", "Response C"}, labels.Labels())

	producer, ok := labels.Producer("Response B")
	require.True(t, ok)
	assert.Equal(t, "google/gemini-3-pro-preview", producer)

	label, ok := labels.Label("anthropic/claude-sonnet-4.5")
	require.True(t, ok)
	assert.Equal(t, "Response C", label)
}

func TestAssignLabels_SkipsFailedDrafts(t *testing.T) {
	drafts := []Draft{
		{ProducerID: "alpha", Status: StatusOK, Text: "one"},
		{ProducerID: "beta", Status: StatusFailed},
		{ProducerID: "gamma", Status: StatusOK, Text: "three"},
	}

	labels := AssignLabels(drafts)
	assert.Equal(t, []string{"Response A", "Response B"}, labels.Labels())

	// gamma slides up into Response B; beta gets no label at all.
	producer, _ := labels.Producer("Response B")
	assert.Equal(t, "gamma", producer)
	_, ok := labels.Label("beta")
	assert.False(t, ok)
}

func TestAssignLabels_Bijection(t *testing.T) {
	labels := AssignLabels(okDrafts("alpha", "beta", "gamma", "delta"))
	assert.Equal(t, 4, labels.Len())

	seen := make(map[string]bool)
	for _, label := range labels.Labels() {
		producer, ok := labels.Producer(label)
		require.True(t, ok)
		assert.False(t, seen[producer], "producer %s labeled twice", producer)
		seen[producer] = true

		back, ok := labels.Label(producer)
		require.True(t, ok)
		assert.Equal(t, label, back)
	}
}

func TestAssignLabels_BeyondTwentySixDrafts(t *testing.T) {
	var drafts []Draft
	for i := 0; i < 29; i++ {
		drafts = append(drafts, Draft{ProducerID: fmt.Sprintf("backend-%02d", i), Status: StatusOK, Text: "draft"})
	}

	labels := AssignLabels(drafts)
	require.Equal(t, 29, labels.Len())

	got := labels.Labels()
	assert.Equal(t, "Response Z", got[25])
	assert.Equal(t, "Response AA", got[26])
	assert.Equal(t, "Response AB", got[27])
	assert.Equal(t, "Response AC", got[28])

	producer, ok := labels.Producer("Response AA")
	require.True(t, ok)
	assert.Equal(t, "backend-26", producer)
}

func TestLabelSet_MapIsACopy(t *testing.T) {
	labels := AssignLabels(okDrafts("alpha", "beta"))
	m := labels.Map()
	m["Response A"] = "tampered"

	producer, _ := labels.Producer("Response A")
	assert.Equal(t, "alpha", producer)
}
