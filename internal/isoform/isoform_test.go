package isoform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupTranscripts_SharedSequence(t *testing.T) {
	sequences := map[string]string{
		"ENST00000000003": "MTEYKLVV",
		"ENST00000000001": "MTEYKLVV",
		"ENST00000000002": "MTEAKLVV",
	}

	m, err := GroupTranscripts(sequences)
	require.NoError(t, err)
	require.Len(t, m.Groups, 2)

	// Group with the smallest transcript ID gets Isoform_1.
	assert.Equal(t, "Isoform_1", m.Groups[0].Label)
	assert.Equal(t, []string{"ENST00000000001", "ENST00000000003"}, m.Groups[0].Transcripts)
	assert.Equal(t, "MTEYKLVV", m.Groups[0].Sequence)

	assert.Equal(t, "Isoform_2", m.Groups[1].Label)
	assert.Equal(t, []string{"ENST00000000002"}, m.Groups[1].Transcripts)

	labels := m.TranscriptLabels()
	assert.Equal(t, "Isoform_1", labels["ENST00000000001"])
	assert.Equal(t, "Isoform_1", labels["ENST00000000003"])
	assert.Equal(t, "Isoform_2", labels["ENST00000000002"])
}

func TestGroupTranscripts_Empty(t *testing.T) {
	_, err := GroupTranscripts(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestGroupTranscripts_EveryTranscriptInOneGroup(t *testing.T) {
	sequences := map[string]string{
		"T1": "AAAA",
		"T2": "BBBB",
		"T3": "AAAA",
		"T4": "CCCC",
		"T5": "BBBB",
	}

	m, err := GroupTranscripts(sequences)
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, g := range m.Groups {
		for _, id := range g.Transcripts {
			seen[id]++
			assert.Equal(t, sequences[id], g.Sequence)
		}
	}

	require.Len(t, seen, len(sequences))
	for id, count := range seen {
		assert.Equal(t, 1, count, "transcript %s appears in %d groups", id, count)
	}
}

func TestGroupTranscripts_Deterministic(t *testing.T) {
	sequences := map[string]string{
		"T9": "AAAA", "T8": "BBBB", "T7": "CCCC",
		"T6": "AAAA", "T5": "DDDD", "T4": "BBBB",
	}

	first, err := GroupTranscripts(sequences)
	require.NoError(t, err)

	// Map iteration order varies between runs; labels must not.
	for i := 0; i < 20; i++ {
		again, err := GroupTranscripts(sequences)
		require.NoError(t, err)
		assert.Equal(t, first.Groups, again.Groups)
	}
}

func TestMapping_Accessors(t *testing.T) {
	m, err := GroupTranscripts(map[string]string{
		"T1": "AAAA",
		"T2": "BBBB",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Isoform_1", "Isoform_2"}, m.Labels())
	assert.Equal(t, map[string]string{"Isoform_1": "AAAA", "Isoform_2": "BBBB"}, m.Sequences())
	assert.Equal(t, "Isoform_2", m.LabelForHeader([]string{"T2"}))
	assert.Equal(t, "Isoform_1", m.LabelForHeader([]string{"unknown", "T1"}))
	assert.Empty(t, m.LabelForHeader([]string{"unknown"}))
}
