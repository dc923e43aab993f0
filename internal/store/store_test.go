package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lindelab/isoviz/internal/expression"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
}

func TestWriteAndLoadSamples(t *testing.T) {
	s := openInMemory(t)

	samples := []expression.Sample{
		{Study: "GTEX", CancerType: "Brain", Protein: "Isoform_1", Transcript: "ENST1", Value: 1.5},
		{Study: "GTEX", CancerType: "Lung", Protein: "Isoform_1", Transcript: "ENST1", Value: 2.5},
		{Study: "TCGA", CancerType: "Lung", Protein: "Isoform_2", Transcript: "ENST2", Value: 3.5},
	}
	require.NoError(t, s.WriteSamples("CD20", samples))

	got, err := s.LoadSamples("CD20")
	require.NoError(t, err)
	assert.Equal(t, samples, got)

	got, err = s.LoadSamples("CD19")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWriteSamples_ReplacesExisting(t *testing.T) {
	s := openInMemory(t)

	first := []expression.Sample{
		{Study: "GTEX", CancerType: "Brain", Protein: "Isoform_1", Transcript: "ENST1", Value: 1},
	}
	require.NoError(t, s.WriteSamples("CD20", first))
	require.NoError(t, s.WriteSamples("CD20", first))

	got, err := s.LoadSamples("CD20")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestWriteAndLoadStats(t *testing.T) {
	s := openInMemory(t)

	records := []expression.Record{
		{
			GroupKey: expression.GroupKey{
				Study: "GTEX", CancerType: "Brain", Protein: "Isoform_1", Transcript: "ENST1",
			},
			Median: 3.5, Q1: 2.25, Q3: 4.75,
			LowerFence: 1, UpperFence: 5,
			Outliers: []float64{100},
			Color:    "#66c2a5",
		},
		{
			GroupKey: expression.GroupKey{
				Study: "TCGA", CancerType: "Lung", Protein: "Isoform_2", Transcript: "ENST2",
			},
			Median: 2, Q1: 1, Q3: 3,
			LowerFence: 0.5, UpperFence: 3.5,
			Color: "#fc8d62",
		},
	}
	require.NoError(t, s.WriteStats("CD20", records))

	got, err := s.LoadStats("CD20")
	require.NoError(t, err)
	assert.Equal(t, records, got)

	proteins, err := s.Proteins()
	require.NoError(t, err)
	assert.Equal(t, []string{"CD20"}, proteins)
}

func TestFingerprints(t *testing.T) {
	s := openInMemory(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "expression.csv")
	require.NoError(t, os.WriteFile(path, []byte("study,value\n"), 0644))

	fp, err := StatFile(path)
	require.NoError(t, err)

	fresh, err := s.Fresh("CD20", "expression", fp)
	require.NoError(t, err)
	assert.False(t, fresh, "unknown input must not be fresh")

	require.NoError(t, s.SaveFingerprint("CD20", "expression", fp))

	fresh, err = s.Fresh("CD20", "expression", fp)
	require.NoError(t, err)
	assert.True(t, fresh)

	// A content change invalidates the fingerprint.
	require.NoError(t, os.WriteFile(path, []byte("study,value\nGTEX,1\n"), 0644))
	changed, err := StatFile(path)
	require.NoError(t, err)

	fresh, err = s.Fresh("CD20", "expression", changed)
	require.NoError(t, err)
	assert.False(t, fresh)
}
