package expression

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplesFromValues(values []float64) []Sample {
	samples := make([]Sample, 0, len(values))
	for _, v := range values {
		samples = append(samples, Sample{
			Study:      "TCGA",
			CancerType: "Lung",
			Protein:    "Isoform_1",
			Transcript: "ENST00000000001",
			Value:      v,
		})
	}
	return samples
}

func TestAggregate_SingleGroup(t *testing.T) {
	records, err := Aggregate(samplesFromValues([]float64{1, 2, 3, 4, 5, 100}))
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.InDelta(t, 2.25, r.Q1, 1e-9)
	assert.InDelta(t, 3.5, r.Median, 1e-9)
	assert.InDelta(t, 4.75, r.Q3, 1e-9)

	// limits: q1-1.5*iqr = -1.5, q3+1.5*iqr = 8.5
	// inside values: 1..5, so whiskers land on the data
	assert.Equal(t, 1.0, r.LowerFence)
	assert.Equal(t, 5.0, r.UpperFence)
	assert.Equal(t, []float64{100}, r.Outliers)
}

func TestAggregate_FenceInvariants(t *testing.T) {
	valueSets := [][]float64{
		{1, 2, 3, 4, 5, 100},
		{5},
		{3, 3, 3, 3},
		{-10, 0, 10},
		{1.5, 2.5, 100, -100, 3.5, 4.5, 2.0},
	}

	for _, values := range valueSets {
		records, err := Aggregate(samplesFromValues(values))
		require.NoError(t, err)
		require.Len(t, records, 1)
		r := records[0]

		assert.LessOrEqual(t, r.LowerFence, r.Median)
		assert.LessOrEqual(t, r.Median, r.UpperFence)

		outlier := make(map[float64]bool)
		for _, v := range r.Outliers {
			outlier[v] = true
			assert.True(t, v < r.LowerFence || v > r.UpperFence,
				"outlier %v inside fences [%v, %v]", v, r.LowerFence, r.UpperFence)
		}
		for _, v := range values {
			if !outlier[v] {
				assert.GreaterOrEqual(t, v, r.LowerFence)
				assert.LessOrEqual(t, v, r.UpperFence)
			}
		}
	}
}

func TestAggregate_GroupsInFirstAppearanceOrder(t *testing.T) {
	samples := []Sample{
		{Study: "TCGA", CancerType: "Lung", Protein: "Isoform_2", Transcript: "T2", Value: 1},
		{Study: "GTEX", CancerType: "Lung", Protein: "Isoform_1", Transcript: "T1", Value: 2},
		{Study: "TCGA", CancerType: "Lung", Protein: "Isoform_2", Transcript: "T2", Value: 3},
		{Study: "GTEX", CancerType: "Brain", Protein: "Isoform_1", Transcript: "T1", Value: 4},
	}

	records, err := Aggregate(samples)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, GroupKey{"TCGA", "Lung", "Isoform_2", "T2"}, records[0].GroupKey)
	assert.Equal(t, GroupKey{"GTEX", "Lung", "Isoform_1", "T1"}, records[1].GroupKey)
	assert.Equal(t, GroupKey{"GTEX", "Brain", "Isoform_1", "T1"}, records[2].GroupKey)
}

func TestAggregate_StableProteinColors(t *testing.T) {
	samples := []Sample{
		{Study: "TCGA", CancerType: "Lung", Protein: "Isoform_2", Transcript: "T2", Value: 1},
		{Study: "GTEX", CancerType: "Lung", Protein: "Isoform_1", Transcript: "T1", Value: 2},
		{Study: "TCGA", CancerType: "Brain", Protein: "Isoform_2", Transcript: "T2", Value: 3},
	}

	records, err := Aggregate(samples)
	require.NoError(t, err)

	colorByProtein := make(map[string]string)
	for _, r := range records {
		if prev, ok := colorByProtein[r.Protein]; ok {
			assert.Equal(t, prev, r.Color, "protein %s changed color", r.Protein)
		}
		colorByProtein[r.Protein] = r.Color
	}

	// Sorted-label assignment: Isoform_1 gets the first palette entry.
	assert.Equal(t, Palette[0], colorByProtein["Isoform_1"])
	assert.Equal(t, Palette[1], colorByProtein["Isoform_2"])

	// Re-running on the same input yields identical colors.
	again, err := Aggregate(samples)
	require.NoError(t, err)
	assert.Equal(t, records, again)
}

func TestAggregate_NonFiniteValue(t *testing.T) {
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		samples := samplesFromValues([]float64{1, 2, bad})
		_, err := Aggregate(samples)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNonFiniteValue)
	}
}

func TestAggregate_Empty(t *testing.T) {
	records, err := Aggregate(nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestQuantile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		p      float64
		want   float64
	}{
		{"median of even n", []float64{1, 2, 3, 4, 5, 100}, 0.5, 3.5},
		{"q1 interpolated", []float64{1, 2, 3, 4, 5, 100}, 0.25, 2.25},
		{"q3 interpolated", []float64{1, 2, 3, 4, 5, 100}, 0.75, 4.75},
		{"single value", []float64{7}, 0.25, 7},
		{"two values median", []float64{2, 4}, 0.5, 3},
		{"exact index", []float64{1, 2, 3, 4, 5}, 0.5, 3},
		{"min", []float64{1, 2, 3}, 0, 1},
		{"max", []float64{1, 2, 3}, 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Quantile(tt.values, tt.p), 1e-9)
		})
	}
}

func TestFilterRecords(t *testing.T) {
	records := []Record{
		{GroupKey: GroupKey{Study: "TCGA", CancerType: "Lung"}},
		{GroupKey: GroupKey{Study: "GTEX", CancerType: "Lung"}},
		{GroupKey: GroupKey{Study: "TCGA", CancerType: "Brain"}},
	}

	tcga := FilterRecords(records, "TCGA", "")
	assert.Len(t, tcga, 2)

	lung := FilterRecords(records, "TCGA", "Lung")
	require.Len(t, lung, 1)
	assert.Equal(t, "Lung", lung[0].CancerType)

	assert.Empty(t, FilterRecords(records, "TARGET", ""))
}
