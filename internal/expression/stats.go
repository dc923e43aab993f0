package expression

import (
	"fmt"
	"math"
	"sort"
)

// Record is the boxplot summary for one (study, cancer_type, protein,
// transcript) group: the five-number summary, the out-of-fence values,
// and the protein's display color. This is the literal structure the
// chart layer consumes to draw one box plus its outlier scatter.
type Record struct {
	GroupKey
	Median     float64
	Q1         float64
	Q3         float64
	LowerFence float64
	UpperFence float64
	Outliers   []float64
	Color      string
}

// Aggregate computes one Record per distinct group present in the
// samples, in first-appearance order of the input. Fences follow the
// matplotlib whisker convention: limits at 1.5×IQR beyond the quartiles,
// whiskers at the extreme values still inside those limits. When every
// value is outside the limits the fences fall back to Q1/Q3 so they stay
// defined.
//
// Colors are a function of the protein label only: distinct proteins are
// ordered lexicographically and assigned palette entries, so the same
// protein receives the same color across renderings of one dataset.
func Aggregate(samples []Sample) ([]Record, error) {
	if len(samples) == 0 {
		return nil, nil
	}

	groups := make(map[GroupKey][]float64)
	var order []GroupKey
	proteins := make(map[string]struct{})

	for _, s := range samples {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		key := s.Key()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], s.Value)
		proteins[s.Protein] = struct{}{}
	}

	colors := proteinColors(proteins)

	records := make([]Record, 0, len(order))
	for _, key := range order {
		r := summarize(groups[key])
		r.GroupKey = key
		r.Color = colors[key.Protein]
		records = append(records, r)
	}

	return records, nil
}

// summarize computes the five-number summary and outliers for a
// non-empty value slice.
func summarize(values []float64) Record {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	q1 := Quantile(sorted, 0.25)
	med := Quantile(sorted, 0.5)
	q3 := Quantile(sorted, 0.75)

	iqr := q3 - q1
	lowLimit := q1 - 1.5*iqr
	highLimit := q3 + 1.5*iqr

	lowerFence := math.NaN()
	upperFence := math.NaN()
	for _, v := range sorted {
		if v < lowLimit || v > highLimit {
			continue
		}
		if math.IsNaN(lowerFence) {
			lowerFence = v
		}
		upperFence = v
	}
	if math.IsNaN(lowerFence) {
		lowerFence, upperFence = q1, q3
	}

	var outliers []float64
	for _, v := range sorted {
		if v < lowerFence || v > upperFence {
			outliers = append(outliers, v)
		}
	}

	return Record{
		Median:     med,
		Q1:         q1,
		Q3:         q3,
		LowerFence: lowerFence,
		UpperFence: upperFence,
		Outliers:   outliers,
	}
}

// Quantile returns the p-quantile of sorted values using linear
// interpolation between order statistics at index p·(n−1). This is the
// numpy/pandas default and the convention standard boxplot
// implementations use; alternate conventions shift Q1/Q3 for small n.
// The slice must be sorted ascending and non-empty.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}

	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// proteinColors assigns each distinct protein a palette color in sorted
// label order, cycling when the palette runs out.
func proteinColors(proteins map[string]struct{}) map[string]string {
	labels := make([]string, 0, len(proteins))
	for p := range proteins {
		labels = append(labels, p)
	}
	sort.Strings(labels)

	colors := make(map[string]string, len(labels))
	for i, label := range labels {
		colors[label] = Palette[i%len(Palette)]
	}
	return colors
}

// FilterRecords returns the records matching the given study and, when
// non-empty, cancer type. Filtering never mutates the input.
func FilterRecords(records []Record, study, cancerType string) []Record {
	var out []Record
	for _, r := range records {
		if r.Study != study {
			continue
		}
		if cancerType != "" && r.CancerType != cancerType {
			continue
		}
		out = append(out, r)
	}
	return out
}

// String renders the record group key for logs.
func (r Record) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", r.Study, r.CancerType, r.Protein, r.Transcript)
}
