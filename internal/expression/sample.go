// Package expression aggregates raw per-transcript expression values
// into boxplot summary statistics.
package expression

import (
	"errors"
	"fmt"
	"math"
)

// ErrNonFiniteValue indicates a NaN or infinite expression value.
// Upstream filtering of missing samples is a precondition; a non-finite
// value reaching aggregation is a data contract violation.
var ErrNonFiniteValue = errors.New("non-finite expression value")

// Sample is one raw expression measurement, tagged with its grouping
// dimensions. Values are in log2(TPM+0.001) space as delivered by the
// Xena hub.
type Sample struct {
	Study      string  // GTEX or TCGA
	CancerType string  // tissue / cancer type
	Protein    string  // isoform label, e.g. Isoform_1
	Transcript string  // transcript ID
	Value      float64 // expression value
}

// GroupKey identifies one boxplot group.
type GroupKey struct {
	Study      string
	CancerType string
	Protein    string
	Transcript string
}

// Key returns the sample's group key.
func (s Sample) Key() GroupKey {
	return GroupKey{
		Study:      s.Study,
		CancerType: s.CancerType,
		Protein:    s.Protein,
		Transcript: s.Transcript,
	}
}

// Validate checks the sample value is finite.
func (s Sample) Validate() error {
	if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		return fmt.Errorf("%w: %s/%s/%s/%s = %v",
			ErrNonFiniteValue, s.Study, s.CancerType, s.Protein, s.Transcript, s.Value)
	}
	return nil
}
