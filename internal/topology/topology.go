// Package topology reconciles per-residue membrane topology predictions
// with a multiple-sequence alignment and encodes them as plot segments.
package topology

import (
	"errors"
	"fmt"
	"strings"
)

// Gap is the alignment gap marker.
const Gap = '-'

// Predicted topology labels (DeepTMHMM alphabet).
const (
	LabelSignal     = 'S'
	LabelMembrane   = 'M'
	LabelOutside    = 'O'
	LabelInside     = 'I'
	LabelBetaBarrel = 'B'
	LabelPeriplasm  = 'P'
)

var (
	// ErrLengthMismatch indicates the aligned sequence and the raw
	// topology string disagree on residue count. This is a contract
	// violation between the aligner and the predictor.
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrUnknownLabel indicates a topology character outside the known
	// alphabet.
	ErrUnknownLabel = errors.New("unknown topology label")
)

// labelNames maps each label to its display name.
var labelNames = map[byte]string{
	LabelSignal:     "Signal peptide",
	LabelMembrane:   "Transmembrane",
	LabelOutside:    "Extracellular",
	LabelInside:     "Intracellular",
	LabelBetaBarrel: "Beta barrel",
	LabelPeriplasm:  "Periplasm",
	Gap:             "Alignment gap",
}

// LabelName returns the display name for a topology label, or the label
// itself for characters outside the known set.
func LabelName(label byte) string {
	if name, ok := labelNames[label]; ok {
		return name
	}
	return string(label)
}

// ValidLabel reports whether c is a known predictor label. The gap
// marker is not a predictor label; predictors emit per-residue labels
// only.
func ValidLabel(c byte) bool {
	switch c {
	case LabelSignal, LabelMembrane, LabelOutside, LabelInside, LabelBetaBarrel, LabelPeriplasm:
		return true
	}
	return false
}

// ValidateTopology checks that every character of a raw topology string
// belongs to the predictor alphabet.
func ValidateTopology(raw string) error {
	for i := 0; i < len(raw); i++ {
		if !ValidLabel(raw[i]) {
			return fmt.Errorf("%w: %q at position %d", ErrUnknownLabel, raw[i], i)
		}
	}
	return nil
}

// Project re-inserts alignment gaps into a raw topology string. The
// aligned sequence is walked left to right: gap positions emit the gap
// marker, every other position consumes the next raw topology character.
// The result has the same length and gap pattern as the aligned
// sequence, and stripping its gaps reproduces the raw string exactly.
//
// The raw string must contain exactly one character per non-gap position
// of the aligned sequence; anything else is surfaced as
// ErrLengthMismatch rather than silently truncated.
func Project(aligned, raw string) (string, error) {
	if err := ValidateTopology(raw); err != nil {
		return "", err
	}

	var projected strings.Builder
	projected.Grow(len(aligned))

	j := 0
	for i := 0; i < len(aligned); i++ {
		if aligned[i] == Gap {
			projected.WriteByte(Gap)
			continue
		}
		if j >= len(raw) {
			return "", fmt.Errorf("%w: alignment has more than %d residues", ErrLengthMismatch, len(raw))
		}
		projected.WriteByte(raw[j])
		j++
	}

	if j != len(raw) {
		return "", fmt.Errorf("%w: alignment has %d residues, topology has %d characters",
			ErrLengthMismatch, j, len(raw))
	}

	return projected.String(), nil
}
