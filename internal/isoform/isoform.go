// Package isoform groups transcripts that share a protein sequence into
// labeled isoforms.
package isoform

import (
	"errors"
	"fmt"
	"sort"
)

// ErrEmptyInput indicates a grouping request with no transcripts.
var ErrEmptyInput = errors.New("empty input")

// Group is one isoform: a unique protein sequence and the transcripts
// that produce it.
type Group struct {
	Label       string   // "Isoform_<k>"
	Sequence    string   // representative protein sequence
	Transcripts []string // sorted transcript IDs
}

// Mapping is the result of grouping one gene's transcripts.
type Mapping struct {
	Groups []Group // ordered by label number
}

// GroupTranscripts deduplicates transcript protein sequences into
// isoforms. Transcripts are grouped by byte-for-byte sequence equality.
// Labels are assigned deterministically: groups are ordered by their
// lexicographically smallest transcript ID and numbered Isoform_1,
// Isoform_2, ... so repeated runs on the same input always produce the
// same labels.
func GroupTranscripts(sequences map[string]string) (*Mapping, error) {
	if len(sequences) == 0 {
		return nil, fmt.Errorf("group transcripts: %w", ErrEmptyInput)
	}

	bySequence := make(map[string][]string)
	for id, seq := range sequences {
		bySequence[seq] = append(bySequence[seq], id)
	}

	groups := make([]Group, 0, len(bySequence))
	for seq, ids := range bySequence {
		sort.Strings(ids)
		groups = append(groups, Group{Sequence: seq, Transcripts: ids})
	}

	// The smallest transcript ID of each group is its sort key.
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Transcripts[0] < groups[j].Transcripts[0]
	})

	for i := range groups {
		groups[i].Label = fmt.Sprintf("Isoform_%d", i+1)
	}

	return &Mapping{Groups: groups}, nil
}

// TranscriptLabels returns the transcript ID to isoform label mapping.
func (m *Mapping) TranscriptLabels() map[string]string {
	labels := make(map[string]string)
	for _, g := range m.Groups {
		for _, id := range g.Transcripts {
			labels[id] = g.Label
		}
	}
	return labels
}

// Sequences returns the isoform label to representative sequence mapping.
func (m *Mapping) Sequences() map[string]string {
	seqs := make(map[string]string, len(m.Groups))
	for _, g := range m.Groups {
		seqs[g.Label] = g.Sequence
	}
	return seqs
}

// Labels returns the isoform labels in numbering order.
func (m *Mapping) Labels() []string {
	labels := make([]string, 0, len(m.Groups))
	for _, g := range m.Groups {
		labels = append(labels, g.Label)
	}
	return labels
}

// LabelForHeader resolves a FASTA header of pipe-joined transcript IDs to
// the isoform label shared by those transcripts, or "" if unknown.
func (m *Mapping) LabelForHeader(header []string) string {
	labels := m.TranscriptLabels()
	for _, id := range header {
		if label, ok := labels[id]; ok {
			return label
		}
	}
	return ""
}
