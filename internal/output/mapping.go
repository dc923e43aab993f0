// Package output writes the per-protein artifact files the dashboard
// layer consumes.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/lindelab/isoviz/internal/isoform"
)

// WriteMappingCSV writes the transcript to isoform mapping table, sorted
// by transcript ID for easy lookup.
func WriteMappingCSV(w io.Writer, m *isoform.Mapping) error {
	labels := m.TranscriptLabels()

	ids := make([]string, 0, len(labels))
	for id := range labels {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Transcript_ID", "Isoform_ID"}); err != nil {
		return fmt.Errorf("write mapping header: %w", err)
	}
	for _, id := range ids {
		if err := cw.Write([]string{id, labels[id]}); err != nil {
			return fmt.Errorf("write mapping row %s: %w", id, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadMappingCSV reads a mapping table written by WriteMappingCSV into
// a transcript ID to isoform label map.
func ReadMappingCSV(r io.Reader) (map[string]string, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read mapping header: %w", err)
	}
	if len(header) != 2 {
		return nil, fmt.Errorf("mapping table has %d columns, want 2", len(header))
	}

	labels := make(map[string]string)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read mapping row: %w", err)
		}
		labels[row[0]] = row[1]
	}

	return labels, nil
}
