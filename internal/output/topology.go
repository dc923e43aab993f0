package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/lindelab/isoviz/internal/topology"
)

// IsoformTopology is one isoform's reconciled topology: the aligned
// sequence, the gap-projected topology string, and its segment
// encoding. Slices of these are ordered by isoform label number.
type IsoformTopology struct {
	Label     string
	Aligned   string
	Projected string
	Segments  *topology.SegmentMap
}

// WriteTopologyCSV writes one row per isoform with its aligned sequence
// and projected topology string.
func WriteTopologyCSV(w io.Writer, isoforms []IsoformTopology) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"isoform", "sequence", "topology"}); err != nil {
		return fmt.Errorf("write topology header: %w", err)
	}
	for _, iso := range isoforms {
		if err := cw.Write([]string{iso.Label, iso.Aligned, iso.Projected}); err != nil {
			return fmt.Errorf("write topology row %s: %w", iso.Label, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSegmentsJSON writes the segment maps as a JSON array in isoform
// order, the structure the chart layer consumes directly. Label order
// inside each map follows first appearance in the projected string, so
// output is byte-identical for a fixed input.
func WriteSegmentsJSON(w io.Writer, isoforms []IsoformTopology) error {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, iso := range isoforms {
		if i > 0 {
			buf.WriteByte(',')
		}
		data, err := iso.Segments.MarshalJSON()
		if err != nil {
			return fmt.Errorf("encode segments for %s: %w", iso.Label, err)
		}
		buf.Write(data)
	}
	buf.WriteByte(']')
	buf.WriteByte('\n')

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write segments JSON: %w", err)
	}
	return nil
}
