package topology

import (
	"bytes"
	"fmt"
	"strings"
)

// Segment is a maximal run of identical-label residues, expressed as a
// start offset and width. These pairs are the literal primitives the
// chart layer draws as horizontal bars.
type Segment struct {
	Start int
	Width int
}

// SegmentMap maps each label to its ordered (start, width) runs. Labels
// keep their first-appearance order from the encoded string so that
// serialization is byte-identical across calls.
type SegmentMap struct {
	labels []byte
	runs   map[byte][]Segment
}

// EncodeSegments run-length-encodes a projected topology string. A run
// closes exactly when the character changes; no characters are skipped,
// so gap runs are encoded like any other label and the union of all
// intervals tiles [0, len(p)) exactly once.
func EncodeSegments(p string) *SegmentMap {
	sm := &SegmentMap{runs: make(map[byte][]Segment)}
	if len(p) == 0 {
		return sm
	}

	current := p[0]
	runStart := 0
	for i := 1; i < len(p); i++ {
		if p[i] != current {
			sm.append(current, Segment{Start: runStart, Width: i - runStart})
			current = p[i]
			runStart = i
		}
	}
	sm.append(current, Segment{Start: runStart, Width: len(p) - runStart})

	return sm
}

func (sm *SegmentMap) append(label byte, seg Segment) {
	if _, ok := sm.runs[label]; !ok {
		sm.labels = append(sm.labels, label)
	}
	sm.runs[label] = append(sm.runs[label], seg)
}

// Labels returns the labels in first-appearance order.
func (sm *SegmentMap) Labels() []byte {
	return sm.labels
}

// Runs returns the ordered segments for a label.
func (sm *SegmentMap) Runs(label byte) []Segment {
	return sm.runs[label]
}

// Len returns the number of distinct labels.
func (sm *SegmentMap) Len() int {
	return len(sm.labels)
}

// Decode materializes the segment map back into the string it encodes.
func (sm *SegmentMap) Decode() string {
	total := 0
	for _, label := range sm.labels {
		for _, seg := range sm.runs[label] {
			total += seg.Width
		}
	}

	out := make([]byte, total)
	for _, label := range sm.labels {
		for _, seg := range sm.runs[label] {
			for i := 0; i < seg.Width; i++ {
				out[seg.Start+i] = label
			}
		}
	}
	return string(out)
}

// MarshalJSON serializes the map as {"label": [[start, width], ...]}
// preserving first-appearance label order. encoding/json sorts map keys,
// which would break byte-identical output, so the object is assembled by
// hand.
func (sm *SegmentMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, label := range sm.labels {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:[", string(label))
		for j, seg := range sm.runs[label] {
			if j > 0 {
				buf.WriteByte(',')
			}
			fmt.Fprintf(&buf, "[%d,%d]", seg.Start, seg.Width)
		}
		buf.WriteByte(']')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String renders the map for logs and error messages.
func (sm *SegmentMap) String() string {
	var b strings.Builder
	for i, label := range sm.labels {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s:%v", string(label), sm.runs[label])
	}
	return b.String()
}
