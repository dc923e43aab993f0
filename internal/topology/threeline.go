package topology

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Prediction is one record of a DeepTMHMM 3-line output file: the
// sequence name, the predicted topology class, the unaligned protein
// sequence, and the per-residue topology string.
type Prediction struct {
	Name     string
	Class    string // e.g. TM, SP+TM, GLOB
	Sequence string
	Topology string
}

// ParseThreeLine parses DeepTMHMM predicted_topologies.3line content.
// Records are three lines each: a ">name | class" header, the protein
// sequence, and the topology string. The topology must be exactly one
// known label character per residue.
func ParseThreeLine(r io.Reader) ([]Prediction, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var lines []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan 3line: %w", err)
	}

	if len(lines)%3 != 0 {
		return nil, fmt.Errorf("parse 3line: %d lines, want a multiple of 3", len(lines))
	}

	var predictions []Prediction
	for i := 0; i < len(lines); i += 3 {
		header := lines[i]
		if !strings.HasPrefix(header, ">") {
			return nil, fmt.Errorf("parse 3line: record %d: header %q does not start with '>'", i/3+1, header)
		}

		name, class := splitHeader(strings.TrimPrefix(header, ">"))
		seq := lines[i+1]
		topo := lines[i+2]

		if len(seq) != len(topo) {
			return nil, fmt.Errorf("parse 3line: record %s: sequence length %d, topology length %d: %w",
				name, len(seq), len(topo), ErrLengthMismatch)
		}
		if err := ValidateTopology(topo); err != nil {
			return nil, fmt.Errorf("parse 3line: record %s: %w", name, err)
		}

		predictions = append(predictions, Prediction{
			Name:     name,
			Class:    class,
			Sequence: seq,
			Topology: topo,
		})
	}

	return predictions, nil
}

// ParseThreeLineFile parses a 3-line prediction file from disk.
func ParseThreeLineFile(path string) ([]Prediction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open 3line file: %w", err)
	}
	defer f.Close()
	return ParseThreeLine(f)
}

// splitHeader separates ">name | class" into its parts. The class
// annotation is optional.
func splitHeader(header string) (name, class string) {
	// Pipe-joined transcript IDs have no spaces around pipes; the class
	// separator does.
	if sep := strings.Index(header, " | "); sep != -1 {
		return strings.TrimSpace(header[:sep]), strings.TrimSpace(header[sep+3:])
	}
	fields := strings.Fields(header)
	if len(fields) > 1 {
		return fields[0], strings.Join(fields[1:], " ")
	}
	return strings.TrimSpace(header), ""
}
