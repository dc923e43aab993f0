// Package fasta provides reading and writing of the FASTA files the
// isoform pipeline produces and consumes.
package fasta

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// ErrEmptyInput indicates a FASTA source with no records.
var ErrEmptyInput = errors.New("empty input")

// Record is a single FASTA entry. The header may carry several
// pipe-joined transcript IDs when one sequence is shared by multiple
// transcripts (e.g. ">ENST00000256078|ENST00000311936").
type Record struct {
	Header   string
	Sequence string
}

// IDs returns the transcript IDs encoded in the record header.
func (r Record) IDs() []string {
	return strings.Split(r.Header, "|")
}

// Read parses FASTA content from a reader, accumulating multi-line
// sequences. Record order follows the input.
func Read(reader io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(reader)
	// Increase buffer size for long sequences
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var records []Record
	var currentHeader string
	var currentSeq strings.Builder
	seen := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ">") {
			if seen {
				records = append(records, Record{Header: currentHeader, Sequence: currentSeq.String()})
			}
			currentHeader = strings.TrimPrefix(line, ">")
			currentSeq.Reset()
			seen = true
		} else {
			if !seen {
				return nil, fmt.Errorf("sequence data before first header: %q", line)
			}
			currentSeq.WriteString(line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan FASTA: %w", err)
	}

	if seen {
		records = append(records, Record{Header: currentHeader, Sequence: currentSeq.String()})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("read FASTA: %w", ErrEmptyInput)
	}

	return records, nil
}

// ReadFile reads FASTA records from a file. Gzipped files (.gz) are
// decompressed transparently.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open FASTA file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return Read(reader)
}

// Write writes records in FASTA format, one sequence line per record.
// The pipeline keeps sequences on a single line so aligned files can be
// consumed line-pairwise.
func Write(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		if _, err := fmt.Fprintf(bw, ">%s\n%s\n", r.Header, r.Sequence); err != nil {
			return fmt.Errorf("write FASTA record %s: %w", r.Header, err)
		}
	}
	return bw.Flush()
}

// WriteFile writes records to a FASTA file.
func WriteFile(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create FASTA file: %w", err)
	}
	defer f.Close()
	return Write(f, records)
}

// Alignment is an ordered set of aligned sequences sharing one length.
type Alignment struct {
	records []Record
	index   map[string]int
}

// NewAlignment builds an alignment from FASTA records, validating that
// all sequences share the same length.
func NewAlignment(records []Record) (*Alignment, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("alignment: %w", ErrEmptyInput)
	}

	length := len(records[0].Sequence)
	index := make(map[string]int, len(records))
	for i, r := range records {
		if len(r.Sequence) != length {
			return nil, fmt.Errorf("alignment record %s: length %d, want %d",
				r.Header, len(r.Sequence), length)
		}
		index[r.Header] = i
	}

	return &Alignment{records: records, index: index}, nil
}

// Length returns the shared aligned-sequence length.
func (a *Alignment) Length() int {
	return len(a.records[0].Sequence)
}

// Records returns the aligned records in input order.
func (a *Alignment) Records() []Record {
	return a.records
}

// Sequence returns the aligned sequence for a header, or "" if absent.
func (a *Alignment) Sequence(header string) string {
	i, ok := a.index[header]
	if !ok {
		return ""
	}
	return a.records[i].Sequence
}

// Headers returns the sorted record headers.
func (a *Alignment) Headers() []string {
	headers := make([]string, 0, len(a.records))
	for _, r := range a.records {
		headers = append(headers, r.Header)
	}
	sort.Strings(headers)
	return headers
}

// StripGaps returns seq with all gap markers removed.
func StripGaps(seq string) string {
	return strings.ReplaceAll(seq, "-", "")
}
