// Package pipeline orchestrates the per-protein build: fetch
// transcripts, group isoforms, align, reconcile topology predictions,
// aggregate expression, and write the artifact files.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
)

// Artifact file names inside a protein directory.
const (
	FileIsoformsFASTA = "isoforms.fasta"
	FileAlignedFASTA  = "aligned_sequences.fasta"
	FileMappingCSV    = "transcript_to_isoform_mapping.csv"
	FileTopologyCSV   = "membrane_topology.csv"
	FileSegmentsJSON  = "sequences_data.json"
	FileStatsCSV      = "expression_stats.csv"

	// DeepTMHMM output, produced externally and dropped into the
	// protein directory.
	FilePredictions = "DeepTMHMM_results/predicted_topologies.3line"
)

// Layout maps proteins to their artifact directories.
type Layout struct {
	Root string
}

// ProteinDir returns the artifact directory for a protein, creating it
// if needed.
func (l Layout) ProteinDir(protein string) (string, error) {
	dir := filepath.Join(l.Root, protein)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create protein directory: %w", err)
	}
	return dir, nil
}

// Path returns the path of a named artifact for a protein.
func (l Layout) Path(protein, name string) string {
	return filepath.Join(l.Root, protein, name)
}

// Proteins lists the protein directories present under the root.
func (l Layout) Proteins() ([]string, error) {
	entries, err := os.ReadDir(l.Root)
	if err != nil {
		return nil, fmt.Errorf("read layout root: %w", err)
	}

	var proteins []string
	for _, e := range entries {
		if e.IsDir() {
			proteins = append(proteins, e.Name())
		}
	}
	return proteins, nil
}
