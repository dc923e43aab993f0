package xena

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/lindelab/isoviz/internal/expression"
)

// Default cohort and dataset names on the public TCGA/GTEx hub.
const (
	DefaultCohort           = "TCGA TARGET GTEx KidsFirst"
	DefaultDataset          = "TCGA_target_GTEX_KF/rsem.isoforms_TPM.txt"
	DefaultPhenotypeDataset = "TCGA_target_GTEX_KF/phenotype.txt"
)

// Phenotype fields used to tag samples.
const (
	fieldStudy      = "_study"
	fieldCancerType = "main_category"
)

// TableConfig names the hub datasets an expression table is built from.
type TableConfig struct {
	Cohort           string
	Dataset          string
	PhenotypeDataset string
}

// DefaultTableConfig returns the public-hub dataset names.
func DefaultTableConfig() TableConfig {
	return TableConfig{
		Cohort:           DefaultCohort,
		Dataset:          DefaultDataset,
		PhenotypeDataset: DefaultPhenotypeDataset,
	}
}

// ExpressionTable fetches expression values for the given transcripts
// and joins them with decoded study/cancer-type metadata. Only GTEX and
// TCGA samples are kept. transcriptLabels maps versionless transcript
// IDs to their isoform label; transcripts absent from the hub dataset
// are logged and skipped. Unmeasured values (hub nulls) are dropped here
// so downstream aggregation only ever sees finite numbers.
func (c *Client) ExpressionTable(ctx context.Context, cfg TableConfig, transcriptLabels map[string]string) ([]expression.Sample, error) {
	if len(transcriptLabels) == 0 {
		return nil, fmt.Errorf("expression table: no transcripts requested")
	}

	samples, err := c.CohortSamples(ctx, cfg.Cohort)
	if err != nil {
		return nil, err
	}

	available, err := c.DatasetField(ctx, cfg.Dataset)
	if err != nil {
		return nil, err
	}

	// Hub fields carry version suffixes (ENST00000311936.8); requested
	// IDs do not.
	versioned := make(map[string]string, len(available))
	for _, f := range available {
		versioned[stripVersion(f)] = f
	}

	var fields []string
	fieldToTranscript := make(map[string]string)
	for id := range transcriptLabels {
		f, ok := versioned[id]
		if !ok {
			c.logger.Warn("transcript not in hub dataset", zap.String("transcript", id))
			continue
		}
		fields = append(fields, f)
		fieldToTranscript[f] = id
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("expression table: none of the %d transcripts found in dataset %s",
			len(transcriptLabels), cfg.Dataset)
	}
	sort.Strings(fields)

	values, err := c.DatasetFetch(ctx, cfg.Dataset, samples, fields)
	if err != nil {
		return nil, err
	}
	if len(values) != len(fields) {
		return nil, fmt.Errorf("expression table: hub returned %d rows for %d fields", len(values), len(fields))
	}

	study, cancerType, err := c.sampleMetadata(ctx, cfg.PhenotypeDataset, samples)
	if err != nil {
		return nil, err
	}

	var table []expression.Sample
	for i, field := range fields {
		transcript := fieldToTranscript[field]
		protein := transcriptLabels[transcript]
		row := values[i]
		if len(row) != len(samples) {
			return nil, fmt.Errorf("expression table: field %s has %d values for %d samples",
				field, len(row), len(samples))
		}

		for j, v := range row {
			if math.IsNaN(v) {
				continue
			}
			st := study[samples[j]]
			if st != "GTEX" && st != "TCGA" {
				continue
			}
			ct := cancerType[samples[j]]
			if ct == "" {
				continue
			}
			table = append(table, expression.Sample{
				Study:      st,
				CancerType: ct,
				Protein:    protein,
				Transcript: transcript,
				Value:      v,
			})
		}
	}

	c.logger.Info("built expression table",
		zap.Int("transcripts", len(fields)),
		zap.Int("samples", len(samples)),
		zap.Int("rows", len(table)))

	return table, nil
}

// sampleMetadata fetches and decodes the study and cancer-type phenotype
// fields for each sample. Phenotype cells hold integer codes into the
// field's code list; samples with missing codes decode to "".
func (c *Client) sampleMetadata(ctx context.Context, dataset string, samples []string) (study, cancerType map[string]string, err error) {
	fields := []string{fieldStudy, fieldCancerType}

	values, err := c.DatasetFetch(ctx, dataset, samples, fields)
	if err != nil {
		return nil, nil, err
	}
	if len(values) != len(fields) {
		return nil, nil, fmt.Errorf("sample metadata: hub returned %d rows for %d fields", len(values), len(fields))
	}

	codes, err := c.FieldCodes(ctx, dataset, fields)
	if err != nil {
		return nil, nil, err
	}

	decode := func(field string, row []float64) map[string]string {
		out := make(map[string]string, len(samples))
		codeList := codes[field]
		for j, v := range row {
			if math.IsNaN(v) {
				continue
			}
			k := int(v)
			if k < 0 || k >= len(codeList) {
				continue
			}
			out[samples[j]] = codeList[k]
		}
		return out
	}

	return decode(fieldStudy, values[0]), decode(fieldCancerType, values[1]), nil
}

// stripVersion removes a trailing .N version from an Ensembl ID.
func stripVersion(id string) string {
	if idx := strings.LastIndex(id, "."); idx != -1 {
		return id[:idx]
	}
	return id
}
