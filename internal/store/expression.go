package store

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/lindelab/isoviz/internal/expression"
)

// WriteSamples batch-inserts raw expression samples for a protein using
// the Appender API. Existing samples for the protein are replaced so a
// re-fetch never accumulates duplicates.
func (s *Store) WriteSamples(protein string, samples []expression.Sample) error {
	if _, err := s.db.Exec(`DELETE FROM expression_samples WHERE protein = ?`, protein); err != nil {
		return fmt.Errorf("clear samples for %s: %w", protein, err)
	}
	if len(samples) == 0 {
		return nil
	}

	appender, closeConn, err := s.appender("expression_samples")
	if err != nil {
		return err
	}
	defer closeConn()
	defer appender.Close()

	for _, sample := range samples {
		if err := appender.AppendRow(
			protein, sample.Study, sample.CancerType,
			sample.Protein, sample.Transcript, sample.Value,
		); err != nil {
			return fmt.Errorf("append sample: %w", err)
		}
	}

	return appender.Flush()
}

// LoadSamples returns the stored raw samples for a protein in a
// deterministic order.
func (s *Store) LoadSamples(protein string) ([]expression.Sample, error) {
	rows, err := s.db.Query(`
		SELECT study, cancer_type, isoform, transcript, value
		FROM expression_samples
		WHERE protein = ?
		ORDER BY study, cancer_type, isoform, transcript, value`, protein)
	if err != nil {
		return nil, fmt.Errorf("query samples for %s: %w", protein, err)
	}
	defer rows.Close()

	var samples []expression.Sample
	for rows.Next() {
		var sample expression.Sample
		if err := rows.Scan(&sample.Study, &sample.CancerType, &sample.Protein,
			&sample.Transcript, &sample.Value); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}

// WriteStats replaces the stored boxplot statistics for a protein.
// Outlier lists are stored as JSON text.
func (s *Store) WriteStats(protein string, records []expression.Record) error {
	if _, err := s.db.Exec(`DELETE FROM boxplot_stats WHERE protein = ?`, protein); err != nil {
		return fmt.Errorf("clear stats for %s: %w", protein, err)
	}
	if len(records) == 0 {
		return nil
	}

	appender, closeConn, err := s.appender("boxplot_stats")
	if err != nil {
		return err
	}
	defer closeConn()
	defer appender.Close()

	for _, r := range records {
		outliers := r.Outliers
		if outliers == nil {
			outliers = []float64{}
		}
		encoded, err := json.Marshal(outliers)
		if err != nil {
			return fmt.Errorf("encode outliers for %s: %w", r, err)
		}

		if err := appender.AppendRow(
			protein, r.Study, r.CancerType, r.Protein, r.Transcript,
			r.Median, r.Q1, r.Q3, r.LowerFence, r.UpperFence,
			string(encoded), r.Color,
		); err != nil {
			return fmt.Errorf("append stats row %s: %w", r, err)
		}
	}

	return appender.Flush()
}

// LoadStats returns the stored boxplot statistics for a protein ordered
// by group key.
func (s *Store) LoadStats(protein string) ([]expression.Record, error) {
	rows, err := s.db.Query(`
		SELECT study, cancer_type, isoform, transcript,
			median, q1, q3, lowerfence, upperfence, outliers, marker_color
		FROM boxplot_stats
		WHERE protein = ?
		ORDER BY study, cancer_type, isoform, transcript`, protein)
	if err != nil {
		return nil, fmt.Errorf("query stats for %s: %w", protein, err)
	}
	defer rows.Close()

	var records []expression.Record
	for rows.Next() {
		var r expression.Record
		var outliers string
		if err := rows.Scan(&r.Study, &r.CancerType, &r.Protein, &r.Transcript,
			&r.Median, &r.Q1, &r.Q3, &r.LowerFence, &r.UpperFence,
			&outliers, &r.Color); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}

		var values []float64
		if err := json.Unmarshal([]byte(outliers), &values); err != nil {
			return nil, fmt.Errorf("parse outliers %q: %w", outliers, err)
		}
		if len(values) > 0 {
			r.Outliers = values
		}

		records = append(records, r)
	}
	return records, rows.Err()
}

// Proteins returns the distinct protein names with stored statistics.
func (s *Store) Proteins() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT protein FROM boxplot_stats ORDER BY protein`)
	if err != nil {
		return nil, fmt.Errorf("query proteins: %w", err)
	}
	defer rows.Close()

	var proteins []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan protein: %w", err)
		}
		proteins = append(proteins, p)
	}
	return proteins, rows.Err()
}

// appender opens a DuckDB appender on a fresh connection. The returned
// closeConn must be called after the appender is closed.
func (s *Store) appender(table string) (*goduckdb.Appender, func(), error) {
	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return nil, nil, fmt.Errorf("get connection: %w", err)
	}

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("create appender: %w", err)
	}

	return appender, func() { conn.Close() }, nil
}
