// Package store persists expression samples and aggregated boxplot
// statistics in DuckDB so the dashboard layer can load them without
// re-querying the expression hub.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for expression data.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path. Use an
// empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates tables if they don't exist. The protein column
// holds the gene-level protein name a dashboard tab is keyed by; the
// isoform column holds the isoform label within that protein.
func (s *Store) ensureSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS expression_samples (
			protein VARCHAR,
			study VARCHAR,
			cancer_type VARCHAR,
			isoform VARCHAR,
			transcript VARCHAR,
			value DOUBLE
		)`,
		`CREATE TABLE IF NOT EXISTS boxplot_stats (
			protein VARCHAR,
			study VARCHAR,
			cancer_type VARCHAR,
			isoform VARCHAR,
			transcript VARCHAR,
			median DOUBLE,
			q1 DOUBLE,
			q3 DOUBLE,
			lowerfence DOUBLE,
			upperfence DOUBLE,
			outliers VARCHAR,
			marker_color VARCHAR,
			PRIMARY KEY (protein, study, cancer_type, isoform, transcript)
		)`,
		`CREATE TABLE IF NOT EXISTS input_fingerprints (
			protein VARCHAR,
			name VARCHAR,
			size BIGINT,
			mod_time TIMESTAMP,
			PRIMARY KEY (protein, name)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
