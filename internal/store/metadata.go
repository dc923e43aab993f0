package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for an upstream input file,
// used to detect stale persisted artifacts.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// SaveFingerprint records the fingerprint of a named input for a
// protein, replacing any previous entry.
func (s *Store) SaveFingerprint(protein, name string, fp FileFingerprint) error {
	if _, err := s.db.Exec(
		`DELETE FROM input_fingerprints WHERE protein = ? AND name = ?`, protein, name); err != nil {
		return fmt.Errorf("clear fingerprint %s/%s: %w", protein, name, err)
	}
	if _, err := s.db.Exec(
		`INSERT INTO input_fingerprints (protein, name, size, mod_time) VALUES (?, ?, ?, ?)`,
		protein, name, fp.Size, fp.ModTime); err != nil {
		return fmt.Errorf("save fingerprint %s/%s: %w", protein, name, err)
	}
	return nil
}

// Fresh reports whether the stored fingerprint for a named input still
// matches the given one. An unknown input is never fresh.
func (s *Store) Fresh(protein, name string, fp FileFingerprint) (bool, error) {
	var size int64
	var modTime time.Time
	err := s.db.QueryRow(
		`SELECT size, mod_time FROM input_fingerprints WHERE protein = ? AND name = ?`,
		protein, name).Scan(&size, &modTime)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query fingerprint %s/%s: %w", protein, name, err)
	}
	// DuckDB timestamps carry microsecond precision; file mtimes may
	// carry nanoseconds.
	return size == fp.Size && modTime.Equal(fp.ModTime.Truncate(time.Microsecond)), nil
}
