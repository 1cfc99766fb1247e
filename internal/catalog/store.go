package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Store persists catalog overrides as a JSON singleton row. Load returns
// the defaults with the stored overrides merged on top, so calculations
// always see a complete catalog.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store backed by the given database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Ensure inserts the empty overrides row if it is missing.
func (s *Store) Ensure() error {
	_, err := s.db.Exec(`
		INSERT INTO rate_settings (id, settings_json)
		VALUES (1, '{}')
		ON CONFLICT(id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("insert default rate_settings: %w", err)
	}
	return nil
}

// Load returns the effective catalog: defaults merged with any persisted
// overrides.
func (s *Store) Load() (Catalog, error) {
	var raw string
	err := s.db.QueryRow(`SELECT settings_json FROM rate_settings WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Default(), nil
	}
	if err != nil {
		return Catalog{}, fmt.Errorf("query rate_settings: %w", err)
	}

	var overrides Catalog
	if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
		return Catalog{}, fmt.Errorf("decode rate settings: %w", err)
	}

	return Default().MergedWith(overrides), nil
}

// SaveOverrides merges the given partial catalog into the persisted
// overrides and stores the result. The merged effective catalog is
// validated before anything is written.
func (s *Store) SaveOverrides(overrides Catalog) (Catalog, error) {
	if err := s.Ensure(); err != nil {
		return Catalog{}, err
	}

	var raw string
	if err := s.db.QueryRow(`SELECT settings_json FROM rate_settings WHERE id = 1`).Scan(&raw); err != nil {
		return Catalog{}, fmt.Errorf("query rate_settings: %w", err)
	}

	var stored Catalog
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return Catalog{}, fmt.Errorf("decode rate settings: %w", err)
	}

	combined := stored.MergedWith(overrides)
	effective := Default().MergedWith(combined)
	if err := effective.Validate(); err != nil {
		return Catalog{}, err
	}

	encoded, err := json.Marshal(combined)
	if err != nil {
		return Catalog{}, fmt.Errorf("encode rate settings: %w", err)
	}

	if _, err := s.db.Exec(`
		UPDATE rate_settings
		SET settings_json = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`, string(encoded)); err != nil {
		return Catalog{}, fmt.Errorf("update rate_settings: %w", err)
	}

	return effective, nil
}
