package currency

import (
	"database/sql"
	"fmt"
)

// RateStore persists the last known exchange-rate table so conversions
// keep working across restarts when the remote fetcher is unavailable.
type RateStore struct {
	db *sql.DB
}

// NewRateStore returns a RateStore backed by the given database.
func NewRateStore(db *sql.DB) *RateStore {
	return &RateStore{db: db}
}

// Load returns the stored rate table. When no rates have been stored the
// fallback defaults are returned, so Load never yields an empty table.
func (s *RateStore) Load() (map[string]float64, error) {
	rows, err := s.db.Query(`SELECT code, rate FROM exchange_rates`)
	if err != nil {
		return nil, fmt.Errorf("query exchange rates: %w", err)
	}
	defer rows.Close()

	rates := make(map[string]float64)
	for rows.Next() {
		var code string
		var rate float64
		if err := rows.Scan(&code, &rate); err != nil {
			return nil, fmt.Errorf("scan exchange rate: %w", err)
		}
		rates[code] = rate
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exchange rates: %w", err)
	}

	if len(rates) == 0 {
		return DefaultRates(), nil
	}
	rates[Base] = 1
	return rates, nil
}

// Save upserts the given rates. The base currency is always pinned at 1
// and non-positive rates are rejected.
func (s *RateStore) Save(rates map[string]float64) error {
	for code, rate := range rates {
		if rate <= 0 {
			return fmt.Errorf("rate for %q must be greater than 0", code)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin exchange rate transaction: %w", err)
	}

	for code, rate := range rates {
		if code == Base {
			rate = 1
		}
		if _, err := tx.Exec(`
			INSERT INTO exchange_rates (code, rate)
			VALUES (?, ?)
			ON CONFLICT(code) DO UPDATE SET rate = excluded.rate, updated_at = CURRENT_TIMESTAMP
		`, code, rate); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert exchange rate %q: %w", code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit exchange rate transaction: %w", err)
	}
	return nil
}
