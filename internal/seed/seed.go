// Package seed inserts the records the server needs on first boot: the
// admin user, the settings singleton and the fallback exchange rates.
// Running it again is a no-op.
package seed

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/thelpatil/quotal/internal/currency"
)

// Config contains the values required by the startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string
}

// Stats counts the records the seed inserted.
type Stats struct {
	Inserts int
}

// Run executes the startup seed inside one transaction.
func Run(db *sql.DB, cfg Config) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := seedAdmin(tx, cfg.AdminEmail, cfg.AdminPassword, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureRateSettings(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureExchangeRates(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func seedAdmin(tx *sql.Tx, email, password string, stats *Stats) error {
	if email == "" || password == "" {
		return nil
	}

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE email = ? LIMIT 1)`, email).Scan(&exists); err != nil {
		return fmt.Errorf("check admin user existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.Exec(`INSERT INTO users (email, password_hash) VALUES (?, ?)`, email, HashPassword(password)); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	stats.Inserts++
	return nil
}

// HashPassword derives the stored credential form. The login path must
// use the same derivation.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func ensureRateSettings(tx *sql.Tx, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM rate_settings WHERE id = 1)`).Scan(&exists); err != nil {
		return fmt.Errorf("check rate settings existence: %w", err)
	}
	if exists {
		return nil
	}

	// An empty overrides document means the built-in catalog applies.
	if _, err := tx.Exec(`INSERT INTO rate_settings (id, settings_json) VALUES (1, '{}')`); err != nil {
		return fmt.Errorf("insert rate settings singleton: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureExchangeRates(tx *sql.Tx, stats *Stats) error {
	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM exchange_rates`).Scan(&count); err != nil {
		return fmt.Errorf("count exchange rates: %w", err)
	}
	if count > 0 {
		return nil
	}

	for code, rate := range currency.DefaultRates() {
		if _, err := tx.Exec(`INSERT INTO exchange_rates (code, rate) VALUES (?, ?)`, code, rate); err != nil {
			return fmt.Errorf("insert exchange rate %s: %w", code, err)
		}
		stats.Inserts++
	}
	return nil
}
