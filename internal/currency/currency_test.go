package currency

import (
	"database/sql"
	"errors"
	"math"
	"testing"

	_ "modernc.org/sqlite"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func TestToBaseAndFromBase(t *testing.T) {
	rates := DefaultRates()

	inr, err := ToBase(100, "USD", rates)
	if err != nil {
		t.Fatalf("ToBase returned error: %v", err)
	}
	nearlyEqual(t, "100 USD in INR", inr, 8200)

	usd, err := FromBase(8200, "USD", rates)
	if err != nil {
		t.Fatalf("FromBase returned error: %v", err)
	}
	nearlyEqual(t, "8200 INR in USD", usd, 100)
}

func TestBaseCurrencyIsIdentity(t *testing.T) {
	// Identity even with an empty table: INR needs no rate.
	inr, err := ToBase(1234.56, Base, map[string]float64{})
	if err != nil {
		t.Fatalf("ToBase returned error: %v", err)
	}
	nearlyEqual(t, "identity toBase", inr, 1234.56)

	out, err := FromBase(1234.56, Base, map[string]float64{})
	if err != nil {
		t.Fatalf("FromBase returned error: %v", err)
	}
	nearlyEqual(t, "identity fromBase", out, 1234.56)
}

func TestUnknownCurrency(t *testing.T) {
	if _, err := ToBase(10, "EUR", DefaultRates()); !errors.Is(err, ErrUnknownCurrency) {
		t.Fatalf("expected ErrUnknownCurrency, got %v", err)
	}
	if _, err := FromBase(10, "EUR", DefaultRates()); !errors.Is(err, ErrUnknownCurrency) {
		t.Fatalf("expected ErrUnknownCurrency, got %v", err)
	}
}

func TestConverterDoesNotRound(t *testing.T) {
	rates := map[string]float64{"USD": 82.5}

	inr, err := ToBase(1, "USD", rates)
	if err != nil {
		t.Fatalf("ToBase returned error: %v", err)
	}
	nearlyEqual(t, "fractional conversion", inr, 82.5)
}

func TestRateStore_LoadFallsBackToDefaults(t *testing.T) {
	store := NewRateStore(newRatesTestDB(t))

	rates, err := store.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	nearlyEqual(t, "fallback USD", rates["USD"], 82)
	nearlyEqual(t, "fallback CAD", rates["CAD"], 60)
	nearlyEqual(t, "fallback INR", rates[Base], 1)
}

func TestRateStore_SaveAndLoad(t *testing.T) {
	store := NewRateStore(newRatesTestDB(t))

	if err := store.Save(map[string]float64{"USD": 83.2, "CAD": 61.5}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if err := store.Save(map[string]float64{"USD": 84.1}); err != nil {
		t.Fatalf("second Save returned error: %v", err)
	}

	rates, err := store.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	nearlyEqual(t, "USD", rates["USD"], 84.1)
	nearlyEqual(t, "CAD", rates["CAD"], 61.5)
	nearlyEqual(t, "INR pinned", rates[Base], 1)
}

func TestRateStore_RejectsNonPositiveRates(t *testing.T) {
	store := NewRateStore(newRatesTestDB(t))

	if err := store.Save(map[string]float64{"USD": 0}); err == nil {
		t.Fatalf("expected error for zero rate")
	}
	if err := store.Save(map[string]float64{"USD": -5}); err == nil {
		t.Fatalf("expected error for negative rate")
	}
}

func newRatesTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}

	_, err = db.Exec(`
		CREATE TABLE exchange_rates (
			code TEXT PRIMARY KEY,
			rate REAL NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		t.Fatalf("failed creating exchange_rates table: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}
