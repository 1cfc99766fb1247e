// Package currency converts amounts between the base currency (INR) and
// others using a rate table. Rates are expressed as INR per one unit of
// the foreign currency, so converting to base multiplies and converting
// from base divides. The converter never rounds; callers round once at
// the display boundary.
package currency

import (
	"errors"
	"fmt"
)

// Base is the currency in which catalog amounts and allocations are
// natively expressed.
const Base = "INR"

// ErrUnknownCurrency is returned when a code is missing from the table.
var ErrUnknownCurrency = errors.New("unknown currency")

// DefaultRates is the fallback table used when no fetched rates are
// available.
func DefaultRates() map[string]float64 {
	return map[string]float64{
		Base:  1,
		"USD": 82,
		"CAD": 60,
	}
}

// ToBase converts amount in code to the base currency.
func ToBase(amount float64, code string, rates map[string]float64) (float64, error) {
	if code == Base {
		return amount, nil
	}
	rate, ok := rates[code]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	return amount * rate, nil
}

// FromBase converts a base-currency amount to code.
func FromBase(amount float64, code string, rates map[string]float64) (float64, error) {
	if code == Base {
		return amount, nil
	}
	rate, ok := rates[code]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	return amount / rate, nil
}
