package pricing

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidDiscount is returned when a discount is out of bounds:
// percentages must be in (0,100], fixed amounts in (0,total).
var ErrInvalidDiscount = errors.New("invalid discount")

// Discount kinds.
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// Discount is a custom price reduction applied after the estimate.
type Discount struct {
	Kind   string  `json:"kind"`
	Amount float64 `json:"amount"`
}

// Discounted is the result of applying a discount. OriginalTotal is kept
// so the discount can be reversed or audited; Line is the single
// breakdown entry describing the discount, replacing any earlier one.
type Discounted struct {
	OriginalTotal float64 `json:"originalTotal"`
	Total         float64 `json:"total"`
	Line          Line    `json:"line"`
}

// ApplyDiscount applies spec to total and returns the adjusted result.
func ApplyDiscount(total float64, spec Discount) (Discounted, error) {
	if spec.Amount <= 0 || math.IsNaN(spec.Amount) {
		return Discounted{}, fmt.Errorf("%w: amount must be greater than 0", ErrInvalidDiscount)
	}

	switch spec.Kind {
	case DiscountPercentage:
		if spec.Amount > 100 {
			return Discounted{}, fmt.Errorf("%w: percentage cannot exceed 100", ErrInvalidDiscount)
		}
		return Discounted{
			OriginalTotal: total,
			Total:         math.Round(total * (1 - spec.Amount/100)),
			Line: Line{
				Label:   fmt.Sprintf("Custom Discount (%g%%)", spec.Amount),
				Percent: -spec.Amount,
			},
		}, nil
	case DiscountFixed:
		if spec.Amount >= total {
			return Discounted{}, fmt.Errorf("%w: fixed amount cannot reach the total", ErrInvalidDiscount)
		}
		return Discounted{
			OriginalTotal: total,
			Total:         total - spec.Amount,
			Line: Line{
				Label:  "Custom Discount (Fixed Amount)",
				Amount: -spec.Amount,
			},
		}, nil
	default:
		return Discounted{}, fmt.Errorf("%w: kind %q", ErrInvalidDiscount, spec.Kind)
	}
}
