package pricing

import (
	"errors"
	"testing"
)

func TestApplyDiscount_Fixed(t *testing.T) {
	res, err := ApplyDiscount(6825, Discount{Kind: DiscountFixed, Amount: 2000})
	if err != nil {
		t.Fatalf("ApplyDiscount returned error: %v", err)
	}

	nearlyEqual(t, "total", res.Total, 4825)
	nearlyEqual(t, "originalTotal", res.OriginalTotal, 6825)
	if res.Line.Label != "Custom Discount (Fixed Amount)" || res.Line.Amount != -2000 {
		t.Fatalf("unexpected discount line: %+v", res.Line)
	}
}

func TestApplyDiscount_FixedCannotReachTotal(t *testing.T) {
	if _, err := ApplyDiscount(6825, Discount{Kind: DiscountFixed, Amount: 7000}); !errors.Is(err, ErrInvalidDiscount) {
		t.Fatalf("expected ErrInvalidDiscount, got %v", err)
	}
	if _, err := ApplyDiscount(6825, Discount{Kind: DiscountFixed, Amount: 6825}); !errors.Is(err, ErrInvalidDiscount) {
		t.Fatalf("expected ErrInvalidDiscount for amount == total, got %v", err)
	}
}

func TestApplyDiscount_Percentage(t *testing.T) {
	res, err := ApplyDiscount(14100, Discount{Kind: DiscountPercentage, Amount: 10})
	if err != nil {
		t.Fatalf("ApplyDiscount returned error: %v", err)
	}

	nearlyEqual(t, "total", res.Total, 12690)
	if res.Line.Percent != -10 {
		t.Fatalf("unexpected discount line: %+v", res.Line)
	}
}

func TestApplyDiscount_PercentageBounds(t *testing.T) {
	if _, err := ApplyDiscount(1000, Discount{Kind: DiscountPercentage, Amount: 101}); !errors.Is(err, ErrInvalidDiscount) {
		t.Fatalf("expected ErrInvalidDiscount above 100, got %v", err)
	}
	if _, err := ApplyDiscount(1000, Discount{Kind: DiscountPercentage, Amount: 0}); !errors.Is(err, ErrInvalidDiscount) {
		t.Fatalf("expected ErrInvalidDiscount at 0, got %v", err)
	}

	// 100% is allowed and zeroes the total.
	res, err := ApplyDiscount(1000, Discount{Kind: DiscountPercentage, Amount: 100})
	if err != nil {
		t.Fatalf("ApplyDiscount returned error: %v", err)
	}
	nearlyEqual(t, "total", res.Total, 0)
}

func TestApplyDiscount_UnknownKind(t *testing.T) {
	if _, err := ApplyDiscount(1000, Discount{Kind: "bogus", Amount: 10}); !errors.Is(err, ErrInvalidDiscount) {
		t.Fatalf("expected ErrInvalidDiscount, got %v", err)
	}
}
