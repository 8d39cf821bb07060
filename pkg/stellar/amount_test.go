package stellar

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmountFormatsSevenDecimals(test *testing.T) {
	test.Parallel()
	amount, err := ParseAmount("12.5")
	if err != nil {
		test.Fatalf("parse amount: %v", err)
	}
	if amount.String() != "12.5000000" {
		test.Fatalf("expected 12.5000000, got %s", amount.String())
	}
	if amount.Stroops() != 125_000_000 {
		test.Fatalf("expected 125000000 stroops, got %d", amount.Stroops())
	}
}

func TestParseAmountRejectsInvalid(test *testing.T) {
	test.Parallel()
	for _, raw := range []string{"0", "-3", "1.00000001", "one", "922337203685.4775808", "1000000000000"} {
		if _, err := ParseAmount(raw); !errors.Is(err, ErrInvalidAmount) {
			test.Fatalf("expected ErrInvalidAmount for %q, got %v", raw, err)
		}
	}
}

func TestNewAmountRejectsOverPrecision(test *testing.T) {
	test.Parallel()
	if _, err := NewAmount(decimal.RequireFromString("0.00000001")); !errors.Is(err, ErrInvalidAmount) {
		test.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := NewAmount(decimal.Zero); !errors.Is(err, ErrInvalidAmount) {
		test.Fatalf("expected ErrInvalidAmount for zero, got %v", err)
	}
}

func TestParseAmountAcceptsLedgerMaximum(test *testing.T) {
	test.Parallel()
	amount, err := ParseAmount("922337203685.4775807")
	if err != nil {
		test.Fatalf("expected the largest stroop count to parse, got %v", err)
	}
	if amount.Stroops() != math.MaxInt64 {
		test.Fatalf("expected %d stroops, got %d", int64(math.MaxInt64), amount.Stroops())
	}
	if !amount.Decimal().Equal(MaxAmount.Decimal()) {
		test.Fatalf("expected MaxAmount %s, got %s", MaxAmount, amount)
	}
}

func TestAmountFromStroopsRoundTrip(test *testing.T) {
	test.Parallel()
	amount := AmountFromStroops(1)
	if amount.String() != "0.0000001" {
		test.Fatalf("expected one stroop, got %s", amount.String())
	}
	if amount.Stroops() != 1 {
		test.Fatalf("expected 1 stroop, got %d", amount.Stroops())
	}
}
