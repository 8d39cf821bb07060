package stellar

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// StroopsPerUnit is the number of stroops in one whole unit of the native asset.
const StroopsPerUnit int64 = 10_000_000

// ErrInvalidAmount reports an amount that is not positive, too precise or
// larger than the ledger can represent.
var ErrInvalidAmount = errors.New("invalid amount")

var (
	stroopsPerUnit = decimal.NewFromInt(StroopsPerUnit)
	maxStroops     = decimal.NewFromInt(math.MaxInt64)
)

// MaxAmount is the largest amount the ledger accepts: math.MaxInt64 stroops.
var MaxAmount = Amount{value: maxStroops.Div(stroopsPerUnit)}

// Amount is a positive quantity of the native asset with stroop precision.
type Amount struct {
	value decimal.Decimal
}

// ParseAmount validates a decimal literal and returns it as an Amount.
func ParseAmount(raw string) (Amount, error) {
	trimmed := strings.TrimSpace(raw)
	if !IsValidAmount(trimmed) {
		return Amount{}, fmt.Errorf("%w: %q must be a positive number with at most %d decimals", ErrInvalidAmount, raw, MaxAmountDecimals)
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return NewAmount(value)
}

// NewAmount validates a decimal value.
func NewAmount(value decimal.Decimal) (Amount, error) {
	if !value.IsPositive() {
		return Amount{}, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	if !value.Equal(value.Truncate(MaxAmountDecimals)) {
		return Amount{}, fmt.Errorf("%w: at most %d decimals", ErrInvalidAmount, MaxAmountDecimals)
	}
	if value.Mul(stroopsPerUnit).GreaterThan(maxStroops) {
		return Amount{}, fmt.Errorf("%w: at most %s", ErrInvalidAmount, MaxAmount.String())
	}
	return Amount{value: value}, nil
}

// AmountFromStroops converts an integer stroop count.
func AmountFromStroops(stroops int64) Amount {
	return Amount{value: decimal.NewFromInt(stroops).Div(stroopsPerUnit)}
}

// Decimal returns the underlying value.
func (amount Amount) Decimal() decimal.Decimal {
	return amount.value
}

// String renders the amount with exactly seven decimals, the form the ledger expects.
func (amount Amount) String() string {
	return amount.value.StringFixed(MaxAmountDecimals)
}

// Stroops returns the amount in stroops.
func (amount Amount) Stroops() int64 {
	return amount.value.Mul(stroopsPerUnit).IntPart()
}

// IsZero reports whether the amount is the zero value.
func (amount Amount) IsZero() bool {
	return amount.value.IsZero()
}
