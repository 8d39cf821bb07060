package stellar

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmountDecimals is the precision of the native asset (one stroop).
const MaxAmountDecimals = 7

var (
	accountAddressPattern  = regexp.MustCompile(`^G[A-Z2-7]{55}$`)
	contractAddressPattern = regexp.MustCompile(`^C[A-Z2-7]{55}$`)
	amountLiteralPattern   = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)$`)
	scriptSchemePattern    = regexp.MustCompile(`(?i)javascript:`)
)

// IsValidAccountAddress reports whether s has the shape of an account address.
// The checksum is not verified.
func IsValidAccountAddress(s string) bool {
	return accountAddressPattern.MatchString(s)
}

// IsValidContractAddress reports whether s has the shape of a contract address.
func IsValidContractAddress(s string) bool {
	return contractAddressPattern.MatchString(s)
}

// IsValidAddress accepts account or contract addresses.
func IsValidAddress(s string) bool {
	return IsValidAccountAddress(s) || IsValidContractAddress(s)
}

// IsValidAmount reports whether raw is a positive decimal literal with at most
// seven fractional digits.
func IsValidAmount(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if !amountLiteralPattern.MatchString(trimmed) {
		return false
	}
	if fractionDigits(trimmed) > MaxAmountDecimals {
		return false
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return false
	}
	return value.IsPositive()
}

// IsValidAmountValue reports whether value is finite and positive.
func IsValidAmountValue(value float64) bool {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return false
	}
	return value > 0
}

// Sanitize strips angle brackets and "javascript:" from free text and trims it.
// It is a cosmetic filter for display, not an injection defense: encoded
// payloads and context-specific escapes pass through untouched.
func Sanitize(s string) string {
	stripped := strings.NewReplacer("<", "", ">", "").Replace(s)
	stripped = scriptSchemePattern.ReplaceAllString(stripped, "")
	return strings.TrimSpace(stripped)
}

func fractionDigits(literal string) int {
	dot := strings.IndexByte(literal, '.')
	if dot < 0 {
		return 0
	}
	return len(literal) - dot - 1
}
