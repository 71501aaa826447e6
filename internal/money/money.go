// Package money parses and formats the currency amounts entered for
// shared expenses.
//
// Amounts are carried as float64 throughout the service. Parsing goes
// through shopspring/decimal so that user text like "12.345" is rounded
// half-up to cents before it becomes a float.
package money

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest amount a single expense may carry. It keeps
// household totals far away from float64 overflow.
const MaxAmount = 1e12

// ErrInvalidAmount is returned for amounts that are not a positive number
// no larger than MaxAmount.
var ErrInvalidAmount = errors.New("invalid amount")

var (
	maxAmount = decimal.NewFromFloat(MaxAmount)

	// "12,34" or "12,5": a lone comma followed by cents.
	decimalComma = regexp.MustCompile(`^[+-]?\d*,\d{1,2}$`)
	// "1,234" or "1,234,567.89": commas grouping thousands.
	groupedThousands = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d*)?$`)
)

// ParseAmount converts user-entered text into a positive amount rounded to cents.
// "12.34" and "12,34" are both read as twelve thirty-four; "1,234.56" is
// read with a thousands separator.
func ParseAmount(text string) (float64, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	switch {
	case decimalComma.MatchString(s):
		s = strings.Replace(s, ",", ".", 1)
	case groupedThousands.MatchString(s):
		s = strings.ReplaceAll(s, ",", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, text)
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return 0, fmt.Errorf("%w: %s must be greater than zero", ErrInvalidAmount, d.StringFixed(2))
	}
	if d.GreaterThan(maxAmount) {
		return 0, fmt.Errorf("%w: %q exceeds %s", ErrInvalidAmount, text, Format(MaxAmount))
	}

	f := d.InexactFloat64()
	if err := ValidateAmount(f); err != nil {
		return 0, err
	}
	return f, nil
}

// ValidateAmount applies the ParseAmount rules to an already numeric value.
func ValidateAmount(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: not a finite number", ErrInvalidAmount)
	}
	if v <= 0 {
		return fmt.Errorf("%w: %s must be greater than zero", ErrInvalidAmount, Format(v))
	}
	if v > MaxAmount {
		return fmt.Errorf("%w: %s exceeds %s", ErrInvalidAmount, Format(v), Format(MaxAmount))
	}
	return nil
}

// Format renders an amount with two decimals, e.g. "60.00".
// NaN renders as "NaN" and infinities as "Inf" or "-Inf" so that
// contamination stays visible.
func Format(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatSigned is Format with a leading "+" for non-negative values, the
// way a balance is displayed.
func FormatSigned(v float64) string {
	s := Format(v)
	if v >= 0 {
		return "+" + s
	}
	return s
}
