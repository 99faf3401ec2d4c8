package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Amount is a non-negative decimal money value with two fractional digits,
// held as an integer count of cents. All arithmetic is integer-only.
type Amount int64

const (
	amountMaxDigits     = 10
	amountDecimalPlaces = 2
	amountMaxWhole      = amountMaxDigits - amountDecimalPlaces
)

var (
	errAmountFormat   = errors.New("a valid number is required")
	errAmountNegative = errors.New("ensure this value is greater than or equal to 0")
)

// ParseAmount parses a decimal string such as "123.45", "7" or "0.5".
// At most two fractional digits and ten digits in total are accepted.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errAmountFormat
	}
	if strings.HasPrefix(s, "-") {
		return 0, errAmountNegative
	}
	s = strings.TrimPrefix(s, "+")

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, errAmountFormat
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, errAmountFormat
	}
	if len(frac) > amountDecimalPlaces {
		return 0, fmt.Errorf("ensure that there are no more than %d decimal places", amountDecimalPlaces)
	}
	whole = strings.TrimLeft(whole, "0")
	if len(whole) > amountMaxWhole {
		return 0, fmt.Errorf("ensure that there are no more than %d digits before the decimal point", amountMaxWhole)
	}

	var cents int64
	for _, c := range whole {
		cents = cents*10 + int64(c-'0')
	}
	for i := range amountDecimalPlaces {
		cents *= 10
		if i < len(frac) {
			cents += int64(frac[i] - '0')
		}
	}
	return Amount(cents), nil
}

// Cents returns the amount in the smallest currency unit.
func (a Amount) Cents() int64 { return int64(a) }

// String formats the amount with exactly two fractional digits, e.g. "123.45".
func (a Amount) String() string {
	return fmt.Sprintf("%d.%02d", int64(a)/100, int64(a)%100)
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
