// Package core defines the domain records and the decimal money handling
// shared by the storage, reporting and HTTP layers.
//
// Monetary amounts are exact decimals end to end. They are stored as decimal
// text, parsed into decimal values at the boundary, and only converted to
// floats for percentage fields where callers expect a plain number.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Fractional digit limits: two for monetary amounts, eight for investment
// quantities so fractional share and crypto units survive round-tripping.
const (
	AmountScale   = 2
	QuantityScale = 8
)

// RoundAmount normalizes a monetary value to two fractional digits, rounding
// half-up on the third place. Every amount crosses this before persistence.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountScale)
}

// RoundQuantity normalizes an investment quantity to eight fractional digits.
func RoundQuantity(d decimal.Decimal) decimal.Decimal {
	return d.Round(QuantityScale)
}

// ParseAmount parses a positive monetary amount with two-decimal semantics.
// A decimal comma is accepted alongside the dot.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return decimal.Zero, err
	}
	d = RoundAmount(d)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseNonNegativeAmount is ParseAmount but permits zero, for balance and
// valuation fields that may legitimately reach zero.
func ParseNonNegativeAmount(s string) (decimal.Decimal, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return decimal.Zero, err
	}
	d = RoundAmount(d)
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseQuantity parses a positive high-precision quantity (eight fractional
// digits).
func ParseQuantity(s string) (decimal.Decimal, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return decimal.Zero, ErrInvalidQuantity
	}
	d = RoundQuantity(d)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidQuantity
	}
	return d, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
