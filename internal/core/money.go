// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts and quantities
// from user input and formatting them for display. All arithmetic uses
// exact decimals; rounding to two places only happens in FormatMoney.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

func init() {
	// The maintenance backend reads prices and quantities as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// MinQuantity is the smallest quantity a line item may carry.
var MinQuantity = decimal.New(1, -2)

// ParseDecimal converts a user-entered decimal string to an exact decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs,
// exponents and thousands separators are rejected. The value is returned
// unrounded so that later sums do not drift.
//
// Examples:
//
//	ParseDecimal("12.34")  -> 12.34, nil
//	ParseDecimal("12,345") -> 12.345, nil
//	ParseDecimal("-1")     -> 0, ErrInvalidAmount
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, ErrInvalidAmount
	}
	if parts[0] == "" && (len(parts) == 1 || parts[1] == "") {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return decimal.Zero, ErrInvalidAmount
			}
		}
	}
	intPart := parts[0]
	if intPart == "" {
		intPart = "0"
	}
	normalized := intPart
	if len(parts) == 2 && parts[1] != "" {
		normalized += "." + parts[1]
	}
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseQuantity parses a line-item quantity and enforces the 0.01 minimum.
func ParseQuantity(s string) (decimal.Decimal, error) {
	d, err := ParseDecimal(s)
	if err != nil {
		return decimal.Zero, ErrInvalidQuantity
	}
	if d.LessThan(MinQuantity) {
		return decimal.Zero, ErrInvalidQuantity
	}
	return d, nil
}

// ParsePrice parses a catalog unit price. Zero is allowed, negatives are not.
func ParsePrice(s string) (decimal.Decimal, error) {
	return ParseDecimal(s)
}

// FormatMoney renders an amount with exactly two fractional digits.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatYuan renders an amount the way the field views display it (e.g. "¥12.30").
func FormatYuan(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-¥" + d.Neg().StringFixed(2)
	}
	return "¥" + d.StringFixed(2)
}
