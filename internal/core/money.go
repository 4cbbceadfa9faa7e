// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts typed by users,
// who enter them with locale thousand separators (e.g. "1.500.000").
package core

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// maxAmountDigits bounds the total number of digits in an amount.
const maxAmountDigits = 24

var plainAmount = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// ParseAmount converts user input to a non-negative decimal amount.
//
// Dots are treated as thousand separators and stripped together with any
// whitespace; a comma is accepted as the decimal separator. The stripped
// value must be plain digits with at most one decimal part and no more than
// maxAmountDigits digits. Exponents and signs are rejected.
//
// Examples:
//
//	ParseAmount("150.000")   -> 150000, nil
//	ParseAmount("1.500,5")   -> 1500.5, nil
//	ParseAmount("12abc")     -> 0, ErrInvalidAmount
//	ParseAmount("1e3")       -> 0, ErrInvalidAmount
//	ParseAmount("-5")        -> 0, ErrNegative
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrEmptyAmount
	}
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '.', ' ', '\u00a0', '\u202f':
			return -1
		case ',':
			return '.'
		}
		return r
	}, s)
	if cleaned == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(cleaned, "-") {
		return decimal.Zero, ErrNegative
	}
	if !plainAmount.MatchString(cleaned) || len(cleaned)-strings.Count(cleaned, ".") > maxAmountDigits {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegative
	}
	return d, nil
}
