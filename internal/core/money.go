// Package core provides money formatting utilities.
//
// Amounts are stored as integers in minor currency units. The helpers in this
// file convert them to major units for display using decimal arithmetic, so
// no float rounding leaks into user-facing strings.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// minorUnitExponents lists ISO 4217 currencies whose minor unit is not 1/100.
var minorUnitExponents = map[string]int32{
	"BHD": 3,
	"CLP": 0,
	"ISK": 0,
	"JOD": 3,
	"JPY": 0,
	"KRW": 0,
	"KWD": 3,
	"OMR": 3,
	"TND": 3,
	"VND": 0,
}

// MinorUnitExponent returns the number of decimal places of the currency's
// minor unit. Unknown currencies default to 2.
func MinorUnitExponent(currency string) int32 {
	if exp, ok := minorUnitExponents[strings.ToUpper(strings.TrimSpace(currency))]; ok {
		return exp
	}
	return 2
}

// MajorUnits converts a minor-unit amount to a decimal in major units.
//
// Examples:
//
//	MajorUnits(12345, "EUR") -> 123.45
//	MajorUnits(12345, "JPY") -> 12345
func MajorUnits(amount int64, currency string) decimal.Decimal {
	return decimal.New(amount, -MinorUnitExponent(currency))
}

// FormatMoney renders a minor-unit amount as "<major units> <CURRENCY>",
// e.g. "1234.50 EUR". An empty currency renders the number alone.
func FormatMoney(amount int64, currency string) string {
	s := MajorUnits(amount, currency).StringFixed(MinorUnitExponent(currency))
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return s
	}
	return s + " " + currency
}
