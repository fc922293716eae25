// Package types provides common types shared across the ledger.
package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value as an exact decimal amount.
// Arbitrary-precision decimals are required because the withholding tax
// rate produces sub-satang fractions (1% of ฿1000.01 is ฿10.0001) that
// integer minor units cannot carry.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"` // ISO 4217 lowercase: "thb", "usd"
}

// New creates a Money value from a decimal amount and currency code.
func New(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: strings.ToLower(currency)}
}

// THB creates a Money value in Thai Baht.
func THB(amount float64) Money {
	return Money{Amount: decimal.NewFromFloat(amount), Currency: "thb"}
}

// USD creates a Money value in US Dollars.
func USD(amount float64) Money {
	return Money{Amount: decimal.NewFromFloat(amount), Currency: "usd"}
}

// Zero returns a zero Money value in the specified currency.
func Zero(currency string) Money {
	return Money{Amount: decimal.Zero, Currency: strings.ToLower(currency)}
}

// Arithmetic operations

// Add adds two Money values. Panics if currencies don't match.
func (m Money) Add(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}
}

// Subtract subtracts another Money value. Panics if currencies don't match.
func (m Money) Subtract(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}
}

// MulRate multiplies the amount by an exact decimal rate (e.g. a tax rate).
func (m Money) MulRate(rate decimal.Decimal) Money {
	return Money{Amount: m.Amount.Mul(rate), Currency: m.Currency}
}

// Multiply multiplies the Money by an integer quantity.
func (m Money) Multiply(qty int64) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(qty)), Currency: m.Currency}
}

// Negate returns the negative of the Money value.
func (m Money) Negate() Money {
	return Money{Amount: m.Amount.Neg(), Currency: m.Currency}
}

// Abs returns the absolute value.
func (m Money) Abs() Money {
	return Money{Amount: m.Amount.Abs(), Currency: m.Currency}
}

// Comparison methods

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool { return m.Amount.IsZero() }

// IsPositive returns true if the amount is greater than zero.
func (m Money) IsPositive() bool { return m.Amount.IsPositive() }

// IsNegative returns true if the amount is less than zero.
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }

// Equal returns true if both Money values are equal (same amount and currency).
func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

// LessThan returns true if this Money is less than other. Panics if currencies don't match.
func (m Money) LessThan(other Money) bool {
	m.assertSameCurrency(other)
	return m.Amount.LessThan(other.Amount)
}

// GreaterThan returns true if this Money is greater than other. Panics if currencies don't match.
func (m Money) GreaterThan(other Money) bool {
	m.assertSameCurrency(other)
	return m.Amount.GreaterThan(other.Amount)
}

// Formatting methods

// FormatMajor returns the amount rounded to two decimal places without a
// currency symbol, e.g. "5300.00".
func (m Money) FormatMajor() string {
	return m.Amount.StringFixed(2)
}

// String returns a human-readable string with currency symbol.
// Examples: "฿5300.00", "$49.00"
func (m Money) String() string {
	return currencySymbol(m.Currency) + m.FormatMajor()
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   decimal.Decimal `json:"amount"`
		Currency string          `json:"currency"`
		Display  string          `json:"display"`
	}{
		Amount:   m.Amount,
		Currency: m.Currency,
		Display:  m.String(),
	})
}

// Helper functions

// assertSameCurrency panics if currencies don't match.
func (m Money) assertSameCurrency(other Money) {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money: currency mismatch: %s != %s", m.Currency, other.Currency))
	}
}

// currencySymbol returns the symbol for a currency code.
func currencySymbol(currency string) string {
	symbols := map[string]string{
		"thb": "฿",
		"usd": "$",
		"eur": "€",
		"gbp": "£",
		"sgd": "S$",
		"myr": "RM ",
	}
	if sym, ok := symbols[strings.ToLower(currency)]; ok {
		return sym
	}
	return strings.ToUpper(currency) + " "
}

// Sum calculates the sum of multiple Money values. All must have the same currency.
func Sum(values ...Money) Money {
	if len(values) == 0 {
		return Zero("thb")
	}

	result := values[0]
	for i := 1; i < len(values); i++ {
		result = result.Add(values[i])
	}
	return result
}
