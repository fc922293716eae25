package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoneyConstructors(t *testing.T) {
	tests := []struct {
		name     string
		money    Money
		amount   string
		currency string
		display  string
	}{
		{"THB", THB(5000), "5000", "thb", "฿5000.00"},
		{"THB fractional", THB(1000.01), "1000.01", "thb", "฿1000.01"},
		{"USD", USD(49), "49", "usd", "$49.00"},
		{"Zero THB", Zero("THB"), "0", "thb", "฿0.00"},
		{"New", New(decimal.RequireFromString("12.345"), "THB"), "12.345", "thb", "฿12.35"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.money.Amount.String() != tt.amount {
				t.Errorf("Amount: got %s, want %s", tt.money.Amount.String(), tt.amount)
			}
			if tt.money.Currency != tt.currency {
				t.Errorf("Currency: got %s, want %s", tt.money.Currency, tt.currency)
			}
			if tt.money.String() != tt.display {
				t.Errorf("Display: got %s, want %s", tt.money.String(), tt.display)
			}
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Money
		expected Money
	}{
		{"Add", func() Money { return THB(100).Add(THB(200)) }, THB(300)},
		{"Subtract", func() Money { return THB(500).Subtract(THB(200)) }, THB(300)},
		{"Multiply", func() Money { return THB(100).Multiply(3) }, THB(300)},
		{"Negate", func() Money { return THB(100).Negate() }, THB(-100)},
		{"Abs negative", func() Money { return THB(-100).Abs() }, THB(100)},
		{"Rate exact", func() Money {
			return THB(1000.01).MulRate(decimal.RequireFromString("0.01"))
		}, New(decimal.RequireFromString("10.0001"), "thb")},
		{"Complex", func() Money {
			return THB(1000).Add(THB(500)).Multiply(2).Subtract(THB(1000))
		}, THB(2000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.op()
			if !result.Equal(tt.expected) {
				t.Errorf("Got %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for currency mismatch")
		}
	}()

	// This should panic
	_ = THB(100).Add(USD(100))
}

func TestMoneyComparison(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Money
		less    bool
		greater bool
		equal   bool
	}{
		{"Equal", THB(100), THB(100), false, false, true},
		{"Less", THB(50), THB(100), true, false, false},
		{"Greater", THB(200), THB(100), false, true, false},
		{"Zero equal", THB(0), Zero("thb"), false, false, true},
		{"Threshold strict", THB(1000), THB(1000), false, false, true},
		{"Just over threshold", THB(1000.01), THB(1000), false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.LessThan(tt.b); got != tt.less {
				t.Errorf("LessThan: got %v, want %v", got, tt.less)
			}
			if got := tt.a.GreaterThan(tt.b); got != tt.greater {
				t.Errorf("GreaterThan: got %v, want %v", got, tt.greater)
			}
			if got := tt.a.Equal(tt.b); got != tt.equal {
				t.Errorf("Equal: got %v, want %v", got, tt.equal)
			}
		})
	}
}

func TestMoneySum(t *testing.T) {
	got := Sum(THB(100), THB(200), THB(0.5))
	if !got.Equal(THB(300.5)) {
		t.Errorf("Sum: got %v, want %v", got, THB(300.5))
	}
}
