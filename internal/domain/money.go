package domain

import (
	"github.com/shopspring/decimal"
)

// Money is an exact monetary amount that serializes as a JSON number
type Money struct {
	decimal.Decimal
}

// ZeroMoney is the additive identity
var ZeroMoney = Money{Decimal: decimal.Zero}

// NewMoney wraps a decimal value
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// MoneyFromFloat converts a float amount, as read from a database column
func MoneyFromFloat(f float64) Money {
	return Money{Decimal: decimal.NewFromFloat(f)}
}

// Plus returns m + other
func (m Money) Plus(other Money) Money {
	return Money{Decimal: m.Decimal.Add(other.Decimal)}
}

// MarshalJSON renders the amount without quotes
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

// UnmarshalJSON accepts both quoted and bare numbers
func (m *Money) UnmarshalJSON(data []byte) error {
	return m.Decimal.UnmarshalJSON(data)
}
