// Package money converts between rupee amounts exposed over the API and the
// integer paise stored in the database.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Paise is an amount in the smallest INR unit.
type Paise int64

// FromRupees converts a rupee amount to paise, rounding half away from zero.
func FromRupees(rupees float64) Paise {
	return Paise(decimal.NewFromFloat(rupees).Shift(2).Round(0).IntPart())
}

// ParseRupees parses a decimal string such as "1499.50" into paise.
func ParseRupees(value string) (Paise, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("parse rupees %q: %w", value, err)
	}
	return Paise(d.Shift(2).Round(0).IntPart()), nil
}

// Decimal returns the amount in rupees.
func (p Paise) Decimal() decimal.Decimal {
	return decimal.New(int64(p), -2)
}

// Rupees returns the amount in rupees as a float for JSON responses.
func (p Paise) Rupees() float64 {
	return p.Decimal().InexactFloat64()
}

// Mul multiplies a unit amount by a quantity.
func (p Paise) Mul(qty int) Paise {
	return p * Paise(qty)
}

func (p Paise) String() string {
	return p.Decimal().StringFixed(2)
}

// Sum adds amounts together.
func Sum(amounts ...Paise) Paise {
	var total Paise
	for _, a := range amounts {
		total += a
	}
	return total
}
