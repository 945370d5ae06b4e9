// Package money represents currency as integer minor units. Decimal values
// exist only at the API boundary.
package money

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/mcash/mcash-api/internal/pkg/apperr"
)

// Amount is a count of minor units (poisha, cents).
type Amount int64

const scale = 2

var (
	ErrInvalidAmount = apperr.New(apperr.ValidationFailed, "invalid amount")
	ErrPrecision     = apperr.New(apperr.ValidationFailed, "amount must have at most two decimal places")
	ErrOutOfRange    = apperr.New(apperr.ValidationFailed, "amount out of range")

	maxAmount = decimal.NewFromInt(math.MaxInt64)
	minAmount = decimal.NewFromInt(math.MinInt64)
)

// Units builds an Amount from whole currency units.
func Units(n int64) Amount {
	return Amount(n * 100)
}

// Parse converts a decimal string such as "150.5" into an Amount.
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return FromDecimal(d)
}

// MustParse is Parse for constants; it panics on malformed input.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromDecimal converts d into minor units, rejecting sub-cent precision.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	shifted := d.Shift(scale)
	if !shifted.IsInteger() {
		return 0, ErrPrecision
	}
	if shifted.GreaterThan(maxAmount) || shifted.LessThan(minAmount) {
		return 0, ErrOutOfRange
	}
	return Amount(shifted.IntPart()), nil
}

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -scale)
}

func (a Amount) String() string {
	return a.Decimal().StringFixed(scale)
}

// Add returns a+b, or ErrOutOfRange when the sum does not fit in an Amount.
func (a Amount) Add(b Amount) (Amount, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, ErrOutOfRange
	}
	return sum, nil
}

// Sub returns a-b, or ErrOutOfRange when the difference does not fit.
func (a Amount) Sub(b Amount) (Amount, error) {
	diff := a - b
	if (b > 0 && diff > a) || (b < 0 && diff < a) {
		return 0, ErrOutOfRange
	}
	return diff, nil
}

// Cents returns the raw minor-unit count.
func (a Amount) Cents() int64 {
	return int64(a)
}

// Percent applies rate (0.015 for 1.5%) and rounds half away from zero to whole minor units.
func (a Amount) Percent(rate decimal.Decimal) Amount {
	return Amount(decimal.NewFromInt(int64(a)).Mul(rate).Round(0).IntPart())
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return ErrInvalidAmount
	}
	v, err := FromDecimal(d)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
