package conv

import (
	"fmt"
	"strconv"

	"github.com/ericlagergren/decimal"
)

// Precision is the number of decimal places every distributed amount is truncated to
const Precision = 8

var zeroRounded decimal.Big

func init() {
	zeroRounded = decimal.Big{}
	zeroRounded.Context = decimal.Context128
	zeroRounded.Context.RoundingMode = decimal.ToZero
	zeroRounded.Quantize(Precision)
}

// FromFloat converts a configuration rate into a decimal using its shortest exact representation,
// so 0.3 becomes exactly 0.3 and not the nearest binary float.
func FromFloat(value float64) *decimal.Big {
	d := NewDecimalWithPrecision()
	d.SetString(strconv.FormatFloat(value, 'f', -1, 64))
	return d
}

// Parse a decimal string and report whether it was a finite number
func Parse(value string) (*decimal.Big, bool) {
	d := NewDecimalWithPrecision()
	if _, ok := d.SetString(value); !ok {
		return nil, false
	}
	if d.IsNaN(0) || d.IsInf(0) {
		return nil, false
	}
	return d, true
}

// Format an amount with exactly 8 decimal places
func Format(amount *decimal.Big) string {
	if amount == nil {
		return fmt.Sprintf("%.8f", NewDecimalWithPrecision())
	}
	return fmt.Sprintf("%.8f", CloneToPrecision(amount))
}

func CloneToPrecision(devAmount *decimal.Big) *decimal.Big {
	dec := &decimal.Big{}
	dec.Context = decimal.Context128
	dec.Context.RoundingMode = decimal.ToZero
	dec.Copy(devAmount)
	dec.Quantize(Precision)
	return dec
}

func RoundToPrecision(decAmount *decimal.Big) *decimal.Big {
	decAmount.Context = decimal.Context128
	decAmount.Context.RoundingMode = decimal.ToZero
	decAmount.Quantize(Precision)

	return decAmount
}

func NewDecimalWithPrecision() *decimal.Big {
	z := zeroRounded
	return &z
}

// Sum adds the given amounts into a new decimal, skipping nil values
func Sum(amounts ...*decimal.Big) *decimal.Big {
	total := NewDecimalWithPrecision()
	for _, amount := range amounts {
		if amount == nil {
			continue
		}
		total.Add(total, amount)
	}
	return total
}
