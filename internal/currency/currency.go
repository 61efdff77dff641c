// Package currency converts amounts between currencies using a fixed rate table.
package currency

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrUnknownCurrency = errors.New("unknown currency")

// Converter holds rates expressed as units of a currency per one unit of the base currency.
type Converter struct {
	base  string
	rates map[string]decimal.Decimal
}

func NewConverter(base string, rates map[string]float64) (*Converter, error) {
	base = strings.ToUpper(base)
	c := &Converter{
		base:  base,
		rates: make(map[string]decimal.Decimal, len(rates)+1),
	}
	for code, rate := range rates {
		if rate <= 0 {
			return nil, fmt.Errorf("rate for %s must be positive", code)
		}
		c.rates[strings.ToUpper(code)] = decimal.NewFromFloat(rate)
	}
	if base != "" {
		c.rates[base] = decimal.NewFromInt(1)
	}
	return c, nil
}

// Supports reports whether code has a rate.
func (c *Converter) Supports(code string) bool {
	_, ok := c.rates[strings.ToUpper(code)]
	return ok
}

func (c *Converter) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return amount, nil
	}
	fromRate, ok := c.rates[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownCurrency, from)
	}
	toRate, ok := c.rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownCurrency, to)
	}
	return amount.Div(fromRate).Mul(toRate), nil
}

// ConvertMinor converts an amount in minor units (cents) and rounds to the nearest minor unit.
func (c *Converter) ConvertMinor(amount int64, from, to string) (int64, error) {
	converted, err := c.Convert(decimal.NewFromInt(amount), from, to)
	if err != nil {
		return 0, err
	}
	return converted.Round(0).IntPart(), nil
}

// FromMinor expresses minor units as a major unit decimal, e.g. 12000 -> 120.
func FromMinor(amount int64) decimal.Decimal {
	return decimal.New(amount, -2)
}

// ToMinor rounds a major unit decimal to minor units.
func ToMinor(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
