// Package services implements the allocation and projection engine.
//
// This file holds the periods-per-month registry used to normalize pay
// frequencies and expense cadences into monthly figures.

package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"risparmi/internal/core"
)

// PeriodTable maps a frequency to the number of its periods in one month.
type PeriodTable map[core.Frequency]decimal.Decimal

// DefaultPeriodTable returns the built-in normalization constants.
func DefaultPeriodTable() PeriodTable {
	return PeriodTable{
		core.Weekly:      decimal.RequireFromString("4.33"),
		core.Biweekly:    decimal.RequireFromString("2.167"),
		core.Semimonthly: decimal.NewFromInt(2),
		core.Monthly:     decimal.NewFromInt(1),
		core.Variable:    decimal.NewFromInt(1),
		core.Daily:       decimal.NewFromInt(365).Div(decimal.NewFromInt(12)),
		core.Quarterly:   decimal.NewFromInt(1).Div(decimal.NewFromInt(3)),
		core.Yearly:      decimal.NewFromInt(1).Div(decimal.NewFromInt(12)),
	}
}

// PerMonth returns the periods-per-month factor for f.
func (t PeriodTable) PerMonth(f core.Frequency) (decimal.Decimal, error) {
	ppm, ok := t[f]
	if !ok {
		return decimal.Zero, core.Invalid("frequency", fmt.Sprintf("unknown frequency %q", f))
	}
	return ppm, nil
}

// Monthly converts a per-period amount into currency units per month.
func (t PeriodTable) Monthly(amount core.Money, f core.Frequency) (decimal.Decimal, error) {
	ppm, err := t.PerMonth(f)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Decimal().Mul(ppm), nil
}

// Override returns a copy of t with the given factors replaced.
func (t PeriodTable) Override(factors map[core.Frequency]decimal.Decimal) PeriodTable {
	out := make(PeriodTable, len(t))
	for f, v := range t {
		out[f] = v
	}
	for f, v := range factors {
		out[f] = v
	}
	return out
}

// Validate checks that every known frequency has a positive factor.
func (t PeriodTable) Validate() error {
	all := []core.Frequency{
		core.Daily, core.Weekly, core.Biweekly, core.Semimonthly,
		core.Monthly, core.Quarterly, core.Yearly, core.Variable,
	}
	for _, f := range all {
		v, ok := t[f]
		if !ok {
			return core.Invalid("periods_per_month", fmt.Sprintf("missing factor for %s", f))
		}
		if !v.IsPositive() {
			return core.Invalid("periods_per_month", fmt.Sprintf("factor for %s must be positive", f))
		}
	}
	for f := range t {
		if !f.IsValidCadence() && !f.IsValidPayFrequency() {
			return core.Invalid("periods_per_month", fmt.Sprintf("unknown frequency %q", f))
		}
	}
	return nil
}
