package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"risparmi/internal/core"
)

var hundred = decimal.NewFromInt(100)

// DailyTarget condenses the three aggregates and the reserve settings into
// the amount to act on today. DerivedMetrics is computed from the same inputs.
func (e *Engine) DailyTarget(
	income core.IncomeSummary,
	expenses core.ExpenseSummary,
	accounts core.AccountSummary,
	settings core.UserSettings,
	asOf core.Date,
) (core.DailyTarget, core.DerivedMetrics, error) {
	if err := settings.Validate(); err != nil {
		return core.DailyTarget{}, core.DerivedMetrics{}, fmt.Errorf("settings: %w", err)
	}

	reserve := reserveFor(settings, accounts.TotalBalance)
	cushion := accounts.TotalBalance.Sub(reserve).NonNegative()
	surplus := income.TotalMonthlyMid.Sub(expenses.TotalMonthlyExpenses)
	days := asOf.DaysInMonth()

	out := core.DailyTarget{
		AsOf:                    asOf,
		MonthlySurplus:          surplus,
		SavingsRate:             savingsRate(surplus, income.TotalMonthlyMid),
		FinancialCushion:        cushion,
		Reserve:                 reserve,
		TotalMonthlyObligations: expenses.TotalMonthlyExpenses,
		DaysInMonth:             days,
		IsDeficit:               surplus.IsNegative(),
	}
	if surplus.IsPositive() {
		out.DailyTarget = core.FromDecimal(surplus.Decimal().Div(decimal.NewFromInt(int64(days))))
	} else {
		out.DailyTarget = settings.DailyBudgetTarget
		out.UsedFallback = true
	}

	metrics := core.DerivedMetrics{
		TotalMonthlyIncome:      income.TotalMonthlyMid,
		TotalMonthlyExpenses:    expenses.TotalMonthlyExpenses,
		MonthlySurplus:          surplus,
		SavingsRate:             out.SavingsRate,
		FinancialCushion:        cushion,
		TotalMonthlyObligations: expenses.TotalMonthlyExpenses,
	}
	return out, metrics, nil
}

func reserveFor(settings core.UserSettings, total core.Money) core.Money {
	if settings.BankReserveType == core.ReservePercentage {
		pct := settings.BankReserveAmount.Div(hundred)
		return core.FromDecimal(total.NonNegative().Decimal().Mul(pct))
	}
	return core.FromDecimal(settings.BankReserveAmount)
}

// savingsRate is surplus/income as a percentage clamped to [0, 100].
func savingsRate(surplus, income core.Money) float64 {
	if !income.IsPositive() {
		return 0
	}
	return percent(surplus, income)
}

func percent(part, whole core.Money) float64 {
	if !whole.IsPositive() {
		return 0
	}
	p := part.Decimal().Div(whole.Decimal()).Mul(hundred)
	switch {
	case p.IsNegative():
		p = decimal.Zero
	case p.GreaterThan(hundred):
		p = hundred
	}
	return p.Round(2).InexactFloat64()
}
