package services

import (
	"sort"

	"github.com/shopspring/decimal"

	"risparmi/internal/core"
)

// ResolveBreakdown decomposes the balance of goal into one-time credits,
// accrued interest and recurring surplus. incomes are the owner's one-time
// incomes; those applied to other goals are ignored.
//
// No allocation history is stored. Only the one-time lines come from
// records: interest and recurring surplus are derived from what is left of
// the balance, so the recurring line absorbs everything else and the
// breakdown can only be inconsistent when the one-time credits exceed the
// balance net of the manual adjustment.
func (e *Engine) ResolveBreakdown(
	goal core.FinancialGoal,
	projection core.GoalProjection,
	incomes []core.OneTimeIncome,
	asOf core.Date,
) core.GoalBreakdown {
	out := core.GoalBreakdown{
		GoalID:              goal.ID,
		TargetAmount:        goal.TargetAmount,
		CurrentAmount:       goal.CurrentAmount,
		Remaining:           goal.Remaining(),
		Contributions:       []core.Contribution{},
		MonthlyContribution: projection.MonthlyContribution,
		ProjectedCompletion: projection.ProjectedCompletionDate,
		ManualAdjustment:    goal.ManualAdjustment,
		Consistent:          true,
	}

	applied := make([]core.OneTimeIncome, 0, len(incomes))
	for _, in := range incomes {
		if in.AppliedToGoals && in.GoalID == goal.ID {
			applied = append(applied, in)
		}
	}
	sort.Slice(applied, func(i, j int) bool {
		if !applied[i].IncomeDate.Equal(applied[j].IncomeDate.Time) {
			return applied[i].IncomeDate.Before(applied[j].IncomeDate.Time)
		}
		return applied[i].ID < applied[j].ID
	})

	var credited core.Money
	for _, in := range applied {
		out.Contributions = append(out.Contributions, core.Contribution{
			Kind:     core.ContributionOneTime,
			Amount:   in.AppliedAmount,
			Date:     in.IncomeDate,
			SourceID: in.ID,
		})
		credited = credited.Add(in.AppliedAmount)
	}

	rate := projection.MonthlyContribution
	balance := goal.CurrentAmount.Sub(goal.ManualAdjustment).Sub(credited)
	if balance.Cents < -e.tolerance.Cents {
		out.Consistent = false
		out.Discrepancy = core.Cents(-balance.Cents)
		out.Contributions = append(out.Contributions, core.Contribution{
			Kind:        core.ContributionRecurring,
			MonthlyRate: &rate,
		})
		return out
	}
	balance = balance.NonNegative()

	interest := accruedInterest(goal, balance, asOf)
	if interest.IsPositive() {
		out.Contributions = append(out.Contributions, core.Contribution{
			Kind:   core.ContributionInterest,
			Amount: interest,
			Date:   asOf,
		})
	}
	// Derived remainder, not a sum of recorded deposits.
	out.Contributions = append(out.Contributions, core.Contribution{
		Kind:        core.ContributionRecurring,
		Amount:      balance.Sub(interest),
		MonthlyRate: &rate,
	})
	return out
}

// accruedInterest is the part of balance explained by compounding when the
// balance was built from level monthly deposits since the goal start date.
func accruedInterest(goal core.FinancialGoal, balance core.Money, asOf core.Date) core.Money {
	r, ok := goal.MonthlyRate()
	if !ok || goal.StartDate.IsEmpty() || !balance.IsPositive() {
		return core.Money{}
	}
	m := goal.StartDate.MonthsUntil(asOf)
	if m <= 0 {
		return core.Money{}
	}
	b := balance.Decimal()
	deposit := b.Mul(r).Div(compound(r, m).Sub(one))
	interest := b.Sub(deposit.Mul(decimal.NewFromInt(int64(m))))
	return core.MinMoney(core.FromDecimal(interest).NonNegative(), balance)
}
