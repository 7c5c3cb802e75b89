package services

import (
	"fmt"

	"risparmi/internal/core"
)

// PlanApply returns the planner that credits a one-time income to a goal on
// asOf. The planner is pure; the store runs it inside its atomic section.
//
// The credited amount never pushes the goal past its target. Whatever does
// not fit is returned as ExcessAmount, so excess plus the new balance always
// equals the old balance plus the income amount.
func PlanApply(asOf core.Date) core.ApplyPlanner {
	return func(goal core.FinancialGoal, income core.OneTimeIncome) (core.ApplyResult, error) {
		if income.AppliedToGoals {
			return core.ApplyResult{}, fmt.Errorf("income %s: %w", income.ID, core.ErrAlreadyApplied)
		}
		if goal.Owner != income.Owner {
			return core.ApplyResult{}, core.NotFound("goal", goal.ID)
		}
		if !income.Amount.IsPositive() {
			return core.ApplyResult{}, fmt.Errorf("income %s: %w", income.ID, core.Invalid("amount", "must be positive"))
		}

		credited := core.MinMoney(income.Amount, goal.Remaining())
		goal.CurrentAmount = goal.CurrentAmount.Add(credited)

		income.AppliedToGoals = true
		income.GoalID = goal.ID
		income.AppliedAmount = credited
		income.AppliedAt = asOf

		return core.ApplyResult{
			Goal:         goal,
			Income:       income,
			ExcessAmount: income.Amount.Sub(credited),
		}, nil
	}
}
