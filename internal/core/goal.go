package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

type (
	FinancialGoal struct {
		ID            string   `json:"id"`
		Owner         string   `json:"owner"`
		Title         string   `json:"title"`
		TargetAmount  Money    `json:"target_amount"`
		CurrentAmount Money    `json:"current_amount"`
		Deadline      Date     `json:"deadline"`
		Priority      Priority `json:"priority"`
		UrgencyScore  int      `json:"urgency_score,omitempty"`
		// InterestRate is an annual percentage; invalid means no interest.
		InterestRate     decimal.NullDecimal `json:"interest_rate"`
		StartDate        Date                `json:"start_date"`
		MonthlyTarget    *Money              `json:"monthly_target,omitempty"`
		ManualAdjustment Money               `json:"manual_adjustment"`
	}

	OneTimeIncome struct {
		ID             string        `json:"id"`
		Owner          string        `json:"owner"`
		Amount         Money         `json:"amount"`
		Description    string        `json:"description"`
		Source         OneTimeSource `json:"source"`
		IncomeDate     Date          `json:"income_date"`
		AppliedToGoals bool          `json:"applied_to_goals"`
		GoalID         string        `json:"goal_id,omitempty"`
		Notes          string        `json:"notes,omitempty"`
		AppliedAmount  Money         `json:"applied_amount"`
		AppliedAt      Date          `json:"applied_at"`
	}
)

// Urgency returns the urgency score, defaulting unset scores.
func (g FinancialGoal) Urgency() int {
	if g.UrgencyScore == 0 {
		return DefaultUrgency
	}
	return g.UrgencyScore
}

// Remaining is the amount still missing to reach the target, never negative.
func (g FinancialGoal) Remaining() Money {
	return g.TargetAmount.Sub(g.CurrentAmount).NonNegative()
}

// MonthlyRate returns the monthly interest rate as a fraction and whether
// the goal accrues interest at all.
func (g FinancialGoal) MonthlyRate() (decimal.Decimal, bool) {
	if !g.InterestRate.Valid || !g.InterestRate.Decimal.IsPositive() {
		return decimal.Zero, false
	}
	return g.InterestRate.Decimal.Div(decimal.NewFromInt(1200)), true
}

func (g FinancialGoal) Validate() error {
	if strings.TrimSpace(g.ID) == "" {
		return Invalid("id", "must not be empty")
	}
	if !g.TargetAmount.IsPositive() {
		return Invalid("target_amount", "must be positive")
	}
	if g.CurrentAmount.IsNegative() {
		return Invalid("current_amount", "must be non-negative")
	}
	if !g.Priority.IsValid() {
		return Invalid("priority", "unknown priority "+string(g.Priority))
	}
	if u := g.Urgency(); u < 1 || u > 5 {
		return Invalid("urgency_score", "must be between 1 and 5")
	}
	if g.InterestRate.Valid && g.InterestRate.Decimal.IsNegative() {
		return Invalid("interest_rate", "must be non-negative")
	}
	if g.MonthlyTarget != nil && g.MonthlyTarget.IsNegative() {
		return Invalid("monthly_target", "must be non-negative")
	}
	return nil
}

func (i OneTimeIncome) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return Invalid("id", "must not be empty")
	}
	if !i.Amount.IsPositive() {
		return Invalid("amount", "must be positive")
	}
	if !i.Source.IsValid() {
		return Invalid("source", "unknown source "+string(i.Source))
	}
	if i.AppliedToGoals != (i.GoalID != "") {
		return Invalid("goal_id", "must be set exactly when applied")
	}
	return nil
}
