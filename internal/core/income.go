package core

import (
	"strings"
)

type (
	// IncomeSource is a recurring income definition. The estimated monthly
	// bands are derived by the engine and are never read back as inputs.
	IncomeSource struct {
		ID                  string       `json:"id"`
		Owner               string       `json:"owner"`
		Name                string       `json:"name"`
		Kind                IncomeKind   `json:"kind"`
		PayFrequency        Frequency    `json:"pay_frequency"`
		BaseAmount          Money        `json:"base_amount"`
		HoursPerWeek        float64      `json:"hours_per_week,omitempty"`
		IsCommission        bool         `json:"is_commission,omitempty"`
		CommissionLow       Money        `json:"commission_low"`
		CommissionHigh      Money        `json:"commission_high"`
		CommissionFrequency float64      `json:"commission_frequency_per_period,omitempty"`
		Status              SourceStatus `json:"status"`
		StartDate           Date         `json:"start_date"`
		EndDate             Date         `json:"end_date"`
		InitialPayment      Money        `json:"initial_payment"`
		FinalPayment        Money        `json:"final_payment"`
		FinalPaymentDate    Date         `json:"final_payment_date"`
	}

	// SideProject earnings are realized (current) or hoped-for (projected).
	SideProject struct {
		ID                       string       `json:"id"`
		Owner                    string       `json:"owner"`
		Name                     string       `json:"name"`
		Status                   SourceStatus `json:"status"`
		CurrentMonthlyEarnings   Money        `json:"current_monthly_earnings"`
		ProjectedMonthlyEarnings Money        `json:"projected_monthly_earnings"`
	}

	RecurringExpense struct {
		ID        string    `json:"id"`
		Owner     string    `json:"owner"`
		Name      string    `json:"name"`
		Amount    Money     `json:"amount"`
		Cadence   Frequency `json:"cadence"`
		Category  string    `json:"category"`
		StartDate Date      `json:"start_date"`
		EndDate   Date      `json:"end_date"`
	}
)

// CommissionBased reports whether the commission bands apply to s.
func (s IncomeSource) CommissionBased() bool {
	return s.IsCommission || s.Kind == KindCommission
}

// ActiveOn reports whether s contributes to the steady-state estimate on day.
func (s IncomeSource) ActiveOn(day Date) bool {
	if s.Status != StatusActive {
		return false
	}
	if !s.EndDate.IsEmpty() && s.EndDate.Before(day.Time) {
		return false
	}
	return true
}

func (s IncomeSource) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return Invalid("id", "must not be empty")
	}
	if !s.Kind.IsValid() {
		return Invalid("kind", "unknown income kind "+string(s.Kind))
	}
	if !s.PayFrequency.IsValidPayFrequency() {
		return Invalid("pay_frequency", "unknown pay frequency "+string(s.PayFrequency))
	}
	if !s.Status.IsValid() {
		return Invalid("status", "unknown status "+string(s.Status))
	}
	if s.BaseAmount.IsNegative() {
		return Invalid("base_amount", "must be non-negative")
	}
	if s.HoursPerWeek < 0 {
		return Invalid("hours_per_week", "must be non-negative")
	}
	if s.CommissionBased() {
		if s.CommissionLow.IsNegative() || s.CommissionHigh.IsNegative() {
			return Invalid("commission_range", "must be non-negative")
		}
		if s.CommissionHigh.Cents < s.CommissionLow.Cents {
			return Invalid("commission_range", "high must not be below low")
		}
		if s.CommissionFrequency < 0 {
			return Invalid("commission_frequency_per_period", "must be non-negative")
		}
	}
	if s.InitialPayment.IsNegative() || s.FinalPayment.IsNegative() {
		return Invalid("contract_payment", "must be non-negative")
	}
	if !s.StartDate.IsEmpty() && !s.EndDate.IsEmpty() && s.EndDate.Before(s.StartDate.Time) {
		return Invalid("end_date", "must not be before start date")
	}
	return nil
}

func (p SideProject) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return Invalid("id", "must not be empty")
	}
	if !p.Status.IsValid() {
		return Invalid("status", "unknown status "+string(p.Status))
	}
	if p.CurrentMonthlyEarnings.IsNegative() || p.ProjectedMonthlyEarnings.IsNegative() {
		return Invalid("earnings", "must be non-negative")
	}
	return nil
}

// ActiveOn reports whether the expense is in force on day.
func (e RecurringExpense) ActiveOn(day Date) bool {
	if !e.StartDate.IsEmpty() && e.StartDate.After(day.Time) {
		return false
	}
	if !e.EndDate.IsEmpty() && e.EndDate.Before(day.Time) {
		return false
	}
	return true
}

func (e RecurringExpense) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return Invalid("id", "must not be empty")
	}
	if e.Amount.IsNegative() {
		return Invalid("amount", "must be non-negative")
	}
	if !e.Cadence.IsValidCadence() {
		return Invalid("cadence", "unknown cadence "+string(e.Cadence))
	}
	if len(e.Name) > 200 {
		return Invalid("name", "too long (max 200 characters)")
	}
	if !e.StartDate.IsEmpty() && !e.EndDate.IsEmpty() && e.EndDate.Before(e.StartDate.Time) {
		return Invalid("end_date", "must not be before start date")
	}
	return nil
}
