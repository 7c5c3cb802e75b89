package services

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"risparmi/internal/core"
)

var two = decimal.NewFromInt(2)

// AggregateIncome normalizes the owner's income sources and side projects
// into monthly low/mid/high estimates as of asOf.
func (e *Engine) AggregateIncome(sources []core.IncomeSource, projects []core.SideProject, asOf core.Date) (core.IncomeSummary, error) {
	out := core.IncomeSummary{
		AsOf:             asOf,
		Sources:          []core.SourceEstimate{},
		ContractPayments: []core.ContractPayment{},
	}

	for _, s := range sources {
		if err := s.Validate(); err != nil {
			return core.IncomeSummary{}, fmt.Errorf("income source %s: %w", s.ID, err)
		}

		if s.Status != core.StatusPaused {
			for _, p := range contractPayments(s) {
				out.ContractPayments = append(out.ContractPayments, p)
				if p.Date.SameMonth(asOf) {
					out.ContractPaymentsThisMonth = out.ContractPaymentsThisMonth.Add(p.Amount)
				}
			}
		}

		if !s.ActiveOn(asOf) {
			continue
		}
		est, err := e.estimateSource(s)
		if err != nil {
			return core.IncomeSummary{}, fmt.Errorf("income source %s: %w", s.ID, err)
		}
		out.Sources = append(out.Sources, est)
		out.TotalMonthlyLow = out.TotalMonthlyLow.Add(est.MonthlyEstimate.Low)
		out.TotalMonthlyMid = out.TotalMonthlyMid.Add(est.MonthlyEstimate.Mid)
		out.TotalMonthlyHigh = out.TotalMonthlyHigh.Add(est.MonthlyEstimate.High)
		if est.Commission || s.PayFrequency == core.Variable {
			out.HasVariableIncome = true
		}
	}

	for _, p := range projects {
		if err := p.Validate(); err != nil {
			return core.IncomeSummary{}, fmt.Errorf("side project %s: %w", p.ID, err)
		}
		if p.Status != core.StatusActive {
			continue
		}
		out.SideProjectMonthly = out.SideProjectMonthly.Add(p.CurrentMonthlyEarnings)
		out.ProjectedSideProjectMonthly = out.ProjectedSideProjectMonthly.Add(p.ProjectedMonthlyEarnings)
	}
	out.TotalMonthlyLow = out.TotalMonthlyLow.Add(out.SideProjectMonthly)
	out.TotalMonthlyMid = out.TotalMonthlyMid.Add(out.SideProjectMonthly)
	out.TotalMonthlyHigh = out.TotalMonthlyHigh.Add(out.SideProjectMonthly)

	sort.SliceStable(out.ContractPayments, func(i, j int) bool {
		a, b := out.ContractPayments[i], out.ContractPayments[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.Before(b.Date.Time)
		}
		return a.SourceID < b.SourceID
	})
	return out, nil
}

// EstimateSource returns the monthly bands of a single source regardless of
// its status. Stores use it to refresh the derived estimate columns.
func (e *Engine) EstimateSource(s core.IncomeSource) (core.SourceEstimate, error) {
	if err := s.Validate(); err != nil {
		return core.SourceEstimate{}, err
	}
	return e.estimateSource(s)
}

func (e *Engine) estimateSource(s core.IncomeSource) (core.SourceEstimate, error) {
	est := core.SourceEstimate{
		ID:           s.ID,
		Name:         s.Name,
		Kind:         s.Kind,
		PayFrequency: s.PayFrequency,
		Commission:   s.CommissionBased(),
	}

	base, err := e.baseMonthly(s)
	if err != nil {
		return core.SourceEstimate{}, err
	}

	if !est.Commission {
		m := core.FromDecimal(base)
		est.MonthlyEstimate = core.MonthlyBand{Low: m, Mid: m, High: m}
		return est, nil
	}

	ppm, err := e.periods.PerMonth(s.PayFrequency)
	if err != nil {
		return core.SourceEstimate{}, err
	}
	perPeriod := decimal.NewFromFloat(s.CommissionFrequency)
	low := s.CommissionLow.Decimal().Mul(perPeriod).Mul(ppm).Add(base)
	high := s.CommissionHigh.Decimal().Mul(perPeriod).Mul(ppm).Add(base)
	mid := low.Add(high).Div(two)

	est.MonthlyEstimate = core.MonthlyBand{
		Low:  core.FromDecimal(low),
		Mid:  core.FromDecimal(mid),
		High: core.FromDecimal(high),
	}
	return est, nil
}

// baseMonthly is the fixed part of a source in currency units per month.
func (e *Engine) baseMonthly(s core.IncomeSource) (decimal.Decimal, error) {
	if s.Kind == core.KindHourly && s.HoursPerWeek > 0 {
		weekly := s.BaseAmount.Decimal().Mul(decimal.NewFromFloat(s.HoursPerWeek))
		ppm, err := e.periods.PerMonth(core.Weekly)
		if err != nil {
			return decimal.Zero, err
		}
		return weekly.Mul(ppm), nil
	}
	return e.periods.Monthly(s.BaseAmount, s.PayFrequency)
}

func contractPayments(s core.IncomeSource) []core.ContractPayment {
	var out []core.ContractPayment
	if s.InitialPayment.IsPositive() && !s.StartDate.IsEmpty() {
		out = append(out, core.ContractPayment{
			SourceID: s.ID,
			Kind:     core.ContractInitial,
			Amount:   s.InitialPayment,
			Date:     s.StartDate,
		})
	}
	if s.FinalPayment.IsPositive() {
		when := s.FinalPaymentDate
		if when.IsEmpty() {
			when = s.EndDate
		}
		if !when.IsEmpty() {
			out = append(out, core.ContractPayment{
				SourceID: s.ID,
				Kind:     core.ContractFinal,
				Amount:   s.FinalPayment,
				Date:     when,
			})
		}
	}
	return out
}
