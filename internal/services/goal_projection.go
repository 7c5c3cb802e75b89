package services

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"risparmi/internal/core"
)

var one = decimal.NewFromInt(1)

// ProjectGoals distributes the monthly surplus over the goals and forecasts
// when each of them completes.
func (e *Engine) ProjectGoals(goals []core.FinancialGoal, surplus core.Money, asOf core.Date) (core.GoalProjections, error) {
	for _, g := range goals {
		if err := g.Validate(); err != nil {
			return core.GoalProjections{}, fmt.Errorf("goal %s: %w", g.ID, err)
		}
	}

	ordered := make([]core.FinancialGoal, len(goals))
	copy(ordered, goals)
	sortWaterfall(ordered)

	alloc, unallocated := allocateSurplus(ordered, surplus.NonNegative(), asOf)

	out := core.GoalProjections{
		AsOf:               asOf,
		MonthlySurplus:     surplus,
		UnallocatedSurplus: unallocated,
		Goals:              make([]core.GoalProjection, 0, len(ordered)),
	}
	for i, g := range ordered {
		p := projectGoal(g, alloc[i], asOf)
		p.Rank = i + 1
		out.Allocated = out.Allocated.Add(alloc[i])
		out.Goals = append(out.Goals, p)
	}
	return out, nil
}

// sortWaterfall orders goals by priority desc, urgency desc, deadline asc
// with missing deadlines last, then id.
func sortWaterfall(goals []core.FinancialGoal) {
	sort.SliceStable(goals, func(i, j int) bool {
		a, b := goals[i], goals[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() > b.Priority.Rank()
		}
		if a.Urgency() != b.Urgency() {
			return a.Urgency() > b.Urgency()
		}
		switch {
		case a.Deadline.IsEmpty() && !b.Deadline.IsEmpty():
			return false
		case !a.Deadline.IsEmpty() && b.Deadline.IsEmpty():
			return true
		case !a.Deadline.Equal(b.Deadline.Time):
			return a.Deadline.Before(b.Deadline.Time)
		}
		return a.ID < b.ID
	})
}

// allocateSurplus runs the two-pass waterfall over goals already in order.
// The returned allocations plus the unallocated amount always equal pool.
func allocateSurplus(goals []core.FinancialGoal, pool core.Money, asOf core.Date) ([]core.Money, core.Money) {
	alloc := make([]core.Money, len(goals))

	for i, g := range goals {
		if !pool.IsPositive() {
			break
		}
		give := core.MinMoney(desiredMonthly(g, asOf), pool)
		alloc[i] = give
		pool = pool.Sub(give)
	}

	need := make([]core.Money, len(goals))
	var totalNeed core.Money
	for i, g := range goals {
		need[i] = g.Remaining().Sub(alloc[i]).NonNegative()
		totalNeed = totalNeed.Add(need[i])
	}

	if pool.Cents >= totalNeed.Cents {
		for i := range goals {
			alloc[i] = alloc[i].Add(need[i])
		}
		return alloc, pool.Sub(totalNeed)
	}
	if !pool.IsPositive() {
		return alloc, core.Money{}
	}

	poolD := decimal.NewFromInt(pool.Cents)
	totalD := decimal.NewFromInt(totalNeed.Cents)
	share := make([]int64, len(goals))
	var handed int64
	for i := range goals {
		if !need[i].IsPositive() {
			continue
		}
		share[i] = poolD.Mul(decimal.NewFromInt(need[i].Cents)).Div(totalD).Floor().IntPart()
		handed += share[i]
	}
	residue := pool.Cents - handed
	for i := 0; residue > 0 && i < len(goals); i++ {
		if share[i] < need[i].Cents {
			share[i]++
			residue--
		}
	}
	for i := range goals {
		alloc[i] = alloc[i].Add(core.Cents(share[i]))
	}
	return alloc, core.Money{}
}

// desiredMonthly is what the first pass tries to give g: its configured
// monthly target, the even split of the remaining amount until the
// deadline, or the whole remaining amount when it has neither. Never more
// than what is still missing.
func desiredMonthly(g core.FinancialGoal, asOf core.Date) core.Money {
	remaining := g.Remaining()
	desired := remaining
	switch {
	case g.MonthlyTarget != nil:
		desired = *g.MonthlyTarget
	case !g.Deadline.IsEmpty():
		months := max(asOf.MonthsUntil(g.Deadline), 1)
		desired = core.FromDecimal(remaining.Decimal().Div(decimal.NewFromInt(int64(months))))
	}
	return core.MinMoney(desired.NonNegative(), remaining)
}

func projectGoal(g core.FinancialGoal, contribution core.Money, asOf core.Date) core.GoalProjection {
	remaining := g.Remaining()
	p := core.GoalProjection{
		GoalID:              g.ID,
		Priority:            g.Priority,
		TargetAmount:        g.TargetAmount,
		CurrentAmount:       g.CurrentAmount,
		Remaining:           remaining,
		ProgressPercentage:  percent(g.CurrentAmount, g.TargetAmount),
		MonthlyContribution: contribution,
		Deadline:            g.Deadline,
	}

	if !remaining.IsPositive() {
		zero := 0
		p.ProgressPercentage = 100
		p.MonthsRemaining = &zero
		p.ProjectedCompletionDate = asOf
		p.OnTrack = true
		return p
	}

	if !g.Deadline.IsEmpty() {
		req := requiredMonthly(g, asOf)
		p.RequiredMonthlyContribution = &req
		daily := remaining
		if days := asOf.DaysUntil(g.Deadline); days > 0 {
			daily = core.FromDecimal(remaining.Decimal().Div(decimal.NewFromInt(int64(days))))
		}
		p.RequiredDailyContribution = &daily
	}

	if !contribution.IsPositive() {
		p.Unreachable = true
		return p
	}

	n := monthsToTarget(g, contribution)
	if n > monthsToCalendarEnd(asOf) {
		p.Unreachable = true
		return p
	}
	p.MonthsRemaining = &n
	p.ProjectedCompletionDate = asOf.AddMonths(n)
	p.OnTrack = g.Deadline.IsEmpty() || !p.ProjectedCompletionDate.After(g.Deadline.Time)
	return p
}

// monthsToCalendarEnd is the largest month offset from asOf whose date still
// has a four-digit year.
func monthsToCalendarEnd(asOf core.Date) int {
	return (9999-asOf.Year())*12 + 12 - asOf.Month()
}

// monthsToTarget returns the number of monthly deposits of c needed to reach
// the target, compounding monthly when the goal carries an interest rate.
// c must be positive.
func monthsToTarget(g core.FinancialGoal, c core.Money) int {
	remaining := g.Remaining()
	r, ok := g.MonthlyRate()
	if !ok {
		return int((remaining.Cents + c.Cents - 1) / c.Cents)
	}

	target := g.TargetAmount.Decimal()
	cur := g.CurrentAmount.Decimal()
	dep := c.Decimal()

	num := target.Mul(r).Add(dep).InexactFloat64()
	den := cur.Mul(r).Add(dep).InexactFloat64()
	n := int(math.Ceil(math.Log(num/den) / math.Log1p(r.InexactFloat64())))
	n = max(n, 1)

	// Float rounding may land one month off; settle it on exact decimals.
	for n > 1 && futureValue(cur, dep, r, n-1).GreaterThanOrEqual(target) {
		n--
	}
	for futureValue(cur, dep, r, n).LessThan(target) {
		n++
	}
	return n
}

// futureValue is the balance after n monthly deposits of c on top of
// current, compounding at r per month.
func futureValue(current, c, r decimal.Decimal, n int) decimal.Decimal {
	growth := compound(r, n)
	return current.Mul(growth).Add(c.Mul(growth.Sub(one)).Div(r))
}

// requiredMonthly is the level deposit that reaches the target by the
// deadline. Deadlines less than a month away count as one month.
func requiredMonthly(g core.FinancialGoal, asOf core.Date) core.Money {
	remaining := g.Remaining()
	months := max(asOf.MonthsUntil(g.Deadline), 1)
	r, ok := g.MonthlyRate()
	if !ok {
		return core.FromDecimal(remaining.Decimal().Div(decimal.NewFromInt(int64(months))))
	}
	growth := compound(r, months)
	short := g.TargetAmount.Decimal().Sub(g.CurrentAmount.Decimal().Mul(growth))
	if !short.IsPositive() {
		return core.Money{}
	}
	return core.FromDecimal(short.Mul(r).Div(growth.Sub(one)))
}

// compound returns (1+r)^n by squaring, rounded at each step.
func compound(r decimal.Decimal, n int) decimal.Decimal {
	const places = 20
	result, base := one, one.Add(r)
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base).Round(places)
		}
		base = base.Mul(base).Round(places)
		n >>= 1
	}
	return result
}
