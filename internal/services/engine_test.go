package services

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"risparmi/internal/core"
)

var asOf = core.NewDate(2026, 10, 16)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultEngineConfig())
	require.NoError(t, err)
	return e
}

func salary(id string, amount core.Money, f core.Frequency) core.IncomeSource {
	return core.IncomeSource{
		ID: id, Owner: "u1", Name: id, Kind: core.KindSalary,
		PayFrequency: f, BaseAmount: amount, Status: core.StatusActive,
	}
}

func TestNewEngineRejectsBadConfig(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.Periods = cfg.Periods.Override(map[core.Frequency]decimal.Decimal{core.Weekly: decimal.Zero})
	_, err := NewEngine(cfg)
	assert.ErrorIs(t, err, core.ErrValidation)

	cfg = DefaultEngineConfig()
	cfg.BreakdownTolerance = core.Cents(-1)
	_, err = NewEngine(cfg)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestAggregateIncomeNonCommissionBandsEqual(t *testing.T) {
	e := newEngine(t)
	hourly := core.IncomeSource{
		ID: "h", Owner: "u1", Kind: core.KindHourly, PayFrequency: core.Weekly,
		BaseAmount: core.Dollars(25), HoursPerWeek: 40, Status: core.StatusActive,
	}
	sources := []core.IncomeSource{
		salary("a", core.Dollars(5000), core.Monthly),
		salary("b", core.Dollars(2000), core.Biweekly),
		salary("c", core.Dollars(1000), core.Semimonthly),
		hourly,
	}

	sum, err := e.AggregateIncome(sources, nil, asOf)
	require.NoError(t, err)

	// 5000 + 2000*2.167 + 1000*2 + 25*40*4.33
	want := core.Dollars(5000 + 4334 + 2000 + 4330)
	assert.Equal(t, want, sum.TotalMonthlyMid)
	assert.Equal(t, sum.TotalMonthlyMid, sum.TotalMonthlyLow)
	assert.Equal(t, sum.TotalMonthlyMid, sum.TotalMonthlyHigh)
	assert.False(t, sum.HasVariableIncome)
	assert.Len(t, sum.Sources, 4)
}

func TestAggregateIncomeCommissionBands(t *testing.T) {
	e := newEngine(t)
	s := core.IncomeSource{
		ID: "c", Owner: "u1", Kind: core.KindCommission, PayFrequency: core.Biweekly,
		IsCommission: true, CommissionLow: core.Dollars(500), CommissionHigh: core.Dollars(2000),
		CommissionFrequency: 2, Status: core.StatusActive,
	}

	sum, err := e.AggregateIncome([]core.IncomeSource{s}, nil, asOf)
	require.NoError(t, err)

	assert.Equal(t, core.Dollars(2167), sum.TotalMonthlyLow)
	assert.Equal(t, core.Dollars(8668), sum.TotalMonthlyHigh)
	assert.Equal(t, core.Cents(541750), sum.TotalMonthlyMid)
	assert.True(t, sum.HasVariableIncome)
}

func TestIncomeSummarySourcesJSON(t *testing.T) {
	e := newEngine(t)
	s := core.IncomeSource{
		ID: "c", Owner: "u1", Name: "Acme sales", Kind: core.KindCommission, PayFrequency: core.Biweekly,
		IsCommission: true, CommissionLow: core.Dollars(500), CommissionHigh: core.Dollars(2000),
		CommissionFrequency: 2, Status: core.StatusActive,
	}

	sum, err := e.AggregateIncome([]core.IncomeSource{s}, nil, asOf)
	require.NoError(t, err)
	require.Len(t, sum.Sources, 1)

	data, err := json.Marshal(sum.Sources[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "c",
		"name": "Acme sales",
		"kind": "commission",
		"payFrequency": "biweekly",
		"commission": true,
		"monthlyEstimate": {"low": 2167.00, "mid": 5417.50, "high": 8668.00}
	}`, string(data))
}

func TestAggregateIncomeStatusAndSideProjects(t *testing.T) {
	e := newEngine(t)
	paused := salary("p", core.Dollars(900), core.Monthly)
	paused.Status = core.StatusPaused
	paused.InitialPayment = core.Dollars(50)
	paused.StartDate = core.NewDate(2026, 10, 1)

	ended := salary("e", core.Dollars(800), core.Monthly)
	ended.StartDate = core.NewDate(2026, 1, 1)
	ended.EndDate = core.NewDate(2026, 9, 30)
	ended.FinalPayment = core.Dollars(300)
	ended.FinalPaymentDate = core.NewDate(2026, 10, 5)

	contract := salary("k", core.Dollars(1000), core.Monthly)
	contract.Kind = core.KindFreelance
	contract.StartDate = core.NewDate(2026, 10, 1)
	contract.InitialPayment = core.Dollars(200)

	projects := []core.SideProject{
		{ID: "sp1", Owner: "u1", Status: core.StatusActive, CurrentMonthlyEarnings: core.Dollars(100), ProjectedMonthlyEarnings: core.Dollars(400)},
		{ID: "sp2", Owner: "u1", Status: core.StatusPaused, CurrentMonthlyEarnings: core.Dollars(999)},
	}

	sum, err := e.AggregateIncome([]core.IncomeSource{paused, ended, contract}, projects, asOf)
	require.NoError(t, err)

	assert.Equal(t, core.Dollars(1100), sum.TotalMonthlyMid)
	assert.Equal(t, core.Dollars(1100), sum.TotalMonthlyLow)
	assert.Equal(t, core.Dollars(100), sum.SideProjectMonthly)
	assert.Equal(t, core.Dollars(400), sum.ProjectedSideProjectMonthly)

	require.Len(t, sum.ContractPayments, 2)
	assert.Equal(t, "k", sum.ContractPayments[0].SourceID)
	assert.Equal(t, core.ContractInitial, sum.ContractPayments[0].Kind)
	assert.Equal(t, "e", sum.ContractPayments[1].SourceID)
	assert.Equal(t, core.Dollars(500), sum.ContractPaymentsThisMonth)
}

func TestAggregateIncomeRejectsUnknownEnums(t *testing.T) {
	e := newEngine(t)
	bad := salary("x", core.Dollars(1), core.Frequency("fortnightly-ish"))
	_, err := e.AggregateIncome([]core.IncomeSource{bad}, nil, asOf)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestAggregateExpenses(t *testing.T) {
	e := newEngine(t)
	expenses := []core.RecurringExpense{
		{ID: "rent", Owner: "u1", Name: "Rent", Amount: core.Dollars(1500), Cadence: core.Monthly, Category: "housing"},
		{ID: "food", Owner: "u1", Name: "Food", Amount: core.Dollars(100), Cadence: core.Weekly, Category: "food"},
		{ID: "ins", Owner: "u1", Name: "Insurance", Amount: core.Dollars(1200), Cadence: core.Yearly},
		{ID: "old", Owner: "u1", Name: "Gym", Amount: core.Dollars(50), Cadence: core.Monthly, EndDate: core.NewDate(2026, 1, 1)},
	}

	sum, err := e.AggregateExpenses(expenses, asOf)
	require.NoError(t, err)

	assert.Equal(t, core.Dollars(1500+433+100), sum.TotalMonthlyExpenses)
	assert.Len(t, sum.Items, 3)
	require.Len(t, sum.ByCategory, 3)
	assert.Equal(t, "housing", sum.ByCategory[0].Name)
	assert.Equal(t, "food", sum.ByCategory[1].Name)
	assert.Equal(t, uncategorized, sum.ByCategory[2].Name)
}

func TestSummarizeAccounts(t *testing.T) {
	e := newEngine(t)
	accounts := []core.FinancialAccount{
		{ID: "c1", Owner: "u1", AccountType: core.AccountChecking, Balance: core.Dollars(1000)},
		{ID: "c2", Owner: "u1", AccountType: core.AccountChecking, Balance: core.Dollars(500), IsPrimary: true},
		{ID: "s1", Owner: "u1", AccountType: core.AccountSavings, Balance: core.Dollars(4000), IsPrimary: true},
	}

	sum, err := e.SummarizeAccounts(accounts)
	require.NoError(t, err)
	assert.Equal(t, core.Dollars(5500), sum.TotalBalance)
	assert.Equal(t, core.Dollars(1500), sum.CheckingBalance)
	assert.Equal(t, core.Dollars(4000), sum.SavingsBalance)
	assert.Equal(t, 2, sum.CheckingCount)
	assert.Equal(t, "c2", sum.PrimaryCheckingID)
	assert.Equal(t, "s1", sum.PrimarySavingsID)
}

func TestDailyTargetSpreadsSurplus(t *testing.T) {
	e := newEngine(t)
	income := core.IncomeSummary{TotalMonthlyMid: core.Dollars(5000)}
	expenses := core.ExpenseSummary{TotalMonthlyExpenses: core.Dollars(3000)}
	accounts := core.AccountSummary{TotalBalance: core.Dollars(3000)}
	settings := core.DefaultSettings("u1")
	settings.BankReserveType = core.ReservePercentage
	settings.BankReserveAmount = decimal.NewFromInt(10)

	for _, day := range []core.Date{core.NewDate(2026, 2, 10), core.NewDate(2026, 4, 1), asOf} {
		daily, metrics, err := e.DailyTarget(income, expenses, accounts, settings, day)
		require.NoError(t, err)

		assert.Equal(t, core.Dollars(2000), daily.MonthlySurplus)
		assert.False(t, daily.UsedFallback)
		drift := daily.DailyTarget.Cents*int64(daily.DaysInMonth) - daily.MonthlySurplus.Cents
		assert.LessOrEqual(t, abs(drift), int64(daily.DaysInMonth), "day %s", day)

		assert.Equal(t, 40.0, daily.SavingsRate)
		assert.Equal(t, core.Dollars(300), daily.Reserve)
		assert.Equal(t, core.Dollars(2700), daily.FinancialCushion)
		assert.Equal(t, daily.MonthlySurplus, metrics.MonthlySurplus)
		assert.Equal(t, core.Dollars(5000), metrics.TotalMonthlyIncome)
	}
}

func TestDailyTargetWithoutIncome(t *testing.T) {
	e := newEngine(t)
	settings := core.DefaultSettings("u1")
	settings.DailyBudgetTarget = core.Dollars(20)
	settings.BankReserveAmount = decimal.NewFromInt(5000)

	daily, metrics, err := e.DailyTarget(
		core.IncomeSummary{},
		core.ExpenseSummary{TotalMonthlyExpenses: core.Dollars(800)},
		core.AccountSummary{TotalBalance: core.Dollars(3000)},
		settings, asOf)
	require.NoError(t, err)

	assert.Equal(t, 0.0, daily.SavingsRate)
	assert.Equal(t, 0.0, metrics.SavingsRate)
	assert.True(t, daily.IsDeficit)
	assert.True(t, daily.UsedFallback)
	assert.Equal(t, core.Dollars(20), daily.DailyTarget)
	assert.Equal(t, core.Dollars(-800), daily.MonthlySurplus)
	assert.Equal(t, core.Money{}, daily.FinancialCushion)
}

func TestProjectGoalsFinishedGoal(t *testing.T) {
	e := newEngine(t)
	g := core.FinancialGoal{ID: "g", Owner: "u1", TargetAmount: core.Dollars(1000), CurrentAmount: core.Dollars(1000), Priority: core.PriorityLow}

	for _, surplus := range []core.Money{{}, core.Dollars(50), core.Dollars(-10)} {
		out, err := e.ProjectGoals([]core.FinancialGoal{g}, surplus, asOf)
		require.NoError(t, err)
		p := out.Goals[0]
		assert.Equal(t, 100.0, p.ProgressPercentage)
		require.NotNil(t, p.MonthsRemaining)
		assert.Equal(t, 0, *p.MonthsRemaining)
		assert.False(t, p.Unreachable)
	}
}

func TestProjectGoalsUnreachable(t *testing.T) {
	e := newEngine(t)
	g := core.FinancialGoal{
		ID: "g", Owner: "u1", TargetAmount: core.Dollars(1000), CurrentAmount: core.Dollars(250),
		Priority: core.PriorityMedium, Deadline: core.NewDate(2027, 4, 16),
	}

	out, err := e.ProjectGoals([]core.FinancialGoal{g}, core.Money{}, asOf)
	require.NoError(t, err)
	p := out.Goals[0]
	assert.True(t, p.Unreachable)
	assert.Nil(t, p.MonthsRemaining)
	assert.True(t, p.ProjectedCompletionDate.IsEmpty())
	assert.Equal(t, 25.0, p.ProgressPercentage)
	require.NotNil(t, p.RequiredMonthlyContribution)
	assert.Equal(t, core.Dollars(125), *p.RequiredMonthlyContribution)
	require.NotNil(t, p.RequiredDailyContribution)
	assert.Equal(t, core.Cents(412), *p.RequiredDailyContribution) // 750 / 182 days
}

func TestProjectGoalsSingleGoalTakesSurplus(t *testing.T) {
	e := newEngine(t)
	g := core.FinancialGoal{ID: "g", Owner: "u1", TargetAmount: core.Dollars(10000), Priority: core.PriorityHigh}

	out, err := e.ProjectGoals([]core.FinancialGoal{g}, core.Dollars(2000), asOf)
	require.NoError(t, err)

	p := out.Goals[0]
	assert.Equal(t, core.Dollars(2000), p.MonthlyContribution)
	require.NotNil(t, p.MonthsRemaining)
	assert.Equal(t, 5, *p.MonthsRemaining)
	assert.Equal(t, core.NewDate(2027, 3, 16), p.ProjectedCompletionDate)
	assert.True(t, p.OnTrack)
	assert.Equal(t, core.Money{}, out.UnallocatedSurplus)
}

func TestProjectGoalsWaterfall(t *testing.T) {
	e := newEngine(t)
	highTarget, lowTarget := core.Dollars(500), core.Dollars(100)
	goals := []core.FinancialGoal{
		{ID: "low", Owner: "u1", TargetAmount: core.Dollars(1000), Priority: core.PriorityLow, MonthlyTarget: &lowTarget},
		{ID: "high", Owner: "u1", TargetAmount: core.Dollars(10000), Priority: core.PriorityHigh, MonthlyTarget: &highTarget},
	}

	out, err := e.ProjectGoals(goals, core.Dollars(1000), asOf)
	require.NoError(t, err)

	// First pass 500 + 100, the remaining 400 split by need 9500 : 900.
	require.Len(t, out.Goals, 2)
	assert.Equal(t, "high", out.Goals[0].GoalID)
	assert.Equal(t, 1, out.Goals[0].Rank)
	assert.Equal(t, core.Cents(86539), out.Goals[0].MonthlyContribution)
	assert.Equal(t, core.Cents(13461), out.Goals[1].MonthlyContribution)
	assert.Equal(t, core.Dollars(1000), out.Allocated)
	assert.Equal(t, core.Money{}, out.UnallocatedSurplus)
}

func TestProjectGoalsSurplusExceedsNeed(t *testing.T) {
	e := newEngine(t)
	g := core.FinancialGoal{ID: "g", Owner: "u1", TargetAmount: core.Dollars(1000), CurrentAmount: core.Dollars(700), Priority: core.PriorityHigh}

	out, err := e.ProjectGoals([]core.FinancialGoal{g}, core.Dollars(2000), asOf)
	require.NoError(t, err)
	assert.Equal(t, core.Dollars(300), out.Goals[0].MonthlyContribution)
	assert.Equal(t, core.Dollars(1700), out.UnallocatedSurplus)
	assert.Equal(t, 1, *out.Goals[0].MonthsRemaining)
}

func TestProjectGoalsTieBreakIsDeterministic(t *testing.T) {
	e := newEngine(t)
	mk := func(id string) core.FinancialGoal {
		return core.FinancialGoal{ID: id, Owner: "u1", TargetAmount: core.Dollars(100), Priority: core.PriorityMedium}
	}
	a, err := e.ProjectGoals([]core.FinancialGoal{mk("b"), mk("a"), mk("c")}, core.Cents(100), asOf)
	require.NoError(t, err)
	b, err := e.ProjectGoals([]core.FinancialGoal{mk("c"), mk("b"), mk("a")}, core.Cents(100), asOf)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, "a", a.Goals[0].GoalID)
	assert.Equal(t, core.Cents(100), a.Goals[0].MonthlyContribution)
	assert.Equal(t, "c", a.Goals[2].GoalID)
	assert.True(t, a.Goals[2].Unreachable)
}

func TestProjectGoalsPriorityBeatsDeadline(t *testing.T) {
	e := newEngine(t)
	goals := []core.FinancialGoal{
		{ID: "a", Owner: "u1", TargetAmount: core.Dollars(1200), Priority: core.PriorityLow, Deadline: core.NewDate(2027, 10, 16)},
		{ID: "b", Owner: "u1", TargetAmount: core.Dollars(600), Priority: core.PriorityHigh, Deadline: core.NewDate(2027, 4, 16)},
		{ID: "c", Owner: "u1", TargetAmount: core.Dollars(1000), Priority: core.PriorityMedium},
	}

	out, err := e.ProjectGoals(goals, core.Dollars(150), asOf)
	require.NoError(t, err)

	got := map[string]core.Money{}
	for _, p := range out.Goals {
		got[p.GoalID] = p.MonthlyContribution
	}
	assert.Equal(t, []string{"b", "c", "a"}, []string{out.Goals[0].GoalID, out.Goals[1].GoalID, out.Goals[2].GoalID})
	assert.Equal(t, core.Dollars(100), got["b"])
	assert.Equal(t, core.Dollars(50), got["c"], "a goal without deadline still outranks lower priorities")
	assert.Equal(t, core.Money{}, got["a"])
	assert.False(t, out.Goals[1].Unreachable)
	assert.True(t, out.Goals[2].Unreachable)
}

func TestProjectGoalsHorizonStaysInCalendar(t *testing.T) {
	e := newEngine(t)
	// 95678 months from 2026-10-16 is 9999-12-16.
	edge := core.FinancialGoal{ID: "g", Owner: "u1", TargetAmount: core.Cents(95678), Priority: core.PriorityHigh}

	out, err := e.ProjectGoals([]core.FinancialGoal{edge}, core.Cents(1), asOf)
	require.NoError(t, err)
	p := out.Goals[0]
	require.NotNil(t, p.MonthsRemaining)
	assert.Equal(t, core.NewDate(9999, 12, 16), p.ProjectedCompletionDate)

	huge := core.FinancialGoal{ID: "g", Owner: "u1", TargetAmount: core.Dollars(1_000_000_000), Priority: core.PriorityHigh}
	out, err = e.ProjectGoals([]core.FinancialGoal{huge}, core.Cents(1), asOf)
	require.NoError(t, err)
	p = out.Goals[0]
	assert.Equal(t, core.Cents(1), p.MonthlyContribution)
	assert.True(t, p.Unreachable)
	assert.Nil(t, p.MonthsRemaining)
	assert.True(t, p.ProjectedCompletionDate.IsEmpty())
}

func TestProjectGoalsInterestShortensHorizon(t *testing.T) {
	e := newEngine(t)
	g := core.FinancialGoal{ID: "g", Owner: "u1", TargetAmount: core.Dollars(1000), Priority: core.PriorityHigh}

	plain, err := e.ProjectGoals([]core.FinancialGoal{g}, core.Dollars(100), asOf)
	require.NoError(t, err)
	assert.Equal(t, 10, *plain.Goals[0].MonthsRemaining)

	g.InterestRate = decimal.NewNullDecimal(decimal.NewFromInt(60))
	out, err := e.ProjectGoals([]core.FinancialGoal{g}, core.Dollars(100), asOf)
	require.NoError(t, err)
	assert.Equal(t, core.Dollars(100), out.Goals[0].MonthlyContribution)
	assert.Equal(t, 9, *out.Goals[0].MonthsRemaining)
}

func TestPlanApply(t *testing.T) {
	goal := core.FinancialGoal{ID: "g", Owner: "u1", TargetAmount: core.Dollars(1000), CurrentAmount: core.Dollars(700), Priority: core.PriorityHigh}
	income := core.OneTimeIncome{ID: "i", Owner: "u1", Amount: core.Dollars(500), Source: core.SourceBonus}

	res, err := PlanApply(asOf)(goal, income)
	require.NoError(t, err)
	assert.Equal(t, core.Dollars(1000), res.Goal.CurrentAmount)
	assert.Equal(t, core.Dollars(200), res.ExcessAmount)
	assert.Equal(t, goal.CurrentAmount.Add(income.Amount), res.Goal.CurrentAmount.Add(res.ExcessAmount))
	assert.True(t, res.Income.AppliedToGoals)
	assert.Equal(t, "g", res.Income.GoalID)
	assert.Equal(t, asOf, res.Income.AppliedAt)

	_, err = PlanApply(asOf)(res.Goal, res.Income)
	assert.ErrorIs(t, err, core.ErrAlreadyApplied)

	income.Owner = "u2"
	_, err = PlanApply(asOf)(goal, income)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestResolveBreakdownReconciles(t *testing.T) {
	e := newEngine(t)
	goal := core.FinancialGoal{
		ID: "g", Owner: "u1", TargetAmount: core.Dollars(5000), CurrentAmount: core.Dollars(1000),
		Priority: core.PriorityHigh, StartDate: core.NewDate(2026, 4, 16),
		InterestRate: decimal.NewNullDecimal(decimal.NewFromInt(12)),
	}
	incomes := []core.OneTimeIncome{
		{ID: "i2", Owner: "u1", Amount: core.Dollars(200), Source: core.SourceGift, IncomeDate: core.NewDate(2026, 9, 1),
			AppliedToGoals: true, GoalID: "g", AppliedAmount: core.Dollars(200)},
		{ID: "i1", Owner: "u1", Amount: core.Dollars(100), Source: core.SourceBonus, IncomeDate: core.NewDate(2026, 8, 1),
			AppliedToGoals: true, GoalID: "g", AppliedAmount: core.Dollars(100)},
		{ID: "other", Owner: "u1", Amount: core.Dollars(999), Source: core.SourceBonus,
			AppliedToGoals: true, GoalID: "elsewhere", AppliedAmount: core.Dollars(999)},
		{ID: "pending", Owner: "u1", Amount: core.Dollars(50), Source: core.SourceBonus},
	}
	projection := core.GoalProjection{GoalID: "g", MonthlyContribution: core.Dollars(400)}

	b := e.ResolveBreakdown(goal, projection, incomes, asOf)

	assert.True(t, b.Consistent)
	require.Len(t, b.Contributions, 4)
	assert.Equal(t, "i1", b.Contributions[0].SourceID)
	assert.Equal(t, "i2", b.Contributions[1].SourceID)
	assert.Equal(t, core.ContributionInterest, b.Contributions[2].Kind)
	assert.True(t, b.Contributions[2].Amount.IsPositive())
	recurring := b.Contributions[3]
	assert.Equal(t, core.ContributionRecurring, recurring.Kind)
	require.NotNil(t, recurring.MonthlyRate)
	assert.Equal(t, core.Dollars(400), *recurring.MonthlyRate)

	diff := b.Total().Sub(goal.CurrentAmount).Cents
	assert.LessOrEqual(t, abs(diff), int64(1))
}

func TestResolveBreakdownFlagsDiscrepancy(t *testing.T) {
	e := newEngine(t)
	goal := core.FinancialGoal{ID: "g", Owner: "u1", TargetAmount: core.Dollars(5000), CurrentAmount: core.Dollars(200), Priority: core.PriorityHigh}
	incomes := []core.OneTimeIncome{
		{ID: "i", Owner: "u1", Amount: core.Dollars(500), Source: core.SourceBonus,
			AppliedToGoals: true, GoalID: "g", AppliedAmount: core.Dollars(500)},
	}

	b := e.ResolveBreakdown(goal, core.GoalProjection{}, incomes, asOf)
	assert.False(t, b.Consistent)
	assert.Equal(t, core.Dollars(300), b.Discrepancy)
	assert.Equal(t, core.Money{}, b.Contributions[len(b.Contributions)-1].Amount)
}

func TestResolveBreakdownManualAdjustment(t *testing.T) {
	e := newEngine(t)
	goal := core.FinancialGoal{
		ID: "g", Owner: "u1", TargetAmount: core.Dollars(5000), CurrentAmount: core.Dollars(900),
		Priority: core.PriorityHigh, ManualAdjustment: core.Dollars(400),
	}

	b := e.ResolveBreakdown(goal, core.GoalProjection{}, nil, asOf)
	assert.True(t, b.Consistent)
	require.Len(t, b.Contributions, 1)
	assert.Equal(t, core.Dollars(500), b.Contributions[0].Amount)
	assert.Equal(t, goal.CurrentAmount, b.Total().Add(b.ManualAdjustment))
}

func TestResolveBreakdownRecurringIsDerived(t *testing.T) {
	e := newEngine(t)
	goal := core.FinancialGoal{ID: "g", Owner: "u1", TargetAmount: core.Dollars(5000), CurrentAmount: core.Dollars(1000), Priority: core.PriorityHigh}
	incomes := []core.OneTimeIncome{
		{ID: "i", Owner: "u1", Amount: core.Dollars(300), Source: core.SourceGift,
			AppliedToGoals: true, GoalID: "g", AppliedAmount: core.Dollars(300)},
	}

	for _, rate := range []core.Money{{}, core.Dollars(50), core.Dollars(4000)} {
		b := e.ResolveBreakdown(goal, core.GoalProjection{MonthlyContribution: rate}, incomes, asOf)
		require.True(t, b.Consistent)
		recurring := b.Contributions[len(b.Contributions)-1]
		assert.Equal(t, core.ContributionRecurring, recurring.Kind)
		assert.Equal(t, core.Dollars(700), recurring.Amount, "remainder after one-time credits")
		assert.Equal(t, rate, *recurring.MonthlyRate)
	}
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
