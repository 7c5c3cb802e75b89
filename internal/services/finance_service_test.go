package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"risparmi/internal/core"
	"risparmi/internal/log"
	"risparmi/internal/ports"
	"risparmi/internal/storage/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *recordingPublisher) PublishIncomeApplied(_ context.Context, owner, incomeID, goalID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, owner+"/"+incomeID+"/"+goalID)
	return p.err
}

// failingStore breaks goal reads to exercise dependency failures.
type failingStore struct {
	*memory.Store
	err error
}

func (s failingStore) ListGoals(context.Context, string) ([]core.FinancialGoal, error) {
	return nil, s.err
}

func endToEndDataset() core.Dataset {
	return core.Dataset{
		IncomeSources: []core.IncomeSource{salary("salary", core.Dollars(5000), core.Monthly)},
		RecurringExpenses: []core.RecurringExpense{
			{ID: "rent", Owner: "u1", Name: "Rent", Amount: core.Dollars(3000), Cadence: core.Monthly},
		},
		Goals: []core.FinancialGoal{
			{ID: "house", Owner: "u1", Title: "House", TargetAmount: core.Dollars(10000), Priority: core.PriorityHigh},
		},
	}
}

func newFinance(t *testing.T, d core.Dataset, pub *recordingPublisher) *FinanceService {
	t.Helper()
	var p ports.EventPublisher
	if pub != nil {
		p = pub
	}
	svc := NewFinanceService(memory.New(d), newEngine(t), p, log.Nop())
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestSnapshotEndToEnd(t *testing.T) {
	svc := newFinance(t, endToEndDataset(), nil)

	snap, err := svc.Snapshot(context.Background(), "u1", asOf)
	require.NoError(t, err)

	assert.Equal(t, core.Dollars(2000), snap.Daily.MonthlySurplus)
	assert.Equal(t, core.Dollars(2000), snap.Metrics.MonthlySurplus)
	require.Len(t, snap.Goals.Goals, 1)
	g := snap.Goals.Goals[0]
	assert.Equal(t, core.Dollars(2000), g.MonthlyContribution)
	require.NotNil(t, g.MonthsRemaining)
	assert.Equal(t, 5, *g.MonthsRemaining)
	assert.Equal(t, 31, snap.Daily.DaysInMonth)
	assert.Equal(t, core.Cents(6452), snap.Daily.DailyTarget)
}

func TestSnapshotUnknownOwnerIsEmpty(t *testing.T) {
	svc := newFinance(t, endToEndDataset(), nil)

	snap, err := svc.Snapshot(context.Background(), "nobody", asOf)
	require.NoError(t, err)
	assert.Empty(t, snap.Goals.Goals)
	assert.Equal(t, 0.0, snap.Daily.SavingsRate)
	assert.True(t, snap.Daily.UsedFallback)
}

func TestDailyTargetIgnoresGoals(t *testing.T) {
	store := failingStore{Store: memory.New(endToEndDataset()), err: errors.New("goals offline")}
	svc := NewFinanceService(store, newEngine(t), nil, log.Nop())

	daily, _, err := svc.DailyTarget(context.Background(), "u1", asOf)
	require.NoError(t, err)
	assert.Equal(t, core.Dollars(2000), daily.MonthlySurplus)
}

func TestSnapshotPropagatesDependencyFailure(t *testing.T) {
	cause := errors.New("goals offline")
	store := failingStore{Store: memory.New(endToEndDataset()), err: cause}
	svc := NewFinanceService(store, newEngine(t), nil, log.Nop())

	_, err := svc.Snapshot(context.Background(), "u1", asOf)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDependency)
	assert.ErrorIs(t, err, cause)

	_, err = svc.ProjectGoals(context.Background(), "u1", asOf)
	assert.ErrorIs(t, err, core.ErrDependency)
}

func TestSnapshotRejectsInvalidRecords(t *testing.T) {
	d := endToEndDataset()
	d.Goals[0].Priority = "someday"
	svc := newFinance(t, d, nil)

	_, err := svc.Snapshot(context.Background(), "u1", asOf)
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.NotErrorIs(t, err, core.ErrDependency)
}

func TestApplyOneTimeIncomeEndToEnd(t *testing.T) {
	d := endToEndDataset()
	d.Goals[0].CurrentAmount = core.Dollars(9700)
	d.OneTimeIncomes = []core.OneTimeIncome{
		{ID: "bonus", Owner: "u1", Amount: core.Dollars(500), Source: core.SourceBonus, IncomeDate: core.NewDate(2026, 10, 1)},
	}
	pub := &recordingPublisher{}
	svc := newFinance(t, d, pub)
	ctx := context.Background()

	res, err := svc.ApplyOneTimeIncome(ctx, "u1", "bonus", "house", asOf)
	require.NoError(t, err)
	assert.Equal(t, core.Dollars(10000), res.Goal.CurrentAmount)
	assert.Equal(t, core.Dollars(200), res.ExcessAmount)
	assert.True(t, res.Income.AppliedToGoals)
	assert.Equal(t, "house", res.Income.GoalID)

	require.NotNil(t, res.Projections)
	p, ok := res.Projections.Find("house")
	require.True(t, ok)
	assert.Equal(t, 100.0, p.ProgressPercentage)
	assert.Equal(t, []string{"u1/bonus/house"}, pub.events)

	_, err = svc.ApplyOneTimeIncome(ctx, "u1", "bonus", "house", asOf)
	assert.ErrorIs(t, err, core.ErrAlreadyApplied)
	assert.NotErrorIs(t, err, core.ErrDependency)
	assert.Len(t, pub.events, 1)

	b, err := svc.Breakdown(ctx, "u1", "house", asOf)
	require.NoError(t, err)
	assert.True(t, b.Consistent)
	assert.Equal(t, core.Dollars(10000), b.Total())
}

func TestApplyOneTimeIncomePublishFailureKeepsResult(t *testing.T) {
	d := endToEndDataset()
	d.OneTimeIncomes = []core.OneTimeIncome{
		{ID: "gift", Owner: "u1", Amount: core.Dollars(100), Source: core.SourceGift},
	}
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newFinance(t, d, pub)

	res, err := svc.ApplyOneTimeIncome(context.Background(), "u1", "gift", "house", asOf)
	require.NoError(t, err)
	assert.Equal(t, core.Dollars(100), res.Goal.CurrentAmount)
	assert.Len(t, pub.events, 1)
}

func TestApplyOneTimeIncomeNotFound(t *testing.T) {
	d := endToEndDataset()
	d.Goals = append(d.Goals, core.FinancialGoal{ID: "theirs", Owner: "u2", TargetAmount: core.Dollars(10), Priority: core.PriorityLow})
	d.OneTimeIncomes = []core.OneTimeIncome{
		{ID: "gift", Owner: "u1", Amount: core.Dollars(100), Source: core.SourceGift},
	}
	svc := newFinance(t, d, nil)
	ctx := context.Background()

	_, err := svc.ApplyOneTimeIncome(ctx, "u1", "missing", "house", asOf)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.ApplyOneTimeIncome(ctx, "u1", "gift", "theirs", asOf)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestApplyOneTimeIncomeConcurrentRetries(t *testing.T) {
	d := endToEndDataset()
	d.OneTimeIncomes = []core.OneTimeIncome{
		{ID: "gift", Owner: "u1", Amount: core.Dollars(250), Source: core.SourceGift},
	}
	pub := &recordingPublisher{}
	svc := newFinance(t, d, pub)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.ApplyOneTimeIncome(ctx, "u1", "gift", "house", asOf)
		}()
	}
	wg.Wait()

	snap, err := svc.Snapshot(ctx, "u1", asOf)
	require.NoError(t, err)
	assert.Equal(t, core.Dollars(250), snap.Goals.Goals[0].CurrentAmount)
	assert.Len(t, pub.events, 1)
}

func TestBreakdownFlagsInconsistentGoal(t *testing.T) {
	d := endToEndDataset()
	d.Goals[0].CurrentAmount = core.Dollars(100)
	d.OneTimeIncomes = []core.OneTimeIncome{
		{ID: "gift", Owner: "u1", Amount: core.Dollars(400), Source: core.SourceGift,
			AppliedToGoals: true, GoalID: "house", AppliedAmount: core.Dollars(400), AppliedAt: asOf},
	}
	svc := newFinance(t, d, nil)

	b, err := svc.Breakdown(context.Background(), "u1", "house", asOf)
	require.NoError(t, err)
	assert.False(t, b.Consistent)
	assert.Equal(t, core.Dollars(300), b.Discrepancy)
	assert.Equal(t, core.Dollars(2000), b.MonthlyContribution)

	_, err = svc.Breakdown(context.Background(), "u1", "missing", asOf)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
