package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"risparmi/internal/core"
	"risparmi/internal/services"
)

func seed() core.Dataset {
	return core.Dataset{
		Goals: []core.FinancialGoal{
			{ID: "g1", Owner: "u1", Title: "Car", TargetAmount: core.Dollars(1000), CurrentAmount: core.Dollars(700), Priority: core.PriorityHigh},
			{ID: "g2", Owner: "u2", Title: "Boat", TargetAmount: core.Dollars(50), Priority: core.PriorityLow},
		},
		OneTimeIncomes: []core.OneTimeIncome{
			{ID: "i1", Owner: "u1", Amount: core.Dollars(500), Source: core.SourceGift},
		},
		Settings: []core.UserSettings{{Owner: "u1", Currency: "EUR", BankReserveType: core.ReserveAmount}},
	}
}

func TestStoreScopesByOwner(t *testing.T) {
	ctx := context.Background()
	s := New(seed())

	goals, err := s.ListGoals(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, "g1", goals[0].ID)

	_, err = s.GetGoal(ctx, "u1", "g2")
	assert.ErrorIs(t, err, core.ErrNotFound)

	st, err := s.GetSettings(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "EUR", st.Currency)

	st, err = s.GetSettings(ctx, "u9")
	require.NoError(t, err)
	assert.Equal(t, core.DefaultSettings("u9"), st)
}

func TestApplyOneTimeIncomeOnce(t *testing.T) {
	ctx := context.Background()
	s := New(seed())
	plan := services.PlanApply(core.NewDate(2026, 10, 16))

	const workers = 6
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ApplyOneTimeIncome(ctx, "u1", "i1", "g1", plan)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.True(t, errors.Is(err, core.ErrAlreadyApplied), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, ok)

	g, err := s.GetGoal(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.Equal(t, core.Dollars(1000), g.CurrentAmount)

	in, err := s.GetOneTimeIncome(ctx, "u1", "i1")
	require.NoError(t, err)
	assert.True(t, in.AppliedToGoals)
	assert.Equal(t, core.Dollars(300), in.AppliedAmount)
}

func TestApplyOneTimeIncomeUnknownGoalLeavesIncome(t *testing.T) {
	ctx := context.Background()
	s := New(seed())

	_, err := s.ApplyOneTimeIncome(ctx, "u1", "i1", "g2", services.PlanApply(core.NewDate(2026, 10, 16)))
	assert.ErrorIs(t, err, core.ErrNotFound)

	in, err := s.GetOneTimeIncome(ctx, "u1", "i1")
	require.NoError(t, err)
	assert.False(t, in.AppliedToGoals)
}

func TestNewFromFile(t *testing.T) {
	s, err := NewFromFile("", "u1")
	require.NoError(t, err)
	goals, _ := s.ListGoals(context.Background(), "u1")
	assert.Empty(t, goals)

	path := filepath.Join(t.TempDir(), "seed.json")
	body := `{"goals": [{"title": "Fund", "target_amount": 100, "priority": "low"}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	s, err = NewFromFile(path, "u1")
	require.NoError(t, err)
	goals, err = s.ListGoals(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.NotEmpty(t, goals[0].ID)

	_, err = NewFromFile(filepath.Join(t.TempDir(), "missing.json"), "u1")
	assert.Error(t, err)
}
