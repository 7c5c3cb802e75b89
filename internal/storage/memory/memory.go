// Package memory keeps every record in process memory. It backs the CLI
// when no database is configured and the engine tests.
package memory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"risparmi/internal/core"
)

type Store struct {
	mu       sync.Mutex
	sources  []core.IncomeSource
	projects []core.SideProject
	expenses []core.RecurringExpense
	goals    []core.FinancialGoal
	incomes  []core.OneTimeIncome
	accounts []core.FinancialAccount
	settings map[string]core.UserSettings
}

func New(d core.Dataset) *Store {
	s := &Store{
		sources:  append([]core.IncomeSource(nil), d.IncomeSources...),
		projects: append([]core.SideProject(nil), d.SideProjects...),
		expenses: append([]core.RecurringExpense(nil), d.RecurringExpenses...),
		goals:    append([]core.FinancialGoal(nil), d.Goals...),
		incomes:  append([]core.OneTimeIncome(nil), d.OneTimeIncomes...),
		accounts: append([]core.FinancialAccount(nil), d.Accounts...),
		settings: make(map[string]core.UserSettings, len(d.Settings)),
	}
	for _, st := range d.Settings {
		s.settings[st.Owner] = st
	}
	return s
}

// NewFromFile seeds a store from a JSON dataset. An empty path yields an
// empty store.
func NewFromFile(path, defaultOwner string) (*Store, error) {
	if path == "" {
		return New(core.Dataset{}), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	d, err := core.DecodeDataset(f, defaultOwner)
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", path, err)
	}
	return New(d), nil
}

func (s *Store) Close() error { return nil }

func owned[T any](items []T, owner string, ownerOf func(T) string) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if ownerOf(it) == owner {
			out = append(out, it)
		}
	}
	return out
}

func (s *Store) ListIncomeSources(_ context.Context, owner string) ([]core.IncomeSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return owned(s.sources, owner, func(v core.IncomeSource) string { return v.Owner }), nil
}

func (s *Store) ListSideProjects(_ context.Context, owner string) ([]core.SideProject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return owned(s.projects, owner, func(v core.SideProject) string { return v.Owner }), nil
}

func (s *Store) ListRecurringExpenses(_ context.Context, owner string) ([]core.RecurringExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return owned(s.expenses, owner, func(v core.RecurringExpense) string { return v.Owner }), nil
}

func (s *Store) ListGoals(_ context.Context, owner string) ([]core.FinancialGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return owned(s.goals, owner, func(v core.FinancialGoal) string { return v.Owner }), nil
}

func (s *Store) GetGoal(_ context.Context, owner, goalID string) (core.FinancialGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.goalIndex(owner, goalID)
	if i < 0 {
		return core.FinancialGoal{}, core.NotFound("goal", goalID)
	}
	return s.goals[i], nil
}

func (s *Store) ListAccounts(_ context.Context, owner string) ([]core.FinancialAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return owned(s.accounts, owner, func(v core.FinancialAccount) string { return v.Owner }), nil
}

func (s *Store) ListOneTimeIncomes(_ context.Context, owner string) ([]core.OneTimeIncome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return owned(s.incomes, owner, func(v core.OneTimeIncome) string { return v.Owner }), nil
}

func (s *Store) GetOneTimeIncome(_ context.Context, owner, incomeID string) (core.OneTimeIncome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.incomeIndex(owner, incomeID)
	if i < 0 {
		return core.OneTimeIncome{}, core.NotFound("one-time income", incomeID)
	}
	return s.incomes[i], nil
}

func (s *Store) GetSettings(_ context.Context, owner string) (core.UserSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.settings[owner]; ok {
		return st, nil
	}
	return core.DefaultSettings(owner), nil
}

// ApplyOneTimeIncome holds the store lock across load, plan and write, so
// the applied flag is checked and set exactly once.
func (s *Store) ApplyOneTimeIncome(_ context.Context, owner, incomeID, goalID string, plan core.ApplyPlanner) (core.ApplyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ii := s.incomeIndex(owner, incomeID)
	if ii < 0 {
		return core.ApplyResult{}, core.NotFound("one-time income", incomeID)
	}
	gi := s.goalIndex(owner, goalID)
	if gi < 0 {
		return core.ApplyResult{}, core.NotFound("goal", goalID)
	}

	res, err := plan(s.goals[gi], s.incomes[ii])
	if err != nil {
		return core.ApplyResult{}, err
	}
	s.goals[gi] = res.Goal
	s.incomes[ii] = res.Income
	return res, nil
}

func (s *Store) goalIndex(owner, id string) int {
	for i, g := range s.goals {
		if g.ID == id && g.Owner == owner {
			return i
		}
	}
	return -1
}

func (s *Store) incomeIndex(owner, id string) int {
	for i, in := range s.incomes {
		if in.ID == id && in.Owner == owner {
			return i
		}
	}
	return -1
}
