// Package ports declares the persistence collaborator the engine reads from
// and drives its single state transition through.
package ports

import (
	"context"

	"risparmi/internal/core"
)

// Ports for outbound adapters. Every method is scoped to one owner; records
// belonging to other owners are reported as not found.
type (
	IncomeReader interface {
		ListIncomeSources(ctx context.Context, owner string) ([]core.IncomeSource, error)
		ListSideProjects(ctx context.Context, owner string) ([]core.SideProject, error)
	}

	ExpenseReader interface {
		ListRecurringExpenses(ctx context.Context, owner string) ([]core.RecurringExpense, error)
	}

	GoalReader interface {
		ListGoals(ctx context.Context, owner string) ([]core.FinancialGoal, error)
		GetGoal(ctx context.Context, owner, goalID string) (core.FinancialGoal, error)
	}

	AccountReader interface {
		ListAccounts(ctx context.Context, owner string) ([]core.FinancialAccount, error)
	}

	OneTimeIncomeReader interface {
		ListOneTimeIncomes(ctx context.Context, owner string) ([]core.OneTimeIncome, error)
		GetOneTimeIncome(ctx context.Context, owner, incomeID string) (core.OneTimeIncome, error)
	}

	// SettingsReader returns core.DefaultSettings for owners without settings.
	SettingsReader interface {
		GetSettings(ctx context.Context, owner string) (core.UserSettings, error)
	}

	// IncomeApplier loads the goal and income, runs plan and persists both
	// records as one atomic check-and-set. Concurrent calls for the same
	// income must not both succeed.
	IncomeApplier interface {
		ApplyOneTimeIncome(ctx context.Context, owner, incomeID, goalID string, plan core.ApplyPlanner) (core.ApplyResult, error)
	}

	Store interface {
		IncomeReader
		ExpenseReader
		GoalReader
		AccountReader
		OneTimeIncomeReader
		SettingsReader
		IncomeApplier
		Close() error
	}

	// EventPublisher announces applied incomes to other processes.
	EventPublisher interface {
		PublishIncomeApplied(ctx context.Context, owner, incomeID, goalID string) error
	}
)
