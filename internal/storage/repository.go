package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"risparmi/internal/core"

	_ "modernc.org/sqlite"
)

// Estimator derives the monthly bands persisted next to each income source.
type Estimator interface {
	EstimateSource(s core.IncomeSource) (core.SourceEstimate, error)
}

type SQLiteRepository struct {
	db        *sql.DB
	queries   *Queries
	estimator Estimator
	logger    *slog.Logger
}

func NewSQLiteRepository(dbPath string, estimator Estimator) (*SQLiteRepository, error) {
	if estimator == nil {
		return nil, errors.New("sqlite repository: estimator is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; the apply transition relies on it.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:        db,
		queries:   New(db),
		estimator: estimator,
		logger:    slog.Default().With("component", "storage"),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ListIncomeSources refreshes the derived estimate columns of any row whose
// stored bands no longer match the current normalization.
func (r *SQLiteRepository) ListIncomeSources(ctx context.Context, owner string) ([]core.IncomeSource, error) {
	stored, err := r.queries.ListIncomeSources(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list income sources: %w", err)
	}

	out := make([]core.IncomeSource, 0, len(stored))
	for _, row := range stored {
		out = append(out, row.Source)
		est, err := r.estimator.EstimateSource(row.Source)
		if err != nil {
			// Invalid rows are reported by the engine when it consumes them.
			continue
		}
		if est.MonthlyEstimate.Low.Cents == row.Low && est.MonthlyEstimate.Mid.Cents == row.Mid &&
			est.MonthlyEstimate.High.Cents == row.High {
			continue
		}
		if err := r.queries.UpdateIncomeEstimate(ctx, row.Source.ID, est); err != nil {
			return nil, fmt.Errorf("refresh income estimate %s: %w", row.Source.ID, err)
		}
		r.logger.DebugContext(ctx, "Refreshed income estimate", "income_id", row.Source.ID)
	}
	return out, nil
}

func (r *SQLiteRepository) ListSideProjects(ctx context.Context, owner string) ([]core.SideProject, error) {
	out, err := r.queries.ListSideProjects(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list side projects: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) ListRecurringExpenses(ctx context.Context, owner string) ([]core.RecurringExpense, error) {
	out, err := r.queries.ListRecurringExpenses(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list recurring expenses: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, owner string) ([]core.FinancialGoal, error) {
	out, err := r.queries.ListGoals(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, owner, goalID string) (core.FinancialGoal, error) {
	g, err := r.queries.GetGoal(ctx, owner, goalID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.FinancialGoal{}, core.NotFound("goal", goalID)
	}
	if err != nil {
		return core.FinancialGoal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, owner string) ([]core.FinancialAccount, error) {
	out, err := r.queries.ListAccounts(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) ListOneTimeIncomes(ctx context.Context, owner string) ([]core.OneTimeIncome, error) {
	out, err := r.queries.ListOneTimeIncomes(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list one-time incomes: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetOneTimeIncome(ctx context.Context, owner, incomeID string) (core.OneTimeIncome, error) {
	in, err := r.queries.GetOneTimeIncome(ctx, owner, incomeID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.OneTimeIncome{}, core.NotFound("one-time income", incomeID)
	}
	if err != nil {
		return core.OneTimeIncome{}, fmt.Errorf("get one-time income: %w", err)
	}
	return in, nil
}

func (r *SQLiteRepository) GetSettings(ctx context.Context, owner string) (core.UserSettings, error) {
	s, err := r.queries.GetSettings(ctx, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DefaultSettings(owner), nil
	}
	if err != nil {
		return core.UserSettings{}, fmt.Errorf("get settings: %w", err)
	}
	return s, nil
}

// ApplyOneTimeIncome runs plan inside one transaction. The income row is
// flipped with a conditional update, so a concurrent apply that committed
// first turns this one into ErrAlreadyApplied.
func (r *SQLiteRepository) ApplyOneTimeIncome(ctx context.Context, owner, incomeID, goalID string, plan core.ApplyPlanner) (core.ApplyResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.ApplyResult{}, fmt.Errorf("begin apply: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)

	income, err := q.GetOneTimeIncome(ctx, owner, incomeID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ApplyResult{}, core.NotFound("one-time income", incomeID)
	}
	if err != nil {
		return core.ApplyResult{}, fmt.Errorf("load one-time income: %w", err)
	}
	goal, err := q.GetGoal(ctx, owner, goalID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ApplyResult{}, core.NotFound("goal", goalID)
	}
	if err != nil {
		return core.ApplyResult{}, fmt.Errorf("load goal: %w", err)
	}

	result, err := plan(goal, income)
	if err != nil {
		return core.ApplyResult{}, err
	}

	n, err := q.MarkApplied(ctx, result.Income)
	if err != nil {
		return core.ApplyResult{}, fmt.Errorf("mark income applied: %w", err)
	}
	if n == 0 {
		return core.ApplyResult{}, fmt.Errorf("income %s: %w", incomeID, core.ErrAlreadyApplied)
	}
	if _, err := q.CreditGoal(ctx, owner, goalID, result.Income.AppliedAmount); err != nil {
		return core.ApplyResult{}, fmt.Errorf("credit goal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.ApplyResult{}, fmt.Errorf("commit apply: %w", err)
	}
	return result, nil
}

// Import upserts every record of d in one transaction. Income estimate
// columns are derived on the way in. Existing rows keep their owner, goal
// balances and the applied state of one-time incomes; an id stored under
// another owner aborts the import with ErrOwnerConflict.
func (r *SQLiteRepository) Import(ctx context.Context, d core.Dataset) error {
	if err := d.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()
	q := r.queries.WithTx(tx)

	for _, s := range d.IncomeSources {
		est, err := r.estimator.EstimateSource(s)
		if err != nil {
			return fmt.Errorf("estimate income source %s: %w", s.ID, err)
		}
		if err := q.UpsertIncomeSource(ctx, s, est); err != nil {
			return fmt.Errorf("import income source %s: %w", s.ID, err)
		}
	}
	for _, p := range d.SideProjects {
		if err := q.UpsertSideProject(ctx, p); err != nil {
			return fmt.Errorf("import side project %s: %w", p.ID, err)
		}
	}
	for _, e := range d.RecurringExpenses {
		if err := q.UpsertRecurringExpense(ctx, e); err != nil {
			return fmt.Errorf("import expense %s: %w", e.ID, err)
		}
	}
	for _, g := range d.Goals {
		if err := q.UpsertGoal(ctx, g); err != nil {
			return fmt.Errorf("import goal %s: %w", g.ID, err)
		}
	}
	for _, in := range d.OneTimeIncomes {
		if err := q.UpsertOneTimeIncome(ctx, in); err != nil {
			return fmt.Errorf("import one-time income %s: %w", in.ID, err)
		}
	}
	for _, a := range d.Accounts {
		if err := q.UpsertAccount(ctx, a); err != nil {
			return fmt.Errorf("import account %s: %w", a.ID, err)
		}
	}
	for _, s := range d.Settings {
		if err := q.UpsertSettings(ctx, s); err != nil {
			return fmt.Errorf("import settings %s: %w", s.Owner, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	r.logger.InfoContext(ctx, "Dataset imported",
		"income_sources", len(d.IncomeSources),
		"goals", len(d.Goals),
		"one_time_incomes", len(d.OneTimeIncomes))
	return nil
}
