package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"risparmi/internal/core"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the hand-written statements of the store.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type rowScanner interface {
	Scan(dest ...any) error
}

const incomeSourceColumns = `id, owner, name, kind, pay_frequency, base_amount_cents, hours_per_week,
	is_commission, commission_low_cents, commission_high_cents, commission_frequency, status,
	start_date, end_date, initial_payment_cents, final_payment_cents, final_payment_date`

const listIncomeSources = `SELECT ` + incomeSourceColumns + `,
	estimated_monthly_low_cents, estimated_monthly_mid_cents, estimated_monthly_high_cents
FROM income_sources WHERE owner = ? ORDER BY id`

// storedIncomeSource is an income source with the derived estimate columns
// as last persisted.
type storedIncomeSource struct {
	Source         core.IncomeSource
	Low, Mid, High int64
}

func (q *Queries) ListIncomeSources(ctx context.Context, owner string) ([]storedIncomeSource, error) {
	rows, err := q.db.QueryContext(ctx, listIncomeSources, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []storedIncomeSource
	for rows.Next() {
		var (
			s                            core.IncomeSource
			start, end, finalDate        sql.NullString
			isCommission                 bool
			base, low, high, initial     int64
			final, estLow, estMid, estHi int64
		)
		if err := rows.Scan(&s.ID, &s.Owner, &s.Name, &s.Kind, &s.PayFrequency, &base, &s.HoursPerWeek,
			&isCommission, &low, &high, &s.CommissionFrequency, &s.Status,
			&start, &end, &initial, &final, &finalDate,
			&estLow, &estMid, &estHi); err != nil {
			return nil, err
		}
		s.BaseAmount = core.Cents(base)
		s.IsCommission = isCommission
		s.CommissionLow = core.Cents(low)
		s.CommissionHigh = core.Cents(high)
		s.InitialPayment = core.Cents(initial)
		s.FinalPayment = core.Cents(final)
		if s.StartDate, err = parseNullDate(start); err != nil {
			return nil, err
		}
		if s.EndDate, err = parseNullDate(end); err != nil {
			return nil, err
		}
		if s.FinalPaymentDate, err = parseNullDate(finalDate); err != nil {
			return nil, err
		}
		out = append(out, storedIncomeSource{Source: s, Low: estLow, Mid: estMid, High: estHi})
	}
	return out, rows.Err()
}

const upsertIncomeSource = `INSERT INTO income_sources (` + incomeSourceColumns + `,
	estimated_monthly_low_cents, estimated_monthly_mid_cents, estimated_monthly_high_cents, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name, kind = excluded.kind,
	pay_frequency = excluded.pay_frequency, base_amount_cents = excluded.base_amount_cents,
	hours_per_week = excluded.hours_per_week, is_commission = excluded.is_commission,
	commission_low_cents = excluded.commission_low_cents, commission_high_cents = excluded.commission_high_cents,
	commission_frequency = excluded.commission_frequency, status = excluded.status,
	start_date = excluded.start_date, end_date = excluded.end_date,
	initial_payment_cents = excluded.initial_payment_cents, final_payment_cents = excluded.final_payment_cents,
	final_payment_date = excluded.final_payment_date,
	estimated_monthly_low_cents = excluded.estimated_monthly_low_cents,
	estimated_monthly_mid_cents = excluded.estimated_monthly_mid_cents,
	estimated_monthly_high_cents = excluded.estimated_monthly_high_cents,
	updated_at = CURRENT_TIMESTAMP
WHERE income_sources.owner = excluded.owner`

func (q *Queries) UpsertIncomeSource(ctx context.Context, s core.IncomeSource, est core.SourceEstimate) error {
	return upserted(q.db.ExecContext(ctx, upsertIncomeSource,
		s.ID, s.Owner, s.Name, s.Kind, s.PayFrequency, s.BaseAmount.Cents, s.HoursPerWeek,
		s.IsCommission, s.CommissionLow.Cents, s.CommissionHigh.Cents, s.CommissionFrequency, s.Status,
		nullDate(s.StartDate), nullDate(s.EndDate), s.InitialPayment.Cents, s.FinalPayment.Cents, nullDate(s.FinalPaymentDate),
		est.MonthlyEstimate.Low.Cents, est.MonthlyEstimate.Mid.Cents, est.MonthlyEstimate.High.Cents))
}

const updateIncomeEstimate = `UPDATE income_sources
SET estimated_monthly_low_cents = ?, estimated_monthly_mid_cents = ?, estimated_monthly_high_cents = ?,
	updated_at = CURRENT_TIMESTAMP
WHERE id = ?`

func (q *Queries) UpdateIncomeEstimate(ctx context.Context, id string, est core.SourceEstimate) error {
	_, err := q.db.ExecContext(ctx, updateIncomeEstimate,
		est.MonthlyEstimate.Low.Cents, est.MonthlyEstimate.Mid.Cents, est.MonthlyEstimate.High.Cents, id)
	return err
}

const listSideProjects = `SELECT id, owner, name, status, current_monthly_earnings_cents, projected_monthly_earnings_cents
FROM side_projects WHERE owner = ? ORDER BY id`

func (q *Queries) ListSideProjects(ctx context.Context, owner string) ([]core.SideProject, error) {
	rows, err := q.db.QueryContext(ctx, listSideProjects, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.SideProject
	for rows.Next() {
		var p core.SideProject
		var cur, proj int64
		if err := rows.Scan(&p.ID, &p.Owner, &p.Name, &p.Status, &cur, &proj); err != nil {
			return nil, err
		}
		p.CurrentMonthlyEarnings = core.Cents(cur)
		p.ProjectedMonthlyEarnings = core.Cents(proj)
		out = append(out, p)
	}
	return out, rows.Err()
}

const upsertSideProject = `INSERT INTO side_projects (id, owner, name, status, current_monthly_earnings_cents, projected_monthly_earnings_cents)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET name = excluded.name, status = excluded.status,
	current_monthly_earnings_cents = excluded.current_monthly_earnings_cents,
	projected_monthly_earnings_cents = excluded.projected_monthly_earnings_cents
WHERE side_projects.owner = excluded.owner`

func (q *Queries) UpsertSideProject(ctx context.Context, p core.SideProject) error {
	return upserted(q.db.ExecContext(ctx, upsertSideProject,
		p.ID, p.Owner, p.Name, p.Status, p.CurrentMonthlyEarnings.Cents, p.ProjectedMonthlyEarnings.Cents))
}

const listRecurringExpenses = `SELECT id, owner, name, amount_cents, cadence, category, start_date, end_date
FROM recurring_expenses WHERE owner = ? ORDER BY id`

func (q *Queries) ListRecurringExpenses(ctx context.Context, owner string) ([]core.RecurringExpense, error) {
	rows, err := q.db.QueryContext(ctx, listRecurringExpenses, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.RecurringExpense
	for rows.Next() {
		var e core.RecurringExpense
		var amount int64
		var start, end sql.NullString
		if err := rows.Scan(&e.ID, &e.Owner, &e.Name, &amount, &e.Cadence, &e.Category, &start, &end); err != nil {
			return nil, err
		}
		e.Amount = core.Cents(amount)
		if e.StartDate, err = parseNullDate(start); err != nil {
			return nil, err
		}
		if e.EndDate, err = parseNullDate(end); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const upsertRecurringExpense = `INSERT INTO recurring_expenses (id, owner, name, amount_cents, cadence, category, start_date, end_date)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET name = excluded.name, amount_cents = excluded.amount_cents,
	cadence = excluded.cadence, category = excluded.category,
	start_date = excluded.start_date, end_date = excluded.end_date
WHERE recurring_expenses.owner = excluded.owner`

func (q *Queries) UpsertRecurringExpense(ctx context.Context, e core.RecurringExpense) error {
	return upserted(q.db.ExecContext(ctx, upsertRecurringExpense,
		e.ID, e.Owner, e.Name, e.Amount.Cents, e.Cadence, e.Category, nullDate(e.StartDate), nullDate(e.EndDate)))
}

const goalColumns = `id, owner, title, target_amount_cents, current_amount_cents, deadline, priority,
	urgency_score, interest_rate, start_date, monthly_target_cents, manual_adjustment_cents`

func scanGoal(row rowScanner) (core.FinancialGoal, error) {
	var (
		g                           core.FinancialGoal
		target, current, adjustment int64
		deadline, start             sql.NullString
		monthly                     sql.NullInt64
	)
	if err := row.Scan(&g.ID, &g.Owner, &g.Title, &target, &current, &deadline, &g.Priority,
		&g.UrgencyScore, &g.InterestRate, &start, &monthly, &adjustment); err != nil {
		return core.FinancialGoal{}, err
	}
	g.TargetAmount = core.Cents(target)
	g.CurrentAmount = core.Cents(current)
	g.ManualAdjustment = core.Cents(adjustment)
	if monthly.Valid {
		m := core.Cents(monthly.Int64)
		g.MonthlyTarget = &m
	}
	var err error
	if g.Deadline, err = parseNullDate(deadline); err != nil {
		return core.FinancialGoal{}, err
	}
	if g.StartDate, err = parseNullDate(start); err != nil {
		return core.FinancialGoal{}, err
	}
	return g, nil
}

func (q *Queries) ListGoals(ctx context.Context, owner string) ([]core.FinancialGoal, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+goalColumns+` FROM financial_goals WHERE owner = ? ORDER BY id`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.FinancialGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetGoal returns sql.ErrNoRows when the goal does not exist for owner.
func (q *Queries) GetGoal(ctx context.Context, owner, id string) (core.FinancialGoal, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM financial_goals WHERE owner = ? AND id = ?`, owner, id)
	return scanGoal(row)
}

const upsertGoal = `INSERT INTO financial_goals (` + goalColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET title = excluded.title,
	target_amount_cents = excluded.target_amount_cents,
	deadline = excluded.deadline, priority = excluded.priority, urgency_score = excluded.urgency_score,
	interest_rate = excluded.interest_rate, start_date = excluded.start_date,
	monthly_target_cents = excluded.monthly_target_cents, manual_adjustment_cents = excluded.manual_adjustment_cents
WHERE financial_goals.owner = excluded.owner`

func (q *Queries) UpsertGoal(ctx context.Context, g core.FinancialGoal) error {
	var monthly sql.NullInt64
	if g.MonthlyTarget != nil {
		monthly = sql.NullInt64{Int64: g.MonthlyTarget.Cents, Valid: true}
	}
	return upserted(q.db.ExecContext(ctx, upsertGoal,
		g.ID, g.Owner, g.Title, g.TargetAmount.Cents, g.CurrentAmount.Cents, nullDate(g.Deadline), g.Priority,
		g.Urgency(), g.InterestRate, nullDate(g.StartDate), monthly, g.ManualAdjustment.Cents))
}

const creditGoal = `UPDATE financial_goals SET current_amount_cents = current_amount_cents + ?
WHERE owner = ? AND id = ?`

func (q *Queries) CreditGoal(ctx context.Context, owner, id string, amount core.Money) (int64, error) {
	res, err := q.db.ExecContext(ctx, creditGoal, amount.Cents, owner, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const oneTimeIncomeColumns = `id, owner, amount_cents, description, source, income_date, applied_to_goals,
	goal_id, notes, applied_amount_cents, applied_at`

func scanOneTimeIncome(row rowScanner) (core.OneTimeIncome, error) {
	var (
		in                    core.OneTimeIncome
		amount, applied       int64
		incomeDate, appliedAt sql.NullString
		goalID                sql.NullString
	)
	if err := row.Scan(&in.ID, &in.Owner, &amount, &in.Description, &in.Source, &incomeDate,
		&in.AppliedToGoals, &goalID, &in.Notes, &applied, &appliedAt); err != nil {
		return core.OneTimeIncome{}, err
	}
	in.Amount = core.Cents(amount)
	in.AppliedAmount = core.Cents(applied)
	in.GoalID = goalID.String
	var err error
	if in.IncomeDate, err = parseNullDate(incomeDate); err != nil {
		return core.OneTimeIncome{}, err
	}
	if in.AppliedAt, err = parseNullDate(appliedAt); err != nil {
		return core.OneTimeIncome{}, err
	}
	return in, nil
}

func (q *Queries) ListOneTimeIncomes(ctx context.Context, owner string) ([]core.OneTimeIncome, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+oneTimeIncomeColumns+` FROM one_time_incomes WHERE owner = ? ORDER BY income_date, id`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.OneTimeIncome
	for rows.Next() {
		in, err := scanOneTimeIncome(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// GetOneTimeIncome returns sql.ErrNoRows when the income does not exist for owner.
func (q *Queries) GetOneTimeIncome(ctx context.Context, owner, id string) (core.OneTimeIncome, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+oneTimeIncomeColumns+` FROM one_time_incomes WHERE owner = ? AND id = ?`, owner, id)
	return scanOneTimeIncome(row)
}

// upsertOneTimeIncome never touches the applied state of a stored income; it
// changes only through markApplied. Amount, source and date are frozen once
// the income is applied.
const upsertOneTimeIncome = `INSERT INTO one_time_incomes (` + oneTimeIncomeColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	description = excluded.description, notes = excluded.notes,
	amount_cents = CASE WHEN applied_to_goals = 0 THEN excluded.amount_cents ELSE amount_cents END,
	source = CASE WHEN applied_to_goals = 0 THEN excluded.source ELSE source END,
	income_date = CASE WHEN applied_to_goals = 0 THEN excluded.income_date ELSE income_date END
WHERE one_time_incomes.owner = excluded.owner`

func (q *Queries) UpsertOneTimeIncome(ctx context.Context, in core.OneTimeIncome) error {
	var goalID sql.NullString
	if in.GoalID != "" {
		goalID = sql.NullString{String: in.GoalID, Valid: true}
	}
	return upserted(q.db.ExecContext(ctx, upsertOneTimeIncome,
		in.ID, in.Owner, in.Amount.Cents, in.Description, in.Source, nullDate(in.IncomeDate),
		in.AppliedToGoals, goalID, in.Notes, in.AppliedAmount.Cents, nullDate(in.AppliedAt)))
}

// markApplied flips the income to applied only if it still is unapplied.
const markApplied = `UPDATE one_time_incomes
SET applied_to_goals = 1, goal_id = ?, applied_amount_cents = ?, applied_at = ?
WHERE owner = ? AND id = ? AND applied_to_goals = 0`

func (q *Queries) MarkApplied(ctx context.Context, in core.OneTimeIncome) (int64, error) {
	res, err := q.db.ExecContext(ctx, markApplied,
		in.GoalID, in.AppliedAmount.Cents, nullDate(in.AppliedAt), in.Owner, in.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listAccounts = `SELECT id, owner, account_type, balance_cents, institution, is_primary
FROM financial_accounts WHERE owner = ? ORDER BY id`

func (q *Queries) ListAccounts(ctx context.Context, owner string) ([]core.FinancialAccount, error) {
	rows, err := q.db.QueryContext(ctx, listAccounts, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.FinancialAccount
	for rows.Next() {
		var a core.FinancialAccount
		var balance int64
		if err := rows.Scan(&a.ID, &a.Owner, &a.AccountType, &balance, &a.Institution, &a.IsPrimary); err != nil {
			return nil, err
		}
		a.Balance = core.Cents(balance)
		out = append(out, a)
	}
	return out, rows.Err()
}

const upsertAccount = `INSERT INTO financial_accounts (id, owner, account_type, balance_cents, institution, is_primary)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET account_type = excluded.account_type,
	balance_cents = excluded.balance_cents, institution = excluded.institution, is_primary = excluded.is_primary
WHERE financial_accounts.owner = excluded.owner`

func (q *Queries) UpsertAccount(ctx context.Context, a core.FinancialAccount) error {
	return upserted(q.db.ExecContext(ctx, upsertAccount, a.ID, a.Owner, a.AccountType, a.Balance.Cents, a.Institution, a.IsPrimary))
}

const getSettings = `SELECT owner, daily_budget_target_cents, currency, bank_reserve_type, bank_reserve_amount
FROM user_settings WHERE owner = ?`

// GetSettings returns sql.ErrNoRows when owner has no stored settings.
func (q *Queries) GetSettings(ctx context.Context, owner string) (core.UserSettings, error) {
	var s core.UserSettings
	var daily int64
	var reserve string
	if err := q.db.QueryRowContext(ctx, getSettings, owner).
		Scan(&s.Owner, &daily, &s.Currency, &s.BankReserveType, &reserve); err != nil {
		return core.UserSettings{}, err
	}
	s.DailyBudgetTarget = core.Cents(daily)
	amount, err := decimal.NewFromString(reserve)
	if err != nil {
		return core.UserSettings{}, fmt.Errorf("bank_reserve_amount %q: %w", reserve, err)
	}
	s.BankReserveAmount = amount
	return s, nil
}

const upsertSettings = `INSERT INTO user_settings (owner, daily_budget_target_cents, currency, bank_reserve_type, bank_reserve_amount)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(owner) DO UPDATE SET daily_budget_target_cents = excluded.daily_budget_target_cents,
	currency = excluded.currency, bank_reserve_type = excluded.bank_reserve_type,
	bank_reserve_amount = excluded.bank_reserve_amount`

func (q *Queries) UpsertSettings(ctx context.Context, s core.UserSettings) error {
	_, err := q.db.ExecContext(ctx, upsertSettings,
		s.Owner, s.DailyBudgetTarget.Cents, s.Currency, s.BankReserveType, s.BankReserveAmount.String())
	return err
}

// ErrOwnerConflict reports an upsert whose id is already stored for a
// different owner. Records never change owner.
var ErrOwnerConflict = errors.New("id is owned by another user")

// upserted turns an owner-guarded upsert that changed no row into
// ErrOwnerConflict.
func upserted(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOwnerConflict
	}
	return nil
}

func nullDate(d core.Date) sql.NullString {
	if d.IsEmpty() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseNullDate(s sql.NullString) (core.Date, error) {
	if !s.Valid || s.String == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(s.String)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse date %q: %w", s.String, err)
	}
	return d, nil
}
