package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"risparmi/internal/core"
	"risparmi/internal/log"
	"risparmi/internal/ports"
)

// FinanceService reads one owner's records through the store, chains the
// engine components over them and drives the apply transition.
type FinanceService struct {
	store     ports.Store
	engine    *Engine
	publisher ports.EventPublisher
	logger    *log.Logger
	events    *log.StructuredLogger
}

// NewFinanceService wires the service. publisher may be nil, in which case
// applied incomes are not announced.
func NewFinanceService(store ports.Store, engine *Engine, publisher ports.EventPublisher, logger *log.Logger) *FinanceService {
	if logger == nil {
		logger = log.Nop()
	}
	logger = logger.WithComponent(log.ComponentFinance)
	return &FinanceService{
		store:     store,
		engine:    engine,
		publisher: publisher,
		logger:    logger,
		events:    log.NewStructuredLogger(logger),
	}
}

// records is everything the aggregates are computed from.
type records struct {
	sources  []core.IncomeSource
	projects []core.SideProject
	expenses []core.RecurringExpense
	accounts []core.FinancialAccount
	settings core.UserSettings
	goals    []core.FinancialGoal
}

// read loads the owner's records concurrently. The first failing read
// cancels the others.
func (s *FinanceService) read(ctx context.Context, owner string, withGoals bool) (records, error) {
	var r records
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		v, err := s.store.ListIncomeSources(gctx, owner)
		r.sources = v
		return core.Dependency("list income sources", err)
	})
	g.Go(func() error {
		v, err := s.store.ListSideProjects(gctx, owner)
		r.projects = v
		return core.Dependency("list side projects", err)
	})
	g.Go(func() error {
		v, err := s.store.ListRecurringExpenses(gctx, owner)
		r.expenses = v
		return core.Dependency("list recurring expenses", err)
	})
	g.Go(func() error {
		v, err := s.store.ListAccounts(gctx, owner)
		r.accounts = v
		return core.Dependency("list accounts", err)
	})
	g.Go(func() error {
		v, err := s.store.GetSettings(gctx, owner)
		r.settings = v
		return core.Dependency("get settings", err)
	})
	if withGoals {
		g.Go(func() error {
			v, err := s.store.ListGoals(gctx, owner)
			r.goals = v
			return core.Dependency("list goals", err)
		})
	}

	if err := g.Wait(); err != nil {
		return records{}, err
	}
	return r, nil
}

// budget runs the three aggregators and the daily target calculation.
func (s *FinanceService) budget(owner string, r records, asOf core.Date) (core.Snapshot, error) {
	snap := core.Snapshot{Owner: owner, AsOf: asOf}

	var g errgroup.Group
	g.Go(func() error {
		v, err := s.engine.AggregateIncome(r.sources, r.projects, asOf)
		snap.Income = v
		return err
	})
	g.Go(func() error {
		v, err := s.engine.AggregateExpenses(r.expenses, asOf)
		snap.Expenses = v
		return err
	})
	g.Go(func() error {
		v, err := s.engine.SummarizeAccounts(r.accounts)
		snap.Accounts = v
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Snapshot{}, err
	}

	daily, metrics, err := s.engine.DailyTarget(snap.Income, snap.Expenses, snap.Accounts, r.settings, asOf)
	if err != nil {
		return core.Snapshot{}, err
	}
	snap.Daily = daily
	snap.Metrics = metrics
	return snap, nil
}

// Snapshot computes every aggregate, the daily target and the goal
// projections for owner as of asOf.
func (s *FinanceService) Snapshot(ctx context.Context, owner string, asOf core.Date) (core.Snapshot, error) {
	start := time.Now()
	r, err := s.read(ctx, owner, true)
	if err != nil {
		return core.Snapshot{}, s.fail(ctx, log.OpSnapshot, owner, err)
	}
	snap, err := s.budget(owner, r, asOf)
	if err != nil {
		return core.Snapshot{}, s.fail(ctx, log.OpSnapshot, owner, err)
	}
	snap.Goals, err = s.engine.ProjectGoals(r.goals, snap.Daily.MonthlySurplus, asOf)
	if err != nil {
		return core.Snapshot{}, s.fail(ctx, log.OpSnapshot, owner, err)
	}

	s.logger.DebugContext(ctx, "Snapshot computed",
		log.FieldOwner, owner,
		log.FieldAsOf, asOf.String(),
		log.FieldGoalCount, len(snap.Goals.Goals),
		log.FieldDuration, time.Since(start).Milliseconds())
	return snap, nil
}

// DailyTarget returns the daily target and derived metrics without
// touching goals.
func (s *FinanceService) DailyTarget(ctx context.Context, owner string, asOf core.Date) (core.DailyTarget, core.DerivedMetrics, error) {
	r, err := s.read(ctx, owner, false)
	if err != nil {
		return core.DailyTarget{}, core.DerivedMetrics{}, s.fail(ctx, log.OpDaily, owner, err)
	}
	snap, err := s.budget(owner, r, asOf)
	if err != nil {
		return core.DailyTarget{}, core.DerivedMetrics{}, s.fail(ctx, log.OpDaily, owner, err)
	}
	return snap.Daily, snap.Metrics, nil
}

// ProjectGoals forecasts every goal of owner against the current surplus.
func (s *FinanceService) ProjectGoals(ctx context.Context, owner string, asOf core.Date) (core.GoalProjections, error) {
	snap, err := s.Snapshot(ctx, owner, asOf)
	if err != nil {
		return core.GoalProjections{}, err
	}
	return snap.Goals, nil
}

// Breakdown decomposes the balance of one goal. The goal's monthly rate is
// the contribution the waterfall assigns it today.
func (s *FinanceService) Breakdown(ctx context.Context, owner, goalID string, asOf core.Date) (core.GoalBreakdown, error) {
	goal, err := s.store.GetGoal(ctx, owner, goalID)
	if err != nil {
		return core.GoalBreakdown{}, s.fail(ctx, log.OpBreakdown, owner, core.Dependency("get goal", err))
	}
	incomes, err := s.store.ListOneTimeIncomes(ctx, owner)
	if err != nil {
		return core.GoalBreakdown{}, s.fail(ctx, log.OpBreakdown, owner, core.Dependency("list one-time incomes", err))
	}
	snap, err := s.Snapshot(ctx, owner, asOf)
	if err != nil {
		return core.GoalBreakdown{}, err
	}

	projection, ok := snap.Goals.Find(goal.ID)
	if !ok {
		return core.GoalBreakdown{}, core.NotFound("goal", goalID)
	}
	out := s.engine.ResolveBreakdown(goal, projection, incomes, asOf)
	if !out.Consistent {
		s.events.LogBreakdownInconsistent(ctx, owner, goalID)
	}
	return out, nil
}

// ApplyOneTimeIncome credits a one-time income to a goal and returns the
// recomputed projections. Once the store has committed, publishing and
// projection failures are logged and the applied result is still returned.
func (s *FinanceService) ApplyOneTimeIncome(ctx context.Context, owner, incomeID, goalID string, asOf core.Date) (core.ApplyResult, error) {
	res, err := s.store.ApplyOneTimeIncome(ctx, owner, incomeID, goalID, PlanApply(asOf))
	if err != nil {
		err = core.Dependency("apply one-time income", err)
		s.events.LogError(ctx, "Apply one-time income failed", err, log.OpApply,
			log.NewFields().WithOwner(owner).WithIncome(incomeID).WithGoal(goalID))
		return core.ApplyResult{}, err
	}
	s.events.LogIncomeApplied(ctx, owner, incomeID, goalID)

	if s.publisher != nil {
		if err := s.publisher.PublishIncomeApplied(ctx, owner, incomeID, goalID); err != nil {
			s.logger.Failure(ctx, "Failed to publish income applied event", err,
				log.FieldOwner, owner, log.FieldIncomeID, incomeID, log.FieldOperation, log.OpPublish)
		}
	}

	projections, err := s.ProjectGoals(ctx, owner, asOf)
	if err != nil {
		s.logger.WarnContext(ctx, "Projections not refreshed after apply",
			log.FieldOwner, owner, log.FieldGoalID, goalID, log.FieldErrorKind, log.ErrorKind(err))
		return res, nil
	}
	res.Projections = &projections
	return res, nil
}

func (s *FinanceService) fail(ctx context.Context, op, owner string, err error) error {
	s.logger.Failure(ctx, "Finance operation failed", err, log.FieldOperation, op, log.FieldOwner, owner)
	return err
}

// Close releases the store.
func (s *FinanceService) Close() error {
	return s.store.Close()
}
