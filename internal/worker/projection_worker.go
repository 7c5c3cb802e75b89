package worker

import (
	"context"
	"errors"
	"time"

	"risparmi/internal/amqp"
	"risparmi/internal/cache"
	"risparmi/internal/core"
	"risparmi/internal/log"
)

// Projector recomputes the goal projections of one owner.
type Projector interface {
	ProjectGoals(ctx context.Context, owner string, asOf core.Date) (core.GoalProjections, error)
}

const (
	seenEventsSize = 4096
	seenEventsTTL  = time.Hour
)

// ProjectionWorker refreshes projections whenever an income is applied.
type ProjectionWorker struct {
	projector Projector
	today     func() core.Date
	logger    *log.Logger
	// seen holds recently handled events; an income is applied at most once
	// so a repeated key is a redelivery.
	seen *cache.LRU[struct{}]
}

func NewProjectionWorker(projector Projector, logger *log.Logger) *ProjectionWorker {
	if logger == nil {
		logger = log.Nop()
	}
	return &ProjectionWorker{
		projector: projector,
		today:     func() core.Date { return core.DateOf(time.Now()) },
		logger:    logger.WithComponent(log.ComponentWorker),
		seen:      cache.NewLRU[struct{}](seenEventsSize, seenEventsTTL),
	}
}

// SeenEvents exposes the redelivery cache so it can be swept.
func (w *ProjectionWorker) SeenEvents() cache.Sweepable {
	return w.seen
}

// HandleIncomeApplied recomputes the owner's projections. Records that no
// longer exist or fail validation are logged and acknowledged; store
// failures are returned so the message is redelivered.
func (w *ProjectionWorker) HandleIncomeApplied(ctx context.Context, msg *amqp.IncomeAppliedMessage) error {
	key := msg.Owner + "/" + msg.IncomeID + "/" + msg.GoalID
	if _, ok := w.seen.Get(key); ok {
		w.logger.DebugContext(ctx, "Skipping redelivered event",
			log.FieldOwner, msg.Owner, log.FieldIncomeID, msg.IncomeID)
		return nil
	}
	if err := w.Refresh(ctx, msg.Owner, msg.GoalID); err != nil {
		return err
	}
	w.seen.Add(key, struct{}{})
	return nil
}

// Refresh recomputes and logs the projections of owner. changedGoal, when
// set, is tagged in the log output.
func (w *ProjectionWorker) Refresh(ctx context.Context, owner, changedGoal string) error {
	start := time.Now()
	asOf := w.today()

	projections, err := w.projector.ProjectGoals(ctx, owner, asOf)
	switch {
	case errors.Is(err, core.ErrNotFound), errors.Is(err, core.ErrValidation):
		w.logger.WarnContext(ctx, "Skipping projection refresh",
			log.FieldOwner, owner,
			log.FieldErrorKind, log.ErrorKind(err))
		return nil
	case err != nil:
		return err
	}

	for _, p := range projections.Goals {
		args := []any{
			log.FieldOwner, owner,
			log.FieldGoalID, p.GoalID,
			log.FieldUnreachable, p.Unreachable,
		}
		if p.MonthsRemaining != nil {
			args = append(args, log.FieldMonthsLeft, *p.MonthsRemaining)
		}
		if p.GoalID == changedGoal {
			args = append(args, "changed", true)
		}
		w.logger.InfoContext(ctx, "Goal projection refreshed", args...)
	}

	w.logger.InfoContext(ctx, "Projections refreshed",
		log.FieldOwner, owner,
		log.FieldAsOf, asOf.String(),
		log.FieldGoalCount, len(projections.Goals),
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}
