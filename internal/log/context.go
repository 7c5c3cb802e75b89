package log

import (
	"context"
	"log/slog"
)

type contextKey string

const loggerContextKey contextKey = "logger"

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// FromContext extracts the logger stored by NewContext, falling back to the
// process default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// StructuredLogger provides the domain events logged by the finance service.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogIncomeApplied records a completed apply transition.
func (sl *StructuredLogger) LogIncomeApplied(ctx context.Context, owner, incomeID, goalID string) {
	fields := NewFields().
		WithOwner(owner).
		WithIncome(incomeID).
		WithGoal(goalID).
		WithOperation(OpApply)
	sl.logger.InfoContext(ctx, "One-time income applied", fields.ToSlice()...)
}

// LogBreakdownInconsistent flags a goal whose stored balance is lower than
// the credits recorded against it.
func (sl *StructuredLogger) LogBreakdownInconsistent(ctx context.Context, owner, goalID string) {
	fields := NewFields().
		WithOwner(owner).
		WithGoal(goalID).
		WithOperation(OpBreakdown)
	sl.logger.WarnContext(ctx, "Goal balance does not reconcile with applied incomes", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	all := fields.
		WithError(err).
		WithOperation(operation)
	sl.logger.ErrorContext(ctx, msg, all.ToSlice()...)
}
