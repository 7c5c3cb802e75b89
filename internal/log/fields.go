package log

import (
	"context"
	"errors"

	"risparmi/internal/core"
)

// Common field names for structured logging. Records carry ids and error
// kinds only; amounts, names and descriptions never reach the logs.
const (
	FieldComponent   = "component"
	FieldOwner       = "owner"
	FieldGoalID      = "goal_id"
	FieldIncomeID    = "income_id"
	FieldAsOf        = "as_of"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldErrorKind   = "error_kind"
	FieldDuration    = "duration_ms"
	FieldBackend     = "backend"
	FieldDBPath      = "db_path"
	FieldGoalCount   = "goal_count"
	FieldMonthsLeft  = "months_remaining"
	FieldUnreachable = "unreachable"
	FieldDeliveryTag = "delivery_tag"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentCLI      = "cli"
	ComponentEngine   = "engine"
	ComponentFinance  = "finance"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentBackend  = "backend"
	ComponentConfig   = "config"
	ComponentMigrator = "migrator"
)

// Operations defines standard operation names
const (
	OpSnapshot  = "snapshot"
	OpDaily     = "daily_target"
	OpProject   = "project_goals"
	OpBreakdown = "goal_breakdown"
	OpApply     = "apply_income"
	OpPublish   = "publish"
	OpConsume   = "consume"
	OpMigrate   = "migrate"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation     = "validation_error"
	ErrorTypeConfiguration  = "configuration_error"
	ErrorTypeDependency     = "dependency_error"
	ErrorTypeNetwork        = "network_error"
	ErrorTypeTimeout        = "timeout_error"
	ErrorTypeNotFound       = "not_found_error"
	ErrorTypeAlreadyApplied = "already_applied_error"
	ErrorTypeInternal       = "internal_error"
)

// ErrorKind maps an error onto one of the ErrorType categories.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, core.ErrValidation):
		return ErrorTypeValidation
	case errors.Is(err, core.ErrNotFound):
		return ErrorTypeNotFound
	case errors.Is(err, core.ErrAlreadyApplied):
		return ErrorTypeAlreadyApplied
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeTimeout
	case errors.Is(err, core.ErrDependency):
		return ErrorTypeDependency
	default:
		return ErrorTypeInternal
	}
}

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithOwner(owner string) LogFields {
	f[FieldOwner] = owner
	return f
}

func (f LogFields) WithGoal(goalID string) LogFields {
	f[FieldGoalID] = goalID
	return f
}

func (f LogFields) WithIncome(incomeID string) LogFields {
	f[FieldIncomeID] = incomeID
	return f
}

func (f LogFields) WithAsOf(asOf core.Date) LogFields {
	f[FieldAsOf] = asOf.String()
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds the error message and its kind.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
		f[FieldErrorKind] = ErrorKind(err)
	}
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
