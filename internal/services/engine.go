package services

import (
	"fmt"

	"risparmi/internal/core"
)

// EngineConfig carries the tunable constants of the engine.
type EngineConfig struct {
	Periods PeriodTable
	// BreakdownTolerance bounds the rounding slack accepted when a goal
	// breakdown is reconciled against the stored balance.
	BreakdownTolerance core.Money
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Periods:            DefaultPeriodTable(),
		BreakdownTolerance: core.Cents(1),
	}
}

// Engine runs the pure allocation and projection calculations. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	periods   PeriodTable
	tolerance core.Money
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Periods == nil {
		cfg.Periods = DefaultPeriodTable()
	}
	if err := cfg.Periods.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	if cfg.BreakdownTolerance.IsNegative() {
		return nil, fmt.Errorf("engine config: %w", core.Invalid("breakdown_tolerance", "must be non-negative"))
	}
	return &Engine{periods: cfg.Periods, tolerance: cfg.BreakdownTolerance}, nil
}

// Periods exposes the normalization table in use.
func (e *Engine) Periods() PeriodTable { return e.periods }
