package cache

import (
	"context"
	"time"

	"risparmi/internal/log"
)

// Sweepable is a cache that can drop its expired entries.
type Sweepable interface {
	Sweep() int
}

// Sweeper periodically sweeps a set of caches until its context ends.
type Sweeper struct {
	caches []Sweepable
	logger *log.Logger
}

func NewSweeper(logger *log.Logger, caches ...Sweepable) *Sweeper {
	if logger == nil {
		logger = log.Nop()
	}
	return &Sweeper{caches: caches, logger: logger}
}

// Run blocks, sweeping every interval, and returns when ctx is done.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.SweepOnce(); n > 0 {
				s.logger.DebugContext(ctx, "Swept expired cache entries", "removed", n)
			}
		}
	}
}

// SweepOnce sweeps every cache and returns the total number of removals.
func (s *Sweeper) SweepOnce() int {
	total := 0
	for _, c := range s.caches {
		total += c.Sweep()
	}
	return total
}
