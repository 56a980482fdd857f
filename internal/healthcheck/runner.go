package healthcheck

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// Balancer is the slice of the orchestrator the runner drives.
type Balancer interface {
	HealthCheck(ctx context.Context)
	Name() string
}

// Runner triggers a health sweep over a balancer's servers on a fixed
// interval until its context is cancelled.
type Runner struct {
	balancer Balancer
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
}

// NewRunner builds a runner. A nil clock falls back to the wall clock.
func NewRunner(balancer Balancer, interval time.Duration, clock clockwork.Clock, logger *slog.Logger) *Runner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Runner{
		balancer: balancer,
		interval: interval,
		clock:    clock,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	r.logger.Info("Health check runner started",
		slog.String("balancer", r.balancer.Name()),
		slog.Duration("interval", r.interval))

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Health check runner stopped",
				slog.String("balancer", r.balancer.Name()))
			return

		case <-ticker.Chan():
			r.balancer.HealthCheck(ctx)
		}
	}
}
