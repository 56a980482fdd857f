package healthcheck

import (
	"context"
	"math/rand/v2"

	"github.com/angeloszaimis/lbcore/internal/server"
)

// DefaultPassRate is the probe pass probability used when none is configured.
const DefaultPassRate = 0.9

// Prober decides whether a server should be considered healthy. The balancer
// applies the outcome to the server's health flag during a sweep.
type Prober interface {
	Probe(ctx context.Context, srv *server.Server) bool
}

// ProberFunc adapts a plain function to the Prober interface.
type ProberFunc func(ctx context.Context, srv *server.Server) bool

func (f ProberFunc) Probe(ctx context.Context, srv *server.Server) bool {
	return f(ctx, srv)
}

// SimulatedProber passes a probe with the given probability, independent of
// the server's current state. Rates outside (0, 1] fall back to
// DefaultPassRate.
func SimulatedProber(passRate float64) Prober {
	if passRate <= 0 || passRate > 1 {
		passRate = DefaultPassRate
	}

	return ProberFunc(func(ctx context.Context, srv *server.Server) bool {
		return rand.Float64() < passRate
	})
}
