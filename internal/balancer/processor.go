package balancer

import (
	"context"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/angeloszaimis/lbcore/internal/request"
	"github.com/angeloszaimis/lbcore/internal/server"
)

// Simulated backend defaults: 5% failures, 50-200ms latency.
const (
	DefaultFailureRate = 0.05
	DefaultMinLatency  = 50 * time.Millisecond
	DefaultMaxLatency  = 200 * time.Millisecond
)

// Processor stands in for the backend transport. It executes a request on the
// chosen server and reports the resulting status code and elapsed time. The
// balancer passes any status code through unchanged.
type Processor interface {
	Process(ctx context.Context, req *request.Request, srv *server.Server) (int, time.Duration)
}

// ProcessorFunc adapts a plain function to the Processor interface.
type ProcessorFunc func(ctx context.Context, req *request.Request, srv *server.Server) (int, time.Duration)

func (f ProcessorFunc) Process(ctx context.Context, req *request.Request, srv *server.Server) (int, time.Duration) {
	return f(ctx, req, srv)
}

// SimulatedProcessor fakes backend processing: a uniform latency drawn from
// [minLatency, maxLatency) and a fixed failure rate producing 500s. A failure
// rate outside [0, 1] or a non-positive latency range falls back to the
// defaults. The sleep is cut short when ctx is cancelled.
func SimulatedProcessor(failureRate float64, minLatency, maxLatency time.Duration) Processor {
	if failureRate < 0 || failureRate > 1 {
		failureRate = DefaultFailureRate
	}
	if minLatency <= 0 || maxLatency < minLatency {
		minLatency = DefaultMinLatency
		maxLatency = DefaultMaxLatency
	}

	return ProcessorFunc(func(ctx context.Context, req *request.Request, srv *server.Server) (int, time.Duration) {
		latency := minLatency
		if span := maxLatency - minLatency; span > 0 {
			latency += rand.N(span)
		}

		start := time.Now()
		select {
		case <-time.After(latency):
		case <-ctx.Done():
		}
		elapsed := time.Since(start)

		if rand.Float64() < failureRate {
			return http.StatusInternalServerError, elapsed
		}
		return http.StatusOK, elapsed
	})
}
