package balancer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/angeloszaimis/lbcore/internal/healthcheck"
	"github.com/angeloszaimis/lbcore/internal/metrics"
	"github.com/angeloszaimis/lbcore/internal/pool"
	"github.com/angeloszaimis/lbcore/internal/request"
	"github.com/angeloszaimis/lbcore/internal/server"
	"github.com/angeloszaimis/lbcore/internal/strategy"
)

// ErrStopped is returned by RouteRequest after Shutdown. It is distinct from
// a 503 response, which reports an empty healthy set on a running balancer.
var ErrStopped = errors.New("load balancer is stopped")

// LoadBalancer owns the server pool and the active selection strategy, routes
// requests through the injected processor, and refreshes server health through
// the injected prober. All operations are safe for concurrent use.
type LoadBalancer struct {
	name      string
	strategy  strategy.Strategy
	pool      *pool.Pool
	prober    healthcheck.Prober
	processor Processor
	collector *metrics.Collector
	logger    *slog.Logger
	running   atomic.Bool

	// keyMu serializes SetKey with the selection that consumes the key.
	keyMu sync.Mutex
}

// New builds a running balancer with an empty pool. The collector may be nil
// when metrics are not wanted.
func New(
	name string,
	strat strategy.Strategy,
	prober healthcheck.Prober,
	processor Processor,
	collector *metrics.Collector,
	logger *slog.Logger,
) *LoadBalancer {
	lb := &LoadBalancer{
		name:      name,
		strategy:  strat,
		pool:      pool.New(),
		prober:    prober,
		processor: processor,
		collector: collector,
		logger:    logger,
	}
	lb.running.Store(true)

	return lb
}

// AddServer appends a server to the pool. Adding an id already present is a
// no-op returning false.
func (lb *LoadBalancer) AddServer(srv *server.Server) bool {
	added := lb.pool.Add(srv)
	if added {
		lb.logger.Info("Server added",
			slog.String("balancer", lb.name),
			slog.String("server", srv.ID()),
			slog.String("address", srv.Address()))
	}

	return added
}

// RemoveServer removes the server with the given id. The server keeps its
// counters; re-adding it later retains history.
func (lb *LoadBalancer) RemoveServer(id string) bool {
	removed := lb.pool.Remove(id)
	if removed {
		lb.logger.Info("Server removed",
			slog.String("balancer", lb.name),
			slog.String("server", id))
	}

	return removed
}

// RouteRequest picks a server via the active strategy and runs the request on
// it through the processor collaborator. A stopped balancer returns ErrStopped.
// An empty healthy set yields a 503 response with no server and no counter
// mutation. Exactly one selection attempt is made per call.
func (lb *LoadBalancer) RouteRequest(ctx context.Context, req *request.Request) (*request.Response, error) {
	if !lb.running.Load() {
		return nil, ErrStopped
	}

	servers := lb.pool.Snapshot()

	selected := lb.selectServer(servers, req.ClientIP)
	if selected == nil {
		lb.logger.Warn("No healthy server available",
			slog.String("balancer", lb.name),
			slog.String("request_id", req.ID))

		lb.collector.Emit(metrics.MetricEvent{
			Type:      metrics.EventRequestRejected,
			Timestamp: time.Now(),
		})

		return &request.Response{
			RequestID:  req.ID,
			StatusCode: http.StatusServiceUnavailable,
			Data:       "Service Unavailable - No healthy backends",
		}, nil
	}

	selected.IncrementLoad()

	lb.logger.Info("Routing request",
		slog.String("balancer", lb.name),
		slog.String("request_id", req.ID),
		slog.String("server", selected.ID()))

	lb.collector.Emit(metrics.MetricEvent{
		Type:      metrics.EventRequestRouted,
		Timestamp: time.Now(),
		ServerID:  selected.ID(),
	})

	statusCode, elapsed := lb.processor.Process(ctx, req, selected)

	lb.collector.Emit(metrics.MetricEvent{
		Type:       metrics.EventResponseCompleted,
		Timestamp:  time.Now(),
		ServerID:   selected.ID(),
		Duration:   elapsed,
		StatusCode: statusCode,
	})

	return &request.Response{
		RequestID:      req.ID,
		StatusCode:     statusCode,
		Data:           fmt.Sprintf("Response from %s (processed in %dms)", selected.ID(), elapsed.Milliseconds()),
		Server:         selected,
		ProcessingTime: elapsed,
	}, nil
}

// selectServer runs one strategy attempt. Strategies carrying a client key
// get the key and the selection as one unit so concurrent callers cannot
// interleave between the two.
func (lb *LoadBalancer) selectServer(servers []*server.Server, clientKey string) *server.Server {
	if ks, ok := lb.strategy.(strategy.KeySetter); ok {
		lb.keyMu.Lock()
		defer lb.keyMu.Unlock()

		ks.SetKey(clientKey)
		return lb.strategy.SelectServer(servers)
	}

	return lb.strategy.SelectServer(servers)
}

// HealthCheck probes every server in the current snapshot and applies the
// outcome to its health flag. Only transitions are logged. No-op when stopped.
func (lb *LoadBalancer) HealthCheck(ctx context.Context) {
	if !lb.running.Load() {
		return
	}

	servers := lb.pool.Snapshot()
	lb.logger.Debug("Health check sweep",
		slog.String("balancer", lb.name),
		slog.Int("servers", len(servers)))

	for _, srv := range servers {
		healthy := lb.prober.Probe(ctx, srv)

		changed := srv.SetHealthy(healthy)
		if !changed {
			continue
		}

		if healthy {
			lb.logger.Info("Server is back up",
				slog.String("balancer", lb.name),
				slog.String("server", srv.ID()))
		} else {
			lb.logger.Warn("Server is down",
				slog.String("balancer", lb.name),
				slog.String("server", srv.ID()))
		}

		lb.collector.Emit(metrics.MetricEvent{
			Type:      metrics.EventHealthChanged,
			Timestamp: time.Now(),
			ServerID:  srv.ID(),
			Healthy:   healthy,
		})
	}
}

// Servers returns a copy of the current pool snapshot.
func (lb *LoadBalancer) Servers() []*server.Server {
	snapshot := lb.pool.Snapshot()

	servers := make([]*server.Server, len(snapshot))
	copy(servers, snapshot)
	return servers
}

func (lb *LoadBalancer) ServerCount() int {
	return lb.pool.Len()
}

func (lb *LoadBalancer) HealthyCount() int {
	count := 0
	for _, srv := range lb.pool.Snapshot() {
		if srv.IsHealthy() {
			count++
		}
	}

	return count
}

func (lb *LoadBalancer) Name() string {
	return lb.name
}

func (lb *LoadBalancer) Strategy() strategy.Strategy {
	return lb.strategy
}

func (lb *LoadBalancer) IsRunning() bool {
	return lb.running.Load()
}

// Shutdown stops the balancer. The transition is terminal; there is no
// restart path. A request that began routing before the flag flipped is
// allowed to complete.
func (lb *LoadBalancer) Shutdown() {
	if lb.running.Swap(false) {
		lb.logger.Info("Load balancer shutting down",
			slog.String("balancer", lb.name))
	}
}
