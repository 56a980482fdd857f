package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angeloszaimis/lbcore/config"
	"github.com/angeloszaimis/lbcore/internal/balancer"
	"github.com/angeloszaimis/lbcore/internal/healthcheck"
	"github.com/angeloszaimis/lbcore/internal/request"
	"github.com/angeloszaimis/lbcore/internal/server"
	"github.com/angeloszaimis/lbcore/internal/strategy"
)

// runDemoScenarios walks the balancer through its core behaviors before the
// listener comes up: round-robin distribution, least-connections selection,
// failover around a dead server, and health check sweeps. Each scenario runs
// against its own balancer so the main pool's counters stay clean.
func runDemoScenarios(ctx context.Context, log *slog.Logger, cfg *config.Config, processor balancer.Processor) {
	log.Info("Demo scenarios starting")

	prober := healthcheck.SimulatedProber(cfg.HealthCheck.PassRate)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		demoRoundRobin(ctx, log, prober, processor)
		return nil
	})
	group.Go(func() error {
		demoLeastConnections(ctx, log, prober, processor)
		return nil
	})
	group.Go(func() error {
		demoFaultTolerance(ctx, log, prober, processor)
		return nil
	})
	group.Go(func() error {
		demoHealthCheck(ctx, log, prober, processor)
		return nil
	})

	_ = group.Wait()

	log.Info("Demo scenarios complete")
}

func demoRoundRobin(ctx context.Context, log *slog.Logger, prober healthcheck.Prober, processor balancer.Processor) {
	log.Info("Demo: round-robin distribution",
		slog.String("description", "requests cycle sequentially across servers"))

	lb := balancer.New("lb-round-robin", strategy.NewRoundRobinStrategy(), prober, processor, nil, log)
	lb.AddServer(server.New("server-a", "192.168.1.10", 8080))
	lb.AddServer(server.New("server-b", "192.168.1.11", 8080))
	lb.AddServer(server.New("server-c", "192.168.1.12", 8080))

	routeDemoRequests(ctx, log, lb, "GET", "/api/data", 9)
	logStats(log, lb)
}

func demoLeastConnections(ctx context.Context, log *slog.Logger, prober healthcheck.Prober, processor balancer.Processor) {
	log.Info("Demo: least-connections selection",
		slog.String("description", "requests go to the server with the lowest load count"))

	lb := balancer.New("lb-least-connections", strategy.NewLeastConnectionsStrategy(), prober, processor, nil, log)
	lb.AddServer(server.New("server-x", "192.168.2.10", 8080))
	lb.AddServer(server.New("server-y", "192.168.2.11", 8080))
	lb.AddServer(server.New("server-z", "192.168.2.12", 8080))

	routeDemoRequests(ctx, log, lb, "POST", "/api/data", 9)
	logStats(log, lb)
}

func demoFaultTolerance(ctx context.Context, log *slog.Logger, prober healthcheck.Prober, processor balancer.Processor) {
	log.Info("Demo: failover around a dead server",
		slog.String("description", "routing skips a server marked unhealthy mid-run"))

	lb := balancer.New("lb-fault-tolerance", strategy.NewRoundRobinStrategy(), prober, processor, nil, log)

	failing := server.New("ft-server-2", "192.168.3.11", 8080)
	lb.AddServer(server.New("ft-server-1", "192.168.3.10", 8080))
	lb.AddServer(failing)
	lb.AddServer(server.New("ft-server-3", "192.168.3.12", 8080))

	routeDemoRequests(ctx, log, lb, "GET", "/api/health", 3)

	failing.SetHealthy(false)
	log.Warn("Demo: server marked unhealthy",
		slog.String("balancer", lb.Name()),
		slog.String("server", failing.ID()))

	routeDemoRequests(ctx, log, lb, "GET", "/api/health", 3)
	logStats(log, lb)
}

func demoHealthCheck(ctx context.Context, log *slog.Logger, prober healthcheck.Prober, processor balancer.Processor) {
	log.Info("Demo: health check sweeps",
		slog.String("description", "periodic probes refresh every server's health flag"))

	lb := balancer.New("lb-health-check", strategy.NewRoundRobinStrategy(), prober, processor, nil, log)
	lb.AddServer(server.New("hc-server-1", "192.168.4.10", 8080))
	lb.AddServer(server.New("hc-server-2", "192.168.4.11", 8080))
	lb.AddServer(server.New("hc-server-3", "192.168.4.12", 8080))

	for i := 0; i < 2; i++ {
		lb.HealthCheck(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}

	logStats(log, lb)
}

func routeDemoRequests(ctx context.Context, log *slog.Logger, lb *balancer.LoadBalancer, method, path string, count int) {
	for i := 1; i <= count; i++ {
		req := request.New(method, path, demoClientIP(i), nil)

		res, err := lb.RouteRequest(ctx, req)
		if err != nil {
			return
		}

		log.Info("Demo response",
			slog.String("balancer", lb.Name()),
			slog.String("response", res.String()))
	}
}

// demoClientIP hands out addresses from the TEST-NET-2 range.
func demoClientIP(i int) string {
	return fmt.Sprintf("198.51.100.%d", i%10+1)
}

func logStats(log *slog.Logger, lb *balancer.LoadBalancer) {
	stats := lb.Stats()

	log.Info("Balancer statistics",
		slog.String("balancer", stats.Name),
		slog.Int("total_servers", stats.TotalServers),
		slog.Int("healthy_servers", stats.HealthyServers))

	for _, srv := range stats.Servers {
		log.Info("Server statistics",
			slog.String("balancer", stats.Name),
			slog.String("server", srv.ID),
			slog.String("address", srv.Address),
			slog.Bool("healthy", srv.Healthy),
			slog.Uint64("load_count", srv.LoadCount))
	}
}
