package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angeloszaimis/lbcore/config"
	"github.com/angeloszaimis/lbcore/internal/balancer"
	"github.com/angeloszaimis/lbcore/internal/handler"
	"github.com/angeloszaimis/lbcore/internal/healthcheck"
	"github.com/angeloszaimis/lbcore/internal/httpserver"
	"github.com/angeloszaimis/lbcore/internal/metrics"
	"github.com/angeloszaimis/lbcore/internal/server"
	"github.com/angeloszaimis/lbcore/internal/strategy"
	"github.com/angeloszaimis/lbcore/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Balancer.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	healthInterval, err := time.ParseDuration(cfg.HealthCheck.Interval)
	if err != nil {
		log.Error("Invalid health check interval", slog.Any("err", err))
		os.Exit(1)
	}

	processor, err := newProcessor(cfg)
	if err != nil {
		log.Error("Invalid processing latencies", slog.Any("err", err))
		os.Exit(1)
	}

	collector := metrics.NewCollector(1024, log)
	collector.Start(ctx)

	strat := createStrategy(log, cfg.Strategy.Type, cfg.Servers)

	lb := balancer.New(
		cfg.Balancer.Name,
		strat,
		healthcheck.SimulatedProber(cfg.HealthCheck.PassRate),
		processor,
		collector,
		log,
	)
	for _, sc := range cfg.Servers {
		lb.AddServer(server.New(sc.ID, sc.Host, sc.Port))
	}

	runner := healthcheck.NewRunner(lb, healthInterval, nil, log)
	go runner.Run(ctx)

	runDemoScenarios(ctx, log, cfg, processor)

	loadBalancerHandler := handler.New(log, lb)

	srv, err := httpserver.New(cfg.HTTP.Address, setupRouter(loadBalancerHandler, collector, cfg.Strategy.Type))
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
		lb.Shutdown()
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting load balancer", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func newProcessor(cfg *config.Config) (balancer.Processor, error) {
	minLatency, err := time.ParseDuration(cfg.Processing.MinLatency)
	if err != nil {
		return nil, err
	}

	maxLatency, err := time.ParseDuration(cfg.Processing.MaxLatency)
	if err != nil {
		return nil, err
	}

	return balancer.SimulatedProcessor(cfg.Processing.FailureRate, minLatency, maxLatency), nil
}

func createStrategy(log *slog.Logger, strategyType string, servers []config.ServerConfig) strategy.Strategy {
	switch strategyType {
	case config.StrategyRoundRobin:
		return strategy.NewRoundRobinStrategy()
	case config.StrategyLeastConnections:
		return strategy.NewLeastConnectionsStrategy()
	case config.StrategyRandom:
		return strategy.NewRandomStrategy()
	case config.StrategyIPHash:
		return strategy.NewIPHashStrategy()
	case config.StrategyWeightedRoundRobin:
		return strategy.NewWeightedRoundRobinStrategy(serverWeights(servers))
	default:
		log.Warn("Unknown strategy, defaulting to round-robin", slog.String("requested", strategyType))
		return strategy.NewRoundRobinStrategy()
	}
}

// serverWeights builds the weight table for weighted round-robin. When no
// server carries an explicit weight the default pattern applies.
func serverWeights(servers []config.ServerConfig) map[string]int {
	weights := make(map[string]int, len(servers))
	for _, sc := range servers {
		if sc.Weight > 0 {
			weights[sc.ID] = sc.Weight
		}
	}
	if len(weights) > 0 {
		return weights
	}

	ids := make([]string, 0, len(servers))
	for _, sc := range servers {
		ids = append(ids, sc.ID)
	}

	return strategy.DefaultWeights(ids)
}
