// Package metrics provides real-time metrics collection for the balancer.
//
// It uses a channel-based event pipeline to asynchronously collect metrics about:
//   - Routed request counts per server
//   - Rejected requests (no healthy server available)
//   - Response times with percentile calculations (P50, P95, P99)
//   - Status code distribution per server
//   - Health status tracking
//
// The collector runs in a dedicated goroutine and processes events without
// blocking the routing path. Events are sent via Emit, which drops on a full
// buffer rather than stall a caller.
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//
//	// Emit events during request routing
//	collector.Emit(metrics.MetricEvent{
//		Type:       metrics.EventResponseCompleted,
//		ServerID:   "srv-a",
//		Duration:   150 * time.Millisecond,
//		StatusCode: 200,
//	})
//
//	// Get metrics snapshot
//	snapshot := collector.Snapshot("round-robin")
//
// The package provides thread-safe metrics storage using sync.RWMutex and
// supports graceful shutdown with event draining to prevent data loss.
package metrics
