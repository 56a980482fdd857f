package strategy

import (
	"github.com/angeloszaimis/lbcore/internal/server"
)

type leastConnectionsStrategy struct{}

// NewLeastConnectionsStrategy creates a least-connections strategy. It is
// stateless across calls; the load counter it compares is the cumulative
// number of requests routed, so selection follows lifetime request share
// rather than current in-flight concurrency.
func NewLeastConnectionsStrategy() Strategy {
	return &leastConnectionsStrategy{}
}

// SelectServer scans the pool once and returns the healthy server with the
// lowest load count. Ties keep the earliest-encountered server.
func (l *leastConnectionsStrategy) SelectServer(servers []*server.Server) *server.Server {
	if len(servers) == 0 {
		return nil
	}

	var best *server.Server
	var bestLoad uint64

	for _, s := range servers {
		if !s.IsHealthy() {
			continue
		}

		load := s.LoadCount()
		if best == nil || load < bestLoad {
			best = s
			bestLoad = load
		}
	}

	return best
}
