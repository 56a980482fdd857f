package strategy

import (
	"sync/atomic"

	"github.com/angeloszaimis/lbcore/internal/server"
)

type roundRobinStrategy struct {
	cursor atomic.Uint64
}

// NewRoundRobinStrategy creates a round-robin strategy with its cursor at zero.
func NewRoundRobinStrategy() Strategy {
	return &roundRobinStrategy{}
}

// SelectServer advances the shared cursor once per probe attempt and returns
// the first healthy server found, visiting each pool position at most once
// starting from the next cyclic offset.
func (r *roundRobinStrategy) SelectServer(servers []*server.Server) *server.Server {
	n := uint64(len(servers))
	if n == 0 {
		return nil
	}

	for i := uint64(0); i < n; i++ {
		next := r.cursor.Add(1) - 1

		candidate := servers[next%n]
		if candidate.IsHealthy() {
			return candidate
		}
	}

	return nil
}
