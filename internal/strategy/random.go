package strategy

import (
	"math/rand/v2"

	"github.com/angeloszaimis/lbcore/internal/server"
)

type randomStrategy struct{}

// NewRandomStrategy creates a strategy that picks uniformly from the healthy
// subset of the pool.
func NewRandomStrategy() Strategy {
	return &randomStrategy{}
}

func (r *randomStrategy) SelectServer(servers []*server.Server) *server.Server {
	if len(servers) == 0 {
		return nil
	}

	healthy := make([]*server.Server, 0, len(servers))
	for _, s := range servers {
		if s.IsHealthy() {
			healthy = append(healthy, s)
		}
	}

	if len(healthy) == 0 {
		return nil
	}

	return healthy[rand.IntN(len(healthy))]
}
