package strategy

import (
	"sync"

	"github.com/angeloszaimis/lbcore/internal/server"
)

// weightedRoundRobinStrategy distributes selections proportionally to
// per-server weights over a repeating cycle. Weights are keyed by stable
// server id and supplied at construction, so reordering the pool or adding
// and removing servers never reattaches a weight to the wrong server.
// Servers without a configured weight count as weight 1.
type weightedRoundRobinStrategy struct {
	mu      sync.Mutex
	weights map[string]int
	cursor  int
}

// NewWeightedRoundRobinStrategy creates a weighted round-robin strategy from
// an id-to-weight table, usually built from configuration. Entries with
// non-positive weights are dropped; a nil table gives every server weight 1.
func NewWeightedRoundRobinStrategy(weights map[string]int) Strategy {
	table := make(map[string]int, len(weights))
	for id, weight := range weights {
		if weight > 0 {
			table[id] = weight
		}
	}

	return &weightedRoundRobinStrategy{weights: table}
}

// DefaultWeights builds the default weight table for the given server ids:
// the repeating pattern 1, 2, 3 assigned in order.
func DefaultWeights(ids []string) map[string]int {
	weights := make(map[string]int, len(ids))
	for i, id := range ids {
		weights[id] = i%3 + 1
	}
	return weights
}

// SelectServer walks the pool accumulating the weights of healthy servers
// and returns the first one whose bucket covers cursor mod totalWeight.
// The cursor advances exactly once per call regardless of the walk outcome;
// over one full cycle of totalWeight calls with a static healthy pool, each
// server is selected weight-many times in bucket order.
func (w *weightedRoundRobinStrategy) SelectServer(servers []*server.Server) *server.Server {
	if len(servers) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	totalWeight := 0
	for _, s := range servers {
		if s.IsHealthy() {
			totalWeight += w.weightOf(s)
		}
	}
	if totalWeight == 0 {
		return nil
	}

	target := w.cursor % totalWeight
	w.cursor++

	accumulated := 0
	for _, s := range servers {
		if !s.IsHealthy() {
			continue
		}

		accumulated += w.weightOf(s)
		if target < accumulated {
			return s
		}
	}

	// A server flipped unhealthy between the weight sum and the walk.
	return nil
}

func (w *weightedRoundRobinStrategy) weightOf(s *server.Server) int {
	if weight, ok := w.weights[s.ID()]; ok {
		return weight
	}
	return 1
}
