package strategy

import (
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/angeloszaimis/lbcore/internal/server"
)

// ipHashStrategy maps a client key onto a pool position by hashing, probing
// forward past unhealthy servers. The mapping is plain modulo over the pool
// length: membership changes reshuffle most keys (no consistent-hashing
// ring), and a key displaced by an unhealthy server is not re-stabilized
// after recovery.
type ipHashStrategy struct {
	hashKey atomic.Uint64
}

// NewIPHashStrategy creates an IP-hash affinity strategy. The client key for
// each selection is supplied through SetKey.
func NewIPHashStrategy() Strategy {
	return &ipHashStrategy{}
}

// SetKey hashes the client identifier used by the next selection. Callers
// routing concurrently must pair SetKey and SelectServer under one lock so
// keys cannot interleave.
func (s *ipHashStrategy) SetKey(key string) {
	s.hashKey.Store(xxhash.Sum64String(key))
}

// SelectServer probes forward from the hashed position, wrapping at most
// once around the pool, and returns the first healthy server. Identical key
// and identical pool state always yield the identical server.
func (s *ipHashStrategy) SelectServer(servers []*server.Server) *server.Server {
	n := uint64(len(servers))
	if n == 0 {
		return nil
	}

	start := s.hashKey.Load() % n

	for i := uint64(0); i < n; i++ {
		candidate := servers[(start+i)%n]
		if candidate.IsHealthy() {
			return candidate
		}
	}

	return nil
}
