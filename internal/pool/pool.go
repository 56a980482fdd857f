package pool

import (
	"sync"
	"sync/atomic"

	"github.com/angeloszaimis/lbcore/internal/server"
)

// Pool is an ordered collection of backend servers with copy-on-write
// semantics. Readers iterate over an immutable snapshot taken at call time;
// add and remove swap in a fresh slice and never disturb a snapshot already
// handed out.
type Pool struct {
	members atomic.Pointer[memberList]
	mu      sync.Mutex // serializes mutation; reads are lock-free
}

type memberList struct {
	servers []*server.Server
}

// New creates an empty pool.
func New() *Pool {
	p := &Pool{}
	p.members.Store(&memberList{})
	return p
}

// Snapshot returns the current members in pool order. The returned slice is
// shared and must not be modified by the caller.
func (p *Pool) Snapshot() []*server.Server {
	return p.members.Load().servers
}

// Len returns the number of servers currently in the pool.
func (p *Pool) Len() int {
	return len(p.members.Load().servers)
}

// Add appends a server to the pool. Adding is a no-op when a server with the
// same id is already present. Returns whether the pool changed.
func (p *Pool) Add(s *server.Server) bool {
	if s == nil {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	current := p.members.Load().servers
	for _, member := range current {
		if member.ID() == s.ID() {
			return false
		}
	}

	servers := make([]*server.Server, len(current)+1)
	copy(servers, current)
	servers[len(servers)-1] = s

	p.members.Store(&memberList{servers: servers})
	return true
}

// Remove deletes the server with the given id, preserving the order of the
// remaining members. Counters on the removed server are not reset. Returns
// whether a server was removed.
func (p *Pool) Remove(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	current := p.members.Load().servers

	idx := -1
	for i, member := range current {
		if member.ID() == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	servers := make([]*server.Server, 0, len(current)-1)
	servers = append(servers, current[:idx]...)
	servers = append(servers, current[idx+1:]...)

	p.members.Store(&memberList{servers: servers})
	return true
}
