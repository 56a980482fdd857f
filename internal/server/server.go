package server

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Server represents a backend target with identity, health status and
// cumulative load tracking.
//
// The load counter is monotonic: it counts every request ever routed to this
// server, not the number currently in flight. Removing a server from a pool
// does not reset it; callers wanting a clean slate construct a new instance.
type Server struct {
	id   string
	host string
	port int

	healthy   atomic.Bool
	loadCount atomic.Uint64
	lastProbe atomic.Int64 // unix nanoseconds of the last health write
}

// New creates a new Server with the given identity and address.
// The server starts in a healthy state.
func New(id, host string, port int) *Server {
	s := &Server{
		id:   id,
		host: host,
		port: port,
	}
	s.healthy.Store(true)
	s.lastProbe.Store(time.Now().UnixNano())
	return s
}

// ID returns the stable unique identifier of the server.
// It never changes after creation.
func (s *Server) ID() string {
	return s.id
}

// Host returns the hostname or IP address of the server.
func (s *Server) Host() string {
	return s.host
}

// Port returns the port number of the server.
func (s *Server) Port() int {
	return s.port
}

// Address returns the server address in host:port form.
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.host, s.port)
}

// IncrementLoad atomically increments the cumulative load counter.
func (s *Server) IncrementLoad() {
	s.loadCount.Add(1)
}

// LoadCount returns the cumulative number of requests routed to this server.
func (s *Server) LoadCount() uint64 {
	return s.loadCount.Load()
}

// IsHealthy reports whether the server is currently healthy.
// The read is lock-free and safe from any goroutine.
func (s *Server) IsHealthy() bool {
	return s.healthy.Load()
}

// SetHealthy updates the health flag and refreshes the last probe time.
// The write is immediately visible to all subsequent IsHealthy calls on any
// goroutine. Returns true if the status changed, false if it was already in
// that state.
func (s *Server) SetHealthy(healthy bool) (changed bool) {
	was := s.healthy.Swap(healthy)
	s.lastProbe.Store(time.Now().UnixNano())
	return was != healthy
}

// LastProbeTime returns when the health flag was last written.
func (s *Server) LastProbeTime() time.Time {
	return time.Unix(0, s.lastProbe.Load())
}

func (s *Server) String() string {
	return fmt.Sprintf("Server{id=%s, address=%s, healthy=%t, requests=%d}",
		s.id, s.Address(), s.healthy.Load(), s.loadCount.Load())
}
