package strategy

import (
	"github.com/angeloszaimis/lbcore/internal/server"
)

// Strategy picks one server from a pool snapshot per request. Implementations
// must skip unhealthy servers, must never mutate the slice, and return nil
// when no eligible server exists.
type Strategy interface {
	SelectServer(servers []*server.Server) *server.Server
}

// KeySetter is implemented by affinity strategies that derive their choice
// from a client key supplied before selection.
type KeySetter interface {
	SetKey(key string)
}
