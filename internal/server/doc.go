// Package server defines the backend server entity tracked by the load
// balancer: identity, address, health flag and cumulative load counter.
// All mutable state is held in atomics so reads on the routing hot path
// never block and never observe torn values.
package server
