// Package strategy defines the server selection interface and implements
// the five balancing policies:
//
//   - Round Robin: cyclic distribution driven by a shared atomic cursor
//   - Least Connections: routes to the server with the lowest cumulative load
//   - Random: uniform choice over the healthy subset
//   - IP Hash: hashes the client key onto a pool position for session affinity
//   - Weighted Round Robin: distribution proportional to per-id weights
//
// All strategies skip unhealthy servers and return nil when none is
// eligible. Cursor state is private to one balancer and pool pairing;
// sharing a strategy instance across balancers corrupts its sequence.
package strategy
