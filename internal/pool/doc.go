// Package pool maintains the live, ordered collection of backend servers.
// Mutation swaps an immutable snapshot under a small lock (copy-on-write),
// so routing and health-check iteration always observe a consistent view
// and are never blocked or corrupted by concurrent add/remove.
package pool
