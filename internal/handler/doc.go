// Package handler exposes the load balancer core over HTTP.
// It wraps incoming requests into routing envelopes and writes
// the routed result back as JSON.
package handler
