// Package request defines the request and response envelopes exchanged with
// the load balancer core. Both are passive data carriers: the embedder
// supplies the request, the balancer fills in the routing outcome.
package request
