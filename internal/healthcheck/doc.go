// Package healthcheck implements periodic health checking for pool servers.
// A Prober decides the outcome of a single probe and the Runner schedules
// sweeps across a balancer on a fixed interval.
package healthcheck
