// Package config handles loading and parsing of configuration from YAML files
// and environment variables. It defines the application configuration structure
// including the balancer identity, the backend server pool, strategy selection,
// health check cadence and the simulated processing profile.
package config
