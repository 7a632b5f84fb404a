// Package config defines the stack configuration consumed by tierctl.
//
// The [Config] struct is the flat parameter surface of the three-tier
// deployment: project identity, region, network CIDR, per-service sizing
// and scaling thresholds, database sizing and log retention. It is loaded
// from YAML, completed with defaults and validated before a resource graph
// is built from it.
package config
