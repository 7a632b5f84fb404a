// Package manifest describes the three-tier stack as a static graph of
// cloud resources.
//
// [Build] turns a validated [config.Config] into a [Graph] of [Resource]s.
// Every resource carries a typed [Spec] whose Refs method names the keys of
// the resources it needs; the graph derives its edges from those references
// and can be layered ([Graph.Levels]) so that provisioning creates
// independent resources of one level concurrently and levels strictly one
// after another.
//
// The graph is pure data. Nothing in this package talks to AWS.
package manifest
