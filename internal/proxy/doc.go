// Package proxy implements the public web tier: a stateless gin service
// that forwards a fixed set of paths to the private backend and relays its
// JSON, or a synthesized error envelope when the backend fails.
//
// Every call is bounded by a per-endpoint timeout and never retried.
package proxy
