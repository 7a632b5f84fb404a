// Package retry wraps flaky cloud calls.
//
// WithExponentialBackoff retries an operation with growing delays and stops
// early on errors marked with Fatal or rejected by a WithRetryIf predicate.
// Poll waits for a condition such as "NAT gateway is available".
package retry
