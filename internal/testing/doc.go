// Package testing provides test utilities, builders, and fakes for unit tests.
//
// This package centralizes common testing patterns to avoid duplication across test files:
//   - ConfigBuilder: Fluent builder for creating test configurations
//   - FakeCloud: In-memory AWS implementing every platform manager interface
//
// Usage:
//
//	cfg := testing.NewConfigBuilder().
//	    WithProject("shop").
//	    WithRegion("eu-west-1").
//	    Build()
//
//	cloud := testing.NewFakeCloud("eu-west-1")
//	cloud.FailOn("EnsureNATGateway", errors.New("quota exceeded"))
package testing
