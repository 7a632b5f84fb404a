// Package aws wraps the AWS services used by the three-tier stack behind
// small manager interfaces.
//
// Every Ensure method is idempotent: it looks the resource up by its name
// (the Name tag for EC2 resources, the native name everywhere else) and only
// creates it when missing. Every Delete method succeeds when the resource is
// already gone. Callers therefore never need stored state to re-run an apply
// or a destroy.
//
// [RealClient] implements [InfrastructureManager] with aws-sdk-go-v2. Tests
// use the in-memory fake in internal/testing.
package aws
