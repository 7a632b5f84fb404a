// Package async provides utilities for parallel task execution.
//
// Provisioning uses it to create the independent resources of one
// dependency level at the same time, while keeping the number of in-flight
// AWS calls bounded to stay clear of API throttling.
package async
