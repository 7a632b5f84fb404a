// Package provisioning provides shared types, interfaces, and orchestration for stack provisioning.
//
// # Subpackages
//
//   - network: VPC, subnets, gateways, route tables, security groups
//   - data: database secret, subnet group, PostgreSQL instance, connection secret
//   - edge: load balancers, target groups, listeners
//   - compute: log groups, execution role, ECS cluster, task definitions, services, autoscaling
//   - destroy: teardown in reverse dependency order
//
// # Core Types
//
// Context carries configuration, the resource graph, state, the cloud client and the observer.
// Phase defines a provisioning step with Name() and Provision() methods.
// Handler ensures and deletes the resources of one kind; Apply runs handlers
// level by level over the graph, and State records the outputs of every
// ensured resource for its dependents.
package provisioning
