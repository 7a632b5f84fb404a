// Package compute provisions the container tier: log groups, the task
// execution role, the ECS cluster and, per service, the Fargate task
// definition, the service behind its target group and CPU target tracking.
//
// Task definitions are where the tiers meet. The backend receives the
// database connection secret as DATABASE_URL and the frontend receives the
// internal load balancer's address as BACKEND_URL, both resolved from the
// outputs of the earlier tiers.
package compute
