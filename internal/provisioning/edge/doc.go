// Package edge provisions the load balancer tier: the public application
// load balancer in front of the frontend, the internal one in front of the
// backend, their IP target groups and the HTTP listeners between them.
package edge
