// Package network provisions the network tier: the VPC, its internet and
// NAT gateways, the public, app and database subnets of every availability
// zone, their route tables and the chain of security groups that only lets
// each tier talk to the one in front of it.
package network
