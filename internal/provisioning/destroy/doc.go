// Package destroy tears a stack down.
//
// It walks the same resource graph apply builds, in reverse dependency
// order, so services go before their target groups, load balancers before
// their subnets and the VPC last. Handlers of every tier are merged since a
// level of the reversed graph spans tiers.
package destroy
