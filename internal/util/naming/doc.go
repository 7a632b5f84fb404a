// Package naming provides consistent, length-safe names for AWS resources.
//
// Resource names follow the pattern {project}-{environment}-{suffix}. AWS caps
// name length per resource type (32 characters for load balancers and target
// groups, 63 for RDS identifiers, 64 for IAM roles), so every name is passed
// through [Shorten], which falls back to a short project abbreviation and
// finally truncates.
package naming
