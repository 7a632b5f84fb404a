// Package data provisions the data tier: the credentials secret, the RDS
// subnet group, the PostgreSQL instance and, once the instance has an
// address, the connection fields that make the secret a complete
// connection descriptor for the backend.
package data
