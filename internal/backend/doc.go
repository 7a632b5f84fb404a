// Package backend implements the private API tier. It connects to the
// PostgreSQL database with the credentials the container orchestrator
// injects as resolved JSON in DATABASE_URL, and exposes status and a
// database round-trip probe over HTTP.
package backend
