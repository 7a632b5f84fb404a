// Package s3 provides a client for the stack's state bucket.
//
// tierctl stores the outputs document of every applied stack in a bucket
// so that other machines can read the public URL and database endpoint
// without access to the local state file. The client also accepts a custom
// endpoint for S3-compatible stores used in development.
package s3
