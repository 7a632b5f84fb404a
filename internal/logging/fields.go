// Package logging provides structured logging for tierctl and the two
// services.
package logging

// Standard field names for consistent logging across the binaries.
const (
	// FieldRequestID is a unique identifier for each HTTP request.
	FieldRequestID = "request_id"

	// FieldDuration is the duration of an operation in milliseconds.
	FieldDuration = "duration_ms"

	// FieldStatusCode is the HTTP status code of a response.
	FieldStatusCode = "status_code"

	FieldMethod     = "method"
	FieldPath       = "path"
	FieldRemoteAddr = "remote_addr"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"

	// FieldComponent identifies the binary or subsystem generating the log.
	FieldComponent = "component"

	// FieldPhase is the provisioning phase (network, data, edge, compute).
	FieldPhase = "phase"

	// FieldResource is the graph key of a resource, e.g. "subnet/app-1".
	FieldResource = "resource"

	// FieldUpstream is the URL of a proxied upstream call.
	FieldUpstream = "upstream"
)
