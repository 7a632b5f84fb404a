package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds the provisioning wait and retry settings.
// These values can be customized via environment variables.
type Timeouts struct {
	NATGateway        time.Duration // Waiting for a NAT gateway to become available
	DatabaseCreate    time.Duration // Waiting for the RDS instance to become available
	LoadBalancer      time.Duration // Waiting for an ALB to become active
	ServiceStable     time.Duration // Waiting for an ECS service to reach its desired count
	Delete            time.Duration // Waiting for any delete to finish
	PollInterval      time.Duration // Interval between status polls
	RetryMaxAttempts  int           // Maximum number of retry attempts
	RetryInitialDelay time.Duration // Initial delay between retries
	Parallelism       int           // Resources applied concurrently within one level
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - TIERSTACK_TIMEOUT_NAT_GATEWAY (default: 10m)
//   - TIERSTACK_TIMEOUT_DATABASE_CREATE (default: 40m)
//   - TIERSTACK_TIMEOUT_LOAD_BALANCER (default: 10m)
//   - TIERSTACK_TIMEOUT_SERVICE_STABLE (default: 15m)
//   - TIERSTACK_TIMEOUT_DELETE (default: 30m)
//   - TIERSTACK_TIMEOUT_POLL_INTERVAL (default: 10s)
//   - TIERSTACK_RETRY_MAX_ATTEMPTS (default: 10)
//   - TIERSTACK_RETRY_INITIAL_DELAY (default: 2s)
//   - TIERSTACK_PARALLELISM (default: 4)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		NATGateway:        parseDuration("TIERSTACK_TIMEOUT_NAT_GATEWAY", 10*time.Minute),
		DatabaseCreate:    parseDuration("TIERSTACK_TIMEOUT_DATABASE_CREATE", 40*time.Minute),
		LoadBalancer:      parseDuration("TIERSTACK_TIMEOUT_LOAD_BALANCER", 10*time.Minute),
		ServiceStable:     parseDuration("TIERSTACK_TIMEOUT_SERVICE_STABLE", 15*time.Minute),
		Delete:            parseDuration("TIERSTACK_TIMEOUT_DELETE", 30*time.Minute),
		PollInterval:      parseDuration("TIERSTACK_TIMEOUT_POLL_INTERVAL", 10*time.Second),
		RetryMaxAttempts:  parseInt("TIERSTACK_RETRY_MAX_ATTEMPTS", 10),
		RetryInitialDelay: parseDuration("TIERSTACK_RETRY_INITIAL_DELAY", 2*time.Second),
		Parallelism:       parseInt("TIERSTACK_PARALLELISM", 4),
	}
}

// TestTimeouts returns short timeouts suitable for tests against fakes.
func TestTimeouts() *Timeouts {
	return &Timeouts{
		NATGateway:        time.Second,
		DatabaseCreate:    time.Second,
		LoadBalancer:      time.Second,
		ServiceStable:     time.Second,
		Delete:            time.Second,
		PollInterval:      time.Millisecond,
		RetryMaxAttempts:  3,
		RetryInitialDelay: time.Millisecond,
		Parallelism:       4,
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}

	return d
}

// parseInt parses a positive integer from an environment variable.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil || i <= 0 {
		return defaultVal
	}

	return i
}
