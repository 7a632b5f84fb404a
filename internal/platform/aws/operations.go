package aws

import (
	"context"
	"fmt"

	"github.com/tierstack/tierstack/internal/util/retry"
)

// deleteWithRetry runs del until it succeeds or reports the resource gone.
// Dependency violations are retried until the delete timeout elapses, since
// ENIs, NAT gateways and load balancers release their references
// asynchronously.
func (c *RealClient) deleteWithRetry(ctx context.Context, resourceType, name string, del func(context.Context) error) error {
	var lastErr error
	err := retry.Poll(ctx, c.timeouts.PollInterval, c.timeouts.Delete, func(ctx context.Context) (bool, error) {
		err := del(ctx)
		switch {
		case err == nil, IsNotFound(err):
			return true, nil
		case IsDependencyViolation(err), IsThrottled(err):
			lastErr = err
			return false, nil
		default:
			return false, fmt.Errorf("failed to delete %s %s: %w", resourceType, name, err)
		}
	})
	if err != nil && lastErr != nil {
		return fmt.Errorf("failed to delete %s %s: %w (last error: %v)", resourceType, name, err, lastErr)
	}
	return err
}

// createWithRetry retries create while AWS reports eventual consistency
// errors, such as a freshly created role not yet being assumable.
func (c *RealClient) createWithRetry(ctx context.Context, create func() error) error {
	return retry.WithExponentialBackoff(ctx, create,
		retry.WithMaxRetries(c.timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(c.timeouts.RetryInitialDelay),
		retry.WithRetryIf(IsEventualConsistency),
	)
}
