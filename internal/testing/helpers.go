package testing

import (
	"context"
	"testing"
	"time"

	"github.com/tierstack/tierstack/internal/config"
)

// TestContext returns a context with a reasonable timeout for tests.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// FastTimeouts returns timeouts short enough for unit tests.
func FastTimeouts() *config.Timeouts {
	return config.TestTimeouts()
}
