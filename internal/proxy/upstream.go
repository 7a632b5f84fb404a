package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tierstack/tierstack/internal/api/middleware"
	"github.com/tierstack/tierstack/internal/logging"
	"github.com/tierstack/tierstack/internal/metrics"
)

// maxBodySize caps how much of an upstream response is read.
const maxBodySize = 1 << 20

// ErrNoUpstream is returned when no backend URL is configured.
var ErrNoUpstream = errors.New("backend URL is not configured")

// UpstreamError describes a failed upstream call.
type UpstreamError struct {
	Path string

	// StatusCode is set when the backend answered with a non-2xx status.
	StatusCode int

	Err error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("GET %s: backend returned status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: %v", e.Path, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Timeout reports whether the call ran out of time.
func (e *UpstreamError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// Upstream issues GET requests to the backend.
type Upstream struct {
	baseURL string
	client  *http.Client
	metrics *metrics.Metrics
}

// NewUpstream creates a client for baseURL. client and m may be nil.
func NewUpstream(baseURL string, client *http.Client, m *metrics.Metrics) *Upstream {
	if client == nil {
		client = &http.Client{}
	}
	return &Upstream{baseURL: baseURL, client: client, metrics: m}
}

// Get calls path on the backend within timeout and returns its JSON body
// unchanged. Non-2xx statuses and bodies that are not JSON are errors.
func (u *Upstream) Get(ctx context.Context, path string, timeout time.Duration) (json.RawMessage, error) {
	start := time.Now()
	body, err := u.get(ctx, path, timeout)
	u.observe(ctx, path, err, time.Since(start))
	return body, err
}

func (u *Upstream) get(ctx context.Context, path string, timeout time.Duration) (json.RawMessage, error) {
	if u.baseURL == "" {
		return nil, &UpstreamError{Path: path, Err: ErrNoUpstream}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.baseURL+path, nil)
	if err != nil {
		return nil, &UpstreamError{Path: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if id, ok := ctx.Value(requestIDContextKey{}).(string); ok && id != "" {
		req.Header.Set(middleware.RequestIDHeader, id)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, &UpstreamError{Path: path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, &UpstreamError{Path: path, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Path: path, StatusCode: resp.StatusCode}
	}
	if !json.Valid(body) {
		return nil, &UpstreamError{Path: path, Err: errors.New("response is not valid JSON")}
	}
	return json.RawMessage(body), nil
}

func (u *Upstream) observe(ctx context.Context, path string, err error, elapsed time.Duration) {
	outcome := metrics.OutcomeSuccess
	var upErr *UpstreamError
	switch {
	case err == nil:
	case errors.As(err, &upErr) && upErr.Timeout():
		outcome = metrics.OutcomeTimeout
	default:
		outcome = metrics.OutcomeError
	}
	if u.metrics != nil {
		u.metrics.ObserveUpstream(path, outcome, elapsed.Seconds())
	}

	logger := logging.FromContext(ctx).With(
		zap.String(logging.FieldUpstream, u.baseURL+path),
		zap.Int64(logging.FieldDuration, elapsed.Milliseconds()),
	)
	if err != nil {
		logger.Warn("upstream call failed", zap.String("outcome", outcome), zap.Error(err))
		return
	}
	logger.Debug("upstream call succeeded")
}

type requestIDContextKey struct{}

// withRequestID makes Get forward the request ID to the backend.
func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}
