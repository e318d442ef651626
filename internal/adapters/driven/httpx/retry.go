// Package httpx holds the HTTP plumbing shared by the model adapters.
package httpx

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/custodia-labs/sercha-voice/internal/logger"
)

// DefaultMaxRetries is the number of retries after the first attempt.
const DefaultMaxRetries = 2

// StatusError is a non-success HTTP response.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Service, e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth retrying.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Retrier retries transient HTTP failures with jittered quadratic backoff.
type Retrier struct {
	Client     *http.Client
	Service    string
	MaxRetries int

	// Backoff returns the wait before the given attempt (1-based).
	Backoff func(attempt int) time.Duration
}

// Do sends the request built by buildReq and returns the response body of
// the first 200 response. Network errors, 5xx and 429 are retried; other
// statuses fail immediately with a *StatusError.
func (r *Retrier) Do(ctx context.Context, buildReq func() (*http.Request, error)) ([]byte, error) {
	backoff := r.Backoff
	if backoff == nil {
		backoff = defaultBackoff
	}

	var lastErr error
	for attempt := 0; attempt <= r.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := backoff(attempt)
			logger.Debug("%s: retrying request (attempt %d, backoff %s)", r.Service, attempt+1, wait)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		req, err := buildReq()
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := r.Client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("send request: %w", ctx.Err())
			}
			lastErr = fmt.Errorf("send request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			statusErr := &StatusError{Service: r.Service, StatusCode: resp.StatusCode, Body: string(body)}
			if !statusErr.Retryable() {
				return nil, statusErr
			}
			lastErr = statusErr
			continue
		}

		return body, nil
	}

	return nil, lastErr
}

func defaultBackoff(attempt int) time.Duration {
	base := time.Duration(attempt*attempt) * 500 * time.Millisecond
	jitter := time.Duration(rand.Int64N(int64(base/2 + 1)))
	return base + jitter
}
