package youtube

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"time"
)

// retryConfig controls backoff for platform calls.
type retryConfig struct {
	maxRetries  int
	initialWait time.Duration
	maxWait     time.Duration
	multiplier  float64
}

var defaultRetry = retryConfig{
	maxRetries:  3,
	initialWait: 500 * time.Millisecond,
	maxWait:     10 * time.Second,
	multiplier:  2.0,
}

// retryHTTP sends the request built by fn, retrying transient failures with
// exponential backoff. Non-retryable errors and context cancellation return
// immediately.
func retryHTTP(ctx context.Context, rc retryConfig, fn func() (*http.Response, error)) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= rc.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		resp, err := fn()
		if err == nil {
			if !retryableStatus(resp.StatusCode) {
				return resp, nil
			}
			resp.Body.Close()
			err = &statusError{code: resp.StatusCode}
		}
		lastErr = err

		if !retryable(err) {
			return nil, err
		}
		if attempt < rc.maxRetries {
			wait := time.Duration(float64(rc.initialWait) * math.Pow(rc.multiplier, float64(attempt)))
			if wait > rc.maxWait {
				wait = rc.maxWait
			}
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return http.StatusText(e.code)
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func retryableStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}
