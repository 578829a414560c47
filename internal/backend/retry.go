package backend

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"time"
)

// RetryConfig holds retry behavior for backend requests.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per request.
	MaxAttempts int

	// BackoffBase is the initial backoff duration.
	BackoffBase time.Duration

	// BackoffMultiplier is applied to the backoff on each retry.
	BackoffMultiplier float64

	// MaxBackoff caps the backoff duration.
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns sensible retry defaults for backend requests.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       2 * time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        30 * time.Second,
	}
}

// backoff computes the exponential backoff for an attempt. Jitter of +/- 25%
// prevents synchronized retries across workers.
func (c RetryConfig) backoff(attempt int) time.Duration {
	multiplier := 1.0
	for i := 1; i < attempt; i++ {
		multiplier *= c.BackoffMultiplier
	}

	d := time.Duration(float64(c.BackoffBase) * multiplier)
	if d > c.MaxBackoff {
		d = c.MaxBackoff
	}

	jitter := float64(d) * 0.25 * (rand.Float64()*2 - 1)
	return d + time.Duration(jitter)
}

// TransientError wraps a temporary failure that may succeed on retry.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string {
	return e.err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.err
}

// NewTransientError wraps an error as transient (retryable).
func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// FatalError wraps a permanent failure that retrying cannot fix.
type FatalError struct {
	err error
}

func (e *FatalError) Error() string {
	return e.err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.err
}

// NewFatalError wraps an error as fatal (non-retryable).
func NewFatalError(err error) error {
	return &FatalError{err: err}
}

// IsTransient returns true if the error should be retried.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsFatal returns true if the error should not be retried.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// classifyStatus wraps err as transient or fatal based on an HTTP status
// code reported by a backend API.
func classifyStatus(status int, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		// Rate limiting is transient
		return NewTransientError(err)
	case status >= 500:
		// Server errors are transient
		return NewTransientError(err)
	case status == http.StatusRequestTimeout:
		return NewTransientError(err)
	default:
		// Auth, validation and anything unknown is fatal
		return NewFatalError(err)
	}
}

// WithRetry wraps a backend so transient failures are retried with bounded
// exponential backoff before surfacing to the caller. Fatal errors and
// context cancellation return immediately.
func WithRetry(b Backend, cfg RetryConfig) Backend {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &retryBackend{inner: b, cfg: cfg}
}

type retryBackend struct {
	inner Backend
	cfg   RetryConfig
}

func (r *retryBackend) ID() string {
	return r.inner.ID()
}

func (r *retryBackend) Invoke(ctx context.Context, req Request) (*Response, error) {
	var lastErr error

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		resp, err := r.inner.Invoke(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if IsFatal(err) || ctx.Err() != nil {
			return nil, err
		}

		if attempt < r.cfg.MaxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.cfg.backoff(attempt)):
			}
		}
	}

	return nil, lastErr
}

// Probe delegates to the wrapped backend when it reports health.
func (r *retryBackend) Probe(ctx context.Context) error {
	if p, ok := r.inner.(Prober); ok {
		return p.Probe(ctx)
	}
	return nil
}
