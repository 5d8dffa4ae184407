// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil fetches JSON from flaky public APIs with bounded retries.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/pdiddy/neighborfit/internal/logging"
)

// RetryBaseDelay is the linear backoff unit: attempt n waits n x RetryBaseDelay
// before attempt n+1. Tests override this to avoid real sleeps.
var RetryBaseDelay = 1 * time.Second

const (
	defaultMaxAttempts = 2
	defaultTimeout     = 10 * time.Second
	maxBodyBytes       = 8 << 20
)

// ErrEmptyBody is returned when a 2xx response carries no payload.
var ErrEmptyBody = errors.New("empty response body")

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// Retryable reports whether another attempt could succeed: server errors and
// 429 are transient, other client errors are not.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// RequestFunc builds a fresh request for one attempt.
type RequestFunc func(ctx context.Context) (*http.Request, error)

// Gate wraps each attempt, typically to hold a rate-limit slot while it runs.
type Gate func(ctx context.Context, attempt func(ctx context.Context) error) error

// Policy bounds a fetch.
type Policy struct {
	// Timeout bounds one attempt (default 10s).
	Timeout time.Duration

	// MaxAttempts is the total number of tries (default 2).
	MaxAttempts int

	// Gate, when set, runs around every attempt. Backoff sleeps happen
	// outside the gate.
	Gate Gate
}

// FetchJSON issues the request built by build and decodes a JSON body into T.
// Transport errors, timeouts, 5xx, 429, empty bodies and malformed JSON are
// retried up to MaxAttempts; other 4xx responses fail at once. Cancellation
// of ctx returns immediately with ctx's error.
func FetchJSON[T any](ctx context.Context, client *http.Client, build RequestFunc, p Policy) (T, error) {
	var out T
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.Timeout <= 0 {
		p.Timeout = defaultTimeout
	}
	gate := p.Gate
	if gate == nil {
		gate = func(ctx context.Context, attempt func(context.Context) error) error { return attempt(ctx) }
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		var got T
		err := gate(ctx, func(ctx context.Context) error {
			var err error
			got, err = fetchOnce[T](ctx, client, build, p.Timeout)
			return err
		})
		if err == nil {
			return got, nil
		}
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		lastErr = err

		var se *StatusError
		if errors.As(err, &se) && !se.Retryable() {
			return out, err
		}
		if attempt == p.MaxAttempts {
			break
		}

		backoff := time.Duration(attempt) * RetryBaseDelay
		logging.Debug().Err(err).Int("attempt", attempt).Dur("backoff", backoff).Msg("upstream call failed, retrying")

		select {
		case <-ctx.Done():
			return out, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return out, fmt.Errorf("after %d attempts: %w", p.MaxAttempts, lastErr)
}

func fetchOnce[T any](ctx context.Context, client *http.Client, build RequestFunc, timeout time.Duration) (T, error) {
	var out T

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := build(ctx)
	if err != nil {
		return out, fmt.Errorf("building request: %w", err)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return out, &StatusError{StatusCode: resp.StatusCode, URL: req.URL.Redacted()}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return out, fmt.Errorf("reading body: %w", err)
	}
	if len(body) == 0 {
		return out, ErrEmptyBody
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decoding response: %w", err)
	}
	return out, nil
}
