package commerce

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RetryError is returned once every attempt against the backend has failed.
type RetryError struct {
	Operation  string
	URL        string
	Attempts   int
	LastStatus int
	Message    string
	LastError  error
}

func (e *RetryError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s failed after %d attempts", e.Operation, e.URL, e.Attempts)
	if e.LastStatus != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.LastStatus)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.LastError != nil {
		fmt.Fprintf(&b, ": %v", e.LastError)
	}
	return b.String()
}

func (e *RetryError) Unwrap() error {
	return e.LastError
}

// isRetryableStatus reports 429 and 5xx responses.
func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status < 600)
}

// backoff is initial * 2^attempt capped at max, plus up to 25% jitter.
func backoff(attempt int, initial, max time.Duration) time.Duration {
	return withJitter(exponential(attempt, 2, initial, max))
}

// rateLimitBackoff honours Retry-After, else backs off more aggressively than backoff.
func rateLimitBackoff(attempt int, initial, max time.Duration, retryAfter string) time.Duration {
	if seconds, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil && seconds > 0 {
		delay := time.Duration(seconds) * time.Second
		if max > 0 && delay > max {
			delay = max
		}
		return delay
	}
	return withJitter(exponential(attempt, 3, initial, max))
}

func exponential(attempt int, factor float64, initial, max time.Duration) time.Duration {
	delay := float64(initial) * math.Pow(factor, float64(attempt))
	if max > 0 {
		delay = math.Min(delay, float64(max))
	}
	return time.Duration(delay)
}

func withJitter(delay time.Duration) time.Duration {
	if delay <= 0 {
		return 0
	}
	return delay + time.Duration(rand.Float64()*0.25*float64(delay))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
