package streamable

import (
	"math/rand"
	"strconv"
	"time"
)

// RetryPolicy decides whether a failed POST attempt should be retried.
// statusCode is 0 when the attempt failed with a network error rather than
// a completed HTTP response. attempt is 1 on the first try.
type RetryPolicy interface {
	ShouldRetry(attempt int, statusCode int) bool
}

// DefaultRetryPolicy retries network errors and any status code in
// RetryableCodes, up to MaxAttempts total tries.
type DefaultRetryPolicy struct {
	MaxAttempts    int
	RetryableCodes map[int]bool
}

// NewDefaultRetryPolicy returns a policy retrying 429/502/503/504 up to
// maxAttempts times (a non-positive value defaults to 3).
func NewDefaultRetryPolicy(maxAttempts int) *DefaultRetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &DefaultRetryPolicy{
		MaxAttempts: maxAttempts,
		RetryableCodes: map[int]bool{
			429: true,
			502: true,
			503: true,
			504: true,
		},
	}
}

func (p *DefaultRetryPolicy) ShouldRetry(attempt int, statusCode int) bool {
	if attempt >= p.MaxAttempts {
		return false
	}
	if statusCode == 0 {
		return true // network error
	}
	return p.RetryableCodes[statusCode]
}

// BackoffPolicy computes how long to wait before retry number attempt
// (1-based).
type BackoffPolicy interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff doubles Base every attempt up to Max, adding up to
// Jitter of additional random delay.
type ExponentialBackoff struct {
	Base   time.Duration
	Max    time.Duration
	Jitter time.Duration
}

// NewExponentialBackoff returns an ExponentialBackoff with sane defaults
// when base/max are non-positive.
func NewExponentialBackoff(base, max, jitter time.Duration) *ExponentialBackoff {
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	if max <= 0 {
		max = 10 * time.Second
	}
	return &ExponentialBackoff{Base: base, Max: max, Jitter: jitter}
}

func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	d := b.Base
	for i := 1; i < attempt && d < b.Max; i++ {
		d *= 2
	}
	if d > b.Max {
		d = b.Max
	}
	if b.Jitter > 0 {
		d += time.Duration(rand.Int63n(int64(b.Jitter)))
	}
	return d
}

// retryAfterDelay parses an HTTP Retry-After header (seconds form only, per
// spec §4.5) and reports whether it was present and valid.
func retryAfterDelay(header string) (time.Duration, bool) {
	if header == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}
