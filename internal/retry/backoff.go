// Package retry computes exponential backoff with deterministic jitter and
// runs operations under a bounded retry policy.
package retry

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"
)

// Policy bounds how often and how slowly an operation is retried.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// Base is the delay before the first retry.
	Base time.Duration
	// Max caps the exponential delay, jitter excluded.
	Max time.Duration
	// MaxJitter bounds the deterministic jitter added to every delay.
	MaxJitter time.Duration
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 0,
		Base:       500 * time.Millisecond,
		Max:        30 * time.Second,
		MaxJitter:  250 * time.Millisecond,
	}
}

// Delay returns the wait before retry number attempt (0-based) for the
// operation identified by key. The same key and attempt always give the
// same delay.
func (p Policy) Delay(key string, attempt int) time.Duration {
	factor := int64(1)
	if attempt > 0 {
		if attempt > 30 {
			factor = 1 << 30
		} else {
			factor = 1 << attempt
		}
	}

	delay := int64(p.Base) * factor
	if delay/factor != int64(p.Base) || (p.Max > 0 && delay > int64(p.Max)) {
		delay = int64(p.Max)
	}
	return time.Duration(delay) + p.jitter(key, attempt)
}

func (p Policy) jitter(key string, attempt int) time.Duration {
	if p.MaxJitter <= 0 {
		return 0
	}
	hash := sha256.Sum256(fmt.Appendf(nil, "%s:%d", key, attempt))
	basis := binary.BigEndian.Uint64(hash[:8])
	return time.Duration(basis % uint64(p.MaxJitter)) //nolint:gosec // MaxJitter is positive
}

// ExhaustedError is returned by Do when every attempt asked for a retry.
type ExhaustedError struct {
	Key      string
	Attempts int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted for %s after %d attempts", e.Key, e.Attempts)
}

// Do calls fn until it reports done or the policy runs out of retries,
// sleeping Delay between attempts. fn receives the 0-based attempt number.
// It returns the number of attempts made. A cancelled context stops the
// wait and returns the context error.
func Do(ctx context.Context, p Policy, key string, fn func(attempt int) (done bool)) (int, error) {
	for attempt := 0; ; attempt++ {
		if fn(attempt) {
			return attempt + 1, nil
		}
		if attempt >= p.MaxRetries {
			return attempt + 1, &ExhaustedError{Key: key, Attempts: attempt + 1}
		}

		timer := time.NewTimer(p.Delay(key, attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt + 1, ctx.Err()
		case <-timer.C:
		}
	}
}
