// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package retry provides the single retry policy shared by every external
// call site. Transient failures are retried with capped exponential backoff
// and jitter; server-provided retry-after hints are honored; fatal errors
// short-circuit immediately.
package retry

import (
	"context"
	"log/slog"
	"math/rand"
	"time"
)

// Policy holds the retry parameters for an external call site.
type Policy struct {
	// MaxAttempts is the total number of attempts (must be > 0).
	MaxAttempts int

	// BaseDelay is the delay before the first retry; it doubles on each
	// subsequent retry.
	BaseDelay time.Duration

	// MaxDelay caps the computed backoff delay. Zero means no cap.
	// A retry-after hint may still exceed the cap.
	MaxDelay time.Duration

	// Jitter is the fraction (0..1) of random extra delay added to each
	// backoff interval to avoid synchronized retries.
	Jitter float64
}

// DefaultPolicy returns the policy used when a caller does not configure one.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		MaxDelay:    60 * time.Second,
		Jitter:      0.2,
	}
}

// Do runs operation with the policy's retry semantics.
//
// The operation's error determines what happens next:
//   - nil stops retrying and returns success
//   - an error wrapped by Fatal returns immediately without further attempts
//   - an error wrapped by After delays at least the hinted duration before
//     the next attempt
//   - any other error is treated as transient and retried with backoff
//
// Returns the last attempt's error (unwrapped from its retry markers) once
// attempts are exhausted, or ctx.Err() if the context ends first.
func Do(ctx context.Context, policy Policy, operation func() error) error {
	if policy.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		// Check context before attempting
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		if IsFatal(lastErr) {
			return Unwrap(lastErr)
		}

		slog.Debug("operation failed, will retry",
			"attempt", attempt,
			"maxAttempts", policy.MaxAttempts,
			"error", lastErr)

		// Don't sleep after the last attempt
		if attempt == policy.MaxAttempts {
			break
		}

		delay := backoff(policy, attempt)
		if hint, ok := RetryAfter(lastErr); ok && hint > delay {
			delay = hint
		}

		// Sleep with context awareness
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return Unwrap(lastErr)
}

// backoff computes the delay after the given attempt: BaseDelay * 2^(attempt-1),
// capped at MaxDelay, plus up to Jitter fraction of random extra.
func backoff(policy Policy, attempt int) time.Duration {
	delay := policy.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if policy.MaxDelay > 0 && delay >= policy.MaxDelay {
			delay = policy.MaxDelay
			break
		}
	}

	if policy.Jitter > 0 && delay > 0 {
		delay += time.Duration(rand.Float64() * policy.Jitter * float64(delay))
	}

	return delay
}
