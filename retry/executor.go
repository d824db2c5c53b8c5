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


package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/newsbrief/ai"
	"github.com/poiesic/newsbrief/ratelimit"
)

const (
	// DefaultMaxAttempts bounds the total number of tries.
	DefaultMaxAttempts = 3

	// DefaultInitialDelay is the backoff base before doubling.
	DefaultInitialDelay = 1 * time.Second
)

// Executor runs AI calls with rate limiting and classified retries.
//
// Every attempt, including the first, acquires a slot from the shared
// limiter, so retries count against the same quota as fresh calls.
type Executor struct {
	limiter      *ratelimit.Limiter
	maxAttempts  int
	initialDelay time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
	logger       *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithMaxAttempts sets the total number of tries, including the first.
func WithMaxAttempts(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithInitialDelay sets the backoff base delay.
func WithInitialDelay(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.initialDelay = d
		}
	}
}

// WithSleep replaces the backoff sleep function. Tests use this to run
// on simulated time.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) {
		if sleep != nil {
			e.sleep = sleep
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExecutor creates an Executor bound to the given limiter.
func NewExecutor(limiter *ratelimit.Limiter, opts ...Option) *Executor {
	e := &Executor{
		limiter:      limiter,
		maxAttempts:  DefaultMaxAttempts,
		initialDelay: DefaultInitialDelay,
		sleep:        sleepContext,
		logger:       slog.Default().With("component", "retry"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Do runs fn under e's rate limiting and retry policy and returns its
// result.
//
// Errors steer the policy by classification:
//
//   - model-not-found errors are permanent and fail without retrying;
//   - rate-limit errors wait out the larger of the server-suggested
//     delay and the backoff delay before retrying; when tries run out
//     on a rate-limit error, the terminal error is
//     ErrProviderQuotaExceeded, distinct from the local limiter's
//     ErrRateLimitExceeded;
//   - anything else is transient and retried with exponential backoff,
//     re-raising the last error when tries run out.
//
// A spent day quota surfaces as ErrRateLimitExceeded immediately, no
// matter which attempt hits it.
func Do[T any](ctx context.Context, e *Executor, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		if err := e.limiter.Acquire(ctx); err != nil {
			if errors.Is(err, ratelimit.ErrQuotaExhausted) {
				return zero, ErrRateLimitExceeded
			}
			return zero, err
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ai.IsNotFound(err) {
			e.logger.Error("permanent failure, not retrying", "op", op, "error", err)
			return zero, err
		}
		if attempt == e.maxAttempts-1 {
			break
		}

		delay := e.initialDelay << attempt
		if ai.IsRateLimited(err) {
			if suggested := ai.SuggestedDelay(err); suggested > delay {
				delay = suggested
			}
			e.logger.Warn("provider throttled, backing off",
				"op", op, "attempt", attempt+1, "delay", delay)
		} else {
			e.logger.Warn("transient failure, retrying",
				"op", op, "attempt", attempt+1, "delay", delay, "error", err)
		}

		if err := e.sleep(ctx, delay); err != nil {
			return zero, err
		}
	}

	if ai.IsRateLimited(lastErr) {
		return zero, fmt.Errorf("%s: %w after %d attempts: %v", op, ErrProviderQuotaExceeded, e.maxAttempts, lastErr)
	}
	return zero, fmt.Errorf("%s failed after %d attempts: %w", op, e.maxAttempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
