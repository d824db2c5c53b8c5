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


package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Default budgets match the free tier of the upstream AI provider.
const (
	DefaultMaxPerMinute = 10
	DefaultMaxPerDay    = 1000
	DefaultMinInterval  = 6 * time.Second

	minuteWindow = time.Minute
	dayWindow    = 24 * time.Hour
)

// Status is a non-mutating snapshot of the remaining call budget.
type Status struct {
	// MinuteRemaining is the number of calls left in the current minute window.
	MinuteRemaining int

	// DayRemaining is the number of calls left in the current day window.
	DayRemaining int

	// MinuteResetIn is the time until the minute window resets.
	// Zero if the window has already passed.
	MinuteResetIn time.Duration

	// DayResetIn is the time until the day window resets.
	// Zero if the window has already passed.
	DayResetIn time.Duration
}

// Limiter tracks the call budget against a rolling minute window and a
// rolling day window, and enforces a minimum spacing between calls.
//
// The budget is process-wide shared mutable state: the upstream quota is
// account-wide, so every caller in the process must draw from the same
// Limiter instance. All state is guarded by a mutex; the mutex is never
// held across a sleep, so concurrent callers cannot double-spend a slot
// but also never block each other for longer than a bookkeeping step.
type Limiter struct {
	mu sync.Mutex

	maxPerMinute int
	maxPerDay    int
	minInterval  time.Duration

	minuteCount     int
	minuteWindowEnd time.Time
	dayCount        int
	dayWindowEnd    time.Time
	lastCallAt      time.Time

	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	logger *slog.Logger
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithMaxPerMinute sets the minute-window call cap.
func WithMaxPerMinute(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.maxPerMinute = n
		}
	}
}

// WithMaxPerDay sets the day-window call cap.
func WithMaxPerDay(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.maxPerDay = n
		}
	}
}

// WithMinInterval sets the minimum spacing between consecutive acquires.
func WithMinInterval(d time.Duration) Option {
	return func(l *Limiter) {
		if d >= 0 {
			l.minInterval = d
		}
	}
}

// WithClock replaces the limiter's time source and sleep function.
// Tests use this to drive the limiter on simulated time; production code
// should not need it.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
		if sleep != nil {
			l.sleep = sleep
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLimiter creates a Limiter with the default free-tier budget.
func NewLimiter(opts ...Option) *Limiter {
	l := &Limiter{
		maxPerMinute: DefaultMaxPerMinute,
		maxPerDay:    DefaultMaxPerDay,
		minInterval:  DefaultMinInterval,
		now:          time.Now,
		sleep:        sleepContext,
		logger:       slog.Default().With("component", "ratelimit"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire blocks until a call slot is available, reserves it, and returns.
//
// If the day budget is already spent, Acquire fails immediately with
// ErrQuotaExhausted without blocking: a day-exhausted caller has nothing
// to wait for. If the minute budget is spent, Acquire sleeps until the
// minute window resets; independently, it sleeps out any remainder of
// the minimum inter-call interval. Both waits are cancellable through ctx.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		l.mu.Lock()
		now := l.now()
		l.roll(now)

		if l.dayCount >= l.maxPerDay {
			l.mu.Unlock()
			l.logger.Warn("daily call budget exhausted", "max", l.maxPerDay)
			return ErrQuotaExhausted
		}

		var wait time.Duration
		switch {
		case l.minuteCount >= l.maxPerMinute:
			wait = l.minuteWindowEnd.Sub(now)
		case !l.lastCallAt.IsZero() && now.Sub(l.lastCallAt) < l.minInterval:
			wait = l.minInterval - now.Sub(l.lastCallAt)
		}

		if wait <= 0 {
			// Reserve the slot while still holding the lock so a
			// concurrent caller cannot spend the same one.
			l.minuteCount++
			l.dayCount++
			l.lastCallAt = now
			l.mu.Unlock()
			return nil
		}

		l.mu.Unlock()
		l.logger.Debug("waiting for call slot", "wait", wait)
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Status returns the remaining minute/day budget and the time to the next
// window resets. It does not mutate the budget.
func (l *Limiter) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	s := Status{
		MinuteRemaining: l.maxPerMinute,
		DayRemaining:    l.maxPerDay,
	}

	if l.minuteWindowEnd.After(now) {
		s.MinuteRemaining = l.maxPerMinute - l.minuteCount
		s.MinuteResetIn = l.minuteWindowEnd.Sub(now)
	}
	if l.dayWindowEnd.After(now) {
		s.DayRemaining = l.maxPerDay - l.dayCount
		s.DayResetIn = l.dayWindowEnd.Sub(now)
	}
	if s.MinuteRemaining < 0 {
		s.MinuteRemaining = 0
	}
	if s.DayRemaining < 0 {
		s.DayRemaining = 0
	}
	return s
}

// roll resets any window whose end has passed. Must be called with the
// lock held.
func (l *Limiter) roll(now time.Time) {
	if !now.Before(l.minuteWindowEnd) {
		l.minuteCount = 0
		l.minuteWindowEnd = now.Add(minuteWindow)
	}
	if !now.Before(l.dayWindowEnd) {
		l.dayCount = 0
		l.dayWindowEnd = now.Add(dayWindow)
	}
}

// sleepContext sleeps for d or until ctx is cancelled, whichever happens
// first.
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
