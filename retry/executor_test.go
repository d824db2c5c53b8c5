package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/newsbrief/ai"
	"github.com/poiesic/newsbrief/ratelimit"
)

// testHarness wires an Executor to a limiter on simulated time and
// records backoff delays.
type testHarness struct {
	executor *Executor
	delays   []time.Duration
	acquires int
}

func newHarness(t *testing.T, limiterOpts []ratelimit.Option, execOpts ...Option) *testHarness {
	t.Helper()
	h := &testHarness{}

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }
	limiterSleep := func(ctx context.Context, d time.Duration) error {
		clock = clock.Add(d)
		return ctx.Err()
	}

	limiterOpts = append([]ratelimit.Option{
		ratelimit.WithClock(now, limiterSleep),
		ratelimit.WithMinInterval(0),
		ratelimit.WithMaxPerMinute(1000),
	}, limiterOpts...)
	limiter := ratelimit.NewLimiter(limiterOpts...)

	execOpts = append([]Option{
		WithSleep(func(ctx context.Context, d time.Duration) error {
			h.delays = append(h.delays, d)
			clock = clock.Add(d)
			return ctx.Err()
		}),
	}, execOpts...)
	h.executor = NewExecutor(limiter, execOpts...)
	return h
}

func TestDoSuccessFirstAttempt(t *testing.T) {
	h := newHarness(t, nil)

	calls := 0
	result, err := Do(context.Background(), h.executor, "embed", func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
	assert.Empty(t, h.delays)
}

func TestDoTransientRetriedWithBackoff(t *testing.T) {
	h := newHarness(t, nil)

	calls := 0
	result, err := Do(context.Background(), h.executor, "embed", func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("connection reset")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, h.delays)
}

func TestDoTransientExhaustsAttempts(t *testing.T) {
	h := newHarness(t, nil)

	calls := 0
	boom := errors.New("upstream flaked")
	_, err := Do(context.Background(), h.executor, "summarize", func(ctx context.Context) (string, error) {
		calls++
		return "", boom
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, h.delays)
}

func TestDoRateLimitedExhaustsAsProviderQuota(t *testing.T) {
	h := newHarness(t, nil)

	calls := 0
	throttled := &ai.ProviderError{Kind: ai.KindRateLimited, Err: errors.New("too many requests")}
	_, err := Do(context.Background(), h.executor, "embed", func(ctx context.Context) (string, error) {
		calls++
		return "", throttled
	})

	require.ErrorIs(t, err, ErrProviderQuotaExceeded)
	assert.NotErrorIs(t, err, ErrRateLimitExceeded)
	assert.Equal(t, 3, calls)
}

func TestDoNotFoundFailsImmediately(t *testing.T) {
	h := newHarness(t, nil)

	calls := 0
	notFound := &ai.ProviderError{Kind: ai.KindNotFound, Err: errors.New("model gemma-9000 does not exist")}
	_, err := Do(context.Background(), h.executor, "embed", func(ctx context.Context) ([]float32, error) {
		calls++
		return nil, notFound
	})

	require.Error(t, err)
	assert.True(t, ai.IsNotFound(err))
	assert.Equal(t, 1, calls)
	assert.Empty(t, h.delays, "permanent failures must not back off")
}

func TestDoRateLimitedUsesSuggestedDelay(t *testing.T) {
	h := newHarness(t, nil)

	calls := 0
	throttled := &ai.ProviderError{
		Kind:       ai.KindRateLimited,
		RetryAfter: 30 * time.Second,
		Err:        errors.New("too many requests"),
	}
	result, err := Do(context.Background(), h.executor, "embed", func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", throttled
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, []time.Duration{30 * time.Second}, h.delays)
}

func TestDoRateLimitedWithoutSuggestionUsesBackoff(t *testing.T) {
	h := newHarness(t, nil)

	calls := 0
	throttled := &ai.ProviderError{Kind: ai.KindRateLimited, Err: errors.New("too many requests")}
	_, err := Do(context.Background(), h.executor, "embed", func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", throttled
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{1 * time.Second}, h.delays)
}

func TestDoQuotaExhaustedBeforeFirstAttempt(t *testing.T) {
	h := newHarness(t, []ratelimit.Option{ratelimit.WithMaxPerDay(1)})

	_, err := Do(context.Background(), h.executor, "warm", func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)

	calls := 0
	_, err = Do(context.Background(), h.executor, "embed", func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	require.ErrorIs(t, err, ErrRateLimitExceeded)
	assert.Zero(t, calls, "fn must not run once the quota is spent")
}

func TestDoQuotaExhaustedMidRetry(t *testing.T) {
	h := newHarness(t, []ratelimit.Option{ratelimit.WithMaxPerDay(2)})

	calls := 0
	_, err := Do(context.Background(), h.executor, "embed", func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("flaky")
	})

	require.ErrorIs(t, err, ErrRateLimitExceeded)
	assert.Equal(t, 2, calls)
}

func TestDoContextCancelled(t *testing.T) {
	h := newHarness(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Do(ctx, h.executor, "embed", func(ctx context.Context) (string, error) {
		calls++
		cancel()
		return "", errors.New("flaky")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoSingleAttemptNoRetry(t *testing.T) {
	h := newHarness(t, nil, WithMaxAttempts(1))

	calls := 0
	_, err := Do(context.Background(), h.executor, "embed", func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("flaky")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 1 attempts")
	assert.Equal(t, 1, calls)
	assert.Empty(t, h.delays)
}
