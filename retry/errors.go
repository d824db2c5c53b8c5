package retry

import "errors"

var (
	// ErrRateLimitExceeded is returned when the local day quota is spent
	// before or between attempts. It maps the limiter's quota error into
	// the retry layer so callers can tell "stop the batch" apart from a
	// per-item failure.
	ErrRateLimitExceeded = errors.New("rate limit exceeded: daily quota spent")

	// ErrProviderQuotaExceeded is returned when every try failed with an
	// upstream rate-limit response. The provider, not the local limiter,
	// is saying stop.
	ErrProviderQuotaExceeded = errors.New("provider quota exceeded")
)
