package news

import "errors"

var (
	// ErrUpstreamUnavailable is returned when the news API cannot be
	// reached or answers with an unexpected status.
	ErrUpstreamUnavailable = errors.New("news upstream unavailable")

	// ErrUpstreamThrottled is returned on an upstream 429.
	ErrUpstreamThrottled = errors.New("news upstream throttled request")

	// ErrInvalidAPIKey is returned when the upstream rejects the key.
	ErrInvalidAPIKey = errors.New("news API key rejected")
)
