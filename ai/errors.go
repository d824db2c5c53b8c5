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


package ai

import (
	"errors"
	"time"
)

// ErrorKind classifies a provider failure for retry decisions.
type ErrorKind int

const (
	// KindTransient is any failure that may succeed on a later attempt
	// (network errors, 5xx responses, timeouts). This is the default.
	KindTransient ErrorKind = iota

	// KindNotFound means the requested model or resource does not exist
	// upstream. Retrying cannot help.
	KindNotFound

	// KindRateLimited means the provider rejected the call with a
	// too-many-requests signal. It may carry a server-suggested delay.
	KindRateLimited
)

// ProviderError wraps a provider failure with its retry classification.
// Adapters are responsible for mapping raw transport errors into one of
// the kinds above; everything downstream only looks at Kind.
type ProviderError struct {
	// Kind is the retry classification of the failure.
	Kind ErrorKind

	// RetryAfter is the server-suggested delay before the next attempt.
	// Zero when the provider did not suggest one. Only meaningful for
	// KindRateLimited.
	RetryAfter time.Duration

	// Err is the underlying provider error.
	Err error
}

func (e *ProviderError) Error() string {
	switch e.Kind {
	case KindNotFound:
		return "AI model not available: " + e.Err.Error()
	case KindRateLimited:
		return "provider rate limited: " + e.Err.Error()
	default:
		return e.Err.Error()
	}
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is classified as a permanent
// model-not-found failure.
func IsNotFound(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == KindNotFound
}

// IsRateLimited reports whether err is classified as a provider-side
// too-many-requests failure.
func IsRateLimited(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == KindRateLimited
}

// SuggestedDelay returns the server-suggested retry delay carried by err,
// or zero if err carries none.
func SuggestedDelay(err error) time.Duration {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.RetryAfter
	}
	return 0
}
