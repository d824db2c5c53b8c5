package openai

import (
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/newsbrief/ai"
)

// classify maps a raw client error into an ai.ProviderError so the retry
// layer can make its decision without knowing anything about the SDK.
// OpenAI-compatible servers are inconsistent about error shapes, so the
// mapping is based on the status code or phrase embedded in the message.
func classify(err error) error {
	if err == nil {
		return nil
	}

	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "does not exist"),
		strings.Contains(msg, "not found"),
		strings.Contains(msg, "no such model"),
		strings.Contains(msg, "status code: 404"):
		return &ai.ProviderError{Kind: ai.KindNotFound, Err: err}

	case strings.Contains(msg, "too many requests"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "quota"),
		strings.Contains(msg, "status code: 429"):
		return &ai.ProviderError{
			Kind:       ai.KindRateLimited,
			RetryAfter: suggestedDelay(msg),
			Err:        err,
		}

	default:
		return &ai.ProviderError{Kind: ai.KindTransient, Err: err}
	}
}

// suggestedDelay extracts a server-suggested retry delay from an error
// message, e.g. "please retry after 23 seconds" or "retry in 30s".
// Returns zero if no delay can be found.
func suggestedDelay(msg string) time.Duration {
	for _, marker := range []string{"retry after ", "retry in ", "try again in "} {
		idx := strings.Index(msg, marker)
		if idx < 0 {
			continue
		}
		rest := msg[idx+len(marker):]

		end := 0
		for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
			end++
		}
		if end == 0 {
			continue
		}
		seconds, err := strconv.Atoi(rest[:end])
		if err != nil {
			continue
		}
		return time.Duration(seconds) * time.Second
	}
	return 0
}
