package openai

import (
	"errors"
	"testing"
	"time"

	"github.com/poiesic/newsbrief/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind ai.ErrorKind
	}{
		{
			name:     "404 status code",
			err:      errors.New("API returned unexpected status code: 404"),
			wantKind: ai.KindNotFound,
		},
		{
			name:     "model does not exist",
			err:      errors.New("model 'gemma-99' does not exist"),
			wantKind: ai.KindNotFound,
		},
		{
			name:     "model not found",
			err:      errors.New("model not found"),
			wantKind: ai.KindNotFound,
		},
		{
			name:     "429 status code",
			err:      errors.New("API returned unexpected status code: 429"),
			wantKind: ai.KindRateLimited,
		},
		{
			name:     "rate limit message",
			err:      errors.New("Rate limit reached for requests"),
			wantKind: ai.KindRateLimited,
		},
		{
			name:     "quota message",
			err:      errors.New("you exceeded your current quota"),
			wantKind: ai.KindRateLimited,
		},
		{
			name:     "connection error is transient",
			err:      errors.New("connection reset by peer"),
			wantKind: ai.KindTransient,
		},
		{
			name:     "500 is transient",
			err:      errors.New("API returned unexpected status code: 500"),
			wantKind: ai.KindTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := classify(tt.err)
			require.Error(t, classified)

			var pe *ai.ProviderError
			require.ErrorAs(t, classified, &pe)
			assert.Equal(t, tt.wantKind, pe.Kind)
			assert.ErrorIs(t, classified, tt.err)
		})
	}
}

func TestClassify_Nil(t *testing.T) {
	assert.NoError(t, classify(nil))
}

func TestSuggestedDelay(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want time.Duration
	}{
		{
			name: "retry after seconds",
			msg:  "rate limit reached, please retry after 23 seconds",
			want: 23 * time.Second,
		},
		{
			name: "try again in",
			msg:  "too many requests, try again in 60s",
			want: 60 * time.Second,
		},
		{
			name: "retry in",
			msg:  "retry in 5s",
			want: 5 * time.Second,
		},
		{
			name: "no delay present",
			msg:  "rate limit reached",
			want: 0,
		},
		{
			name: "marker without number",
			msg:  "please retry after a while",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, suggestedDelay(tt.msg))
		})
	}
}
