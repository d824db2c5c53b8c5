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


package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/newsbrief/ai"
	"github.com/poiesic/newsbrief/core"
	"github.com/poiesic/newsbrief/retry"
)

const (
	// MaxSummaryInputChars bounds the text sent to the summary model.
	MaxSummaryInputChars = 3000

	// MaxEmbedInputChars bounds the text sent to the embedding model.
	MaxEmbedInputChars = 2000

	// DefaultInterCallDelay spaces the summary call from the embedding
	// call when both run for one article. The two calls may hit different
	// model endpoints but share one provider account.
	DefaultInterCallDelay = 2 * time.Second
)

// Enrichment holds the AI-derived fields for one article.
type Enrichment struct {
	Summary string
	Vector  []float32
}

// Enricher produces summaries and embedding vectors for article text
// through a retry executor, so every model call is paced and retried
// uniformly. Inputs are truncated to per-model limits before
// submission; truncation is silent policy, not an error.
type Enricher struct {
	provider       ai.AIProvider
	executor       *retry.Executor
	dimensions     int
	interCallDelay time.Duration
	sleep          func(ctx context.Context, d time.Duration) error
	logger         *slog.Logger
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithDimensions sets the expected embedding vector width.
func WithDimensions(n int) Option {
	return func(e *Enricher) {
		if n > 0 {
			e.dimensions = n
		}
	}
}

// WithInterCallDelay sets the pause between the summary call and the
// embedding call.
func WithInterCallDelay(d time.Duration) Option {
	return func(e *Enricher) {
		if d >= 0 {
			e.interCallDelay = d
		}
	}
}

// WithSleep replaces the inter-call sleep function. Tests use this to
// run on simulated time.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Enricher) {
		if sleep != nil {
			e.sleep = sleep
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Enricher) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEnricher creates an Enricher over the given provider and executor.
func NewEnricher(provider ai.AIProvider, executor *retry.Executor, opts ...Option) *Enricher {
	e := &Enricher{
		provider:       provider,
		executor:       executor,
		dimensions:     ai.DefaultEmbeddingDimensions,
		interCallDelay: DefaultInterCallDelay,
		sleep:          sleepContext,
		logger:         slog.Default().With("component", "enrich"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Summarize produces a short summary of text. The model input is text
// truncated to MaxSummaryInputChars; the result is whitespace-trimmed.
// An empty summary after trimming is accepted, not an error.
func (e *Enricher) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	input := truncate(text, MaxSummaryInputChars)

	summary, err := retry.Do(ctx, e.executor, "summarize", func(ctx context.Context) (string, error) {
		return e.provider.Summarizer().Summarize(ctx, input)
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(summary), nil
}

// Embed produces the embedding vector for text, truncated to
// MaxEmbedInputChars. A result of the wrong width fails with
// ErrInvalidEmbeddingDimensions; that failure is not retried here, the
// executor has already retried transient causes.
//
// The returned vector is unit length. Normalizing at this boundary is
// what entitles the store to score similarity with a plain dot product.
func (e *Enricher) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}
	input := truncate(text, MaxEmbedInputChars)

	vector, err := retry.Do(ctx, e.executor, "embed", func(ctx context.Context) ([]float32, error) {
		return e.provider.Embedder().EmbedText(ctx, input)
	})
	if err != nil {
		return nil, err
	}
	if len(vector) != e.dimensions {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidEmbeddingDimensions, len(vector), e.dimensions)
	}
	return core.NormalizeVector(vector), nil
}

// Enrich runs the summary call and then the embedding call for one
// article's text, with an inter-call pause between them. The calls run
// sequentially because concurrent submission can double-count against
// the shared minute budget in the same tick.
//
// If either call fails the whole enrichment fails; no partial result is
// returned.
func (e *Enricher) Enrich(ctx context.Context, text string) (*Enrichment, error) {
	summary, err := e.Summarize(ctx, text)
	if err != nil {
		return nil, err
	}

	if e.interCallDelay > 0 {
		if err := e.sleep(ctx, e.interCallDelay); err != nil {
			return nil, err
		}
	}

	vector, err := e.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("text enriched", "input_len", len(text), "summary_len", len(summary))
	return &Enrichment{Summary: summary, Vector: vector}, nil
}

// truncate cuts s to at most limit runes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
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
