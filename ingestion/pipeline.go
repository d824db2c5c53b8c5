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


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/newsbrief/core"
	"github.com/poiesic/newsbrief/enrich"
	"github.com/poiesic/newsbrief/news"
	"github.com/poiesic/newsbrief/ratelimit"
	"github.com/poiesic/newsbrief/retry"
	"github.com/poiesic/newsbrief/storage"
)

// DefaultBatchCeiling caps how many candidates one batch may attempt.
// Each success costs two model calls, so even a small batch leans hard
// on the minute budget.
const DefaultBatchCeiling = 3

// Stats is a read-only composite snapshot for observability.
type Stats struct {
	// ArticleCount is the number of persisted articles.
	ArticleCount int

	// RateLimit is the current call budget snapshot.
	RateLimit ratelimit.Status
}

// Pipeline orchestrates one ingestion batch: fetch candidates, dedup by
// URL, enrich, persist, and accumulate a BatchResult.
//
// Candidates are processed strictly sequentially in fetch order. The
// pipeline owns no background work; everything happens within the
// lifetime of one Ingest call.
type Pipeline struct {
	source   news.Source
	enricher *enrich.Enricher
	repo     storage.ArticleRepository
	limiter  *ratelimit.Limiter
	ceiling  int
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithBatchCeiling sets the per-batch candidate cap.
func WithBatchCeiling(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.ceiling = n
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPipeline creates a Pipeline over the given collaborators. The
// limiter is the same instance the enricher's executor draws from; the
// pipeline only reads its status.
func NewPipeline(source news.Source, enricher *enrich.Enricher, repo storage.ArticleRepository, limiter *ratelimit.Limiter, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:   source,
		enricher: enricher,
		repo:     repo,
		limiter:  limiter,
		ceiling:  DefaultBatchCeiling,
		logger:   slog.Default().With("component", "ingestion"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IngestCategory runs one batch over the newest articles in a category.
func (p *Pipeline) IngestCategory(ctx context.Context, category string, maxArticles int) (*BatchResult, error) {
	return p.run(ctx, news.Query{Category: category}, maxArticles)
}

// IngestSearch runs one batch over the newest articles matching a
// free-text query.
func (p *Pipeline) IngestSearch(ctx context.Context, keywords string, maxArticles int) (*BatchResult, error) {
	return p.run(ctx, news.Query{Keywords: keywords}, maxArticles)
}

// run executes one batch. maxArticles is silently clamped to the batch
// ceiling. A fetch failure aborts the whole batch with no partial
// result; per-candidate failures are recorded in the BatchResult and
// only quota exhaustion or cancellation halts the loop early.
func (p *Pipeline) run(ctx context.Context, q news.Query, maxArticles int) (*BatchResult, error) {
	if maxArticles <= 0 || maxArticles > p.ceiling {
		maxArticles = p.ceiling
	}
	q.Limit = maxArticles

	candidates, err := p.source.FetchLatest(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetching candidates: %w", err)
	}

	result := &BatchResult{Total: len(candidates)}
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("batch stopped: %v", err))
			break
		}

		exists, err := p.repo.HasArticle(ctx, candidate.URL)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", candidate.URL, err))
			continue
		}
		if exists {
			result.Skipped++
			p.logger.Debug("skipping duplicate", "url", candidate.URL)
			continue
		}

		enrichment, err := p.enricher.Enrich(ctx, enrichmentInput(&candidate))
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", candidate.URL, err))
			if stopsTheBatch(err) {
				p.logger.Warn("stopping batch early", "url", candidate.URL, "error", err)
				break
			}
			continue
		}

		enriched := &core.EnrichedArticle{
			Article: candidate,
			Summary: enrichment.Summary,
			Vector:  enrichment.Vector,
		}
		if _, err := p.repo.AddArticles(ctx, enriched); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", candidate.URL, err))
			continue
		}

		result.Succeeded++
		p.logger.Info("article ingested", "url", candidate.URL)
	}

	p.logger.Info("batch finished",
		"total", result.Total,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"skipped", result.Skipped)
	return result, nil
}

// Stats returns the persisted article count and the current rate budget.
func (p *Pipeline) Stats(ctx context.Context) (*Stats, error) {
	count, err := p.repo.CountArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting articles: %w", err)
	}
	return &Stats{
		ArticleCount: count,
		RateLimit:    p.limiter.Status(),
	}, nil
}

// stopsTheBatch reports whether a candidate failure means the remaining
// candidates would also fail, so processing should halt. Quota errors
// from either side of the retry layer qualify, as does cancellation.
func stopsTheBatch(err error) bool {
	return errors.Is(err, retry.ErrRateLimitExceeded) ||
		errors.Is(err, retry.ErrProviderQuotaExceeded) ||
		errors.Is(err, ratelimit.ErrQuotaExhausted) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// enrichmentInput joins the candidate's title, description, and body
// with blank-line separators, dropping empty parts.
func enrichmentInput(article *core.Article) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{article.Title, article.Description, article.Content} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, "\n\n")
}
