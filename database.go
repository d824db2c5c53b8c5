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


package newsbrief

import (
	"io"
	"log/slog"

	"github.com/poiesic/newsbrief/ai"
	"github.com/poiesic/newsbrief/ai/openai"
	"github.com/poiesic/newsbrief/backfill"
	"github.com/poiesic/newsbrief/enrich"
	"github.com/poiesic/newsbrief/ingestion"
	"github.com/poiesic/newsbrief/news"
	"github.com/poiesic/newsbrief/ratelimit"
	"github.com/poiesic/newsbrief/retry"
	"github.com/poiesic/newsbrief/search"
	"github.com/poiesic/newsbrief/storage"
	"github.com/poiesic/newsbrief/storage/badger"
)

// Database bundles the article store, the AI provider, and the shared
// rate-limited call path. One Database per process: the rate budget it
// owns mirrors a per-account upstream quota, so splitting it across
// instances would double-spend.
type Database struct {
	backend     *badger.Backend
	articleRepo storage.ArticleRepository
	provider    ai.AIProvider
	limiter     *ratelimit.Limiter
	executor    *retry.Executor
	enricher    *enrich.Enricher
	logger      *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig    *ai.Config
	limiterOpts []ratelimit.Option
	retryOpts   []retry.Option
	enrichOpts  []enrich.Option
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithRateLimitOptions passes options to the shared rate limiter.
func WithRateLimitOptions(opts ...ratelimit.Option) DatabaseOption {
	return func(o *databaseOptions) {
		o.limiterOpts = append(o.limiterOpts, opts...)
	}
}

// WithRetryOptions passes options to the shared retry executor.
func WithRetryOptions(opts ...retry.Option) DatabaseOption {
	return func(o *databaseOptions) {
		o.retryOpts = append(o.retryOpts, opts...)
	}
}

// WithEnrichOptions passes options to the enricher.
func WithEnrichOptions(opts ...enrich.Option) DatabaseOption {
	return func(o *databaseOptions) {
		o.enrichOpts = append(o.enrichOpts, opts...)
	}
}

// NewDatabase opens the article database at filePath and wires the AI
// call path.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	articleRepo := badger.NewArticleRepository(backend)

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		articleRepo.Close()
		backend.Close()
		return nil, err
	}

	limiter := ratelimit.NewLimiter(options.limiterOpts...)
	executor := retry.NewExecutor(limiter, options.retryOpts...)

	enrichOpts := append([]enrich.Option{
		enrich.WithDimensions(options.aiConfig.EmbeddingDimensions),
	}, options.enrichOpts...)
	enricher := enrich.NewEnricher(provider, executor, enrichOpts...)

	return &Database{
		backend:     backend,
		articleRepo: articleRepo,
		provider:    provider,
		limiter:     limiter,
		executor:    executor,
		enricher:    enricher,
		logger:      slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}
	if err := db.articleRepo.Close(); err != nil {
		db.logger.Error("error closing article repository", "err", err)
		return err
	}
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// ArticleRepository exposes the underlying article store.
func (db *Database) ArticleRepository() storage.ArticleRepository {
	return db.articleRepo
}

// RateLimiter exposes the shared call budget for observability.
func (db *Database) RateLimiter() *ratelimit.Limiter {
	return db.limiter
}

// NewIngestionPipeline creates a pipeline ingesting from source into
// this database.
func (db *Database) NewIngestionPipeline(source news.Source, opts ...ingestion.Option) *ingestion.Pipeline {
	return ingestion.NewPipeline(source, db.enricher, db.articleRepo, db.limiter, opts...)
}

// NewSearcher creates a semantic searcher over this database.
func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.articleRepo, db.provider, db.executor, opts...)
}

// NewBackfiller creates a backfiller that re-embeds all stored articles.
func (db *Database) NewBackfiller(config *backfill.Config, progress io.Writer) *backfill.Backfiller {
	return backfill.NewBackfiller(db.articleRepo, db.provider.Embedder(), db.executor, config, progress)
}
