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


package backfill

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/newsbrief/ai"
	"github.com/poiesic/newsbrief/core"
	"github.com/poiesic/newsbrief/enrich"
	"github.com/poiesic/newsbrief/retry"
	"github.com/poiesic/newsbrief/storage"
)

// Config holds configuration for the backfill operation.
type Config struct {
	// BatchSize is the number of articles embedded per model call
	BatchSize int

	// ReportInterval is how often to report progress (number of articles)
	ReportInterval int

	// PoolSize is the number of batches embedded concurrently.
	// Concurrent batches still draw from the shared rate limiter, so the
	// pool bounds memory, not call rate.
	PoolSize int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	return &Config{
		BatchSize:      50,
		ReportInterval: 50,
		PoolSize:       poolSize,
	}
}

// Backfiller re-embeds every stored article with the current embedding
// model. Used after a model change, when stored vectors no longer live
// in the same space as fresh ones.
type Backfiller struct {
	repo     storage.ArticleRepository
	embedder ai.Embedder
	executor *retry.Executor
	config   *Config
	progress io.Writer
}

// NewBackfiller creates a new backfiller.
// progress: where to write progress output (typically os.Stderr)
func NewBackfiller(repo storage.ArticleRepository, embedder ai.Embedder, executor *retry.Executor, config *Config, progress io.Writer) *Backfiller {
	if config == nil {
		config = DefaultConfig()
	}
	return &Backfiller{
		repo:     repo,
		embedder: embedder,
		executor: executor,
		config:   config,
		progress: progress,
	}
}

// Run re-embeds all stored articles. Batches are dispatched to a worker
// pool; the first batch error cancels the remaining work.
func (b *Backfiller) Run(ctx context.Context) error {
	var articles []*core.EnrichedArticle
	if err := b.repo.ListArticles(ctx, func(article *core.EnrichedArticle) error {
		articles = append(articles, article)
		return nil
	}); err != nil {
		return fmt.Errorf("listing articles: %w", err)
	}

	if len(articles) == 0 {
		fmt.Fprintf(b.progress, "No articles found in database (0 articles)\n")
		return nil
	}

	fmt.Fprintf(b.progress, "Starting backfill of %d articles (batch size: %d)\n",
		len(articles), b.config.BatchSize)

	tracker := NewProgressTracker(b.progress, len(articles), b.config.ReportInterval)
	tracker.Start()

	pool, err := ants.NewPool(b.config.PoolSize)
	if err != nil {
		return err
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	for start := 0; start < len(articles); start += b.config.BatchSize {
		if ctx.Err() != nil {
			break
		}
		end := start + b.config.BatchSize
		if end > len(articles) {
			end = len(articles)
		}
		batch := articles[start:end]

		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if err := b.processBatch(ctx, batch); err != nil {
				fail(err)
				return
			}
			tracker.Increment(len(batch))
		}); err != nil {
			wg.Done()
			fail(err)
			break
		}
	}

	wg.Wait()
	if firstErr != nil {
		return firstErr
	}

	tracker.Finish()
	fmt.Fprintf(b.progress, "Backfill complete: %d articles in %s\n",
		len(articles), tracker.Elapsed().Round(1e9))
	return nil
}

// processBatch embeds one batch of articles and updates them in place.
// Vectors are normalized so dot-product search equals cosine similarity.
func (b *Backfiller) processBatch(ctx context.Context, batch []*core.EnrichedArticle) error {
	texts := make([]string, len(batch))
	for i, article := range batch {
		texts[i] = embedText(article)
	}

	embeddings, err := retry.Do(ctx, b.executor, "backfill embed", func(ctx context.Context) ([][]float32, error) {
		return b.embedder.EmbedTexts(ctx, texts)
	})
	if err != nil {
		return fmt.Errorf("embedding batch: %w", err)
	}
	if len(embeddings) != len(batch) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCountMismatch, len(batch), len(embeddings))
	}

	for i := range batch {
		batch[i].Vector = core.NormalizeVector(embeddings[i])
	}

	if _, err := b.repo.UpdateArticles(ctx, batch...); err != nil {
		return fmt.Errorf("updating articles: %w", err)
	}
	return nil
}

// embedText rebuilds the embedding input for a stored article, matching
// what the ingestion path feeds the embedder.
func embedText(article *core.EnrichedArticle) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{article.Title, article.Description, article.Content} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, part)
		}
	}
	text := strings.Join(parts, "\n\n")
	if len(text) > enrich.MaxEmbedInputChars {
		if runes := []rune(text); len(runes) > enrich.MaxEmbedInputChars {
			text = string(runes[:enrich.MaxEmbedInputChars])
		}
	}
	return text
}
