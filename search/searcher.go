package search

import (
	"context"
	"log/slog"
	"sort"

	"github.com/poiesic/newsbrief/ai"
	"github.com/poiesic/newsbrief/core"
	"github.com/poiesic/newsbrief/retry"
	"github.com/poiesic/newsbrief/storage"
)

// DefaultMinSimilarity filters matches whose cosine similarity to the
// query falls below this threshold.
const DefaultMinSimilarity = 0.60

// Searcher provides semantic search over stored articles.
type Searcher struct {
	repo          storage.ArticleRepository
	embedder      ai.Embedder
	executor      *retry.Executor
	minSimilarity float32
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithMinSimilarity sets the similarity threshold for matches.
func WithMinSimilarity(min float32) Option {
	return func(s *Searcher) error {
		s.minSimilarity = min
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher. The executor paces the query
// embedding call against the same budget as ingestion.
func NewSearcher(repo storage.ArticleRepository, provider ai.AIProvider, executor *retry.Executor, opts ...Option) (*Searcher, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if executor == nil {
		return nil, ErrExecutorRequired
	}

	s := &Searcher{
		repo:          repo,
		embedder:      provider.Embedder(),
		executor:      executor,
		minSimilarity: DefaultMinSimilarity,
		logger:        slog.Default().With("component", "search"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// FindSimilar searches for articles similar to the query.
// Returns up to maxHits results ranked by relevance score: cosine
// similarity, boosted when the article text contains every significant
// query word verbatim.
func (s *Searcher) FindSimilar(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	embedding, err := retry.Do(ctx, s.executor, "query embed", func(ctx context.Context) ([]float32, error) {
		return s.embedder.EmbedText(ctx, query)
	})
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	// Stored vectors are unit length; the query must be too, or the dot
	// product stops being cosine similarity
	matches, err := s.repo.FindSimilar(ctx, core.NormalizeVector(embedding), s.minSimilarity, maxHits)
	if err != nil {
		s.logger.Error("error querying for similar articles", "err", err)
		return nil, err
	}

	results := make([]*core.SearchResult, 0, len(matches))
	for _, match := range matches {
		score := match.Score
		if containsAllQueryWords(match.Article.Title+" "+match.Article.Content, query) {
			score += 0.3
		}
		results = append(results, &core.SearchResult{
			Article: match.Article,
			Score:   score,
		})
	}

	// Re-sort, the verbatim boost can reorder matches
	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > maxHits {
		results = results[:maxHits]
	}
	return results, nil
}
