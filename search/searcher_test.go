package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/newsbrief/ai/mock"
	"github.com/poiesic/newsbrief/core"
	"github.com/poiesic/newsbrief/ratelimit"
	"github.com/poiesic/newsbrief/retry"
	"github.com/poiesic/newsbrief/storage"
	badgerstore "github.com/poiesic/newsbrief/storage/badger"
)

func fastExecutor() *retry.Executor {
	noSleep := func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	limiter := ratelimit.NewLimiter(
		ratelimit.WithClock(time.Now, noSleep),
		ratelimit.WithMinInterval(0),
		ratelimit.WithMaxPerMinute(10000),
		ratelimit.WithMaxPerDay(100000),
	)
	return retry.NewExecutor(limiter, retry.WithSleep(noSleep))
}

func setupSearcher(t *testing.T, provider *mock.MockProvider) (*Searcher, storage.ArticleRepository) {
	t.Helper()
	repo, backend, err := badgerstore.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	searcher, err := NewSearcher(repo, provider, fastExecutor(), WithMinSimilarity(0.5))
	require.NoError(t, err)
	return searcher, repo
}

func storeArticle(t *testing.T, repo storage.ArticleRepository, url, title, content string, vector []float32) {
	t.Helper()
	_, err := repo.AddArticles(context.Background(), &core.EnrichedArticle{
		Article: core.Article{
			Title:       title,
			Content:     content,
			URL:         url,
			PublishedAt: time.Date(2025, 5, 30, 8, 0, 0, 0, time.UTC),
		},
		Summary: "s",
		Vector:  vector,
	})
	require.NoError(t, err)
}

func TestNewSearcherValidation(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	repo, backend, err := badgerstore.NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()

	_, err = NewSearcher(nil, provider, fastExecutor())
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = NewSearcher(repo, nil, fastExecutor())
	assert.ErrorIs(t, err, ErrAIProviderRequired)

	_, err = NewSearcher(repo, provider, nil)
	assert.ErrorIs(t, err, ErrExecutorRequired)
}

func TestFindSimilarRanksByScore(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}
	searcher, repo := setupSearcher(t, provider)

	storeArticle(t, repo, "https://a.example/near", "Close story", "body", []float32{0.99, 0.14})
	storeArticle(t, repo, "https://a.example/mid", "Middling story", "body", []float32{0.8, 0.6})
	storeArticle(t, repo, "https://a.example/far", "Unrelated story", "body", []float32{0, 1})

	results, err := searcher.FindSimilar(context.Background(), "anything", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "https://a.example/near", results[0].Article.URL)
	assert.Equal(t, "https://a.example/mid", results[1].Article.URL)
}

func TestFindSimilarVerbatimBoost(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}
	searcher, repo := setupSearcher(t, provider)

	// Slightly less similar but contains the query words verbatim
	storeArticle(t, repo, "https://a.example/verbatim", "Quantum computing milestone", "A quantum computing breakthrough.", []float32{0.9, 0.44})
	storeArticle(t, repo, "https://a.example/closer", "Other headline", "Nothing relevant here.", []float32{1, 0})

	results, err := searcher.FindSimilar(context.Background(), "quantum computing", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "https://a.example/verbatim", results[0].Article.URL)
	assert.Greater(t, results[0].Score, float32(1.0))
}

func TestFindSimilarRespectsMaxHits(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}
	searcher, repo := setupSearcher(t, provider)

	storeArticle(t, repo, "https://a.example/1", "One", "b", []float32{1, 0})
	storeArticle(t, repo, "https://a.example/2", "Two", "b", []float32{0.95, 0.31})
	storeArticle(t, repo, "https://a.example/3", "Three", "b", []float32{0.9, 0.44})

	results, err := searcher.FindSimilar(context.Background(), "query", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestFindSimilarNoMatches(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}
	searcher, repo := setupSearcher(t, provider)
	storeArticle(t, repo, "https://a.example/far", "Far", "b", []float32{0, 1})

	results, err := searcher.FindSimilar(context.Background(), "query", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestContainsAllQueryWords(t *testing.T) {
	tests := []struct {
		name     string
		document string
		query    string
		want     bool
	}{
		{"all present", "The quantum computer booted.", "quantum computer", true},
		{"missing word", "The quantum era begins.", "quantum computer", false},
		{"stop words ignored", "Rates and the economy.", "the economy", true},
		{"case and punctuation", "Breaking: RATES fall!", "rates", true},
		{"empty query", "anything", "the a of", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, containsAllQueryWords(tt.document, tt.query))
		})
	}
}

func TestFindSimilarNormalizesQueryEmbedding(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		// Raw model output, well off unit length
		return []float32{40, 0}, nil
	}
	searcher, repo := setupSearcher(t, provider)
	storeArticle(t, repo, "https://a.example/aligned", "Aligned", "b", []float32{1, 0})

	results, err := searcher.FindSimilar(context.Background(), "nomatch", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Score, 1e-4)
}
