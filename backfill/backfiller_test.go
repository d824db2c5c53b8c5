package backfill

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/newsbrief/ai"
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

func setupRepo(t *testing.T, articles int) storage.ArticleRepository {
	t.Helper()
	repo, backend, err := badgerstore.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	ctx := context.Background()
	for i := 0; i < articles; i++ {
		_, err := repo.AddArticles(ctx, &core.EnrichedArticle{
			Article: core.Article{
				Title:       fmt.Sprintf("Story %d", i),
				Content:     fmt.Sprintf("Body of story %d.", i),
				URL:         fmt.Sprintf("https://a.example/%d", i),
				PublishedAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour),
			},
			Summary: "old summary",
			Vector:  []float32{9, 9, 9},
		})
		require.NoError(t, err)
	}
	return repo
}

func TestRunReembedsAllArticles(t *testing.T) {
	repo := setupRepo(t, 7)
	embedder := mock.NewMockEmbedder()

	var out bytes.Buffer
	b := NewBackfiller(repo, embedder, fastExecutor(), &Config{BatchSize: 3, ReportInterval: 1, PoolSize: 2}, &out)
	require.NoError(t, b.Run(context.Background()))

	ctx := context.Background()
	err := repo.ListArticles(ctx, func(article *core.EnrichedArticle) error {
		assert.Len(t, article.Vector, 768)
		assert.NotEqual(t, []float32{9, 9, 9}, article.Vector)
		return nil
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Backfill complete: 7 articles")
}

func TestRunNormalizesVectors(t *testing.T) {
	repo := setupRepo(t, 2)
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range out {
			out[i] = []float32{3, 4}
		}
		return out, nil
	}

	var out bytes.Buffer
	b := NewBackfiller(repo, embedder, fastExecutor(), &Config{BatchSize: 10, ReportInterval: 10, PoolSize: 1}, &out)
	require.NoError(t, b.Run(context.Background()))

	err := repo.ListArticles(context.Background(), func(article *core.EnrichedArticle) error {
		assert.InDelta(t, 0.6, article.Vector[0], 1e-6)
		assert.InDelta(t, 0.8, article.Vector[1], 1e-6)
		return nil
	})
	require.NoError(t, err)
}

func TestRunEmptyDatabase(t *testing.T) {
	repo := setupRepo(t, 0)

	var out bytes.Buffer
	b := NewBackfiller(repo, mock.NewMockEmbedder(), fastExecutor(), nil, &out)
	require.NoError(t, b.Run(context.Background()))
	assert.Contains(t, out.String(), "No articles found")
}

func TestRunPropagatesEmbedderFailure(t *testing.T) {
	repo := setupRepo(t, 4)
	embedder := mock.NewMockEmbedder()
	boom := &ai.ProviderError{Kind: ai.KindNotFound, Err: errors.New("model x does not exist")}
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, boom
	}

	var out bytes.Buffer
	b := NewBackfiller(repo, embedder, fastExecutor(), &Config{BatchSize: 2, ReportInterval: 10, PoolSize: 1}, &out)
	err := b.Run(context.Background())
	require.Error(t, err)
	assert.True(t, ai.IsNotFound(err))
}

func TestRunCountMismatch(t *testing.T) {
	repo := setupRepo(t, 3)
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1}}, nil
	}

	var out bytes.Buffer
	b := NewBackfiller(repo, embedder, fastExecutor(), &Config{BatchSize: 3, ReportInterval: 10, PoolSize: 1}, &out)
	err := b.Run(context.Background())
	assert.ErrorIs(t, err, ErrEmbeddingCountMismatch)
}

func TestRunCancelled(t *testing.T) {
	repo := setupRepo(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	b := NewBackfiller(repo, mock.NewMockEmbedder(), fastExecutor(), nil, &out)
	err := b.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

