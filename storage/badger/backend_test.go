package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := t.TempDir()
	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	assert.False(t, backend.IsClosed())
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())
}

func TestFindSimilar_NoArticles(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	results, err := backend.FindSimilar(context.Background(), []float32{1, 0}, 0.5, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilar_OrdersByScore(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	near := makeTestArticle("https://a.example/near", time.Now().UTC())
	near.Vector = []float32{1, 0}
	mid := makeTestArticle("https://a.example/mid", time.Now().UTC())
	mid.Vector = []float32{0.7, 0.7}
	far := makeTestArticle("https://a.example/far", time.Now().UTC())
	far.Vector = []float32{0, 1}

	_, err = repo.AddArticles(ctx, near, mid, far)
	require.NoError(t, err)

	results, err := backend.FindSimilar(ctx, []float32{1, 0}, 0.5, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "https://a.example/near", results[0].Article.URL)
	assert.Equal(t, "https://a.example/mid", results[1].Article.URL)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestFindSimilar_RespectsLimit(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	for _, url := range []string{"https://a.example/1", "https://a.example/2", "https://a.example/3"} {
		article := makeTestArticle(url, time.Now().UTC())
		article.Vector = []float32{1, 0}
		_, err := repo.AddArticles(ctx, article)
		require.NoError(t, err)
	}

	results, err := backend.FindSimilar(ctx, []float32{1, 0}, 0.5, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestFindSimilar_SkipsArticlesWithoutVectors(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	bare := makeTestArticle("https://a.example/bare", time.Now().UTC())
	bare.Vector = nil
	_, err = repo.AddArticles(ctx, bare)
	require.NoError(t, err)

	results, err := backend.FindSimilar(ctx, []float32{1, 0}, 0.0, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	wantErr := assert.AnError
	err = backend.WithTransaction(context.Background(), func(ctx context.Context) error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestDotProduct(t *testing.T) {
	assert.InDelta(t, 1.0, dot([]float32{1, 0}, []float32{1, 0}), 1e-6)
	assert.InDelta(t, 0.0, dot([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, 0.5, dot([]float32{0.5, 0.5}, []float32{0.5, 0.5}), 1e-6)
	assert.InDelta(t, 0.0, dot([]float32{1}, nil), 1e-6)
}
