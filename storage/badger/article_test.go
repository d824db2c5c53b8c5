package badger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/newsbrief/core"
	"github.com/poiesic/newsbrief/storage"
)

func setupRepo(t *testing.T) storage.ArticleRepository {
	t.Helper()
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func makeTestArticle(url string, publishedAt time.Time) *core.EnrichedArticle {
	return &core.EnrichedArticle{
		Article: core.Article{
			Title:       "Story " + url,
			Content:     "Body of " + url,
			URL:         url,
			PublishedAt: publishedAt,
			Source:      "example",
		},
		Summary: "Summary of " + url,
		Vector:  []float32{0.6, 0.8},
	}
}

func TestAddAndGetArticle(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	article := makeTestArticle("https://a.example/1", time.Date(2025, 5, 30, 8, 0, 0, 0, time.UTC))
	added, err := repo.AddArticles(ctx, article)
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, core.IDFromURL("https://a.example/1"), added[0].Id)
	assert.False(t, added[0].InsertedAt.IsZero())

	got, err := repo.GetArticle(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, article.URL, got.URL)
	assert.Equal(t, article.Summary, got.Summary)
	assert.Equal(t, article.Vector, got.Vector)
}

func TestGetArticleByURL(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	article := makeTestArticle("https://a.example/1", time.Now().UTC().Add(-time.Hour))
	_, err := repo.AddArticles(ctx, article)
	require.NoError(t, err)

	got, err := repo.GetArticleByURL(ctx, "https://a.example/1")
	require.NoError(t, err)
	assert.Equal(t, article.Title, got.Title)

	_, err = repo.GetArticleByURL(ctx, "https://a.example/other")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestHasArticle(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	has, err := repo.HasArticle(ctx, "https://a.example/1")
	require.NoError(t, err)
	assert.False(t, has)

	_, err = repo.AddArticles(ctx, makeTestArticle("https://a.example/1", time.Now().UTC()))
	require.NoError(t, err)

	has, err = repo.HasArticle(ctx, "https://a.example/1")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestAddArticleSameURLOverwrites(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	first := makeTestArticle("https://a.example/1", time.Date(2025, 5, 30, 8, 0, 0, 0, time.UTC))
	_, err := repo.AddArticles(ctx, first)
	require.NoError(t, err)

	second := makeTestArticle("https://a.example/1", time.Date(2025, 5, 31, 8, 0, 0, 0, time.UTC))
	second.Summary = "updated summary"
	_, err = repo.AddArticles(ctx, second)
	require.NoError(t, err)

	count, err := repo.CountArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := repo.GetArticleByURL(ctx, "https://a.example/1")
	require.NoError(t, err)
	assert.Equal(t, "updated summary", got.Summary)

	// The stale date index entry must be gone too
	recent, err := repo.GetRecentArticles(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestUpdateArticles(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	article := makeTestArticle("https://a.example/1", time.Date(2025, 5, 30, 8, 0, 0, 0, time.UTC))
	added, err := repo.AddArticles(ctx, article)
	require.NoError(t, err)
	inserted := added[0].InsertedAt

	added[0].Vector = []float32{1, 0}
	updated, err := repo.UpdateArticles(ctx, added[0])
	require.NoError(t, err)
	assert.Equal(t, inserted, updated[0].InsertedAt)
	assert.True(t, updated[0].UpdatedAt.After(inserted) || updated[0].UpdatedAt.Equal(inserted))

	got, err := repo.GetArticle(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, got.Vector)
}

func TestUpdateArticlesNotFound(t *testing.T) {
	repo := setupRepo(t)

	article := makeTestArticle("https://a.example/missing", time.Now().UTC())
	article.Id = core.IDFromURL(article.URL)
	_, err := repo.UpdateArticles(context.Background(), article)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteArticles(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	added, err := repo.AddArticles(ctx, makeTestArticle("https://a.example/1", time.Now().UTC()))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteArticles(ctx, added[0].Id))

	_, err = repo.GetArticle(ctx, added[0].Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	recent, err := repo.GetRecentArticles(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestDeleteArticlesNotFound(t *testing.T) {
	repo := setupRepo(t)
	err := repo.DeleteArticles(context.Background(), core.IDFromURL("https://a.example/none"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetArticlesSkipsMissing(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	added, err := repo.AddArticles(ctx, makeTestArticle("https://a.example/1", time.Now().UTC()))
	require.NoError(t, err)

	got, err := repo.GetArticles(ctx, added[0].Id, core.IDFromURL("https://a.example/none"))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestGetArticlesByDateRange(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		url := fmt.Sprintf("https://a.example/%d", i)
		_, err := repo.AddArticles(ctx, makeTestArticle(url, base.AddDate(0, 0, i)))
		require.NoError(t, err)
	}

	got, err := repo.GetArticlesByDateRange(ctx, base.AddDate(0, 0, 1), base.AddDate(0, 0, 4))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].PublishedAt.Before(got[1].PublishedAt))
	assert.True(t, got[1].PublishedAt.Before(got[2].PublishedAt))
}

func TestGetRecentArticles(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		url := fmt.Sprintf("https://a.example/%d", i)
		_, err := repo.AddArticles(ctx, makeTestArticle(url, base.AddDate(0, 0, i)))
		require.NoError(t, err)
	}

	got, err := repo.GetRecentArticles(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].PublishedAt.After(got[1].PublishedAt))
	assert.True(t, got[1].PublishedAt.After(got[2].PublishedAt))
}

func TestListArticles(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		url := fmt.Sprintf("https://a.example/%d", i)
		_, err := repo.AddArticles(ctx, makeTestArticle(url, time.Now().UTC()))
		require.NoError(t, err)
	}

	seen := 0
	err := repo.ListArticles(ctx, func(article *core.EnrichedArticle) error {
		seen++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, seen)
}

func TestListArticlesStopsOnError(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		url := fmt.Sprintf("https://a.example/%d", i)
		_, err := repo.AddArticles(ctx, makeTestArticle(url, time.Now().UTC()))
		require.NoError(t, err)
	}

	seen := 0
	stop := fmt.Errorf("stop")
	err := repo.ListArticles(ctx, func(article *core.EnrichedArticle) error {
		seen++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, seen)
}

func TestCountArticles(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	count, err := repo.CountArticles(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	for i := 0; i < 4; i++ {
		url := fmt.Sprintf("https://a.example/%d", i)
		_, err := repo.AddArticles(ctx, makeTestArticle(url, time.Now().UTC()))
		require.NoError(t, err)
	}

	count, err = repo.CountArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}
