package storage

import (
	"context"
	"time"

	"github.com/poiesic/newsbrief/core"
)

// Repository provides common storage operations shared across backends.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// FindSimilar finds enriched articles similar to the given vector.
	// Returns articles with similarity >= minSimilarity, up to limit
	// results, ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)

	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// ArticleRepository provides operations for managing enriched articles.
//
// Article IDs are content hashes of the URL, so the URL is the identity:
// storing the same URL twice overwrites rather than duplicates, and
// existence checks double as dedup checks.
type ArticleRepository interface {
	Repository

	// AddArticles stores one or more enriched articles.
	// Sets the ID from the article URL and populates InsertedAt and
	// UpdatedAt. An article whose URL is already stored is overwritten.
	AddArticles(ctx context.Context, articles ...*core.EnrichedArticle) ([]*core.EnrichedArticle, error)

	// UpdateArticles updates existing articles in place, refreshing
	// UpdatedAt. Returns ErrNotFound if any article is not stored.
	UpdateArticles(ctx context.Context, articles ...*core.EnrichedArticle) ([]*core.EnrichedArticle, error)

	// DeleteArticles removes articles by their IDs, including index
	// entries. Returns ErrNotFound if any ID is not stored.
	DeleteArticles(ctx context.Context, ids ...core.ID) error

	// GetArticle retrieves a single article by ID.
	// Returns ErrNotFound if the article is not stored.
	GetArticle(ctx context.Context, id core.ID) (*core.EnrichedArticle, error)

	// GetArticleByURL retrieves a single article by its URL.
	// Returns ErrNotFound if the article is not stored.
	GetArticleByURL(ctx context.Context, url string) (*core.EnrichedArticle, error)

	// HasArticle reports whether an article with the given URL is stored.
	HasArticle(ctx context.Context, url string) (bool, error)

	// GetArticles retrieves multiple articles by their IDs.
	// Missing IDs are skipped without error.
	GetArticles(ctx context.Context, ids ...core.ID) ([]*core.EnrichedArticle, error)

	// GetArticlesByDateRange retrieves articles published within a time
	// range. Returns articles where start <= PublishedAt < end, oldest
	// first.
	GetArticlesByDateRange(ctx context.Context, start, end time.Time) ([]*core.EnrichedArticle, error)

	// GetRecentArticles retrieves up to limit articles ordered by
	// publication time, newest first.
	GetRecentArticles(ctx context.Context, limit int) ([]*core.EnrichedArticle, error)

	// ListArticles streams every stored article to fn in key order.
	// Iteration stops when fn returns an error.
	ListArticles(ctx context.Context, fn func(article *core.EnrichedArticle) error) error

	// CountArticles returns the number of stored articles.
	CountArticles(ctx context.Context) (int, error)
}
