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


package badger

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/newsbrief/core"
	"github.com/poiesic/newsbrief/storage"
)

// ArticleRepository implements storage.ArticleRepository for BadgerDB.
type ArticleRepository struct {
	backend *Backend
}

var _ storage.ArticleRepository = (*ArticleRepository)(nil)

// NewArticleRepository creates a new ArticleRepository.
func NewArticleRepository(backend *Backend) *ArticleRepository {
	return &ArticleRepository{backend: backend}
}

// Close is a no-op; the backend owns the database handle.
func (r *ArticleRepository) Close() error {
	return nil
}

// FindSimilar delegates to the backend.
func (r *ArticleRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit)
}

// WithTransaction delegates to the backend.
func (r *ArticleRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddArticles stores one or more enriched articles.
// The ID is derived from the URL, so re-adding a URL overwrites the
// stored article and refreshes the date index.
func (r *ArticleRepository) AddArticles(ctx context.Context, articles ...*core.EnrichedArticle) ([]*core.EnrichedArticle, error) {
	err := r.backend.Update(func(tx *badger.Txn) error {
		for _, article := range articles {
			article.Id = core.IDFromURL(article.URL)

			article.InsertedAt = time.Now().UTC()
			article.UpdatedAt = article.InsertedAt

			key := makeArticleKey(article.Id)

			// Drop the old date index entry when overwriting a URL whose
			// publication time changed upstream
			old, err := r.readArticle(tx, key)
			if err != nil {
				return err
			}
			if old != nil && !old.PublishedAt.Equal(article.PublishedAt) {
				if err := tx.Delete(makeArticleDateKey(old.PublishedAt, old.Id)); err != nil {
					return err
				}
			}

			value := storage.MarshalEnrichedArticle(article)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			dateKey := makeArticleDateKey(article.PublishedAt, article.Id)
			if err := tx.Set(dateKey, storage.MarshalID(article.Id)); err != nil {
				return err
			}
		}
		return nil
	})

	return articles, err
}

// UpdateArticles updates existing articles.
func (r *ArticleRepository) UpdateArticles(ctx context.Context, articles ...*core.EnrichedArticle) ([]*core.EnrichedArticle, error) {
	err := r.backend.Update(func(tx *badger.Txn) error {
		for _, article := range articles {
			key := makeArticleKey(article.Id)

			old, err := r.readArticle(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			article.InsertedAt = old.InsertedAt
			article.UpdatedAt = time.Now().UTC()

			value := storage.MarshalEnrichedArticle(article)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			if !old.PublishedAt.Equal(article.PublishedAt) {
				if err := tx.Delete(makeArticleDateKey(old.PublishedAt, old.Id)); err != nil {
					return err
				}
				if err := tx.Set(makeArticleDateKey(article.PublishedAt, article.Id), storage.MarshalID(article.Id)); err != nil {
					return err
				}
			}
		}
		return nil
	})

	return articles, err
}

// DeleteArticles removes articles by their IDs.
func (r *ArticleRepository) DeleteArticles(ctx context.Context, ids ...core.ID) error {
	return r.backend.Update(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeArticleKey(id)

			article, err := r.readArticle(tx, key)
			if err != nil {
				return err
			}
			if article == nil {
				return storage.ErrNotFound
			}

			if err := tx.Delete(makeArticleDateKey(article.PublishedAt, article.Id)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetArticle retrieves a single article by ID.
func (r *ArticleRepository) GetArticle(ctx context.Context, id core.ID) (*core.EnrichedArticle, error) {
	var result *core.EnrichedArticle
	err := r.backend.View(func(tx *badger.Txn) error {
		key := makeArticleKey(id)
		var err error
		result, err = r.readArticle(tx, key)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	})
	return result, err
}

// GetArticleByURL retrieves a single article by its URL.
func (r *ArticleRepository) GetArticleByURL(ctx context.Context, url string) (*core.EnrichedArticle, error) {
	return r.GetArticle(ctx, core.IDFromURL(url))
}

// HasArticle reports whether an article with the given URL is stored.
func (r *ArticleRepository) HasArticle(ctx context.Context, url string) (bool, error) {
	_, err := r.GetArticle(ctx, core.IDFromURL(url))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// GetArticles retrieves multiple articles by their IDs.
func (r *ArticleRepository) GetArticles(ctx context.Context, ids ...core.ID) ([]*core.EnrichedArticle, error) {
	var result []*core.EnrichedArticle
	err := r.backend.View(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeArticleKey(id)
			article, err := r.readArticle(tx, key)
			if err != nil {
				return err
			}
			if article != nil {
				result = append(result, article)
			}
		}
		return nil
	})
	return result, err
}

// GetArticlesByDateRange retrieves articles published within a time range.
func (r *ArticleRepository) GetArticlesByDateRange(ctx context.Context, start, end time.Time) ([]*core.EnrichedArticle, error) {
	if start.Equal(end) {
		end = start.Add(1 * time.Microsecond)
	}

	var results []*core.EnrichedArticle
	err := r.backend.View(func(tx *badger.Txn) error {
		startKey := makePartialArticleDateKey(start)
		endKey := makePartialArticleDateKey(end)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if slices.Compare(key, endKey) > 0 {
				break
			}

			var articleID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				articleID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			article, err := r.readArticle(tx, makeArticleKey(articleID))
			if err != nil {
				return err
			}
			if article != nil {
				results = append(results, article)
			}
		}
		return nil
	})

	return results, err
}

// GetRecentArticles retrieves up to limit articles, newest first.
func (r *ArticleRepository) GetRecentArticles(ctx context.Context, limit int) ([]*core.EnrichedArticle, error) {
	var results []*core.EnrichedArticle
	err := r.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true

		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek past the last possible date index key and walk backwards
		startKey := makePartialArticleDateKey(time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC))
		prefix := []byte(articleDatePrefix + ":")

		count := 0
		for iter.Seek(startKey); iter.Valid() && count < limit; iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(prefix) || !bytes.HasPrefix(key, prefix) {
				break
			}

			var articleID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				articleID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			article, err := r.readArticle(tx, makeArticleKey(articleID))
			if err != nil {
				return err
			}
			if article != nil {
				results = append(results, article)
				count++
			}
		}
		return nil
	})

	return results, err
}

// ListArticles streams every stored article to fn in key order.
func (r *ArticleRepository) ListArticles(ctx context.Context, fn func(article *core.EnrichedArticle) error) error {
	return r.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(articlePrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := iter.Item()
			if bytes.HasPrefix(item.Key(), []byte(articleDatePrefix)) {
				continue
			}

			var article *core.EnrichedArticle
			if err := item.Value(func(val []byte) error {
				var err error
				article, err = storage.UnmarshalEnrichedArticle(val)
				return err
			}); err != nil {
				return err
			}
			if article == nil {
				continue
			}
			if err := fn(article); err != nil {
				return err
			}
		}
		return nil
	})
}

// CountArticles returns the number of stored articles.
func (r *ArticleRepository) CountArticles(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(articlePrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if bytes.HasPrefix(iter.Item().Key(), []byte(articleDatePrefix)) {
				continue
			}
			count++
		}
		return nil
	})
	return count, err
}

// readArticle reads and unmarshals an article by key.
// Returns nil without error if the key doesn't exist.
func (r *ArticleRepository) readArticle(tx *badger.Txn, key []byte) (*core.EnrichedArticle, error) {
	item, err := tx.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var article *core.EnrichedArticle
	err = item.Value(func(val []byte) error {
		var err error
		article, err = storage.UnmarshalEnrichedArticle(val)
		return err
	})
	return article, err
}
