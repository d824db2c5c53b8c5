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


package news

import (
	"context"

	"github.com/poiesic/newsbrief/core"
)

// Query narrows a fetch to a topic or category.
type Query struct {
	// Category filters by upstream category (e.g. "technology").
	// Empty means all categories.
	Category string

	// Keywords is a free-text search phrase. Empty means no keyword
	// filter.
	Keywords string

	// Limit caps the number of articles returned. Zero means the
	// source's default page size.
	Limit int
}

// Source fetches raw articles from an upstream provider.
type Source interface {
	// FetchLatest returns the newest articles matching q, newest first.
	FetchLatest(ctx context.Context, q Query) ([]core.Article, error)
}
