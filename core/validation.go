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


package core

import (
	"fmt"
	"time"
)

// ValidateArticle validates a candidate Article according to domain rules.
//
// Validation rules:
//   - URL must not be empty (it is the unique key)
//   - Title must not be empty
//   - PublishedAt must not be in the future
//
// NOT validated:
//   - Description, Content (feeds frequently omit them)
//   - Category, ImageURL (optional by design)
func ValidateArticle(article *Article) error {
	if article == nil {
		return fmt.Errorf("%w: article is nil", ErrInvalidArticle)
	}

	if article.URL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidArticle, ErrEmptyURL)
	}

	if article.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidArticle, ErrEmptyTitle)
	}

	if !IsValidTimestamp(article.PublishedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidArticle, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateEnrichedArticle validates an EnrichedArticle before persistence.
//
// Validation rules:
//   - the embedded Article must be valid
//   - Vector must not be empty (no partial enrichment is ever persisted)
//
// NOT validated:
//   - Summary (an empty summary is accepted; the upstream model occasionally
//     returns one and the enrichment layer deliberately does not reject it)
//   - ID (0 is replaced by the URL-derived ID at storage time)
func ValidateEnrichedArticle(article *EnrichedArticle) error {
	if article == nil {
		return fmt.Errorf("%w: article is nil", ErrInvalidEnrichedArticle)
	}

	if err := ValidateArticle(&article.Article); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEnrichedArticle, err)
	}

	if len(article.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidEnrichedArticle, ErrEmptyVector)
	}

	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
