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

import "errors"

// Domain validation errors
var (
	// ErrInvalidArticle indicates an Article failed validation.
	ErrInvalidArticle = errors.New("invalid article")

	// ErrInvalidEnrichedArticle indicates an EnrichedArticle failed validation.
	ErrInvalidEnrichedArticle = errors.New("invalid enriched article")

	// ErrEmptyURL indicates the URL field is empty.
	ErrEmptyURL = errors.New("article URL cannot be empty")

	// ErrEmptyTitle indicates the Title field is empty.
	ErrEmptyTitle = errors.New("article title cannot be empty")

	// ErrInvalidTimestamp indicates a published timestamp is in the future.
	ErrInvalidTimestamp = errors.New("published timestamp cannot be in the future")

	// ErrEmptyVector indicates the embedding vector is missing.
	ErrEmptyVector = errors.New("embedding vector cannot be empty")
)
