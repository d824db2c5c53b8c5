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


// Package ai provides abstractions for the AI services used in newsbrief.
//
// This package defines interfaces for text summarization and embedding
// generation. It follows the dependency inversion principle, allowing the
// enrichment and ingestion logic to depend on abstractions rather than a
// concrete provider SDK.
//
// # Design Principles
//
// The package is designed around three key interfaces:
//
//   - Summarizer: Produces a short summary of an article's text
//   - Embedder: Generates vector embeddings from text
//   - AIProvider: Aggregates AI services for convenient initialization
//
// # Error Classification
//
// Provider adapters wrap failures in ProviderError, which carries a retry
// classification (transient, not-found, rate-limited) and an optional
// server-suggested retry delay. The retry executor bases all of its
// decisions on this classification; nothing outside the adapter packages
// inspects raw transport errors.
//
// # Implementation Packages
//
// The ai package includes two implementation sub-packages:
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types to enforce abstraction. Test utility constructors
// (mock.NewMockEmbedder, mock.NewMockSummarizer) return CONCRETE types to
// enable behavior injection and call-count assertions.
package ai
