package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Article IDs are derived from the canonical URL, so the same URL always
// maps to the same record.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// IDFromURL generates the storage ID for an article from its canonical URL.
// The URL is the unique key across the system; identical URLs always yield
// identical IDs, which is what makes the duplicate check a plain lookup.
func IDFromURL(url string) ID {
	return IDFromContent(url)
}

// Article is a candidate news article as fetched from the upstream feed.
// It is immutable once fetched; enrichment never mutates the candidate.
type Article struct {
	Title       string
	Description string
	Content     string
	URL         string // canonical URL, unique key across the system
	PublishedAt time.Time
	Source      string
	Category    string // optional
	ImageURL    string // optional
}

// EnrichedArticle is an Article plus the AI-generated summary and embedding.
// The embedding length must equal the configured model dimension; a record
// with a partial enrichment is never created.
type EnrichedArticle struct {
	Id ID
	Article
	Summary    string
	Vector     []float32
	InsertedAt time.Time // when the record was inserted into the database
	UpdatedAt  time.Time // when the record was last updated
}

// SimilarityMatch represents an article match from vector similarity search.
type SimilarityMatch struct {
	ArticleId ID
	Score     float32
}

// SearchResult represents a search result with the full record and relevance score.
type SearchResult struct {
	Article *EnrichedArticle
	Score   float32
}
