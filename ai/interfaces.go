package ai

import "context"

// Summarizer produces a short natural-language summary of a text.
// Implementations must be thread-safe for concurrent use.
type Summarizer interface {
	// Summarize generates a summary for the given text.
	// The result may be empty; callers decide whether that matters.
	// Returns an error if the summarization call fails.
	Summarize(ctx context.Context, text string) (string, error)
}

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Summarizer and Embedder instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Summarizer returns the text summarization service.
	// The returned Summarizer is safe for concurrent use.
	Summarizer() Summarizer

	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
