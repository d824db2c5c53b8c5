// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Summarizer, ai.Embedder,
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	summary, err := mockProvider.Summarizer().Summarize(ctx, "test")
//
//	// Custom behavior injection
//	mockEmbedder := mock.NewMockEmbedder()
//	mockEmbedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//
//	// Check call counts
//	count := mockEmbedder.CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockSummarizer: Returns the first sentence of the input text
//   - MockEmbedder: Returns deterministic 768-dimension vectors based on text hash
//   - MockProvider: Aggregates mock summarizer and embedder
package mock
