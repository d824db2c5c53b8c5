package mock

import (
	"context"
	"hash/fnv"
	"math"
)

// MockEmbedder is a test double for ai.Embedder. Behavior is overridden
// per test through the function fields; with none set, every call yields
// a deterministic vector derived from the input text, so identical texts
// always embed identically.
type MockEmbedder struct {
	// EmbedTextFunc overrides EmbedText when set.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc overrides EmbedTexts when set.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the width of generated default vectors.
	// Zero means 768, matching the production embedding model.
	Dimensions int

	callCount int
}

// NewMockEmbedder returns the concrete type so tests can reach the
// function fields and call counter.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.callCount++
	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	return deterministicVector(text, m.width()), nil
}

func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.callCount++
	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = deterministicVector(text, m.width())
	}
	return out, nil
}

// CallCount returns how many times either embed method was called.
func (m *MockEmbedder) CallCount() int {
	return m.callCount
}

// Reset clears the counter and any injected behavior.
func (m *MockEmbedder) Reset() {
	m.callCount = 0
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
}

func (m *MockEmbedder) width() int {
	if m.Dimensions > 0 {
		return m.Dimensions
	}
	return 768
}

// deterministicVector expands an FNV hash of the text into a dim-wide
// unit-length vector with an LCG. Same text, same vector.
func deterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	state := h.Sum32()

	v := make([]float32, dim)
	var sumSq float64
	for i := range v {
		state = state*1664525 + 1013904223
		v[i] = float32(state%1000) / 1000.0
		sumSq += float64(v[i]) * float64(v[i])
	}

	if sumSq > 0 {
		scale := float32(1 / math.Sqrt(sumSq))
		for i := range v {
			v[i] *= scale
		}
	}
	return v
}
