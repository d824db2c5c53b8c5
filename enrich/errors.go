package enrich

import "errors"

var (
	// ErrNoText is returned when there is no text to feed a model.
	ErrNoText = errors.New("no text to enrich")

	// ErrInvalidEmbeddingDimensions is returned when the embedding model
	// answers with a vector of the wrong width.
	ErrInvalidEmbeddingDimensions = errors.New("invalid embedding dimensions")
)
