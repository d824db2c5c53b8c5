package backfill

import "errors"

// ErrEmbeddingCountMismatch is returned when the embedder answers a
// batch call with a different number of vectors than texts submitted.
var ErrEmbeddingCountMismatch = errors.New("embedding count mismatch")
