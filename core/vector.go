package core

import "math"

// NormalizeVector returns a unit-length copy of v. Every vector is
// normalized before it is stored or compared, so similarity search can
// score with a plain dot product and read it as cosine similarity.
// A zero vector stays zero; there is no direction to keep.
func NormalizeVector(v []float32) []float32 {
	out := make([]float32, len(v))
	if len(v) == 0 {
		return out
	}

	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return out
	}

	inv := float32(1 / norm)
	for i, x := range v {
		out[i] = x * inv
	}
	return out
}
