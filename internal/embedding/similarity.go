package embedding

import "math"

// CosineSimilarity computes the directional closeness of two vectors
// as a value in [0, 1]. Nil, empty, mismatched-length, or
// zero-magnitude inputs return 0 as a defensive default. The result
// is clamped into [0, 1] to absorb floating-point drift; embeddings
// of unrelated text are not negative in practice, so the clamp is a
// numerical-stability decision, not a semantic one.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
