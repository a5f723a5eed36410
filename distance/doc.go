// Package distance provides the similarity math used by the clusterer.
//
// All functions operate in float64 regardless of the corpus element type,
// so float32 and integer corpora are compared in extended precision.
//
// # Cosine Similarity
//
//	cos(a, b) = dot(a, b) / ((|a| + eps) * (|b| + eps))
//
// The additive Epsilon keeps all-zero vectors well defined (similarity 0)
// instead of dividing by zero. The conceptual range is [-1, 1].
//
// # Usage
//
//	sim := distance.Cosine(a, b)
package distance
