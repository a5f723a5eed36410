package distance

import "math"

// Epsilon is added to both norms before dividing.
const Epsilon = 1e-12

// Metric names the similarity function recorded in reports.
type Metric string

// MetricCosine is cosine similarity with additive epsilon.
const MetricCosine Metric = "cosine"

// Func computes a similarity between two equal-length vectors.
type Func func(a, b []float64) float64

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Norm returns the L2 norm of v.
func Norm(v []float64) float64 {
	return math.Sqrt(Dot(v, v))
}

// Cosine returns the cosine similarity of a and b.
func Cosine(a, b []float64) float64 {
	return CosineWithNorms(a, b, Norm(a), Norm(b))
}

// CosineWithNorms is Cosine with precomputed norms, for scans that compare
// one vector against many.
func CosineWithNorms(a, b []float64, normA, normB float64) float64 {
	return Dot(a, b) / ((normA + Epsilon) * (normB + Epsilon))
}
