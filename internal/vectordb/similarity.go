package vectordb

import (
	"math"
)

// DotProduct calculates the dot product of two vectors. For unit vectors
// this equals cosine similarity.
func DotProduct(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0.0
	}

	var product float32
	for i := 0; i < len(a); i++ {
		product += a[i] * b[i]
	}

	return product
}

// NormalizeVector normalizes a vector to unit length. A zero vector is
// returned unchanged; its dot product with anything is 0, which ranks it
// below every real match.
func NormalizeVector(v []float32) []float32 {
	var norm float32
	for _, val := range v {
		norm += val * val
	}

	norm = float32(math.Sqrt(float64(norm)))
	if norm == 0.0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = val / norm
	}

	return normalized
}

// Magnitude calculates the length of a vector
func Magnitude(v []float32) float32 {
	var sum float32
	for _, val := range v {
		sum += val * val
	}
	return float32(math.Sqrt(float64(sum)))
}
