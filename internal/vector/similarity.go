// Package vector provides similarity and encoding helpers for note embeddings.
package vector

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch is returned when two vectors of different length are compared.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// CosineSimilarity returns dot(a, b) / (|a| * |b|), accumulated in float64.
// Vectors must have equal length. If either vector has zero norm the similarity is 0,
// so the result is always a finite number in [-1, 1] for finite inputs.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		va, vb := float64(a[i]), float64(b[i])
		dot += va * vb
		na += va * va
		nb += vb * vb
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	score := dot / (math.Sqrt(na) * math.Sqrt(nb))
	if math.IsNaN(score) {
		return 0, nil
	}
	return math.Max(-1, math.Min(1, score)), nil
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// Normalize scales x in place to unit L2 norm. A zero vector is left unchanged.
func Normalize(x []float32) {
	norm := L2Norm(x)
	if norm == 0 {
		return
	}
	for i := range x {
		x[i] = float32(float64(x[i]) / norm)
	}
}
