// Package embedding provides vector embedding generation for text.
package embedding

import "math"

// Embedding represents a unit-normalized vector embedding of text.
type Embedding struct {
	Vector []float32
}

// Dimensions returns the dimensionality of the embedding.
func (e Embedding) Dimensions() int {
	return len(e.Vector)
}

// Norm returns the L2 norm of the embedding vector.
func (e Embedding) Norm() float64 {
	var sum float64
	for _, v := range e.Vector {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// Normalize scales v in place to unit L2 norm. A zero vector is left
// unchanged.
func Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}
