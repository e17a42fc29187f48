package vectorops

import (
	"errors"
	"math"
)

// ErrDimensionMismatch is returned when two vectors of different lengths
// are compared. Callers that can unify dimensions should do so first; the
// comparison itself never pads implicitly.
var ErrDimensionMismatch = errors.New("vectorops: vectors have different dimensions")

// CosineSimilarity computes dot(a,b) / (||a||*||b||) as float64. A zero
// norm on either side yields 0.0 rather than an error; the degenerate case
// is defined, not exceptional.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	var dot, normA, normB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// UnifyDimension returns a vector of exactly targetDim entries: the input
// is truncated if longer and zero-padded if shorter. The input slice is
// never mutated. targetDim must be positive; it is validated at
// configuration load, so a non-positive value here is a programmer error
// and yields nil.
func UnifyDimension(vec []float32, targetDim int) []float32 {
	if targetDim <= 0 {
		return nil
	}
	out := make([]float32, targetDim)
	copy(out, vec)
	return out
}
