package vector

import (
	"errors"
	"fmt"
	"math"
)

// ErrZeroVector is returned when either input has zero magnitude;
// cosine similarity is undefined there and must not leak NaN scores
// into ranking.
var ErrZeroVector = errors.New("cosine similarity undefined for zero vector")

type DimMismatchError struct {
	LenA int
	LenB int
}

func (e *DimMismatchError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: %d vs %d", e.LenA, e.LenB)
}

// CosineSimilarity computes dot(a,b) / (|a|*|b|). Mismatched lengths
// fail loudly instead of silently truncating.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, &DimMismatchError{LenA: len(a), LenB: len(b)}
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, ErrZeroVector
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
