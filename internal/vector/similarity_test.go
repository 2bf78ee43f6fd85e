package vector

import (
	"errors"
	"math"
	"testing"
)

func TestCosineSimilaritySelf(t *testing.T) {
	v := []float32{0.3, -1.2, 4.5, 0.01}
	got, err := CosineSimilarity(v, v)
	if err != nil {
		t.Fatalf("CosineSimilarity: %v", err)
	}
	if math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("self similarity: want=1.0 got=%v", got)
	}
}

func TestCosineSimilaritySymmetric(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-4, 0.5, 2}
	ab, err := CosineSimilarity(a, b)
	if err != nil {
		t.Fatalf("CosineSimilarity(a,b): %v", err)
	}
	ba, err := CosineSimilarity(b, a)
	if err != nil {
		t.Fatalf("CosineSimilarity(b,a): %v", err)
	}
	if math.Abs(ab-ba) > 1e-12 {
		t.Fatalf("symmetry: sim(a,b)=%v sim(b,a)=%v", ab, ba)
	}
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{0, 1, 0}
	got, err := CosineSimilarity(a, b)
	if err != nil {
		t.Fatalf("CosineSimilarity: %v", err)
	}
	if math.Abs(got) > 1e-9 {
		t.Fatalf("orthogonal similarity: want=0 got=%v", got)
	}
}

func TestCosineSimilarityDimMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
	var dimErr *DimMismatchError
	if !errors.As(err, &dimErr) {
		t.Fatalf("want DimMismatchError, got %v", err)
	}
	if dimErr.LenA != 2 || dimErr.LenB != 3 {
		t.Fatalf("mismatch lengths: got=%d,%d", dimErr.LenA, dimErr.LenB)
	}
}

func TestCosineSimilarityZeroVector(t *testing.T) {
	_, err := CosineSimilarity([]float32{0, 0, 0}, []float32{1, 2, 3})
	if !errors.Is(err, ErrZeroVector) {
		t.Fatalf("want ErrZeroVector, got %v", err)
	}
}
