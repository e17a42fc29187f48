package vectorops

import (
	"errors"
	"math"
	"testing"
)

func TestCosineSimilaritySelf(t *testing.T) {
	vectors := [][]float32{
		{1, 0, 0},
		{0.3, -0.7, 2.5},
		{1e-3, 4, 9, 16},
	}
	for _, v := range vectors {
		sim, err := CosineSimilarity(v, v)
		if err != nil {
			t.Fatalf("CosineSimilarity(v, v) error = %v", err)
		}
		if math.Abs(sim-1.0) > 1e-9 {
			t.Errorf("CosineSimilarity(v, v) = %v, want 1.0", sim)
		}
	}
}

func TestCosineSimilarityZeroVector(t *testing.T) {
	zero := []float32{0, 0, 0}
	v := []float32{1, 2, 3}

	sim, err := CosineSimilarity(v, zero)
	if err != nil {
		t.Fatalf("CosineSimilarity error = %v", err)
	}
	if sim != 0.0 {
		t.Errorf("CosineSimilarity(v, zero) = %v, want 0.0", sim)
	}

	sim, err = CosineSimilarity(zero, zero)
	if err != nil {
		t.Fatalf("CosineSimilarity error = %v", err)
	}
	if sim != 0.0 {
		t.Errorf("CosineSimilarity(zero, zero) = %v, want 0.0", sim)
	}
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	sim, err := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if err != nil {
		t.Fatalf("CosineSimilarity error = %v", err)
	}
	if math.Abs(sim) > 1e-9 {
		t.Errorf("orthogonal similarity = %v, want 0", sim)
	}
}

func TestCosineSimilarityDimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("error = %v, want ErrDimensionMismatch", err)
	}
}

func TestUnifyDimension(t *testing.T) {
	tests := []struct {
		name      string
		vec       []float32
		targetDim int
		want      []float32
	}{
		{"pad", []float32{1, 2}, 4, []float32{1, 2, 0, 0}},
		{"truncate", []float32{1, 2, 3, 4}, 2, []float32{1, 2}},
		{"exact", []float32{1, 2, 3}, 3, []float32{1, 2, 3}},
		{"empty input", nil, 2, []float32{0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UnifyDimension(tt.vec, tt.targetDim)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestUnifyDimensionIdempotent(t *testing.T) {
	v := []float32{1, 2, 3, 4, 5}
	for _, dim := range []int{2, 5, 9} {
		once := UnifyDimension(v, dim)
		twice := UnifyDimension(once, dim)
		if len(once) != len(twice) {
			t.Fatalf("dim %d: lengths differ", dim)
		}
		for i := range once {
			if once[i] != twice[i] {
				t.Errorf("dim %d: element %d differs after second pass", dim, i)
			}
		}
	}
}

func TestUnifyDimensionDoesNotMutateInput(t *testing.T) {
	v := []float32{1, 2, 3}
	_ = UnifyDimension(v, 8)
	if v[0] != 1 || v[1] != 2 || v[2] != 3 || len(v) != 3 {
		t.Errorf("input mutated: %v", v)
	}
}
