package vector

import (
	"errors"
	"math"
	"testing"
)

const tolerance = 1e-9

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 2}, []float32{-1, -2}, -1},
		{"scaled", []float32{1, 2, 3}, []float32{2, 4, 6}, 1},
		{"zero query", []float32{1, 2}, []float32{0, 0}, 0},
		{"both zero", []float32{0, 0}, []float32{0, 0}, 0},
		{"empty", []float32{}, []float32{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			if err != nil {
				t.Fatalf("CosineSimilarity: %v", err)
			}
			if math.Abs(got-tt.want) > tolerance {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineSimilarity_Symmetric(t *testing.T) {
	pairs := [][2][]float32{
		{{0.9, 0.1}, {1, 0}},
		{{0.3, -0.7, 2.5}, {1.1, 0.2, -0.4}},
		{{1e-3, 5, 7}, {3, 3, 3}},
		{{0, 0, 0}, {1, 2, 3}},
	}
	for _, p := range pairs {
		ab, err := CosineSimilarity(p[0], p[1])
		if err != nil {
			t.Fatal(err)
		}
		ba, err := CosineSimilarity(p[1], p[0])
		if err != nil {
			t.Fatal(err)
		}
		if ab != ba {
			t.Errorf("score(%v,%v)=%v but score(%v,%v)=%v", p[0], p[1], ab, p[1], p[0], ba)
		}
	}
}

func TestCosineSimilarity_SelfIsOne(t *testing.T) {
	for _, v := range [][]float32{{1, 0, 0}, {0.12, -3.4, 5.6, 7.8}, {1e-4, 1e-4}} {
		got, err := CosineSimilarity(v, v)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-1) > 1e-6 {
			t.Errorf("self similarity of %v = %v", v, got)
		}
	}
}

func TestCosineSimilarity_DimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestL2Norm(t *testing.T) {
	if got := L2Norm([]float32{3, 4}); got != 5 {
		t.Errorf("L2Norm = %v", got)
	}
	if got := L2Norm(nil); got != 0 {
		t.Errorf("L2Norm(nil) = %v", got)
	}
}

func TestNormalize(t *testing.T) {
	x := []float32{3, 4}
	Normalize(x)
	if math.Abs(float64(x[0])-0.6) > 1e-6 || math.Abs(float64(x[1])-0.8) > 1e-6 {
		t.Errorf("Normalize = %v", x)
	}
	zero := []float32{0, 0}
	Normalize(zero)
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("Normalize(zero) = %v", zero)
	}
}
