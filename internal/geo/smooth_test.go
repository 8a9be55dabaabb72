package geo

import (
	"math"
	"testing"
)

func TestGaussianSmoothPreservesConstant(t *testing.T) {
	values := make([]float64, 50)
	for i := range values {
		values[i] = 7.5
	}

	for _, mode := range []BoundaryMode{Wrap, Reflect} {
		out := GaussianSmooth(values, 3, mode)
		for i, v := range out {
			if math.Abs(v-7.5) > 1e-9 {
				t.Fatalf("mode %d index %d: constant input changed to %f", mode, i, v)
			}
		}
	}
}

func TestGaussianSmoothReducesSpike(t *testing.T) {
	values := make([]float64, 100)
	values[50] = 100

	out := GaussianSmooth(values, 5, Wrap)
	if out[50] >= 50 {
		t.Errorf("spike not attenuated: %f", out[50])
	}
	// Mass is conserved by the normalized kernel.
	sumIn, sumOut := 0.0, 0.0
	for i := range values {
		sumIn += values[i]
		sumOut += out[i]
	}
	if math.Abs(sumIn-sumOut) > 1e-6 {
		t.Errorf("kernel not normalized: sum %f -> %f", sumIn, sumOut)
	}
}

func TestGaussianSmoothWrapSeam(t *testing.T) {
	// A smooth circular signal should stay smooth across the index-0 seam.
	n := 200
	values := make([]float64, n)
	for i := range values {
		values[i] = math.Sin(2 * math.Pi * float64(i) / float64(n))
	}

	out := GaussianSmooth(values, 4, Wrap)
	seamJump := math.Abs(out[0] - out[n-1])
	interiorJump := math.Abs(out[n/2] - out[n/2-1])
	if seamJump > 10*interiorJump+1e-9 {
		t.Errorf("seam discontinuity %g vs interior step %g", seamJump, interiorJump)
	}
}

func TestGaussianSmoothDoesNotModifyInput(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	orig := append([]float64(nil), values...)
	GaussianSmooth(values, 2, Reflect)
	for i := range values {
		if values[i] != orig[i] {
			t.Fatalf("input modified at %d: %f != %f", i, values[i], orig[i])
		}
	}
}

func TestGaussianSmoothEdgeCases(t *testing.T) {
	if out := GaussianSmooth(nil, 3, Wrap); len(out) != 0 {
		t.Errorf("nil input should give empty output")
	}
	in := []float64{1, 2, 3}
	out := GaussianSmooth(in, 0, Wrap)
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("sigma 0 should be a copy, index %d: %f", i, out[i])
		}
	}
}
