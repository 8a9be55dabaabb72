package geo

import "math"

// BoundaryMode selects how GaussianSmooth treats samples past either end of
// the series.
type BoundaryMode int

const (
	// Wrap treats the series as circular. Used for closed-loop data where
	// index 0 follows the last index.
	Wrap BoundaryMode = iota
	// Reflect mirrors the series at both ends. Used for open series such as
	// pit lanes.
	Reflect
)

// GaussianSmooth applies a 1-D Gaussian low-pass filter with the given sigma
// (in samples). The kernel is truncated at 4 sigma, matching the behaviour
// the elevation and curvature stages were tuned against. The input slice is
// not modified.
func GaussianSmooth(values []float64, sigma float64, mode BoundaryMode) []float64 {
	n := len(values)
	if n == 0 || sigma <= 0 {
		out := make([]float64, n)
		copy(out, values)
		return out
	}

	radius := int(math.Ceil(4 * sigma))
	if radius < 1 {
		radius = 1
	}
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		w := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = w
		sum += w
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		acc := 0.0
		for k := -radius; k <= radius; k++ {
			j := i + k
			switch mode {
			case Wrap:
				j = ((j % n) + n) % n
			case Reflect:
				for j < 0 || j >= n {
					if j < 0 {
						j = -j - 1
					}
					if j >= n {
						j = 2*n - j - 1
					}
				}
			}
			acc += values[j] * kernel[k+radius]
		}
		out[i] = acc
	}
	return out
}
