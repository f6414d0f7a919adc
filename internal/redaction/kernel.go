package redaction

import (
	"math"

	"github.com/anthonynsimon/bild/convolution"
)

// KernelSize returns the odd blur kernel length for a region dimension d:
// half of d, bumped to the next odd number, and never less than 1.
func KernelSize(d int) int {
	k := d / 2
	if k < 1 {
		k = 1
	}
	if k%2 == 0 {
		k++
	}
	return k
}

// Sigma returns the Gaussian standard deviation used for a kernel of
// length k. This is the rule OpenCV applies when no sigma is given.
func Sigma(k int) float64 {
	return 0.3*((float64(k)-1)*0.5-1) + 0.8
}

// Small kernels use the fixed binomial weights OpenCV ships for them.
var smallKernels = map[int][]float64{
	1: {1},
	3: {0.25, 0.5, 0.25},
	5: {0.0625, 0.25, 0.375, 0.25, 0.0625},
	7: {0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125},
}

// gaussianWeights returns k normalized Gaussian weights.
func gaussianWeights(k int) []float64 {
	if w, ok := smallKernels[k]; ok {
		out := make([]float64, k)
		copy(out, w)
		return out
	}

	sigma := Sigma(k)
	scale := -0.5 / (sigma * sigma)
	half := float64(k-1) / 2

	weights := make([]float64, k)
	sum := 0.0
	for i := range weights {
		x := float64(i) - half
		weights[i] = math.Exp(scale * x * x)
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

// rowKernel builds a 1-pixel-high convolution kernel of length k.
func rowKernel(k int) *convolution.Kernel {
	kernel := convolution.NewKernel(k, 1)
	copy(kernel.Matrix, gaussianWeights(k))
	return kernel
}
