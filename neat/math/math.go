// Package math holds the small set of numeric helpers shared by the
// genetics and network packages: the single activation function used by
// the feed-forward evaluator, and the randomized choices used by mutation
// and reproduction.
package math

import (
	"math"
	"math/rand"
)

// Activate applies the network's single forward-activation function to a
// neuron's accumulated input sum. Spec.md section 4.3 specifies tanh for
// every hidden and output neuron; there is no per-node activation registry.
func Activate(sum float64) float64 {
	return math.Tanh(sum)
}

// RandWeight draws a fresh connection weight uniformly from [-1, 1], used
// for primitive-construction genes and for the SetRandom gene mutation flag.
func RandWeight() float64 {
	return rand.Float64()*2 - 1
}

// RandSign returns +1 or -1 with equal probability.
func RandSign() float64 {
	if rand.Intn(2) == 0 {
		return -1
	}
	return 1
}

// LogRankedIndex implements the logarithmic-ranked-pick formula from
// spec.md section 4.5: index = |len-1 - rand(1,100)^log_100(len-1)|,
// biasing the draw toward the high (fitter) end of a length-n, ascending
// fitness-sorted slice.
func LogRankedIndex(n int) int {
	if n <= 1 {
		return 0
	}
	r := float64(rand.Intn(100) + 1) // rand(1,100)
	exp := math.Log(float64(n-1)) / math.Log(100)
	idx := int(math.Abs(float64(n-1) - math.Pow(r, exp)))
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return idx
}
