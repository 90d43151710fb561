package fluid

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// SelectionPolicy turns the conductivities of a node's children into flow
// probabilities, one per child, in the same order. The probabilities must be
// non-negative and sum to 1. A single child must get 1.
//
// The exploration parameter trades concentrating flow on conductive children
// against spreading it evenly.
type SelectionPolicy func(conductivities []float64, exploration float64) []float64

// UpdatePolicy computes the new conductivity of a node after a trial that
// produced reward.
type UpdatePolicy func(old, reward, learningRate float64) float64

// Softmax is the default SelectionPolicy. The exploration parameter is the
// temperature: large values flatten the distribution, small values sharpen it,
// and values <= 0 split the flow evenly among the most conductive children.
func Softmax(conductivities []float64, exploration float64) []float64 {
	probs := make([]float64, len(conductivities))
	if len(probs) == 0 {
		return probs
	}
	hi := floats.Max(conductivities)
	for i, c := range conductivities {
		switch {
		case exploration <= 0:
			if c == hi {
				probs[i] = 1
			}
		default:
			probs[i] = math.Exp((c - hi) / exploration)
		}
	}
	normalize(probs)
	return probs
}

// Proportional is a SelectionPolicy where the flow into each child is
// proportional to its conductivity plus exploration. Negative weights get no
// flow.
func Proportional(conductivities []float64, exploration float64) []float64 {
	probs := make([]float64, len(conductivities))
	for i, c := range conductivities {
		if w := c + exploration; w > 0 {
			probs[i] = w
		}
	}
	normalize(probs)
	return probs
}

// normalize scales probs to sum to 1. If that is impossible (all zeros, NaNs
// or infinities) the flow is split evenly.
func normalize(probs []float64) {
	sum := floats.Sum(probs)
	if sum > 0 && !math.IsInf(sum, 1) {
		floats.Scale(1/sum, probs)
		return
	}
	for i := range probs {
		probs[i] = 1 / float64(len(probs))
	}
}

// ExpSmoothing is the default UpdatePolicy. It moves the conductivity towards
// the reward by a fraction learningRate of the difference. With rewards and
// learning rates in [0, 1], conductivities stay in [0, 1].
func ExpSmoothing(old, reward, learningRate float64) float64 {
	return old + learningRate*(reward-old)
}

// Clamped bounds the output of another UpdatePolicy to [lo, hi].
func Clamped(u UpdatePolicy, lo, hi float64) UpdatePolicy {
	return func(old, reward, learningRate float64) float64 {
		return math.Max(lo, math.Min(hi, u(old, reward, learningRate)))
	}
}
