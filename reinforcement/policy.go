package reinforcement

import (
	"math/rand"

	. "gridlearn/grid_world"

	"gonum.org/v1/gonum/floats"
)

// DefaultEpsilon is the floor added to every shifted estimate, so no action ever has
// zero probability.
const DefaultEpsilon = 1e-4

// DistributionFromValues converts estimates to a value-proportional distribution: the
// values are shifted so their minimum becomes epsilon, then normalized to sum to one.
// Equal values yield the uniform distribution. The input is not modified.
func DistributionFromValues(values []float64, epsilon float64) []float64 {
	probs := make([]float64, len(values))
	copy(probs, values)
	floats.AddConst(epsilon-floats.Min(probs), probs)
	floats.Scale(1/floats.Sum(probs), probs)
	return probs
}

// SampleIndex draws an index from a discrete distribution with a single rng draw.
// Rounding shortfall in the cumulative sum falls on the last index with nonzero mass.
func SampleIndex(rng *rand.Rand, probs []float64) int {
	u := rng.Float64()
	cum := 0.0
	last := 0
	for i, p := range probs {
		if p <= 0 {
			continue
		}
		cum += p
		last = i
		if u < cum {
			return i
		}
	}
	return last
}

// SampleAction draws an action from a distribution over Actions.
func SampleAction(rng *rand.Rand, probs []float64) Action {
	return Actions[SampleIndex(rng, probs)]
}
