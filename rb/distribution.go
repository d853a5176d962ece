package rb

import "math/rand"

// SampleCategorical draws an index from the distribution given by probs.
// probs is assumed to sum to one within ProbSumTol (validated where the
// distribution is built); residual floating-point mass falls on the last
// index.
func SampleCategorical(probs []float64, rng *rand.Rand) int {
	u := rng.Float64()
	cum := 0.0
	for i, p := range probs {
		cum += p
		if u < cum {
			return i
		}
	}
	return len(probs) - 1
}

// RoundedBudget converts the fractional activation budget n·actFrac into an
// integer budget by randomized rounding: round down, then round up with
// probability equal to the fractional remainder. The result is an unbiased
// integer approximation of the real-valued budget.
func RoundedBudget(n int, actFrac float64, rng *rand.Rand) int {
	exact := float64(n) * actFrac
	budget := int(exact)
	if rng.Float64() < exact-float64(budget) {
		budget++
	}
	return budget
}

// SampleSubset returns k distinct elements drawn uniformly without
// replacement from indices, via a partial Fisher-Yates shuffle of a copy.
// k must be at most len(indices); callers guarantee this when exhausting a
// remaining budget smaller than the candidate set.
func SampleSubset(indices []int, k int, rng *rand.Rand) []int {
	pool := append([]int(nil), indices...)
	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}
