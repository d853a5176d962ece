package rb

import "fmt"

// SAFrequency returns the empirical S×2 state-action frequency of the given
// per-arm states and actions.
func SAFrequency(numStates int, states, actions []int) ([][]float64, error) {
	if len(states) != len(actions) {
		return nil, fmt.Errorf("got %d states and %d actions", len(states), len(actions))
	}
	if len(states) == 0 {
		return nil, fmt.Errorf("empty state list")
	}
	freq := make([][]float64, numStates)
	for s := range freq {
		freq[s] = make([]float64, NumActions)
	}
	for i := range states {
		s, a := states[i], actions[i]
		if s < 0 || s >= numStates {
			return nil, fmt.Errorf("state of arm %d is %d, outside [0,%d)", i, s, numStates)
		}
		if a != 0 && a != 1 {
			return nil, fmt.Errorf("action of arm %d is %d, want 0 or 1", i, a)
		}
		freq[s][a] += 1
	}
	n := float64(len(states))
	for s := range freq {
		freq[s][0] /= n
		freq[s][1] /= n
	}
	return freq, nil
}

// StatesFromStateFracs returns a length-n state vector whose empirical state
// distribution matches stateFracs up to O(1/n) discretization error. Arms
// are assigned contiguously: arm i gets the state whose cumulative fraction
// interval contains i/n.
func StatesFromStateFracs(numStates, n int, stateFracs []float64) ([]int, error) {
	if len(stateFracs) != numStates {
		return nil, fmt.Errorf("got %d state fractions for %d states", len(stateFracs), numStates)
	}
	sum := 0.0
	for _, f := range stateFracs {
		if f < 0 {
			return nil, fmt.Errorf("negative state fraction %v in %v", f, stateFracs)
		}
		sum += f
	}
	if sum < 1-ProbSumTol || sum > 1+ProbSumTol {
		return nil, fmt.Errorf("state fractions sum to %v, want 1 (%v)", sum, stateFracs)
	}

	states := make([]int, n)
	cum := 0.0
	for s := 0; s < numStates; s++ {
		start := int(float64(n) * cum)
		cum += stateFracs[s]
		end := int(float64(n) * cum)
		if end > n {
			end = n
		}
		for i := start; i < end; i++ {
			states[i] = s
		}
	}
	return states, nil
}
