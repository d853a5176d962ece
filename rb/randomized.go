package rb

import (
	"fmt"
	"math/rand"
)

// ActionSampler is the stationary randomized policy π(·|s) derived from an
// occupation measure y by normalizing each state's row. States whose total
// measure falls below EPS are unreached by the relaxed solution; the policy
// is undefined there and defaults to a uniform 50/50 split.
type ActionSampler struct {
	numStates int
	probs     [][]float64 // probs[s][a] = π(a|s)
}

// NewActionSampler builds π(·|s) from an S×2 occupation measure.
func NewActionSampler(y [][]float64) (*ActionSampler, error) {
	numStates := len(y)
	if numStates == 0 {
		return nil, fmt.Errorf("occupation measure is empty")
	}
	probs := make([][]float64, numStates)
	for s, row := range y {
		if len(row) != NumActions {
			return nil, fmt.Errorf("occupation measure row %d has %d entries, want %d", s, len(row), NumActions)
		}
		stateProb := row[0] + row[1]
		probs[s] = make([]float64, NumActions)
		if stateProb > EPS {
			probs[s][0] = row[0] / stateProb
			probs[s][1] = row[1] / stateProb
		} else {
			probs[s][0] = 0.5
			probs[s][1] = 0.5
		}
		sum := probs[s][0] + probs[s][1]
		if sum < 1-ProbSumTol || sum > 1+ProbSumTol {
			return nil, fmt.Errorf("action probabilities for state %d sum to %v, want 1 (row %v)", s, sum, row)
		}
	}
	return &ActionSampler{numStates: numStates, probs: probs}, nil
}

// NumStates returns the state space size the sampler was built for.
func (p *ActionSampler) NumStates() int { return p.numStates }

// Prob returns π(a|s).
func (p *ActionSampler) Prob(s, a int) float64 { return p.probs[s][a] }

// Sample draws an action for an arm in the given state.
func (p *ActionSampler) Sample(state int, rng *rand.Rand) int {
	return SampleCategorical(p.probs[state], rng)
}
