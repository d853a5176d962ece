package rb

import "fmt"

// MeanField is the infinite-population counterpart of Bandit: the population
// is represented by the fraction of arms in each state, advanced by the
// deterministic mean-field dynamics.
type MeanField struct {
	model      *Model
	stateFracs []float64
}

// NewMeanField creates a mean-field environment. initStateFracs gives the
// initial state distribution; nil puts all mass on state 0.
func NewMeanField(model *Model, initStateFracs []float64) (*MeanField, error) {
	fracs := make([]float64, model.NumStates())
	if initStateFracs == nil {
		fracs[0] = 1
	} else {
		if len(initStateFracs) != model.NumStates() {
			return nil, fmt.Errorf("got %d state fractions for %d states", len(initStateFracs), model.NumStates())
		}
		sum := 0.0
		for _, f := range initStateFracs {
			sum += f
		}
		if sum < 1-ProbSumTol || sum > 1+ProbSumTol {
			return nil, fmt.Errorf("initial state fractions sum to %v, want 1 (%v)", sum, initStateFracs)
		}
		copy(fracs, initStateFracs)
	}
	return &MeanField{model: model, stateFracs: fracs}, nil
}

// StateFracs returns a copy of the current state distribution.
func (mf *MeanField) StateFracs() []float64 {
	return append([]float64(nil), mf.stateFracs...)
}

// Step advances the mean-field dynamics one period under the given
// state-action fractions and returns the instantaneous reward.
// saPairFracs[s][a] is the fraction of arms in state s taking action a; its
// row sums must match the current state distribution.
func (mf *MeanField) Step(saPairFracs [][]float64) (float64, error) {
	numStates := mf.model.NumStates()
	if len(saPairFracs) != numStates {
		return 0, fmt.Errorf("got state-action fractions for %d states, want %d", len(saPairFracs), numStates)
	}
	for s, row := range saPairFracs {
		if len(row) != NumActions {
			return 0, fmt.Errorf("state-action fraction row %d has %d entries, want %d", s, len(row), NumActions)
		}
		rowSum := row[0] + row[1]
		if diff := rowSum - mf.stateFracs[s]; diff > ProbSumTol || diff < -ProbSumTol {
			return 0, fmt.Errorf("state-action fractions inconsistent with current state: state %d has %v, want %v",
				s, rowSum, mf.stateFracs[s])
		}
	}

	newFracs := make([]float64, numStates)
	reward := 0.0
	total := 0.0
	for s := 0; s < numStates; s++ {
		for a := 0; a < NumActions; a++ {
			frac := saPairFracs[s][a]
			reward += frac * mf.model.Reward(s, a)
			probs := mf.model.TransProbs(s, a)
			for sp := 0; sp < numStates; sp++ {
				newFracs[sp] += frac * probs[sp]
			}
		}
	}
	for _, f := range newFracs {
		total += f
	}
	if total < 1-ProbSumTol || total > 1+ProbSumTol {
		return 0, fmt.Errorf("new state fractions sum to %v, want 1 (%v)", total, newFracs)
	}
	mf.stateFracs = newFracs
	return reward, nil
}
