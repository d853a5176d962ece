package rb

import (
	"fmt"
	"math/rand"
)

// Bandit is the finite-population simulation environment: N arms, each in
// one state of the shared state space, advanced synchronously one period at
// a time by Step.
type Bandit struct {
	model  *Model
	n      int
	states []int
	rng    *rand.Rand
}

// NewBandit creates a population of n arms. initStates sets the initial
// state per arm; nil initializes every arm to state 0.
func NewBandit(model *Model, n int, initStates []int, rng *rand.Rand) (*Bandit, error) {
	if n <= 0 {
		return nil, fmt.Errorf("arm count must be positive, got %d", n)
	}
	states := make([]int, n)
	if initStates != nil {
		if len(initStates) != n {
			return nil, fmt.Errorf("got %d initial states for %d arms", len(initStates), n)
		}
		for i, s := range initStates {
			if err := model.validState(s); err != nil {
				return nil, fmt.Errorf("initial state of arm %d: %w", i, err)
			}
			states[i] = s
		}
	}
	return &Bandit{model: model, n: n, states: states, rng: rng}, nil
}

// N returns the number of arms.
func (b *Bandit) N() int { return b.n }

// States returns a copy of the current arm states.
func (b *Bandit) States() []int {
	return append([]int(nil), b.states...)
}

// Step advances every arm one period under the given action vector and
// returns the instantaneous reward, normalized by the number of arms.
func (b *Bandit) Step(actions []int) (float64, error) {
	if len(actions) != b.n {
		return 0, fmt.Errorf("got %d actions for %d arms", len(actions), b.n)
	}
	for i, a := range actions {
		if a != 0 && a != 1 {
			return 0, fmt.Errorf("action of arm %d is %d, want 0 or 1", i, a)
		}
	}
	reward := 0.0
	for i := range b.states {
		s, a := b.states[i], actions[i]
		reward += b.model.Reward(s, a)
		b.states[i] = SampleCategorical(b.model.TransProbs(s, a), b.rng)
	}
	return reward / float64(b.n), nil
}

// StateCounts returns the number of arms currently in each state.
func (b *Bandit) StateCounts() []int {
	counts := make([]int, b.model.NumStates())
	for _, s := range b.states {
		counts[s]++
	}
	return counts
}

// StateFracs returns the fraction of arms currently in each state.
func (b *Bandit) StateFracs() []float64 {
	counts := b.StateCounts()
	fracs := make([]float64, len(counts))
	for s, c := range counts {
		fracs[s] = float64(c) / float64(b.n)
	}
	return fracs
}
