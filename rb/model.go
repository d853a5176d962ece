package rb

import "fmt"

const (
	// NumActions is the size of the action space {0 = passive, 1 = active}.
	NumActions = 2

	// EPS is the zero threshold for occupation-measure entries.
	EPS = 1e-7

	// ProbSumTol is the absolute tolerance for probability-sum invariants.
	ProbSumTol = 1e-4
)

// Model holds the dynamics of a single arm: the transition kernel P(s,a,s')
// and the reward function r(s,a). A Model is immutable after construction
// and shared by simulators, policies, and the analyzer.
type Model struct {
	numStates int
	trans     [][][]float64 // trans[s][a][s']
	reward    [][]float64   // reward[s][a]
}

// NewModel validates the tensors and returns an arm dynamics model.
// trans must be S×2×S with row-stochastic trans[s][a]; reward must be S×2.
func NewModel(numStates int, trans [][][]float64, reward [][]float64) (*Model, error) {
	if numStates <= 0 {
		return nil, fmt.Errorf("state space size must be positive, got %d", numStates)
	}
	if len(trans) != numStates {
		return nil, fmt.Errorf("transition tensor has %d states, want %d", len(trans), numStates)
	}
	if len(reward) != numStates {
		return nil, fmt.Errorf("reward tensor has %d states, want %d", len(reward), numStates)
	}
	for s := 0; s < numStates; s++ {
		if len(trans[s]) != NumActions {
			return nil, fmt.Errorf("transition tensor state %d has %d actions, want %d", s, len(trans[s]), NumActions)
		}
		if len(reward[s]) != NumActions {
			return nil, fmt.Errorf("reward tensor state %d has %d actions, want %d", s, len(reward[s]), NumActions)
		}
		for a := 0; a < NumActions; a++ {
			row := trans[s][a]
			if len(row) != numStates {
				return nil, fmt.Errorf("transition row (%d,%d) has %d entries, want %d", s, a, len(row), numStates)
			}
			sum := 0.0
			for sp, prob := range row {
				if prob < 0 {
					return nil, fmt.Errorf("negative transition probability P(%d,%d,%d) = %v", s, a, sp, prob)
				}
				sum += prob
			}
			if sum < 1-ProbSumTol || sum > 1+ProbSumTol {
				return nil, fmt.Errorf("transition row (%d,%d) sums to %v, want 1", s, a, sum)
			}
		}
	}

	m := &Model{
		numStates: numStates,
		trans:     make([][][]float64, numStates),
		reward:    make([][]float64, numStates),
	}
	for s := 0; s < numStates; s++ {
		m.trans[s] = make([][]float64, NumActions)
		for a := 0; a < NumActions; a++ {
			m.trans[s][a] = append([]float64(nil), trans[s][a]...)
		}
		m.reward[s] = append([]float64(nil), reward[s]...)
	}
	return m, nil
}

// NumStates returns the state space size S.
func (m *Model) NumStates() int { return m.numStates }

// TransProbs returns the next-state distribution P(s,a,·).
// The returned slice is owned by the model and must not be modified.
func (m *Model) TransProbs(s, a int) []float64 { return m.trans[s][a] }

// Reward returns r(s,a).
func (m *Model) Reward(s, a int) float64 { return m.reward[s][a] }

// RewardRange returns the smallest and largest entries of the reward tensor.
// Used to bound the Whittle subsidy grid.
func (m *Model) RewardRange() (min, max float64) {
	min, max = m.reward[0][0], m.reward[0][0]
	for s := 0; s < m.numStates; s++ {
		for a := 0; a < NumActions; a++ {
			r := m.reward[s][a]
			if r < min {
				min = r
			}
			if r > max {
				max = r
			}
		}
	}
	return min, max
}

// validState reports an error when s is outside the state space.
func (m *Model) validState(s int) error {
	if s < 0 || s >= m.numStates {
		return fmt.Errorf("state %d outside state space [0,%d)", s, m.numStates)
	}
	return nil
}
