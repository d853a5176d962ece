package rb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSAFrequency_CountsStateActionPairs(t *testing.T) {
	freq, err := SAFrequency(3, []int{0, 0, 1, 2, 2}, []int{1, 0, 1, 0, 0})
	require.NoError(t, err)

	assert.InDelta(t, 0.2, freq[0][0], 1e-12)
	assert.InDelta(t, 0.2, freq[0][1], 1e-12)
	assert.InDelta(t, 0.0, freq[1][0], 1e-12)
	assert.InDelta(t, 0.2, freq[1][1], 1e-12)
	assert.InDelta(t, 0.4, freq[2][0], 1e-12)
	assert.InDelta(t, 0.0, freq[2][1], 1e-12)
}

func TestSAFrequency_RowSumsMatchStateFractions(t *testing.T) {
	// The frequency rows must marginalize back to the empirical state
	// distribution, whatever the actions are.
	model := cycleModel(t)
	bandit, err := NewBandit(model, 20, nil, testRNG(50))
	require.NoError(t, err)
	policy, err := NewPriorityPolicy(2, []int{0, 1}, 20, 0.5, testRNG(51))
	require.NoError(t, err)

	for step := 0; step < 10; step++ {
		states := bandit.States()
		actions, err := policy.GetActions(states)
		require.NoError(t, err)
		freq, err := SAFrequency(2, states, actions)
		require.NoError(t, err)

		fracs := bandit.StateFracs()
		for s := range fracs {
			assert.InDelta(t, fracs[s], freq[s][0]+freq[s][1], 1e-12)
		}
		_, err = bandit.Step(actions)
		require.NoError(t, err)
	}
}

func TestSAFrequency_Validation(t *testing.T) {
	_, err := SAFrequency(2, []int{0, 1}, []int{0})
	assert.Error(t, err, "length mismatch")
	_, err = SAFrequency(2, nil, nil)
	assert.Error(t, err, "empty input")
	_, err = SAFrequency(2, []int{0, 3}, []int{0, 0})
	assert.Error(t, err, "state outside the state space")
	_, err = SAFrequency(2, []int{0, 1}, []int{0, 2})
	assert.Error(t, err, "non-binary action")
}

func TestStatesFromStateFracs_RoundTripsThroughSAFrequency(t *testing.T) {
	// Spreading fractions over arms and re-measuring the empirical
	// frequency must reproduce the fractions exactly when n divides them.
	fracs := []float64{0.3, 0.2, 0.5}
	states, err := StatesFromStateFracs(3, 10, fracs)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 1, 1, 2, 2, 2, 2, 2}, states)

	freq, err := SAFrequency(3, states, make([]int, 10))
	require.NoError(t, err)
	for s, want := range fracs {
		assert.InDelta(t, want, freq[s][0]+freq[s][1], 1e-12)
	}
}

func TestStatesFromStateFracs_Validation(t *testing.T) {
	_, err := StatesFromStateFracs(2, 10, []float64{0.5})
	assert.Error(t, err, "fraction count mismatch")
	_, err = StatesFromStateFracs(2, 10, []float64{0.7, 0.7})
	assert.Error(t, err, "fractions do not sum to one")
	_, err = StatesFromStateFracs(2, 10, []float64{1.2, -0.2})
	assert.Error(t, err, "negative fraction")
}
