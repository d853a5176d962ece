package rb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frozenModel is a four-state arm whose transitions are the identity under
// either action. Arms never move, which makes tie-break outcomes fully
// deterministic.
func frozenModel(t *testing.T) *Model {
	t.Helper()
	trans := make([][][]float64, 4)
	reward := make([][]float64, 4)
	for s := 0; s < 4; s++ {
		row := make([]float64, 4)
		row[s] = 1
		trans[s] = [][]float64{append([]float64(nil), row...), append([]float64(nil), row...)}
		reward[s] = []float64{0, 0}
	}
	model, err := NewModel(4, trans, reward)
	require.NoError(t, err)
	return model
}

// frozenMeasure makes the per-state policy deterministic: virtual states 0
// and 1 always request active, 2 and 3 always request passive.
func frozenMeasure() [][]float64 {
	return [][]float64{{0, 0.25}, {0, 0.25}, {0.25, 0}, {0.25, 0}}
}

func TestNewFTVAPolicy_ConfigValidation(t *testing.T) {
	model := frozenModel(t)
	y := frozenMeasure()
	rng := testRNG(20)

	base := FTVAConfig{N: 4, ActFrac: 0.5}

	cfg := base
	cfg.N = 0
	_, err := NewFTVAPolicy(model, y, cfg, rng)
	assert.Error(t, err, "no arms")

	cfg = base
	cfg.ActFrac = 1
	_, err = NewFTVAPolicy(model, y, cfg, rng)
	assert.Error(t, err, "activation fraction out of range")

	cfg = base
	cfg.TieBreak = "fanciest-first"
	_, err = NewFTVAPolicy(model, y, cfg, rng)
	assert.Error(t, err, "unknown tie-break rule")

	cfg = base
	cfg.TieBreak = TieBreakPriority
	_, err = NewFTVAPolicy(model, y, cfg, rng)
	assert.Error(t, err, "priority rule without a priority list")

	cfg = base
	cfg.TieBreak = TieBreakGoodnessPriority
	cfg.TieBreakPriority = []int{0, 0, 1, 2}
	_, err = NewFTVAPolicy(model, y, cfg, rng)
	assert.Error(t, err, "priority list not a permutation")

	cfg = base
	cfg.InitVirtual = []int{0, 1}
	_, err = NewFTVAPolicy(model, y, cfg, rng)
	assert.Error(t, err, "wrong virtual state count")

	cfg = base
	cfg.InitVirtual = []int{0, 1, 2, 7}
	_, err = NewFTVAPolicy(model, y, cfg, rng)
	assert.Error(t, err, "virtual state outside the state space")

	_, err = NewFTVAPolicy(model, [][]float64{{0.5, 0.5}}, base, rng)
	assert.Error(t, err, "measure/model state count mismatch")
}

func TestNewFTVAPolicy_EmptyTieBreak_DefaultsToGoodness(t *testing.T) {
	model := frozenModel(t)
	policy, err := NewFTVAPolicy(model, frozenMeasure(), FTVAConfig{
		N:           4,
		ActFrac:     0.75,
		InitVirtual: []int{0, 1, 2, 3},
	}, testRNG(21))
	require.NoError(t, err)

	// Same fixture as the explicit goodness test below; the default must
	// behave identically.
	actions, _, err := policy.GetActions([]int{0, 0, 2, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 0, 1}, actions)
}

func TestGetActions_GoodnessTieBreak_LevelOrder(t *testing.T) {
	// GIVEN virtual states [0,1,2,3] and real states [0,0,2,2]:
	//   arm 0: requests active, good    -> level (active, good)
	//   arm 1: requests active, bad     -> level (active, bad)
	//   arm 2: requests passive, good   -> level (passive, good)
	//   arm 3: requests passive, bad    -> level (passive, bad)
	// With budget 3 the passive-good arm is the only one left passive.
	model := frozenModel(t)
	policy, err := NewFTVAPolicy(model, frozenMeasure(), FTVAConfig{
		N:           4,
		ActFrac:     0.75,
		TieBreak:    TieBreakGoodness,
		InitVirtual: []int{0, 1, 2, 3},
	}, testRNG(22))
	require.NoError(t, err)

	actions, virtualActions, err := policy.GetActions([]int{0, 0, 2, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 0, 0}, virtualActions)
	assert.Equal(t, []int{1, 1, 0, 1}, actions)
}

func TestGetActions_NaiveTieBreak_KeepsRequestsAndFillsDeficit(t *testing.T) {
	// Requests cover 2 of the budget of 3; the naive rule keeps both
	// requested activations and flips one random passive arm.
	model := frozenModel(t)
	policy, err := NewFTVAPolicy(model, frozenMeasure(), FTVAConfig{
		N:           4,
		ActFrac:     0.75,
		TieBreak:    TieBreakNaive,
		InitVirtual: []int{0, 1, 2, 3},
	}, testRNG(23))
	require.NoError(t, err)

	actions, virtualActions, err := policy.GetActions([]int{0, 0, 2, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 0, 0}, virtualActions)
	assert.Equal(t, 1, actions[0])
	assert.Equal(t, 1, actions[1])
	assert.Equal(t, 3, countActive(actions))
}

func TestGetActions_PriorityTieBreak_OrdersByVirtualState(t *testing.T) {
	// Priority [3,2,1,0] over virtual states: within the active-request
	// class arm 1 (virtual 1) outranks arm 0 (virtual 0); the third
	// activation comes from the passive-request class, where arm 3
	// (virtual 3) outranks arm 2.
	model := frozenModel(t)
	policy, err := NewFTVAPolicy(model, frozenMeasure(), FTVAConfig{
		N:                4,
		ActFrac:          0.75,
		TieBreak:         TieBreakPriority,
		TieBreakPriority: []int{3, 2, 1, 0},
		InitVirtual:      []int{0, 1, 2, 3},
	}, testRNG(24))
	require.NoError(t, err)

	actions, _, err := policy.GetActions([]int{0, 0, 2, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 0, 1}, actions)
}

func TestGetActions_GoodnessPriorityTieBreak_ExactBudget(t *testing.T) {
	model := frozenModel(t)
	policy, err := NewFTVAPolicy(model, frozenMeasure(), FTVAConfig{
		N:                4,
		ActFrac:          0.75,
		TieBreak:         TieBreakGoodnessPriority,
		TieBreakPriority: []int{3, 2, 1, 0},
		InitVirtual:      []int{0, 1, 2, 3},
	}, testRNG(25))
	require.NoError(t, err)

	actions, _, err := policy.GetActions([]int{0, 0, 2, 2})
	require.NoError(t, err)
	assert.Equal(t, 3, countActive(actions))
	// The goodness classes still dominate: the passive-good arm 2 stays
	// passive.
	assert.Equal(t, 0, actions[2])
}

func TestGetActions_InputValidation(t *testing.T) {
	model := frozenModel(t)
	policy, err := NewFTVAPolicy(model, frozenMeasure(), FTVAConfig{
		N:           4,
		ActFrac:     0.5,
		InitVirtual: []int{0, 1, 2, 3},
	}, testRNG(26))
	require.NoError(t, err)

	_, _, err = policy.GetActions([]int{0, 0})
	assert.Error(t, err, "wrong arm count")
	_, _, err = policy.GetActions([]int{0, 0, 2, 9})
	assert.Error(t, err, "state outside the state space")
}

func TestVirtualStep_AgreeingArmsSnapToRealState(t *testing.T) {
	// GIVEN the deterministic cycle dynamics, virtual arms that agree with
	// their real arm (same previous state, same action) must land exactly
	// on the arm's new real state.
	model := cycleModel(t)
	// Deterministic per-state policy: state 0 requests active, state 1
	// requests passive.
	y := [][]float64{{0, 0.5}, {0.5, 0}}
	policy, err := NewFTVAPolicy(model, y, FTVAConfig{
		N:           2,
		ActFrac:     0.5,
		InitVirtual: []int{0, 1},
	}, testRNG(27))
	require.NoError(t, err)

	prev := []int{0, 1}
	actions, virtualActions, err := policy.GetActions(prev)
	require.NoError(t, err)
	// Budget 1: arm 0 is (active, good), arm 1 is (passive, good).
	assert.Equal(t, []int{1, 0}, virtualActions)
	assert.Equal(t, []int{1, 0}, actions)

	// Real dynamics: active swaps 0 -> 1, passive holds 1.
	cur := []int{1, 1}
	require.NoError(t, policy.VirtualStep(prev, cur, actions, virtualActions))
	assert.Equal(t, cur, policy.VirtualStates())
	assert.Equal(t, 2, policy.GoodArmCount(cur))
}

func TestVirtualStep_DisagreeingArmEvolvesFromVirtualKernel(t *testing.T) {
	// Both arms sit in state 1 and request passive, but the budget forces
	// one activation. The activated arm disagrees with its virtual arm, so
	// its virtual state evolves under the passive kernel (holds state 1)
	// while the real arm swaps to state 0: exactly one arm stays good.
	model := cycleModel(t)
	y := [][]float64{{0, 0.5}, {0.5, 0}}
	policy, err := NewFTVAPolicy(model, y, FTVAConfig{
		N:           2,
		ActFrac:     0.5,
		InitVirtual: []int{1, 1},
	}, testRNG(28))
	require.NoError(t, err)

	prev := []int{1, 1}
	actions, virtualActions, err := policy.GetActions(prev)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, virtualActions)
	require.Equal(t, 1, countActive(actions))

	cur := make([]int, 2)
	for i := range cur {
		if actions[i] == 1 {
			cur[i] = 0 // active swaps state 1 -> 0
		} else {
			cur[i] = 1 // passive holds
		}
	}
	require.NoError(t, policy.VirtualStep(prev, cur, actions, virtualActions))
	assert.Equal(t, []int{1, 1}, policy.VirtualStates())
	assert.Equal(t, 1, policy.GoodArmCount(cur))
}

func TestRunLoop_CoupledPopulation_StaysCoupledForever(t *testing.T) {
	// GIVEN deterministic shuttle dynamics (active always sends an arm to
	// state 1, passive always to state 0) and a half-and-half population:
	// the state-0 arms request active and the state-1 arms request passive,
	// so the requests match the budget exactly every period and the
	// goodness rule never has to override any arm. Starting coupled, real
	// and virtual states must then stay equal over the whole horizon.
	model, err := NewModel(2,
		[][][]float64{
			{{1, 0}, {0, 1}},
			{{1, 0}, {0, 1}},
		},
		[][]float64{{0, 0}, {1, 1}})
	require.NoError(t, err)
	y := [][]float64{{0, 0.5}, {0.5, 0}}
	init := []int{0, 0, 1, 1}

	policy, err := NewFTVAPolicy(model, y, FTVAConfig{
		N:           4,
		ActFrac:     0.5,
		TieBreak:    TieBreakGoodness,
		InitVirtual: append([]int(nil), init...),
	}, testRNG(33))
	require.NoError(t, err)
	bandit, err := NewBandit(model, 4, init, testRNG(34))
	require.NoError(t, err)

	for step := 0; step < 50; step++ {
		prev := bandit.States()
		actions, virtualActions, err := policy.GetActions(prev)
		require.NoError(t, err)
		assert.Equal(t, virtualActions, actions, "step %d: budget-feasible requests must pass through", step)

		_, err = bandit.Step(actions)
		require.NoError(t, err)
		cur := bandit.States()
		require.NoError(t, policy.VirtualStep(prev, cur, actions, virtualActions))

		assert.Equal(t, cur, policy.VirtualStates(), "step %d: coupling must be absorbing", step)
		assert.Equal(t, 4, policy.GoodArmCount(cur), "step %d", step)
	}
}

func TestVirtualStep_LengthValidation(t *testing.T) {
	model := cycleModel(t)
	policy, err := NewFTVAPolicy(model, [][]float64{{0, 0.5}, {0.5, 0}}, FTVAConfig{
		N:           2,
		ActFrac:     0.5,
		InitVirtual: []int{0, 1},
	}, testRNG(29))
	require.NoError(t, err)

	err = policy.VirtualStep([]int{0}, []int{1, 1}, []int{1, 0}, []int{1, 0})
	assert.Error(t, err)
}

func TestGetActions_AllTieBreaks_ExactBudgetEveryStep(t *testing.T) {
	// A stochastic three-state model with a mixed randomized policy: every
	// tie-break rule must hit the rounded budget exactly on every step.
	model, err := NewModel(3,
		[][][]float64{
			{{0.7, 0.2, 0.1}, {0.1, 0.6, 0.3}},
			{{0.3, 0.5, 0.2}, {0.2, 0.3, 0.5}},
			{{0.1, 0.3, 0.6}, {0.4, 0.4, 0.2}},
		},
		[][]float64{{0, 0}, {0.4, 0.5}, {1, 1}})
	require.NoError(t, err)
	y := [][]float64{{0.2, 0.1}, {0.1, 0.2}, {0.25, 0.15}}

	for _, tb := range []TieBreak{TieBreakGoodness, TieBreakNaive, TieBreakPriority, TieBreakGoodnessPriority} {
		cfg := FTVAConfig{N: 8, ActFrac: 0.5, TieBreak: tb}
		if tb.needsPriority() {
			cfg.TieBreakPriority = []int{2, 1, 0}
		}
		policy, err := NewFTVAPolicy(model, y, cfg, testRNG(30))
		require.NoError(t, err)
		bandit, err := NewBandit(model, 8, nil, testRNG(31))
		require.NoError(t, err)

		for step := 0; step < 40; step++ {
			prev := bandit.States()
			actions, virtualActions, err := policy.GetActions(prev)
			require.NoError(t, err)
			assert.Equal(t, 4, countActive(actions), "rule %s, step %d", tb, step)
			_, err = bandit.Step(actions)
			require.NoError(t, err)
			require.NoError(t, policy.VirtualStep(prev, bandit.States(), actions, virtualActions))
		}
	}
}
