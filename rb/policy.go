package rb

import (
	"fmt"
	"math/rand"
	"sort"
)

// StepPolicy maps the current real states of the population to a feasible
// action vector: exactly the randomized-rounded budget of arms receives the
// active action. Implementations MUST NOT modify the input slice.
type StepPolicy interface {
	GetActions(curStates []int) ([]int, error)
}

// bucketByState rebuilds the state → arm-index partition from a state
// vector. Buckets are rebuilt every step; nothing persistent is kept.
func bucketByState(numStates int, states []int) ([][]int, error) {
	buckets := make([][]int, numStates)
	for i, s := range states {
		if s < 0 || s >= numStates {
			return nil, fmt.Errorf("state of arm %d is %d, outside [0,%d)", i, s, numStates)
		}
		buckets[s] = append(buckets[s], i)
	}
	return buckets, nil
}

// fillBudget walks priority levels from highest to lowest, activating whole
// levels while the remaining budget covers them and a uniformly-random
// subset of the first level that overflows. It returns an error when the
// levels cannot absorb the budget, which is an invariant violation: the
// levels must jointly cover all n arms.
func fillBudget(n int, levels [][]int, budget int, rng *rand.Rand) ([]int, error) {
	actions := make([]int, n)
	rem := budget
	for _, level := range levels {
		if rem >= len(level) {
			for _, i := range level {
				actions[i] = 1
			}
			rem -= len(level)
			continue
		}
		for _, i := range SampleSubset(level, rem, rng) {
			actions[i] = 1
		}
		rem = 0
		break
	}
	if rem != 0 {
		return nil, fmt.Errorf("activation budget not fully consumed: %d of %d left over", rem, budget)
	}
	return actions, nil
}

// repairBudget flips a uniformly-random subset of over- or under-requesting
// arms so that exactly budget arms end up active. actions is modified in
// place and returned.
func repairBudget(actions []int, budget int, rng *rand.Rand) []int {
	requests := 0
	for _, a := range actions {
		requests += a
	}
	if requests > budget {
		active := make([]int, 0, requests)
		for i, a := range actions {
			if a == 1 {
				active = append(active, i)
			}
		}
		for _, i := range SampleSubset(active, requests-budget, rng) {
			actions[i] = 0
		}
	} else if requests < budget {
		idle := make([]int, 0, len(actions)-requests)
		for i, a := range actions {
			if a == 0 {
				idle = append(idle, i)
			}
		}
		for _, i := range SampleSubset(idle, budget-requests, rng) {
			actions[i] = 1
		}
	}
	return actions
}

// PriorityPolicy activates arms by a fixed state priority: walk the priority
// list from highest to lowest, activate every arm of a state while the
// remaining budget covers them, and break ties uniformly at random inside
// the state where the budget runs out.
type PriorityPolicy struct {
	numStates int
	priority  []int
	n         int
	actFrac   float64
	rng       *rand.Rand
}

// NewPriorityPolicy validates the priority list (a permutation of all
// states) and returns a budgeted priority policy for n arms.
func NewPriorityPolicy(numStates int, priority []int, n int, actFrac float64, rng *rand.Rand) (*PriorityPolicy, error) {
	if n <= 0 {
		return nil, fmt.Errorf("arm count must be positive, got %d", n)
	}
	if actFrac <= 0 || actFrac >= 1 {
		return nil, fmt.Errorf("activation fraction must be in (0,1), got %v", actFrac)
	}
	if err := checkPermutation(numStates, priority); err != nil {
		return nil, fmt.Errorf("priority list: %w", err)
	}
	return &PriorityPolicy{
		numStates: numStates,
		priority:  append([]int(nil), priority...),
		n:         n,
		actFrac:   actFrac,
		rng:       rng,
	}, nil
}

// GetActions returns a feasible action vector for the current states:
// exactly floor(n·actFrac) or ceil(n·actFrac) arms are activated, with the
// fractional remainder resolved by randomized rounding.
func (p *PriorityPolicy) GetActions(curStates []int) ([]int, error) {
	if len(curStates) != p.n {
		return nil, fmt.Errorf("got %d states for %d arms", len(curStates), p.n)
	}
	buckets, err := bucketByState(p.numStates, curStates)
	if err != nil {
		return nil, err
	}
	budget := RoundedBudget(p.n, p.actFrac, p.rng)
	levels := make([][]int, len(p.priority))
	for i, state := range p.priority {
		levels[i] = buckets[state]
	}
	return fillBudget(p.n, levels, budget, p.rng)
}

// SAPairFracs is the mean-field counterpart of GetActions: it splits the
// current state fractions into state-action fractions, spending the
// normalized budget actFrac along the priority list.
func (p *PriorityPolicy) SAPairFracs(curStateFracs []float64) ([][]float64, error) {
	if len(curStateFracs) != p.numStates {
		return nil, fmt.Errorf("got %d state fractions for %d states", len(curStateFracs), p.numStates)
	}
	saPairFracs := make([][]float64, p.numStates)
	for s := range saPairFracs {
		saPairFracs[s] = make([]float64, NumActions)
	}
	rem := p.actFrac
	for _, state := range p.priority {
		frac := curStateFracs[state]
		if rem >= frac {
			saPairFracs[state][1] = frac
			rem -= frac
		} else {
			saPairFracs[state][1] = rem
			saPairFracs[state][0] = frac - rem
			rem = 0
		}
	}
	if rem > ProbSumTol {
		return nil, fmt.Errorf("normalized budget not fully consumed: %v of %v left over", rem, p.actFrac)
	}
	return saPairFracs, nil
}

// RandomTBPolicy draws actions per arm independently from the randomized
// stationary policy π(·|state), then repairs the realized activation count
// to the exact integer budget by flipping a uniformly-random subset of
// over- or under-requesting arms. Unlike PriorityPolicy, the repair ignores
// which states get flipped (pure random tie-break).
type RandomTBPolicy struct {
	sampler *ActionSampler
	n       int
	actFrac float64
	rng     *rand.Rand
}

// NewRandomTBPolicy builds the policy from an occupation measure y.
func NewRandomTBPolicy(y [][]float64, n int, actFrac float64, rng *rand.Rand) (*RandomTBPolicy, error) {
	if n <= 0 {
		return nil, fmt.Errorf("arm count must be positive, got %d", n)
	}
	if actFrac <= 0 || actFrac >= 1 {
		return nil, fmt.Errorf("activation fraction must be in (0,1), got %v", actFrac)
	}
	sampler, err := NewActionSampler(y)
	if err != nil {
		return nil, err
	}
	return &RandomTBPolicy{sampler: sampler, n: n, actFrac: actFrac, rng: rng}, nil
}

// GetActions returns a feasible action vector for the current states.
func (p *RandomTBPolicy) GetActions(curStates []int) ([]int, error) {
	if len(curStates) != p.n {
		return nil, fmt.Errorf("got %d states for %d arms", len(curStates), p.n)
	}
	actions := make([]int, p.n)
	for i, s := range curStates {
		if s < 0 || s >= p.sampler.NumStates() {
			return nil, fmt.Errorf("state of arm %d is %d, outside [0,%d)", i, s, p.sampler.NumStates())
		}
		actions[i] = p.sampler.Sample(s, p.rng)
	}
	budget := RoundedBudget(p.n, p.actFrac, p.rng)
	return repairBudget(actions, budget, p.rng), nil
}

// checkPermutation verifies that list is a permutation of 0..numStates-1.
func checkPermutation(numStates int, list []int) error {
	if len(list) != numStates {
		return fmt.Errorf("has %d entries for %d states", len(list), numStates)
	}
	sorted := append([]int(nil), list...)
	sort.Ints(sorted)
	for i, s := range sorted {
		if s != i {
			return fmt.Errorf("not a permutation of 0..%d: %v", numStates-1, list)
		}
	}
	return nil
}
