package rb

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/rmab-sim/rmab-sim/rb/lp"
)

const (
	// DualStep is the discretization step of the subsidy grid used when
	// solving for the Whittle index.
	DualStep = 0.05

	// MeasureFloor is the elementwise lower bound on the occupation measure
	// that keeps the LP well-posed.
	MeasureFloor = 1e-8
)

// Analyzer solves the single-armed relaxation of a restless bandit: the
// exact single-arm LP, its Lagrangian relaxation at a fixed subsidy, and
// the Whittle-index grid sweep. Constraint sets are built once at
// construction; each solve returns a fresh result struct and leaves no
// state behind.
type Analyzer struct {
	model   *Model
	actFrac float64

	// Subsidy grid bounds, set from the reward range with one extra step of
	// margin on each side.
	minSubsidy float64
	maxSubsidy float64

	exact   *lp.Program // flow balance + normalization + budget
	relaxed *lp.Program // flow balance + normalization
}

// RelaxationResult is the outcome of one LP solve, with the value function,
// Q-function, and activation priority list reconstructed from the duals via
// the Bellman identity
//
//	Q(s,a) = r(s,a) + λ·[a=0] − ḡ + Σ_{s'} P(s,a,s')·V(s').
type RelaxationResult struct {
	Value        float64     // optimal LP value
	Y            [][]float64 // S×2 occupation measure
	Subsidy      float64     // λ: budget dual, or the fixed relaxation parameter
	AvgReward    float64     // ḡ: average subsidized reward
	ValueFunc    []float64   // V(s), from the flow-balance duals
	QFunc        [][]float64 // Q(s,a)
	PriorityList []int       // states sorted descending by Q(s,1)−Q(s,0)
}

// WhittleResult is the outcome of the subsidy grid sweep.
type WhittleResult struct {
	// PriorityList sorts states by descending Whittle index; ties favor the
	// smaller state index.
	PriorityList []int
	// Indices holds the approximate per-state Whittle index: the smallest
	// grid subsidy at which the state becomes passive. States never
	// observed passive get the grid upper bound (they never prefer
	// passivity, hence rank highest).
	Indices []float64
	// Indexable is false when some state's passivity is not monotone in the
	// subsidy from its threshold onward; the priority list is still
	// produced, but Whittle's asymptotic-optimality guarantee is lost.
	Indexable bool
	// Ties is true when two states share the same threshold subsidy.
	Ties bool
}

// NewAnalyzer builds the constraint sets for the single-arm LPs.
func NewAnalyzer(model *Model, actFrac float64) (*Analyzer, error) {
	if actFrac <= 0 || actFrac >= 1 {
		return nil, fmt.Errorf("activation fraction must be in (0,1), got %v", actFrac)
	}
	minReward, maxReward := model.RewardRange()
	a := &Analyzer{
		model:      model,
		actFrac:    actFrac,
		minSubsidy: -(maxReward - minReward) - DualStep,
		maxSubsidy: (maxReward - minReward) + DualStep,
	}

	var err error
	if a.exact, err = a.buildProgram(true); err != nil {
		return nil, err
	}
	if a.relaxed, err = a.buildProgram(false); err != nil {
		return nil, err
	}
	return a, nil
}

// yIndex flattens (state, action) into the LP variable layout.
func yIndex(s, a int) int { return s*NumActions + a }

// buildProgram assembles the constraint set over y ∈ R^{S×2}: flow balance
// per state, normalization, and optionally the activation budget.
//
// The S flow-balance rows always sum to the zero row, so one of them is
// redundant; the last is dropped to keep the system full-rank. That pins
// the dual of the dropped row (the value function at state S−1) to zero,
// which is harmless: the action gap Q(s,1)−Q(s,0) is invariant to constant
// shifts of the value function.
func (a *Analyzer) buildProgram(withBudget bool) (*lp.Program, error) {
	numStates := a.model.NumStates()
	numVars := numStates * NumActions
	prog := lp.New(numVars, MeasureFloor)

	for cur := 0; cur < numStates-1; cur++ {
		coeffs := make([]float64, numVars)
		for s := 0; s < numStates; s++ {
			for act := 0; act < NumActions; act++ {
				coeffs[yIndex(s, act)] = a.model.TransProbs(s, act)[cur]
			}
		}
		coeffs[yIndex(cur, 0)] -= 1
		coeffs[yIndex(cur, 1)] -= 1
		if err := prog.AddEquality(flowName(cur), coeffs, 0); err != nil {
			return nil, err
		}
	}

	ones := make([]float64, numVars)
	for j := range ones {
		ones[j] = 1
	}
	if err := prog.AddEquality("normalization", ones, 1); err != nil {
		return nil, err
	}

	if withBudget {
		coeffs := make([]float64, numVars)
		for s := 0; s < numStates; s++ {
			coeffs[yIndex(s, 1)] = 1
		}
		if err := prog.AddEquality("budget", coeffs, a.actFrac); err != nil {
			return nil, err
		}
	}
	return prog, nil
}

func flowName(s int) string { return fmt.Sprintf("flow_%d", s) }

// exactObjective is Σ y·r.
func (a *Analyzer) exactObjective() []float64 {
	numStates := a.model.NumStates()
	obj := make([]float64, numStates*NumActions)
	for s := 0; s < numStates; s++ {
		for act := 0; act < NumActions; act++ {
			obj[yIndex(s, act)] = a.model.Reward(s, act)
		}
	}
	return obj
}

// relaxedObjective adds the subsidy λ to the passive-action reward.
func (a *Analyzer) relaxedObjective(subsidy float64) []float64 {
	obj := a.exactObjective()
	for s := 0; s < a.model.NumStates(); s++ {
		obj[yIndex(s, 0)] += subsidy
	}
	return obj
}

// SolvePriorityLP solves the exact single-arm LP (flow balance, budget,
// simplex constraints) and derives the LP-priority ordering from the duals.
func (a *Analyzer) SolvePriorityLP() (*RelaxationResult, error) {
	if err := a.exact.SetObjective(a.exactObjective()); err != nil {
		return nil, err
	}
	sol, err := a.exact.SolveWithDuals()
	if err != nil {
		return nil, fmt.Errorf("exact single-arm LP: %w", err)
	}
	subsidy := -sol.Duals["budget"]
	return a.buildResult(sol, subsidy, subsidy-sol.Duals["normalization"])
}

// SolveRelaxedLP solves the Lagrangian relaxation at the given fixed
// subsidy: the budget constraint is dropped and λ is added to the passive
// reward.
func (a *Analyzer) SolveRelaxedLP(subsidy float64) (*RelaxationResult, error) {
	if err := a.relaxed.SetObjective(a.relaxedObjective(subsidy)); err != nil {
		return nil, err
	}
	sol, err := a.relaxed.SolveWithDuals()
	if err != nil {
		return nil, fmt.Errorf("relaxed single-arm LP at subsidy %v: %w", subsidy, err)
	}
	return a.buildResult(sol, subsidy, -sol.Duals["normalization"])
}

// buildResult reconstructs V, Q, and the priority list from an LP solution.
// The LP duals are reported in minimization form; with that convention the
// flow-balance dual of state s is V(s) directly, and V satisfies
// V(s) ≥ Q(s,a) with equality on the support of y.
func (a *Analyzer) buildResult(sol *lp.Solution, subsidy, avgReward float64) (*RelaxationResult, error) {
	numStates := a.model.NumStates()

	y := make([][]float64, numStates)
	for s := 0; s < numStates; s++ {
		y[s] = []float64{sol.Y[yIndex(s, 0)], sol.Y[yIndex(s, 1)]}
	}

	valueFunc := make([]float64, numStates)
	for s := 0; s < numStates-1; s++ {
		valueFunc[s] = sol.Duals[flowName(s)]
	}
	// valueFunc[numStates-1] stays 0: its flow row was dropped as redundant.

	qFunc := make([][]float64, numStates)
	gaps := make([]float64, numStates)
	for s := 0; s < numStates; s++ {
		qFunc[s] = make([]float64, NumActions)
		for act := 0; act < NumActions; act++ {
			q := a.model.Reward(s, act) - avgReward
			if act == 0 {
				q += subsidy
			}
			probs := a.model.TransProbs(s, act)
			for sp := 0; sp < numStates; sp++ {
				q += probs[sp] * valueFunc[sp]
			}
			qFunc[s][act] = q
		}
		gaps[s] = qFunc[s][1] - qFunc[s][0]
	}

	priority := make([]int, numStates)
	for s := range priority {
		priority[s] = s
	}
	sort.SliceStable(priority, func(i, j int) bool {
		return gaps[priority[i]] > gaps[priority[j]]
	})

	return &RelaxationResult{
		Value:        sol.Value,
		Y:            y,
		Subsidy:      subsidy,
		AvgReward:    avgReward,
		ValueFunc:    valueFunc,
		QFunc:        qFunc,
		PriorityList: priority,
	}, nil
}

// SolveWhittle sweeps the subsidy grid λ ∈ [minSubsidy, maxSubsidy) with
// step DualStep, solving the relaxed LP at each λ and recording, per state,
// whether the state is passive there (y(s,0) > EPS and y(s,1) < EPS). The
// approximate Whittle index of a state is the smallest λ at which it first
// becomes passive; indexability requires passivity to be monotone from that
// threshold onward.
func (a *Analyzer) SolveWhittle() (*WhittleResult, error) {
	numStates := a.model.NumStates()
	var grid []float64
	for subsidy := a.minSubsidy; subsidy < a.maxSubsidy; subsidy += DualStep {
		grid = append(grid, subsidy)
	}

	passive := make([][]bool, numStates)
	for s := range passive {
		passive[s] = make([]bool, len(grid))
	}
	for i, subsidy := range grid {
		if err := a.relaxed.SetObjective(a.relaxedObjective(subsidy)); err != nil {
			return nil, err
		}
		sol, err := a.relaxed.Solve()
		if err != nil {
			return nil, fmt.Errorf("relaxed single-arm LP at subsidy %v: %w", subsidy, err)
		}
		for s := 0; s < numStates; s++ {
			passive[s][i] = sol.Y[yIndex(s, 0)] > EPS && sol.Y[yIndex(s, 1)] < EPS
		}
	}

	result := &WhittleResult{
		Indices:   make([]float64, numStates),
		Indexable: true,
	}
	thresholds := make([]int, numStates)
	for s := 0; s < numStates; s++ {
		threshold := len(grid)
		for i := range grid {
			if passive[s][i] {
				threshold = i
				break
			}
		}
		thresholds[s] = threshold
		if threshold == len(grid) {
			// Never observed passive over the whole grid (degenerate, e.g.
			// the state's measure sits at the floor for every subsidy): the
			// state never prefers passivity and ranks highest.
			result.Indices[s] = a.maxSubsidy
			continue
		}
		result.Indices[s] = grid[threshold]
		for i := threshold; i < len(grid); i++ {
			if !passive[s][i] {
				result.Indexable = false
				logrus.Warnf("indexability violated: state %d is passive at subsidy %v but active again at %v",
					s, grid[threshold], grid[i])
				break
			}
		}
	}

	seen := make(map[int]int, numStates)
	for s, th := range thresholds {
		if other, ok := seen[th]; ok {
			result.Ties = true
			logrus.Warnf("states %d and %d share the same Whittle index threshold; breaking ties favoring smaller states", other, s)
		} else {
			seen[th] = s
		}
	}

	priority := make([]int, numStates)
	for s := range priority {
		priority[s] = s
	}
	sort.SliceStable(priority, func(i, j int) bool {
		return result.Indices[priority[i]] > result.Indices[priority[j]]
	})
	result.PriorityList = priority
	return result, nil
}
