package rb

import (
	"fmt"
	"math/rand"
)

// TieBreak selects how FTVA converts virtual action requests into a feasible
// real action vector when the budget disagrees with the requests.
type TieBreak string

const (
	// TieBreakGoodness is the default: four priority levels ordered
	// (active,good) > (active,bad) > (passive,bad) > (passive,good), where
	// "good" means the arm's real state equals its virtual state. Good arms
	// keep their requested action as long as the budget allows, which is
	// what makes the coupling absorbing.
	TieBreakGoodness TieBreak = "goodness"
	// TieBreakNaive starts from the virtual actions and flips a uniformly
	// random excess or deficit subset to hit the budget.
	TieBreakNaive TieBreak = "naive"
	// TieBreakPriority splits arms into two rough classes by virtual action
	// and sub-orders each class by an externally supplied state priority
	// list over virtual states. Equivalent to pure state-priority ordering
	// as long as there is only one neutral state; with more zero-gap states
	// this is a documented assumption, not a guarantee.
	TieBreakPriority TieBreak = "priority"
	// TieBreakGoodnessPriority refines each of the four goodness levels by
	// the supplied state priority list.
	TieBreakGoodnessPriority TieBreak = "goodness-priority"
)

// validTieBreaks maps accepted tie-break rules. Empty defaults to goodness.
var validTieBreaks = map[TieBreak]bool{
	TieBreakGoodness:         true,
	TieBreakNaive:            true,
	TieBreakPriority:         true,
	TieBreakGoodnessPriority: true,
	"":                       true,
}

// IsValidTieBreak returns true if the given rule is recognized.
func IsValidTieBreak(rule string) bool {
	return validTieBreaks[TieBreak(rule)]
}

// needsPriority returns true for the tie-break rules that require a state
// priority list.
func (tb TieBreak) needsPriority() bool {
	return tb == TieBreakPriority || tb == TieBreakGoodnessPriority
}

// FTVAConfig groups FTVA policy parameters.
type FTVAConfig struct {
	N                int      // number of arms (must be > 0)
	ActFrac          float64  // activation fraction, in (0,1)
	TieBreak         TieBreak // empty defaults to goodness
	TieBreakPriority []int    // required by priority and goodness-priority
	InitVirtual      []int    // initial virtual states; nil = uniform random
}

// FTVAPolicy is the Follow-the-Virtual-Arm coupling policy. It owns one
// virtual arm per real arm; virtual arms evolve under the randomized
// stationary policy derived from the single-arm relaxation, and the real
// action vector follows the virtual requests as closely as the budget
// allows. No coupled/uncoupled flag is stored: coupling status is derived
// each step in VirtualStep by comparing previous real state and action to
// the virtual ones.
type FTVAPolicy struct {
	model      *Model
	sampler    *ActionSampler
	n          int
	actFrac    float64
	tieBreak   TieBreak
	tbPriority []int
	virtual    []int
	rng        *rand.Rand
}

// NewFTVAPolicy validates the configuration and creates the policy.
// Configuration errors (unknown tie-break rule, missing priority list)
// fail here, before any simulation state exists.
func NewFTVAPolicy(model *Model, y [][]float64, cfg FTVAConfig, rng *rand.Rand) (*FTVAPolicy, error) {
	if cfg.N <= 0 {
		return nil, fmt.Errorf("arm count must be positive, got %d", cfg.N)
	}
	if cfg.ActFrac <= 0 || cfg.ActFrac >= 1 {
		return nil, fmt.Errorf("activation fraction must be in (0,1), got %v", cfg.ActFrac)
	}
	tb := cfg.TieBreak
	if tb == "" {
		tb = TieBreakGoodness
	}
	if !validTieBreaks[tb] {
		return nil, fmt.Errorf("unknown tie-break rule %q", cfg.TieBreak)
	}
	var tbPriority []int
	if tb.needsPriority() {
		if cfg.TieBreakPriority == nil {
			return nil, fmt.Errorf("tie-break rule %q requires a state priority list", tb)
		}
		if err := checkPermutation(model.NumStates(), cfg.TieBreakPriority); err != nil {
			return nil, fmt.Errorf("tie-break priority list: %w", err)
		}
		tbPriority = append([]int(nil), cfg.TieBreakPriority...)
	}
	sampler, err := NewActionSampler(y)
	if err != nil {
		return nil, err
	}
	if sampler.NumStates() != model.NumStates() {
		return nil, fmt.Errorf("occupation measure has %d states, model has %d", sampler.NumStates(), model.NumStates())
	}

	virtual := make([]int, cfg.N)
	if cfg.InitVirtual != nil {
		if len(cfg.InitVirtual) != cfg.N {
			return nil, fmt.Errorf("got %d initial virtual states for %d arms", len(cfg.InitVirtual), cfg.N)
		}
		for i, s := range cfg.InitVirtual {
			if err := model.validState(s); err != nil {
				return nil, fmt.Errorf("initial virtual state of arm %d: %w", i, err)
			}
			virtual[i] = s
		}
	} else {
		for i := range virtual {
			virtual[i] = rng.Intn(model.NumStates())
		}
	}

	return &FTVAPolicy{
		model:      model,
		sampler:    sampler,
		n:          cfg.N,
		actFrac:    cfg.ActFrac,
		tieBreak:   tb,
		tbPriority: tbPriority,
		virtual:    virtual,
		rng:        rng,
	}, nil
}

// VirtualStates returns a copy of the current virtual arm states.
func (f *FTVAPolicy) VirtualStates() []int {
	return append([]int(nil), f.virtual...)
}

// GoodArmCount returns how many arms currently have real state equal to
// virtual state.
func (f *FTVAPolicy) GoodArmCount(curStates []int) int {
	good := 0
	for i, s := range curStates {
		if i < len(f.virtual) && s == f.virtual[i] {
			good++
		}
	}
	return good
}

// GetActions samples a virtual action per virtual arm from the randomized
// policy, then converts the requests into a feasible real action vector
// obeying the randomized-rounded budget under the configured tie-break
// rule. Both the real and the virtual action vectors are returned; the
// latter is needed by VirtualStep.
func (f *FTVAPolicy) GetActions(curStates []int) (actions, virtualActions []int, err error) {
	if len(curStates) != f.n {
		return nil, nil, fmt.Errorf("got %d states for %d arms", len(curStates), f.n)
	}
	for i, s := range curStates {
		if err := f.model.validState(s); err != nil {
			return nil, nil, fmt.Errorf("state of arm %d: %w", i, err)
		}
	}

	budget := RoundedBudget(f.n, f.actFrac, f.rng)
	virtualActions = make([]int, f.n)
	for i, vs := range f.virtual {
		virtualActions[i] = f.sampler.Sample(vs, f.rng)
	}

	switch f.tieBreak {
	case TieBreakGoodness:
		actions, err = fillBudget(f.n, f.goodnessLevels(curStates, virtualActions), budget, f.rng)
	case TieBreakNaive:
		actions = repairBudget(append([]int(nil), virtualActions...), budget, f.rng)
	case TieBreakPriority:
		actions, err = fillBudget(f.n, f.priorityLevels(virtualActions), budget, f.rng)
	case TieBreakGoodnessPriority:
		actions, err = fillBudget(f.n, f.goodnessPriorityLevels(curStates, virtualActions), budget, f.rng)
	default:
		// Unreachable: the rule is validated at construction.
		err = fmt.Errorf("unknown tie-break rule %q", f.tieBreak)
	}
	if err != nil {
		return nil, nil, err
	}
	return actions, virtualActions, nil
}

// goodnessLevels partitions arms into the four goodness levels:
// (active,good) > (active,bad) > (passive,bad) > (passive,good).
func (f *FTVAPolicy) goodnessLevels(curStates, virtualActions []int) [][]int {
	levels := make([][]int, 4)
	for i := range curStates {
		good := curStates[i] == f.virtual[i]
		var level int
		switch {
		case virtualActions[i] == 1 && good:
			level = 0
		case virtualActions[i] == 1:
			level = 1
		case !good:
			level = 2
		default:
			level = 3
		}
		levels[level] = append(levels[level], i)
	}
	return levels
}

// priorityLevels splits arms into two rough classes by virtual action
// (active before passive) and sub-orders each class by the configured state
// priority over virtual states.
func (f *FTVAPolicy) priorityLevels(virtualActions []int) [][]int {
	byState := make([][]int, f.model.NumStates())
	for i, vs := range f.virtual {
		byState[vs] = append(byState[vs], i)
	}
	levels := make([][]int, 0, 2*len(f.tbPriority))
	for _, wantAction := range []int{1, 0} {
		for _, state := range f.tbPriority {
			var level []int
			for _, i := range byState[state] {
				if virtualActions[i] == wantAction {
					level = append(level, i)
				}
			}
			levels = append(levels, level)
		}
	}
	return levels
}

// goodnessPriorityLevels refines each of the four goodness levels by the
// configured state priority over virtual states.
func (f *FTVAPolicy) goodnessPriorityLevels(curStates, virtualActions []int) [][]int {
	rough := f.goodnessLevels(curStates, virtualActions)
	levels := make([][]int, 0, 4*len(f.tbPriority))
	for _, class := range rough {
		byState := make([][]int, f.model.NumStates())
		for _, i := range class {
			byState[f.virtual[i]] = append(byState[f.virtual[i]], i)
		}
		for _, state := range f.tbPriority {
			levels = append(levels, byState[state])
		}
	}
	return levels
}

// VirtualStep applies the coupling update after the real population has
// advanced. An arm agrees this step when its previous real state equals its
// virtual state AND its real action equals its virtual action; agreeing
// arms snap their virtual state to the arm's new real state, so that once
// coupled with matching actions the virtual and real chains evolve
// identically for as long as actions keep matching. Non-agreeing arms
// evolve independently from the transition kernel.
func (f *FTVAPolicy) VirtualStep(prevStates, curStates, actions, virtualActions []int) error {
	if len(prevStates) != f.n || len(curStates) != f.n || len(actions) != f.n || len(virtualActions) != f.n {
		return fmt.Errorf("got %d/%d/%d/%d previous states/current states/actions/virtual actions for %d arms",
			len(prevStates), len(curStates), len(actions), len(virtualActions), f.n)
	}
	for i := range f.virtual {
		if prevStates[i] == f.virtual[i] && actions[i] == virtualActions[i] {
			f.virtual[i] = curStates[i]
		} else {
			f.virtual[i] = SampleCategorical(f.model.TransProbs(f.virtual[i], virtualActions[i]), f.rng)
		}
	}
	return nil
}
