// Package lp solves the small linear programs behind the single-arm
// relaxation: maximize a linear functional of the occupation measure subject
// to a set of named equality constraints and an elementwise lower bound.
//
// Constraints are named so that callers can recover the dual value attached
// to each one. Dual values are reported in the minimization standard form
// (minimize -objective·x subject to Ax = b, x >= 0): for every optimal
// primal/dual pair the reduced costs -objective - Aᵀν are nonnegative, with
// equality on the support of x. The analyzer translates these into value
// function, average reward, and subsidy; see rb/analyzer.go.
package lp

import "fmt"

// Constraint is a single named linear equality over the program variables.
type Constraint struct {
	Name   string
	Coeffs []float64
	RHS    float64
}

// Program is a linear program over y ∈ R^n:
//
//	maximize  objective·y
//	s.t.      Coeffs·y = RHS   for every constraint
//	          y >= LowerBound  elementwise
//
// The constraint set is built once; the objective may be swapped between
// solves (the Whittle sweep re-solves with a varying subsidy without
// rebuilding constraints).
type Program struct {
	numVars     int
	lowerBound  float64
	objective   []float64
	constraints []Constraint
	names       map[string]bool
}

// Solution holds the result of a solve. Duals is nil unless the program was
// solved with SolveWithDuals.
type Solution struct {
	Value float64
	Y     []float64
	Duals map[string]float64
}

// New creates an empty program over numVars variables with the given
// elementwise lower bound.
func New(numVars int, lowerBound float64) *Program {
	return &Program{
		numVars:    numVars,
		lowerBound: lowerBound,
		names:      make(map[string]bool),
	}
}

// NumVars returns the number of variables in the program.
func (p *Program) NumVars() int { return p.numVars }

// SetObjective replaces the maximization objective.
func (p *Program) SetObjective(coeffs []float64) error {
	if len(coeffs) != p.numVars {
		return fmt.Errorf("objective has %d coefficients, program has %d variables", len(coeffs), p.numVars)
	}
	p.objective = append([]float64(nil), coeffs...)
	return nil
}

// AddEquality appends a named equality constraint Coeffs·y = rhs.
func (p *Program) AddEquality(name string, coeffs []float64, rhs float64) error {
	if len(coeffs) != p.numVars {
		return fmt.Errorf("constraint %q has %d coefficients, program has %d variables", name, len(coeffs), p.numVars)
	}
	if p.names[name] {
		return fmt.Errorf("duplicate constraint name %q", name)
	}
	p.names[name] = true
	p.constraints = append(p.constraints, Constraint{
		Name:   name,
		Coeffs: append([]float64(nil), coeffs...),
		RHS:    rhs,
	})
	return nil
}

// Solve solves the primal program. The returned Solution has Duals == nil.
func (p *Program) Solve() (*Solution, error) {
	if p.objective == nil {
		return nil, fmt.Errorf("no objective set on program with %d variables", p.numVars)
	}
	value, y, err := p.solvePrimal()
	if err != nil {
		return nil, err
	}
	return &Solution{Value: value, Y: y}, nil
}

// SolveWithDuals solves the primal program and additionally recovers the
// dual value of every named constraint by solving the explicit dual program.
func (p *Program) SolveWithDuals() (*Solution, error) {
	sol, err := p.Solve()
	if err != nil {
		return nil, err
	}
	duals, err := p.solveDual()
	if err != nil {
		return nil, err
	}
	sol.Duals = duals
	return sol, nil
}
