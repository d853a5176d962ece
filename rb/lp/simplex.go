package lp

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// simplexTol is the convergence tolerance passed to gonum's simplex. The
// default tolerance misclassifies the dual program as unbounded on typical
// stochastic instances even though weak duality bounds it by the primal
// optimum; 1e-8 keeps both solves stable.
const simplexTol = 1e-8

// shiftedRHS returns the right-hand sides after substituting x = y - lowerBound,
// which turns the elementwise floor into the standard-form bound x >= 0.
func (p *Program) shiftedRHS() []float64 {
	b := make([]float64, len(p.constraints))
	for i, con := range p.constraints {
		shift := 0.0
		for _, c := range con.Coeffs {
			shift += c * p.lowerBound
		}
		b[i] = con.RHS - shift
	}
	return b
}

// solvePrimal solves the program in standard minimization form:
//
//	minimize  (-objective)·x   s.t.  A x = b - A·lowerBound,  x >= 0
//
// and maps the solution back to y = x + lowerBound.
func (p *Program) solvePrimal() (float64, []float64, error) {
	m, n := len(p.constraints), p.numVars
	if m == 0 {
		return 0, nil, fmt.Errorf("program over %d variables has no constraints", n)
	}
	a := mat.NewDense(m, n, nil)
	for i, con := range p.constraints {
		a.SetRow(i, con.Coeffs)
	}
	b := p.shiftedRHS()
	c := make([]float64, n)
	for j := range c {
		c[j] = -p.objective[j]
	}

	optF, optX, err := lp.Simplex(c, a, b, simplexTol, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("simplex failed on primal with %d constraints, %d variables: %w", m, n, err)
	}

	y := make([]float64, n)
	value := -optF
	for j := range y {
		y[j] = optX[j] + p.lowerBound
		value += p.objective[j] * p.lowerBound
	}
	return value, y, nil
}

// solveDual solves the explicit dual program
//
//	maximize  b·ν   s.t.  Aᵀν <= -objective,  ν free
//
// by splitting ν into positive and negative parts and adding one slack per
// primal variable. The optimal ν are the constraint duals of the primal in
// minimization form.
func (p *Program) solveDual() (map[string]float64, error) {
	m, n := len(p.constraints), p.numVars
	b := p.shiftedRHS()

	// Standard-form variable layout: [ν⁺ (m) | ν⁻ (m) | slack (n)].
	rows, cols := n, 2*m+n
	a := mat.NewDense(rows, cols, nil)
	rhs := make([]float64, rows)
	c := make([]float64, cols)
	for j := 0; j < n; j++ {
		for i := 0; i < m; i++ {
			aij := p.constraints[i].Coeffs[j]
			a.Set(j, i, aij)
			a.Set(j, m+i, -aij)
		}
		a.Set(j, 2*m+j, 1)
		rhs[j] = -p.objective[j]
	}
	for i := 0; i < m; i++ {
		c[i] = -b[i]
		c[m+i] = b[i]
	}

	_, optX, err := lp.Simplex(c, a, rhs, simplexTol, nil)
	if err != nil {
		return nil, fmt.Errorf("simplex failed on dual with %d variables: %w", m, err)
	}

	duals := make(map[string]float64, m)
	for i, con := range p.constraints {
		duals[con.Name] = optX[i] - optX[m+i]
	}
	return duals, nil
}
