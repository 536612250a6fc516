package kkt

import (
	"gonum.org/v1/gonum/floats"

	"github.com/conifer-solver/conifer/internal/cone"
	"github.com/conifer-solver/conifer/internal/linalg"
	"github.com/conifer-solver/conifer/pkg/conic"
)

// Variables is one point of the homogeneous embedding: (x, z, s, τ, κ)
// with s ∈ K and z ∈ K*. The same shape carries residual-derived step
// right-hand sides and the computed step directions.
type Variables struct {
	X     []float64
	Z     []float64
	S     []float64
	Tau   float64
	Kappa float64
}

// NewVariables allocates a zero point of the given dimensions.
func NewVariables(n, m int) *Variables {
	return &Variables{
		X: make([]float64, n),
		Z: make([]float64, m),
		S: make([]float64, m),
	}
}

// System drives the KKT solver for the interior-point iteration: the
// constant-term solve once per scaling update, the per-step variable
// solve, the τ/κ elimination and the Δs reconstruction.
type System struct {
	solver *Solver

	pFull *conic.Matrix
	q     []float64
	b     []float64

	// solution vectors for the constant and variable parts
	x1, z1 []float64
	x2, z2 []float64

	// work vectors for assembling and disassembling solves
	workx, workz []float64
	workConic    []float64
	workx2       []float64
}

// NewSystem builds the KKT solver over the problem blocks. pFull is the
// full symmetric storage of P.
func NewSystem(pFull, a *conic.Matrix, q, b []float64, cones *cone.Composite, settings conic.Settings) (*System, error) {
	solver, err := NewSolver(pFull, a, cones, settings)
	if err != nil {
		return nil, err
	}
	n := pFull.Cols
	m := a.Rows
	return &System{
		solver:    solver,
		pFull:     pFull,
		q:         q,
		b:         b,
		x1:        make([]float64, n),
		z1:        make([]float64, m),
		x2:        make([]float64, n),
		z2:        make([]float64, m),
		workx:     make([]float64, n),
		workz:     make([]float64, m),
		workConic: make([]float64, m),
		workx2:    make([]float64, n),
	}, nil
}

// Update refreshes the factorization from the current cone scalings and
// re-solves the constant right-hand side [-q; b]. Returns false when the
// factorization or the solve degenerates.
func (sys *System) Update(cones *cone.Composite, st *cone.State) bool {
	if !sys.solver.Update(cones, st) {
		return false
	}
	return sys.solveConstantRhs()
}

func (sys *System) solveConstantRhs() bool {
	for i, v := range sys.q {
		sys.workx[i] = -v
	}
	sys.solver.SetRhs(sys.workx, sys.b)
	return sys.solver.Solve(sys.x2, sys.z2)
}

// SolveInitialPoint computes the starting iterate. The LP path uses two
// solves to obtain (x, -s) and z separately; the QP path uses one solve
// against [-q; b] with s = -z.
func (sys *System) SolveInitialPoint(vars *Variables) bool {
	if sys.pFull.Nnz() == 0 {
		for i := range sys.workx {
			sys.workx[i] = 0
		}
		copy(sys.workz, sys.b)
		sys.solver.SetRhs(sys.workx, sys.workz)
		if !sys.solver.Solve(vars.X, vars.S) {
			return false
		}
		floats.Scale(-1, vars.S)

		for i, v := range sys.q {
			sys.workx[i] = -v
		}
		for i := range sys.workz {
			sys.workz[i] = 0
		}
		sys.solver.SetRhs(sys.workx, sys.workz)
		return sys.solver.Solve(nil, vars.Z)
	}

	for i, v := range sys.q {
		sys.workx[i] = -v
	}
	copy(sys.workz, sys.b)
	sys.solver.SetRhs(sys.workx, sys.workz)
	if !sys.solver.Solve(vars.X, vars.Z) {
		return false
	}
	for i, v := range vars.Z {
		vars.S[i] = -v
	}
	return true
}

// Solve computes the step (lhs) for the given right-hand side. For the
// affine predictor the Δs constant term is the current s; otherwise it
// is reconstructed from the corrector shift by the cone kernels.
func (sys *System) Solve(lhs, rhs *Variables, vars *Variables, cones *cone.Composite, st *cone.State, affine bool) bool {
	copy(sys.workx, rhs.X)

	// the vector c in the step equation HsΔz + Δs = -c
	dsConstTerm := sys.workConic
	if affine {
		copy(dsConstTerm, vars.S)
	} else {
		cones.DsFromDzOffset(st, dsConstTerm, rhs.S, vars.Z)
	}

	for i := range sys.workz {
		sys.workz[i] = dsConstTerm[i] - rhs.Z[i]
	}

	// variable part of the reduced system
	sys.solver.SetRhs(sys.workx, sys.workz)
	if !sys.solver.Solve(sys.x1, sys.z1) {
		return false
	}

	// τ elimination
	tau := vars.Tau
	for i, v := range vars.X {
		sys.workx[i] = v / tau
	}
	linalg.MulVec(sys.workx2, sys.pFull, sys.x1)
	tauNum := rhs.Tau - rhs.Kappa/tau +
		floats.Dot(sys.q, sys.x1) + floats.Dot(sys.b, sys.z1) +
		2*floats.Dot(sys.workx, sys.workx2)

	floats.Sub(sys.workx, sys.x2) // workx = x/τ - x₂
	tauDen := vars.Kappa/tau - floats.Dot(sys.q, sys.x2) - floats.Dot(sys.b, sys.z2)
	linalg.MulVec(sys.workx2, sys.pFull, sys.workx)
	t1 := floats.Dot(sys.workx, sys.workx2)
	linalg.MulVec(sys.workx2, sys.pFull, sys.x2)
	t2 := floats.Dot(sys.x2, sys.workx2)
	tauDen += t1 - t2

	lhs.Tau = tauNum / tauDen
	for i := range lhs.X {
		lhs.X[i] = sys.x1[i] + lhs.Tau*sys.x2[i]
	}
	for i := range lhs.Z {
		lhs.Z[i] = sys.z1[i] + lhs.Tau*sys.z2[i]
	}

	// Δs = -(HsΔz + c)
	cones.MulHs(st, lhs.S, lhs.Z)
	for i := range lhs.S {
		lhs.S[i] = -(lhs.S[i] + dsConstTerm[i])
	}

	// Δκ
	lhs.Kappa = -(rhs.Kappa + vars.Kappa*lhs.Tau) / tau

	return true
}

// Solver exposes the underlying KKT solver.
func (sys *System) Solver() *Solver { return sys.solver }
