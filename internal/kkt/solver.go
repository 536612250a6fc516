package kkt

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/conifer-solver/conifer/internal/backend"
	"github.com/conifer-solver/conifer/internal/cone"
	"github.com/conifer-solver/conifer/internal/linalg"
	"github.com/conifer-solver/conifer/pkg/conic"
)

// Solver owns the KKT matrix, its factorization backend and the
// workspace for static regularization and iterative refinement. All
// buffers are preallocated at construction and reused per iteration.
type Solver struct {
	m, n int

	x []float64
	b []float64

	// internal workspace for the IR scheme and diagonal offsetting
	work1 []float64
	work2 []float64

	mp     *FullDataMap
	dsigns []int

	hsblocks []float64

	kkt      *conic.Matrix
	settings conic.Settings
	ldl      backend.DirectLDLSolver

	// the diagonal regularizer currently applied
	diagonalRegularizer float64
}

// NewSolver assembles K from the problem blocks, primes the Hs diagonal
// with the identity scaling and performs the first factorization.
func NewSolver(pFull, a *conic.Matrix, cones *cone.Composite, settings conic.Settings) (*Solver, error) {
	entry, err := backend.Lookup(settings.DirectSolveMethod)
	if err != nil {
		return nil, err
	}
	if entry.Shape != backend.ShapeFull {
		return nil, fmt.Errorf("%w: backend %q wants %q-shape matrices", conic.ErrUnknownBackend, settings.DirectSolveMethod, entry.Shape)
	}

	n := pFull.Cols
	m := a.Rows
	dim := n + m

	k, mp := AssembleFullKKT(pFull, a, cones)

	s := &Solver{
		m:        m,
		n:        n,
		x:        make([]float64, dim),
		b:        make([]float64, dim),
		work1:    make([]float64, dim),
		work2:    make([]float64, dim),
		mp:       mp,
		dsigns:   fillDsigns(m, n),
		hsblocks: make([]float64, cones.BlockLen()),
		kkt:      k,
		settings: settings,
	}

	// prime the Hs blocks with the identity scaling so the first
	// factorization sees a quasidefinite matrix
	st := cone.NewState(cones)
	cones.SetIdentityScaling(st)
	s.writeHsBlocks(cones, st, func(index []int, values []float64) {
		for i, idx := range index {
			k.NzVal[idx] = values[i]
		}
	})

	s.applyRegularization()
	ldl, err := entry.New(k)
	s.restoreRegularization()
	if err != nil {
		return nil, err
	}
	s.ldl = ldl
	return s, nil
}

// fillDsigns records the expected inertia of K = LDLᵀ: +1 on the x rows,
// -1 on the conic rows.
func fillDsigns(m, n int) []int {
	dsigns := make([]int, m+n)
	for i := 0; i < n; i++ {
		dsigns[i] = 1
	}
	for i := n; i < n+m; i++ {
		dsigns[i] = -1
	}
	return dsigns
}

// writeHsBlocks recomputes the (negated) Hessian blocks from the current
// scalings and pushes them through the given update function.
func (s *Solver) writeHsBlocks(cones *cone.Composite, st *cone.State, update func([]int, []float64)) {
	cones.GetHs(st, s.hsblocks)
	floats.Scale(-1, s.hsblocks)
	update(s.mp.Hsblocks, s.hsblocks)
}

// Update refreshes the Hs blocks from the cone scalings, applies static
// regularization and refactors. Returns false on factorization failure.
func (s *Solver) Update(cones *cone.Composite, st *cone.State) bool {
	s.writeHsBlocks(cones, st, s.ldl.UpdateValues)
	return s.regularizeAndRefactor()
}

func (s *Solver) regularizeAndRefactor() bool {
	s.applyRegularization()
	ok := s.ldl.Refactor()
	s.restoreRegularization()
	return ok
}

// applyRegularization saves the true diagonal in work1 and overwrites
// K's diagonal with the sign-offset copy. restoreRegularization puts the
// true diagonal back; the factor has already absorbed the shift and the
// unregularized copy is what iterative refinement must see.
func (s *Solver) applyRegularization() {
	if !s.settings.StaticRegularizationEnable {
		return
	}
	for i, idx := range s.mp.DiagFull {
		s.work1[i] = s.kkt.NzVal[idx]
	}
	eps := s.computeRegularizer(s.work1)
	for i, idx := range s.mp.DiagFull {
		s.kkt.NzVal[idx] = s.work1[i] + float64(s.dsigns[i])*eps
	}
	s.diagonalRegularizer = eps
}

func (s *Solver) restoreRegularization() {
	if !s.settings.StaticRegularizationEnable {
		return
	}
	for i, idx := range s.mp.DiagFull {
		s.kkt.NzVal[idx] = s.work1[i]
	}
}

func (s *Solver) computeRegularizer(diag []float64) float64 {
	return s.settings.StaticRegularizationConstant +
		s.settings.StaticRegularizationProportional*linalg.InfNorm(diag)
}

// SetRhs writes the concatenated [rhsx; rhsz] right-hand side.
func (s *Solver) SetRhs(rhsx, rhsz []float64) {
	copy(s.b[:s.n], rhsx)
	copy(s.b[s.n:], rhsz)
}

// GetLhs splits the current solution into its x and z parts. Either
// destination may be nil.
func (s *Solver) GetLhs(lhsx, lhsz []float64) {
	if lhsx != nil {
		copy(lhsx, s.x[:s.n])
	}
	if lhsz != nil {
		copy(lhsz, s.x[s.n:])
	}
}

// Solve runs the triangular solve and, when enabled, the iterative
// refinement loop. Returns false when the solution (or, with refinement
// enabled, its residual) is not finite. Refinement that stops short of
// the tolerance still returns true, with the better iterate kept.
func (s *Solver) Solve(lhsx, lhsz []float64) bool {
	s.ldl.Solve(s.x, s.b)

	var ok bool
	if s.settings.IterativeRefinementEnable {
		ok = s.iterativeRefinement()
	} else {
		ok = linalg.AllFinite(s.x)
	}
	if ok {
		s.GetLhs(lhsx, lhsz)
	}
	return ok
}

// iterativeRefinement drives ‖b − Kx‖∞ below abstol + reltol·‖b‖∞,
// requiring the configured improvement ratio per accepted correction.
// Refinement that stalls is not an error: the best iterate is kept.
func (s *Solver) iterativeRefinement() bool {
	set := &s.settings
	normb := linalg.InfNorm(s.b)

	norme := s.refineError(s.work1, s.x)
	if math.IsNaN(norme) || math.IsInf(norme, 0) {
		return false
	}

	for i := 0; i < set.IterativeRefinementMaxIter; i++ {
		if norme <= set.IterativeRefinementAbstol+set.IterativeRefinementReltol*normb {
			break
		}
		lastnorme := norme

		// correction solve against the residual in work1
		s.ldl.Solve(s.work2, s.work1)

		// prospective solution x + dx, checked before adoption
		floats.Add(s.work2, s.x)
		norme = s.refineError(s.work1, s.work2)
		if math.IsNaN(norme) || math.IsInf(norme, 0) {
			return false
		}

		improvedRatio := lastnorme / norme
		if improvedRatio < set.IterativeRefinementStopRatio {
			if improvedRatio > 1 {
				s.x, s.work2 = s.work2, s.x
			}
			break
		}
		s.x, s.work2 = s.work2, s.x
	}
	return true
}

// refineError computes e = b − K·ξ into e and returns ‖e‖∞.
func (s *Solver) refineError(e, xi []float64) float64 {
	linalg.MulVec(e, s.kkt, xi)
	for i := range e {
		e[i] = s.b[i] - e[i]
	}
	return linalg.InfNorm(e)
}

// KKT exposes the assembled matrix for white-box assertions in tests.
func (s *Solver) KKT() *conic.Matrix { return s.kkt }

// Map exposes the data map for white-box assertions in tests.
func (s *Solver) Map() *FullDataMap { return s.mp }

// DiagonalRegularizer reports the ε applied at the last refactor.
func (s *Solver) DiagonalRegularizer() float64 { return s.diagonalRegularizer }
