// Package solver runs the primal-dual interior-point method: problem
// ingestion, the Mehrotra predictor-corrector loop over the homogeneous
// self-dual embedding, termination analysis and solution extraction.
package solver

import (
	"github.com/conifer-solver/conifer/internal/cone"
	"github.com/conifer-solver/conifer/internal/linalg"
	"github.com/conifer-solver/conifer/pkg/conic"
)

// problemData holds the solver's working copy of the problem: P expanded
// to full symmetric storage, any large-SOC augmentation already applied,
// and the norms used by the termination checks.
type problemData struct {
	n int
	m int

	pFull *conic.Matrix
	q     []float64
	a     *conic.Matrix
	b     []float64

	cones *cone.Composite

	// set when large second-order cones were decomposed
	aug *cone.Augmentation

	normQ float64
	normB float64
}

func newProblemData(prob *conic.Problem, settings conic.Settings) (*problemData, error) {
	if err := prob.Validate(); err != nil {
		return nil, err
	}

	p, q, a, b, cones := prob.P, prob.Q, prob.A, prob.B, prob.Cones

	aug := cone.AugmentSOC(p, q, a, b, cones, settings.SOCReductionSize)
	if aug != nil {
		p, q, a, b, cones = aug.P, aug.Q, aug.A, aug.B, aug.Cones
	}

	comp, err := cone.NewComposite(cones)
	if err != nil {
		return nil, err
	}

	var pFull *conic.Matrix
	if p != nil && p.Nnz() > 0 {
		pFull, _, _ = linalg.SymmetrizeUpper(p)
	} else {
		pFull = conic.NewMatrix(a.Cols, a.Cols, 0)
	}

	return &problemData{
		n:     a.Cols,
		m:     a.Rows,
		pFull: pFull,
		q:     q,
		a:     a,
		b:     b,
		cones: comp,
		aug:   aug,
		normQ: linalg.InfNorm(q),
		normB: linalg.InfNorm(b),
	}, nil
}
