package solver

import (
	"math"

	"github.com/conifer-solver/conifer/internal/kkt"
	"github.com/conifer-solver/conifer/internal/linalg"
	"github.com/conifer-solver/conifer/pkg/conic"
)

// info aggregates the per-iteration convergence measures and decides
// termination.
type info struct {
	objVal     float64
	objValDual float64
	gapAbs     float64
	gapRel     float64
	resPrimal  float64
	resDual    float64
	mu         float64

	status conic.Status
}

// update recomputes the normalized measures from the current residuals.
func (in *info) update(data *problemData, vars *kkt.Variables, r *residuals) {
	tau := vars.Tau

	in.objVal = 0.5*r.xPx/(tau*tau) + r.dotQX/tau
	in.objValDual = -0.5*r.xPx/(tau*tau) - r.dotBZ/tau

	in.gapAbs = math.Abs(in.objVal - in.objValDual)
	scale := math.Max(1, math.Min(math.Abs(in.objVal), math.Abs(in.objValDual)))
	in.gapRel = in.gapAbs / scale

	in.resPrimal = linalg.InfNorm(r.rz) / (tau * math.Max(1, data.normB))
	in.resDual = linalg.InfNorm(r.rx) / (tau * math.Max(1, data.normQ))
}

// checkTermination applies the convergence and certificate tests and
// records the resulting status. Returns true when the loop should stop.
func (in *info) checkTermination(r *residuals, set *conic.Settings) bool {
	if in.resPrimal <= set.TolFeas && in.resDual <= set.TolFeas &&
		(in.gapAbs <= set.TolGapAbs || in.gapRel <= set.TolGapRel) {
		in.status = conic.Solved
		return true
	}

	// primal infeasibility certificate: Aᵀz ≈ 0 with bᵀz < 0
	if r.dotBZ < 0 {
		if linalg.InfNorm(r.atz) <= -r.dotBZ*set.TolInfeasRel {
			in.status = conic.PrimalInfeasible
			return true
		}
	}

	// dual infeasibility certificate: Px ≈ 0, Ax + s ≈ 0 with qᵀx < 0
	if r.dotQX < 0 {
		scale := -r.dotQX
		if linalg.InfNorm(r.px) <= scale*set.TolInfeasRel &&
			linalg.InfNorm(r.axs) <= scale*set.TolInfeasRel {
			in.status = conic.DualInfeasible
			return true
		}
	}

	return false
}
