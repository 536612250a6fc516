package solver

import (
	"gonum.org/v1/gonum/floats"

	"github.com/conifer-solver/conifer/internal/kkt"
	"github.com/conifer-solver/conifer/internal/linalg"
)

// residuals carries the homogeneous-embedding residuals of the current
// iterate plus the partial products reused by the termination checks.
// The sign convention feeds the step right-hand sides directly:
//
//	rx = -(Px + Aᵀz) - q·τ
//	rz = Ax + s - b·τ
//	rτ = κ + qᵀx + bᵀz + xᵀPx/τ
type residuals struct {
	rx   []float64
	rz   []float64
	rtau float64

	// partial products
	px  []float64 // P·x
	atz []float64 // Aᵀ·z
	axs []float64 // A·x + s

	dotQX float64
	dotBZ float64
	dotSZ float64
	xPx   float64
}

func newResiduals(n, m int) *residuals {
	return &residuals{
		rx:  make([]float64, n),
		rz:  make([]float64, m),
		px:  make([]float64, n),
		atz: make([]float64, n),
		axs: make([]float64, m),
	}
}

func (r *residuals) update(data *problemData, vars *kkt.Variables) {
	linalg.MulVec(r.px, data.pFull, vars.X)
	linalg.MulVecT(r.atz, data.a, vars.Z)
	linalg.MulVec(r.axs, data.a, vars.X)
	floats.Add(r.axs, vars.S)

	r.dotQX = floats.Dot(data.q, vars.X)
	r.dotBZ = floats.Dot(data.b, vars.Z)
	r.dotSZ = floats.Dot(vars.S, vars.Z)
	r.xPx = floats.Dot(vars.X, r.px)

	tau := vars.Tau
	for i := range r.rx {
		r.rx[i] = -r.px[i] - r.atz[i] - data.q[i]*tau
	}
	for i := range r.rz {
		r.rz[i] = r.axs[i] - data.b[i]*tau
	}
	r.rtau = vars.Kappa + r.dotQX + r.dotBZ + r.xPx/tau
}

// mu is the complementarity measure normalized by the barrier degree.
func (r *residuals) mu(vars *kkt.Variables, degree int) float64 {
	return (r.dotSZ + vars.Tau*vars.Kappa) / float64(degree+1)
}
