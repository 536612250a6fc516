package cone

import "math"

// Exponential-cone primitives. The cone is
//
//	Kexp = { s : s₃ ≥ s₂·exp(s₁/s₂), s₂ > 0 }
//
// with dual { z : z₃ ≥ -z₁·exp(z₂/z₁ - 1), z₁ < 0 }. The barrier is not
// self-scaled, so the scaling matrix is a surrogate: either μ·∇²f*(z)
// (dual strategy) or a secant-corrected variant (primal-dual strategy).

// Central ray used for unit initialization.
var expCentralRay = [3]float64{-1.051383945322714, 0.556409619469370, 1.258967884768947}

func isPrimalFeasibleExp(s []float64) bool {
	if s[2] > 0 && s[1] > 0 {
		if res := s[1]*math.Log(s[2]/s[1]) - s[0]; res > 0 {
			return true
		}
	}
	return false
}

func isDualFeasibleExp(z []float64) bool {
	if z[2] > 0 && z[0] < 0 {
		if res := z[1] - z[0] - z[0]*math.Log(-z[2]/z[0]); res > 0 {
			return true
		}
	}
	return false
}

func barrierDualExp(z []float64) float64 {
	if !isDualFeasibleExp(z) {
		return math.Inf(1)
	}
	l := math.Log(-z[2] / z[0])
	return -math.Log(-z[2]*z[0]) - math.Log(z[1]-z[0]-z[0]*l)
}

func barrierPrimalExp(s []float64) float64 {
	if !isPrimalFeasibleExp(s) {
		return math.Inf(1)
	}
	omega := wrightOmega(1 - s[0]/s[1] - math.Log(s[1]/s[2]))
	omega = (omega - 1) * (omega - 1) / omega
	return -math.Log(omega) - 2*math.Log(s[1]) - math.Log(s[2]) - 3
}

// gradientPrimalExp writes ∇f(s) of the primal barrier.
func gradientPrimalExp(s, grad []float64) {
	omega := wrightOmega(1 - s[0]/s[1] - math.Log(s[1]/s[2]))
	grad[0] = 1 / ((omega - 1) * s[1])
	grad[1] = grad[0] + grad[0]*math.Log(omega*s[1]/s[2]) - 1/s[1]
	grad[2] = omega / ((1 - omega) * s[2])
}

// updateDualGradHExp writes ∇f*(z) and ∇²f*(z) in closed form; H is a
// 3×3 column-major symmetric block.
func updateDualGradHExp(grad, h, z []float64) {
	l := math.Log(-z[2] / z[0])
	r := -z[0]*l - z[0] + z[1]

	c2 := 1 / r

	grad[0] = c2*l - 1/z[0]
	grad[1] = -c2
	grad[2] = (c2*z[0] - 1) / z[2]

	h[0] = (r*r - z[0]*r + l*l*z[0]*z[0]) / (r * z[0] * z[0] * r)
	h[1] = -l / (r * r)
	h[3] = h[1]
	h[4] = 1 / (r * r)
	h[2] = (z[1] - z[0]) / (r * r * z[2])
	h[6] = h[2]
	h[5] = -z[0] / (r * r * z[2])
	h[7] = h[5]
	h[8] = (r*r - z[0]*r + z[0]*z[0]) / (r * r * z[2] * z[2])
}

// cholesky3x3Factor computes the lower factor of a 3×3 column-major
// symmetric positive definite block. Returns false if a pivot fails.
func cholesky3x3Factor(l, h []float64) bool {
	t0 := h[0]
	if t0 <= 0 {
		return false
	}
	l00 := math.Sqrt(t0)
	l10 := h[1] / l00
	l20 := h[2] / l00

	t1 := h[4] - l10*l10
	if t1 <= 0 {
		return false
	}
	l11 := math.Sqrt(t1)
	l21 := (h[5] - l20*l10) / l11

	t2 := h[8] - l20*l20 - l21*l21
	if t2 <= 0 {
		return false
	}
	l[0], l[1], l[2] = l00, l10, l20
	l[4], l[5] = l11, l21
	l[8] = math.Sqrt(t2)
	return true
}

// cholesky3x3Solve solves LLᵀu = b given the factor from cholesky3x3Factor.
func cholesky3x3Solve(l, b, u []float64) {
	y0 := b[0] / l[0]
	y1 := (b[1] - l[1]*y0) / l[4]
	y2 := (b[2] - l[2]*y0 - l[5]*y1) / l[8]

	u[2] = y2 / l[8]
	u[1] = (y1 - l[5]*u[2]) / l[4]
	u[0] = (y0 - l[1]*u[1] - l[2]*u[2]) / l[0]
}

// higherCorrectionExp computes the third-derivative Mehrotra correction
// η for one exponential cone: solve H u = ds, then apply the explicit
// third directional derivative of the dual barrier at z along (u, v).
func higherCorrectionExp(h, z, eta, ds, v []float64) {
	var cholH [9]float64
	if !cholesky3x3Factor(cholH[:], h) {
		eta[0], eta[1], eta[2] = 0, 0, 0
		return
	}

	var u [3]float64
	cholesky3x3Solve(cholH[:], ds, u[:])

	eta[1] = 1
	eta[2] = -z[0] / z[2]
	eta[0] = math.Log(eta[2])

	psi := z[0]*eta[0] - z[0] + z[1]

	dotPsiU := eta[0]*u[0] + eta[1]*u[1] + eta[2]*u[2]
	dotPsiV := eta[0]*v[0] + eta[1]*v[1] + eta[2]*v[2]

	coef := ((u[0]*(v[0]/z[0]-v[2]/z[2])+u[2]*(z[0]*v[2]/z[2]-v[0])/z[2])*psi - 2*dotPsiU*dotPsiV) / (psi * psi * psi)
	for i := range eta {
		eta[i] *= coef
	}

	invPsi2 := 1 / (psi * psi)

	eta[0] += (1/psi-2/z[0])*u[0]*v[0]/(z[0]*z[0]) - u[2]*v[2]/(z[2]*z[2])/psi +
		dotPsiU*invPsi2*(v[0]/z[0]-v[2]/z[2]) + dotPsiV*invPsi2*(u[0]/z[0]-u[2]/z[2])
	eta[2] += 2*(z[0]/psi-1)*u[2]*v[2]/(z[2]*z[2]*z[2]) - (u[2]*v[0]+u[0]*v[2])/(z[2]*z[2])/psi +
		dotPsiU*invPsi2*(z[0]*v[2]/(z[2]*z[2])-v[0]/z[2]) + dotPsiV*invPsi2*(z[0]*u[2]/(z[2]*z[2])-u[0]/z[2])

	for i := range eta {
		eta[i] /= 2
	}
}

func (c *Composite) unitInitializationExp(z, s []float64) {
	launch(len(c.idxExp), func(i int) {
		rng := c.cones[c.idxExp[i]].Rng
		zi, si := slice(z, rng), slice(s, rng)
		for j := 0; j < 3; j++ {
			si[j] = expCentralRay[j]
			zi[j] = si[j]
		}
	})
}

func (c *Composite) setIdentityScalingExp(st *State) {
	launch(len(c.idxExp), func(i int) {
		hs := st.ExpHs[i*9 : i*9+9]
		for j := range hs {
			hs[j] = 0
		}
		hs[0], hs[4], hs[8] = 1, 1, 1
	})
}

// updateScalingExp refreshes the dual gradient/Hessian and the scaling
// surrogate Hs per the selected strategy. Fails if an iterate has left
// the cone interior.
func (c *Composite) updateScalingExp(st *State, s, z []float64, mu float64, primalDual bool) bool {
	launch(len(c.idxExp), func(i int) {
		ci := c.idxExp[i]
		rng := c.cones[ci].Rng
		zi, si := slice(z, rng), slice(s, rng)
		grad := st.ExpGrad[i*3 : i*3+3]
		h := st.ExpH[i*9 : i*9+9]
		hs := st.ExpHs[i*9 : i*9+9]

		st.alpha[ci] = 1
		if !isDualFeasibleExp(zi) || !isPrimalFeasibleExp(si) {
			st.alpha[ci] = 0
			return
		}
		updateDualGradHExp(grad, h, zi)
		if primalDual {
			usePrimalDualScalingExp(hs, h, grad, si, zi)
		} else {
			useDualScalingExp(hs, h, mu)
		}
	})
	for _, ci := range c.idxExp {
		if st.alpha[ci] == 0 {
			return false
		}
	}
	return true
}

// useDualScalingExp sets Hs = μ·∇²f*(z).
func useDualScalingExp(hs, h []float64, mu float64) {
	for j := range hs {
		hs[j] = mu * h[j]
	}
}

// usePrimalDualScalingExp applies a secant (BFGS-style) correction to
// μ·H so that Hs·δz = δs for the centrality errors δs = s + μ∇f*(z),
// δz = z + μ∇f(s). When the curvature condition fails the dual scaling
// is kept unchanged.
func usePrimalDualScalingExp(hs, h, gradDual, s, z []float64) {
	mu := (s[0]*z[0] + s[1]*z[1] + s[2]*z[2]) / 3

	var gradPrimal [3]float64
	gradientPrimalExp(s, gradPrimal[:])

	var ds, dz, hdz [3]float64
	for j := 0; j < 3; j++ {
		ds[j] = s[j] + mu*gradDual[j]
		dz[j] = z[j] + mu*gradPrimal[j]
	}

	// hdz = μH·δz, column-major symmetric 3×3
	for r := 0; r < 3; r++ {
		hdz[r] = mu * (h[r]*dz[0] + h[3+r]*dz[1] + h[6+r]*dz[2])
	}

	dsdz := ds[0]*dz[0] + ds[1]*dz[1] + ds[2]*dz[2]
	dzhdz := dz[0]*hdz[0] + dz[1]*hdz[1] + dz[2]*hdz[2]
	if dsdz <= 0 || dzhdz <= 0 {
		useDualScalingExp(hs, h, mu)
		return
	}

	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			hs[col*3+row] = mu*h[col*3+row] + ds[row]*ds[col]/dsdz - hdz[row]*hdz[col]/dzhdz
		}
	}
}

func (c *Composite) getHsExp(st *State, hsblocks []float64) {
	launch(len(c.idxExp), func(i int) {
		blk := slice(hsblocks, c.cones[c.idxExp[i]].Blk)
		copy(blk, st.ExpHs[i*9:i*9+9])
	})
}

func (c *Composite) mulHsExp(st *State, y, x []float64) {
	launch(len(c.idxExp), func(i int) {
		rng := c.cones[c.idxExp[i]].Rng
		xi, yi := slice(x, rng), slice(y, rng)
		hs := st.ExpHs[i*9 : i*9+9]
		for r := 0; r < 3; r++ {
			yi[r] = hs[r]*xi[0] + hs[3+r]*xi[1] + hs[6+r]*xi[2]
		}
	})
}

// affineDsExp uses the iterate itself as the predictor target.
func (c *Composite) affineDsExp(ds, s []float64) {
	launch(len(c.idxExp), func(i int) {
		rng := c.cones[c.idxExp[i]].Rng
		copy(slice(ds, rng), slice(s, rng))
	})
}

// combinedDsShiftExp assembles dₛ = s + σμ·∇f*(z) − η with the
// third-order correction η from the affine step.
func (c *Composite) combinedDsShiftExp(st *State, shift, stepZ, stepS, s, z []float64, sigmaMu float64) {
	launch(len(c.idxExp), func(i int) {
		rng := c.cones[c.idxExp[i]].Rng
		zi, si := slice(z, rng), slice(s, rng)
		grad := st.ExpGrad[i*3 : i*3+3]
		h := st.ExpH[i*9 : i*9+9]
		shifti := slice(shift, rng)

		var eta [3]float64
		higherCorrectionExp(h, zi, eta[:], slice(stepS, rng), slice(stepZ, rng))

		for j := 0; j < 3; j++ {
			shifti[j] = si[j] + grad[j]*sigmaMu - eta[j]
		}
	})
}

// dsFromDzOffsetExp is the identity: the shift already lives in the
// unscaled space for nonsymmetric cones.
func (c *Composite) dsFromDzOffsetExp(out, ds []float64) {
	launch(len(c.idxExp), func(i int) {
		rng := c.cones[c.idxExp[i]].Rng
		copy(slice(out, rng), slice(ds, rng))
	})
}

// backtrackSearchExp halves α (by the configured step factor) until both
// shifted iterates are feasible, or gives up below alphaMin.
func backtrackSearchExp(dz, z, ds, s []float64, alphaInit, alphaMin, step float64) float64 {
	alpha := alphaInit
	var work [3]float64

	for {
		for i := 0; i < 3; i++ {
			work[i] = s[i] + alpha*ds[i]
		}
		if isPrimalFeasibleExp(work[:]) {
			break
		}
		if alpha *= step; alpha < alphaMin {
			return 0
		}
	}
	for {
		for i := 0; i < 3; i++ {
			work[i] = z[i] + alpha*dz[i]
		}
		if isDualFeasibleExp(work[:]) {
			break
		}
		if alpha *= step; alpha < alphaMin {
			return 0
		}
	}
	return alpha
}

func (c *Composite) stepLengthExp(st *State, dz, ds, z, s []float64, alphaMax, alphaMin, step float64) float64 {
	launch(len(c.idxExp), func(i int) {
		ci := c.idxExp[i]
		rng := c.cones[ci].Rng
		st.alpha[ci] = backtrackSearchExp(slice(dz, rng), slice(z, rng), slice(ds, rng), slice(s, rng), alphaMax, alphaMin, step)
	})
	for _, ci := range c.idxExp {
		alphaMax = math.Min(alphaMax, st.alpha[ci])
	}
	return alphaMax
}

func (c *Composite) computeBarrierExp(st *State, z, s, dz, ds []float64, alpha float64) float64 {
	launch(len(c.idxExp), func(i int) {
		ci := c.idxExp[i]
		rng := c.cones[ci].Rng
		zi, dzi := slice(z, rng), slice(dz, rng)
		si, dsi := slice(s, rng), slice(ds, rng)

		var curZ, curS [3]float64
		for j := 0; j < 3; j++ {
			curZ[j] = zi[j] + alpha*dzi[j]
			curS[j] = si[j] + alpha*dsi[j]
		}
		st.alpha[ci] = barrierDualExp(curZ[:]) + barrierPrimalExp(curS[:])
	})
	barrier := 0.0
	for _, ci := range c.idxExp {
		barrier += st.alpha[ci]
	}
	return barrier
}
