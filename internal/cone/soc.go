package cone

import "math"

// socResidual computes r(z) = z₀² − ‖z̄‖².
func socResidual(z []float64) float64 {
	res := z[0] * z[0]
	for _, v := range z[1:] {
		res -= v * v
	}
	return res
}

// sqrtSOCResidual is √r(z) clamped at zero for boundary points.
func sqrtSOCResidual(z []float64) float64 {
	if res := socResidual(z); res > 0 {
		return math.Sqrt(res)
	}
	return 0
}

// socResidualShifted evaluates r(x + α·dx) without materializing the sum.
func socResidualShifted(x, dx []float64, alpha float64) float64 {
	x0 := x[0] + alpha*dx[0]
	res := x0 * x0
	for j := 1; j < len(x); j++ {
		v := x[j] + alpha*dx[j]
		res -= v * v
	}
	return res
}

func dotTail(x, y []float64) float64 {
	sum := 0.0
	for j := 1; j < len(x); j++ {
		sum += x[j] * y[j]
	}
	return sum
}

// marginsSOC accumulates per-cone margins z₀ − ‖z̄‖ into st.alpha slots
// and folds them into the running (min, clamped sum).
func (c *Composite) marginsSOC(st *State, z []float64, alphaMin, alphaSum float64) (float64, float64) {
	launch(len(c.idxSOC), func(i int) {
		zi := slice(z, c.cones[c.idxSOC[i]].Rng)
		st.alpha[c.idxSOC[i]] = zi[0] - math.Sqrt(dotTail(zi, zi))
	})
	for _, ci := range c.idxSOC {
		a := st.alpha[ci]
		alphaMin = math.Min(alphaMin, a)
		alphaSum += math.Max(0, a)
	}
	return alphaMin, alphaSum
}

func (c *Composite) scaledUnitShiftSOC(z []float64, alpha float64) {
	launch(len(c.idxSOC), func(i int) {
		z[c.cones[c.idxSOC[i]].Rng.Start] += alpha
	})
}

func (c *Composite) unitInitializationSOC(z, s []float64) {
	launch(len(c.idxSOC), func(i int) {
		rng := c.cones[c.idxSOC[i]].Rng
		zi, si := slice(z, rng), slice(s, rng)
		zi[0], si[0] = 1, 1
		for j := 1; j < len(zi); j++ {
			zi[j], si[j] = 0, 0
		}
	})
}

func (c *Composite) setIdentityScalingSOC(st *State) {
	launch(len(c.idxSOC), func(i int) {
		ci := c.idxSOC[i]
		wi := slice(st.W, c.cones[ci].Rng)
		wi[0] = 1
		for j := 1; j < len(wi); j++ {
			wi[j] = 0
		}
		st.Eta[ci] = 1
	})
}

// updateScalingSOC computes the Nesterov–Todd point w, the scale η and
// the scaled point λ from the current (s, z) pair. Both iterates must be
// strictly interior; the caller guarantees this between steps. Per-cone
// success lands in the reduction buffer to keep the kernel race-free.
func (c *Composite) updateScalingSOC(st *State, s, z []float64) bool {
	launch(len(c.idxSOC), func(i int) {
		ci := c.idxSOC[i]
		rng := c.cones[ci].Rng
		zi, si := slice(z, rng), slice(s, rng)
		wi := slice(st.W, rng)
		lambda := slice(st.Lambda, rng)

		st.alpha[ci] = 1
		zscale := sqrtSOCResidual(zi)
		sscale := sqrtSOCResidual(si)
		if zscale <= 0 || sscale <= 0 {
			st.alpha[ci] = 0
			return
		}
		st.Eta[ci] = math.Sqrt(sscale / zscale)

		// unnormalized w = s/ss + Jz/zs
		for k := range wi {
			wi[k] = si[k] / sscale
		}
		wi[0] += zi[0] / zscale
		for j := 1; j < len(wi); j++ {
			wi[j] -= zi[j] / zscale
		}

		wscale := sqrtSOCResidual(wi)
		for j := range wi {
			wi[j] /= wscale
		}
		// recompute the leading entry for hyperbolic normalization
		w1sq := dotTail(wi, wi)
		wi[0] = math.Sqrt(1 + w1sq)

		gamma := 0.5 * wscale
		lambda[0] = gamma

		coef := 1 / (si[0]/sscale + zi[0]/zscale + 2*gamma)
		c1 := (gamma + zi[0]/zscale) / sscale
		c2 := (gamma + si[0]/sscale) / zscale
		for j := 1; j < len(lambda); j++ {
			lambda[j] = coef * (c1*si[j] + c2*zi[j])
		}
		scale := math.Sqrt(sscale * zscale)
		for j := range lambda {
			lambda[j] *= scale
		}
	})
	for _, ci := range c.idxSOC {
		if st.alpha[ci] == 0 {
			return false
		}
	}
	return true
}

// getHsSOC assembles the dense d×d block Hs = η²·(2wwᵀ − J), column-major.
func (c *Composite) getHsSOC(st *State, hsblocks []float64) {
	launch(len(c.idxSOC), func(i int) {
		ci := c.idxSOC[i]
		wi := slice(st.W, c.cones[ci].Rng)
		blk := slice(hsblocks, c.cones[ci].Blk)
		d := len(wi)
		eta2 := st.Eta[ci] * st.Eta[ci]

		hidx := 0
		for col := 0; col < d; col++ {
			wcol := wi[col]
			for row := 0; row < d; row++ {
				blk[hidx] = 2 * wi[row] * wcol
				hidx++
			}
		}
		blk[0] -= 1
		for ind := 1; ind < d; ind++ {
			blk[ind*d+ind] += 1
		}
		for j := range blk {
			blk[j] *= eta2
		}
	})
}

// mulHsSOC computes y = η²·(2⟨w,x⟩·w − Jx) per cone.
func (c *Composite) mulHsSOC(st *State, y, x []float64) {
	launch(len(c.idxSOC), func(i int) {
		ci := c.idxSOC[i]
		rng := c.cones[ci].Rng
		xi, yi := slice(x, rng), slice(y, rng)
		wi := slice(st.W, rng)
		eta2 := st.Eta[ci] * st.Eta[ci]

		cc := 2 * (wi[0]*xi[0] + dotTail(wi, xi))
		yi[0] = -xi[0] + cc*wi[0]
		for j := 1; j < len(yi); j++ {
			yi[j] = xi[j] + cc*wi[j]
		}
		for j := range yi {
			yi[j] *= eta2
		}
	})
}

// affineDsSOC writes ds = λ∘λ = (‖λ‖², 2λ₀λ̄).
func (c *Composite) affineDsSOC(st *State, ds []float64) {
	launch(len(c.idxSOC), func(i int) {
		rng := c.cones[c.idxSOC[i]].Rng
		dsi := slice(ds, rng)
		lambda := slice(st.Lambda, rng)

		dsi[0] = 0
		for _, v := range lambda {
			dsi[0] += v * v
		}
		l0 := lambda[0]
		for j := 1; j < len(dsi); j++ {
			dsi[j] = 2 * l0 * lambda[j]
		}
	})
}

// combinedDsShiftSOC assembles the corrector target
// dₛ = λ∘λ + (WΔz)∘(W⁻ᵀΔs) − σμ·e. The step vectors are scaled in
// place (they are consumed by the subsequent corrector solve).
func (c *Composite) combinedDsShiftSOC(st *State, shift, stepZ, stepS []float64, sigmaMu float64) {
	launch(len(c.idxSOC), func(i int) {
		ci := c.idxSOC[i]
		rng := c.cones[ci].Rng
		zi, si := slice(stepZ, rng), slice(stepS, rng)
		wi := slice(st.W, rng)
		lambda := slice(st.Lambda, rng)
		shifti := slice(shift, rng)
		eta := st.Eta[ci]

		// stepZ ← W·stepZ, using shift as scratch
		tmp := shifti
		copy(tmp, zi)
		zeta := dotTail(wi, tmp)
		cc := tmp[0] + zeta/(1+wi[0])
		zi[0] = eta * (wi[0]*tmp[0] + zeta)
		for j := 1; j < len(zi); j++ {
			zi[j] = eta * (tmp[j] + cc*wi[j])
		}

		// stepS ← W⁻ᵀ·stepS
		copy(tmp, si)
		zeta = dotTail(wi, tmp)
		cc = -tmp[0] + zeta/(1+wi[0])
		si[0] = (wi[0]*tmp[0] - zeta) / eta
		for j := 1; j < len(si); j++ {
			si[j] = (tmp[j] + cc*wi[j]) / eta
		}

		// shift = λ∘λ + ς∘ζ − σμ·e with ς = W⁻ᵀΔs, ζ = WΔz
		val := 0.0
		for j := range si {
			val += si[j] * zi[j]
		}
		lsq := 0.0
		for _, v := range lambda {
			lsq += v * v
		}
		shifti[0] = lsq + val - sigmaMu
		s0, z0 := si[0], zi[0]
		l0 := lambda[0]
		for j := 1; j < len(shifti); j++ {
			shifti[j] = 2*l0*lambda[j] + s0*zi[j] + z0*si[j]
		}
	})
}

// dsFromDzOffsetSOC computes out = Wᵀ(λ \ ds), the constant term of the
// step equation HsΔz + Δs = −out.
func (c *Composite) dsFromDzOffsetSOC(st *State, out, ds, z []float64) {
	launch(len(c.idxSOC), func(i int) {
		ci := c.idxSOC[i]
		rng := c.cones[ci].Rng
		outi, dsi, zi := slice(out, rng), slice(ds, rng), slice(z, rng)
		wi := slice(st.W, rng)
		lambda := slice(st.Lambda, rng)
		eta := st.Eta[ci]

		resz := socResidual(zi)
		l1ds1 := dotTail(lambda, dsi)
		w1ds1 := dotTail(wi, dsi)

		for j := range outi {
			outi[j] = -zi[j]
		}
		outi[0] = zi[0]

		cc := lambda[0]*dsi[0] - l1ds1
		for j := range outi {
			outi[j] *= cc / resz
		}

		outi[0] += eta * w1ds1
		for j := 1; j < len(outi); j++ {
			outi[j] += eta * (dsi[j] + w1ds1/(1+wi[0])*wi[j])
		}
		for j := range outi {
			outi[j] /= lambda[0]
		}
	})
}

// stepLengthSOCComponent finds the largest t ≤ αmax with x + t·y in the
// cone, via the stable quadratic root of r(x + t·y) = 0.
func stepLengthSOCComponent(x, y []float64, alphaMax float64) float64 {
	a := socResidual(y)
	b := 2 * (x[0]*y[0] - dotTail(x, y))
	cc := socResidual(x)
	if cc < 0 {
		return math.Inf(-1)
	}
	d := b*b - 4*a*cc

	if (a > 0 && b > 0) || d < 0 {
		return alphaMax
	}
	if a == 0 {
		return alphaMax
	}
	if cc == 0 {
		if a >= 0 {
			return alphaMax
		}
		return 0
	}

	var t float64
	if b >= 0 {
		t = -b - math.Sqrt(d)
	} else {
		t = -b + math.Sqrt(d)
	}

	r1 := 2 * cc / t
	r2 := t / (2 * a)
	if r1 < 0 {
		r1 = math.MaxFloat64
	}
	if r2 < 0 {
		r2 = math.MaxFloat64
	}
	return math.Min(alphaMax, math.Min(r1, r2))
}

func (c *Composite) stepLengthSOC(st *State, dz, ds, z, s []float64, alphaMax float64) float64 {
	launch(len(c.idxSOC), func(i int) {
		ci := c.idxSOC[i]
		rng := c.cones[ci].Rng
		az := stepLengthSOCComponent(slice(z, rng), slice(dz, rng), alphaMax)
		as := stepLengthSOCComponent(slice(s, rng), slice(ds, rng), alphaMax)
		st.alpha[ci] = math.Min(az, as)
	})
	for _, ci := range c.idxSOC {
		alphaMax = math.Min(alphaMax, st.alpha[ci])
	}
	return alphaMax
}

// computeBarrierSOC sums −½·log(r(s+αds)·r(z+αdz)) over cones; +∞ if any
// shifted iterate leaves the cone.
func (c *Composite) computeBarrierSOC(st *State, z, s, dz, ds []float64, alpha float64) float64 {
	launch(len(c.idxSOC), func(i int) {
		ci := c.idxSOC[i]
		rng := c.cones[ci].Rng
		si, dsi := slice(s, rng), slice(ds, rng)
		zi, dzi := slice(z, rng), slice(dz, rng)
		resS := socResidualShifted(si, dsi, alpha)
		resZ := socResidualShifted(zi, dzi, alpha)
		// a positive residual alone also admits points of −K
		inside := si[0]+alpha*dsi[0] > 0 && zi[0]+alpha*dzi[0] > 0
		if inside && resS > 0 && resZ > 0 {
			st.alpha[ci] = -math.Log(resS*resZ) / 2
		} else {
			st.alpha[ci] = math.Inf(1)
		}
	})
	barrier := 0.0
	for _, ci := range c.idxSOC {
		barrier += st.alpha[ci]
	}
	return barrier
}
