package cone

import "math"

// Nonnegative-orthant primitives. The NT scaling is diagonal:
// w = √(s/z), λ = √(s∘z), and the Hessian block is w² = s/z.

func (c *Composite) marginsNonneg(st *State, z []float64, alphaMin, alphaSum float64) (float64, float64) {
	launch(len(c.idxNonneg), func(i int) {
		zi := slice(z, c.cones[c.idxNonneg[i]].Rng)
		mn := math.Inf(1)
		for _, v := range zi {
			mn = math.Min(mn, v)
		}
		st.alpha[c.idxNonneg[i]] = mn
	})
	for _, ci := range c.idxNonneg {
		alphaMin = math.Min(alphaMin, st.alpha[ci])
		for _, v := range slice(z, c.cones[ci].Rng) {
			alphaSum += math.Max(0, v)
		}
	}
	return alphaMin, alphaSum
}

func (c *Composite) scaledUnitShiftNonneg(z []float64, alpha float64) {
	launch(len(c.idxNonneg), func(i int) {
		zi := slice(z, c.cones[c.idxNonneg[i]].Rng)
		for j := range zi {
			zi[j] += alpha
		}
	})
}

func (c *Composite) unitInitializationNonneg(z, s []float64) {
	launch(len(c.idxNonneg), func(i int) {
		rng := c.cones[c.idxNonneg[i]].Rng
		zi, si := slice(z, rng), slice(s, rng)
		for j := range zi {
			zi[j], si[j] = 1, 1
		}
	})
}

func (c *Composite) setIdentityScalingNonneg(st *State) {
	launch(len(c.idxNonneg), func(i int) {
		wi := slice(st.W, c.cones[c.idxNonneg[i]].Rng)
		for j := range wi {
			wi[j] = 1
		}
	})
}

func (c *Composite) updateScalingNonneg(st *State, s, z []float64) bool {
	launch(len(c.idxNonneg), func(i int) {
		ci := c.idxNonneg[i]
		rng := c.cones[ci].Rng
		si, zi := slice(s, rng), slice(z, rng)
		wi := slice(st.W, rng)
		lambda := slice(st.Lambda, rng)
		st.alpha[ci] = 1
		for j := range wi {
			if si[j] <= 0 || zi[j] <= 0 {
				st.alpha[ci] = 0
				return
			}
			wi[j] = math.Sqrt(si[j] / zi[j])
			lambda[j] = math.Sqrt(si[j] * zi[j])
		}
	})
	for _, ci := range c.idxNonneg {
		if st.alpha[ci] == 0 {
			return false
		}
	}
	return true
}

func (c *Composite) getHsNonneg(st *State, hsblocks []float64) {
	launch(len(c.idxNonneg), func(i int) {
		ci := c.idxNonneg[i]
		wi := slice(st.W, c.cones[ci].Rng)
		blk := slice(hsblocks, c.cones[ci].Blk)
		for j := range blk {
			blk[j] = wi[j] * wi[j]
		}
	})
}

func (c *Composite) mulHsNonneg(st *State, y, x []float64) {
	launch(len(c.idxNonneg), func(i int) {
		rng := c.cones[c.idxNonneg[i]].Rng
		xi, yi := slice(x, rng), slice(y, rng)
		wi := slice(st.W, rng)
		for j := range yi {
			yi[j] = wi[j] * wi[j] * xi[j]
		}
	})
}

func (c *Composite) affineDsNonneg(st *State, ds []float64) {
	launch(len(c.idxNonneg), func(i int) {
		rng := c.cones[c.idxNonneg[i]].Rng
		dsi := slice(ds, rng)
		lambda := slice(st.Lambda, rng)
		for j := range dsi {
			dsi[j] = lambda[j] * lambda[j]
		}
	})
}

func (c *Composite) combinedDsShiftNonneg(st *State, shift, stepZ, stepS []float64, sigmaMu float64) {
	launch(len(c.idxNonneg), func(i int) {
		rng := c.cones[c.idxNonneg[i]].Rng
		zi, si := slice(stepZ, rng), slice(stepS, rng)
		shifti := slice(shift, rng)
		lambda := slice(st.Lambda, rng)
		for j := range shifti {
			shifti[j] = lambda[j]*lambda[j] + zi[j]*si[j] - sigmaMu
		}
	})
}

func (c *Composite) dsFromDzOffsetNonneg(st *State, out, ds, z []float64) {
	launch(len(c.idxNonneg), func(i int) {
		rng := c.cones[c.idxNonneg[i]].Rng
		outi, dsi, zi := slice(out, rng), slice(ds, rng), slice(z, rng)
		for j := range outi {
			outi[j] = dsi[j] / zi[j]
		}
	})
}

func (c *Composite) stepLengthNonneg(st *State, dz, ds, z, s []float64, alphaMax float64) float64 {
	launch(len(c.idxNonneg), func(i int) {
		rng := c.cones[c.idxNonneg[i]].Rng
		zi, dzi := slice(z, rng), slice(dz, rng)
		si, dsi := slice(s, rng), slice(ds, rng)
		a := alphaMax
		for j := range zi {
			if dzi[j] < 0 {
				a = math.Min(a, -zi[j]/dzi[j])
			}
			if dsi[j] < 0 {
				a = math.Min(a, -si[j]/dsi[j])
			}
		}
		st.alpha[c.idxNonneg[i]] = a
	})
	for _, ci := range c.idxNonneg {
		alphaMax = math.Min(alphaMax, st.alpha[ci])
	}
	return alphaMax
}

func (c *Composite) computeBarrierNonneg(st *State, z, s, dz, ds []float64, alpha float64) float64 {
	launch(len(c.idxNonneg), func(i int) {
		rng := c.cones[c.idxNonneg[i]].Rng
		zi, dzi := slice(z, rng), slice(dz, rng)
		si, dsi := slice(s, rng), slice(ds, rng)
		barrier := 0.0
		for j := range zi {
			zj := zi[j] + alpha*dzi[j]
			sj := si[j] + alpha*dsi[j]
			if zj > 0 && sj > 0 {
				barrier -= math.Log(zj * sj)
			} else {
				barrier = math.Inf(1)
				break
			}
		}
		st.alpha[c.idxNonneg[i]] = barrier
	})
	barrier := 0.0
	for _, ci := range c.idxNonneg {
		barrier += st.alpha[ci]
	}
	return barrier
}
