package cone

// Zero-cone primitives: the dual of {0} is all of ℝᵈ, so every operation
// pins the relevant slice to zero and the cone never limits step length.

func slice(v []float64, r Range) []float64 { return v[r.Start:r.End] }

func zeroSlice(v []float64) {
	for i := range v {
		v[i] = 0
	}
}

// scaledUnitShiftZero pins the equality slices regardless of the shift
// amount; the zero cone has no interior to move into.
func (c *Composite) scaledUnitShiftZero(z []float64) {
	launch(len(c.idxZero), func(i int) {
		zeroSlice(slice(z, c.cones[c.idxZero[i]].Rng))
	})
}

func (c *Composite) unitInitializationZero(z, s []float64) {
	launch(len(c.idxZero), func(i int) {
		rng := c.cones[c.idxZero[i]].Rng
		zeroSlice(slice(z, rng))
		zeroSlice(slice(s, rng))
	})
}

func (c *Composite) getHsZero(hsblocks []float64) {
	launch(len(c.idxZero), func(i int) {
		zeroSlice(slice(hsblocks, c.cones[c.idxZero[i]].Blk))
	})
}

func (c *Composite) mulHsZero(y []float64) {
	launch(len(c.idxZero), func(i int) {
		zeroSlice(slice(y, c.cones[c.idxZero[i]].Rng))
	})
}

func (c *Composite) affineDsZero(ds []float64) {
	launch(len(c.idxZero), func(i int) {
		zeroSlice(slice(ds, c.cones[c.idxZero[i]].Rng))
	})
}

func (c *Composite) combinedDsShiftZero(shift []float64) {
	launch(len(c.idxZero), func(i int) {
		zeroSlice(slice(shift, c.cones[c.idxZero[i]].Rng))
	})
}

func (c *Composite) dsFromDzOffsetZero(out []float64) {
	launch(len(c.idxZero), func(i int) {
		zeroSlice(slice(out, c.cones[c.idxZero[i]].Rng))
	})
}
