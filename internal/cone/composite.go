package cone

import (
	"math"

	"github.com/conifer-solver/conifer/pkg/conic"
)

// The composite-level operations dispatch each primitive once per cone
// family over the pre-grouped ordinal arrays; there is no per-cone
// virtual dispatch inside a kernel.

// UnitInitialization sets (z, s) to the interior unit point of each cone:
// e₁ for second-order cones, the all-ones vector for the orthant, the
// central ray for exponential cones, zero for equalities.
func (c *Composite) UnitInitialization(z, s []float64) {
	c.unitInitializationZero(z, s)
	c.unitInitializationNonneg(z, s)
	c.unitInitializationSOC(z, s)
	c.unitInitializationExp(z, s)
}

// SetIdentityScaling primes the scaling state with W = I, used for the
// initialization solve before any scaling update has run.
func (c *Composite) SetIdentityScaling(st *State) {
	c.setIdentityScalingNonneg(st)
	c.setIdentityScalingSOC(st)
	c.setIdentityScalingExp(st)
}

// Margins returns the minimum distance of z to the symmetric cone
// boundaries together with the clamped margin sum. Exponential cones do
// not participate; their iterates are initialized on the central ray.
func (c *Composite) Margins(st *State, z []float64) (float64, float64) {
	alphaMin, alphaSum := math.Inf(1), 0.0
	alphaMin, alphaSum = c.marginsNonneg(st, z, alphaMin, alphaSum)
	alphaMin, alphaSum = c.marginsSOC(st, z, alphaMin, alphaSum)
	return alphaMin, alphaSum
}

// ScaledUnitShift adds α·e to the symmetric cone slices of z and pins
// the equality slices to zero.
func (c *Composite) ScaledUnitShift(z []float64, alpha float64) {
	c.scaledUnitShiftZero(z)
	c.scaledUnitShiftNonneg(z, alpha)
	c.scaledUnitShiftSOC(z, alpha)
}

// UpdateScaling refreshes all per-cone scaling state from the current
// iterate. Returns false when an iterate is no longer strictly interior.
func (c *Composite) UpdateScaling(st *State, s, z []float64, mu float64, strategy conic.ScalingStrategy) bool {
	ok := c.updateScalingNonneg(st, s, z)
	ok = c.updateScalingSOC(st, s, z) && ok
	ok = c.updateScalingExp(st, s, z, mu, strategy == conic.ScalingPrimalDual) && ok
	return ok
}

// GetHs writes the (positive) Hessian blocks into the concatenated block
// storage; the KKT layer negates them per its sign convention.
func (c *Composite) GetHs(st *State, hsblocks []float64) {
	c.getHsZero(hsblocks)
	c.getHsNonneg(st, hsblocks)
	c.getHsSOC(st, hsblocks)
	c.getHsExp(st, hsblocks)
}

// MulHs computes y = Hs·x blockwise.
func (c *Composite) MulHs(st *State, y, x []float64) {
	c.mulHsZero(y)
	c.mulHsNonneg(st, y, x)
	c.mulHsSOC(st, y, x)
	c.mulHsExp(st, y, x)
}

// AffineDs assembles the predictor complementarity target: λ∘λ for
// symmetric cones, the iterate s for exponential cones.
func (c *Composite) AffineDs(st *State, ds, s []float64) {
	c.affineDsZero(ds)
	c.affineDsNonneg(st, ds)
	c.affineDsSOC(st, ds)
	c.affineDsExp(ds, s)
}

// CombinedDsShift assembles the corrector target from the affine step.
// The step vectors are consumed as scratch for the symmetric scaling
// products and are not preserved.
func (c *Composite) CombinedDsShift(st *State, shift, stepZ, stepS, s, z []float64, sigmaMu float64) {
	c.combinedDsShiftZero(shift)
	c.combinedDsShiftNonneg(st, shift, stepZ, stepS, sigmaMu)
	c.combinedDsShiftSOC(st, shift, stepZ, stepS, sigmaMu)
	c.combinedDsShiftExp(st, shift, stepZ, stepS, s, z, sigmaMu)
}

// DsFromDzOffset maps the complementarity target into the constant term
// c of the step equation HsΔz + Δs = −c.
func (c *Composite) DsFromDzOffset(st *State, out, ds, z []float64) {
	c.dsFromDzOffsetZero(out)
	c.dsFromDzOffsetNonneg(st, out, ds, z)
	c.dsFromDzOffsetSOC(st, out, ds, z)
	c.dsFromDzOffsetExp(out, ds)
}

// StepLength finds the largest feasible step for (z+αdz, s+αds) over all
// cones, starting from alphaMax. Exponential cones search by backtracking
// with the given floor and shrink factor.
func (c *Composite) StepLength(st *State, dz, ds, z, s []float64, alphaMax, alphaMin, step float64) float64 {
	alphaMax = c.stepLengthNonneg(st, dz, ds, z, s, alphaMax)
	alphaMax = c.stepLengthSOC(st, dz, ds, z, s, alphaMax)
	alphaMax = c.stepLengthExp(st, dz, ds, z, s, alphaMax, alphaMin, step)
	return alphaMax
}

// ComputeBarrier evaluates the combined log-barrier at the shifted
// iterate; +∞ when any cone is violated.
func (c *Composite) ComputeBarrier(st *State, z, s, dz, ds []float64, alpha float64) float64 {
	barrier := c.computeBarrierNonneg(st, z, s, dz, ds, alpha)
	barrier += c.computeBarrierSOC(st, z, s, dz, ds, alpha)
	barrier += c.computeBarrierExp(st, z, s, dz, ds, alpha)
	return barrier
}
