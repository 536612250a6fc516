package cone

import (
	"math"
	"testing"

	"github.com/conifer-solver/conifer/pkg/conic"
)

func newSOCComposite(t *testing.T, dims ...int) (*Composite, *State) {
	t.Helper()
	var cones []conic.Cone
	for _, d := range dims {
		cones = append(cones, conic.SecondOrderCone(d))
	}
	c, err := NewComposite(cones)
	if err != nil {
		t.Fatal(err)
	}
	return c, NewState(c)
}

func TestSOCUnitInitializationAndMargins(t *testing.T) {
	c, st := newSOCComposite(t, 3, 5)
	z := make([]float64, c.Dim())
	s := make([]float64, c.Dim())
	c.UnitInitialization(z, s)

	for _, rng := range []Range{{0, 3}, {3, 8}} {
		zi := slice(z, rng)
		if zi[0] != 1 {
			t.Fatalf("z leading entry = %v", zi[0])
		}
		for _, v := range zi[1:] {
			if v != 0 {
				t.Fatalf("z tail entry = %v", v)
			}
		}
	}
	alphaMin, alphaSum := c.Margins(st, z)
	if alphaMin != 1 || alphaSum != 2 {
		t.Fatalf("margins = (%v, %v), want (1, 2)", alphaMin, alphaSum)
	}
}

func TestSOCUpdateScalingInvariants(t *testing.T) {
	c, st := newSOCComposite(t, 4)
	s := []float64{2.0, 0.3, -0.5, 0.1}
	z := []float64{1.5, 0.2, 0.4, -0.3}

	if !c.UpdateScaling(st, s, z, 1, conic.ScalingDual) {
		t.Fatal("update scaling failed on interior pair")
	}

	// r(λ) > 0 with r(λ) = √r(s)·√r(z): the scaled point carries the
	// geometric mean of the two residuals
	lambda := st.Lambda
	res := socResidual(lambda)
	if res <= 0 {
		t.Fatalf("r(lambda) = %v, want > 0", res)
	}
	ss := sqrtSOCResidual(s)
	zs := sqrtSOCResidual(z)
	if math.Abs(res-ss*zs) > 1e-12*ss*zs {
		t.Fatalf("r(lambda) = %v, want %v", res, ss*zs)
	}
	eta := st.Eta[0]
	if math.Abs(eta-math.Sqrt(ss/zs)) > 10*2.2e-16*eta {
		t.Fatalf("eta = %v, want sqrt(ss/zs) = %v", eta, math.Sqrt(ss/zs))
	}

	// w is a unit hyperbolic vector: w₀² − ‖w̄‖² = 1
	w := st.W
	if res := socResidual(w); math.Abs(res-1) > 1e-12 {
		t.Fatalf("r(w) = %v, want 1", res)
	}

	// NT scaling property: W·z = W⁻ᵀ·s = λ, hence Hs·z = WᵀW·z = s.
	hsz := make([]float64, 4)
	c.MulHs(st, hsz, z)
	// Hs·z must reproduce s: WᵀW z = s at the NT point.
	for j := range hsz {
		if math.Abs(hsz[j]-s[j]) > 1e-12 {
			t.Fatalf("Hs*z = %v, want s = %v", hsz, s)
		}
	}
}

func TestSOCGetHsMatchesMulHs(t *testing.T) {
	c, st := newSOCComposite(t, 3)
	s := []float64{3.0, 1.0, -0.5}
	z := []float64{2.0, -0.4, 0.8}
	if !c.UpdateScaling(st, s, z, 1, conic.ScalingDual) {
		t.Fatal("update scaling failed")
	}

	hs := make([]float64, c.BlockLen())
	c.GetHs(st, hs)

	x := []float64{0.7, -0.2, 1.3}
	want := make([]float64, 3)
	c.MulHs(st, want, x)

	// dense column-major product must agree with the matrix-free kernel
	got := make([]float64, 3)
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			got[row] += hs[col*3+row] * x[col]
		}
	}
	for j := range got {
		if math.Abs(got[j]-want[j]) > 1e-12 {
			t.Fatalf("dense Hs*x = %v, kernel = %v", got, want)
		}
	}
}

func TestSOCStepLength(t *testing.T) {
	c, st := newSOCComposite(t, 3)
	z := []float64{1, 0, 0}
	s := []float64{1, 0, 0}

	// step straight at the boundary: z + α·dz leaves the cone at α = 0.5
	dz := []float64{-2, 0, 0}
	ds := []float64{0, 0, 0}
	alpha := c.StepLength(st, dz, ds, z, s, 1, 1e-10, 0.8)
	if math.Abs(alpha-0.5) > 1e-12 {
		t.Fatalf("alpha = %v, want 0.5", alpha)
	}

	// interior direction: unconstrained up to alphaMax
	dz = []float64{1, 0.1, 0}
	alpha = c.StepLength(st, dz, ds, z, s, 1, 1e-10, 0.8)
	if alpha != 1 {
		t.Fatalf("alpha = %v, want 1", alpha)
	}

	// infeasible current point reports -Inf
	bad := []float64{0.5, 1, 0}
	if got := stepLengthSOCComponent(bad, dz, 1.0); !math.IsInf(got, -1) {
		t.Fatalf("infeasible point step = %v, want -Inf", got)
	}
}

func TestSOCBarrier(t *testing.T) {
	c, st := newSOCComposite(t, 3)
	z := []float64{1, 0, 0}
	s := []float64{1, 0, 0}
	zero := []float64{0, 0, 0}

	if got := c.ComputeBarrier(st, z, s, zero, zero, 0); got != 0 {
		t.Fatalf("barrier at unit point = %v, want 0 (r=1 in both)", got)
	}

	// stepping outside yields +Inf
	dz := []float64{-2, 0, 0}
	if got := c.ComputeBarrier(st, z, s, dz, zero, 0.75); !math.IsInf(got, 1) {
		t.Fatalf("barrier outside cone = %v, want +Inf", got)
	}
}

func TestCombinedShiftReducesToAffineAtZeroStep(t *testing.T) {
	// With zero affine steps and σμ = 0 the corrector target must be
	// exactly λ∘λ, so the offset map returns the same constant term as
	// the affine shortcut (the iterate s).
	c, st := newSOCComposite(t, 4)
	s := []float64{2.0, 0.3, -0.5, 0.1}
	z := []float64{1.5, 0.2, 0.4, -0.3}
	if !c.UpdateScaling(st, s, z, 1, conic.ScalingDual) {
		t.Fatal("update scaling failed")
	}

	shift := make([]float64, 4)
	stepZ := make([]float64, 4)
	stepS := make([]float64, 4)
	c.CombinedDsShift(st, shift, stepZ, stepS, s, z, 0)

	out := make([]float64, 4)
	c.DsFromDzOffset(st, out, shift, z)
	for j := range out {
		if math.Abs(out[j]-s[j]) > 1e-10 {
			t.Fatalf("offset = %v, want s = %v", out, s)
		}
	}
}
