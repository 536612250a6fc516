package cone

import (
	"math"
	"testing"

	"github.com/conifer-solver/conifer/pkg/conic"
)

func newExpComposite(t *testing.T) (*Composite, *State) {
	t.Helper()
	c, err := NewComposite([]conic.Cone{conic.ExponentialCone()})
	if err != nil {
		t.Fatal(err)
	}
	return c, NewState(c)
}

func TestExpCentralRayFeasibleAfterScalingUpdate(t *testing.T) {
	c, st := newExpComposite(t)
	z := make([]float64, 3)
	s := make([]float64, 3)
	c.UnitInitialization(z, s)

	for j := 0; j < 3; j++ {
		if s[j] != expCentralRay[j] || z[j] != expCentralRay[j] {
			t.Fatalf("unit init = (%v, %v)", s, z)
		}
	}

	mu := (s[0]*z[0] + s[1]*z[1] + s[2]*z[2]) / 4
	if !c.UpdateScaling(st, s, z, mu, conic.ScalingDual) {
		t.Fatal("update scaling failed at the central ray")
	}
	if !isPrimalFeasibleExp(s) {
		t.Fatal("central ray not primal feasible")
	}
	if !isDualFeasibleExp(z) {
		t.Fatal("central ray not dual feasible")
	}
}

func TestExpFeasibilityImpliesFiniteBarrier(t *testing.T) {
	points := [][]float64{
		{-1.0, 0.5, 1.5},
		{-0.1, 1.0, 1.2},
		{expCentralRay[0], expCentralRay[1], expCentralRay[2]},
	}
	for _, s := range points {
		if isPrimalFeasibleExp(s) {
			if b := barrierPrimalExp(s); math.IsInf(b, 0) || math.IsNaN(b) {
				t.Fatalf("primal-feasible s=%v has barrier %v", s, b)
			}
		}
		if isDualFeasibleExp(s) {
			if b := barrierDualExp(s); math.IsInf(b, 0) || math.IsNaN(b) {
				t.Fatalf("dual-feasible z=%v has barrier %v", s, b)
			}
		}
	}
	// infeasible points report +Inf
	bad := []float64{1, -1, -1}
	if b := barrierPrimalExp(bad); !math.IsInf(b, 1) {
		t.Fatalf("infeasible primal barrier = %v", b)
	}
	if b := barrierDualExp(bad); !math.IsInf(b, 1) {
		t.Fatalf("infeasible dual barrier = %v", b)
	}
}

func TestExpDualGradientIsBarrierGradient(t *testing.T) {
	// finite-difference check of the closed-form dual gradient
	z := []float64{-0.8, 0.9, 1.4}
	var grad [3]float64
	var h [9]float64
	updateDualGradHExp(grad[:], h[:], z)

	const eps = 1e-6
	for j := 0; j < 3; j++ {
		zp := []float64{z[0], z[1], z[2]}
		zm := []float64{z[0], z[1], z[2]}
		zp[j] += eps
		zm[j] -= eps
		fd := (barrierDualExp(zp) - barrierDualExp(zm)) / (2 * eps)
		if math.Abs(fd-grad[j]) > 1e-5*math.Max(1, math.Abs(grad[j])) {
			t.Fatalf("grad[%d] = %v, finite difference %v", j, grad[j], fd)
		}
	}
}

func TestExpHessianSolve(t *testing.T) {
	z := []float64{-0.8, 0.9, 1.4}
	var grad [3]float64
	var h [9]float64
	updateDualGradHExp(grad[:], h[:], z)

	var l [9]float64
	if !cholesky3x3Factor(l[:], h[:]) {
		t.Fatal("dual Hessian not positive definite at interior point")
	}
	b := []float64{0.3, -0.2, 0.5}
	var u [3]float64
	cholesky3x3Solve(l[:], b, u[:])
	// residual H·u - b
	for r := 0; r < 3; r++ {
		res := h[r]*u[0] + h[3+r]*u[1] + h[6+r]*u[2] - b[r]
		if math.Abs(res) > 1e-10 {
			t.Fatalf("cholesky solve residual[%d] = %v", r, res)
		}
	}
}

func TestExpStepLengthBacktracks(t *testing.T) {
	c, st := newExpComposite(t)
	z := make([]float64, 3)
	s := make([]float64, 3)
	c.UnitInitialization(z, s)

	// a harmless direction keeps the full step
	dz := []float64{-0.01, 0.01, 0.01}
	ds := []float64{-0.01, 0.01, 0.01}
	alpha := c.StepLength(st, dz, ds, z, s, 1, 1e-10, 0.5)
	if alpha != 1 {
		t.Fatalf("alpha = %v, want 1", alpha)
	}

	// a direction violating s₂ > 0 at full step must backtrack
	ds = []float64{0, -1.2 * s[1], 0}
	alpha = c.StepLength(st, dz, ds, z, s, 1, 1e-10, 0.5)
	if alpha <= 0 || alpha >= 1 {
		t.Fatalf("alpha = %v, want in (0, 1)", alpha)
	}
	trial := []float64{s[0], s[1] + alpha*ds[1], s[2]}
	if !isPrimalFeasibleExp(trial) {
		t.Fatalf("backtracked point infeasible at alpha=%v", alpha)
	}
}

func TestWrightOmega(t *testing.T) {
	// ω(z) satisfies ω + log ω = z
	for _, z := range []float64{0.1, 0.5, 1, 2, 1 + math.Pi, 5, 50, 1e4} {
		w := wrightOmega(z)
		if res := w + math.Log(w) - z; math.Abs(res) > 1e-12*math.Max(1, z) {
			t.Fatalf("omega(%v) = %v, defect %v", z, w, res)
		}
	}
	if !math.IsInf(wrightOmega(-0.5), 1) {
		t.Fatal("negative argument must return +Inf")
	}
}

func TestPrimalDualScalingSecantCondition(t *testing.T) {
	z := []float64{-0.8, 0.9, 1.4}
	s := []float64{-1.2, 0.6, 1.5}
	if !isPrimalFeasibleExp(s) || !isDualFeasibleExp(z) {
		t.Fatal("test points must be interior")
	}
	var grad [3]float64
	var h, hs [9]float64
	updateDualGradHExp(grad[:], h[:], z)
	usePrimalDualScalingExp(hs[:], h[:], grad[:], s, z)

	mu := (s[0]*z[0] + s[1]*z[1] + s[2]*z[2]) / 3
	var gradP [3]float64
	gradientPrimalExp(s, gradP[:])
	var ds, dz [3]float64
	for j := 0; j < 3; j++ {
		ds[j] = s[j] + mu*grad[j]
		dz[j] = z[j] + mu*gradP[j]
	}
	// Hs·δz = δs up to roundoff when the curvature condition holds
	dsdz := ds[0]*dz[0] + ds[1]*dz[1] + ds[2]*dz[2]
	if dsdz <= 0 {
		t.Skip("curvature condition fails for this pair; dual fallback used")
	}
	for r := 0; r < 3; r++ {
		got := hs[r]*dz[0] + hs[3+r]*dz[1] + hs[6+r]*dz[2]
		if math.Abs(got-ds[r]) > 1e-10*math.Max(1, math.Abs(ds[r])) {
			t.Fatalf("secant condition: (Hs dz)[%d] = %v, want %v", r, got, ds[r])
		}
	}
}
