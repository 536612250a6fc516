package backend

import (
	"math"
	"testing"

	"github.com/conifer-solver/conifer/pkg/conic"
)

func fullFromDense(t *testing.T, n int, data []float64) *conic.Matrix {
	t.Helper()
	m := conic.FromDense(n, n, data)
	if err := m.Validate(); err != nil {
		t.Fatal(err)
	}
	return m
}

func solveResidual(k *conic.Matrix, x, b []float64) float64 {
	n := k.Cols
	res := 0.0
	r := make([]float64, n)
	copy(r, b)
	for j := 0; j < n; j++ {
		for t := k.ColPtr[j]; t < k.ColPtr[j+1]; t++ {
			r[k.RowVal[t]] -= k.NzVal[t] * x[j]
		}
	}
	for _, v := range r {
		res = math.Max(res, math.Abs(v))
	}
	return res
}

func TestLookupUnknownBackend(t *testing.T) {
	if _, err := Lookup("nosuch"); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if _, err := Lookup("qdldl"); err != nil {
		t.Fatalf("qdldl must be registered: %v", err)
	}
}

func TestQDLDLSolvesIndefiniteSystem(t *testing.T) {
	// quasidefinite KKT-like matrix: SPD upper-left, negative lower-right
	k := fullFromDense(t, 4, []float64{
		4, 1, 1, 0,
		1, 3, 0, 1,
		1, 0, -2, 0,
		0, 1, 0, -1,
	})
	entry, err := Lookup("qdldl")
	if err != nil {
		t.Fatal(err)
	}
	if entry.Shape != ShapeFull {
		t.Fatalf("shape = %q, want %q", entry.Shape, ShapeFull)
	}
	s, err := entry.New(k)
	if err != nil {
		t.Fatal(err)
	}
	b := []float64{1, 2, -1, 0.5}
	x := make([]float64, 4)
	s.Solve(x, b)
	if res := solveResidual(k, x, b); res > 1e-12 {
		t.Fatalf("residual = %v", res)
	}
}

func TestQDLDLRefactorAfterValueUpdate(t *testing.T) {
	k := fullFromDense(t, 3, []float64{
		2, 0, 1,
		0, 3, 0,
		1, 0, -4,
	})
	entry, _ := Lookup("qdldl")
	s, err := entry.New(k)
	if err != nil {
		t.Fatal(err)
	}

	// bump the (0,0) entry through the shared value buffer
	for tpos := k.ColPtr[0]; tpos < k.ColPtr[1]; tpos++ {
		if k.RowVal[tpos] == 0 {
			s.UpdateValues([]int{tpos}, []float64{5})
		}
	}
	if !s.Refactor() {
		t.Fatal("refactor failed")
	}
	b := []float64{1, 1, 1}
	x := make([]float64, 3)
	s.Solve(x, b)
	if res := solveResidual(k, x, b); res > 1e-12 {
		t.Fatalf("residual after refactor = %v", res)
	}
}

func TestQDLDLZeroPivotFails(t *testing.T) {
	// structurally fine but numerically singular: the second pivot
	// cancels to 1 - 1·1 = 0
	k := fullFromDense(t, 2, []float64{
		1, 1,
		1, 1,
	})
	entry, _ := Lookup("qdldl")
	if _, err := entry.New(k); err == nil {
		t.Fatal("expected construction failure on singular matrix")
	}
}

func TestQDLDLMissingDiagonalRejected(t *testing.T) {
	// off-diagonal only: no structural diagonal in column 0
	k := &conic.Matrix{
		Rows: 2, Cols: 2,
		ColPtr: []int{0, 1, 3},
		RowVal: []int{1, 0, 1},
		NzVal:  []float64{1, 1, 2},
	}
	entry, _ := Lookup("qdldl")
	if _, err := entry.New(k); err == nil {
		t.Fatal("expected missing-diagonal rejection")
	}
}
