package linalg

import (
	"math"
	"testing"

	"github.com/conifer-solver/conifer/pkg/conic"
)

func toDense(m *conic.Matrix) []float64 {
	out := make([]float64, m.Rows*m.Cols)
	for j := 0; j < m.Cols; j++ {
		for t := m.ColPtr[j]; t < m.ColPtr[j+1]; t++ {
			out[m.RowVal[t]*m.Cols+j] = m.NzVal[t]
		}
	}
	return out
}

func TestTransposeRoundTrip(t *testing.T) {
	a := conic.FromDense(3, 4, []float64{
		1, 0, 2, 0,
		0, 3, 0, 4,
		5, 0, 0, 6,
	})
	at, tmap := Transpose(a)
	if at.Rows != 4 || at.Cols != 3 || at.Nnz() != a.Nnz() {
		t.Fatalf("transpose shape %dx%d nnz %d", at.Rows, at.Cols, at.Nnz())
	}
	if err := at.Validate(); err != nil {
		t.Fatal(err)
	}
	dense := toDense(a)
	denseT := toDense(at)
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			if dense[i*4+j] != denseT[j*3+i] {
				t.Fatalf("mismatch at (%d,%d)", i, j)
			}
		}
	}
	for s := range tmap {
		if at.NzVal[s] != a.NzVal[tmap[s]] {
			t.Fatalf("tmap[%d] does not point at matching value", s)
		}
	}
}

func TestSymmetrizeUpper(t *testing.T) {
	// P = [4 1; 1 2] stored as upper triangle
	p := &conic.Matrix{
		Rows: 2, Cols: 2,
		ColPtr: []int{0, 1, 3},
		RowVal: []int{0, 0, 1},
		NzVal:  []float64{4, 1, 2},
	}
	full, upper, lower := SymmetrizeUpper(p)
	if err := full.Validate(); err != nil {
		t.Fatal(err)
	}
	if full.Nnz() != 4 {
		t.Fatalf("full nnz = %d, want 4", full.Nnz())
	}
	dense := toDense(full)
	want := []float64{4, 1, 1, 2}
	for i, w := range want {
		if dense[i] != w {
			t.Fatalf("full[%d] = %v, want %v", i, dense[i], w)
		}
	}
	// pushing values through the maps must land both triangles
	for tpos := range upper {
		full.NzVal[upper[tpos]] = 0
		full.NzVal[lower[tpos]] = 0
	}
	for _, v := range full.NzVal {
		if v != 0 {
			t.Fatal("maps did not cover every full entry")
		}
	}
}

func TestMulVecVariants(t *testing.T) {
	a := conic.FromDense(3, 2, []float64{
		1, 2,
		0, 3,
		4, 0,
	})
	x := []float64{2, -1}
	y := make([]float64, 3)
	MulVec(y, a, x)
	for i, w := range []float64{0, -3, 8} {
		if y[i] != w {
			t.Fatalf("MulVec[%d] = %v, want %v", i, y[i], w)
		}
	}
	xt := []float64{1, 1, 1}
	yt := make([]float64, 2)
	MulVecT(yt, a, xt)
	for i, w := range []float64{5, 5} {
		if yt[i] != w {
			t.Fatalf("MulVecT[%d] = %v, want %v", i, yt[i], w)
		}
	}
}

func TestSymMulVecAndQuadForm(t *testing.T) {
	p := &conic.Matrix{
		Rows: 2, Cols: 2,
		ColPtr: []int{0, 1, 3},
		RowVal: []int{0, 0, 1},
		NzVal:  []float64{4, 1, 2},
	}
	x := []float64{0.3, 0.7}
	y := make([]float64, 2)
	SymMulVec(y, p, x)
	if math.Abs(y[0]-1.9) > 1e-15 || math.Abs(y[1]-1.7) > 1e-15 {
		t.Fatalf("SymMulVec = %v", y)
	}
	q := QuadForm(p, x)
	want := 0.3*1.9 + 0.7*1.7
	if math.Abs(q-want) > 1e-15 {
		t.Fatalf("QuadForm = %v, want %v", q, want)
	}
}

func TestInfNormPoisonedByNaN(t *testing.T) {
	if got := InfNorm([]float64{1, -3, 2}); got != 3 {
		t.Fatalf("InfNorm = %v", got)
	}
	if got := InfNorm([]float64{1, math.NaN(), 2}); !math.IsNaN(got) {
		t.Fatalf("InfNorm should propagate NaN, got %v", got)
	}
	if AllFinite([]float64{1, math.Inf(1)}) {
		t.Fatal("AllFinite missed +Inf")
	}
}
