package conic

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func validProblem() *Problem {
	return &Problem{
		P: &Matrix{
			Rows: 2, Cols: 2,
			ColPtr: []int{0, 1, 3},
			RowVal: []int{0, 0, 1},
			NzVal:  []float64{4, 1, 2},
		},
		Q: []float64{1, 1},
		A: FromDense(3, 2, []float64{
			1, 1,
			1, 0,
			0, 1,
		}),
		B:     []float64{1, 0.7, 0.7},
		Cones: []Cone{ZeroCone(1), NonnegativeCone(2)},
	}
}

func TestProblemValidate(t *testing.T) {
	if err := validProblem().Validate(); err != nil {
		t.Fatal(err)
	}

	p := validProblem()
	p.Q = p.Q[:1]
	if err := p.Validate(); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("short q: %v", err)
	}

	p = validProblem()
	p.Cones = []Cone{NonnegativeCone(4)}
	if err := p.Validate(); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("cones not tiling m: %v", err)
	}

	p = validProblem()
	p.P = FromDense(2, 2, []float64{4, 1, 1, 2})
	if err := p.Validate(); !errors.Is(err, ErrNotUpperTriangle) {
		t.Fatalf("full P accepted: %v", err)
	}

	p = validProblem()
	p.Cones = []Cone{ZeroCone(1), SecondOrderCone(1), NonnegativeCone(1)}
	if err := p.Validate(); !errors.Is(err, ErrUnsupportedCone) {
		t.Fatalf("SOC(1): %v", err)
	}
}

func TestMatrixValidateRejectsDuplicates(t *testing.T) {
	m := &Matrix{
		Rows: 2, Cols: 1,
		ColPtr: []int{0, 2},
		RowVal: []int{1, 1},
		NzVal:  []float64{1, 2},
	}
	if err := m.Validate(); !errors.Is(err, ErrDuplicateEntry) {
		t.Fatalf("duplicates: %v", err)
	}
}

func TestProblemJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := validProblem().WriteProblem(&buf); err != nil {
		t.Fatal(err)
	}
	got, err := ReadProblem(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.A.Nnz() != 4 || len(got.Cones) != 2 {
		t.Fatalf("round trip lost data: %+v", got)
	}
	if got.Cones[0].Type != ZeroConeT || got.Cones[1].Type != NonnegativeConeT {
		t.Fatalf("cones = %v", got.Cones)
	}
}

func TestConeJSONNames(t *testing.T) {
	var buf bytes.Buffer
	p := validProblem()
	p.Cones = []Cone{SecondOrderCone(3), ExponentialCone()}
	p.A = FromDense(6, 2, make([]float64, 12))
	p.B = make([]float64, 6)
	if err := p.WriteProblem(&buf); err != nil {
		t.Fatal(err)
	}
	s := buf.String()
	for _, want := range []string{`"soc"`, `"exp"`} {
		if !strings.Contains(s, want) {
			t.Fatalf("missing %s in %s", want, s)
		}
	}
}

func TestDegree(t *testing.T) {
	tests := []struct {
		cone Cone
		want int
	}{
		{ZeroCone(4), 0},
		{NonnegativeCone(4), 4},
		{SecondOrderCone(9), 1},
		{ExponentialCone(), 3},
	}
	for _, tt := range tests {
		if got := tt.cone.Degree(); got != tt.want {
			t.Fatalf("degree(%v) = %d, want %d", tt.cone, got, tt.want)
		}
	}
}
