// Package linalg provides the sparse CSC primitives underneath the KKT
// assembly: transposition and symmetrization with stable nonzero maps,
// diagonal detection, and matrix-vector products.
package linalg

import (
	"math"

	"github.com/conifer-solver/conifer/pkg/conic"
)

// CountDiagonalEntries reports how many stored entries sit on the diagonal.
func CountDiagonalEntries(m *conic.Matrix) int {
	count := 0
	for j := 0; j < m.Cols; j++ {
		for t := m.ColPtr[j]; t < m.ColPtr[j+1]; t++ {
			if m.RowVal[t] == j {
				count++
			}
		}
	}
	return count
}

// Transpose returns Aᵀ together with a map from each transposed nonzero
// back to its source position in A, so callers can push fresh values
// through without re-sorting.
func Transpose(a *conic.Matrix) (*conic.Matrix, []int) {
	at := conic.NewMatrix(a.Cols, a.Rows, a.Nnz())
	tmap := make([]int, a.Nnz())

	// counts per transposed column (= per row of A)
	for _, r := range a.RowVal {
		at.ColPtr[r+1]++
	}
	for j := 0; j < at.Cols; j++ {
		at.ColPtr[j+1] += at.ColPtr[j]
	}

	cursor := make([]int, at.Cols)
	copy(cursor, at.ColPtr[:at.Cols])
	for j := 0; j < a.Cols; j++ {
		for t := a.ColPtr[j]; t < a.ColPtr[j+1]; t++ {
			r := a.RowVal[t]
			pos := cursor[r]
			cursor[r]++
			at.RowVal[pos] = j
			at.NzVal[pos] = a.NzVal[t]
			tmap[pos] = t
		}
	}
	return at, tmap
}

// SymmetrizeUpper expands an upper-triangle matrix to full symmetric
// storage. The returned maps give, for every source entry, the position
// of its upper copy and of its mirrored lower copy in the result;
// diagonal entries map to the same position twice.
func SymmetrizeUpper(p *conic.Matrix) (full *conic.Matrix, upper, lower []int) {
	n := p.Cols
	nnzDiag := CountDiagonalEntries(p)
	full = conic.NewMatrix(n, n, 2*p.Nnz()-nnzDiag)
	upper = make([]int, p.Nnz())
	lower = make([]int, p.Nnz())

	// pt[j] lists, in column order, the source positions of row-j entries;
	// those become the strict-lower tail of full column j.
	pt, tmap := Transpose(p)

	// counts: upper part + strict-lower mirrors
	for j := 0; j < n; j++ {
		full.ColPtr[j+1] = p.ColPtr[j+1] - p.ColPtr[j]
		for s := pt.ColPtr[j]; s < pt.ColPtr[j+1]; s++ {
			if pt.RowVal[s] > j {
				full.ColPtr[j+1]++
			}
		}
	}
	for j := 0; j < n; j++ {
		full.ColPtr[j+1] += full.ColPtr[j]
	}

	pos := 0
	for j := 0; j < n; j++ {
		for t := p.ColPtr[j]; t < p.ColPtr[j+1]; t++ {
			full.RowVal[pos] = p.RowVal[t]
			full.NzVal[pos] = p.NzVal[t]
			upper[t] = pos
			if p.RowVal[t] == j {
				lower[t] = pos
			}
			pos++
		}
		for s := pt.ColPtr[j]; s < pt.ColPtr[j+1]; s++ {
			if c := pt.RowVal[s]; c > j {
				full.RowVal[pos] = c
				full.NzVal[pos] = pt.NzVal[s]
				lower[tmap[s]] = pos
				pos++
			}
		}
	}
	return full, upper, lower
}

// MulVec computes y = A·x for CSC storage.
func MulVec(y []float64, a *conic.Matrix, x []float64) {
	for i := range y {
		y[i] = 0
	}
	for j := 0; j < a.Cols; j++ {
		xj := x[j]
		if xj == 0 {
			continue
		}
		for t := a.ColPtr[j]; t < a.ColPtr[j+1]; t++ {
			y[a.RowVal[t]] += a.NzVal[t] * xj
		}
	}
}

// MulVecT computes y = Aᵀ·x without materializing the transpose.
func MulVecT(y []float64, a *conic.Matrix, x []float64) {
	for j := 0; j < a.Cols; j++ {
		sum := 0.0
		for t := a.ColPtr[j]; t < a.ColPtr[j+1]; t++ {
			sum += a.NzVal[t] * x[a.RowVal[t]]
		}
		y[j] = sum
	}
}

// SymMulVec computes y = P·x where P stores the upper triangle only.
func SymMulVec(y []float64, p *conic.Matrix, x []float64) {
	for i := range y {
		y[i] = 0
	}
	for j := 0; j < p.Cols; j++ {
		xj := x[j]
		for t := p.ColPtr[j]; t < p.ColPtr[j+1]; t++ {
			r := p.RowVal[t]
			v := p.NzVal[t]
			y[r] += v * xj
			if r != j {
				y[j] += v * x[r]
			}
		}
	}
}

// QuadForm computes xᵀPx for upper-triangle P.
func QuadForm(p *conic.Matrix, x []float64) float64 {
	sum := 0.0
	for j := 0; j < p.Cols; j++ {
		for t := p.ColPtr[j]; t < p.ColPtr[j+1]; t++ {
			r := p.RowVal[t]
			v := p.NzVal[t] * x[r] * x[j]
			if r == j {
				sum += v
			} else {
				sum += 2 * v
			}
		}
	}
	return sum
}

// InfNorm returns max|v| over the slice, ignoring nothing: NaN poisons
// the result so non-finite iterates are caught by the caller.
func InfNorm(v []float64) float64 {
	norm := 0.0
	for _, x := range v {
		a := math.Abs(x)
		if a > norm || math.IsNaN(a) {
			norm = a
		}
	}
	return norm
}

// AllFinite reports whether every element is finite.
func AllFinite(v []float64) bool {
	for _, x := range v {
		if math.IsInf(x, 0) || math.IsNaN(x) {
			return false
		}
	}
	return true
}
