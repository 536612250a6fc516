// Package kkt builds and maintains the augmented KKT system
//
//	[ P   Aᵀ ]
//	[ A  -Hs ]
//
// as a single full CSC matrix with a stable data map, factors it through
// a registered direct LDLᵀ backend with static regularization, and
// performs the per-step solves of the homogeneous embedding including
// the τ/κ elimination.
package kkt

import (
	"github.com/conifer-solver/conifer/internal/cone"
	"github.com/conifer-solver/conifer/internal/linalg"
	"github.com/conifer-solver/conifer/pkg/conic"
)

// FullDataMap records where every updatable family of entries landed in
// the KKT nonzero vector. It is immutable after assembly and lives for
// the solver's lifetime.
type FullDataMap struct {
	P        []int // one per entry of the full-storage P
	A        []int // A block, lower left
	At       []int // Aᵀ block, upper right
	Hsblocks []int // concatenated per-cone block entries
	DiagFull []int // diagonal entry of every column of K
	DiagP    []int // first n entries of DiagFull
}

// AssembleFullKKT builds K from the full-storage P, A and the composite
// cone in two passes: a column count pass and a fill pass that records
// the data map. Structural zeros are inserted on the entire diagonal so
// the diagonal family is contiguous and updatable.
func AssembleFullKKT(pFull, a *conic.Matrix, cones *cone.Composite) (*conic.Matrix, *FullDataMap) {
	n := pFull.Cols
	m := a.Rows
	dim := n + m

	nnzDiagP := linalg.CountDiagonalEntries(pFull)
	nnzK := pFull.Nnz() + (n - nnzDiagP) + 2*a.Nnz() + cones.BlockLen()

	k := conic.NewMatrix(dim, dim, nnzK)
	mp := &FullDataMap{
		P:        make([]int, pFull.Nnz()),
		A:        make([]int, a.Nnz()),
		At:       make([]int, a.Nnz()),
		Hsblocks: make([]int, cones.BlockLen()),
		DiagFull: make([]int, dim),
	}

	at, atmap := linalg.Transpose(a)

	assembleColcounts(k, pFull, a, at, cones)
	assembleFill(k, mp, pFull, a, at, atmap, cones)

	mp.DiagP = mp.DiagFull[:n]
	return k, mp
}

// assembleColcounts accumulates per-column nonzero counts into K.ColPtr,
// using slot j for column j and leaving the final slot zero.
func assembleColcounts(k, pFull, a, at *conic.Matrix, cones *cone.Composite) {
	n := pFull.Cols

	for j := 0; j < n; j++ {
		count := pFull.ColPtr[j+1] - pFull.ColPtr[j]
		if !columnHasDiag(pFull, j) {
			count++
		}
		count += a.ColPtr[j+1] - a.ColPtr[j]
		k.ColPtr[j] = count
	}
	for i := 0; i < a.Rows; i++ {
		k.ColPtr[n+i] = at.ColPtr[i+1] - at.ColPtr[i]
	}
	for _, desc := range cones.Cones() {
		for c := 0; c < desc.Dim; c++ {
			col := n + desc.Rng.Start + c
			if desc.HsIsDiagonal() {
				k.ColPtr[col]++
			} else {
				k.ColPtr[col] += desc.Dim
			}
		}
	}
}

// assembleFill converts the counts to column pointers, fills row indices
// and initial values while recording the data map, and back-shifts the
// pointers to recover the canonical colptr.
func assembleFill(k *conic.Matrix, mp *FullDataMap, pFull, a, at *conic.Matrix, atmap []int, cones *cone.Composite) {
	n := pFull.Cols
	m := a.Rows
	dim := n + m

	colcountToColptr(k)

	// [P with full diagonal] over [A] in the first n columns
	for j := 0; j < n; j++ {
		diagDone := false
		for t := pFull.ColPtr[j]; t < pFull.ColPtr[j+1]; t++ {
			r := pFull.RowVal[t]
			if !diagDone && r >= j {
				if r == j {
					mp.DiagFull[j] = emit(k, j, j, pFull.NzVal[t])
					mp.P[t] = mp.DiagFull[j]
					diagDone = true
					continue
				}
				mp.DiagFull[j] = emit(k, j, j, 0)
				diagDone = true
			}
			mp.P[t] = emit(k, r, j, pFull.NzVal[t])
		}
		if !diagDone {
			mp.DiagFull[j] = emit(k, j, j, 0)
		}
		for t := a.ColPtr[j]; t < a.ColPtr[j+1]; t++ {
			mp.A[t] = emit(k, n+a.RowVal[t], j, a.NzVal[t])
		}
	}

	// Aᵀ block in the upper right
	for i := 0; i < m; i++ {
		for s := at.ColPtr[i]; s < at.ColPtr[i+1]; s++ {
			mp.At[atmap[s]] = emit(k, at.RowVal[s], n+i, at.NzVal[s])
		}
	}

	// Hs blocks in the lower right, structural zeros until the first
	// scaling update
	for _, desc := range cones.Cones() {
		row := n + desc.Rng.Start
		if desc.HsIsDiagonal() {
			for c := 0; c < desc.Dim; c++ {
				pos := emit(k, row+c, row+c, 0)
				mp.Hsblocks[desc.Blk.Start+c] = pos
				mp.DiagFull[row+c] = pos
			}
		} else {
			for c := 0; c < desc.Dim; c++ {
				for r := 0; r < desc.Dim; r++ {
					pos := emit(k, row+r, row+c, 0)
					mp.Hsblocks[desc.Blk.Start+c*desc.Dim+r] = pos
					if r == c {
						mp.DiagFull[row+c] = pos
					}
				}
			}
		}
	}

	backshiftColptrs(k, dim)
}

// emit appends one entry to column col using K.ColPtr as the fill
// cursor, returning the nonzero position.
func emit(k *conic.Matrix, row, col int, val float64) int {
	pos := k.ColPtr[col]
	k.RowVal[pos] = row
	k.NzVal[pos] = val
	k.ColPtr[col]++
	return pos
}

func columnHasDiag(m *conic.Matrix, j int) bool {
	for t := m.ColPtr[j]; t < m.ColPtr[j+1]; t++ {
		if m.RowVal[t] == j {
			return true
		}
	}
	return false
}

func colcountToColptr(k *conic.Matrix) {
	running := 0
	for j := 0; j < k.Cols; j++ {
		count := k.ColPtr[j]
		k.ColPtr[j] = running
		running += count
	}
	k.ColPtr[k.Cols] = running
}

func backshiftColptrs(k *conic.Matrix, dim int) {
	for j := dim; j > 0; j-- {
		k.ColPtr[j] = k.ColPtr[j-1]
	}
	k.ColPtr[0] = 0
}
