package cone

import (
	"github.com/conifer-solver/conifer/pkg/conic"
)

// Large second-order cones make the NT Hessian a dense d×d block, which
// defeats a sparse LDLᵀ. countSOC and AugmentSOC rewrite each SOC larger
// than sizeSOC into a chain of small cones linked by auxiliary scalars,
// one variable and two constraint rows per link.

// countSOC returns the chain length and the size of the tail cone for
// decomposing a d-dimensional SOC into cones of at most sizeSOC.
// Requires d > sizeSOC and sizeSOC >= 3.
func countSOC(d, sizeSOC int) (numSOC, lastSize int) {
	numel := d
	numSOC = 1
	numel -= sizeSOC - 1
	for numel > sizeSOC-1 {
		numel -= sizeSOC - 2
		numSOC++
	}
	numSOC++
	return numSOC, numel + 1
}

// Augmentation is the rewritten problem together with the bookkeeping
// needed to fold solutions back to the user's dimensions: Keep marks the
// original rows of the augmented row space.
type Augmentation struct {
	P     *conic.Matrix
	Q     []float64
	A     *conic.Matrix
	B     []float64
	Cones []conic.Cone

	Keep     []bool
	OrigN    int
	OrigM    int
	ExtraDim int
}

// AugmentSOC decomposes every SOC of dimension greater than sizeSOC.
// Returns nil when no cone needs rewriting. Cones of size <= sizeSOC and
// all non-SOC cones pass through unchanged, in order.
func AugmentSOC(p *conic.Matrix, q []float64, a *conic.Matrix, b []float64, cones []conic.Cone, sizeSOC int) *Augmentation {
	if sizeSOC < 3 {
		return nil
	}
	extraDim := 0
	for _, c := range cones {
		if c.Type == conic.SecondOrderConeT && c.Dim > sizeSOC {
			num, _ := countSOC(c.Dim, sizeSOC)
			extraDim += num - 1
		}
	}
	if extraDim == 0 {
		return nil
	}

	n := a.Cols
	m := a.Rows
	newN := n + extraDim
	newM := m + 2*extraDim

	// rowMap sends each original row to its augmented position; auxRows
	// lists (row, auxiliary variable) pairs for the -1 link entries.
	rowMap := make([]int, m)
	keep := make([]bool, newM)
	type auxRow struct{ row, variable int }
	var auxRows []auxRow
	var newCones []conic.Cone

	origRow, newRow, auxVar := 0, 0, n
	for _, c := range cones {
		if c.Type != conic.SecondOrderConeT || c.Dim <= sizeSOC {
			for j := 0; j < c.Dim; j++ {
				rowMap[origRow] = newRow
				keep[newRow] = true
				origRow++
				newRow++
			}
			newCones = append(newCones, c)
			continue
		}

		num, last := countSOC(c.Dim, sizeSOC)
		for i := 1; i <= num; i++ {
			take := sizeSOC - 2
			if i == 1 {
				take = sizeSOC - 1
			} else if i == num {
				take = last - 1
			}
			for j := 0; j < take; j++ {
				rowMap[origRow] = newRow
				keep[newRow] = true
				origRow++
				newRow++
			}
			if i < num {
				// link: tail of cone i and head of cone i+1
				auxRows = append(auxRows, auxRow{newRow, auxVar}, auxRow{newRow + 1, auxVar})
				newRow += 2
				auxVar++
				newCones = append(newCones, conic.SecondOrderCone(sizeSOC))
			} else {
				newCones = append(newCones, conic.SecondOrderCone(last))
			}
		}
	}

	// original columns keep their structure with remapped rows; the
	// auxiliary columns carry the two -1 link entries each.
	newA := conic.NewMatrix(newM, newN, a.Nnz()+2*extraDim)
	copy(newA.ColPtr, a.ColPtr)
	for t := range a.RowVal {
		newA.RowVal[t] = rowMap[a.RowVal[t]]
		newA.NzVal[t] = a.NzVal[t]
	}
	pos := a.Nnz()
	for j := 0; j < extraDim; j++ {
		newA.ColPtr[n+j] = pos
		r0 := auxRows[2*j]
		r1 := auxRows[2*j+1]
		newA.RowVal[pos] = r0.row
		newA.NzVal[pos] = -1
		newA.RowVal[pos+1] = r1.row
		newA.NzVal[pos+1] = -1
		pos += 2
	}
	newA.ColPtr[newN] = pos

	newB := make([]float64, newM)
	for r, v := range b {
		newB[rowMap[r]] = v
	}

	newQ := make([]float64, newN)
	copy(newQ, q)

	var newP *conic.Matrix
	if p != nil {
		newP = &conic.Matrix{
			Rows:   newN,
			Cols:   newN,
			ColPtr: make([]int, newN+1),
			RowVal: p.RowVal,
			NzVal:  p.NzVal,
		}
		copy(newP.ColPtr, p.ColPtr)
		for j := n; j <= newN; j++ {
			newP.ColPtr[j] = p.Nnz()
		}
	}

	return &Augmentation{
		P:        newP,
		Q:        newQ,
		A:        newA,
		B:        newB,
		Cones:    newCones,
		Keep:     keep,
		OrigN:    n,
		OrigM:    m,
		ExtraDim: extraDim,
	}
}
