package backend

import (
	"errors"
	"math"

	"github.com/conifer-solver/conifer/pkg/conic"
)

// The built-in direct solver: a sparse LDLᵀ in the QDLDL style, working
// on the upper triangle of the full KKT matrix through a stable
// full→triangle index map. Symbolic analysis (elimination tree, column
// counts) runs once at construction; Refactor redoes only the numeric
// sweep. No fill-reducing ordering is applied; external backends bring
// their own.

func init() {
	Register("qdldl", Entry{
		Shape: ShapeFull,
		New:   newQDLDL,
	})
}

var errMissingDiagonal = errors.New("backend: KKT column missing its diagonal entry")

type qdldlSolver struct {
	kkt *conic.Matrix
	n   int

	// upper-triangle view of the full matrix
	tp   []int // colptr
	ti   []int // row indices
	tmap []int // triangle position -> full nzval position
	tx   []float64

	// symbolic analysis
	etree []int
	lnz   []int

	// factor L (strictly lower, CSC) and diagonal D
	lp   []int
	li   []int
	lx   []float64
	d    []float64
	dinv []float64

	// elimination workspace
	yVals      []float64
	yMarkers   []bool
	yIdx       []int
	elimBuffer []int
	lNextSpace []int
}

func newQDLDL(kkt *conic.Matrix) (DirectLDLSolver, error) {
	if kkt.Rows != kkt.Cols {
		return nil, errors.New("backend: KKT matrix must be square")
	}
	s := &qdldlSolver{kkt: kkt, n: kkt.Cols}
	if err := s.extractUpper(); err != nil {
		return nil, err
	}
	if err := s.analyze(); err != nil {
		return nil, err
	}
	if !s.Refactor() {
		return nil, errors.New("backend: initial factorization failed")
	}
	return s, nil
}

// extractUpper builds the triangle view; assembly guarantees a full
// structural diagonal, which the factorization depends on.
func (s *qdldlSolver) extractUpper() error {
	n := s.n
	s.tp = make([]int, n+1)
	for j := 0; j < n; j++ {
		count := 0
		hasDiag := false
		for t := s.kkt.ColPtr[j]; t < s.kkt.ColPtr[j+1]; t++ {
			if r := s.kkt.RowVal[t]; r <= j {
				count++
				if r == j {
					hasDiag = true
				}
			}
		}
		if !hasDiag {
			return errMissingDiagonal
		}
		s.tp[j+1] = s.tp[j] + count
	}
	nnz := s.tp[n]
	s.ti = make([]int, nnz)
	s.tmap = make([]int, nnz)
	s.tx = make([]float64, nnz)
	pos := 0
	for j := 0; j < n; j++ {
		for t := s.kkt.ColPtr[j]; t < s.kkt.ColPtr[j+1]; t++ {
			if r := s.kkt.RowVal[t]; r <= j {
				s.ti[pos] = r
				s.tmap[pos] = t
				pos++
			}
		}
	}
	return nil
}

// analyze computes the elimination tree and per-column counts of L.
func (s *qdldlSolver) analyze() error {
	n := s.n
	s.etree = make([]int, n)
	s.lnz = make([]int, n)
	work := make([]int, n)
	for i := range s.etree {
		s.etree[i] = -1
		work[i] = -1
	}
	for j := 0; j < n; j++ {
		work[j] = j
		for p := s.tp[j]; p < s.tp[j+1]; p++ {
			i := s.ti[p]
			if i > j {
				return errors.New("backend: matrix not upper triangular")
			}
			for work[i] != j {
				if s.etree[i] == -1 {
					s.etree[i] = j
				}
				s.lnz[i]++
				work[i] = j
				i = s.etree[i]
			}
		}
	}

	s.lp = make([]int, n+1)
	for i := 0; i < n; i++ {
		s.lp[i+1] = s.lp[i] + s.lnz[i]
	}
	nnzL := s.lp[n]
	s.li = make([]int, nnzL)
	s.lx = make([]float64, nnzL)
	s.d = make([]float64, n)
	s.dinv = make([]float64, n)

	s.yVals = make([]float64, n)
	s.yMarkers = make([]bool, n)
	s.yIdx = make([]int, n)
	s.elimBuffer = make([]int, n)
	s.lNextSpace = make([]int, n)
	return nil
}

func (s *qdldlSolver) UpdateValues(index []int, values []float64) {
	for i, idx := range index {
		s.kkt.NzVal[idx] = values[i]
	}
}

func (s *qdldlSolver) ScaleValues(index []int, scale float64) {
	for _, idx := range index {
		s.kkt.NzVal[idx] *= scale
	}
}

// Refactor gathers the current triangle values and redoes the numeric
// factorization. Returns false on a zero or non-finite pivot.
func (s *qdldlSolver) Refactor() bool {
	for pos, t := range s.tmap {
		s.tx[pos] = s.kkt.NzVal[t]
	}
	return s.factor()
}

func (s *qdldlSolver) factor() bool {
	n := s.n
	copy(s.lNextSpace, s.lp[:n])
	for i := 0; i < n; i++ {
		s.yVals[i] = 0
		s.yMarkers[i] = false
	}

	for k := 0; k < n; k++ {
		nnzY := 0
		s.d[k] = 0

		for p := s.tp[k]; p < s.tp[k+1]; p++ {
			b := s.ti[p]
			if b == k {
				s.d[k] = s.tx[p]
				continue
			}
			s.yVals[b] = s.tx[p]

			// walk the elimination tree collecting the pattern of row k
			next := b
			if !s.yMarkers[next] {
				s.yMarkers[next] = true
				s.elimBuffer[0] = next
				nnzE := 1
				next = s.etree[b]
				for next != -1 && next < k {
					if s.yMarkers[next] {
						break
					}
					s.yMarkers[next] = true
					s.elimBuffer[nnzE] = next
					nnzE++
					next = s.etree[next]
				}
				for nnzE > 0 {
					nnzE--
					s.yIdx[nnzY] = s.elimBuffer[nnzE]
					nnzY++
				}
			}
		}

		for i := nnzY - 1; i >= 0; i-- {
			cidx := s.yIdx[i]
			tmpIdx := s.lNextSpace[cidx]
			yVal := s.yVals[cidx]
			for j := s.lp[cidx]; j < tmpIdx; j++ {
				s.yVals[s.li[j]] -= s.lx[j] * yVal
			}
			s.li[tmpIdx] = k
			s.lx[tmpIdx] = yVal * s.dinv[cidx]
			s.d[k] -= yVal * s.lx[tmpIdx]
			s.lNextSpace[cidx]++
			s.yVals[cidx] = 0
			s.yMarkers[cidx] = false
		}

		if s.d[k] == 0 || math.IsNaN(s.d[k]) || math.IsInf(s.d[k], 0) {
			return false
		}
		s.dinv[k] = 1 / s.d[k]
	}
	return true
}

// Solve computes x = K⁻¹b through the triangular factors.
func (s *qdldlSolver) Solve(x, b []float64) {
	n := s.n
	copy(x, b)
	for k := 0; k < n; k++ {
		for j := s.lp[k]; j < s.lp[k+1]; j++ {
			x[s.li[j]] -= s.lx[j] * x[k]
		}
	}
	for i := 0; i < n; i++ {
		x[i] *= s.dinv[i]
	}
	for k := n - 1; k >= 0; k-- {
		sum := 0.0
		for j := s.lp[k]; j < s.lp[k+1]; j++ {
			sum += s.lx[j] * x[s.li[j]]
		}
		x[k] -= sum
	}
}
