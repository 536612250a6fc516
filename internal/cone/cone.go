// Package cone implements the conic primitives of the interior-point
// method: cone descriptors, the composite cone, and the per-family
// kernels for scaling updates, Hessian products, step assembly, step
// length and barrier evaluation. Kernels are launched once per cone
// family and fan out across goroutine chunks; each work item indexes a
// cone ordinal and operates on its slice of the flat iterate buffers.
package cone

import (
	"fmt"

	"github.com/conifer-solver/conifer/pkg/conic"
)

// Range is a half-open [Start, End) slice descriptor into a flat buffer.
type Range struct {
	Start, End int
}

func (r Range) Len() int { return r.End - r.Start }

// Descriptor is one cone of the composite with its attached ranges:
// Rng positions the cone within the length-m conic vectors, Blk within
// the concatenated Hessian-block storage.
type Descriptor struct {
	Type conic.ConeType
	Dim  int
	Rng  Range
	Blk  Range
}

// HsIsDiagonal reports whether the cone's Hessian block is diagonal.
func (d Descriptor) HsIsDiagonal() bool {
	switch d.Type {
	case conic.SecondOrderConeT, conic.ExponentialConeT:
		return false
	default:
		return true
	}
}

// blockLen is the Hessian-block storage consumed by the cone: Dim for
// diagonal blocks, Dim·Dim for dense SOC blocks, 9 for Exp3.
func (d Descriptor) blockLen() int {
	if d.HsIsDiagonal() {
		return d.Dim
	}
	return d.Dim * d.Dim
}

// Composite is an ordered product of cones with the precomputed index
// arrays the kernels dispatch over. The ranges are closed on creation;
// the cone sequence must not be modified afterwards.
type Composite struct {
	cones    []Descriptor
	m        int
	degree   int
	blockLen int

	idxZero   []int
	idxNonneg []int
	idxSOC    []int
	idxExp    []int
}

// NewComposite validates the cone sequence and attaches ranges.
func NewComposite(cones []conic.Cone) (*Composite, error) {
	c := &Composite{cones: make([]Descriptor, 0, len(cones))}
	for i, spec := range cones {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		d := Descriptor{Type: spec.Type, Dim: spec.Dim}
		d.Rng = Range{c.m, c.m + spec.Dim}
		d.Blk = Range{c.blockLen, c.blockLen + d.blockLen()}
		c.m = d.Rng.End
		c.blockLen = d.Blk.End
		c.degree += spec.Degree()
		c.cones = append(c.cones, d)

		switch spec.Type {
		case conic.ZeroConeT:
			c.idxZero = append(c.idxZero, i)
		case conic.NonnegativeConeT:
			c.idxNonneg = append(c.idxNonneg, i)
		case conic.SecondOrderConeT:
			c.idxSOC = append(c.idxSOC, i)
		case conic.ExponentialConeT:
			c.idxExp = append(c.idxExp, i)
		default:
			return nil, fmt.Errorf("%w: type %d", conic.ErrUnsupportedCone, int(spec.Type))
		}
	}
	return c, nil
}

// Dim is the total conic dimension m.
func (c *Composite) Dim() int { return c.m }

// Degree is the total barrier degree.
func (c *Composite) Degree() int { return c.degree }

// BlockLen is the total Hessian-block storage length.
func (c *Composite) BlockLen() int { return c.blockLen }

// NumCones reports the number of cones in the product.
func (c *Composite) NumCones() int { return len(c.cones) }

// Cones exposes the descriptor sequence for KKT assembly.
func (c *Composite) Cones() []Descriptor { return c.cones }

// IsSymmetric reports whether the product contains only symmetric cones.
func (c *Composite) IsSymmetric() bool { return len(c.idxExp) == 0 }

// State holds the per-cone scaling state on flat buffers: the NT point w,
// scale η and scaled point λ for second-order cones, the w = √(s/z)
// diagonal for nonnegative cones, and the dual gradient and Hessians for
// exponential cones. alpha is reduction workspace, one slot per cone.
type State struct {
	W      []float64
	Lambda []float64
	Eta    []float64

	ExpGrad []float64 // 3 per exponential cone
	ExpH    []float64 // 9 per exponential cone, dual Hessian
	ExpHs   []float64 // 9 per exponential cone, scaling surrogate

	alpha []float64
}

// NewState allocates scaling state sized for the composite.
func NewState(c *Composite) *State {
	return &State{
		W:       make([]float64, c.m),
		Lambda:  make([]float64, c.m),
		Eta:     make([]float64, len(c.cones)),
		ExpGrad: make([]float64, 3*len(c.idxExp)),
		ExpH:    make([]float64, 9*len(c.idxExp)),
		ExpHs:   make([]float64, 9*len(c.idxExp)),
		alpha:   make([]float64, max(1, len(c.cones))),
	}
}
