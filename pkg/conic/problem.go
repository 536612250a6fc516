package conic

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// Problem is the user-facing data contract:
//
//	minimize   ½ xᵀPx + qᵀx
//	subject to Ax + s = b,  s ∈ K
//
// P is symmetric positive semidefinite with only the upper triangle
// stored; it may be structurally empty (an LP). A is m×n and the cone
// dimensions must tile m exactly.
type Problem struct {
	P     *Matrix   `json:"P"`
	Q     []float64 `json:"q"`
	A     *Matrix   `json:"A"`
	B     []float64 `json:"b"`
	Cones []Cone    `json:"cones"`

	Settings *Settings `json:"settings,omitempty"`
}

// Validate checks the full ingest contract. Violations are fatal at
// construction per the solver's error taxonomy.
func (p *Problem) Validate() error {
	if p.A == nil {
		return fmt.Errorf("%w: A is required", ErrDimensionMismatch)
	}
	if err := p.A.Validate(); err != nil {
		return fmt.Errorf("A: %w", err)
	}
	n := p.A.Cols
	m := p.A.Rows
	if p.P != nil {
		if err := p.P.Validate(); err != nil {
			return fmt.Errorf("P: %w", err)
		}
		if p.P.Rows != n || p.P.Cols != n {
			return fmt.Errorf("%w: P is %dx%d, A has %d columns", ErrDimensionMismatch, p.P.Rows, p.P.Cols, n)
		}
		if !p.P.IsUpperTriangular() {
			return ErrNotUpperTriangle
		}
	}
	if len(p.Q) != n {
		return fmt.Errorf("%w: q has length %d, want %d", ErrDimensionMismatch, len(p.Q), n)
	}
	if len(p.B) != m {
		return fmt.Errorf("%w: b has length %d, want %d", ErrDimensionMismatch, len(p.B), m)
	}
	dim := 0
	for i, c := range p.Cones {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("cone %d: %w", i, err)
		}
		dim += c.Dim
	}
	if dim != m {
		return fmt.Errorf("%w: cones tile %d rows, A has %d", ErrDimensionMismatch, dim, m)
	}
	return nil
}

// ReadProblem decodes a problem from its JSON encoding.
func ReadProblem(r io.Reader) (*Problem, error) {
	var p Problem
	dec := json.NewDecoder(r)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("conic: decode problem: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// WriteProblem encodes a problem as JSON.
func (p *Problem) WriteProblem(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}
