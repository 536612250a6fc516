package conic

import (
	"fmt"

	"github.com/goccy/go-json"
)

// ConeType tags the supported cone families.
type ConeType int

const (
	ZeroConeT ConeType = iota
	NonnegativeConeT
	SecondOrderConeT
	ExponentialConeT
)

func (t ConeType) String() string {
	switch t {
	case ZeroConeT:
		return "zero"
	case NonnegativeConeT:
		return "nonneg"
	case SecondOrderConeT:
		return "soc"
	case ExponentialConeT:
		return "exp"
	default:
		return fmt.Sprintf("ConeType(%d)", int(t))
	}
}

// Cone describes one cone of the Cartesian product K.
type Cone struct {
	Type ConeType
	Dim  int
}

func ZeroCone(dim int) Cone        { return Cone{Type: ZeroConeT, Dim: dim} }
func NonnegativeCone(dim int) Cone { return Cone{Type: NonnegativeConeT, Dim: dim} }
func SecondOrderCone(dim int) Cone { return Cone{Type: SecondOrderConeT, Dim: dim} }
func ExponentialCone() Cone        { return Cone{Type: ExponentialConeT, Dim: 3} }

// Degree is the barrier degree contributed to the central path parameter.
func (c Cone) Degree() int {
	switch c.Type {
	case ZeroConeT:
		return 0
	case NonnegativeConeT:
		return c.Dim
	case SecondOrderConeT:
		return 1
	case ExponentialConeT:
		return 3
	default:
		return 0
	}
}

// Validate checks the per-type dimension rules.
func (c Cone) Validate() error {
	switch c.Type {
	case ZeroConeT, NonnegativeConeT:
		if c.Dim < 1 {
			return fmt.Errorf("%w: %s cone of dimension %d", ErrUnsupportedCone, c.Type, c.Dim)
		}
	case SecondOrderConeT:
		if c.Dim < 2 {
			return fmt.Errorf("%w: second-order cone of dimension %d", ErrUnsupportedCone, c.Dim)
		}
	case ExponentialConeT:
		if c.Dim != 3 {
			return fmt.Errorf("%w: exponential cone of dimension %d", ErrUnsupportedCone, c.Dim)
		}
	default:
		return fmt.Errorf("%w: type %d", ErrUnsupportedCone, int(c.Type))
	}
	return nil
}

type coneJSON struct {
	Type string `json:"type"`
	Dim  int    `json:"dim,omitempty"`
}

func (c Cone) MarshalJSON() ([]byte, error) {
	return json.Marshal(coneJSON{Type: c.Type.String(), Dim: c.Dim})
}

func (c *Cone) UnmarshalJSON(data []byte) error {
	var raw coneJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case "zero":
		*c = ZeroCone(raw.Dim)
	case "nonneg":
		*c = NonnegativeCone(raw.Dim)
	case "soc":
		*c = SecondOrderCone(raw.Dim)
	case "exp":
		*c = ExponentialCone()
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedCone, raw.Type)
	}
	return nil
}
