package conic

import (
	"fmt"
	"math"

	"github.com/goccy/go-json"
)

// Status reports the outcome of a solve.
type Status int

const (
	Unsolved Status = iota
	Solved
	PrimalInfeasible
	DualInfeasible
	MaxIterations
	MaxTime
	NumericalError
	InsufficientProgress
)

func (s Status) String() string {
	switch s {
	case Unsolved:
		return "UNSOLVED"
	case Solved:
		return "SOLVED"
	case PrimalInfeasible:
		return "PRIMAL_INFEASIBLE"
	case DualInfeasible:
		return "DUAL_INFEASIBLE"
	case MaxIterations:
		return "MAX_ITERATIONS"
	case MaxTime:
		return "MAX_TIME"
	case NumericalError:
		return "NUMERICAL_ERROR"
	case InsufficientProgress:
		return "INSUFFICIENT_PROGRESS"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Solution holds the final iterate and derived values. For infeasible
// problems ObjVal and ObjValDual are NaN. X, Z and S are reported in the
// user's original dimensions even when large second-order cones were
// internally decomposed.
type Solution struct {
	Status     Status    `json:"status"`
	X          []float64 `json:"x"`
	Z          []float64 `json:"z"`
	S          []float64 `json:"s"`
	Tau        float64   `json:"tau"`
	Kappa      float64   `json:"kappa"`
	ObjVal     float64   `json:"obj_val"`
	ObjValDual float64   `json:"obj_val_dual"`
	Iterations int       `json:"iterations"`
	SolveTime  float64   `json:"solve_time_seconds"`
}

// jsonFloat encodes non-finite values as null; plain JSON cannot carry
// the NaN objectives of infeasible problems.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func (s Solution) MarshalJSON() ([]byte, error) {
	type solutionAlias Solution
	return json.Marshal(struct {
		solutionAlias
		ObjVal     jsonFloat `json:"obj_val"`
		ObjValDual jsonFloat `json:"obj_val_dual"`
	}{solutionAlias(s), jsonFloat(s.ObjVal), jsonFloat(s.ObjValDual)})
}
