// Package backend hosts the direct LDLᵀ solver registry. Backends
// register a constructor and the KKT matrix shape they require under a
// method name at init time; the KKT layer looks them up by the
// direct_solve_method setting. Registration happens at program start and
// never again.
package backend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/conifer-solver/conifer/pkg/conic"
)

// ShapeFull is the only matrix shape the KKT assembly produces: both
// triangles stored explicitly.
const ShapeFull = "full"

// DirectLDLSolver factors the KKT matrix and solves against it. The
// matrix passed at construction is shared: UpdateValues and ScaleValues
// mutate its nonzero values in place, Refactor renews the factorization
// from them.
type DirectLDLSolver interface {
	UpdateValues(index []int, values []float64)
	ScaleValues(index []int, scale float64)
	Refactor() bool
	Solve(x, b []float64)
}

// Entry describes a registered backend.
type Entry struct {
	Shape string
	New   func(kkt *conic.Matrix) (DirectLDLSolver, error)
}

var registry = map[string]Entry{}

// Register installs a backend under a method name. It panics on
// duplicates: backends register from init functions and a collision is a
// programming error.
func Register(name string, e Entry) {
	if _, dup := registry[name]; dup {
		panic("backend: duplicate registration for " + name)
	}
	registry[name] = e
}

// Lookup resolves a method name to its backend entry.
func Lookup(name string) (Entry, error) {
	e, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q (available: %s)", conic.ErrUnknownBackend, name, Available())
	}
	return e, nil
}

// Available returns a comma-separated list of registered backend names.
func Available() string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
