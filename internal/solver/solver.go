package solver

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/conifer-solver/conifer/internal/cone"
	"github.com/conifer-solver/conifer/internal/kkt"
	"github.com/conifer-solver/conifer/internal/logger"
	"github.com/conifer-solver/conifer/pkg/conic"
)

// Solver is one solve in flight. All workspace is allocated at
// construction; Solve runs the interior-point loop to a terminal status.
type Solver struct {
	data     *problemData
	settings conic.Settings

	st  *cone.State
	sys *kkt.System

	vars *kkt.Variables
	step *kkt.Variables
	rhs  *kkt.Variables

	res *residuals
	in  info

	log logger.Logger
}

// New validates and ingests the problem, applies the large-SOC
// decomposition, assembles the KKT system and primes the factorization.
// Input-shape and backend errors surface here and are fatal.
func New(prob *conic.Problem, log logger.Logger) (*Solver, error) {
	if log == nil {
		log = logger.Default()
	}
	settings := conic.DefaultSettings()
	if prob.Settings != nil {
		settings = *prob.Settings
	}

	data, err := newProblemData(prob, settings)
	if err != nil {
		return nil, err
	}
	if data.aug != nil {
		log.Debug("decomposed large second-order cones",
			"extra_vars", data.aug.ExtraDim, "cones", len(data.aug.Cones))
	}

	sys, err := kkt.NewSystem(data.pFull, data.a, data.q, data.b, data.cones, settings)
	if err != nil {
		return nil, err
	}

	return &Solver{
		data:     data,
		settings: settings,
		st:       cone.NewState(data.cones),
		sys:      sys,
		vars:     kkt.NewVariables(data.n, data.m),
		step:     kkt.NewVariables(data.n, data.m),
		rhs:      kkt.NewVariables(data.n, data.m),
		res:      newResiduals(data.n, data.m),
		log:      log,
	}, nil
}

// Solve runs the predictor-corrector loop and returns the solution in
// the user's original dimensions.
func (s *Solver) Solve() *conic.Solution {
	start := time.Now()
	set := &s.settings
	vars := s.vars
	cones := s.data.cones

	s.log.Info("solving", "n", s.data.n, "m", s.data.m,
		"cones", cones.NumCones(), "backend", set.DirectSolveMethod)

	status := conic.Unsolved
	iter := 0

	if !s.initialize() {
		status = conic.NumericalError
	} else {
		for ; iter < set.MaxIter; iter++ {
			s.res.update(s.data, vars)
			s.in.mu = s.res.mu(vars, cones.Degree())
			s.in.update(s.data, vars, s.res)

			s.log.Debug("iteration",
				"iter", iter, "mu", s.in.mu,
				"obj", s.in.objVal, "gap", s.in.gapRel,
				"res_p", s.in.resPrimal, "res_d", s.in.resDual)

			if s.in.checkTermination(s.res, set) {
				status = s.in.status
				break
			}
			if set.TimeLimitSeconds > 0 && time.Since(start).Seconds() > set.TimeLimitSeconds {
				status = conic.MaxTime
				break
			}

			if !cones.UpdateScaling(s.st, vars.S, vars.Z, s.in.mu, set.Scaling) {
				status = conic.NumericalError
				break
			}
			if !s.sys.Update(cones, s.st) {
				status = conic.NumericalError
				break
			}

			// affine predictor
			copy(s.rhs.X, s.res.rx)
			copy(s.rhs.Z, s.res.rz)
			s.rhs.Tau = s.res.rtau
			s.rhs.Kappa = vars.Tau * vars.Kappa
			cones.AffineDs(s.st, s.rhs.S, vars.S)
			if !s.sys.Solve(s.step, s.rhs, vars, cones, s.st, true) {
				status = conic.NumericalError
				break
			}

			alphaAff := s.stepLength(1)
			sigma := (1 - alphaAff) * (1 - alphaAff) * (1 - alphaAff)
			sigmaMu := sigma * s.in.mu

			// combined corrector with Mehrotra correction
			for i := range s.rhs.X {
				s.rhs.X[i] = (1 - sigma) * s.res.rx[i]
			}
			for i := range s.rhs.Z {
				s.rhs.Z[i] = (1 - sigma) * s.res.rz[i]
			}
			s.rhs.Tau = (1 - sigma) * s.res.rtau
			s.rhs.Kappa = vars.Tau*vars.Kappa + s.step.Tau*s.step.Kappa - sigmaMu
			cones.CombinedDsShift(s.st, s.rhs.S, s.step.Z, s.step.S, vars.S, vars.Z, sigmaMu)
			if !s.sys.Solve(s.step, s.rhs, vars, cones, s.st, false) {
				status = conic.NumericalError
				break
			}

			alpha := s.stepLength(1) * set.MaxStepFraction
			if !cones.IsSymmetric() {
				alpha = s.centralityBacktrack(alpha)
			}
			if alpha < set.MinTerminateStepLength {
				status = conic.InsufficientProgress
				break
			}

			floats.AddScaled(vars.X, alpha, s.step.X)
			floats.AddScaled(vars.Z, alpha, s.step.Z)
			floats.AddScaled(vars.S, alpha, s.step.S)
			vars.Tau += alpha * s.step.Tau
			vars.Kappa += alpha * s.step.Kappa
		}
	}
	if status == conic.Unsolved {
		status = conic.MaxIterations
	}

	elapsed := time.Since(start)
	s.log.Info("finished", "status", status.String(),
		"iterations", iter, "obj", s.in.objVal,
		"elapsed", elapsed.String())
	return s.solution(status, iter, elapsed)
}

// initialize computes the starting iterate. With only symmetric cones
// the KKT-based start is shifted into the cone interior; an exponential
// cone forces the unit start on the central rays.
func (s *Solver) initialize() bool {
	vars := s.vars
	vars.Tau, vars.Kappa = 1, 1

	if !s.data.cones.IsSymmetric() {
		for i := range vars.X {
			vars.X[i] = 0
		}
		s.data.cones.UnitInitialization(vars.Z, vars.S)
		return true
	}

	if !s.sys.SolveInitialPoint(vars) {
		return false
	}
	s.shiftToConeInterior(vars.S)
	s.shiftToConeInterior(vars.Z)
	return true
}

func (s *Solver) shiftToConeInterior(v []float64) {
	alphaMin, _ := s.data.cones.Margins(s.st, v)
	shift := 0.0
	if alphaMin < 2.220446049250313e-16 {
		shift = 1 - alphaMin
	}
	s.data.cones.ScaledUnitShift(v, shift)
}

// stepLength limits the step by the τ and κ positivity constraints and
// the cone boundaries.
func (s *Solver) stepLength(alphaMax float64) float64 {
	vars := s.vars
	if s.step.Tau < 0 {
		alphaMax = math.Min(alphaMax, -vars.Tau/s.step.Tau)
	}
	if s.step.Kappa < 0 {
		alphaMax = math.Min(alphaMax, -vars.Kappa/s.step.Kappa)
	}
	return s.data.cones.StepLength(s.st, s.step.Z, s.step.S, vars.Z, vars.S,
		alphaMax, s.settings.MinTerminateStepLength, s.settings.LinesearchBacktrackStep)
}

// centralityBacktrack shrinks the combined step until the normalized
// barrier certifies the trial point is inside the central-path
// neighbourhood; needed only when nonsymmetric cones are present.
func (s *Solver) centralityBacktrack(alpha float64) float64 {
	set := &s.settings
	vars := s.vars
	centralCoef := float64(s.data.cones.Degree() + 1)

	for alpha > set.MinTerminateStepLength {
		tau := vars.Tau + alpha*s.step.Tau
		kappa := vars.Kappa + alpha*s.step.Kappa

		dot := 0.0
		for i := range vars.S {
			dot += (vars.S[i] + alpha*s.step.S[i]) * (vars.Z[i] + alpha*s.step.Z[i])
		}
		muFull := (dot + tau*kappa) / centralCoef

		barrier := centralCoef*math.Log(muFull) - math.Log(tau*kappa) +
			s.data.cones.ComputeBarrier(s.st, vars.Z, vars.S, s.step.Z, s.step.S, alpha)
		if barrier < 1 {
			break
		}
		alpha *= set.LinesearchBacktrackStep
	}
	return alpha
}

// solution maps the final iterate back to the user's dimensions. The
// scaled point x/τ is reported for solved and partially-solved runs;
// infeasible statuses report the raw certificate with NaN objectives.
func (s *Solver) solution(status conic.Status, iters int, elapsed time.Duration) *conic.Solution {
	vars := s.vars
	sol := &conic.Solution{
		Status:     status,
		Tau:        vars.Tau,
		Kappa:      vars.Kappa,
		Iterations: iters,
		SolveTime:  elapsed.Seconds(),
	}

	x := append([]float64{}, vars.X...)
	z := append([]float64{}, vars.Z...)
	sv := append([]float64{}, vars.S...)

	switch status {
	case conic.PrimalInfeasible, conic.DualInfeasible:
		sol.ObjVal = math.NaN()
		sol.ObjValDual = math.NaN()
	default:
		inv := 1 / vars.Tau
		floats.Scale(inv, x)
		floats.Scale(inv, z)
		floats.Scale(inv, sv)
		sol.ObjVal = s.in.objVal
		sol.ObjValDual = s.in.objValDual
	}

	if aug := s.data.aug; aug != nil {
		sol.X = x[:aug.OrigN]
		sol.Z = make([]float64, 0, aug.OrigM)
		sol.S = make([]float64, 0, aug.OrigM)
		for r, keep := range aug.Keep {
			if keep {
				sol.Z = append(sol.Z, z[r])
				sol.S = append(sol.S, sv[r])
			}
		}
	} else {
		sol.X = x
		sol.Z = z
		sol.S = sv
	}
	return sol
}
