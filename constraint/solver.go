package constraint

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/vmath"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	DefaultIterations = 10
	DefaultTolerance  = 1e-7
)

// Solver computes the impulses satisfying the queued equations
type Solver interface {
	AddEquation(eq EquationInterface)
	RemoveAllEquations()
	// Solve applies the impulses to the bodies and returns the number of iterations run
	Solve(dt float64, bodies []*actor.RigidBody) int
}

// GSSolver is a projected Gauss-Seidel solver.
// Each iteration sweeps every equation once, and stops early once the total change of the
// multipliers falls under Tolerance. Multipliers start from the WarmLambda of their equation.
type GSSolver struct {
	Iterations int
	Tolerance  float64

	equations []EquationInterface

	// per equation scratch, reused between steps
	lambda []float64
	b      []float64
	invC   []float64
}

func NewGSSolver() *GSSolver {
	return &GSSolver{
		Iterations: DefaultIterations,
		Tolerance:  DefaultTolerance,
	}
}

// AddEquation queues an equation for the next Solve, disabled ones are ignored
func (s *GSSolver) AddEquation(eq EquationInterface) {
	if !eq.Base().Enabled {
		return
	}
	s.equations = append(s.equations, eq)
}

func (s *GSSolver) RemoveAllEquations() {
	clear(s.equations)
	s.equations = s.equations[:0]
}

func (s *GSSolver) Equations() []EquationInterface {
	return s.equations
}

func (s *GSSolver) Solve(dt float64, bodies []*actor.RigidBody) int {
	n := len(s.equations)
	if n == 0 {
		return 0
	}

	for _, body := range bodies {
		body.UpdateSolveMassProperties()
	}

	s.lambda = resize(s.lambda, n)
	s.b = resize(s.b, n)
	s.invC = resize(s.invC, n)

	for i, eq := range s.equations {
		s.b[i] = eq.ComputeB(dt)
		s.invC[i] = 1.0 / eq.Base().computeC()
	}

	for _, body := range bodies {
		body.VLambda = mgl64.Vec3{}
		body.WLambda = mgl64.Vec3{}
	}

	// start from the warm impulses, the sweeps only correct them
	for i, eq := range s.equations {
		e := eq.Base()
		lambda := math.Max(e.MinForce, math.Min(e.MaxForce, e.WarmLambda))
		s.lambda[i] = lambda
		if lambda != 0 {
			e.addToWLambda(lambda)
		}
	}

	toleranceSquared := s.Tolerance * s.Tolerance
	iterations := 0
	for iterations < s.Iterations {
		iterations++
		deltaLambdaTotal := 0.0

		for i, eq := range s.equations {
			e := eq.Base()
			lambda := s.lambda[i]

			GWlambda := e.computeGWLambda()
			deltaLambda := s.invC[i] * (s.b[i] - GWlambda - e.Eps*lambda)

			// clamp the accumulated multiplier into the equation bounds
			if lambda+deltaLambda < e.MinForce {
				deltaLambda = e.MinForce - lambda
			} else if lambda+deltaLambda > e.MaxForce {
				deltaLambda = e.MaxForce - lambda
			}
			s.lambda[i] += deltaLambda
			deltaLambdaTotal += math.Abs(deltaLambda)

			e.addToWLambda(deltaLambda)
		}

		if deltaLambdaTotal*deltaLambdaTotal < toleranceSquared {
			break
		}
	}

	for _, body := range bodies {
		body.Velocity = body.Velocity.Add(vmath.MulElem(body.VLambda, body.LinearFactor))
		body.AngularVelocity = body.AngularVelocity.Add(vmath.MulElem(body.WLambda, body.AngularFactor))
	}

	for i, eq := range s.equations {
		eq.Base().Multiplier = s.lambda[i] / dt
	}

	return iterations
}

func resize(values []float64, n int) []float64 {
	if cap(values) < n {
		return make([]float64, n)
	}
	return values[:n]
}
