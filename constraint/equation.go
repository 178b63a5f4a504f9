package constraint

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	DefaultStiffness  = 1e7
	DefaultRelaxation = 4.0
	DefaultMaxForce   = 1e6
)

// JacobianElement is the part of a constraint Jacobian acting on one body
type JacobianElement struct {
	Spatial    mgl64.Vec3
	Rotational mgl64.Vec3
}

func (j JacobianElement) MultiplyVectors(spatial, rotational mgl64.Vec3) float64 {
	return j.Spatial.Dot(spatial) + j.Rotational.Dot(rotational)
}

// EquationInterface is implemented by every equation the solver accepts
type EquationInterface interface {
	Base() *Equation
	// ComputeB returns the right hand side of the equation for the step h
	ComputeB(h float64) float64
}

// Equation is a scalar velocity constraint between two bodies, softened with SPOOK parameters.
type Equation struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody

	MinForce float64
	MaxForce float64

	// SPOOK parameters
	A   float64
	B   float64
	Eps float64

	Stiffness  float64
	Relaxation float64

	JacobianA JacobianElement
	JacobianB JacobianElement

	Enabled bool
	// Multiplier is the last solved force, impulse / dt
	Multiplier float64
	// WarmLambda is the impulse the next solve starts from, clamped into the bounds
	WarmLambda float64
}

func NewEquation(bodyA, bodyB *actor.RigidBody, minForce, maxForce float64) Equation {
	e := Equation{
		BodyA:    bodyA,
		BodyB:    bodyB,
		MinForce: minForce,
		MaxForce: maxForce,
		Enabled:  true,
	}
	e.SetSpookParams(DefaultStiffness, DefaultRelaxation, 1.0/60.0)

	return e
}

func (e *Equation) Base() *Equation {
	return e
}

// SetSpookParams derives a, b and eps from the stiffness k, the relaxation d and the step h
func (e *Equation) SetSpookParams(stiffness, relaxation, h float64) {
	d := relaxation
	k := stiffness

	e.Stiffness = stiffness
	e.Relaxation = relaxation
	e.A = 4.0 / (h * (1 + 4*d))
	e.B = (4.0 * d) / (1 + 4*d)
	e.Eps = 4.0 / (h * h * k * (1 + 4*d))
}

// computeB is the generic right hand side: -Gq*a - GW*b - GiMf*h
func (e *Equation) computeB(h float64) float64 {
	return -e.computeGq()*e.A - e.computeGW()*e.B - e.computeGiMf()*h
}

// computeGq is the constraint violation for equations whose Jacobian acts on positions
func (e *Equation) computeGq() float64 {
	return e.JacobianA.Spatial.Dot(e.BodyA.Transform.Position) + e.JacobianB.Spatial.Dot(e.BodyB.Transform.Position)
}

// computeGW is the constraint velocity
func (e *Equation) computeGW() float64 {
	return e.JacobianA.MultiplyVectors(e.BodyA.Velocity, e.BodyA.AngularVelocity) +
		e.JacobianB.MultiplyVectors(e.BodyB.Velocity, e.BodyB.AngularVelocity)
}

// computeGWLambda is the constraint velocity produced by the impulses of the current solve
func (e *Equation) computeGWLambda() float64 {
	return e.JacobianA.MultiplyVectors(e.BodyA.VLambda, e.BodyA.WLambda) +
		e.JacobianB.MultiplyVectors(e.BodyB.VLambda, e.BodyB.WLambda)
}

// computeGiMf is G * M^-1 * f, the constraint velocity the external forces would add
func (e *Equation) computeGiMf() float64 {
	a, b := e.BodyA, e.BodyB

	return e.JacobianA.MultiplyVectors(a.Force.Mul(a.InvMassSolve), a.InvInertiaWorldSolve.Mul3x1(a.Torque)) +
		e.JacobianB.MultiplyVectors(b.Force.Mul(b.InvMassSolve), b.InvInertiaWorldSolve.Mul3x1(b.Torque))
}

// computeGiMGt is the diagonal term G * M^-1 * G^T
func (e *Equation) computeGiMGt() float64 {
	a, b := e.BodyA, e.BodyB
	ga, gb := e.JacobianA, e.JacobianB

	result := a.InvMassSolve*ga.Spatial.LenSqr() + b.InvMassSolve*gb.Spatial.LenSqr()
	result += a.InvInertiaWorldSolve.Mul3x1(ga.Rotational).Dot(ga.Rotational)
	result += b.InvInertiaWorldSolve.Mul3x1(gb.Rotational).Dot(gb.Rotational)

	return result
}

// computeC is the regularized diagonal term
func (e *Equation) computeC() float64 {
	return e.computeGiMGt() + e.Eps
}

// addToWLambda applies an impulse delta to the solver velocities of both bodies
func (e *Equation) addToWLambda(deltaLambda float64) {
	a, b := e.BodyA, e.BodyB

	a.VLambda = a.VLambda.Add(e.JacobianA.Spatial.Mul(a.InvMassSolve * deltaLambda))
	b.VLambda = b.VLambda.Add(e.JacobianB.Spatial.Mul(b.InvMassSolve * deltaLambda))
	a.WLambda = a.WLambda.Add(a.InvInertiaWorldSolve.Mul3x1(e.JacobianA.Rotational).Mul(deltaLambda))
	b.WLambda = b.WLambda.Add(b.InvInertiaWorldSolve.Mul3x1(e.JacobianB.Rotational).Mul(deltaLambda))
}
