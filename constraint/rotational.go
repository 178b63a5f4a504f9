package constraint

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// RotationalEquation keeps the world axes AxisA (on body A) and AxisB (on body B) at MaxAngle
// from each other. The default angle keeps them orthogonal.
type RotationalEquation struct {
	Equation
	AxisA    mgl64.Vec3
	AxisB    mgl64.Vec3
	MaxAngle float64
}

func NewRotationalEquation(bodyA, bodyB *actor.RigidBody, maxForce float64) *RotationalEquation {
	return &RotationalEquation{
		Equation: NewEquation(bodyA, bodyB, -maxForce, maxForce),
		AxisA:    mgl64.Vec3{1, 0, 0},
		AxisB:    mgl64.Vec3{0, 1, 0},
		MaxAngle: math.Pi / 2,
	}
}

// ComputeB : g = cos(maxAngle) - ni·nj, G = [0, nj×ni, 0, ni×nj]
func (r *RotationalEquation) ComputeB(h float64) float64 {
	ni, nj := r.AxisA, r.AxisB

	r.JacobianA = JacobianElement{Rotational: nj.Cross(ni)}
	r.JacobianB = JacobianElement{Rotational: ni.Cross(nj)}

	g := math.Cos(r.MaxAngle) - ni.Dot(nj)

	return -g*r.A - r.computeGW()*r.B - h*r.computeGiMf()
}

// RotationalMotorEquation drives the relative angular velocity around the axes to TargetVelocity
type RotationalMotorEquation struct {
	Equation
	AxisA          mgl64.Vec3
	AxisB          mgl64.Vec3
	TargetVelocity float64
}

func NewRotationalMotorEquation(bodyA, bodyB *actor.RigidBody, maxForce float64) *RotationalMotorEquation {
	return &RotationalMotorEquation{
		Equation: NewEquation(bodyA, bodyB, -maxForce, maxForce),
	}
}

// ComputeB : G = [0, axisA, 0, -axisB], no position term
func (m *RotationalMotorEquation) ComputeB(h float64) float64 {
	m.JacobianA = JacobianElement{Rotational: m.AxisA}
	m.JacobianB = JacobianElement{Rotational: m.AxisB.Mul(-1)}

	GW := m.computeGW() - m.TargetVelocity

	return -GW*m.B - h*m.computeGiMf()
}
