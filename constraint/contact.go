package constraint

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// ContactEquation is a non-penetration constraint.
// NI is the contact normal, pointing out of body A; RI and RJ are the contact points
// relative to the body centers, in world orientation.
type ContactEquation struct {
	Equation
	NI          mgl64.Vec3
	RI          mgl64.Vec3
	RJ          mgl64.Vec3
	Restitution float64

	ShapeA actor.Shape
	ShapeB actor.Shape
}

// NewContactEquation only pushes bodies apart: its force range is [0, 1e6]
func NewContactEquation(bodyA, bodyB *actor.RigidBody) *ContactEquation {
	return &ContactEquation{
		Equation: NewEquation(bodyA, bodyB, 0, DefaultMaxForce),
	}
}

// Reset reconfigures a pooled equation for a new contact
func (c *ContactEquation) Reset(bodyA, bodyB *actor.RigidBody, shapeA, shapeB actor.Shape) {
	c.Equation = NewEquation(bodyA, bodyB, 0, DefaultMaxForce)
	c.ShapeA = shapeA
	c.ShapeB = shapeB
	c.NI = mgl64.Vec3{}
	c.RI = mgl64.Vec3{}
	c.RJ = mgl64.Vec3{}
	c.Restitution = 0
}

// ComputeB : g = n·(xj + rj - xi - ri), G = [-n, -ri×n, n, rj×n]
func (c *ContactEquation) ComputeB(h float64) float64 {
	bi, bj := c.BodyA, c.BodyB
	n := c.NI

	rixn := c.RI.Cross(n)
	rjxn := c.RJ.Cross(n)

	c.JacobianA = JacobianElement{Spatial: n.Mul(-1), Rotational: rixn.Mul(-1)}
	c.JacobianB = JacobianElement{Spatial: n, Rotational: rjxn}

	penetration := bj.Transform.Position.Add(c.RJ).Sub(bi.Transform.Position).Sub(c.RI)
	g := n.Dot(penetration)

	ePlusOne := c.Restitution + 1
	GW := ePlusOne*bj.Velocity.Dot(n) - ePlusOne*bi.Velocity.Dot(n) + bj.AngularVelocity.Dot(rjxn) - bi.AngularVelocity.Dot(rixn)

	return -g*c.A - GW*c.B - h*c.computeGiMf()
}

// Depth returns the penetration along the normal, positive when overlapping
func (c *ContactEquation) Depth() float64 {
	penetration := c.BodyB.Transform.Position.Add(c.RJ).Sub(c.BodyA.Transform.Position).Sub(c.RI)
	return -c.NI.Dot(penetration)
}

// ImpactVelocityAlongNormal returns the relative velocity of the contact points along the normal
func (c *ContactEquation) ImpactVelocityAlongNormal() float64 {
	xi := c.BodyA.Transform.Position.Add(c.RI)
	xj := c.BodyB.Transform.Position.Add(c.RJ)

	vi := c.BodyA.VelocityAtWorldPoint(xi)
	vj := c.BodyB.VelocityAtWorldPoint(xj)

	return c.NI.Dot(vi.Sub(vj))
}

// FrictionEquation limits the sliding along a tangent, within ±slipForce
type FrictionEquation struct {
	Equation
	T  mgl64.Vec3
	RI mgl64.Vec3
	RJ mgl64.Vec3

	ShapeA actor.Shape
	ShapeB actor.Shape
}

func NewFrictionEquation(bodyA, bodyB *actor.RigidBody, slipForce float64) *FrictionEquation {
	return &FrictionEquation{
		Equation: NewEquation(bodyA, bodyB, -slipForce, slipForce),
	}
}

func (f *FrictionEquation) Reset(bodyA, bodyB *actor.RigidBody, slipForce float64) {
	f.Equation = NewEquation(bodyA, bodyB, -slipForce, slipForce)
	f.T = mgl64.Vec3{}
	f.RI = mgl64.Vec3{}
	f.RJ = mgl64.Vec3{}
	f.ShapeA = nil
	f.ShapeB = nil
}

// ComputeB : G = [-t, -ri×t, t, rj×t], no position term
func (f *FrictionEquation) ComputeB(h float64) float64 {
	t := f.T
	f.JacobianA = JacobianElement{Spatial: t.Mul(-1), Rotational: f.RI.Cross(t).Mul(-1)}
	f.JacobianB = JacobianElement{Spatial: t, Rotational: f.RJ.Cross(t)}

	return -f.computeGW()*f.B - h*f.computeGiMf()
}
