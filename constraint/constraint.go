package constraint

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/vmath"
	"github.com/go-gl/mathgl/mgl64"
)

// Constraint is a user joint made of one or more equations
type Constraint interface {
	Bodies() (*actor.RigidBody, *actor.RigidBody)
	// Update refreshes the equations from the current body transforms, once per step
	Update()
	Equations() []EquationInterface
	// CollideConnected tells whether the two bodies still collide with each other
	CollideConnected() bool
}

// ConstraintBase holds what every constraint shares
type ConstraintBase struct {
	BodyA            *actor.RigidBody
	BodyB            *actor.RigidBody
	equations        []EquationInterface
	collideConnected bool
}

func newConstraintBase(bodyA, bodyB *actor.RigidBody, collideConnected, wakeUpBodies bool) ConstraintBase {
	if wakeUpBodies {
		bodyA.WakeUp()
		bodyB.WakeUp()
	}
	return ConstraintBase{
		BodyA:            bodyA,
		BodyB:            bodyB,
		collideConnected: collideConnected,
	}
}

func (c *ConstraintBase) Bodies() (*actor.RigidBody, *actor.RigidBody) {
	return c.BodyA, c.BodyB
}

func (c *ConstraintBase) Equations() []EquationInterface {
	return c.equations
}

func (c *ConstraintBase) CollideConnected() bool {
	return c.collideConnected
}

func (c *ConstraintBase) SetCollideConnected(collide bool) {
	c.collideConnected = collide
}

func (c *ConstraintBase) Enable() {
	for _, eq := range c.equations {
		eq.Base().Enabled = true
	}
}

func (c *ConstraintBase) Disable() {
	for _, eq := range c.equations {
		eq.Base().Enabled = false
	}
}

// ============================================================================
// Point to point
// ============================================================================

// PointToPointConstraint connects a local pivot of A to a local pivot of B
type PointToPointConstraint struct {
	ConstraintBase
	PivotA    mgl64.Vec3
	PivotB    mgl64.Vec3
	EquationX *ContactEquation
	EquationY *ContactEquation
	EquationZ *ContactEquation
}

func NewPointToPointConstraint(bodyA *actor.RigidBody, pivotA mgl64.Vec3, bodyB *actor.RigidBody, pivotB mgl64.Vec3, maxForce float64) *PointToPointConstraint {
	c := &PointToPointConstraint{
		ConstraintBase: newConstraintBase(bodyA, bodyB, true, true),
		PivotA:         pivotA,
		PivotB:         pivotB,
		EquationX:      NewContactEquation(bodyA, bodyB),
		EquationY:      NewContactEquation(bodyA, bodyB),
		EquationZ:      NewContactEquation(bodyA, bodyB),
	}

	for i, eq := range []*ContactEquation{c.EquationX, c.EquationY, c.EquationZ} {
		eq.MinForce = -maxForce
		eq.MaxForce = maxForce
		eq.NI[i] = 1
		c.equations = append(c.equations, eq)
	}

	return c
}

func (c *PointToPointConstraint) Update() {
	ri := c.BodyA.VectorToWorldFrame(c.PivotA)
	rj := c.BodyB.VectorToWorldFrame(c.PivotB)

	for _, eq := range []*ContactEquation{c.EquationX, c.EquationY, c.EquationZ} {
		eq.RI = ri
		eq.RJ = rj
	}
}

// ============================================================================
// Distance
// ============================================================================

// DistanceConstraint keeps the centers of two bodies at a fixed distance
type DistanceConstraint struct {
	ConstraintBase
	Distance         float64
	DistanceEquation *ContactEquation
}

// NewDistanceConstraint uses the current distance between the bodies when distance is negative
func NewDistanceConstraint(bodyA, bodyB *actor.RigidBody, distance, maxForce float64) *DistanceConstraint {
	if distance < 0 {
		distance = bodyB.Transform.Position.Sub(bodyA.Transform.Position).Len()
	}

	c := &DistanceConstraint{
		ConstraintBase:   newConstraintBase(bodyA, bodyB, true, true),
		Distance:         distance,
		DistanceEquation: NewContactEquation(bodyA, bodyB),
	}
	c.DistanceEquation.MinForce = -maxForce
	c.DistanceEquation.MaxForce = maxForce
	c.equations = append(c.equations, c.DistanceEquation)

	return c
}

func (c *DistanceConstraint) Update() {
	eq := c.DistanceEquation
	halfDist := c.Distance * 0.5

	normal := vmath.SafeNormalize(c.BodyB.Transform.Position.Sub(c.BodyA.Transform.Position))
	if normal.LenSqr() == 0 {
		normal = vmath.UnitX
	}
	eq.NI = normal
	eq.RI = normal.Mul(halfDist)
	eq.RJ = normal.Mul(-halfDist)
}

// ============================================================================
// Hinge
// ============================================================================

// HingeConstraint lets two bodies rotate around a shared axis, optionally driven by a motor
type HingeConstraint struct {
	PointToPointConstraint
	AxisA               mgl64.Vec3
	AxisB               mgl64.Vec3
	RotationalEquation1 *RotationalEquation
	RotationalEquation2 *RotationalEquation
	MotorEquation       *RotationalMotorEquation
}

type HingeOptions struct {
	PivotA           mgl64.Vec3
	PivotB           mgl64.Vec3
	AxisA            mgl64.Vec3
	AxisB            mgl64.Vec3
	MaxForce         float64
	CollideConnected bool
}

func NewHingeConstraint(bodyA, bodyB *actor.RigidBody, options HingeOptions) *HingeConstraint {
	maxForce := options.MaxForce
	if maxForce == 0 {
		maxForce = DefaultMaxForce
	}
	axisA := vmath.SafeNormalize(options.AxisA)
	if axisA.LenSqr() == 0 {
		axisA = vmath.UnitX
	}
	axisB := vmath.SafeNormalize(options.AxisB)
	if axisB.LenSqr() == 0 {
		axisB = vmath.UnitX
	}

	c := &HingeConstraint{
		PointToPointConstraint: *NewPointToPointConstraint(bodyA, options.PivotA, bodyB, options.PivotB, maxForce),
		AxisA:                  axisA,
		AxisB:                  axisB,
		RotationalEquation1:    NewRotationalEquation(bodyA, bodyB, maxForce),
		RotationalEquation2:    NewRotationalEquation(bodyA, bodyB, maxForce),
		MotorEquation:          NewRotationalMotorEquation(bodyA, bodyB, maxForce),
	}
	c.collideConnected = options.CollideConnected
	c.MotorEquation.Enabled = false
	c.equations = append(c.equations, c.RotationalEquation1, c.RotationalEquation2, c.MotorEquation)

	return c
}

func (c *HingeConstraint) EnableMotor() {
	c.MotorEquation.Enabled = true
}

func (c *HingeConstraint) DisableMotor() {
	c.MotorEquation.Enabled = false
}

func (c *HingeConstraint) SetMotorSpeed(speed float64) {
	c.MotorEquation.TargetVelocity = speed
}

func (c *HingeConstraint) SetMotorMaxForce(maxForce float64) {
	c.MotorEquation.MaxForce = maxForce
	c.MotorEquation.MinForce = -maxForce
}

func (c *HingeConstraint) Update() {
	c.PointToPointConstraint.Update()

	worldAxisA := c.BodyA.VectorToWorldFrame(c.AxisA)
	worldAxisB := c.BodyB.VectorToWorldFrame(c.AxisB)

	// both tangents of axis A must stay orthogonal to axis B
	c.RotationalEquation1.AxisA, c.RotationalEquation2.AxisA = vmath.Tangents(worldAxisA)
	c.RotationalEquation1.AxisB = worldAxisB
	c.RotationalEquation2.AxisB = worldAxisB

	if c.MotorEquation.Enabled {
		c.MotorEquation.AxisA = worldAxisA
		c.MotorEquation.AxisB = worldAxisB
	}
}

// ============================================================================
// Lock
// ============================================================================

// LockConstraint removes every degree of freedom between two bodies
type LockConstraint struct {
	PointToPointConstraint
	xA, xB, yA, yB, zA, zB mgl64.Vec3
	RotationalEquation1    *RotationalEquation
	RotationalEquation2    *RotationalEquation
	RotationalEquation3    *RotationalEquation
}

// NewLockConstraint freezes the current relative placement, with the pivot halfway between the bodies
func NewLockConstraint(bodyA, bodyB *actor.RigidBody, maxForce float64) *LockConstraint {
	halfWay := bodyA.Transform.Position.Add(bodyB.Transform.Position).Mul(0.5)
	pivotA := bodyA.PointToLocalFrame(halfWay)
	pivotB := bodyB.PointToLocalFrame(halfWay)

	c := &LockConstraint{
		PointToPointConstraint: *NewPointToPointConstraint(bodyA, pivotA, bodyB, pivotB, maxForce),
		xA:                     bodyA.VectorToLocalFrame(vmath.UnitX),
		xB:                     bodyB.VectorToLocalFrame(vmath.UnitX),
		yA:                     bodyA.VectorToLocalFrame(vmath.UnitY),
		yB:                     bodyB.VectorToLocalFrame(vmath.UnitY),
		zA:                     bodyA.VectorToLocalFrame(vmath.UnitZ),
		zB:                     bodyB.VectorToLocalFrame(vmath.UnitZ),
		RotationalEquation1:    NewRotationalEquation(bodyA, bodyB, maxForce),
		RotationalEquation2:    NewRotationalEquation(bodyA, bodyB, maxForce),
		RotationalEquation3:    NewRotationalEquation(bodyA, bodyB, maxForce),
	}
	c.equations = append(c.equations, c.RotationalEquation1, c.RotationalEquation2, c.RotationalEquation3)

	return c
}

func (c *LockConstraint) Update() {
	c.PointToPointConstraint.Update()

	// each pair must stay orthogonal
	c.RotationalEquation1.AxisA = c.BodyA.VectorToWorldFrame(c.xA)
	c.RotationalEquation1.AxisB = c.BodyB.VectorToWorldFrame(c.yB)
	c.RotationalEquation2.AxisA = c.BodyA.VectorToWorldFrame(c.yA)
	c.RotationalEquation2.AxisB = c.BodyB.VectorToWorldFrame(c.zB)
	c.RotationalEquation3.AxisA = c.BodyA.VectorToWorldFrame(c.zA)
	c.RotationalEquation3.AxisB = c.BodyB.VectorToWorldFrame(c.xB)
}
