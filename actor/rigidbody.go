package actor

import (
	"math"

	"github.com/akmonengine/impulse/vmath"
	"github.com/go-gl/mathgl/mgl64"
)

// BodyType represents the type of rigid body
type BodyType int

const (
	// BodyTypeDynamic bodies are affected by forces, gravity, and collisions
	// They have finite mass and can move freely
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic bodies are immovable and have infinite mass
	// They are not affected by forces or gravity (e.g., ground, walls)
	BodyTypeStatic

	// BodyTypeKinematic bodies move with the velocity they are given, and ignore collisions
	BodyTypeKinematic
)

// SleepState of a body
type SleepState int

const (
	Awake SleepState = iota
	Sleepy
	Sleeping
)

const (
	DefaultSleepSpeedLimit = 0.1
	DefaultSleepTimeLimit  = 1.0
	DefaultDamping         = 0.01
)

// RigidBody represents a rigid body in the physics simulation
type RigidBody struct {
	id int
	// Index in the world body list, -1 while detached
	Index int

	// Spatial properties
	PreviousTransform     Transform
	Transform             Transform
	InterpolatedTransform Transform

	// Linear motion
	Velocity mgl64.Vec3
	Force    mgl64.Vec3

	// Angular motion
	AngularVelocity mgl64.Vec3
	Torque          mgl64.Vec3

	BodyType BodyType
	Material *Material

	mass    float64
	invMass float64
	// Inertia is the diagonal of the local inertia tensor
	Inertia         mgl64.Vec3
	InvInertia      mgl64.Vec3
	InvInertiaWorld mgl64.Mat3

	// Solver working copies, zero for bodies that must not react this step
	InvMassSolve         float64
	InvInertiaWorldSolve mgl64.Mat3
	VLambda              mgl64.Vec3
	WLambda              mgl64.Vec3

	LinearFactor   mgl64.Vec3
	AngularFactor  mgl64.Vec3
	FixedRotation  bool
	LinearDamping  float64
	AngularDamping float64

	CollisionFilterGroup int
	CollisionFilterMask  int
	CollisionResponse    bool

	AllowSleep      bool
	SleepState      SleepState
	SleepSpeedLimit float64
	SleepTimeLimit  float64
	TimeLastSleepy  float64
	// WakeUpAfterNarrowphase is set when a fast partner touched the body during this step
	WakeUpAfterNarrowphase bool

	// Collision shapes with their local offsets and orientations
	Shapes            []Shape
	ShapeOffsets      []mgl64.Vec3
	ShapeOrientations []mgl64.Quat

	aabb           AABB
	boundingRadius float64

	sleepTransitions []SleepState
}

// BodyOption configures a body at construction
type BodyOption func(rb *RigidBody)

func WithPosition(position mgl64.Vec3) BodyOption {
	return func(rb *RigidBody) { rb.Transform.Position = position }
}

func WithQuaternion(quaternion mgl64.Quat) BodyOption {
	return func(rb *RigidBody) { rb.Transform.Quaternion = quaternion }
}

func WithVelocity(velocity mgl64.Vec3) BodyOption {
	return func(rb *RigidBody) { rb.Velocity = velocity }
}

func WithAngularVelocity(angularVelocity mgl64.Vec3) BodyOption {
	return func(rb *RigidBody) { rb.AngularVelocity = angularVelocity }
}

func WithType(bodyType BodyType) BodyOption {
	return func(rb *RigidBody) { rb.BodyType = bodyType }
}

func WithMaterial(material *Material) BodyOption {
	return func(rb *RigidBody) { rb.Material = material }
}

func WithLinearDamping(damping float64) BodyOption {
	return func(rb *RigidBody) { rb.LinearDamping = damping }
}

func WithAngularDamping(damping float64) BodyOption {
	return func(rb *RigidBody) { rb.AngularDamping = damping }
}

func WithAllowSleep(allow bool) BodyOption {
	return func(rb *RigidBody) { rb.AllowSleep = allow }
}

func WithSleepSpeedLimit(limit float64) BodyOption {
	return func(rb *RigidBody) { rb.SleepSpeedLimit = limit }
}

func WithSleepTimeLimit(limit float64) BodyOption {
	return func(rb *RigidBody) { rb.SleepTimeLimit = limit }
}

func WithCollisionFilterGroup(group int) BodyOption {
	return func(rb *RigidBody) { rb.CollisionFilterGroup = group }
}

func WithCollisionFilterMask(mask int) BodyOption {
	return func(rb *RigidBody) { rb.CollisionFilterMask = mask }
}

func WithCollisionResponse(response bool) BodyOption {
	return func(rb *RigidBody) { rb.CollisionResponse = response }
}

func WithFixedRotation(fixed bool) BodyOption {
	return func(rb *RigidBody) { rb.FixedRotation = fixed }
}

func WithLinearFactor(factor mgl64.Vec3) BodyOption {
	return func(rb *RigidBody) { rb.LinearFactor = factor }
}

func WithAngularFactor(factor mgl64.Vec3) BodyOption {
	return func(rb *RigidBody) { rb.AngularFactor = factor }
}

// WithShape attaches a shape at the body origin
func WithShape(shape Shape) BodyOption {
	return func(rb *RigidBody) { rb.attachShape(shape, mgl64.Vec3{}, mgl64.QuatIdent()) }
}

// NewRigidBody creates a detached body.
// A body without mass is static unless a type option says otherwise.
func NewRigidBody(mass float64, opts ...BodyOption) *RigidBody {
	rb := &RigidBody{
		id:                   nextID(),
		Index:                -1,
		Transform:            NewTransform(),
		mass:                 math.Max(0, mass),
		LinearFactor:         mgl64.Vec3{1, 1, 1},
		AngularFactor:        mgl64.Vec3{1, 1, 1},
		LinearDamping:        DefaultDamping,
		AngularDamping:       DefaultDamping,
		CollisionFilterGroup: 1,
		CollisionFilterMask:  -1,
		CollisionResponse:    true,
		AllowSleep:           true,
		SleepSpeedLimit:      DefaultSleepSpeedLimit,
		SleepTimeLimit:       DefaultSleepTimeLimit,
	}
	if mass <= 0 {
		rb.BodyType = BodyTypeStatic
	}

	for _, opt := range opts {
		opt(rb)
	}

	rb.PreviousTransform = rb.Transform
	rb.InterpolatedTransform = rb.Transform
	rb.UpdateMassProperties()
	rb.UpdateBoundingRadius()
	rb.UpdateAABB()

	return rb
}

func (rb *RigidBody) ID() int {
	return rb.id
}

func (rb *RigidBody) Mass() float64 {
	return rb.mass
}

func (rb *RigidBody) InvMass() float64 {
	return rb.invMass
}

func (rb *RigidBody) SetMass(mass float64) {
	rb.mass = math.Max(0, mass)
	rb.UpdateMassProperties()
}

// IsTrigger reports whether the body only detects overlaps
func (rb *RigidBody) IsTrigger() bool {
	return !rb.CollisionResponse
}

// AddShape attaches a shape with a local offset and orientation
func (rb *RigidBody) AddShape(shape Shape, offset mgl64.Vec3, orientation mgl64.Quat) *RigidBody {
	rb.attachShape(shape, offset, orientation)
	rb.UpdateMassProperties()
	rb.UpdateBoundingRadius()
	rb.UpdateAABB()

	return rb
}

func (rb *RigidBody) attachShape(shape Shape, offset mgl64.Vec3, orientation mgl64.Quat) {
	rb.Shapes = append(rb.Shapes, shape)
	rb.ShapeOffsets = append(rb.ShapeOffsets, offset)
	rb.ShapeOrientations = append(rb.ShapeOrientations, orientation)
	shape.Base().body = rb
}

// RemoveShape detaches a shape, returns false if it was not attached
func (rb *RigidBody) RemoveShape(shape Shape) bool {
	for i, s := range rb.Shapes {
		if s != shape {
			continue
		}
		rb.Shapes = append(rb.Shapes[:i], rb.Shapes[i+1:]...)
		rb.ShapeOffsets = append(rb.ShapeOffsets[:i], rb.ShapeOffsets[i+1:]...)
		rb.ShapeOrientations = append(rb.ShapeOrientations[:i], rb.ShapeOrientations[i+1:]...)
		shape.Base().body = nil

		rb.UpdateMassProperties()
		rb.UpdateBoundingRadius()
		rb.UpdateAABB()
		return true
	}
	return false
}

// ShapeWorldTransform returns the world placement of shape i
func (rb *RigidBody) ShapeWorldTransform(i int) Transform {
	return rb.Transform.Compose(rb.ShapeOffsets[i], rb.ShapeOrientations[i])
}

// UpdateMassProperties recomputes inverse mass and inertia from mass and shapes
func (rb *RigidBody) UpdateMassProperties() {
	rb.invMass = 0
	if rb.BodyType == BodyTypeDynamic && rb.mass > 0 {
		rb.invMass = 1.0 / rb.mass
	}

	rb.Inertia = rb.computeLocalInertia()
	rb.InvInertia = mgl64.Vec3{}
	if !rb.FixedRotation && rb.invMass > 0 {
		for i := 0; i < 3; i++ {
			if rb.Inertia[i] > 0 {
				rb.InvInertia[i] = 1.0 / rb.Inertia[i]
			}
		}
	}

	rb.UpdateInertiaWorld()
}

// computeLocalInertia is exact for a single centered shape, otherwise uses the bounding box
func (rb *RigidBody) computeLocalInertia() mgl64.Vec3 {
	if len(rb.Shapes) == 0 {
		return mgl64.Vec3{}
	}
	if len(rb.Shapes) == 1 && rb.ShapeOffsets[0] == (mgl64.Vec3{}) && rb.ShapeOrientations[0] == mgl64.QuatIdent() {
		return rb.Shapes[0].CalculateLocalInertia(rb.mass)
	}

	local := EmptyAABB()
	for i, shape := range rb.Shapes {
		if shape.Type() == ShapeTypePlane {
			continue
		}
		local = local.Extend(shape.CalculateWorldAABB(rb.ShapeOffsets[i], rb.ShapeOrientations[i]))
	}
	if local.Min.X() > local.Max.X() {
		return mgl64.Vec3{}
	}

	return boxInertia(local.Max.Sub(local.Min).Mul(0.5), rb.mass)
}

// UpdateInertiaWorld : I_world^(-1) = R * I_local^(-1) * R^T
func (rb *RigidBody) UpdateInertiaWorld() {
	R := rb.Transform.Quaternion.Mat4().Mat3()
	rb.InvInertiaWorld = R.Mul3(mgl64.Diag3(rb.InvInertia)).Mul3(R.Transpose())
}

// UpdateSolveMassProperties prepares the masses seen by the solver this step
func (rb *RigidBody) UpdateSolveMassProperties() {
	if rb.SleepState == Sleeping || rb.BodyType == BodyTypeKinematic {
		rb.InvMassSolve = 0
		rb.InvInertiaWorldSolve = mgl64.Mat3{}
		return
	}
	rb.InvMassSolve = rb.invMass
	rb.InvInertiaWorldSolve = rb.InvInertiaWorld
}

// UpdateBoundingRadius computes the radius enclosing every shape around the body origin
func (rb *RigidBody) UpdateBoundingRadius() {
	radius := 0.0
	for i, shape := range rb.Shapes {
		r := shape.BoundingSphereRadius()
		if r == math.MaxFloat64 {
			radius = r
			break
		}
		radius = math.Max(radius, rb.ShapeOffsets[i].Len()+r)
	}
	rb.boundingRadius = radius
}

func (rb *RigidBody) BoundingRadius() float64 {
	return rb.boundingRadius
}

// UpdateAABB recomputes the world box of every shape
func (rb *RigidBody) UpdateAABB() {
	rb.aabb = EmptyAABB()
	for i, shape := range rb.Shapes {
		t := rb.ShapeWorldTransform(i)
		rb.aabb = rb.aabb.Extend(shape.CalculateWorldAABB(t.Position, t.Quaternion))
	}
	if len(rb.Shapes) == 0 {
		rb.aabb = AABB{Min: rb.Transform.Position, Max: rb.Transform.Position}
	}
}

// AABB returns the box computed by the last UpdateAABB
func (rb *RigidBody) AABB() AABB {
	return rb.aabb
}

// ============================================================================
// Sleep state machine
// ============================================================================

func (rb *RigidBody) WakeUp() {
	previous := rb.SleepState
	rb.SleepState = Awake
	rb.WakeUpAfterNarrowphase = false
	if previous == Sleeping {
		rb.sleepTransitions = append(rb.sleepTransitions, Awake)
	}
}

func (rb *RigidBody) Sleep() {
	rb.SleepState = Sleeping
	rb.Velocity = mgl64.Vec3{}
	rb.AngularVelocity = mgl64.Vec3{}
	rb.WakeUpAfterNarrowphase = false
	rb.sleepTransitions = append(rb.sleepTransitions, Sleeping)
}

// SleepTick advances the sleep state machine, time being the world time in seconds
func (rb *RigidBody) SleepTick(time float64) {
	if !rb.AllowSleep || rb.BodyType == BodyTypeStatic {
		return
	}

	speedSquared := rb.Velocity.LenSqr() + rb.AngularVelocity.LenSqr()
	limitSquared := rb.SleepSpeedLimit * rb.SleepSpeedLimit

	switch {
	case rb.SleepState == Awake && speedSquared < limitSquared:
		rb.SleepState = Sleepy
		rb.TimeLastSleepy = time
		rb.sleepTransitions = append(rb.sleepTransitions, Sleepy)
	case rb.SleepState == Sleepy && speedSquared > limitSquared:
		rb.WakeUp()
	case rb.SleepState == Sleepy && time-rb.TimeLastSleepy > rb.SleepTimeLimit:
		rb.Sleep()
	}
}

// ConsumeSleepTransitions calls fn for every state entered since the last call
func (rb *RigidBody) ConsumeSleepTransitions(fn func(state SleepState)) {
	for _, state := range rb.sleepTransitions {
		fn(state)
	}
	rb.sleepTransitions = rb.sleepTransitions[:0]
}

// wakeOnInput wakes a sleeping body and restarts the countdown of a sleepy one
func (rb *RigidBody) wakeOnInput() {
	switch rb.SleepState {
	case Sleeping:
		rb.WakeUp()
	case Sleepy:
		rb.SleepState = Awake
	}
}

// ============================================================================
// Forces
// ============================================================================

// ApplyForce applies a world force at a point relative to the center of mass
func (rb *RigidBody) ApplyForce(force, relativePoint mgl64.Vec3) {
	if rb.BodyType != BodyTypeDynamic {
		return
	}
	rb.wakeOnInput()

	rb.Force = rb.Force.Add(force)
	rb.Torque = rb.Torque.Add(relativePoint.Cross(force))
}

// ApplyLocalForce applies a force expressed in the body frame at a local point
func (rb *RigidBody) ApplyLocalForce(localForce, localPoint mgl64.Vec3) {
	rb.ApplyForce(rb.VectorToWorldFrame(localForce), rb.VectorToWorldFrame(localPoint))
}

func (rb *RigidBody) ApplyTorque(torque mgl64.Vec3) {
	if rb.BodyType != BodyTypeDynamic {
		return
	}
	rb.wakeOnInput()

	rb.Torque = rb.Torque.Add(torque)
}

// ApplyImpulse changes the velocities instantly, relativePoint is relative to the center of mass
func (rb *RigidBody) ApplyImpulse(impulse, relativePoint mgl64.Vec3) {
	if rb.BodyType != BodyTypeDynamic {
		return
	}
	rb.wakeOnInput()

	rb.Velocity = rb.Velocity.Add(impulse.Mul(rb.invMass))
	rb.AngularVelocity = rb.AngularVelocity.Add(rb.InvInertiaWorld.Mul3x1(relativePoint.Cross(impulse)))
}

func (rb *RigidBody) ApplyLocalImpulse(localImpulse, localPoint mgl64.Vec3) {
	rb.ApplyImpulse(rb.VectorToWorldFrame(localImpulse), rb.VectorToWorldFrame(localPoint))
}

func (rb *RigidBody) ClearForces() {
	rb.Force = mgl64.Vec3{0, 0, 0}
	rb.Torque = mgl64.Vec3{0, 0, 0}
}

// ============================================================================
// Integration
// ============================================================================

// ApplyDamping : v *= (1 - damping)^dt
func (rb *RigidBody) ApplyDamping(dt float64) {
	if rb.BodyType != BodyTypeDynamic {
		return
	}
	rb.Velocity = rb.Velocity.Mul(math.Pow(1.0-rb.LinearDamping, dt))
	rb.AngularVelocity = rb.AngularVelocity.Mul(math.Pow(1.0-rb.AngularDamping, dt))
}

// Integrate moves the body with semi-implicit Euler
func (rb *RigidBody) Integrate(dt float64, quatNormalize, quatNormalizeFast bool) {
	rb.PreviousTransform = rb.Transform

	if rb.BodyType == BodyTypeStatic || rb.SleepState == Sleeping {
		return
	}

	iMdt := rb.invMass * dt
	rb.Velocity = rb.Velocity.Add(vmath.MulElem(rb.Force.Mul(iMdt), rb.LinearFactor))

	torque := vmath.MulElem(rb.Torque, rb.AngularFactor)
	angularAccel := rb.InvInertiaWorld.Mul3x1(torque)
	rb.AngularVelocity = rb.AngularVelocity.Add(vmath.MulElem(angularAccel.Mul(dt), rb.AngularFactor))

	rb.Transform.Position = rb.Transform.Position.Add(rb.Velocity.Mul(dt))
	rb.Transform.Quaternion = vmath.IntegrateQuat(rb.Transform.Quaternion, rb.AngularVelocity, rb.AngularFactor, dt)

	if quatNormalize {
		if quatNormalizeFast {
			rb.Transform.Quaternion = vmath.NormalizeFast(rb.Transform.Quaternion)
		} else {
			rb.Transform.Quaternion = vmath.NormalizeQuat(rb.Transform.Quaternion)
		}
	}

	rb.UpdateInertiaWorld()
}

// Interpolate blends the previous and current transforms, t in [0, 1]
func (rb *RigidBody) Interpolate(t float64) {
	rb.InterpolatedTransform.Position = vmath.Lerp(rb.PreviousTransform.Position, rb.Transform.Position, t)
	rb.InterpolatedTransform.Quaternion = mgl64.QuatSlerp(rb.PreviousTransform.Quaternion, rb.Transform.Quaternion, t)
}

// ============================================================================
// Frames
// ============================================================================

// VelocityAtWorldPoint returns the velocity of a point attached to the body
func (rb *RigidBody) VelocityAtWorldPoint(worldPoint mgl64.Vec3) mgl64.Vec3 {
	r := worldPoint.Sub(rb.Transform.Position)
	return rb.Velocity.Add(rb.AngularVelocity.Cross(r))
}

func (rb *RigidBody) PointToLocalFrame(worldPoint mgl64.Vec3) mgl64.Vec3 {
	return rb.Transform.PointToLocal(worldPoint)
}

func (rb *RigidBody) PointToWorldFrame(localPoint mgl64.Vec3) mgl64.Vec3 {
	return rb.Transform.PointToWorld(localPoint)
}

func (rb *RigidBody) VectorToLocalFrame(worldVector mgl64.Vec3) mgl64.Vec3 {
	return rb.Transform.VectorToLocal(worldVector)
}

func (rb *RigidBody) VectorToWorldFrame(localVector mgl64.Vec3) mgl64.Vec3 {
	return rb.Transform.VectorToWorld(localVector)
}
