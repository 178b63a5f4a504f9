package impulse

import (
	"context"
	"log/slog"
	"math"
	"slices"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/constraint"
	"github.com/akmonengine/impulse/narrowphase"
	"github.com/akmonengine/impulse/raycast"
	"github.com/go-gl/mathgl/mgl64"
)

// Subsystem is updated at the beginning of every step, after gravity is applied
type Subsystem interface {
	Update(dt float64)
}

// shapeContact is a shape with the body it belongs to
type shapeContact struct {
	shape actor.Shape
	body  *actor.RigidBody
}

// World owns the bodies, the constraints and the collision pipeline.
// A World is not safe for concurrent use.
type World struct {
	Config Config

	// List of all rigid bodies in the world, body.Index being the position in this list
	Bodies      []*actor.RigidBody
	Constraints []constraint.Constraint

	Broadphase  Broadphase
	Narrowphase *narrowphase.Narrowphase
	Solver      constraint.Solver

	ContactMaterials *actor.ContactMaterialTable
	DefaultMaterial  *actor.Material
	// DefaultContactMaterial is used between materials without an entry in ContactMaterials
	DefaultContactMaterial *actor.ContactMaterial

	// Time is the simulated time in seconds
	Time       float64
	StepNumber int
	// LastIterations is the number of solver iterations of the last step
	LastIterations int

	Logger *slog.Logger

	accumulator float64

	collisionMatrix *CollisionMatrix
	bodyOverlaps    OverlapKeeper[*actor.RigidBody]
	shapeOverlaps   OverlapKeeper[shapeContact]
	bodiesByID      map[int]*actor.RigidBody
	subsystems      []Subsystem
	events          Events

	// scratch, reused between steps
	pairsA, pairsB []*actor.RigidBody
	contacts       []*constraint.ContactEquation
	bodyAdded      []Overlap[*actor.RigidBody]
	bodyRemoved    []Overlap[*actor.RigidBody]
	shapeAdded     []Overlap[shapeContact]
	shapeRemoved   []Overlap[shapeContact]
	rayBodies      []*actor.RigidBody
}

// NewWorld validates the config and builds an empty world
func NewWorld(config Config) (*World, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	broadphase := config.Broadphase
	if broadphase == nil {
		broadphase = &NaiveBroadphase{}
	}
	if grid, ok := broadphase.(*GridBroadphase); ok {
		grid.Workers = max(1, config.Workers)
	}

	solver := constraint.NewGSSolver()
	solver.Iterations = config.Iterations
	solver.Tolerance = config.Tolerance

	defaultMaterial := actor.NewMaterial("default")
	defaultContactMaterial := actor.NewContactMaterial(defaultMaterial, defaultMaterial)
	defaultContactMaterial.Friction = config.Friction
	defaultContactMaterial.Restitution = config.Restitution
	defaultContactMaterial.ContactEquationStiffness = config.ContactEquationStiffness
	defaultContactMaterial.ContactEquationRelaxation = config.ContactEquationRelaxation
	defaultContactMaterial.FrictionEquationStiffness = config.FrictionEquationStiffness
	defaultContactMaterial.FrictionEquationRelaxation = config.FrictionEquationRelaxation

	contactMaterials := actor.NewContactMaterialTable()

	np := narrowphase.NewNarrowphase()
	np.Logger = logger
	np.SAT = config.SAT
	np.EnableFrictionReduction = config.EnableFrictionReduction
	np.WarmStartDistance = config.WarmStartDistance
	np.ContactMaterials = contactMaterials
	np.DefaultContactMaterial = defaultContactMaterial

	return &World{
		Config:                 config,
		Broadphase:             broadphase,
		Narrowphase:            np,
		Solver:                 solver,
		ContactMaterials:       contactMaterials,
		DefaultMaterial:        defaultMaterial,
		DefaultContactMaterial: defaultContactMaterial,
		Logger:                 logger,
		collisionMatrix:        NewCollisionMatrix(),
		bodiesByID:             make(map[int]*actor.RigidBody),
		events:                 NewEvents(),
	}, nil
}

// ============================================================================
// Bodies, constraints, materials
// ============================================================================

// AddBody adds a rigid body to the world, adding it twice does nothing
func (w *World) AddBody(body *actor.RigidBody) {
	if _, ok := w.bodiesByID[body.ID()]; ok {
		return
	}

	body.Index = len(w.Bodies)
	w.Bodies = append(w.Bodies, body)
	w.bodiesByID[body.ID()] = body

	body.UpdateAABB()
	body.ConsumeSleepTransitions(func(actor.SleepState) {})
}

// RemoveBody removes a rigid body and compacts the indices of the bodies after it.
// The contacts of the body are forgotten without EndContact events.
func (w *World) RemoveBody(body *actor.RigidBody) bool {
	if _, ok := w.bodiesByID[body.ID()]; !ok {
		return false
	}

	k := body.Index
	w.Bodies = slices.Delete(w.Bodies, k, k+1)
	for i := k; i < len(w.Bodies); i++ {
		w.Bodies[i].Index = i
	}

	body.Index = -1
	delete(w.bodiesByID, body.ID())

	w.collisionMatrix.Forget(body.ID())
	w.bodyOverlaps.Forget(body.ID())
	for _, shape := range body.Shapes {
		w.shapeOverlaps.Forget(shape.ID())
	}

	return true
}

// BodyByID returns nil when no body of the world has this id
func (w *World) BodyByID(id int) *actor.RigidBody {
	return w.bodiesByID[id]
}

func (w *World) AddConstraint(c constraint.Constraint) {
	w.Constraints = append(w.Constraints, c)
}

func (w *World) RemoveConstraint(c constraint.Constraint) bool {
	k := slices.Index(w.Constraints, c)
	if k == -1 {
		return false
	}
	w.Constraints = slices.Delete(w.Constraints, k, k+1)
	return true
}

func (w *World) AddContactMaterial(cm *actor.ContactMaterial) {
	w.ContactMaterials.Add(cm)
}

// ContactMaterial returns nil when the pair of materials has no entry
func (w *World) ContactMaterial(a, b *actor.Material) *actor.ContactMaterial {
	return w.ContactMaterials.Get(a, b)
}

func (w *World) AddSubsystem(s Subsystem) {
	w.subsystems = append(w.subsystems, s)
}

// Subscribe registers a listener, called after each step for the events of that step
func (w *World) Subscribe(eventType EventType, listener EventListener) {
	w.events.Subscribe(eventType, listener)
}

// Contacts returns the contact equations of the last step, overwritten by the next one
func (w *World) Contacts() []*constraint.ContactEquation {
	return w.contacts
}

func (w *World) ClearForces() {
	for _, body := range w.Bodies {
		body.ClearForces()
	}
}

// HasActiveBodies reports whether a body may still move
func (w *World) HasActiveBodies() bool {
	for _, body := range w.Bodies {
		if body.BodyType != actor.BodyTypeStatic && body.SleepState != actor.Sleeping {
			return true
		}
	}
	return false
}

// ============================================================================
// Stepping
// ============================================================================

// Step advances the world by dt and returns the events of the step.
// The returned slice is reused by the next call.
func (w *World) Step(dt float64) []Event {
	w.events.reset()
	if dt <= 0 {
		return nil
	}

	w.internalStep(dt)

	task(w.Config.Workers, w.Bodies, func(_ int, body *actor.RigidBody) {
		body.Interpolate(1)
	})

	return w.events.flush()
}

// DefaultMaxSubSteps is used by StepWithElapsed when maxSubSteps is not positive
const DefaultMaxSubSteps = 10

// StepWithElapsed runs as many steps of fixedDt as elapsed allows, at most maxSubSteps.
// The time left over is kept for the next call, and the interpolated transforms are
// blended by the fraction of a step it represents.
func (w *World) StepWithElapsed(fixedDt, elapsed float64, maxSubSteps int) []Event {
	w.events.reset()
	if fixedDt <= 0 {
		return nil
	}

	if maxSubSteps <= 0 {
		maxSubSteps = DefaultMaxSubSteps
	}

	w.accumulator += elapsed
	for substeps := 0; w.accumulator >= fixedDt && substeps < maxSubSteps; substeps++ {
		w.internalStep(fixedDt)
		w.accumulator -= fixedDt
	}
	w.accumulator = math.Mod(w.accumulator, fixedDt)

	t := w.accumulator / fixedDt
	task(w.Config.Workers, w.Bodies, func(_ int, body *actor.RigidBody) {
		body.Interpolate(t)
	})

	return w.events.flush()
}

func (w *World) internalStep(dt float64) {
	w.applyGravity()

	for _, s := range w.subsystems {
		s.Update(dt)
	}

	task(w.Config.Workers, w.Bodies, func(_ int, body *actor.RigidBody) {
		body.UpdateAABB()
	})

	w.pairsA, w.pairsB = w.Broadphase.CollisionPairs(w.Bodies, w.pairsA[:0], w.pairsB[:0])
	w.removeConnectedPairs()

	w.collisionMatrix.Tick()
	w.bodyOverlaps.Tick()
	w.shapeOverlaps.Tick()

	result := w.Narrowphase.GetContacts(w.pairsA, w.pairsB, dt, w.Config.Gravity)
	w.contacts = result.Contacts

	for _, overlap := range result.Overlaps {
		w.bodyOverlaps.Set(overlap.BodyA.ID(), overlap.BodyB.ID(), overlap.BodyA, overlap.BodyB)
		w.shapeOverlaps.Set(overlap.ShapeA.ID(), overlap.ShapeB.ID(),
			shapeContact{overlap.ShapeA, overlap.BodyA}, shapeContact{overlap.ShapeB, overlap.BodyB})
	}

	for _, c := range result.Contacts {
		w.recordContact(c)
	}

	w.emitContactEvents()

	for _, body := range w.Bodies {
		if body.WakeUpAfterNarrowphase {
			body.WakeUp()
		}
	}

	for _, f := range result.Frictions {
		w.Solver.AddEquation(f)
	}
	for _, c := range result.Contacts {
		w.Solver.AddEquation(c)
	}
	for _, c := range w.Constraints {
		c.Update()
		for _, eq := range c.Equations() {
			e := eq.Base()
			e.SetSpookParams(e.Stiffness, e.Relaxation, dt)
			w.Solver.AddEquation(eq)
		}
	}

	w.LastIterations = w.Solver.Solve(dt, w.Bodies)
	w.Solver.RemoveAllEquations()

	task(w.Config.Workers, w.Bodies, func(_ int, body *actor.RigidBody) {
		body.ApplyDamping(dt)
	})

	w.events.emit(Event{Type: PreStep, Step: w.StepNumber})

	normalize := w.StepNumber%(w.Config.QuatNormalizeSkip+1) == 0
	fast := w.Config.QuatNormalizeFast
	task(w.Config.Workers, w.Bodies, func(_ int, body *actor.RigidBody) {
		body.Integrate(dt, normalize, fast)
		body.UpdateAABB()
	})
	w.ClearForces()

	w.Time += dt
	w.StepNumber++

	w.events.emit(Event{Type: PostStep, Step: w.StepNumber})

	if w.Config.AllowSleep {
		for _, body := range w.Bodies {
			body.SleepTick(w.Time)
		}
	}

	for _, body := range w.Bodies {
		w.events.emitSleepTransitions(body, w.StepNumber)
	}

	if w.Logger.Enabled(context.Background(), slog.LevelDebug) {
		w.Logger.Debug("step",
			"step", w.StepNumber,
			"pairs", len(w.pairsA),
			"contacts", len(result.Contacts),
			"frictions", len(result.Frictions),
			"iterations", w.LastIterations)
	}
}

// applyGravity adds m·g to the force of every dynamic body
func (w *World) applyGravity() {
	g := w.Config.Gravity
	for _, body := range w.Bodies {
		if body.BodyType == actor.BodyTypeDynamic {
			body.Force = body.Force.Add(g.Mul(body.Mass()))
		}
	}
}

// removeConnectedPairs drops the pairs joined by a constraint that disables their collisions
func (w *World) removeConnectedPairs() {
	if len(w.Constraints) == 0 {
		return
	}

	n := 0
	for k := range w.pairsA {
		a, b := w.pairsA[k], w.pairsB[k]
		if w.connected(a, b) {
			continue
		}
		w.pairsA[n], w.pairsB[n] = a, b
		n++
	}
	clear(w.pairsA[n:])
	clear(w.pairsB[n:])
	w.pairsA, w.pairsB = w.pairsA[:n], w.pairsB[:n]
}

func (w *World) connected(a, b *actor.RigidBody) bool {
	for _, c := range w.Constraints {
		if c.CollideConnected() {
			continue
		}
		ca, cb := c.Bodies()
		if (ca == a && cb == b) || (ca == b && cb == a) {
			return true
		}
	}
	return false
}

// recordContact marks a sleeping body for wake up when hit by a fast partner, and fills
// the collision matrix and the overlap keepers
func (w *World) recordContact(c *constraint.ContactEquation) {
	bi, bj := c.BodyA, c.BodyB

	markWakeUp(bi, bj)
	markWakeUp(bj, bi)

	first := !w.collisionMatrix.Get(bi.ID(), bj.ID())
	wasTouching := w.collisionMatrix.Previous(bi.ID(), bj.ID())
	w.collisionMatrix.Set(bi.ID(), bj.ID())
	if first && !wasTouching {
		contact := *c
		w.events.emit(Event{
			Type:    Collide,
			BodyA:   bi,
			BodyB:   bj,
			ShapeA:  c.ShapeA,
			ShapeB:  c.ShapeB,
			Contact: &contact,
			Step:    w.StepNumber,
		})
	}

	w.bodyOverlaps.Set(bi.ID(), bj.ID(), bi, bj)
	w.shapeOverlaps.Set(c.ShapeA.ID(), c.ShapeB.ID(), shapeContact{c.ShapeA, bi}, shapeContact{c.ShapeB, bj})
}

// markWakeUp flags a sleeping dynamic body touched by an awake partner moving faster than
// √2 times the partner's sleep speed limit
func markWakeUp(sleeper, partner *actor.RigidBody) {
	if !sleeper.AllowSleep || sleeper.BodyType != actor.BodyTypeDynamic || sleeper.SleepState != actor.Sleeping {
		return
	}
	if partner.SleepState != actor.Awake || partner.BodyType == actor.BodyTypeStatic {
		return
	}

	speedSquared := partner.Velocity.LenSqr() + partner.AngularVelocity.LenSqr()
	limitSquared := partner.SleepSpeedLimit * partner.SleepSpeedLimit
	if speedSquared >= 2*limitSquared {
		sleeper.WakeUpAfterNarrowphase = true
	}
}

// emitContactEvents diffs the overlap keepers against the previous step
func (w *World) emitContactEvents() {
	clear(w.bodyAdded)
	clear(w.bodyRemoved)
	w.bodyAdded, w.bodyRemoved = w.bodyOverlaps.Diff(w.bodyAdded[:0], w.bodyRemoved[:0])

	for _, o := range w.bodyAdded {
		w.events.emit(Event{Type: BeginContact, BodyA: o.A, BodyB: o.B, Step: w.StepNumber})
	}
	for _, o := range w.bodyRemoved {
		w.events.emit(Event{Type: EndContact, BodyA: o.A, BodyB: o.B, Step: w.StepNumber})
	}

	clear(w.shapeAdded)
	clear(w.shapeRemoved)
	w.shapeAdded, w.shapeRemoved = w.shapeOverlaps.Diff(w.shapeAdded[:0], w.shapeRemoved[:0])

	for _, o := range w.shapeAdded {
		w.events.emit(Event{
			Type:   BeginShapeContact,
			BodyA:  o.A.body,
			BodyB:  o.B.body,
			ShapeA: o.A.shape,
			ShapeB: o.B.shape,
			Step:   w.StepNumber,
		})
	}
	for _, o := range w.shapeRemoved {
		w.events.emit(Event{
			Type:   EndShapeContact,
			BodyA:  o.A.body,
			BodyB:  o.B.body,
			ShapeA: o.A.shape,
			ShapeB: o.B.shape,
			Step:   w.StepNumber,
		})
	}
}

// ============================================================================
// Ray queries
// ============================================================================

// RaycastClosest finds the hit nearest to from, and reports whether there is one.
// Zero collision filters in options are read as "every group".
func (w *World) RaycastClosest(from, to mgl64.Vec3, options raycast.Options, result *raycast.Result) bool {
	ray := raycast.Ray{Options: options, From: from, To: to, Mode: raycast.Closest}
	return w.raycast(&ray, result)
}

// RaycastAny stops at the first hit found
func (w *World) RaycastAny(from, to mgl64.Vec3, options raycast.Options, result *raycast.Result) bool {
	ray := raycast.Ray{Options: options, From: from, To: to, Mode: raycast.Any}
	return w.raycast(&ray, result)
}

// RaycastAll calls callback for every hit, the result passed being reused between calls
func (w *World) RaycastAll(from, to mgl64.Vec3, options raycast.Options, callback func(result *raycast.Result)) bool {
	ray := raycast.Ray{Options: options, From: from, To: to, Mode: raycast.All, Callback: callback}
	var result raycast.Result
	return w.raycast(&ray, &result)
}

func (w *World) raycast(ray *raycast.Ray, result *raycast.Result) bool {
	if ray.CollisionFilterGroup == 0 {
		ray.CollisionFilterGroup = -1
	}
	if ray.CollisionFilterMask == 0 {
		ray.CollisionFilterMask = -1
	}

	clear(w.rayBodies)
	w.rayBodies = w.Broadphase.AABBQuery(w.Bodies, ray.AABB(), w.rayBodies[:0])
	return ray.IntersectBodies(w.rayBodies, result)
}
