// Package narrowphase turns broadphase body pairs into contact and friction equations.
//
// Every shape pair is dispatched on the union of both shape type bits, the shape with the
// lowest type coming first. Contact normals always point out of the first body. Equations
// come from arenas owned by the Narrowphase and are only valid until the next GetContacts.
package narrowphase

import (
	"log/slog"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/constraint"
	"github.com/akmonengine/impulse/sat"
	"github.com/akmonengine/impulse/vmath"
	"github.com/go-gl/mathgl/mgl64"
)

// Overlap is a shape pair found touching without generating equations
type Overlap struct {
	BodyA  *actor.RigidBody
	BodyB  *actor.RigidBody
	ShapeA actor.Shape
	ShapeB actor.Shape
}

// Result of one GetContacts call, backed by the narrowphase arenas
type Result struct {
	Contacts  []*constraint.ContactEquation
	Frictions []*constraint.FrictionEquation
	// Overlaps holds the pairs of kinematic and static bodies, which are only tested
	Overlaps []Overlap
}

// DefaultWarmStartDistance is the distance, in the frame of body B, under which a contact
// takes over the impulses of a contact of the previous step
const DefaultWarmStartDistance = 0.02

// warmContact is what a contact leaves to the contacts of the next step
type warmContact struct {
	shapes     [2]int
	localPoint mgl64.Vec3
	normal     float64
	friction   [2]float64
	// index of the first of its two friction equations, -1 without friction
	frictionIndex int
	matched       bool
}

type Narrowphase struct {
	Logger *slog.Logger
	SAT    sat.Options
	// EnableFrictionReduction replaces the friction of a whole manifold with one averaged tangent pair
	EnableFrictionReduction bool
	// WarmStartDistance matches contacts with those of the previous step, 0 disables warm starting
	WarmStartDistance float64

	ContactMaterials       *actor.ContactMaterialTable
	DefaultContactMaterial *actor.ContactMaterial

	contactPool  []*constraint.ContactEquation
	frictionPool []*constraint.FrictionEquation
	contactCount int
	frictionUsed int

	result Result

	// per call state
	dt              float64
	gravity         mgl64.Vec3
	currentMaterial *actor.ContactMaterial

	warned map[actor.ShapeType]struct{}

	// current is parallel to result.Contacts
	current          []warmContact
	previous         []warmContact
	previousByShapes map[[2]int][]int

	// scratch
	triangles []int
	features  map[[2]int]struct{}
	// mesh points already used as contacts by the current sphere-trimesh test
	meshPoints []mgl64.Vec3
}

func NewNarrowphase() *Narrowphase {
	return &Narrowphase{
		Logger:                 slog.Default(),
		SAT:                    sat.DefaultOptions(),
		WarmStartDistance:      DefaultWarmStartDistance,
		ContactMaterials:       actor.NewContactMaterialTable(),
		DefaultContactMaterial: actor.NewContactMaterial(nil, nil),
		warned:                 make(map[actor.ShapeType]struct{}),
		features:               make(map[[2]int]struct{}),
		previousByShapes:       make(map[[2]int][]int),
	}
}

// placed is a shape at its world placement.
// hull is set for shapes handled as convex polyhedra, including heightfield pillars.
type placed struct {
	shape      actor.Shape
	body       *actor.RigidBody
	position   mgl64.Vec3
	quaternion mgl64.Quat
	hull       *actor.ConvexPolyhedron
}

func newPlaced(shape actor.Shape, body *actor.RigidBody, transform actor.Transform) placed {
	p := placed{
		shape:      shape,
		body:       body,
		position:   transform.Position,
		quaternion: transform.Quaternion,
	}
	if h, ok := shape.(actor.Hull); ok {
		p.hull = h.ConvexHull()
	}
	return p
}

func (p placed) sat() sat.Placed {
	return sat.Placed{Hull: p.hull, Position: p.position, Quaternion: p.quaternion}
}

func (p placed) toLocal(world mgl64.Vec3) mgl64.Vec3 {
	return p.quaternion.Conjugate().Rotate(world.Sub(p.position))
}

func (p placed) toWorld(local mgl64.Vec3) mgl64.Vec3 {
	return p.quaternion.Rotate(local).Add(p.position)
}

func (n *Narrowphase) reset(dt float64, gravity mgl64.Vec3) {
	n.storeWarmStart()

	n.dt = dt
	n.gravity = gravity
	n.contactCount = 0
	n.frictionUsed = 0
	n.result.Contacts = n.result.Contacts[:0]
	n.result.Frictions = n.result.Frictions[:0]
	clear(n.result.Overlaps)
	n.result.Overlaps = n.result.Overlaps[:0]
}

func isKinematic(b *actor.RigidBody) bool {
	return b.BodyType == actor.BodyTypeKinematic
}

func isStatic(b *actor.RigidBody) bool {
	return b.BodyType == actor.BodyTypeStatic
}

// GetContacts generates the equations of every pair (pairsA[k], pairsB[k]).
// dt sets the SPOOK parameters, gravity scales the friction bounds.
func (n *Narrowphase) GetContacts(pairsA, pairsB []*actor.RigidBody, dt float64, gravity mgl64.Vec3) Result {
	n.reset(dt, gravity)

	for k := range pairsA {
		bi, bj := pairsA[k], pairsB[k]

		bodyMaterial := n.contactMaterial(bi.Material, bj.Material)
		justTest := (isKinematic(bi) && isStatic(bj)) || (isStatic(bi) && isKinematic(bj)) || (isKinematic(bi) && isKinematic(bj))

		for i, si := range bi.Shapes {
			ti := bi.ShapeWorldTransform(i)

			for j, sj := range bj.Shapes {
				baseI, baseJ := si.Base(), sj.Base()
				if baseI.CollisionFilterMask&baseJ.CollisionFilterGroup == 0 || baseJ.CollisionFilterMask&baseI.CollisionFilterGroup == 0 {
					continue
				}

				tj := bj.ShapeWorldTransform(j)
				if ti.Position.Sub(tj.Position).Len() > si.BoundingSphereRadius()+sj.BoundingSphereRadius() {
					continue
				}

				n.currentMaterial = n.contactMaterial(baseI.Material, baseJ.Material)
				if n.currentMaterial == nil {
					n.currentMaterial = bodyMaterial
				}
				if n.currentMaterial == nil {
					n.currentMaterial = n.DefaultContactMaterial
				}

				a, b := newPlaced(si, bi, ti), newPlaced(sj, bj, tj)
				if si.Type() > sj.Type() {
					a, b = b, a
				}

				before := len(n.result.Contacts)
				overlapping := n.collide(a, b, justTest)

				if justTest {
					if overlapping {
						n.result.Overlaps = append(n.result.Overlaps, Overlap{BodyA: bi, BodyB: bj, ShapeA: si, ShapeB: sj})
					}
					continue
				}

				n.addFriction(before)
			}
		}
	}

	return n.result
}

// collide dispatches on the shape types, a being the lowest type
func (n *Narrowphase) collide(a, b placed, justTest bool) bool {
	const (
		sphere      = actor.ShapeTypeSphere
		plane       = actor.ShapeTypePlane
		box         = actor.ShapeTypeBox
		convex      = actor.ShapeTypeConvex
		cylinder    = actor.ShapeTypeCylinder
		heightfield = actor.ShapeTypeHeightfield
		particle    = actor.ShapeTypeParticle
		trimesh     = actor.ShapeTypeTrimesh
	)

	switch a.shape.Type() | b.shape.Type() {
	case sphere:
		return n.sphereSphere(a, b, justTest)
	case sphere | plane:
		return n.spherePlane(a, b, justTest)
	case sphere | box, sphere | convex, sphere | cylinder:
		return n.sphereConvex(a, b, justTest)
	case plane | box, plane | convex, plane | cylinder:
		return n.planeConvex(a, b, justTest)
	case box, box | convex, box | cylinder, convex, convex | cylinder, cylinder:
		return n.convexConvex(a, b, justTest)
	case sphere | heightfield:
		return n.sphereHeightfield(a, b, justTest)
	case box | heightfield, convex | heightfield, cylinder | heightfield:
		return n.convexHeightfield(a, b, justTest)
	case sphere | trimesh:
		return n.sphereTrimesh(a, b, justTest)
	case plane | trimesh:
		return n.planeTrimesh(a, b, justTest)
	case sphere | particle:
		return n.sphereParticle(a, b, justTest)
	case plane | particle:
		return n.planeParticle(a, b, justTest)
	case box | particle, convex | particle, cylinder | particle:
		return n.convexParticle(a, b, justTest)
	case heightfield | particle:
		return n.heightfieldParticle(a, b, justTest)
	}

	n.warnUnsupported(a.shape.Type(), b.shape.Type())
	return false
}

func (n *Narrowphase) warnUnsupported(a, b actor.ShapeType) {
	key := a | b
	if _, ok := n.warned[key]; ok {
		return
	}
	n.warned[key] = struct{}{}
	n.Logger.Warn("unsupported shape pair, no contact generated", "shapeA", a.String(), "shapeB", b.String())
}

func (n *Narrowphase) contactMaterial(a, b *actor.Material) *actor.ContactMaterial {
	if a == nil || b == nil {
		return nil
	}
	return n.ContactMaterials.Get(a, b)
}

// surfaceMaterial is the shape material, falling back to the body material
func surfaceMaterial(shape actor.Shape, body *actor.RigidBody) *actor.Material {
	if m := shape.Base().Material; m != nil {
		return m
	}
	return body.Material
}

// addContact configures a pooled contact between two world points, normal pointing from a to b
func (n *Narrowphase) addContact(a, b placed, normal, pointA, pointB mgl64.Vec3) *constraint.ContactEquation {
	var c *constraint.ContactEquation
	if n.contactCount < len(n.contactPool) {
		c = n.contactPool[n.contactCount]
	} else {
		c = constraint.NewContactEquation(a.body, b.body)
		n.contactPool = append(n.contactPool, c)
	}
	n.contactCount++

	c.Reset(a.body, b.body, a.shape, b.shape)
	c.Enabled = a.body.CollisionResponse && b.body.CollisionResponse &&
		a.shape.Base().CollisionResponse && b.shape.Base().CollisionResponse

	cm := n.currentMaterial
	c.Restitution = cm.Restitution
	c.SetSpookParams(cm.ContactEquationStiffness, cm.ContactEquationRelaxation, n.dt)

	matA, matB := surfaceMaterial(a.shape, a.body), surfaceMaterial(b.shape, b.body)
	if matA != nil && matB != nil && matA.Restitution >= 0 && matB.Restitution >= 0 {
		c.Restitution = matA.Restitution * matB.Restitution
	}

	c.NI = normal
	c.RI = pointA.Sub(a.body.Transform.Position)
	c.RJ = pointB.Sub(b.body.Transform.Position)

	warm := warmContact{
		shapes:        [2]int{a.shape.ID(), b.shape.ID()},
		localPoint:    b.body.Transform.Quaternion.Conjugate().Rotate(c.RJ),
		frictionIndex: -1,
	}
	if previous := n.matchWarmContact(warm.shapes, warm.localPoint); previous != nil && c.Enabled {
		warm.friction = previous.friction
		c.WarmLambda = previous.normal * n.dt
	}
	n.current = append(n.current, warm)

	n.result.Contacts = append(n.result.Contacts, c)
	return c
}

// storeWarmStart keeps the forces solved for the contacts of the last call
func (n *Narrowphase) storeWarmStart() {
	n.previous, n.current = n.current, n.previous[:0]
	clear(n.previousByShapes)
	if n.WarmStartDistance <= 0 {
		return
	}

	for i := range n.previous {
		w := &n.previous[i]
		w.matched = false
		w.normal = n.result.Contacts[i].Multiplier
		w.friction = [2]float64{}
		if k := w.frictionIndex; k >= 0 {
			w.friction = [2]float64{n.result.Frictions[k].Multiplier, n.result.Frictions[k+1].Multiplier}
		}
		n.previousByShapes[w.shapes] = append(n.previousByShapes[w.shapes], i)
	}
}

// matchWarmContact returns the closest unmatched contact of the previous call between the same
// shapes, nil if none lies within WarmStartDistance
func (n *Narrowphase) matchWarmContact(shapes [2]int, localPoint mgl64.Vec3) *warmContact {
	if n.WarmStartDistance <= 0 {
		return nil
	}

	best := -1
	bestDistance := n.WarmStartDistance * n.WarmStartDistance
	for _, i := range n.previousByShapes[shapes] {
		w := &n.previous[i]
		if w.matched {
			continue
		}
		if d := w.localPoint.Sub(localPoint).LenSqr(); d <= bestDistance {
			best, bestDistance = i, d
		}
	}
	if best < 0 {
		return nil
	}

	n.previous[best].matched = true
	return &n.previous[best]
}

func (n *Narrowphase) newFriction(bodyA, bodyB *actor.RigidBody, slipForce float64) *constraint.FrictionEquation {
	var f *constraint.FrictionEquation
	if n.frictionUsed < len(n.frictionPool) {
		f = n.frictionPool[n.frictionUsed]
		f.Reset(bodyA, bodyB, slipForce)
	} else {
		f = constraint.NewFrictionEquation(bodyA, bodyB, slipForce)
		n.frictionPool = append(n.frictionPool, f)
	}
	n.frictionUsed++

	return f
}

// addFriction generates the friction of the contacts produced by one shape pair,
// result.Contacts[first:]
func (n *Narrowphase) addFriction(first int) {
	if first == len(n.result.Contacts) {
		return
	}
	if !n.EnableFrictionReduction {
		for i := first; i < len(n.result.Contacts); i++ {
			n.frictionFromContact(i)
		}
		return
	}
	n.frictionFromAverage(first)
}

// frictionFromContact adds two tangent equations bounded by ±μ·|g|·reducedMass to the
// contact at index i
func (n *Narrowphase) frictionFromContact(i int) bool {
	c := n.result.Contacts[i]
	if !c.Enabled {
		return false
	}

	cm := n.currentMaterial
	friction := cm.Friction
	matA, matB := surfaceMaterial(c.ShapeA, c.BodyA), surfaceMaterial(c.ShapeB, c.BodyB)
	if matA != nil && matB != nil && matA.Friction >= 0 && matB.Friction >= 0 {
		friction = matA.Friction * matB.Friction
	}
	if friction <= 0 {
		return false
	}

	mug := friction * n.gravity.Len()
	reducedMass := c.BodyA.InvMass() + c.BodyB.InvMass()
	if reducedMass > 0 {
		reducedMass = 1 / reducedMass
	}
	slipForce := mug * reducedMass

	warm := &n.current[i]
	warm.frictionIndex = len(n.result.Frictions)

	t1, t2 := vmath.Tangents(c.NI)
	for k, t := range [2]mgl64.Vec3{t1, t2} {
		f := n.newFriction(c.BodyA, c.BodyB, slipForce)
		f.WarmLambda = warm.friction[k] * n.dt
		f.ShapeA = c.ShapeA
		f.ShapeB = c.ShapeB
		f.RI = c.RI
		f.RJ = c.RJ
		f.T = t
		f.SetSpookParams(cm.FrictionEquationStiffness, cm.FrictionEquationRelaxation, n.dt)
		n.result.Frictions = append(n.result.Frictions, f)
	}

	return true
}

// frictionFromAverage keeps one tangent pair at the average point and normal of the manifold,
// attached to its last contact
func (n *Narrowphase) frictionFromAverage(first int) {
	contacts := n.result.Contacts[first:]
	if !n.frictionFromContact(len(n.result.Contacts)-1) || len(contacts) == 1 {
		return
	}

	frictions := n.result.Frictions
	f1, f2 := frictions[len(frictions)-2], frictions[len(frictions)-1]

	var normal, pointA, pointB mgl64.Vec3
	for _, c := range contacts {
		normal = normal.Add(c.NI)
		pointA = pointA.Add(c.RI)
		pointB = pointB.Add(c.RJ)
	}
	inv := 1.0 / float64(len(contacts))

	f1.RI = pointA.Mul(inv)
	f1.RJ = pointB.Mul(inv)
	f2.RI = f1.RI
	f2.RJ = f1.RJ
	f1.T, f2.T = vmath.Tangents(vmath.SafeNormalize(normal))
}
