// Package raycast intersects line segments with bodies and their shapes.
//
// A Ray runs from From to To. Hits are reported with their world point, the world normal of
// the surface hit and the distance from From. Depending on the Mode, a ray keeps the closest
// hit, stops at the first one, or reports every hit to a callback.
package raycast

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/vmath"
	"github.com/go-gl/mathgl/mgl64"
)

// Mode selects which hits a ray reports
type Mode int

const (
	// Closest keeps the hit nearest to From
	Closest Mode = iota
	// Any stops at the first hit found
	Any
	// All calls the callback for every hit
	All
)

// precision below which a ray is considered parallel to a face
const precision = 1e-4

// Options filter the bodies and shapes a ray can hit
type Options struct {
	SkipBackfaces        bool
	CollisionFilterMask  int
	CollisionFilterGroup int
	// CheckCollisionResponse skips bodies and shapes that are triggers
	CheckCollisionResponse bool
}

func DefaultOptions() Options {
	return Options{
		CollisionFilterMask:    -1,
		CollisionFilterGroup:   -1,
		CheckCollisionResponse: true,
	}
}

// Result of a ray query.
// With All, the same Result is filled and passed to the callback for each hit.
type Result struct {
	RayFromWorld   mgl64.Vec3
	RayToWorld     mgl64.Vec3
	HitPointWorld  mgl64.Vec3
	HitNormalWorld mgl64.Vec3
	HasHit         bool
	Shape          actor.Shape
	Body           *actor.RigidBody
	// HitFaceIndex is the hull face or mesh triangle hit, -1 for other shapes
	HitFaceIndex int
	Distance     float64

	shouldStop bool
}

func (r *Result) Reset() {
	*r = Result{HitFaceIndex: -1, Distance: -1}
}

// Abort stops the query after the current hit, it can be called from an All callback
func (r *Result) Abort() {
	r.shouldStop = true
}

func (r *Result) set(from, to, normal, point mgl64.Vec3, shape actor.Shape, body *actor.RigidBody, distance float64) {
	r.RayFromWorld = from
	r.RayToWorld = to
	r.HitNormalWorld = normal
	r.HitPointWorld = point
	r.Shape = shape
	r.Body = body
	r.Distance = distance
}

type Ray struct {
	Options
	From mgl64.Vec3
	To   mgl64.Vec3
	Mode Mode
	// Callback receives every hit in All mode
	Callback func(result *Result)

	direction mgl64.Vec3
	length    float64
	result    *Result
	hasHit    bool

	triangles []int
}

func NewRay(from, to mgl64.Vec3) *Ray {
	return &Ray{
		Options: DefaultOptions(),
		From:    from,
		To:      to,
	}
}

// AABB bounds the segment, to query a broadphase for candidate bodies
func (r *Ray) AABB() actor.AABB {
	lo, hi := vmath.MinMax(r.From, r.To)
	return actor.AABB{Min: lo, Max: hi}
}

func (r *Ray) begin(result *Result) {
	r.direction = vmath.SafeNormalize(r.To.Sub(r.From))
	r.length = r.To.Sub(r.From).Len()
	r.result = result
	r.hasHit = false
	result.Reset()
}

// IntersectBodies tests every body until the mode says to stop, and reports whether anything was hit
func (r *Ray) IntersectBodies(bodies []*actor.RigidBody, result *Result) bool {
	r.begin(result)
	for _, body := range bodies {
		if result.shouldStop {
			break
		}
		r.intersectBody(body)
	}
	return r.hasHit
}

func (r *Ray) IntersectBody(body *actor.RigidBody, result *Result) bool {
	r.begin(result)
	r.intersectBody(body)
	return r.hasHit
}

func (r *Ray) intersectBody(body *actor.RigidBody) {
	if r.CheckCollisionResponse && !body.CollisionResponse {
		return
	}
	if r.CollisionFilterGroup&body.CollisionFilterMask == 0 || body.CollisionFilterGroup&r.CollisionFilterMask == 0 {
		return
	}

	for i, shape := range body.Shapes {
		if r.result.shouldStop {
			return
		}
		t := body.ShapeWorldTransform(i)
		r.intersectShape(shape, t.Position, t.Quaternion, body)
	}
}

func (r *Ray) intersectShape(shape actor.Shape, position mgl64.Vec3, quaternion mgl64.Quat, body *actor.RigidBody) {
	if r.CheckCollisionResponse && !shape.Base().CollisionResponse {
		return
	}
	if r.distanceToLine(position) > shape.BoundingSphereRadius() {
		return
	}

	switch s := shape.(type) {
	case *actor.Sphere:
		r.intersectSphere(s, position, body)
	case *actor.Plane:
		r.intersectPlane(s, position, quaternion, body)
	case *actor.Heightfield:
		r.intersectHeightfield(s, position, quaternion, body)
	case *actor.Trimesh:
		r.intersectTrimesh(s, position, quaternion, body)
	case actor.Hull:
		r.intersectConvex(s.ConvexHull(), shape, position, quaternion, body, nil)
	}
}

// distanceToLine is the distance from p to the infinite line carrying the ray
func (r *Ray) distanceToLine(p mgl64.Vec3) float64 {
	toP := p.Sub(r.From)
	along := r.From.Add(r.direction.Mul(toP.Dot(r.direction)))
	return p.Sub(along).Len()
}

// report records a hit according to the mode
func (r *Ray) report(normal, point mgl64.Vec3, shape actor.Shape, body *actor.RigidBody, faceIndex int) {
	if r.SkipBackfaces && normal.Dot(r.direction) > 0 {
		return
	}

	result := r.result
	distance := point.Sub(r.From).Len()

	switch r.Mode {
	case All:
		r.hasHit = true
		result.set(r.From, r.To, normal, point, shape, body, distance)
		result.HitFaceIndex = faceIndex
		result.HasHit = true
		if r.Callback != nil {
			r.Callback(result)
		}
	case Closest:
		if result.HasHit && distance >= result.Distance {
			return
		}
		r.hasHit = true
		result.set(r.From, r.To, normal, point, shape, body, distance)
		result.HitFaceIndex = faceIndex
		result.HasHit = true
	case Any:
		r.hasHit = true
		result.set(r.From, r.To, normal, point, shape, body, distance)
		result.HitFaceIndex = faceIndex
		result.HasHit = true
		result.shouldStop = true
	}
}
