package actor

import (
	"errors"
	"math"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidGeometry is returned when shape data cannot describe a valid shape
var ErrInvalidGeometry = errors.New("invalid geometry")

var idCounter atomic.Int64

// nextID hands out identifiers shared by bodies, shapes and materials
func nextID() int {
	return int(idCounter.Add(1))
}

// ShapeType represents the type of collision shape.
// Every type is a distinct bit so that the OR of two types identifies an unordered pair.
type ShapeType uint16

const (
	ShapeTypeSphere ShapeType = 1 << iota
	ShapeTypePlane
	ShapeTypeBox
	ShapeTypeConvex
	ShapeTypeCylinder
	ShapeTypeHeightfield
	ShapeTypeParticle
	ShapeTypeTrimesh
)

func (t ShapeType) String() string {
	switch t {
	case ShapeTypeSphere:
		return "sphere"
	case ShapeTypePlane:
		return "plane"
	case ShapeTypeBox:
		return "box"
	case ShapeTypeConvex:
		return "convex"
	case ShapeTypeCylinder:
		return "cylinder"
	case ShapeTypeHeightfield:
		return "heightfield"
	case ShapeTypeParticle:
		return "particle"
	case ShapeTypeTrimesh:
		return "trimesh"
	}
	return "unknown"
}

// Shape is the interface that all collision shapes must implement
type Shape interface {
	Type() ShapeType
	ID() int
	Base() *ShapeBase
	BoundingSphereRadius() float64
	// UpdateBoundingSphereRadius must be called whenever the geometry changes
	UpdateBoundingSphereRadius()
	Volume() float64
	// CalculateLocalInertia returns the diagonal of the inertia tensor for the given mass
	CalculateLocalInertia(mass float64) mgl64.Vec3
	CalculateWorldAABB(position mgl64.Vec3, quaternion mgl64.Quat) AABB
}

// Hull is implemented by shapes that can be handled as a convex polyhedron
type Hull interface {
	Shape
	ConvexHull() *ConvexPolyhedron
}

// ShapeBase carries the fields shared by every shape
type ShapeBase struct {
	id       int
	body     *RigidBody
	Material *Material

	CollisionFilterGroup int
	CollisionFilterMask  int
	// CollisionResponse false turns the shape into a trigger: overlaps are reported, no impulse is applied
	CollisionResponse bool

	boundingSphereRadius float64
}

func newShapeBase() ShapeBase {
	return ShapeBase{
		id:                   nextID(),
		CollisionFilterGroup: 1,
		CollisionFilterMask:  -1,
		CollisionResponse:    true,
	}
}

func (s *ShapeBase) ID() int {
	return s.id
}

func (s *ShapeBase) Base() *ShapeBase {
	return s
}

// Body returns the body the shape is attached to, nil while detached
func (s *ShapeBase) Body() *RigidBody {
	return s.body
}

func (s *ShapeBase) BoundingSphereRadius() float64 {
	return s.boundingSphereRadius
}

// Sphere represents a spherical collision shape
type Sphere struct {
	ShapeBase
	Radius float64
}

func NewSphere(radius float64) *Sphere {
	s := &Sphere{ShapeBase: newShapeBase(), Radius: radius}
	s.UpdateBoundingSphereRadius()
	return s
}

func (s *Sphere) Type() ShapeType {
	return ShapeTypeSphere
}

func (s *Sphere) UpdateBoundingSphereRadius() {
	s.boundingSphereRadius = math.Abs(s.Radius)
}

func (s *Sphere) Volume() float64 {
	// Volume of sphere = (4/3) * π * r³
	return (4.0 / 3.0) * math.Pi * math.Pow(s.Radius, 3)
}

func (s *Sphere) CalculateLocalInertia(mass float64) mgl64.Vec3 {
	// I = (2/5) * m * r², same on all axes
	i := (2.0 / 5.0) * mass * s.Radius * s.Radius
	return mgl64.Vec3{i, i, i}
}

// CalculateWorldAABB is not affected by rotation, only by position
func (s *Sphere) CalculateWorldAABB(position mgl64.Vec3, quaternion mgl64.Quat) AABB {
	r := mgl64.Vec3{s.Radius, s.Radius, s.Radius}
	return AABB{
		Min: position.Sub(r),
		Max: position.Add(r),
	}
}

// Plane represents an infinite plane collision shape.
// Its normal is the local +Z axis, the solid half-space lies below it.
type Plane struct {
	ShapeBase
}

func NewPlane() *Plane {
	p := &Plane{ShapeBase: newShapeBase()}
	p.UpdateBoundingSphereRadius()
	return p
}

func (p *Plane) Type() ShapeType {
	return ShapeTypePlane
}

func (p *Plane) UpdateBoundingSphereRadius() {
	p.boundingSphereRadius = math.MaxFloat64
}

func (p *Plane) Volume() float64 {
	return 0
}

func (p *Plane) CalculateLocalInertia(mass float64) mgl64.Vec3 {
	return mgl64.Vec3{}
}

// WorldNormal returns the plane normal for the given orientation
func (p *Plane) WorldNormal(quaternion mgl64.Quat) mgl64.Vec3 {
	return quaternion.Rotate(mgl64.Vec3{0, 0, 1})
}

// CalculateWorldAABB is infinite, except along an axis the normal is aligned with
func (p *Plane) CalculateWorldAABB(position mgl64.Vec3, quaternion mgl64.Quat) AABB {
	const aligned = 1 - 1e-9
	n := p.WorldNormal(quaternion)

	aabb := AABB{
		Min: mgl64.Vec3{-math.MaxFloat64, -math.MaxFloat64, -math.MaxFloat64},
		Max: mgl64.Vec3{math.MaxFloat64, math.MaxFloat64, math.MaxFloat64},
	}
	for i := 0; i < 3; i++ {
		if n[i] >= aligned {
			aabb.Max[i] = position[i]
		} else if n[i] <= -aligned {
			aabb.Min[i] = position[i]
		}
	}

	return aabb
}

// Box represents an oriented box collision shape
// The box is defined by its half-extents (half-width, half-height, half-depth)
type Box struct {
	ShapeBase
	HalfExtents mgl64.Vec3
	convex      *ConvexPolyhedron
}

func NewBox(halfExtents mgl64.Vec3) *Box {
	b := &Box{ShapeBase: newShapeBase()}
	b.SetHalfExtents(halfExtents)
	return b
}

func (b *Box) Type() ShapeType {
	return ShapeTypeBox
}

// SetHalfExtents updates the dimensions and the polyhedron used by the narrowphase
func (b *Box) SetHalfExtents(halfExtents mgl64.Vec3) {
	b.HalfExtents = halfExtents
	b.updateConvexRepresentation()
	b.UpdateBoundingSphereRadius()
}

func (b *Box) updateConvexRepresentation() {
	sx, sy, sz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()

	vertices := []mgl64.Vec3{
		{-sx, -sy, -sz},
		{sx, -sy, -sz},
		{sx, sy, -sz},
		{-sx, sy, -sz},
		{-sx, -sy, sz},
		{sx, -sy, sz},
		{sx, sy, sz},
		{-sx, sy, sz},
	}
	faces := [][]int{
		{3, 2, 1, 0}, // -z
		{4, 5, 6, 7}, // +z
		{5, 4, 0, 1}, // -y
		{2, 3, 7, 6}, // +y
		{0, 4, 7, 3}, // -x
		{1, 2, 6, 5}, // +x
	}

	b.convex = newConvexPolyhedron(vertices, faces)
}

func (b *Box) ConvexHull() *ConvexPolyhedron {
	return b.convex
}

func (b *Box) UpdateBoundingSphereRadius() {
	b.boundingSphereRadius = b.HalfExtents.Len()
}

func (b *Box) Volume() float64 {
	// Volume = 8 * hx * hy * hz (full dimensions are 2*halfExtents)
	return 8.0 * b.HalfExtents.X() * b.HalfExtents.Y() * b.HalfExtents.Z()
}

func (b *Box) CalculateLocalInertia(mass float64) mgl64.Vec3 {
	return boxInertia(b.HalfExtents, mass)
}

func (b *Box) CalculateWorldAABB(position mgl64.Vec3, quaternion mgl64.Quat) AABB {
	return transformAABB(AABB{Min: b.HalfExtents.Mul(-1), Max: b.HalfExtents}, position, quaternion)
}

// boxInertia : I = (m/12) * (dimension1² + dimension2²)
func boxInertia(halfExtents mgl64.Vec3, mass float64) mgl64.Vec3 {
	x := halfExtents.X() * 2
	y := halfExtents.Y() * 2
	z := halfExtents.Z() * 2

	factor := mass / 12.0
	return mgl64.Vec3{
		factor * (y*y + z*z),
		factor * (x*x + z*z),
		factor * (x*x + y*y),
	}
}

// Particle is a point without extent
type Particle struct {
	ShapeBase
}

func NewParticle() *Particle {
	return &Particle{ShapeBase: newShapeBase()}
}

func (p *Particle) Type() ShapeType {
	return ShapeTypeParticle
}

func (p *Particle) UpdateBoundingSphereRadius() {
	p.boundingSphereRadius = 0
}

func (p *Particle) Volume() float64 {
	return 0
}

func (p *Particle) CalculateLocalInertia(mass float64) mgl64.Vec3 {
	return mgl64.Vec3{}
}

func (p *Particle) CalculateWorldAABB(position mgl64.Vec3, quaternion mgl64.Quat) AABB {
	return AABB{Min: position, Max: position}
}
