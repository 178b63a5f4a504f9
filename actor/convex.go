package actor

import (
	"fmt"
	"math"

	"github.com/akmonengine/impulse/vmath"
	"github.com/go-gl/mathgl/mgl64"
)

// ConvexPolyhedron is a convex hull given by its vertices and faces.
// Faces are lists of vertex indices; normals are recomputed to point outward.
type ConvexPolyhedron struct {
	ShapeBase
	Vertices    []mgl64.Vec3
	Faces       [][]int
	FaceNormals []mgl64.Vec3
	// UniqueEdges are the edge directions, without parallel duplicates
	UniqueEdges []mgl64.Vec3
	// UniqueAxes are the face normals, without parallel duplicates
	UniqueAxes []mgl64.Vec3

	centroid mgl64.Vec3
}

// NewConvexPolyhedron validates the faces before building the hull
func NewConvexPolyhedron(vertices []mgl64.Vec3, faces [][]int) (*ConvexPolyhedron, error) {
	if len(vertices) < 4 {
		return nil, fmt.Errorf("convex polyhedron needs at least 4 vertices, got %d: %w", len(vertices), ErrInvalidGeometry)
	}
	for i, face := range faces {
		if len(face) < 3 {
			return nil, fmt.Errorf("face %d has %d vertices: %w", i, len(face), ErrInvalidGeometry)
		}
		for _, index := range face {
			if index < 0 || index >= len(vertices) {
				return nil, fmt.Errorf("face %d references vertex %d out of %d: %w", i, index, len(vertices), ErrInvalidGeometry)
			}
		}
	}

	c := newConvexPolyhedron(vertices, faces)
	for i, n := range c.FaceNormals {
		if n.LenSqr() == 0 {
			return nil, fmt.Errorf("face %d is degenerate: %w", i, ErrInvalidGeometry)
		}
	}

	return c, nil
}

func newConvexPolyhedron(vertices []mgl64.Vec3, faces [][]int) *ConvexPolyhedron {
	c := &ConvexPolyhedron{
		ShapeBase: newShapeBase(),
		Vertices:  vertices,
		Faces:     faces,
	}
	c.UpdateGeometry()

	return c
}

func (c *ConvexPolyhedron) Type() ShapeType {
	return ShapeTypeConvex
}

func (c *ConvexPolyhedron) ConvexHull() *ConvexPolyhedron {
	return c
}

// UpdateGeometry recomputes every derived field after Vertices or Faces changed
func (c *ConvexPolyhedron) UpdateGeometry() {
	c.centroid = mgl64.Vec3{}
	for _, v := range c.Vertices {
		c.centroid = c.centroid.Add(v)
	}
	if len(c.Vertices) > 0 {
		c.centroid = c.centroid.Mul(1.0 / float64(len(c.Vertices)))
	}

	c.ComputeNormals()
	c.ComputeEdges()
	c.UpdateBoundingSphereRadius()
}

// Centroid is the average of the vertices, always inside the hull
func (c *ConvexPolyhedron) Centroid() mgl64.Vec3 {
	return c.centroid
}

// ComputeNormals sets one outward normal per face
func (c *ConvexPolyhedron) ComputeNormals() {
	c.FaceNormals = c.FaceNormals[:0]
	c.UniqueAxes = c.UniqueAxes[:0]

	for _, face := range c.Faces {
		n := faceNormal(c.Vertices, face)
		if n.Dot(c.Vertices[face[0]].Sub(c.centroid)) < 0 {
			n = n.Mul(-1)
		}
		c.FaceNormals = append(c.FaceNormals, n)

		if n.LenSqr() > 0 && !containsParallel(c.UniqueAxes, n) {
			c.UniqueAxes = append(c.UniqueAxes, n)
		}
	}
}

// faceNormal uses the largest cross product found in the fan, to survive collinear leading vertices
func faceNormal(vertices []mgl64.Vec3, face []int) mgl64.Vec3 {
	a := vertices[face[0]]
	var best mgl64.Vec3
	for i := 1; i+1 < len(face); i++ {
		n := vertices[face[i]].Sub(a).Cross(vertices[face[i+1]].Sub(a))
		if n.LenSqr() > best.LenSqr() {
			best = n
		}
	}

	return vmath.SafeNormalize(best)
}

func (c *ConvexPolyhedron) ComputeEdges() {
	c.UniqueEdges = c.UniqueEdges[:0]

	for _, face := range c.Faces {
		for i := range face {
			edge := c.Vertices[face[(i+1)%len(face)]].Sub(c.Vertices[face[i]])
			edge = vmath.SafeNormalize(edge)
			if edge.LenSqr() == 0 || containsParallel(c.UniqueEdges, edge) {
				continue
			}
			c.UniqueEdges = append(c.UniqueEdges, edge)
		}
	}
}

func containsParallel(axes []mgl64.Vec3, v mgl64.Vec3) bool {
	const parallel = 1 - 1e-6
	for _, axis := range axes {
		if math.Abs(axis.Dot(v)) > parallel {
			return true
		}
	}
	return false
}

func (c *ConvexPolyhedron) UpdateBoundingSphereRadius() {
	maxSq := 0.0
	for _, v := range c.Vertices {
		maxSq = math.Max(maxSq, v.LenSqr())
	}
	c.boundingSphereRadius = math.Sqrt(maxSq)
}

// Volume sums the tetrahedra between the centroid and every face fan
func (c *ConvexPolyhedron) Volume() float64 {
	volume := 0.0
	for _, face := range c.Faces {
		a := c.Vertices[face[0]].Sub(c.centroid)
		for i := 1; i+1 < len(face); i++ {
			b := c.Vertices[face[i]].Sub(c.centroid)
			d := c.Vertices[face[i+1]].Sub(c.centroid)
			volume += math.Abs(a.Dot(b.Cross(d))) / 6.0
		}
	}
	return volume
}

func (c *ConvexPolyhedron) LocalAABB() AABB {
	aabb := EmptyAABB()
	for _, v := range c.Vertices {
		aabb = aabb.ExtendPoint(v)
	}
	return aabb
}

// CalculateLocalInertia approximates the hull with its local bounding box
func (c *ConvexPolyhedron) CalculateLocalInertia(mass float64) mgl64.Vec3 {
	aabb := c.LocalAABB()
	return boxInertia(aabb.Max.Sub(aabb.Min).Mul(0.5), mass)
}

func (c *ConvexPolyhedron) CalculateWorldAABB(position mgl64.Vec3, quaternion mgl64.Quat) AABB {
	aabb := EmptyAABB()
	for _, v := range c.Vertices {
		aabb = aabb.ExtendPoint(quaternion.Rotate(v).Add(position))
	}
	return aabb
}

// Support returns the vertex furthest along the local direction
func (c *ConvexPolyhedron) Support(direction mgl64.Vec3) mgl64.Vec3 {
	best := c.Vertices[0]
	bestDot := best.Dot(direction)
	for _, v := range c.Vertices[1:] {
		if d := v.Dot(direction); d > bestDot {
			best, bestDot = v, d
		}
	}
	return best
}

// PointIsInside tests a local point against every face plane
func (c *ConvexPolyhedron) PointIsInside(p mgl64.Vec3) bool {
	for i, face := range c.Faces {
		if c.FaceNormals[i].Dot(p.Sub(c.Vertices[face[0]])) > 0 {
			return false
		}
	}
	return true
}

// WorldVertices appends the transformed vertices to dst
func (c *ConvexPolyhedron) WorldVertices(dst []mgl64.Vec3, position mgl64.Vec3, quaternion mgl64.Quat) []mgl64.Vec3 {
	for _, v := range c.Vertices {
		dst = append(dst, quaternion.Rotate(v).Add(position))
	}
	return dst
}

// Cylinder is a convex polyhedron approximating a (possibly conical) cylinder along local Y
type Cylinder struct {
	ConvexPolyhedron
	RadiusTop    float64
	RadiusBottom float64
	Height       float64
	Segments     int
}

func NewCylinder(radiusTop, radiusBottom, height float64, segments int) (*Cylinder, error) {
	if segments < 3 {
		return nil, fmt.Errorf("cylinder needs at least 3 segments, got %d: %w", segments, ErrInvalidGeometry)
	}
	if radiusTop < 0 || radiusBottom < 0 || radiusTop+radiusBottom == 0 || height <= 0 {
		return nil, fmt.Errorf("cylinder dimensions (%g, %g, %g): %w", radiusTop, radiusBottom, height, ErrInvalidGeometry)
	}

	// ring vertices: bottom at 2i, top at 2i+1
	vertices := make([]mgl64.Vec3, 0, segments*2)
	for i := 0; i < segments; i++ {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		sin, cos := math.Sincos(theta)
		vertices = append(vertices,
			mgl64.Vec3{radiusBottom * cos, -height * 0.5, radiusBottom * sin},
			mgl64.Vec3{radiusTop * cos, height * 0.5, radiusTop * sin},
		)
	}

	faces := make([][]int, 0, segments+2)
	bottom := make([]int, 0, segments)
	top := make([]int, 0, segments)
	for i := 0; i < segments; i++ {
		j := (i + 1) % segments
		faces = append(faces, []int{2 * i, 2*i + 1, 2*j + 1, 2 * j})
		bottom = append(bottom, 2*i)
		top = append(top, 2*(segments-1-i)+1)
	}
	faces = append(faces, bottom, top)

	c := &Cylinder{
		ConvexPolyhedron: *newConvexPolyhedron(vertices, faces),
		RadiusTop:        radiusTop,
		RadiusBottom:     radiusBottom,
		Height:           height,
		Segments:         segments,
	}

	return c, nil
}

func (c *Cylinder) Type() ShapeType {
	return ShapeTypeCylinder
}

// Volume of the frustum
func (c *Cylinder) Volume() float64 {
	rt, rb := c.RadiusTop, c.RadiusBottom
	return math.Pi * c.Height * (rt*rt + rt*rb + rb*rb) / 3.0
}

// CalculateLocalInertia uses a solid cylinder of the average radius
func (c *Cylinder) CalculateLocalInertia(mass float64) mgl64.Vec3 {
	r := (c.RadiusTop + c.RadiusBottom) / 2
	side := mass * (3*r*r + c.Height*c.Height) / 12.0
	return mgl64.Vec3{side, mass * r * r / 2.0, side}
}
