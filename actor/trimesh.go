package actor

import (
	"fmt"
	"math"

	"github.com/akmonengine/impulse/vmath"
	"github.com/go-gl/mathgl/mgl64"
)

// Trimesh is a triangle soup, usually static.
// Vertices are stored unscaled; every accessor applies Scale.
type Trimesh struct {
	ShapeBase
	Vertices []mgl64.Vec3
	Indices  []int
	// Normals holds one unscaled normal per triangle
	Normals []mgl64.Vec3
	Scale   mgl64.Vec3

	tree      *bvhNode
	localAABB AABB
}

func NewTrimesh(vertices []mgl64.Vec3, indices []int) (*Trimesh, error) {
	if len(indices) == 0 || len(indices)%3 != 0 {
		return nil, fmt.Errorf("trimesh index count %d is not a multiple of 3: %w", len(indices), ErrInvalidGeometry)
	}
	for _, index := range indices {
		if index < 0 || index >= len(vertices) {
			return nil, fmt.Errorf("trimesh references vertex %d out of %d: %w", index, len(vertices), ErrInvalidGeometry)
		}
	}

	t := &Trimesh{
		ShapeBase: newShapeBase(),
		Vertices:  vertices,
		Indices:   indices,
		Scale:     mgl64.Vec3{1, 1, 1},
	}
	t.UpdateTree()

	return t, nil
}

func (t *Trimesh) Type() ShapeType {
	return ShapeTypeTrimesh
}

// UpdateTree recomputes normals, bounds and the triangle hierarchy after Vertices or Indices changed
func (t *Trimesh) UpdateTree() {
	count := t.TriangleCount()
	t.Normals = make([]mgl64.Vec3, count)
	triangles := make([]int, count)
	for i := 0; i < count; i++ {
		a, b, c := t.unscaledTriangle(i)
		t.Normals[i] = vmath.SafeNormalize(b.Sub(a).Cross(c.Sub(a)))
		triangles[i] = i
	}

	t.tree = buildBVH(triangles,
		func(i int) AABB {
			a, b, c := t.unscaledTriangle(i)
			return EmptyAABB().ExtendPoint(a).ExtendPoint(b).ExtendPoint(c)
		},
		func(i int) mgl64.Vec3 {
			a, b, c := t.unscaledTriangle(i)
			return a.Add(b).Add(c).Mul(1.0 / 3.0)
		},
	)
	t.updateLocalAABB()
	t.UpdateBoundingSphereRadius()
}

// SetScale changes the mesh scale without rebuilding the tree
func (t *Trimesh) SetScale(scale mgl64.Vec3) {
	t.Scale = scale
	t.updateLocalAABB()
	t.UpdateBoundingSphereRadius()
}

func (t *Trimesh) updateLocalAABB() {
	t.localAABB = EmptyAABB()
	for _, v := range t.Vertices {
		t.localAABB = t.localAABB.ExtendPoint(vmath.MulElem(v, t.Scale))
	}
}

func (t *Trimesh) TriangleCount() int {
	return len(t.Indices) / 3
}

func (t *Trimesh) unscaledTriangle(i int) (mgl64.Vec3, mgl64.Vec3, mgl64.Vec3) {
	return t.Vertices[t.Indices[3*i]], t.Vertices[t.Indices[3*i+1]], t.Vertices[t.Indices[3*i+2]]
}

// Triangle returns the scaled local vertices of triangle i
func (t *Trimesh) Triangle(i int) (mgl64.Vec3, mgl64.Vec3, mgl64.Vec3) {
	a, b, c := t.unscaledTriangle(i)
	return vmath.MulElem(a, t.Scale), vmath.MulElem(b, t.Scale), vmath.MulElem(c, t.Scale)
}

// TriangleVertexIndices returns the vertex indices of triangle i
func (t *Trimesh) TriangleVertexIndices(i int) (int, int, int) {
	return t.Indices[3*i], t.Indices[3*i+1], t.Indices[3*i+2]
}

// TriangleNormal returns the local normal of triangle i, accounting for the scale
func (t *Trimesh) TriangleNormal(i int) mgl64.Vec3 {
	a, b, c := t.Triangle(i)
	return vmath.SafeNormalize(b.Sub(a).Cross(c.Sub(a)))
}

// TrianglesInAABB appends the triangles whose tree leaves overlap the scaled local box
func (t *Trimesh) TrianglesInAABB(aabb AABB, result []int) []int {
	return t.tree.query(t.unscaleAABB(aabb), result)
}

// TrianglesOnRay appends the triangles whose tree leaves are crossed by the local segment
func (t *Trimesh) TrianglesOnRay(from, to mgl64.Vec3, result []int) []int {
	inv := t.inverseScale()
	return t.tree.queryRay(vmath.MulElem(from, inv), vmath.MulElem(to, inv), result)
}

func (t *Trimesh) inverseScale() mgl64.Vec3 {
	inv := mgl64.Vec3{}
	for i := 0; i < 3; i++ {
		if t.Scale[i] != 0 {
			inv[i] = 1 / t.Scale[i]
		}
	}
	return inv
}

func (t *Trimesh) unscaleAABB(aabb AABB) AABB {
	inv := t.inverseScale()
	lo, hi := vmath.MinMax(vmath.MulElem(aabb.Min, inv), vmath.MulElem(aabb.Max, inv))
	return AABB{Min: lo, Max: hi}
}

func (t *Trimesh) LocalAABB() AABB {
	return t.localAABB
}

func (t *Trimesh) UpdateBoundingSphereRadius() {
	maxSq := 0.0
	for _, v := range t.Vertices {
		maxSq = math.Max(maxSq, vmath.MulElem(v, t.Scale).LenSqr())
	}
	t.boundingSphereRadius = math.Sqrt(maxSq)
}

// Volume approximates the mesh with its local bounding box
func (t *Trimesh) Volume() float64 {
	e := t.localAABB.Max.Sub(t.localAABB.Min)
	return e.X() * e.Y() * e.Z()
}

func (t *Trimesh) CalculateLocalInertia(mass float64) mgl64.Vec3 {
	return boxInertia(t.localAABB.Max.Sub(t.localAABB.Min).Mul(0.5), mass)
}

func (t *Trimesh) CalculateWorldAABB(position mgl64.Vec3, quaternion mgl64.Quat) AABB {
	return transformAABB(t.localAABB, position, quaternion)
}
