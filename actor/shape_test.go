package actor

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// Helper functions

func vec3Equal(a, b mgl64.Vec3, tolerance float64) bool {
	return floatEqual(a.X(), b.X(), tolerance) &&
		floatEqual(a.Y(), b.Y(), tolerance) &&
		floatEqual(a.Z(), b.Z(), tolerance)
}

func floatEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func TestShapeTypeString(t *testing.T) {
	tests := map[ShapeType]string{
		ShapeTypeSphere:      "sphere",
		ShapeTypePlane:       "plane",
		ShapeTypeBox:         "box",
		ShapeTypeConvex:      "convex",
		ShapeTypeCylinder:    "cylinder",
		ShapeTypeHeightfield: "heightfield",
		ShapeTypeParticle:    "particle",
		ShapeTypeTrimesh:     "trimesh",
	}

	for shapeType, want := range tests {
		if got := shapeType.String(); got != want {
			t.Errorf("ShapeType(%d).String() = %s, want %s", shapeType, got, want)
		}
	}
}

func TestShapeIDsAreUnique(t *testing.T) {
	a, b := NewSphere(1), NewBox(mgl64.Vec3{1, 1, 1})
	if a.ID() == b.ID() {
		t.Errorf("shapes share the id %d", a.ID())
	}
	if a.Body() != nil {
		t.Error("a detached shape must not have a body")
	}
}

// =============================================================================
// Sphere
// =============================================================================

func TestSphere(t *testing.T) {
	s := NewSphere(2)

	if !floatEqual(s.Volume(), 32.0/3.0*math.Pi, 1e-12) {
		t.Errorf("Volume = %v, want 32π/3", s.Volume())
	}
	if s.BoundingSphereRadius() != 2 {
		t.Errorf("BoundingSphereRadius = %v, want 2", s.BoundingSphereRadius())
	}

	// I = 2/5 m r²
	if got := s.CalculateLocalInertia(2.5); !vec3Equal(got, mgl64.Vec3{4, 4, 4}, 1e-12) {
		t.Errorf("inertia = %v, want (4, 4, 4)", got)
	}

	rotation := mgl64.QuatRotate(0.7, mgl64.Vec3{1, 1, 0}.Normalize())
	aabb := s.CalculateWorldAABB(mgl64.Vec3{1, 2, 3}, rotation)
	if aabb.Min != (mgl64.Vec3{-1, 0, 1}) || aabb.Max != (mgl64.Vec3{3, 4, 5}) {
		t.Errorf("AABB = %v, rotation must not change it", aabb)
	}
}

// =============================================================================
// Box
// =============================================================================

func TestBox(t *testing.T) {
	b := NewBox(mgl64.Vec3{1, 2, 3})

	if b.Volume() != 48 {
		t.Errorf("Volume = %v, want 48", b.Volume())
	}
	if !floatEqual(b.BoundingSphereRadius(), math.Sqrt(14), 1e-12) {
		t.Errorf("BoundingSphereRadius = %v, want √14", b.BoundingSphereRadius())
	}

	// I = m/12 (d1² + d2²) with full dimensions 2, 4, 6
	if got := b.CalculateLocalInertia(12); !vec3Equal(got, mgl64.Vec3{52, 40, 20}, 1e-12) {
		t.Errorf("inertia = %v, want (52, 40, 20)", got)
	}

	b.SetHalfExtents(mgl64.Vec3{0.5, 0.5, 0.5})
	if b.Volume() != 1 {
		t.Errorf("Volume after SetHalfExtents = %v, want 1", b.Volume())
	}
	if got := b.ConvexHull().Vertices[6]; got != (mgl64.Vec3{0.5, 0.5, 0.5}) {
		t.Errorf("hull not refreshed by SetHalfExtents, vertex = %v", got)
	}
}

func TestBoxConvexHull(t *testing.T) {
	hull := NewBox(mgl64.Vec3{1, 2, 3}).ConvexHull()

	if len(hull.Vertices) != 8 || len(hull.Faces) != 6 {
		t.Fatalf("hull has %d vertices and %d faces, want 8 and 6", len(hull.Vertices), len(hull.Faces))
	}
	if len(hull.UniqueAxes) != 3 || len(hull.UniqueEdges) != 3 {
		t.Errorf("hull has %d unique axes and %d unique edges, want 3 and 3", len(hull.UniqueAxes), len(hull.UniqueEdges))
	}

	for i, face := range hull.Faces {
		n := hull.FaceNormals[i]
		if !floatEqual(n.Len(), 1, 1e-12) {
			t.Errorf("face %d normal %v is not unit length", i, n)
		}
		if n.Dot(hull.Vertices[face[0]]) <= 0 {
			t.Errorf("face %d normal %v points inward", i, n)
		}
	}
}

func TestBoxWorldAABB(t *testing.T) {
	tests := []struct {
		name     string
		rotation mgl64.Quat
		wantMax  mgl64.Vec3
	}{
		{"identity", mgl64.QuatIdent(), mgl64.Vec3{2, 1, 1}},
		{"quarter turn about Z", mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1}), mgl64.Vec3{1, 2, 1}},
		{"quarter turn about Y", mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0}), mgl64.Vec3{1, 1, 2}},
		{"eighth turn about Z", mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1}), mgl64.Vec3{3 / math.Sqrt2, 3 / math.Sqrt2, 1}},
	}

	b := NewBox(mgl64.Vec3{2, 1, 1})
	position := mgl64.Vec3{10, -5, 3}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aabb := b.CalculateWorldAABB(position, tt.rotation)
			if !vec3Equal(aabb.Max, position.Add(tt.wantMax), 1e-9) {
				t.Errorf("Max = %v, want %v", aabb.Max, position.Add(tt.wantMax))
			}
			if !vec3Equal(aabb.Min, position.Sub(tt.wantMax), 1e-9) {
				t.Errorf("Min = %v, want %v", aabb.Min, position.Sub(tt.wantMax))
			}
		})
	}
}

// =============================================================================
// Plane and Particle
// =============================================================================

func TestPlane(t *testing.T) {
	p := NewPlane()

	if p.Volume() != 0 || p.CalculateLocalInertia(5) != (mgl64.Vec3{}) {
		t.Error("a plane has neither volume nor inertia")
	}
	if p.BoundingSphereRadius() != math.MaxFloat64 {
		t.Errorf("BoundingSphereRadius = %v, want MaxFloat64", p.BoundingSphereRadius())
	}
	if got := p.WorldNormal(mgl64.QuatIdent()); got != (mgl64.Vec3{0, 0, 1}) {
		t.Errorf("WorldNormal = %v, want +Z", got)
	}

	up := mgl64.QuatRotate(-math.Pi/2, mgl64.Vec3{1, 0, 0})
	if got := p.WorldNormal(up); !vec3Equal(got, mgl64.Vec3{0, 1, 0}, 1e-12) {
		t.Errorf("WorldNormal = %v, want +Y", got)
	}

	aabb := p.CalculateWorldAABB(mgl64.Vec3{0, 2, 0}, up)
	if aabb.Max.Y() != 2 || aabb.Min.Y() != -math.MaxFloat64 {
		t.Errorf("Y range = [%v, %v], want [-MaxFloat64, 2]", aabb.Min.Y(), aabb.Max.Y())
	}
	if aabb.Max.X() != math.MaxFloat64 || aabb.Min.Z() != -math.MaxFloat64 {
		t.Errorf("AABB = %v, want unbounded on X and Z", aabb)
	}

	tilted := p.CalculateWorldAABB(mgl64.Vec3{}, mgl64.QuatRotate(0.3, mgl64.Vec3{1, 0, 0}))
	if tilted.Max.Y() != math.MaxFloat64 || tilted.Max.Z() != math.MaxFloat64 {
		t.Errorf("AABB of a tilted plane = %v, want unbounded", tilted)
	}
}

func TestParticle(t *testing.T) {
	p := NewParticle()
	position := mgl64.Vec3{1, 2, 3}

	aabb := p.CalculateWorldAABB(position, mgl64.QuatIdent())
	if aabb.Min != position || aabb.Max != position {
		t.Errorf("AABB = %v, want the single point %v", aabb, position)
	}
	if p.BoundingSphereRadius() != 0 || p.Volume() != 0 {
		t.Error("a particle has no extent")
	}
}

// =============================================================================
// ConvexPolyhedron
// =============================================================================

func tetrahedron(t *testing.T) *ConvexPolyhedron {
	t.Helper()

	c, err := NewConvexPolyhedron(
		[]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		// windings are mixed on purpose, normals are fixed outward
		[][]int{{0, 1, 2}, {0, 3, 1}, {0, 2, 3}, {1, 2, 3}},
	)
	if err != nil {
		t.Fatalf("NewConvexPolyhedron: %v", err)
	}
	return c
}

func TestNewConvexPolyhedron_Errors(t *testing.T) {
	square := []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {2, 0, 0}}

	tests := []struct {
		name     string
		vertices []mgl64.Vec3
		faces    [][]int
	}{
		{"too few vertices", square[:3], [][]int{{0, 1, 2}}},
		{"face of two vertices", square, [][]int{{0, 1}}},
		{"index out of range", square, [][]int{{0, 1, 4}}},
		{"negative index", square, [][]int{{0, -1, 2}}},
		{"collinear face", square, [][]int{{0, 1, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConvexPolyhedron(tt.vertices, tt.faces)
			if !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("error = %v, want ErrInvalidGeometry", err)
			}
		})
	}
}

func TestConvexPolyhedron(t *testing.T) {
	c := tetrahedron(t)

	if c.Type() != ShapeTypeConvex {
		t.Errorf("Type = %v, want convex", c.Type())
	}
	if !floatEqual(c.Volume(), 1.0/6.0, 1e-12) {
		t.Errorf("Volume = %v, want 1/6", c.Volume())
	}
	if !vec3Equal(c.Centroid(), mgl64.Vec3{0.25, 0.25, 0.25}, 1e-12) {
		t.Errorf("Centroid = %v, want (0.25, 0.25, 0.25)", c.Centroid())
	}
	if len(c.UniqueAxes) != 4 || len(c.UniqueEdges) != 6 {
		t.Errorf("%d unique axes and %d unique edges, want 4 and 6", len(c.UniqueAxes), len(c.UniqueEdges))
	}

	for i, face := range c.Faces {
		if c.FaceNormals[i].Dot(c.Vertices[face[0]].Sub(c.Centroid())) <= 0 {
			t.Errorf("face %d normal %v points inward", i, c.FaceNormals[i])
		}
	}

	if !c.PointIsInside(mgl64.Vec3{0.1, 0.1, 0.1}) {
		t.Error("expected (0.1, 0.1, 0.1) inside")
	}
	if c.PointIsInside(mgl64.Vec3{0.5, 0.5, 0.5}) {
		t.Error("expected (0.5, 0.5, 0.5) outside")
	}

	if got := c.Support(mgl64.Vec3{1, 0.5, 0.2}); got != (mgl64.Vec3{1, 0, 0}) {
		t.Errorf("Support = %v, want (1, 0, 0)", got)
	}
	if got := c.Support(mgl64.Vec3{-1, -1, -1}); got != (mgl64.Vec3{0, 0, 0}) {
		t.Errorf("Support = %v, want the origin", got)
	}

	world := c.WorldVertices(nil, mgl64.Vec3{0, 5, 0}, mgl64.QuatIdent())
	if len(world) != 4 || world[3] != (mgl64.Vec3{0, 5, 1}) {
		t.Errorf("WorldVertices = %v", world)
	}

	aabb := c.CalculateWorldAABB(mgl64.Vec3{1, 1, 1}, mgl64.QuatIdent())
	if aabb.Min != (mgl64.Vec3{1, 1, 1}) || aabb.Max != (mgl64.Vec3{2, 2, 2}) {
		t.Errorf("AABB = %v", aabb)
	}
}

// =============================================================================
// Cylinder
// =============================================================================

func TestNewCylinder_Errors(t *testing.T) {
	tests := []struct {
		name                string
		top, bottom, height float64
		segments            int
	}{
		{"two segments", 1, 1, 1, 2},
		{"zero height", 1, 1, 0, 8},
		{"no radius", 0, 0, 1, 8},
		{"negative radius", -1, 1, 1, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCylinder(tt.top, tt.bottom, tt.height, tt.segments)
			if !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("error = %v, want ErrInvalidGeometry", err)
			}
		})
	}
}

func TestCylinder(t *testing.T) {
	c, err := NewCylinder(1, 1, 2, 8)
	if err != nil {
		t.Fatalf("NewCylinder: %v", err)
	}

	if c.Type() != ShapeTypeCylinder {
		t.Errorf("Type = %v, want cylinder", c.Type())
	}
	if len(c.Vertices) != 16 || len(c.Faces) != 10 {
		t.Errorf("%d vertices and %d faces, want 16 and 10", len(c.Vertices), len(c.Faces))
	}
	if !floatEqual(c.Volume(), 2*math.Pi, 1e-12) {
		t.Errorf("Volume = %v, want 2π", c.Volume())
	}
	if got := c.CalculateLocalInertia(12); !vec3Equal(got, mgl64.Vec3{7, 6, 7}, 1e-12) {
		t.Errorf("inertia = %v, want (7, 6, 7)", got)
	}
	if !c.PointIsInside(mgl64.Vec3{}) || c.PointIsInside(mgl64.Vec3{0, 1.1, 0}) {
		t.Error("PointIsInside disagrees with the cylinder bounds")
	}

	aabb := c.CalculateWorldAABB(mgl64.Vec3{}, mgl64.QuatIdent())
	if !floatEqual(aabb.Min.Y(), -1, 1e-12) || !floatEqual(aabb.Max.Y(), 1, 1e-12) || !floatEqual(aabb.Max.X(), 1, 1e-12) {
		t.Errorf("AABB = %v", aabb)
	}

	// the hull is what the narrowphase sees
	if c.ConvexHull() != &c.ConvexPolyhedron {
		t.Error("ConvexHull must return the embedded polyhedron")
	}
}

// =============================================================================
// Heightfield
// =============================================================================

// slopedHeightfield samples z = x + 2y on a 3x3 grid
func slopedHeightfield(t *testing.T) *Heightfield {
	t.Helper()

	data := make([][]float64, 3)
	for i := range data {
		data[i] = make([]float64, 3)
		for j := range data[i] {
			data[i][j] = float64(i) + 2*float64(j)
		}
	}

	h, err := NewHeightfield(data, 1)
	if err != nil {
		t.Fatalf("NewHeightfield: %v", err)
	}
	return h
}

func TestNewHeightfield_Errors(t *testing.T) {
	tests := []struct {
		name        string
		data        [][]float64
		elementSize float64
	}{
		{"single row", [][]float64{{0, 0}}, 1},
		{"single column", [][]float64{{0}, {0}}, 1},
		{"ragged rows", [][]float64{{0, 0}, {0, 0, 0}}, 1},
		{"zero element size", [][]float64{{0, 0}, {0, 0}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHeightfield(tt.data, tt.elementSize)
			if !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("error = %v, want ErrInvalidGeometry", err)
			}
		})
	}
}

func TestHeightfieldBounds(t *testing.T) {
	h := slopedHeightfield(t)

	if h.MinValue != 0 || h.MaxValue != 6 {
		t.Errorf("range = [%v, %v], want [0, 6]", h.MinValue, h.MaxValue)
	}
	if aabb := h.LocalAABB(); aabb.Max != (mgl64.Vec3{2, 2, 6}) || aabb.Min != (mgl64.Vec3{0, 0, 0}) {
		t.Errorf("LocalAABB = %v", aabb)
	}

	h.Data[2][2] = 10
	h.Update()
	if h.MaxValue != 10 {
		t.Errorf("MaxValue after Update = %v, want 10", h.MaxValue)
	}
}

func TestHeightfieldIndexOfPosition(t *testing.T) {
	tests := []struct {
		name   string
		x, y   float64
		clamp  bool
		xi, yi int
		ok     bool
	}{
		{"inside", 1.5, 0.5, false, 1, 0, true},
		{"on the last cell", 1.99, 1.99, false, 1, 1, true},
		{"outside", 2.5, 0, false, 2, 0, false},
		{"negative clamped", -0.5, 5, true, 0, 1, false},
	}

	h := slopedHeightfield(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			xi, yi, ok := h.IndexOfPosition(tt.x, tt.y, tt.clamp)
			if xi != tt.xi || yi != tt.yi || ok != tt.ok {
				t.Errorf("IndexOfPosition = (%d, %d, %v), want (%d, %d, %v)", xi, yi, ok, tt.xi, tt.yi, tt.ok)
			}
		})
	}
}

func TestHeightfieldHeightAndNormal(t *testing.T) {
	h := slopedHeightfield(t)
	want := mgl64.Vec3{-1, -2, 1}.Normalize()

	points := [][2]float64{{0, 0}, {0.3, 1.6}, {0.8, 0.7}, {1.5, 1.5}, {2, 2}}
	for _, p := range points {
		if got := h.Height(p[0], p[1]); !floatEqual(got, p[0]+2*p[1], 1e-12) {
			t.Errorf("Height(%v, %v) = %v, want %v", p[0], p[1], got, p[0]+2*p[1])
		}
		if got := h.Normal(p[0], p[1]); !vec3Equal(got, want, 1e-12) {
			t.Errorf("Normal(%v, %v) = %v, want %v", p[0], p[1], got, want)
		}
	}
}

func TestHeightfieldRanges(t *testing.T) {
	h := slopedHeightfield(t)

	if lo, hi := h.RectMinMax(0, 0, 1, 1); lo != 0 || hi != 3 {
		t.Errorf("RectMinMax = (%v, %v), want (0, 3)", lo, hi)
	}

	iMinX, iMinY, iMaxX, iMaxY := h.ClampedRange(mgl64.Vec3{0.5, 0.5, 0}, mgl64.Vec3{0.6, 0.6, 0})
	if iMinX != 0 || iMinY != 0 || iMaxX != 2 || iMaxY != 2 {
		t.Errorf("ClampedRange = (%d, %d, %d, %d), want (0, 0, 2, 2)", iMinX, iMinY, iMaxX, iMaxY)
	}
}

func TestHeightfieldTrianglePillar(t *testing.T) {
	h := slopedHeightfield(t)

	tests := []struct {
		name  string
		upper bool
		top   [3]mgl64.Vec3
	}{
		{"lower", false, [3]mgl64.Vec3{{0, 0, 0}, {1, 0, 1}, {0, 1, 2}}},
		{"upper", true, [3]mgl64.Vec3{{1, 1, 3}, {0, 1, 2}, {1, 0, 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			convex, offset := h.TrianglePillar(0, 0, tt.upper)
			for i, want := range tt.top {
				if got := convex.Vertices[i].Add(offset); !vec3Equal(got, want, 1e-12) {
					t.Errorf("top vertex %d = %v, want %v", i, got, want)
				}
			}
			for i := 3; i < 6; i++ {
				if convex.Vertices[i].Add(offset).Z() >= h.MinValue {
					t.Errorf("bottom vertex %d must reach below the lowest sample", i)
				}
			}

			again, _ := h.TrianglePillar(0, 0, tt.upper)
			if again != convex {
				t.Error("expected the pillar to be cached")
			}
		})
	}
}

// =============================================================================
// Trimesh
// =============================================================================

// gridMesh is a flat n x n quad grid in the XY plane, two triangles per quad
func gridMesh(t *testing.T, n int) *Trimesh {
	t.Helper()

	var vertices []mgl64.Vec3
	for i := 0; i <= n; i++ {
		for j := 0; j <= n; j++ {
			vertices = append(vertices, mgl64.Vec3{float64(i), float64(j), 0})
		}
	}

	var indices []int
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a := i*(n+1) + j
			b := (i+1)*(n+1) + j
			indices = append(indices, a, b, a+1, b, b+1, a+1)
		}
	}

	mesh, err := NewTrimesh(vertices, indices)
	if err != nil {
		t.Fatalf("NewTrimesh: %v", err)
	}
	return mesh
}

func TestNewTrimesh_Errors(t *testing.T) {
	vertices := []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}

	if _, err := NewTrimesh(vertices, []int{0, 1}); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("index count not a multiple of 3: error = %v", err)
	}
	if _, err := NewTrimesh(vertices, []int{0, 1, 3}); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("out of range index: error = %v", err)
	}
	if _, err := NewTrimesh(vertices, nil); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("no triangle: error = %v", err)
	}
}

func TestTrimesh(t *testing.T) {
	mesh := gridMesh(t, 1)

	if mesh.TriangleCount() != 2 {
		t.Fatalf("TriangleCount = %d, want 2", mesh.TriangleCount())
	}
	if got := mesh.TriangleNormal(0); !vec3Equal(got, mgl64.Vec3{0, 0, 1}, 1e-12) {
		t.Errorf("TriangleNormal = %v, want +Z", got)
	}
	if a, b, c := mesh.TriangleVertexIndices(1); a != 2 || b != 3 || c != 1 {
		t.Errorf("TriangleVertexIndices = (%d, %d, %d), want (2, 3, 1)", a, b, c)
	}

	mesh.SetScale(mgl64.Vec3{2, 1, 1})
	if _, b, _ := mesh.Triangle(0); b != (mgl64.Vec3{2, 0, 0}) {
		t.Errorf("scaled vertex = %v, want (2, 0, 0)", b)
	}
	if mesh.LocalAABB().Max != (mgl64.Vec3{2, 1, 0}) {
		t.Errorf("LocalAABB = %v", mesh.LocalAABB())
	}
	if !floatEqual(mesh.BoundingSphereRadius(), math.Sqrt(5), 1e-12) {
		t.Errorf("BoundingSphereRadius = %v, want √5", mesh.BoundingSphereRadius())
	}
}

func TestTrimeshQueries(t *testing.T) {
	const n = 8
	mesh := gridMesh(t, n)
	quad := 2 * (3*n + 3)

	t.Run("aabb", func(t *testing.T) {
		found := mesh.TrianglesInAABB(AABB{Min: mgl64.Vec3{3.4, 3.4, -0.1}, Max: mgl64.Vec3{3.6, 3.6, 0.1}}, nil)
		if !slices.Contains(found, quad) || !slices.Contains(found, quad+1) {
			t.Errorf("TrianglesInAABB = %v, want %d and %d", found, quad, quad+1)
		}
		if len(found) >= mesh.TriangleCount() {
			t.Errorf("TrianglesInAABB returned %d of %d triangles", len(found), mesh.TriangleCount())
		}
	})

	t.Run("aabb outside", func(t *testing.T) {
		if found := mesh.TrianglesInAABB(AABB{Min: mgl64.Vec3{20, 20, 20}, Max: mgl64.Vec3{21, 21, 21}}, nil); len(found) != 0 {
			t.Errorf("TrianglesInAABB = %v, want none", found)
		}
	})

	t.Run("ray", func(t *testing.T) {
		found := mesh.TrianglesOnRay(mgl64.Vec3{3.5, 3.5, 1}, mgl64.Vec3{3.5, 3.5, -1}, nil)
		if !slices.Contains(found, quad) || !slices.Contains(found, quad+1) {
			t.Errorf("TrianglesOnRay = %v, want %d and %d", found, quad, quad+1)
		}
		if len(found) >= mesh.TriangleCount() {
			t.Errorf("TrianglesOnRay returned %d of %d triangles", len(found), mesh.TriangleCount())
		}
	})

	t.Run("scaled", func(t *testing.T) {
		mesh.SetScale(mgl64.Vec3{2, 2, 1})
		defer mesh.SetScale(mgl64.Vec3{1, 1, 1})

		found := mesh.TrianglesInAABB(AABB{Min: mgl64.Vec3{6.8, 6.8, -0.1}, Max: mgl64.Vec3{7.2, 7.2, 0.1}}, nil)
		if !slices.Contains(found, quad) {
			t.Errorf("TrianglesInAABB on the scaled mesh = %v, want %d", found, quad)
		}
	})
}

// =============================================================================
// Materials
// =============================================================================

func TestContactMaterialTable(t *testing.T) {
	ice, rubber, wood := NewMaterial("ice"), NewMaterial("rubber"), NewMaterial("wood")
	if ice.Friction >= 0 || ice.Restitution >= 0 {
		t.Error("a new material must defer to the contact material")
	}

	table := NewContactMaterialTable()
	cm := NewContactMaterial(ice, rubber)
	cm.Friction = 0.05
	table.Add(cm)

	if table.Get(rubber, ice) != cm {
		t.Error("lookup must not depend on the material order")
	}
	if table.Get(ice, wood) != nil {
		t.Error("expected no entry for (ice, wood)")
	}
	if table.Get(nil, ice) != nil {
		t.Error("expected no entry with a nil material")
	}

	replacement := NewContactMaterial(rubber, ice)
	table.Add(replacement)
	if table.Len() != 1 || table.Get(ice, rubber) != replacement {
		t.Error("adding the same pair must replace the entry")
	}
}

func TestContactMaterialTable_NilMaterial(t *testing.T) {
	table := NewContactMaterialTable()
	table.Add(NewContactMaterial(nil, nil))
	table.Add(NewContactMaterial(NewMaterial("steel"), nil))

	if table.Len() != 0 {
		t.Errorf("table holds %d entries, want none for nil materials", table.Len())
	}
}
