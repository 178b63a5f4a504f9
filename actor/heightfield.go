package actor

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Heightfield is a regular grid of heights.
// Data[xi][yi] is the local Z of the point (xi*ElementSize, yi*ElementSize).
type Heightfield struct {
	ShapeBase
	Data        [][]float64
	ElementSize float64
	MinValue    float64
	MaxValue    float64

	pillars map[pillarKey]pillar
}

type pillarKey struct {
	xi, yi int
	upper  bool
}

type pillar struct {
	convex *ConvexPolyhedron
	offset mgl64.Vec3
}

func NewHeightfield(data [][]float64, elementSize float64) (*Heightfield, error) {
	if len(data) < 2 || len(data[0]) < 2 {
		return nil, fmt.Errorf("heightfield needs at least 2x2 samples: %w", ErrInvalidGeometry)
	}
	for i := range data {
		if len(data[i]) != len(data[0]) {
			return nil, fmt.Errorf("heightfield row %d has %d samples, want %d: %w", i, len(data[i]), len(data[0]), ErrInvalidGeometry)
		}
	}
	if elementSize <= 0 {
		return nil, fmt.Errorf("heightfield element size %g: %w", elementSize, ErrInvalidGeometry)
	}

	h := &Heightfield{
		ShapeBase:   newShapeBase(),
		Data:        data,
		ElementSize: elementSize,
	}
	h.Update()

	return h, nil
}

func (h *Heightfield) Type() ShapeType {
	return ShapeTypeHeightfield
}

// Update must be called after Data changed
func (h *Heightfield) Update() {
	h.MinValue = math.Inf(1)
	h.MaxValue = math.Inf(-1)
	for _, row := range h.Data {
		for _, v := range row {
			h.MinValue = math.Min(h.MinValue, v)
			h.MaxValue = math.Max(h.MaxValue, v)
		}
	}

	h.pillars = make(map[pillarKey]pillar)
	h.UpdateBoundingSphereRadius()
}

func (h *Heightfield) UpdateBoundingSphereRadius() {
	s := h.ElementSize
	h.boundingSphereRadius = mgl64.Vec3{
		float64(len(h.Data)) * s,
		float64(len(h.Data[0])) * s,
		math.Max(math.Abs(h.MaxValue), math.Abs(h.MinValue)),
	}.Len()
}

func (h *Heightfield) Volume() float64 {
	return 0
}

func (h *Heightfield) CalculateLocalInertia(mass float64) mgl64.Vec3 {
	return mgl64.Vec3{}
}

func (h *Heightfield) LocalAABB() AABB {
	return AABB{
		Min: mgl64.Vec3{0, 0, h.MinValue},
		Max: mgl64.Vec3{float64(len(h.Data)-1) * h.ElementSize, float64(len(h.Data[0])-1) * h.ElementSize, h.MaxValue},
	}
}

func (h *Heightfield) CalculateWorldAABB(position mgl64.Vec3, quaternion mgl64.Quat) AABB {
	return transformAABB(h.LocalAABB(), position, quaternion)
}

// IndexOfPosition returns the cell holding the local point (x, y).
// ok is false outside the grid; with clamp the indices are still brought back in range.
func (h *Heightfield) IndexOfPosition(x, y float64, clamp bool) (xi, yi int, ok bool) {
	xi = int(math.Floor(x / h.ElementSize))
	yi = int(math.Floor(y / h.ElementSize))
	ok = xi >= 0 && yi >= 0 && xi < len(h.Data)-1 && yi < len(h.Data[0])-1

	if clamp {
		xi = max(0, min(xi, len(h.Data)-2))
		yi = max(0, min(yi, len(h.Data[0])-2))
	}

	return xi, yi, ok
}

// RectMinMax returns the height range of the samples in the index rectangle
func (h *Heightfield) RectMinMax(iMinX, iMinY, iMaxX, iMaxY int) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := iMinX; i <= iMaxX; i++ {
		for j := iMinY; j <= iMaxY; j++ {
			lo = math.Min(lo, h.Data[i][j])
			hi = math.Max(hi, h.Data[i][j])
		}
	}
	return lo, hi
}

// ClampedRange converts a local box into a clamped cell index range, widened by one cell
func (h *Heightfield) ClampedRange(localMin, localMax mgl64.Vec3) (iMinX, iMinY, iMaxX, iMaxY int) {
	s := h.ElementSize
	iMinX = max(0, int(math.Floor(localMin.X()/s))-1)
	iMaxX = min(len(h.Data)-1, int(math.Ceil(localMax.X()/s))+1)
	iMinY = max(0, int(math.Floor(localMin.Y()/s))-1)
	iMaxY = min(len(h.Data[0])-1, int(math.Ceil(localMax.Y()/s))+1)
	return iMinX, iMinY, iMaxX, iMaxY
}

// Height interpolates the surface height at the local point (x, y)
func (h *Heightfield) Height(x, y float64) float64 {
	xi, yi, _ := h.IndexOfPosition(x, y, true)
	s := h.ElementSize
	fx := x/s - float64(xi)
	fy := y/s - float64(yi)

	if fx+fy <= 1 {
		h00 := h.Data[xi][yi]
		return h00 + (h.Data[xi+1][yi]-h00)*fx + (h.Data[xi][yi+1]-h00)*fy
	}
	h11 := h.Data[xi+1][yi+1]
	return h11 + (h.Data[xi][yi+1]-h11)*(1-fx) + (h.Data[xi+1][yi]-h11)*(1-fy)
}

// Normal returns the local normal of the triangle under the local point (x, y)
func (h *Heightfield) Normal(x, y float64) mgl64.Vec3 {
	xi, yi, _ := h.IndexOfPosition(x, y, true)
	s := h.ElementSize
	fx := x/s - float64(xi)
	fy := y/s - float64(yi)

	var n mgl64.Vec3
	if fx+fy <= 1 {
		h00 := h.Data[xi][yi]
		n = mgl64.Vec3{-s * (h.Data[xi+1][yi] - h00), -s * (h.Data[xi][yi+1] - h00), s * s}
	} else {
		h11 := h.Data[xi+1][yi+1]
		n = mgl64.Vec3{s * (h.Data[xi][yi+1] - h11), s * (h.Data[xi+1][yi] - h11), s * s}
	}

	return n.Normalize()
}

// TrianglePillar returns the extruded triangle of a cell as a convex hull, plus its local offset.
// Each cell holds a lower and an upper triangle; the pillar reaches below the lowest sample.
func (h *Heightfield) TrianglePillar(xi, yi int, upper bool) (*ConvexPolyhedron, mgl64.Vec3) {
	key := pillarKey{xi: xi, yi: yi, upper: upper}
	if p, ok := h.pillars[key]; ok {
		return p.convex, p.offset
	}

	data := h.Data
	s := h.ElementSize
	height := (math.Min(math.Min(data[xi][yi], data[xi+1][yi]), math.Min(data[xi][yi+1], data[xi+1][yi+1]))-h.MinValue)/2 + h.MinValue
	bottom := -math.Abs(height) - 1

	var offset mgl64.Vec3
	var vertices []mgl64.Vec3
	if !upper {
		offset = mgl64.Vec3{(float64(xi) + 0.25) * s, (float64(yi) + 0.25) * s, height}
		vertices = []mgl64.Vec3{
			{-0.25 * s, -0.25 * s, data[xi][yi] - height},
			{0.75 * s, -0.25 * s, data[xi+1][yi] - height},
			{-0.25 * s, 0.75 * s, data[xi][yi+1] - height},
			{-0.25 * s, -0.25 * s, bottom},
			{0.75 * s, -0.25 * s, bottom},
			{-0.25 * s, 0.75 * s, bottom},
		}
	} else {
		offset = mgl64.Vec3{(float64(xi) + 0.75) * s, (float64(yi) + 0.75) * s, height}
		vertices = []mgl64.Vec3{
			{0.25 * s, 0.25 * s, data[xi+1][yi+1] - height},
			{-0.75 * s, 0.25 * s, data[xi][yi+1] - height},
			{0.25 * s, -0.75 * s, data[xi+1][yi] - height},
			{0.25 * s, 0.25 * s, bottom},
			{-0.75 * s, 0.25 * s, bottom},
			{0.25 * s, -0.75 * s, bottom},
		}
	}

	faces := [][]int{
		{0, 1, 2},
		{5, 4, 3},
		{0, 2, 5, 3},
		{1, 0, 3, 4},
		{4, 5, 2, 1},
	}

	convex := newConvexPolyhedron(vertices, faces)
	h.pillars[key] = pillar{convex: convex, offset: offset}

	return convex, offset
}
