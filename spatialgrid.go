package impulse

import (
	"math"
	"slices"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// ============================================================================
// Types
// ============================================================================

// CellKey - Coordinates of a cell in 3D space
type CellKey struct {
	X, Y, Z int
}

// Cell - Indices of the bodies overlapping the cells hashed here
type Cell struct {
	bodyIndices []int
}

// Pair - Two bodies possibly colliding, A having the lower index in the body list
type Pair struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody

	indexA, indexB int
}

// maxCellSpan is the number of cells per axis above which a body is tested against every body
// instead of being inserted in the grid
const maxCellSpan = 32

// GridBroadphase - Uniform grid hashed into a fixed number of cells.
// Pairs are returned sorted by body index, whatever the number of workers.
type GridBroadphase struct {
	// Workers above 1 search the pairs in parallel
	Workers int

	cellSize  float64
	cells     []Cell
	cellMask  int
	unbounded []int

	// per worker scratch
	found [][]Pair
	stamp [][]int
}

// ============================================================================
// Constructor
// ============================================================================

// NewGridBroadphase - cellSize should be close to the size of the common bodies
func NewGridBroadphase(cellSize float64, numCells int) *GridBroadphase {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].bodyIndices = make([]int, 0, 8)
	}

	return &GridBroadphase{
		Workers:  DefaultWorkers,
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

// nextPowerOfTwo - Rounds up to the next power of 2
func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// ============================================================================
// Broadphase
// ============================================================================

func (sg *GridBroadphase) CollisionPairs(bodies, pairsA, pairsB []*actor.RigidBody) ([]*actor.RigidBody, []*actor.RigidBody) {
	sg.Clear()
	for i, body := range bodies {
		sg.Insert(i, body)
	}

	for _, pair := range sg.FindPairs(bodies) {
		pairsA = append(pairsA, pair.BodyA)
		pairsB = append(pairsB, pair.BodyB)
	}

	return pairsA, pairsB
}

func (sg *GridBroadphase) AABBQuery(bodies []*actor.RigidBody, aabb actor.AABB, result []*actor.RigidBody) []*actor.RigidBody {
	return aabbQuery(bodies, aabb, result)
}

// Insert - Adds a body to every cell its AABB overlaps
func (sg *GridBroadphase) Insert(bodyIndex int, body *actor.RigidBody) {
	minCell, maxCell, ok := sg.cellRange(body.AABB())
	if !ok {
		sg.unbounded = append(sg.unbounded, bodyIndex)
		return
	}

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				cellIdx := sg.hashCell(CellKey{x, y, z})
				cell := &sg.cells[cellIdx]
				// a body spanning several cells hashed to the same bucket is only listed once
				if n := len(cell.bodyIndices); n > 0 && cell.bodyIndices[n-1] == bodyIndex {
					continue
				}
				cell.bodyIndices = append(cell.bodyIndices, bodyIndex)
			}
		}
	}
}

func (sg *GridBroadphase) Clear() {
	for i := range sg.cells {
		sg.cells[i].bodyIndices = sg.cells[i].bodyIndices[:0]
	}
	sg.unbounded = sg.unbounded[:0]
}

// FindPairs - Candidate pairs of the inserted bodies, sorted by index
func (sg *GridBroadphase) FindPairs(bodies []*actor.RigidBody) []Pair {
	workers := max(1, sg.Workers)
	sg.prepare(workers, len(bodies))

	indices := make([]int, len(bodies))
	for i := range indices {
		indices[i] = i
	}

	task(workers, indices, func(worker, bodyIdx int) {
		sg.found[worker] = sg.pairsOf(bodies, bodyIdx, sg.stamp[worker], sg.found[worker])
	})

	var pairs []Pair
	for w := range sg.found[:workers] {
		pairs = append(pairs, sg.found[w]...)
	}

	// the unbounded bodies against everything else
	for _, u := range sg.unbounded {
		for other := range bodies {
			if other == u || (slices.Contains(sg.unbounded, other) && other < u) {
				continue
			}
			if pair, ok := sg.test(bodies, u, other); ok {
				pairs = append(pairs, pair)
			}
		}
	}

	slices.SortFunc(pairs, func(a, b Pair) int {
		if a.indexA != b.indexA {
			return a.indexA - b.indexA
		}
		return a.indexB - b.indexB
	})

	return pairs
}

func (sg *GridBroadphase) prepare(workers, bodyCount int) {
	for len(sg.found) < workers {
		sg.found = append(sg.found, nil)
		sg.stamp = append(sg.stamp, nil)
	}
	for w := 0; w < workers; w++ {
		sg.found[w] = sg.found[w][:0]
		if len(sg.stamp[w]) < bodyCount {
			sg.stamp[w] = make([]int, bodyCount)
		}
		clear(sg.stamp[w])
	}
}

// pairsOf appends the pairs of bodyIdx with the bodies of higher index sharing one of its cells.
// stamp[other] == bodyIdx+1 marks the bodies already tested.
func (sg *GridBroadphase) pairsOf(bodies []*actor.RigidBody, bodyIdx int, stamp []int, pairs []Pair) []Pair {
	minCell, maxCell, ok := sg.cellRange(bodies[bodyIdx].AABB())
	if !ok {
		return pairs
	}

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				cellIdx := sg.hashCell(CellKey{x, y, z})

				for _, otherIdx := range sg.cells[cellIdx].bodyIndices {
					if otherIdx <= bodyIdx || stamp[otherIdx] == bodyIdx+1 {
						continue
					}
					stamp[otherIdx] = bodyIdx + 1

					if pair, ok := sg.test(bodies, bodyIdx, otherIdx); ok {
						pairs = append(pairs, pair)
					}
				}
			}
		}
	}

	return pairs
}

func (sg *GridBroadphase) test(bodies []*actor.RigidBody, i, j int) (Pair, bool) {
	if i > j {
		i, j = j, i
	}
	a, b := bodies[i], bodies[j]
	if !NeedBroadphaseCollision(a, b) || !a.AABB().Overlaps(b.AABB()) {
		return Pair{}, false
	}
	return Pair{BodyA: a, BodyB: b, indexA: i, indexB: j}, true
}

// cellRange - Cells covered by the box, ok is false when the box is too large for the grid
func (sg *GridBroadphase) cellRange(aabb actor.AABB) (CellKey, CellKey, bool) {
	for i := 0; i < 3; i++ {
		if (aabb.Max[i]-aabb.Min[i])/sg.cellSize > maxCellSpan || math.IsInf(aabb.Max[i]-aabb.Min[i], 0) {
			return CellKey{}, CellKey{}, false
		}
	}
	return sg.worldToCell(aabb.Min), sg.worldToCell(aabb.Max), true
}

// worldToCell - Converts a world position into cell coordinates
func (sg *GridBroadphase) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / sg.cellSize)),
		Y: int(math.Floor(pos.Y() / sg.cellSize)),
		Z: int(math.Floor(pos.Z() / sg.cellSize)),
	}
}

// hashCell - Hashes a cell into an index of the array
func (sg *GridBroadphase) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & sg.cellMask
}
