package impulse

import (
	"slices"
)

// pairKey packs two ids into an order independent key, the lower id in the high bits
func pairKey(i, j int) uint64 {
	if i > j {
		i, j = j, i
	}
	return uint64(uint32(i))<<32 | uint64(uint32(j))
}

// ============================================================================
// Collision matrix
// ============================================================================

// pruneInterval is the number of ticks between two sweeps of the stale entries
const pruneInterval = 64

// CollisionMatrix records which body pairs touched during the current and the previous step.
// Each entry holds the generations it was last set in, so that a tick is O(1).
type CollisionMatrix struct {
	generation uint64
	stamps     map[uint64]pairStamp
}

// pairStamp keeps the last generation a pair was set in, and the one before it
type pairStamp struct {
	last, before uint64
}

func NewCollisionMatrix() *CollisionMatrix {
	return &CollisionMatrix{
		generation: 1,
		stamps:     make(map[uint64]pairStamp),
	}
}

// Tick starts a new step: the current pairs become the previous ones
func (m *CollisionMatrix) Tick() {
	m.generation++
	if m.generation%pruneInterval != 0 {
		return
	}
	for key, stamp := range m.stamps {
		if stamp.last+1 < m.generation {
			delete(m.stamps, key)
		}
	}
}

func (m *CollisionMatrix) Set(i, j int) {
	key := pairKey(i, j)
	stamp := m.stamps[key]
	if stamp.last == m.generation {
		return
	}
	m.stamps[key] = pairStamp{last: m.generation, before: stamp.last}
}

// Get reports whether the pair touched during the current step
func (m *CollisionMatrix) Get(i, j int) bool {
	return m.stamps[pairKey(i, j)].last == m.generation
}

// Previous reports whether the pair touched during the previous step
func (m *CollisionMatrix) Previous(i, j int) bool {
	stamp, ok := m.stamps[pairKey(i, j)]
	if !ok {
		return false
	}
	if stamp.last == m.generation {
		return stamp.before != 0 && stamp.before+1 == m.generation
	}
	return stamp.last+1 == m.generation
}

// Forget drops every pair involving id
func (m *CollisionMatrix) Forget(id int) {
	for key := range m.stamps {
		if int(uint32(key>>32)) == id || int(uint32(key)) == id {
			delete(m.stamps, key)
		}
	}
}

func (m *CollisionMatrix) Reset() {
	clear(m.stamps)
	m.generation = 1
}

// ============================================================================
// Overlap keeper
// ============================================================================

// Overlap is a pair stored by an OverlapKeeper, A having the lower id
type Overlap[T any] struct {
	Key  uint64
	A, B T
}

// OverlapKeeper tracks the pairs overlapping during the current and the previous step.
// Both lists are kept sorted by key, Diff walks them side by side.
type OverlapKeeper[T any] struct {
	current  []Overlap[T]
	previous []Overlap[T]
}

// Set marks a pair as overlapping during the current step
func (k *OverlapKeeper[T]) Set(idA, idB int, a, b T) {
	if idA > idB {
		idA, idB = idB, idA
		a, b = b, a
	}
	key := pairKey(idA, idB)

	pos, found := slices.BinarySearchFunc(k.current, key, func(o Overlap[T], key uint64) int {
		switch {
		case o.Key < key:
			return -1
		case o.Key > key:
			return 1
		}
		return 0
	})
	if found {
		return
	}
	k.current = slices.Insert(k.current, pos, Overlap[T]{Key: key, A: a, B: b})
}

// Tick starts a new step
func (k *OverlapKeeper[T]) Tick() {
	k.previous, k.current = k.current, k.previous
	clear(k.current)
	k.current = k.current[:0]
}

// Diff appends the pairs that started and the pairs that stopped overlapping, in key order
func (k *OverlapKeeper[T]) Diff(additions, removals []Overlap[T]) ([]Overlap[T], []Overlap[T]) {
	i, j := 0, 0
	for i < len(k.current) || j < len(k.previous) {
		switch {
		case j == len(k.previous) || (i < len(k.current) && k.current[i].Key < k.previous[j].Key):
			additions = append(additions, k.current[i])
			i++
		case i == len(k.current) || k.previous[j].Key < k.current[i].Key:
			removals = append(removals, k.previous[j])
			j++
		default:
			i++
			j++
		}
	}
	return additions, removals
}

// Forget drops every pair involving id, without reporting it as removed
func (k *OverlapKeeper[T]) Forget(id int) {
	involves := func(o Overlap[T]) bool {
		return int(uint32(o.Key>>32)) == id || int(uint32(o.Key)) == id
	}
	k.current = slices.DeleteFunc(k.current, involves)
	k.previous = slices.DeleteFunc(k.previous, involves)
}

func (k *OverlapKeeper[T]) Len() int {
	return len(k.current)
}
