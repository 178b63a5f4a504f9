package impulse

import (
	"github.com/akmonengine/impulse/actor"
)

// Broadphase finds the body pairs that may be colliding.
// Body AABBs are refreshed by the world before each call.
type Broadphase interface {
	// CollisionPairs appends the candidate pairs, pairsA[k] going with pairsB[k]
	CollisionPairs(bodies, pairsA, pairsB []*actor.RigidBody) ([]*actor.RigidBody, []*actor.RigidBody)
	// AABBQuery appends the bodies whose AABB overlaps aabb
	AABBQuery(bodies []*actor.RigidBody, aabb actor.AABB, result []*actor.RigidBody) []*actor.RigidBody
}

// NeedBroadphaseCollision checks the collision filters both ways, and that at least one
// body can move: static and sleeping bodies never collide with each other.
func NeedBroadphaseCollision(a, b *actor.RigidBody) bool {
	if a.CollisionFilterGroup&b.CollisionFilterMask == 0 || b.CollisionFilterGroup&a.CollisionFilterMask == 0 {
		return false
	}

	inactiveA := a.BodyType == actor.BodyTypeStatic || a.SleepState == actor.Sleeping
	inactiveB := b.BodyType == actor.BodyTypeStatic || b.SleepState == actor.Sleeping

	return !(inactiveA && inactiveB)
}

// IntersectionTest is the conservative volume test of a pair
func IntersectionTest(a, b *actor.RigidBody, useBoundingBoxes bool) bool {
	if useBoundingBoxes {
		return a.AABB().Overlaps(b.AABB())
	}

	r := a.BoundingRadius() + b.BoundingRadius()
	return a.Transform.Position.Sub(b.Transform.Position).LenSqr() < r*r
}

// MakePairsUnique removes the repeated pairs, whatever their order, keeping the first occurrence
func MakePairsUnique(pairsA, pairsB []*actor.RigidBody) ([]*actor.RigidBody, []*actor.RigidBody) {
	seen := make(map[uint64]struct{}, len(pairsA))

	n := 0
	for k := range pairsA {
		key := pairKey(pairsA[k].ID(), pairsB[k].ID())
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		pairsA[n], pairsB[n] = pairsA[k], pairsB[k]
		n++
	}

	return pairsA[:n], pairsB[:n]
}

func aabbQuery(bodies []*actor.RigidBody, aabb actor.AABB, result []*actor.RigidBody) []*actor.RigidBody {
	for _, body := range bodies {
		if body.AABB().Overlaps(aabb) {
			result = append(result, body)
		}
	}
	return result
}

// NaiveBroadphase tests every pair of bodies
type NaiveBroadphase struct {
	// UseBoundingBoxes tests AABBs instead of bounding spheres
	UseBoundingBoxes bool
}

func (n *NaiveBroadphase) CollisionPairs(bodies, pairsA, pairsB []*actor.RigidBody) ([]*actor.RigidBody, []*actor.RigidBody) {
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			a, b := bodies[i], bodies[j]
			if !NeedBroadphaseCollision(a, b) || !IntersectionTest(a, b, n.UseBoundingBoxes) {
				continue
			}
			pairsA = append(pairsA, a)
			pairsB = append(pairsB, b)
		}
	}

	return pairsA, pairsB
}

func (n *NaiveBroadphase) AABBQuery(bodies []*actor.RigidBody, aabb actor.AABB, result []*actor.RigidBody) []*actor.RigidBody {
	return aabbQuery(bodies, aabb, result)
}
