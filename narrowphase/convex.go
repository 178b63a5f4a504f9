package narrowphase

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/gjk"
	"github.com/akmonengine/impulse/sat"
)

// planeConvex adds one contact per hull vertex below the plane or within the contact slop
func (n *Narrowphase) planeConvex(a, b placed, justTest bool) bool {
	planeNormal := a.shape.(*actor.Plane).WorldNormal(a.quaternion)

	found := false
	for _, v := range b.hull.Vertices {
		vertex := b.toWorld(v)
		dot := planeNormal.Dot(vertex.Sub(a.position))
		if dot > n.SAT.ContactSlop {
			continue
		}
		if justTest {
			return true
		}
		found = true

		projected := vertex.Sub(planeNormal.Mul(dot))
		n.addContact(a, b, planeNormal, projected, vertex)
	}

	return found
}

// convexConvex rejects separated hulls with GJK, then clips along the SAT axis of least overlap
func (n *Narrowphase) convexConvex(a, b placed, justTest bool) bool {
	if a.position.Sub(b.position).Len() > a.hull.BoundingSphereRadius()+b.hull.BoundingSphereRadius() {
		return false
	}

	hullA, hullB := a.sat(), b.sat()
	if !gjk.Intersect(hullA, hullB) {
		return false
	}

	axis, ok := sat.FindSeparatingAxis(hullA, hullB, n.SAT)
	if !ok {
		return false
	}

	points := sat.ClipAgainstHull(hullA, hullB, axis, n.SAT, nil)
	if len(points) == 0 {
		return false
	}
	if justTest {
		return true
	}

	normal := axis.Mul(-1)
	for _, p := range points {
		// move the point of B back onto the reference face of A
		pointA := p.Point.Sub(p.Normal.Mul(p.Depth))
		n.addContact(a, b, normal, pointA, p.Point)
	}

	return true
}
