package narrowphase

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/vmath"
)

func (n *Narrowphase) sphereParticle(a, b placed, justTest bool) bool {
	radius := a.shape.(*actor.Sphere).Radius
	delta := b.position.Sub(a.position)
	if delta.LenSqr() > radius*radius {
		return false
	}
	if justTest {
		return true
	}

	normal := vmath.SafeNormalize(delta)
	if normal.LenSqr() == 0 {
		normal = vmath.UnitY
	}
	n.addContact(a, b, normal, a.position.Add(normal.Mul(radius)), b.position)

	return true
}

func (n *Narrowphase) planeParticle(a, b placed, justTest bool) bool {
	planeNormal := a.shape.(*actor.Plane).WorldNormal(a.quaternion)
	dot := planeNormal.Dot(b.position.Sub(a.position))
	if dot > 0 {
		return false
	}
	if justTest {
		return true
	}

	n.addContact(a, b, planeNormal, b.position.Sub(planeNormal.Mul(dot)), b.position)
	return true
}

// convexParticle pushes a particle inside the hull out through the closest face
func (n *Narrowphase) convexParticle(a, b placed, justTest bool) bool {
	hull := a.hull
	local := a.toLocal(b.position)
	if !hull.PointIsInside(local) {
		return false
	}

	best, bestPenetration := -1, math.Inf(1)
	for i, face := range hull.Faces {
		penetration := -hull.FaceNormals[i].Dot(local.Sub(hull.Vertices[face[0]]))
		if math.Abs(penetration) < math.Abs(bestPenetration) {
			best, bestPenetration = i, penetration
		}
	}
	if best < 0 {
		return false
	}
	if justTest {
		return true
	}

	faceNormal := hull.FaceNormals[best]
	n.addContact(a, b,
		a.quaternion.Rotate(faceNormal),
		a.toWorld(local.Add(faceNormal.Mul(bestPenetration))),
		b.position,
	)

	return true
}
