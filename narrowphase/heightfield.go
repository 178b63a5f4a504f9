package narrowphase

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// maxContactsPerCell stops the search once a cell produced more contacts than this
const maxContactsPerCell = 2

// sphereHeightfield collides the sphere with the two triangle pillars of every nearby cell
func (n *Narrowphase) sphereHeightfield(a, b placed, justTest bool) bool {
	return n.shapeHeightfield(a, b, a.shape.BoundingSphereRadius(), justTest, n.sphereConvex)
}

func (n *Narrowphase) convexHeightfield(a, b placed, justTest bool) bool {
	return n.shapeHeightfield(a, b, a.hull.BoundingSphereRadius(), justTest, n.convexConvex)
}

func (n *Narrowphase) shapeHeightfield(a, b placed, radius float64, justTest bool, collide func(a, b placed, justTest bool) bool) bool {
	hf := b.shape.(*actor.Heightfield)
	local := b.toLocal(a.position)
	extent := mgl64.Vec3{radius, radius, radius}

	iMinX, iMinY, iMaxX, iMaxY := hf.ClampedRange(local.Sub(extent), local.Add(extent))
	if iMinX >= iMaxX || iMinY >= iMaxY {
		return false
	}

	lo, hi := hf.RectMinMax(iMinX, iMinY, iMaxX, iMaxY)
	if local.Z()-radius > hi || local.Z()+radius < lo {
		return false
	}

	found := false
	for i := iMinX; i < iMaxX; i++ {
		for j := iMinY; j < iMaxY; j++ {
			before := len(n.result.Contacts)

			for _, upper := range [2]bool{false, true} {
				pillar, offset := hf.TrianglePillar(i, j, upper)
				position := b.toWorld(offset)
				if a.position.Sub(position).Len() >= pillar.BoundingSphereRadius()+radius {
					continue
				}

				hit := collide(a, placed{
					shape:      hf,
					body:       b.body,
					position:   position,
					quaternion: b.quaternion,
					hull:       pillar,
				}, justTest)
				if hit && justTest {
					return true
				}
				found = found || hit
			}

			if len(n.result.Contacts)-before > maxContactsPerCell {
				return found
			}
		}
	}

	return found
}

// heightfieldParticle pushes a particle below the surface back along the triangle normal
func (n *Narrowphase) heightfieldParticle(a, b placed, justTest bool) bool {
	hf := a.shape.(*actor.Heightfield)
	local := a.toLocal(b.position)

	if _, _, ok := hf.IndexOfPosition(local.X(), local.Y(), false); !ok {
		return false
	}
	height := hf.Height(local.X(), local.Y())
	if local.Z() > height {
		return false
	}
	if justTest {
		return true
	}

	normal := a.quaternion.Rotate(hf.Normal(local.X(), local.Y()))
	surface := a.toWorld(mgl64.Vec3{local.X(), local.Y(), height})
	n.addContact(a, b, normal, surface, b.position)

	return true
}
