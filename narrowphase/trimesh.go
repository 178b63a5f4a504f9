package narrowphase

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/vmath"
	"github.com/go-gl/mathgl/mgl64"
)

// meshPointEpsilon is the distance below which two sphere-trimesh contacts are the same point
const meshPointEpsilon = 1e-6

// sphereTrimesh queries the triangles around the sphere, then tests their vertices, edges and
// faces in that order. A vertex or an edge shared by several triangles produces one contact,
// and a face contact landing on a feature already used is dropped.
func (n *Narrowphase) sphereTrimesh(a, b placed, justTest bool) bool {
	radius := a.shape.(*actor.Sphere).Radius
	mesh := b.shape.(*actor.Trimesh)
	center := b.toLocal(a.position)
	radiusSquared := radius * radius

	extent := mgl64.Vec3{radius, radius, radius}
	n.triangles = mesh.TrianglesInAABB(actor.AABB{Min: center.Sub(extent), Max: center.Add(extent)}, n.triangles[:0])
	if len(n.triangles) == 0 {
		return false
	}
	clear(n.features)
	n.meshPoints = n.meshPoints[:0]

	found := false
	contact := func(localPoint mgl64.Vec3) {
		for _, p := range n.meshPoints {
			if p.Sub(localPoint).LenSqr() < meshPointEpsilon*meshPointEpsilon {
				return
			}
		}
		n.meshPoints = append(n.meshPoints, localPoint)
		found = true
		if justTest {
			return
		}
		normal := b.quaternion.Rotate(vmath.SafeNormalize(localPoint.Sub(center)))
		n.addContact(a, b, normal, a.position.Add(normal.Mul(radius)), b.toWorld(localPoint))
	}

	for _, tri := range n.triangles {
		va, vb, vc := mesh.Triangle(tri)
		ia, ib, ic := mesh.TriangleVertexIndices(tri)

		for k, v := range [3]mgl64.Vec3{va, vb, vc} {
			index := [3]int{ia, ib, ic}[k]
			if v.Sub(center).LenSqr() > radiusSquared || n.seen(index, -1) {
				continue
			}
			contact(v)
			if found && justTest {
				return true
			}
		}
	}

	for _, tri := range n.triangles {
		vertices := [3]mgl64.Vec3{}
		vertices[0], vertices[1], vertices[2] = mesh.Triangle(tri)
		indices := [3]int{}
		indices[0], indices[1], indices[2] = mesh.TriangleVertexIndices(tri)

		for k := 0; k < 3; k++ {
			edgeA, edgeB := vertices[k], vertices[(k+1)%3]
			edge := edgeB.Sub(edgeA)
			lengthSquared := edge.LenSqr()
			if lengthSquared == 0 {
				continue
			}

			t := center.Sub(edgeA).Dot(edge) / lengthSquared
			if t <= 0 || t >= 1 {
				continue
			}
			onEdge := edgeA.Add(edge.Mul(t))
			if onEdge.Sub(center).LenSqr() >= radiusSquared {
				continue
			}

			i1, i2 := indices[k], indices[(k+1)%3]
			if i1 > i2 {
				i1, i2 = i2, i1
			}
			if n.seen(i1, i2) {
				continue
			}
			contact(onEdge)
			if found && justTest {
				return true
			}
		}
	}

	for _, tri := range n.triangles {
		va, vb, vc := mesh.Triangle(tri)
		normal := mesh.TriangleNormal(tri)
		if normal.LenSqr() == 0 {
			continue
		}

		dist := center.Sub(va).Dot(normal)
		projected := center.Sub(normal.Mul(dist))
		if dist*dist >= radiusSquared || !vmath.PointInTriangle(projected, va, vb, vc) {
			continue
		}
		contact(projected)
		if found && justTest {
			return true
		}
	}

	return found
}

// seen marks a mesh feature, a vertex (i, -1) or an edge (i, j), and reports whether it was already used
func (n *Narrowphase) seen(i, j int) bool {
	key := [2]int{i, j}
	if _, ok := n.features[key]; ok {
		return true
	}
	n.features[key] = struct{}{}
	return false
}

// planeTrimesh adds one contact per mesh vertex below the plane
func (n *Narrowphase) planeTrimesh(a, b placed, justTest bool) bool {
	planeNormal := a.shape.(*actor.Plane).WorldNormal(a.quaternion)
	mesh := b.shape.(*actor.Trimesh)

	found := false
	for _, v := range mesh.Vertices {
		vertex := b.toWorld(vmath.MulElem(v, mesh.Scale))
		dot := planeNormal.Dot(vertex.Sub(a.position))
		if dot > 0 {
			continue
		}
		if justTest {
			return true
		}
		found = true

		n.addContact(a, b, planeNormal, vertex.Sub(planeNormal.Mul(dot)), vertex)
	}

	return found
}
