package sat

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ContactPoint is a clipped point of the incident face
type ContactPoint struct {
	// Point lies on the incident face of B, in world space
	Point mgl64.Vec3
	// Normal is the world normal of the reference face of A
	Normal mgl64.Vec3
	// Depth is the signed distance to the reference face, negative when penetrating
	Depth float64
}

// ClipAgainstHull builds the manifold of two overlapping hulls.
// separatingNormal must point from b toward a, as returned by FindSeparatingAxis.
func ClipAgainstHull(a, b Placed, separatingNormal mgl64.Vec3, opts Options, result []ContactPoint) []ContactPoint {
	// Incident face: the face of B most aligned with the axis
	closestFaceB := -1
	dmax := -math.MaxFloat64
	for i, n := range b.Hull.FaceNormals {
		d := b.Quaternion.Rotate(n).Dot(separatingNormal)
		if d > dmax {
			dmax = d
			closestFaceB = i
		}
	}
	if closestFaceB < 0 {
		return result
	}

	face := b.Hull.Faces[closestFaceB]
	incident := make([]mgl64.Vec3, 0, len(face))
	for _, index := range face {
		incident = append(incident, b.Quaternion.Rotate(b.Hull.Vertices[index]).Add(b.Position))
	}

	return ClipFaceAgainstHull(separatingNormal, a, incident, opts, result)
}

// ClipFaceAgainstHull clips a world polygon against the reference face of a hull.
func ClipFaceAgainstHull(separatingNormal mgl64.Vec3, a Placed, incident []mgl64.Vec3, opts Options, result []ContactPoint) []ContactPoint {
	// Reference face: the face of A most opposed to the axis
	closestFaceA := -1
	dmin := math.MaxFloat64
	for i, n := range a.Hull.FaceNormals {
		d := a.Quaternion.Rotate(n).Dot(separatingNormal)
		if d < dmin {
			dmin = d
			closestFaceA = i
		}
	}
	if closestFaceA < 0 {
		return result
	}

	face := a.Hull.Faces[closestFaceA]
	reference := make([]mgl64.Vec3, 0, len(face))
	for _, index := range face {
		reference = append(reference, a.Quaternion.Rotate(a.Hull.Vertices[index]).Add(a.Position))
	}
	refNormal := a.Quaternion.Rotate(a.Hull.FaceNormals[closestFaceA])

	clipped := clipIncidentAgainstReference(incident, reference, refNormal)

	// Keep the points behind the reference plane, or within the slop in front of it
	offset := reference[0].Dot(refNormal)
	for _, point := range clipped {
		depth := point.Dot(refNormal) - offset
		if depth <= opts.ClipMinDist {
			depth = opts.ClipMinDist
		}
		if depth <= opts.ClipMaxDist && depth <= opts.ContactSlop {
			result = append(result, ContactPoint{
				Point:  point,
				Normal: refNormal,
				Depth:  depth,
			})
		}
	}

	return result
}

// clipIncidentAgainstReference performs Sutherland-Hodgman polygon clipping.
//
// The incident polygon is cut by one plane per reference edge. Each plane contains the
// edge and the reference normal, and faces the center of the reference polygon, so the
// winding of the reference face does not matter.
func clipIncidentAgainstReference(incident, reference []mgl64.Vec3, normal mgl64.Vec3) []mgl64.Vec3 {
	if len(reference) < 3 {
		return incident
	}

	center := computeCenter(reference)
	output := incident

	for i := 0; i < len(reference); i++ {
		if len(output) == 0 {
			break
		}

		v1 := reference[i]
		v2 := reference[(i+1)%len(reference)]

		clipNormal := v2.Sub(v1).Cross(normal)
		if clipNormal.LenSqr() < 1e-20 {
			continue
		}
		clipNormal = clipNormal.Normalize()
		if center.Sub(v1).Dot(clipNormal) < 0 {
			clipNormal = clipNormal.Mul(-1)
		}

		output = ClipFaceAgainstPlane(output, clipNormal, -clipNormal.Dot(v1))
	}

	return output
}

// ClipFaceAgainstPlane keeps the part of the polygon where n·p + constant >= 0
func ClipFaceAgainstPlane(polygon []mgl64.Vec3, n mgl64.Vec3, constant float64) []mgl64.Vec3 {
	if len(polygon) < 2 {
		return polygon
	}

	output := make([]mgl64.Vec3, 0, len(polygon)+1)
	first := polygon[len(polygon)-1]
	dFirst := n.Dot(first) + constant

	for _, last := range polygon {
		dLast := n.Dot(last) + constant

		switch {
		case dFirst >= 0 && dLast >= 0:
			output = append(output, last)
		case dFirst >= 0:
			output = append(output, lineIntersectPlane(first, last, dFirst, dLast))
		case dLast >= 0:
			output = append(output, lineIntersectPlane(first, last, dFirst, dLast), last)
		}

		first = last
		dFirst = dLast
	}

	return output
}

// lineIntersectPlane interpolates between two points given their signed distances
func lineIntersectPlane(a, b mgl64.Vec3, da, db float64) mgl64.Vec3 {
	t := da / (da - db)
	return a.Add(b.Sub(a).Mul(t))
}

func computeCenter(points []mgl64.Vec3) mgl64.Vec3 {
	var center mgl64.Vec3
	for _, p := range points {
		center = center.Add(p)
	}
	return center.Mul(1.0 / float64(len(points)))
}
