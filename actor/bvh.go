package actor

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// bvhNode is a node of the triangle bounding volume hierarchy.
// Internal nodes have two children, leaves hold triangle indices.
type bvhNode struct {
	bounds    AABB
	left      *bvhNode
	right     *bvhNode
	triangles []int
}

// maxTrianglesPerLeaf is the threshold for splitting BVH nodes.
const maxTrianglesPerLeaf = 4

// buildBVH splits triangles at the median centroid along the longest axis
func buildBVH(triangles []int, bounds func(int) AABB, centroid func(int) mgl64.Vec3) *bvhNode {
	if len(triangles) == 0 {
		return nil
	}

	node := &bvhNode{bounds: EmptyAABB()}
	for _, t := range triangles {
		node.bounds = node.bounds.Extend(bounds(t))
	}

	if len(triangles) <= maxTrianglesPerLeaf {
		node.triangles = triangles
		return node
	}

	extent := node.bounds.Max.Sub(node.bounds.Min)
	axis := 0
	if extent.Y() > extent.X() && extent.Y() >= extent.Z() {
		axis = 1
	} else if extent.Z() > extent.X() && extent.Z() > extent.Y() {
		axis = 2
	}

	sort.SliceStable(triangles, func(i, j int) bool {
		return centroid(triangles[i])[axis] < centroid(triangles[j])[axis]
	})

	mid := len(triangles) / 2
	node.left = buildBVH(triangles[:mid], bounds, centroid)
	node.right = buildBVH(triangles[mid:], bounds, centroid)

	return node
}

// query appends the triangles of every leaf overlapping aabb
func (n *bvhNode) query(aabb AABB, result []int) []int {
	if n == nil || !n.bounds.Overlaps(aabb) {
		return result
	}
	if n.triangles != nil {
		return append(result, n.triangles...)
	}

	result = n.left.query(aabb, result)
	return n.right.query(aabb, result)
}

// queryRay appends the triangles of every leaf crossed by the segment
func (n *bvhNode) queryRay(from, to mgl64.Vec3, result []int) []int {
	if n == nil || !n.bounds.OverlapsRay(from, to) {
		return result
	}
	if n.triangles != nil {
		return append(result, n.triangles...)
	}

	result = n.left.queryRay(from, to, result)
	return n.right.queryRay(from, to, result)
}
