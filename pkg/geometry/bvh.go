package geometry

import (
	"sort"

	"github.com/df07/go-portal-raytracer/pkg/core"
)

// BVHNode represents a node in the Bounding Volume Hierarchy
type BVHNode struct {
	BoundingBox core.AABB
	Left        *BVHNode
	Right       *BVHNode
	Primitives  []*Primitive // Leaf contents (nil for internal nodes)
}

// BVH is a bounding volume hierarchy over primitives. It is immutable after
// construction and safe for concurrent queries.
type BVH struct {
	Root   *BVHNode
	Bounds core.AABB
}

// Leaf threshold: if we have this many or fewer primitives, store them in a leaf node
const leafThreshold = 8

// NewBVH constructs a BVH from a slice of primitives
func NewBVH(primitives []*Primitive) *BVH {
	if len(primitives) == 0 {
		return &BVH{}
	}

	// Copy so sorting does not reorder the caller's slice
	prims := make([]*Primitive, len(primitives))
	copy(prims, primitives)

	root := buildBVH(prims)
	return &BVH{Root: root, Bounds: root.BoundingBox}
}

// buildBVH recursively splits at the median along the longest axis
func buildBVH(prims []*Primitive) *BVHNode {
	box := prims[0].Bounds()
	for _, p := range prims[1:] {
		box = box.Union(p.Bounds())
	}

	if len(prims) <= leafThreshold {
		return &BVHNode{BoundingBox: box, Primitives: prims}
	}

	axis := box.LongestAxis()
	sort.Slice(prims, func(i, j int) bool {
		return prims[i].Bounds().Center().Axis(axis) < prims[j].Bounds().Center().Axis(axis)
	})

	mid := len(prims) / 2
	return &BVHNode{
		BoundingBox: box,
		Left:        buildBVH(prims[:mid]),
		Right:       buildBVH(prims[mid:]),
	}
}

// Intersect returns the closest hit along ray within (0, ray.TMax)
func (bvh *BVH) Intersect(ray core.Ray) (core.Interaction, bool) {
	if bvh.Root == nil {
		return core.Interaction{}, false
	}
	var closest core.Interaction
	found := bvh.intersectNode(bvh.Root, &ray, &closest)
	return closest, found
}

// intersectNode shrinks ray.TMax as closer hits are found
func (bvh *BVH) intersectNode(node *BVHNode, ray *core.Ray, closest *core.Interaction) bool {
	if !node.BoundingBox.Hit(*ray, 0, ray.TMax) {
		return false
	}

	if node.Primitives != nil {
		hitAnything := false
		for _, prim := range node.Primitives {
			if si, ok := prim.Intersect(*ray); ok {
				hitAnything = true
				ray.TMax = si.T
				*closest = si
			}
		}
		return hitAnything
	}

	hitLeft := node.Left != nil && bvh.intersectNode(node.Left, ray, closest)
	hitRight := node.Right != nil && bvh.intersectNode(node.Right, ray, closest)
	return hitLeft || hitRight
}

// IntersectP reports whether anything blocks ray within (0, ray.TMax)
func (bvh *BVH) IntersectP(ray core.Ray) bool {
	if bvh.Root == nil {
		return false
	}
	return bvh.anyHit(bvh.Root, ray)
}

func (bvh *BVH) anyHit(node *BVHNode, ray core.Ray) bool {
	if !node.BoundingBox.Hit(ray, 0, ray.TMax) {
		return false
	}
	if node.Primitives != nil {
		for _, prim := range node.Primitives {
			if _, ok := prim.Shape.Intersect(ray); ok {
				return true
			}
		}
		return false
	}
	return (node.Left != nil && bvh.anyHit(node.Left, ray)) ||
		(node.Right != nil && bvh.anyHit(node.Right, ray))
}

// bvhStats contains statistics about the BVH structure
type bvhStats struct {
	totalNodes      int
	leafNodes       int
	maxDepth        int
	totalPrimitives int
}

// getStats walks the tree and collects structural statistics
func (bvh *BVH) getStats() bvhStats {
	var stats bvhStats
	if bvh.Root != nil {
		bvh.collectStats(bvh.Root, 0, &stats)
	}
	return stats
}

func (bvh *BVH) collectStats(node *BVHNode, depth int, stats *bvhStats) {
	stats.totalNodes++
	if depth > stats.maxDepth {
		stats.maxDepth = depth
	}
	if node.Primitives != nil {
		stats.leafNodes++
		stats.totalPrimitives += len(node.Primitives)
		return
	}
	if node.Left != nil {
		bvh.collectStats(node.Left, depth+1, stats)
	}
	if node.Right != nil {
		bvh.collectStats(node.Right, depth+1, stats)
	}
}
