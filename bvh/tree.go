package bvh

import (
	"time"

	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/types"
)

// A Node is a BVH tree node stored in the tree arena. Leaves have no
// children and reference Count spheres starting at index Sphere. Internal
// nodes have Sphere set to -1.
type Node struct {
	BBox types.AABB

	Left  int32
	Right int32

	Sphere int32
	Count  int32
}

// Returns true if this is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.Sphere >= 0
}

// Build statistics.
type Stats struct {
	Nodes            int
	Leaves           int
	MaxDepth         int
	DegenerateSplits int
	BuildTime        time.Duration
}

// Counters collected while traversing the tree.
type Counters struct {
	BoxTests    int
	SphereTests int
}

// A Tree is a bounding volume hierarchy over a sphere slice. Node 0 is the
// root.
//
// The tree shares the sphere slice it was built from. Appending to or
// reallocating that slice invalidates the tree; sphere attributes may be
// edited in place but geometry changes require a rebuild.
type Tree struct {
	Nodes []Node

	spheres []scene.Sphere
	stats   Stats
}

// Get the build statistics.
func (t *Tree) Stats() Stats {
	return t.stats
}

// Get the root bounding box.
func (t *Tree) BBox() types.AABB {
	if len(t.Nodes) == 0 {
		return types.EmptyAABB()
	}
	return t.Nodes[0].BBox
}

// Check whether the tree can still be used to query the given sphere slice.
func (t *Tree) Valid(spheres []scene.Sphere) bool {
	if len(t.Nodes) == 0 || len(spheres) != len(t.spheres) {
		return false
	}
	return &spheres[0] == &t.spheres[0]
}

// Release the node arena and the sphere slice reference. The tree answers
// every query with a miss afterwards.
func (t *Tree) Release() {
	t.Nodes = nil
	t.spheres = nil
}

// Find the nearest sphere hit by the ray.
func (t *Tree) Intersect(r types.Ray) scene.HitRecord {
	if len(t.Nodes) == 0 {
		return scene.NoHit()
	}
	return t.intersect(r, 0, nil)
}

// Find the nearest sphere hit by the ray and report the number of box and
// sphere tests performed.
func (t *Tree) IntersectCount(r types.Ray) (scene.HitRecord, Counters) {
	var counters Counters
	if len(t.Nodes) == 0 {
		return scene.NoHit(), counters
	}
	return t.intersect(r, 0, &counters), counters
}

func (t *Tree) intersect(r types.Ray, nodeIndex int32, counters *Counters) scene.HitRecord {
	node := &t.Nodes[nodeIndex]

	if counters != nil {
		counters.BoxTests++
	}
	if !node.BBox.Hit(r) {
		return scene.NoHit()
	}

	if node.IsLeaf() {
		closest := scene.NoHit()
		last := node.Sphere + node.Count
		for index := node.Sphere; index < last; index++ {
			if counters != nil {
				counters.SphereTests++
			}
			hit := t.spheres[index].Intersect(r)
			if hit.Hit && hit.T < closest.T {
				closest = hit
			}
		}
		return closest
	}

	leftHit := t.intersect(r, node.Left, counters)
	rightHit := t.intersect(r, node.Right, counters)

	if !leftHit.Hit {
		return rightHit
	}
	if !rightHit.Hit {
		return leftHit
	}
	if rightHit.T < leftHit.T {
		return rightHit
	}
	return leftHit
}
