package bvh

import (
	"fmt"
	"time"

	"github.com/achilleasa/spheretrace/log"
	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/types"
	"github.com/chewxy/math32"
)

const (
	// Nodes at this depth become leaves regardless of how many spheres
	// they contain.
	DefaultMaxDepth = 20

	// Number of evenly spaced split planes evaluated per axis.
	splitSamples = 7

	// Constant traversal cost added to every SAH score.
	traversalCost float32 = 0.125
)

var (
	// A split scoring strategy that uses the surface area heuristic (SAH).
	SurfaceAreaHeuristic = surfaceAreaHeuristic{}
)

// A split scoring strategy. Lower scores are better.
type ScoreStrategy interface {
	// Calculate a score for splitting spheres at splitPoint along a particular axis.
	// Spheres whose center lies strictly below splitPoint go to the left partition.
	ScoreSplit(spheres []scene.Sphere, axis types.Axis, splitPoint float32) (leftCount, rightCount int, score float32)
}

// An Option customizes the builder.
type Option func(*builder)

// Use a custom split scoring strategy.
func WithScoreStrategy(strategy ScoreStrategy) Option {
	return func(b *builder) {
		b.scoreStrategy = strategy
	}
}

// Override the maximum tree depth.
func WithMaxDepth(depth int) Option {
	return func(b *builder) {
		if depth >= 0 {
			b.maxDepth = depth
		}
	}
}

type splitScore struct {
	axis       types.Axis
	splitPoint float32
	score      float32
}

type builder struct {
	logger log.Logger

	spheres []scene.Sphere

	// Bvh nodes stored as a contiguous list
	nodes []Node

	maxDepth int

	// The split scoring strategy to use.
	scoreStrategy ScoreStrategy

	stats Stats
}

// Construct a BVH over all spheres in the slice. The slice is reordered in
// place; the returned tree references spheres by their new indices.
func Build(spheres []scene.Sphere, opts ...Option) (*Tree, error) {
	return BuildRange(spheres, 0, len(spheres), opts...)
}

// Construct a BVH over the spheres in [start, end). Only that range is
// reordered.
//
// For each node the builder samples 7 split planes per axis, scores them
// using the configured ScoreStrategy and partitions the range around the
// best one. If the best split leaves one side empty the range is split at
// its median index instead so that recursion always makes progress.
func BuildRange(spheres []scene.Sphere, start, end int, opts ...Option) (*Tree, error) {
	if len(spheres) == 0 {
		return nil, ErrNoSpheres
	}
	if start < 0 || end > len(spheres) || start >= end {
		return nil, fmt.Errorf("%w: [%d, %d) with %d spheres", ErrInvalidRange, start, end, len(spheres))
	}

	b := &builder{
		logger:        log.New("bvh builder"),
		spheres:       spheres,
		nodes:         make([]Node, 0, 2*(end-start)),
		maxDepth:      DefaultMaxDepth,
		scoreStrategy: SurfaceAreaHeuristic,
	}
	for _, opt := range opts {
		opt(b)
	}

	buildStart := time.Now()
	b.partition(start, end, 0)
	b.stats.BuildTime = time.Since(buildStart)
	b.stats.Nodes = len(b.nodes)

	b.logger.Debugf(
		"BVH tree build time: %d ms, spheres: %d, maxDepth: %d, nodes: %d, leafs: %d, degenerate splits: %d",
		b.stats.BuildTime.Nanoseconds()/1e6, end-start,
		b.stats.MaxDepth, b.stats.Nodes, b.stats.Leaves, b.stats.DegenerateSplits,
	)

	return &Tree{
		Nodes:   b.nodes,
		spheres: spheres,
		stats:   b.stats,
	}, nil
}

// Partition the sphere range and return the node index.
func (b *builder) partition(start, end, depth int) int32 {
	if depth > b.stats.MaxDepth {
		b.stats.MaxDepth = depth
	}

	node := Node{
		BBox:   types.EmptyAABB(),
		Left:   -1,
		Right:  -1,
		Sphere: -1,
	}

	// Calculate bounding box for node
	for index := start; index < end; index++ {
		node.BBox = node.BBox.Combine(b.spheres[index].BBox())
	}

	// Do we have enough spheres for partitioning? If not create a leaf
	if end-start <= 1 || depth >= b.maxDepth {
		return b.createLeaf(&node, start, end)
	}

	mid := start
	bestSplit := b.findSplit(start, end, node.BBox)
	if bestSplit != nil {
		mid = b.partitionRange(start, end, bestSplit.axis, bestSplit.splitPoint)
	}

	if mid == start || mid == end {
		b.stats.DegenerateSplits++
		mid = start + (end-start)/2
	}

	// Add node to list and reserve its slot before recursing
	nodeIndex := int32(len(b.nodes))
	b.nodes = append(b.nodes, node)

	// Partition children and update node indices
	leftNodeIndex := b.partition(start, mid, depth+1)
	rightNodeIndex := b.partition(mid, end, depth+1)
	b.nodes[nodeIndex].Left = leftNodeIndex
	b.nodes[nodeIndex].Right = rightNodeIndex

	return nodeIndex
}

// Evaluate the sampled split planes along each axis and return the one with
// the lowest score or nil if no plane produced a finite score.
func (b *builder) findSplit(start, end int, bbox types.AABB) *splitScore {
	var bestSplit *splitScore
	bestScore := math32.Inf(1)
	workList := b.spheres[start:end]

	for axis := types.XAxis; axis <= types.ZAxis; axis++ {
		min := bbox.Min.Axis(axis)
		side := bbox.Max.Axis(axis) - min

		for sample := 1; sample <= splitSamples; sample++ {
			splitPoint := min + (float32(sample)/(splitSamples+1))*side
			_, _, score := b.scoreStrategy.ScoreSplit(workList, axis, splitPoint)
			if score < bestScore {
				bestScore = score
				bestSplit = &splitScore{
					axis:       axis,
					splitPoint: splitPoint,
					score:      score,
				}
			}
		}
	}

	return bestSplit
}

// Reorder the range so that spheres whose center lies below splitPoint come
// first and return the index of the first sphere of the right partition.
func (b *builder) partitionRange(start, end int, axis types.Axis, splitPoint float32) int {
	mid := start
	for index := start; index < end; index++ {
		if b.spheres[index].Center.Axis(axis) < splitPoint {
			b.spheres[index], b.spheres[mid] = b.spheres[mid], b.spheres[index]
			mid++
		}
	}
	return mid
}

// Setup the given node as a leaf containing the spheres in [start, end).
// Returns the index to the node in the bvh node array.
func (b *builder) createLeaf(node *Node, start, end int) int32 {
	node.Sphere = int32(start)
	node.Count = int32(end - start)

	nodeIndex := int32(len(b.nodes))
	b.nodes = append(b.nodes, *node)
	b.stats.Leaves++

	return nodeIndex
}

// A score implementation that uses surface area heuristic for calculating split scores.
type surfaceAreaHeuristic struct{}

// Score a BVH split based on the surface area heuristic. The SAH calculates
// the split score using the formula (lower score is better):
//
// 0.125 + left count * left BBOX area + right count * right BBOX area.
//
// SAH avoids splits that generate empty partitions by assigning the worst
// possible score (+Inf) when it encounters such cases.
func (h surfaceAreaHeuristic) ScoreSplit(spheres []scene.Sphere, axis types.Axis, splitPoint float32) (leftCount, rightCount int, score float32) {
	left := types.EmptyAABB()
	right := types.EmptyAABB()

	for index := range spheres {
		bbox := spheres[index].BBox()
		if spheres[index].Center.Axis(axis) < splitPoint {
			leftCount++
			left = left.Combine(bbox)
		} else {
			rightCount++
			right = right.Combine(bbox)
		}
	}

	// Make sure that we don't generate empty partitions
	if leftCount == 0 || rightCount == 0 {
		return leftCount, rightCount, math32.Inf(1)
	}

	score = traversalCost +
		float32(leftCount)*left.SurfaceArea() +
		float32(rightCount)*right.SurfaceArea()

	return leftCount, rightCount, score
}
