package types

import "github.com/chewxy/math32"

// An axis-aligned bounding box.
type AABB struct {
	Min Vec3
	Max Vec3
}

// Create the empty box. Combining it with any box X yields X.
func EmptyAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// Create a box from two corners.
func NewAABB(min, max Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// Returns true if the box does not enclose any point.
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Combine two boxes into the box enclosing both.
func (b AABB) Combine(other AABB) AABB {
	return AABB{
		Min: MinVec3(b.Min, other.Min),
		Max: MaxVec3(b.Max, other.Max),
	}
}

// Get the box side lengths.
func (b AABB) Extent() Vec3 {
	return b.Max.Sub(b.Min)
}

// Get the box center.
func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Calculate the box surface area.
func (b AABB) SurfaceArea() float32 {
	side := b.Extent()
	return 2.0 * (side[0]*side[1] + side[1]*side[2] + side[2]*side[0])
}

// Returns true if other lies completely inside this box. The empty box is
// contained by every box.
func (b AABB) Contains(other AABB) bool {
	if other.IsEmpty() {
		return true
	}
	return b.Min[0] <= other.Min[0] && b.Min[1] <= other.Min[1] && b.Min[2] <= other.Min[2] &&
		b.Max[0] >= other.Max[0] && b.Max[1] >= other.Max[1] && b.Max[2] >= other.Max[2]
}

// Test whether the ray intersects the box in front of its origin using the
// slab method. A zero direction component produces +/-Inf slab distances
// which is the desired behavior for axis-aligned rays. The test only rejects;
// it does not report a hit distance.
func (b AABB) Hit(r Ray) bool {
	tMin := math32.Inf(-1)
	tMax := math32.Inf(1)

	for axis := 0; axis < 3; axis++ {
		t1 := (b.Min[axis] - r.Origin[axis]) / r.Dir[axis]
		t2 := (b.Max[axis] - r.Origin[axis]) / r.Dir[axis]
		tMin = maxNum(tMin, minNum(t1, t2))
		tMax = minNum(tMax, maxNum(t1, t2))
	}

	return tMax >= tMin && tMax > 0
}

// minNum and maxNum ignore a NaN operand (0/0 when the origin lies on a slab
// plane of an axis-aligned ray) instead of propagating it.
func minNum(a, b float32) float32 {
	if a < b || b != b {
		return a
	}
	return b
}

func maxNum(a, b float32) float32 {
	if a > b || b != b {
		return a
	}
	return b
}
