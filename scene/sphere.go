package scene

import (
	"image/color"

	"github.com/achilleasa/spheretrace/types"
	"github.com/chewxy/math32"
)

// Hits closer than Epsilon are discarded to avoid self-intersection when
// secondary rays start on a sphere surface.
const Epsilon float32 = 1e-4

// A Sphere is the only primitive supported by the tracer. Lights are spheres
// with the IsLight flag set; they are rendered with their flat color.
type Sphere struct {
	Center types.Vec3
	Radius float32

	// Base color. Alpha is carried through but not used for shading.
	Color color.RGBA

	// Blend weights for the reflected and refracted contributions ([0, 1]).
	Reflectivity float32
	Transparency float32

	RefractiveIndex float32
	Diffuse         float32

	// Phong specular exponent.
	Specular float32

	IsLight bool
}

// Get the sphere bounding box.
func (s *Sphere) BBox() types.AABB {
	r := types.Splat(s.Radius)
	return types.NewAABB(s.Center.Sub(r), s.Center.Add(r))
}

// Intersect the ray with the sphere. Only the near root of the quadratic is
// considered so rays originating inside the sphere report a miss unless the
// near root is still in front of the origin.
func (s *Sphere) Intersect(r types.Ray) HitRecord {
	oc := r.Origin.Sub(s.Center)
	a := r.Dir.Dot(r.Dir)
	b := 2.0 * oc.Dot(r.Dir)
	c := oc.Dot(oc) - s.Radius*s.Radius
	discriminant := b*b - 4*a*c

	if discriminant <= 0 {
		return NoHit()
	}

	t := (-b - math32.Sqrt(discriminant)) / (2.0 * a)
	if !(t > Epsilon) {
		return NoHit()
	}

	point := r.At(t)
	return HitRecord{
		T:      t,
		Point:  point,
		Normal: point.Sub(s.Center).Normalize(),
		Hit:    true,
		Object: s,
	}
}

// The result of an intersection query.
type HitRecord struct {
	// Distance along the ray in units of the ray direction length.
	T float32

	Point  types.Vec3
	Normal types.Vec3
	Hit    bool

	// The intersected sphere. It points into the sphere slice the query ran
	// against and is nil when Hit is false.
	Object *Sphere
}

// Get the canonical no-intersection record.
func NoHit() HitRecord {
	return HitRecord{T: math32.Inf(1)}
}
