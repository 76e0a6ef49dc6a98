package types

// A Ray is defined by an origin and a direction. The direction is not
// required to be normalized; intersection routines treat it as a general
// vector so the returned distances are in units of |Dir|.
type Ray struct {
	Origin Vec3
	Dir    Vec3
}

// Create a new ray.
func NewRay(origin, dir Vec3) Ray {
	return Ray{Origin: origin, Dir: dir}
}

// Get the point at distance t along the ray.
func (r Ray) At(t float32) Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}
