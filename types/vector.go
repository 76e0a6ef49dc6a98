package types

import (
	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"
)

// Axis selects a vector component.
type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis
)

type Vec3 f32.Vec3

// Define a 3 component vector.
func XYZ(x, y, z float32) Vec3 {
	return Vec3{x, y, z}
}

// Define a vector with all components set to s.
func Splat(s float32) Vec3 {
	return Vec3{s, s, s}
}

// X component.
func (v Vec3) X() float32 { return v[0] }

// Y component.
func (v Vec3) Y() float32 { return v[1] }

// Z component.
func (v Vec3) Z() float32 { return v[2] }

// Add a vector.
func (v Vec3) Add(v2 Vec3) Vec3 {
	return Vec3{v[0] + v2[0], v[1] + v2[1], v[2] + v2[2]}
}

// Subtract a vector.
func (v Vec3) Sub(v2 Vec3) Vec3 {
	return Vec3{v[0] - v2[0], v[1] - v2[1], v[2] - v2[2]}
}

// Multiply a 3 component vector with a scalar.
func (v Vec3) Mul(s float32) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

// Component-wise multiplication.
func (v Vec3) MulVec(v2 Vec3) Vec3 {
	return Vec3{v[0] * v2[0], v[1] * v2[1], v[2] * v2[2]}
}

// Flip vector direction.
func (v Vec3) Neg() Vec3 {
	return Vec3{-v[0], -v[1], -v[2]}
}

// Calculate dot product of 2 vectors
func (v Vec3) Dot(v2 Vec3) float32 {
	return v[0]*v2[0] + v[1]*v2[1] + v[2]*v2[2]
}

// Calculate cross product of 2 vectors.
func (v Vec3) Cross(v2 Vec3) Vec3 {
	return Vec3{v[1]*v2[2] - v[2]*v2[1], v[2]*v2[0] - v[0]*v2[2], v[0]*v2[1] - v[1]*v2[0]}
}

// Get 3 component vector length.
func (v Vec3) Len() float32 {
	return math32.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Get squared vector length.
func (v Vec3) LenSq() float32 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}

// Normalize 3 component vector. The zero vector normalizes to itself;
// vectors with Inf/NaN components propagate them.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return Vec3{}
	}
	return Vec3{v[0] / l, v[1] / l, v[2] / l}
}

// Reflect v around normal n: v - 2(v.n)n
func (v Vec3) Reflect(n Vec3) Vec3 {
	return v.Sub(n.Mul(2 * v.Dot(n)))
}

// Refract unit vector v through a surface with unit normal n. The etaRatio
// argument is the ratio of the refractive indices of the incident and
// transmitted media. Under total internal reflection the parallel term uses
// |1 - perp.perp| so a (physically wrong but finite) direction is still produced.
func (v Vec3) Refract(n Vec3, etaRatio float32) Vec3 {
	cosTheta := math32.Min(v.Neg().Dot(n), 1.0)
	perp := v.Add(n.Mul(cosTheta)).Mul(etaRatio)
	parallel := n.Mul(-math32.Sqrt(math32.Abs(1.0 - perp.Dot(perp))))
	return perp.Add(parallel)
}

// Get the component for the given axis.
func (v Vec3) Axis(axis Axis) float32 {
	return v[axis]
}

// Calc min component from two vectors
func MinVec3(v1, v2 Vec3) Vec3 {
	out := v1
	if v2[0] < out[0] {
		out[0] = v2[0]
	}
	if v2[1] < out[1] {
		out[1] = v2[1]
	}
	if v2[2] < out[2] {
		out[2] = v2[2]
	}
	return out
}

// Calc maxcomponent from two vectors
func MaxVec3(v1, v2 Vec3) Vec3 {
	out := v1
	if v2[0] > out[0] {
		out[0] = v2[0]
	}
	if v2[1] > out[1] {
		out[1] = v2[1]
	}
	if v2[2] > out[2] {
		out[2] = v2[2]
	}
	return out
}

// Check whether two vectors are equal within eps.
func (v Vec3) ApproxEqual(v2 Vec3, eps float32) bool {
	return math32.Abs(v[0]-v2[0]) <= eps &&
		math32.Abs(v[1]-v2[1]) <= eps &&
		math32.Abs(v[2]-v2[2]) <= eps
}
