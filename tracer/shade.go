package tracer

import (
	"image/color"

	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/types"
	"github.com/chewxy/math32"
)

const (
	// Fraction of the base color that is always added to a lit surface.
	ambientFactor float32 = 0.1

	// Light attenuation coefficients: 1 / (1 + linear*d + quadratic*d^2).
	attenuationLinear    float32 = 0.09
	attenuationQuadratic float32 = 0.032

	maxChannel float32 = 255
)

var (
	// Sky gradient endpoints in [0, 255] space.
	HorizonColor = types.XYZ(255, 255, 255)
	ZenithColor  = types.XYZ(128, 178, 255)
)

// An Intersector finds the nearest sphere hit by a ray.
type Intersector interface {
	Intersect(types.Ray) scene.HitRecord
}

// Trace a ray through the scene and compute its color. Intersections are
// resolved through accel if not nil; otherwise all scene spheres are tested.
// Shadow rays always use a linear scan over the scene spheres.
func Trace(r types.Ray, sc *scene.Scene, depth int, accel Intersector) color.RGBA {
	return toRGBA(trace(r, sc, depth, accel))
}

func trace(r types.Ray, sc *scene.Scene, depth int, accel Intersector) types.Vec3 {
	if depth <= 0 {
		return types.Vec3{}
	}

	var hit scene.HitRecord
	if accel != nil {
		hit = accel.Intersect(r)
	} else {
		hit = sc.Intersect(r)
	}

	if !hit.Hit {
		return Sky(r.Dir)
	}

	obj := hit.Object
	baseColor := fromRGBA(obj.Color)
	if obj.IsLight {
		return baseColor
	}

	var finalColor types.Vec3
	viewDir := r.Dir.Neg().Normalize()
	for lightIndex := range sc.Spheres {
		light := &sc.Spheres[lightIndex]
		if !light.IsLight {
			continue
		}

		lightDir := light.Center.Sub(hit.Point)
		lightDist := lightDir.Len()
		lightDir = lightDir.Normalize()

		if sc.Occluded(types.NewRay(hit.Point, lightDir), lightDist, lightIndex) {
			continue
		}

		diff := math32.Max(0, hit.Normal.Dot(lightDir))
		reflectDir := lightDir.Neg().Reflect(hit.Normal)
		spec := math32.Pow(math32.Max(viewDir.Dot(reflectDir), 0), obj.Specular)
		attenuation := 1.0 / (1.0 + attenuationLinear*lightDist + attenuationQuadratic*lightDist*lightDist)

		finalColor = clamp(finalColor.Add(
			baseColor.Mul(diff).Add(types.Splat(maxChannel * spec)).Mul(attenuation),
		))
	}

	finalColor = clamp(finalColor.Add(baseColor.Mul(ambientFactor)))

	if obj.Reflectivity > 0 {
		reflectRay := types.NewRay(hit.Point, r.Dir.Reflect(hit.Normal))
		reflectColor := trace(reflectRay, sc, depth-1, accel)
		finalColor = clamp(blend(finalColor, reflectColor, obj.Reflectivity))
	}

	if obj.Transparency > 0 {
		// Entering vs exiting is approximated from the ray's vertical
		// direction rather than from the sign of D.N.
		refractionRatio := 1.0 / obj.RefractiveIndex
		if r.Dir.Y() > 0 {
			refractionRatio = obj.RefractiveIndex
		}

		refractRay := types.NewRay(hit.Point, r.Dir.Refract(hit.Normal, refractionRatio))
		refractColor := trace(refractRay, sc, depth-1, accel)
		finalColor = clamp(blend(finalColor, refractColor, obj.Transparency))
	}

	return finalColor
}

// Get the background color for a ray travelling along dir.
func Sky(dir types.Vec3) types.Vec3 {
	t := 0.5 * (dir.Y() + 1.0)
	return clamp(HorizonColor.Mul(1.0 - t).Add(ZenithColor.Mul(t)))
}

// Linearly interpolate between c1 and c2.
func blend(c1, c2 types.Vec3, k float32) types.Vec3 {
	return c1.Mul(1 - k).Add(c2.Mul(k))
}

// Clamp each channel to [0, 255]. NaN channels become 0.
func clamp(c types.Vec3) types.Vec3 {
	for i := range c {
		if !(c[i] > 0) {
			c[i] = 0
		} else if c[i] > maxChannel {
			c[i] = maxChannel
		}
	}
	return c
}

func fromRGBA(c color.RGBA) types.Vec3 {
	return types.XYZ(float32(c.R), float32(c.G), float32(c.B))
}

func toRGBA(c types.Vec3) color.RGBA {
	c = clamp(c)
	return color.RGBA{
		R: uint8(c[0]),
		G: uint8(c[1]),
		B: uint8(c[2]),
		A: 255,
	}
}
