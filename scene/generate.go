package scene

import (
	"image/color"
	"math/rand"

	"github.com/achilleasa/spheretrace/types"
	"github.com/chewxy/math32"
)

func randomFloat(rng *rand.Rand, min, max float32) float32 {
	return min + rng.Float32()*(max-min)
}

func randomColor(rng *rand.Rand) color.RGBA {
	return color.RGBA{
		R: uint8(rng.Intn(256)),
		G: uint8(rng.Intn(256)),
		B: uint8(rng.Intn(256)),
		A: 255,
	}
}

// Create the large warm light used by the generated scenes.
func NewLightSphere() Sphere {
	return Sphere{
		Center:          types.XYZ(15, 4, -2),
		Radius:          10,
		Color:           color.RGBA{255, 255, 200, 255},
		RefractiveIndex: 1,
		IsLight:         true,
	}
}

// Create a sphere with random placement and material. Glass spheres are
// highly reflective and transparent.
func NewRandomSphere(rng *rand.Rand, glass bool) Sphere {
	s := Sphere{
		Center: types.XYZ(
			randomFloat(rng, -5, 5),
			randomFloat(rng, 0.5, 5),
			randomFloat(rng, -5, 5),
		),
		Radius: randomFloat(rng, 0.5, 1.5),
		Color:  randomColor(rng),
	}

	if glass {
		s.Reflectivity = 0.9
		s.Transparency = 0.9
		s.RefractiveIndex = 1.5
		s.Diffuse = 0.1
		s.Specular = 32
		return s
	}

	s.Reflectivity = randomFloat(rng, 0, 0.5)
	s.RefractiveIndex = 1
	s.Diffuse = randomFloat(rng, 0.1, 0.9)
	s.Specular = randomFloat(rng, 1, 32)
	return s
}

// Create an opaque sphere of radius 5 at the given center.
func NewBenchmarkSphere(rng *rand.Rand, center types.Vec3) Sphere {
	return Sphere{
		Center:          center,
		Radius:          5,
		Color:           randomColor(rng),
		Reflectivity:    randomFloat(rng, 0, 0.5),
		RefractiveIndex: 1,
		Diffuse:         randomFloat(rng, 0.1, 0.9),
		Specular:        randomFloat(rng, 1, 32),
	}
}

// Create the default interactive scene: one light, one glass sphere at
// (0, 1, 0) and count-2 random spheres viewed from (2, 4, 15).
func NewRandomScene(rng *rand.Rand, count int) *Scene {
	if count < 2 {
		count = 2
	}

	spheres := make([]Sphere, count)
	spheres[0] = NewLightSphere()
	spheres[1] = NewRandomSphere(rng, true)
	spheres[1].Center = types.XYZ(0, 1, 0)
	for index := 2; index < count; index++ {
		spheres[index] = NewRandomSphere(rng, false)
	}

	return New(spheres, NewCamera(types.XYZ(2, 4, 15), -math32.Pi, 0))
}

// Create a scene with count benchmark spheres scattered uniformly inside a
// cube of side worldSize centered at the origin.
func NewBenchmarkScene(rng *rand.Rand, count int, worldSize float32) *Scene {
	spheres := make([]Sphere, count)
	half := worldSize / 2
	for index := range spheres {
		center := types.XYZ(
			randomFloat(rng, -half, half),
			randomFloat(rng, -half, half),
			randomFloat(rng, -half, half),
		)
		spheres[index] = NewBenchmarkSphere(rng, center)
	}

	return New(spheres, NewCamera(types.XYZ(-1000, -1000, -1000), math32.Pi/4, math32.Pi/5))
}
