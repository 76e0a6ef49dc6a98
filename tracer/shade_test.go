package tracer

import (
	"image/color"
	"math/rand"
	"testing"

	"github.com/achilleasa/spheretrace/bvh"
	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/types"
	"github.com/chewxy/math32"
)

var (
	rayForward = types.NewRay(types.XYZ(0, 0, 0), types.XYZ(0, 0, -1))
	skyForward = color.RGBA{191, 216, 255, 255}
)

func opaqueSphere() scene.Sphere {
	return scene.Sphere{
		Center:          types.XYZ(0, 0, -5),
		Radius:          1,
		Color:           color.RGBA{200, 100, 50, 255},
		RefractiveIndex: 1,
		Specular:        32,
	}
}

func TestTraceAmbientOnly(t *testing.T) {
	sc := scene.New([]scene.Sphere{opaqueSphere()}, nil)

	hit := sc.Intersect(rayForward)
	if !hit.Hit || math32.Abs(hit.T-4) > 1e-5 || !hit.Point.ApproxEqual(types.XYZ(0, 0, -4), 1e-5) {
		t.Fatalf("expected hit at t = 4, point (0, 0, -4); got %+v", hit)
	}

	got := Trace(rayForward, sc, 1, nil)
	if exp := (color.RGBA{20, 10, 5, 255}); got != exp {
		t.Fatalf("expected ambient-only color %v; got %v", exp, got)
	}
}

func TestTraceSky(t *testing.T) {
	sc := scene.New([]scene.Sphere{opaqueSphere()}, nil)

	type spec struct {
		dir types.Vec3
		exp color.RGBA
	}
	specs := []spec{
		{types.XYZ(0, 1, 0), color.RGBA{128, 178, 255, 255}},
		{types.XYZ(0, -1, 0), color.RGBA{255, 255, 255, 255}},
		{types.XYZ(1, 0, 0), skyForward},
	}

	for index, s := range specs {
		got := Trace(types.NewRay(types.XYZ(0, 0, 0), s.dir), sc, 1, nil)
		if got != s.exp {
			t.Fatalf("[spec %d] expected sky color %v; got %v", index, s.exp, got)
		}
	}
}

func TestTraceDepthExhausted(t *testing.T) {
	sc := scene.New([]scene.Sphere{opaqueSphere()}, nil)
	for _, depth := range []int{0, -1} {
		if got := Trace(rayForward, sc, depth, nil); got != (color.RGBA{0, 0, 0, 255}) {
			t.Fatalf("[depth %d] expected opaque black; got %v", depth, got)
		}
	}
}

func TestTraceLightHit(t *testing.T) {
	light := opaqueSphere()
	light.IsLight = true
	light.Color = color.RGBA{255, 255, 200, 255}
	sc := scene.New([]scene.Sphere{light}, nil)

	if got := Trace(rayForward, sc, 5, nil); got != light.Color {
		t.Fatalf("expected flat light color %v; got %v", light.Color, got)
	}
}

func TestTraceDirectLighting(t *testing.T) {
	light := scene.Sphere{
		Center:  types.XYZ(0, 0, 5),
		Radius:  1,
		Color:   color.RGBA{255, 255, 255, 255},
		IsLight: true,
	}
	sc := scene.New([]scene.Sphere{opaqueSphere(), light}, nil)

	// Light sits straight above the hit point along the normal so both the
	// diffuse and specular terms are 1.
	var dist float32 = 9
	att := 1 / (1 + 0.09*dist + 0.032*dist*dist)
	exp := [3]float32{
		(200+255)*att + 20,
		(100+255)*att + 10,
		(50+255)*att + 5,
	}

	got := Trace(rayForward, sc, 1, nil)
	for i, channel := range []uint8{got.R, got.G, got.B} {
		if math32.Abs(float32(channel)-exp[i]) > 1 {
			t.Fatalf("expected lit color close to %v; got %v", exp, got)
		}
	}

	// An opaque sphere between the hit point and the light casts a shadow
	occluder := scene.Sphere{Center: types.XYZ(0, 0, 2), Radius: 0.5, RefractiveIndex: 1}
	sc = scene.New([]scene.Sphere{opaqueSphere(), light, occluder}, nil)
	if got := Trace(rayForward, sc, 1, nil); got != (color.RGBA{20, 10, 5, 255}) {
		t.Fatalf("expected shadowed point to receive ambient light only; got %v", got)
	}

	// Lights never cast shadows
	occluder.IsLight = true
	occluder.Color = color.RGBA{}
	sc = scene.New([]scene.Sphere{opaqueSphere(), light, occluder}, nil)
	if got := Trace(rayForward, sc, 1, nil); got == (color.RGBA{20, 10, 5, 255}) {
		t.Fatal("expected light sphere not to occlude other lights")
	}
}

func TestTraceReflection(t *testing.T) {
	mirror := opaqueSphere()
	mirror.Color = color.RGBA{0, 0, 0, 255}
	mirror.Reflectivity = 1
	sc := scene.New([]scene.Sphere{mirror}, nil)

	if got := Trace(rayForward, sc, 1, nil); got != (color.RGBA{0, 0, 0, 255}) {
		t.Fatalf("expected black when the reflection depth is exhausted; got %v", got)
	}
	if got := Trace(rayForward, sc, 2, nil); got != skyForward {
		t.Fatalf("expected mirror to reflect the sky %v; got %v", skyForward, got)
	}
}

func TestTraceRefraction(t *testing.T) {
	glass := opaqueSphere()
	glass.Transparency = 1
	glass.RefractiveIndex = 1
	sc := scene.New([]scene.Sphere{glass}, nil)

	// With a unit index the refracted ray continues straight through
	if got := Trace(rayForward, sc, 2, nil); got != skyForward {
		t.Fatalf("expected fully transparent sphere to show the sky %v; got %v", skyForward, got)
	}
}

func TestTraceWithAccelerator(t *testing.T) {
	sc := scene.NewRandomScene(rand.New(rand.NewSource(5)), 100)
	tree, err := bvh.Build(sc.Spheres)
	if err != nil {
		t.Fatal(err)
	}

	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			r := sc.Camera.Ray(float32(x)/40-0.5, -(float32(y)/30 - 0.5))
			exp := Trace(r, sc, 5, nil)
			if got := Trace(r, sc, 5, tree); got != exp {
				t.Fatalf("[pixel %d, %d] expected BVH traced color %v to match linear %v", x, y, got, exp)
			}
		}
	}
}

func TestClamp(t *testing.T) {
	got := clamp(types.XYZ(-5, 300, math32.NaN()))
	if got != types.XYZ(0, 255, 0) {
		t.Fatalf("expected (0, 255, 0); got %v", got)
	}
}
