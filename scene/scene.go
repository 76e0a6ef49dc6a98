package scene

import (
	"errors"

	"github.com/achilleasa/spheretrace/types"
)

var (
	ErrNoSpheres = errors.New("scene: no spheres defined")
	ErrNoCamera  = errors.New("scene: no camera defined")
)

// A Scene is a flat list of spheres viewed through a camera.
//
// The sphere slice is owned by the scene. A BVH built over it reorders the
// elements in place and references them by index, so callers must not append
// to or reallocate Spheres while a tree built over it is in use; edits to
// sphere attributes must be followed by a rebuild before the next frame.
type Scene struct {
	Spheres []Sphere
	Camera  *Camera
}

// Create a scene from a list of spheres and a camera.
func New(spheres []Sphere, camera *Camera) *Scene {
	return &Scene{
		Spheres: spheres,
		Camera:  camera,
	}
}

// Check that the scene can be rendered.
func (sc *Scene) Validate() error {
	if len(sc.Spheres) == 0 {
		return ErrNoSpheres
	}
	if sc.Camera == nil {
		return ErrNoCamera
	}
	return nil
}

// Get the indices of all light spheres.
func (sc *Scene) Lights() []int {
	lights := make([]int, 0)
	for index := range sc.Spheres {
		if sc.Spheres[index].IsLight {
			lights = append(lights, index)
		}
	}
	return lights
}

// Get the box enclosing all scene spheres.
func (sc *Scene) BBox() types.AABB {
	box := types.EmptyAABB()
	for index := range sc.Spheres {
		box = box.Combine(sc.Spheres[index].BBox())
	}
	return box
}

// Find the nearest hit by testing every sphere.
func (sc *Scene) Intersect(r types.Ray) HitRecord {
	closest := NoHit()
	for index := range sc.Spheres {
		hit := sc.Spheres[index].Intersect(r)
		if hit.Hit && hit.T < closest.T {
			closest = hit
		}
	}
	return closest
}

// Check whether any non-light sphere other than skip blocks the ray before
// maxDist. Pass a negative skip index to test all spheres.
func (sc *Scene) Occluded(r types.Ray, maxDist float32, skip int) bool {
	for index := range sc.Spheres {
		if index == skip || sc.Spheres[index].IsLight {
			continue
		}
		hit := sc.Spheres[index].Intersect(r)
		if hit.Hit && hit.T < maxDist {
			return true
		}
	}
	return false
}
