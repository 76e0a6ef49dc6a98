package renderer

import (
	"image"

	"github.com/achilleasa/spheretrace/scene"
)

type Renderer interface {
	// Render frame.
	Render() (*image.RGBA, error)

	// Replace the camera used for subsequent frames.
	SetCamera(*scene.Camera) error

	// Replace the rendered scene. The BVH is rebuilt if enabled.
	SetScene(*scene.Scene) error

	// Apply an edit to the current scene and rebuild the BVH before the
	// next frame.
	EditScene(func(*scene.Scene) error) error

	// Enable or disable the BVH for subsequent frames.
	SetUseBVH(bool) error

	// Get a copy of the current camera.
	Camera() scene.Camera

	// Shutdown renderer and any attached tracer.
	Close()

	// Get render statistics.
	Stats() FrameStats
}
