package renderer

import (
	"fmt"
	"image"
	"runtime"
	"sync"
	"time"

	"github.com/achilleasa/spheretrace/bvh"
	"github.com/achilleasa/spheretrace/log"
	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/tracer"
)

// Running frame time averages are logged every reportInterval frames.
const reportInterval = 10

// A renderer that splits each frame into row blocks and traces them on a
// pool of CPU tracers.
type defaultRenderer struct {
	sync.Mutex

	logger log.Logger

	// The scene and the camera used for the next frame.
	scene  *scene.Scene
	camera *scene.Camera

	// A private copy of the scene spheres shared with the tracers. The BVH
	// reorders it so the caller's scene keeps its sphere order.
	snapshot *scene.Scene

	// The acceleration structure built over the snapshot spheres. It is
	// nil if the BVH is disabled.
	tree *bvh.Tree

	tracers          []tracer.Tracer
	scheduler        tracer.BlockScheduler
	blockAssignments []uint32

	options Options
	stats   FrameStats
	closed  bool
}

// Create a new renderer using the specified block scheduler.
func NewDefault(sc *scene.Scene, scheduler tracer.BlockScheduler, opts Options) (Renderer, error) {
	if opts.FrameW == 0 || opts.FrameH == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidFrameSize, opts.FrameW, opts.FrameH)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	r := &defaultRenderer{
		logger:    log.New("renderer"),
		scheduler: scheduler,
		options:   opts,
	}

	for index := 0; index < opts.Workers; index++ {
		tr := tracer.NewCPUTracer(fmt.Sprintf("cpu-%d", index), 1)
		if err := tr.Init(); err != nil {
			r.Close()
			return nil, err
		}
		r.tracers = append(r.tracers, tr)
	}

	if err := r.SetScene(sc); err != nil {
		r.Close()
		return nil, err
	}

	r.logger.Infof("initialized %d tracers, frame size %dx%d, max depth %d, bvh: %t", len(r.tracers), opts.FrameW, opts.FrameH, opts.MaxDepth, opts.UseBVH)
	return r, nil
}

// Replace the rendered scene. The scene camera becomes the active camera.
func (r *defaultRenderer) SetScene(sc *scene.Scene) error {
	if sc == nil || len(sc.Spheres) == 0 {
		return ErrSceneNotDefined
	}
	if sc.Camera == nil {
		return ErrCameraNotDefined
	}

	r.Lock()
	defer r.Unlock()

	r.scene = sc
	if err := r.syncScene(); err != nil {
		return err
	}

	camera := *sc.Camera
	r.camera = &camera
	for _, tr := range r.tracers {
		tr.Update(tracer.UpdateCamera, r.camera)
	}

	return nil
}

// Apply an edit to the current scene and rebuild the tracer state once it
// completes. Frames are never rendered while the edit is in progress.
func (r *defaultRenderer) EditScene(editFn func(*scene.Scene) error) error {
	r.Lock()
	defer r.Unlock()

	if r.closed {
		return ErrClosed
	}

	if err := editFn(r.scene); err != nil {
		return err
	}
	if len(r.scene.Spheres) == 0 {
		return ErrSceneNotDefined
	}

	return r.syncScene()
}

// Enable or disable the BVH for subsequent frames.
func (r *defaultRenderer) SetUseBVH(enabled bool) error {
	r.Lock()
	defer r.Unlock()

	if r.closed {
		return ErrClosed
	}
	if r.options.UseBVH == enabled {
		return nil
	}

	r.options.UseBVH = enabled
	r.logger.Noticef("bvh: %t", enabled)
	return r.buildAccelerator()
}

// Copy the scene spheres into a new snapshot and upload it to the tracers
// together with a rebuilt accelerator. This method is meant to be called
// while holding r.Lock().
func (r *defaultRenderer) syncScene() error {
	r.snapshot = scene.New(append([]scene.Sphere(nil), r.scene.Spheres...), r.scene.Camera)
	for _, tr := range r.tracers {
		tr.Update(tracer.UpdateScene, r.snapshot)
	}

	return r.buildAccelerator()
}

// Build or release the BVH over the current snapshot and upload it to the
// tracers. This method is meant to be called while holding r.Lock().
func (r *defaultRenderer) buildAccelerator() error {
	if r.tree != nil {
		r.tree.Release()
		r.tree = nil
	}
	r.stats.BVHBuildTime = 0
	r.stats.BVHNodes = 0

	var accel tracer.Intersector
	if r.options.UseBVH {
		tree, err := bvh.Build(r.snapshot.Spheres)
		if err != nil {
			return fmt.Errorf("renderer: could not build BVH: %w", err)
		}
		r.tree = tree
		r.stats.BVHBuildTime = tree.Stats().BuildTime
		r.stats.BVHNodes = tree.Stats().Nodes
		accel = tree
	}

	for _, tr := range r.tracers {
		tr.Update(tracer.UpdateAccelerator, accel)
	}
	return nil
}

// Replace the camera used for subsequent frames.
func (r *defaultRenderer) SetCamera(camera *scene.Camera) error {
	if camera == nil {
		return ErrCameraNotDefined
	}

	r.Lock()
	defer r.Unlock()

	// Tracers read the camera concurrently so they get a private copy
	cameraCopy := *camera
	r.camera = &cameraCopy
	for _, tr := range r.tracers {
		tr.Update(tracer.UpdateCamera, r.camera)
	}
	return nil
}

// Get a copy of the current camera.
func (r *defaultRenderer) Camera() scene.Camera {
	r.Lock()
	defer r.Unlock()
	return *r.camera
}

// Shutdown renderer and any attached tracer.
func (r *defaultRenderer) Close() {
	r.Lock()
	defer r.Unlock()

	for _, tr := range r.tracers {
		tr.Close()
	}
	r.tracers = nil

	if r.tree != nil {
		r.tree.Release()
		r.tree = nil
	}
	r.closed = true
}

// Get render statistics.
func (r *defaultRenderer) Stats() FrameStats {
	r.Lock()
	defer r.Unlock()

	stats := r.stats
	stats.Tracers = append([]TracerStat(nil), r.stats.Tracers...)
	return stats
}

// Render frame.
func (r *defaultRenderer) Render() (*image.RGBA, error) {
	r.Lock()
	defer r.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	if len(r.tracers) == 0 {
		return nil, ErrNoTracers
	}

	frameW, frameH := r.options.FrameW, r.options.FrameH
	frame := image.NewRGBA(image.Rect(0, 0, int(frameW), int(frameH)))

	start := time.Now()
	r.blockAssignments = r.scheduler.Schedule(r.tracers, frameH)

	doneChan := make(chan uint32, len(r.tracers))
	errChan := make(chan error, len(r.tracers))

	var blockY uint32
	pending := 0
	for idx, tr := range r.tracers {
		blockH := r.blockAssignments[idx]
		if blockH == 0 {
			continue
		}

		tr.Enqueue(tracer.BlockRequest{
			FrameW:   frameW,
			FrameH:   frameH,
			BlockY:   blockY,
			BlockH:   blockH,
			MaxDepth: r.options.MaxDepth,
			Frame:    frame,
			DoneChan: doneChan,
			ErrChan:  errChan,
		})
		blockY += blockH
		pending++
	}

	// Wait for all tracers to finish before reporting any error so that
	// no worker is still writing into the frame.
	var err error
	for ; pending > 0; pending-- {
		select {
		case <-doneChan:
		case blockErr := <-errChan:
			if err == nil {
				err = blockErr
			}
		}
	}
	if err != nil {
		return nil, err
	}

	r.stats.RenderTime = time.Since(start)
	r.stats.Frames++
	r.stats.TotalRenderTime += r.stats.RenderTime
	r.stats.AverageRenderTime = r.stats.TotalRenderTime / time.Duration(r.stats.Frames)
	if r.stats.TotalRenderTime > 0 {
		r.stats.FPS = float64(r.stats.Frames) / r.stats.TotalRenderTime.Seconds()
	}
	if r.stats.Frames%reportInterval == 0 {
		r.logger.Infof("frame %d: average frame time %s (%.1f fps)", r.stats.Frames, r.stats.AverageRenderTime, r.stats.FPS)
	}

	r.stats.Tracers = r.stats.Tracers[:0]
	for idx, tr := range r.tracers {
		blockH := r.blockAssignments[idx]
		stat := TracerStat{
			Id:           tr.Id(),
			IsPrimary:    idx == 0,
			BlockH:       blockH,
			FramePercent: 100.0 * float32(blockH) / float32(frameH),
		}
		if blockH != 0 {
			stat.RenderTime = tr.Stats().RenderTime
		}
		r.stats.Tracers = append(r.stats.Tracers, stat)
	}

	return frame, nil
}
