package tracer

import (
	"fmt"
	"sync"
	"time"

	"github.com/achilleasa/spheretrace/log"
	"github.com/achilleasa/spheretrace/scene"
)

type cpuTracer struct {
	logger log.Logger

	sync.Mutex
	wg sync.WaitGroup

	// The tracer id.
	id string

	// Relative speed estimate.
	speed uint32

	// A buffer for queuing updates. Updates are grouped by type and
	// latest updates always overwrite the previous ones.
	updateMutex  sync.Mutex
	updateBuffer map[UpdateType]interface{}

	// A channel for receiving block requests from the renderer.
	blockReqChan chan BlockRequest

	// A channel for signaling the worker to exit.
	closeChan chan struct{}

	// Statistics for last rendered frame.
	stats *Stats

	// State owned by the worker.
	sceneData *scene.Scene
	camera    *scene.Camera
	accel     Intersector
}

// Create a new tracer that renders blocks on the CPU using a single
// goroutine. Parallelism is achieved by running one tracer per core.
func NewCPUTracer(id string, speed uint32) Tracer {
	return &cpuTracer{
		logger:       log.New(fmt.Sprintf("cpu tracer (%s)", id)),
		id:           id,
		speed:        speed,
		updateBuffer: make(map[UpdateType]interface{}),
		blockReqChan: make(chan BlockRequest, 1),
		stats:        &Stats{},
	}
}

// Get tracer id.
func (tr *cpuTracer) Id() string {
	return tr.id
}

// Get the computation speed estimate.
func (tr *cpuTracer) Speed() uint32 {
	return tr.speed
}

// Initialize tracer.
func (tr *cpuTracer) Init() error {
	tr.Lock()
	defer tr.Unlock()

	// Start worker
	if tr.closeChan == nil {
		tr.startWorker()
	}

	return nil
}

// Shutdown and cleanup tracer.
func (tr *cpuTracer) Close() {
	tr.Lock()
	defer tr.Unlock()

	tr.cleanup()
}

// Cleanup tracer. This method is meant to be called while holding tr.Lock()
func (tr *cpuTracer) cleanup() {
	// If the worker is running shut it down
	if tr.closeChan != nil {
		tr.closeChan <- struct{}{}

		// wait for worker to ack close and shutdown channel
		<-tr.closeChan
		close(tr.closeChan)
		tr.wg.Wait()
		tr.closeChan = nil
	}

	tr.sceneData = nil
	tr.camera = nil
	tr.accel = nil
}

// Enqueue block request.
func (tr *cpuTracer) Enqueue(blockReq BlockRequest) {
	tr.Lock()
	running := tr.closeChan != nil
	tr.Unlock()

	if !running {
		blockReq.ErrChan <- ErrNotInitialized
		return
	}

	select {
	case tr.blockReqChan <- blockReq:
	default:
		// drop the request if worker is not listening
		tr.logger.Error("request processor did not receive block request")
		blockReq.ErrChan <- ErrTracerBusy
	}
}

// Append a change to the tracer's update buffer.
func (tr *cpuTracer) Update(updateType UpdateType, data interface{}) {
	tr.updateMutex.Lock()
	tr.updateBuffer[updateType] = data
	tr.updateMutex.Unlock()
}

// Retrieve last frame statistics.
func (tr *cpuTracer) Stats() *Stats {
	return tr.stats
}

// Commit queued changes. The buffer is always drained; updates of an
// unknown type are dropped and reported after the known ones are applied.
func (tr *cpuTracer) commitUpdates() error {
	tr.updateMutex.Lock()
	updates := tr.updateBuffer
	tr.updateBuffer = make(map[UpdateType]interface{})
	tr.updateMutex.Unlock()

	for _, updateType := range []UpdateType{UpdateScene, UpdateAccelerator, UpdateCamera} {
		data, ok := updates[updateType]
		if !ok {
			continue
		}
		delete(updates, updateType)

		switch updateType {
		case UpdateScene:
			tr.sceneData, _ = data.(*scene.Scene)
		case UpdateAccelerator:
			tr.accel, _ = data.(Intersector)
		case UpdateCamera:
			tr.camera, _ = data.(*scene.Camera)
		}
	}

	for updateType := range updates {
		return fmt.Errorf("%w: %d", ErrUnsupportedUpdate, updateType)
	}
	return nil
}

func (tr *cpuTracer) hasPendingUpdates() bool {
	tr.updateMutex.Lock()
	defer tr.updateMutex.Unlock()
	return len(tr.updateBuffer) != 0
}

// Spawn a go-routine to process block render requests.
func (tr *cpuTracer) startWorker() {
	// Worker already running
	if tr.closeChan != nil {
		return
	}

	tr.closeChan = make(chan struct{})
	readyChan := make(chan struct{})
	tr.wg.Add(1)
	go func() {
		defer tr.wg.Done()
		var blockReq BlockRequest
		var startTime time.Time
		var err error
		close(readyChan)
		for {
			select {
			case blockReq = <-tr.blockReqChan:

				// Apply any pending changes
				if tr.hasPendingUpdates() {
					startTime = time.Now()
					err = tr.commitUpdates()
					if err != nil {
						blockReq.ErrChan <- err
						continue
					}
					tr.stats.UpdateTime = time.Since(startTime)
				}

				// Render block and reply with our completion status
				startTime = time.Now()
				err = tr.renderBlock(&blockReq)
				if err != nil {
					blockReq.ErrChan <- err
					continue
				}

				// Update stats
				tr.stats.BlockH = blockReq.BlockH
				tr.stats.RenderTime = time.Since(startTime)

				blockReq.DoneChan <- blockReq.BlockH
			case <-tr.closeChan:
				// Ack close
				tr.closeChan <- struct{}{}
				return
			}
		}
	}()

	// Wait for go-routine to start
	<-readyChan
}

// Render block.
func (tr *cpuTracer) renderBlock(blockReq *BlockRequest) error {
	if tr.sceneData == nil {
		return ErrNoSceneData
	}
	if tr.camera == nil {
		return ErrNoCamera
	}

	frame := blockReq.Frame
	if frame == nil {
		return fmt.Errorf("%w: no frame buffer", ErrInvalidFrame)
	}
	bounds := frame.Bounds()
	if blockReq.FrameW == 0 || blockReq.FrameH == 0 ||
		int(blockReq.FrameW) > bounds.Dx() ||
		int(blockReq.BlockY+blockReq.BlockH) > bounds.Dy() ||
		blockReq.BlockY+blockReq.BlockH > blockReq.FrameH {
		return fmt.Errorf("%w: rows [%d, %d) of %dx%d frame", ErrInvalidFrame, blockReq.BlockY, blockReq.BlockY+blockReq.BlockH, blockReq.FrameW, blockReq.FrameH)
	}

	frameW := float32(blockReq.FrameW)
	frameH := float32(blockReq.FrameH)
	lastRow := blockReq.BlockY + blockReq.BlockH
	for y := blockReq.BlockY; y < lastRow; y++ {
		v := float32(y)/frameH - 0.5
		for x := uint32(0); x < blockReq.FrameW; x++ {
			u := float32(x)/frameW - 0.5
			ray := tr.camera.Ray(u, -v)
			frame.SetRGBA(bounds.Min.X+int(x), bounds.Min.Y+int(y), Trace(ray, tr.sceneData, blockReq.MaxDepth, tr.accel))
		}
	}

	return nil
}
