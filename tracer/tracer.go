package tracer

import (
	"image"
	"time"
)

type UpdateType uint8

// Supported update types.
const (
	UpdateScene UpdateType = iota
	UpdateCamera
	UpdateAccelerator
)

// A unit of work that is processed by a tracer.
type BlockRequest struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// Block start row and height.
	BlockY uint32
	BlockH uint32

	// Maximum recursion depth for traced rays.
	MaxDepth int

	// The frame to render into. Each tracer only writes the rows of its block.
	Frame *image.RGBA

	// A channel to signal on block completion with the number of completed rows.
	DoneChan chan<- uint32

	// A channel to signal if an error occurs.
	ErrChan chan<- error
}

// Tracer statistics.
type Stats struct {
	// The rendered block height
	BlockH uint32

	// The time for rendering this block.
	RenderTime time.Duration

	// The time for applying pending updates before rendering the block.
	UpdateTime time.Duration
}

type Tracer interface {
	// Get tracer id.
	Id() string

	// Get the tracer's relative computation speed estimate.
	Speed() uint32

	// Initialize the tracer and start its worker.
	Init() error

	// Shutdown and cleanup tracer.
	Close()

	// Enqueue block request.
	Enqueue(BlockRequest)

	// Queue a state update. Updates are applied before the next block is
	// rendered; newer updates of the same type replace older ones.
	Update(UpdateType, interface{})

	// Retrieve last frame statistics.
	Stats() *Stats
}
