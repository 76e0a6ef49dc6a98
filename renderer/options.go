package renderer

type Options struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// Maximum recursion depth for reflected and refracted rays.
	MaxDepth int

	// Number of CPU tracers. Defaults to the number of available CPUs.
	Workers int

	// Build a BVH over the scene and use it for ray queries.
	UseBVH bool
}

const (
	DefaultFrameW   uint32 = 800
	DefaultFrameH   uint32 = 600
	DefaultMaxDepth        = 5
)
