package tracer

import "errors"

var (
	ErrNoSceneData       = errors.New("tracer: no scene data uploaded")
	ErrNoCamera          = errors.New("tracer: no camera defined")
	ErrTracerBusy        = errors.New("tracer: worker did not accept block request")
	ErrNotInitialized    = errors.New("tracer: tracer not initialized")
	ErrInvalidFrame      = errors.New("tracer: block does not fit in frame")
	ErrUnsupportedUpdate = errors.New("tracer: unsupported update type")
)
