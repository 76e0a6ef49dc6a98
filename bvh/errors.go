package bvh

import "errors"

var (
	ErrNoSpheres    = errors.New("bvh: no spheres to partition")
	ErrInvalidRange = errors.New("bvh: invalid sphere range")
)
