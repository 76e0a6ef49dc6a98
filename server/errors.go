package server

import "errors"

var (
	ErrInvalidSphereIndex = errors.New("server: invalid sphere index")
	ErrSphereNotFound     = errors.New("server: sphere not found")
	ErrInvalidSphere      = errors.New("server: invalid sphere")
)
