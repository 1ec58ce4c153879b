package scene

import "errors"

var (
	// ErrInit wraps the cause when the graphics context cannot be created
	ErrInit = errors.New("scene: failed to initialize graphics context")
	// ErrDisposed is returned by operations on a disposed manager
	ErrDisposed = errors.New("scene: manager is disposed")
	// ErrStale is returned by a surface load overtaken by a newer one
	ErrStale = errors.New("scene: surface load superseded")
	// ErrEmptySurface is returned for surface models without triangles
	ErrEmptySurface = errors.New("scene: surface model has no triangles")
)
