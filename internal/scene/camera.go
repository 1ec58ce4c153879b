package scene

import "github.com/go-gl/mathgl/mgl32"

// Camera is a perspective camera in render space (Y up)
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
	// Fovy is the vertical field of view in degrees
	Fovy   float32
	Aspect float32
	Near   float32
	Far    float32
}

// NewCamera returns the initial viewer camera: slightly above and to the
// left of the origin, looking at it.
func NewCamera() *Camera {
	return &Camera{
		Position: mgl32.Vec3{-1, 1, 0.5},
		Target:   mgl32.Vec3{0, 0, 0},
		Up:       mgl32.Vec3{0, 1, 0},
		Fovy:     45,
		Aspect:   16.0 / 9.0,
		Near:     0.1,
		Far:      1000,
	}
}

// SetViewport updates the aspect ratio for a viewport in pixels.
// Degenerate sizes keep the previous aspect.
func (c *Camera) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Aspect = float32(width) / float32(height)
}

// View returns the world-to-camera matrix
func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

// Projection returns the perspective projection matrix
func (c *Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.Fovy), c.Aspect, c.Near, c.Far)
}
