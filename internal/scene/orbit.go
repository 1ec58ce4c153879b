package scene

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	maxPolar     = 1.5
	minDistance  = 0.05
	maxDistance  = 900
	rotateSpeed  = 0.005
	panSpeed     = 0.001
	zoomStep     = 0.1
	dampingRatio = float32(0.25)
)

// Orbit keeps a camera on a sphere around its target. Input is
// accumulated and eased into the camera over several Update calls.
type Orbit struct {
	camera *Camera

	distance float32
	angleX   float32 // elevation
	angleY   float32 // azimuth

	deltaX    float32
	deltaY    float32
	zoom      float32
	panOffset mgl32.Vec3
}

// NewOrbit derives the orbit state from the camera's current placement
func NewOrbit(cam *Camera) *Orbit {
	o := &Orbit{camera: cam}
	o.Sync()
	return o
}

// Sync re-reads position and target from the camera, dropping pending input
func (o *Orbit) Sync() {
	offset := o.camera.Position.Sub(o.camera.Target)
	o.distance = offset.Len()
	if o.distance < minDistance {
		o.distance = minDistance
	}
	o.angleX = math32.Asin(clamp(offset.Y()/o.distance, -1, 1))
	o.angleY = math32.Atan2(offset.X(), offset.Z())
	o.deltaX, o.deltaY, o.zoom = 0, 0, 0
	o.panOffset = mgl32.Vec3{}
}

// Rotate queues a rotation from a mouse delta in pixels
func (o *Orbit) Rotate(dx, dy float32) {
	o.deltaY -= dx * rotateSpeed
	o.deltaX += dy * rotateSpeed
}

// Pan queues a target move from a mouse delta in pixels, in the camera's
// screen plane
func (o *Orbit) Pan(dx, dy float32) {
	forward := o.camera.Target.Sub(o.camera.Position).Normalize()
	right := forward.Cross(o.camera.Up).Normalize()
	up := right.Cross(forward).Normalize()

	speed := o.distance * panSpeed
	o.panOffset = o.panOffset.
		Add(right.Mul(-dx * speed)).
		Add(up.Mul(dy * speed))
}

// Zoom queues a dolly step; positive wheel moves towards the target
func (o *Orbit) Zoom(wheel float32) {
	o.zoom -= wheel * zoomStep
}

// Distance returns the current distance to the target
func (o *Orbit) Distance() float32 {
	return o.distance
}

// Angles returns elevation and azimuth in radians
func (o *Orbit) Angles() (elevation, azimuth float32) {
	return o.angleX, o.angleY
}

// Update applies a share of the pending input and moves the camera
func (o *Orbit) Update() {
	o.angleX = clamp(o.angleX+o.deltaX*dampingRatio, -maxPolar, maxPolar)
	o.angleY += o.deltaY * dampingRatio
	o.distance = clamp(o.distance*(1+o.zoom*dampingRatio), minDistance, maxDistance)

	step := o.panOffset.Mul(dampingRatio)
	o.camera.Target = o.camera.Target.Add(step)

	keep := 1 - dampingRatio
	o.deltaX *= keep
	o.deltaY *= keep
	o.zoom *= keep
	o.panOffset = o.panOffset.Mul(keep)

	cosX := math32.Cos(o.angleX)
	offset := mgl32.Vec3{
		o.distance * cosX * math32.Sin(o.angleY),
		o.distance * math32.Sin(o.angleX),
		o.distance * cosX * math32.Cos(o.angleY),
	}
	o.camera.Position = o.camera.Target.Add(offset)
}

func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}
