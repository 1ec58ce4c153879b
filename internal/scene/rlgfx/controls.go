package rlgfx

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/philipparndt/rectplacer/internal/scene"
)

// orbitControls feeds mouse input into a scene.Orbit.
// Left drag rotates, right drag or Alt+left drag pans, the wheel zooms.
type orbitControls struct {
	ctx      *Context
	orbit    *scene.Orbit
	released bool
}

func newOrbitControls(ctx *Context, cam *scene.Camera) *orbitControls {
	return &orbitControls{ctx: ctx, orbit: scene.NewOrbit(cam)}
}

func (o *orbitControls) Update() {
	if o.released {
		return
	}

	alt := rl.IsKeyDown(rl.KeyLeftAlt) || rl.IsKeyDown(rl.KeyRightAlt)
	left := rl.IsMouseButtonDown(rl.MouseLeftButton)
	right := rl.IsMouseButtonDown(rl.MouseRightButton)

	switch {
	case right || (left && alt):
		delta := rl.GetMouseDelta()
		o.orbit.Pan(delta.X, delta.Y)
	case left:
		delta := rl.GetMouseDelta()
		o.orbit.Rotate(delta.X, delta.Y)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		o.orbit.Zoom(wheel)
	}

	o.orbit.Update()
}

func (o *orbitControls) Release() {
	if o.released {
		return
	}
	o.released = true
	o.ctx.live--
}
