package rlgfx

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/philipparndt/rectplacer/internal/scene"
)

// mesh is an uploaded raylib mesh. base is applied before the node
// transform so primitives match the scene's conventions.
type mesh struct {
	ctx      *Context
	mesh     rl.Mesh
	base     mgl32.Mat4
	released bool
}

func (m *mesh) Release() {
	if m.released {
		return
	}
	m.released = true
	rl.UnloadMesh(&m.mesh)
	m.ctx.live--
}

// lines are drawn immediate-mode and hold no GPU memory
type lines struct {
	ctx      *Context
	segments []scene.LineSegment
	released bool
}

func (l *lines) Release() {
	if l.released {
		return
	}
	l.released = true
	l.segments = nil
	l.ctx.live--
}

// texture is an uploaded image with repeat wrapping
type texture struct {
	ctx      *Context
	tex      rl.Texture2D
	released bool
}

func (t *texture) Release() {
	if t.released {
		return
	}
	t.released = true
	rl.UnloadTexture(t.tex)
	t.ctx.live--
}

// material keeps its state on the Go side; it is loaded into the shared
// program material right before each draw.
type material struct {
	ctx      *Context
	spec     scene.MaterialSpec
	color    color.RGBA
	texture  *texture
	released bool
}

func (m *material) SetColor(c color.RGBA) {
	m.color = c
}

func (m *material) SetTexture(t scene.Texture) {
	tex, ok := t.(*texture)
	if !ok && t != nil {
		return
	}
	m.texture = tex
}

func (m *material) Release() {
	if m.released {
		return
	}
	m.released = true
	m.texture = nil
	m.ctx.live--
}

func (m *material) transparent() bool {
	return m.spec.Transparent
}
