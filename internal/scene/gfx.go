// Package scene maintains the rendered representation of rect definitions
// and an optional surface model against a graphics context.
//
// Everything that touches the graphics context runs on the goroutine that
// drives the Loop. Other goroutines hand work to it through Loop.Post.
package scene

import (
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
)

// Resource is an allocation owned by a graphics context
type Resource interface {
	Release()
}

// Geometry is an uploaded mesh or line set
type Geometry interface {
	Resource
}

// Texture is an uploaded image
type Texture interface {
	Resource
}

// Material describes how a geometry is shaded. Colour and texture may be
// swapped after creation so placeholders can be upgraded in place.
type Material interface {
	Resource
	SetColor(c color.RGBA)
	SetTexture(t Texture)
}

// Controls moves a camera in response to user input
type Controls interface {
	Resource
	// Update advances input handling and damping by one tick
	Update()
}

// MaterialKind selects the lighting model
type MaterialKind int

const (
	// Basic is unlit: texture times colour
	Basic MaterialKind = iota
	// Lambert adds ambient and diffuse lighting
	Lambert
	// Phong adds a specular highlight on top of Lambert
	Phong
)

func (k MaterialKind) String() string {
	switch k {
	case Basic:
		return "basic"
	case Lambert:
		return "lambert"
	case Phong:
		return "phong"
	}
	return "unknown"
}

// MaterialSpec is the construction-time description of a material
type MaterialSpec struct {
	Kind        MaterialKind
	Color       color.RGBA
	Specular    color.RGBA
	Shininess   float32
	Transparent bool
	Opacity     float32
	DoubleSided bool
	// Repeat scales texture coordinates; zero components mean 1
	Repeat mgl32.Vec2
}

// UVScale returns Repeat with zero components replaced by 1
func (s MaterialSpec) UVScale() mgl32.Vec2 {
	uv := s.Repeat
	if uv[0] == 0 {
		uv[0] = 1
	}
	if uv[1] == 0 {
		uv[1] = 1
	}
	return uv
}

// Alpha is the effective opacity in [0,1]
func (s MaterialSpec) Alpha() float32 {
	if !s.Transparent {
		return 1
	}
	switch {
	case s.Opacity < 0:
		return 0
	case s.Opacity > 1:
		return 1
	}
	return s.Opacity
}

// PlaneSpec is a flat rectangle in the XY plane facing +Z, centred on
// the origin
type PlaneSpec struct {
	Width  float32
	Height float32
}

// LineSegment is one coloured line for line geometries
type LineSegment struct {
	From  mgl32.Vec3
	To    mgl32.Vec3
	Color color.RGBA
}

// Context is the graphics backend the manager allocates against
type Context interface {
	NewBox() (Geometry, error)
	NewPlane(spec PlaneSpec) (Geometry, error)
	NewTriangleMesh(positions, normals []float32) (Geometry, error)
	NewLines(segments []LineSegment) (Geometry, error)
	NewMaterial(spec MaterialSpec) (Material, error)
	NewTexture(img image.Image) (Texture, error)
	NewControls(cam *Camera) (Controls, error)

	SetSize(width, height int)
	Size() (width, height int)

	// Render draws one frame of g as seen from cam
	Render(g *Graph, cam *Camera)
	// Capture renders one frame off-screen and returns its pixels
	Capture(g *Graph, cam *Camera) (image.Image, error)

	ShouldClose() bool
	Close() error
}

// Hex converts 0xRRGGBB into an opaque colour
func Hex(rgb uint32) color.RGBA {
	return color.RGBA{
		R: uint8(rgb >> 16),
		G: uint8(rgb >> 8),
		B: uint8(rgb),
		A: 0xff,
	}
}
