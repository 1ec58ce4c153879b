// Package rlgfx implements the scene graphics context on raylib.
//
// raylib is bound to the OS thread that opened the window, so every method
// must be called from that goroutine (the scene loop).
package rlgfx

import (
	"errors"
	"fmt"
	"image"
	"runtime"
	"unicode"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/philipparndt/rectplacer/internal/scene"
)

// ErrNoWindow is returned when raylib cannot open a window
var ErrNoWindow = errors.New("rlgfx: window could not be created")

// Options configures the window
type Options struct {
	Width     int
	Height    int
	Title     string
	TargetFPS int
	HighDPI   bool
	MSAA      bool
}

// Context is a raylib window plus the programs used to draw a scene graph
type Context struct {
	basic     *program
	instanced *program
	fallback  rl.Texture2D

	instances map[*scene.Batch]*instanceCache
	live      int
	closed    bool
}

var _ scene.Context = (*Context)(nil)

// Open creates the window and compiles the shaders
func Open(opts Options) (*Context, error) {
	runtime.LockOSThread()

	flags := uint32(rl.FlagWindowResizable)
	if opts.HighDPI {
		flags |= uint32(rl.FlagWindowHighdpi)
	}
	if opts.MSAA {
		flags |= uint32(rl.FlagMsaa4xHint)
	}
	rl.SetConfigFlags(flags) // Must be before InitWindow
	rl.InitWindow(int32(opts.Width), int32(opts.Height), opts.Title)
	if !rl.IsWindowReady() {
		return nil, ErrNoWindow
	}
	if opts.TargetFPS > 0 {
		rl.SetTargetFPS(int32(opts.TargetFPS))
	}

	c := &Context{}
	var err error
	if c.basic, err = loadProgram(meshVS, shadedFS, false); err != nil {
		rl.CloseWindow()
		return nil, fmt.Errorf("mesh program: %w", err)
	}
	if c.instanced, err = loadProgram(instancedVS, shadedFS, true); err != nil {
		rl.UnloadMaterial(c.basic.material)
		rl.CloseWindow()
		return nil, fmt.Errorf("instanced program: %w", err)
	}
	c.fallback = c.basic.material.GetMap(rl.MapAlbedo).Texture
	return c, nil
}

// Live returns the number of allocations not yet released
func (c *Context) Live() int {
	return c.live
}

func (c *Context) NewBox() (scene.Geometry, error) {
	c.live++
	return &mesh{ctx: c, mesh: rl.GenMeshCube(1, 1, 1), base: mgl32.Ident4()}, nil
}

// NewPlane turns raylib's XZ plane (+Y normal) into the XY plane facing +Z
func (c *Context) NewPlane(spec scene.PlaneSpec) (scene.Geometry, error) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("plane size must be positive, got %vx%v", spec.Width, spec.Height)
	}
	c.live++
	return &mesh{
		ctx:  c,
		mesh: rl.GenMeshPlane(spec.Width, spec.Height, 1, 1),
		base: mgl32.HomogRotate3DX(mgl32.DegToRad(90)),
	}, nil
}

// NewTriangleMesh uploads non-indexed triangles. The Go buffers are only
// referenced during the upload.
func (c *Context) NewTriangleMesh(positions, normals []float32) (scene.Geometry, error) {
	if len(positions) == 0 || len(positions)%9 != 0 {
		return nil, fmt.Errorf("triangle mesh needs a multiple of 9 floats, got %d", len(positions))
	}
	if len(normals) != len(positions) {
		return nil, fmt.Errorf("normals length %d does not match positions %d", len(normals), len(positions))
	}

	vertexCount := len(positions) / 3
	m := rl.Mesh{
		VertexCount:   int32(vertexCount),
		TriangleCount: int32(vertexCount / 3),
		Vertices:      &positions[0],
		Normals:       &normals[0],
	}

	var pinner runtime.Pinner
	pinner.Pin(&positions[0])
	pinner.Pin(&normals[0])
	rl.UploadMesh(&m, false)
	pinner.Unpin()

	// raylib frees CPU buffers on unload; these belong to Go
	m.Vertices = nil
	m.Normals = nil

	c.live++
	return &mesh{ctx: c, mesh: m, base: mgl32.Ident4()}, nil
}

func (c *Context) NewLines(segments []scene.LineSegment) (scene.Geometry, error) {
	c.live++
	return &lines{ctx: c, segments: append([]scene.LineSegment(nil), segments...)}, nil
}

func (c *Context) NewMaterial(spec scene.MaterialSpec) (scene.Material, error) {
	c.live++
	return &material{ctx: c, spec: spec, color: spec.Color}, nil
}

// NewTexture uploads img with repeat wrapping and mipmaps
func (c *Context) NewTexture(img image.Image) (scene.Texture, error) {
	if img.Bounds().Empty() {
		return nil, errors.New("texture image is empty")
	}
	cpu := rl.NewImageFromImage(img)
	tex := rl.LoadTextureFromImage(cpu)
	rl.UnloadImage(cpu)
	if !rl.IsTextureValid(tex) {
		return nil, errors.New("texture upload failed")
	}

	rl.GenTextureMipmaps(&tex)
	rl.SetTextureFilter(tex, rl.FilterTrilinear)
	rl.SetTextureWrap(tex, rl.WrapRepeat)

	c.live++
	return &texture{ctx: c, tex: tex}, nil
}

func (c *Context) NewControls(cam *scene.Camera) (scene.Controls, error) {
	c.live++
	return newOrbitControls(c, cam), nil
}

func (c *Context) SetSize(width, height int) {
	if width == rl.GetScreenWidth() && height == rl.GetScreenHeight() {
		return
	}
	rl.SetWindowSize(width, height)
}

func (c *Context) Size() (width, height int) {
	return rl.GetScreenWidth(), rl.GetScreenHeight()
}

// Resized reports a window resize by the user since the last frame
func (c *Context) Resized() (width, height int, ok bool) {
	if !rl.IsWindowResized() {
		return 0, 0, false
	}
	return rl.GetScreenWidth(), rl.GetScreenHeight(), true
}

// KeyPressed reports whether the letter or digit key was pressed this frame
func (c *Context) KeyPressed(key rune) bool {
	return rl.IsKeyPressed(int32(unicode.ToUpper(key)))
}

func (c *Context) ShouldClose() bool {
	return rl.WindowShouldClose()
}

// Render draws g to the window
func (c *Context) Render(g *scene.Graph, cam *scene.Camera) {
	rl.BeginDrawing()
	c.draw(g, cam)
	rl.EndDrawing()
}

// Capture draws g into an off-screen target the size of the window
func (c *Context) Capture(g *scene.Graph, cam *scene.Camera) (image.Image, error) {
	w, h := c.Size()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("cannot capture a %dx%d surface", w, h)
	}

	target := rl.LoadRenderTexture(int32(w), int32(h))
	defer rl.UnloadRenderTexture(target)

	rl.BeginTextureMode(target)
	c.draw(g, cam)
	rl.EndTextureMode()

	img := rl.LoadImageFromTexture(target.Texture)
	defer rl.UnloadImage(img)
	// Render targets are stored bottom-up
	rl.ImageFlipVertical(img)
	return img.ToImage(), nil
}

// Close unloads the programs and closes the window. Resources still
// alive are reported.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	c.instances = nil
	c.instanced.unload(c.fallback)
	c.basic.unload(c.fallback)
	rl.CloseWindow()

	if c.live != 0 {
		return fmt.Errorf("rlgfx: %d resources were not released", c.live)
	}
	return nil
}
