package scene

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/philipparndt/rectplacer/pkg/rect"
	"github.com/philipparndt/rectplacer/pkg/stl"
)

// DefaultMaxRects is the per-group instance capacity
const DefaultMaxRects = 200000

// Options configures a Manager
type Options struct {
	// MaxRects caps each of the normal and highlighted groups
	MaxRects     int
	ShowAxes     bool
	AxesLength   float32
	SurfaceScale float32

	SkyTexture    string
	GroundTexture string
	// Images loads textures; nil leaves every surface in its placeholder colour
	Images *ImageLoader

	Logger *slog.Logger
}

// DefaultOptions returns the viewer defaults without textures
func DefaultOptions() Options {
	return Options{
		MaxRects:     DefaultMaxRects,
		ShowAxes:     true,
		AxesLength:   25,
		SurfaceScale: 1,
	}
}

// RectStats reports how a SetRects call was applied
type RectStats struct {
	Normal      int
	Highlighted int
	// Dropped counts definitions beyond MaxRects in their group
	Dropped int
}

// Manager owns every allocation made against a graphics context and keeps
// the scene in line with the latest rects and surface model.
//
// Methods other than LoadSurfaceModel and Disposed must be called on the
// loop goroutine; use Loop().Post from elsewhere.
type Manager struct {
	ctx  Context
	opts Options
	log  *slog.Logger

	alive   atomic.Bool
	loop    *Loop
	tracker *Tracker
	graph   *Graph
	camera  *Camera

	controls Controls
	images   *ImageLoader
	textures map[string]*textureRequest
	loadCtx  context.Context
	cancel   context.CancelFunc

	// Shared by every SetRects call; released only by Dispose
	rectMaterial      Material
	highlightMaterial Material
	rects             *Batch
	highlights        *Batch

	axes *Node

	surface          *Node
	surfaceScale     float32
	surfaceStarted   atomic.Uint64
	surfaceInstalled uint64
}

// New creates the graphics context through factory and builds the static
// scene. Any failure is fatal and wrapped in ErrInit.
func New(factory func() (Context, error), opts Options) (*Manager, error) {
	if opts.MaxRects <= 0 {
		opts.MaxRects = DefaultMaxRects
	}
	if opts.AxesLength <= 0 {
		opts.AxesLength = 25
	}
	if opts.SurfaceScale <= 0 {
		opts.SurfaceScale = 1
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	gfx, err := factory()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInit, err)
	}
	if gfx == nil {
		return nil, ErrInit
	}

	loadCtx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		ctx:          gfx,
		opts:         opts,
		log:          log,
		loop:         NewLoop(),
		tracker:      NewTracker(),
		graph:        NewGraph(),
		camera:       NewCamera(),
		images:       opts.Images,
		textures:     make(map[string]*textureRequest),
		loadCtx:      loadCtx,
		cancel:       cancel,
		surfaceScale: opts.SurfaceScale,
	}
	m.alive.Store(true)

	if err := m.init(); err != nil {
		m.Dispose()
		return nil, fmt.Errorf("%w: %w", ErrInit, err)
	}

	log.Info("scene ready", "tracked", m.tracker.Len(), "max_rects", opts.MaxRects)
	return m, nil
}

func (m *Manager) init() error {
	w, h := m.ctx.Size()
	m.camera.SetViewport(w, h)

	controls, err := m.ctx.NewControls(m.camera)
	if err != nil {
		return fmt.Errorf("controls: %w", err)
	}
	m.controls = controls

	if err := m.buildEnvironment(); err != nil {
		return fmt.Errorf("environment: %w", err)
	}

	box, err := m.trackGeometry(m.ctx.NewBox())
	if err != nil {
		return fmt.Errorf("rect geometry: %w", err)
	}
	if m.rectMaterial, err = m.ctx.NewMaterial(MaterialSpec{
		Kind: Phong, Color: Hex(0x0000ff), Transparent: true, Opacity: 0.5,
	}); err != nil {
		return fmt.Errorf("rect material: %w", err)
	}
	if m.highlightMaterial, err = m.ctx.NewMaterial(MaterialSpec{
		Kind: Phong, Color: Hex(0x00ff00), Transparent: true, Opacity: 0.5,
	}); err != nil {
		return fmt.Errorf("highlight material: %w", err)
	}
	m.rects = NewBatch("rects", box, m.rectMaterial, m.opts.MaxRects)
	m.highlights = NewBatch("highlights", box, m.highlightMaterial, m.opts.MaxRects)
	m.graph.AddBatch(m.rects)
	m.graph.AddBatch(m.highlights)

	if m.opts.ShowAxes {
		m.SetShowAxes(true)
	}

	m.loop.OnTick(m.tick)
	return nil
}

func (m *Manager) tick() {
	if !m.alive.Load() {
		return
	}
	if m.ctx.ShouldClose() {
		m.loop.Stop()
		return
	}
	m.controls.Update()
	m.ctx.Render(m.graph, m.camera)
}

// trackGeometry, trackMaterial and trackTexture register the result of a
// constructor call with the tracker
func (m *Manager) trackGeometry(g Geometry, err error) (Geometry, error) {
	if err != nil {
		return nil, err
	}
	if err := m.tracker.Add(g); err != nil {
		return nil, err
	}
	return g, nil
}

func (m *Manager) trackMaterial(mat Material, err error) (Material, error) {
	if err != nil {
		return nil, err
	}
	if err := m.tracker.Add(mat); err != nil {
		return nil, err
	}
	return mat, nil
}

func (m *Manager) trackTexture(t Texture, err error) (Texture, error) {
	if err != nil {
		return nil, err
	}
	if err := m.tracker.Add(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Loop returns the driver that owns the graphics context
func (m *Manager) Loop() *Loop {
	return m.loop
}

// Camera returns the scene camera
func (m *Manager) Camera() *Camera {
	return m.camera
}

// Disposed reports whether Dispose has run
func (m *Manager) Disposed() bool {
	return !m.alive.Load()
}

// Tracked returns the number of tracked resources
func (m *Manager) Tracked() int {
	return m.tracker.Len()
}

// Mount starts the render loop
func (m *Manager) Mount() error {
	if !m.alive.Load() {
		return ErrDisposed
	}
	m.loop.Start()
	return nil
}

// Run mounts the manager and drives the loop until the window closes or
// ctx is done. It must be called from the goroutine that created the
// graphics context.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.Mount(); err != nil {
		return err
	}
	return m.loop.Run(ctx)
}

// SetRects replaces both instanced batches with defs. Definitions beyond
// the per-group capacity are dropped and reported.
func (m *Manager) SetRects(defs []rect.Definition) RectStats {
	var stats RectStats
	if !m.alive.Load() {
		return stats
	}

	m.rects.Reset()
	m.highlights.Reset()

	for _, def := range defs {
		batch := m.rects
		if def.Highlighted {
			batch = m.highlights
		}
		if !batch.Append(instanceTransform(def)) {
			stats.Dropped++
		}
	}

	stats.Normal = m.rects.Count()
	stats.Highlighted = m.highlights.Count()
	if stats.Dropped > 0 {
		m.log.Warn("rect capacity exceeded",
			"capacity", m.opts.MaxRects,
			"requested", len(defs),
			"dropped", stats.Dropped)
	}
	return stats
}

// instanceTransform scales the unit box to the prism and moves it into
// render space
func instanceTransform(def rect.Definition) mgl32.Mat4 {
	p := rect.ToRenderPos(def.Pos)
	s := rect.RenderSize(def.Size)
	return mgl32.Translate3D(float32(p.X), float32(p.Y), float32(p.Z)).
		Mul4(mgl32.Scale3D(float32(s.LX), float32(s.LY), float32(s.LZ)))
}

// LoadSurfaceModel decodes an STL payload in the background and installs
// it on the loop, replacing the current surface. The channel yields nil
// once installed, ErrStale if a newer load was installed first,
// ErrEmptySurface for a model without triangles, or ErrDisposed if the
// manager was disposed meanwhile. A failed load keeps the current surface.
func (m *Manager) LoadSurfaceModel(data []byte) <-chan error {
	result := make(chan error, 1)
	if !m.alive.Load() {
		result <- ErrDisposed
		return result
	}
	seq := m.surfaceStarted.Add(1)

	go func() {
		model, err := stl.Decode(data)
		if err != nil {
			result <- fmt.Errorf("decode surface: %w", err)
			return
		}
		if model.TriangleCount() == 0 {
			result <- ErrEmptySurface
			return
		}
		positions, normals := model.Buffers()

		posted := m.loop.Post(func() {
			result <- m.installSurface(seq, positions, normals)
		})
		if !posted {
			result <- ErrDisposed
		}
	}()
	return result
}

func (m *Manager) installSurface(seq uint64, positions, normals []float32) error {
	if !m.alive.Load() {
		return ErrDisposed
	}
	if seq < m.surfaceInstalled {
		return ErrStale
	}

	// The current surface stays up until its replacement is allocated
	geom, err := m.trackGeometry(m.ctx.NewTriangleMesh(positions, normals))
	if err != nil {
		return fmt.Errorf("surface geometry: %w", err)
	}
	mat, err := m.trackMaterial(m.ctx.NewMaterial(MaterialSpec{
		Kind:      Phong,
		Color:     Hex(0xff5555),
		Specular:  Hex(0x111111),
		Shininess: 200,
	}))
	if err != nil {
		m.tracker.Release(geom)
		return fmt.Errorf("surface material: %w", err)
	}

	m.disposeSurface()
	m.surface = &Node{Name: "surface", Geometry: geom, Material: mat, Transform: m.surfaceTransform()}
	m.graph.Add(m.surface)
	m.surfaceInstalled = seq
	m.log.Debug("surface installed", "vertices", len(positions)/3, "tracked", m.tracker.Len())
	return nil
}

// surfaceTransform turns STL's Z-up into render Y-up and applies the scale
func (m *Manager) surfaceTransform() mgl32.Mat4 {
	s := m.surfaceScale
	return mgl32.HomogRotate3DX(-math32.Pi / 2).Mul4(mgl32.Scale3D(s, s, s))
}

func (m *Manager) disposeSurface() {
	if m.surface == nil {
		return
	}
	m.graph.Remove(m.surface)
	m.tracker.Release(m.surface.Geometry)
	m.tracker.Release(m.surface.Material)
	m.surface = nil
}

// SetSurfaceScale scales the current and future surface models uniformly.
// Non-positive values are ignored.
func (m *Manager) SetSurfaceScale(scale float32) {
	if !m.alive.Load() || scale <= 0 {
		return
	}
	m.surfaceScale = scale
	if m.surface != nil {
		m.surface.Transform = m.surfaceTransform()
	}
}

// SurfaceScale returns the current surface scale
func (m *Manager) SurfaceScale() float32 {
	return m.surfaceScale
}

// ShowAxes reports whether the axes indicator is visible
func (m *Manager) ShowAxes() bool {
	return m.axes != nil
}

// SetShowAxes creates or releases the axes indicator. Its geometry and
// material are owned here rather than by the tracker since they come and
// go at runtime.
func (m *Manager) SetShowAxes(show bool) {
	if !m.alive.Load() {
		return
	}
	if show == (m.axes != nil) {
		return
	}
	if !show {
		m.hideAxes()
		return
	}

	l := m.opts.AxesLength
	geom, err := m.ctx.NewLines([]LineSegment{
		{To: mgl32.Vec3{l, 0, 0}, Color: Hex(0xff0000)},
		{To: mgl32.Vec3{0, l, 0}, Color: Hex(0x00ff00)},
		{To: mgl32.Vec3{0, 0, l}, Color: Hex(0x0000ff)},
	})
	if err != nil {
		m.log.Warn("axes geometry failed", "error", err)
		return
	}
	mat, err := m.ctx.NewMaterial(MaterialSpec{Kind: Basic, Color: white})
	if err != nil {
		geom.Release()
		m.log.Warn("axes material failed", "error", err)
		return
	}

	// Authoring z up, y away from the viewer
	m.axes = &Node{Name: "axes", Geometry: geom, Material: mat, Transform: mgl32.HomogRotate3DX(-math32.Pi / 2)}
	m.graph.Add(m.axes)
}

func (m *Manager) hideAxes() {
	if m.axes == nil {
		return
	}
	m.graph.Remove(m.axes)
	m.axes.Geometry.Release()
	m.axes.Material.Release()
	m.axes = nil
}

// Resize matches the render surface and projection to a new viewport
func (m *Manager) Resize(width, height int) {
	if !m.alive.Load() || width <= 0 || height <= 0 {
		return
	}
	m.ctx.SetSize(width, height)
	m.camera.SetViewport(width, height)
}

// Screenshot renders one frame off-screen
func (m *Manager) Screenshot() (image.Image, error) {
	if !m.alive.Load() {
		return nil, ErrDisposed
	}
	return m.ctx.Capture(m.graph, m.camera)
}

// TakeScreenshot renders one frame and writes it to path as PNG
func (m *Manager) TakeScreenshot(path string) error {
	if path == "" {
		path = "screenshot.png"
	}
	img, err := m.Screenshot()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create screenshot: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode screenshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	m.log.Info("screenshot saved", "path", path)
	return nil
}

// Dispose stops the loop and releases everything allocated against the
// graphics context, then closes it. Further calls do nothing.
func (m *Manager) Dispose() {
	if !m.alive.CompareAndSwap(true, false) {
		return
	}
	m.cancel()
	m.loop.Stop()

	if m.rects != nil {
		m.rects.Reset()
		m.highlights.Reset()
	}
	m.disposeSurface()
	m.hideAxes()
	m.tracker.ReleaseAll()

	if m.controls != nil {
		m.controls.Release()
		m.controls = nil
	}
	if m.rectMaterial != nil {
		m.rectMaterial.Release()
		m.rectMaterial = nil
	}
	if m.highlightMaterial != nil {
		m.highlightMaterial.Release()
		m.highlightMaterial = nil
	}
	m.graph.Clear()
	m.loop.Close()

	if err := m.ctx.Close(); err != nil {
		m.log.Warn("graphics context close failed", "error", err)
	}
	m.log.Debug("scene disposed")
}
