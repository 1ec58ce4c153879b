package scene

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipparndt/rectplacer/pkg/rect"
)

// environment planes and materials plus the shared box
const baselineTracked = 13

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(t *testing.T, gfx *fakeContext, mutate ...func(*Options)) *Manager {
	t.Helper()
	opts := DefaultOptions()
	opts.Logger = quietLogger()
	for _, fn := range mutate {
		fn(&opts)
	}
	m, err := New(gfx.factory, opts)
	require.NoError(t, err)
	t.Cleanup(m.Dispose)
	return m
}

// pump steps the loop until cond holds
func pump(t *testing.T, m *Manager, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for the loop")
		}
		m.Loop().Step()
		time.Sleep(time.Millisecond)
	}
}

// await steps the loop until ch yields
func await(t *testing.T, m *Manager, ch <-chan error) error {
	t.Helper()
	var result error
	pump(t, m, func() bool {
		select {
		case result = <-ch:
			return true
		default:
			return false
		}
	})
	return result
}

func def(lx, ly, lz, x, y, z float64, highlighted bool) rect.Definition {
	return rect.Definition{
		Size:        rect.Size3{LX: lx, LY: ly, LZ: lz},
		Pos:         rect.Vec3{X: x, Y: y, Z: z},
		Highlighted: highlighted,
	}
}

// triangleSTL returns a binary STL with one triangle
func triangleSTL() []byte {
	var buf bytes.Buffer
	buf.Write(make([]byte, 80))
	binary.Write(&buf, binary.LittleEndian, uint32(1))
	for _, f := range []float32{0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0} {
		binary.Write(&buf, binary.LittleEndian, math.Float32bits(f))
	}
	buf.Write([]byte{0, 0})
	return buf.Bytes()
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNewReportsInitFailure(t *testing.T) {
	cause := errors.New("no display")
	_, err := New(func() (Context, error) { return nil, cause }, DefaultOptions())

	assert.ErrorIs(t, err, ErrInit)
	assert.ErrorIs(t, err, cause)
}

func TestNewFailureReleasesPartialScene(t *testing.T) {
	gfx := newFakeContext()
	gfx.failOn = "box"

	opts := DefaultOptions()
	opts.Logger = quietLogger()
	_, err := New(gfx.factory, opts)

	require.ErrorIs(t, err, ErrInit)
	assert.Zero(t, gfx.live())
	assert.Zero(t, gfx.doubleReleases)
	assert.Equal(t, 1, gfx.closes)
}

func TestNewBuildsEnvironment(t *testing.T) {
	gfx := newFakeContext()
	m := newTestManager(t, gfx)

	assert.Equal(t, baselineTracked, m.Tracked())
	assert.Equal(t, 6, gfx.allocated["plane"])
	assert.Equal(t, Hex(0xcce0ff), m.graph.Background)
	assert.Equal(t, float32(0.8), m.graph.Ambient.Intensity)
	assert.Equal(t, mgl32.Vec3{10, 4, 10}, m.graph.Directional.Position)
	assert.Len(t, m.graph.Batches(), 2)
	// ground, sky, four walls, axes
	assert.Len(t, m.graph.Nodes(), 7)
	assert.True(t, m.ShowAxes())
	assert.InDelta(t, 800.0/600.0, m.Camera().Aspect, 1e-6)

	ground := m.graph.Nodes()[0]
	assert.InDelta(t, -2, ground.Transform.Col(3).Y(), 1e-6)
	up := ground.Transform.Mul4x1(mgl32.Vec4{0, 0, 1, 0}).Vec3()
	assert.InDelta(t, 1, up.Y(), 1e-6)

	sky := m.graph.Nodes()[1]
	down := sky.Transform.Mul4x1(mgl32.Vec4{0, 0, 1, 0}).Vec3()
	assert.InDelta(t, -1, down.Y(), 1e-6)
}

func TestSetRectsPartitionsAndTransforms(t *testing.T) {
	m := newTestManager(t, newFakeContext())

	stats := m.SetRects([]rect.Definition{
		def(1, 2, 3, 4, 5, 6, false),
		def(1, 1, 1, 0, 0, 0, true),
		def(1, 1, 1, 0, 0, 0, false),
	})

	assert.Equal(t, RectStats{Normal: 2, Highlighted: 1}, stats)
	assert.Equal(t, 2, m.rects.Count())
	assert.Equal(t, 1, m.highlights.Count())

	inst := m.rects.Instances()[0]
	assert.Equal(t, mgl32.Vec3{4, 6, -5}, inst.Col(3).Vec3())
	assert.Equal(t, mgl32.Vec3{1, 3, 2}, mgl32.Vec3{inst.At(0, 0), inst.At(1, 1), inst.At(2, 2)})
}

func TestSetRectsSupersedesPreviousSet(t *testing.T) {
	gfx := newFakeContext()
	m := newTestManager(t, gfx)
	before := gfx.live()

	m.SetRects([]rect.Definition{
		def(1, 1, 1, 0, 0, 0, false),
		def(1, 1, 1, 1, 0, 0, false),
		def(1, 1, 1, 2, 0, 0, true),
	})
	stats := m.SetRects([]rect.Definition{
		def(2, 2, 2, 9, 9, 9, true),
	})

	assert.Equal(t, RectStats{Highlighted: 1}, stats)
	assert.Zero(t, m.rects.Count())
	assert.Equal(t, mgl32.Vec3{9, 9, -9}, m.highlights.Instances()[0].Col(3).Vec3())
	assert.Equal(t, baselineTracked, m.Tracked())
	assert.Equal(t, before, gfx.live())

	m.Dispose()
	assert.Zero(t, m.Tracked())
	assert.Zero(t, gfx.live())
	assert.Zero(t, gfx.doubleReleases)
}

func TestSetRectsCapsAtCapacity(t *testing.T) {
	m := newTestManager(t, newFakeContext(), func(o *Options) { o.MaxRects = 2 })

	defs := make([]rect.Definition, 0, 6)
	for i := range 5 {
		defs = append(defs, def(1, 1, 1, float64(i), 0, 0, false))
	}
	defs = append(defs, def(1, 1, 1, 0, 0, 0, true))

	stats := m.SetRects(defs)

	assert.Equal(t, RectStats{Normal: 2, Highlighted: 1, Dropped: 3}, stats)
	assert.Equal(t, 2, m.rects.Count())
}

func TestDisposeTwice(t *testing.T) {
	gfx := newFakeContext()
	m := newTestManager(t, gfx)

	m.Dispose()
	m.Dispose()

	assert.True(t, m.Disposed())
	assert.Equal(t, 1, gfx.closes)
	assert.Zero(t, gfx.live())
	assert.Zero(t, gfx.doubleReleases)
	assert.Equal(t, 1, gfx.released["controls"])
}

func TestOperationsAfterDispose(t *testing.T) {
	gfx := newFakeContext()
	m := newTestManager(t, gfx)
	m.Dispose()
	allocated := gfx.allocated["lines"] + gfx.allocated["material"]

	assert.Equal(t, RectStats{}, m.SetRects([]rect.Definition{def(1, 1, 1, 0, 0, 0, false)}))
	m.SetShowAxes(false)
	m.SetShowAxes(true)
	m.Resize(10, 10)
	m.SetSurfaceScale(3)

	assert.ErrorIs(t, m.Mount(), ErrDisposed)
	assert.ErrorIs(t, m.TakeScreenshot(filepath.Join(t.TempDir(), "x.png")), ErrDisposed)
	assert.ErrorIs(t, <-m.LoadSurfaceModel(triangleSTL()), ErrDisposed)

	assert.Equal(t, allocated, gfx.allocated["lines"]+gfx.allocated["material"])
	assert.Equal(t, 800, gfx.width)
	assert.Zero(t, gfx.live())
}

func TestSetShowAxesToggles(t *testing.T) {
	gfx := newFakeContext()
	m := newTestManager(t, gfx)
	require.Equal(t, 1, gfx.allocated["lines"])

	m.SetShowAxes(true)
	assert.Equal(t, 1, gfx.allocated["lines"])

	m.SetShowAxes(false)
	assert.False(t, m.ShowAxes())
	assert.Equal(t, 1, gfx.released["lines"])
	assert.Len(t, m.graph.Nodes(), 6)

	m.SetShowAxes(false)
	assert.Equal(t, 1, gfx.released["lines"])

	m.SetShowAxes(true)
	assert.Equal(t, 2, gfx.allocated["lines"])
	assert.Len(t, gfx.lastLines, 3)
	assert.Equal(t, float32(25), gfx.lastLines[0].To.X())

	assert.Equal(t, baselineTracked, m.Tracked())
	m.Dispose()
	assert.Zero(t, gfx.live())
	assert.Zero(t, gfx.doubleReleases)
}

func TestAxesHiddenByOption(t *testing.T) {
	gfx := newFakeContext()
	m := newTestManager(t, gfx, func(o *Options) { o.ShowAxes = false })

	assert.False(t, m.ShowAxes())
	assert.Zero(t, gfx.allocated["lines"])
}

func TestLoadSurfaceModelReplacesPrevious(t *testing.T) {
	gfx := newFakeContext()
	m := newTestManager(t, gfx)

	require.NoError(t, await(t, m, m.LoadSurfaceModel(triangleSTL())))
	assert.Equal(t, baselineTracked+2, m.Tracked())
	first := m.surface
	require.NotNil(t, first)

	require.NoError(t, await(t, m, m.LoadSurfaceModel(triangleSTL())))
	assert.Equal(t, baselineTracked+2, m.Tracked())
	assert.NotSame(t, first, m.surface)
	assert.Equal(t, 1, gfx.released["mesh"])
	assert.NotContains(t, m.graph.Nodes(), first)

	m.Dispose()
	assert.Zero(t, gfx.live())
	assert.Zero(t, gfx.doubleReleases)
}

func TestLoadSurfaceModelRotatesAndScales(t *testing.T) {
	m := newTestManager(t, newFakeContext(), func(o *Options) { o.SurfaceScale = 2 })
	require.NoError(t, await(t, m, m.LoadSurfaceModel(triangleSTL())))

	up := m.surface.Transform.Mul4x1(mgl32.Vec4{0, 0, 1, 0}).Vec3()
	assert.InDelta(t, 2, up.Y(), 1e-5)

	m.SetSurfaceScale(3)
	up = m.surface.Transform.Mul4x1(mgl32.Vec4{0, 0, 1, 0}).Vec3()
	assert.InDelta(t, 3, up.Y(), 1e-5)

	m.SetSurfaceScale(-1)
	assert.Equal(t, float32(3), m.SurfaceScale())
}

func TestLoadSurfaceModelRejectsGarbage(t *testing.T) {
	gfx := newFakeContext()
	m := newTestManager(t, gfx)

	err := await(t, m, m.LoadSurfaceModel([]byte("definitely not an stl")))

	assert.Error(t, err)
	assert.Nil(t, m.surface)
	assert.Zero(t, gfx.allocated["mesh"])
}

func TestEmptySurfaceKeepsPrevious(t *testing.T) {
	gfx := newFakeContext()
	m := newTestManager(t, gfx)
	require.NoError(t, await(t, m, m.LoadSurfaceModel(triangleSTL())))
	current := m.surface

	empty := append(make([]byte, 80), 0, 0, 0, 0)
	assert.ErrorIs(t, await(t, m, m.LoadSurfaceModel(empty)), ErrEmptySurface)
	assert.ErrorIs(t, await(t, m, m.LoadSurfaceModel([]byte("solid x\nendsolid x\n"))), ErrEmptySurface)

	assert.Same(t, current, m.surface)
	assert.Equal(t, 1, gfx.allocated["mesh"])
	assert.Zero(t, gfx.released["mesh"])
}

func TestSurfaceAllocationFailureKeepsPrevious(t *testing.T) {
	gfx := newFakeContext()
	m := newTestManager(t, gfx)
	require.NoError(t, await(t, m, m.LoadSurfaceModel(triangleSTL())))
	current := m.surface

	gfx.failOn = "mesh"
	assert.Error(t, await(t, m, m.LoadSurfaceModel(triangleSTL())))

	assert.Same(t, current, m.surface)
	assert.Contains(t, m.graph.Nodes(), current)
	assert.Zero(t, gfx.released["mesh"])
	assert.Equal(t, baselineTracked+2, m.Tracked())

	gfx.failOn = ""
	m.Dispose()
	assert.Zero(t, gfx.live())
}

func TestStaleSurfaceIsNotInstalled(t *testing.T) {
	gfx := newFakeContext()
	m := newTestManager(t, gfx)
	positions := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}
	normals := []float32{0, 0, 1, 0, 0, 1, 0, 0, 1}

	require.NoError(t, m.installSurface(2, positions, normals))
	assert.ErrorIs(t, m.installSurface(1, positions, normals), ErrStale)

	assert.Equal(t, 1, gfx.allocated["mesh"])
	assert.Equal(t, baselineTracked+2, m.Tracked())
}

func TestSurfaceCompletionAfterDispose(t *testing.T) {
	gfx := newFakeContext()
	m := newTestManager(t, gfx)

	ch := m.LoadSurfaceModel(triangleSTL())
	m.Dispose()

	select {
	case err := <-ch:
		assert.ErrorIs(t, err, ErrDisposed)
	case <-time.After(2 * time.Second):
		t.Fatal("surface load never resolved")
	}
	assert.Zero(t, gfx.allocated["mesh"])
	assert.Zero(t, gfx.live())
}

func texturedOptions(fsys fstest.MapFS) func(*Options) {
	return func(o *Options) {
		o.Images = NewImageLoader(fsys, 0, quietLogger())
		o.SkyTexture = "sky.png"
		o.GroundTexture = "ground.png"
	}
}

func TestTexturesReplacePlaceholders(t *testing.T) {
	gfx := newFakeContext()
	fsys := fstest.MapFS{
		"sky.png":    {Data: pngBytes(t, 4, 4)},
		"ground.png": {Data: pngBytes(t, 2, 2)},
	}
	m := newTestManager(t, gfx, texturedOptions(fsys))

	ground := m.graph.Nodes()[0].Material.(*fakeMaterial)
	assert.Equal(t, Hex(0xc2c2c2), ground.color)

	pump(t, m, func() bool { return gfx.allocated["texture"] == 2 })

	assert.Equal(t, Hex(0xffffff), ground.color)
	assert.NotNil(t, ground.texture)

	sky := m.graph.Nodes()[1].Material.(*fakeMaterial)
	for _, n := range m.graph.Nodes()[1:6] {
		mat := n.Material.(*fakeMaterial)
		assert.Same(t, sky.texture, mat.texture, n.Name)
		assert.Equal(t, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, mat.color)
	}
	assert.Equal(t, baselineTracked+2, m.Tracked())
}

func TestTextureFailureKeepsPlaceholder(t *testing.T) {
	gfx := newFakeContext()
	fsys := fstest.MapFS{
		"sky.png": {Data: []byte("this is text, not pixels")},
	}
	m := newTestManager(t, gfx, texturedOptions(fsys))

	pump(t, m, func() bool {
		return m.textures["sky.png"].done && m.textures["ground.png"].done
	})

	assert.Zero(t, gfx.allocated["texture"])
	ground := m.graph.Nodes()[0].Material.(*fakeMaterial)
	assert.Equal(t, Hex(0xc2c2c2), ground.color)
	assert.Nil(t, ground.texture)
	wall := m.graph.Nodes()[2].Material.(*fakeMaterial)
	assert.Equal(t, Hex(0xaecbe8), wall.color)
	assert.Equal(t, baselineTracked, m.Tracked())
}

func TestTextureAfterDisposeIsDiscarded(t *testing.T) {
	gfx := newFakeContext()
	fsys := fstest.MapFS{
		"sky.png":    {Data: pngBytes(t, 4, 4)},
		"ground.png": {Data: pngBytes(t, 4, 4)},
	}
	m := newTestManager(t, gfx, texturedOptions(fsys))
	m.Dispose()

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, gfx.allocated["texture"])
	assert.Zero(t, gfx.live())
}

func TestLoopTicksControlsThenRender(t *testing.T) {
	gfx := newFakeContext()
	m := newTestManager(t, gfx)

	m.Loop().Step()
	assert.Zero(t, gfx.renders)

	require.NoError(t, m.Mount())
	require.NoError(t, m.Mount())
	m.Loop().Step()
	m.Loop().Step()

	assert.Equal(t, 2, gfx.renders)
	assert.Equal(t, 2, gfx.controls.updates)
}

func TestFramesKeepBatchVersions(t *testing.T) {
	gfx := newFakeContext()
	m := newTestManager(t, gfx)
	m.SetRects([]rect.Definition{def(1, 1, 1, 0, 0, 0, false), def(1, 1, 1, 0, 0, 0, true)})
	rects, highlights := m.rects.Version(), m.highlights.Version()

	require.NoError(t, m.Mount())
	m.Loop().Step()
	m.Loop().Step()

	assert.Equal(t, 2, gfx.renders)
	assert.Equal(t, rects, m.rects.Version())
	assert.Equal(t, highlights, m.highlights.Version())

	m.SetRects(nil)
	assert.NotEqual(t, rects, m.rects.Version())
	assert.NotEqual(t, highlights, m.highlights.Version())
}

func TestRunStopsWhenWindowCloses(t *testing.T) {
	gfx := newFakeContext()
	m := newTestManager(t, gfx)
	gfx.shouldClose = true

	require.NoError(t, m.Run(t.Context()))
	assert.False(t, m.Loop().Running())
	assert.Zero(t, gfx.renders)
}

func TestResize(t *testing.T) {
	gfx := newFakeContext()
	m := newTestManager(t, gfx)
	before := gfx.live()

	m.Resize(1000, 500)
	m.Resize(1000, 500)
	m.Resize(0, 500)

	assert.Equal(t, 1000, gfx.width)
	assert.Equal(t, 500, gfx.height)
	assert.InDelta(t, 2, m.Camera().Aspect, 1e-6)
	assert.Equal(t, before, gfx.live())
}

func TestTakeScreenshotWritesPNG(t *testing.T) {
	gfx := newFakeContext()
	m := newTestManager(t, gfx)
	path := filepath.Join(t.TempDir(), "shot.png")

	require.NoError(t, m.TakeScreenshot(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 600, cfg.Height)
}
