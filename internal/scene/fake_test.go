package scene

import (
	"errors"
	"image"
	"image/color"
)

type fakeResource struct {
	kind     string
	gfx      *fakeContext
	released int
}

func (r *fakeResource) Release() {
	r.released++
	if r.released > 1 {
		r.gfx.doubleReleases++
		return
	}
	r.gfx.released[r.kind]++
}

type fakeMaterial struct {
	fakeResource
	spec    MaterialSpec
	color   color.RGBA
	texture Texture
}

func (m *fakeMaterial) SetColor(c color.RGBA) { m.color = c }

func (m *fakeMaterial) SetTexture(t Texture) { m.texture = t }

type fakeControls struct {
	fakeResource
	updates int
}

func (c *fakeControls) Update() { c.updates++ }

// fakeContext counts allocations and releases per resource kind
type fakeContext struct {
	allocated      map[string]int
	released       map[string]int
	doubleReleases int

	failOn string

	width, height int
	renders       int
	closes        int
	shouldClose   bool
	controls      *fakeControls
	lastLines     []LineSegment
}

func newFakeContext() *fakeContext {
	return &fakeContext{
		allocated: make(map[string]int),
		released:  make(map[string]int),
		width:     800,
		height:    600,
	}
}

func (f *fakeContext) factory() (Context, error) {
	return f, nil
}

func (f *fakeContext) alloc(kind string) (fakeResource, error) {
	if f.failOn == kind {
		return fakeResource{}, errors.New("no " + kind + " for you")
	}
	f.allocated[kind]++
	return fakeResource{kind: kind, gfx: f}, nil
}

// live returns allocations not yet released
func (f *fakeContext) live() int {
	n := 0
	for kind, count := range f.allocated {
		n += count - f.released[kind]
	}
	return n
}

func (f *fakeContext) NewBox() (Geometry, error) {
	r, err := f.alloc("box")
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (f *fakeContext) NewPlane(PlaneSpec) (Geometry, error) {
	r, err := f.alloc("plane")
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (f *fakeContext) NewTriangleMesh(positions, normals []float32) (Geometry, error) {
	r, err := f.alloc("mesh")
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (f *fakeContext) NewLines(segments []LineSegment) (Geometry, error) {
	r, err := f.alloc("lines")
	if err != nil {
		return nil, err
	}
	f.lastLines = segments
	return &r, nil
}

func (f *fakeContext) NewMaterial(spec MaterialSpec) (Material, error) {
	r, err := f.alloc("material")
	if err != nil {
		return nil, err
	}
	return &fakeMaterial{fakeResource: r, spec: spec, color: spec.Color}, nil
}

func (f *fakeContext) NewTexture(image.Image) (Texture, error) {
	r, err := f.alloc("texture")
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (f *fakeContext) NewControls(*Camera) (Controls, error) {
	r, err := f.alloc("controls")
	if err != nil {
		return nil, err
	}
	f.controls = &fakeControls{fakeResource: r}
	return f.controls, nil
}

func (f *fakeContext) SetSize(width, height int) {
	f.width, f.height = width, height
}

func (f *fakeContext) Size() (int, int) {
	return f.width, f.height
}

func (f *fakeContext) Render(*Graph, *Camera) {
	f.renders++
}

func (f *fakeContext) Capture(*Graph, *Camera) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, f.width, f.height)), nil
}

func (f *fakeContext) ShouldClose() bool {
	return f.shouldClose
}

func (f *fakeContext) Close() error {
	f.closes++
	return nil
}
