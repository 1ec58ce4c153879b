package scene

import (
	"image"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

var white = Hex(0xffffff)

// Environment constants, in render units
const (
	groundSize   = 5000
	groundLevel  = -2
	skySize      = 5000
	skyLevel     = 15
	wallHeight   = 100
	wallSpan     = 4000
	wallDistance = 600
)

type wallSpec struct {
	name string
	pos  mgl32.Vec3
	rotY float32
}

var walls = []wallSpec{
	{name: "wall-s", pos: mgl32.Vec3{0, wallHeight / 2, -wallDistance}, rotY: 0},
	{name: "wall-n", pos: mgl32.Vec3{0, wallHeight / 2, wallDistance}, rotY: math32.Pi},
	{name: "wall-w", pos: mgl32.Vec3{-wallDistance, wallHeight / 2, 0}, rotY: math32.Pi / 2},
	{name: "wall-e", pos: mgl32.Vec3{wallDistance, wallHeight / 2, 0}, rotY: -math32.Pi / 2},
}

// buildEnvironment adds lights, ground, sky and walls. Surfaces start in
// their placeholder colour and pick up textures when the loads finish.
func (m *Manager) buildEnvironment() error {
	m.graph.Background = Hex(0xcce0ff)
	m.graph.Ambient = Light{Color: white, Intensity: 0.8}
	m.graph.Directional = Light{Color: white, Intensity: 1, Position: mgl32.Vec3{10, 4, 10}}

	ground, err := m.addPlane("ground",
		PlaneSpec{Width: groundSize, Height: groundSize},
		MaterialSpec{Kind: Lambert, Color: Hex(0xc2c2c2), Repeat: mgl32.Vec2{2500, 2500}},
		mgl32.Translate3D(0, groundLevel, 0).Mul4(mgl32.HomogRotate3DX(-math32.Pi/2)),
	)
	if err != nil {
		return err
	}

	sky, err := m.addPlane("sky",
		PlaneSpec{Width: skySize, Height: skySize},
		MaterialSpec{Kind: Basic, Color: Hex(0xaecbe8), Repeat: mgl32.Vec2{25, 25}},
		mgl32.Translate3D(0, skyLevel, 0).Mul4(mgl32.HomogRotate3DX(math32.Pi/2)),
	)
	if err != nil {
		return err
	}

	skyLike := []*Node{sky}
	for _, w := range walls {
		wall, err := m.addPlane(w.name,
			PlaneSpec{Width: wallSpan, Height: wallHeight},
			MaterialSpec{Kind: Basic, Color: Hex(0xaecbe8), DoubleSided: true, Repeat: mgl32.Vec2{20, 1}},
			mgl32.Translate3D(w.pos.X(), w.pos.Y(), w.pos.Z()).Mul4(mgl32.HomogRotate3DY(w.rotY)),
		)
		if err != nil {
			return err
		}
		skyLike = append(skyLike, wall)
	}

	m.withTexture(m.opts.GroundTexture, func(tex Texture) {
		applyTexture(ground, tex)
	})
	// One decode of the sky image serves the sky and every wall
	m.withTexture(m.opts.SkyTexture, func(tex Texture) {
		for _, n := range skyLike {
			applyTexture(n, tex)
		}
	})
	return nil
}

func (m *Manager) addPlane(name string, plane PlaneSpec, spec MaterialSpec, transform mgl32.Mat4) (*Node, error) {
	geom, err := m.trackGeometry(m.ctx.NewPlane(plane))
	if err != nil {
		return nil, err
	}
	mat, err := m.trackMaterial(m.ctx.NewMaterial(spec))
	if err != nil {
		return nil, err
	}
	n := &Node{Name: name, Geometry: geom, Material: mat, Transform: transform}
	m.graph.Add(n)
	return n, nil
}

func applyTexture(n *Node, tex Texture) {
	n.Material.SetTexture(tex)
	n.Material.SetColor(white)
}

type textureRequest struct {
	tex     Texture
	done    bool
	waiters []func(Texture)
}

// withTexture runs apply on the loop once the named texture is uploaded.
// Each name is fetched and uploaded once per manager. Failed loads are
// logged and apply never runs.
func (m *Manager) withTexture(name string, apply func(Texture)) {
	if name == "" || m.images == nil {
		return
	}

	req, ok := m.textures[name]
	if ok {
		if req.done {
			if req.tex != nil {
				apply(req.tex)
			}
			return
		}
		req.waiters = append(req.waiters, apply)
		return
	}

	req = &textureRequest{waiters: []func(Texture){apply}}
	m.textures[name] = req
	m.images.LoadAsync(m.loadCtx, m.loop, name, func(img image.Image, err error) {
		m.textureLoaded(name, req, img, err)
	})
}

func (m *Manager) textureLoaded(name string, req *textureRequest, img image.Image, err error) {
	req.done = true
	waiters := req.waiters
	req.waiters = nil

	if !m.alive.Load() {
		return
	}
	if err != nil {
		m.log.Warn("texture load failed", "name", name, "error", err)
		return
	}

	tex, err := m.trackTexture(m.ctx.NewTexture(img))
	if err != nil {
		m.log.Warn("texture upload failed", "name", name, "error", err)
		return
	}
	req.tex = tex
	m.log.Debug("texture ready", "name", name, "users", len(waiters))

	for _, apply := range waiters {
		apply(tex)
	}
}
