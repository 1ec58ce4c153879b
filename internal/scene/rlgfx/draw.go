package rlgfx

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/philipparndt/rectplacer/internal/scene"
)

// draw renders one frame between Begin/End calls owned by the caller.
// Opaque nodes go first, then transparent nodes and batches with depth
// writes off.
func (c *Context) draw(g *scene.Graph, cam *scene.Camera) {
	rl.ClearBackground(g.Background)
	rl.BeginMode3D(camera3D(cam))

	c.basic.setFrame(g, cam)
	c.instanced.setFrame(g, cam)

	var transparent []*scene.Node
	for _, n := range g.Nodes() {
		if mat, ok := n.Material.(*material); ok && mat.transparent() {
			transparent = append(transparent, n)
			continue
		}
		c.drawNode(n)
	}

	rl.DisableDepthMask()
	for _, n := range transparent {
		c.drawNode(n)
	}
	for _, b := range g.Batches() {
		c.drawBatch(b)
	}
	rl.EnableDepthMask()

	rl.EndMode3D()
}

func (c *Context) drawNode(n *scene.Node) {
	mat, ok := n.Material.(*material)
	if !ok || mat.released {
		return
	}

	switch geom := n.Geometry.(type) {
	case *mesh:
		if geom.released {
			return
		}
		c.basic.bind(mat, c.fallback)
		if mat.spec.DoubleSided {
			rl.DisableBackfaceCulling()
		}
		rl.DrawMesh(geom.mesh, c.basic.material, toMatrix(n.Transform.Mul4(geom.base)))
		if mat.spec.DoubleSided {
			rl.EnableBackfaceCulling()
		}
	case *lines:
		if geom.released {
			return
		}
		for _, s := range geom.segments {
			from := n.Transform.Mul4x1(s.From.Vec4(1)).Vec3()
			to := n.Transform.Mul4x1(s.To.Vec4(1)).Vec3()
			rl.DrawLine3D(toVector(from), toVector(to), s.Color)
		}
	}
}

func (c *Context) drawBatch(b *scene.Batch) {
	count := b.Count()
	if count == 0 {
		return
	}
	geom, ok := b.Geometry.(*mesh)
	if !ok || geom.released {
		return
	}
	mat, ok := b.Material.(*material)
	if !ok || mat.released {
		return
	}

	matrices := c.instanceMatrices(b, geom.base)
	c.instanced.bind(mat, c.fallback)
	rl.DrawMeshInstanced(geom.mesh, c.instanced.material, matrices, count)
}

// instanceCache holds one batch's transforms in raylib layout
type instanceCache struct {
	version  uint64
	matrices []rl.Matrix
}

// instanceMatrices converts b's transforms, reusing the last conversion
// while the batch is unchanged
func (c *Context) instanceMatrices(b *scene.Batch, base mgl32.Mat4) []rl.Matrix {
	if c.instances == nil {
		c.instances = make(map[*scene.Batch]*instanceCache)
	}
	cached, ok := c.instances[b]
	if ok && cached.version == b.Version() {
		return cached.matrices
	}
	if !ok {
		cached = &instanceCache{}
		c.instances[b] = cached
	}

	src := b.Instances()
	if cap(cached.matrices) < len(src) {
		cached.matrices = make([]rl.Matrix, len(src))
	}
	cached.matrices = cached.matrices[:len(src)]
	for i, m := range src {
		cached.matrices[i] = toMatrix(m.Mul4(base))
	}
	cached.version = b.Version()
	return cached.matrices
}

func camera3D(cam *scene.Camera) rl.Camera3D {
	return rl.Camera3D{
		Position:   toVector(cam.Position),
		Target:     toVector(cam.Target),
		Up:         toVector(cam.Up),
		Fovy:       cam.Fovy,
		Projection: rl.CameraPerspective,
	}
}

func toVector(v mgl32.Vec3) rl.Vector3 {
	return rl.Vector3{X: v.X(), Y: v.Y(), Z: v.Z()}
}

// toMatrix maps mgl32's column-major layout onto raylib's named elements
func toMatrix(m mgl32.Mat4) rl.Matrix {
	return rl.Matrix{
		M0: m[0], M4: m[4], M8: m[8], M12: m[12],
		M1: m[1], M5: m[5], M9: m[9], M13: m[13],
		M2: m[2], M6: m[6], M10: m[10], M14: m[14],
		M3: m[3], M7: m[7], M11: m[11], M15: m[15],
	}
}
