package rlgfx

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/philipparndt/rectplacer/internal/scene"
)

// program is a shader bound to its own default material, with uniform
// locations looked up once
type program struct {
	material rl.Material

	uvScale   int32
	shading   int32
	ambient   int32
	lightDir  int32
	lightCol  int32
	viewPos   int32
	specular  int32
	shininess int32
}

func loadProgram(vs, fs string, instanced bool) (*program, error) {
	shader := rl.LoadShaderFromMemory(vs, fs)
	if !rl.IsShaderValid(shader) {
		return nil, fmt.Errorf("shader failed to compile")
	}
	if instanced {
		shader.UpdateLocation(rl.ShaderLocMatrixMvp, rl.GetShaderLocation(shader, "mvp"))
		shader.UpdateLocation(rl.ShaderLocMatrixModel, rl.GetShaderLocationAttrib(shader, "instanceTransform"))
	}

	mtl := rl.LoadMaterialDefault()
	mtl.Shader = shader

	return &program{
		material:  mtl,
		uvScale:   rl.GetShaderLocation(shader, "uvScale"),
		shading:   rl.GetShaderLocation(shader, "shading"),
		ambient:   rl.GetShaderLocation(shader, "ambient"),
		lightDir:  rl.GetShaderLocation(shader, "lightDir"),
		lightCol:  rl.GetShaderLocation(shader, "lightColor"),
		viewPos:   rl.GetShaderLocation(shader, "viewPos"),
		specular:  rl.GetShaderLocation(shader, "specularColor"),
		shininess: rl.GetShaderLocation(shader, "shininess"),
	}, nil
}

// setFrame uploads the per-frame lighting uniforms
func (p *program) setFrame(g *scene.Graph, cam *scene.Camera) {
	shader := p.material.Shader
	ambient := scaled(g.Ambient.Color, g.Ambient.Intensity)
	lightCol := scaled(g.Directional.Color, g.Directional.Intensity)
	dir := g.Directional.Position
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	view := cam.Position

	rl.SetShaderValueV(shader, p.ambient, ambient[:], rl.ShaderUniformVec3, 1)
	rl.SetShaderValueV(shader, p.lightCol, lightCol[:], rl.ShaderUniformVec3, 1)
	rl.SetShaderValueV(shader, p.lightDir, dir[:], rl.ShaderUniformVec3, 1)
	rl.SetShaderValueV(shader, p.viewPos, view[:], rl.ShaderUniformVec3, 1)
}

// bind loads one material's state into the program's default material
func (p *program) bind(m *material, fallback rl.Texture2D) {
	shader := p.material.Shader
	spec := m.spec
	uv := spec.UVScale()
	specular := scaled(spec.Specular, 1)
	shininess := spec.Shininess
	if shininess <= 0 {
		shininess = 30
	}

	albedo := p.material.GetMap(rl.MapAlbedo)
	albedo.Color = m.color
	albedo.Color.A = uint8(spec.Alpha() * float32(m.color.A))
	albedo.Texture = fallback
	if m.texture != nil && !m.texture.released {
		albedo.Texture = m.texture.tex
	}

	rl.SetShaderValueV(shader, p.uvScale, uv[:], rl.ShaderUniformVec2, 1)
	rl.SetShaderValue(shader, p.shading, []float32{float32(spec.Kind)}, rl.ShaderUniformFloat)
	rl.SetShaderValueV(shader, p.specular, specular[:], rl.ShaderUniformVec3, 1)
	rl.SetShaderValue(shader, p.shininess, []float32{shininess}, rl.ShaderUniformFloat)
}

// unload releases the shader. The albedo slot is reset first so the
// shared default texture survives.
func (p *program) unload(fallback rl.Texture2D) {
	p.material.GetMap(rl.MapAlbedo).Texture = fallback
	rl.UnloadMaterial(p.material)
}

func scaled(c rl.Color, intensity float32) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(c.R) / 255 * intensity,
		float32(c.G) / 255 * intensity,
		float32(c.B) / 255 * intensity,
	}
}
