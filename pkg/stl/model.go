package stl

import (
	"github.com/philipparndt/rectplacer/pkg/geometry"
)

// Model is a decoded triangulated surface
type Model struct {
	Name      string
	Triangles []geometry.Triangle
}

// NewModel creates an empty model
func NewModel(name string) *Model {
	return &Model{
		Name:      name,
		Triangles: make([]geometry.Triangle, 0),
	}
}

// AddTriangle adds a triangle to the model
func (m *Model) AddTriangle(triangle geometry.Triangle) {
	m.Triangles = append(m.Triangles, triangle)
}

// TriangleCount returns the number of triangles in the model
func (m *Model) TriangleCount() int {
	return len(m.Triangles)
}

// BoundingBox calculates the bounding box of the entire model
func (m *Model) BoundingBox() geometry.BoundingBox {
	bbox := geometry.NewBoundingBox()
	for _, triangle := range m.Triangles {
		bbox.Extend(triangle.V1)
		bbox.Extend(triangle.V2)
		bbox.Extend(triangle.V3)
	}
	return bbox
}

// Buffers flattens the model into non-indexed vertex positions and
// per-vertex normals, three vertices per triangle.
func (m *Model) Buffers() (positions, normals []float32) {
	vertexCount := len(m.Triangles) * 3
	positions = make([]float32, 0, vertexCount*3)
	normals = make([]float32, 0, vertexCount*3)

	for _, triangle := range m.Triangles {
		n := triangle.FacetNormal().Float32()
		for _, v := range [3]geometry.Vector3{triangle.V1, triangle.V2, triangle.V3} {
			p := v.Float32()
			positions = append(positions, p[0], p[1], p[2])
			normals = append(normals, n[0], n[1], n[2])
		}
	}
	return positions, normals
}
