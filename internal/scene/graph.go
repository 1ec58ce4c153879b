package scene

import (
	"image/color"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// Light is a point of illumination. Position is ignored for ambient light.
type Light struct {
	Color     color.RGBA
	Intensity float32
	Position  mgl32.Vec3
}

// Node places one geometry with one material in the scene
type Node struct {
	Name      string
	Geometry  Geometry
	Material  Material
	Transform mgl32.Mat4
}

// Graph is the set of things the backend draws each frame
type Graph struct {
	Background  color.RGBA
	Ambient     Light
	Directional Light

	nodes   []*Node
	batches []*Batch
}

// NewGraph creates an empty graph with a black background
func NewGraph() *Graph {
	return &Graph{Background: color.RGBA{A: 0xff}}
}

// Add appends n; adding a node twice is ignored
func (g *Graph) Add(n *Node) {
	if slices.Contains(g.nodes, n) {
		return
	}
	g.nodes = append(g.nodes, n)
}

// Remove detaches n and reports whether it was attached
func (g *Graph) Remove(n *Node) bool {
	i := slices.Index(g.nodes, n)
	if i < 0 {
		return false
	}
	g.nodes = slices.Delete(g.nodes, i, i+1)
	return true
}

// AddBatch appends an instanced batch
func (g *Graph) AddBatch(b *Batch) {
	if slices.Contains(g.batches, b) {
		return
	}
	g.batches = append(g.batches, b)
}

// Nodes returns the attached nodes in insertion order
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// Batches returns the attached batches in insertion order
func (g *Graph) Batches() []*Batch {
	return g.batches
}

// Clear detaches everything
func (g *Graph) Clear() {
	g.nodes = nil
	g.batches = nil
}
