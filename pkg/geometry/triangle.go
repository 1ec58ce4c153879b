package geometry

// Triangle is one facet of a surface model
type Triangle struct {
	Normal     Vector3
	V1, V2, V3 Vector3
}

// NewTriangle creates a triangle with the stored facet normal
func NewTriangle(normal, v1, v2, v3 Vector3) Triangle {
	return Triangle{Normal: normal, V1: v1, V2: v2, V3: v3}
}

// ComputedNormal derives the unit normal from the winding order
func (t Triangle) ComputedNormal() Vector3 {
	return t.V2.Sub(t.V1).Cross(t.V3.Sub(t.V1)).Normalize()
}

// FacetNormal returns the stored normal, or the computed one when the
// file left it zeroed (many exporters do).
func (t Triangle) FacetNormal() Vector3 {
	if t.Normal.IsZero() {
		return t.ComputedNormal()
	}
	return t.Normal.Normalize()
}

// Area returns the surface area of the triangle
func (t Triangle) Area() float64 {
	return t.V2.Sub(t.V1).Cross(t.V3.Sub(t.V1)).Length() / 2.0
}

// Center returns the centroid
func (t Triangle) Center() Vector3 {
	return t.V1.Add(t.V2).Add(t.V3).Scale(1.0 / 3.0)
}
