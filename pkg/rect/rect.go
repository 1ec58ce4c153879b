// Package rect holds the rectangular-prism definitions authored as text
// lines, the parser that validates them, and the transform into the
// renderer's coordinate system.
//
// Authoring coordinates put z up and y pointing away from the viewer:
//
//	z ^  y
//	  | /
//	  |/
//	  +--------> x
//
// The renderer uses y up and z pointing towards the viewer, so (x, y, z)
// maps to (x, z, -y).
package rect

import (
	"strconv"
	"strings"
)

// Vec3 is a position in authoring coordinates
type Vec3 struct {
	X, Y, Z float64
}

// Size3 is the extent of a prism along the authoring axes
type Size3 struct {
	LX, LY, LZ float64
}

// Definition is one validated prism. Values are immutable once parsed.
type Definition struct {
	Size        Size3
	Pos         Vec3
	Highlighted bool
	// RawLine is the untrimmed source line, kept for diagnostics
	RawLine string
}

// ParseError describes one rejected line
type ParseError struct {
	Line    int // 1-based
	Message string
	Raw     string
}

func (e ParseError) Error() string {
	return "line " + strconv.Itoa(e.Line) + ": " + e.Message
}

// ToRenderPos converts an authoring position into render coordinates.
// It is not an involution: applying it twice yields (x, -y, -z).
func ToRenderPos(p Vec3) Vec3 {
	return Vec3{X: p.X, Y: p.Z, Z: -p.Y}
}

// RenderSize returns the prism extent along the render axes
func RenderSize(s Size3) Size3 {
	return Size3{LX: s.LX, LY: s.LZ, LZ: s.LY}
}

// Line formats the definition back into the text grammar
func (d Definition) Line() string {
	var b strings.Builder
	if d.Highlighted {
		b.WriteByte('*')
	}
	for i, v := range [6]float64{d.Size.LX, d.Size.LY, d.Size.LZ, d.Pos.X, d.Pos.Y, d.Pos.Z} {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	}
	return b.String()
}
