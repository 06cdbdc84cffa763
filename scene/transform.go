package scene

import (
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"
)

// Matrices use the [a b c d e f] layout:
//	x' = a*x + c*y + e
//	y' = b*x + d*y + f

// Concat returns the transform applying `inner` first, then `outer`.
func Concat(inner, outer matrix.Matrix) matrix.Matrix {
	return matrix.Matrix{
		outer[0]*inner[0] + outer[2]*inner[1],
		outer[1]*inner[0] + outer[3]*inner[1],
		outer[0]*inner[2] + outer[2]*inner[3],
		outer[1]*inner[2] + outer[3]*inner[3],
		outer[0]*inner[4] + outer[2]*inner[5] + outer[4],
		outer[1]*inner[4] + outer[3]*inner[5] + outer[5],
	}
}

// Apply maps the point (x, y) through `m`.
func Apply(m matrix.Matrix, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// ApplyVec is the same as Apply, for a vec.Vec2
func ApplyVec(m matrix.Matrix, v vec.Vec2) vec.Vec2 {
	x, y := Apply(m, v.X, v.Y)
	return vec.Vec2{X: x, Y: y}
}

// IsInvertible returns false for a singular matrix.
func IsInvertible(m matrix.Matrix) bool {
	return m[0]*m[3]-m[1]*m[2] != 0
}

// OrIdentity replaces the zero matrix by the identity.
// It is used for unset node transforms; definitions read from
// SVG always carry an explicit transform.
func OrIdentity(m matrix.Matrix) matrix.Matrix {
	if m == (matrix.Matrix{}) {
		return matrix.Identity
	}
	return m
}

// Translation returns the matrix translating by (tx, ty).
func Translation(tx, ty float64) matrix.Matrix { return matrix.Matrix{1, 0, 0, 1, tx, ty} }

// Scaling returns the matrix scaling by (sx, sy).
func Scaling(sx, sy float64) matrix.Matrix { return matrix.Matrix{sx, 0, 0, sy, 0, 0} }

// Rotation returns the matrix rotating by `angle` radians,
// clockwise in the y-down SVG coordinate system.
func Rotation(angle float64) matrix.Matrix {
	sin, cos := math.Sincos(angle)
	return matrix.Matrix{cos, sin, -sin, cos, 0, 0}
}

// SkewX returns the matrix skewing along the x axis by `angle` radians.
func SkewX(angle float64) matrix.Matrix { return matrix.Matrix{1, 0, math.Tan(angle), 1, 0, 0} }

// SkewY returns the matrix skewing along the y axis by `angle` radians.
func SkewY(angle float64) matrix.Matrix { return matrix.Matrix{1, math.Tan(angle), 0, 1, 0, 0} }

// Align is the alignment part of the preserveAspectRatio attribute.
type Align uint8

const (
	AlignNone Align = iota
	XMinYMin
	XMidYMin
	XMaxYMin
	XMinYMid
	XMidYMid // default
	XMaxYMid
	XMinYMax
	XMidYMax
	XMaxYMax
)

// AspectRatio models preserveAspectRatio. The zero value
// is "none"; SVG's default is {Align: XMidYMid}.
type AspectRatio struct {
	Align Align
	Slice bool // "meet" if false
}

// ViewBoxTransform returns the transform mapping the view box
// onto a canvas of size `size`.
// A degenerate view box yields the identity.
func ViewBoxTransform(vb ViewBox, size Size) matrix.Matrix {
	vbW, vbH := vb.Rect.URx-vb.Rect.LLx, vb.Rect.URy-vb.Rect.LLy
	if vbW <= 0 || vbH <= 0 {
		return matrix.Identity
	}
	sx, sy := size.Width/vbW, size.Height/vbH
	if vb.Aspect.Align != AlignNone {
		s := math.Min(sx, sy)
		if vb.Aspect.Slice {
			s = math.Max(sx, sy)
		}
		sx, sy = s, s
	}

	x, y := -vb.Rect.LLx*sx, -vb.Rect.LLy*sy
	w, h := size.Width-vbW*sx, size.Height-vbH*sy
	switch vb.Aspect.Align {
	case XMidYMin:
		x += w / 2
	case XMaxYMin:
		x += w
	case XMinYMid:
		y += h / 2
	case XMidYMid:
		x, y = x+w/2, y+h/2
	case XMaxYMid:
		x, y = x+w, y+h/2
	case XMinYMax:
		y += h
	case XMidYMax:
		x, y = x+w/2, y+h
	case XMaxYMax:
		x, y = x+w, y+h
	}
	return matrix.Matrix{sx, 0, 0, sy, x, y}
}
