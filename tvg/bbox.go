package tvg

import (
	"math"

	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// compute the tight bounding box of a path, needed to decide
// if a path is drawable and to place objectBoundingBox gradients

type bezier interface {
	// compute the t zeroing the derivative
	criticalPoints() (tX, tY []float64)
	// compute the point a time t
	evaluateCurve(t float64) (x, y float64)
}

type line [2]vec.Vec2

func (l line) criticalPoints() (tX, tY []float64) {
	return nil, nil
}

func (l line) evaluateCurve(t float64) (x, y float64) {
	return bezierLine(l[0].X, l[1].X, t), bezierLine(l[0].Y, l[1].Y, t)
}

func bezierLine(p0, p1, t float64) float64 {
	return (p1-p0)*t + p0
}

type cubicBezier [4]vec.Vec2

func (cu cubicBezier) criticalPoints() (tX, tY []float64) {
	aX, bX, cX := cubicDerivative(cu[0].X, cu[1].X, cu[2].X, cu[3].X)
	aY, bY, cY := cubicDerivative(cu[0].Y, cu[1].Y, cu[2].Y, cu[3].Y)
	return quadraticRoots(aX, bX, cX), quadraticRoots(aY, bY, cY)
}

func (cu cubicBezier) evaluateCurve(t float64) (x, y float64) {
	return bezierSpline(cu[0].X, cu[1].X, cu[2].X, cu[3].X, t),
		bezierSpline(cu[0].Y, cu[1].Y, cu[2].Y, cu[3].Y, t)
}

// cubic polinomial
// x = At^3 + Bt^2 + Ct + D
// where A,B,C,D:
// A = p3 -3 * p2 + 3 * p1 - p0
// B = 3 * p2 - 6 * p1 +3 * p0
// C = 3 * p1 - 3 * p0
// D = p0
func bezierSpline(p0, p1, p2, p3, t float64) float64 {
	return (p3-3*p2+3*p1-p0)*t*t*t +
		(3*p2-6*p1+3*p0)*t*t +
		(3*p1-3*p0)*t +
		(p0)
}

// derivative of bezierSpline, as aX^2 + bX + c
func cubicDerivative(p0, p1, p2, p3 float64) (a, b, c float64) {
	return 3*p3 - 9*p2 + 9*p1 - 3*p0, 6*p2 - 12*p1 + 6*p0, 3*p1 - 3*p0
}

func quadraticRoots(a, b, c float64) []float64 {
	if a == 0 {
		if b == 0 {
			return nil
		}
		return []float64{-c / b}
	}
	d := b*b - 4*a*c
	if d < 0 {
		return nil
	}
	if d == 0 {
		return []float64{-b / (2 * a)}
	}
	sq := math.Sqrt(d)
	return []float64{(-b + sq) / (2 * a), (-b - sq) / (2 * a)}
}

// boxBuilder accumulates points into a bounding box
type boxBuilder struct {
	box   rect.Rect
	empty bool
}

func newBoxBuilder() boxBuilder { return boxBuilder{empty: true} }

func (b *boxBuilder) add(x, y float64) {
	if b.empty {
		b.box = rect.Rect{LLx: x, LLy: y, URx: x, URy: y}
		b.empty = false
		return
	}
	b.box.LLx = math.Min(b.box.LLx, x)
	b.box.LLy = math.Min(b.box.LLy, y)
	b.box.URx = math.Max(b.box.URx, x)
	b.box.URy = math.Max(b.box.URy, y)
}

func (b *boxBuilder) addCurve(curve bezier) {
	resX, resY := curve.criticalPoints()
	// add begin and end point
	for _, t := range append(append(resX, 0, 1), resY...) {
		// filter invalid value
		if !(0 <= t && t <= 1) {
			continue
		}
		b.add(curve.evaluateCurve(t))
	}
}

// pathBBox returns the bounding box of `p`, including the curve
// extrema. It returns false for a path without points, for a path
// reduced to a single point, and when a coordinate is not finite.
// One of width or height may be zero.
func pathBBox(p *path.Data) (rect.Rect, bool) {
	if p == nil {
		return rect.Rect{}, false
	}
	bb := newBoxBuilder()
	var current, subpath vec.Vec2
	coordIdx := 0
	for _, cmd := range p.Cmds {
		switch cmd {
		case path.CmdMoveTo:
			current = p.Coords[coordIdx]
			subpath = current
			bb.add(current.X, current.Y)
			coordIdx++
		case path.CmdLineTo:
			next := p.Coords[coordIdx]
			bb.addCurve(line{current, next})
			current = next
			coordIdx++
		case path.CmdQuadTo:
			c1, c2 := quadToCubic(current, p.Coords[coordIdx], p.Coords[coordIdx+1])
			next := p.Coords[coordIdx+1]
			bb.addCurve(cubicBezier{current, c1, c2, next})
			current = next
			coordIdx += 2
		case path.CmdCubeTo:
			next := p.Coords[coordIdx+2]
			bb.addCurve(cubicBezier{current, p.Coords[coordIdx], p.Coords[coordIdx+1], next})
			current = next
			coordIdx += 3
		case path.CmdClose:
			current = subpath
		}
	}
	if bb.empty {
		return rect.Rect{}, false
	}
	box := bb.box
	for _, v := range [4]float64{box.LLx, box.LLy, box.URx, box.URy} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return rect.Rect{}, false
		}
	}
	if box.URx-box.LLx <= 0 && box.URy-box.LLy <= 0 {
		return rect.Rect{}, false
	}
	return box, true
}

// quadToCubic returns the control points of the cubic curve
// equivalent to the quadratic curve (p0, q, p2).
func quadToCubic(p0, q, p2 vec.Vec2) (c1, c2 vec.Vec2) {
	c1 = p0.Add(q.Sub(p0).Mul(2. / 3))
	c2 = p2.Add(q.Sub(p2).Mul(2. / 3))
	return c1, c2
}
