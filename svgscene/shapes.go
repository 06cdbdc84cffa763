package svgscene

import (
	"math"

	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"
)

// maxDx is the maximum radians a cubic splice is allowed to span
const maxDx float64 = math.Pi / 2

func rectPath(x, y, w, h float64) *path.Data {
	return (&path.Data{}).
		MoveTo(vec.Vec2{X: x, Y: y}).
		LineTo(vec.Vec2{X: x + w, Y: y}).
		LineTo(vec.Vec2{X: x + w, Y: y + h}).
		LineTo(vec.Vec2{X: x, Y: y + h}).
		Close()
}

// roundRectPath returns a rectangle with rounded corners of radius
// rx in the x axis and ry in the y axis, which must be positive
// and are clamped to half the size.
func roundRectPath(x, y, w, h, rx, ry float64) *path.Data {
	rx, ry = math.Min(rx, w/2), math.Min(ry, h/2)
	maxX, maxY := x+w, y+h
	p := &path.Data{}
	current := vec.Vec2{X: x + rx, Y: y}
	corner := func(from, to vec.Vec2) {
		if from != current { // skip empty sides
			p.LineTo(from)
		}
		arcTo(p, from, rx, ry, 0, false, true, to)
		current = to
	}
	p.MoveTo(current)
	corner(vec.Vec2{X: maxX - rx, Y: y}, vec.Vec2{X: maxX, Y: y + ry})
	corner(vec.Vec2{X: maxX, Y: maxY - ry}, vec.Vec2{X: maxX - rx, Y: maxY})
	corner(vec.Vec2{X: x + rx, Y: maxY}, vec.Vec2{X: x, Y: maxY - ry})
	corner(vec.Vec2{X: x, Y: y + ry}, vec.Vec2{X: x + rx, Y: y})
	return p.Close()
}

// ellipsePath starts at the rightmost point and turns clockwise
// (in the SVG y-down coordinate system).
func ellipsePath(cx, cy, rx, ry float64) *path.Data {
	pts := [4]vec.Vec2{
		{X: cx + rx, Y: cy},
		{X: cx, Y: cy + ry},
		{X: cx - rx, Y: cy},
		{X: cx, Y: cy - ry},
	}
	p := (&path.Data{}).MoveTo(pts[0])
	for i, start := range pts {
		arcTo(p, start, rx, ry, 0, false, true, pts[(i+1)%4])
	}
	return p.Close()
}

// arcTo appends the SVG elliptical arc from `start` to `end`, approximated
// by cubic Bézier curves. `rotation` is in degrees.
// Radii too small to join the points are scaled up.
func arcTo(p *path.Data, start vec.Vec2, rx, ry, rotation float64, largeArc, sweep bool, end vec.Vec2) {
	if start == end {
		return
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 {
		p.LineTo(end)
		return
	}
	rotX := rotation * math.Pi / 180 // Convert degress to radians
	cx, cy := findEllipseCenter(&rx, &ry, rotX, start.X, start.Y, end.X, end.Y, sweep, largeArc)

	startAngle := math.Atan2(start.Y-cy, start.X-cx) - rotX
	endAngle := math.Atan2(end.Y-cy, end.X-cx) - rotX
	deltaTheta := endAngle - startAngle
	arcBig := math.Abs(deltaTheta) > math.Pi

	// Approximate ellipse using cubic bezeir splines
	etaStart := math.Atan2(math.Sin(startAngle)/ry, math.Cos(startAngle)/rx)
	etaEnd := math.Atan2(math.Sin(endAngle)/ry, math.Cos(endAngle)/rx)
	deltaEta := etaEnd - etaStart
	if arcBig != largeArc {
		if deltaEta < 0 {
			deltaEta += math.Pi * 2
		} else {
			deltaEta -= math.Pi * 2
		}
	}
	// This check might be needed if the center point of the elipse is
	// at the midpoint of the start and end lines.
	if deltaEta < 0 && sweep {
		deltaEta += math.Pi * 2
	} else if deltaEta >= 0 && !sweep {
		deltaEta -= math.Pi * 2
	}

	segs := int(math.Ceil(math.Abs(deltaEta)/maxDx - 1e-9))
	if segs < 1 {
		segs = 1
	}
	dEta := deltaEta / float64(segs) // span of each segment
	// Approximate each segment of the ellipse with a cubic bezier curve whose
	// control points follow the tangents (see L. Maisonobe, "Drawing an elliptical
	// arc using polylines, quadratic or cubic Bezier curves", 2003).
	// The tangent length is the one of the classical circle approximation,
	// exact at the middle of the segment.
	alpha := 4. / 3 * math.Tan(dEta/4)
	last := start
	sinTheta, cosTheta := math.Sin(rotX), math.Cos(rotX)
	lastD := ellipsePrime(rx, ry, sinTheta, cosTheta, etaStart)
	for i := 1; i <= segs; i++ {
		eta := etaStart + dEta*float64(i)
		pt := end // Just makes the end point exact; no roundoff error
		if i != segs {
			pt = ellipsePointAt(rx, ry, sinTheta, cosTheta, eta, cx, cy)
		}
		d := ellipsePrime(rx, ry, sinTheta, cosTheta, eta)
		p.CubeTo(last.Add(lastD.Mul(alpha)), pt.Sub(d.Mul(alpha)), pt)
		last, lastD = pt, d
	}
}

func ellipsePrime(a, b, sinTheta, cosTheta, eta float64) vec.Vec2 {
	bCosEta := b * math.Cos(eta)
	aSinEta := a * math.Sin(eta)
	return vec.Vec2{
		X: -aSinEta*cosTheta - bCosEta*sinTheta,
		Y: -aSinEta*sinTheta + bCosEta*cosTheta,
	}
}

func ellipsePointAt(a, b, sinTheta, cosTheta, eta, cx, cy float64) vec.Vec2 {
	aCosEta := a * math.Cos(eta)
	bSinEta := b * math.Sin(eta)
	return vec.Vec2{
		X: cx + aCosEta*cosTheta - bSinEta*sinTheta,
		Y: cy + aCosEta*sinTheta + bSinEta*cosTheta,
	}
}

// findEllipseCenter locates the center of the ellipse, and
// scales up `ra` and `rb` if the end points can't be joined.
func findEllipseCenter(ra, rb *float64, rotX, startX, startY, endX, endY float64, sweep, largeArc bool) (cx, cy float64) {
	cos, sin := math.Cos(rotX), math.Sin(rotX)

	// Move origin to start point
	nx, ny := endX-startX, endY-startY

	// Rotate ellipse x-axis to coordinate x-axis
	nx, ny = nx*cos+ny*sin, -nx*sin+ny*cos
	// Scale X dimension so that ra = rb
	nx *= *rb / *ra // Now the ellipse is a circle radius rb; therefore foci and center coincide

	midX, midY := nx/2, ny/2
	midlenSq := midX*midX + midY*midY

	var hr float64
	if *rb**rb < midlenSq {
		// Requested ellipse does not exist; scale ra, rb to fit. Length of
		// span is greater than max width of ellipse, must scale *ra, *rb
		nrb := math.Sqrt(midlenSq)
		if *ra == *rb {
			*ra = nrb // prevents roundoff
		} else {
			*ra = *ra * nrb / *rb
		}
		*rb = nrb
	} else {
		hr = math.Sqrt(*rb**rb-midlenSq) / math.Sqrt(midlenSq)
	}
	// Notice that if hr is zero, both answers are the same.
	if sweep == largeArc {
		cx = midX + midY*hr
		cy = midY - midX*hr
	} else {
		cx = midX - midY*hr
		cy = midY + midX*hr
	}

	// reverse scale
	cx *= *ra / *rb
	//Reverse rotate and translate back to original coordinates
	return cx*cos - cy*sin + startX, cx*sin + cy*cos + startY
}
