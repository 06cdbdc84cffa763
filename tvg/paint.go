package tvg

import (
	"image/color"
	"log/slog"

	"github.com/benoitkugler/svg2tvgt/scene"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
)

// Resolver converts scene paints into styles, registering
// the colors it uses in Colors.
type Resolver struct {
	Defs   map[string]scene.Def
	Colors *ColorTable
	Logger *slog.Logger // nil for the package logger
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return Logger()
}

// Resolve returns the style for `paint`, applied on a shape whose bounding
// box is `bbox`, in final coordinates.
// It returns false if the paint can't be expressed: unknown definition,
// unsupported paint server, gradient without stops, or objectBoundingBox
// gradient on a shape with no area.
func (r *Resolver) Resolve(paint scene.Paint, bbox rect.Rect) (Style, bool) {
	switch paint := paint.(type) {
	case scene.Color:
		return Flat{Color: r.Colors.Push(color.NRGBA(paint))}, true
	case scene.Link:
		def, ok := r.Defs[string(paint)]
		if !ok {
			return nil, false
		}
		switch grad := def.(type) {
		case *scene.LinearGradient:
			ts, ok := r.gradientTransform(&grad.BaseGradient, bbox)
			if !ok || len(grad.Stops) == 0 {
				return nil, false
			}
			x1, y1 := scene.Apply(ts, grad.X1, grad.Y1)
			x2, y2 := scene.Apply(ts, grad.X2, grad.Y2)
			color1, color2 := r.gradientColors(grad.Stops)
			return LinearGradient{
				X1: float32(x1), Y1: float32(y1),
				X2: float32(x2), Y2: float32(y2),
				Color1: color1, Color2: color2,
			}, true
		case *scene.RadialGradient:
			ts, ok := r.gradientTransform(&grad.BaseGradient, bbox)
			if !ok || len(grad.Stops) == 0 {
				return nil, false
			}
			x1, y1 := scene.Apply(ts, grad.Cx, grad.Cy)
			x2, y2 := scene.Apply(ts, grad.Cx, grad.Cy+grad.R)
			color1, color2 := r.gradientColors(grad.Stops)
			return RadialGradient{
				X1: float32(x1), Y1: float32(y1),
				X2: float32(x2), Y2: float32(y2),
				Color1: color1, Color2: color2,
			}, true
		}
	}
	return nil, false
}

// gradientTransform returns the transform from gradient
// coordinates to final coordinates.
func (r *Resolver) gradientTransform(g *scene.BaseGradient, bbox rect.Rect) (matrix.Matrix, bool) {
	ts := scene.OrIdentity(g.Transform)
	if !scene.IsInvertible(ts) {
		r.logger().Warn("gradient with a degenerate transform is not allowed", "gradient", g.ID)
		return matrix.Matrix{}, false
	}
	if g.Units != scene.ObjectBoundingBox {
		return ts, true
	}
	w, h := bbox.URx-bbox.LLx, bbox.URy-bbox.LLy
	if !(w > 0 && h > 0) {
		r.logger().Warn("gradient on zero-sized shapes is not allowed", "gradient", g.ID)
		return matrix.Matrix{}, false
	}
	return scene.Concat(ts, matrix.Matrix{w, 0, 0, h, bbox.LLx, bbox.LLy}), true
}

// gradientColors keeps only the first and the last stop,
// ignoring offsets. `stops` must not be empty.
func (r *Resolver) gradientColors(stops []scene.Stop) (int, int) {
	first, last := stops[0], stops[len(stops)-1]
	c1 := color.NRGBA(first.Color)
	c1.A = MultiplyAlpha(c1.A, first.OpacityU8())
	c2 := color.NRGBA(last.Color)
	c2.A = MultiplyAlpha(c2.A, last.OpacityU8())
	return r.Colors.Push(c1), r.Colors.Push(c2)
}
