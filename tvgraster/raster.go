// Implements a raster backend to preview TinyVG documents,
// by wrapping rasterx.
package tvgraster

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/benoitkugler/svg2tvgt/tvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"
)

// miterLimit is the SVG default
const miterLimit = 4

type Renderer struct {
	dasher *rasterx.Dasher // to avoid shared state
	filler *rasterx.Filler // we use separated instance
	scale  float64
	colors []rasterx.GradStop
}

// NewRenderer returns a renderer drawing the commands of `doc`
// with `scanner`, whose coordinates are multiplied by `scale`.
func NewRenderer(width, height int, scanner rasterx.Scanner, doc *tvg.Document, scale float64) *Renderer {
	colors := make([]rasterx.GradStop, len(doc.Colors))
	for i, c := range doc.Colors {
		colors[i] = rasterx.GradStop{StopColor: c, Opacity: 1}
	}
	return &Renderer{
		dasher: rasterx.NewDasher(width, height, scanner),
		filler: rasterx.NewFiller(width, height, scanner),
		scale:  scale,
		colors: colors,
	}
}

// Rasterize uses a ScannerGV instance to render the document
// into an image of size (scale * doc.Width, scale * doc.Height).
// A non positive `scale` is interpreted as 1.
func Rasterize(doc *tvg.Document, scale float64) *image.RGBA {
	if !(scale > 0) {
		scale = 1
	}
	w := int(math.Round(float64(doc.Width) * scale))
	h := int(math.Round(float64(doc.Height) * scale))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return img
	}

	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	renderer := NewRenderer(w, h, scanner, doc, scale)
	for _, cmd := range doc.Commands {
		renderer.Draw(cmd)
	}
	return img
}

// WritePNG rasterizes `doc` and encodes it in PNG format.
func WritePNG(w io.Writer, doc *tvg.Document, scale float64) error {
	return png.Encode(w, Rasterize(doc, scale))
}

// Draw renders one command; the fill, if any, is drawn before the outline.
func (rd *Renderer) Draw(cmd tvg.Command) {
	switch cmd := cmd.(type) {
	case tvg.FillPath:
		rd.fill(cmd.Data, cmd.Fill)
	case tvg.DrawLinePath:
		rd.stroke(cmd.Data, cmd.Stroke, cmd.LineWidth)
	case tvg.OutlineFillPath:
		rd.fill(cmd.Data, cmd.Fill)
		rd.stroke(cmd.Data, cmd.Stroke, cmd.LineWidth)
	}
}

func (rd *Renderer) fill(data *path.Data, style tvg.Style) {
	rd.filler.Clear()
	rd.filler.SetWinding(true)
	rd.walk(data, rd.filler, true)
	rd.setColorFromStyle(style, rd.filler.Scanner)
	rd.filler.Draw()
}

func (rd *Renderer) stroke(data *path.Data, style tvg.Style, lineWidth float32) {
	width := float64(lineWidth) * rd.scale
	if !(width > 0) {
		return
	}
	rd.dasher.Clear()
	rd.dasher.SetStroke(fixed.Int26_6(width*64), fixed.I(miterLimit), rasterx.ButtCap, rasterx.ButtCap,
		rasterx.FlatGap, rasterx.Miter, nil, 0)
	rd.walk(data, rd.dasher, false)
	rd.setColorFromStyle(style, rd.dasher.Scanner)
	rd.dasher.Draw()
}

// adder is implemented by rasterx.Filler and rasterx.Dasher
type adder interface {
	Start(a fixed.Point26_6)
	Line(b fixed.Point26_6)
	QuadBezier(b, c fixed.Point26_6)
	CubeBezier(b, c, d fixed.Point26_6)
	Stop(closeLoop bool)
}

func (rd *Renderer) point(v vec.Vec2) fixed.Point26_6 {
	return fixed.Point26_6{
		X: fixed.Int26_6(v.X * rd.scale * 64),
		Y: fixed.Int26_6(v.Y * rd.scale * 64),
	}
}

// walk feeds the segments of `data` to `a`. When `closeAll` is true,
// every sub-path is closed, as required by filling.
func (rd *Renderer) walk(data *path.Data, a adder, closeAll bool) {
	if data == nil {
		return
	}
	var (
		coords      = data.Coords
		open        bool
		first, last vec.Vec2
	)
	// ensure a sub-path is started, for segments following a close
	ensure := func() {
		if !open {
			a.Start(rd.point(last))
			open = true
		}
	}
	for _, cmd := range data.Cmds {
		switch cmd {
		case path.CmdMoveTo:
			if open {
				a.Stop(closeAll)
			}
			first, last = coords[0], coords[0]
			a.Start(rd.point(first))
			open = true
			coords = coords[1:]
		case path.CmdLineTo:
			ensure()
			last = coords[0]
			a.Line(rd.point(last))
			coords = coords[1:]
		case path.CmdQuadTo:
			ensure()
			last = coords[1]
			a.QuadBezier(rd.point(coords[0]), rd.point(last))
			coords = coords[2:]
		case path.CmdCubeTo:
			ensure()
			last = coords[2]
			a.CubeBezier(rd.point(coords[0]), rd.point(coords[1]), rd.point(last))
			coords = coords[3:]
		case path.CmdClose:
			if open {
				a.Stop(true)
				open = false
			}
			last = first
		}
	}
	if open {
		a.Stop(closeAll)
	}
}

func (rd *Renderer) stop(index int) rasterx.GradStop {
	if index < 0 || index >= len(rd.colors) {
		return rasterx.GradStop{StopColor: color.NRGBA{}}
	}
	return rd.colors[index]
}

// resolve the color of a style, gradients being expressed in
// user space, since the document coordinates are final.
func (rd *Renderer) setColorFromStyle(style tvg.Style, scanner rasterx.Scanner) {
	switch style := style.(type) {
	case tvg.Flat:
		scanner.SetColor(rd.stop(style.Color).StopColor)
	case tvg.LinearGradient:
		x1, y1 := float64(style.X1)*rd.scale, float64(style.Y1)*rd.scale
		x2, y2 := float64(style.X2)*rd.scale, float64(style.Y2)*rd.scale
		scanner.SetColor(rd.gradient([5]float64{x1, y1, x2, y2}, false, style.Color1, style.Color2))
	case tvg.RadialGradient:
		x1, y1 := float64(style.X1)*rd.scale, float64(style.Y1)*rd.scale
		x2, y2 := float64(style.X2)*rd.scale, float64(style.Y2)*rd.scale
		r := math.Hypot(x2-x1, y2-y1)
		scanner.SetColor(rd.gradient([5]float64{x1, y1, x1, y1, r}, true, style.Color1, style.Color2))
	}
}

func (rd *Renderer) gradient(points [5]float64, isRadial bool, color1, color2 int) interface{} {
	start, end := rd.stop(color1), rd.stop(color2)
	start.Offset, end.Offset = 0, 1
	grad := rasterx.Gradient{
		Points:   points,
		Stops:    []rasterx.GradStop{start, end},
		Matrix:   rasterx.Identity,
		Spread:   rasterx.PadSpread,
		Units:    rasterx.UserSpaceOnUse,
		IsRadial: isRadial,
	}
	return grad.GetColorFunction(1)
}
