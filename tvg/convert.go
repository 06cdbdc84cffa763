package tvg

import (
	"log/slog"
	"math"

	"github.com/benoitkugler/svg2tvgt/scene"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"
)

// Options parametrize a conversion.
type Options struct {
	// Logger receives the warnings raised during the conversion.
	// If nil, the package logger is used (see SetLogger).
	Logger *slog.Logger
}

// converter holds the state of one conversion
type converter struct {
	doc      *Document
	resolver Resolver
}

// Convert walks the tree and returns the equivalent document.
// The tree is not modified.
// Nodes other than groups and paths are ignored, as well as paths
// which are empty, or whose paints can't be resolved.
func Convert(tree *scene.Tree, opts Options) *Document {
	colors := new(ColorTable)
	c := converter{
		doc: &Document{
			Width:           roundSize(tree.Size.Width),
			Height:          roundSize(tree.Size.Height),
			Scale:           1,
			ColorEncoding:   RGBA8888,
			CoordinateRange: Default,
		},
		resolver: Resolver{Defs: tree.Defs, Colors: colors, Logger: opts.Logger},
	}

	ts := scene.ViewBoxTransform(tree.ViewBox, tree.Size)
	if tree.Root != nil {
		c.convertChildren(tree.Root.Children, scene.Concat(scene.OrIdentity(tree.Root.Transform), ts))
	}

	c.doc.Colors = colors.Colors()
	return c.doc
}

func roundSize(v float64) uint32 {
	if !(v > 0) {
		return 0
	}
	return uint32(math.Round(v))
}

// convertChildren visits the nodes in depth-first pre-order,
// `ts` being the transform accumulated from the root
func (c *converter) convertChildren(children []scene.Node, ts matrix.Matrix) {
	for _, child := range children {
		switch child := child.(type) {
		case *scene.Group:
			c.convertChildren(child.Children, scene.Concat(scene.OrIdentity(child.Transform), ts))
		case *scene.Path:
			if cmd := c.convertPath(child, ts); cmd != nil {
				c.doc.Commands = append(c.doc.Commands, cmd)
			}
		}
	}
}

func (c *converter) convertPath(p *scene.Path, ts matrix.Matrix) Command {
	data := transformPath(p.Data, ts)
	bbox, ok := pathBBox(data)
	if !ok {
		return nil
	}

	var (
		fill, stroke       Style
		hasFill, hasStroke bool
		lineWidth          float32
	)
	if p.Fill != nil {
		fill, hasFill = c.resolver.Resolve(p.Fill.Paint, bbox)
	}
	if p.Stroke != nil {
		stroke, hasStroke = c.resolver.Resolve(p.Stroke.Paint, bbox)
		lineWidth = float32(p.Stroke.Width)
	}

	switch {
	case hasFill && hasStroke:
		return OutlineFillPath{Stroke: stroke, Fill: fill, LineWidth: lineWidth, Data: data}
	case hasFill:
		return FillPath{Fill: fill, Data: data}
	case hasStroke:
		return DrawLinePath{Stroke: stroke, LineWidth: lineWidth, Data: data}
	default:
		return nil
	}
}

// transformPath returns a copy of `p` mapped through `ts`.
// Quadratic segments are elevated to cubic ones.
func transformPath(p *path.Data, ts matrix.Matrix) *path.Data {
	out := &path.Data{}
	if p == nil {
		return out
	}
	var current, subpath vec.Vec2 // untransformed
	coordIdx := 0
	for _, cmd := range p.Cmds {
		switch cmd {
		case path.CmdMoveTo:
			current = p.Coords[coordIdx]
			subpath = current
			out = out.MoveTo(scene.ApplyVec(ts, current))
			coordIdx++
		case path.CmdLineTo:
			current = p.Coords[coordIdx]
			out = out.LineTo(scene.ApplyVec(ts, current))
			coordIdx++
		case path.CmdQuadTo:
			q, next := p.Coords[coordIdx], p.Coords[coordIdx+1]
			c1, c2 := quadToCubic(current, q, next)
			out = out.CubeTo(scene.ApplyVec(ts, c1), scene.ApplyVec(ts, c2), scene.ApplyVec(ts, next))
			current = next
			coordIdx += 2
		case path.CmdCubeTo:
			c1, c2, next := p.Coords[coordIdx], p.Coords[coordIdx+1], p.Coords[coordIdx+2]
			out = out.CubeTo(scene.ApplyVec(ts, c1), scene.ApplyVec(ts, c2), scene.ApplyVec(ts, next))
			current = next
			coordIdx += 3
		case path.CmdClose:
			out = out.Close()
			current = subpath
		}
	}
	return out
}
