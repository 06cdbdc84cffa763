package svgscene

import (
	"strings"

	"github.com/benoitkugler/svg2tvgt/scene"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// svgFunc builds the nodes for one element into `parent`.
// `ts` is the transform of the element.
type svgFunc func(c *cursor, el *element, parent *scene.Group, ts matrix.Matrix) error

var drawFuncs map[string]svgFunc

// skippedElements are not rendered directly
var skippedElements = map[string]bool{
	"defs":           true,
	"title":          true,
	"desc":           true,
	"metadata":       true,
	"style":          true,
	"linearGradient": true,
	"radialGradient": true,
	"stop":           true,
	"pattern":        true,
	"symbol":         true, // only through use
}

func init() {
	// assigned here to break the initialization cycle with walk
	drawFuncs = map[string]svgFunc{
		"svg":      svgF,
		"g":        gF,
		"switch":   switchF,
		"use":      useF,
		"rect":     rectF,
		"circle":   circleF,
		"ellipse":  ellipseF,
		"line":     lineF,
		"polyline": polylineF,
		"polygon":  polygonF,
		"path":     pathF,
		"image":    imageF,
	}
}

// walkChildren adds the content of `el` into `parent`
func (c *cursor) walkChildren(el *element, parent *scene.Group) error {
	for _, child := range el.children {
		if err := c.walk(child, parent); err != nil {
			return err
		}
	}
	return nil
}

func (c *cursor) walk(el *element, parent *scene.Group) error {
	if el.isForeign() {
		return nil
	}
	name := el.name.Local
	if skippedElements[name] {
		return nil
	}
	df, ok := drawFuncs[name]
	if !ok {
		return c.handleError("cannot process svg element %s", name)
	}
	ts, visible, err := c.elementTransform(el, "transform")
	if err != nil || !visible {
		return err
	}
	if err := c.pushStyle(el); err != nil {
		return err
	}
	defer c.popStyle()
	if c.currentStyle().hidden {
		return nil
	}
	return df(c, el, parent, ts)
}

// lengthReader reads length attributes, keeping the first error
type lengthReader struct {
	c   *cursor
	el  *element
	err error
}

func (lr *lengthReader) get(name string, kind percentKind, def float64) float64 {
	if lr.err != nil {
		return def
	}
	f, err := lr.c.readLength(lr.el, name, kind, def)
	lr.err = err
	return f
}

// appendNode adds `node` to `parent`, wrapped in a group if `ts` is not the identity
func appendNode(parent *scene.Group, node scene.Node, ts matrix.Matrix) {
	if ts == matrix.Identity {
		parent.Append(node)
		return
	}
	parent.Append(&scene.Group{Transform: ts, Children: []scene.Node{node}})
}

// addShape builds a path with the current style
func (c *cursor) addShape(el *element, parent *scene.Group, ts matrix.Matrix, data *path.Data, fillable bool) error {
	if data == nil || len(data.Cmds) == 0 {
		return nil
	}
	st := c.currentStyle()
	if st.invisible { // children may still be visible
		return nil
	}
	p := &scene.Path{ID: el.id(), Data: data}
	if fillable {
		paint, err := c.resolvePaint(st.fill, st, st.fillOpacity*st.opacity)
		if err != nil {
			return err
		}
		if paint != nil {
			p.Fill = &scene.Fill{Paint: paint}
		}
	}
	if st.strokeWidth > 0 {
		paint, err := c.resolvePaint(st.stroke, st, st.strokeOpacity*st.opacity)
		if err != nil {
			return err
		}
		if paint != nil {
			p.Stroke = &scene.Stroke{Paint: paint, Width: st.strokeWidth}
		}
	}
	appendNode(parent, p, ts)
	return nil
}

func gF(c *cursor, el *element, parent *scene.Group, ts matrix.Matrix) error {
	group := &scene.Group{ID: el.id(), Transform: ts}
	if err := c.walkChildren(el, group); err != nil {
		return err
	}
	parent.Append(group)
	return nil
}

// svgF handles nested svg elements, which establish a new viewport
func svgF(c *cursor, el *element, parent *scene.Group, ts matrix.Matrix) error {
	lr := lengthReader{c: c, el: el}
	x := lr.get("x", widthPercentage, 0)
	y := lr.get("y", heightPercentage, 0)
	size := scene.Size{
		Width:  lr.get("width", widthPercentage, c.viewport.w),
		Height: lr.get("height", heightPercentage, c.viewport.h),
	}
	if lr.err != nil {
		return lr.err
	}
	if !(size.Width > 0 && size.Height > 0) {
		return nil
	}
	vb, hasViewBox, err := c.parseViewBox(el)
	if err != nil {
		return err
	}

	viewport := c.viewport
	defer func() { c.viewport = viewport }()

	ts = scene.Concat(scene.Translation(x, y), ts)
	if hasViewBox {
		aspect := scene.AspectRatio{Align: scene.XMidYMid}
		if v, ok := el.attr("preserveAspectRatio"); ok {
			if aspect, err = parseAspectRatio(v); err != nil {
				if err = c.handleError("invalid preserveAspectRatio %q", v); err != nil {
					return err
				}
			}
		}
		ts = scene.Concat(scene.ViewBoxTransform(scene.ViewBox{Rect: vb, Aspect: aspect}, size), ts)
		c.viewport.w, c.viewport.h = vb.URx-vb.LLx, vb.URy-vb.LLy
	} else {
		c.viewport.w, c.viewport.h = size.Width, size.Height
	}
	return gF(c, el, parent, ts)
}

// passesConditions evaluates the conditional processing attributes
func (c *cursor) passesConditions(el *element) bool {
	// no extension is supported
	if _, ok := el.attr("requiredExtensions"); ok {
		return false
	}
	v, ok := el.attr("systemLanguage")
	if !ok {
		return true
	}
	for _, lang := range strings.Split(v, ",") {
		lang = strings.TrimSpace(lang)
		prefix, _, _ := strings.Cut(lang, "-")
		for _, accepted := range c.opts.Languages {
			if lang == accepted || prefix == accepted {
				return true
			}
		}
	}
	return false
}

// switchF renders the first direct child passing the conditions
func switchF(c *cursor, el *element, parent *scene.Group, ts matrix.Matrix) error {
	group := &scene.Group{ID: el.id(), Transform: ts}
	for _, child := range el.children {
		if child.isForeign() || skippedElements[child.name.Local] {
			continue
		}
		if _, ok := drawFuncs[child.name.Local]; !ok {
			continue
		}
		if c.passesConditions(child) {
			if err := c.walk(child, group); err != nil {
				return err
			}
			break
		}
	}
	parent.Append(group)
	return nil
}

func useF(c *cursor, el *element, parent *scene.Group, ts matrix.Matrix) error {
	id, ok := el.href()
	if !ok {
		return c.handleError("use element without local reference")
	}
	target := c.ids[id]
	if target == nil {
		return c.handleError("use of unknown element %q", id)
	}
	if c.instancing[target] {
		return c.handleError("recursive use of element %q", id)
	}
	c.instancing[target] = true
	defer delete(c.instancing, target)

	lr := lengthReader{c: c, el: el}
	x := lr.get("x", widthPercentage, 0)
	y := lr.get("y", heightPercentage, 0)
	if lr.err != nil {
		return lr.err
	}
	group := &scene.Group{ID: el.id(), Transform: scene.Concat(scene.Translation(x, y), ts)}

	if target.name.Local == "symbol" {
		if err := c.useSymbol(el, target, group); err != nil {
			return err
		}
	} else if err := c.walk(target, group); err != nil {
		return err
	}
	parent.Append(group)
	return nil
}

// useSymbol instantiates the content of a symbol
func (c *cursor) useSymbol(use, symbol *element, group *scene.Group) error {
	if err := c.pushStyle(symbol); err != nil {
		return err
	}
	defer c.popStyle()

	vb, hasViewBox, err := c.parseViewBox(symbol)
	if err != nil {
		return err
	}
	if hasViewBox {
		lr := lengthReader{c: c, el: use}
		size := scene.Size{
			Width:  lr.get("width", widthPercentage, c.viewport.w),
			Height: lr.get("height", heightPercentage, c.viewport.h),
		}
		if lr.err != nil {
			return lr.err
		}
		aspect := scene.AspectRatio{Align: scene.XMidYMid}
		if v, ok := symbol.attr("preserveAspectRatio"); ok {
			if aspect, err = parseAspectRatio(v); err != nil {
				if err = c.handleError("invalid preserveAspectRatio %q", v); err != nil {
					return err
				}
			}
		}
		group.Transform = scene.Concat(scene.ViewBoxTransform(scene.ViewBox{Rect: vb, Aspect: aspect}, size), group.Transform)
	}
	return c.walkChildren(symbol, group)
}

func rectF(c *cursor, el *element, parent *scene.Group, ts matrix.Matrix) error {
	lr := lengthReader{c: c, el: el}
	x := lr.get("x", widthPercentage, 0)
	y := lr.get("y", heightPercentage, 0)
	w := lr.get("width", widthPercentage, 0)
	h := lr.get("height", heightPercentage, 0)
	rx := lr.get("rx", widthPercentage, -1)
	ry := lr.get("ry", heightPercentage, -1)
	if lr.err != nil {
		return lr.err
	}
	if !(w > 0 && h > 0) {
		return nil
	}
	// a missing radius defaults to the other one
	if rx < 0 {
		rx = ry
	}
	if ry < 0 {
		ry = rx
	}
	if rx > 0 && ry > 0 {
		return c.addShape(el, parent, ts, roundRectPath(x, y, w, h, rx, ry), true)
	}
	return c.addShape(el, parent, ts, rectPath(x, y, w, h), true)
}

func circleF(c *cursor, el *element, parent *scene.Group, ts matrix.Matrix) error {
	lr := lengthReader{c: c, el: el}
	cx := lr.get("cx", widthPercentage, 0)
	cy := lr.get("cy", heightPercentage, 0)
	r := lr.get("r", diagPercentage, 0)
	if lr.err != nil {
		return lr.err
	}
	if !(r > 0) {
		return nil
	}
	return c.addShape(el, parent, ts, ellipsePath(cx, cy, r, r), true)
}

func ellipseF(c *cursor, el *element, parent *scene.Group, ts matrix.Matrix) error {
	lr := lengthReader{c: c, el: el}
	cx := lr.get("cx", widthPercentage, 0)
	cy := lr.get("cy", heightPercentage, 0)
	rx := lr.get("rx", widthPercentage, -1)
	ry := lr.get("ry", heightPercentage, -1)
	if lr.err != nil {
		return lr.err
	}
	if rx < 0 {
		rx = ry
	}
	if ry < 0 {
		ry = rx
	}
	if !(rx > 0 && ry > 0) {
		return nil
	}
	return c.addShape(el, parent, ts, ellipsePath(cx, cy, rx, ry), true)
}

func lineF(c *cursor, el *element, parent *scene.Group, ts matrix.Matrix) error {
	lr := lengthReader{c: c, el: el}
	x1 := lr.get("x1", widthPercentage, 0)
	y1 := lr.get("y1", heightPercentage, 0)
	x2 := lr.get("x2", widthPercentage, 0)
	y2 := lr.get("y2", heightPercentage, 0)
	if lr.err != nil {
		return lr.err
	}
	data := (&path.Data{}).MoveTo(vec.Vec2{X: x1, Y: y1}).LineTo(vec.Vec2{X: x2, Y: y2})
	// a line has no interior
	return c.addShape(el, parent, ts, data, false)
}

// readPoints parses the points attribute of polyline and polygon
func (c *cursor) readPoints(el *element) (*path.Data, error) {
	v, _ := el.attr("points")
	coords, err := parseNumbers(v)
	if err != nil {
		// render up to the error
		if err := c.handleError("invalid points attribute: %s", err); err != nil {
			return nil, err
		}
	}
	if len(coords)%2 != 0 {
		if err := c.handleError("odd number of coordinates in points attribute"); err != nil {
			return nil, err
		}
		coords = coords[:len(coords)-1]
	}
	if len(coords) < 4 {
		return nil, nil
	}
	data := (&path.Data{}).MoveTo(vec.Vec2{X: coords[0], Y: coords[1]})
	for i := 2; i < len(coords); i += 2 {
		data.LineTo(vec.Vec2{X: coords[i], Y: coords[i+1]})
	}
	return data, nil
}

func polylineF(c *cursor, el *element, parent *scene.Group, ts matrix.Matrix) error {
	data, err := c.readPoints(el)
	if err != nil {
		return err
	}
	return c.addShape(el, parent, ts, data, true)
}

func polygonF(c *cursor, el *element, parent *scene.Group, ts matrix.Matrix) error {
	data, err := c.readPoints(el)
	if err != nil || data == nil {
		return err
	}
	return c.addShape(el, parent, ts, data.Close(), true)
}

func pathF(c *cursor, el *element, parent *scene.Group, ts matrix.Matrix) error {
	d, ok := el.attr("d")
	if !ok {
		return nil
	}
	data, err := compilePath(d)
	if err != nil {
		// render up to the error
		if err := c.handleError("invalid path data: %s", err); err != nil {
			return err
		}
	}
	return c.addShape(el, parent, ts, data, true)
}

func imageF(c *cursor, el *element, parent *scene.Group, ts matrix.Matrix) error {
	lr := lengthReader{c: c, el: el}
	x := lr.get("x", widthPercentage, 0)
	y := lr.get("y", heightPercentage, 0)
	w := lr.get("width", widthPercentage, 0)
	h := lr.get("height", heightPercentage, 0)
	if lr.err != nil {
		return lr.err
	}
	href, _ := el.attr("href")
	if !(w > 0 && h > 0) || href == "" || c.currentStyle().invisible {
		return nil
	}
	img := &scene.Image{
		ID:   el.id(),
		View: rect.Rect{LLx: x, LLy: y, URx: x + w, URy: y + h},
		Href: href,
	}
	appendNode(parent, img, ts)
	return nil
}
