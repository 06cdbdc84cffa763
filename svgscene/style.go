package svgscene

import (
	"fmt"
	"math"
	"strings"

	"github.com/benoitkugler/svg2tvgt/scene"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
)

type paintKind uint8

const (
	paintNone paintKind = iota
	paintColor
	paintCurrentColor
	paintLink
)

// paintValue is the value of a fill or stroke property,
// before currentColor and references are resolved
type paintValue struct {
	kind     paintKind
	color    scene.Color // for paintColor
	link     string      // for paintLink
	fallback *paintValue // for paintLink, optional
}

// PathStyle holds the state of the inherited SVG properties
type PathStyle struct {
	fill, stroke               paintValue
	fillOpacity, strokeOpacity float64
	opacity                    float64 // product of the ancestors opacities
	strokeWidth                float64
	color                      scene.Color // for currentColor
	invisible                  bool        // visibility: hidden or collapse

	// not inherited
	ownOpacity float64
	hidden     bool // display: none
}

// DefaultStyle is the initial SVG style: black fill,
// no stroke, full opacity.
var DefaultStyle = PathStyle{
	fill:          paintValue{kind: paintColor, color: scene.Black},
	fillOpacity:   1,
	strokeOpacity: 1,
	opacity:       1,
	strokeWidth:   1,
	color:         scene.Black,
}

// cursor is used while walking the SVG document
type cursor struct {
	opts Options
	ids  map[string]*element
	tree *scene.Tree

	viewport   struct{ w, h float64 } // for percentages
	styleStack []PathStyle
	rules      []cssRule
	instancing map[*element]bool // elements being expanded by a use
}

func newCursor(opts Options, ids map[string]*element) *cursor {
	return &cursor{
		opts:       opts,
		ids:        ids,
		styleStack: []PathStyle{DefaultStyle},
		instancing: make(map[*element]bool),
	}
}

// handleError reports a non fatal problem, according to the error mode
func (c *cursor) handleError(msg string, args ...interface{}) error {
	msg = fmt.Sprintf(msg, args...)
	switch c.opts.ErrorMode {
	case StrictErrorMode:
		return fmt.Errorf("svgscene: %s", msg)
	case WarnErrorMode:
		c.opts.Logger.Warn(msg)
	}
	return nil
}

func (c *cursor) currentStyle() PathStyle { return c.styleStack[len(c.styleStack)-1] }

func (c *cursor) popStyle() { c.styleStack = c.styleStack[:len(c.styleStack)-1] }

// declaration is one property, from an attribute or a style declaration
type declaration struct{ key, value string }

// declarations returns the presentation attributes of `el`,
// followed by the matching style sheet rules and
// by the content of the style attribute, so that later
// declarations have priority.
func (c *cursor) declarations(el *element) []declaration {
	var out []declaration
	style := ""
	for _, attr := range el.attrs {
		if attr.Name.Local == "style" {
			style = attr.Value
			continue
		}
		out = append(out, declaration{key: attr.Name.Local, value: strings.TrimSpace(attr.Value)})
	}
	for _, rule := range c.rules {
		if rule.matches(el) {
			out = append(out, rule.decls...)
		}
	}
	return append(out, parseDeclarations(style)...)
}

// pushStyle parses the style of the element, and push it on the style stack.
// Note that this parses both the contents of a style attribute plus
// direct presentation attributes.
func (c *cursor) pushStyle(el *element) error {
	// Make a copy of the top style
	curStyle := c.currentStyle()
	curStyle.hidden = false
	curStyle.ownOpacity = 1
	for _, decl := range c.declarations(el) {
		if err := c.readStyleAttr(&curStyle, decl.key, decl.value); err != nil {
			if err = c.handleError("invalid %s attribute %q: %s", decl.key, decl.value, err); err != nil {
				return err
			}
		}
	}
	curStyle.opacity *= curStyle.ownOpacity
	c.styleStack = append(c.styleStack, curStyle) // Push style onto stack
	return nil
}

func (c *cursor) readStyleAttr(curStyle *PathStyle, k, v string) error {
	if v == "inherit" {
		return nil
	}
	switch k {
	case "fill":
		p, err := parsePaint(v)
		if err != nil {
			return err
		}
		curStyle.fill = p
	case "stroke":
		p, err := parsePaint(v)
		if err != nil {
			return err
		}
		curStyle.stroke = p
	case "color":
		if strings.EqualFold(v, "currentColor") {
			return nil
		}
		col, err := parseSVGColor(v)
		if err != nil {
			return err
		}
		curStyle.color = col
	case "stroke-width":
		width, err := c.parseUnit(v, diagPercentage)
		if err != nil {
			return err
		}
		if width < 0 {
			return errParamMismatch
		}
		curStyle.strokeWidth = width
	case "opacity", "stroke-opacity", "fill-opacity":
		op, err := parseOpacity(v)
		if err != nil {
			return err
		}
		switch k {
		case "opacity":
			curStyle.ownOpacity = op
		case "fill-opacity":
			curStyle.fillOpacity = op
		case "stroke-opacity":
			curStyle.strokeOpacity = op
		}
	case "display":
		curStyle.hidden = v == "none"
	case "visibility":
		curStyle.invisible = v == "hidden" || v == "collapse"
	}
	return nil
}

// parsePaint parses a fill or stroke value
func parsePaint(v string) (paintValue, error) {
	switch {
	case v == "none":
		return paintValue{kind: paintNone}, nil
	case strings.EqualFold(v, "currentColor"):
		return paintValue{kind: paintCurrentColor}, nil
	case strings.HasPrefix(v, "url("):
		end := strings.IndexByte(v, ')')
		if end == -1 {
			return paintValue{}, errParamMismatch
		}
		ref := strings.Trim(strings.TrimSpace(v[4:end]), `"'`)
		if !strings.HasPrefix(ref, "#") {
			return paintValue{}, fmt.Errorf("only local references are supported")
		}
		out := paintValue{kind: paintLink, link: ref[1:]}
		if rest := strings.TrimSpace(v[end+1:]); rest != "" {
			fallback, err := parsePaint(rest)
			if err != nil {
				return paintValue{}, err
			}
			if fallback.kind != paintLink {
				out.fallback = &fallback
			}
		}
		return out, nil
	default:
		col, err := parseSVGColor(v)
		if err != nil {
			return paintValue{}, err
		}
		return paintValue{kind: paintColor, color: col}, nil
	}
}

// parseOpacity accepts numbers and percentages, and clamps to [0, 1]
func parseOpacity(v string) (float64, error) {
	f, err := readFraction(v)
	if err != nil {
		return 0, err
	}
	return math.Max(0, math.Min(1, f)), nil
}

func (c *cursor) readTransformAttr(m1 matrix.Matrix, k string, points []float64) (matrix.Matrix, error) {
	ln := len(points)
	var m matrix.Matrix
	switch k {
	case "rotate":
		if ln == 1 {
			m = scene.Rotation(points[0] * math.Pi / 180)
		} else if ln == 3 {
			m = scene.Concat(scene.Translation(-points[1], -points[2]),
				scene.Concat(scene.Rotation(points[0]*math.Pi/180), scene.Translation(points[1], points[2])))
		} else {
			return m1, errParamMismatch
		}
	case "translate":
		if ln == 1 {
			m = scene.Translation(points[0], 0)
		} else if ln == 2 {
			m = scene.Translation(points[0], points[1])
		} else {
			return m1, errParamMismatch
		}
	case "skewx":
		if ln == 1 {
			m = scene.SkewX(points[0] * math.Pi / 180)
		} else {
			return m1, errParamMismatch
		}
	case "skewy":
		if ln == 1 {
			m = scene.SkewY(points[0] * math.Pi / 180)
		} else {
			return m1, errParamMismatch
		}
	case "scale":
		if ln == 1 {
			m = scene.Scaling(points[0], points[0])
		} else if ln == 2 {
			m = scene.Scaling(points[0], points[1])
		} else {
			return m1, errParamMismatch
		}
	case "matrix":
		if ln == 6 {
			m = matrix.Matrix{points[0], points[1], points[2], points[3], points[4], points[5]}
		} else {
			return m1, errParamMismatch
		}
	default:
		return m1, errParamMismatch
	}
	// the rightmost transformation applies first
	return scene.Concat(m, m1), nil
}

// parseTransform parses a transform list, such as
// "translate(10 20) rotate(45)"
func (c *cursor) parseTransform(v string) (matrix.Matrix, error) {
	ts := strings.Split(v, ")")
	m1 := matrix.Identity
	for i, t := range ts {
		t = strings.TrimSpace(strings.TrimLeft(t, ", \t\n\r"))
		if len(t) == 0 {
			continue
		}
		if i == len(ts)-1 {
			return m1, errParamMismatch // missing closing parenthesis
		}
		d := strings.Split(t, "(")
		if len(d) != 2 || len(d[1]) < 1 {
			return m1, errParamMismatch // badly formed transformation
		}
		points, err := parseNumbers(d[1])
		if err != nil {
			return m1, err
		}
		m1, err = c.readTransformAttr(m1, strings.ToLower(strings.TrimSpace(d[0])), points)
		if err != nil {
			return m1, err
		}
	}
	return m1, nil
}

// elementTransform returns the transform of `el`, or false
// if the transform is not invertible, meaning the element is not rendered.
func (c *cursor) elementTransform(el *element, attrName string) (matrix.Matrix, bool, error) {
	v, ok := el.attr(attrName)
	if !ok {
		return matrix.Identity, true, nil
	}
	m, err := c.parseTransform(v)
	if err != nil {
		return matrix.Identity, true, c.handleError("invalid %s %q: %s", attrName, v, err)
	}
	if !scene.IsInvertible(m) {
		return m, false, nil
	}
	return m, true, nil
}

// parseAspectRatio parses the preserveAspectRatio attribute
func parseAspectRatio(v string) (scene.AspectRatio, error) {
	out := scene.AspectRatio{Align: scene.XMidYMid}
	fields := strings.Fields(v)
	if len(fields) != 0 && fields[0] == "defer" {
		fields = fields[1:]
	}
	if len(fields) == 0 || len(fields) > 2 {
		return out, errParamMismatch
	}
	switch fields[0] {
	case "none":
		out.Align = scene.AlignNone
	case "xMinYMin":
		out.Align = scene.XMinYMin
	case "xMidYMin":
		out.Align = scene.XMidYMin
	case "xMaxYMin":
		out.Align = scene.XMaxYMin
	case "xMinYMid":
		out.Align = scene.XMinYMid
	case "xMidYMid":
		out.Align = scene.XMidYMid
	case "xMaxYMid":
		out.Align = scene.XMaxYMid
	case "xMinYMax":
		out.Align = scene.XMinYMax
	case "xMidYMax":
		out.Align = scene.XMidYMax
	case "xMaxYMax":
		out.Align = scene.XMaxYMax
	default:
		return out, errParamMismatch
	}
	if len(fields) == 2 {
		switch fields[1] {
		case "meet":
		case "slice":
			out.Slice = true
		default:
			return out, errParamMismatch
		}
	}
	return out, nil
}

// parseViewBox returns false for an absent or invalid view box.
func (c *cursor) parseViewBox(el *element) (rect.Rect, bool, error) {
	v, ok := el.attr("viewBox")
	if !ok {
		return rect.Rect{}, false, nil
	}
	points, err := parseNumbers(v)
	if err != nil || len(points) != 4 || !(points[2] > 0 && points[3] > 0) {
		return rect.Rect{}, false, c.handleError("invalid viewBox %q", v)
	}
	return rect.Rect{LLx: points[0], LLy: points[1], URx: points[0] + points[2], URy: points[1] + points[3]}, true, nil
}

// readRoot sets up the tree from the attributes of the root svg element,
// and pushes its style.
func (c *cursor) readRoot(root *element) error {
	vb, hasViewBox, err := c.parseViewBox(root)
	if err != nil {
		return err
	}
	// width and height default to 100%
	c.viewport.w, c.viewport.h = 100, 100
	if hasViewBox {
		c.viewport.w, c.viewport.h = vb.URx-vb.LLx, vb.URy-vb.LLy
	}
	size := scene.Size{Width: c.viewport.w, Height: c.viewport.h}
	if v, ok := root.attr("width"); ok {
		if size.Width, err = c.parseUnit(v, widthPercentage); err != nil {
			return fmt.Errorf("%w: width %q: %s", errInvalidSize, v, err)
		}
	}
	if v, ok := root.attr("height"); ok {
		if size.Height, err = c.parseUnit(v, heightPercentage); err != nil {
			return fmt.Errorf("%w: height %q: %s", errInvalidSize, v, err)
		}
	}
	if !(size.Width > 0 && size.Height > 0) {
		return fmt.Errorf("%w: %gx%g", errInvalidSize, size.Width, size.Height)
	}
	if !hasViewBox {
		vb = rect.Rect{URx: size.Width, URy: size.Height}
		c.viewport.w, c.viewport.h = size.Width, size.Height
	}

	aspect := scene.AspectRatio{Align: scene.XMidYMid}
	if v, ok := root.attr("preserveAspectRatio"); ok {
		if aspect, err = parseAspectRatio(v); err != nil {
			if err = c.handleError("invalid preserveAspectRatio %q", v); err != nil {
				return err
			}
		}
	}

	tree := scene.NewTree(size.Width, size.Height)
	tree.ViewBox = scene.ViewBox{Rect: vb, Aspect: aspect}
	tree.Root.ID = root.id()
	c.tree = tree

	return c.pushStyle(root)
}
