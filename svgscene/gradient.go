package svgscene

import (
	"math"
	"strconv"
	"strings"

	"github.com/benoitkugler/svg2tvgt/scene"
	"seehuhn.de/go/geom/matrix"
)

func isGradient(el *element) bool {
	return !el.isForeign() && (el.name.Local == "linearGradient" || el.name.Local == "radialGradient")
}

// readDefinitions registers the gradients and patterns found anywhere
// in the document. Gradients are read first, so that pattern content
// may use them.
func (c *cursor) readDefinitions(root *element) error {
	var patterns []*element
	var visit func(el *element) error
	visit = func(el *element) error {
		for _, child := range el.children {
			if child.isForeign() {
				continue
			}
			// only the first element with a given id is referenceable
			if id := child.id(); id != "" && c.ids[id] == child {
				switch child.name.Local {
				case "linearGradient", "radialGradient":
					def, err := c.readGradient(child)
					if err != nil {
						return err
					}
					c.tree.AddDef(def)
				case "pattern":
					patterns = append(patterns, child)
				}
			}
			if err := visit(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(root); err != nil {
		return err
	}

	for _, el := range patterns {
		pattern := &scene.Pattern{ID: el.id()}
		c.tree.AddDef(pattern)
		if err := c.pushStyle(el); err != nil {
			return err
		}
		group := &scene.Group{Transform: matrix.Identity}
		err := c.walkChildren(el, group)
		c.popStyle()
		if err != nil {
			return err
		}
		pattern.Children = group.Children
	}
	return nil
}

// gradientChain returns `el` followed by the gradients
// it inherits from, through href.
func (c *cursor) gradientChain(el *element) []*element {
	chain := []*element{el}
	seen := map[*element]bool{el: true}
	for {
		id, ok := chain[len(chain)-1].href()
		if !ok {
			return chain
		}
		next := c.ids[id]
		if next == nil || !isGradient(next) || seen[next] {
			return chain
		}
		seen[next] = true
		chain = append(chain, next)
	}
}

// gradientAttrs resolves the attributes of a gradient,
// following its href chain.
type gradientAttrs struct {
	c     *cursor
	chain []*element
	units scene.Units
}

// lookup returns the first definition of `name` in the chain.
// Geometric attributes are only inherited from gradients of the same kind.
func (ga gradientAttrs) lookup(name string, sameKind bool) (string, bool) {
	for _, el := range ga.chain {
		if sameKind && el.name.Local != ga.chain[0].name.Local {
			continue
		}
		if v, ok := el.attr(name); ok {
			return v, true
		}
	}
	return "", false
}

// coord resolves a gradient coordinate, using `def` if it is absent or invalid
func (ga gradientAttrs) coord(name, def string, kind percentKind) (float64, error) {
	v, ok := ga.lookup(name, true)
	if !ok {
		v = def
	}
	f, err := ga.resolve(v, kind)
	if err != nil {
		if err := ga.c.handleError("invalid gradient %s %q: %s", name, v, err); err != nil {
			return 0, err
		}
		f, _ = ga.resolve(def, kind)
	}
	return f, nil
}

// optionalCoord resolves a gradient coordinate, using `def` if it is absent or invalid
func (ga gradientAttrs) optionalCoord(name string, kind percentKind, def float64) (float64, error) {
	v, ok := ga.lookup(name, true)
	if !ok {
		return def, nil
	}
	f, err := ga.resolve(v, kind)
	if err != nil {
		return def, ga.c.handleError("invalid gradient %s %q: %s", name, v, err)
	}
	return f, nil
}

func (ga gradientAttrs) resolve(v string, kind percentKind) (float64, error) {
	if ga.units == scene.ObjectBoundingBox {
		return readFraction(v)
	}
	return ga.c.parseUnit(v, kind)
}

func (c *cursor) readGradient(el *element) (scene.Def, error) {
	ga := gradientAttrs{c: c, chain: c.gradientChain(el)}

	base := scene.BaseGradient{ID: el.id(), Transform: matrix.Identity}
	if v, _ := ga.lookup("gradientUnits", false); v == "userSpaceOnUse" {
		base.Units = scene.UserSpaceOnUse
	}
	ga.units = base.Units
	if v, ok := ga.lookup("gradientTransform", false); ok {
		m, err := c.parseTransform(v)
		if err != nil {
			if err := c.handleError("invalid gradientTransform %q: %s", v, err); err != nil {
				return nil, err
			}
		} else {
			base.Transform = m
		}
	}
	switch v, _ := ga.lookup("spreadMethod", false); v {
	case "reflect":
		base.Spread = scene.ReflectSpread
	case "repeat":
		base.Spread = scene.RepeatSpread
	}

	// stops come from the first gradient having some
	for _, g := range ga.chain {
		stops, err := c.readStops(g)
		if err != nil {
			return nil, err
		}
		if len(stops) != 0 {
			base.Stops = stops
			break
		}
	}

	if el.name.Local == "linearGradient" {
		out := &scene.LinearGradient{BaseGradient: base}
		for _, attr := range []struct {
			dst       *float64
			name, def string
			kind      percentKind
		}{
			{&out.X1, "x1", "0%", widthPercentage},
			{&out.Y1, "y1", "0%", heightPercentage},
			{&out.X2, "x2", "100%", widthPercentage},
			{&out.Y2, "y2", "0%", heightPercentage},
		} {
			var err error
			if *attr.dst, err = ga.coord(attr.name, attr.def, attr.kind); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	out := &scene.RadialGradient{BaseGradient: base}
	var err error
	if out.Cx, err = ga.coord("cx", "50%", widthPercentage); err != nil {
		return nil, err
	}
	if out.Cy, err = ga.coord("cy", "50%", heightPercentage); err != nil {
		return nil, err
	}
	if out.R, err = ga.coord("r", "50%", diagPercentage); err != nil {
		return nil, err
	}
	if out.R < 0 {
		if err := c.handleError("negative radius %g for gradient %s", out.R, base.ID); err != nil {
			return nil, err
		}
		out.R = 0
	}
	// the focal point defaults to the center
	if out.Fx, err = ga.optionalCoord("fx", widthPercentage, out.Cx); err != nil {
		return nil, err
	}
	if out.Fy, err = ga.optionalCoord("fy", heightPercentage, out.Cy); err != nil {
		return nil, err
	}
	return out, nil
}

// readStops reads the stop children of a gradient.
// Offsets are clamped to [0, 1] and made non decreasing.
func (c *cursor) readStops(el *element) ([]scene.Stop, error) {
	var (
		stops []scene.Stop
		last  float64
	)
	for _, child := range el.children {
		if child.isForeign() || child.name.Local != "stop" {
			continue
		}
		stop := scene.Stop{Color: scene.Black, Opacity: 1}
		stopColor := scene.Black // for currentColor
		for _, decl := range c.declarations(child) {
			var err error
			switch decl.key {
			case "offset":
				stop.Offset, err = readFraction(decl.value)
			case "stop-color":
				if strings.EqualFold(decl.value, "currentColor") {
					stop.Color = stopColor
				} else if col, perr := parseSVGColor(decl.value); perr == nil {
					stop.Color = col
				} else {
					err = perr
				}
			case "stop-opacity":
				stop.Opacity, err = parseOpacity(decl.value)
			case "color":
				stopColor, err = parseSVGColor(decl.value)
			}
			if err != nil {
				if err := c.handleError("invalid %s attribute %q: %s", decl.key, decl.value, err); err != nil {
					return nil, err
				}
			}
		}
		stop.Offset = math.Max(last, math.Min(1, math.Max(0, stop.Offset)))
		last = stop.Offset
		stops = append(stops, stop)
	}
	return stops, nil
}

// scaleAlpha applies the opacity `op` to `a`
func scaleAlpha(a uint8, op float64) uint8 {
	return uint8(math.Round(float64(a) * clamp01(op)))
}

// resolvePaint builds the final paint of a path, or nil
// if nothing should be drawn.
// `opacity` is the product of the fill (or stroke) opacity with
// the element opacities.
func (c *cursor) resolvePaint(pv paintValue, st PathStyle, opacity float64) (scene.Paint, error) {
	switch pv.kind {
	case paintColor:
		col := pv.color
		col.A = scaleAlpha(col.A, opacity)
		return col, nil
	case paintCurrentColor:
		col := st.color
		col.A = scaleAlpha(col.A, opacity)
		return col, nil
	case paintLink:
		def, ok := c.tree.DefByID(pv.link)
		if !ok {
			if pv.fallback != nil {
				return c.resolvePaint(*pv.fallback, st, opacity)
			}
			// an invalid reference disables the painting
			return nil, c.handleError("unknown paint server %q", pv.link)
		}
		grad, ok := def.(interface{ Base() *scene.BaseGradient })
		if !ok { // pattern
			return scene.Link(pv.link), nil
		}
		stops := grad.Base().Stops
		switch {
		case !scene.IsInvertible(grad.Base().Transform):
			// a degenerate gradientTransform disables the painting
			return nil, nil
		case len(stops) == 0:
			return nil, nil
		case len(stops) == 1:
			col := stops[0].Color
			col.A = scaleAlpha(col.A, stops[0].Opacity*opacity)
			return col, nil
		case opacity < 1:
			return scene.Link(c.fadedGradient(def, opacity)), nil
		default:
			return scene.Link(pv.link), nil
		}
	default:
		return nil, nil
	}
}

// fadedGradient registers a copy of the gradient `def` with its stop
// opacities multiplied by `opacity`, and returns its id.
func (c *cursor) fadedGradient(def scene.Def, opacity float64) string {
	id := def.DefID() + "@" + strconv.FormatFloat(opacity, 'g', 6, 64)
	if _, ok := c.tree.DefByID(id); ok {
		return id
	}
	var (
		out  scene.Def
		base *scene.BaseGradient
	)
	switch def := def.(type) {
	case *scene.LinearGradient:
		cp := *def
		out, base = &cp, &cp.BaseGradient
	case *scene.RadialGradient:
		cp := *def
		out, base = &cp, &cp.BaseGradient
	}
	base.ID = id
	base.Stops = append([]scene.Stop(nil), base.Stops...)
	for i := range base.Stops {
		base.Stops[i].Opacity *= opacity
	}
	c.tree.AddDef(out)
	return id
}
