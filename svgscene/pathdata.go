package svgscene

import (
	"fmt"

	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"
)

// argCounts is the number of arguments of each path command
var argCounts = [256]int8{
	'M': 2, 'm': 2, 'L': 2, 'l': 2, 'H': 1, 'h': 1, 'V': 1, 'v': 1,
	'C': 6, 'c': 6, 'S': 4, 's': 4, 'Q': 4, 'q': 4, 'T': 2, 't': 2,
	'A': 7, 'a': 7, 'Z': 0, 'z': 0,
}

func isPathCommand(b byte) bool {
	switch b {
	case 'M', 'm', 'L', 'l', 'H', 'h', 'V', 'v', 'C', 'c', 'S', 's', 'Q', 'q', 'T', 't', 'A', 'a', 'Z', 'z':
		return true
	}
	return false
}

// pathCursor compiles the content of a path "d" attribute
type pathCursor struct {
	data *path.Data

	place    vec.Vec2 // current point
	start    vec.Vec2 // start of the current sub-path
	ctrl     vec.Vec2 // last control point, for smooth curves
	lastKey  byte
	hasPoint bool // at least one MoveTo
	closed   bool // a ClosePath was just issued
}

// compilePath parses the SVG path data `d`.
// On error, the path parsed so far is returned, as required
// by the SVG error handling rules.
func compilePath(d string) (*path.Data, error) {
	c := pathCursor{data: &path.Data{}}
	var (
		cmd  byte
		args [7]float64
	)
	i := skipSeparators(d, 0)
	for i < len(d) {
		if isPathCommand(d[i]) {
			cmd = d[i]
			i = skipSeparators(d, i+1)
		} else if cmd == 0 {
			return c.data, fmt.Errorf("path data must start with a command, got %q", d[i])
		} else if cmd == 'Z' || cmd == 'z' {
			return c.data, fmt.Errorf("unexpected %q after close path", d[i])
		}
		if !c.hasPoint && cmd != 'M' && cmd != 'm' {
			return c.data, fmt.Errorf("path data must start with a move to, got %q", cmd)
		}

		n := int(argCounts[cmd])
		for j := 0; j < n; j++ {
			if j > 0 {
				i = skipSeparators(d, i)
			}
			if (cmd == 'A' || cmd == 'a') && (j == 3 || j == 4) {
				// flags may be written without separators
				if i >= len(d) || (d[i] != '0' && d[i] != '1') {
					return c.data, fmt.Errorf("invalid arc flag in %q", cmd)
				}
				args[j] = float64(d[i] - '0')
				i++
				continue
			}
			f, k := scanNumber(d[i:])
			if k == 0 {
				return c.data, fmt.Errorf("missing argument for command %q", cmd)
			}
			args[j] = f
			i += k
		}
		c.addSeg(cmd, args[:n])
		i = skipSeparators(d, i)

		// implicit commands after a move to are line to
		if cmd == 'M' {
			cmd = 'L'
		} else if cmd == 'm' {
			cmd = 'l'
		}
	}
	return c.data, nil
}

// reflectCtrl returns the reflection of the last control point, if
// the previous command was one of `kinds`, or the current point.
func (c *pathCursor) reflectCtrl(kinds string) vec.Vec2 {
	for i := 0; i < len(kinds); i++ {
		if c.lastKey == kinds[i] {
			return c.place.Mul(2).Sub(c.ctrl)
		}
	}
	return c.place
}

// reopen starts a new sub-path at the current point after a close path
func (c *pathCursor) reopen() {
	if c.closed {
		c.data.MoveTo(c.place)
		c.closed = false
	}
}

func (c *pathCursor) addSeg(cmd byte, args []float64) {
	var origin vec.Vec2
	rel := 'a' <= cmd && cmd <= 'z'
	if rel {
		origin = c.place
	}
	pt := func(i int) vec.Vec2 {
		return vec.Vec2{X: args[i], Y: args[i+1]}.Add(origin)
	}

	key := cmd
	if rel {
		key -= 'a' - 'A'
	}
	switch key {
	case 'M':
		c.place = pt(0)
		c.start = c.place
		c.data.MoveTo(c.place)
		c.hasPoint, c.closed = true, false
	case 'L':
		c.reopen()
		c.place = pt(0)
		c.data.LineTo(c.place)
	case 'H':
		c.reopen()
		c.place.X = args[0] + origin.X
		c.data.LineTo(c.place)
	case 'V':
		c.reopen()
		c.place.Y = args[0] + origin.Y
		c.data.LineTo(c.place)
	case 'C':
		c.reopen()
		c.ctrl = pt(2)
		c.place = pt(4)
		c.data.CubeTo(pt(0), c.ctrl, c.place)
	case 'S':
		c.reopen()
		c1 := c.reflectCtrl("CS")
		c.ctrl = pt(0)
		c.place = pt(2)
		c.data.CubeTo(c1, c.ctrl, c.place)
	case 'Q':
		c.reopen()
		c.ctrl = pt(0)
		c.place = pt(2)
		c.data.QuadTo(c.ctrl, c.place)
	case 'T':
		c.reopen()
		c.ctrl = c.reflectCtrl("QT")
		c.place = pt(0)
		c.data.QuadTo(c.ctrl, c.place)
	case 'A':
		c.reopen()
		end := pt(5)
		arcTo(c.data, c.place, args[0], args[1], args[2], args[3] != 0, args[4] != 0, end)
		c.place = end
	case 'Z':
		if !c.closed {
			c.data.Close()
		}
		c.place = c.start
		c.closed = true
	}
	c.lastKey = key
}
