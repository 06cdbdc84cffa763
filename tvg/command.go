package tvg

import "seehuhn.de/go/geom/path"

// Style is the paint of a command: Flat, LinearGradient or RadialGradient
type Style interface {
	isStyle()
}

// Flat paints with one palette color.
type Flat struct {
	Color int
}

// LinearGradient goes from Color1 at (X1, Y1) to Color2 at (X2, Y2).
type LinearGradient struct {
	X1, Y1, X2, Y2 float32
	Color1, Color2 int
}

// RadialGradient is centered on (X1, Y1), and (X2, Y2) lies on
// its circle.
type RadialGradient struct {
	X1, Y1, X2, Y2 float32
	Color1, Color2 int
}

func (Flat) isStyle()           {}
func (LinearGradient) isStyle() {}
func (RadialGradient) isStyle() {}

// Command is one drawing operation: DrawLinePath, FillPath or OutlineFillPath.
// Path coordinates are in the final coordinate space, and only use
// move, line, cubic and close segments.
type Command interface {
	Path() *path.Data
	isCommand()
}

// DrawLinePath strokes a path.
type DrawLinePath struct {
	Stroke    Style
	LineWidth float32
	Data      *path.Data
}

// FillPath fills a path.
type FillPath struct {
	Fill Style
	Data *path.Data
}

// OutlineFillPath fills a path, then strokes it.
type OutlineFillPath struct {
	Stroke    Style
	Fill      Style
	LineWidth float32
	Data      *path.Data
}

func (c DrawLinePath) Path() *path.Data    { return c.Data }
func (c FillPath) Path() *path.Data        { return c.Data }
func (c OutlineFillPath) Path() *path.Data { return c.Data }

func (DrawLinePath) isCommand()    {}
func (FillPath) isCommand()        {}
func (OutlineFillPath) isCommand() {}
