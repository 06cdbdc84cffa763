package scene

import "seehuhn.de/go/geom/matrix"

// Units is the coordinate system of a gradient
type Units byte

const (
	ObjectBoundingBox Units = iota
	UserSpaceOnUse
)

func (u Units) String() string {
	switch u {
	case ObjectBoundingBox:
		return "objectBoundingBox"
	case UserSpaceOnUse:
		return "userSpaceOnUse"
	default:
		return "<unknown Units>"
	}
}

// SpreadMethod is the type for spread parameters
type SpreadMethod byte

const (
	PadSpread SpreadMethod = iota
	ReflectSpread
	RepeatSpread
)

// Stop is one color stop of a gradient.
// Opacity is in [0, 1] and applies on top of Color.A
type Stop struct {
	Offset  float64
	Color   Color
	Opacity float64
}

// OpacityU8 returns the opacity scaled to [0, 255], rounded.
func (s Stop) OpacityU8() uint8 {
	o := s.Opacity
	if o <= 0 {
		return 0
	}
	if o >= 1 {
		return 255
	}
	return uint8(o*255 + 0.5)
}

// BaseGradient holds the data shared by linear and radial gradients.
// A zero Transform is treated as the identity.
type BaseGradient struct {
	ID        string
	Units     Units
	Transform matrix.Matrix
	Spread    SpreadMethod
	Stops     []Stop
}

// Base gives access to the shared gradient data.
func (g *BaseGradient) Base() *BaseGradient { return g }

// LinearGradient goes from (X1, Y1) to (X2, Y2).
type LinearGradient struct {
	BaseGradient
	X1, Y1, X2, Y2 float64
}

// RadialGradient is centered on (Cx, Cy), with focal point (Fx, Fy).
type RadialGradient struct {
	BaseGradient
	Cx, Cy, R, Fx, Fy float64
}

// Pattern is a tiled paint server. It is registered so that links
// to it resolve, but converters usually cannot express it.
type Pattern struct {
	ID       string
	Children []Node
}

// Def is a paint server definition: *LinearGradient, *RadialGradient or *Pattern
type Def interface {
	DefID() string
}

func (g *BaseGradient) DefID() string { return g.ID }
func (p *Pattern) DefID() string      { return p.ID }
