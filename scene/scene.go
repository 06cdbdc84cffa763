// Describes an already resolved vector scene: a tree of groups
// and paths with their final fills, strokes and transforms,
// plus the paint server definitions they reference.
// Front ends (see svg2tvgt/svgscene) produce it, converters
// (see svg2tvgt/tvg) consume it.
package scene

import (
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
)

// Size is the declared canvas size, in user units.
type Size struct{ Width, Height float64 }

// ViewBox maps the user coordinate system onto the canvas.
type ViewBox struct {
	Rect   rect.Rect
	Aspect AspectRatio
}

// Tree is the root of a scene.
type Tree struct {
	Size    Size
	ViewBox ViewBox
	Root    *Group
	Defs    map[string]Def
}

// NewTree returns an empty tree with an identity root group.
func NewTree(width, height float64) *Tree {
	return &Tree{
		Size:    Size{Width: width, Height: height},
		ViewBox: ViewBox{Rect: rect.Rect{URx: width, URy: height}},
		Root:    &Group{Transform: matrix.Identity},
		Defs:    make(map[string]Def),
	}
}

// DefByID returns the definition registered under `id`.
func (t *Tree) DefByID(id string) (Def, bool) {
	d, ok := t.Defs[id]
	return d, ok
}

// AddDef registers `d` under its identifier, replacing
// any previous definition with the same id.
func (t *Tree) AddDef(d Def) {
	if t.Defs == nil {
		t.Defs = make(map[string]Def)
	}
	t.Defs[d.DefID()] = d
}

// Node is one element of the tree: *Group, *Path or *Image
type Node interface {
	isNode()
}

// Group is a structural node. A zero Transform is treated
// as the identity.
type Group struct {
	ID        string
	Transform matrix.Matrix
	Children  []Node
}

// Append adds children at the end of the group.
func (g *Group) Append(children ...Node) { g.Children = append(g.Children, children...) }

// Path is a drawable geometry, in the user units of
// its parent group.
// A nil Fill or Stroke means the path is not filled (resp. stroked).
type Path struct {
	ID     string
	Data   *path.Data
	Fill   *Fill
	Stroke *Stroke
}

// Image is a raster image reference. Converters are free to skip it.
type Image struct {
	ID   string
	View rect.Rect
	Href string
}

func (*Group) isNode() {}
func (*Path) isNode()  {}
func (*Image) isNode() {}

// Fill describes how the interior of a path is painted.
type Fill struct {
	Paint Paint
}

// Stroke describes how the outline of a path is painted.
type Stroke struct {
	Paint Paint
	Width float64
}

// Paint is either a Color or a Link to a definition.
type Paint interface {
	isPaint()
}

// Color is a non premultiplied RGBA color.
type Color struct{ R, G, B, A uint8 }

// Link references a paint server definition by id.
type Link string

func (Color) isPaint() {}
func (Link) isPaint()  {}

// Black is the initial fill color of SVG.
var Black = Color{A: 0xff}
