package svgscene

import (
	"bytes"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/benoitkugler/svg2tvgt/scene"
	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
)

var comparePaths = cmp.Comparer(func(a, b *path.Data) bool {
	if a == nil || b == nil {
		return a == b
	}
	return slices.Equal(a.Cmds, b.Cmds) && slices.Equal(a.Coords, b.Coords)
})

func mustReadDocument(t *testing.T, src string) (*element, map[string]*element) {
	t.Helper()
	root, ids, err := readDocument(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	return root, ids
}

func mustParse(t *testing.T, src string, opts Options) *scene.Tree {
	t.Helper()
	tree, err := Parse(strings.NewReader(src), opts)
	if err != nil {
		t.Fatal(err)
	}
	return tree
}

// paths returns the paths of the tree, in document order
func paths(g *scene.Group) []*scene.Path {
	var out []*scene.Path
	for _, child := range g.Children {
		switch child := child.(type) {
		case *scene.Path:
			out = append(out, child)
		case *scene.Group:
			out = append(out, paths(child)...)
		}
	}
	return out
}

func fillColor(t *testing.T, p *scene.Path) scene.Color {
	t.Helper()
	if p.Fill == nil {
		t.Fatalf("path %q is not filled", p.ID)
	}
	col, ok := p.Fill.Paint.(scene.Color)
	if !ok {
		t.Fatalf("path %q: expected a color, got %v", p.ID, p.Fill.Paint)
	}
	return col
}

var (
	red   = scene.Color{R: 0xff, A: 0xff}
	green = scene.Color{G: 0x80, A: 0xff}
	blue  = scene.Color{B: 0xff, A: 0xff}
)

func TestParseRect(t *testing.T) {
	tree := mustParse(t, `<?xml version="1.0" encoding="UTF-8"?>
	<svg xmlns="http://www.w3.org/2000/svg" width="100" height="50">
		<!-- a comment -->
		<rect id="r" x="10" y="10" width="20" height="30" fill="red"/>
	</svg>`, Options{})

	if tree.Size != (scene.Size{Width: 100, Height: 50}) {
		t.Fatalf("unexpected size %v", tree.Size)
	}
	wantVB := scene.ViewBox{Rect: rect.Rect{URx: 100, URy: 50}, Aspect: scene.AspectRatio{Align: scene.XMidYMid}}
	if tree.ViewBox != wantVB {
		t.Fatalf("unexpected view box %v", tree.ViewBox)
	}
	want := []scene.Node{
		&scene.Path{ID: "r", Data: rectPath(10, 10, 20, 30), Fill: &scene.Fill{Paint: red}},
	}
	if diff := cmp.Diff(want, tree.Root.Children, comparePaths); diff != "" {
		t.Fatalf("unexpected nodes (-want +got):\n%s", diff)
	}
}

func TestParseShapes(t *testing.T) {
	tree := mustParse(t, `<svg xmlns="http://www.w3.org/2000/svg" width="100" height="100">
		<rect width="10" height="10" rx="2"/>
		<rect width="0" height="10"/>
		<circle cx="5" cy="5" r="5"/>
		<circle r="-1"/>
		<ellipse cx="5" cy="5" rx="5"/>
		<line x1="0" y1="0" x2="10" y2="10" stroke="blue"/>
		<polyline points="0,0 10,0 10,10"/>
		<polygon points="0,0 10,0 10,10"/>
		<polygon points="0,0"/>
		<path d="M0 0 L 10 10"/>
		<path/>
	</svg>`, Options{})

	ps := paths(tree.Root)
	if len(ps) != 7 {
		t.Fatalf("expected 7 paths, got %d", len(ps))
	}
	// line are never filled
	if line := ps[3]; line.Fill != nil || line.Stroke == nil || line.Stroke.Width != 1 {
		t.Fatalf("unexpected line style %v %v", line.Fill, line.Stroke)
	}
	if polygon := ps[5]; polygon.Data.Cmds[len(polygon.Data.Cmds)-1] != path.CmdClose {
		t.Fatalf("polygon is not closed: %v", polygon.Data.Cmds)
	}
	if polyline := ps[4]; polyline.Data.Cmds[len(polyline.Data.Cmds)-1] == path.CmdClose {
		t.Fatalf("polyline is closed: %v", polyline.Data.Cmds)
	}
}

func TestRootSize(t *testing.T) {
	for _, test := range []struct {
		attrs string
		size  scene.Size
		vb    rect.Rect
	}{
		{`width="2in" height="50%" viewBox="0 0 20 10"`, scene.Size{Width: 192, Height: 5}, rect.Rect{URx: 20, URy: 10}},
		{`viewBox="5 5 20 10"`, scene.Size{Width: 20, Height: 10}, rect.Rect{LLx: 5, LLy: 5, URx: 25, URy: 15}},
		{``, scene.Size{Width: 100, Height: 100}, rect.Rect{URx: 100, URy: 100}},
		{`width="30" viewBox="0,0,-1,10"`, scene.Size{Width: 30, Height: 100}, rect.Rect{URx: 30, URy: 100}},
	} {
		tree := mustParse(t, "<svg "+test.attrs+"/>", Options{})
		if tree.Size != test.size {
			t.Errorf("%s: expected size %v, got %v", test.attrs, test.size, tree.Size)
		}
		if tree.ViewBox.Rect != test.vb {
			t.Errorf("%s: expected view box %v, got %v", test.attrs, test.vb, tree.ViewBox.Rect)
		}
	}

	for _, attrs := range []string{`width="-1"`, `height="0"`, `width="abc"`} {
		_, err := Parse(strings.NewReader("<svg "+attrs+"/>"), Options{})
		if !errors.Is(err, errInvalidSize) {
			t.Errorf("%s: expected invalid size error, got %v", attrs, err)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, src := range []string{
		"",
		"<html></html>",
		"<svg><rect></svg>",
		"<svg/><svg/>",
	} {
		if _, err := Parse(strings.NewReader(src), Options{}); err == nil {
			t.Errorf("%q: expected error", src)
		}
	}

	if _, err := Parse(strings.NewReader("<svg/>"), Options{DPI: 5}); err == nil {
		t.Error("expected error for DPI out of bounds")
	}
	if _, err := Parse(strings.NewReader("<svg/>"), Options{DPI: MaxDPI}); err != nil {
		t.Error(err)
	}
}

func TestCharset(t *testing.T) {
	src := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><svg width=\"10\" height=\"10\"><g id=\"caf\xe9\"/></svg>"
	tree := mustParse(t, src, Options{})
	if id := tree.Root.Children[0].(*scene.Group).ID; id != "café" {
		t.Fatalf("unexpected id %q", id)
	}
}

func TestStyleInheritance(t *testing.T) {
	tree := mustParse(t, `<svg xmlns="http://www.w3.org/2000/svg">
		<g fill="blue" stroke="red" stroke-width="2" opacity="0.5">
			<rect width="10" height="10" style="fill-opacity:0.5"/>
			<rect width="10" height="10" fill="none" stroke="inherit" opacity="0.5"/>
			<rect width="10" height="10" color="lime" fill="currentColor" stroke="none"/>
		</g>
		<rect width="10" height="10" display="none"/>
		<rect width="10" height="10" stroke-width="0" stroke="red"/>
	</svg>`, Options{})

	ps := paths(tree.Root)
	if len(ps) != 4 {
		t.Fatalf("expected 4 paths, got %d", len(ps))
	}

	if col := fillColor(t, ps[0]); col != (scene.Color{B: 0xff, A: 64}) {
		t.Errorf("unexpected fill %v", col)
	}
	want := &scene.Stroke{Paint: scene.Color{R: 0xff, A: 128}, Width: 2}
	if diff := cmp.Diff(want, ps[0].Stroke); diff != "" {
		t.Errorf("unexpected stroke (-want +got):\n%s", diff)
	}

	if ps[1].Fill != nil {
		t.Errorf("unexpected fill %v", ps[1].Fill)
	}
	// opacities of nested elements are multiplied
	want = &scene.Stroke{Paint: scene.Color{R: 0xff, A: 64}, Width: 2}
	if diff := cmp.Diff(want, ps[1].Stroke); diff != "" {
		t.Errorf("unexpected stroke (-want +got):\n%s", diff)
	}

	if col := fillColor(t, ps[2]); col != (scene.Color{G: 0xff, A: 128}) {
		t.Errorf("unexpected fill %v", col)
	}
	if ps[2].Stroke != nil {
		t.Errorf("unexpected stroke %v", ps[2].Stroke)
	}

	if col := fillColor(t, ps[3]); col != scene.Black || ps[3].Stroke != nil {
		t.Errorf("unexpected style %v %v", col, ps[3].Stroke)
	}
}

func TestVisibility(t *testing.T) {
	tree := mustParse(t, `<svg xmlns="http://www.w3.org/2000/svg">
		<rect id="a" width="10" height="10" visibility="hidden"/>
		<rect id="b" width="10" height="10" style="visibility:collapse"/>
		<g visibility="hidden">
			<rect id="c" width="10" height="10"/>
			<rect id="d" width="10" height="10" visibility="visible"/>
		</g>
		<rect id="e" width="10" height="10" visibility="visible"/>
	</svg>`, Options{})

	var ids []string
	for _, p := range paths(tree.Root) {
		ids = append(ids, p.ID)
	}
	if diff := cmp.Diff([]string{"d", "e"}, ids); diff != "" {
		t.Fatalf("unexpected visible paths (-want +got):\n%s", diff)
	}
}

func TestStyleSheetQuotes(t *testing.T) {
	tree := mustParse(t, `<svg xmlns="http://www.w3.org/2000/svg">
		<style>rect{font-family:"a}b";fill:red} circle { content: "/*"; fill: blue }</style>
		<rect width="1" height="1"/>
		<circle r="1"/>
	</svg>`, Options{ErrorMode: StrictErrorMode})

	ps := paths(tree.Root)
	if len(ps) != 2 {
		t.Fatalf("expected 2 paths, got %d", len(ps))
	}
	for i, want := range []scene.Color{red, blue} {
		if col := fillColor(t, ps[i]); col != want {
			t.Errorf("path %d: expected %v, got %v", i, want, col)
		}
	}
}

func TestStyleSheet(t *testing.T) {
	tree := mustParse(t, `<svg xmlns="http://www.w3.org/2000/svg">
		<style type="text/css"><![CDATA[
			/* comment */
			@import url(other.css);
			.a { fill: green }
			#b { fill: blue }
			rect { fill: red; stroke: red }
			@media print { rect { fill: black } }
			g > rect { fill: black }
		]]></style>
		<rect class="a" width="1" height="1"/>
		<rect id="b" class="a" fill="yellow" width="1" height="1"/>
		<rect width="1" height="1"/>
		<rect class="other a" style="fill:black" width="1" height="1"/>
	</svg>`, Options{})

	ps := paths(tree.Root)
	if len(ps) != 4 {
		t.Fatalf("expected 4 paths, got %d", len(ps))
	}
	for i, want := range []scene.Color{green, blue, red, scene.Black} {
		if col := fillColor(t, ps[i]); col != want {
			t.Errorf("path %d: expected %v, got %v", i, want, col)
		}
		if ps[i].Stroke == nil {
			t.Errorf("path %d: missing stroke", i)
		}
	}

	_, err := Parse(strings.NewReader(`<svg><style>g > rect { fill: black }</style></svg>`), Options{ErrorMode: StrictErrorMode})
	if err == nil {
		t.Fatal("expected error for unsupported selector")
	}
}

func TestTransforms(t *testing.T) {
	tree := mustParse(t, `<svg xmlns="http://www.w3.org/2000/svg">
		<rect transform="translate(5 5)" width="1" height="1"/>
		<rect transform="scale(0)" width="1" height="1"/>
		<g transform="scale(2)"><rect width="1" height="1"/></g>
		<g transform="matrix(0 0 0 0 0 0)"><rect width="1" height="1"/></g>
	</svg>`, Options{})

	if len(tree.Root.Children) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(tree.Root.Children))
	}
	g := tree.Root.Children[0].(*scene.Group)
	if g.Transform != (matrix.Matrix{1, 0, 0, 1, 5, 5}) || len(g.Children) != 1 {
		t.Fatalf("unexpected wrapping group %v", g)
	}
	g = tree.Root.Children[1].(*scene.Group)
	if g.Transform != (matrix.Matrix{2, 0, 0, 2, 0, 0}) || len(g.Children) != 1 {
		t.Fatalf("unexpected group %v", g)
	}
}

func TestNestedSVG(t *testing.T) {
	tree := mustParse(t, `<svg xmlns="http://www.w3.org/2000/svg" width="100" height="100">
		<svg x="10" y="20" width="50" height="50" viewBox="0 0 10 10">
			<rect width="100%" height="1"/>
		</svg>
	</svg>`, Options{})

	g := tree.Root.Children[0].(*scene.Group)
	if g.Transform != (matrix.Matrix{5, 0, 0, 5, 10, 20}) {
		t.Fatalf("unexpected transform %v", g.Transform)
	}
	// percentages are relative to the nested view box
	p := g.Children[0].(*scene.Path)
	if diff := cmp.Diff(rectPath(0, 0, 10, 1), p.Data, comparePaths); diff != "" {
		t.Fatalf("unexpected path (-want +got):\n%s", diff)
	}
}

func TestUse(t *testing.T) {
	tree := mustParse(t, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink">
		<defs>
			<rect id="r" width="10" height="10"/>
			<symbol id="s" viewBox="0 0 1 1"><rect width="1" height="1"/></symbol>
		</defs>
		<use id="u" xlink:href="#r" x="5" y="6" fill="red"/>
		<use href="#s" width="20" height="20"/>
		<use href="#unknown"/>
	</svg>`, Options{})

	if len(tree.Root.Children) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(tree.Root.Children))
	}
	g := tree.Root.Children[0].(*scene.Group)
	if g.ID != "u" || g.Transform != (matrix.Matrix{1, 0, 0, 1, 5, 6}) {
		t.Fatalf("unexpected use group %v", g)
	}
	if col := fillColor(t, g.Children[0].(*scene.Path)); col != red {
		t.Fatalf("style not inherited from use: %v", col)
	}

	g = tree.Root.Children[1].(*scene.Group)
	if g.Transform != (matrix.Matrix{20, 0, 0, 20, 0, 0}) {
		t.Fatalf("unexpected symbol transform %v", g.Transform)
	}

	_, err := Parse(strings.NewReader(`<svg><g id="a"><use href="#a"/></g></svg>`), Options{ErrorMode: StrictErrorMode})
	if err == nil || !strings.Contains(err.Error(), "recursive") {
		t.Fatalf("expected recursion error, got %v", err)
	}
}

func TestSwitch(t *testing.T) {
	const src = `<svg xmlns="http://www.w3.org/2000/svg">
		<switch>
			<foreignObject/>
			<rect systemLanguage="en-US" fill="red" width="1" height="1"/>
			<rect systemLanguage="fr-CA, de" fill="blue" width="1" height="1"/>
			<rect fill="green" width="1" height="1"/>
		</switch>
	</svg>`
	for _, test := range []struct {
		languages []string
		want      scene.Color
	}{
		{nil, red},
		{[]string{"fr"}, blue},
		{[]string{"ja"}, green},
	} {
		ps := paths(mustParse(t, src, Options{Languages: test.languages}).Root)
		if len(ps) != 1 {
			t.Fatalf("expected one path, got %d", len(ps))
		}
		if col := fillColor(t, ps[0]); col != test.want {
			t.Errorf("%v: expected %v, got %v", test.languages, test.want, col)
		}
	}
}

func TestErrorModes(t *testing.T) {
	const src = `<svg xmlns="http://www.w3.org/2000/svg" xmlns:inkscape="http://www.inkscape.org/namespaces/inkscape">
		<inkscape:grid/>
		<text>Hello</text>
		<rect width="1" height="1" fill="nocolor"/>
	</svg>`

	tree := mustParse(t, src, Options{})
	ps := paths(tree.Root)
	if len(ps) != 1 || fillColor(t, ps[0]) != scene.Black {
		t.Fatalf("unexpected paths %v", ps)
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	mustParse(t, src, Options{ErrorMode: WarnErrorMode, Logger: logger})
	logs := buf.String()
	if !strings.Contains(logs, "cannot process svg element text") || !strings.Contains(logs, "nocolor") {
		t.Fatalf("missing warnings in %q", logs)
	}
	if strings.Contains(logs, "grid") {
		t.Fatalf("foreign elements should be ignored: %q", logs)
	}

	_, err := Parse(strings.NewReader(src), Options{ErrorMode: StrictErrorMode})
	if err == nil || !strings.Contains(err.Error(), "text") {
		t.Fatalf("expected error, got %v", err)
	}
}

func TestInvalidPathData(t *testing.T) {
	tree := mustParse(t, `<svg><path d="M 0 0 L 10 10 L 5"/></svg>`, Options{})
	ps := paths(tree.Root)
	if len(ps) != 1 || len(ps[0].Data.Cmds) != 2 {
		t.Fatalf("expected the partial path, got %v", ps)
	}
	if _, err := Parse(strings.NewReader(`<svg><path d="M 0 0 L 10 10 L 5"/></svg>`), Options{ErrorMode: StrictErrorMode}); err == nil {
		t.Fatal("expected error")
	}
}

func TestGradients(t *testing.T) {
	tree := mustParse(t, `<svg xmlns="http://www.w3.org/2000/svg" width="200" height="100">
		<defs>
			<linearGradient id="g" x2="0" y2="1" spreadMethod="reflect">
				<stop offset="0" stop-color="red"/>
				<stop offset="50%" style="stop-color:blue; stop-opacity:0.5"/>
				<stop offset="0.2" stop-color="lime"/>
			</linearGradient>
			<linearGradient id="h" href="#g" gradientUnits="userSpaceOnUse" x1="10" gradientTransform="scale(2)"/>
			<radialGradient id="rad" href="#g" fx="10%"/>
			<radialGradient id="one"><stop stop-color="lime"/></radialGradient>
			<linearGradient id="none"/>
		</defs>
		<rect id="r1" width="1" height="1" fill="url(#one)"/>
		<rect id="r2" width="1" height="1" fill="url(#none)"/>
		<rect id="r3" width="1" height="1" fill="url(#missing) red"/>
		<rect id="r4" width="1" height="1" fill="url(#missing)"/>
		<rect id="r5" width="1" height="1" fill="url(#g)" fill-opacity="0.5"/>
		<rect id="r6" width="1" height="1" fill="url(#h)"/>
	</svg>`, Options{})

	stops := []scene.Stop{
		{Offset: 0, Color: red, Opacity: 1},
		{Offset: 0.5, Color: blue, Opacity: 0.5},
		{Offset: 0.5, Color: scene.Color{G: 0xff, A: 0xff}, Opacity: 1},
	}
	wantG := &scene.LinearGradient{
		BaseGradient: scene.BaseGradient{ID: "g", Transform: matrix.Identity, Spread: scene.ReflectSpread, Stops: stops},
		X2:           0, Y2: 1,
	}
	if diff := cmp.Diff(wantG, tree.Defs["g"]); diff != "" {
		t.Errorf("unexpected gradient (-want +got):\n%s", diff)
	}
	wantH := &scene.LinearGradient{
		BaseGradient: scene.BaseGradient{ID: "h", Units: scene.UserSpaceOnUse, Transform: matrix.Matrix{2, 0, 0, 2, 0, 0}, Spread: scene.ReflectSpread, Stops: stops},
		X1:           10, X2: 0, Y2: 1,
	}
	if diff := cmp.Diff(wantH, tree.Defs["h"]); diff != "" {
		t.Errorf("unexpected gradient (-want +got):\n%s", diff)
	}
	// geometry is not inherited from linear gradients
	wantRad := &scene.RadialGradient{
		BaseGradient: scene.BaseGradient{ID: "rad", Transform: matrix.Identity, Spread: scene.ReflectSpread, Stops: stops},
		Cx:           0.5, Cy: 0.5, R: 0.5, Fx: 0.1, Fy: 0.5,
	}
	if diff := cmp.Diff(wantRad, tree.Defs["rad"]); diff != "" {
		t.Errorf("unexpected gradient (-want +got):\n%s", diff)
	}

	ps := paths(tree.Root)
	if len(ps) != 6 {
		t.Fatalf("expected 6 paths, got %d", len(ps))
	}
	if col := fillColor(t, ps[0]); col != (scene.Color{G: 0xff, A: 0xff}) {
		t.Errorf("single stop gradient: unexpected color %v", col)
	}
	if ps[1].Fill != nil || ps[3].Fill != nil {
		t.Errorf("expected no fill, got %v %v", ps[1].Fill, ps[3].Fill)
	}
	if col := fillColor(t, ps[2]); col != red {
		t.Errorf("fallback: unexpected color %v", col)
	}

	link, ok := ps[4].Fill.Paint.(scene.Link)
	if !ok || link != "g@0.5" {
		t.Fatalf("unexpected paint %v", ps[4].Fill.Paint)
	}
	faded := tree.Defs[string(link)].(*scene.LinearGradient)
	if faded.Stops[0].Opacity != 0.5 || faded.Stops[1].Opacity != 0.25 || tree.Defs["g"].(*scene.LinearGradient).Stops[0].Opacity != 1 {
		t.Errorf("unexpected faded stops %v", faded.Stops)
	}
	if ps[5].Fill.Paint != scene.Link("h") {
		t.Errorf("unexpected paint %v", ps[5].Fill.Paint)
	}
}

func TestDegenerateGradientTransform(t *testing.T) {
	tree := mustParse(t, `<svg xmlns="http://www.w3.org/2000/svg">
		<linearGradient id="g" gradientTransform="scale(0)">
			<stop offset="0" stop-color="red"/>
			<stop offset="1" stop-color="blue"/>
		</linearGradient>
		<rect width="1" height="1" fill="url(#g)" stroke="url(#g)"/>
	</svg>`, Options{})

	ps := paths(tree.Root)
	if len(ps) != 1 {
		t.Fatalf("expected 1 path, got %d", len(ps))
	}
	if ps[0].Fill != nil || ps[0].Stroke != nil {
		t.Fatalf("expected no paint, got %v %v", ps[0].Fill, ps[0].Stroke)
	}
}

func TestPattern(t *testing.T) {
	tree := mustParse(t, `<svg xmlns="http://www.w3.org/2000/svg">
		<pattern id="p" width="2" height="2"><rect width="1" height="1"/></pattern>
		<rect width="10" height="10" fill="url(#p)"/>
	</svg>`, Options{})

	pattern, ok := tree.Defs["p"].(*scene.Pattern)
	if !ok || len(pattern.Children) != 1 {
		t.Fatalf("unexpected pattern %v", tree.Defs["p"])
	}
	ps := paths(tree.Root)
	if len(ps) != 1 || ps[0].Fill.Paint != scene.Link("p") {
		t.Fatalf("unexpected paths %v", ps)
	}
}

func TestImage(t *testing.T) {
	tree := mustParse(t, `<svg xmlns="http://www.w3.org/2000/svg">
		<image x="1" y="2" width="3" height="4" href="data:image/png;base64,AAAA"/>
		<image width="3" height="4"/>
	</svg>`, Options{})
	want := []scene.Node{
		&scene.Image{View: rect.Rect{LLx: 1, LLy: 2, URx: 4, URy: 6}, Href: "data:image/png;base64,AAAA"},
	}
	if diff := cmp.Diff(want, tree.Root.Children); diff != "" {
		t.Fatalf("unexpected nodes (-want +got):\n%s", diff)
	}
}
