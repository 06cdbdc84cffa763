package tvg

import (
	"bytes"
	"errors"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/path"
)

func TestWriteText(t *testing.T) {
	curve := (&path.Data{}).
		MoveTo(pt(0, 0.5)).
		CubeTo(pt(1, 2), pt(3, 4), pt(5, 6)).
		Close().
		MoveTo(pt(10, 10)).
		LineTo(pt(12.25, 10))

	doc := Document{
		Width: 64, Height: 32, Scale: 1,
		Colors: []color.NRGBA{{R: 0xff, A: 0xff}, {G: 0x80, B: 0xff, A: 0x40}},
		Commands: []Command{
			FillPath{Fill: Flat{1}, Data: square(0, 0, 10)},
			OutlineFillPath{
				Fill:      LinearGradient{X1: 0, Y1: 0, X2: 1.5, Y2: 2, Color1: 0, Color2: 1},
				Stroke:    Flat{0},
				LineWidth: 0.5,
				Data:      curve,
			},
			DrawLinePath{
				Stroke:    RadialGradient{X1: 5, Y1: 5, X2: 5, Y2: 10, Color1: 1, Color2: 0},
				LineWidth: 2,
				Data:      (&path.Data{}).MoveTo(pt(-1, 0)).LineTo(pt(1, 0)),
			},
		},
	}

	want := `(tvg 1
  (64 32 1/1 u8888 default)
  (
    (1.000 0.000 0.000 1.000)
    (0.000 0.502 1.000 0.251)
  )
  (
    (
      fill_path
      (flat 1)
      (
        (0 0)
        (
          (line - 10 0)
          (line - 10 10)
          (line - 0 10)
          (close -)
        )
      )
    )
    (
      outline_fill_path
      (linear (0 0) (1.5 2) 0 1)
      (flat 0)
      0.5
      (
        (0 0.5)
        (
          (bezier - (1 2) (3 4) (5 6))
          (close -)
        )
        (10 10)
        (
          (line - 12.25 10)
        )
      )
    )
    (
      draw_line_path
      (radial (5 5) (5 10) 1 0)
      2
      (
        (-1 0)
        (
          (line - 1 0)
        )
      )
    )
  )
)
`
	if diff := cmp.Diff(want, doc.Text()); diff != "" {
		t.Fatalf("unexpected text (-want +got):\n%s", diff)
	}
}

func TestWriteTextEmpty(t *testing.T) {
	doc := Document{Width: 1, Height: 2, Scale: 1}
	want := "(tvg 1\n  (1 2 1/1 u8888 default)\n  (\n  )\n  (\n  )\n)\n"
	if got := doc.Text(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

type failingWriter struct{}

var errWrite = errors.New("write failed")

func (failingWriter) Write([]byte) (int, error) { return 0, errWrite }

func TestWriteTextError(t *testing.T) {
	doc := Document{Width: 1, Height: 1, Scale: 1}
	if err := doc.WriteText(failingWriter{}); !errors.Is(err, errWrite) {
		t.Fatalf("expected write error, got %v", err)
	}

	var buf bytes.Buffer
	if err := doc.WriteText(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != doc.Text() {
		t.Fatal("WriteText and Text disagree")
	}
}
