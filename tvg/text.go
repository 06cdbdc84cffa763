package tvg

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"seehuhn.de/go/geom/path"
)

// Text returns the TinyVG text representation of the document.
func (doc *Document) Text() string {
	var sb strings.Builder
	_ = doc.WriteText(&sb) // strings.Builder never fails
	return sb.String()
}

// WriteText writes the TinyVG text representation of the document
// to `w`. The only possible errors come from `w`.
func (doc *Document) WriteText(w io.Writer) error {
	tw := textWriter{w: bufio.NewWriter(w)}
	tw.document(doc)
	return tw.w.Flush()
}

// textWriter wraps a bufio.Writer, whose errors are sticky
// and reported by Flush.
type textWriter struct {
	w *bufio.Writer
}

func (tw textWriter) line(indent int, s string) {
	for i := 0; i < indent; i++ {
		tw.w.WriteString("  ")
	}
	tw.w.WriteString(s)
	tw.w.WriteByte('\n')
}

func (tw textWriter) linef(indent int, format string, args ...interface{}) {
	tw.line(indent, fmt.Sprintf(format, args...))
}

func (tw textWriter) document(doc *Document) {
	tw.line(0, "(tvg 1")
	tw.linef(1, "(%d %d 1/%d %s %s)", doc.Width, doc.Height, doc.Scale, doc.ColorEncoding, doc.CoordinateRange)

	tw.line(1, "(")
	for _, c := range doc.Colors {
		tw.linef(2, "(%.3f %.3f %.3f %.3f)", channel(c.R), channel(c.G), channel(c.B), channel(c.A))
	}
	tw.line(1, ")")

	tw.line(1, "(")
	for _, cmd := range doc.Commands {
		tw.command(cmd)
	}
	tw.line(1, ")")
	tw.line(0, ")")
}

func channel(v uint8) float32 { return float32(v) / 255 }

func (tw textWriter) command(cmd Command) {
	tw.line(2, "(")
	switch cmd := cmd.(type) {
	case DrawLinePath:
		tw.line(3, "draw_line_path")
		tw.style(cmd.Stroke)
		tw.line(3, fmt32(cmd.LineWidth))
	case FillPath:
		tw.line(3, "fill_path")
		tw.style(cmd.Fill)
	case OutlineFillPath:
		tw.line(3, "outline_fill_path")
		tw.style(cmd.Fill)
		tw.style(cmd.Stroke)
		tw.line(3, fmt32(cmd.LineWidth))
	default:
		panic(fmt.Sprintf("tvg: unexpected command type %T", cmd))
	}
	tw.path(cmd.Path())
	tw.line(2, ")")
}

func (tw textWriter) style(s Style) {
	switch s := s.(type) {
	case Flat:
		tw.linef(3, "(flat %d)", s.Color)
	case LinearGradient:
		tw.linef(3, "(linear (%s %s) (%s %s) %d %d)",
			fmt32(s.X1), fmt32(s.Y1), fmt32(s.X2), fmt32(s.Y2), s.Color1, s.Color2)
	case RadialGradient:
		tw.linef(3, "(radial (%s %s) (%s %s) %d %d)",
			fmt32(s.X1), fmt32(s.Y1), fmt32(s.X2), fmt32(s.Y2), s.Color1, s.Color2)
	default:
		panic(fmt.Sprintf("tvg: unexpected style type %T", s))
	}
}

// path writes one block per sub path, each opened by its
// starting point.
func (tw textWriter) path(p *path.Data) {
	tw.line(3, "(")
	isOpen := false
	if p != nil {
		coordIdx := 0
		for _, cmd := range p.Cmds {
			switch cmd {
			case path.CmdMoveTo:
				if isOpen {
					tw.line(4, ")")
				}
				pt := p.Coords[coordIdx]
				tw.linef(4, "(%s %s)", fmt64(pt.X), fmt64(pt.Y))
				tw.line(4, "(")
				isOpen = true
				coordIdx++
			case path.CmdLineTo:
				pt := p.Coords[coordIdx]
				tw.linef(5, "(line - %s %s)", fmt64(pt.X), fmt64(pt.Y))
				coordIdx++
			case path.CmdQuadTo:
				// converted paths never contain quadratic segments
				panic("tvg: unexpected quadratic segment")
			case path.CmdCubeTo:
				c1, c2, pt := p.Coords[coordIdx], p.Coords[coordIdx+1], p.Coords[coordIdx+2]
				tw.linef(5, "(bezier - (%s %s) (%s %s) (%s %s))",
					fmt64(c1.X), fmt64(c1.Y), fmt64(c2.X), fmt64(c2.Y), fmt64(pt.X), fmt64(pt.Y))
				coordIdx += 3
			case path.CmdClose:
				tw.line(5, "(close -)")
			}
		}
	}
	if isOpen {
		tw.line(4, ")")
	}
	tw.line(3, ")")
}

// shortest representation, never using exponents
func fmt64(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func fmt32(v float32) string { return strconv.FormatFloat(float64(v), 'f', -1, 32) }
