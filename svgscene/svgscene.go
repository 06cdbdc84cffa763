// Parses SVG documents into a resolved scene (see svg2tvgt/scene),
// ready to be converted by svg2tvgt/tvg.
//
// Only a sub-set of SVG is supported, which is
// enough for most icons and illustrations: shapes, paths,
// groups, use, switch, linear and radial gradients, and simple
// CSS style sheets.
// Text, filters, masks and clipping paths are not supported.
package svgscene

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/benoitkugler/svg2tvgt/scene"
	"golang.org/x/net/html/charset"
)

// ErrorMode sets how the parser reacts to unsupported elements
// and invalid attributes.
type ErrorMode uint8

const (
	// IgnoreErrorMode skips unsupported elements and attributes silently
	IgnoreErrorMode ErrorMode = iota
	// WarnErrorMode logs a warning for each unsupported element or invalid attribute
	WarnErrorMode
	// StrictErrorMode aborts the parsing on the first unsupported element or invalid attribute
	StrictErrorMode
)

func (m ErrorMode) String() string {
	switch m {
	case IgnoreErrorMode:
		return "ignore"
	case WarnErrorMode:
		return "warn"
	case StrictErrorMode:
		return "strict"
	default:
		return fmt.Sprintf("<unknown ErrorMode %d>", m)
	}
}

const (
	DefaultDPI = 96
	MinDPI     = 10
	MaxDPI     = 4000
)

// Options parametrize the parsing.
// The zero value is ready to use.
type Options struct {
	// DPI is used to resolve absolute units (in, cm, mm, pt, pc).
	// Zero means DefaultDPI.
	DPI float64

	// Languages is used to resolve the 'systemLanguage'
	// attribute of 'switch' children. Nil means []string{"en"}.
	Languages []string

	ErrorMode ErrorMode

	// Logger receives the warnings in WarnErrorMode.
	// If nil, warnings are discarded.
	Logger *slog.Logger
}

func (opts Options) validate() (Options, error) {
	if opts.DPI == 0 {
		opts.DPI = DefaultDPI
	}
	if !(opts.DPI >= MinDPI && opts.DPI <= MaxDPI) {
		return opts, fmt.Errorf("DPI %g out of bounds [%d, %d]", opts.DPI, MinDPI, MaxDPI)
	}
	if opts.Languages == nil {
		opts.Languages = []string{"en"}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return opts, nil
}

var (
	errNotSVG        = errors.New("invalid svg xml: missing root svg element")
	errParamMismatch = errors.New("param mismatch")
	errInvalidSize   = errors.New("invalid svg size")
)

// element is a generic node of the SVG document
type element struct {
	name     xml.Name
	attrs    []xml.Attr
	children []*element
	text     string // only for style elements
}

// attr returns the value of the attribute with local name `name`.
func (el *element) attr(name string) (string, bool) {
	for _, a := range el.attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (el *element) id() string {
	id, _ := el.attr("id")
	return id
}

// href returns the target id of a local href or xlink:href attribute.
func (el *element) href() (string, bool) {
	v, ok := el.attr("href")
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "#") {
		return "", false
	}
	return v[1:], true
}

const svgNamespace = "http://www.w3.org/2000/svg"

// isForeign returns true for elements living in a non SVG namespace,
// as the ones added by editors.
func (el *element) isForeign() bool {
	return el.name.Space != "" && el.name.Space != svgNamespace
}

// readDocument reads the XML structure of the document, and
// indexes elements by id. The first element with a given id wins.
func readDocument(stream io.Reader) (*element, map[string]*element, error) {
	decoder := xml.NewDecoder(stream)
	decoder.CharsetReader = charset.NewReaderLabel

	var (
		root  *element
		stack []*element
		ids   = make(map[string]*element)
	)
	for {
		t, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, nil, fmt.Errorf("invalid svg xml: %w", err)
		}
		switch se := t.(type) {
		case xml.StartElement:
			el := &element{name: se.Name, attrs: se.Copy().Attr}
			if len(stack) == 0 {
				if root != nil { // trailing element
					return nil, nil, errors.New("invalid svg xml: multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			}
			if id := el.id(); id != "" {
				if _, has := ids[id]; !has {
					ids[id] = el
				}
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) != 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) != 0 && stack[len(stack)-1].name.Local == "style" {
				stack[len(stack)-1].text += string(se)
			}
		}
	}
	if root == nil || root.name.Local != "svg" {
		return nil, nil, errNotSVG
	}
	return root, ids, nil
}

// Parse reads an SVG document from `stream`.
// Malformed XML or invalid root attributes return an error; the handling of
// unsupported content is controlled by `opts.ErrorMode`.
func Parse(stream io.Reader, opts Options) (*scene.Tree, error) {
	opts, err := opts.validate()
	if err != nil {
		return nil, err
	}
	root, ids, err := readDocument(stream)
	if err != nil {
		return nil, err
	}

	c := newCursor(opts, ids)
	if err := c.readStyleSheets(root); err != nil {
		return nil, err
	}
	if err := c.readRoot(root); err != nil {
		return nil, err
	}
	if err := c.readDefinitions(root); err != nil {
		return nil, err
	}
	if err := c.walkChildren(root, c.tree.Root); err != nil {
		return nil, err
	}
	return c.tree, nil
}

// ParseFile opens and parses the named SVG file.
func ParseFile(filename string, opts Options) (*scene.Tree, error) {
	fin, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fin.Close()
	return Parse(fin, opts)
}
