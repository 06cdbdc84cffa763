// Command svg2tvgt converts SVG files to the TinyVG text format.
//
// Usage:
//
//	svg2tvgt [OPTIONS] <in-svg> <out-tvg>   from file to file
//	svg2tvgt [OPTIONS] <in-svg> -c          from file to stdout
//	svg2tvgt [OPTIONS] - <out-tvg>          from stdin to file
//	svg2tvgt [OPTIONS] - -c                 from stdin to stdout
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/benoitkugler/svg2tvgt/svgscene"
	"github.com/benoitkugler/svg2tvgt/tvg"
	"github.com/benoitkugler/svg2tvgt/tvgraster"
)

const version = "0.1.0"

const usage = `svg2tvgt - an SVG to TinyVG converter.

USAGE:
  svg2tvgt [OPTIONS] <in-svg> <out-tvg>  # from file to file
  svg2tvgt [OPTIONS] <in-svg> -c         # from file to stdout
  svg2tvgt [OPTIONS] - <out-tvg>         # from stdin to file
  svg2tvgt [OPTIONS] - -c                # from stdin to stdout

OPTIONS (accepted before or after the files):
`

func main() {
	err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s.\n", err)
		os.Exit(1)
	}
}

type args struct {
	dpi       int
	languages []string
	quiet     bool
	preview   string

	input  string // "-" for stdin
	output string // "-c" for stdout
}

func parseArgs(arguments []string, stdout, stderr io.Writer) (args, error) {
	var (
		out       args
		languages string
		showVer   bool
	)
	fs := flag.NewFlagSet("svg2tvgt", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&out.dpi, "dpi", svgscene.DefaultDPI, "resolution used to resolve absolute units [10..4000]")
	fs.StringVar(&languages, "languages", "en", "comma-separated list of languages used to resolve 'systemLanguage'")
	fs.BoolVar(&out.quiet, "quiet", false, "disable warnings")
	fs.StringVar(&out.preview, "preview", "", "also write a PNG preview of the output to this file")
	fs.BoolVar(&showVer, "version", false, "print version information")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	positional, err := parseInterleaved(fs, arguments)
	if err != nil {
		return out, err
	}

	if showVer {
		fmt.Fprintln(stdout, version)
		return out, flag.ErrHelp
	}
	if out.dpi < svgscene.MinDPI || out.dpi > svgscene.MaxDPI {
		return out, errors.New("DPI out of bounds")
	}
	for _, lang := range strings.Split(languages, ",") {
		if lang = strings.TrimSpace(lang); lang != "" {
			out.languages = append(out.languages, lang)
		}
	}
	if len(out.languages) == 0 {
		return out, errors.New("languages list cannot be empty")
	}

	switch len(positional) {
	case 0:
		return out, errors.New("missing input")
	case 1:
		return out, errors.New("missing output")
	case 2:
	default:
		return out, fmt.Errorf("unexpected argument %q", positional[2])
	}
	out.input, out.output = positional[0], positional[1]
	return out, nil
}

// parseInterleaved parses the flags found anywhere in `arguments`, and
// returns the other arguments. The "-c" output marker is only
// accepted after the input.
func parseInterleaved(fs *flag.FlagSet, arguments []string) ([]string, error) {
	var positional []string
	for len(arguments) != 0 {
		if arguments[0] == "-c" {
			if len(positional) == 0 {
				return nil, errors.New("-c should be set after input")
			}
			positional = append(positional, "-c")
			arguments = arguments[1:]
			continue
		}
		end := len(arguments)
		for i, arg := range arguments {
			if arg == "-c" {
				end = i
				break
			}
		}
		if err := fs.Parse(arguments[:end]); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) != 0 { // flag stops at the first non flag argument
			positional = append(positional, rest[0])
			rest = rest[1:]
		}
		arguments = append(append([]string(nil), rest...), arguments[end:]...)
	}
	return positional, nil
}

// run executes the command with the given arguments (without the program name).
func run(arguments []string, stdin io.Reader, stdout, stderr io.Writer) error {
	a, err := parseArgs(arguments, stdout, stderr)
	if err != nil {
		return err
	}

	opts := svgscene.Options{DPI: float64(a.dpi), Languages: a.languages}
	var logger *slog.Logger
	if !a.quiet {
		logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		opts.ErrorMode = svgscene.WarnErrorMode
		opts.Logger = logger
	}

	var input io.Reader
	if a.input == "-" {
		input = stdin
	} else {
		f, err := os.Open(a.input)
		if err != nil {
			return err
		}
		defer f.Close()
		input = f
	}
	data, err := io.ReadAll(input)
	if err != nil {
		if a.input == "-" {
			return errors.New("failed to read from stdin")
		}
		return err
	}

	tree, err := svgscene.Parse(bytes.NewReader(data), opts)
	if err != nil {
		return err
	}
	doc := tvg.Convert(tree, tvg.Options{Logger: logger})

	if a.output == "-c" {
		if err := doc.WriteText(stdout); err != nil {
			return errors.New("failed to write to the stdout")
		}
	} else {
		if err := writeFile(a.output, doc); err != nil {
			return err
		}
	}

	if a.preview != "" {
		if err := writePreview(a.preview, doc); err != nil {
			return fmt.Errorf("failed to write the preview: %w", err)
		}
	}
	return nil
}

func writeFile(name string, doc *tvg.Document) error {
	f, err := os.Create(name)
	if err != nil {
		return errors.New("failed to create the output file")
	}
	if err := doc.WriteText(f); err != nil {
		f.Close()
		return errors.New("failed to write to the output file")
	}
	if err := f.Close(); err != nil {
		return errors.New("failed to write to the output file")
	}
	return nil
}

func writePreview(name string, doc *tvg.Document) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := tvgraster.WritePNG(f, doc, 1); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
