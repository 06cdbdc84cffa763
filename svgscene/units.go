package svgscene

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type percentKind uint8

const (
	widthPercentage percentKind = iota
	heightPercentage
	diagPercentage
)

// scanNumber reads the number at the start of `s`, and returns
// the number of bytes consumed, or 0 if `s` does not start with a number.
func scanNumber(s string) (float64, int) {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && '0' <= s[i] && s[i] <= '9' {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && '0' <= s[i] && s[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, 0
	}
	// only accept an exponent followed by digits, so that "1em" is not consumed
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && '0' <= s[j] && s[j] <= '9' {
			for j < len(s) && '0' <= s[j] && s[j] <= '9' {
				j++
			}
			i = j
		}
	}
	f, err := strconv.ParseFloat(s[:i], 64)
	if err != nil { // out of range
		return 0, 0
	}
	return f, i
}

func isSeparator(b byte) bool {
	return b == ' ' || b == ',' || b == '\t' || b == '\n' || b == '\r'
}

func skipSeparators(s string, i int) int {
	for i < len(s) && isSeparator(s[i]) {
		i++
	}
	return i
}

// parseNumbers reads a list of numbers separated by
// white spaces and/or commas.
func parseNumbers(s string) ([]float64, error) {
	var out []float64
	for i := skipSeparators(s, 0); i < len(s); i = skipSeparators(s, i) {
		f, n := scanNumber(s[i:])
		if n == 0 {
			return out, fmt.Errorf("invalid number list %q", s)
		}
		out = append(out, f)
		i += n
	}
	return out, nil
}

// readFraction accepts a number or a percentage.
func readFraction(v string) (float64, error) {
	v = strings.TrimSpace(v)
	f, n := scanNumber(v)
	if n == 0 {
		return 0, fmt.Errorf("invalid number %q", v)
	}
	switch v[n:] {
	case "":
		return f, nil
	case "%":
		return f / 100, nil
	default:
		return 0, fmt.Errorf("invalid number %q", v)
	}
}

var errUnknownUnit = errors.New("unknown unit")

// parseUnit converts a length to user units, resolving
// percentages against the current viewport.
func (c *cursor) parseUnit(v string, kind percentKind) (float64, error) {
	v = strings.TrimSpace(v)
	f, n := scanNumber(v)
	if n == 0 {
		return 0, fmt.Errorf("invalid length %q", v)
	}
	dpi := c.opts.DPI
	switch unit := strings.TrimSpace(v[n:]); unit {
	case "", "px":
		return f, nil
	case "pt":
		return f * dpi / 72, nil
	case "pc":
		return f * dpi / 6, nil
	case "mm":
		return f * dpi / 25.4, nil
	case "cm":
		return f * dpi / 2.54, nil
	case "in":
		return f * dpi, nil
	case "em":
		return f * 16, nil
	case "ex":
		return f * 8, nil
	case "%":
		return f / 100 * c.percentBase(kind), nil
	default:
		return 0, fmt.Errorf("%w %q", errUnknownUnit, unit)
	}
}

func (c *cursor) percentBase(kind percentKind) float64 {
	switch kind {
	case widthPercentage:
		return c.viewport.w
	case heightPercentage:
		return c.viewport.h
	default:
		return math.Sqrt(c.viewport.w*c.viewport.w+c.viewport.h*c.viewport.h) / math.Sqrt2
	}
}

// readLength reads an optional length attribute, returning `def` when absent.
// Invalid values are reported and replaced by `def`.
func (c *cursor) readLength(el *element, name string, kind percentKind, def float64) (float64, error) {
	v, ok := el.attr(name)
	if !ok {
		return def, nil
	}
	f, err := c.parseUnit(v, kind)
	if err != nil {
		return def, c.handleError("invalid %s attribute %q: %s", name, v, err)
	}
	return f, nil
}
