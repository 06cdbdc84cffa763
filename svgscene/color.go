package svgscene

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/benoitkugler/svg2tvgt/scene"
	"golang.org/x/image/colornames"
)

// parseSVGColorNum parses the hexadecimal forms #rgb, #rgba,
// #rrggbb and #rrggbbaa
func parseSVGColorNum(colorStr string) (scene.Color, error) {
	colorStr = strings.TrimPrefix(colorStr, "#")
	switch len(colorStr) {
	case 3, 4:
		// SVG specs say duplicate characters in case of 3 digit hex number
		long := make([]byte, 0, 2*len(colorStr))
		for i := 0; i < len(colorStr); i++ {
			long = append(long, colorStr[i], colorStr[i])
		}
		colorStr = string(long)
	case 6, 8:
	default:
		return scene.Color{}, fmt.Errorf("invalid hexadecimal color #%s", colorStr)
	}
	out := scene.Color{A: 0xFF}
	for i, c := range []*uint8{&out.R, &out.G, &out.B, &out.A} {
		if 2*i >= len(colorStr) {
			break
		}
		t, err := strconv.ParseUint(colorStr[2*i:2*i+2], 16, 8)
		if err != nil {
			return scene.Color{}, err
		}
		*c = uint8(t)
	}
	return out, nil
}

// parseSVGColor parses an SVG color string in all forms
// including all SVG1.1 names, obtained from the colornames package.
// currentColor is handled by the caller.
func parseSVGColor(colorStr string) (scene.Color, error) {
	colorStr = strings.TrimSpace(colorStr)
	if colorStr == "" {
		return scene.Color{}, errParamMismatch
	}
	v := strings.ToLower(colorStr)
	if v == "transparent" {
		return scene.Color{}, nil
	}
	if cn, ok := colornames.Map[v]; ok {
		return scene.Color{R: cn.R, G: cn.G, B: cn.B, A: cn.A}, nil
	}
	if colorStr[0] == '#' {
		return parseSVGColorNum(colorStr)
	}

	fn, args, ok := functionArgs(v)
	if !ok {
		return scene.Color{}, errParamMismatch
	}
	switch fn {
	case "rgb", "rgba":
		if len(args) != 3 && len(args) != 4 {
			return scene.Color{}, errParamMismatch
		}
		var cvals [3]uint8
		for i := range cvals {
			var err error
			cvals[i], err = parseColorValue(args[i])
			if err != nil {
				return scene.Color{}, err
			}
		}
		alpha, err := parseAlpha(args[3:])
		if err != nil {
			return scene.Color{}, err
		}
		return scene.Color{R: cvals[0], G: cvals[1], B: cvals[2], A: alpha}, nil
	case "hsl", "hsla":
		if len(args) != 3 && len(args) != 4 {
			return scene.Color{}, errParamMismatch
		}
		H, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "deg"), 64)
		if err != nil {
			return scene.Color{}, fmt.Errorf("invalid hue in hsl: '%s' (%s)", args[0], err)
		}
		S, err := readFraction(args[1])
		if err != nil || !strings.HasSuffix(args[1], "%") {
			return scene.Color{}, fmt.Errorf("invalid saturation in hsl: '%s'", args[1])
		}
		L, err := readFraction(args[2])
		if err != nil || !strings.HasSuffix(args[2], "%") {
			return scene.Color{}, fmt.Errorf("invalid lightness in hsl: '%s'", args[2])
		}
		alpha, err := parseAlpha(args[3:])
		if err != nil {
			return scene.Color{}, err
		}
		out := hslToRGB(H, clamp01(S), clamp01(L))
		out.A = alpha
		return out, nil
	}
	return scene.Color{}, errParamMismatch
}

// functionArgs splits "name(a, b c / d)" into its name and arguments
func functionArgs(v string) (string, []string, bool) {
	start := strings.IndexByte(v, '(')
	if start == -1 || !strings.HasSuffix(v, ")") {
		return "", nil, false
	}
	inner := strings.ReplaceAll(v[start+1:len(v)-1], "/", ",")
	return strings.TrimSpace(v[:start]), splitOnCommaOrSpace(inner), true
}

// splitOnCommaOrSpace returns a list of strings after splitting the input on comma and space delimiters
func splitOnCommaOrSpace(s string) []string {
	return strings.FieldsFunc(s,
		func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
		})
}

func clamp01(f float64) float64 { return math.Max(0, math.Min(1, f)) }

func parseColorValue(v string) (uint8, error) {
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, "%") {
		f, err := strconv.ParseFloat(strings.TrimSpace(v[:len(v)-1]), 64)
		if err != nil {
			return 0, err
		}
		return uint8(math.Round(clamp01(f/100) * 0xFF)), nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	return uint8(math.Round(math.Max(0, math.Min(255, f)))), nil
}

// parseAlpha reads the optional alpha component of rgba and hsla
func parseAlpha(args []string) (uint8, error) {
	if len(args) == 0 {
		return 0xFF, nil
	}
	a, err := readFraction(args[0])
	if err != nil {
		return 0, err
	}
	return uint8(math.Round(clamp01(a) * 0xFF)), nil
}

func hslToRGB(H, S, L float64) scene.Color {
	H = math.Mod(H, 360)
	if H < 0 {
		H += 360
	}
	C := (1 - math.Abs((2*L)-1)) * S
	X := C * (1 - math.Abs(math.Mod(H/60, 2)-1))
	m := L - C/2

	var rp, gp, bp float64
	if H < 60 {
		rp, gp, bp = C, X, 0
	} else if H < 120 {
		rp, gp, bp = X, C, 0
	} else if H < 180 {
		rp, gp, bp = 0, C, X
	} else if H < 240 {
		rp, gp, bp = 0, X, C
	} else if H < 300 {
		rp, gp, bp = X, 0, C
	} else {
		rp, gp, bp = C, 0, X
	}

	r, g, b := math.Round((rp+m)*255), math.Round((gp+m)*255), math.Round((bp+m)*255)
	return scene.Color{
		R: uint8(math.Min(r, 255)),
		G: uint8(math.Min(g, 255)),
		B: uint8(math.Min(b, 255)),
		A: 0xFF,
	}
}
