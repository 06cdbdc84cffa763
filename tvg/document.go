// Converts a resolved vector scene (see svg2tvgt/scene)
// into a TinyVG document, and serializes it to the
// TinyVG text format.
package tvg

import (
	"image/color"
)

// ColorEncoding is the palette encoding written in the header.
type ColorEncoding uint8

const (
	RGBA8888 ColorEncoding = iota
	RGB565
	RGBAF32
	Custom
)

func (c ColorEncoding) String() string {
	switch c {
	case RGBA8888:
		return "u8888"
	case RGB565:
		return "u565"
	case RGBAF32:
		return "f32"
	case Custom:
		return "custom"
	default:
		return "<unknown ColorEncoding>"
	}
}

// CoordinateRange is the size of one coordinate unit in the binary encoding.
type CoordinateRange uint8

const (
	Default  CoordinateRange = iota // 16 bits per unit
	Reduced                         // 8 bits per unit
	Enhanced                        // 32 bits per unit
)

func (c CoordinateRange) String() string {
	switch c {
	case Default:
		return "default"
	case Reduced:
		return "reduced"
	case Enhanced:
		return "enhanced"
	default:
		return "<unknown CoordinateRange>"
	}
}

// Document is the result of a conversion.
// Commands are stored in paint order, and
// style color indices refer to Colors.
type Document struct {
	Width, Height   uint32
	Scale           uint32
	ColorEncoding   ColorEncoding
	CoordinateRange CoordinateRange
	Colors          []color.NRGBA
	Commands        []Command
}

// ColorTable is an append-only palette, deduplicating
// colors by exact match.
// It must not be shared between concurrent conversions.
type ColorTable struct {
	colors []color.NRGBA
}

// Push returns the index of `c`, adding it at the end of
// the table if needed.
func (ct *ColorTable) Push(c color.NRGBA) int {
	for i, existing := range ct.colors {
		if existing == c {
			return i
		}
	}
	ct.colors = append(ct.colors, c)
	return len(ct.colors) - 1
}

// Len returns the number of distinct colors.
func (ct *ColorTable) Len() int { return len(ct.colors) }

// Colors returns the palette, in insertion order.
func (ct *ColorTable) Colors() []color.NRGBA { return ct.colors }

// MultiplyAlpha returns c*a/255, rounding any fractional bits.
func MultiplyAlpha(c, a uint8) uint8 {
	prod := uint32(c)*uint32(a) + 128
	return uint8((prod + (prod >> 8)) >> 8)
}
