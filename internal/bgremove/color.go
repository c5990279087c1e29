package bgremove

import (
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is an 8-bit RGB triple.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// White is returned by the estimators when there is nothing to sample.
var White = Color{R: 255, G: 255, B: 255}

// HSV is a color in hue/saturation/value space.
type HSV struct {
	H float64 `json:"h"` // Hue: [0, 360) degrees
	S float64 `json:"s"` // Saturation: [0, 100] percent
	V float64 `json:"v"` // Value: [0, 100] percent
}

// Hex renders the color as "#RRGGBB".
func (c Color) Hex() string {
	return c.colorful().Hex()
}

// Brightness is the unweighted channel mean, (r+g+b)/3.
func (c Color) Brightness() float64 {
	return (float64(c.R) + float64(c.G) + float64(c.B)) / 3
}

// String implements fmt.Stringer.
func (c Color) String() string {
	return fmt.Sprintf("RGB(%d, %d, %d)", c.R, c.G, c.B)
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// ParseHex parses "#RRGGBB" or "#RGB" into a Color.
func ParseHex(s string) (Color, error) {
	col, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	r, g, b := col.RGB255()
	return Color{R: r, G: g, B: b}, nil
}

// RGBToHSV converts c to HSV with S and V scaled to percentages.
//
// Achromatic colors (max == min) get hue 0.
func RGBToHSV(c Color) HSV {
	h, s, v := c.colorful().Hsv()
	if h >= 360 {
		h -= 360
	}
	return HSV{H: h, S: s * 100, V: v * 100}
}

// HueDistance is the circular distance between two hues in degrees, in [0, 180].
func HueDistance(h1, h2 float64) float64 {
	d := math.Abs(h1 - h2)
	if d > 180 {
		d = 360 - d
	}
	return d
}
