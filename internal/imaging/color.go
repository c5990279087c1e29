package imaging

import (
	"fmt"

	"github.com/ironsheep/bgremove-mcp/internal/bgremove"
)

// RGBAColor is an 8-bit color with alpha.
//
// The alpha component represents opacity:
//   - 0 = fully transparent
//   - 255 = fully opaque
type RGBAColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// ColorResult contains a sampled color in the representations the removal
// engine reasons about: hex for display, RGB for the Euclidean metric and HSV
// for the hue-weighted metric.
type ColorResult struct {
	Hex        string         `json:"hex"` // "#rrggbb", alpha excluded
	RGB        bgremove.Color `json:"rgb"`
	RGBA       RGBAColor      `json:"rgba"`
	HSV        bgremove.HSV   `json:"hsv"`
	Brightness float64        `json:"brightness"`
}

// SampleColor reads the pixel at (x, y).
//
// Coordinates are 0-based with origin at top-left. An error is returned when
// the point lies outside the buffer.
func SampleColor(buf *bgremove.Buffer, x, y int) (*ColorResult, error) {
	if x < 0 || x >= buf.Width || y < 0 || y >= buf.Height {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds %dx%d", x, y, buf.Width, buf.Height)
	}

	c, a := buf.At(x, y)
	return &ColorResult{
		Hex:        c.Hex(),
		RGB:        c,
		RGBA:       RGBAColor{R: c.R, G: c.G, B: c.B, A: a},
		HSV:        bgremove.RGBToHSV(c),
		Brightness: c.Brightness(),
	}, nil
}

// LabeledPoint is a pixel coordinate with an optional label such as
// "corner" or "subject".
type LabeledPoint struct {
	X     int
	Y     int
	Label string
}

// LabeledColorResult combines a color sample with its location and label.
type LabeledColorResult struct {
	Label string      `json:"label,omitempty"`
	X     int         `json:"x"`
	Y     int         `json:"y"`
	Color ColorResult `json:"color"`

	// Distance from the reference color under each metric, set only when
	// SampleColorsMulti is given a reference.
	RGBDistance *float64 `json:"rgb_distance,omitempty"`
	HSVDistance *float64 `json:"hsv_distance,omitempty"`
}

// MultiColorResult holds samples in input order.
type MultiColorResult struct {
	Samples []LabeledColorResult `json:"samples"`
}

// SampleColorsMulti samples every point. When ref is non-nil each sample also
// carries its distance from ref, which is what the classifier compares to the
// tolerance. Any out-of-bounds point fails the whole call.
func SampleColorsMulti(buf *bgremove.Buffer, points []LabeledPoint, ref *bgremove.Color) (*MultiColorResult, error) {
	results := make([]LabeledColorResult, 0, len(points))

	for _, p := range points {
		color, err := SampleColor(buf, p.X, p.Y)
		if err != nil {
			return nil, fmt.Errorf("failed to sample point (%d,%d): %w", p.X, p.Y, err)
		}
		res := LabeledColorResult{
			Label: p.Label,
			X:     p.X,
			Y:     p.Y,
			Color: *color,
		}
		if ref != nil {
			rgb := bgremove.RGBDistance(color.RGB, *ref)
			hsv := bgremove.HSVDistance(color.RGB, *ref)
			res.RGBDistance = &rgb
			res.HSVDistance = &hsv
		}
		results = append(results, res)
	}

	return &MultiColorResult{Samples: results}, nil
}
