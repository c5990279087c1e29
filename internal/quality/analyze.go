package quality

import (
	"math"

	"github.com/ironsheep/bgremove-mcp/internal/bgremove"
)

// Family is a coarse hue bucket for colored pixels.
type Family string

const (
	FamilyRed     Family = "red"
	FamilyGreen   Family = "green"
	FamilyBlue    Family = "blue"
	FamilyCyan    Family = "cyan"
	FamilyMagenta Family = "magenta"
	FamilyYellow  Family = "yellow"
	FamilyOrange  Family = "orange"
	FamilyOther   Family = "other"
)

// families lists buckets in reporting order.
var families = []Family{
	FamilyRed, FamilyGreen, FamilyBlue, FamilyCyan,
	FamilyMagenta, FamilyYellow, FamilyOrange, FamilyOther,
}

// Analysis is the pixel census of one image.
type Analysis struct {
	Width    int  `json:"width"`
	Height   int  `json:"height"`
	HasAlpha bool `json:"has_alpha"`

	TotalPixels           int `json:"total_pixels"`
	TransparentPixels     int `json:"transparent_pixels"`
	SemiTransparentPixels int `json:"semi_transparent_pixels"`
	OpaquePixels          int `json:"opaque_pixels"`

	// Visible pixels only (alpha > 128).
	WhitePixels   int `json:"white_pixels"`
	GrayPixels    int `json:"gray_pixels"`
	ColoredPixels int `json:"colored_pixels"`

	// Percentages of TotalPixels, rounded to two decimals.
	TransparentPercentage float64 `json:"transparent_percentage"`
	WhitePercentage       float64 `json:"white_percentage"`
	GrayPercentage        float64 `json:"gray_percentage"`
	ColoredPercentage     float64 `json:"colored_percentage"`

	DominantFamily Family         `json:"dominant_family"`
	Distribution   map[Family]int `json:"distribution"`
}

// Analyze takes the census of buf. 3-channel buffers count as fully opaque.
func Analyze(buf *bgremove.Buffer) (*Analysis, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	a := &Analysis{
		Width:        buf.Width,
		Height:       buf.Height,
		HasAlpha:     buf.Channels == 4,
		Distribution: make(map[Family]int, len(families)),
	}
	for _, f := range families {
		a.Distribution[f] = 0
	}

	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			c, alpha := buf.At(x, y)
			a.TotalPixels++

			switch {
			case alpha == 0:
				a.TransparentPixels++
			case alpha < 255:
				a.SemiTransparentPixels++
			default:
				a.OpaquePixels++
			}

			if alpha <= 128 {
				continue
			}
			switch {
			case c.R > 240 && c.G > 240 && c.B > 240:
				a.WhitePixels++
			case isGray(c):
				a.GrayPixels++
			default:
				a.ColoredPixels++
				a.Distribution[familyOf(c)]++
			}
		}
	}

	a.TransparentPercentage = percent(a.TransparentPixels, a.TotalPixels)
	a.WhitePercentage = percent(a.WhitePixels, a.TotalPixels)
	a.GrayPercentage = percent(a.GrayPixels, a.TotalPixels)
	a.ColoredPercentage = percent(a.ColoredPixels, a.TotalPixels)
	a.DominantFamily = dominant(a.Distribution)

	return a, nil
}

// ArtifactPercentage is the share of visible white and gray residue.
func (a *Analysis) ArtifactPercentage() float64 {
	return a.WhitePercentage + a.GrayPercentage
}

func isGray(c bgremove.Color) bool {
	r, g, b := int(c.R), int(c.G), int(c.B)
	return abs(r-g) < 30 && abs(g-b) < 30 && abs(r-b) < 30
}

// familyOf buckets a colored pixel. Checks run in a fixed order and the first
// match wins, so orange is tested before cyan.
func familyOf(c bgremove.Color) Family {
	r, g, b := c.R, c.G, c.B
	switch {
	case r > 200 && g < 150 && b < 100:
		return FamilyRed
	case g > 200 && r < 150 && b < 150:
		return FamilyGreen
	case b > 200 && r < 150 && g < 150:
		return FamilyBlue
	case r > 200 && g > 100 && g < 180 && b < 100:
		return FamilyOrange
	case g > 200 && b > 200 && r < 150:
		return FamilyCyan
	case r > 200 && b > 200 && g < 150:
		return FamilyMagenta
	case r > 200 && g > 200 && b < 150:
		return FamilyYellow
	default:
		return FamilyOther
	}
}

// dominant returns the family with the highest count. Ties go to the later
// family in reporting order, so an image with no colored pixels reports
// "other".
func dominant(dist map[Family]int) Family {
	best := families[0]
	for _, f := range families[1:] {
		if dist[f] >= dist[best] {
			best = f
		}
	}
	return best
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*10000) / 100
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
