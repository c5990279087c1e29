package bgremove

import (
	"math"
	"sync/atomic"

	"github.com/anthonynsimon/bild/parallel"
)

// Class is the outcome of classifying one pixel.
type Class int

const (
	ClassKept Class = iota
	ClassBackground
	ClassFeathered
)

func (c Class) String() string {
	switch c {
	case ClassBackground:
		return "background"
	case ClassFeathered:
		return "feathered"
	default:
		return "kept"
	}
}

// Stats counts classification outcomes for one image.
type Stats struct {
	Transparent int `json:"transparent"`
	Feathered   int `json:"feathered"`
	Kept        int `json:"kept"`
	Total       int `json:"total"`
}

// pixelFunc maps one pixel to its new alpha.
type pixelFunc func(c Color, a uint8) (uint8, Class)

// Classify rewrites the alpha channel of buf against the background bg using
// the colored variant and returns the result as a new 4-channel buffer.
// buf is not modified.
func Classify(buf *Buffer, bg Color, opts Options) (*Buffer, Stats, error) {
	if err := buf.Validate(); err != nil {
		return nil, Stats{}, err
	}
	if err := opts.Validate(); err != nil {
		return nil, Stats{}, err
	}
	return apply(buf, coloredClassifier(bg, opts))
}

// ClassifyLight rewrites the alpha channel of buf against a light background
// using brightness thresholds. buf is not modified.
func ClassifyLight(buf *Buffer, bg Color, opts Options) (*Buffer, Stats, error) {
	if err := buf.Validate(); err != nil {
		return nil, Stats{}, err
	}
	if err := opts.Validate(); err != nil {
		return nil, Stats{}, err
	}
	return apply(buf, lightClassifier(bg, opts))
}

// apply runs fn over every pixel in parallel row chunks. Each pixel is read
// from src and written to its own slot in dst, so chunks share nothing but
// fn's captured read-only state.
func apply(src *Buffer, fn pixelFunc) (*Buffer, Stats, error) {
	dst := &Buffer{
		Width:    src.Width,
		Height:   src.Height,
		Channels: 4,
		Pix:      make([]uint8, src.Width*src.Height*4),
	}

	var transparent, feathered, kept atomic.Int64
	parallel.Line(src.Height, func(start, end int) {
		var nt, nf, nk int64
		for y := start; y < end; y++ {
			for x := 0; x < src.Width; x++ {
				c, a := src.At(x, y)
				alpha, class := fn(c, a)
				dst.Set(x, y, c, alpha)
				switch class {
				case ClassBackground:
					nt++
				case ClassFeathered:
					nf++
				default:
					nk++
				}
			}
		}
		transparent.Add(nt)
		feathered.Add(nf)
		kept.Add(nk)
	})

	stats := Stats{
		Transparent: int(transparent.Load()),
		Feathered:   int(feathered.Load()),
		Kept:        int(kept.Load()),
		Total:       src.Width * src.Height,
	}
	return dst, stats, nil
}

// distanceFunc returns the metric's distance from bg, resolved once per image.
func distanceFunc(bg Color, m Metric) func(Color) float64 {
	if m == MetricRGB {
		return func(c Color) float64 { return RGBDistance(c, bg) }
	}
	bgHSV := RGBToHSV(bg)
	return func(c Color) float64 { return hsvDistance(RGBToHSV(c), bgHSV) }
}

// RGBDistance is the Euclidean distance between two colors in RGB space.
func RGBDistance(a, b Color) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// HSVDistance is the hue-weighted distance between two colors in HSV space:
// sqrt(2*dH² + dS² + dV²), with dH circular in degrees.
func HSVDistance(a, b Color) float64 {
	return hsvDistance(RGBToHSV(a), RGBToHSV(b))
}

func hsvDistance(a, b HSV) float64 {
	dh := HueDistance(a.H, b.H)
	ds := a.S - b.S
	dv := a.V - b.V
	return math.Sqrt(2*dh*dh + ds*ds + dv*dv)
}

func coloredClassifier(bg Color, opts Options) pixelFunc {
	dist := distanceFunc(bg, opts.Metric)
	tol := opts.ColorTolerance
	radius := tol / 2
	if opts.Aggressive {
		radius = tol
	}
	band := opts.EdgeFeathering * 10

	return func(c Color, a uint8) (uint8, Class) {
		d := dist(c)
		isBackground := d < radius
		if opts.PreserveDarkContent && c.Brightness() < opts.BrightnessThreshold {
			isBackground = false
		}
		if isBackground {
			return 0, ClassBackground
		}
		if band > 0 && d >= tol && d < tol+band {
			return featherAlpha(a, (d-tol)/band, opts.MinAlpha, opts.MaxAlpha), ClassFeathered
		}
		return a, ClassKept
	}
}

func lightClassifier(bg Color, opts Options) pixelFunc {
	thr := opts.Threshold
	tol := opts.Tolerance
	lower := thr - opts.EdgeFeathering*20
	span := opts.EdgeFeathering * 30

	return func(c Color, a uint8) (uint8, Class) {
		r, g, b := float64(c.R), float64(c.G), float64(c.B)
		diff := math.Abs(r-float64(bg.R)) + math.Abs(g-float64(bg.G)) + math.Abs(b-float64(bg.B))

		var isBackground bool
		if opts.Aggressive {
			isBackground = (r > thr-tol && g > thr-tol && b > thr-tol) ||
				(diff < tol*3 && r > 200 && g > 200 && b > 200)
		} else {
			isBackground = diff < tol*3 && r > thr && g > thr && b > thr
		}
		if isBackground {
			return 0, ClassBackground
		}

		brightness := c.Brightness()
		if span > 0 && brightness > lower && brightness < thr+10 {
			return featherAlpha(a, 1-(brightness-lower)/span, opts.MinAlpha, opts.MaxAlpha), ClassFeathered
		}
		return a, ClassKept
	}
}

// featherAlpha scales a by factor, truncates, and clamps to [lo, hi].
func featherAlpha(a uint8, factor float64, lo, hi uint8) uint8 {
	v := math.Floor(float64(a) * factor)
	v = math.Max(float64(lo), math.Min(float64(hi), v))
	return uint8(v)
}
