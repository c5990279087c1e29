package bgremove

// Estimate is the assumed background color of an image.
type Estimate struct {
	Color   Color `json:"color"`
	Count   int   `json:"count"`   // samples that fell into the winning bucket
	Samples int   `json:"samples"` // samples considered
}

// Confidence is the fraction of samples that matched the background bucket.
func (e Estimate) Confidence() float64 {
	if e.Samples == 0 {
		return 0
	}
	return float64(e.Count) / float64(e.Samples)
}

// histogram counts quantized colors and remembers the order buckets were
// first seen so that ties resolve to the earliest bucket.
type histogram struct {
	step   uint8
	counts map[Color]int
	order  []Color
	total  int
}

func newHistogram(step uint8) *histogram {
	return &histogram{step: step, counts: make(map[Color]int)}
}

func (h *histogram) add(c Color) {
	key := Color{R: c.R / h.step, G: c.G / h.step, B: c.B / h.step}
	if _, ok := h.counts[key]; !ok {
		h.order = append(h.order, key)
	}
	h.counts[key]++
	h.total++
}

// mode returns the de-quantized modal color, or White if nothing was added.
func (h *histogram) mode() Estimate {
	best := Estimate{Color: White, Samples: h.total}
	for _, key := range h.order {
		if n := h.counts[key]; n > best.Count {
			best.Count = n
			best.Color = Color{R: key.R * h.step, G: key.G * h.step, B: key.B * h.step}
		}
	}
	return best
}

// EstimateBackground returns the most common border color of buf.
//
// Four strips of sampleWidth pixels are sampled: top rows, bottom rows, left
// columns and right columns (the side strips run the full height, so corners
// are counted twice). Strips are clamped to the image and may overlap on
// images narrower or shorter than 2*sampleWidth. Samples are bucketed by
// floor(channel/5) and the winning bucket is scaled back by 5.
//
// A sampleWidth below 1 uses DefaultSampleWidth. The caller must pass a
// validated buffer; an empty histogram yields White with zero counts.
func EstimateBackground(buf *Buffer, sampleWidth int) Estimate {
	if sampleWidth < 1 {
		sampleWidth = DefaultSampleWidth
	}
	w, h := buf.Width, buf.Height
	sw := sampleWidth
	hist := newHistogram(5)

	sample := func(x, y int) {
		c, _ := buf.At(x, y)
		hist.add(c)
	}

	for y := 0; y < min(sw, h); y++ {
		for x := 0; x < w; x++ {
			sample(x, y)
		}
	}
	for y := max(h-sw, 0); y < h; y++ {
		for x := 0; x < w; x++ {
			sample(x, y)
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < min(sw, w); x++ {
			sample(x, y)
		}
	}
	for y := 0; y < h; y++ {
		for x := max(w-sw, 0); x < w; x++ {
			sample(x, y)
		}
	}

	return hist.mode()
}

// EstimateLightBackground returns the most common color among pixels whose
// three channels all exceed threshold, bucketed by floor(channel/10). It
// returns White with zero counts when no pixel is bright enough.
func EstimateLightBackground(buf *Buffer, threshold float64) Estimate {
	hist := newHistogram(10)
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			c, _ := buf.At(x, y)
			if float64(c.R) > threshold && float64(c.G) > threshold && float64(c.B) > threshold {
				hist.add(c)
			}
		}
	}
	est := hist.mode()
	// Total is the number of pixels scanned, not just the bright ones.
	est.Samples = buf.Width * buf.Height
	return est
}

// cornerAverage returns the mean color of the four corner pixels.
func cornerAverage(buf *Buffer) (r, g, b float64) {
	corners := [4][2]int{
		{0, 0},
		{buf.Width - 1, 0},
		{0, buf.Height - 1},
		{buf.Width - 1, buf.Height - 1},
	}
	for _, p := range corners {
		c, _ := buf.At(p[0], p[1])
		r += float64(c.R)
		g += float64(c.G)
		b += float64(c.B)
	}
	return r / 4, g / 4, b / 4
}

// DetectMode picks ModeLight when the corners are bright and nearly gray,
// ModeColored otherwise.
func DetectMode(buf *Buffer) Mode {
	r, g, b := cornerAverage(buf)
	brightness := (r + g + b) / 3
	spread := max(r, g, b) - min(r, g, b)
	if brightness > 200 && spread < 30 {
		return ModeLight
	}
	return ModeColored
}
