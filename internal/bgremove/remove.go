package bgremove

// Result is the outcome of a removal call.
type Result struct {
	Output     *Buffer  `json:"-"`
	Mode       Mode     `json:"mode"`
	Background Estimate `json:"background"`
	Stats      Stats    `json:"stats"`
}

// Remover removes backgrounds with a fixed set of options.
type Remover struct {
	opts Options
}

// NewRemover validates opts and returns a Remover bound to them.
func NewRemover(opts Options) (*Remover, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Remover{opts: opts}, nil
}

// Options returns the remover's options.
func (r *Remover) Options() Options {
	return r.opts
}

// Remove is shorthand for NewRemover(opts) followed by Remove(buf).
func Remove(buf *Buffer, opts Options) (*Result, error) {
	r, err := NewRemover(opts)
	if err != nil {
		return nil, err
	}
	return r.Remove(buf)
}

// Remove estimates the background of buf and classifies every pixel against
// it. With ModeAuto the variant is chosen from the corner colors first.
// buf is not modified; on error no partial output is returned.
func (r *Remover) Remove(buf *Buffer) (*Result, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	mode := r.opts.Mode
	if mode == ModeAuto {
		mode = DetectMode(buf)
	}

	est := r.Detect(buf, mode)

	var (
		out   *Buffer
		stats Stats
		err   error
	)
	if mode == ModeLight {
		out, stats, err = ClassifyLight(buf, est.Color, r.opts)
	} else {
		out, stats, err = Classify(buf, est.Color, r.opts)
	}
	if err != nil {
		return nil, err
	}

	return &Result{Output: out, Mode: mode, Background: est, Stats: stats}, nil
}

// Detect runs only the estimator for mode. ModeAuto is resolved from the
// corners. buf must already be valid.
func (r *Remover) Detect(buf *Buffer, mode Mode) Estimate {
	if mode == ModeAuto {
		mode = DetectMode(buf)
	}
	if mode == ModeLight {
		return EstimateLightBackground(buf, r.opts.Threshold)
	}
	return EstimateBackground(buf, r.opts.SampleWidth)
}
