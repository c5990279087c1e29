// Package pipeline runs background removal from file to file.
//
// A run decodes the input, removes the background, optionally softens the
// alpha edge and writes a PNG through a temp file and rename, so readers
// never see a partial output. If any step fails or the deadline passes, the
// input bytes are copied to the output path instead and the run reports that
// it fell back. A caller always finds a usable image at the output path.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ironsheep/bgremove-mcp/internal/bgremove"
	"github.com/ironsheep/bgremove-mcp/internal/imaging"
)

// ErrFellBack wraps the cause of a run that copied its input instead of
// removing the background.
var ErrFellBack = errors.New("background removal failed, input copied to output")

// DefaultSuffix is appended to the input name to form the output name.
const DefaultSuffix = "-no-bg"

// Report describes one run.
type Report struct {
	Input      string            `json:"input"`
	Output     string            `json:"output"`
	Mode       bgremove.Mode     `json:"mode"`
	Background bgremove.Estimate `json:"background"`
	Stats      bgremove.Stats    `json:"stats"`
	Softened   bool              `json:"softened"`
	FellBack   bool              `json:"fell_back"`
	Error      string            `json:"error,omitempty"`
	Duration   time.Duration     `json:"duration_ns"`
}

// Option customizes a Processor.
type Option func(*Processor)

// WithSoften blurs the alpha edge with the given Gaussian sigma. 0 disables it.
func WithSoften(sigma float64) Option {
	return func(p *Processor) { p.softenSigma = sigma }
}

// WithTimeout bounds every RemoveFile call. 0 means no limit beyond the
// caller's context.
func WithTimeout(d time.Duration) Option {
	return func(p *Processor) { p.timeout = d }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(p *Processor) { p.log = l }
}

// Processor runs file-to-file removals with fixed options. It is safe for
// concurrent use.
type Processor struct {
	remover     *bgremove.Remover
	softenSigma float64
	timeout     time.Duration
	log         *zap.Logger
}

// New validates opts and returns a Processor.
func New(opts bgremove.Options, options ...Option) (*Processor, error) {
	r, err := bgremove.NewRemover(opts)
	if err != nil {
		return nil, err
	}
	p := &Processor{remover: r, log: zap.NewNop()}
	for _, o := range options {
		o(p)
	}
	if p.softenSigma < 0 {
		return nil, fmt.Errorf("invalid soften sigma %v", p.softenSigma)
	}
	return p, nil
}

// Options returns the engine options the processor was built with.
func (p *Processor) Options() bgremove.Options {
	return p.remover.Options()
}

// DefaultOutputPath returns <dir>/<name>-no-bg.png for input <dir>/<name>.<ext>.
func DefaultOutputPath(in string) string {
	return OutputPath(in, "", DefaultSuffix)
}

// OutputPath places the output for in under dir (the input's directory when
// empty) with suffix appended to the base name. The extension is always .png.
func OutputPath(in, dir, suffix string) string {
	if dir == "" {
		dir = filepath.Dir(in)
	}
	base := filepath.Base(in)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, name+suffix+".png")
}

type outcome struct {
	res      *bgremove.Result
	png      []byte
	softened bool
	err      error
}

// RemoveBuffer runs removal and the optional soften pass on an in-memory buffer.
func (p *Processor) RemoveBuffer(buf *bgremove.Buffer) (*bgremove.Result, bool, error) {
	res, err := p.remover.Remove(buf)
	if err != nil {
		return nil, false, err
	}
	if p.softenSigma <= 0 {
		return res, false, nil
	}
	soft, err := imaging.Soften(res.Output, p.softenSigma)
	if err != nil {
		return nil, false, fmt.Errorf("failed to soften edges: %w", err)
	}
	res.Output = soft
	return res, true, nil
}

// RemoveFile removes the background of in and writes a PNG to out. An empty
// out means DefaultOutputPath(in).
//
// On failure the input is copied to out, the report has FellBack set and the
// returned error wraps ErrFellBack and the cause. An error without
// ErrFellBack means even the copy failed.
func (p *Processor) RemoveFile(ctx context.Context, in, out string) (*Report, error) {
	if out == "" {
		out = DefaultOutputPath(in)
	}
	start := time.Now()
	rep := &Report{Input: in, Output: out}
	log := p.log.With(zap.String("input", in), zap.String("output", out))

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	var o outcome
	if err := expired(ctx); err != nil {
		o.err = fmt.Errorf("processing aborted: %w", err)
	} else {
		done := make(chan outcome, 1)
		go func() {
			done <- p.process(in)
		}()
		select {
		case o = <-done:
		case <-ctx.Done():
			o.err = fmt.Errorf("processing aborted: %w", ctx.Err())
		}
	}

	if o.err == nil {
		o.err = writeAtomic(out, bytes.NewReader(o.png))
	}

	if o.err != nil {
		rep.FellBack = true
		rep.Error = o.err.Error()
		log.Warn("background removal failed, copying input", zap.Error(o.err))
		if cerr := copyFile(in, out); cerr != nil {
			rep.Duration = time.Since(start)
			log.Error("fallback copy failed", zap.Error(cerr))
			return rep, fmt.Errorf("fallback copy failed: %w (after: %w)", cerr, o.err)
		}
		rep.Duration = time.Since(start)
		return rep, fmt.Errorf("%w: %w", ErrFellBack, o.err)
	}

	rep.Mode = o.res.Mode
	rep.Background = o.res.Background
	rep.Stats = o.res.Stats
	rep.Softened = o.softened
	rep.Duration = time.Since(start)

	log.Info("background removed",
		zap.Stringer("mode", rep.Mode),
		zap.String("background", rep.Background.Color.Hex()),
		zap.Float64("confidence", rep.Background.Confidence()),
		zap.Int("transparent", rep.Stats.Transparent),
		zap.Int("feathered", rep.Stats.Feathered),
		zap.Int("kept", rep.Stats.Kept),
		zap.Duration("duration", rep.Duration),
	)
	return rep, nil
}

// process is the part of a run that may be abandoned on timeout. It never
// touches the output path.
func (p *Processor) process(in string) outcome {
	buf, err := imaging.Open(in)
	if err != nil {
		return outcome{err: err}
	}
	res, softened, err := p.RemoveBuffer(buf)
	if err != nil {
		return outcome{err: err}
	}
	var png bytes.Buffer
	if err := imaging.EncodePNG(&png, res.Output); err != nil {
		return outcome{err: err}
	}
	return outcome{res: res, png: png.Bytes(), softened: softened}
}

// expired is ctx.Err that also reports a deadline already in the past.
func expired(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dl, ok := ctx.Deadline(); ok && !time.Now().Before(dl) {
		return context.DeadlineExceeded
	}
	return nil
}

func copyFile(src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()
	return writeAtomic(dst, f)
}

// writeAtomic streams r into a hidden temp file next to path and renames it
// into place.
func writeAtomic(path string, r io.Reader) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
