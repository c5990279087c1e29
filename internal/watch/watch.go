// Package watch removes backgrounds from images dropped into a directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ironsheep/bgremove-mcp/internal/pipeline"
)

// imageExts are the input extensions picked up by the watcher.
var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// Remover is the part of pipeline.Processor the watcher needs.
type Remover interface {
	RemoveFile(ctx context.Context, in, out string) (*pipeline.Report, error)
}

// Config configures a Watcher.
type Config struct {
	Dir       string
	OutputDir string // defaults to Dir
	Suffix    string // defaults to pipeline.DefaultSuffix
	Debounce  time.Duration
}

// Watcher processes new and modified images in one directory.
type Watcher struct {
	cfg     Config
	remover Remover
	log     *zap.Logger
	fsw     *fsnotify.Watcher
	reports chan *pipeline.Report

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// New creates a watcher on cfg.Dir. Reports from finished runs are sent on
// Reports(); a nil logger discards logs.
func New(cfg Config, remover Remover, log *zap.Logger) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("watch directory is required")
	}
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", cfg.Dir)
	}
	if cfg.Suffix == "" {
		cfg.Suffix = pipeline.DefaultSuffix
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = cfg.Dir
	}
	if log == nil {
		log = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(cfg.Dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch folder %s: %w", cfg.Dir, err)
	}

	return &Watcher{
		cfg:     cfg,
		remover: remover,
		log:     log.With(zap.String("dir", cfg.Dir)),
		fsw:     fsw,
		reports: make(chan *pipeline.Report, 100),
		pending: make(map[string]*time.Timer),
	}, nil
}

// Reports returns finished runs. Reports are dropped when nobody reads them
// and the buffer is full.
func (w *Watcher) Reports() <-chan *pipeline.Report {
	return w.reports
}

// Run handles events until ctx is cancelled, then waits for in-flight runs
// and closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	w.log.Info("watching folder", zap.String("output_dir", w.cfg.OutputDir))
	defer w.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !w.wants(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", zap.Error(err))
		}
	}
}

// wants filters out hidden temp files, non-images and our own outputs.
func (w *Watcher) wants(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	if !imageExts[ext] {
		return false
	}
	return !strings.HasSuffix(strings.TrimSuffix(base, filepath.Ext(base)), w.cfg.Suffix)
}

// schedule runs path once no event for it has arrived for the debounce delay.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		if t.Stop() {
			w.wg.Done()
		}
	}
	w.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.cfg.Debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.pending[path] == t {
			delete(w.pending, path)
		}
		w.mu.Unlock()
		w.process(ctx, path)
	})
	w.pending[path] = t
}

func (w *Watcher) process(ctx context.Context, in string) {
	if ctx.Err() != nil {
		return
	}
	out := pipeline.OutputPath(in, w.cfg.OutputDir, w.cfg.Suffix)
	rep, err := w.remover.RemoveFile(ctx, in, out)
	if err != nil {
		w.log.Warn("processing failed", zap.String("path", in), zap.Error(err))
	}
	if rep == nil {
		return
	}
	select {
	case w.reports <- rep:
	default:
		w.log.Debug("report dropped", zap.String("path", in))
	}
}

func (w *Watcher) shutdown() {
	w.mu.Lock()
	for path, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()

	w.wg.Wait()
	if err := w.fsw.Close(); err != nil {
		w.log.Warn("failed to close watcher", zap.Error(err))
	}
	close(w.reports)
}
