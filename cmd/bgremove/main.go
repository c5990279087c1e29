package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"

	"github.com/ironsheep/bgremove-mcp/internal/config"
	"github.com/ironsheep/bgremove-mcp/internal/imaging"
	"github.com/ironsheep/bgremove-mcp/internal/logging"
	"github.com/ironsheep/bgremove-mcp/internal/pipeline"
	"github.com/ironsheep/bgremove-mcp/internal/quality"
	"github.com/ironsheep/bgremove-mcp/internal/watch"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// ConfigEnv names an explicit config file.
const ConfigEnv = "BGREMOVE_CONFIG"

func usage() {
	fmt.Println("bgremove - remove flat image backgrounds")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  bgremove <input> [output] [threshold] [aggressive]")
	fmt.Println("  bgremove watch [dir]")
	fmt.Println("  bgremove analyze <image>")
	fmt.Println()
	fmt.Println("Arguments:")
	fmt.Println("  output      Output PNG (default: <input>-no-bg.png)")
	fmt.Println("  threshold   Treat the background as white/near-white at this brightness, 0-255 (default: auto-detect)")
	fmt.Println("  aggressive  true/false, used with threshold (default: true)")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  BGREMOVE_CONFIG=<file>       Config file (default: ./bgremove.yaml)")
	fmt.Println("  BGREMOVE_LOG_LEVEL=debug     Enable debug logging")
	fmt.Println()
	fmt.Println("Exit status is 1 when removal failed and the input was copied unchanged.")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "--version", "-v", "version":
		fmt.Printf("bgremove %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	case "--help", "-h", "help":
		usage()
		return
	}

	cfg, err := config.Load(os.Getenv(ConfigEnv))
	if err != nil {
		fmt.Fprintf(os.Stderr, "bgremove: %v\n", err)
		os.Exit(1)
	}
	log := logging.Must(cfg.Logging)
	defer log.Sync()

	switch os.Args[1] {
	case "watch":
		err = runWatch(cfg, log, os.Args[2:])
	case "analyze":
		err = runAnalyze(os.Args[2:])
	default:
		err = runRemove(cfg, log, os.Args[1:])
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "bgremove: %v\n", err)
		log.Sync()
		os.Exit(1)
	}
}

func processor(cfg *config.Config, log *zap.Logger) (*pipeline.Processor, error) {
	opts, err := cfg.Removal.Options()
	if err != nil {
		return nil, err
	}
	return pipeline.New(opts,
		pipeline.WithSoften(cfg.Removal.SoftenSigma),
		pipeline.WithTimeout(cfg.Removal.Timeout),
		pipeline.WithLogger(log))
}

// removeArgs parses <input> [output] [threshold] [aggressive] into cfg. A
// threshold switches to the light variant with edge feathering 2; without
// one the configured mode (auto by default) runs.
func removeArgs(cfg *config.Config, args []string) (in, out string, err error) {
	if len(args) == 0 || args[0] == "" {
		return "", "", errors.New("input image is required")
	}
	in = args[0]
	out = pipeline.DefaultOutputPath(in)
	if len(args) > 1 && args[1] != "" {
		out = args[1]
	}
	if len(args) > 2 {
		threshold, err := strconv.Atoi(args[2])
		if err != nil || threshold < 0 || threshold > 255 {
			return "", "", fmt.Errorf("threshold must be an integer 0-255, got %q", args[2])
		}
		cfg.Removal.Mode = "light"
		cfg.Removal.Threshold = float64(threshold)
		cfg.Removal.EdgeFeathering = 2
		cfg.Removal.Aggressive = true
		if len(args) > 3 {
			cfg.Removal.Aggressive = args[3] == "true"
		}
	}
	return in, out, nil
}

func runRemove(cfg *config.Config, log *zap.Logger, args []string) error {
	in, out, err := removeArgs(cfg, args)
	if err != nil {
		return err
	}

	p, err := processor(cfg, log)
	if err != nil {
		return err
	}

	rep, err := p.RemoveFile(context.Background(), in, out)
	if rep != nil {
		if perr := printJSON(rep); perr != nil {
			return perr
		}
	}
	if errors.Is(err, pipeline.ErrFellBack) {
		fmt.Fprintf(os.Stderr, "bgremove: %v\n", err)
		log.Sync()
		os.Exit(1)
	}
	return err
}

// runWatch processes images dropped into a directory until interrupted. The
// directory argument overrides watch.dir from the config.
func runWatch(cfg *config.Config, log *zap.Logger, args []string) error {
	dir := cfg.Watch.Dir
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		return errors.New("watch needs a directory argument or watch.dir in the config")
	}

	p, err := processor(cfg, log)
	if err != nil {
		return err
	}
	w, err := watch.New(watch.Config{
		Dir:       dir,
		OutputDir: cfg.Watch.OutputDir,
		Suffix:    cfg.Watch.Suffix,
		Debounce:  cfg.Watch.Debounce,
	}, p, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for rep := range w.Reports() {
			if err := printJSON(rep); err != nil {
				log.Warn("failed to print report", zap.Error(err))
			}
		}
	}()

	log.Info("watching", zap.String("dir", dir))
	err = w.Run(ctx)
	<-done
	return err
}

func runAnalyze(args []string) error {
	if len(args) < 1 {
		return errors.New("analyze needs an image path")
	}
	buf, err := imaging.Open(args[0])
	if err != nil {
		return err
	}
	rep, err := quality.Assess(buf)
	if err != nil {
		return err
	}
	return printJSON(rep)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
