package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ironsheep/bgremove-mcp/internal/config"
	"github.com/ironsheep/bgremove-mcp/internal/logging"
	"github.com/ironsheep/bgremove-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// ConfigEnv names an explicit config file.
const ConfigEnv = "BGREMOVE_CONFIG"

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("bgremove-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("bgremove-mcp - MCP server for background removal")
			fmt.Println()
			fmt.Println("Usage: bgremove-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  BGREMOVE_CONFIG=<file>       Config file (default: ./bgremove.yaml)")
			fmt.Println("  BGREMOVE_LOG_LEVEL=debug     Enable debug logging")
			fmt.Println("  BGREMOVE_REMOVAL_<FIELD>     Override a removal default, e.g. BGREMOVE_REMOVAL_COLOR_TOLERANCE=40")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	loader, err := config.NewLoader(os.Getenv(ConfigEnv))
	if err != nil {
		fmt.Fprintf(os.Stderr, "bgremove-mcp: %v\n", err)
		os.Exit(1)
	}
	cfg, err := loader.Config()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bgremove-mcp: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr, stdout is for MCP protocol
	log := logging.Must(cfg.Logging)
	defer log.Sync()

	log.Debug("starting",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("commit", GitCommit),
		zap.String("config", loader.File()))

	settings, err := settingsFrom(cfg)
	if err != nil {
		log.Fatal("invalid removal settings", zap.Error(err))
	}

	srv := server.New(settings, log, Version)

	loader.OnChange(func(cfg *config.Config, err error) {
		if err != nil {
			log.Warn("ignoring config change", zap.Error(err))
			return
		}
		s, err := settingsFrom(cfg)
		if err == nil {
			err = srv.SetSettings(s)
		}
		if err != nil {
			log.Warn("ignoring config change", zap.Error(err))
		}
	})

	if err := srv.Run(); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

func settingsFrom(cfg *config.Config) (server.Settings, error) {
	opts, err := cfg.Removal.Options()
	if err != nil {
		return server.Settings{}, err
	}
	return server.Settings{
		Options:     opts,
		SoftenSigma: cfg.Removal.SoftenSigma,
		Timeout:     cfg.Removal.Timeout,
	}, nil
}
