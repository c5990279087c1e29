package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/bgremove-mcp/internal/bgremove"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bgremove.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_MatchesEngineDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	opts, err := cfg.Removal.Options()
	require.NoError(t, err)
	assert.Equal(t, bgremove.DefaultOptions(), opts)

	assert.Equal(t, 30*time.Second, cfg.Removal.Timeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "-no-bg", cfg.Watch.Suffix)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
removal:
  mode: light
  threshold: 230
  aggressive: false
  use_hsv: false
  edge_feathering: 0
  soften_sigma: 0.3
  timeout: 5s
logging:
  level: debug
  format: json
watch:
  dir: /tmp/inbox
  debounce: 1s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "light", cfg.Removal.Mode)
	assert.Equal(t, 230.0, cfg.Removal.Threshold)
	assert.False(t, cfg.Removal.Aggressive, "explicit false survives defaults")
	assert.Zero(t, cfg.Removal.EdgeFeathering, "explicit zero survives defaults")
	assert.Equal(t, 0.3, cfg.Removal.SoftenSigma)
	assert.Equal(t, 5*time.Second, cfg.Removal.Timeout)
	assert.Equal(t, 60.0, cfg.Removal.ColorTolerance, "unset keys keep defaults")
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/tmp/inbox", cfg.Watch.Dir)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)

	opts, err := cfg.Removal.Options()
	require.NoError(t, err)
	assert.Equal(t, bgremove.ModeLight, opts.Mode)
	assert.Equal(t, bgremove.MetricRGB, opts.Metric)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "removal:\n  color_tolerance: 30\n")
	t.Setenv("BGREMOVE_REMOVAL_COLOR_TOLERANCE", "45")
	t.Setenv("BGREMOVE_REMOVAL_MIN_ALPHA", "12")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 45.0, cfg.Removal.ColorTolerance)
	assert.Equal(t, 12, cfg.Removal.MinAlpha, "env applies to keys missing from the file")
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	prevWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(prevWD) })
	t.Setenv("HOME", t.TempDir())

	l, err := NewLoader("")
	require.NoError(t, err)
	assert.Empty(t, l.File())

	cfg, err := l.Config()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "explicit path must exist")

	tests := []struct {
		name string
		body string
	}{
		{"bad mode", "removal:\n  mode: chroma\n"},
		{"negative tolerance", "removal:\n  color_tolerance: -1\n"},
		{"alpha inverted", "removal:\n  min_alpha: 200\n  max_alpha: 100\n"},
		{"alpha out of range", "removal:\n  max_alpha: 300\n"},
		{"bad log level", "logging:\n  level: chatty\n"},
		{"zero timeout", "removal:\n  timeout: 0s\n"},
		{"malformed yaml", "removal: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoader_OnChange(t *testing.T) {
	path := writeConfig(t, "removal:\n  color_tolerance: 30\n")
	l, err := NewLoader(path)
	require.NoError(t, err)

	changed := make(chan *Config, 4)
	l.OnChange(func(cfg *Config, err error) {
		if err != nil {
			return
		}
		select {
		case changed <- cfg:
		default:
		}
	})

	require.NoError(t, os.WriteFile(path, []byte("removal:\n  color_tolerance: 75\n"), 0o644))

	select {
	case cfg := <-changed:
		assert.Equal(t, 75.0, cfg.Removal.ColorTolerance)
	case <-time.After(5 * time.Second):
		t.Fatal("config change not observed")
	}
}
