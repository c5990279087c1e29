// Package config loads bgremove settings from an optional YAML file and
// BGREMOVE_* environment variables.
//
// Precedence, lowest first: struct defaults, config file, environment. A
// key such as removal.color_tolerance maps to BGREMOVE_REMOVAL_COLOR_TOLERANCE.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/creasty/defaults"
	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/ironsheep/bgremove-mcp/internal/bgremove"
	"github.com/ironsheep/bgremove-mcp/internal/logging"
)

const (
	// FileName is the config file looked up when no path is given.
	FileName = "bgremove"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "BGREMOVE"
)

// Removal holds the removal defaults.
type Removal struct {
	Mode                string  `mapstructure:"mode" yaml:"mode" default:"auto" validate:"oneof=auto colored color light white"`
	ColorTolerance      float64 `mapstructure:"color_tolerance" yaml:"color_tolerance" default:"60" validate:"gte=0"`
	BrightnessThreshold float64 `mapstructure:"brightness_threshold" yaml:"brightness_threshold" default:"40" validate:"gte=0,lte=255"`
	PreserveDarkContent bool    `mapstructure:"preserve_dark_content" yaml:"preserve_dark_content"`
	UseHSV              bool    `mapstructure:"use_hsv" yaml:"use_hsv" default:"true"`
	SampleWidth         int     `mapstructure:"sample_width" yaml:"sample_width" default:"10" validate:"gte=1"`
	Threshold           float64 `mapstructure:"threshold" yaml:"threshold" default:"240" validate:"gte=0,lte=255"`
	Tolerance           float64 `mapstructure:"tolerance" yaml:"tolerance" default:"15" validate:"gte=0"`
	EdgeFeathering      float64 `mapstructure:"edge_feathering" yaml:"edge_feathering" default:"3" validate:"gte=0"`
	MinAlpha            int     `mapstructure:"min_alpha" yaml:"min_alpha" validate:"gte=0,lte=255"`
	MaxAlpha            int     `mapstructure:"max_alpha" yaml:"max_alpha" default:"255" validate:"gte=0,lte=255,gtefield=MinAlpha"`
	Aggressive          bool    `mapstructure:"aggressive" yaml:"aggressive" default:"true"`

	// SoftenSigma blurs the alpha edge after removal; 0 disables it.
	SoftenSigma float64 `mapstructure:"soften_sigma" yaml:"soften_sigma" validate:"gte=0"`

	// Timeout bounds one file-to-file run, decode and encode included.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" default:"30s" validate:"gt=0"`
}

// Watch configures directory watch mode.
type Watch struct {
	Dir       string        `mapstructure:"dir" yaml:"dir"`
	OutputDir string        `mapstructure:"output_dir" yaml:"output_dir"`
	Suffix    string        `mapstructure:"suffix" yaml:"suffix" default:"-no-bg" validate:"required"`
	Debounce  time.Duration `mapstructure:"debounce" yaml:"debounce" default:"500ms" validate:"gte=0"`
}

// Config is the full settings tree.
type Config struct {
	Removal Removal        `mapstructure:"removal" yaml:"removal"`
	Logging logging.Config `mapstructure:"logging" yaml:"logging"`
	Watch   Watch          `mapstructure:"watch" yaml:"watch"`
}

// Default returns a Config populated only from struct defaults.
func Default() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		panic(fmt.Sprintf("config: bad default tag: %v", err))
	}
	return cfg
}

var validate = validator.New()

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Options converts the removal section to engine options.
func (r Removal) Options() (bgremove.Options, error) {
	mode, err := bgremove.ParseMode(r.Mode)
	if err != nil {
		return bgremove.Options{}, err
	}
	metric := bgremove.MetricRGB
	if r.UseHSV {
		metric = bgremove.MetricHSV
	}
	opts := bgremove.Options{
		Mode:                mode,
		ColorTolerance:      r.ColorTolerance,
		BrightnessThreshold: r.BrightnessThreshold,
		PreserveDarkContent: r.PreserveDarkContent,
		Metric:              metric,
		SampleWidth:         r.SampleWidth,
		Threshold:           r.Threshold,
		Tolerance:           r.Tolerance,
		EdgeFeathering:      r.EdgeFeathering,
		MinAlpha:            uint8(r.MinAlpha),
		MaxAlpha:            uint8(r.MaxAlpha),
		Aggressive:          r.Aggressive,
	}
	return opts, opts.Validate()
}

// Loader reads a Config and can watch its file for changes.
type Loader struct {
	v    *viper.Viper
	path string

	mu sync.Mutex
}

// NewLoader prepares a loader for path. An empty path searches the working
// directory and $HOME/.config/bgremove for bgremove.yaml, and a missing file
// is not an error. An explicit path must exist.
func NewLoader(path string) (*Loader, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "bgremove"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnv(v, "", reflect.TypeOf(Config{})); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return &Loader{v: v, path: v.ConfigFileUsed()}, nil
}

// Load reads and validates the configuration.
func Load(path string) (*Config, error) {
	l, err := NewLoader(path)
	if err != nil {
		return nil, err
	}
	return l.Config()
}

// File returns the config file in use, or "" when running on defaults.
func (l *Loader) File() string {
	return l.path
}

// Config decodes the current settings over the struct defaults.
func (l *Loader) Config() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cfg := Default()
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := cfg.Removal.Options(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// OnChange calls fn with the reloaded settings whenever the config file
// changes. Invalid edits are passed as an error and the previous settings
// stay in effect. It does nothing when no file is in use.
func (l *Loader) OnChange(fn func(*Config, error)) {
	if l.path == "" {
		return
	}
	l.v.OnConfigChange(func(fsnotify.Event) {
		fn(l.Config())
	})
	l.v.WatchConfig()
}

// bindEnv registers every mapstructure key so AutomaticEnv also applies to
// keys absent from the config file.
func bindEnv(v *viper.Viper, prefix string, t reflect.Type) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		key := f.Tag.Get("mapstructure")
		if key == "" {
			continue
		}
		if prefix != "" {
			key = prefix + "." + key
		}
		if f.Type.Kind() == reflect.Struct {
			if err := bindEnv(v, key, f.Type); err != nil {
				return err
			}
			continue
		}
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}
