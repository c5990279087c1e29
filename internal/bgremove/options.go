package bgremove

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Metric selects the color distance used by the colored variant.
type Metric int

const (
	MetricHSV Metric = iota
	MetricRGB
)

func (m Metric) String() string {
	switch m {
	case MetricRGB:
		return "rgb"
	case MetricHSV:
		return "hsv"
	default:
		return fmt.Sprintf("Metric(%d)", int(m))
	}
}

// Mode selects the estimator/classifier pair.
type Mode int

const (
	ModeAuto Mode = iota
	ModeColored
	ModeLight
)

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeColored:
		return "colored"
	case ModeLight:
		return "light"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParseMode accepts "auto", "colored" (or "color") and "light" (or "white").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "colored", "color":
		return ModeColored, nil
	case "light", "white":
		return ModeLight, nil
	default:
		return ModeAuto, fmt.Errorf("unknown mode %q", s)
	}
}

// DefaultSampleWidth is the width in pixels of each border strip sampled by
// the colored estimator.
const DefaultSampleWidth = 10

// Options configures a single removal call. Options are copied by value and
// never modified during a run.
type Options struct {
	Mode Mode

	// Colored variant.
	ColorTolerance      float64 `validate:"gte=0"`
	BrightnessThreshold float64 `validate:"gte=0,lte=255"`
	PreserveDarkContent bool
	Metric              Metric `validate:"oneof=0 1"`
	SampleWidth         int    `validate:"gte=1"`

	// Light variant.
	Threshold float64 `validate:"gte=0,lte=255"`
	Tolerance float64 `validate:"gte=0"`

	// Shared.
	EdgeFeathering float64 `validate:"gte=0"`
	MinAlpha       uint8
	MaxAlpha       uint8 `validate:"gtefield=MinAlpha"`
	Aggressive     bool
}

// DefaultOptions returns the colored-background defaults with the light
// variant's threshold and tolerance filled in. EdgeFeathering is 3; the
// light variant falls back to 2 through LightOptions.
func DefaultOptions() Options {
	return Options{
		Mode:                ModeAuto,
		ColorTolerance:      60,
		BrightnessThreshold: 40,
		PreserveDarkContent: false,
		Metric:              MetricHSV,
		SampleWidth:         DefaultSampleWidth,
		Threshold:           240,
		Tolerance:           15,
		EdgeFeathering:      3,
		MinAlpha:            0,
		MaxAlpha:            255,
		Aggressive:          true,
	}
}

// LightOptions returns defaults tuned for white and near-white backgrounds.
func LightOptions() Options {
	o := DefaultOptions()
	o.Mode = ModeLight
	o.EdgeFeathering = 2
	return o
}

var validate = validator.New()

// Validate reports the first invalid field.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	if o.Mode < ModeAuto || o.Mode > ModeLight {
		return fmt.Errorf("invalid options: unknown mode %d", int(o.Mode))
	}
	return nil
}
