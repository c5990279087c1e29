package bgremove

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()
	require.NoError(t, o.Validate())

	assert.Equal(t, 60.0, o.ColorTolerance)
	assert.Equal(t, 40.0, o.BrightnessThreshold)
	assert.Equal(t, 3.0, o.EdgeFeathering)
	assert.Equal(t, uint8(0), o.MinAlpha)
	assert.Equal(t, uint8(255), o.MaxAlpha)
	assert.True(t, o.Aggressive)
	assert.False(t, o.PreserveDarkContent)
	assert.Equal(t, MetricHSV, o.Metric)
	assert.Equal(t, 10, o.SampleWidth)

	l := LightOptions()
	require.NoError(t, l.Validate())
	assert.Equal(t, ModeLight, l.Mode)
	assert.Equal(t, 240.0, l.Threshold)
	assert.Equal(t, 15.0, l.Tolerance)
	assert.Equal(t, 2.0, l.EdgeFeathering)
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"negative tolerance", func(o *Options) { o.ColorTolerance = -1 }},
		{"negative feathering", func(o *Options) { o.EdgeFeathering = -0.5 }},
		{"threshold above 255", func(o *Options) { o.Threshold = 300 }},
		{"alpha bounds inverted", func(o *Options) { o.MinAlpha, o.MaxAlpha = 10, 5 }},
		{"zero sample width", func(o *Options) { o.SampleWidth = 0 }},
		{"unknown metric", func(o *Options) { o.Metric = Metric(7) }},
		{"unknown mode", func(o *Options) { o.Mode = Mode(9) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.mutate(&o)
			assert.Error(t, o.Validate())

			_, err := NewRemover(o)
			assert.Error(t, err)
		})
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"", ModeAuto},
		{"auto", ModeAuto},
		{"Colored", ModeColored},
		{"color", ModeColored},
		{"light", ModeLight},
		{" white ", ModeLight},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseMode("chroma")
	assert.Error(t, err)
}

func TestMode_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Mode Mode `json:"mode"`
	}{ModeLight})
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode":"light"}`, string(b))

	var v struct {
		Mode Mode `json:"mode"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"mode":"colored"}`), &v))
	assert.Equal(t, ModeColored, v.Mode)
}

func TestRemover_Detect(t *testing.T) {
	r, err := NewRemover(DefaultOptions())
	require.NoError(t, err)

	green := solidBuffer(t, 30, 30, Color{G: 255})
	assert.Equal(t, Color{G: 255}, r.Detect(green, ModeAuto).Color)

	white := solidBuffer(t, 30, 30, White)
	est := r.Detect(white, ModeAuto)
	assert.Equal(t, Color{R: 250, G: 250, B: 250}, est.Color, "light estimator buckets by 10")
	assert.Equal(t, 900, est.Count)
}

func TestRemover_ResolvesAutoMode(t *testing.T) {
	white := solidBuffer(t, 30, 30, White)
	fillRect(white, 10, 10, 20, 20, Color{B: 200})

	res, err := Remove(white, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, ModeLight, res.Mode)

	green := solidBuffer(t, 30, 30, Color{G: 255})
	res, err = Remove(green, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, ModeColored, res.Mode)
}
