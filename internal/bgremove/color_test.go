package bgremove

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRGBToHSV(t *testing.T) {
	tests := []struct {
		name    string
		c       Color
		h, s, v float64
	}{
		{"red", Color{255, 0, 0}, 0, 100, 100},
		{"green", Color{0, 255, 0}, 120, 100, 100},
		{"blue", Color{0, 0, 255}, 240, 100, 100},
		{"white", Color{255, 255, 255}, 0, 0, 100},
		{"black", Color{0, 0, 0}, 0, 0, 0},
		{"gray", Color{128, 128, 128}, 0, 0, 50.2},
		{"dark green", Color{0, 200, 0}, 120, 100, 78.4},
		{"pink", Color{255, 0, 128}, 329.9, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hsv := RGBToHSV(tt.c)
			assert.InDelta(t, tt.h, hsv.H, 0.1, "H")
			assert.InDelta(t, tt.s, hsv.S, 0.1, "S")
			assert.InDelta(t, tt.v, hsv.V, 0.1, "V")
			assert.GreaterOrEqual(t, hsv.H, 0.0)
			assert.Less(t, hsv.H, 360.0)
		})
	}
}

func TestHueDistance(t *testing.T) {
	tests := []struct {
		h1, h2, want float64
	}{
		{10, 350, 20},
		{350, 10, 20},
		{10, 10, 0},
		{0, 180, 180},
		{90, 300, 150},
		{120, 240, 120},
	}

	for _, tt := range tests {
		got := HueDistance(tt.h1, tt.h2)
		assert.InDelta(t, tt.want, got, 1e-9, "HueDistance(%v, %v)", tt.h1, tt.h2)
		assert.Equal(t, got, HueDistance(tt.h2, tt.h1), "symmetry for (%v, %v)", tt.h1, tt.h2)
	}
}

func TestHSVDistance_CircularHue(t *testing.T) {
	// Same saturation and value, hues 10° apart across the 0° seam.
	a := Color{R: 255, G: 0, B: 43}  // ~350°
	b := Color{R: 255, G: 43, B: 0}  // ~10°
	c := Color{R: 255, G: 213, B: 0} // ~50°

	near := HSVDistance(a, b)
	far := HSVDistance(b, c)
	assert.Less(t, near, far, "colors either side of red should be close")
	assert.Equal(t, HSVDistance(a, b), HSVDistance(b, a))
}

func TestColor_HexAndParse(t *testing.T) {
	c := Color{R: 255, G: 128, B: 64}
	assert.Equal(t, "#ff8040", c.Hex())

	parsed, err := ParseHex("#FF8040")
	require.NoError(t, err)
	assert.Equal(t, c, parsed)

	short, err := ParseHex("#0f0")
	require.NoError(t, err)
	assert.Equal(t, Color{R: 0, G: 255, B: 0}, short)

	_, err = ParseHex("green")
	assert.Error(t, err)
}

func TestColor_Brightness(t *testing.T) {
	assert.Equal(t, 0.0, Color{}.Brightness())
	assert.Equal(t, 255.0, White.Brightness())
	assert.InDelta(t, 85.0, Color{R: 255}.Brightness(), 1e-9)
}
