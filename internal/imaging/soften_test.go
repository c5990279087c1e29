package imaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/bgremove-mcp/internal/bgremove"
)

// halfTransparent makes the left half of a red buffer fully transparent.
func halfTransparent(t *testing.T, width, height int) *bgremove.Buffer {
	t.Helper()
	buf, err := bgremove.NewBuffer(width, height, 4)
	require.NoError(t, err)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			a := uint8(255)
			if x < width/2 {
				a = 0
			}
			buf.Set(x, y, bgremove.Color{R: 255}, a)
		}
	}
	return buf
}

func TestSoften_SmoothsHardEdge(t *testing.T) {
	buf := halfTransparent(t, 40, 10)

	out, err := Soften(buf, 2)
	require.NoError(t, err)

	_, edge := out.At(20, 5)
	assert.Less(t, edge, uint8(255), "pixel just inside the edge is softened")
	assert.Greater(t, edge, uint8(0))

	_, far := out.At(39, 5)
	assert.Equal(t, uint8(255), far)

	for x := 0; x < 20; x++ {
		_, a := out.At(x, 5)
		require.Zero(t, a, "transparent pixel %d must stay transparent", x)
	}

	c, _ := out.At(25, 5)
	assert.Equal(t, bgremove.Color{R: 255}, c, "color is untouched")
	_, orig := buf.At(20, 5)
	assert.Equal(t, uint8(255), orig, "input is untouched")
}

func TestSoften_ZeroSigmaIsIdentity(t *testing.T) {
	buf := halfTransparent(t, 10, 10)

	out, err := Soften(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, buf.Pix, out.Pix)
	assert.NotSame(t, buf, out)
}

func TestSoften_InvalidBuffer(t *testing.T) {
	_, err := Soften(&bgremove.Buffer{Width: 0, Height: 1, Channels: 4}, 1)
	assert.ErrorIs(t, err, bgremove.ErrEmptyImage)
}
