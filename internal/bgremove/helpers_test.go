package bgremove

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// solidBuffer creates an opaque RGBA buffer filled with c.
func solidBuffer(t *testing.T, width, height int, c Color) *Buffer {
	t.Helper()
	buf, err := NewBuffer(width, height, 4)
	require.NoError(t, err)
	fillRect(buf, 0, 0, width, height, c)
	return buf
}

// fillRect paints the half-open rectangle [x1,x2)x[y1,y2) opaque c.
func fillRect(buf *Buffer, x1, y1, x2, y2 int, c Color) {
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			buf.Set(x, y, c, 255)
		}
	}
}

// randomFill paints the rectangle with seeded random opaque colors.
func randomFill(buf *Buffer, x1, y1, x2, y2 int, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			c := Color{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256))}
			buf.Set(x, y, c, 255)
		}
	}
}

func alphaAt(buf *Buffer, x, y int) uint8 {
	_, a := buf.At(x, y)
	return a
}

func coloredOptions() Options {
	o := DefaultOptions()
	o.Mode = ModeColored
	return o
}
