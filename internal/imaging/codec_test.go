package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/bgremove-mcp/internal/bgremove"
)

func TestToBuffer_NonZeroOrigin(t *testing.T) {
	img := image.NewNRGBA(image.Rect(5, 5, 9, 8))
	img.Set(5, 5, color.NRGBA{1, 2, 3, 4})
	img.Set(8, 7, color.NRGBA{9, 8, 7, 255})

	buf := ToBuffer(img)
	require.NoError(t, buf.Validate())
	assert.Equal(t, 4, buf.Width)
	assert.Equal(t, 3, buf.Height)

	c, a := buf.At(0, 0)
	assert.Equal(t, bgremove.Color{R: 1, G: 2, B: 3}, c)
	assert.Equal(t, uint8(4), a)

	c, _ = buf.At(3, 2)
	assert.Equal(t, bgremove.Color{R: 9, G: 8, B: 7}, c)
}

func TestToBuffer_SubImageStride(t *testing.T) {
	parent := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	parent.Set(3, 3, color.NRGBA{200, 100, 50, 255})
	sub := parent.SubImage(image.Rect(3, 3, 6, 6))

	buf := ToBuffer(sub)
	assert.Len(t, buf.Pix, 3*3*4)
	c, _ := buf.At(0, 0)
	assert.Equal(t, bgremove.Color{R: 200, G: 100, B: 50}, c)
}

func TestEncodeDecodePNG_PreservesAlpha(t *testing.T) {
	buf, err := bgremove.NewBuffer(6, 4, 4)
	require.NoError(t, err)
	buf.Set(1, 1, bgremove.Color{R: 40, G: 50, B: 60}, 0)
	buf.Set(2, 2, bgremove.Color{R: 70, G: 80, B: 90}, 128)

	var out bytes.Buffer
	require.NoError(t, EncodePNG(&out, buf))

	got, err := Decode(&out)
	require.NoError(t, err)
	assert.Equal(t, buf.Width, got.Width)
	assert.Equal(t, buf.Height, got.Height)
	assert.Equal(t, uint8(0), got.Pix[(1*6+1)*4+3])

	c, a := got.At(2, 2)
	assert.Equal(t, bgremove.Color{R: 70, G: 80, B: 90}, c)
	assert.Equal(t, uint8(128), a)
}

func TestEncodePNG_RGBBufferIsOpaque(t *testing.T) {
	buf, err := bgremove.NewBuffer(3, 3, 3)
	require.NoError(t, err)
	buf.Set(0, 0, bgremove.Color{R: 9}, 0)

	img := ToNRGBA(buf)
	assert.Equal(t, color.NRGBA{9, 0, 0, 255}, img.NRGBAAt(0, 0))

	var out bytes.Buffer
	require.NoError(t, EncodePNG(&out, buf))
	assert.NotZero(t, out.Len())
}

func TestEncodePNG_InvalidBuffer(t *testing.T) {
	var out bytes.Buffer
	err := EncodePNG(&out, &bgremove.Buffer{Width: 2, Height: 2, Channels: 4, Pix: make([]uint8, 3)})
	assert.ErrorIs(t, err, bgremove.ErrMalformedBuffer)
	assert.Zero(t, out.Len())
}

func TestSavePNG_AndOpen(t *testing.T) {
	buf, err := bgremove.NewBuffer(4, 4, 4)
	require.NoError(t, err)
	buf.Set(3, 3, bgremove.Color{B: 255}, 17)

	path := filepath.Join(t.TempDir(), "out.png")
	require.NoError(t, SavePNG(path, buf))

	got, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, buf.Pix, got.Pix)
}

func TestDecode_JPEGBecomesOpaqueRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	var in bytes.Buffer
	require.NoError(t, jpeg.Encode(&in, img, nil))

	buf, err := Decode(&in)
	require.NoError(t, err)
	assert.Equal(t, 4, buf.Channels)
	_, a := buf.At(8, 8)
	assert.Equal(t, uint8(255), a)
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("nope")))
	assert.ErrorContains(t, err, "failed to decode image")
}
