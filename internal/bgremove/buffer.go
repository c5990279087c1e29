package bgremove

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyImage is returned for buffers with zero width or height.
	ErrEmptyImage = errors.New("image has zero width or height")

	// ErrMalformedBuffer is returned when the sample slice does not match the
	// declared dimensions or the channel count is unsupported.
	ErrMalformedBuffer = errors.New("malformed pixel buffer")
)

// Buffer is a decoded image as a flat slice of 8-bit samples.
//
// Pixels are stored row-major, Channels samples per pixel, with no padding
// between rows. Channels is 3 (RGB) or 4 (RGBA, non-premultiplied).
type Buffer struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// NewBuffer allocates an opaque-black buffer of the given size.
func NewBuffer(width, height, channels int) (*Buffer, error) {
	b := &Buffer{Width: width, Height: height, Channels: channels}
	if err := b.checkShape(); err != nil {
		return nil, err
	}
	b.Pix = make([]uint8, width*height*channels)
	if channels == 4 {
		for i := 3; i < len(b.Pix); i += 4 {
			b.Pix[i] = 255
		}
	}
	return b, nil
}

// Validate checks the buffer invariants without reading any samples.
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil buffer", ErrMalformedBuffer)
	}
	if err := b.checkShape(); err != nil {
		return err
	}
	want := b.Width * b.Height * b.Channels
	if len(b.Pix) != want {
		return fmt.Errorf("%w: have %d samples, want %d (%dx%dx%d)",
			ErrMalformedBuffer, len(b.Pix), want, b.Width, b.Height, b.Channels)
	}
	return nil
}

func (b *Buffer) checkShape() error {
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrEmptyImage, b.Width, b.Height)
	}
	if b.Channels != 3 && b.Channels != 4 {
		return fmt.Errorf("%w: unsupported channel count %d", ErrMalformedBuffer, b.Channels)
	}
	return nil
}

// At returns the color and alpha of the pixel at (x, y). Alpha is 255 for
// 3-channel buffers. The caller must keep x and y inside the buffer.
func (b *Buffer) At(x, y int) (Color, uint8) {
	i := (y*b.Width + x) * b.Channels
	a := uint8(255)
	if b.Channels == 4 {
		a = b.Pix[i+3]
	}
	return Color{R: b.Pix[i], G: b.Pix[i+1], B: b.Pix[i+2]}, a
}

// Set writes the pixel at (x, y). Alpha is dropped for 3-channel buffers.
func (b *Buffer) Set(x, y int, c Color, a uint8) {
	i := (y*b.Width + x) * b.Channels
	b.Pix[i], b.Pix[i+1], b.Pix[i+2] = c.R, c.G, c.B
	if b.Channels == 4 {
		b.Pix[i+3] = a
	}
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{Width: b.Width, Height: b.Height, Channels: b.Channels, Pix: pix}
}
