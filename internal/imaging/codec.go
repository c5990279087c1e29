package imaging

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/ironsheep/bgremove-mcp/internal/bgremove"
)

// openImage decodes the file at path, applying EXIF orientation.
func openImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Decode reads an image from r and returns it as a 4-channel buffer.
func Decode(r io.Reader) (*bgremove.Buffer, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return ToBuffer(img), nil
}

// Open decodes the file at path into a 4-channel buffer without caching.
func Open(path string) (*bgremove.Buffer, error) {
	img, err := openImage(path)
	if err != nil {
		return nil, err
	}
	return ToBuffer(img), nil
}

// ToBuffer converts any image to a non-premultiplied RGBA buffer. The origin
// of img's bounds maps to (0, 0).
func ToBuffer(img image.Image) *bgremove.Buffer {
	nrgba := imaging.Clone(img)
	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()
	buf := &bgremove.Buffer{Width: w, Height: h, Channels: 4, Pix: make([]uint8, w*h*4)}
	for y := 0; y < h; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		copy(buf.Pix[y*w*4:], row)
	}
	return buf
}

// ToNRGBA converts a buffer back to an image. 3-channel buffers become opaque.
func ToNRGBA(buf *bgremove.Buffer) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, buf.Width, buf.Height))
	if buf.Channels == 4 {
		copy(img.Pix, buf.Pix)
		return img
	}
	for i, j := 0, 0; i < len(buf.Pix); i, j = i+3, j+4 {
		img.Pix[j] = buf.Pix[i]
		img.Pix[j+1] = buf.Pix[i+1]
		img.Pix[j+2] = buf.Pix[i+2]
		img.Pix[j+3] = 255
	}
	return img
}

// EncodePNG writes buf to w as a PNG, the only output format that keeps alpha.
func EncodePNG(w io.Writer, buf *bgremove.Buffer) error {
	if err := buf.Validate(); err != nil {
		return err
	}
	if err := imaging.Encode(w, ToNRGBA(buf), imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// SavePNG writes buf to path as a PNG, creating or truncating the file.
func SavePNG(path string, buf *bgremove.Buffer) error {
	if err := buf.Validate(); err != nil {
		return err
	}
	if err := imaging.Save(ToNRGBA(buf), path, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
		return fmt.Errorf("failed to save png: %w", err)
	}
	return nil
}
