package imaging

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/bgremove-mcp/internal/bgremove"
)

// Soften blurs only the alpha channel of a 4-channel buffer with a Gaussian of
// the given sigma, smoothing the stair-stepped edge left by a hard cutoff.
// Color samples are copied unchanged. A sigma <= 0 returns an unmodified clone.
func Soften(buf *bgremove.Buffer, sigma float64) (*bgremove.Buffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	out := buf.Clone()
	if sigma <= 0 || buf.Channels != 4 {
		return out, nil
	}

	// Blur a grayscale image holding the alpha plane.
	mask := image.NewNRGBA(image.Rect(0, 0, buf.Width, buf.Height))
	for i, j := 3, 0; i < len(buf.Pix); i, j = i+4, j+4 {
		a := buf.Pix[i]
		mask.Pix[j], mask.Pix[j+1], mask.Pix[j+2], mask.Pix[j+3] = a, a, a, 255
	}
	blurred := imaging.Blur(mask, sigma)

	for i, j := 3, 0; i < len(out.Pix); i, j = i+4, j+4 {
		// Alpha never increases.
		out.Pix[i] = min(out.Pix[i], blurred.Pix[j])
	}
	return out, nil
}
