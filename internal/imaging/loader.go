package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/bgremove-mcp/internal/bgremove"
)

// ImageCache provides thread-safe caching of decoded images to avoid redundant disk reads.
//
// The cache stores decoded image.Image objects keyed by their file path. Once an image
// is loaded, subsequent Load() calls for the same path return the cached copy without
// disk I/O.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// Cached images remain in memory until explicitly removed via Evict() or Clear().
// Writers that replace a file on disk must Evict() its path, otherwise later
// loads keep returning the old pixels.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves an image from the cache or decodes it from disk if not cached.
//
// Parameters:
//   - path: Absolute or relative file path to the image. Supported formats are
//     PNG, JPEG, GIF, BMP, TIFF and WebP.
//
// Returns:
//   - image.Image: The decoded image with EXIF orientation applied.
//   - error: Non-nil if the file cannot be opened or decoded.
//
// The image is cached under its absolute, cleaned path, so "out.png",
// "./out.png" and the absolute spelling share one entry.
func (c *ImageCache) Load(path string) (image.Image, error) {
	key := cacheKey(path)
	c.mu.RLock()
	if img, ok := c.images[key]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := openImage(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[key] = img
	c.mu.Unlock()

	return img, nil
}

// LoadBuffer loads path through the cache and converts it to a pixel buffer.
// The returned buffer is a fresh copy and may be modified freely.
func (c *ImageCache) LoadBuffer(path string) (*bgremove.Buffer, error) {
	img, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	return ToBuffer(img), nil
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path, however it is
// spelled. If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	key := cacheKey(path)
	c.mu.Lock()
	delete(c.images, key)
	c.mu.Unlock()
}

func cacheKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// Len reports the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the format implied by the file extension: "png", "jpeg", "gif",
	// "bmp", "tiff", "webp" or "unknown".
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the decoded image carries an alpha channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image and returns metadata about it.
//
// The image is loaded into the cache (if not already cached) and width and
// height are those of the oriented image, the frame the sampling tools use.
// Format is determined by file extension. Color depth and alpha describe the
// file as stored, before any EXIF rotation.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	hasAlpha, colorDepth, err := storedModel(path)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        FormatFromPath(path),
		ColorDepth:    colorDepth,
		HasAlpha:      hasAlpha,
		FileSizeBytes: stat.Size(),
	}, nil
}

// storedModel decodes path without reorientation and reports alpha and bit
// depth from the decoder's own image type:
//   - *image.RGBA, *image.NRGBA, *image.NYCbCrA -> 8-bit with alpha
//   - *image.RGBA64, *image.NRGBA64 -> 16-bit with alpha
//   - *image.Paletted -> 8-bit, alpha if any palette entry is not opaque
//   - *image.Gray16 -> 16-bit without alpha
//   - everything else -> 8-bit without alpha
func storedModel(path string) (hasAlpha bool, depth string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return false, "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return false, "", fmt.Errorf("failed to decode image: %w", err)
	}

	depth = "8-bit"
	switch m := img.(type) {
	case *image.RGBA, *image.NRGBA, *image.NYCbCrA:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		depth = "16-bit"
	case *image.Gray16:
		depth = "16-bit"
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				hasAlpha = true
				break
			}
		}
	}
	return hasAlpha, depth, nil
}

// FormatFromPath maps a file extension to a lowercase format name.
func FormatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".webp") {
		return "webp"
	}
	f, err := imaging.FormatFromFilename(path)
	if err != nil {
		return "unknown"
	}
	return strings.ToLower(f.String())
}
