// Package imaging bridges image files and the pixel buffers the removal
// engine works on.
//
// It decodes PNG, JPEG, GIF, BMP, TIFF and WebP input (EXIF orientation is
// applied on load), converts decoded images to non-premultiplied RGBA
// buffers and encodes results back to PNG, the only supported output format
// that keeps an alpha channel.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner. X
// increases rightward and Y downward. Images whose bounds do not start at the
// origin are shifted so that their top-left pixel becomes (0,0).
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The remaining functions are
// stateless and may be called concurrently on different buffers.
//
// # Memory
//
// Cached images stay resident until Evict or Clear is called. Anything that
// overwrites a file on disk must evict its path.
package imaging
