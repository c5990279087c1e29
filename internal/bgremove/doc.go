// Package bgremove implements chroma-key background removal on raw pixel buffers.
//
// The package works on a flat RGB or RGBA sample buffer and never touches files,
// codecs or loggers. Decoding and encoding live in the imaging package; the
// pipeline package wires the two together with a copy-through fallback.
//
// # Processing Stages
//
// A removal call runs two stages in order:
//
//  1. Background estimation: sample the image border (colored variant) or all
//     bright pixels (light variant), bucket the samples into a quantized
//     histogram and take the modal bucket as the background color.
//  2. Classification: every pixel gets a distance from the background and a
//     new alpha value: 0 for background, a feathered value inside the
//     transition band, or its original alpha otherwise.
//
// Estimation always completes before classification starts. Classification
// is data-parallel over rows; the only shared state is the read-only estimate
// and options.
//
// # Distance Metrics
//
// Two metrics are supported:
//   - MetricRGB: Euclidean distance in RGB space (0 to ~441).
//   - MetricHSV: sqrt(2*dH² + dS² + dV²) with circular hue difference in
//     degrees and S/V as percentages. Hue is weighted twice.
//
// # Variants
//
// ModeColored removes any single-color background. ModeLight is tuned for
// white and near-white backgrounds and uses brightness thresholds instead of
// color distance. ModeAuto inspects the four corners and picks one.
//
// # Error Handling
//
// Buffers are validated before any pixel is read:
//   - ErrEmptyImage for zero width or height
//   - ErrMalformedBuffer for a channel count other than 3 or 4, or a sample
//     slice whose length is not Width*Height*Channels
//
// On error no output buffer is returned.
package bgremove
