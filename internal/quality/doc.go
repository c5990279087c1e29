// Package quality scores how cleanly a background was removed.
//
// Analyze walks an RGBA buffer once, counting transparent, semi-transparent
// and opaque pixels and bucketing the visible ones (alpha > 128) as white,
// gray or colored. Evaluate turns those percentages into three sub-scores
// (transparency 0-40, purity 0-30, color 0-30), a letter grade and a list of
// issues with suggested fixes.
//
// The thresholds are tuned for icons and logos: a good result is mostly
// transparent, has little white or gray residue left from the old
// background and keeps a meaningful share of saturated subject pixels.
package quality
