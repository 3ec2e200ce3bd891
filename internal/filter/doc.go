// Package filter implements the post-adjustment stage of the recolor
// pipeline.
//
// The stage is a fixed sequence applied to every pixel after matching:
//   - hue rotation (degrees, in HSV)
//   - saturation scale
//   - brightness scale
//   - gamma correction (out = in^gamma, per channel)
//
// It is a pure function of the input pixels and the four parameters and
// always runs on a CPU-readable buffer. Alpha is never modified.
package filter
