// Package adjust implements the recolor color adjustment engine.
//
// Three matching algorithms move the color distribution of a source
// texture toward a reference texture:
//
//   - Global histogram matching matches per-channel mean and standard
//     deviation in Oklab, blended with the original by intensity.
//   - Selective matching applies the same transfer only to pixels near a
//     target color, smoothly weighted by Oklab distance, and moves them
//     toward a reference color.
//   - High-precision matching samples the reference only where a mesh's
//     UVs cover it, reduces those samples to a few dominant colors and
//     matches against that palette. An unusable mesh setup falls back to
//     global matching and is reported, not returned as an error.
//
// The fixed hue/saturation/brightness/gamma post stage runs after
// matching. Every function here is pure: inputs are never modified and
// identical inputs give identical outputs.
package adjust
