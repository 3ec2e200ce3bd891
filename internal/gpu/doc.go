// Package gpu implements the wgpu accelerator for recolor.
//
// The accelerator runs the per-pixel statistics transfer of global
// histogram matching as a single compute pass. The WGSL shader mirrors
// adjust.ApplyTransfer: sRGB bytes are converted to Oklab, shifted and
// scaled per channel, blended by intensity and converted back, with alpha
// passed through.
//
// Results stay in a GPU staging buffer until the caller reads them back.
// Device loss marks the accelerator unavailable; the dispatcher then
// recomputes on the CPU.
package gpu
