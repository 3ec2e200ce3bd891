// Package recolor recolors model textures by statistically matching their
// color distribution to a reference texture.
//
// The root package holds the leaf types shared by every stage of the
// pipeline:
//   - [Pixmap], the CPU pixel buffer every algorithm reads and writes
//   - [Settings] and [Adjustment], the parameter set of one recolor operation
//     together with its ordered list of [Binding] targets
//   - [ContentHash], the deterministic cache key of a computed result
//   - the host interfaces ([Texture], [Material], [Renderer], [Mesh],
//     [MaterialInspector], [AssetFactory], [AssetSink])
//   - the optional GPU [Accelerator] registry
//
// # Pipeline
//
// A typical flow looks like this:
//
//	sess := session.New(factory, inspector)
//	entry, err := sess.Acquire(adj, binding) // cached, reference counted
//	defer sess.Release(entry)
//
// The session owns a [github.com/gogpu/recolor/cache.Store] and a
// [github.com/gogpu/recolor/dispatch.Dispatcher]; the same session is
// injected into the live preview ([github.com/gogpu/recolor/preview]) and the
// build-time bake ([github.com/gogpu/recolor/bake]).
//
// # GPU acceleration
//
// Global histogram matching can run on the GPU. Opt in with a blank import:
//
//	import _ "github.com/gogpu/recolor/gpu"
//
// Without a registered accelerator, or whenever the accelerator fails, work
// runs on the CPU and produces the same result.
//
// # Logging
//
// recolor is silent by default. Call [SetLogger] to enable diagnostics.
package recolor
