// Package session composes the derived-resource cache and the dispatcher
// into the pipeline object shared by the live preview and the bake pass.
//
// A Session is created by whichever subsystem owns the pipeline's lifetime
// and is passed explicitly to the code that needs it.
package session

import (
	"log/slog"

	"go.trai.ch/zerr"

	"github.com/gogpu/recolor"
	"github.com/gogpu/recolor/adjust"
	"github.com/gogpu/recolor/cache"
	"github.com/gogpu/recolor/dispatch"
)

// Derived is one computed (adjusted texture, patched material) pair.
type Derived struct {
	// Texture is the adjusted texture, or the source texture for a no-op
	// adjustment.
	Texture recolor.Texture

	// Material is the patched material, or the source material for a
	// no-op adjustment.
	Material recolor.Material

	SourceTexture  recolor.Texture
	SourceMaterial recolor.Material

	// Property is the material property the source texture was found on.
	Property string

	Backend dispatch.Backend
	Report  adjust.Report
}

// Alive reports whether the derived texture and material still exist.
func (d *Derived) Alive() bool {
	return !recolor.IsNil(d.Texture) && d.Texture.Alive() &&
		!recolor.IsNil(d.Material) && d.Material.Alive()
}

// computedFrom reports whether d was derived from the material and
// texture t resolves to.
func (d *Derived) computedFrom(t Target) bool {
	return sameAsset(d.SourceMaterial, t.Material) && sameAsset(d.SourceTexture, t.Texture)
}

func sameAsset(a, b recolor.Asset) bool {
	return !recolor.IsNil(a) && !recolor.IsNil(b) && a.ID() == b.ID()
}

// Entry is a cache entry holding a Derived pair.
type Entry = cache.Entry[*Derived]

// Target is a binding resolved to the material and texture it adjusts.
type Target struct {
	Binding  recolor.Binding
	Material recolor.Material
	Property string
	Texture  recolor.Texture
}

// Session is the lifetime-scoped recolor pipeline.
//
// Session is safe for concurrent use.
type Session struct {
	factory    recolor.AssetFactory
	inspector  recolor.MaterialInspector
	store      *cache.Store[*Derived]
	dispatcher *dispatch.Dispatcher

	dispatchOpts []dispatch.Option
	logger       *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithAccelerator uses a for GPU execution instead of the registered
// accelerator.
func WithAccelerator(a recolor.Accelerator) Option {
	return func(s *Session) {
		s.dispatchOpts = append(s.dispatchOpts, dispatch.WithAccelerator(a))
	}
}

// WithForceCPU runs every computation on the CPU.
func WithForceCPU(force bool) Option {
	return func(s *Session) {
		s.dispatchOpts = append(s.dispatchOpts, dispatch.WithForceCPU(force))
	}
}

// WithLogger sets the logger for cache events. Defaults to recolor.Logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a session that creates and destroys derived assets through
// factory and finds material textures through inspector.
func New(factory recolor.AssetFactory, inspector recolor.MaterialInspector, opts ...Option) *Session {
	s := &Session{
		factory:   factory,
		inspector: inspector,
		logger:    recolor.Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dispatcher = dispatch.New(s.dispatchOpts...)
	s.store = cache.New(
		cache.WithLiveness((*Derived).Alive),
		cache.WithRelease(s.destroy),
		cache.WithLogger[*Derived](s.logger),
	)
	return s
}

// Store returns the session's cache.
func (s *Session) Store() *cache.Store[*Derived] {
	return s.store
}

// Resolve finds the material in the binding's slot and its primary texture.
func (s *Session) Resolve(b recolor.Binding) (Target, error) {
	if !b.Valid() {
		return Target{}, zerr.Wrap(recolor.ErrNoValidBindings, "binding is not valid")
	}
	mats := b.Renderer.Materials()
	if b.Slot >= len(mats) || recolor.IsNil(mats[b.Slot]) || !mats[b.Slot].Alive() {
		return Target{}, zerr.With(zerr.With(zerr.Wrap(recolor.ErrNoMaterial, "slot has no material"),
			"renderer", b.Renderer.Name()), "slot", b.Slot)
	}
	mat := mats[b.Slot]
	prop, tex := recolor.PrimaryTexture(s.inspector, mat)
	if tex == nil {
		return Target{}, zerr.With(zerr.Wrap(recolor.ErrNoTexture, "material has no texture"), "material", mat.Name())
	}
	return Target{Binding: b, Material: mat, Property: prop, Texture: tex}, nil
}

// Acquire returns the cached result for one binding of adj, computing it on
// a miss. The caller must Release the entry.
func (s *Session) Acquire(adj *recolor.Adjustment, b recolor.Binding) (*Entry, error) {
	t, err := s.Resolve(b)
	if err != nil {
		return nil, err
	}
	return s.AcquireTarget(adj, t)
}

// AcquireTarget is Acquire for an already resolved target.
func (s *Session) AcquireTarget(adj *recolor.Adjustment, t Target) (*Entry, error) {
	if err := adj.Validate(); err != nil {
		return nil, zerr.With(err, "adjustment", adj.Name)
	}
	h := uint64(recolor.ContentHash(&adj.Settings, t.Binding))
	for {
		e, err := s.store.Acquire(h, s.compute(adj, t))
		if err != nil {
			return nil, err
		}
		if e.Value().computedFrom(t) {
			return e, nil
		}
		// The slot now holds another material or texture than the one the
		// entry was computed from.
		s.logger.Debug("cache entry computed from a replaced source",
			"renderer", t.Binding.Renderer.Name(), "slot", t.Binding.Slot, "material", t.Material.Name())
		s.store.Supersede(e)
		s.store.Release(e)
	}
}

// Release drops one holder of e.
func (s *Session) Release(e *Entry) bool {
	return s.store.Release(e)
}

// Transfer hands e's assets to the caller; the session will not destroy
// them. The caller must still Release e.
func (s *Session) Transfer(e *Entry) *Derived {
	return s.store.Transfer(e)
}

func (s *Session) compute(adj *recolor.Adjustment, t Target) cache.ComputeFunc[*Derived] {
	return func() (*Derived, bool, error) {
		d := &Derived{
			SourceTexture:  t.Texture,
			SourceMaterial: t.Material,
			Property:       t.Property,
			Report:         adjust.Report{Requested: adj.Mode, Mode: adj.Mode},
		}
		if adj.IsNoop() {
			d.Texture, d.Material = t.Texture, t.Material
			return d, false, nil
		}

		tex, res, err := s.AdjustTexture(adj, t.Texture)
		if err != nil {
			return nil, false, err
		}
		mat, err := s.PatchMaterial(t.Material, t.Texture, tex)
		if err != nil {
			s.factory.Destroy(tex)
			return nil, false, err
		}
		d.Texture, d.Material = tex, mat
		d.Backend, d.Report = res.Backend, res.Report
		return d, true, nil
	}
}

// AdjustTexture creates a new texture holding src adjusted by adj. The
// caller owns the returned texture.
func (s *Session) AdjustTexture(adj *recolor.Adjustment, src recolor.Texture) (recolor.Texture, dispatch.Result, error) {
	px, err := recolor.ReadPixels(src)
	if err != nil {
		return nil, dispatch.Result{}, err
	}
	ref, err := recolor.ReadPixels(adj.Reference)
	if err != nil {
		return nil, dispatch.Result{}, zerr.Wrap(err, "read reference texture")
	}
	res, err := s.dispatcher.Run(px, ref, &adj.Settings)
	if err != nil {
		return nil, res, zerr.With(zerr.With(err, "adjustment", adj.Name), "texture", src.Name())
	}
	tex, err := s.factory.NewTexture(recolor.UniqueName(src.Name()), res.Pixmap)
	if err != nil {
		return nil, res, zerr.Wrap(err, "create adjusted texture")
	}
	return tex, res, nil
}

// PatchMaterial clones src and replaces every texture property that refers
// to original with adjusted. The caller owns the returned material.
func (s *Session) PatchMaterial(src recolor.Material, original, adjusted recolor.Texture) (recolor.Material, error) {
	mat, err := s.factory.CloneMaterial(src, recolor.UniqueName(src.Name()))
	if err != nil {
		return nil, zerr.Wrap(err, "clone material")
	}
	for _, prop := range s.inspector.TextureProperties(mat) {
		if t := mat.Texture(prop); !recolor.IsNil(t) && t.ID() == original.ID() {
			mat.SetTexture(prop, adjusted)
		}
	}
	return mat, nil
}

// destroy is the cache release hook.
func (s *Session) destroy(d *Derived, owned bool) {
	if !owned {
		return
	}
	s.factory.Destroy(d.Material)
	s.factory.Destroy(d.Texture)
}
