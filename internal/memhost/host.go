package memhost

import (
	"slices"
	"sync"
	"sync/atomic"

	"go.trai.ch/zerr"

	"github.com/gogpu/recolor"
)

// Host creates and tracks in-memory assets.
//
// Host is safe for concurrent use.
type Host struct {
	nextID atomic.Uint64

	mu        sync.Mutex
	created   []recolor.Asset
	destroyed int
}

// New creates an empty host.
func New() *Host {
	return &Host{}
}

// asset is the shared part of every memhost asset.
type asset struct {
	id    recolor.AssetID
	name  string
	alive atomic.Bool
}

func (h *Host) initAsset(a *asset, name string) {
	a.id = recolor.AssetID(h.nextID.Add(1))
	a.name = name
	a.alive.Store(true)
}

func (a *asset) ID() recolor.AssetID { return a.id }
func (a *asset) Name() string        { return a.name }
func (a *asset) Alive() bool         { return a.alive.Load() }

// Kill marks the asset destroyed without going through the factory, as if
// the host deleted it externally.
func (a *asset) Kill() { a.alive.Store(false) }

func (h *Host) track(a recolor.Asset) {
	h.mu.Lock()
	h.created = append(h.created, a)
	h.mu.Unlock()
}

// NewTexture creates a texture holding a copy of px. It implements
// recolor.AssetFactory.
func (h *Host) NewTexture(name string, px *recolor.Pixmap) (recolor.Texture, error) {
	if px == nil || px.IsEmpty() {
		return nil, zerr.With(zerr.Wrap(recolor.ErrEmptyBuffer, "cannot create texture"), "name", name)
	}
	t := h.Texture(name, px)
	h.track(t)
	return t, nil
}

// CloneMaterial duplicates a material with all its property bindings.
func (h *Host) CloneMaterial(src recolor.Material, name string) (recolor.Material, error) {
	m, ok := src.(*Material)
	if !ok || m == nil || !m.Alive() {
		return nil, zerr.With(zerr.Wrap(recolor.ErrNoMaterial, "cannot clone material"), "name", name)
	}
	c := h.Material(name)
	m.mu.Lock()
	for _, p := range m.order {
		c.SetTexture(p, m.props[p])
	}
	m.mu.Unlock()
	h.track(c)
	return c, nil
}

// Destroy releases an asset created by NewTexture or CloneMaterial.
func (h *Host) Destroy(a recolor.Asset) {
	k, ok := a.(interface{ Kill() })
	if !ok || !a.Alive() {
		return
	}
	k.Kill()
	h.mu.Lock()
	h.destroyed++
	h.mu.Unlock()
}

// Created returns the assets created through the factory, in order.
func (h *Host) Created() []recolor.Asset {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.created)
}

// Destroyed returns how many factory assets were destroyed.
func (h *Host) Destroyed() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.destroyed
}

// LiveCreated returns how many factory-created assets are still alive.
func (h *Host) LiveCreated() int {
	n := 0
	for _, a := range h.Created() {
		if a.Alive() {
			n++
		}
	}
	return n
}

// TextureProperties lists the texture properties of a material in the
// order they were first set. It implements recolor.MaterialInspector.
func (h *Host) TextureProperties(m recolor.Material) []string {
	mm, ok := m.(*Material)
	if !ok || mm == nil {
		return nil
	}
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return slices.Clone(mm.order)
}
