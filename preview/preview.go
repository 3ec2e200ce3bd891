// Package preview shows recolor results live, without modifying the
// authored renderers.
//
// The host asks for surface groups, instantiates one preview node per
// group and calls OnFrame with each original renderer and the proxy it
// draws instead. The node keeps one cache entry per binding, re-acquires
// when the binding's content hash changes and releases everything on
// teardown.
package preview

import (
	"slices"
	"sync"

	"github.com/gogpu/recolor"
	"github.com/gogpu/recolor/session"
)

// SurfaceGroup is a set of renderers previewed together.
type SurfaceGroup struct {
	Renderers []recolor.Renderer

	// Data is opaque to the host and handed back to InstantiatePreview.
	Data any
}

// Node is a preview overlay instantiated for one surface group.
type Node interface {
	// OnFrame copies the patched material assignment for original onto
	// proxy.
	OnFrame(original, proxy recolor.Renderer)

	// Teardown releases every cache entry the node acquired.
	Teardown()
}

// EmptyNode is the node for groups that have nothing to preview.
type EmptyNode struct{}

// OnFrame does nothing.
func (EmptyNode) OnFrame(_, _ recolor.Renderer) {}

// Teardown does nothing.
func (EmptyNode) Teardown() {}

// System is the preview entry point of one session.
type System struct {
	sess *session.Session
}

// NewSystem creates a preview system acquiring results through sess.
func NewSystem(sess *session.Session) *System {
	return &System{sess: sess}
}

// TargetSurfaceGroups returns one group per enabled adjustment that has a
// reference texture and at least one valid binding. Each group lists the
// distinct bound renderers in binding order.
func (s *System) TargetSurfaceGroups(adjs []*recolor.Adjustment) []SurfaceGroup {
	var groups []SurfaceGroup
	for _, adj := range adjs {
		if !previewable(adj) {
			continue
		}
		seen := make(map[recolor.AssetID]bool)
		g := SurfaceGroup{Data: adj}
		for b := range adj.ValidBindings() {
			if id := b.Renderer.ID(); !seen[id] {
				seen[id] = true
				g.Renderers = append(g.Renderers, b.Renderer)
			}
		}
		groups = append(groups, g)
	}
	return groups
}

// InstantiatePreview creates the overlay node for a group, or an
// EmptyNode when the group's adjustment is missing or unusable.
func (s *System) InstantiatePreview(g SurfaceGroup) Node {
	adj, ok := g.Data.(*recolor.Adjustment)
	if !ok || !previewable(adj) {
		return EmptyNode{}
	}
	return &Overlay{sess: s.sess, adj: adj, held: make(map[slotKey]*holding)}
}

func previewable(adj *recolor.Adjustment) bool {
	return adj != nil && adj.Enabled && adj.Validate() == nil && adj.HasValidBindings()
}

type slotKey struct {
	renderer recolor.AssetID
	slot     int
}

// holding is one acquired entry and the hash it was acquired for.
type holding struct {
	hash  recolor.Hash
	entry *session.Entry
}

// Overlay is the preview node of one adjustment.
//
// Overlay is safe for concurrent use.
type Overlay struct {
	sess *session.Session
	adj  *recolor.Adjustment

	mu       sync.Mutex
	held     map[slotKey]*holding
	torndown bool
}

// OnFrame re-evaluates every binding of the adjustment on original,
// acquires changed results and assigns the patched materials to proxy.
// Slots whose result cannot be computed show the original material.
func (o *Overlay) OnFrame(original, proxy recolor.Renderer) {
	if recolor.IsNil(original) || recolor.IsNil(proxy) || !original.Alive() {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.torndown {
		return
	}

	id := original.ID()
	seen := make(map[slotKey]bool)
	for b := range o.adj.ValidBindings() {
		if b.Renderer.ID() != id {
			continue
		}
		k := slotKey{renderer: id, slot: b.Slot}
		seen[k] = true
		o.refresh(k, b)
	}
	for k, h := range o.held {
		if k.renderer == id && !seen[k] {
			o.sess.Release(h.entry)
			delete(o.held, k)
		}
	}

	mats := slices.Clone(original.Materials())
	for k, h := range o.held {
		if k.renderer == id && k.slot < len(mats) {
			mats[k.slot] = h.entry.Value().Material
		}
	}
	proxy.SetMaterials(mats)
}

// refresh makes o.held[k] current for binding b.
func (o *Overlay) refresh(k slotKey, b recolor.Binding) {
	hash := recolor.ContentHash(&o.adj.Settings, b)
	cur := o.held[k]
	if cur != nil && cur.hash == hash && o.current(cur, b) {
		return
	}

	if cur != nil && cur.hash == hash {
		// Same parameters, different source: the cached result is stale.
		o.sess.Store().Invalidate(uint64(hash))
	}

	e, err := o.sess.Acquire(o.adj, b)
	if cur != nil {
		o.sess.Release(cur.entry)
		delete(o.held, k)
	}
	if err != nil {
		recolor.Logger().Warn("preview target skipped",
			"adjustment", o.adj.Name, "renderer", b.Renderer.Name(), "slot", b.Slot, "error", err)
		return
	}
	o.held[k] = &holding{hash: hash, entry: e}
}

// current reports whether a held result still matches the slot contents.
func (o *Overlay) current(h *holding, b recolor.Binding) bool {
	d := h.entry.Value()
	if !d.Alive() {
		return false
	}
	mats := b.Renderer.Materials()
	return b.Slot < len(mats) && !recolor.IsNil(mats[b.Slot]) && mats[b.Slot].ID() == d.SourceMaterial.ID()
}

// Teardown releases every entry acquired by the overlay. Later calls do
// nothing.
func (o *Overlay) Teardown() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for k, h := range o.held {
		o.sess.Release(h.entry)
		delete(o.held, k)
	}
	o.torndown = true
}

// Held returns the number of entries currently held.
func (o *Overlay) Held() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.held)
}
