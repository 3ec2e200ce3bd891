package recolor

import "iter"

// Binding associates an adjustment with one (renderer, material slot)
// target.
type Binding struct {
	Renderer Renderer
	Slot     int
}

// Valid reports whether the binding refers to a live renderer and a
// non-negative slot.
func (b Binding) Valid() bool {
	return live(b.Renderer) && b.Slot >= 0
}

// Same reports whether two bindings refer to the same target.
func (b Binding) Same(o Binding) bool {
	return assetID(b.Renderer) == assetID(o.Renderer) && b.Slot == o.Slot
}

// Adjustment is one authored recolor configuration: the parameter set
// plus the ordered list of targets it applies to.
//
// Every structural change to the binding list runs Sanitize, which keeps
// BindingVersion and BindingHash current so dependents can detect
// "bindings changed" without rehashing every field.
//
// Adjustment is not safe for concurrent mutation.
type Adjustment struct {
	// Name identifies the adjustment in logs and generated asset names.
	Name    string
	Enabled bool
	Settings

	// SchemaVersion is the persisted schema version, see Migrate.
	SchemaVersion int

	// LegacyRenderer and LegacySlot hold the pre-list single binding.
	// They are read once by Migrate and never cleared.
	LegacyRenderer Renderer
	LegacySlot     int

	bindings       []Binding
	bindingVersion uint64
	bindingHash    Hash
}

// NewAdjustment creates an enabled adjustment with default settings and
// the current schema version.
func NewAdjustment(name string) *Adjustment {
	a := &Adjustment{
		Name:          name,
		Enabled:       true,
		Settings:      DefaultSettings(),
		SchemaVersion: CurrentSchemaVersion,
	}
	a.bindingHash = bindingListHash(nil)
	return a
}

// Bindings returns a copy of the binding list, including invalid entries
// kept while validation was disabled.
func (a *Adjustment) Bindings() []Binding {
	out := make([]Binding, len(a.bindings))
	copy(out, a.bindings)
	return out
}

// BindingVersion returns the binding version counter. It increases every
// time the binding list changes shape or a slot is re-clamped.
func (a *Adjustment) BindingVersion() uint64 {
	return a.bindingVersion
}

// BindingHash returns the fingerprint of the current binding list.
func (a *Adjustment) BindingHash() Hash {
	return a.bindingHash
}

// SetBindings replaces the binding list and sanitizes it.
func (a *Adjustment) SetBindings(bindings []Binding) {
	a.bindings = make([]Binding, len(bindings))
	copy(a.bindings, bindings)
	a.Sanitize(true)
}

// AddBinding appends a binding unless its renderer is missing or the same
// target is already bound. Reports whether the binding was added.
func (a *Adjustment) AddBinding(b Binding) bool {
	if !live(b.Renderer) {
		return false
	}
	for _, existing := range a.bindings {
		if existing.Same(b) {
			return false
		}
	}
	a.bindings = append(a.bindings, b)
	a.Sanitize(true)
	return true
}

// RemoveBinding removes the binding for a target. Returns false when no
// binding matched.
func (a *Adjustment) RemoveBinding(b Binding) bool {
	for i, existing := range a.bindings {
		if existing.Same(b) {
			a.bindings = append(a.bindings[:i], a.bindings[i+1:]...)
			a.Sanitize(true)
			return true
		}
	}
	return false
}

// ValidBindings returns a lazy, restartable sequence of the bindings whose
// renderer is live and whose slot is non-negative, in list order.
func (a *Adjustment) ValidBindings() iter.Seq[Binding] {
	return func(yield func(Binding) bool) {
		for _, b := range a.bindings {
			if !b.Valid() {
				continue
			}
			if !yield(b) {
				return
			}
		}
	}
}

// HasValidBindings reports whether at least one binding is valid.
func (a *Adjustment) HasValidBindings() bool {
	for range a.ValidBindings() {
		return true
	}
	return false
}

// PrimaryRenderer returns the renderer of the first valid binding, or nil.
func (a *Adjustment) PrimaryRenderer() Renderer {
	for b := range a.ValidBindings() {
		return b.Renderer
	}
	return nil
}

// PrimarySlot returns the slot of the first valid binding, or 0.
func (a *Adjustment) PrimarySlot() int {
	for b := range a.ValidBindings() {
		return b.Slot
	}
	return 0
}

// Sanitize drops bindings with missing renderers, clamps slot indices to
// each renderer's current slot count, recomputes the binding hash and
// bumps the version if anything changed. Reports whether it bumped.
//
// With validate false, slots are left unclamped; use this while renderers
// are still being resolved, e.g. during deserialization.
func (a *Adjustment) Sanitize(validate bool) bool {
	changed := false
	kept := a.bindings[:0]
	for _, b := range a.bindings {
		if !live(b.Renderer) {
			changed = true
			continue
		}
		if validate {
			if c := clampSlot(b.Slot, len(b.Renderer.Materials())); c != b.Slot {
				b.Slot = c
				changed = true
			}
		}
		kept = append(kept, b)
	}
	// Clear the tail so dropped renderers can be collected.
	for i := len(kept); i < len(a.bindings); i++ {
		a.bindings[i] = Binding{}
	}
	a.bindings = kept

	h := bindingListHash(a.bindings)
	if h != a.bindingHash {
		changed = true
		a.bindingHash = h
	}
	if changed {
		a.bindingVersion++
	}
	return changed
}

func clampSlot(slot, count int) int {
	if count <= 0 || slot < 0 {
		return 0
	}
	if slot >= count {
		return count - 1
	}
	return slot
}
