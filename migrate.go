package recolor

// Schema versions of the persisted Adjustment.
const (
	// SchemaLegacyBinding stores a single (LegacyRenderer, LegacySlot) pair.
	SchemaLegacyBinding = 0

	// SchemaBindingList stores an ordered binding list.
	SchemaBindingList = 1

	// CurrentSchemaVersion is the version written by this package.
	CurrentSchemaVersion = SchemaBindingList
)

// Migrate upgrades a freshly loaded adjustment to CurrentSchemaVersion.
// Call it once at load, after host references are resolved and before the
// first Sanitize with validation.
//
// The legacy single binding is converted into the list form only when the
// list is empty and legacy data is present. The legacy fields are left in
// place. Reports whether the binding list changed.
func Migrate(a *Adjustment) bool {
	if a.SchemaVersion >= CurrentSchemaVersion {
		return false
	}

	migrated := false
	if a.SchemaVersion < SchemaBindingList {
		if len(a.bindings) == 0 && !IsNil(a.LegacyRenderer) {
			a.bindings = append(a.bindings, Binding{Renderer: a.LegacyRenderer, Slot: a.LegacySlot})
			migrated = true
		}
		a.SchemaVersion = SchemaBindingList
	}

	if migrated {
		Logger().Debug("migrated legacy binding", "adjustment", a.Name, "slot", a.LegacySlot)
		a.Sanitize(false)
	}
	return migrated
}

// LoadBindings installs a deserialized binding list without clamping, for
// use before host references are fully resolved. Call Sanitize(true) once
// they are.
func (a *Adjustment) LoadBindings(bindings []Binding) {
	a.bindings = make([]Binding, len(bindings))
	copy(a.bindings, bindings)
	a.Sanitize(false)
}

// RestoreBindingState reinstates a persisted binding version and hash. Call
// it on a fresh adjustment before LoadBindings so the following Sanitize
// compares against the saved fingerprint: an unchanged list keeps its
// version, a changed one moves past it. The version never decreases. A
// zero hash means none was saved and leaves the current one in place.
func (a *Adjustment) RestoreBindingState(version uint64, hash Hash) {
	if version > a.bindingVersion {
		a.bindingVersion = version
	}
	if hash != 0 {
		a.bindingHash = hash
	}
}
