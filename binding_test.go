package recolor

import (
	"slices"
	"testing"
)

func TestAddBinding(t *testing.T) {
	a := NewAdjustment("test")
	r := newFakeRenderer("r", 2)

	if !a.AddBinding(Binding{Renderer: r, Slot: 1}) {
		t.Fatal("AddBinding() = false, want true")
	}
	if a.AddBinding(Binding{Renderer: r, Slot: 1}) {
		t.Error("duplicate binding was added")
	}
	if a.AddBinding(Binding{Renderer: nil, Slot: 0}) {
		t.Error("binding without renderer was added")
	}
	var typedNil *fakeRenderer
	if a.AddBinding(Binding{Renderer: typedNil, Slot: 0}) {
		t.Error("binding with typed nil renderer was added")
	}
	if got := len(a.Bindings()); got != 1 {
		t.Errorf("len(Bindings()) = %d, want 1", got)
	}
}

func TestSanitizeClampsAndDrops(t *testing.T) {
	a := NewAdjustment("test")
	r1 := newFakeRenderer("r1", 2)
	r2 := newFakeRenderer("r2", 1)
	a.LoadBindings([]Binding{{Renderer: r1, Slot: 5}, {Renderer: r2, Slot: 0}})

	if got := a.Bindings()[0].Slot; got != 5 {
		t.Fatalf("LoadBindings clamped slot to %d, want it untouched", got)
	}

	v := a.BindingVersion()
	r2.dead = true
	if !a.Sanitize(true) {
		t.Fatal("Sanitize(true) = false, want true")
	}
	got := a.Bindings()
	if len(got) != 1 || got[0].Slot != 1 {
		t.Errorf("Bindings() = %+v, want one binding with slot 1", got)
	}
	if a.BindingVersion() != v+1 {
		t.Errorf("BindingVersion() = %d, want %d", a.BindingVersion(), v+1)
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	a := NewAdjustment("test")
	a.SetBindings([]Binding{{Renderer: newFakeRenderer("r", 3), Slot: 2}})

	v, h := a.BindingVersion(), a.BindingHash()
	for range 3 {
		if a.Sanitize(true) {
			t.Fatal("Sanitize(true) on a clean list reported a change")
		}
	}
	if a.BindingVersion() != v || a.BindingHash() != h {
		t.Error("clean Sanitize changed version or hash")
	}
}

func TestBindingVersionBumps(t *testing.T) {
	a := NewAdjustment("test")
	r := newFakeRenderer("r", 2)
	h0 := a.BindingHash()

	a.AddBinding(Binding{Renderer: r, Slot: 0})
	v1, h1 := a.BindingVersion(), a.BindingHash()
	if v1 == 0 || h1 == h0 {
		t.Fatalf("AddBinding did not bump version/hash: v=%d", v1)
	}

	a.AddBinding(Binding{Renderer: r, Slot: 1})
	if a.BindingVersion() <= v1 {
		t.Error("second AddBinding did not bump version")
	}

	if !a.RemoveBinding(Binding{Renderer: r, Slot: 1}) {
		t.Fatal("RemoveBinding() = false")
	}
	if a.BindingHash() != h1 {
		t.Error("binding hash after remove differs from the equal earlier list")
	}
	if a.RemoveBinding(Binding{Renderer: r, Slot: 1}) {
		t.Error("RemoveBinding of a missing binding = true")
	}
}

func TestValidBindings(t *testing.T) {
	a := NewAdjustment("test")
	r1 := newFakeRenderer("r1", 1)
	r2 := newFakeRenderer("r2", 1)
	a.LoadBindings([]Binding{{Renderer: r1, Slot: -1}, {Renderer: r2, Slot: 0}})

	got := slices.Collect(a.ValidBindings())
	if len(got) != 1 || got[0].Renderer != Renderer(r2) {
		t.Fatalf("ValidBindings() = %+v, want only r2", got)
	}
	// The sequence is restartable.
	if n := len(slices.Collect(a.ValidBindings())); n != 1 {
		t.Errorf("second iteration yielded %d bindings", n)
	}
	if a.PrimaryRenderer() != Renderer(r2) || a.PrimarySlot() != 0 {
		t.Error("primary binding is not the first valid binding")
	}

	empty := NewAdjustment("empty")
	if empty.HasValidBindings() || empty.PrimaryRenderer() != nil || empty.PrimarySlot() != 0 {
		t.Error("empty adjustment reports a valid binding")
	}
}

func TestBindingsReturnsCopy(t *testing.T) {
	a := NewAdjustment("test")
	a.AddBinding(Binding{Renderer: newFakeRenderer("r", 2), Slot: 1})
	b := a.Bindings()
	b[0].Slot = 0
	if a.Bindings()[0].Slot != 1 {
		t.Error("modifying Bindings() result changed the adjustment")
	}
}
