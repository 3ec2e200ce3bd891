package recolor

import "sync/atomic"

var fakeIDs atomic.Uint64

type fakeAsset struct {
	id   AssetID
	name string
	dead bool
}

func newFakeAsset(name string) fakeAsset {
	return fakeAsset{id: AssetID(fakeIDs.Add(1)), name: name}
}

func (a *fakeAsset) ID() AssetID  { return a.id }
func (a *fakeAsset) Name() string { return a.name }
func (a *fakeAsset) Alive() bool  { return !a.dead }

type fakeTexture struct {
	fakeAsset
	px  *Pixmap
	err error
}

func newFakeTexture(name string, px *Pixmap) *fakeTexture {
	return &fakeTexture{fakeAsset: newFakeAsset(name), px: px}
}

func (t *fakeTexture) Pixels() (*Pixmap, error) { return t.px, t.err }

type fakeMaterial struct {
	fakeAsset
	props map[string]Texture
}

func (m *fakeMaterial) Texture(p string) Texture       { return m.props[p] }
func (m *fakeMaterial) SetTexture(p string, t Texture) { m.props[p] = t }

type fakeRenderer struct {
	fakeAsset
	materials []Material
}

func newFakeRenderer(name string, slots int) *fakeRenderer {
	r := &fakeRenderer{fakeAsset: newFakeAsset(name)}
	for range slots {
		r.materials = append(r.materials, &fakeMaterial{fakeAsset: newFakeAsset(name + "-mat"), props: map[string]Texture{}})
	}
	return r
}

func (r *fakeRenderer) Materials() []Material     { return r.materials }
func (r *fakeRenderer) SetMaterials(m []Material) { r.materials = m }
