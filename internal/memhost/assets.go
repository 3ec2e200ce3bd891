package memhost

import (
	"slices"
	"sync"

	"go.trai.ch/zerr"

	"github.com/gogpu/recolor"
)

// Texture is an in-memory texture.
type Texture struct {
	asset
	px *recolor.Pixmap

	// Fail, when set, is returned by Pixels.
	Fail error
}

// Texture creates an authored texture. Unlike NewTexture it is not counted
// as a factory asset.
func (h *Host) Texture(name string, px *recolor.Pixmap) *Texture {
	t := &Texture{}
	h.initAsset(&t.asset, name)
	if px != nil {
		t.px = px.Clone()
	}
	return t
}

// Pixels returns the texture contents.
func (t *Texture) Pixels() (*recolor.Pixmap, error) {
	if t.Fail != nil {
		return nil, t.Fail
	}
	if t.px == nil {
		return nil, zerr.With(zerr.Wrap(recolor.ErrUnreadableTexture, "texture has no pixels"), "texture", t.name)
	}
	return t.px, nil
}

// Material is an in-memory material with named texture properties.
type Material struct {
	asset

	mu    sync.Mutex
	order []string
	props map[string]recolor.Texture
}

// Material creates a material. Properties are added with SetTexture.
func (h *Host) Material(name string) *Material {
	m := &Material{props: make(map[string]recolor.Texture)}
	h.initAsset(&m.asset, name)
	return m
}

// Texture returns the texture bound to property, or nil.
func (m *Material) Texture(property string) recolor.Texture {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.props[property]
}

// SetTexture binds a texture to property, adding the property if needed.
func (m *Material) SetTexture(property string, t recolor.Texture) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.props[property]; !ok {
		m.order = append(m.order, property)
	}
	m.props[property] = t
}

// Renderer is an in-memory renderer with material slots.
type Renderer struct {
	asset

	mu        sync.Mutex
	materials []recolor.Material
}

// Renderer creates a renderer with the given slot materials.
func (h *Host) Renderer(name string, materials ...recolor.Material) *Renderer {
	r := &Renderer{materials: slices.Clone(materials)}
	h.initAsset(&r.asset, name)
	return r
}

// Materials returns the material slots.
func (r *Renderer) Materials() []recolor.Material {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.materials)
}

// SetMaterials replaces the material slots.
func (r *Renderer) SetMaterials(materials []recolor.Material) {
	r.mu.Lock()
	r.materials = slices.Clone(materials)
	r.mu.Unlock()
}

// Mesh is an in-memory mesh with submesh triangle lists and UV channels.
type Mesh struct {
	asset
	submeshes [][]int
	uvs       [][]recolor.Point
}

// Mesh creates a mesh. uvs holds one slice per UV channel; submeshes holds
// one triangle index list per material index.
func (h *Host) Mesh(name string, uvs [][]recolor.Point, submeshes ...[]int) *Mesh {
	m := &Mesh{uvs: uvs, submeshes: submeshes}
	h.initAsset(&m.asset, name)
	return m
}

// SubmeshCount returns the number of submeshes.
func (m *Mesh) SubmeshCount() int { return len(m.submeshes) }

// Triangles returns the triangle indices of a submesh.
func (m *Mesh) Triangles(submesh int) []int {
	if submesh < 0 || submesh >= len(m.submeshes) {
		return nil
	}
	return m.submeshes[submesh]
}

// UVs returns the UVs of a channel, or nil.
func (m *Mesh) UVs(channel int) []recolor.Point {
	if channel < 0 || channel >= len(m.uvs) {
		return nil
	}
	return m.uvs[channel]
}

// Quad returns the UVs and two triangles of an axis-aligned UV rectangle,
// for building test meshes.
func Quad(u0, v0, u1, v1 float64) ([]recolor.Point, []int) {
	return []recolor.Point{
		recolor.Pt(u0, v0), recolor.Pt(u1, v0), recolor.Pt(u1, v1), recolor.Pt(u0, v1),
	}, []int{0, 1, 2, 0, 2, 3}
}
