package recolor

import "reflect"

// AssetID identifies a host asset. Two handles with the same ID refer to
// the same underlying object; identity, not value, is what dedupe and
// content hashing key on.
type AssetID uint64

// Asset is the common surface of every host object recolor touches.
type Asset interface {
	// ID returns the stable identity of the asset.
	ID() AssetID

	// Name returns the human-readable asset name.
	Name() string

	// Alive reports whether the asset still exists. An asset destroyed by
	// the host behaves like a missing reference.
	Alive() bool
}

// Texture is a host texture whose pixels can be read back to the CPU.
type Texture interface {
	Asset

	// Pixels returns the texture contents. Implementations may return
	// shared memory; use ReadPixels to obtain a private copy.
	Pixels() (*Pixmap, error)
}

// Material is a host material with texture-valued properties.
type Material interface {
	Asset

	// Texture returns the texture bound to a property, or nil.
	Texture(property string) Texture

	// SetTexture binds a texture to a property.
	SetTexture(property string, t Texture)
}

// Renderer is a surface with an ordered array of material slots.
type Renderer interface {
	Asset

	// Materials returns the material slot array. Callers must not modify
	// the returned slice; use SetMaterials.
	Materials() []Material

	// SetMaterials replaces the material slot array.
	SetMaterials(materials []Material)
}

// Mesh is the geometry used by high-precision matching.
type Mesh interface {
	Asset

	// SubmeshCount returns the number of submeshes (one per material index).
	SubmeshCount() int

	// Triangles returns the vertex index triples of a submesh.
	Triangles(submesh int) []int

	// UVs returns the per-vertex texture coordinates of a UV channel,
	// or nil when the channel does not exist.
	UVs(channel int) []Point
}

// MaterialInspector enumerates the texture-valued properties of a
// material. It stands in for shader reflection on the host.
type MaterialInspector interface {
	TextureProperties(m Material) []string
}

// AssetFactory creates and destroys the derived assets recolor produces.
type AssetFactory interface {
	// NewTexture creates a texture holding a copy of px.
	NewTexture(name string, px *Pixmap) (Texture, error)

	// CloneMaterial duplicates a material under a new name.
	CloneMaterial(src Material, name string) (Material, error)

	// Destroy releases an asset created by this factory.
	Destroy(a Asset)
}

// AssetSink receives the assets produced by a bake. Ownership moves to
// the sink on registration.
type AssetSink interface {
	Register(a Asset) error
}

// Root enumerates the adjustment configurations under a build root.
type Root interface {
	Adjustments() []*Adjustment
}

// Point is a 2D point, used for texture coordinates.
type Point struct {
	X, Y float64
}

// Pt is a convenience function to create a Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// PrimaryTexture returns the first texture-valued property of m that holds
// a live texture, in the order reported by the inspector.
func PrimaryTexture(inspector MaterialInspector, m Material) (string, Texture) {
	if IsNil(m) || inspector == nil {
		return "", nil
	}
	for _, prop := range inspector.TextureProperties(m) {
		if t := m.Texture(prop); !IsNil(t) && t.Alive() {
			return prop, t
		}
	}
	return "", nil
}

// IsNil reports whether v is nil, including typed nil pointers stored in
// an interface.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// live reports whether an asset reference is usable.
func live(a Asset) bool {
	return !IsNil(a) && a.Alive()
}
