package manifest

// File is the structure of a recolor scene manifest.
type File struct {
	Version     string          `yaml:"version"`
	Textures    []TextureDTO    `yaml:"textures"`
	Materials   []MaterialDTO   `yaml:"materials"`
	Renderers   []RendererDTO   `yaml:"renderers"`
	Meshes      []MeshDTO       `yaml:"meshes"`
	Adjustments []AdjustmentDTO `yaml:"adjustments"`
}

// TextureDTO declares a texture loaded from an image file, or a solid
// color texture when Path is empty.
type TextureDTO struct {
	Name   string `yaml:"name"`
	Path   string `yaml:"path"`
	Color  string `yaml:"color"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// MaterialDTO declares a material and its texture properties, in order.
type MaterialDTO struct {
	Name       string        `yaml:"name"`
	Properties []PropertyDTO `yaml:"properties"`
}

// PropertyDTO binds a texture to a material property.
type PropertyDTO struct {
	Name    string `yaml:"name"`
	Texture string `yaml:"texture"`
}

// RendererDTO declares a renderer's material slots. An empty name leaves
// the slot without a material.
type RendererDTO struct {
	Name      string   `yaml:"name"`
	Materials []string `yaml:"materials"`
}

// MeshDTO declares mesh geometry: per-channel UVs and per-material
// triangle index lists.
type MeshDTO struct {
	Name      string         `yaml:"name"`
	UVs       [][][2]float64 `yaml:"uvs"`
	Submeshes [][]int        `yaml:"submeshes"`
}

// AdjustmentDTO is the persisted form of a recolor.Adjustment.
type AdjustmentDTO struct {
	Name              string        `yaml:"name"`
	Enabled           *bool         `yaml:"enabled"`
	SchemaVersion     int           `yaml:"schemaVersion"`
	Reference         string        `yaml:"reference"`
	Mode              string        `yaml:"mode"`
	Intensity         *float64      `yaml:"intensity"`
	PreserveLuminance bool          `yaml:"preserveLuminance"`
	PreviewOnCPU      bool          `yaml:"previewOnCPU"`
	Selective         *SelectiveDTO `yaml:"selective"`
	Precision         *PrecisionDTO `yaml:"precision"`
	Post              *PostDTO      `yaml:"post"`
	Bindings          []BindingDTO  `yaml:"bindings"`

	// BindingVersion and BindingHash carry the binding state across a
	// save. BindingHash is 16 hex digits; empty when never saved.
	BindingVersion uint64 `yaml:"bindingVersion,omitempty"`
	BindingHash    string `yaml:"bindingHash,omitempty"`

	// LegacyRenderer and LegacySlot are the pre-list single binding.
	LegacyRenderer string `yaml:"renderer"`
	LegacySlot     int    `yaml:"slot"`
}

// SelectiveDTO holds dual-color selective parameters. Colors are hex
// strings.
type SelectiveDTO struct {
	TargetColor    string   `yaml:"targetColor"`
	ReferenceColor string   `yaml:"referenceColor"`
	Range          *float64 `yaml:"range"`
}

// PrecisionDTO holds high-precision parameters.
type PrecisionDTO struct {
	Mesh           string   `yaml:"mesh"`
	MaterialIndex  int      `yaml:"materialIndex"`
	UVChannel      int      `yaml:"uvChannel"`
	DominantColors *int     `yaml:"dominantColors"`
	Weighted       bool     `yaml:"weighted"`
	Mask           string   `yaml:"mask"`
	MaskThreshold  *float64 `yaml:"maskThreshold"`
}

// PostDTO holds post-adjustment parameters. Omitted fields keep the
// identity value.
type PostDTO struct {
	HueShift   float64  `yaml:"hueShift"`
	Saturation *float64 `yaml:"saturation"`
	Brightness *float64 `yaml:"brightness"`
	Gamma      *float64 `yaml:"gamma"`
}

// BindingDTO is one (renderer, slot) target.
type BindingDTO struct {
	Renderer string `yaml:"renderer"`
	Slot     int    `yaml:"slot"`
}
