package manifest

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/recolor"
	"github.com/gogpu/recolor/internal/lru"
	"github.com/gogpu/recolor/internal/memhost"
)

// ErrManifest is the parent of every manifest error.
var ErrManifest = zerr.New("invalid manifest")

// imageCacheSize bounds the number of decoded images kept per loader.
const imageCacheSize = 64

// Scene is a resolved manifest: the host holding its assets plus the
// adjustments declared over them. It implements recolor.Root.
type Scene struct {
	Host *memhost.Host

	Textures  map[string]*memhost.Texture
	Materials map[string]*memhost.Material
	Renderers map[string]*memhost.Renderer
	Meshes    map[string]*memhost.Mesh

	adjustments []*recolor.Adjustment
}

// Adjustments returns the adjustments in manifest order.
func (s *Scene) Adjustments() []*recolor.Adjustment {
	return s.adjustments
}

// Renderer returns the renderer with the given name, or nil.
func (s *Scene) Renderer(name string) *memhost.Renderer {
	return s.Renderers[name]
}

// Loader decodes manifests. Decoded images are cached by absolute path, so
// repeated loads of the same scene do not decode textures again.
type Loader struct {
	images *lru.Cache[string, *recolor.Pixmap]
}

// NewLoader creates a loader with an empty image cache.
func NewLoader() *Loader {
	return &Loader{images: lru.New[string, *recolor.Pixmap](imageCacheSize)}
}

// ImageStats returns the image cache statistics.
func (l *Loader) ImageStats() lru.Stats {
	return l.images.Stats()
}

// Load reads and resolves the manifest at path. Relative texture paths
// are resolved against the manifest directory.
func Load(path string) (*Scene, error) {
	return NewLoader().Load(path)
}

// Load reads and resolves the manifest at path.
func (l *Loader) Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read manifest"), "path", path)
	}
	f, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return l.Resolve(f, filepath.Dir(path))
}

// Parse decodes a manifest document. Unknown fields are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, errors.Join(ErrManifest, zerr.Wrap(err, "failed to parse manifest"))
	}
	return &f, nil
}

// Write encodes f as a manifest document.
func Write(w io.Writer, f *File) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return zerr.Wrap(err, "failed to encode manifest")
	}
	return enc.Close()
}

// StoreBindings records the binding list of adj in d, along with its
// version and hash, so a later Resolve picks up where adj left off.
func (d *AdjustmentDTO) StoreBindings(adj *recolor.Adjustment) {
	d.Bindings = d.Bindings[:0]
	for _, b := range adj.Bindings() {
		if recolor.IsNil(b.Renderer) {
			continue
		}
		d.Bindings = append(d.Bindings, BindingDTO{Renderer: b.Renderer.Name(), Slot: b.Slot})
	}
	d.SchemaVersion = adj.SchemaVersion
	d.BindingVersion = adj.BindingVersion()
	d.BindingHash = adj.BindingHash().String()
}

// Resolve builds the scene described by f. dir is the base directory for
// relative texture paths.
//
// Every adjustment goes through the load sequence of a persisted
// configuration: bindings are installed unvalidated, legacy data is
// migrated, then slots are clamped against the resolved renderers.
func (l *Loader) Resolve(f *File, dir string) (*Scene, error) {
	s := &Scene{
		Host:      memhost.New(),
		Textures:  make(map[string]*memhost.Texture),
		Materials: make(map[string]*memhost.Material),
		Renderers: make(map[string]*memhost.Renderer),
		Meshes:    make(map[string]*memhost.Mesh),
	}

	for _, t := range f.Textures {
		if err := unique(t.Name, "texture", s.Textures); err != nil {
			return nil, err
		}
		px, err := l.pixels(t, dir)
		if err != nil {
			return nil, zerr.With(err, "texture", t.Name)
		}
		s.Textures[t.Name] = s.Host.Texture(t.Name, px)
	}

	for _, m := range f.Materials {
		if err := unique(m.Name, "material", s.Materials); err != nil {
			return nil, err
		}
		mat := s.Host.Material(m.Name)
		for _, p := range m.Properties {
			tex, ok := s.Textures[p.Texture]
			if !ok {
				return nil, unknown("texture", p.Texture, "material", m.Name)
			}
			mat.SetTexture(p.Name, tex)
		}
		s.Materials[m.Name] = mat
	}

	for _, r := range f.Renderers {
		if err := unique(r.Name, "renderer", s.Renderers); err != nil {
			return nil, err
		}
		slots := make([]recolor.Material, len(r.Materials))
		for i, name := range r.Materials {
			if name == "" {
				continue
			}
			mat, ok := s.Materials[name]
			if !ok {
				return nil, unknown("material", name, "renderer", r.Name)
			}
			slots[i] = mat
		}
		s.Renderers[r.Name] = s.Host.Renderer(r.Name, slots...)
	}

	for _, m := range f.Meshes {
		if err := unique(m.Name, "mesh", s.Meshes); err != nil {
			return nil, err
		}
		uvs := make([][]recolor.Point, len(m.UVs))
		for ch, pts := range m.UVs {
			uvs[ch] = make([]recolor.Point, len(pts))
			for i, p := range pts {
				uvs[ch][i] = recolor.Pt(p[0], p[1])
			}
		}
		for i, tris := range m.Submeshes {
			if len(tris)%3 != 0 {
				return nil, zerr.With(zerr.With(zerr.Wrap(ErrManifest, "submesh index count is not a multiple of 3"),
					"mesh", m.Name), "submesh", i)
			}
		}
		s.Meshes[m.Name] = s.Host.Mesh(m.Name, uvs, m.Submeshes...)
	}

	for _, a := range f.Adjustments {
		adj, err := s.adjustment(a)
		if err != nil {
			return nil, zerr.With(err, "adjustment", a.Name)
		}
		s.adjustments = append(s.adjustments, adj)
	}

	recolor.Logger().Debug("manifest resolved",
		"textures", len(s.Textures),
		"materials", len(s.Materials),
		"renderers", len(s.Renderers),
		"adjustments", len(s.adjustments))
	return s, nil
}

func (l *Loader) pixels(t TextureDTO, dir string) (*recolor.Pixmap, error) {
	if t.Path == "" {
		if t.Width <= 0 || t.Height <= 0 {
			return nil, zerr.With(zerr.With(zerr.Wrap(ErrManifest, "solid texture needs a positive size"),
				"width", t.Width), "height", t.Height)
		}
		px := recolor.NewPixmap(t.Width, t.Height)
		px.Fill(recolor.Hex(t.Color))
		return px, nil
	}

	path := t.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve path"), "path", t.Path)
	}
	px, err := l.images.GetOrLoad(path, func() (*recolor.Pixmap, error) {
		return recolor.LoadImage(path)
	})
	if err != nil {
		return nil, err
	}
	// The host owns its pixels; the cached image stays pristine.
	return px.Clone(), nil
}

func (s *Scene) adjustment(a AdjustmentDTO) (*recolor.Adjustment, error) {
	adj := recolor.NewAdjustment(a.Name)
	adj.SchemaVersion = a.SchemaVersion
	if a.Enabled != nil {
		adj.Enabled = *a.Enabled
	}

	mode, ok := recolor.ParseMode(a.Mode)
	if !ok {
		return nil, zerr.With(zerr.Wrap(ErrManifest, "unknown mode"), "mode", a.Mode)
	}
	adj.Mode = mode
	adj.PreserveLuminance = a.PreserveLuminance
	adj.PreviewOnCPU = a.PreviewOnCPU
	if a.Intensity != nil {
		adj.Intensity = *a.Intensity
	}

	if a.Reference != "" {
		tex, ok := s.Textures[a.Reference]
		if !ok {
			return nil, unknown("texture", a.Reference, "adjustment", a.Name)
		}
		adj.Reference = tex
	}

	if sel := a.Selective; sel != nil {
		adj.Selective.TargetColor = recolor.Hex(sel.TargetColor)
		adj.Selective.ReferenceColor = recolor.Hex(sel.ReferenceColor)
		if sel.Range != nil {
			adj.Selective.Range = *sel.Range
		}
	}

	if p := a.Precision; p != nil {
		if err := s.precision(&adj.Precision, p); err != nil {
			return nil, err
		}
	}

	if post := a.Post; post != nil {
		adj.Post.HueShift = post.HueShift
		setIf(&adj.Post.Saturation, post.Saturation)
		setIf(&adj.Post.Brightness, post.Brightness)
		setIf(&adj.Post.Gamma, post.Gamma)
	}

	// The saved state goes in first so an unchanged list keeps its version.
	if a.BindingVersion != 0 || a.BindingHash != "" {
		hash, err := parseHash(a.BindingHash)
		if err != nil {
			return nil, err
		}
		adj.RestoreBindingState(a.BindingVersion, hash)
	}

	// A binding naming a missing renderer is dropped by the first
	// Sanitize, the same way a deleted renderer is.
	bindings := make([]recolor.Binding, 0, len(a.Bindings))
	for _, b := range a.Bindings {
		bindings = append(bindings, recolor.Binding{Renderer: s.rendererOrNil(b.Renderer), Slot: b.Slot})
	}
	adj.LoadBindings(bindings)

	if a.LegacyRenderer != "" {
		adj.LegacyRenderer = s.rendererOrNil(a.LegacyRenderer)
		adj.LegacySlot = a.LegacySlot
	}
	recolor.Migrate(adj)
	adj.Sanitize(true)

	if err := adj.ValidateParams(); err != nil {
		return nil, err
	}
	return adj, nil
}

func parseHash(s string) (recolor.Hash, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, zerr.With(zerr.Wrap(ErrManifest, "invalid binding hash"), "bindingHash", s)
	}
	return recolor.Hash(v), nil
}

func (s *Scene) precision(dst *recolor.PrecisionParams, p *PrecisionDTO) error {
	if p.Mesh != "" {
		mesh, ok := s.Meshes[p.Mesh]
		if !ok {
			return unknown("mesh", p.Mesh, "precision", "mesh")
		}
		dst.Mesh = mesh
	}
	if p.Mask != "" {
		mask, ok := s.Textures[p.Mask]
		if !ok {
			return unknown("texture", p.Mask, "precision", "mask")
		}
		dst.Mask = mask
	}
	dst.MaterialIndex = p.MaterialIndex
	dst.UVChannel = p.UVChannel
	dst.Weighted = p.Weighted
	if p.DominantColors != nil {
		dst.DominantColors = *p.DominantColors
	}
	setIf(&dst.MaskThreshold, p.MaskThreshold)
	return nil
}

// rendererOrNil returns the named renderer as an interface value, keeping
// a missing renderer an untyped nil.
func (s *Scene) rendererOrNil(name string) recolor.Renderer {
	if r, ok := s.Renderers[name]; ok {
		return r
	}
	if name != "" {
		recolor.Logger().Warn("binding names an unknown renderer", "renderer", name)
	}
	return nil
}

func setIf(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func unique[V any](name, kind string, seen map[string]V) error {
	if name == "" {
		return zerr.With(zerr.Wrap(ErrManifest, "missing name"), "kind", kind)
	}
	if _, ok := seen[name]; ok {
		return zerr.With(zerr.With(zerr.Wrap(ErrManifest, "duplicate name"), "kind", kind), "name", name)
	}
	return nil
}

func unknown(kind, name, ownerKind, owner string) error {
	return zerr.With(zerr.With(zerr.Wrap(ErrManifest, "unknown "+kind), "name", name), ownerKind, owner)
}
