// Package bake turns recolor adjustments into permanent build artifacts.
//
// A bake runs once per build. Each unique source texture is adjusted
// once and each unique source material is patched once, however many
// renderers and slots share them. Renderer slots are rewritten in place to
// reference the patched materials, and every produced asset is handed to
// the host through an AssetSink; the bake keeps no references afterwards.
package bake

import (
	"errors"
	"slices"

	"go.trai.ch/zerr"

	"github.com/gogpu/recolor"
	"github.com/gogpu/recolor/session"
)

// Report summarizes a bake.
type Report struct {
	// Adjustments is the number of adjustments baked.
	Adjustments int
	// Skipped is the number of adjustments skipped as unusable.
	Skipped int
	// Targets is the number of renderer slots rewritten.
	Targets int
	// Textures and Materials count produced assets.
	Textures  int
	Materials int
	// Failed is the number of targets skipped after an error.
	Failed int
	// Errors holds the per-target and per-adjustment errors, in order.
	Errors []error
}

func (r *Report) add(o Report) {
	r.Adjustments += o.Adjustments
	r.Skipped += o.Skipped
	r.Targets += o.Targets
	r.Textures += o.Textures
	r.Materials += o.Materials
	r.Failed += o.Failed
	r.Errors = append(r.Errors, o.Errors...)
}

// Err joins the collected errors, or returns nil.
func (r *Report) Err() error {
	return errors.Join(r.Errors...)
}

// Orchestrator bakes adjustments through a session.
type Orchestrator struct {
	sess *session.Session
	sink recolor.AssetSink
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSink registers produced assets with sink.
func WithSink(sink recolor.AssetSink) Option {
	return func(o *Orchestrator) { o.sink = sink }
}

// New creates an orchestrator computing through sess.
func New(sess *session.Session, opts ...Option) *Orchestrator {
	o := &Orchestrator{sess: sess}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Execute bakes every enabled adjustment under root. Adjustments without
// a reference texture or without valid bindings are skipped with a
// warning. No error stops the pass; see Report.Errors.
func (o *Orchestrator) Execute(root recolor.Root) Report {
	log := recolor.Logger()
	var total Report
	for _, adj := range root.Adjustments() {
		if adj == nil {
			continue
		}
		if !adj.Enabled {
			log.Debug("adjustment disabled, skipping", "adjustment", adj.Name)
			continue
		}
		rep, err := o.Bake(adj)
		total.add(rep)
		if err != nil {
			log.Warn("adjustment skipped", "adjustment", adj.Name, "error", err)
			total.Skipped++
			total.Errors = append(total.Errors, err)
		}
	}
	log.Info("bake finished",
		"adjustments", total.Adjustments,
		"skipped", total.Skipped,
		"targets", total.Targets,
		"textures", total.Textures,
		"materials", total.Materials,
		"failed", total.Failed)
	return total
}

// Bake applies one adjustment to all of its valid bindings. A missing
// reference or an empty binding list is returned as a configuration error
// before anything is computed; per-target failures are logged, recorded
// in the report and skipped.
func (o *Orchestrator) Bake(adj *recolor.Adjustment) (Report, error) {
	var rep Report
	if err := adj.Validate(); err != nil {
		return rep, zerr.With(err, "adjustment", adj.Name)
	}
	if !adj.HasValidBindings() {
		return rep, zerr.With(zerr.Wrap(recolor.ErrNoValidBindings, "nothing to bake"), "adjustment", adj.Name)
	}

	p := &pass{
		o:         o,
		adj:       adj,
		rep:       &rep,
		textures:  make(map[recolor.AssetID]recolor.Texture),
		materials: make(map[recolor.AssetID]recolor.Material),
	}
	for b := range adj.ValidBindings() {
		if err := p.target(b); err != nil {
			recolor.Logger().Warn("bake target skipped",
				"adjustment", adj.Name, "renderer", b.Renderer.Name(), "slot", b.Slot, "error", err)
			rep.Failed++
			rep.Errors = append(rep.Errors, err)
		}
	}
	rep.Adjustments = 1
	return rep, nil
}

// pass is the dedupe state of one Bake call.
type pass struct {
	o   *Orchestrator
	adj *recolor.Adjustment
	rep *Report

	// Keyed by source asset identity.
	textures  map[recolor.AssetID]recolor.Texture
	materials map[recolor.AssetID]recolor.Material
}

func (p *pass) target(b recolor.Binding) error {
	t, err := p.o.sess.Resolve(b)
	if err != nil {
		return err
	}

	patched, ok := p.materials[t.Material.ID()]
	if !ok {
		patched, err = p.patch(t)
		if err != nil {
			return zerr.With(err, "material", t.Material.Name())
		}
		p.materials[t.Material.ID()] = patched
	}

	mats := slices.Clone(b.Renderer.Materials())
	mats[b.Slot] = patched
	b.Renderer.SetMaterials(mats)
	p.rep.Targets++
	return nil
}

// patch produces the patched material for a target whose material has not
// been seen in this pass, reusing an adjusted texture when one exists.
func (p *pass) patch(t session.Target) (recolor.Material, error) {
	if adjusted, ok := p.textures[t.Texture.ID()]; ok {
		if adjusted.ID() == t.Texture.ID() {
			return t.Material, nil
		}
		mat, err := p.o.sess.PatchMaterial(t.Material, t.Texture, adjusted)
		if err != nil {
			return nil, err
		}
		p.register(mat)
		p.rep.Materials++
		return mat, nil
	}

	e, err := p.o.sess.AcquireTarget(p.adj, t)
	if err != nil {
		return nil, err
	}
	owned := e.Owned()
	d := p.o.sess.Transfer(e)
	p.o.sess.Release(e)

	p.textures[t.Texture.ID()] = d.Texture
	if owned {
		p.register(d.Texture)
		p.register(d.Material)
		p.rep.Textures++
		p.rep.Materials++
	}
	return d.Material, nil
}

func (p *pass) register(a recolor.Asset) {
	if p.o.sink == nil {
		return
	}
	if err := p.o.sink.Register(a); err != nil {
		recolor.Logger().Warn("asset registration failed", "asset", a.Name(), "error", err)
		p.rep.Errors = append(p.rep.Errors, err)
	}
}

// Execute bakes every adjustment under root through sess. It is the entry
// point called by the host build pipeline.
func Execute(root recolor.Root, sess *session.Session, opts ...Option) Report {
	return New(sess, opts...).Execute(root)
}
