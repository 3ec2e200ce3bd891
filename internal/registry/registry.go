// Package registry records bake output in a SQLite database.
//
// Every bake opens a Build. The build is the recolor.AssetSink handed to
// the bake orchestrator: each produced texture and material becomes a row
// keyed by a ULID, and textures are optionally written out as PNG files.
// The database is what the inspect command lists.
package registry

import (
	"context"
	"crypto/rand"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.trai.ch/zerr"
	_ "modernc.org/sqlite"

	"github.com/gogpu/recolor"
)

// Asset kinds stored in the kind column.
const (
	KindTexture  = "texture"
	KindMaterial = "material"
	KindOther    = "asset"
)

// Registry is an open build database.
type Registry struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Registry, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create database directory"), "path", path)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to open database"), "path", path)
	}
	r := &Registry{db: db}
	if err := r.migrate(); err != nil {
		_ = db.Close()
		return nil, zerr.With(zerr.Wrap(err, "failed to migrate database"), "path", path)
	}
	return r, nil
}

// Close closes the database.
func (r *Registry) Close() error {
	return r.db.Close()
}

func (r *Registry) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS builds (
		id          TEXT PRIMARY KEY,
		manifest    TEXT NOT NULL,
		started_at  TEXT NOT NULL,
		finished_at TEXT,
		targets     INTEGER NOT NULL DEFAULT 0,
		textures    INTEGER NOT NULL DEFAULT 0,
		materials   INTEGER NOT NULL DEFAULT 0,
		failed      INTEGER NOT NULL DEFAULT 0,
		skipped     INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS assets (
		id         TEXT PRIMARY KEY,
		build_id   TEXT NOT NULL REFERENCES builds(id),
		host_id    INTEGER NOT NULL,
		name       TEXT NOT NULL,
		kind       TEXT NOT NULL,
		width      INTEGER,
		height     INTEGER,
		file       TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_assets_build ON assets(build_id);
	`
	_, err := r.db.Exec(schema)
	return err
}

func newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// BuildOption configures a Build.
type BuildOption func(*Build)

// WithOutputDir writes every registered texture to dir as a PNG file.
func WithOutputDir(dir string) BuildOption {
	return func(b *Build) { b.outDir = dir }
}

// Build is one recorded bake. It implements recolor.AssetSink; use Sink
// to hand a bake a sink bound to a context.
//
// Build is safe for concurrent use.
type Build struct {
	r      *Registry
	id     string
	outDir string

	mu     sync.Mutex
	assets []recolor.Asset
}

// Begin records the start of a bake of the given manifest.
func (r *Registry) Begin(ctx context.Context, manifest string, opts ...BuildOption) (*Build, error) {
	b := &Build{r: r, id: newID()}
	for _, opt := range opts {
		opt(b)
	}
	if b.outDir != "" {
		if err := os.MkdirAll(b.outDir, 0o755); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to create output directory"), "dir", b.outDir)
		}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO builds (id, manifest, started_at) VALUES (?, ?, ?)`,
		b.id, manifest, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, zerr.Wrap(err, "failed to insert build")
	}
	return b, nil
}

// ID returns the build ID.
func (b *Build) ID() string { return b.id }

// Assets returns the registered assets in registration order.
func (b *Build) Assets() []recolor.Asset {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]recolor.Asset, len(b.assets))
	copy(out, b.assets)
	return out
}

// Sink returns an asset sink that registers into b under ctx.
func (b *Build) Sink(ctx context.Context) recolor.AssetSink {
	return sinkFunc(func(a recolor.Asset) error {
		return b.RegisterContext(ctx, a)
	})
}

type sinkFunc func(recolor.Asset) error

func (f sinkFunc) Register(a recolor.Asset) error { return f(a) }

// Register records a produced asset with a background context.
func (b *Build) Register(a recolor.Asset) error {
	return b.RegisterContext(context.Background(), a)
}

// RegisterContext records a produced asset. Ownership moves to the build:
// the asset stays referenced until the build is dropped.
func (b *Build) RegisterContext(ctx context.Context, a recolor.Asset) error {
	if recolor.IsNil(a) {
		return zerr.Wrap(recolor.ErrProcessing, "cannot register nil asset")
	}
	if err := ctx.Err(); err != nil {
		return zerr.With(zerr.Wrap(err, "build cancelled"), "asset", a.Name())
	}

	kind := KindOther
	var width, height sql.NullInt64
	var file sql.NullString
	switch v := a.(type) {
	case recolor.Texture:
		kind = KindTexture
		px, err := recolor.ReadPixels(v)
		if err != nil {
			return err
		}
		width = sql.NullInt64{Int64: int64(px.Width()), Valid: true}
		height = sql.NullInt64{Int64: int64(px.Height()), Valid: true}
		if b.outDir != "" {
			path := filepath.Join(b.outDir, a.Name()+".png")
			if err := px.SavePNG(path); err != nil {
				return err
			}
			file = sql.NullString{String: path, Valid: true}
		}
	case recolor.Material:
		kind = KindMaterial
	}

	_, err := b.r.db.ExecContext(ctx,
		`INSERT INTO assets (id, build_id, host_id, name, kind, width, height, file, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		newID(), b.id, int64(a.ID()), a.Name(), kind, width, height, file,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to insert asset"), "asset", a.Name())
	}

	b.mu.Lock()
	b.assets = append(b.assets, a)
	b.mu.Unlock()
	return nil
}

// Summary holds the counters stored when a build finishes.
type Summary struct {
	Targets   int
	Textures  int
	Materials int
	Failed    int
	Skipped   int
}

// Finish records the end of the build.
func (b *Build) Finish(ctx context.Context, s Summary) error {
	_, err := b.r.db.ExecContext(ctx,
		`UPDATE builds SET finished_at = ?, targets = ?, textures = ?, materials = ?, failed = ?, skipped = ?
		 WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), s.Targets, s.Textures, s.Materials, s.Failed, s.Skipped, b.id)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to finish build"), "build", b.id)
	}
	return nil
}
