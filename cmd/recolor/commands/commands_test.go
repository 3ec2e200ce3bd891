package commands_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/recolor"
	"github.com/gogpu/recolor/cmd/recolor/commands"
)

const sceneYAML = `
textures:
  - {name: body, color: "#cc2222", width: 4, height: 4}
  - {name: paint, color: "#2244cc", width: 2, height: 2}
materials:
  - name: Body
    properties: [{name: _MainTex, texture: body}]
renderers:
  - {name: car, materials: [Body]}
  - {name: van, materials: [Body]}
adjustments:
  - name: repaint
    schemaVersion: 1
    reference: paint
    bindings:
      - {renderer: car, slot: 0}
      - {renderer: van, slot: 0}
  - name: broken
    schemaVersion: 1
    bindings:
      - {renderer: car, slot: 0}
`

type env struct {
	dir      string
	manifest string
	db       string
}

func newEnv(t *testing.T) env {
	t.Helper()
	dir := t.TempDir()
	e := env{
		dir:      dir,
		manifest: filepath.Join(dir, "scene.yaml"),
		db:       filepath.Join(dir, "state", "builds.db"),
	}
	if err := os.WriteFile(e.manifest, []byte(sceneYAML), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	t.Cleanup(func() { recolor.SetLogger(nil) })
	return e
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cli := commands.New()
	cli.SetOutput(&out, &errOut)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	t.Cleanup(func() { recolor.SetLogger(nil) })
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out) != commands.Version {
		t.Errorf("expected %q, got %q", commands.Version, out)
	}
}

func TestBakeAndInspect(t *testing.T) {
	e := newEnv(t)
	outDir := filepath.Join(e.dir, "out")

	out, err := run(t, "bake", "--manifest", e.manifest, "--db", e.db, "--out", outDir, "--cpu")
	if err != nil {
		t.Fatalf("bake: %v", err)
	}
	if !strings.Contains(out, "2 targets, 1 textures, 1 materials") {
		t.Errorf("unexpected summary: %q", out)
	}
	if !strings.Contains(out, "1 skipped") {
		t.Errorf("expected the adjustment without reference to be skipped: %q", out)
	}

	pngs, err := filepath.Glob(filepath.Join(outDir, "*.png"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(pngs) != 1 {
		t.Errorf("expected one baked texture, got %v", pngs)
	}

	fields := strings.Fields(out)
	if len(fields) < 2 || fields[0] != "build" {
		t.Fatalf("cannot find build id in %q", out)
	}
	buildID := strings.TrimSuffix(fields[1], ":")

	list, err := run(t, "inspect", "--db", e.db)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.Contains(list, buildID) {
		t.Errorf("build %s missing from listing:\n%s", buildID, list)
	}

	assets, err := run(t, "inspect", "--db", e.db, buildID)
	if err != nil {
		t.Fatalf("inspect build: %v", err)
	}
	if !strings.Contains(assets, "texture") || !strings.Contains(assets, "material") {
		t.Errorf("unexpected asset listing:\n%s", assets)
	}
	if !strings.Contains(assets, "4x4") {
		t.Errorf("expected texture size in listing:\n%s", assets)
	}
}

func TestBakeStrict(t *testing.T) {
	e := newEnv(t)
	_, err := run(t, "bake", "--manifest", e.manifest, "--db", e.db, "--cpu", "--strict")
	if !errors.Is(err, recolor.ErrMissingReference) {
		t.Fatalf("expected missing reference error, got %v", err)
	}
}

func TestPlan(t *testing.T) {
	e := newEnv(t)
	out, err := run(t, "plan", "--manifest", e.manifest)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header and 3 rows, got:\n%s", out)
	}
	if !strings.Contains(lines[1], "repaint") || !strings.Contains(lines[1], "car") {
		t.Errorf("unexpected row %q", lines[1])
	}
	if !strings.Contains(lines[3], "missing reference") {
		t.Errorf("expected configuration error in %q", lines[3])
	}
}

func TestMissingManifest(t *testing.T) {
	e := newEnv(t)
	_, err := run(t, "bake", "--manifest", filepath.Join(e.dir, "nope.yaml"), "--db", e.db)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
