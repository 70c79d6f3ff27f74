package worldgen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hexforge/sim/internal/entity"
)

const sampleYAML = `
grid:
  width: 4
  height: 3
  orientation: pointy
seeds:
  - q: 0
    r: 0
    role: worker
    script: "entity.moveTo({q=1,r=0})"
  - q: 1
    r: 0
    role: scout
`

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "world.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}

func TestLoadWorldSpecBuildsGridAndSeeds(t *testing.T) {
	path := writeSample(t)
	spec, err := LoadWorldSpec(path)
	if err != nil {
		t.Fatalf("LoadWorldSpec: %v", err)
	}

	grid := spec.BuildGrid()
	if grid.Len() != 12 {
		t.Fatalf("expected 4x3=12 tiles, got %d", grid.Len())
	}

	mgr := entity.NewManager()
	ids, err := spec.SeedEntities(mgr, "")
	if err != nil {
		t.Fatalf("SeedEntities: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 seeded entities, got %d", len(ids))
	}

	first, _ := mgr.Get(ids[0])
	if first.Role != entity.Worker || first.Script == "" {
		t.Fatalf("expected first seed to be a scripted worker, got %+v", first)
	}
	second, _ := mgr.Get(ids[1])
	if second.Role != entity.Scout || second.Script != "" {
		t.Fatalf("expected second seed to be an unscripted scout, got %+v", second)
	}
}

func TestSeedEntitiesRejectsUnknownRole(t *testing.T) {
	mgr := entity.NewManager()
	spec := &WorldSpec{Seeds: []EntitySeed{{Role: "dragon"}}}
	if _, err := spec.SeedEntities(mgr, ""); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

func TestSeedEntitiesResolvesScriptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "worker.lua"), []byte("entity.moveTo({q=1,r=0})"), 0o644); err != nil {
		t.Fatalf("write script file: %v", err)
	}

	mgr := entity.NewManager()
	spec := &WorldSpec{Seeds: []EntitySeed{{Role: "worker", ScriptFile: "worker.lua"}}}
	ids, err := spec.SeedEntities(mgr, dir)
	if err != nil {
		t.Fatalf("SeedEntities: %v", err)
	}

	e, _ := mgr.Get(ids[0])
	if e.Script != "entity.moveTo({q=1,r=0})" {
		t.Fatalf("expected script resolved from file, got %q", e.Script)
	}
}
