// Package worldgen implements the external world-generator and
// entity-seeder collaborators the spec names: it populates a HexGrid
// and spawns seed entities from YAML data before the first tick, the
// same yaml.v3-driven loading pattern the teacher uses for its own
// static game-data tables.
package worldgen

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/hexforge/sim/internal/entity"
	"github.com/hexforge/sim/internal/hexcoord"
	"github.com/hexforge/sim/internal/hexgrid"
)

// GridSpec describes a rectangular grid to generate.
type GridSpec struct {
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	Orientation string `yaml:"orientation"` // "pointy" or "flat"
}

// EntitySeed describes one entity to spawn before the first tick.
// Script carries inline source; ScriptFile names a file relative to
// the configured scripts directory instead, for sources too long to
// live comfortably in the world-generation YAML. At most one of the
// two should be set — Script wins if both are.
type EntitySeed struct {
	Q          int    `yaml:"q"`
	R          int    `yaml:"r"`
	Role       string `yaml:"role"`
	Script     string `yaml:"script"`
	ScriptFile string `yaml:"script_file"`
}

// WorldSpec is the top-level shape of a world-generation YAML file.
type WorldSpec struct {
	Grid  GridSpec     `yaml:"grid"`
	Seeds []EntitySeed `yaml:"seeds"`
}

// LoadWorldSpec reads and parses a world-generation YAML file.
func LoadWorldSpec(path string) (*WorldSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read world spec %s: %w", path, err)
	}
	var spec WorldSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse world spec %s: %w", path, err)
	}
	return &spec, nil
}

func orientationFromString(s string) hexcoord.Orientation {
	if s == "flat" {
		return hexcoord.FlatTop
	}
	return hexcoord.PointyTop
}

// BuildGrid constructs a HexGrid per the spec's GridSpec.
func (w *WorldSpec) BuildGrid() *hexgrid.Grid {
	g := hexgrid.New(orientationFromString(w.Grid.Orientation))
	if w.Grid.Width > 0 && w.Grid.Height > 0 {
		g.CreateRect(w.Grid.Width, w.Grid.Height)
	}
	return g
}

// SeedEntities spawns every entity described by the spec into mgr,
// attaching each seed's script source. Script sources named via
// ScriptFile are resolved against scriptsDir. An unknown role name
// stops seeding with an error, returning the ids spawned so far; the
// core's closed role set is not extended by world data.
func (w *WorldSpec) SeedEntities(mgr *entity.Manager, scriptsDir string) ([]entity.ID, error) {
	ids := make([]entity.ID, 0, len(w.Seeds))
	for _, s := range w.Seeds {
		role, ok := roleFromString(s.Role)
		if !ok {
			return ids, fmt.Errorf("seed entity at (%d,%d): unknown role %q", s.Q, s.R, s.Role)
		}
		id, err := mgr.Spawn(hexcoord.Coord{Q: s.Q, R: s.R}, role)
		if err != nil {
			return ids, fmt.Errorf("spawn seed entity at (%d,%d): %w", s.Q, s.R, err)
		}
		src, err := resolveScript(s, scriptsDir)
		if err != nil {
			return ids, fmt.Errorf("seed entity at (%d,%d): %w", s.Q, s.R, err)
		}
		if src != "" {
			e, _ := mgr.Get(id)
			e.Script = src
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func resolveScript(s EntitySeed, scriptsDir string) (string, error) {
	if s.Script != "" {
		return s.Script, nil
	}
	if s.ScriptFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(filepath.Join(scriptsDir, s.ScriptFile))
	if err != nil {
		return "", fmt.Errorf("read script file %s: %w", s.ScriptFile, err)
	}
	return string(data), nil
}

func roleFromString(s string) (entity.Role, bool) {
	switch s {
	case "worker":
		return entity.Worker, true
	case "combat":
		return entity.Combat, true
	case "scout":
		return entity.Scout, true
	case "engineer":
		return entity.Engineer, true
	default:
		return 0, false
	}
}
