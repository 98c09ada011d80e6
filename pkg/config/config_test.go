package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/camber3d/camber/pkg/config"
)

func TestDefaultIsValid(t *testing.T) {
	c := config.Default()
	if c.JointStyle != "miter" || c.MiterLimit != 4.0 {
		t.Errorf("unexpected defaults: %+v", c)
	}
}

func TestParseOverridesAndFills(t *testing.T) {
	c, err := config.Parse([]byte("joint_style: round\nvoxel_resolution_cap: 64\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.JointStyle != "round" {
		t.Errorf("joint_style = %q, want round", c.JointStyle)
	}
	if c.VoxelResolutionCap != 64 {
		t.Errorf("voxel_resolution_cap = %d, want 64", c.VoxelResolutionCap)
	}
	// Unset fields come from the defaults.
	if c.MiterLimit != config.Default().MiterLimit {
		t.Errorf("miter_limit = %v, want default", c.MiterLimit)
	}
	if c.TessellationBudget != config.Default().TessellationBudget {
		t.Errorf("tessellation_budget = %v, want default", c.TessellationBudget)
	}
}

func TestParseRejectsBadValues(t *testing.T) {
	cases := []string{
		"joint_style: zigzag\n",
		"miter_limit: 0.5\n",
		"tessellation_budget: -1\n",
		"mesh_cells: 2\n",
		"{not yaml",
	}
	for _, in := range cases {
		if _, err := config.Parse([]byte(in)); err == nil {
			t.Errorf("Parse(%q) accepted invalid input", in)
		}
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	c, err := config.Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c != config.Default() {
		t.Errorf("missing file config = %+v, want defaults", c)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kernel.yml")
	if err := os.WriteFile(path, []byte("mesh_cells: 32\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	c, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.MeshCells != 32 {
		t.Errorf("mesh_cells = %d, want 32", c.MeshCells)
	}
}
