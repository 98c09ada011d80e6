// Package config holds the kernel's tunable defaults, loadable from a YAML
// file so hosts can adjust tolerances without recompiling.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config collects the caller-configurable kernel parameters. Zero values are
// replaced by the defaults on load.
type Config struct {
	// JointStyle is the default offset corner style: miter, bevel or round.
	JointStyle string `yaml:"joint_style"`

	// MiterLimit caps miter-point distance as a multiple of the offset
	// distance before a corner falls back to bevel.
	MiterLimit float64 `yaml:"miter_limit"`

	// AngularThresholdDeg is the near-parallel corner angle, in degrees,
	// below which adjacent offset segments are treated as a straight
	// continuation.
	AngularThresholdDeg float64 `yaml:"angular_threshold_deg"`

	// TessellationBudget is the default chordal deviation budget, in world
	// units, for curve and surface tessellation.
	TessellationBudget float64 `yaml:"tessellation_budget"`

	// MaxTessellationDepth bounds quadtree subdivision.
	MaxTessellationDepth int `yaml:"max_tessellation_depth"`

	// VoxelResolutionCap rejects voxelization requests above this
	// per-axis resolution.
	VoxelResolutionCap int `yaml:"voxel_resolution_cap"`

	// MeshCells is the marching-cubes resolution for solid boolean output.
	MeshCells int `yaml:"mesh_cells"`
}

// Default returns the kernel defaults.
func Default() Config {
	return Config{
		JointStyle:           "miter",
		MiterLimit:           4.0,
		AngularThresholdDeg:  0.5,
		TessellationBudget:   1e-3,
		MaxTessellationDepth: 10,
		VoxelResolutionCap:   512,
		MeshCells:            128,
	}
}

// Load reads a YAML config file and fills unset fields from the defaults.
// A missing file is not an error: it yields the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML config bytes, fills unset fields from the defaults and
// validates the result.
func Parse(data []byte) (Config, error) {
	c := Config{}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	c = c.withDefaults()
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) withDefaults() Config {
	d := Default()
	if c.JointStyle == "" {
		c.JointStyle = d.JointStyle
	}
	if c.MiterLimit == 0 {
		c.MiterLimit = d.MiterLimit
	}
	if c.AngularThresholdDeg == 0 {
		c.AngularThresholdDeg = d.AngularThresholdDeg
	}
	if c.TessellationBudget == 0 {
		c.TessellationBudget = d.TessellationBudget
	}
	if c.MaxTessellationDepth == 0 {
		c.MaxTessellationDepth = d.MaxTessellationDepth
	}
	if c.VoxelResolutionCap == 0 {
		c.VoxelResolutionCap = d.VoxelResolutionCap
	}
	if c.MeshCells == 0 {
		c.MeshCells = d.MeshCells
	}
	return c
}

func (c Config) validate() error {
	switch c.JointStyle {
	case "miter", "bevel", "round":
	default:
		return fmt.Errorf("config: joint_style %q, want miter, bevel or round", c.JointStyle)
	}
	if c.MiterLimit < 1 {
		return fmt.Errorf("config: miter_limit %v, want >= 1", c.MiterLimit)
	}
	if c.TessellationBudget <= 0 {
		return fmt.Errorf("config: tessellation_budget %v, want > 0", c.TessellationBudget)
	}
	if c.MaxTessellationDepth < 1 {
		return fmt.Errorf("config: max_tessellation_depth %d, want >= 1", c.MaxTessellationDepth)
	}
	if c.VoxelResolutionCap < 1 {
		return fmt.Errorf("config: voxel_resolution_cap %d, want >= 1", c.VoxelResolutionCap)
	}
	if c.MeshCells < 8 {
		return fmt.Errorf("config: mesh_cells %d, want >= 8", c.MeshCells)
	}
	return nil
}
