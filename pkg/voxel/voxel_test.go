package voxel_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/camber3d/camber/pkg/geom"
	"github.com/camber3d/camber/pkg/store"
	"github.com/camber3d/camber/pkg/voxel"
)

// cubeMesh builds a closed unit-cube shell from (0,0,0) to (1,1,1).
// skipTop drops the two z=1 triangles to open the shell.
func cubeMesh(skipTop bool) store.Mesh {
	corners := [8]geom.Vec3{
		{}, {X: 1}, {X: 1, Y: 1}, {Y: 1},
		{Z: 1}, {X: 1, Z: 1}, {X: 1, Y: 1, Z: 1}, {Y: 1, Z: 1},
	}
	quads := [][4]int{
		{0, 3, 2, 1}, // bottom
		{4, 5, 6, 7}, // top
		{0, 1, 5, 4},
		{2, 3, 7, 6},
		{0, 4, 7, 3},
		{1, 2, 6, 5},
	}
	var m store.Mesh
	for qi, q := range quads {
		if skipTop && qi == 1 {
			continue
		}
		base := uint32(m.VertexCount())
		for _, ci := range q {
			p := corners[ci]
			m.Positions = append(m.Positions, float32(p.X), float32(p.Y), float32(p.Z))
			m.Normals = append(m.Normals, 0, 0, 1)
		}
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
		m.FaceOrigins = append(m.FaceOrigins, int32(qi), int32(qi))
	}
	return m
}

func TestVoxelizeUnitCube(t *testing.T) {
	m := cubeMesh(false)
	if !m.Watertight() {
		t.Fatal("closed shell reported as not watertight")
	}
	g, stats, err := voxel.Voxelize(context.Background(), m, 8)
	if err != nil {
		t.Fatalf("Voxelize: %v", err)
	}
	if g.Nx != 8 || g.Ny != 8 || g.Nz != 8 {
		t.Fatalf("grid is %dx%dx%d, want 8x8x8", g.Nx, g.Ny, g.Nz)
	}
	if stats.CellCount != 512 {
		t.Errorf("cell count = %d, want 512", stats.CellCount)
	}
	// A closed shell filling its own bounds encloses the whole grid.
	if stats.FillRatio != 1 {
		t.Errorf("fill ratio = %v, want 1 for an enclosing shell", stats.FillRatio)
	}
	// Interior cells exist and are classified as interior, not surface.
	if g.Density[g.Index(4, 4, 4)] != store.CellInterior {
		t.Errorf("center cell = %d, want interior", g.Density[g.Index(4, 4, 4)])
	}
	if g.Density[g.Index(0, 0, 0)] != store.CellSurface {
		t.Errorf("corner cell = %d, want surface", g.Density[g.Index(0, 0, 0)])
	}
}

func TestVoxelizeOpenShellStaysUnfilled(t *testing.T) {
	m := cubeMesh(true)
	if m.Watertight() {
		t.Fatal("open shell reported as watertight")
	}
	g, stats, err := voxel.Voxelize(context.Background(), m, 8)
	if err != nil {
		t.Fatalf("Voxelize: %v", err)
	}
	// The flood fill pours in through the missing top: no interior cells.
	if g.Density[g.Index(4, 4, 4)] != store.CellEmpty {
		t.Errorf("cavity cell = %d, want empty", g.Density[g.Index(4, 4, 4)])
	}
	if stats.FillRatio >= 1 {
		t.Errorf("fill ratio = %v, want < 1 for an open shell", stats.FillRatio)
	}
	if stats.FilledCount == 0 {
		t.Error("open shell has no surface cells at all")
	}
}

func TestVoxelizeDeterministic(t *testing.T) {
	m := cubeMesh(false)
	g1, _, err := voxel.Voxelize(context.Background(), m, 16)
	if err != nil {
		t.Fatalf("Voxelize: %v", err)
	}
	g2, _, err := voxel.Voxelize(context.Background(), m, 16)
	if err != nil {
		t.Fatalf("Voxelize: %v", err)
	}
	if !bytes.Equal(g1.Density, g2.Density) {
		t.Error("density arrays differ between identical runs")
	}
}

func TestVoxelizeFillRatioInRangeAtResolution16(t *testing.T) {
	_, stats, err := voxel.Voxelize(context.Background(), cubeMesh(false), 16)
	if err != nil {
		t.Fatalf("Voxelize: %v", err)
	}
	if stats.FillRatio <= 0 || stats.FillRatio > 1 {
		t.Errorf("fill ratio = %v, want in (0, 1]", stats.FillRatio)
	}
}

func TestVoxelizeRejectsBadInput(t *testing.T) {
	if _, _, err := voxel.Voxelize(context.Background(), cubeMesh(false), 0); err == nil {
		t.Error("resolution 0 accepted")
	}
	if _, _, err := voxel.Voxelize(context.Background(), store.Mesh{}, 8); err == nil {
		t.Error("empty mesh accepted")
	}
}

func TestVoxelizeCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := voxel.Voxelize(ctx, cubeMesh(false), 32); err == nil {
		t.Error("cancelled context did not abort voxelization")
	}
}

func TestGridMeshEmitsOnlyExposedFaces(t *testing.T) {
	g, _, err := voxel.Voxelize(context.Background(), cubeMesh(false), 4)
	if err != nil {
		t.Fatalf("Voxelize: %v", err)
	}
	m := voxel.GridMesh(g)
	// The grid is solid, so only the outer boundary is exposed:
	// 6 sides x 4x4 cells x 2 triangles each.
	if got, want := m.TriangleCount(), 6*16*2; got != want {
		t.Errorf("preview mesh has %d triangles, want %d", got, want)
	}
	if err := store.ValidateRecord(m); err != nil {
		t.Errorf("preview mesh fails validation: %v", err)
	}
}
