// Package voxel rasterizes triangle meshes into regular density grids. The
// two-phase design (surface marking, then an exterior flood fill) classifies
// interior cells without any exact inside/outside mesh query, and is
// deterministic for identical input and resolution.
package voxel

import (
	"context"
	"fmt"
	"math"

	"github.com/camber3d/camber/pkg/geom"
	"github.com/camber3d/camber/pkg/store"
)

// Stats summarizes a voxelization result.
type Stats struct {
	CellCount   int
	FilledCount int
	FillRatio   float64
}

// checkEvery bounds how many cells or triangles are processed between
// cancellation checkpoints.
const checkEvery = 4096

// Voxelize rasterizes the mesh into a grid with `resolution` cells along its
// longest axis and uniform cubic cells. Surface cells are marked from
// triangle bounding boxes; cells unreachable from the grid boundary through
// empty space are marked interior.
func Voxelize(ctx context.Context, m store.Mesh, resolution int) (store.VoxelGrid, Stats, error) {
	if resolution < 1 {
		return store.VoxelGrid{}, Stats{}, fmt.Errorf("voxel: resolution %d, want >= 1", resolution)
	}
	if m.IsEmpty() || m.TriangleCount() == 0 {
		return store.VoxelGrid{}, Stats{}, fmt.Errorf("voxel: mesh has no triangles")
	}

	bounds := m.Bounds()
	size := bounds.Size()
	longest := math.Max(size.X, math.Max(size.Y, size.Z))
	if longest < geom.EpsDistance {
		return store.VoxelGrid{}, Stats{}, fmt.Errorf("voxel: mesh is degenerate (extent %v)", longest)
	}
	cs := longest / float64(resolution)

	g := store.VoxelGrid{
		Meta:     store.Meta{Name: "voxelization"},
		Nx:       axisCells(size.X, cs),
		Ny:       axisCells(size.Y, cs),
		Nz:       axisCells(size.Z, cs),
		Bounds:   bounds,
		CellSize: geom.Vec3{X: cs, Y: cs, Z: cs},
	}
	g.Density = make([]uint8, g.CellCount())

	if err := rasterizeSurface(ctx, &g, m); err != nil {
		return store.VoxelGrid{}, Stats{}, err
	}
	if err := fillInterior(ctx, &g); err != nil {
		return store.VoxelGrid{}, Stats{}, err
	}

	return g, Stats{
		CellCount:   g.CellCount(),
		FilledCount: g.FilledCount(),
		FillRatio:   g.FillRatio(),
	}, nil
}

// axisCells converts an extent into a cell count, never below one. The small
// epsilon keeps exact multiples (a cube at its own resolution) from gaining
// a spurious extra layer.
func axisCells(extent, cellSize float64) int {
	n := int(math.Ceil(extent/cellSize - geom.EpsGeometric))
	if n < 1 {
		n = 1
	}
	return n
}

// rasterizeSurface marks every cell overlapped by a triangle's axis-aligned
// bounding box. Boundary marking only; the flood fill tolerates the
// overestimate.
func rasterizeSurface(ctx context.Context, g *store.VoxelGrid, m store.Mesh) error {
	for tri := 0; tri < m.TriangleCount(); tri++ {
		if tri%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		a, b, c := m.Triangle(tri)
		lo := a.Min(b).Min(c)
		hi := a.Max(b).Max(c)

		x0, y0, z0 := cellIndex(g, lo)
		x1, y1, z1 := cellIndex(g, hi)
		for z := z0; z <= z1; z++ {
			for y := y0; y <= y1; y++ {
				for x := x0; x <= x1; x++ {
					g.Density[g.Index(x, y, z)] = store.CellSurface
				}
			}
		}
	}
	return nil
}

// cellIndex maps a world point into clamped cell coordinates.
func cellIndex(g *store.VoxelGrid, p geom.Vec3) (x, y, z int) {
	x = clampCell(int(math.Floor((p.X-g.Bounds.Min.X)/g.CellSize.X)), g.Nx)
	y = clampCell(int(math.Floor((p.Y-g.Bounds.Min.Y)/g.CellSize.Y)), g.Ny)
	z = clampCell(int(math.Floor((p.Z-g.Bounds.Min.Z)/g.CellSize.Z)), g.Nz)
	return x, y, z
}

func clampCell(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// fillInterior flood-fills exterior space from every empty boundary cell
// (breadth-first, 6-connected) and marks the unreached empty cells interior.
func fillInterior(ctx context.Context, g *store.VoxelGrid) error {
	visited := make([]bool, g.CellCount())
	queue := make([]int, 0, 2*(g.Nx*g.Ny+g.Ny*g.Nz+g.Nx*g.Nz))

	seed := func(x, y, z int) {
		i := g.Index(x, y, z)
		if g.Density[i] == store.CellEmpty && !visited[i] {
			visited[i] = true
			queue = append(queue, i)
		}
	}
	// Seed the six boundary layers in a fixed order for determinism.
	for z := 0; z < g.Nz; z++ {
		for y := 0; y < g.Ny; y++ {
			for x := 0; x < g.Nx; x++ {
				if x == 0 || x == g.Nx-1 || y == 0 || y == g.Ny-1 || z == 0 || z == g.Nz-1 {
					seed(x, y, z)
				}
			}
		}
	}

	pops := 0
	for len(queue) > 0 {
		if pops%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		pops++
		i := queue[0]
		queue = queue[1:]

		x := i % g.Nx
		y := (i / g.Nx) % g.Ny
		z := i / (g.Nx * g.Ny)
		if x > 0 {
			seed(x-1, y, z)
		}
		if x < g.Nx-1 {
			seed(x+1, y, z)
		}
		if y > 0 {
			seed(x, y-1, z)
		}
		if y < g.Ny-1 {
			seed(x, y+1, z)
		}
		if z > 0 {
			seed(x, y, z-1)
		}
		if z < g.Nz-1 {
			seed(x, y, z+1)
		}
	}

	for i, d := range g.Density {
		if d == store.CellEmpty && !visited[i] {
			g.Density[i] = store.CellInterior
		}
	}
	return nil
}
