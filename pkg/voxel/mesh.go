package voxel

import (
	"github.com/camber3d/camber/pkg/geom"
	"github.com/camber3d/camber/pkg/store"
)

// faceDirs enumerates the 6 cell-face directions with their outward normals.
var faceDirs = [6]struct {
	dx, dy, dz int
	normal     geom.Vec3
}{
	{-1, 0, 0, geom.Vec3{X: -1}},
	{1, 0, 0, geom.Vec3{X: 1}},
	{0, -1, 0, geom.Vec3{Y: -1}},
	{0, 1, 0, geom.Vec3{Y: 1}},
	{0, 0, -1, geom.Vec3{Z: -1}},
	{0, 0, 1, geom.Vec3{Z: 1}},
}

// GridMesh builds a preview mesh of the grid's filled cells, emitting only
// the faces exposed to empty space so enclosed volumes stay light.
func GridMesh(g store.VoxelGrid) store.Mesh {
	var m store.Mesh
	for z := 0; z < g.Nz; z++ {
		for y := 0; y < g.Ny; y++ {
			for x := 0; x < g.Nx; x++ {
				if g.Density[g.Index(x, y, z)] == store.CellEmpty {
					continue
				}
				for _, d := range faceDirs {
					nx, ny, nz := x+d.dx, y+d.dy, z+d.dz
					if inGrid(g, nx, ny, nz) && g.Density[g.Index(nx, ny, nz)] != store.CellEmpty {
						continue
					}
					emitFace(&m, g, x, y, z, d.normal)
				}
			}
		}
	}
	return m
}

func inGrid(g store.VoxelGrid, x, y, z int) bool {
	return x >= 0 && x < g.Nx && y >= 0 && y < g.Ny && z >= 0 && z < g.Nz
}

// emitFace appends one quad (two triangles) for the cell face whose outward
// normal is n, wound counterclockwise seen from outside.
func emitFace(m *store.Mesh, g store.VoxelGrid, x, y, z int, n geom.Vec3) {
	min := geom.Vec3{
		X: g.Bounds.Min.X + float64(x)*g.CellSize.X,
		Y: g.Bounds.Min.Y + float64(y)*g.CellSize.Y,
		Z: g.Bounds.Min.Z + float64(z)*g.CellSize.Z,
	}
	max := min.Add(g.CellSize)

	var quad [4]geom.Vec3
	switch {
	case n.X < 0:
		quad = [4]geom.Vec3{
			{X: min.X, Y: min.Y, Z: min.Z},
			{X: min.X, Y: min.Y, Z: max.Z},
			{X: min.X, Y: max.Y, Z: max.Z},
			{X: min.X, Y: max.Y, Z: min.Z},
		}
	case n.X > 0:
		quad = [4]geom.Vec3{
			{X: max.X, Y: min.Y, Z: min.Z},
			{X: max.X, Y: max.Y, Z: min.Z},
			{X: max.X, Y: max.Y, Z: max.Z},
			{X: max.X, Y: min.Y, Z: max.Z},
		}
	case n.Y < 0:
		quad = [4]geom.Vec3{
			{X: min.X, Y: min.Y, Z: min.Z},
			{X: max.X, Y: min.Y, Z: min.Z},
			{X: max.X, Y: min.Y, Z: max.Z},
			{X: min.X, Y: min.Y, Z: max.Z},
		}
	case n.Y > 0:
		quad = [4]geom.Vec3{
			{X: min.X, Y: max.Y, Z: min.Z},
			{X: min.X, Y: max.Y, Z: max.Z},
			{X: max.X, Y: max.Y, Z: max.Z},
			{X: max.X, Y: max.Y, Z: min.Z},
		}
	case n.Z < 0:
		quad = [4]geom.Vec3{
			{X: min.X, Y: min.Y, Z: min.Z},
			{X: min.X, Y: max.Y, Z: min.Z},
			{X: max.X, Y: max.Y, Z: min.Z},
			{X: max.X, Y: min.Y, Z: min.Z},
		}
	default:
		quad = [4]geom.Vec3{
			{X: min.X, Y: min.Y, Z: max.Z},
			{X: max.X, Y: min.Y, Z: max.Z},
			{X: max.X, Y: max.Y, Z: max.Z},
			{X: min.X, Y: max.Y, Z: max.Z},
		}
	}

	base := uint32(m.VertexCount())
	for _, p := range quad {
		m.Positions = append(m.Positions, float32(p.X), float32(p.Y), float32(p.Z))
		m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	}
	m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	m.FaceOrigins = append(m.FaceOrigins, 0, 0)
}
