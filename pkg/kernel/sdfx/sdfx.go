// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/camber3d/camber/pkg/geom"
	"github.com/camber3d/camber/pkg/kernel"
	"github.com/camber3d/camber/pkg/store"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

// defaultMeshCells controls marching cubes resolution when the caller does
// not specify one.
const defaultMeshCells = 128

// solid wraps an sdf.SDF3 to implement kernel.Solid.
type solid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *solid) BoundingBox() geom.Box {
	bb := s.s.BoundingBox()
	return geom.Box{
		Min: geom.Vec3{X: bb.Min.X, Y: bb.Min.Y, Z: bb.Min.Z},
		Max: geom.Vec3{X: bb.Max.X, Y: bb.Max.Y, Z: bb.Max.Z},
	}
}

// Kernel implements kernel.Kernel using sdfx.
type Kernel struct{}

// New returns a new sdfx-backed kernel.
func New() *Kernel {
	return &Kernel{}
}

func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*solid).s
}

func wrap(s sdf.SDF3) kernel.Solid {
	return &solid{s: s}
}

// Box creates a box with its minimum corner at the origin. sdf.Box3D centers
// the box, so we translate by half-dimensions.
func (k *Kernel) Box(size geom.Vec3) kernel.Solid {
	s, err := sdf.Box3D(v3.Vec{X: size.X, Y: size.Y, Z: size.Z}, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	m := sdf.Translate3d(v3.Vec{X: size.X / 2, Y: size.Y / 2, Z: size.Z / 2})
	return wrap(sdf.Transform3D(s, m))
}

// Cylinder creates a cylinder sitting on z=0 with its axis along +z.
// sdf.Cylinder3D centers it, so we lift by half the height.
func (k *Kernel) Cylinder(radius, height float64) kernel.Solid {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Cylinder3D: %v", err))
	}
	m := sdf.Translate3d(v3.Vec{Z: height / 2})
	return wrap(sdf.Transform3D(s, m))
}

// Sphere creates a sphere centered at the origin.
func (k *Kernel) Sphere(radius float64) kernel.Solid {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Sphere3D: %v", err))
	}
	return wrap(s)
}

// Boolean combines two solids.
func (k *Kernel) Boolean(kind kernel.BooleanKind, a, b kernel.Solid) kernel.Solid {
	switch kind {
	case kernel.BooleanUnion:
		return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
	case kernel.BooleanDifference:
		return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
	case kernel.BooleanIntersection:
		return wrap(sdf.Intersect3D(unwrap(a), unwrap(b)))
	default:
		panic(fmt.Sprintf("sdfx: unknown boolean kind %d", kind))
	}
}

// Translate moves a solid by v.
func (k *Kernel) Translate(s kernel.Solid, v geom.Vec3) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: v.X, Y: v.Y, Z: v.Z})
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *Kernel) Rotate(s kernel.Solid, eulerDeg geom.Vec3) kernel.Solid {
	const degToRad = 3.14159265358979323846 / 180

	m := sdf.RotateZ(eulerDeg.Z * degToRad).
		Mul(sdf.RotateY(eulerDeg.Y * degToRad)).
		Mul(sdf.RotateX(eulerDeg.X * degToRad))
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// ToMesh converts a solid to a triangle mesh using marching cubes. Corners
// are duplicated per triangle with flat face normals.
func (k *Kernel) ToMesh(s kernel.Solid, cells int) (store.Mesh, error) {
	if cells <= 0 {
		cells = defaultMeshCells
	}
	sdf3 := unwrap(s)

	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(sdf3, renderer)
	if len(triangles) == 0 {
		return store.Mesh{}, fmt.Errorf("sdfx: marching cubes produced no triangles")
	}

	numVerts := len(triangles) * 3
	m := store.Mesh{
		Positions: make([]float32, 0, numVerts*3),
		Normals:   make([]float32, 0, numVerts*3),
		Indices:   make([]uint32, 0, numVerts),
	}
	for i, tri := range triangles {
		n := tri.Normal()
		nx, ny, nz := float32(n.X), float32(n.Y), float32(n.Z)
		for j := 0; j < 3; j++ {
			v := tri[j]
			m.Positions = append(m.Positions, float32(v.X), float32(v.Y), float32(v.Z))
			m.Normals = append(m.Normals, nx, ny, nz)
			m.Indices = append(m.Indices, uint32(i*3+j))
		}
	}
	return m, nil
}
