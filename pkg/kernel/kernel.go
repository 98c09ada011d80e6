// Package kernel defines the abstract solid-modeling interface behind the
// boolean engine. Implementations (sdfx) provide solid primitives and
// boolean operations behind this interface, so backends can be swapped
// without touching the rest of the system.
package kernel

import (
	"github.com/camber3d/camber/pkg/geom"
	"github.com/camber3d/camber/pkg/store"
)

// Solid is an opaque handle to a backend solid. Implementations wrap their
// internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() geom.Box
}

// BooleanKind enumerates the solid boolean operations.
type BooleanKind int

const (
	BooleanUnion BooleanKind = iota
	BooleanDifference
	BooleanIntersection
)

func (k BooleanKind) String() string {
	switch k {
	case BooleanUnion:
		return "union"
	case BooleanDifference:
		return "difference"
	case BooleanIntersection:
		return "intersection"
	default:
		return "unknown"
	}
}

// Kernel is the abstract solid-modeling interface.
type Kernel interface {
	// Primitives. Box has its minimum corner at the origin; Cylinder sits
	// on z=0 with its axis +z; Sphere is centered at the origin.
	Box(size geom.Vec3) Solid
	Cylinder(radius, height float64) Solid
	Sphere(radius float64) Solid

	// Boolean operations.
	Boolean(kind BooleanKind, a, b Solid) Solid

	// Transforms. Rotation is Euler angles in degrees, applied X then Y
	// then Z.
	Translate(s Solid, v geom.Vec3) Solid
	Rotate(s Solid, eulerDeg geom.Vec3) Solid

	// ToMesh discretizes a solid into a triangle mesh. cells controls the
	// sampling resolution; <= 0 selects the backend default.
	ToMesh(s Solid, cells int) (store.Mesh, error)
}
