package kernel

import (
	"testing"

	"github.com/camber3d/camber/pkg/geom"
	"github.com/camber3d/camber/pkg/store"
)

func TestBooleanKindString(t *testing.T) {
	tests := []struct {
		kind BooleanKind
		want string
	}{
		{BooleanUnion, "union"},
		{BooleanDifference, "difference"},
		{BooleanIntersection, "intersection"},
		{BooleanKind(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}

// --- Compile-time interface check with a stub kernel ---

// stubSolid is a minimal Solid implementation for testing.
type stubSolid struct {
	bb geom.Box
}

func (s *stubSolid) BoundingBox() geom.Box { return s.bb }

// stubKernel proves the interface is satisfiable without a backend.
type stubKernel struct{}

func (k *stubKernel) Box(size geom.Vec3) Solid {
	return &stubSolid{bb: geom.Box{Max: size}}
}

func (k *stubKernel) Cylinder(radius, height float64) Solid {
	return &stubSolid{bb: geom.Box{
		Min: geom.Vec3{X: -radius, Y: -radius},
		Max: geom.Vec3{X: radius, Y: radius, Z: height},
	}}
}

func (k *stubKernel) Sphere(radius float64) Solid {
	return &stubSolid{bb: geom.Box{
		Min: geom.Vec3{X: -radius, Y: -radius, Z: -radius},
		Max: geom.Vec3{X: radius, Y: radius, Z: radius},
	}}
}

func (k *stubKernel) Boolean(kind BooleanKind, a, b Solid) Solid {
	return &stubSolid{bb: a.BoundingBox().Union(b.BoundingBox())}
}

func (k *stubKernel) Translate(s Solid, v geom.Vec3) Solid {
	bb := s.BoundingBox()
	return &stubSolid{bb: geom.Box{Min: bb.Min.Add(v), Max: bb.Max.Add(v)}}
}

func (k *stubKernel) Rotate(s Solid, eulerDeg geom.Vec3) Solid { return s }

func (k *stubKernel) ToMesh(s Solid, cells int) (store.Mesh, error) {
	return store.Mesh{}, nil
}

var _ Kernel = (*stubKernel)(nil)

func TestStubKernelBoxBounds(t *testing.T) {
	var k Kernel = &stubKernel{}
	s := k.Translate(k.Box(geom.Vec3{X: 1, Y: 2, Z: 3}), geom.Vec3{X: 10})
	bb := s.BoundingBox()
	if !bb.Min.Eq(geom.Vec3{X: 10}) || !bb.Max.Eq(geom.Vec3{X: 11, Y: 2, Z: 3}) {
		t.Errorf("bounding box = %+v, want translated box", bb)
	}
}
