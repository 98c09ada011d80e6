package tessellate_test

import (
	"context"
	"math"
	"testing"

	"github.com/camber3d/camber/pkg/brep"
	"github.com/camber3d/camber/pkg/geom"
	"github.com/camber3d/camber/pkg/store"
	"github.com/camber3d/camber/pkg/tessellate"
)

func TestTessellateBoxBRep(t *testing.T) {
	st := store.New()
	b, err := brep.Box(geom.Vec3{}, geom.Vec3{X: 2, Y: 3, Z: 4})
	if err != nil {
		t.Fatalf("Box: %v", err)
	}
	id, err := st.Add(b)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	m, err := tessellate.Tessellate(context.Background(), st.Snapshot(), id, b, tessellate.Options{})
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	// Six quad faces, two triangles each.
	if m.TriangleCount() != 12 {
		t.Fatalf("box mesh has %d triangles, want 12", m.TriangleCount())
	}
	bounds := m.Bounds()
	if !bounds.Min.Eq(geom.Vec3{}) || !bounds.Max.Eq(geom.Vec3{X: 2, Y: 3, Z: 4}) {
		t.Errorf("mesh bounds = %v, want box extents", bounds)
	}
	// Face origins must cover all six faces for face picking.
	seen := map[int32]bool{}
	for _, f := range m.FaceOrigins {
		seen[f] = true
	}
	if len(seen) != 6 {
		t.Errorf("face origins cover %d faces, want 6", len(seen))
	}
	if !m.Watertight() {
		t.Error("box tessellation is not watertight")
	}
}

func TestTessellateCylinderCaps(t *testing.T) {
	st := store.New()
	b, err := brep.Cylinder(st, 1, 2)
	if err != nil {
		t.Fatalf("Cylinder: %v", err)
	}
	id, err := st.Add(b)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	m, err := tessellate.Tessellate(context.Background(), st.Snapshot(), id, b, tessellate.Options{Tolerance: 1e-3})
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	if m.TriangleCount() == 0 {
		t.Fatal("cylinder tessellated to an empty mesh")
	}

	// The caps are bounded by the rim circles, not a chord: cap triangles
	// exist, lie in the cap planes, and stay within the radius.
	onCapPlane := func(p geom.Vec3) bool {
		return math.Abs(p.Z) < 1e-9 || math.Abs(p.Z-2) < 1e-9
	}
	capTris := 0
	for tri := 0; tri < m.TriangleCount(); tri++ {
		a, bb, c := m.Triangle(tri)
		if !onCapPlane(a) || !onCapPlane(bb) || !onCapPlane(c) {
			continue
		}
		capTris++
		for _, p := range []geom.Vec3{a, bb, c} {
			if r := math.Hypot(p.X, p.Y); r > 1+1e-6 {
				t.Fatalf("cap vertex %v outside the rim (r=%v)", p, r)
			}
		}
	}
	if capTris < 8 {
		t.Errorf("only %d cap triangles; rim curves were not tessellated", capTris)
	}

	// Cap area approaches the disc area when the rim is finely sampled.
	var capArea float64
	for tri := 0; tri < m.TriangleCount(); tri++ {
		a, bb, c := m.Triangle(tri)
		onCap := true
		for _, p := range []geom.Vec3{a, bb, c} {
			if math.Abs(p.Z) > 1e-9 {
				onCap = false
			}
		}
		if onCap {
			capArea += bb.Sub(a).Cross(c.Sub(a)).Length() / 2
		}
	}
	if math.Abs(capArea-math.Pi) > 0.05 {
		t.Errorf("bottom cap area = %v, want about pi", capArea)
	}
}
