package brep_test

import (
	"math"
	"testing"

	"github.com/camber3d/camber/pkg/brep"
	"github.com/camber3d/camber/pkg/geom"
	"github.com/camber3d/camber/pkg/nurbs"
	"github.com/camber3d/camber/pkg/store"
)

func TestBoxTopology(t *testing.T) {
	b, err := brep.Box(geom.Vec3{}, geom.Vec3{X: 2, Y: 3, Z: 4})
	if err != nil {
		t.Fatalf("Box: %v", err)
	}
	if len(b.Vertices) != 8 || len(b.Edges) != 12 || len(b.Faces) != 6 {
		t.Fatalf("box has %d/%d/%d vertices/edges/faces, want 8/12/6", len(b.Vertices), len(b.Edges), len(b.Faces))
	}
	if errs := brep.Validate(b); len(errs) != 0 {
		t.Fatalf("box fails validation: %v", errs)
	}
	if !brep.IsValidSolid(b) {
		t.Fatal("box not reported as a valid solid")
	}
}

func TestBoxRejectsBadSize(t *testing.T) {
	if _, err := brep.Box(geom.Vec3{}, geom.Vec3{X: 1, Y: -1, Z: 1}); err == nil {
		t.Fatal("Box accepted a negative size")
	}
}

func TestInconsistentWindingRejected(t *testing.T) {
	b, err := brep.Box(geom.Vec3{}, geom.Vec3{X: 1, Y: 1, Z: 1})
	if err != nil {
		t.Fatalf("Box: %v", err)
	}
	// Flip one face's loop: the solid must become invalid, not merely ugly.
	loop := &b.Faces[0].Loops[0]
	for i, j := 0, len(loop.Edges)-1; i < j; i, j = i+1, j-1 {
		loop.Edges[i], loop.Edges[j] = loop.Edges[j], loop.Edges[i]
	}
	for i := range loop.Edges {
		loop.Edges[i].Reversed = !loop.Edges[i].Reversed
	}

	errs := brep.Validate(b)
	if len(errs) == 0 {
		t.Fatal("flipped face passed validation")
	}
	found := false
	for _, e := range errs {
		if e.Code == "EDGE_ORIENTATION" && e.Edge >= 0 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected EDGE_ORIENTATION with an edge index, got %v", errs)
	}
}

func TestOpenShellRejected(t *testing.T) {
	b, err := brep.Box(geom.Vec3{}, geom.Vec3{X: 1, Y: 1, Z: 1})
	if err != nil {
		t.Fatalf("Box: %v", err)
	}
	b.Faces = b.Faces[:5] // drop a face: edges on its rim are now used once
	errs := brep.Validate(b)
	found := false
	for _, e := range errs {
		if e.Code == "EDGE_NONMANIFOLD" {
			found = true
		}
	}
	if !found {
		t.Errorf("open shell passed closure validation: %v", errs)
	}
}

func TestBareSurfaceGroupRejected(t *testing.T) {
	// "Surfaces grouped together" without loop/edge topology is not a solid.
	b := store.BRep{
		Vertices: []store.TopoVertex{{Position: geom.Vec3{}}, {Position: geom.Vec3{X: 1}}},
		Edges:    []store.TopoEdge{{Start: 0, End: 1}},
		Faces:    nil,
	}
	errs := brep.Validate(b)
	if len(errs) == 0 {
		t.Fatal("edge with no bounding loops passed validation")
	}
}

func TestCircleCurveIsExact(t *testing.T) {
	c := brep.CircleCurve(2, 0)
	for u := 0.0; u <= 1.0; u += 0.05 {
		p := nurbs.CurvePointAt(c, u)
		if d := math.Abs(math.Hypot(p.X, p.Y) - 2); d > 1e-9 {
			t.Errorf("radius error %v at u=%v", d, u)
		}
	}
}

func TestCylinderTopology(t *testing.T) {
	st := store.New()
	b, err := brep.Cylinder(st, 1.5, 4)
	if err != nil {
		t.Fatalf("Cylinder: %v", err)
	}
	if errs := brep.Validate(b); len(errs) != 0 {
		t.Fatalf("cylinder fails validation: %v", errs)
	}

	// The rims and side surface were added to the store as referenced records.
	if st.Len() != 3 {
		t.Fatalf("store has %d records, want 3 (two rims + side surface)", st.Len())
	}
	side := b.Faces[2]
	rec, ok := st.Get(side.Surface)
	if !ok {
		t.Fatal("side surface reference dangles")
	}
	surf := rec.(store.Surface)
	// The side surface must be the exact cylinder: sample radii.
	for u := 0.0; u <= 1.0; u += 0.2 {
		p := nurbs.SurfacePointAt(surf, u, 0.5)
		if d := math.Abs(math.Hypot(p.X, p.Y) - 1.5); d > 1e-9 {
			t.Errorf("side surface radius error %v at u=%v", d, u)
		}
		if math.Abs(p.Z-2) > 1e-9 {
			t.Errorf("side surface mid-height z = %v, want 2", p.Z)
		}
	}

	// Referenced records must refuse removal while the B-Rep is stored.
	id, err := st.Add(b)
	if err != nil {
		t.Fatalf("Add brep: %v", err)
	}
	if err := st.Remove(side.Surface); err == nil {
		t.Fatal("Remove of referenced side surface succeeded")
	}
	if err := st.Remove(id); err != nil {
		t.Fatalf("Remove brep: %v", err)
	}
	if err := st.Remove(side.Surface); err != nil {
		t.Fatalf("Remove side surface after brep gone: %v", err)
	}
}
