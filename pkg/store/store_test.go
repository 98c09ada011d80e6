package store_test

import (
	"strings"
	"testing"

	"github.com/camber3d/camber/pkg/geom"
	"github.com/camber3d/camber/pkg/store"
)

// quadCurve returns a valid clamped degree-2 curve.
func quadCurve() store.Curve {
	return store.Curve{
		Points: []geom.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 2, Z: 0}, {X: 2, Y: 0, Z: 0}},
		Knots:  []float64{0, 0, 0, 1, 1, 1},
		Degree: 2,
	}
}

func TestAddGetUpdate(t *testing.T) {
	s := store.New()

	id, err := s.Add(quadCurve())
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if s.Version(id) != 1 {
		t.Errorf("fresh record version = %d, want 1", s.Version(id))
	}

	got, ok := s.Get(id)
	if !ok {
		t.Fatal("Get: record missing after Add")
	}
	if got.Kind() != store.KindCurve {
		t.Errorf("Kind = %v, want curve", got.Kind())
	}

	// Replace with a moved copy; original snapshot must survive.
	snap := s.Snapshot()
	moved := quadCurve()
	moved.Points[1] = geom.Vec3{X: 1, Y: 5, Z: 0}
	if err := s.Update(id, moved); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if s.Version(id) != 2 {
		t.Errorf("version after update = %d, want 2", s.Version(id))
	}
	old, _ := snap.Get(id)
	if old.(store.Curve).Points[1].Y != 2 {
		t.Error("snapshot observed the update; replace must not mutate prior value")
	}
}

func TestUpdateAbsent(t *testing.T) {
	s := store.New()
	if err := s.Update(store.NewID(), quadCurve()); err == nil {
		t.Fatal("Update of absent id succeeded, want error")
	}
}

func TestRemoveReferenceSafety(t *testing.T) {
	s := store.New()
	profile, _ := s.Add(quadCurve())
	path, _ := s.Add(quadCurve())
	ext, err := s.Add(store.Extrusion{Profile: profile, Path: path})
	if err != nil {
		t.Fatalf("Add extrusion: %v", err)
	}

	if err := s.Remove(profile); err == nil {
		t.Fatal("Remove of referenced profile succeeded, want error")
	} else if !strings.Contains(err.Error(), "referenced") {
		t.Errorf("error %q does not mention the reference", err)
	}
	if _, ok := s.Get(profile); !ok {
		t.Fatal("failed Remove mutated the store")
	}

	// Deleting the extrusion first releases the curves.
	if err := s.Remove(ext); err != nil {
		t.Fatalf("Remove extrusion: %v", err)
	}
	if err := s.Remove(profile); err != nil {
		t.Fatalf("Remove profile after extrusion gone: %v", err)
	}
}

func TestValidationRejectsAtConstruction(t *testing.T) {
	s := store.New()
	tests := []struct {
		name string
		rec  store.Record
	}{
		{"short knot vector", store.Curve{
			Points: []geom.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 2, Y: 0, Z: 0}},
			Knots:  []float64{0, 0, 1, 1},
			Degree: 2,
		}},
		{"decreasing knots", store.Curve{
			Points: []geom.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 2, Y: 0, Z: 0}},
			Knots:  []float64{0, 0, 0, 1, 0.5, 1},
			Degree: 2,
		}},
		{"closed polyline with two points", store.Polyline{
			Points: []geom.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}},
			Closed: true,
		}},
		{"open polyline with one point", store.Polyline{
			Points: []geom.Vec3{{X: 0, Y: 0, Z: 0}},
		}},
		{"negative voxel resolution", store.VoxelGrid{Nx: -1, Ny: 8, Nz: 8}},
		{"mesh index out of range", store.Mesh{
			Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
			Indices:   []uint32{0, 1, 7},
		}},
		{"nonpositive weight", func() store.Record {
			c := quadCurve()
			c.Weights = []float64{1, 0, 1}
			return c
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Add(tt.rec); err == nil {
				t.Errorf("Add accepted invalid record %+v", tt.rec)
			}
		})
	}
	if s.Len() != 0 {
		t.Errorf("store has %d entries after rejected adds, want 0", s.Len())
	}
}

func TestBRepDanglingIndexRejected(t *testing.T) {
	s := store.New()
	b := store.BRep{
		Vertices: []store.TopoVertex{{Position: geom.Vec3{}}},
		Edges:    []store.TopoEdge{{Start: 0, End: 3}}, // dangling vertex index
	}
	if _, err := s.Add(b); err == nil {
		t.Fatal("Add accepted B-Rep with dangling vertex index")
	}
}

func TestPolylineEdgeIndexing(t *testing.T) {
	open := store.Polyline{Points: []geom.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}}}
	if got := open.EdgeCount(); got != 2 {
		t.Errorf("open EdgeCount = %d, want 2", got)
	}
	closed := store.Polyline{Points: open.Points, Closed: true}
	if got := closed.EdgeCount(); got != 3 {
		t.Errorf("closed EdgeCount = %d, want 3", got)
	}
	a, b := closed.Edge(2)
	if !a.Eq(geom.Vec3{X: 1, Y: 1}) || !b.Eq(geom.Vec3{}) {
		t.Errorf("closing edge = (%+v, %+v), want wrap to first point", a, b)
	}
}

func TestMeshWatertight(t *testing.T) {
	// Tetrahedron: 4 vertices, 4 faces, every edge shared twice.
	closed := store.Mesh{
		Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1},
		Indices:   []uint32{0, 2, 1, 0, 1, 3, 1, 2, 3, 0, 3, 2},
	}
	if !closed.Watertight() {
		t.Error("tetrahedron reported as open")
	}

	open := closed
	open.Indices = open.Indices[:9] // drop one face
	if open.Watertight() {
		t.Error("open shell reported as watertight")
	}

	// Corners duplicated per triangle must still weld into a closed shell.
	var dup store.Mesh
	for tri := 0; tri < closed.TriangleCount(); tri++ {
		a, b, c := closed.Triangle(tri)
		for _, p := range []geom.Vec3{a, b, c} {
			dup.Indices = append(dup.Indices, uint32(dup.VertexCount()))
			dup.Positions = append(dup.Positions, float32(p.X), float32(p.Y), float32(p.Z))
		}
	}
	if !dup.Watertight() {
		t.Error("duplicated-corner tetrahedron reported as open")
	}

	if (store.Mesh{}).Watertight() {
		t.Error("empty mesh reported as watertight")
	}
}
