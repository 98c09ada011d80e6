package tessellate_test

import (
	"context"
	"math"
	"testing"

	"github.com/camber3d/camber/pkg/geom"
	"github.com/camber3d/camber/pkg/store"
	"github.com/camber3d/camber/pkg/tessellate"
)

func quadCurve() store.Curve {
	return store.Curve{
		Points: []geom.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 2, Z: 0}, {X: 2, Y: 0, Z: 0}},
		Knots:  []float64{0, 0, 0, 1, 1, 1},
		Degree: 2,
	}
}

func domePatch() store.Surface {
	return store.Surface{
		Points: [][]geom.Vec3{
			{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 2, Y: 0, Z: 0}},
			{{X: 0, Y: 1, Z: 0}, {X: 1, Y: 1, Z: 3}, {X: 2, Y: 1, Z: 0}},
			{{X: 0, Y: 2, Z: 0}, {X: 1, Y: 2, Z: 0}, {X: 2, Y: 2, Z: 0}},
		},
		KnotsU:  []float64{0, 0, 0, 1, 1, 1},
		KnotsV:  []float64{0, 0, 0, 1, 1, 1},
		DegreeU: 2,
		DegreeV: 2,
	}
}

func TestCurveTessellationEndpoints(t *testing.T) {
	c := quadCurve()
	pts, err := tessellate.TessellateCurve(context.Background(), c, tessellate.Options{Tolerance: 0.01})
	if err != nil {
		t.Fatalf("TessellateCurve: %v", err)
	}
	if len(pts) < 3 {
		t.Fatalf("got %d samples, expected adaptive refinement of a curved span", len(pts))
	}
	if !pts[0].Eq(geom.Vec3{}) {
		t.Errorf("first sample = %+v, want curve start", pts[0])
	}
	if !pts[len(pts)-1].Eq(geom.Vec3{X: 2}) {
		t.Errorf("last sample = %+v, want curve end", pts[len(pts)-1])
	}
}

func TestCurveBudgetMonotonicity(t *testing.T) {
	c := quadCurve()
	budgets := []float64{0.001, 0.01, 0.1, 1}
	prevDev := -1.0
	prevCount := 1 << 30
	for _, tol := range budgets {
		pts, err := tessellate.TessellateCurve(context.Background(), c, tessellate.Options{Tolerance: tol})
		if err != nil {
			t.Fatalf("TessellateCurve(%v): %v", tol, err)
		}
		dev := tessellate.MaxCurveDeviation(c, pts, 200)
		if dev < prevDev-geom.EpsGeometric {
			t.Errorf("budget %v: deviation %v decreased below previous %v", tol, dev, prevDev)
		}
		if len(pts) > prevCount {
			t.Errorf("budget %v: sample count %d grew from previous %d", tol, len(pts), prevCount)
		}
		prevDev, prevCount = dev, len(pts)
	}
}

func TestCurveDeviationWithinBudget(t *testing.T) {
	c := quadCurve()
	tol := 0.01
	pts, err := tessellate.TessellateCurve(context.Background(), c, tessellate.Options{Tolerance: tol})
	if err != nil {
		t.Fatalf("TessellateCurve: %v", err)
	}
	// The midpoint test tracks chord deviation; allow a small safety factor
	// for sample positions between tested midpoints.
	if dev := tessellate.MaxCurveDeviation(c, pts, 400); dev > 2*tol {
		t.Errorf("max deviation %v exceeds 2x budget %v", dev, tol)
	}
}

func TestSurfaceBudgetMonotonicity(t *testing.T) {
	s := domePatch()
	prevDev := -1.0
	for _, tol := range []float64{0.005, 0.05, 0.5} {
		m, err := tessellate.TessellateSurface(context.Background(), "s", s, tessellate.Options{Tolerance: tol})
		if err != nil {
			t.Fatalf("TessellateSurface(%v): %v", tol, err)
		}
		if m.TriangleCount() == 0 {
			t.Fatalf("budget %v produced no triangles", tol)
		}
		dev := tessellate.MaxSurfaceDeviation(s, m, 12)
		if dev < prevDev-geom.EpsGeometric {
			t.Errorf("budget %v: deviation %v decreased below previous %v", tol, dev, prevDev)
		}
		prevDev = dev
	}
}

func TestTessellationCache(t *testing.T) {
	s := store.New()
	id, err := s.Add(quadCurve())
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	cache := tessellate.NewCache()
	opts := tessellate.Options{Tolerance: 0.01}

	m1, err := cache.Mesh(context.Background(), s.Snapshot(), id, opts)
	if err != nil {
		t.Fatalf("Mesh: %v", err)
	}
	if cache.Len() != 1 {
		t.Fatalf("cache Len = %d, want 1", cache.Len())
	}

	// Same version, same bucket: identical result, no new entry.
	m2, err := cache.Mesh(context.Background(), s.Snapshot(), id, opts)
	if err != nil {
		t.Fatalf("Mesh (hit): %v", err)
	}
	if &m1.Positions[0] != &m2.Positions[0] {
		t.Error("cache hit returned a different mesh")
	}

	// Tolerance within the same power-of-two bucket: still a hit.
	if _, err := cache.Mesh(context.Background(), s.Snapshot(), id, tessellate.Options{Tolerance: 0.011}); err != nil {
		t.Fatalf("Mesh (same bucket): %v", err)
	}
	if cache.Len() != 1 {
		t.Errorf("same-bucket request added an entry, Len = %d", cache.Len())
	}

	// Store replace bumps the version and misses the cache.
	moved := quadCurve()
	moved.Points[1].Y = 5
	if err := s.Update(id, moved); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := cache.Mesh(context.Background(), s.Snapshot(), id, opts); err != nil {
		t.Fatalf("Mesh (after update): %v", err)
	}
	if cache.Len() != 2 {
		t.Errorf("post-update request did not add an entry, Len = %d", cache.Len())
	}
}

func TestZoomBuckets(t *testing.T) {
	tests := []struct {
		a, b float64
		same bool
	}{
		{0.010, 0.011, true},
		{0.01, 0.02, false},
		{1.0, 1.9, true},
		{1.0, 2.0, false},
	}
	for _, tt := range tests {
		ba := tessellate.ZoomBucket(tt.a)
		bb := tessellate.ZoomBucket(tt.b)
		if (ba == bb) != tt.same {
			t.Errorf("ZoomBucket(%v)=%d vs ZoomBucket(%v)=%d, same=%v want %v", tt.a, ba, tt.b, bb, ba == bb, tt.same)
		}
	}
}

func TestCancellationAbortsCleanly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tessellate.TessellateSurface(ctx, "s", domePatch(), tessellate.Options{Tolerance: 1e-6}); err == nil {
		t.Error("surface tessellation ignored cancelled context")
	}
	if _, err := tessellate.TessellateCurve(ctx, quadCurve(), tessellate.Options{Tolerance: 1e-6}); err == nil {
		t.Error("curve tessellation ignored cancelled context")
	}
}

func TestExtrusionSweep(t *testing.T) {
	s := store.New()
	profile, err := s.Add(store.Polyline{
		Points: []geom.Vec3{{X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0}},
	})
	if err != nil {
		t.Fatalf("Add profile: %v", err)
	}
	path, err := s.Add(store.Polyline{
		Points: []geom.Vec3{{X: 0, Y: 0, Z: 0}, {X: 0, Y: 0, Z: 5}},
	})
	if err != nil {
		t.Fatalf("Add path: %v", err)
	}
	extID, err := s.Add(store.Extrusion{Profile: profile, Path: path})
	if err != nil {
		t.Fatalf("Add extrusion: %v", err)
	}

	snap := s.Snapshot()
	rec, _ := snap.Get(extID)
	m, err := tessellate.Tessellate(context.Background(), snap, extID, rec, tessellate.Options{Tolerance: 0.01})
	if err != nil {
		t.Fatalf("Tessellate extrusion: %v", err)
	}
	// 1 path segment x 2 profile segments x 2 triangles each.
	if got := m.TriangleCount(); got != 4 {
		t.Errorf("TriangleCount = %d, want 4", got)
	}
	// Straight z-path sweep: every vertex z is 0 or 5, x/y match the profile.
	for i := 0; i < m.VertexCount(); i++ {
		p := m.Position(i)
		if p.Z != 0 && p.Z != 5 {
			t.Errorf("vertex %d z = %v, want 0 or 5", i, p.Z)
		}
	}

	// Editing the path propagates: the extrusion record itself is untouched.
	longer := store.Polyline{Points: []geom.Vec3{{X: 0, Y: 0, Z: 0}, {X: 0, Y: 0, Z: 9}}}
	if err := s.Update(path, longer); err != nil {
		t.Fatalf("Update path: %v", err)
	}
	snap = s.Snapshot()
	rec, _ = snap.Get(extID)
	m2, err := tessellate.Tessellate(context.Background(), snap, extID, rec, tessellate.Options{Tolerance: 0.01})
	if err != nil {
		t.Fatalf("Tessellate after path edit: %v", err)
	}
	maxZ := 0.0
	for i := 0; i < m2.VertexCount(); i++ {
		if z := m2.Position(i).Z; z > maxZ {
			maxZ = z
		}
	}
	if maxZ != 9 {
		t.Errorf("sweep did not follow edited path, max z = %v, want 9", maxZ)
	}
}

func TestExtrusionTwistRefinesStraightPath(t *testing.T) {
	s := store.New()
	profile, err := s.Add(store.Polyline{
		Points: []geom.Vec3{{X: 1, Y: 1, Z: 0}, {X: -1, Y: 1, Z: 0}, {X: -1, Y: -1, Z: 0}, {X: 1, Y: -1, Z: 0}},
		Closed: true,
	})
	if err != nil {
		t.Fatalf("Add profile: %v", err)
	}
	path, err := s.Add(store.Polyline{Points: []geom.Vec3{{X: 0, Y: 0, Z: 0}, {X: 0, Y: 0, Z: 10}}})
	if err != nil {
		t.Fatalf("Add path: %v", err)
	}

	snap := s.Snapshot()
	opts := tessellate.Options{Tolerance: 0.01}
	plain, err := tessellate.TessellateExtrusion(context.Background(), snap, "e",
		store.Extrusion{Profile: profile, Path: path}, opts)
	if err != nil {
		t.Fatalf("Tessellate untwisted: %v", err)
	}
	twisted, err := tessellate.TessellateExtrusion(context.Background(), snap, "e",
		store.Extrusion{Profile: profile, Path: path, TwistDegrees: 360}, opts)
	if err != nil {
		t.Fatalf("Tessellate twisted: %v", err)
	}

	// A two-point straight path samples the twist only at 0 and 360 degrees,
	// both the identity; intermediate stations must appear.
	if twisted.VertexCount() <= plain.VertexCount() {
		t.Fatalf("twisted sweep has %d vertices, untwisted %d; no stations were inserted",
			twisted.VertexCount(), plain.VertexCount())
	}
	interior := false
	for i := 0; i < twisted.VertexCount(); i++ {
		if z := twisted.Position(i).Z; z > 1e-6 && z < 10-1e-6 {
			interior = true
			break
		}
	}
	if !interior {
		t.Fatal("twisted sweep has no stations between the path endpoints")
	}

	// Every station is an exact rotated profile copy: undoing the twist at
	// each vertex height must land back on a profile corner.
	corners := []geom.Vec2{{X: 1, Y: 1}, {X: -1, Y: 1}, {X: -1, Y: -1}, {X: 1, Y: -1}}
	for i := 0; i < twisted.VertexCount(); i++ {
		p := twisted.Position(i)
		ang := -2 * math.Pi * p.Z / 10
		x := p.X*math.Cos(ang) - p.Y*math.Sin(ang)
		y := p.X*math.Sin(ang) + p.Y*math.Cos(ang)
		matched := false
		for _, c := range corners {
			if math.Abs(x-c.X) < 1e-4 && math.Abs(y-c.Y) < 1e-4 {
				matched = true
				break
			}
		}
		if !matched {
			t.Fatalf("vertex %d at %+v does not back-rotate onto the profile", i, p)
		}
	}
}

func TestExtrusionDanglingReference(t *testing.T) {
	s := store.New()
	profile, _ := s.Add(store.Polyline{Points: []geom.Vec3{{X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}}})
	ext := store.Extrusion{Profile: profile, Path: store.NewID()} // path never added
	snap := s.Snapshot()
	if _, err := tessellate.TessellateExtrusion(context.Background(), snap, "e", ext, tessellate.Options{}); err == nil {
		t.Error("extrusion with dangling path tessellated without error")
	}
}
