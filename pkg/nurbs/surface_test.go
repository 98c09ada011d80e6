package nurbs_test

import (
	"testing"

	"github.com/camber3d/camber/pkg/geom"
	"github.com/camber3d/camber/pkg/nurbs"
	"github.com/camber3d/camber/pkg/store"
)

// bilinearPatch is the flat bilinear square [0,2]x[0,2] in the z=0 plane.
func bilinearPatch() store.Surface {
	return store.Surface{
		Points: [][]geom.Vec3{
			{{X: 0, Y: 0, Z: 0}, {X: 0, Y: 2, Z: 0}},
			{{X: 2, Y: 0, Z: 0}, {X: 2, Y: 2, Z: 0}},
		},
		KnotsU:  []float64{0, 0, 1, 1},
		KnotsV:  []float64{0, 0, 1, 1},
		DegreeU: 1,
		DegreeV: 1,
	}
}

// domePatch is a biquadratic patch with a raised center control point.
func domePatch() store.Surface {
	row := func(y float64, zs [3]float64) []geom.Vec3 {
		return []geom.Vec3{{X: 0, Y: y, Z: zs[0]}, {X: 1, Y: y, Z: zs[1]}, {X: 2, Y: y, Z: zs[2]}}
	}
	return store.Surface{
		Points: [][]geom.Vec3{
			row(0, [3]float64{0, 0, 0}),
			row(1, [3]float64{0, 2, 0}),
			row(2, [3]float64{0, 0, 0}),
		},
		KnotsU:  []float64{0, 0, 0, 1, 1, 1},
		KnotsV:  []float64{0, 0, 0, 1, 1, 1},
		DegreeU: 2,
		DegreeV: 2,
	}
}

func TestEvalSurfaceCorners(t *testing.T) {
	s := bilinearPatch()
	tests := []struct {
		name string
		u, v float64
		want geom.Vec3
	}{
		{"origin corner", 0, 0, geom.Vec3{}},
		{"u corner", 1, 0, geom.Vec3{X: 2}},
		{"v corner", 0, 1, geom.Vec3{Y: 2}},
		{"far corner", 1, 1, geom.Vec3{X: 2, Y: 2}},
		{"center", 0.5, 0.5, geom.Vec3{X: 1, Y: 1}},
		{"clamped outside", 3, -1, geom.Vec3{X: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nurbs.SurfacePointAt(s, tt.u, tt.v)
			if got.Distance(tt.want) > geom.EpsGeometric {
				t.Errorf("point(%v,%v) = %+v, want %+v", tt.u, tt.v, got, tt.want)
			}
		})
	}
}

func TestSurfaceNormal(t *testing.T) {
	s := bilinearPatch()
	n := nurbs.EvalSurface(s, 0.5, 0.5).Normal()
	if n.Cross(geom.Vec3{Z: 1}).Length() > geom.EpsGeometric {
		t.Errorf("flat patch normal = %+v, want ±z", n)
	}
}

func TestInsertSurfaceKnotPreservesShape(t *testing.T) {
	s := domePatch()
	refined := nurbs.InsertSurfaceKnotU(s, 0.5)
	refined = nurbs.InsertSurfaceKnotV(refined, 0.25)
	if len(refined.Points) != len(s.Points)+1 {
		t.Fatalf("U insertion row count = %d, want %d", len(refined.Points), len(s.Points)+1)
	}
	for u := 0.0; u <= 1.0; u += 0.2 {
		for v := 0.0; v <= 1.0; v += 0.2 {
			before := nurbs.SurfacePointAt(s, u, v)
			after := nurbs.SurfacePointAt(refined, u, v)
			if before.Distance(after) > geom.EpsGeometric {
				t.Errorf("point(%v,%v) moved by %v after insertion", u, v, before.Distance(after))
			}
		}
	}
}

func TestSplitSurfacePreservesShape(t *testing.T) {
	s := domePatch()
	left, right, err := nurbs.SplitSurfaceU(s, 0.4)
	if err != nil {
		t.Fatalf("SplitSurfaceU: %v", err)
	}
	for _, half := range []store.Surface{left, right} {
		if len(half.KnotsU) != len(half.Points)+half.DegreeU+1 {
			t.Fatal("split half violates U knot invariant")
		}
		if len(half.KnotsV) != len(half.Points[0])+half.DegreeV+1 {
			t.Fatal("split half violates V knot invariant")
		}
	}
	for v := 0.0; v <= 1.0; v += 0.25 {
		for u := 0.0; u <= 0.4; u += 0.1 {
			if d := nurbs.SurfacePointAt(left, u, v).Distance(nurbs.SurfacePointAt(s, u, v)); d > 1e-9 {
				t.Errorf("left(%v,%v) off by %v", u, v, d)
			}
		}
		for u := 0.4; u <= 1.0; u += 0.1 {
			if d := nurbs.SurfacePointAt(right, u, v).Distance(nurbs.SurfacePointAt(s, u, v)); d > 1e-9 {
				t.Errorf("right(%v,%v) off by %v", u, v, d)
			}
		}
	}
}

func TestElevateSurfaceDegreePreservesShape(t *testing.T) {
	s := domePatch()
	elevated := nurbs.ElevateSurfaceDegreeU(s)
	if elevated.DegreeU != 3 {
		t.Fatalf("DegreeU = %d, want 3", elevated.DegreeU)
	}
	for u := 0.0; u <= 1.0; u += 0.2 {
		for v := 0.0; v <= 1.0; v += 0.2 {
			before := nurbs.SurfacePointAt(s, u, v)
			after := nurbs.SurfacePointAt(elevated, u, v)
			if before.Distance(after) > 1e-9 {
				t.Errorf("point(%v,%v) moved by %v after elevation", u, v, before.Distance(after))
			}
		}
	}
}
