package nurbs

import (
	"github.com/camber3d/camber/pkg/geom"
	"github.com/camber3d/camber/pkg/store"
)

// hpoint is a homogeneous control point (weighted coordinates plus weight).
// Non-rational geometry uses W = 1 throughout, so one code path serves both.
type hpoint struct {
	X, Y, Z, W float64
}

func (p hpoint) add(q hpoint) hpoint {
	return hpoint{p.X + q.X, p.Y + q.Y, p.Z + q.Z, p.W + q.W}
}

func (p hpoint) scale(k float64) hpoint {
	return hpoint{p.X * k, p.Y * k, p.Z * k, p.W * k}
}

// project divides out the weight. A near-zero weight returns the unweighted
// coordinates as a degenerate-but-finite fallback instead of NaN/Inf.
func (p hpoint) project() geom.Vec3 {
	if p.W > geom.EpsNumeric || p.W < -geom.EpsNumeric {
		inv := 1 / p.W
		return geom.Vec3{X: p.X * inv, Y: p.Y * inv, Z: p.Z * inv}
	}
	return geom.Vec3{X: p.X, Y: p.Y, Z: p.Z}
}

func (p hpoint) vec() geom.Vec3 {
	return geom.Vec3{X: p.X, Y: p.Y, Z: p.Z}
}

// homogCurve lifts curve control points into homogeneous space.
func homogCurve(c store.Curve) []hpoint {
	out := make([]hpoint, len(c.Points))
	for i, pt := range c.Points {
		w := 1.0
		if c.Weights != nil {
			w = c.Weights[i]
		}
		out[i] = hpoint{pt.X * w, pt.Y * w, pt.Z * w, w}
	}
	return out
}

// dehomogCurve converts homogeneous control points back to a curve record,
// emitting a weight slice only when the source curve was rational.
func dehomogCurve(pw []hpoint, knots []float64, degree int, rational bool, meta store.Meta) store.Curve {
	c := store.Curve{
		Meta:   meta,
		Points: make([]geom.Vec3, len(pw)),
		Knots:  knots,
		Degree: degree,
	}
	if rational {
		c.Weights = make([]float64, len(pw))
	}
	for i, p := range pw {
		c.Points[i] = p.project()
		if rational {
			c.Weights[i] = p.W
		}
	}
	return c
}

// homogSurface lifts the surface control net into homogeneous space,
// indexed [u][v].
func homogSurface(s store.Surface) [][]hpoint {
	out := make([][]hpoint, len(s.Points))
	for i, row := range s.Points {
		out[i] = make([]hpoint, len(row))
		for j, pt := range row {
			w := 1.0
			if s.Weights != nil {
				w = s.Weights[i][j]
			}
			out[i][j] = hpoint{pt.X * w, pt.Y * w, pt.Z * w, w}
		}
	}
	return out
}

// dehomogSurface converts a homogeneous control net back to a surface record.
func dehomogSurface(pw [][]hpoint, s store.Surface, knotsU, knotsV []float64, degU, degV int) store.Surface {
	out := store.Surface{
		Meta:    s.Meta,
		Points:  make([][]geom.Vec3, len(pw)),
		KnotsU:  knotsU,
		KnotsV:  knotsV,
		DegreeU: degU,
		DegreeV: degV,
	}
	rational := s.Weights != nil
	if rational {
		out.Weights = make([][]float64, len(pw))
	}
	for i, row := range pw {
		out.Points[i] = make([]geom.Vec3, len(row))
		if rational {
			out.Weights[i] = make([]float64, len(row))
		}
		for j, p := range row {
			out.Points[i][j] = p.project()
			if rational {
				out.Weights[i][j] = p.W
			}
		}
	}
	return out
}
