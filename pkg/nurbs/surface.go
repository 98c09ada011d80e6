package nurbs

import (
	"github.com/camber3d/camber/pkg/geom"
	"github.com/camber3d/camber/pkg/store"
)

// SurfacePoint bundles a surface evaluation: position plus the first partial
// derivatives in each parametric direction.
type SurfacePoint struct {
	Position geom.Vec3
	DU       geom.Vec3
	DV       geom.Vec3
}

// Normal returns the unit surface normal (DU × DV), or the zero vector at
// degenerate points.
func (p SurfacePoint) Normal() geom.Vec3 {
	return p.DU.Cross(p.DV).Normalize()
}

// EvalSurface evaluates a surface at (u, v), clamping out-of-domain
// parameters per direction. Rational surfaces use the homogeneous quotient
// rule with the numeric-epsilon denominator guard.
func EvalSurface(s store.Surface, u, v float64) SurfacePoint {
	u = ClampParam(u, s.DegreeU, s.KnotsU)
	v = ClampParam(v, s.DegreeV, s.KnotsV)

	nu := len(s.Points)
	nv := len(s.Points[0])
	spanU := FindSpan(nu, s.DegreeU, u, s.KnotsU)
	spanV := FindSpan(nv, s.DegreeV, v, s.KnotsV)

	dersU := DersBasisFuns(spanU, u, s.DegreeU, 1, s.KnotsU)
	dersV := DersBasisFuns(spanV, v, s.DegreeV, 1, s.KnotsV)
	pw := homogSurface(s)

	// hd[du][dv] = homogeneous partial of order (du, dv), orders 0 and 1.
	var hd [2][2]hpoint
	for du := 0; du <= 1; du++ {
		for dv := 0; dv <= 1; dv++ {
			if du+dv > 1 {
				continue
			}
			var acc hpoint
			for i := 0; i <= s.DegreeU; i++ {
				var row hpoint
				ci := spanU - s.DegreeU + i
				for j := 0; j <= s.DegreeV; j++ {
					row = row.add(pw[ci][spanV-s.DegreeV+j].scale(dersV[dv][j]))
				}
				acc = acc.add(row.scale(dersU[du][i]))
			}
			hd[du][dv] = acc
		}
	}

	pos := hd[0][0].project()
	out := SurfacePoint{Position: pos}

	w := hd[0][0].W
	if w < geom.EpsNumeric && w > -geom.EpsNumeric {
		return out
	}
	inv := 1 / w

	// S_u = (A_u - W_u S) / W, and likewise for v.
	out.DU = hd[1][0].vec().Sub(pos.Scale(hd[1][0].W)).Scale(inv)
	out.DV = hd[0][1].vec().Sub(pos.Scale(hd[0][1].W)).Scale(inv)
	return out
}

// SurfacePointAt returns just the evaluated position at (u, v).
func SurfacePointAt(s store.Surface, u, v float64) geom.Vec3 {
	return EvalSurface(s, u, v).Position
}

// SurfaceBounds returns the control-net bounding box, which contains the
// surface by the convex hull property.
func SurfaceBounds(s store.Surface) geom.Box {
	b := geom.EmptyBox()
	for _, row := range s.Points {
		for _, p := range row {
			b = b.Extend(p)
		}
	}
	return b
}
