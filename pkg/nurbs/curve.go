package nurbs

import (
	"github.com/camber3d/camber/pkg/geom"
	"github.com/camber3d/camber/pkg/store"
)

// CurvePoint bundles a curve evaluation: position plus first and second
// derivatives with respect to the parameter.
type CurvePoint struct {
	Position geom.Vec3
	D1       geom.Vec3
	D2       geom.Vec3
}

// EvalCurve evaluates a curve at parameter u. Out-of-domain parameters are
// clamped to the knot domain rather than erroring. Rational curves go
// through the homogeneous quotient rule; a near-zero weighted sum falls
// back to a degenerate-but-finite result instead of propagating NaN.
func EvalCurve(c store.Curve, u float64) CurvePoint {
	u = ClampParam(u, c.Degree, c.Knots)
	span := FindSpan(len(c.Points), c.Degree, u, c.Knots)

	nDers := 2
	if c.Degree < 2 {
		nDers = c.Degree
	}
	ders := DersBasisFuns(span, u, c.Degree, nDers, c.Knots)
	pw := homogCurve(c)

	// Homogeneous curve derivatives A^(k), W^(k).
	var hd [3]hpoint
	for k := 0; k <= nDers; k++ {
		for j := 0; j <= c.Degree; j++ {
			hd[k] = hd[k].add(pw[span-c.Degree+j].scale(ders[k][j]))
		}
	}

	pos := hd[0].project()
	out := CurvePoint{Position: pos}

	w := hd[0].W
	if w < geom.EpsNumeric && w > -geom.EpsNumeric {
		// Degenerate rational denominator: report flat derivatives.
		return out
	}
	inv := 1 / w

	if nDers >= 1 {
		// C' = (A' - W' C) / W
		out.D1 = hd[1].vec().Sub(pos.Scale(hd[1].W)).Scale(inv)
	}
	if nDers >= 2 {
		// C'' = (A'' - 2 W' C' - W'' C) / W
		out.D2 = hd[2].vec().
			Sub(out.D1.Scale(2 * hd[1].W)).
			Sub(pos.Scale(hd[2].W)).
			Scale(inv)
	}
	return out
}

// CurvePointAt returns just the evaluated position at u.
func CurvePointAt(c store.Curve, u float64) geom.Vec3 {
	return EvalCurve(c, u).Position
}

// CurveBounds returns the convex-hull bound of the curve: the bounding box
// of its control points, which contains the curve by the convex hull
// property of B-splines.
func CurveBounds(c store.Curve) geom.Box {
	return geom.BoxOf(c.Points)
}
