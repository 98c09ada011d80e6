package nurbs

import (
	"fmt"

	"github.com/camber3d/camber/pkg/geom"
	"github.com/camber3d/camber/pkg/store"
)

// ---------------------------------------------------------------------------
// Homogeneous helpers shared by curve and surface operations
// ---------------------------------------------------------------------------

// knotMultiplicity counts how many knots equal u within EpsNumeric.
func knotMultiplicity(knots []float64, u float64) int {
	m := 0
	for _, k := range knots {
		if k > u-geom.EpsNumeric && k < u+geom.EpsNumeric {
			m++
		}
	}
	return m
}

// insertKnotOnce inserts u once (Boehm's algorithm). Evaluated positions are
// unchanged; one control point is added.
func insertKnotOnce(pw []hpoint, knots []float64, degree int, u float64) ([]hpoint, []float64) {
	k := FindSpan(len(pw), degree, u, knots)

	out := make([]hpoint, len(pw)+1)
	copy(out, pw[:k-degree+1])
	for i := k - degree + 1; i <= k; i++ {
		alpha := safeDiv(u-knots[i], knots[i+degree]-knots[i])
		out[i] = pw[i].scale(alpha).add(pw[i-1].scale(1 - alpha))
	}
	copy(out[k+1:], pw[k:])

	newKnots := make([]float64, len(knots)+1)
	copy(newKnots, knots[:k+1])
	newKnots[k+1] = u
	copy(newKnots[k+2:], knots[k+1:])
	return out, newKnots
}

// refineToMultiplicity inserts u until its multiplicity reaches target.
func refineToMultiplicity(pw []hpoint, knots []float64, degree int, u float64, target int) ([]hpoint, []float64) {
	for knotMultiplicity(knots, u) < target {
		pw, knots = insertKnotOnce(pw, knots, degree, u)
	}
	return pw, knots
}

// splitH splits a homogeneous curve at u into two independently valid
// halves. u must lie strictly inside the domain.
func splitH(pw []hpoint, knots []float64, degree int, u float64) (lp []hpoint, lk []float64, rp []hpoint, rk []float64) {
	pw, knots = refineToMultiplicity(pw, knots, degree, u, degree)

	// First refined knot equal to u.
	r := 0
	for r < len(knots) && knots[r] < u-geom.EpsNumeric {
		r++
	}

	lk = make([]float64, r+degree+1)
	copy(lk, knots[:r+degree])
	lk[r+degree] = u
	lp = append([]hpoint(nil), pw[:r]...)

	rk = make([]float64, 1+len(knots)-r)
	rk[0] = u
	copy(rk[1:], knots[r:])
	rp = append([]hpoint(nil), pw[r-1:]...)
	return lp, lk, rp, rk
}

// elevateH raises the degree by one via Bezier decomposition: insert knots
// until every interior knot has multiplicity == degree, elevate each Bezier
// segment, and reassemble. Shape is preserved exactly; the representation
// is not knot-minimal.
func elevateH(pw []hpoint, knots []float64, degree int) ([]hpoint, []float64) {
	// Decompose into Bezier segments.
	lo := knots[degree]
	hi := knots[len(knots)-1-degree]
	var interior []float64
	for _, k := range knots {
		if k > lo+geom.EpsNumeric && k < hi-geom.EpsNumeric {
			if len(interior) == 0 || k > interior[len(interior)-1]+geom.EpsNumeric {
				interior = append(interior, k)
			}
		}
	}
	for _, k := range interior {
		pw, knots = refineToMultiplicity(pw, knots, degree, k, degree)
	}

	segments := len(interior) + 1
	p := degree
	np := p + 1 // new degree

	// Elevate each Bezier segment: segment s occupies pw[s*p .. s*p+p].
	out := make([]hpoint, segments*np+1)
	for s := 0; s < segments; s++ {
		seg := pw[s*p : s*p+p+1]
		base := s * np
		out[base] = seg[0]
		for i := 1; i <= p; i++ {
			a := float64(i) / float64(np)
			out[base+i] = seg[i-1].scale(a).add(seg[i].scale(1 - a))
		}
		out[base+np] = seg[p]
	}

	// New knot vector: endpoints at multiplicity np+1, interiors at np.
	newKnots := make([]float64, 0, len(out)+np+1)
	for i := 0; i <= np; i++ {
		newKnots = append(newKnots, lo)
	}
	for _, k := range interior {
		for i := 0; i < np; i++ {
			newKnots = append(newKnots, k)
		}
	}
	for i := 0; i <= np; i++ {
		newKnots = append(newKnots, hi)
	}
	return out, newKnots
}

// ---------------------------------------------------------------------------
// Curve operations
// ---------------------------------------------------------------------------

// InsertCurveKnot inserts u into the curve's knot vector, adding one control
// point without altering the evaluated shape. u is clamped to the domain.
func InsertCurveKnot(c store.Curve, u float64) store.Curve {
	u = ClampParam(u, c.Degree, c.Knots)
	pw, knots := insertKnotOnce(homogCurve(c), c.Knots, c.Degree, u)
	return dehomogCurve(pw, knots, c.Degree, c.Weights != nil, c.Meta)
}

// ElevateCurveDegree raises the curve degree by one, preserving shape.
func ElevateCurveDegree(c store.Curve) store.Curve {
	pw, knots := elevateH(homogCurve(c), c.Knots, c.Degree)
	return dehomogCurve(pw, knots, c.Degree+1, c.Weights != nil, c.Meta)
}

// SplitCurve splits the curve at u into two independently valid curves, each
// satisfying the knot-vector invariant. A parameter at or beyond the domain
// boundary is an error: the empty half would violate the domain invariant.
func SplitCurve(c store.Curve, u float64) (left, right store.Curve, err error) {
	lo, hi := c.Domain()
	if u <= lo+geom.EpsGeometric || u >= hi-geom.EpsGeometric {
		return store.Curve{}, store.Curve{}, fmt.Errorf("nurbs: split parameter %v outside open domain (%v, %v)", u, lo, hi)
	}
	lp, lk, rp, rk := splitH(homogCurve(c), c.Knots, c.Degree, u)
	rational := c.Weights != nil
	return dehomogCurve(lp, lk, c.Degree, rational, c.Meta),
		dehomogCurve(rp, rk, c.Degree, rational, c.Meta),
		nil
}

// ---------------------------------------------------------------------------
// Surface operations
// ---------------------------------------------------------------------------

// surfaceColumnsU extracts the homogeneous net as u-direction columns:
// column j is the curve over the u index at fixed v index j.
func surfaceColumnsU(pw [][]hpoint) [][]hpoint {
	nu, nv := len(pw), len(pw[0])
	cols := make([][]hpoint, nv)
	for j := 0; j < nv; j++ {
		col := make([]hpoint, nu)
		for i := 0; i < nu; i++ {
			col[i] = pw[i][j]
		}
		cols[j] = col
	}
	return cols
}

// netFromColumnsU rebuilds an [u][v] net from u-direction columns.
func netFromColumnsU(cols [][]hpoint) [][]hpoint {
	nv := len(cols)
	nu := len(cols[0])
	net := make([][]hpoint, nu)
	for i := 0; i < nu; i++ {
		net[i] = make([]hpoint, nv)
		for j := 0; j < nv; j++ {
			net[i][j] = cols[j][i]
		}
	}
	return net
}

// InsertSurfaceKnotU inserts u into the U knot vector, adding one control
// point row without changing the surface shape.
func InsertSurfaceKnotU(s store.Surface, u float64) store.Surface {
	u = ClampParam(u, s.DegreeU, s.KnotsU)
	cols := surfaceColumnsU(homogSurface(s))
	var knots []float64
	for j := range cols {
		cols[j], knots = insertKnotOnce(cols[j], s.KnotsU, s.DegreeU, u)
	}
	return dehomogSurface(netFromColumnsU(cols), s, knots, s.KnotsV, s.DegreeU, s.DegreeV)
}

// InsertSurfaceKnotV inserts v into the V knot vector.
func InsertSurfaceKnotV(s store.Surface, v float64) store.Surface {
	v = ClampParam(v, s.DegreeV, s.KnotsV)
	pw := homogSurface(s)
	var knots []float64
	for i := range pw {
		pw[i], knots = insertKnotOnce(pw[i], s.KnotsV, s.DegreeV, v)
	}
	return dehomogSurface(pw, s, s.KnotsU, knots, s.DegreeU, s.DegreeV)
}

// SplitSurfaceU splits the surface at parameter u into two independently
// valid surfaces spanning [lo, u] and [u, hi] in the U direction.
func SplitSurfaceU(s store.Surface, u float64) (left, right store.Surface, err error) {
	lo, hi := s.DomainU()
	if u <= lo+geom.EpsGeometric || u >= hi-geom.EpsGeometric {
		return store.Surface{}, store.Surface{}, fmt.Errorf("nurbs: split parameter %v outside open U domain (%v, %v)", u, lo, hi)
	}
	cols := surfaceColumnsU(homogSurface(s))
	leftCols := make([][]hpoint, len(cols))
	rightCols := make([][]hpoint, len(cols))
	var lk, rk []float64
	for j := range cols {
		leftCols[j], lk, rightCols[j], rk = splitH(cols[j], s.KnotsU, s.DegreeU, u)
	}
	left = dehomogSurface(netFromColumnsU(leftCols), s, lk, s.KnotsV, s.DegreeU, s.DegreeV)
	right = dehomogSurface(netFromColumnsU(rightCols), s, rk, s.KnotsV, s.DegreeU, s.DegreeV)
	return left, right, nil
}

// SplitSurfaceV splits the surface at parameter v in the V direction.
func SplitSurfaceV(s store.Surface, v float64) (left, right store.Surface, err error) {
	lo, hi := s.DomainV()
	if v <= lo+geom.EpsGeometric || v >= hi-geom.EpsGeometric {
		return store.Surface{}, store.Surface{}, fmt.Errorf("nurbs: split parameter %v outside open V domain (%v, %v)", v, lo, hi)
	}
	pw := homogSurface(s)
	leftRows := make([][]hpoint, len(pw))
	rightRows := make([][]hpoint, len(pw))
	var lk, rk []float64
	for i := range pw {
		leftRows[i], lk, rightRows[i], rk = splitH(pw[i], s.KnotsV, s.DegreeV, v)
	}
	left = dehomogSurface(leftRows, s, s.KnotsU, lk, s.DegreeU, s.DegreeV)
	right = dehomogSurface(rightRows, s, s.KnotsU, rk, s.DegreeU, s.DegreeV)
	return left, right, nil
}

// ElevateSurfaceDegreeU raises the U degree by one, preserving shape.
func ElevateSurfaceDegreeU(s store.Surface) store.Surface {
	cols := surfaceColumnsU(homogSurface(s))
	var knots []float64
	for j := range cols {
		cols[j], knots = elevateH(cols[j], s.KnotsU, s.DegreeU)
	}
	return dehomogSurface(netFromColumnsU(cols), s, knots, s.KnotsV, s.DegreeU+1, s.DegreeV)
}

// ElevateSurfaceDegreeV raises the V degree by one, preserving shape.
func ElevateSurfaceDegreeV(s store.Surface) store.Surface {
	pw := homogSurface(s)
	var knots []float64
	for i := range pw {
		pw[i], knots = elevateH(pw[i], s.KnotsV, s.DegreeV)
	}
	return dehomogSurface(pw, s, s.KnotsU, knots, s.DegreeU, s.DegreeV+1)
}
