// Package nurbs evaluates NURBS curves and surfaces and provides the
// structural knot/degree operations on them. Evaluation follows the
// Cox–de Boor recursion; algorithm shapes follow The NURBS Book
// (Piegl & Tiller, 2nd ed.), with rational projection guarded by the
// kernel's numeric epsilon so degenerate weights never produce NaN.
package nurbs

import "github.com/camber3d/camber/pkg/geom"

// FindSpan returns the knot span index containing u: the largest i with
// knots[i] <= u, restricted to the valid range [degree, numPoints-1].
// Parameters at or beyond the domain end return the last valid span, which
// is what clamped out-of-domain evaluation needs.
func FindSpan(numPoints, degree int, u float64, knots []float64) int {
	n := numPoints - 1
	if u >= knots[n+1] {
		return n
	}
	if u <= knots[degree] {
		return degree
	}
	lo, hi := degree, n+1
	mid := (lo + hi) / 2
	for u < knots[mid] || u >= knots[mid+1] {
		if u < knots[mid] {
			hi = mid
		} else {
			lo = mid
		}
		mid = (lo + hi) / 2
	}
	return mid
}

// ClampParam clamps u into the valid parameter domain of a knot vector.
func ClampParam(u float64, degree int, knots []float64) float64 {
	lo := knots[degree]
	hi := knots[len(knots)-1-degree]
	if u < lo {
		return lo
	}
	if u > hi {
		return hi
	}
	return u
}

// BasisFuns computes the degree+1 nonvanishing basis function values at u
// on the given span (Cox–de Boor recursion, nonrecursive form).
func BasisFuns(span int, u float64, degree int, knots []float64) []float64 {
	out := make([]float64, degree+1)
	left := make([]float64, degree+1)
	right := make([]float64, degree+1)
	out[0] = 1
	for j := 1; j <= degree; j++ {
		left[j] = u - knots[span+1-j]
		right[j] = knots[span+j] - u
		saved := 0.0
		for r := 0; r < j; r++ {
			denom := right[r+1] + left[j-r]
			temp := 0.0
			if denom > geom.EpsNumeric || denom < -geom.EpsNumeric {
				temp = out[r] / denom
			}
			out[r] = saved + right[r+1]*temp
			saved = left[j-r] * temp
		}
		out[j] = saved
	}
	return out
}

// DersBasisFuns computes basis function values and derivatives up to order
// nDers at u on the given span. The result is indexed [derivative][basis],
// with row 0 holding the plain basis values.
func DersBasisFuns(span int, u float64, degree, nDers int, knots []float64) [][]float64 {
	ders := make([][]float64, nDers+1)
	for i := range ders {
		ders[i] = make([]float64, degree+1)
	}

	ndu := make([][]float64, degree+1)
	for i := range ndu {
		ndu[i] = make([]float64, degree+1)
	}
	left := make([]float64, degree+1)
	right := make([]float64, degree+1)

	ndu[0][0] = 1
	for j := 1; j <= degree; j++ {
		left[j] = u - knots[span+1-j]
		right[j] = knots[span+j] - u
		saved := 0.0
		for r := 0; r < j; r++ {
			// Lower triangle: knot differences.
			ndu[j][r] = right[r+1] + left[j-r]
			temp := 0.0
			if d := ndu[j][r]; d > geom.EpsNumeric || d < -geom.EpsNumeric {
				temp = ndu[r][j-1] / d
			}
			// Upper triangle: basis values.
			ndu[r][j] = saved + right[r+1]*temp
			saved = left[j-r] * temp
		}
		ndu[j][j] = saved
	}
	for j := 0; j <= degree; j++ {
		ders[0][j] = ndu[j][degree]
	}

	a := [2][]float64{make([]float64, degree+1), make([]float64, degree+1)}
	for r := 0; r <= degree; r++ {
		s1, s2 := 0, 1
		a[0][0] = 1
		for k := 1; k <= nDers; k++ {
			d := 0.0
			rk := r - k
			pk := degree - k
			if r >= k {
				a[s2][0] = safeDiv(a[s1][0], ndu[pk+1][rk])
				d = a[s2][0] * ndu[rk][pk]
			}
			j1 := 1
			if rk < -1 {
				j1 = -rk
			}
			j2 := k - 1
			if r-1 > pk {
				j2 = degree - r
			}
			for j := j1; j <= j2; j++ {
				a[s2][j] = safeDiv(a[s1][j]-a[s1][j-1], ndu[pk+1][rk+j])
				d += a[s2][j] * ndu[rk+j][pk]
			}
			if r <= pk {
				a[s2][k] = safeDiv(-a[s1][k-1], ndu[pk+1][r])
				d += a[s2][k] * ndu[r][pk]
			}
			ders[k][r] = d
			s1, s2 = s2, s1
		}
	}

	// Multiply through by the factorial factors.
	f := float64(degree)
	for k := 1; k <= nDers; k++ {
		for j := 0; j <= degree; j++ {
			ders[k][j] *= f
		}
		f *= float64(degree - k)
	}
	return ders
}

// safeDiv divides with the numeric-epsilon guard, returning 0 for a
// near-zero denominator (the convention the basis recursion relies on for
// repeated knots).
func safeDiv(num, den float64) float64 {
	if den > geom.EpsNumeric || den < -geom.EpsNumeric {
		return num / den
	}
	return 0
}
