package geom

import "math"

// Ray is a half-line in world space. Direction is kept normalized by the
// constructor so intersection distances are world units.
type Ray struct {
	Origin    Vec3
	Direction Vec3
}

// NewRay builds a ray with a normalized direction. A zero direction yields
// a degenerate ray whose intersections all miss.
func NewRay(origin, direction Vec3) Ray {
	return Ray{Origin: origin, Direction: direction.Normalize()}
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// Eq reports whether two rays coincide within EpsGeometric. Used by the
// pick stack to decide whether a query is a cycle of the previous one.
func (r Ray) Eq(s Ray) bool {
	return r.Origin.Eq(s.Origin) && r.Direction.Eq(s.Direction)
}

// IntersectTriangle runs the Möller–Trumbore ray/triangle test. It returns
// the ray parameter t and barycentric coordinates (u toward b, v toward c),
// with ok=false for misses, back-parameter hits (t < 0), and triangles whose
// plane is parallel to the ray within EpsAngular.
func (r Ray) IntersectTriangle(a, b, c Vec3) (t, u, v float64, ok bool) {
	ab := b.Sub(a)
	ac := c.Sub(a)
	p := r.Direction.Cross(ac)
	det := ab.Dot(p)
	if math.Abs(det) < EpsAngular {
		return 0, 0, 0, false
	}
	inv := 1 / det
	s := r.Origin.Sub(a)
	u = s.Dot(p) * inv
	if u < -EpsGeometric || u > 1+EpsGeometric {
		return 0, 0, 0, false
	}
	q := s.Cross(ab)
	v = r.Direction.Dot(q) * inv
	if v < -EpsGeometric || u+v > 1+EpsGeometric {
		return 0, 0, 0, false
	}
	t = ac.Dot(q) * inv
	if t < EpsGeometric {
		return 0, 0, 0, false
	}
	return t, u, v, true
}

// IntersectBox runs the slab test against an axis-aligned box and returns
// the entry/exit parameters. ok is false when the ray misses or the box is
// entirely behind the origin.
func (r Ray) IntersectBox(box Box) (tMin, tMax float64, ok bool) {
	tMin = math.Inf(-1)
	tMax = math.Inf(1)

	origin := [3]float64{r.Origin.X, r.Origin.Y, r.Origin.Z}
	dir := [3]float64{r.Direction.X, r.Direction.Y, r.Direction.Z}
	lo := [3]float64{box.Min.X, box.Min.Y, box.Min.Z}
	hi := [3]float64{box.Max.X, box.Max.Y, box.Max.Z}

	for i := 0; i < 3; i++ {
		if math.Abs(dir[i]) < EpsNumeric {
			// Parallel to this slab pair: miss unless origin is inside it.
			if origin[i] < lo[i] || origin[i] > hi[i] {
				return 0, 0, false
			}
			continue
		}
		inv := 1 / dir[i]
		t0 := (lo[i] - origin[i]) * inv
		t1 := (hi[i] - origin[i]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tMin {
			tMin = t0
		}
		if t1 < tMax {
			tMax = t1
		}
		if tMin > tMax {
			return 0, 0, false
		}
	}
	if tMax < 0 {
		return 0, 0, false
	}
	return tMin, tMax, true
}

// ClosestPointOnSegment returns the point on segment [a,b] nearest to p and
// its parameter along the segment in [0,1]. A degenerate segment returns a.
func ClosestPointOnSegment(p, a, b Vec3) (Vec3, float64) {
	ab := b.Sub(a)
	denom := ab.Dot(ab)
	if denom < EpsNumeric {
		return a, 0
	}
	t := p.Sub(a).Dot(ab) / denom
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return a.Add(ab.Scale(t)), t
}

// DistanceRayToPoint returns the shortest distance from p to the ray and the
// ray parameter of the nearest point (clamped to the forward half-line).
func DistanceRayToPoint(r Ray, p Vec3) (dist, t float64) {
	t = p.Sub(r.Origin).Dot(r.Direction)
	if t < 0 {
		t = 0
	}
	return r.At(t).Distance(p), t
}
