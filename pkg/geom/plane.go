package geom

import "math"

// Plane is an infinite plane in point-normal form. Normal is unit length.
type Plane struct {
	Point  Vec3
	Normal Vec3
}

// PlaneFromPoints fits a plane through the first three non-collinear points
// of the set. ok is false when every point is collinear (or there are fewer
// than three), in which case no plane is defined.
func PlaneFromPoints(points []Vec3) (Plane, bool) {
	if len(points) < 3 {
		return Plane{}, false
	}
	a := points[0]
	for i := 1; i < len(points)-1; i++ {
		ab := points[i].Sub(a)
		for j := i + 1; j < len(points); j++ {
			n := ab.Cross(points[j].Sub(a))
			if n.Length() > EpsGeometric {
				return Plane{Point: a, Normal: n.Normalize()}, true
			}
		}
	}
	return Plane{}, false
}

// DistanceTo returns the signed distance from p to the plane.
func (pl Plane) DistanceTo(p Vec3) float64 {
	return p.Sub(pl.Point).Dot(pl.Normal)
}

// Contains reports whether p lies on the plane within EpsGeometric.
func (pl Plane) Contains(p Vec3) bool {
	return math.Abs(pl.DistanceTo(p)) < EpsGeometric
}

// ContainsAll reports whether every point lies on the plane. The index of
// the first offending point is returned on failure (-1 on success).
func (pl Plane) ContainsAll(points []Vec3) (int, bool) {
	for i, p := range points {
		if !pl.Contains(p) {
			return i, false
		}
	}
	return -1, true
}

// Basis returns two unit vectors spanning the plane, orthogonal to each
// other and to the normal. Used to project coplanar 3D polylines into 2D.
func (pl Plane) Basis() (u, v Vec3) {
	n := pl.Normal
	// Pick the world axis least aligned with the normal as a seed.
	seed := Vec3{1, 0, 0}
	if math.Abs(n.X) > math.Abs(n.Y) {
		seed = Vec3{0, 1, 0}
		if math.Abs(n.Y) > math.Abs(n.Z) {
			seed = Vec3{0, 0, 1}
		}
	}
	u = n.Cross(seed).Normalize()
	v = n.Cross(u)
	return u, v
}

// Project returns the 2D coordinates of p in the plane's (u, v) basis.
func (pl Plane) Project(p Vec3, u, v Vec3) Vec2 {
	d := p.Sub(pl.Point)
	return Vec2{d.Dot(u), d.Dot(v)}
}

// Unproject lifts 2D plane coordinates back into world space.
func (pl Plane) Unproject(q Vec2, u, v Vec3) Vec3 {
	return pl.Point.Add(u.Scale(q.X)).Add(v.Scale(q.Y))
}
