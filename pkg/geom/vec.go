package geom

import "math"

// ---------------------------------------------------------------------------
// Vec3
// ---------------------------------------------------------------------------

// Vec3 is a 3D vector or point in world units.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z}
}

// Scale returns v scaled by k.
func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{v.X * k, v.Y * k, v.Z * k}
}

// Neg returns -v.
func (v Vec3) Neg() Vec3 {
	return Vec3{-v.X, -v.Y, -v.Z}
}

// Dot returns the dot product v · w.
func (v Vec3) Dot(w Vec3) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Cross returns the cross product v × w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		v.Y*w.Z - v.Z*w.Y,
		v.Z*w.X - v.X*w.Z,
		v.X*w.Y - v.Y*w.X,
	}
}

// Length returns the Euclidean length of v.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// LengthSq returns the squared length of v.
func (v Vec3) LengthSq() float64 {
	return v.Dot(v)
}

// Distance returns the distance between the points v and w.
func (v Vec3) Distance(w Vec3) float64 {
	return v.Sub(w).Length()
}

// Normalize returns v scaled to unit length. A vector shorter than
// EpsNumeric returns the zero vector rather than producing NaN/Inf.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l < EpsNumeric {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Lerp returns the linear interpolation between v and w at t.
func (v Vec3) Lerp(w Vec3, t float64) Vec3 {
	return v.Add(w.Sub(v).Scale(t))
}

// Eq reports whether v and w coincide within EpsGeometric per component.
func (v Vec3) Eq(w Vec3) bool {
	return math.Abs(v.X-w.X) < EpsGeometric &&
		math.Abs(v.Y-w.Y) < EpsGeometric &&
		math.Abs(v.Z-w.Z) < EpsGeometric
}

// IsZero reports whether v is the zero vector within EpsNumeric.
func (v Vec3) IsZero() bool {
	return math.Abs(v.X) < EpsNumeric && math.Abs(v.Y) < EpsNumeric && math.Abs(v.Z) < EpsNumeric
}

// IsFinite reports whether all components are finite numbers.
func (v Vec3) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// Min returns the componentwise minimum of v and w.
func (v Vec3) Min(w Vec3) Vec3 {
	return Vec3{math.Min(v.X, w.X), math.Min(v.Y, w.Y), math.Min(v.Z, w.Z)}
}

// Max returns the componentwise maximum of v and w.
func (v Vec3) Max(w Vec3) Vec3 {
	return Vec3{math.Max(v.X, w.X), math.Max(v.Y, w.Y), math.Max(v.Z, w.Z)}
}

// ---------------------------------------------------------------------------
// Vec2
// ---------------------------------------------------------------------------

// Vec2 is a 2D vector used by the planar offset and boolean operations.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + w.
func (v Vec2) Add(w Vec2) Vec2 { return Vec2{v.X + w.X, v.Y + w.Y} }

// Sub returns v - w.
func (v Vec2) Sub(w Vec2) Vec2 { return Vec2{v.X - w.X, v.Y - w.Y} }

// Scale returns v scaled by k.
func (v Vec2) Scale(k float64) Vec2 { return Vec2{v.X * k, v.Y * k} }

// Dot returns the dot product v · w.
func (v Vec2) Dot(w Vec2) float64 { return v.X*w.X + v.Y*w.Y }

// Cross returns the scalar 2D cross product (z component of the 3D cross).
func (v Vec2) Cross(w Vec2) float64 { return v.X*w.Y - v.Y*w.X }

// Length returns the Euclidean length of v.
func (v Vec2) Length() float64 { return math.Hypot(v.X, v.Y) }

// Distance returns the distance between the points v and w.
func (v Vec2) Distance(w Vec2) float64 { return v.Sub(w).Length() }

// Normalize returns v scaled to unit length, or the zero vector when v is
// shorter than EpsNumeric.
func (v Vec2) Normalize() Vec2 {
	l := v.Length()
	if l < EpsNumeric {
		return Vec2{}
	}
	return v.Scale(1 / l)
}

// Perp returns v rotated 90° counterclockwise.
func (v Vec2) Perp() Vec2 { return Vec2{-v.Y, v.X} }

// Eq reports whether v and w coincide within EpsGeometric per component.
func (v Vec2) Eq(w Vec2) bool {
	return math.Abs(v.X-w.X) < EpsGeometric && math.Abs(v.Y-w.Y) < EpsGeometric
}
