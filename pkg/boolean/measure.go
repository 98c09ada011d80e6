package boolean

import (
	"github.com/camber3d/camber/pkg/geom"
	"github.com/camber3d/camber/pkg/store"
)

// Length returns the total polyline length, including the closing segment
// for closed polylines.
func Length(p store.Polyline) float64 {
	var sum float64
	for i := 0; i < p.EdgeCount(); i++ {
		a, b := p.Edge(i)
		sum += a.Distance(b)
	}
	return sum
}

// SignedArea returns the enclosed area of a closed planar polyline, positive
// when the polyline winds counterclockwise around its fitted plane normal.
func SignedArea(p store.Polyline) (float64, error) {
	if !p.Closed {
		return 0, &InputError{Op: "area", Index: -1, Message: "polyline is not closed"}
	}
	_, pts, err := projectPlanar("area", p.Points)
	if err != nil {
		return 0, err
	}
	var a2 float64
	n := len(pts)
	for i := 0; i < n; i++ {
		p0, p1 := pts[i], pts[(i+1)%n]
		a2 += p0.Cross(p1)
	}
	return a2 / 2, nil
}

// IsCounterClockwise reports whether a closed planar polyline winds
// counterclockwise around its fitted plane normal.
func IsCounterClockwise(p store.Polyline) (bool, error) {
	a, err := SignedArea(p)
	return a > 0, err
}

// Centroid returns the area centroid of a closed planar polyline.
func Centroid(p store.Polyline) (geom.Vec3, error) {
	if !p.Closed {
		return geom.Vec3{}, &InputError{Op: "centroid", Index: -1, Message: "polyline is not closed"}
	}
	plane, pts, err := projectPlanar("centroid", p.Points)
	if err != nil {
		return geom.Vec3{}, err
	}
	var a2, cx, cy float64
	n := len(pts)
	for i := 0; i < n; i++ {
		p0, p1 := pts[i], pts[(i+1)%n]
		w := p0.Cross(p1)
		a2 += w
		cx += (p0.X + p1.X) * w
		cy += (p0.Y + p1.Y) * w
	}
	if a2 > -geom.EpsNumeric && a2 < geom.EpsNumeric {
		return geom.Vec3{}, &InputError{Op: "centroid", Index: -1, Message: "polyline encloses no area"}
	}
	u, v := plane.Basis()
	return plane.Unproject(geom.Vec2{X: cx / (3 * a2), Y: cy / (3 * a2)}, u, v), nil
}
