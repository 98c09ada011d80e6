// Package boolean provides the epsilon-aware planar operations: polyline
// offsetting with configurable corner joints, and 2D boolean set operations
// on coplanar closed polylines. Every tolerance comparison goes through the
// named epsilon classes in pkg/geom.
package boolean

import (
	"fmt"
	"math"

	"github.com/camber3d/camber/pkg/geom"
	"github.com/camber3d/camber/pkg/store"
)

// JointStyle selects how offset corners are resolved where adjacent offset
// segments diverge.
type JointStyle int

const (
	JointMiter JointStyle = iota // sharp corner, capped by MiterLimit
	JointBevel                   // straight chamfer
	JointRound                   // circular arc
)

func (s JointStyle) String() string {
	switch s {
	case JointMiter:
		return "miter"
	case JointBevel:
		return "bevel"
	case JointRound:
		return "round"
	default:
		return "unknown"
	}
}

// OffsetOptions configures OffsetPolyline.
type OffsetOptions struct {
	// Distance moves each segment along its left normal (relative to the
	// direction of travel): positive is inward for counterclockwise closed
	// polylines.
	Distance float64

	// Style resolves diverging corners. Corners converging toward the
	// offset side always intersect naturally regardless of style.
	Style JointStyle

	// MiterLimit caps the miter-point distance as a multiple of Distance;
	// corners sharper than the limit fall back to bevel (or round when
	// Style is round). Zero means DefaultMiterLimit.
	MiterLimit float64

	// RoundStep is the maximum angular step of round joints, radians.
	// Zero means DefaultRoundStep.
	RoundStep float64

	// AngularThresholdDeg is the corner turn angle, in degrees, below which
	// adjacent segments are treated as a straight continuation and get no
	// joint. Zero means the geometric angular epsilon.
	AngularThresholdDeg float64
}

// DefaultMiterLimit matches the common stroke convention.
const DefaultMiterLimit = 4.0

// DefaultRoundStep subdivides round joints every 22.5 degrees.
const DefaultRoundStep = math.Pi / 8

func (o OffsetOptions) miterLimit() float64 {
	if o.MiterLimit > 0 {
		return o.MiterLimit
	}
	return DefaultMiterLimit
}

func (o OffsetOptions) roundStep() float64 {
	if o.RoundStep > 0 {
		return o.RoundStep
	}
	return DefaultRoundStep
}

func (o OffsetOptions) straightThreshold() float64 {
	if o.AngularThresholdDeg > 0 {
		return o.AngularThresholdDeg * math.Pi / 180
	}
	return geom.EpsAngular
}

// InputError reports invalid input to a planar operation, carrying the
// offending vertex index when one exists.
type InputError struct {
	Op      string
	Index   int // offending vertex index, -1 when not applicable
	Message string
}

func (e *InputError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("boolean: %s: vertex %d: %s", e.Op, e.Index, e.Message)
	}
	return fmt.Sprintf("boolean: %s: %s", e.Op, e.Message)
}

// OffsetPolyline offsets a planar polyline by the configured distance,
// resolving corner joints per the options. Non-planar input is a validation
// error, never a silent approximation.
func OffsetPolyline(p store.Polyline, opts OffsetOptions) (store.Polyline, error) {
	plane, poly2, err := projectPlanar("offset", p.Points)
	if err != nil {
		return store.Polyline{}, err
	}
	if math.Abs(opts.Distance) < geom.EpsNumeric {
		return p, nil
	}

	out2 := offset2D(poly2, p.Closed, opts)
	if len(out2) < 2 {
		return store.Polyline{}, &InputError{Op: "offset", Index: -1, Message: "offset collapsed the polyline"}
	}

	u, v := plane.Basis()
	out := store.Polyline{Meta: p.Meta, Closed: p.Closed, Points: make([]geom.Vec3, len(out2))}
	for i, q := range out2 {
		out.Points[i] = plane.Unproject(q, u, v)
	}
	return out, nil
}

// projectPlanar fits a plane through the points and projects them into its
// 2D basis, rejecting non-planar input with the offending vertex index.
func projectPlanar(op string, pts []geom.Vec3) (geom.Plane, []geom.Vec2, error) {
	plane, ok := geom.PlaneFromPoints(pts)
	if !ok {
		return geom.Plane{}, nil, &InputError{Op: op, Index: -1, Message: "points are collinear, no offset plane exists"}
	}
	if idx, ok := plane.ContainsAll(pts); !ok {
		return geom.Plane{}, nil, &InputError{Op: op, Index: idx, Message: "point is off the polyline plane; planar input required"}
	}
	u, v := plane.Basis()
	out := make([]geom.Vec2, len(pts))
	for i, p := range pts {
		out[i] = plane.Project(p, u, v)
	}
	return plane, out, nil
}

// segment is one offset segment with its direction.
type segment struct {
	a, b, dir geom.Vec2
}

// offset2D offsets the 2D polyline and resolves its joints.
func offset2D(pts []geom.Vec2, closed bool, opts OffsetOptions) []geom.Vec2 {
	d := opts.Distance

	// Offset every segment along its left normal.
	n := len(pts)
	segCount := n - 1
	if closed {
		segCount = n
	}
	segs := make([]segment, 0, segCount)
	for i := 0; i < segCount; i++ {
		a, b := pts[i], pts[(i+1)%n]
		dir := b.Sub(a).Normalize()
		if dir == (geom.Vec2{}) {
			continue // zero-length segment contributes nothing
		}
		off := dir.Perp().Scale(d)
		segs = append(segs, segment{a: a.Add(off), b: b.Add(off), dir: dir})
	}
	if len(segs) == 0 {
		return nil
	}

	var out []geom.Vec2
	if !closed {
		out = append(out, segs[0].a)
	}
	// Resolve the joint after each segment.
	jointCount := len(segs) - 1
	if closed {
		jointCount = len(segs)
	}
	for j := 0; j < jointCount; j++ {
		s0 := segs[j]
		s1 := segs[(j+1)%len(segs)]
		out = append(out, resolveJoint(s0, s1, pts[(j+1)%n], opts)...)
	}
	if !closed {
		out = append(out, segs[len(segs)-1].b)
	}
	return dedupe(out)
}

// resolveJoint produces the corner points between two adjacent offset
// segments meeting at the original corner point.
func resolveJoint(s0, s1 segment, corner geom.Vec2, opts OffsetOptions) []geom.Vec2 {
	cross := s0.dir.Cross(s1.dir)
	dot := s0.dir.Dot(s1.dir)

	// Turns below the angular threshold continue straight: one shared point.
	if math.Atan2(math.Abs(cross), dot) < opts.straightThreshold() {
		return []geom.Vec2{s0.b}
	}

	m, parallel := lineIntersect(s0.a, s0.dir, s1.a, s1.dir)
	if parallel {
		return []geom.Vec2{s0.b, s1.a}
	}

	// Corner turning toward the offset side: the offset segments converge
	// and the intersection is the natural corner for every style.
	if cross*opts.Distance > 0 {
		return []geom.Vec2{m}
	}

	// Diverging corner: joint per style.
	switch opts.Style {
	case JointMiter:
		if m.Distance(corner) <= opts.miterLimit()*math.Abs(opts.Distance) {
			return []geom.Vec2{m}
		}
		return []geom.Vec2{s0.b, s1.a} // over the limit: bevel fallback
	case JointRound:
		return roundJoint(corner, s0.b, s1.a, opts)
	default:
		return []geom.Vec2{s0.b, s1.a}
	}
}

// roundJoint emits arc points around the corner from the end of the first
// offset segment to the start of the second.
func roundJoint(center, from, to geom.Vec2, opts OffsetOptions) []geom.Vec2 {
	r := from.Sub(center).Length()
	a0 := math.Atan2(from.Y-center.Y, from.X-center.X)
	a1 := math.Atan2(to.Y-center.Y, to.X-center.X)
	sweep := a1 - a0
	// Take the short way around; the joint never spans more than pi.
	for sweep > math.Pi {
		sweep -= 2 * math.Pi
	}
	for sweep < -math.Pi {
		sweep += 2 * math.Pi
	}
	steps := int(math.Ceil(math.Abs(sweep) / opts.roundStep()))
	if steps < 1 {
		steps = 1
	}
	out := make([]geom.Vec2, 0, steps+1)
	for i := 0; i <= steps; i++ {
		a := a0 + sweep*float64(i)/float64(steps)
		out = append(out, geom.Vec2{X: center.X + r*math.Cos(a), Y: center.Y + r*math.Sin(a)})
	}
	return out
}

// lineIntersect intersects two infinite lines given in point+direction form.
func lineIntersect(p0, v0, p1, v1 geom.Vec2) (geom.Vec2, bool) {
	denom := v0.Cross(v1)
	if math.Abs(denom) < geom.EpsAngular {
		return geom.Vec2{}, true
	}
	t := p1.Sub(p0).Cross(v1) / denom
	return p0.Add(v0.Scale(t)), false
}

// dedupe removes consecutive points closer than the user-facing distance
// epsilon, including the closing wrap.
func dedupe(pts []geom.Vec2) []geom.Vec2 {
	if len(pts) == 0 {
		return pts
	}
	out := pts[:1]
	for _, p := range pts[1:] {
		if p.Distance(out[len(out)-1]) > geom.EpsDistance {
			out = append(out, p)
		}
	}
	if len(out) > 1 && out[0].Distance(out[len(out)-1]) <= geom.EpsDistance {
		out = out[:len(out)-1]
	}
	return out
}
