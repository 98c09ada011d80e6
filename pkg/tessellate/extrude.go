package tessellate

import (
	"context"
	"fmt"
	"math"

	"github.com/camber3d/camber/pkg/geom"
	"github.com/camber3d/camber/pkg/store"
)

// TessellateExtrusion sweeps the extrusion's profile along its path, lazily:
// the referenced curves are resolved through the snapshot at call time, so
// edits to them propagate without touching the extrusion record. Twist is
// distributed linearly along the path parameter; the profile scale
// interpolates from 1 at the start to EndScale at the end. The cancellation
// checkpoint runs once per sweep station.
func TessellateExtrusion(ctx context.Context, snap store.Snapshot, id store.ID, e store.Extrusion, opts Options) (store.Mesh, error) {
	profile, err := resolveStrip(ctx, snap, e.Profile, opts)
	if err != nil {
		return store.Mesh{}, fmt.Errorf("tessellate: extrusion %s profile: %w", id.Short(), err)
	}
	path, err := resolveStrip(ctx, snap, e.Path, opts)
	if err != nil {
		return store.Mesh{}, fmt.Errorf("tessellate: extrusion %s path: %w", id.Short(), err)
	}
	if len(profile) < 2 || len(path) < 2 {
		return store.Mesh{}, fmt.Errorf("tessellate: extrusion %s: degenerate profile or path", id.Short())
	}
	path = twistStations(path, profile, e.TwistDegrees, opts)

	endScale := e.EndScale
	if endScale == 0 {
		endScale = 1
	}

	// Sweep stations: one transformed profile copy per path sample.
	origin := path[0]
	t0 := tangentAt(path, 0)
	stations := make([][]geom.Vec3, len(path))
	for k := range path {
		if err := ctx.Err(); err != nil {
			return store.Mesh{}, err
		}
		t := float64(k) / float64(len(path)-1)
		frame := sweepFrame(t0, tangentAt(path, k), e.TwistDegrees*t*math.Pi/180)
		scale := 1 + (endScale-1)*t

		row := make([]geom.Vec3, len(profile))
		for i, p := range profile {
			local := p.Sub(origin).Scale(scale)
			row[i] = path[k].Add(frame.ApplyDir(local))
		}
		stations[k] = row
	}

	// Stitch consecutive stations into quads, two triangles each, with flat
	// per-quad normals and duplicated corners.
	b := newMeshBuilder(id)
	for k := 0; k+1 < len(stations); k++ {
		for i := 0; i+1 < len(profile); i++ {
			a := stations[k][i]
			bb := stations[k][i+1]
			c := stations[k+1][i+1]
			d := stations[k+1][i]
			n := bb.Sub(a).Cross(d.Sub(a)).Normalize()

			u0 := float64(i) / float64(len(profile)-1)
			u1 := float64(i+1) / float64(len(profile)-1)
			v0 := float64(k) / float64(len(path)-1)
			v1 := float64(k+1) / float64(len(path)-1)

			ia := b.vertex(a, n, u0, v0)
			ib := b.vertex(bb, n, u1, v0)
			ic := b.vertex(c, n, u1, v1)
			id2 := b.vertex(d, n, u0, v1)
			b.triangle(ia, ib, ic, 0)
			b.triangle(ia, ic, id2, 0)
		}
	}
	return b.mesh, nil
}

// resolveStrip tessellates a referenced curve or polyline into a point strip.
func resolveStrip(ctx context.Context, snap store.Snapshot, id store.ID, opts Options) ([]geom.Vec3, error) {
	rec, ok := snap.Get(id)
	if !ok {
		return nil, fmt.Errorf("referenced record %s is gone", id.Short())
	}
	switch r := rec.(type) {
	case store.Curve:
		return TessellateCurve(ctx, r, opts)
	case store.Polyline:
		pts := r.Points
		if r.Closed {
			pts = append(append([]geom.Vec3(nil), pts...), pts[0])
		}
		return pts, nil
	default:
		return nil, fmt.Errorf("record %s is a %s, want curve or polyline", id.Short(), rec.Kind())
	}
}

// twistStations subdivides the path strip so the per-station profile
// rotation keeps the rotated-chord deviation within tolerance. The path
// samples alone carry no hint of the twist: a straight path tessellates to
// its own vertices, so a twisted sweep must place its stations from the
// twist rate, not the path curvature.
func twistStations(path, profile []geom.Vec3, twistDegrees float64, opts Options) []geom.Vec3 {
	if twistDegrees == 0 {
		return path
	}
	radius := 0.0
	for _, p := range profile {
		if r := p.Sub(path[0]).Length(); r > radius {
			radius = r
		}
	}
	tol := opts.tolerance()
	if radius <= tol {
		return path
	}
	// A point at the profile radius rotated by the per-interval twist sags
	// from its chord by radius*(1-cos(step/2)).
	step := 2 * math.Acos(1-tol/radius)
	total := math.Abs(twistDegrees) * math.Pi / 180
	intervals := int(math.Ceil(total / step))
	if limit := 1 << opts.maxDepth(); intervals > limit {
		intervals = limit
	}
	have := len(path) - 1
	if intervals <= have {
		return path
	}
	per := (intervals + have - 1) / have
	out := make([]geom.Vec3, 0, have*per+1)
	for k := 0; k < have; k++ {
		a, b := path[k], path[k+1]
		for i := 0; i < per; i++ {
			out = append(out, a.Add(b.Sub(a).Scale(float64(i)/float64(per))))
		}
	}
	return append(out, path[have])
}

// tangentAt estimates the unit tangent of a point strip at index k by
// central differences, falling back to one-sided at the ends.
func tangentAt(strip []geom.Vec3, k int) geom.Vec3 {
	switch {
	case k == 0:
		return strip[1].Sub(strip[0]).Normalize()
	case k == len(strip)-1:
		return strip[k].Sub(strip[k-1]).Normalize()
	default:
		return strip[k+1].Sub(strip[k-1]).Normalize()
	}
}

// sweepFrame builds the rotation carrying the initial path tangent onto the
// current one, composed with the twist about the current tangent. Antiparallel
// tangents rotate about an arbitrary perpendicular axis.
func sweepFrame(t0, t geom.Vec3, twist float64) geom.Mat4 {
	align := geom.Identity()
	axis := t0.Cross(t)
	dot := t0.Dot(t)
	switch {
	case axis.Length() > geom.EpsAngular:
		align = geom.RotateAxis(axis, math.Atan2(axis.Length(), dot))
	case dot < 0:
		// Antiparallel: pick any axis perpendicular to t0.
		perp := t0.Cross(geom.Vec3{X: 1})
		if perp.Length() < geom.EpsAngular {
			perp = t0.Cross(geom.Vec3{Y: 1})
		}
		align = geom.RotateAxis(perp, math.Pi)
	}
	if twist != 0 {
		return geom.RotateAxis(t, twist).Mul(align)
	}
	return align
}
