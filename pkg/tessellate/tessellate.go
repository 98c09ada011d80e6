// Package tessellate converts continuous geometry records into discrete
// approximations under a caller-supplied screen-space error budget. Curves
// are sampled adaptively from their curvature; surfaces are subdivided on a
// parametric quadtree until a midpoint deviation test passes. Results are
// cached per (record, version, zoom bucket) so a static scene never
// retessellates frame to frame. The tessellator is read-only and never
// mutates the store.
package tessellate

import (
	"context"
	"fmt"
	"math"

	"github.com/camber3d/camber/pkg/geom"
	"github.com/camber3d/camber/pkg/nurbs"
	"github.com/camber3d/camber/pkg/store"
)

// Options controls tessellation density.
type Options struct {
	// Tolerance is the maximum allowed deviation between the true geometry
	// and its discrete approximation, in world units. Callers derive it from
	// a pixel budget and the current viewport scale.
	Tolerance float64

	// MaxDepth bounds recursive subdivision. Zero means DefaultMaxDepth.
	MaxDepth int
}

// DefaultMaxDepth bounds adaptive recursion; 2^10 segments per span is past
// any on-screen density a pixel budget can ask for.
const DefaultMaxDepth = 10

func (o Options) maxDepth() int {
	if o.MaxDepth > 0 {
		return o.MaxDepth
	}
	return DefaultMaxDepth
}

func (o Options) tolerance() float64 {
	if o.Tolerance > 0 {
		return o.Tolerance
	}
	return geom.EpsDistance
}

// Tessellate dispatches on the record variant and produces a discrete
// approximation: curves and polylines yield a line-strip mesh (positions,
// no indices), surfaces, extrusions, B-Reps, and meshes yield triangles.
// Records that reference other records resolve them through the snapshot.
func Tessellate(ctx context.Context, snap store.Snapshot, id store.ID, rec store.Record, opts Options) (store.Mesh, error) {
	switch r := rec.(type) {
	case store.Vertex:
		m := store.Mesh{Source: id, Positions: []float32{float32(r.Position.X), float32(r.Position.Y), float32(r.Position.Z)}}
		return m, nil
	case store.Polyline:
		return polylineMesh(id, r), nil
	case store.Curve:
		pts, err := TessellateCurve(ctx, r, opts)
		if err != nil {
			return store.Mesh{}, err
		}
		return stripMesh(id, pts), nil
	case store.Surface:
		return TessellateSurface(ctx, id, r, opts)
	case store.Extrusion:
		return TessellateExtrusion(ctx, snap, id, r, opts)
	case store.BRep:
		return TessellateBRep(ctx, snap, id, r, opts)
	case store.Mesh:
		// Already discrete.
		return r, nil
	case store.VoxelGrid:
		return store.Mesh{}, fmt.Errorf("tessellate: voxel grids are rendered directly, not tessellated")
	default:
		return store.Mesh{}, fmt.Errorf("tessellate: unknown record type %T", rec)
	}
}

// stripMesh packs a point sequence into a line-strip mesh.
func stripMesh(id store.ID, pts []geom.Vec3) store.Mesh {
	m := store.Mesh{Source: id, Positions: make([]float32, 0, len(pts)*3)}
	for _, p := range pts {
		m.Positions = append(m.Positions, float32(p.X), float32(p.Y), float32(p.Z))
	}
	return m
}

func polylineMesh(id store.ID, p store.Polyline) store.Mesh {
	pts := p.Points
	if p.Closed && len(pts) > 0 {
		pts = append(append([]geom.Vec3(nil), pts...), pts[0])
	}
	return stripMesh(id, pts)
}

// ---------------------------------------------------------------------------
// Curves
// ---------------------------------------------------------------------------

// TessellateCurve adaptively samples a curve. Each parameter interval is
// bisected while the curve midpoint deviates from the chord midpoint by more
// than the tolerance, so high-curvature regions densify and near-linear
// regions stay coarse. The cancellation checkpoint runs once per knot span.
func TessellateCurve(ctx context.Context, c store.Curve, opts Options) ([]geom.Vec3, error) {
	lo, hi := c.Domain()
	tol := opts.tolerance()
	depth := opts.maxDepth()

	// Seed at distinct knot values so every span boundary is sampled;
	// adaptive refinement then works span by span.
	seeds := distinctKnots(c.Knots, lo, hi)

	pts := []geom.Vec3{nurbs.CurvePointAt(c, lo)}
	for i := 0; i+1 < len(seeds); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := refineCurveSpan(c, seeds[i], seeds[i+1], tol, depth, &pts); err != nil {
			return nil, err
		}
	}
	return pts, nil
}

// refineCurveSpan appends samples over (a, b], bisecting while the midpoint
// deviation exceeds tol.
func refineCurveSpan(c store.Curve, a, b, tol float64, depth int, pts *[]geom.Vec3) error {
	mid := (a + b) / 2
	pa := (*pts)[len(*pts)-1]
	pb := nurbs.CurvePointAt(c, b)
	pm := nurbs.CurvePointAt(c, mid)

	dev := pm.Distance(pa.Lerp(pb, 0.5))
	if depth > 0 && dev > tol {
		if err := refineCurveSpan(c, a, mid, tol, depth-1, pts); err != nil {
			return err
		}
		return refineCurveSpan(c, mid, b, tol, depth-1, pts)
	}
	*pts = append(*pts, pb)
	return nil
}

// distinctKnots returns the distinct knot values inside [lo, hi], inclusive.
func distinctKnots(knots []float64, lo, hi float64) []float64 {
	out := []float64{lo}
	for _, k := range knots {
		if k <= lo+geom.EpsNumeric || k >= hi-geom.EpsNumeric {
			continue
		}
		if k > out[len(out)-1]+geom.EpsNumeric {
			out = append(out, k)
		}
	}
	return append(out, hi)
}

// CurvatureAt estimates local curvature from the second derivative; the
// adaptive sampler's deviation test is equivalent in effect but this is the
// quantity selection and analysis code ask for.
func CurvatureAt(c store.Curve, u float64) float64 {
	p := nurbs.EvalCurve(c, u)
	speed := p.D1.Length()
	if speed < geom.EpsNumeric {
		return 0
	}
	return p.D1.Cross(p.D2).Length() / (speed * speed * speed)
}

// MaxCurveDeviation measures the maximum distance from densely sampled true
// curve points to the tessellated line strip. Used to verify the error
// budget empirically.
func MaxCurveDeviation(c store.Curve, strip []geom.Vec3, samples int) float64 {
	lo, hi := c.Domain()
	maxDev := 0.0
	for i := 0; i <= samples; i++ {
		u := lo + (hi-lo)*float64(i)/float64(samples)
		p := nurbs.CurvePointAt(c, u)
		best := math.Inf(1)
		for j := 0; j+1 < len(strip); j++ {
			q, _ := geom.ClosestPointOnSegment(p, strip[j], strip[j+1])
			if d := q.Distance(p); d < best {
				best = d
			}
		}
		if best > maxDev {
			maxDev = best
		}
	}
	return maxDev
}
