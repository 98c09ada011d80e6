package tessellate

import (
	"context"

	"github.com/camber3d/camber/pkg/geom"
	"github.com/camber3d/camber/pkg/nurbs"
	"github.com/camber3d/camber/pkg/store"
)

// meshBuilder accumulates triangles into the flat-array mesh layout,
// deduplicating nothing: quadtree leaves own their corners.
type meshBuilder struct {
	mesh store.Mesh
}

func newMeshBuilder(id store.ID) *meshBuilder {
	return &meshBuilder{mesh: store.Mesh{Source: id}}
}

// vertex appends a vertex with its normal and UV, returning its index.
func (b *meshBuilder) vertex(p geom.Vec3, n geom.Vec3, u, v float64) uint32 {
	idx := uint32(b.mesh.VertexCount())
	b.mesh.Positions = append(b.mesh.Positions, float32(p.X), float32(p.Y), float32(p.Z))
	b.mesh.Normals = append(b.mesh.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	b.mesh.UVs = append(b.mesh.UVs, float32(u), float32(v))
	return idx
}

// triangle appends one triangle tagged with its originating face.
func (b *meshBuilder) triangle(i, j, k uint32, face int32) {
	b.mesh.Indices = append(b.mesh.Indices, i, j, k)
	b.mesh.FaceOrigins = append(b.mesh.FaceOrigins, face)
}

// patch is one quadtree cell in parameter space.
type patch struct {
	u0, v0, u1, v1 float64
	depth          int
}

// TessellateSurface subdivides the surface on a parametric quadtree. A cell
// is accepted when the true surface point at the cell midpoint deviates from
// the bilinear interpolation of its corners by no more than the tolerance;
// otherwise it splits into four children. Accepted cells emit a four-triangle
// fan around the midpoint sample. The cancellation checkpoint runs once per
// subdivision level.
func TessellateSurface(ctx context.Context, id store.ID, s store.Surface, opts Options) (store.Mesh, error) {
	b := newMeshBuilder(id)
	if err := tessellateSurfaceInto(ctx, b, s, opts, 0); err != nil {
		return store.Mesh{}, err
	}
	return b.mesh, nil
}

// tessellateSurfaceInto emits the surface's triangles into an existing
// builder, tagging them with the given face origin (used by B-Rep faces).
func tessellateSurfaceInto(ctx context.Context, b *meshBuilder, s store.Surface, opts Options, face int32) error {
	tol := opts.tolerance()
	maxDepth := opts.maxDepth()

	u0, u1 := s.DomainU()
	v0, v1 := s.DomainV()

	queue := []patch{{u0, v0, u1, v1, 0}}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		var next []patch
		for _, p := range queue {
			um := (p.u0 + p.u1) / 2
			vm := (p.v0 + p.v1) / 2

			c00 := nurbs.EvalSurface(s, p.u0, p.v0)
			c10 := nurbs.EvalSurface(s, p.u1, p.v0)
			c01 := nurbs.EvalSurface(s, p.u0, p.v1)
			c11 := nurbs.EvalSurface(s, p.u1, p.v1)
			cm := nurbs.EvalSurface(s, um, vm)

			// Bilinear estimate of the midpoint from the corners.
			est := c00.Position.Add(c10.Position).Add(c01.Position).Add(c11.Position).Scale(0.25)
			if p.depth < maxDepth && cm.Position.Distance(est) > tol {
				next = append(next,
					patch{p.u0, p.v0, um, vm, p.depth + 1},
					patch{um, p.v0, p.u1, vm, p.depth + 1},
					patch{p.u0, vm, um, p.v1, p.depth + 1},
					patch{um, vm, p.u1, p.v1, p.depth + 1},
				)
				continue
			}

			// Accepted leaf: fan around the midpoint sample so the interior
			// deviation the test measured is actually interpolated.
			i00 := b.vertex(c00.Position, c00.Normal(), p.u0, p.v0)
			i10 := b.vertex(c10.Position, c10.Normal(), p.u1, p.v0)
			i11 := b.vertex(c11.Position, c11.Normal(), p.u1, p.v1)
			i01 := b.vertex(c01.Position, c01.Normal(), p.u0, p.v1)
			im := b.vertex(cm.Position, cm.Normal(), um, vm)
			b.triangle(i00, i10, im, face)
			b.triangle(i10, i11, im, face)
			b.triangle(i11, i01, im, face)
			b.triangle(i01, i00, im, face)
		}
		queue = next
	}
	return nil
}

// MaxSurfaceDeviation measures the maximum distance from a sample grid of
// true surface points to the tessellated triangle set. Brute force; test and
// diagnostics use only.
func MaxSurfaceDeviation(s store.Surface, m store.Mesh, grid int) float64 {
	u0, u1 := s.DomainU()
	v0, v1 := s.DomainV()
	maxDev := 0.0
	for i := 0; i <= grid; i++ {
		for j := 0; j <= grid; j++ {
			u := u0 + (u1-u0)*float64(i)/float64(grid)
			v := v0 + (v1-v0)*float64(j)/float64(grid)
			p := nurbs.SurfacePointAt(s, u, v)
			best := -1.0
			for t := 0; t < m.TriangleCount(); t++ {
				a, bb, c := m.Triangle(t)
				d := distancePointTriangle(p, a, bb, c)
				if best < 0 || d < best {
					best = d
				}
			}
			if best > maxDev {
				maxDev = best
			}
		}
	}
	return maxDev
}

// distancePointTriangle returns the distance from p to triangle (a,b,c),
// via edge/vertex clamping when the projection falls outside.
func distancePointTriangle(p, a, b, c geom.Vec3) float64 {
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Length() < geom.EpsNumeric {
		// Degenerate triangle: nearest point on its edges.
		q1, _ := geom.ClosestPointOnSegment(p, a, b)
		q2, _ := geom.ClosestPointOnSegment(p, b, c)
		d1, d2 := q1.Distance(p), q2.Distance(p)
		if d1 < d2 {
			return d1
		}
		return d2
	}
	nn := n.Normalize()
	proj := p.Sub(nn.Scale(p.Sub(a).Dot(nn)))

	// Inside test via same-side barycentric signs.
	if sameSide(proj, a, b, c) && sameSide(proj, b, c, a) && sameSide(proj, c, a, b) {
		return proj.Distance(p)
	}
	best := -1.0
	for _, seg := range [][2]geom.Vec3{{a, b}, {b, c}, {c, a}} {
		q, _ := geom.ClosestPointOnSegment(p, seg[0], seg[1])
		if d := q.Distance(p); best < 0 || d < best {
			best = d
		}
	}
	return best
}

func sameSide(p, a, b, c geom.Vec3) bool {
	ab := b.Sub(a)
	return ab.Cross(p.Sub(a)).Dot(ab.Cross(c.Sub(a))) >= -geom.EpsNumeric
}
