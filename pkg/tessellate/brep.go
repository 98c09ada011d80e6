package tessellate

import (
	"context"
	"fmt"

	"github.com/camber3d/camber/pkg/geom"
	"github.com/camber3d/camber/pkg/store"
)

// TessellateBRep tessellates every face of a B-Rep into one mesh, tagging
// each triangle with the index of its originating face so selection can map
// hit triangles back to parametric faces. Faces referencing a surface record
// tessellate that surface adaptively; planar faces (no surface reference)
// fan-triangulate their outer loop.
func TessellateBRep(ctx context.Context, snap store.Snapshot, id store.ID, b store.BRep, opts Options) (store.Mesh, error) {
	mb := newMeshBuilder(id)
	for fi, face := range b.Faces {
		if err := ctx.Err(); err != nil {
			return store.Mesh{}, err
		}
		if !face.Surface.IsZero() {
			rec, ok := snap.Get(face.Surface)
			if !ok {
				return store.Mesh{}, fmt.Errorf("tessellate: brep %s face %d: surface %s is gone", id.Short(), fi, face.Surface.Short())
			}
			surf, ok := rec.(store.Surface)
			if !ok {
				return store.Mesh{}, fmt.Errorf("tessellate: brep %s face %d: record %s is a %s, want surface", id.Short(), fi, face.Surface.Short(), rec.Kind())
			}
			if err := tessellateSurfaceInto(ctx, mb, surf, opts, int32(fi)); err != nil {
				return store.Mesh{}, err
			}
			continue
		}
		pts, err := loopStrip(ctx, snap, b, face.Loops[0], opts)
		if err != nil {
			return store.Mesh{}, fmt.Errorf("tessellate: brep %s face %d: %w", id.Short(), fi, err)
		}
		if err := fanTriangulate(mb, pts, int32(fi)); err != nil {
			return store.Mesh{}, fmt.Errorf("tessellate: brep %s face %d: %w", id.Short(), fi, err)
		}
	}
	return mb.mesh, nil
}

// loopStrip resolves an oriented loop into a closed point sequence, running
// curved edges through curve tessellation so faces bounded by arcs (a
// cylinder cap) triangulate against the true rim, not a chord.
func loopStrip(ctx context.Context, snap store.Snapshot, b store.BRep, loop store.Loop, opts Options) ([]geom.Vec3, error) {
	var pts []geom.Vec3
	for _, er := range loop.Edges {
		e := b.Edges[er.Edge]
		if e.Curve.IsZero() {
			start := e.Start
			if er.Reversed {
				start = e.End
			}
			pts = append(pts, b.Vertices[start].Position)
			continue
		}
		rec, ok := snap.Get(e.Curve)
		if !ok {
			return nil, fmt.Errorf("edge %d: curve %s is gone", er.Edge, e.Curve.Short())
		}
		c, ok := rec.(store.Curve)
		if !ok {
			return nil, fmt.Errorf("edge %d: record %s is a %s, want curve", er.Edge, e.Curve.Short(), rec.Kind())
		}
		strip, err := TessellateCurve(ctx, c, opts)
		if err != nil {
			return nil, err
		}
		if er.Reversed {
			for i, j := 0, len(strip)-1; i < j; i, j = i+1, j-1 {
				strip[i], strip[j] = strip[j], strip[i]
			}
		}
		// The next edge starts where this one ends.
		pts = append(pts, strip[:len(strip)-1]...)
	}
	// A single closed edge repeats its seam point; drop the duplicate.
	for len(pts) > 1 && pts[0].Eq(pts[len(pts)-1]) {
		pts = pts[:len(pts)-1]
	}
	return pts, nil
}

// fanTriangulate emits a planar face's resolved outer loop as a triangle
// fan. The loop's winding supplies the face normal, so a consistently wound
// B-Rep tessellates with outward normals.
func fanTriangulate(mb *meshBuilder, pts []geom.Vec3, fi int32) error {
	if len(pts) < 3 {
		return fmt.Errorf("outer loop has %d vertices, need at least 3", len(pts))
	}
	normal := PolygonNormal(pts)
	if normal.IsZero() {
		return fmt.Errorf("outer loop is degenerate (zero-area polygon)")
	}
	idx := make([]uint32, len(pts))
	for i, p := range pts {
		idx[i] = mb.vertex(p, normal, 0, 0)
	}
	for i := 1; i+1 < len(pts); i++ {
		mb.triangle(idx[0], idx[i], idx[i+1], fi)
	}
	return nil
}

// PolygonNormal returns the area-weighted (Newell) normal of a polygon,
// normalized; the zero vector for degenerate polygons.
func PolygonNormal(pts []geom.Vec3) geom.Vec3 {
	var n geom.Vec3
	for i := range pts {
		a := pts[i]
		b := pts[(i+1)%len(pts)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n.Normalize()
}
