// Package hittest implements ray-based picking over store records: whole
// objects or vertex/edge/face components, with a pixel tolerance projected
// into world units at the hit depth so selection difficulty does not change
// with zoom.
package hittest

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/camber3d/camber/pkg/geom"
	"github.com/camber3d/camber/pkg/nurbs"
	"github.com/camber3d/camber/pkg/store"
	"github.com/camber3d/camber/pkg/tessellate"
)

// Mode selects the picking granularity.
type Mode int

const (
	ModeObject Mode = iota
	ModeVertex
	ModeEdge
	ModeFace
)

func (m Mode) String() string {
	switch m {
	case ModeObject:
		return "object"
	case ModeVertex:
		return "vertex"
	case ModeEdge:
		return "edge"
	case ModeFace:
		return "face"
	default:
		return "unknown"
	}
}

// Component identifies the picked sub-element of a record. Index is the
// vertex index, the polyline/B-Rep edge index, or the parametric face index
// a hit triangle originated from; -1 for whole-object hits.
type Component struct {
	Mode  Mode
	Index int
}

// Hit is one ray intersection. Distance is the ray parameter at the hit, in
// world units since ray directions are normalized.
type Hit struct {
	ID        store.ID
	Point     geom.Vec3
	Distance  float64
	Component Component
}

// WorldTolerance converts a pixel tolerance into world units at the given
// depth along the ray. The caller derives pixelTol from its projection
// (pixel radius scaled by the view frustum); scaling by depth is what makes
// selection zoom-invariant.
func WorldTolerance(pixelTol, depth float64) float64 {
	if depth < geom.EpsDistance {
		depth = geom.EpsDistance
	}
	return pixelTol * depth
}

// Engine answers hit-test queries against one store snapshot. Records are
// indexed in an R-tree by bounding box for the broad phase; extrusions and
// B-Reps are tessellated once and the meshes memoized for the narrow phase.
//
// The engine follows the kernel's single-caller contract: it is not safe for
// concurrent use because the pick stack mutates between calls.
type Engine struct {
	snap   store.Snapshot
	opts   tessellate.Options
	tree   *rtreego.Rtree
	scene  geom.Box
	meshes map[store.ID]store.Mesh
	stack  pickStack
}

// treeItem is the R-tree leaf payload.
type treeItem struct {
	id   store.ID
	rect rtreego.Rect
}

func (t *treeItem) Bounds() rtreego.Rect { return t.rect }

// New indexes the snapshot. Curved records are tessellated with opts for the
// narrow phase, so callers pass their display budget rather than letting the
// picker refine far past anything a pointer can distinguish. Records whose
// geometry cannot be resolved (for example an extrusion with a dangling
// profile) are left out of the index rather than failing the build; they are
// simply not pickable.
func New(ctx context.Context, snap store.Snapshot, opts tessellate.Options) (*Engine, error) {
	e := &Engine{
		snap:   snap,
		opts:   opts,
		tree:   rtreego.NewTree(3, 4, 8),
		scene:  geom.EmptyBox(),
		meshes: make(map[store.ID]store.Mesh),
	}
	var err error
	snap.Each(func(id store.ID, entry store.Entry) {
		if err != nil {
			return
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
			return
		}
		box, ok := e.recordBounds(ctx, id, entry.Record)
		if !ok {
			return
		}
		rect, rerr := boxRect(box)
		if rerr != nil {
			return
		}
		e.tree.Insert(&treeItem{id: id, rect: rect})
		e.scene = e.scene.Union(box)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// recordBounds computes the broad-phase box of a record, tessellating the
// kinds that have no closed-form bound.
func (e *Engine) recordBounds(ctx context.Context, id store.ID, rec store.Record) (geom.Box, bool) {
	switch r := rec.(type) {
	case store.Vertex:
		return geom.Box{Min: r.Position, Max: r.Position}, true
	case store.Polyline:
		return geom.BoxOf(r.Points), len(r.Points) > 0
	case store.Curve:
		return nurbs.CurveBounds(r), true
	case store.Surface:
		return nurbs.SurfaceBounds(r), true
	case store.VoxelGrid:
		return r.Bounds, true
	default:
		m, err := e.meshFor(ctx, id)
		if err != nil || m.IsEmpty() {
			return geom.Box{}, false
		}
		return m.Bounds(), true
	}
}

// meshFor resolves and memoizes the narrow-phase mesh of a record.
func (e *Engine) meshFor(ctx context.Context, id store.ID) (store.Mesh, error) {
	if m, ok := e.meshes[id]; ok {
		return m, nil
	}
	rec, ok := e.snap.Get(id)
	if !ok {
		return store.Mesh{}, &tessellate.MissingRecordError{ID: id}
	}
	m, err := tessellate.Tessellate(ctx, e.snap, id, rec, e.opts)
	if err != nil {
		return store.Mesh{}, err
	}
	e.meshes[id] = m
	return m, nil
}

// Intersect returns every intersection of the ray with indexed records at
// the requested granularity, sorted nearest first.
func (e *Engine) Intersect(ctx context.Context, ray geom.Ray, pixelTol float64, mode Mode) ([]Hit, error) {
	candidates := e.broadPhase(ray, pixelTol)
	if len(candidates) == 0 {
		return nil, nil
	}

	var hits []Hit
	for _, id := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, ok := e.snap.Get(id)
		if !ok {
			continue
		}
		h, err := e.narrowPhase(ctx, ray, pixelTol, mode, id, rec)
		if err != nil {
			return nil, fmt.Errorf("hittest: record %s: %w", id.Short(), err)
		}
		hits = append(hits, h...)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		if hits[i].ID != hits[j].ID {
			return hits[i].ID < hits[j].ID
		}
		return hits[i].Component.Index < hits[j].Component.Index
	})
	return hits, nil
}

// broadPhase clips the ray against the scene and queries the R-tree with
// the resulting segment box, inflated by the worst-case world tolerance.
func (e *Engine) broadPhase(ray geom.Ray, pixelTol float64) []store.ID {
	if e.scene.IsEmpty() {
		return nil
	}
	// The worst-case world tolerance is reached at the farthest point of
	// the scene; expand the scene by it so grazing rays within tolerance
	// still enter the broad phase.
	margin := WorldTolerance(pixelTol, farthestCornerDistance(e.scene, ray.Origin)) + geom.EpsDistance
	probe := e.scene.Expand(margin)
	tMin, tMax, ok := ray.IntersectBox(probe)
	if !ok {
		return nil
	}
	if tMin < 0 {
		tMin = 0
	}
	seg := geom.EmptyBox().Extend(ray.At(tMin)).Extend(ray.At(tMax))
	seg = seg.Expand(margin)

	rect, err := boxRect(seg)
	if err != nil {
		return nil
	}
	found := e.tree.SearchIntersect(rect)
	ids := make([]store.ID, 0, len(found))
	for _, s := range found {
		ids = append(ids, s.(*treeItem).id)
	}
	return ids
}

func (e *Engine) narrowPhase(ctx context.Context, ray geom.Ray, pixelTol float64, mode Mode, id store.ID, rec store.Record) ([]Hit, error) {
	switch mode {
	case ModeVertex:
		return vertexHits(ray, pixelTol, id, rec), nil
	case ModeEdge:
		return e.edgeHits(ctx, ray, pixelTol, id, rec)
	case ModeFace:
		return e.faceHits(ctx, ray, pixelTol, id, rec, true)
	default:
		return e.objectHits(ctx, ray, pixelTol, id, rec)
	}
}

// --- Object mode ---

func (e *Engine) objectHits(ctx context.Context, ray geom.Ray, pixelTol float64, id store.ID, rec store.Record) ([]Hit, error) {
	obj := Component{Mode: ModeObject, Index: -1}
	switch r := rec.(type) {
	case store.Vertex:
		dist, t := geom.DistanceRayToPoint(ray, r.Position)
		if dist <= WorldTolerance(pixelTol, t) {
			return []Hit{{ID: id, Point: r.Position, Distance: t, Component: obj}}, nil
		}
		return nil, nil
	case store.Polyline:
		if h, ok := nearestEdgeHit(ray, pixelTol, id, stripPoints(r)); ok {
			h.Component = obj
			return []Hit{h}, nil
		}
		return nil, nil
	case store.Curve:
		strip, err := tessellate.TessellateCurve(ctx, r, e.opts)
		if err != nil {
			return nil, err
		}
		if h, ok := nearestEdgeHit(ray, pixelTol, id, strip); ok {
			h.Component = obj
			return []Hit{h}, nil
		}
		return nil, nil
	case store.VoxelGrid:
		if t, _, ok := ray.IntersectBox(r.Bounds); ok {
			if t < 0 {
				t = 0
			}
			return []Hit{{ID: id, Point: ray.At(t), Distance: t, Component: obj}}, nil
		}
		return nil, nil
	default:
		hits, err := e.faceHits(ctx, ray, pixelTol, id, rec, false)
		if err != nil || len(hits) == 0 {
			return nil, err
		}
		// Nearest triangle only: one hit per object.
		best := hits[0]
		for _, h := range hits[1:] {
			if h.Distance < best.Distance {
				best = h
			}
		}
		best.Component = obj
		return []Hit{best}, nil
	}
}

// --- Vertex mode ---

// vertexHits accepts the nearest candidate vertex of the record within the
// depth-scaled tolerance.
func vertexHits(ray geom.Ray, pixelTol float64, id store.ID, rec store.Record) []Hit {
	var best *Hit
	consider := func(idx int, p geom.Vec3) {
		dist, t := geom.DistanceRayToPoint(ray, p)
		if dist > WorldTolerance(pixelTol, t) {
			return
		}
		if best == nil || t < best.Distance {
			best = &Hit{ID: id, Point: p, Distance: t, Component: Component{Mode: ModeVertex, Index: idx}}
		}
	}
	switch r := rec.(type) {
	case store.Vertex:
		consider(0, r.Position)
	case store.Polyline:
		for i, p := range r.Points {
			consider(i, p)
		}
	case store.BRep:
		for i, v := range r.Vertices {
			consider(i, v.Position)
		}
	}
	if best == nil {
		return nil
	}
	return []Hit{*best}
}

// --- Edge mode ---

// edgeHits tests the record's indexed edges: a polyline's implicit segment
// indexing, or a B-Rep's topological edges resolved through their curves.
func (e *Engine) edgeHits(ctx context.Context, ray geom.Ray, pixelTol float64, id store.ID, rec store.Record) ([]Hit, error) {
	switch r := rec.(type) {
	case store.Polyline:
		var best *Hit
		for i := 0; i < r.EdgeCount(); i++ {
			a, b := r.Edge(i)
			gap, t, p := raySegmentApproach(ray, a, b)
			if gap > WorldTolerance(pixelTol, t) {
				continue
			}
			if best == nil || t < best.Distance {
				best = &Hit{ID: id, Point: p, Distance: t, Component: Component{Mode: ModeEdge, Index: i}}
			}
		}
		if best == nil {
			return nil, nil
		}
		return []Hit{*best}, nil
	case store.BRep:
		var best *Hit
		for i, edge := range r.Edges {
			strip, err := e.brepEdgeStrip(ctx, r, edge)
			if err != nil {
				return nil, err
			}
			for k := 0; k+1 < len(strip); k++ {
				gap, t, p := raySegmentApproach(ray, strip[k], strip[k+1])
				if gap > WorldTolerance(pixelTol, t) {
					continue
				}
				if best == nil || t < best.Distance {
					best = &Hit{ID: id, Point: p, Distance: t, Component: Component{Mode: ModeEdge, Index: i}}
				}
			}
		}
		if best == nil {
			return nil, nil
		}
		return []Hit{*best}, nil
	default:
		return nil, nil
	}
}

// brepEdgeStrip resolves one topological edge to a polyline: the tessellated
// curve when the edge references one, the straight vertex span otherwise.
func (e *Engine) brepEdgeStrip(ctx context.Context, b store.BRep, edge store.TopoEdge) ([]geom.Vec3, error) {
	if !edge.Curve.IsZero() {
		rec, ok := e.snap.Get(edge.Curve)
		if ok {
			if c, isCurve := rec.(store.Curve); isCurve {
				return tessellate.TessellateCurve(ctx, c, e.opts)
			}
		}
	}
	return []geom.Vec3{b.Vertices[edge.Start].Position, b.Vertices[edge.End].Position}, nil
}

// --- Face mode ---

// faceHits intersects the record's tessellated mesh and keeps the nearest
// hit per originating parametric face (perFace) or every triangle hit.
func (e *Engine) faceHits(ctx context.Context, ray geom.Ray, pixelTol float64, id store.ID, rec store.Record, perFace bool) ([]Hit, error) {
	switch rec.(type) {
	case store.Surface, store.Extrusion, store.BRep, store.Mesh:
	default:
		return nil, nil
	}
	m, err := e.meshFor(ctx, id)
	if err != nil {
		return nil, err
	}
	byFace := make(map[int32]Hit)
	var all []Hit
	for tri := 0; tri < m.TriangleCount(); tri++ {
		a, b, c := m.Triangle(tri)
		t, _, _, ok := ray.IntersectTriangle(a, b, c)
		if !ok {
			continue
		}
		face := int32(0)
		if tri < len(m.FaceOrigins) {
			face = m.FaceOrigins[tri]
		}
		h := Hit{ID: id, Point: ray.At(t), Distance: t, Component: Component{Mode: ModeFace, Index: int(face)}}
		if !perFace {
			all = append(all, h)
			continue
		}
		if prev, seen := byFace[face]; !seen || t < prev.Distance {
			byFace[face] = h
		}
	}
	if !perFace {
		return all, nil
	}
	for _, h := range byFace {
		all = append(all, h)
	}
	return all, nil
}

// --- Shared narrow-phase helpers ---

// stripPoints returns a polyline's points with the closing point appended
// for closed loops.
func stripPoints(p store.Polyline) []geom.Vec3 {
	if !p.Closed || len(p.Points) == 0 {
		return p.Points
	}
	return append(append([]geom.Vec3{}, p.Points...), p.Points[0])
}

// nearestEdgeHit finds the nearest in-tolerance approach between the ray
// and the strip's segments.
func nearestEdgeHit(ray geom.Ray, pixelTol float64, id store.ID, strip []geom.Vec3) (Hit, bool) {
	var best Hit
	found := false
	for i := 0; i+1 < len(strip); i++ {
		gap, t, p := raySegmentApproach(ray, strip[i], strip[i+1])
		if gap > WorldTolerance(pixelTol, t) {
			continue
		}
		if !found || t < best.Distance {
			best = Hit{ID: id, Point: p, Distance: t}
			found = true
		}
	}
	return best, found
}

// raySegmentApproach computes the closest approach between a ray and a
// segment: the gap, the ray parameter, and the segment point.
func raySegmentApproach(r geom.Ray, a, b geom.Vec3) (gap, t float64, p geom.Vec3) {
	u := r.Direction
	v := b.Sub(a)
	w := r.Origin.Sub(a)

	uv := u.Dot(v)
	vv := v.Dot(v)
	uw := u.Dot(w)
	vw := v.Dot(w)

	var s float64
	denom := vv - uv*uv // u is unit length
	if denom > geom.EpsNumeric {
		s = (vw - uv*uw) / denom
	}
	if s < 0 {
		s = 0
	} else if s > 1 {
		s = 1
	}
	p = a.Add(v.Scale(s))
	t = p.Sub(r.Origin).Dot(u)
	if t < 0 {
		t = 0
	}
	return r.At(t).Distance(p), t, p
}

// farthestCornerDistance returns the distance from p to the farthest corner
// of the box.
func farthestCornerDistance(b geom.Box, p geom.Vec3) float64 {
	dx := math.Max(math.Abs(b.Min.X-p.X), math.Abs(b.Max.X-p.X))
	dy := math.Max(math.Abs(b.Min.Y-p.Y), math.Abs(b.Max.Y-p.Y))
	dz := math.Max(math.Abs(b.Min.Z-p.Z), math.Abs(b.Max.Z-p.Z))
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// boxRect converts a geom box into an rtreego rect, padding degenerate
// extents which rtreego rejects.
func boxRect(b geom.Box) (rtreego.Rect, error) {
	size := b.Size()
	lengths := []float64{
		math.Max(size.X, geom.EpsDistance),
		math.Max(size.Y, geom.EpsDistance),
		math.Max(size.Z, geom.EpsDistance),
	}
	return rtreego.NewRect(rtreego.Point{b.Min.X, b.Min.Y, b.Min.Z}, lengths)
}
