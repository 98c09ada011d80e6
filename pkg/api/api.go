// Package api is the command-layer facade over the store and the engines:
// the only surface host applications call. It owns the geometry store, the
// tessellation cache, the hit-test engine, and the registry tying
// solid-constructed records to their kernel handles for boolean operations.
package api

import (
	"context"
	"fmt"

	"github.com/camber3d/camber/pkg/boolean"
	"github.com/camber3d/camber/pkg/brep"
	"github.com/camber3d/camber/pkg/config"
	"github.com/camber3d/camber/pkg/geom"
	"github.com/camber3d/camber/pkg/hittest"
	"github.com/camber3d/camber/pkg/kernel"
	"github.com/camber3d/camber/pkg/store"
	"github.com/camber3d/camber/pkg/tessellate"
	"github.com/camber3d/camber/pkg/voxel"
)

// Session binds a store to the engines. It follows the kernel's
// single-caller contract: one logical evaluation thread drives a session.
type Session struct {
	cfg    config.Config
	kern   kernel.Kernel
	store  *store.Store
	cache  *tessellate.Cache
	solids map[store.ID]kernel.Solid

	// engine is rebuilt lazily after any store mutation.
	engine *hittest.Engine
}

// NewSession creates a session with an empty store.
func NewSession(cfg config.Config, kern kernel.Kernel) *Session {
	return &Session{
		cfg:    cfg,
		kern:   kern,
		store:  store.New(),
		cache:  tessellate.NewCache(),
		solids: make(map[store.ID]kernel.Solid),
	}
}

// Store exposes the underlying geometry store for direct reads.
func (s *Session) Store() *store.Store { return s.store }

// invalidate reacts to a mutation of id.
func (s *Session) invalidate(id store.ID) {
	s.cache.Invalidate(id)
	s.engine = nil
}

// --- Record constructors ---

// AddVertex stores a point record.
func (s *Session) AddVertex(p geom.Vec3) (store.ID, error) {
	return s.add(store.Vertex{Position: p})
}

// AddPolyline stores a polyline record.
func (s *Session) AddPolyline(points []geom.Vec3, closed bool) (store.ID, error) {
	return s.add(store.Polyline{Points: points, Closed: closed})
}

// AddCurve stores a NURBS curve record.
func (s *Session) AddCurve(c store.Curve) (store.ID, error) {
	return s.add(c)
}

// AddSurface stores a NURBS surface record.
func (s *Session) AddSurface(sf store.Surface) (store.ID, error) {
	return s.add(sf)
}

// AddMesh stores an imported triangle mesh record.
func (s *Session) AddMesh(m store.Mesh) (store.ID, error) {
	return s.add(m)
}

// AddExtrusion stores an extrusion sweeping profile along path with optional
// twist (degrees over the full path) and end scale.
func (s *Session) AddExtrusion(profile, path store.ID, twistDegrees, endScale float64) (store.ID, error) {
	return s.add(store.Extrusion{
		Profile:      profile,
		Path:         path,
		TwistDegrees: twistDegrees,
		EndScale:     endScale,
	})
}

// AddBox stores an exact B-Rep box with its minimum corner at min.
func (s *Session) AddBox(min, size geom.Vec3) (store.ID, error) {
	b, err := brep.Box(min, size)
	if err != nil {
		return "", err
	}
	return s.add(b)
}

// AddCylinder stores an exact B-Rep cylinder (base on z=0, axis +z) along
// with its rim curves and side surface.
func (s *Session) AddCylinder(radius, height float64) (store.ID, error) {
	b, err := brep.Cylinder(s.store, radius, height)
	if err != nil {
		return "", err
	}
	id, err := s.add(b)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Session) add(rec store.Record) (store.ID, error) {
	id, err := s.store.Add(rec)
	if err != nil {
		return "", err
	}
	s.engine = nil
	return id, nil
}

// Update replaces the record under id, bumping its version.
func (s *Session) Update(id store.ID, rec store.Record) error {
	if err := s.store.Update(id, rec); err != nil {
		return err
	}
	s.invalidate(id)
	delete(s.solids, id) // a replaced record no longer matches its handle
	return nil
}

// Remove deletes the record under id; it fails while the record is
// referenced by an extrusion or B-Rep.
func (s *Session) Remove(id store.ID) error {
	if err := s.store.Remove(id); err != nil {
		return err
	}
	s.invalidate(id)
	delete(s.solids, id)
	return nil
}

// --- Solid constructors and booleans ---

// SolidBox stores a kernel-meshed box (minimum corner at the origin) and
// registers its solid handle for boolean operations.
func (s *Session) SolidBox(size geom.Vec3) (store.ID, error) {
	return s.addSolid(s.kern.Box(size))
}

// SolidCylinder stores a kernel-meshed cylinder sitting on z=0.
func (s *Session) SolidCylinder(radius, height float64) (store.ID, error) {
	return s.addSolid(s.kern.Cylinder(radius, height))
}

// SolidSphere stores a kernel-meshed sphere centered at the origin.
func (s *Session) SolidSphere(radius float64) (store.ID, error) {
	return s.addSolid(s.kern.Sphere(radius))
}

func (s *Session) addSolid(solid kernel.Solid) (store.ID, error) {
	m, err := s.kern.ToMesh(solid, s.cfg.MeshCells)
	if err != nil {
		return "", fmt.Errorf("api: mesh solid: %w", err)
	}
	id, err := s.add(m)
	if err != nil {
		return "", err
	}
	s.solids[id] = solid
	return id, nil
}

// BooleanOp combines two solid-constructed records and stores the meshed
// result as a new record with its own solid handle. Records without solid
// handles (anything not built by a Solid* constructor or a prior BooleanOp)
// are rejected.
func (s *Session) BooleanOp(kind kernel.BooleanKind, a, b store.ID) (store.ID, error) {
	sa, ok := s.solids[a]
	if !ok {
		return "", fmt.Errorf("api: boolean %s: record %s has no solid handle", kind, a.Short())
	}
	sb, ok := s.solids[b]
	if !ok {
		return "", fmt.Errorf("api: boolean %s: record %s has no solid handle", kind, b.Short())
	}
	return s.addSolid(s.kern.Boolean(kind, sa, sb))
}

// BooleanPolylines combines two coplanar closed polyline records and stores
// each result contour as a new record.
func (s *Session) BooleanPolylines(kind kernel.BooleanKind, a, b store.ID) ([]store.ID, error) {
	pa, err := s.polyline(a)
	if err != nil {
		return nil, err
	}
	pb, err := s.polyline(b)
	if err != nil {
		return nil, err
	}
	contours, err := boolean.Polylines(kind, pa, pb)
	if err != nil {
		return nil, err
	}
	ids := make([]store.ID, 0, len(contours))
	for _, c := range contours {
		id, err := s.add(c)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// OffsetPolyline offsets a polyline record and stores the result. Zero
// options fall back to the session config (joint style, miter limit).
func (s *Session) OffsetPolyline(id store.ID, distance float64, opts boolean.OffsetOptions) (store.ID, error) {
	p, err := s.polyline(id)
	if err != nil {
		return "", err
	}
	opts.Distance = distance
	if opts.MiterLimit == 0 {
		opts.MiterLimit = s.cfg.MiterLimit
	}
	if opts.AngularThresholdDeg == 0 {
		opts.AngularThresholdDeg = s.cfg.AngularThresholdDeg
	}
	if opts.Style == boolean.JointMiter && s.cfg.JointStyle != "miter" {
		switch s.cfg.JointStyle {
		case "bevel":
			opts.Style = boolean.JointBevel
		case "round":
			opts.Style = boolean.JointRound
		}
	}
	out, err := boolean.OffsetPolyline(p, opts)
	if err != nil {
		return "", err
	}
	return s.add(out)
}

func (s *Session) polyline(id store.ID) (store.Polyline, error) {
	rec, ok := s.store.Get(id)
	if !ok {
		return store.Polyline{}, fmt.Errorf("api: record %s not found", id.Short())
	}
	p, ok := rec.(store.Polyline)
	if !ok {
		return store.Polyline{}, fmt.Errorf("api: record %s is a %s, want polyline", id.Short(), rec.Kind())
	}
	return p, nil
}

// --- Queries ---

// Tessellate returns the render mesh of a record within the deviation
// budget, served from the version-keyed cache when possible. A budget of
// zero uses the session default.
func (s *Session) Tessellate(ctx context.Context, id store.ID, budget float64) (store.Mesh, error) {
	if budget == 0 {
		budget = s.cfg.TessellationBudget
	}
	opts := tessellate.Options{Tolerance: budget, MaxDepth: s.cfg.MaxTessellationDepth}
	return s.cache.Mesh(ctx, s.store.Snapshot(), id, opts)
}

// Intersect returns all ray intersections at the requested granularity,
// sorted nearest first.
func (s *Session) Intersect(ctx context.Context, ray geom.Ray, pixelTol float64, mode hittest.Mode) ([]hittest.Hit, error) {
	e, err := s.hitEngine(ctx)
	if err != nil {
		return nil, err
	}
	return e.Intersect(ctx, ray, pixelTol, mode)
}

// Pick returns one hit, cycling through overlapping geometry on repeated
// identical queries.
func (s *Session) Pick(ctx context.Context, ray geom.Ray, pixelTol float64, mode hittest.Mode) (hittest.Hit, bool, error) {
	e, err := s.hitEngine(ctx)
	if err != nil {
		return hittest.Hit{}, false, err
	}
	return e.Pick(ctx, ray, pixelTol, mode)
}

func (s *Session) hitEngine(ctx context.Context) (*hittest.Engine, error) {
	if s.engine != nil {
		return s.engine, nil
	}
	opts := tessellate.Options{Tolerance: s.cfg.TessellationBudget, MaxDepth: s.cfg.MaxTessellationDepth}
	e, err := hittest.New(ctx, s.store.Snapshot(), opts)
	if err != nil {
		return nil, err
	}
	s.engine = e
	return e, nil
}

// VoxelizeResult bundles the records produced by Voxelize.
type VoxelizeResult struct {
	Grid  store.ID
	Mesh  store.ID
	Stats voxel.Stats
}

// Voxelize rasterizes a record's tessellation into a density grid, stores
// the grid and a preview mesh of its filled cells, and returns both IDs with
// the fill statistics. Resolution is capped by the session config.
func (s *Session) Voxelize(ctx context.Context, id store.ID, resolution int) (VoxelizeResult, error) {
	if resolution > s.cfg.VoxelResolutionCap {
		return VoxelizeResult{}, fmt.Errorf("api: voxelize: resolution %d exceeds cap %d", resolution, s.cfg.VoxelResolutionCap)
	}
	m, err := s.Tessellate(ctx, id, 0)
	if err != nil {
		return VoxelizeResult{}, err
	}
	grid, stats, err := voxel.Voxelize(ctx, m, resolution)
	if err != nil {
		return VoxelizeResult{}, err
	}
	gridID, err := s.add(grid)
	if err != nil {
		return VoxelizeResult{}, err
	}
	preview := voxel.GridMesh(grid)
	preview.Source = gridID
	meshID, err := s.add(preview)
	if err != nil {
		return VoxelizeResult{}, err
	}
	return VoxelizeResult{Grid: gridID, Mesh: meshID, Stats: stats}, nil
}
