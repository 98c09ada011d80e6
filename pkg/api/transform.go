package api

import (
	"fmt"

	"github.com/camber3d/camber/pkg/geom"
	"github.com/camber3d/camber/pkg/kernel"
	"github.com/camber3d/camber/pkg/store"
)

// Translate replaces the record under id with a copy moved by v. A record
// with a solid handle keeps its handle in sync.
func (s *Session) Translate(id store.ID, v geom.Vec3) error {
	m := geom.Translate(v)
	if err := s.applyTransform(id, m, true); err != nil {
		return err
	}
	if solid, ok := s.solids[id]; ok {
		s.solids[id] = s.kern.Translate(solid, v)
	}
	return nil
}

// Rotate replaces the record under id with a copy rotated by Euler angles in
// degrees, applied X then Y then Z about the origin.
func (s *Session) Rotate(id store.ID, eulerDeg geom.Vec3) error {
	const degToRad = 3.14159265358979323846 / 180
	m := geom.RotateZ(eulerDeg.Z * degToRad).
		Mul(geom.RotateY(eulerDeg.Y * degToRad)).
		Mul(geom.RotateX(eulerDeg.X * degToRad))
	if err := s.applyTransform(id, m, false); err != nil {
		return err
	}
	if solid, ok := s.solids[id]; ok {
		s.solids[id] = s.kern.Rotate(solid, eulerDeg)
	}
	return nil
}

// Scale replaces the record under id with a copy scaled uniformly about the
// origin. Solid-backed records are rejected: the kernel interface carries no
// scale, so the handle could not follow — re-create the primitive instead.
func (s *Session) Scale(id store.ID, k float64) error {
	if k <= 0 {
		return fmt.Errorf("api: scale factor %v, want > 0", k)
	}
	if _, ok := s.solids[id]; ok {
		return fmt.Errorf("api: record %s is solid-backed; re-create the primitive at the new size", id.Short())
	}
	return s.applyTransform(id, geom.ScaleUniform(k), false)
}

// applyTransform transforms the record's geometry in place (as a replacement
// record). translationOnly admits the axis-aligned kinds a rotation or scale
// would invalidate.
func (s *Session) applyTransform(id store.ID, m geom.Mat4, translationOnly bool) error {
	rec, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("api: record %s not found", id.Short())
	}
	out, err := transformRecord(rec, m, translationOnly)
	if err != nil {
		return fmt.Errorf("api: transform %s: %w", id.Short(), err)
	}
	if err := s.store.Update(id, out); err != nil {
		return err
	}
	s.invalidate(id)
	return nil
}

// transformRecord maps a transform over every record variant. The variant
// set is closed, so the switch is exhaustive by construction.
func transformRecord(rec store.Record, m geom.Mat4, translationOnly bool) (store.Record, error) {
	switch r := rec.(type) {
	case store.Vertex:
		r.Position = m.Apply(r.Position)
		return r, nil
	case store.Polyline:
		r.Points = applyAll(m, r.Points)
		return r, nil
	case store.Curve:
		r.Points = applyAll(m, r.Points)
		return r, nil
	case store.Surface:
		rows := make([][]geom.Vec3, len(r.Points))
		for i, row := range r.Points {
			rows[i] = applyAll(m, row)
		}
		r.Points = rows
		return r, nil
	case store.Mesh:
		return transformMesh(r, m), nil
	case store.BRep:
		return r, fmt.Errorf("a B-Rep shares its curves and surfaces; transform those records")
	case store.Extrusion:
		return r, fmt.Errorf("an extrusion is derived; transform its profile or path")
	case store.VoxelGrid:
		if !translationOnly {
			return r, fmt.Errorf("a voxel grid is axis-aligned; re-voxelize instead")
		}
		r.Bounds = geom.Box{Min: m.Apply(r.Bounds.Min), Max: m.Apply(r.Bounds.Max)}
		return r, nil
	default:
		return rec, fmt.Errorf("unhandled record kind %s", rec.Kind())
	}
}

func applyAll(m geom.Mat4, pts []geom.Vec3) []geom.Vec3 {
	out := make([]geom.Vec3, len(pts))
	for i, p := range pts {
		out[i] = m.Apply(p)
	}
	return out
}

func transformMesh(r store.Mesh, m geom.Mat4) store.Mesh {
	positions := make([]float32, len(r.Positions))
	for i := 0; i+2 < len(r.Positions); i += 3 {
		p := m.Apply(geom.Vec3{
			X: float64(r.Positions[i]),
			Y: float64(r.Positions[i+1]),
			Z: float64(r.Positions[i+2]),
		})
		positions[i], positions[i+1], positions[i+2] = float32(p.X), float32(p.Y), float32(p.Z)
	}
	normals := make([]float32, len(r.Normals))
	for i := 0; i+2 < len(r.Normals); i += 3 {
		n := m.ApplyDir(geom.Vec3{
			X: float64(r.Normals[i]),
			Y: float64(r.Normals[i+1]),
			Z: float64(r.Normals[i+2]),
		}).Normalize()
		normals[i], normals[i+1], normals[i+2] = float32(n.X), float32(n.Y), float32(n.Z)
	}
	r.Positions = positions
	r.Normals = normals
	return r
}

// Kind re-exports the boolean kinds so hosts need only the api package for
// command calls.
const (
	Union        = kernel.BooleanUnion
	Difference   = kernel.BooleanDifference
	Intersection = kernel.BooleanIntersection
)
