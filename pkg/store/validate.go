package store

import (
	"fmt"
	"math"

	"github.com/camber3d/camber/pkg/geom"
)

// InvariantError reports a construction-time invariant violation. Records
// that fail validation never enter the store, so evaluation code can assume
// the invariants hold.
type InvariantError struct {
	Kind    Kind
	Field   string
	Index   int // offending element index, -1 when not applicable
	Message string
}

func (e *InvariantError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s.%s[%d]: %s", e.Kind, e.Field, e.Index, e.Message)
	}
	return fmt.Sprintf("%s.%s: %s", e.Kind, e.Field, e.Message)
}

func invariant(k Kind, field string, index int, format string, args ...any) error {
	return &InvariantError{Kind: k, Field: field, Index: index, Message: fmt.Sprintf(format, args...)}
}

// ValidateRecord checks the construction-time invariants of a record.
// It is run by Store.Add and Store.Update before any entry is touched.
func ValidateRecord(r Record) error {
	switch rec := r.(type) {
	case Vertex:
		return validateVertex(rec)
	case Polyline:
		return validatePolyline(rec)
	case Curve:
		return validateCurve(rec)
	case Surface:
		return validateSurface(rec)
	case Extrusion:
		return validateExtrusion(rec)
	case BRep:
		return validateBRepRefs(rec)
	case Mesh:
		return validateMesh(rec)
	case VoxelGrid:
		return validateVoxelGrid(rec)
	default:
		return fmt.Errorf("store: unknown record type %T", r)
	}
}

func validateVertex(v Vertex) error {
	if !v.Position.IsFinite() {
		return invariant(KindVertex, "position", -1, "coordinates must be finite, got %+v", v.Position)
	}
	return nil
}

func validatePolyline(p Polyline) error {
	min := 2
	if p.Closed {
		min = 3
	}
	if len(p.Points) < min {
		return invariant(KindPolyline, "points", -1, "need at least %d points (closed=%v), got %d", min, p.Closed, len(p.Points))
	}
	for i, pt := range p.Points {
		if !pt.IsFinite() {
			return invariant(KindPolyline, "points", i, "coordinates must be finite")
		}
	}
	return nil
}

// validateKnots checks the shared knot-vector invariants for one parametric
// direction: length relation, non-decreasing order, non-degenerate domain.
func validateKnots(k Kind, field string, knots []float64, numPoints, degree int) error {
	if degree < 1 {
		return invariant(k, field, -1, "degree must be >= 1, got %d", degree)
	}
	if numPoints < degree+1 {
		return invariant(k, field, -1, "need at least degree+1 = %d control points, got %d", degree+1, numPoints)
	}
	if want := numPoints + degree + 1; len(knots) != want {
		return invariant(k, field, -1, "knot count must be points+degree+1 = %d, got %d", want, len(knots))
	}
	for i := 1; i < len(knots); i++ {
		if knots[i] < knots[i-1] {
			return invariant(k, field, i, "knots must be non-decreasing: %v < %v", knots[i], knots[i-1])
		}
		if math.IsNaN(knots[i]) || math.IsInf(knots[i], 0) {
			return invariant(k, field, i, "knots must be finite")
		}
	}
	if knots[len(knots)-1-degree]-knots[degree] < geom.EpsNumeric {
		return invariant(k, field, -1, "degenerate parameter domain [%v, %v]", knots[degree], knots[len(knots)-1-degree])
	}
	return nil
}

func validateWeights(k Kind, weights []float64, numPoints int) error {
	if weights == nil {
		return nil
	}
	if len(weights) != numPoints {
		return invariant(k, "weights", -1, "weight count must match control points: %d vs %d", len(weights), numPoints)
	}
	for i, w := range weights {
		if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return invariant(k, "weights", i, "weights must be positive and finite, got %v", w)
		}
	}
	return nil
}

func validateCurve(c Curve) error {
	if err := validateKnots(KindCurve, "knots", c.Knots, len(c.Points), c.Degree); err != nil {
		return err
	}
	for i, p := range c.Points {
		if !p.IsFinite() {
			return invariant(KindCurve, "points", i, "coordinates must be finite")
		}
	}
	return validateWeights(KindCurve, c.Weights, len(c.Points))
}

func validateSurface(s Surface) error {
	if len(s.Points) == 0 || len(s.Points[0]) == 0 {
		return invariant(KindSurface, "points", -1, "control point grid must be non-empty")
	}
	nv := len(s.Points[0])
	for i, row := range s.Points {
		if len(row) != nv {
			return invariant(KindSurface, "points", i, "control point grid must be rectangular: row has %d columns, want %d", len(row), nv)
		}
		for j, p := range row {
			if !p.IsFinite() {
				return invariant(KindSurface, "points", i*nv+j, "coordinates must be finite")
			}
		}
	}
	if err := validateKnots(KindSurface, "knots_u", s.KnotsU, len(s.Points), s.DegreeU); err != nil {
		return err
	}
	if err := validateKnots(KindSurface, "knots_v", s.KnotsV, nv, s.DegreeV); err != nil {
		return err
	}
	if s.Weights != nil {
		if len(s.Weights) != len(s.Points) {
			return invariant(KindSurface, "weights", -1, "weight grid rows must match control points: %d vs %d", len(s.Weights), len(s.Points))
		}
		for i, row := range s.Weights {
			if err := validateWeights(KindSurface, row, nv); err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
		}
	}
	return nil
}

func validateExtrusion(e Extrusion) error {
	if e.Profile.IsZero() {
		return invariant(KindExtrusion, "profile", -1, "profile reference must be set")
	}
	if e.Path.IsZero() {
		return invariant(KindExtrusion, "path", -1, "path reference must be set")
	}
	if e.EndScale < 0 {
		return invariant(KindExtrusion, "end_scale", -1, "end scale must be non-negative, got %v", e.EndScale)
	}
	return nil
}

// validateBRepRefs checks only the index-level integrity of the topology
// (dangling vertex/edge indices, empty loops). Orientation and closure are
// the brep package's tiered validation; a record can sit in the store while
// a builder assembles it, but its indices must never dangle.
func validateBRepRefs(b BRep) error {
	for i, e := range b.Edges {
		if e.Start < 0 || e.Start >= len(b.Vertices) {
			return invariant(KindBRep, "edges", i, "start vertex index %d out of range [0,%d)", e.Start, len(b.Vertices))
		}
		if e.End < 0 || e.End >= len(b.Vertices) {
			return invariant(KindBRep, "edges", i, "end vertex index %d out of range [0,%d)", e.End, len(b.Vertices))
		}
	}
	for fi, f := range b.Faces {
		if len(f.Loops) == 0 {
			return invariant(KindBRep, "faces", fi, "face must have at least one trim loop")
		}
		for _, loop := range f.Loops {
			if len(loop.Edges) == 0 {
				return invariant(KindBRep, "faces", fi, "trim loop must reference at least one edge")
			}
			for _, er := range loop.Edges {
				if er.Edge < 0 || er.Edge >= len(b.Edges) {
					return invariant(KindBRep, "faces", fi, "loop edge index %d out of range [0,%d)", er.Edge, len(b.Edges))
				}
			}
		}
	}
	return nil
}

func validateMesh(m Mesh) error {
	if len(m.Positions)%3 != 0 {
		return invariant(KindMesh, "positions", -1, "position array length must be a multiple of 3, got %d", len(m.Positions))
	}
	if len(m.Indices)%3 != 0 {
		return invariant(KindMesh, "indices", -1, "index array length must be a multiple of 3, got %d", len(m.Indices))
	}
	nv := m.VertexCount()
	for i, idx := range m.Indices {
		if int(idx) >= nv {
			return invariant(KindMesh, "indices", i, "index %d out of range [0,%d)", idx, nv)
		}
	}
	if m.Normals != nil && len(m.Normals) != len(m.Positions) {
		return invariant(KindMesh, "normals", -1, "normal array must match positions: %d vs %d", len(m.Normals), len(m.Positions))
	}
	if m.FaceOrigins != nil && len(m.FaceOrigins) != m.TriangleCount() {
		return invariant(KindMesh, "face_origins", -1, "face origin array must have one entry per triangle: %d vs %d", len(m.FaceOrigins), m.TriangleCount())
	}
	return nil
}

func validateVoxelGrid(g VoxelGrid) error {
	if g.Nx <= 0 || g.Ny <= 0 || g.Nz <= 0 {
		return invariant(KindVoxelGrid, "resolution", -1, "resolution must be positive, got %dx%dx%d", g.Nx, g.Ny, g.Nz)
	}
	if len(g.Density) != g.CellCount() {
		return invariant(KindVoxelGrid, "density", -1, "density array length %d must equal cell count %d", len(g.Density), g.CellCount())
	}
	return nil
}
