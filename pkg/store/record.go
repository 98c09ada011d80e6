// Package store holds every geometry record the kernel operates on, keyed
// by stable identifier. Records are immutable values; "updating" one means
// replacing the store entry wholesale, which bumps a version counter that
// downstream caches key on. The store is the kernel's single source of
// truth and its only shared mutable state.
package store

import (
	"math"

	"github.com/google/uuid"

	"github.com/camber3d/camber/pkg/geom"
)

// ID is the stable identifier of a geometry record.
type ID string

// NewID mints a fresh record identifier.
func NewID() ID {
	return ID(uuid.NewString())
}

// Short returns an abbreviated form for error messages and logs.
func (id ID) Short() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool { return id == "" }

// Kind discriminates the geometry record variants.
type Kind int

const (
	KindVertex Kind = iota
	KindPolyline
	KindCurve
	KindSurface
	KindExtrusion
	KindBRep
	KindMesh
	KindVoxelGrid
)

func (k Kind) String() string {
	switch k {
	case KindVertex:
		return "vertex"
	case KindPolyline:
		return "polyline"
	case KindCurve:
		return "curve"
	case KindSurface:
		return "surface"
	case KindExtrusion:
		return "extrusion"
	case KindBRep:
		return "brep"
	case KindMesh:
		return "mesh"
	case KindVoxelGrid:
		return "voxelgrid"
	default:
		return "unknown"
	}
}

// Meta carries optional display/layer metadata. The kernel treats it as
// opaque; only the hosting application interprets it.
type Meta struct {
	Name  string `json:"name,omitempty"`
	Layer string `json:"layer,omitempty"`
	Color string `json:"color,omitempty"`
}

// Record is the closed set of geometry variants. The marker method restricts
// implementations to this package so every consumer can match exhaustively.
type Record interface {
	Kind() Kind
	record() // marker method restricting implementations to this package
}

// ---------------------------------------------------------------------------
// Leaf primitives
// ---------------------------------------------------------------------------

// Vertex is a single 3D point.
type Vertex struct {
	Meta     Meta      `json:"meta"`
	Position geom.Vec3 `json:"position"`
}

func (Vertex) Kind() Kind { return KindVertex }
func (Vertex) record()    {}

// Polyline is an ordered vertex sequence. Edge i connects point i to point
// i+1, wrapping when Closed.
type Polyline struct {
	Meta   Meta        `json:"meta"`
	Points []geom.Vec3 `json:"points"`
	Closed bool        `json:"closed"`
}

func (Polyline) Kind() Kind { return KindPolyline }
func (Polyline) record()    {}

// EdgeCount returns the number of implicit edges.
func (p Polyline) EdgeCount() int {
	if len(p.Points) < 2 {
		return 0
	}
	if p.Closed {
		return len(p.Points)
	}
	return len(p.Points) - 1
}

// Edge returns the endpoints of implicit edge i.
func (p Polyline) Edge(i int) (geom.Vec3, geom.Vec3) {
	return p.Points[i], p.Points[(i+1)%len(p.Points)]
}

// ---------------------------------------------------------------------------
// NURBS
// ---------------------------------------------------------------------------

// Curve is a NURBS curve. Weights may be nil (non-rational); when present it
// is parallel to Points.
type Curve struct {
	Meta    Meta        `json:"meta"`
	Points  []geom.Vec3 `json:"points"`
	Knots   []float64   `json:"knots"`
	Degree  int         `json:"degree"`
	Weights []float64   `json:"weights,omitempty"`
}

func (Curve) Kind() Kind { return KindCurve }
func (Curve) record()    {}

// Domain returns the valid parameter range of the curve.
func (c Curve) Domain() (lo, hi float64) {
	return c.Knots[c.Degree], c.Knots[len(c.Knots)-1-c.Degree]
}

// Surface is a NURBS surface. Points is indexed [u][v]; Weights, when
// present, has the same shape.
type Surface struct {
	Meta    Meta          `json:"meta"`
	Points  [][]geom.Vec3 `json:"points"`
	KnotsU  []float64     `json:"knots_u"`
	KnotsV  []float64     `json:"knots_v"`
	DegreeU int           `json:"degree_u"`
	DegreeV int           `json:"degree_v"`
	Weights [][]float64   `json:"weights,omitempty"`
}

func (Surface) Kind() Kind { return KindSurface }
func (Surface) record()    {}

// DomainU returns the valid U parameter range.
func (s Surface) DomainU() (lo, hi float64) {
	return s.KnotsU[s.DegreeU], s.KnotsU[len(s.KnotsU)-1-s.DegreeU]
}

// DomainV returns the valid V parameter range.
func (s Surface) DomainV() (lo, hi float64) {
	return s.KnotsV[s.DegreeV], s.KnotsV[len(s.KnotsV)-1-s.DegreeV]
}

// ---------------------------------------------------------------------------
// Extrusion
// ---------------------------------------------------------------------------

// Extrusion sweeps a profile curve along a path curve. Profile and Path are
// weak references: deleting the referenced record invalidates the extrusion
// but is not cascaded. The sweep is evaluated lazily; it is never
// materialized into a surface unless a caller asks for one, so edits to the
// referenced curves propagate automatically.
type Extrusion struct {
	Meta         Meta    `json:"meta"`
	Profile      ID      `json:"profile"`
	Path         ID      `json:"path"`
	TwistDegrees float64 `json:"twist_degrees,omitempty"` // total twist, distributed linearly along the path
	EndScale     float64 `json:"end_scale,omitempty"`     // profile scale at the path end; 0 means 1 (no scaling)
}

func (Extrusion) Kind() Kind { return KindExtrusion }
func (Extrusion) record()    {}

// ---------------------------------------------------------------------------
// B-Rep
// ---------------------------------------------------------------------------

// TopoVertex is a topological vertex of a B-Rep.
type TopoVertex struct {
	Position geom.Vec3 `json:"position"`
}

// TopoEdge references a curve record (optional for straight edges) and the
// two topological vertices it connects, by index into BRep.Vertices.
type TopoEdge struct {
	Curve  ID  `json:"curve,omitempty"` // weak reference; empty for a straight edge
	Start  int `json:"start"`
	End    int `json:"end"`
}

// EdgeRef is an oriented use of an edge inside a loop.
type EdgeRef struct {
	Edge     int  `json:"edge"`     // index into BRep.Edges
	Reversed bool `json:"reversed"` // traverse End→Start when true
}

// Loop is an ordered, oriented edge cycle bounding a face region.
type Loop struct {
	Edges []EdgeRef `json:"edges"`
}

// Face references a surface record and the trim loops bounding its visible
// region. Loops[0] is the outer boundary; the rest are holes.
type Face struct {
	Surface ID     `json:"surface,omitempty"` // weak reference; empty for a planar face defined by its outer loop
	Loops   []Loop `json:"loops"`
}

// BRep is a boundary representation solid. The topology is the solid:
// orientation of the loops determines inside/outside, and a BRep with
// inconsistent orientation is an invalid solid, not merely ugly.
type BRep struct {
	Meta     Meta         `json:"meta"`
	Vertices []TopoVertex `json:"vertices"`
	Edges    []TopoEdge   `json:"edges"`
	Faces    []Face       `json:"faces"`
}

func (BRep) Kind() Kind { return KindBRep }
func (BRep) record()    {}

// ---------------------------------------------------------------------------
// Discrete
// ---------------------------------------------------------------------------

// Mesh is a triangle mesh with flat arrays: 3 float32 per position/normal,
// 2 per UV, 3 uint32 indices per triangle. FaceOrigins, when present, maps
// each triangle to the parametric face it tessellated from, so selection
// can resolve a hit triangle back to its face.
type Mesh struct {
	Meta        Meta      `json:"meta"`
	Positions   []float32 `json:"positions"`
	Normals     []float32 `json:"normals,omitempty"`
	UVs         []float32 `json:"uvs,omitempty"`
	Colors      []float32 `json:"colors,omitempty"`
	Indices     []uint32  `json:"indices"`
	FaceOrigins []int32   `json:"face_origins,omitempty"` // per triangle
	Source      ID        `json:"source,omitempty"`       // record this mesh approximates
}

func (Mesh) Kind() Kind { return KindMesh }
func (Mesh) record()    {}

// VertexCount returns the number of mesh vertices.
func (m Mesh) VertexCount() int { return len(m.Positions) / 3 }

// TriangleCount returns the number of triangles.
func (m Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// IsEmpty reports whether the mesh has no geometry.
func (m Mesh) IsEmpty() bool { return len(m.Positions) == 0 }

// Position returns vertex i as a Vec3.
func (m Mesh) Position(i int) geom.Vec3 {
	return geom.Vec3{
		X: float64(m.Positions[3*i]),
		Y: float64(m.Positions[3*i+1]),
		Z: float64(m.Positions[3*i+2]),
	}
}

// Triangle returns the corner positions of triangle t.
func (m Mesh) Triangle(t int) (a, b, c geom.Vec3) {
	return m.Position(int(m.Indices[3*t])),
		m.Position(int(m.Indices[3*t+1])),
		m.Position(int(m.Indices[3*t+2]))
}

// Bounds returns the axis-aligned bounding box of the mesh.
func (m Mesh) Bounds() geom.Box {
	b := geom.EmptyBox()
	for i := 0; i < m.VertexCount(); i++ {
		b = b.Extend(m.Position(i))
	}
	return b
}

// Watertight reports whether every mesh edge is shared by exactly two
// triangles. Vertices are welded by position first, so meshes with corners
// duplicated per triangle (flat-shaded tessellator output) still pass.
func (m Mesh) Watertight() bool {
	if m.TriangleCount() == 0 {
		return false
	}
	weld := make(map[[3]int64]int, m.VertexCount())
	canon := make([]int, m.VertexCount())
	for i := 0; i < m.VertexCount(); i++ {
		p := m.Position(i)
		key := [3]int64{
			int64(math.Round(p.X / geom.EpsDistance)),
			int64(math.Round(p.Y / geom.EpsDistance)),
			int64(math.Round(p.Z / geom.EpsDistance)),
		}
		id, ok := weld[key]
		if !ok {
			id = len(weld)
			weld[key] = id
		}
		canon[i] = id
	}

	edges := make(map[[2]int]int)
	for t := 0; t < m.TriangleCount(); t++ {
		i0 := canon[m.Indices[3*t]]
		i1 := canon[m.Indices[3*t+1]]
		i2 := canon[m.Indices[3*t+2]]
		for _, e := range [3][2]int{{i0, i1}, {i1, i2}, {i2, i0}} {
			if e[0] > e[1] {
				e[0], e[1] = e[1], e[0]
			}
			edges[e]++
		}
	}
	for _, n := range edges {
		if n != 2 {
			return false
		}
	}
	return true
}

// VoxelGrid is a regular density grid. Density is indexed x + y*Nx + z*Nx*Ny;
// 0 is empty, CellSurface marks rasterized boundary cells, CellInterior
// marks flood-filled interior cells. Nonzero means filled.
type VoxelGrid struct {
	Meta     Meta      `json:"meta"`
	Nx       int       `json:"nx"`
	Ny       int       `json:"ny"`
	Nz       int       `json:"nz"`
	Bounds   geom.Box  `json:"bounds"`
	CellSize geom.Vec3 `json:"cell_size"`
	Density  []uint8   `json:"density"`
}

// Density cell states.
const (
	CellEmpty    uint8 = 0
	CellSurface  uint8 = 1
	CellInterior uint8 = 2
)

func (VoxelGrid) Kind() Kind { return KindVoxelGrid }
func (VoxelGrid) record()    {}

// CellCount returns the total number of cells.
func (g VoxelGrid) CellCount() int { return g.Nx * g.Ny * g.Nz }

// Index returns the flat density index of cell (x, y, z).
func (g VoxelGrid) Index(x, y, z int) int { return x + y*g.Nx + z*g.Nx*g.Ny }

// FilledCount returns the number of nonzero cells.
func (g VoxelGrid) FilledCount() int {
	n := 0
	for _, d := range g.Density {
		if d != CellEmpty {
			n++
		}
	}
	return n
}

// FillRatio returns filled/total, in (0,1] for any enclosing mesh.
func (g VoxelGrid) FillRatio() float64 {
	total := g.CellCount()
	if total == 0 {
		return 0
	}
	return float64(g.FilledCount()) / float64(total)
}
