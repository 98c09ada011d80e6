// Package brep assembles and validates boundary-representation solids. A
// B-Rep here is topology binding geometry: faces referencing surfaces and
// trim loops, edges referencing curves and vertex pairs, loops as ordered
// oriented edge cycles. Loop winding determines outward normals; the
// validator rejects anything that is merely "surfaces grouped together".
package brep

import (
	"fmt"
	"math"

	"github.com/camber3d/camber/pkg/geom"
	"github.com/camber3d/camber/pkg/store"
)

// Box builds the B-Rep of an axis-aligned box with its minimum corner at
// min. All faces are planar with outer loops wound for outward normals.
func Box(min geom.Vec3, size geom.Vec3) (store.BRep, error) {
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return store.BRep{}, fmt.Errorf("brep: box size must be positive, got %+v", size)
	}
	max := min.Add(size)

	// Vertex numbering: bit 0 = +x, bit 1 = +y, bit 2 = +z.
	verts := make([]store.TopoVertex, 8)
	for i := 0; i < 8; i++ {
		p := min
		if i&1 != 0 {
			p.X = max.X
		}
		if i&2 != 0 {
			p.Y = max.Y
		}
		if i&4 != 0 {
			p.Z = max.Z
		}
		verts[i] = store.TopoVertex{Position: p}
	}

	// The 12 box edges as vertex-index pairs.
	edgePairs := [12][2]int{
		{0, 1}, {1, 3}, {3, 2}, {2, 0}, // bottom ring (z = min)
		{4, 5}, {5, 7}, {7, 6}, {6, 4}, // top ring (z = max)
		{0, 4}, {1, 5}, {3, 7}, {2, 6}, // risers
	}
	edges := make([]store.TopoEdge, len(edgePairs))
	edgeIndex := make(map[[2]int]int, len(edgePairs))
	for i, p := range edgePairs {
		edges[i] = store.TopoEdge{Start: p[0], End: p[1]}
		edgeIndex[p] = i
	}

	// Faces as outward-wound vertex cycles; loops resolve each step to an
	// existing edge, reversed when traversed end-to-start.
	faceCycles := [6][4]int{
		{0, 2, 3, 1}, // -z
		{4, 5, 7, 6}, // +z
		{0, 1, 5, 4}, // -y
		{2, 6, 7, 3}, // +y
		{0, 4, 6, 2}, // -x
		{1, 3, 7, 5}, // +x
	}
	faces := make([]store.Face, len(faceCycles))
	for fi, cyc := range faceCycles {
		loop := store.Loop{Edges: make([]store.EdgeRef, 4)}
		for k := 0; k < 4; k++ {
			a, b := cyc[k], cyc[(k+1)%4]
			if ei, ok := edgeIndex[[2]int{a, b}]; ok {
				loop.Edges[k] = store.EdgeRef{Edge: ei}
			} else if ei, ok := edgeIndex[[2]int{b, a}]; ok {
				loop.Edges[k] = store.EdgeRef{Edge: ei, Reversed: true}
			} else {
				return store.BRep{}, fmt.Errorf("brep: box face %d step %d has no edge %d-%d", fi, k, a, b)
			}
		}
		faces[fi] = store.Face{Loops: []store.Loop{loop}}
	}

	return store.BRep{Vertices: verts, Edges: edges, Faces: faces}, nil
}

// CircleCurve builds the exact rational quadratic full circle of the given
// radius in the plane z = z, centered on the z axis.
func CircleCurve(radius, z float64) store.Curve {
	r := radius
	w := math.Sqrt2 / 2
	return store.Curve{
		Points: []geom.Vec3{
			{X: r, Y: 0, Z: z}, {X: r, Y: r, Z: z}, {X: 0, Y: r, Z: z},
			{X: -r, Y: r, Z: z}, {X: -r, Y: 0, Z: z}, {X: -r, Y: -r, Z: z},
			{X: 0, Y: -r, Z: z}, {X: r, Y: -r, Z: z}, {X: r, Y: 0, Z: z},
		},
		Weights: []float64{1, w, 1, w, 1, w, 1, w, 1},
		Knots:   []float64{0, 0, 0, 0.25, 0.25, 0.5, 0.5, 0.75, 0.75, 1, 1, 1},
		Degree:  2,
	}
}

// CylinderSurface builds the exact rational side surface of a cylinder:
// the full circle in U, a straight line from z=0 to z=height in V.
func CylinderSurface(radius, height float64) store.Surface {
	bot := CircleCurve(radius, 0)
	top := CircleCurve(radius, height)
	n := len(bot.Points)
	points := make([][]geom.Vec3, n)
	weights := make([][]float64, n)
	for i := 0; i < n; i++ {
		points[i] = []geom.Vec3{bot.Points[i], top.Points[i]}
		weights[i] = []float64{bot.Weights[i], bot.Weights[i]}
	}
	return store.Surface{
		Points:  points,
		Weights: weights,
		KnotsU:  bot.Knots,
		KnotsV:  []float64{0, 0, 1, 1},
		DegreeU: 2,
		DegreeV: 1,
	}
}

// Cylinder builds a cylinder solid of the given radius and height, base at
// z=0 and axis +z. The rim curves and side surface are added to the store
// as referenced records; the returned B-Rep is not itself added.
func Cylinder(st *store.Store, radius, height float64) (store.BRep, error) {
	if radius <= 0 || height <= 0 {
		return store.BRep{}, fmt.Errorf("brep: cylinder radius and height must be positive, got r=%v h=%v", radius, height)
	}
	botID, err := st.Add(CircleCurve(radius, 0))
	if err != nil {
		return store.BRep{}, fmt.Errorf("brep: cylinder bottom rim: %w", err)
	}
	topID, err := st.Add(CircleCurve(radius, height))
	if err != nil {
		return store.BRep{}, fmt.Errorf("brep: cylinder top rim: %w", err)
	}
	sideID, err := st.Add(CylinderSurface(radius, height))
	if err != nil {
		return store.BRep{}, fmt.Errorf("brep: cylinder side: %w", err)
	}

	b := store.BRep{
		Vertices: []store.TopoVertex{
			{Position: geom.Vec3{X: radius, Y: 0, Z: 0}},
			{Position: geom.Vec3{X: radius, Y: 0, Z: height}},
		},
		Edges: []store.TopoEdge{
			{Curve: botID, Start: 0, End: 0}, // bottom rim
			{Curve: topID, Start: 1, End: 1}, // top rim
			{Start: 0, End: 1},               // seam
		},
		Faces: []store.Face{
			// Bottom cap: rim traversed clockwise seen from below = outward -z.
			{Loops: []store.Loop{{Edges: []store.EdgeRef{{Edge: 0, Reversed: true}}}}},
			// Top cap: rim counterclockwise seen from above = outward +z.
			{Loops: []store.Loop{{Edges: []store.EdgeRef{{Edge: 1}}}}},
			// Side wall: bottom rim, up the seam, top rim back, down the seam.
			{Surface: sideID, Loops: []store.Loop{{Edges: []store.EdgeRef{
				{Edge: 0},
				{Edge: 2},
				{Edge: 1, Reversed: true},
				{Edge: 2, Reversed: true},
			}}}},
		},
	}
	return b, nil
}
