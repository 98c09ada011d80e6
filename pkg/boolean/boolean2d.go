package boolean

import (
	"math"

	"github.com/camber3d/camber/pkg/geom"
	"github.com/camber3d/camber/pkg/kernel"
	"github.com/camber3d/camber/pkg/store"
)

// Polylines computes the boolean combination of two closed, coplanar
// polylines. Both inputs must lie on a single shared plane; anything else is
// a validation error carrying the offending vertex index. The result is a
// set of closed polylines; when a difference punches a hole, the hole
// contour is wound opposite to its outer contour.
func Polylines(kind kernel.BooleanKind, a, b store.Polyline) ([]store.Polyline, error) {
	if !a.Closed {
		return nil, &InputError{Op: kind.String(), Index: -1, Message: "first polyline is not closed"}
	}
	if !b.Closed {
		return nil, &InputError{Op: kind.String(), Index: -1, Message: "second polyline is not closed"}
	}
	plane, pa, err := projectPlanar(kind.String(), a.Points)
	if err != nil {
		return nil, err
	}
	if idx, ok := plane.ContainsAll(b.Points); !ok {
		return nil, &InputError{Op: kind.String(), Index: idx, Message: "second polyline is off the shared plane"}
	}
	u, v := plane.Basis()
	pb := make([]geom.Vec2, len(b.Points))
	for i, p := range b.Points {
		pb[i] = plane.Project(p, u, v)
	}

	contours := clip(kind, pa, pb)

	out := make([]store.Polyline, 0, len(contours))
	for _, c := range contours {
		if len(c) < 3 {
			continue
		}
		p := store.Polyline{Meta: a.Meta, Closed: true, Points: make([]geom.Vec3, len(c))}
		for i, q := range c {
			p.Points[i] = plane.Unproject(q, u, v)
		}
		out = append(out, p)
	}
	return out, nil
}

// --- Greiner-Hormann clipping ---

// ghNode is one vertex of a doubly linked polygon ring. Intersection nodes
// appear in both rings, cross-linked through neighbor.
type ghNode struct {
	p          geom.Vec2
	prev, next *ghNode
	intersect  bool
	entry      bool
	visited    bool
	neighbor   *ghNode
	alpha      float64
}

// clip combines two simple 2D polygons. The rings are rebuilt per call, so
// the inputs are never mutated.
func clip(kind kernel.BooleanKind, pa, pb []geom.Vec2) [][]geom.Vec2 {
	ringA := buildRing(pa)
	ringB := buildRing(pb)

	if !insertIntersections(ringA, ringB, len(pa), len(pb)) {
		return disjointResult(kind, pa, pb)
	}

	// Entry/exit flags alternate along each ring, seeded by whether the
	// ring's first vertex starts inside the other polygon.
	markEntries(ringA, pb)
	markEntries(ringB, pa)

	// Operation selection by flag inversion.
	switch kind {
	case kernel.BooleanUnion:
		invertEntries(ringA)
		invertEntries(ringB)
	case kernel.BooleanDifference:
		invertEntries(ringA)
	}

	var out [][]geom.Vec2
	for start := nextUnvisited(ringA); start != nil; start = nextUnvisited(ringA) {
		var contour []geom.Vec2
		node := start
		for {
			node.visited = true
			node.neighbor.visited = true
			if node.entry {
				for {
					contour = append(contour, node.p)
					node = node.next
					if node.intersect {
						break
					}
				}
			} else {
				for {
					contour = append(contour, node.p)
					node = node.prev
					if node.intersect {
						break
					}
				}
			}
			node.visited = true
			node.neighbor.visited = true
			node = node.neighbor
			if node == start || node.neighbor == start {
				break
			}
		}
		out = append(out, dedupe(contour))
	}
	return out
}

// buildRing makes a circular doubly linked list from the polygon vertices.
func buildRing(pts []geom.Vec2) *ghNode {
	var first, last *ghNode
	for _, p := range pts {
		n := &ghNode{p: p}
		if first == nil {
			first = n
		} else {
			last.next = n
			n.prev = last
		}
		last = n
	}
	last.next = first
	first.prev = last
	return first
}

// insertIntersections finds proper edge crossings between the two rings and
// splices cross-linked nodes into both. Returns false when the polygons do
// not cross at all.
func insertIntersections(ringA, ringB *ghNode, na, nb int) bool {
	found := false
	a := ringA
	for i := 0; i < na; i++ {
		aNext := nextOriginal(a)
		b := ringB
		for j := 0; j < nb; j++ {
			bNext := nextOriginal(b)
			if ta, tb, ok := segIntersect(a.p, aNext.p, b.p, bNext.p); ok {
				p := a.p.Add(aNext.p.Sub(a.p).Scale(ta))
				ia := &ghNode{p: p, intersect: true, alpha: ta}
				ib := &ghNode{p: p, intersect: true, alpha: tb}
				ia.neighbor, ib.neighbor = ib, ia
				spliceByAlpha(a, aNext, ia)
				spliceByAlpha(b, bNext, ib)
				found = true
			}
			b = bNext
		}
		a = aNext
	}
	return found
}

// nextOriginal skips over already inserted intersection nodes.
func nextOriginal(n *ghNode) *ghNode {
	m := n.next
	for m.intersect {
		m = m.next
	}
	return m
}

// spliceByAlpha inserts node between a and b, keeping intersection nodes on
// the same original edge ordered by their parameter.
func spliceByAlpha(a, b, node *ghNode) {
	left := a
	for left.next != b && left.next.alpha < node.alpha {
		left = left.next
	}
	node.next = left.next
	node.prev = left
	left.next.prev = node
	left.next = node
}

// segIntersect intersects two segments, accepting only proper crossings:
// touches at endpoints (within the geometric epsilon of the parameter range)
// are ignored so grazing contact does not produce sliver contours.
func segIntersect(a0, a1, b0, b1 geom.Vec2) (ta, tb float64, ok bool) {
	da := a1.Sub(a0)
	db := b1.Sub(b0)
	denom := da.Cross(db)
	if math.Abs(denom) < geom.EpsNumeric {
		return 0, 0, false
	}
	d := b0.Sub(a0)
	ta = d.Cross(db) / denom
	tb = d.Cross(da) / denom
	if ta <= geom.EpsGeometric || ta >= 1-geom.EpsGeometric {
		return 0, 0, false
	}
	if tb <= geom.EpsGeometric || tb >= 1-geom.EpsGeometric {
		return 0, 0, false
	}
	return ta, tb, true
}

// markEntries seeds and alternates the entry flag along a ring based on
// whether the ring starts inside the other polygon.
func markEntries(ring *ghNode, other []geom.Vec2) {
	entry := !pointInPolygon(ring.p, other)
	for n := ring.next; ; n = n.next {
		if n.intersect {
			n.entry = entry
			entry = !entry
		}
		if n == ring {
			break
		}
	}
}

func invertEntries(ring *ghNode) {
	n := ring
	for {
		if n.intersect {
			n.entry = !n.entry
		}
		n = n.next
		if n == ring {
			break
		}
	}
}

func nextUnvisited(ring *ghNode) *ghNode {
	n := ring
	for {
		if n.intersect && !n.visited {
			return n
		}
		n = n.next
		if n == ring {
			return nil
		}
	}
}

// pointInPolygon is the even-odd crossing test.
func pointInPolygon(p geom.Vec2, poly []geom.Vec2) bool {
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := poly[i], poly[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) {
			x := pj.X + (p.Y-pj.Y)/(pi.Y-pj.Y)*(pi.X-pj.X)
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// disjointResult resolves the no-crossing cases by containment.
func disjointResult(kind kernel.BooleanKind, pa, pb []geom.Vec2) [][]geom.Vec2 {
	aInB := pointInPolygon(pa[0], pb)
	bInA := pointInPolygon(pb[0], pa)
	switch kind {
	case kernel.BooleanUnion:
		switch {
		case aInB:
			return [][]geom.Vec2{pb}
		case bInA:
			return [][]geom.Vec2{pa}
		default:
			return [][]geom.Vec2{pa, pb}
		}
	case kernel.BooleanIntersection:
		switch {
		case aInB:
			return [][]geom.Vec2{pa}
		case bInA:
			return [][]geom.Vec2{pb}
		default:
			return nil
		}
	default: // difference
		switch {
		case aInB:
			return nil
		case bInA:
			// B punches a hole: emit it wound opposite to A.
			return [][]geom.Vec2{pa, reverse2(pb)}
		default:
			return [][]geom.Vec2{pa}
		}
	}
}

func reverse2(pts []geom.Vec2) []geom.Vec2 {
	out := make([]geom.Vec2, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}
