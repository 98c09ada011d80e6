package brep

import (
	"fmt"

	"github.com/camber3d/camber/pkg/geom"
	"github.com/camber3d/camber/pkg/store"
)

// ValidationError describes a single topology validation finding, carrying
// the offending face/edge/loop indices (-1 when not applicable) so callers
// can decide whether to abort or repair.
type ValidationError struct {
	Code    string
	Message string
	Face    int
	Edge    int
	Loop    int
}

func (e ValidationError) Error() string {
	ctx := ""
	if e.Face >= 0 {
		ctx += fmt.Sprintf(" face=%d", e.Face)
	}
	if e.Loop >= 0 {
		ctx += fmt.Sprintf(" loop=%d", e.Loop)
	}
	if e.Edge >= 0 {
		ctx += fmt.Sprintf(" edge=%d", e.Edge)
	}
	return fmt.Sprintf("%s: %s%s", e.Code, e.Message, ctx)
}

func verr(code, msg string, face, loop, edge int) ValidationError {
	return ValidationError{Code: code, Message: msg, Face: face, Loop: loop, Edge: edge}
}

// Validate runs all topology checks on a B-Rep. An empty result means the
// topology describes a valid solid. Read-only.
func Validate(b store.BRep) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateLoopContinuity(b)...)
	errs = append(errs, validateEdgeUse(b)...)
	errs = append(errs, validateWinding(b)...)
	return errs
}

// IsValidSolid reports whether the B-Rep passes all validation checks.
func IsValidSolid(b store.BRep) bool {
	return len(Validate(b)) == 0
}

// validateLoopContinuity checks that consecutive oriented edges in each loop
// chain head-to-tail, including the wrap from last to first.
func validateLoopContinuity(b store.BRep) []ValidationError {
	var errs []ValidationError
	for fi, f := range b.Faces {
		for li, loop := range f.Loops {
			n := len(loop.Edges)
			for k, er := range loop.Edges {
				next := loop.Edges[(k+1)%n]
				if endVertex(b, er) != startVertex(b, next) {
					errs = append(errs, verr("LOOP_BROKEN",
						fmt.Sprintf("edge %d ends at vertex %d but next edge starts at vertex %d",
							er.Edge, endVertex(b, er), startVertex(b, next)),
						fi, li, er.Edge))
				}
			}
		}
	}
	return errs
}

// validateEdgeUse checks solid closure: every edge is used exactly twice
// across all loops, once in each orientation. An edge used once is an open
// shell boundary; more than twice is non-manifold.
func validateEdgeUse(b store.BRep) []ValidationError {
	forward := make([]int, len(b.Edges))
	reverse := make([]int, len(b.Edges))
	for _, f := range b.Faces {
		for _, loop := range f.Loops {
			for _, er := range loop.Edges {
				if er.Reversed {
					reverse[er.Edge]++
				} else {
					forward[er.Edge]++
				}
			}
		}
	}
	var errs []ValidationError
	for ei := range b.Edges {
		total := forward[ei] + reverse[ei]
		switch {
		case total == 0:
			errs = append(errs, verr("EDGE_UNUSED", "edge belongs to no loop", -1, -1, ei))
		case total != 2:
			errs = append(errs, verr("EDGE_NONMANIFOLD",
				fmt.Sprintf("edge used %d times, want exactly 2", total), -1, -1, ei))
		case forward[ei] != 1:
			errs = append(errs, verr("EDGE_ORIENTATION",
				fmt.Sprintf("edge used twice in the same direction (%d forward, %d reversed); adjacent faces are inconsistently wound", forward[ei], reverse[ei]),
				-1, -1, ei))
		}
	}
	return errs
}

// validateWinding checks global orientation via the divergence theorem:
// when every loop is a straight-edge polygon, the signed volume of the face
// fans must be positive for outward winding. Solids with curved edges are
// covered by the edge-orientation parity check instead.
func validateWinding(b store.BRep) []ValidationError {
	volume := 0.0
	for _, f := range b.Faces {
		for _, loop := range f.Loops {
			pts := make([]geom.Vec3, 0, len(loop.Edges))
			for _, er := range loop.Edges {
				if !b.Edges[er.Edge].Curve.IsZero() {
					return nil // curved edge: straight-polygon volume is meaningless
				}
				pts = append(pts, b.Vertices[startVertex(b, er)].Position)
			}
			if len(pts) < 3 {
				return nil
			}
			for i := 1; i+1 < len(pts); i++ {
				volume += pts[0].Dot(pts[i].Cross(pts[i+1])) / 6
			}
		}
	}
	if volume < geom.EpsGeometric {
		return []ValidationError{verr("WINDING_INWARD",
			fmt.Sprintf("signed volume %v is not positive; loops wind inward or the shell is degenerate", volume),
			-1, -1, -1)}
	}
	return nil
}

func startVertex(b store.BRep, er store.EdgeRef) int {
	if er.Reversed {
		return b.Edges[er.Edge].End
	}
	return b.Edges[er.Edge].Start
}

func endVertex(b store.BRep, er store.EdgeRef) int {
	if er.Reversed {
		return b.Edges[er.Edge].Start
	}
	return b.Edges[er.Edge].End
}
