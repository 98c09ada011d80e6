package hittest

import (
	"context"

	"github.com/camber3d/camber/pkg/geom"
)

// pickStack remembers the ordered hits of the most recent query so repeated
// picks along an unchanged ray cycle through overlapping geometry.
type pickStack struct {
	valid    bool
	ray      geom.Ray
	pixelTol float64
	mode     Mode
	hits     []Hit
	cursor   int
}

// matches reports whether a query continues the current stack. Any ray
// movement, tolerance change, or mode change starts a fresh stack.
func (p *pickStack) matches(ray geom.Ray, pixelTol float64, mode Mode) bool {
	return p.valid && p.mode == mode && p.pixelTol == pixelTol && p.ray.Eq(ray)
}

// Pick returns one hit for the query. The first call along a ray returns the
// nearest hit; repeating the identical query advances to the next-deeper hit,
// wrapping back to the nearest after the farthest. Moving the ray resets the
// cycle. ok is false when nothing is under the ray.
func (e *Engine) Pick(ctx context.Context, ray geom.Ray, pixelTol float64, mode Mode) (Hit, bool, error) {
	if e.stack.matches(ray, pixelTol, mode) {
		if len(e.stack.hits) == 0 {
			return Hit{}, false, nil
		}
		e.stack.cursor = (e.stack.cursor + 1) % len(e.stack.hits)
		return e.stack.hits[e.stack.cursor], true, nil
	}

	hits, err := e.Intersect(ctx, ray, pixelTol, mode)
	if err != nil {
		return Hit{}, false, err
	}
	e.stack = pickStack{
		valid:    true,
		ray:      ray,
		pixelTol: pixelTol,
		mode:     mode,
		hits:     hits,
	}
	if len(hits) == 0 {
		return Hit{}, false, nil
	}
	return hits[0], true, nil
}

// ResetPick drops the cycling state; the next Pick re-queries from scratch.
func (e *Engine) ResetPick() {
	e.stack = pickStack{}
}
