// Package geom provides the float64 vector math, tolerance classes, and
// spatial primitives shared by every other kernel package. All comparisons
// in the kernel go through one of the four named epsilon classes defined
// here; ad hoc tolerance literals elsewhere are a bug.
package geom

// The four tolerance classes. Every numeric comparison in the kernel uses
// exactly one of these, chosen by what the comparison means, so behavior is
// consistent across operations sharing a tolerance class.
const (
	// EpsGeometric is for point-coincidence and general geometric tests.
	EpsGeometric = 1e-10

	// EpsNumeric guards divisions and near-zero denominators.
	EpsNumeric = 1e-14

	// EpsAngular is for near-parallel and near-degenerate-angle tests.
	EpsAngular = 1e-8

	// EpsDistance is the user-facing deduplication distance.
	EpsDistance = 1e-6
)
