// Package obstacle defines the external Rock Collision Oracle interface
// (spec.md Sec.6, C4) and a concrete seeded rock-field reference implementation
// grounded on internal/spatial's bounds-checking idiom.
package obstacle

import "mud-platform-backend/internal/geomath"

// SlideResult is the outcome of a proposed move against the rock field.
type SlideResult struct {
	Position  geomath.Vec3
	Collided  bool
	BounceDir geomath.Vec3 // only meaningful when Collided
	HasBounce bool
}

// Oracle is the read-only surface the unit state machine queries when
// checking a proposed move against rock obstacles.
type Oracle interface {
	// CheckAndSlide slides the move from->to along any obstacle tangent
	// where possible, or reports a hard collision that stops motion.
	CheckAndSlide(from, to geomath.Vec3) SlideResult
}

// ZoneChecker is an optional Oracle capability letting the periodic
// obstacle scan (spec.md Sec.4.1 step 1) classify an upcoming path point as
// forbidden before the unit ever reaches it, rather than waiting for a
// CheckAndSlide collision. Not every Oracle implementation needs to support
// it; GridField does.
type ZoneChecker interface {
	Contains(point geomath.Vec3) bool
}
