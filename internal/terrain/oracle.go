// Package terrain defines the external Terrain Oracle interface (spec.md
// Sec.6, C3) and ships one concrete, seeded, pure implementation used by
// tests and standalone/local play. The production renderer owns its own
// procedural terrain generator out of process; the sim core only ever talks
// to the Oracle interface.
package terrain

import "mud-platform-backend/internal/geomath"

// Oracle is the read-only surface the unit state machine and path builder
// query every tick. Implementations must be pure functions of their
// construction-time seed (spec.md Sec.5: "oracles are pure functions of
// configuration seeds").
type Oracle interface {
	// RadiusAt returns the terrain radius along unit direction dir.
	RadiusAt(dir geomath.Vec3) float64
	// NormalAt returns the terrain surface normal at point (not necessarily
	// equal to point.Normalized(), since terrain is not a perfect sphere).
	NormalAt(point geomath.Vec3) geomath.Vec3
	// WaterLevel is the elevation (relative to BaseRadius) below which a
	// point is considered underwater.
	WaterLevel() float64
	// BaseRadius is the nominal sphere radius before terrain displacement.
	BaseRadius() float64
}
