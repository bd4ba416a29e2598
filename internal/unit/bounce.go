package unit

import (
	"math"

	"mud-platform-backend/internal/geomath"
	"mud-platform-backend/internal/terrain"
)

// bounceMachine implements the rock-bounce sub-machine (spec.md Sec.4.1
// step 4 / step 16, Sec.4 summary table): idle -> bouncing -> idle.
type bounceMachine struct {
	Velocity  float64
	Direction geomath.Vec3
	HasDir    bool
	Cooldown  float64
	LockTimer float64
}

func (b *bounceMachine) active() bool {
	return b.Velocity > 0.05
}

// step advances the bounce machine by dt, moving the unit along
// bounceDirection and decaying velocity. Returns whether input should be
// locked this tick.
func (u *Unit) stepBounce(dt float64, oracle terrain.Oracle) (locked bool) {
	b := &u.Bounce
	if b.Cooldown > 0 {
		b.Cooldown -= dt
	}
	if !b.active() {
		b.Velocity = 0
		b.LockTimer = 0
		return false
	}

	b.LockTimer += dt
	dir := b.Direction
	if !b.HasDir {
		dir = u.VelocityDirection.Scale(-1)
	}

	moved := geomath.MoveAlongGreatCircle(u.Position, dir, b.Velocity*dt, oracle.RadiusAt(u.Position.Normalized())+u.GroundOffset)
	u.Position = reprojectOntoTerrain(moved, oracle, u.GroundOffset)

	b.Velocity *= math.Exp(-5 * dt)
	if b.LockTimer >= 2.0 || b.Velocity < 0.05 {
		b.Velocity = 0
		b.HasDir = false
		b.LockTimer = 0
		return false
	}
	return true
}

// triggerBounce starts a bounce from a hard rock collision (spec.md
// Sec.4.1 step 16).
func (u *Unit) triggerBounce(moveDir geomath.Vec3, dist, dt float64) {
	u.Bounce.Direction = moveDir.Scale(-1)
	u.Bounce.HasDir = true
	speed := 0.0
	if dt > 1e-9 {
		speed = math.Abs(dist) / dt * 0.2
	}
	u.Bounce.Velocity = speed
	u.Bounce.Cooldown = 0.5
}

func reprojectOntoTerrain(p geomath.Vec3, oracle terrain.Oracle, groundOffset float64) geomath.Vec3 {
	dir := p.Normalized()
	if dir.Length() < 1e-9 {
		return p
	}
	return dir.Scale(oracle.RadiusAt(dir) + groundOffset)
}
