package unit

import (
	"math"

	"mud-platform-backend/internal/geomath"
	"mud-platform-backend/internal/terrain"
)

// waterMachine implements spec.md Sec.4.3's table: normal -> slowing ->
// shore_exit -> normal. The recovering state is stepped when set, but no
// transition here enters it.
type waterMachine struct {
	State            WaterState
	SlowdownFactor   float64
	ShoreExitTimer   float64
	RecoveringT      float64 // 0..0.5s elapsed since recovering began
	recoverVelocity0 float64
}

func depthAt(point geomath.Vec3, oracle terrain.Oracle) float64 {
	dir := point.Normalized()
	return math.Max(0, oracle.BaseRadius()+oracle.WaterLevel()-oracle.RadiusAt(dir))
}

func isUnderwater(point geomath.Vec3, oracle terrain.Oracle) bool {
	return depthAt(point, oracle) > 0.05
}

// step advances the water sub-machine by dt and returns:
//   - inputDampen: multiplier applied to movement input this tick
//   - locked: whether path/keyboard input should be ignored this tick
func (u *Unit) stepWater(dt float64, oracle terrain.Oracle) (inputDampen float64, locked bool) {
	w := &u.Water
	underwater := isUnderwater(u.Position, oracle) && !u.Capabilities.canEnterWater()

	switch w.State {
	case WaterNormal:
		if underwater {
			w.State = WaterSlowing
			w.SlowdownFactor = 1.0
		}
		return 1.0, false

	case WaterSlowing:
		w.SlowdownFactor -= dt * 2.5
		if w.SlowdownFactor <= 0.05 {
			w.State = WaterShoreExit
			w.ShoreExitTimer = 0
			return 0, true
		}
		return math.Max(0, w.SlowdownFactor), false

	case WaterShoreExit:
		w.ShoreExitTimer += dt
		u.shoreExitStep(dt, oracle)
		if !isUnderwater(u.Position, oracle) || w.ShoreExitTimer >= 3.0 {
			w.State = WaterNormal
			w.SlowdownFactor = 1.0
		}
		return 0, true

	case WaterRecovering:
		w.RecoveringT += dt
		frac := geomath.Clamp(w.RecoveringT/0.5, 0, 1)
		u.SpeedFactor = geomath.Lerp(w.recoverVelocity0, 0, frac)
		if u.SpeedFactor <= 0.05 {
			w.State = WaterNormal
			if u.HasPath() {
				u.IsFollowingPath = true
			}
		}
		return 0, true
	}
	return 1.0, false
}

// shoreExitStep samples 8 tangent directions at a 0.5m offset and moves
// toward the one maximizing terrain radius (spec.md Sec.4.3).
func (u *Unit) shoreExitStep(dt float64, oracle terrain.Oracle) {
	normal := u.Position.Normalized()
	_, up, fwd := geomath.TangentBasis(normal, u.VelocityDirection)
	right := up.Cross(fwd)

	best := fwd
	bestRadius := math.Inf(-1)
	const offset = 0.5
	for i := 0; i < 8; i++ {
		angle := 2 * math.Pi * float64(i) / 8
		dir := fwd.Scale(math.Cos(angle)).Add(right.Scale(math.Sin(angle))).Normalized()
		sample := u.Position.Add(dir.Scale(offset))
		sampleDir := sample.Normalized()
		r := oracle.RadiusAt(sampleDir)
		if r > bestRadius {
			bestRadius = r
			best = dir
		}
	}

	const speed = 3.0
	moved := geomath.MoveAlongGreatCircle(u.Position, best, speed*dt, oracle.RadiusAt(u.Position.Normalized())+u.GroundOffset)
	u.Position = moved
	u.VelocityDirection = best
}
