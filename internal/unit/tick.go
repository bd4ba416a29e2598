package unit

import (
	"math"

	"mud-platform-backend/internal/geomath"
	"mud-platform-backend/internal/obstacle"
	"mud-platform-backend/internal/path"
	"mud-platform-backend/internal/terrain"
)

// Dependencies bundles the two external oracles a unit's tick needs. Both
// are pure functions of their own construction-time seed (spec.md Sec.5);
// Unit never stores a reference to either, so the same Unit value can be
// ticked against different oracle implementations in tests.
type Dependencies struct {
	Terrain  terrain.Oracle
	Obstacle obstacle.Oracle
}

const maxTurnSpeed = 2.0 // rad/s, manual-control turning

// Tick advances the unit by one fixed simulation step, in the order fixed
// by spec.md Sec.4.1. Divergence in this order changes outcomes, so it is
// not reordered for convenience; the only deliberate deviation is that
// keyboard-override arbitration runs before path following rather than
// after it, honoring spec.md Sec.4.4's "pre-empts path following within
// the same tick."
func (u *Unit) Tick(dt float64, in Input, deps Dependencies) {
	u.periodicObstacleScan(dt, deps)
	u.updateSpeedFactor(dt, in)
	moveSpeed := u.applySlopeModulation(dt, deps)
	bounceLocked := u.stepBounce(dt, deps.Terrain)
	u.updateStuckDetection(dt)

	if u.HasWaitTimer > 0 {
		u.HasWaitTimer -= dt
		return
	}

	u.updateSafetyAntiBlock(dt, bounceLocked)

	waterDampen, waterLocked := u.stepWater(dt, deps.Terrain)
	if bounceLocked || waterLocked {
		return
	}

	manual := u.stepKeyboard(dt, in)

	prevPathIndex := u.PathIndex
	budget := moveSpeed * u.SpeedFactor * waterDampen * dt
	if !manual {
		if u.Transition.Active {
			consumed, _ := u.stepTransition(budget)
			budget -= consumed
		} else if u.IsFollowingPath && u.HasPath() && budget > 0 {
			u.followMainPath(budget, dt, deps)
		}
	}

	u.detectWaypointArrival(prevPathIndex)
	u.updateLookAheadSteering()
	u.updateOrientation(dt)

	if manual {
		u.manualMotionIntegration(dt, in, deps)
	}

	u.snapToTerrain(deps)
}

func (u *Unit) updateSpeedFactor(dt float64, in Input) {
	target := 1.0
	if u.PausedByCommand || in.Hovered {
		target = 0
	}
	k := 1.8
	if target < u.SpeedFactor {
		k = 2.5
	}
	t := geomath.Clamp(dt*k, 0, 1)
	u.SpeedFactor = geomath.Lerp(u.SpeedFactor, target, t)
}

// applySlopeModulation returns the slope-modulated moveSpeed and applies the
// cross-slope downhill drift directly to position (spec.md Sec.4.1 step 3).
func (u *Unit) applySlopeModulation(dt float64, deps Dependencies) float64 {
	normal := u.Position.Normalized()
	terrainNormal := deps.Terrain.NormalAt(u.Position)

	moveSpeed := u.MoveSpeed * geomath.SlopeLongitudinalFactor(u.VelocityDirection, normal)

	downhill := geomath.DownhillTangent(terrainNormal, normal)
	if downhill.Length() < 1e-6 {
		return moveSpeed
	}
	steepness := geomath.Clamp(1-terrainNormal.Dot(normal), 0, 1)
	crossSlopeFactor := geomath.Clamp(1-math.Abs(u.VelocityDirection.Dot(downhill)), 0, 1)
	driftStrength := steepness * crossSlopeFactor * 0.3 * dt * moveSpeed
	if driftStrength > 1e-9 {
		radius := deps.Terrain.RadiusAt(normal) + u.GroundOffset
		u.Position = geomath.MoveAlongGreatCircle(u.Position, downhill, driftStrength, radius)
	}
	return moveSpeed
}

func (u *Unit) updateStuckDetection(dt float64) {
	u.stuckCheckClock += dt
	if u.stuckCheckClock < 0.2 {
		return
	}
	u.stuckCheckClock = 0
	disp := u.Position.Sub(u.lastStuckCheckPos).Length()
	if disp < 0.1 && u.IsFollowingPath {
		u.stuckTimer += 0.2
	} else {
		u.stuckTimer = 0
	}
	u.IsStuck = u.stuckTimer >= 1.5
	u.lastStuckCheckPos = u.Position
}

// updateSafetyAntiBlock clears any blocking sub-state once the unit has
// been stuck with a live blocking flag for more than 3 seconds (spec.md
// Sec.4.1 step 7), preventing a wedged unit from permanently stalling.
func (u *Unit) updateSafetyAntiBlock(dt float64, bounceLocked bool) {
	blocking := u.PausedByCommand || bounceLocked || u.Transition.Active || u.Water.State != WaterNormal
	nearZeroVelocity := u.VelocityDirection.Length() < 1e-6 || u.SpeedFactor < 0.02

	if u.IsFollowingPath && blocking && nearZeroVelocity {
		u.blockingFlagTimer += dt
	} else {
		u.blockingFlagTimer = 0
	}

	if u.blockingFlagTimer > 3.0 {
		u.PausedByCommand = false
		u.Bounce.Velocity = 0
		u.Bounce.HasDir = false
		u.cancelTransition()
		u.Water.State = WaterNormal
		u.IsBlocked = true
		u.blockingFlagTimer = 0
		return
	}
	u.IsBlocked = false
}

// periodicObstacleScan looks a fixed window ahead on the built path for a
// point that has become forbidden (underwater for a non-swimmer, or inside
// a rock) and, if found, triggers a rejoin-arc replan around it. The scan
// interval is staggered per unit via its own RNG substream so that many
// units scanning a shared terrain don't all do it on the same tick (spec.md
// Sec.4.1 step 1).
func (u *Unit) periodicObstacleScan(dt float64, deps Dependencies) {
	u.obstacleScanClock -= dt
	if u.obstacleScanClock > 0 {
		return
	}
	u.obstacleScanClock = u.RNG.StaggerInterval(3.0, 1.0/3.0)

	if !u.IsFollowingPath || u.Transition.Active || len(u.Path) == 0 {
		return
	}

	const lookahead = 30
	end := u.PathIndex + lookahead
	if end > len(u.Path) {
		end = len(u.Path)
	}

	forbiddenAt := -1
	for i := u.PathIndex; i < end; i++ {
		p := u.Path[i].Position
		if !u.Capabilities.canEnterWater() && isUnderwater(p, deps.Terrain) {
			forbiddenAt = i
			break
		}
		if zc, ok := deps.Obstacle.(obstacle.ZoneChecker); ok && zc.Contains(p) {
			forbiddenAt = i
			break
		}
	}
	if forbiddenAt < 0 {
		return
	}

	rejoinIdx := forbiddenAt + 10
	if rejoinIdx >= len(u.Path) {
		rejoinIdx = len(u.Path) - 1
	}
	arc := path.BuildRejoinArc(u.Position, u.VelocityDirection, u.Path, rejoinIdx, deps.Terrain, u.GroundOffset, u.Capabilities.canEnterWater())
	if arc.Dropped {
		u.PathIndex = rejoinIdx
		return
	}
	u.beginTransition(arc.Points)
	u.PathIndex = rejoinIdx
}

// tangentCurvatureFactor brakes the unit ahead of sharp turns by comparing
// the path tangent at the current index against the tangent ~1s further
// along, sharpening the brake when curvature is increasing (spec.md Sec.4.1
// step 9).
func (u *Unit) tangentCurvatureFactor() float64 {
	if len(u.Path) < 2 || u.PathIndex >= len(u.Path)-1 {
		return 1.0
	}
	curTangent := u.Path[u.PathIndex+1].Position.Sub(u.Path[u.PathIndex].Position).Normalized()

	aheadIdx := u.PathIndex + 20
	if aheadIdx >= len(u.Path) {
		if u.IsPathClosed || u.LoopingEnabled {
			aheadIdx %= len(u.Path)
		} else {
			aheadIdx = len(u.Path) - 1
		}
	}
	aheadNextIdx := aheadIdx + 1
	if aheadNextIdx >= len(u.Path) {
		if u.IsPathClosed || u.LoopingEnabled {
			aheadNextIdx %= len(u.Path)
		} else {
			aheadNextIdx = aheadIdx
		}
	}
	aheadTangent := u.Path[aheadNextIdx].Position.Sub(u.Path[aheadIdx].Position).Normalized()

	dot := curTangent.Dot(aheadTangent)
	dotPositive := math.Max(dot, 0)
	decreasing := dot < u.lastTangentDot
	u.lastTangentDot = dot

	exponent := 0.5
	if decreasing {
		exponent = 1.5
	}
	return math.Pow(dotPositive, exponent)
}

// followMainPath consumes up to budget meters walking toward successive
// path points, checking each proposed move against the rock oracle before
// committing it (spec.md Sec.4.1 steps 9 and 16).
func (u *Unit) followMainPath(budget, dt float64, deps Dependencies) {
	if budget <= 0 || len(u.Path) == 0 {
		return
	}
	remaining := budget * u.tangentCurvatureFactor()

	for remaining > 1e-9 {
		if u.PathIndex >= len(u.Path) {
			if u.IsPathClosed || u.LoopingEnabled {
				u.PathIndex = 0
			} else {
				u.PathIndex = len(u.Path)
				break
			}
		}
		target := u.Path[u.PathIndex].Position
		toTarget := target.Sub(u.Position)
		dist := toTarget.Length()
		if dist < 1e-6 {
			u.PathIndex++
			continue
		}
		dir := toTarget.Normalized()
		step := math.Min(remaining, dist)
		radius := deps.Terrain.RadiusAt(u.Position.Normalized()) + u.GroundOffset
		proposed := geomath.MoveAlongGreatCircle(u.Position, dir, step, radius)
		u.applyMoveWithCollision(proposed, dir, step, dt, deps)
		remaining -= step
		if step >= dist-1e-9 {
			u.PathIndex++
		} else {
			break
		}
	}
}

// applyMoveWithCollision checks a proposed move against the rock oracle
// (spec.md Sec.4.1 step 16) and either commits the (possibly slid) result
// or triggers the bounce sub-machine on a hard collision. A non-finite
// proposal is rejected outright, leaving the unit at its prior pose
// (spec.md Sec.7).
func (u *Unit) applyMoveWithCollision(proposed, dir geomath.Vec3, dist, dt float64, deps Dependencies) {
	if !proposed.IsFinite() {
		return
	}
	result := deps.Obstacle.CheckAndSlide(u.Position, proposed)
	if result.Collided {
		u.triggerBounce(dir, dist, dt)
		return
	}
	u.Position = reprojectOntoTerrain(result.Position, deps.Terrain, u.GroundOffset)
}

// detectWaypointArrival fires event-sourced waypoint-arrival updates when
// pathIndex crosses a waypoint's recorded index this tick (spec.md Sec.4.1
// step 10): lastWaypointId, targetWaypointId and visitCount are all derived
// from this crossing, never polled by proximity.
func (u *Unit) detectWaypointArrival(prevIdx int) {
	if len(u.Waypoints) == 0 {
		return
	}
	wrapping := u.IsPathClosed || u.LoopingEnabled
	for _, wp := range u.Waypoints {
		idx, ok := u.PathSegmentIndices[wp.ID]
		if !ok {
			continue
		}
		var crossed bool
		if wrapping {
			crossed = wrapCrossed(prevIdx, u.PathIndex, idx, len(u.Path))
		} else {
			crossed = prevIdx < idx && idx <= u.PathIndex
		}
		if !crossed {
			continue
		}
		u.LastWaypointID = wp.ID
		for i := range u.Waypoints {
			if u.Waypoints[i].ID == wp.ID {
				u.Waypoints[i].VisitCount++
			}
		}
		u.advanceTargetWaypoint(wp.ID)
	}
}

func wrapCrossed(prevIdx, curIdx, arrivalIdx, pathLen int) bool {
	if pathLen == 0 {
		return false
	}
	if curIdx >= prevIdx {
		return prevIdx < arrivalIdx && arrivalIdx <= curIdx
	}
	return arrivalIdx > prevIdx || arrivalIdx <= curIdx
}

func (u *Unit) advanceTargetWaypoint(arrivedID string) {
	for i, wp := range u.Waypoints {
		if wp.ID != arrivedID {
			continue
		}
		next := i + 1
		if next >= len(u.Waypoints) {
			if u.IsPathClosed || u.LoopingEnabled {
				next = 0
			} else {
				u.TargetWaypointID = ""
				return
			}
		}
		u.TargetWaypointID = u.Waypoints[next].ID
		return
	}
}

// updateLookAheadSteering blends the tangents of the next 8 path points,
// weighting nearer points more heavily, into velocityDirection (spec.md
// Sec.4.1 step 11). This smooths heading through corners instead of
// snapping to each segment's exact tangent.
func (u *Unit) updateLookAheadSteering() {
	if len(u.Path) == 0 || !u.IsFollowingPath {
		return
	}
	wrapping := u.IsPathClosed || u.LoopingEnabled
	sum := geomath.Vec3{}
	for i := 0; i < 8; i++ {
		idx := u.PathIndex + i
		if idx >= len(u.Path) {
			if !wrapping {
				break
			}
			idx %= len(u.Path)
		}
		nextIdx := idx + 1
		if nextIdx >= len(u.Path) {
			if !wrapping {
				continue
			}
			nextIdx %= len(u.Path)
		}
		dir := u.Path[nextIdx].Position.Sub(u.Path[idx].Position).Normalized()
		weight := 1.0 / (1.0 + 0.5*float64(i))
		sum = sum.Add(dir.Scale(weight))
	}
	if sum.Length() > 1e-9 {
		u.VelocityDirection = sum.Normalized()
	}
}

// updateOrientation re-derives the heading quaternion from the current
// tangent basis, slerping toward it rather than snapping, then re-locks the
// vertical axis to the current sphere normal (spec.md Sec.4.1 step 12).
func (u *Unit) updateOrientation(dt float64) {
	normal := u.Position.Normalized()
	right, up, forward := geomath.TangentBasis(normal, u.VelocityDirection)
	target := geomath.QuatFromBasis(right, up, forward)
	factor := geomath.SlerpFactorFromDecay(0.002, dt)
	u.HeadingQuaternion = geomath.Slerp(u.HeadingQuaternion, target, factor)
	u.HeadingQuaternion = geomath.AlignUpAxis(u.HeadingQuaternion, normal)
}

// manualMotionIntegration applies keyboard-driven turning and forward
// motion, parallel-transporting heading across the sphere as the unit moves
// (spec.md Sec.4.1 steps 13-14).
func (u *Unit) manualMotionIntegration(dt float64, in Input, deps Dependencies) {
	normal := u.Position.Normalized()

	if in.TurnInput != 0 {
		targetTurn := in.TurnInput * maxTurnSpeed
		u.CurrentTurnSpeed = geomath.Lerp(u.CurrentTurnSpeed, targetTurn, geomath.Clamp(dt*4, 0, 1))
	} else {
		u.CurrentTurnSpeed = geomath.Lerp(u.CurrentTurnSpeed, 0, geomath.Clamp(dt*4, 0, 1))
	}
	if u.CurrentTurnSpeed != 0 {
		rot := geomath.FromAxisAngle(normal, u.CurrentTurnSpeed*dt)
		u.HeadingQuaternion = rot.Mul(u.HeadingQuaternion)
	}

	if in.MoveForward == 0 {
		return
	}

	_, _, forward := geomath.TangentBasis(normal, u.HeadingQuaternion.RotateVec3(geomath.Vec3{Z: 1}))
	dist := in.MoveForward * u.MoveSpeed * u.SpeedFactor * dt
	radius := deps.Terrain.RadiusAt(normal) + u.GroundOffset

	proposed := geomath.MoveAlongGreatCircle(u.Position, forward, dist, radius)
	u.applyMoveWithCollision(proposed, forward, math.Abs(dist), dt, deps)

	newNormal := u.Position.Normalized()
	u.HeadingQuaternion = geomath.ParallelTransport(u.HeadingQuaternion, normal, newNormal)
	u.VelocityDirection = forward
}

// snapToTerrain re-projects the unit onto the terrain when nothing else
// this tick already guaranteed it (spec.md Sec.4.1 step 15): path-follow and
// transition-arc movement project every sample already, so this only
// matters for idle units and keeps the terrain-lock invariant universal.
func (u *Unit) snapToTerrain(deps Dependencies) {
	if u.IsFollowingPath || u.Transition.Active {
		return
	}
	u.Position = reprojectOntoTerrain(u.Position, deps.Terrain, u.GroundOffset)
}
