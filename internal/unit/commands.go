package unit

import (
	"context"

	"mud-platform-backend/internal/cache"
	"mud-platform-backend/internal/geomath"
	"mud-platform-backend/internal/path"
	"mud-platform-backend/internal/terrain"
)

// pathCache memoizes path.Build results across rebuilds, set once at
// process startup via SetPathCache. Nil (the default, and always the case
// in tests) means every rebuild samples the terrain oracle directly.
var pathCache *cache.PathBuildCache

// pathCacheSeed scopes pathCache entries to the terrain seed in use; set
// alongside pathCache.
var pathCacheSeed int64

// SetPathCache wires a shared PathBuildCache into every unit's path
// rebuilds, scoped to terrainSeed. Call once during simserver startup; unset
// (the zero value) disables memoization entirely.
func SetPathCache(c *cache.PathBuildCache, terrainSeed int64) {
	pathCache = c
	pathCacheSeed = terrainSeed
}

// RebuildPath rebuilds the sampled path from the current waypoint list. If
// the unit was already moving along a path, it does not hard-jump onto the
// new one: it picks a forward-biased rejoin point and hands off to the
// transition-arc sub-machine so the heading change is continuous (spec.md
// Sec.4.2, Sec.4.6 MOVE/SET_PATH effects).
func (u *Unit) RebuildPath(oracle terrain.Oracle) {
	wasMoving := u.IsFollowingPath && u.HasPath()

	built := u.buildPath(oracle)
	u.Path = built.Points
	u.PathSegmentIndices = built.WaypointPathIndices

	if !wasMoving || len(u.Path) == 0 {
		u.PathIndex = 0
		return
	}

	startTangent := u.VelocityDirection
	if startTangent.Length() < 1e-6 {
		startTangent = u.HeadingQuaternion.RotateVec3(geomath.Vec3{Z: 1})
	}

	rejoinIdx := path.PickRejoinIndex(u.Position, startTangent, u.Path)
	arc := path.BuildRejoinArc(u.Position, startTangent, u.Path, rejoinIdx, oracle, u.GroundOffset, u.Capabilities.canEnterWater())
	if arc.Dropped {
		u.cancelTransition()
		u.PathIndex = rejoinIdx
		return
	}
	u.beginTransition(arc.Points)
	u.PathIndex = rejoinIdx
}

// buildPath samples the terrain-projected polyline for the unit's current
// waypoint list, consulting pathCache first when one is configured.
func (u *Unit) buildPath(oracle terrain.Oracle) path.Built {
	if pathCache == nil {
		return path.Build(u.Waypoints, u.IsPathClosed, oracle, u.GroundOffset)
	}
	key := cache.Key(pathCacheSeed, u.Waypoints, u.IsPathClosed, u.GroundOffset)
	ctx := context.Background()
	if built, ok := pathCache.Get(ctx, key); ok {
		return built
	}
	built := path.Build(u.Waypoints, u.IsPathClosed, oracle, u.GroundOffset)
	pathCache.Set(ctx, key, built)
	return built
}

// AddWaypoint appends a waypoint and rebuilds the path (MOVE command
// effect, spec.md Sec.4.6).
func (u *Unit) AddWaypoint(id string, position geomath.Vec3, oracle terrain.Oracle) {
	u.Waypoints = append(u.Waypoints, path.Waypoint{ID: id, Position: position})
	u.RebuildPath(oracle)
}

// SetPath replaces the waypoint list wholesale and rebuilds (SET_PATH
// command effect, spec.md Sec.4.6).
func (u *Unit) SetPath(waypoints []path.Waypoint, oracle terrain.Oracle) {
	u.Waypoints = waypoints
	u.RebuildPath(oracle)
}

// ClosePath marks the path closed and looping, then rebuilds (CLOSE_PATH
// command effect, spec.md Sec.4.6).
func (u *Unit) ClosePath(oracle terrain.Oracle) {
	u.IsPathClosed = true
	u.LoopingEnabled = true
	u.RebuildPath(oracle)
}

// ClearPath drops all waypoints and stops following (CLEAR command effect,
// spec.md Sec.4.6).
func (u *Unit) ClearPath() {
	u.Waypoints = nil
	u.Path = nil
	u.PathSegmentIndices = map[string]int{}
	u.PathIndex = 0
	u.IsFollowingPath = false
	u.LastWaypointID = ""
	u.TargetWaypointID = ""
	u.cancelTransition()
}

// Play resumes path following, including after a keyboard-override
// release, and clears a command-level pause (PLAY command effect, spec.md
// Sec.4.6).
func (u *Unit) Play() {
	u.PausedByCommand = false
	u.Keyboard.hasSaved = false
	u.IsFollowingPath = u.HasPath()
}

// Pause halts path following without discarding the path (PAUSE command
// effect, spec.md Sec.4.6).
func (u *Unit) Pause() {
	u.PausedByCommand = true
}
