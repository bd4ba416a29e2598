package unit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mud-platform-backend/internal/geomath"
	"mud-platform-backend/internal/obstacle"
	"mud-platform-backend/internal/path"
	"mud-platform-backend/internal/rng"
	"mud-platform-backend/internal/terrain"
)

// flatOracle is a constant-radius, dry terrain for boundary-scenario tests
// where spherical terrain noise would only add test-fragility.
type flatOracle struct {
	radius, water float64
}

func (f flatOracle) RadiusAt(dir geomath.Vec3) float64   { return f.radius }
func (f flatOracle) NormalAt(p geomath.Vec3) geomath.Vec3 { return p.Normalized() }
func (f flatOracle) WaterLevel() float64                 { return f.water }
func (f flatOracle) BaseRadius() float64                 { return f.radius }

// passObstacle never collides: every proposed move is accepted as-is.
type passObstacle struct{}

func (passObstacle) CheckAndSlide(from, to geomath.Vec3) obstacle.SlideResult {
	return obstacle.SlideResult{Position: to}
}

// onceBlockObstacle reports a hard collision on the first call only, so
// tests can assert the bounce sub-machine activates without the unit
// getting stuck forever.
type onceBlockObstacle struct {
	fired bool
}

func (o *onceBlockObstacle) CheckAndSlide(from, to geomath.Vec3) obstacle.SlideResult {
	if o.fired {
		return obstacle.SlideResult{Position: to}
	}
	o.fired = true
	return obstacle.SlideResult{Position: from, Collided: true, HasBounce: true, BounceDir: from.Sub(to).Normalized()}
}

func newTestUnit(spawnDir geomath.Vec3, caps Capabilities) *Unit {
	root := rng.NewRoot(1)
	return New(1, spawnDir, 0, caps, 0.5, 5.0, root.Split("u1"), root.SplitVisual("u1"))
}

func tickN(t *testing.T, u *Unit, n int, dt float64, in Input, deps Dependencies) {
	t.Helper()
	for i := 0; i < n; i++ {
		u.Tick(dt, in, deps)
		require.True(t, u.Position.IsFinite(), "position became non-finite at tick %d", i)
	}
}

func TestTickStraightPathFlatTerrainReachesEnd(t *testing.T) {
	oracle := flatOracle{radius: 100, water: -10}
	deps := Dependencies{Terrain: oracle, Obstacle: passObstacle{}}

	u := newTestUnit(geomath.Vec3{X: 1}, Capabilities{CanSwim: true})
	u.AddWaypoint("a", geomath.Vec3{X: 1}.Scale(100), oracle)
	u.AddWaypoint("b", geomath.Vec3{X: 0, Y: 0, Z: 1}.Scale(100), oracle)
	u.IsFollowingPath = true

	require.True(t, u.HasPath())

	lastIdx := -1
	for i := 0; i < 2000 && u.PathIndex < len(u.Path); i++ {
		u.Tick(0.05, Input{}, deps)
		assert.GreaterOrEqual(t, u.PathIndex, lastIdx, "pathIndex must be monotonic non-decreasing on an open path")
		lastIdx = u.PathIndex

		radius := oracle.RadiusAt(u.Position.Normalized()) + u.GroundOffset
		assert.InDelta(t, radius, u.Position.Length(), 0.05, "terrain-lock invariant violated")

		up := u.HeadingQuaternion.LocalY()
		normal := u.Position.Normalized()
		assert.Greater(t, up.Dot(normal), 0.9, "vertical-axis-lock invariant violated")
	}

	assert.Equal(t, len(u.Path), u.PathIndex, "unit should have reached the end of an open path")
}

func TestTickWaterBlocksNonSwimmerEntersSlowing(t *testing.T) {
	// Water level above the terrain radius everywhere: any non-swimmer unit
	// standing on this terrain is immediately underwater.
	oracle := flatOracle{radius: 100, water: 5}
	deps := Dependencies{Terrain: oracle, Obstacle: passObstacle{}}

	u := newTestUnit(geomath.Vec3{X: 1}, Capabilities{CanSwim: false})
	u.AddWaypoint("a", geomath.Vec3{X: 1}.Scale(100), oracle)
	u.AddWaypoint("b", geomath.Vec3{X: 0, Y: 0, Z: 1}.Scale(100), oracle)
	u.IsFollowingPath = true

	require.Equal(t, WaterNormal, u.Water.State)

	enteredSlowing := false
	for i := 0; i < 20; i++ {
		u.Tick(0.05, Input{}, deps)
		if u.Water.State == WaterSlowing {
			enteredSlowing = true
			break
		}
	}
	assert.True(t, enteredSlowing, "a non-swimmer submerged at spawn must enter WaterSlowing within 20 ticks")
}

func TestTickRockBounceActivatesOnHardCollision(t *testing.T) {
	oracle := flatOracle{radius: 100, water: -10}
	ob := &onceBlockObstacle{}
	deps := Dependencies{Terrain: oracle, Obstacle: ob}

	u := newTestUnit(geomath.Vec3{X: 1}, Capabilities{CanSwim: true})
	u.AddWaypoint("a", geomath.Vec3{X: 1}.Scale(100), oracle)
	u.AddWaypoint("b", geomath.Vec3{X: 0, Y: 0, Z: 1}.Scale(100), oracle)
	u.IsFollowingPath = true

	u.Tick(0.05, Input{}, deps)

	assert.True(t, u.Bounce.active(), "a hard rock collision must trigger the bounce sub-machine")
}

func TestTickKeyboardOverridePreemptsPathFollowingSameTick(t *testing.T) {
	oracle := flatOracle{radius: 100, water: -10}
	deps := Dependencies{Terrain: oracle, Obstacle: passObstacle{}}

	u := newTestUnit(geomath.Vec3{X: 1}, Capabilities{CanSwim: true})
	u.AddWaypoint("a", geomath.Vec3{X: 1}.Scale(100), oracle)
	u.AddWaypoint("b", geomath.Vec3{X: 0, Y: 0, Z: 1}.Scale(100), oracle)
	u.IsFollowingPath = true

	startIdx := u.PathIndex
	u.Tick(0.05, Input{MoveForward: 1}, deps)

	assert.False(t, u.IsFollowingPath, "directional input must clear isFollowingPath the same tick it begins")
	assert.Equal(t, startIdx, u.PathIndex, "pathIndex must not advance on the tick keyboard override begins")
	assert.True(t, u.Keyboard.hasSaved)
}

func TestTickRejoinArcFollowedAfterPathRebuildMidTravel(t *testing.T) {
	oracle := flatOracle{radius: 100, water: -10}
	deps := Dependencies{Terrain: oracle, Obstacle: passObstacle{}}

	u := newTestUnit(geomath.Vec3{X: 1}, Capabilities{CanSwim: true})
	u.AddWaypoint("a", geomath.Vec3{X: 1}.Scale(100), oracle)
	u.AddWaypoint("b", geomath.Vec3{X: 0, Y: 0, Z: 1}.Scale(100), oracle)
	u.IsFollowingPath = true

	for i := 0; i < 10; i++ {
		u.Tick(0.05, Input{}, deps)
	}
	require.Greater(t, u.PathIndex, 0, "unit should have started moving before the path is rebuilt")

	// Mid-travel SET_PATH with a wholly different destination.
	u.SetPath([]path.Waypoint{
		{ID: "c", Position: geomath.Vec3{X: 0, Y: 1}.Scale(100)},
	}, oracle)

	if !u.Transition.Active {
		t.Skip("rejoin arc was dropped (e.g. crosses water); nothing further to assert")
	}
	assert.True(t, u.Transition.Active)

	for i := 0; i < 500 && u.Transition.Active; i++ {
		u.Tick(0.05, Input{}, deps)
	}
	assert.False(t, u.Transition.Active, "transition arc must complete and hand back to main path following")
}

func TestTickTangentVelocityStaysOnTangentPlane(t *testing.T) {
	oracle := flatOracle{radius: 100, water: -10}
	deps := Dependencies{Terrain: oracle, Obstacle: passObstacle{}}

	u := newTestUnit(geomath.Vec3{X: 1}, Capabilities{CanSwim: true})
	u.AddWaypoint("a", geomath.Vec3{X: 1}.Scale(100), oracle)
	u.AddWaypoint("b", geomath.Vec3{X: 0, Y: 0, Z: 1}.Scale(100), oracle)
	u.IsFollowingPath = true

	for i := 0; i < 30; i++ {
		u.Tick(0.05, Input{}, deps)
	}

	normal := u.Position.Normalized()
	radialComponent := math.Abs(u.VelocityDirection.Dot(normal))
	assert.Less(t, radialComponent, 0.05, "velocityDirection must remain tangent to the sphere")
}
