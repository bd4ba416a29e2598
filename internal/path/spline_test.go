package path

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mud-platform-backend/internal/geomath"
	"mud-platform-backend/internal/terrain"
)

func flatOracle() terrain.Oracle {
	return &flatTestOracle{radius: 10, water: -1}
}

type flatTestOracle struct {
	radius, water float64
}

func (f *flatTestOracle) RadiusAt(geomath.Vec3) float64 { return f.radius }
func (f *flatTestOracle) NormalAt(p geomath.Vec3) geomath.Vec3 {
	return p.Normalized()
}
func (f *flatTestOracle) WaterLevel() float64 { return f.water }
func (f *flatTestOracle) BaseRadius() float64 { return f.radius }

func TestBuildProjectsOntoTerrain(t *testing.T) {
	oracle := flatOracle()
	waypoints := []Waypoint{
		{ID: "a", Position: geomath.Vec3{X: 10}},
		{ID: "b", Position: geomath.Vec3{X: 0, Y: 10}},
		{ID: "c", Position: geomath.Vec3{X: -10}},
	}

	built := Build(waypoints, false, oracle, 0)
	require.GreaterOrEqual(t, len(built.Points), 300)

	for _, p := range built.Points {
		assert.InDelta(t, 10, p.Position.Length(), 1e-6)
	}

	for _, wp := range waypoints {
		idx, ok := built.WaypointPathIndices[wp.ID]
		require.True(t, ok)
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, len(built.Points))
	}
}

func TestBuildSampleCountScalesWithWaypoints(t *testing.T) {
	oracle := flatOracle()
	waypoints := make([]Waypoint, 10)
	for i := range waypoints {
		waypoints[i] = Waypoint{ID: string(rune('a' + i)), Position: geomath.Vec3{X: float64(i) * 5, Y: 10}}
	}
	built := Build(waypoints, false, oracle, 0)
	assert.GreaterOrEqual(t, len(built.Points), 10*50)
}

func TestBuildClosedLoopWraps(t *testing.T) {
	oracle := flatOracle()
	waypoints := []Waypoint{
		{ID: "a", Position: geomath.Vec3{X: 10}},
		{ID: "b", Position: geomath.Vec3{X: 0, Y: 10}},
		{ID: "c", Position: geomath.Vec3{X: -10}},
		{ID: "d", Position: geomath.Vec3{X: 0, Y: -10}},
	}
	built := Build(waypoints, true, oracle, 0)
	require.NotEmpty(t, built.Points)
	// First and last points should be close to each other on a closed loop.
	first := built.Points[0].Position
	last := built.Points[len(built.Points)-1].Position
	assert.Less(t, first.Sub(last).Length(), 5.0)
}

func TestPickRejoinIndexBiasesForward(t *testing.T) {
	points := make([]Point, 100)
	for i := range points {
		points[i] = Point{Position: geomath.Vec3{X: float64(i)}}
	}
	unitPos := geomath.Vec3{X: 50}
	velocityDir := geomath.Vec3{X: 1}

	idx := PickRejoinIndex(unitPos, velocityDir, points)
	assert.Greater(t, idx, 50, "rejoin index should be biased ahead of the nearest point")
}

func TestBuildRejoinArcDropsWhenCrossingWater(t *testing.T) {
	oracle := &flatTestOracle{radius: 10, water: 5} // everything is "underwater" relative to radius
	points := []Point{
		{Position: geomath.Vec3{X: 10}},
		{Position: geomath.Vec3{X: 0, Y: 10}},
	}
	arc := BuildRejoinArc(geomath.Vec3{X: 10}, geomath.Vec3{Z: 1}, points, 1, oracle, 0, false)
	assert.True(t, arc.Dropped)
}

func TestBuildRejoinArcSucceedsOnDryLand(t *testing.T) {
	oracle := flatOracle()
	points := []Point{
		{Position: geomath.Vec3{X: 10}},
		{Position: geomath.Vec3{X: 7, Y: 7}},
		{Position: geomath.Vec3{X: 0, Y: 10}},
		{Position: geomath.Vec3{X: -7, Y: 7}},
		{Position: geomath.Vec3{X: -10}},
		{Position: geomath.Vec3{X: -7, Y: -7}},
		{Position: geomath.Vec3{X: 0, Y: -10}},
		{Position: geomath.Vec3{X: 7, Y: -7}},
	}
	arc := BuildRejoinArc(geomath.Vec3{X: 0, Y: 10}, geomath.Vec3{X: -1}, points, 4, oracle, 0, false)
	require.False(t, arc.Dropped)
	assert.GreaterOrEqual(t, len(arc.Points), 8)
	for _, p := range arc.Points {
		assert.InDelta(t, 10, p.Position.Length(), 1e-6)
	}
}
