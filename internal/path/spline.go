// Package path builds the sampled, terrain-projected polyline a unit
// follows (spec.md Sec.4.2, C6): a Catmull-Rom spline with chordal knots through
// user-authored waypoints, projected onto the terrain oracle, plus the
// cubic-Bezier rejoin arc used when the path is rebuilt mid-travel.
package path

import (
	"math"

	"mud-platform-backend/internal/geomath"
	"mud-platform-backend/internal/terrain"
)

// Waypoint is a user-authored control point.
type Waypoint struct {
	ID         string
	Position   geomath.Vec3
	VisitCount int // supplemented feature: SPEC_FULL Sec.10
}

// Point is a single sample of the built path: the terrain-projected
// position.
type Point struct {
	Position geomath.Vec3
}

// Built is the output of Build: the sampled polyline plus the index each
// waypoint is considered "arrived" at.
type Built struct {
	Points              []Point
	WaypointPathIndices map[string]int // waypoint.ID -> index into Points
}

const minSamples = 300
const samplesPerWaypoint = 50

// Build constructs the terrain-projected polyline through waypoints, closed
// iff isClosed. Samples are spread by chord length between waypoints, but
// each segment uses the uniform Catmull-Rom basis, so cusps are not
// prevented when waypoints are unevenly spaced.
func Build(waypoints []Waypoint, isClosed bool, oracle terrain.Oracle, groundOffset float64) Built {
	if len(waypoints) == 0 {
		return Built{WaypointPathIndices: map[string]int{}}
	}
	if len(waypoints) == 1 {
		p := projectToTerrain(waypoints[0].Position, oracle, groundOffset)
		return Built{
			Points:              []Point{{Position: p}},
			WaypointPathIndices: map[string]int{waypoints[0].ID: 0},
		}
	}

	n := len(waypoints)
	sampleCount := minSamples
	if n*samplesPerWaypoint > sampleCount {
		sampleCount = n * samplesPerWaypoint
	}

	spline := newChordalCatmullRom(positionsOf(waypoints), isClosed)

	points := make([]Point, 0, sampleCount)
	for i := 0; i < sampleCount; i++ {
		t := spline.maxParam() * float64(i) / float64(sampleCount-1)
		if isClosed {
			t = spline.maxParam() * float64(i) / float64(sampleCount)
		}
		raw := spline.eval(t)
		points = append(points, Point{Position: projectToTerrain(raw, oracle, groundOffset)})
	}

	indices := map[string]int{}
	for _, wp := range waypoints {
		best := 0
		bestDist := math.MaxFloat64
		for i, p := range points {
			d := p.Position.Sub(wp.Position).Length()
			if d < bestDist {
				bestDist = d
				best = i
			}
		}
		indices[wp.ID] = best
	}

	return Built{Points: points, WaypointPathIndices: indices}
}

func positionsOf(waypoints []Waypoint) []geomath.Vec3 {
	out := make([]geomath.Vec3, len(waypoints))
	for i, wp := range waypoints {
		out[i] = wp.Position
	}
	return out
}

func projectToTerrain(p geomath.Vec3, oracle terrain.Oracle, groundOffset float64) geomath.Vec3 {
	dir := p.Normalized()
	if dir.Length() < 1e-9 {
		dir = geomath.Vec3{X: 1}
	}
	radius := oracle.RadiusAt(dir) + groundOffset
	return dir.Scale(radius)
}
