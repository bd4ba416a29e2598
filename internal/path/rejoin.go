package path

import (
	"math"

	"mud-platform-backend/internal/geomath"
	"mud-platform-backend/internal/terrain"
)

// RejoinArc is a transition-arc: a short cubic-Bezier, terrain-projected
// path connecting a unit's current pose to a point on a newly rebuilt main
// path, preserving tangent continuity (GLOSSARY: "Transition arc").
type RejoinArc struct {
	Points     []Point
	RejoinIdx  int
	Dropped    bool // true when no safe arc could be built (spec.md Sec.4.2 / Sec.7)
}

// PickRejoinIndex scores each path point by distance to the unit, admitting
// only points biased forward relative to the unit's current
// velocityDirection, then nudges the choice further forward to avoid
// hugging the nearest point (spec.md Sec.4.2).
func PickRejoinIndex(unitPos, velocityDir geomath.Vec3, pathPoints []Point) int {
	if len(pathPoints) == 0 {
		return 0
	}
	best := -1
	bestDist := math.MaxFloat64
	for i, p := range pathPoints {
		toPoint := p.Position.Sub(unitPos)
		if toPoint.Normalized().Dot(velocityDir) <= -0.3 {
			continue
		}
		d := toPoint.Length()
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	if best == -1 {
		best = 0
	}

	forwardBias := int(math.Min(20, 0.1*float64(len(pathPoints))) / 2)
	best += forwardBias
	if best >= len(pathPoints) {
		best = len(pathPoints) - 1
	}
	return best
}

// BuildRejoinArc constructs the cubic-Bezier transition arc from unitPos to
// pathPoints[rejoinIdx], rejecting the arc (Dropped=true) if any sample
// crosses water and the unit cannot swim (spec.md Sec.4.2, Sec.7).
func BuildRejoinArc(
	unitPos, startTangent geomath.Vec3,
	pathPoints []Point,
	rejoinIdx int,
	oracle terrain.Oracle,
	groundOffset float64,
	canSwim bool,
) RejoinArc {
	if rejoinIdx < 0 || rejoinIdx >= len(pathPoints) {
		return RejoinArc{Dropped: true, RejoinIdx: rejoinIdx}
	}

	p0 := unitPos
	p3 := pathPoints[rejoinIdx].Position
	d := p3.Sub(p0).Length()

	endTangentSampleIdx := rejoinIdx + 6
	if endTangentSampleIdx >= len(pathPoints) {
		endTangentSampleIdx = len(pathPoints) - 1
	}
	endTangent := pathPoints[endTangentSampleIdx].Position.Sub(p3)
	if endTangent.Length() < 1e-6 {
		endTangent = p3.Sub(p0)
	}
	endTangent = endTangent.Normalized()

	if startTangent.Length() < 1e-6 {
		startTangent = geomath.Vec3{Z: 1}
	}
	startTangent = startTangent.Normalized()

	p1 := p0.Add(startTangent.Scale(d * 0.35))
	p2 := p3.Sub(endTangent.Scale(d * 0.35))

	sampleCount := int(math.Max(8, math.Ceil(2*d)))
	points := make([]Point, 0, sampleCount)
	for i := 0; i < sampleCount; i++ {
		t := float64(i) / float64(sampleCount-1)
		raw := cubicBezier(p0, p1, p2, p3, t)
		projected := projectToTerrain(raw, oracle, groundOffset)
		if !canSwim && underwater(projected, oracle) {
			return RejoinArc{Dropped: true, RejoinIdx: rejoinIdx}
		}
		points = append(points, Point{Position: projected})
	}

	return RejoinArc{Points: points, RejoinIdx: rejoinIdx}
}

func cubicBezier(p0, p1, p2, p3 geomath.Vec3, t float64) geomath.Vec3 {
	u := 1 - t
	a := p0.Scale(u * u * u)
	b := p1.Scale(3 * u * u * t)
	c := p2.Scale(3 * u * t * t)
	e := p3.Scale(t * t * t)
	return a.Add(b).Add(c).Add(e)
}

func underwater(p geomath.Vec3, oracle terrain.Oracle) bool {
	dir := p.Normalized()
	depth := oracle.BaseRadius() + oracle.WaterLevel() - oracle.RadiusAt(dir)
	return depth > 0.05
}
