package simloop

import (
	"mud-platform-backend/internal/command"
	"mud-platform-backend/internal/geomath"
	"mud-platform-backend/internal/path"
)

func vec3From(p [3]float64) geomath.Vec3 {
	return geomath.Vec3{X: p[0], Y: p[1], Z: p[2]}
}

func waypointsFrom(in []command.WaypointInput) []path.Waypoint {
	out := make([]path.Waypoint, len(in))
	for i, wp := range in {
		out[i] = path.Waypoint{ID: wp.ID, Position: vec3From(wp.Position)}
	}
	return out
}
