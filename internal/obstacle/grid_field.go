package obstacle

import (
	"math"

	"mud-platform-backend/internal/geomath"
	"mud-platform-backend/internal/rng"
)

// Rock is a single spherical obstacle, placed in world space.
type Rock struct {
	Center geomath.Vec3
	Radius float64
}

// GridField is a seeded, pure Oracle: rocks are placed at uniformly random
// directions on the sphere, drawn from a substream of the constructor seed
// (grounded on internal/spatial.SimpleCollisionDetector's
// bounds-checking idiom, generalized from axis-aligned box bounds to sphere
// obstacles) so that CheckAndSlide is a pure function of the constructor
// seed and never mutates as units move through it.
type GridField struct {
	rocks []Rock
}

// NewGridField scatters rockCount rocks on a sphere of the given radius,
// seeded deterministically: each rock's direction is drawn uniformly over
// the sphere, and minRadius/maxRadius bound individual rock sizes.
func NewGridField(seed int64, radius float64, rockCount int, minRadius, maxRadius float64) *GridField {
	root := rng.NewRoot(seed)
	stream := root.Split("obstacle-field")

	rocks := make([]Rock, 0, rockCount)
	for i := 0; i < rockCount; i++ {
		// Uniform sampling over the sphere via the standard
		// normalized-Gaussian-free rejection-free method: draw u,v in
		// [0,1) and convert to spherical coordinates.
		u := stream.Float64()
		v := stream.Float64()
		theta := 2 * math.Pi * u
		phi := math.Acos(2*v - 1)

		dir := geomath.Vec3{
			X: math.Sin(phi) * math.Cos(theta),
			Y: math.Cos(phi),
			Z: math.Sin(phi) * math.Sin(theta),
		}
		rockRadius := stream.Range(minRadius, maxRadius)
		rocks = append(rocks, Rock{
			Center: dir.Scale(radius),
			Radius: rockRadius,
		})
	}

	return &GridField{rocks: rocks}
}

// Rocks returns the placed obstacles (read-only snapshot), useful for the
// path builder's forbidden-zone scan and for tests.
func (f *GridField) Rocks() []Rock {
	out := make([]Rock, len(f.rocks))
	copy(out, f.rocks)
	return out
}

// Contains reports whether point lies inside any rock.
func (f *GridField) Contains(point geomath.Vec3) bool {
	for _, r := range f.rocks {
		if point.Sub(r.Center).Length() < r.Radius {
			return true
		}
	}
	return false
}

// CheckAndSlide implements Oracle. Among the rocks the segment from->to
// passes inside, it takes the one whose closest-approach point lies
// earliest along the segment and either:
//   - slides: from that closest-approach point it continues the remaining
//     distance along the rock's tangent plane, with Collided=false, or
//   - reports a hard collision with bounceDir = -moveDir when the
//     closest-approach point is the rock's center, or no tangent direction
//     or no remaining distance is left.
func (f *GridField) CheckAndSlide(from, to geomath.Vec3) SlideResult {
	moveDir := to.Sub(from)
	dist := moveDir.Length()
	if dist < 1e-9 {
		return SlideResult{Position: to}
	}
	moveDir = moveDir.Scale(1 / dist)

	var hit *Rock
	var hitT float64 = math.MaxFloat64

	for i := range f.rocks {
		r := &f.rocks[i]
		toCenter := r.Center.Sub(from)
		tClosest := geomath.Clamp(toCenter.Dot(moveDir), 0, dist)
		closest := from.Add(moveDir.Scale(tClosest))
		if closest.Sub(r.Center).Length() < r.Radius && tClosest < hitT {
			hitT = tClosest
			hit = r
		}
	}

	if hit == nil {
		return SlideResult{Position: to}
	}

	contact := from.Add(moveDir.Scale(hitT))
	outward := contact.Sub(hit.Center).Normalized()
	if outward.Length() < 1e-6 {
		// Exactly at the center: no well-defined tangent, hard stop.
		return SlideResult{Position: from, Collided: true, HasBounce: true, BounceDir: moveDir.Scale(-1)}
	}

	tangent := geomath.ProjectOntoPlane(moveDir, outward)
	remaining := dist - hitT
	if tangent.Length() < 1e-6 || remaining < 1e-6 {
		return SlideResult{Position: contact, Collided: true, HasBounce: true, BounceDir: moveDir.Scale(-1)}
	}
	tangent = tangent.Normalized()
	slid := contact.Add(tangent.Scale(remaining))

	// A slide is not reported as a collision (spec.md Sec.6: "Slides to
	// along the obstacle tangent when possible"): Collided stays false, so
	// the bounce sub-machine does not start; only a hard stop starts it.
	return SlideResult{Position: slid, Collided: false}
}
