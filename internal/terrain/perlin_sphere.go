package terrain

import (
	"math"

	"github.com/aquilax/go-perlin"

	"mud-platform-backend/internal/geomath"
)

// PerlinSphere is a seeded, pure Oracle implementation: it layers two
// octaves of Perlin noise (grounded on the octave-blend idiom in
// internal/worldgen/geography/heightmap.go's GenerateHeightmap) over a
// direction's spherical angles to produce a displaced-sphere terrain. It is
// meant for tests and standalone play, never for the shipped renderer's
// procedural generator (spec.md Sec.1: terrain generator is out of scope).
type PerlinSphere struct {
	noise      *perlin.Perlin
	baseRadius float64
	waterLevel float64
	amplitude  float64
}

// NewPerlinSphere builds a terrain oracle seeded deterministically from
// seed. baseRadius is the nominal sphere radius, waterLevel the elevation
// (relative to baseRadius) below which terrain is underwater, and amplitude
// the maximum displacement the noise can add or subtract from baseRadius.
func NewPerlinSphere(seed int64, baseRadius, waterLevel, amplitude float64) *PerlinSphere {
	return &PerlinSphere{
		noise:      perlin.NewPerlin(2, 2, 3, seed),
		baseRadius: baseRadius,
		waterLevel: waterLevel,
		amplitude:  amplitude,
	}
}

func (p *PerlinSphere) elevation(dir geomath.Vec3) float64 {
	dir = dir.Normalized()
	// Spherical angles give a noise sample that varies smoothly with
	// direction; poles are a known seam but units rarely linger there.
	lat := math.Asin(geomath.Clamp(dir.Y, -1, 1))
	lon := math.Atan2(dir.Z, dir.X)

	n1 := p.noise.Noise2D(lon*2.0, lat*2.0)
	n2 := p.noise.Noise2D(lon*8.0, lat*8.0)

	return (n1*0.8 + n2*0.2) * p.amplitude
}

// RadiusAt implements Oracle.
func (p *PerlinSphere) RadiusAt(dir geomath.Vec3) float64 {
	return p.baseRadius + p.elevation(dir)
}

// NormalAt implements Oracle via a central-difference gradient of RadiusAt
// around the point's own direction.
func (p *PerlinSphere) NormalAt(point geomath.Vec3) geomath.Vec3 {
	const eps = 1e-3
	dir := point.Normalized()

	sample := func(d geomath.Vec3) geomath.Vec3 {
		d = d.Normalized()
		return d.Scale(p.RadiusAt(d))
	}

	dx := sample(dir.Add(geomath.Vec3{X: eps})).Sub(sample(dir.Sub(geomath.Vec3{X: eps})))
	dy := sample(dir.Add(geomath.Vec3{Y: eps})).Sub(sample(dir.Sub(geomath.Vec3{Y: eps})))
	dz := sample(dir.Add(geomath.Vec3{Z: eps})).Sub(sample(dir.Sub(geomath.Vec3{Z: eps})))

	// Two tangent vectors from finite differences; their cross product
	// approximates the surface normal. Fall back to the radial direction
	// if they're nearly parallel (can happen very close to the poles).
	t1 := dx.Sub(dy)
	t2 := dy.Sub(dz)
	n := t1.Cross(t2)
	if n.Length() < 1e-9 {
		return dir
	}
	n = n.Normalized()
	if n.Dot(dir) < 0 {
		n = n.Scale(-1)
	}
	return n
}

// WaterLevel implements Oracle.
func (p *PerlinSphere) WaterLevel() float64 { return p.waterLevel }

// BaseRadius implements Oracle.
func (p *PerlinSphere) BaseRadius() float64 { return p.baseRadius }
