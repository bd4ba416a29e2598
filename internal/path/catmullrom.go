package path

import "mud-platform-backend/internal/geomath"

// chordalCatmullRom is a Catmull-Rom spline through a sequence of control
// points with chordal knots (knot spacing proportional to the Euclidean
// distance between consecutive points). The knots only decide which
// segment a parameter falls in and how far along it; each segment is then
// evaluated with the uniform Catmull-Rom basis (catmullRomSegment), so
// unevenly spaced waypoints can still produce the cusps and loops of
// uniform parameterization.
type chordalCatmullRom struct {
	points []geomath.Vec3
	knots  []float64
	closed bool
}

func newChordalCatmullRom(points []geomath.Vec3, closed bool) *chordalCatmullRom {
	c := &chordalCatmullRom{points: points, closed: closed}
	c.knots = make([]float64, len(points))
	if closed {
		c.knots = make([]float64, len(points)+1)
	}
	for i := 1; i < len(c.knots); i++ {
		a := points[(i-1)%len(points)]
		b := points[i%len(points)]
		d := b.Sub(a).Length()
		if d < 1e-6 {
			d = 1e-6
		}
		c.knots[i] = c.knots[i-1] + d
	}
	return c
}

func (c *chordalCatmullRom) maxParam() float64 {
	return c.knots[len(c.knots)-1]
}

func (c *chordalCatmullRom) ctrl(i int) geomath.Vec3 {
	n := len(c.points)
	if c.closed {
		idx := ((i % n) + n) % n
		return c.points[idx]
	}
	if i < 0 {
		return c.points[0]
	}
	if i >= n {
		return c.points[n-1]
	}
	return c.points[i]
}

// eval samples the spline at arc-length-ish parameter t in [0, maxParam()].
func (c *chordalCatmullRom) eval(t float64) geomath.Vec3 {
	n := len(c.knots)
	// Find the segment [knots[seg], knots[seg+1]] containing t.
	seg := 0
	for seg < n-2 && t > c.knots[seg+1] {
		seg++
	}
	t0, t1 := c.knots[seg], c.knots[seg+1]
	localT := 0.0
	if t1-t0 > 1e-9 {
		localT = (t - t0) / (t1 - t0)
	}

	p0 := c.ctrl(seg - 1)
	p1 := c.ctrl(seg)
	p2 := c.ctrl(seg + 1)
	p3 := c.ctrl(seg + 2)

	return catmullRomSegment(p0, p1, p2, p3, localT)
}

// catmullRomSegment evaluates the standard uniform (tension=0) Catmull-Rom
// basis between p1 and p2 given neighbors p0,p3 and local parameter u in
// [0,1].
func catmullRomSegment(p0, p1, p2, p3 geomath.Vec3, u float64) geomath.Vec3 {
	u2 := u * u
	u3 := u2 * u

	a := p1.Scale(2)
	b := p2.Sub(p0).Scale(u)
	cTerm := p0.Scale(2).Sub(p1.Scale(5)).Add(p2.Scale(4)).Sub(p3).Scale(u2)
	d := p1.Scale(3).Sub(p0).Sub(p2.Scale(3)).Add(p3).Scale(u3)

	return a.Add(b).Add(cTerm).Add(d).Scale(0.5)
}
