package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mud-platform-backend/internal/geomath"
)

func TestPerlinSphereDeterministic(t *testing.T) {
	a := NewPerlinSphere(42, 100, -5, 10)
	b := NewPerlinSphere(42, 100, -5, 10)

	dir := geomath.Vec3{X: 0.6, Y: 0.2, Z: 0.7}.Normalized()
	assert.Equal(t, a.RadiusAt(dir), b.RadiusAt(dir))
}

func TestPerlinSphereDifferentSeedsDiverge(t *testing.T) {
	a := NewPerlinSphere(1, 100, -5, 10)
	b := NewPerlinSphere(2, 100, -5, 10)

	dir := geomath.Vec3{X: 0.3, Y: 0.9, Z: 0.1}.Normalized()
	assert.NotEqual(t, a.RadiusAt(dir), b.RadiusAt(dir))
}

func TestPerlinSphereRadiusBoundedByAmplitude(t *testing.T) {
	oracle := NewPerlinSphere(7, 50, -2, 5)
	for _, dir := range []geomath.Vec3{
		{X: 1}, {Y: 1}, {Z: 1}, {X: 0.5, Y: 0.5, Z: 0.7},
	} {
		r := oracle.RadiusAt(dir.Normalized())
		assert.InDelta(t, 50, r, 5.01)
	}
}

func TestPerlinSphereNormalIsUnit(t *testing.T) {
	oracle := NewPerlinSphere(9, 100, -5, 8)
	point := geomath.Vec3{X: 100, Y: 10, Z: 5}
	n := oracle.NormalAt(point)
	assert.InDelta(t, 1, n.Length(), 1e-6)
}
