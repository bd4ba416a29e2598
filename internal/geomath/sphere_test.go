package geomath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoveAlongGreatCircle(t *testing.T) {
	tests := []struct {
		name    string
		pos     Vec3
		forward Vec3
		dist    float64
		radius  float64
	}{
		{"quarter turn east", Vec3{10, 0, 0}, Vec3{0, 0, 1}, 10 * math.Pi / 2, 10},
		{"small step", Vec3{0, 10, 0}, Vec3{1, 0, 0}, 0.5, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MoveAlongGreatCircle(tt.pos, tt.forward, tt.dist, tt.radius)
			assert.InDelta(t, tt.radius, got.Length(), 1e-6, "must stay on sphere")
		})
	}
}

func TestTangentBasisOrthonormal(t *testing.T) {
	right, up, forward := TangentBasis(Vec3{0, 1, 0}, Vec3{1, 0, 0.2})
	assert.InDelta(t, 0, right.Dot(up), 1e-9)
	assert.InDelta(t, 0, up.Dot(forward), 1e-9)
	assert.InDelta(t, 0, right.Dot(forward), 1e-9)
	assert.InDelta(t, 1, right.Length(), 1e-9)
	assert.InDelta(t, 1, up.Length(), 1e-9)
	assert.InDelta(t, 1, forward.Length(), 1e-9)
}

func TestSlopeLongitudinalFactorClamped(t *testing.T) {
	// Straight uphill: factor bottoms out at 1-0.3=0.7
	f := SlopeLongitudinalFactor(Vec3{0, 1, 0}, Vec3{0, 1, 0})
	assert.InDelta(t, 0.7, f, 1e-9)

	// Straight downhill: factor tops out at 1+0.3=1.3
	f = SlopeLongitudinalFactor(Vec3{0, -1, 0}, Vec3{0, 1, 0})
	assert.InDelta(t, 1.3, f, 1e-9)
}

func TestParallelTransportPreservesAngle(t *testing.T) {
	heading := Identity()
	oldNormal := Vec3{0, 1, 0}
	newNormal := Vec3{1, 0, 0}
	transported := ParallelTransport(heading, oldNormal, newNormal)
	// The local Y axis must now equal newNormal (vertical axis lock).
	assert.InDelta(t, 1, transported.LocalY().Dot(newNormal), 1e-6)
}
