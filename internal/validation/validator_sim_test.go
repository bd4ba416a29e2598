package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSlot(t *testing.T) {
	v := New()
	assert.NoError(t, v.ValidateSlot(0, 8))
	assert.NoError(t, v.ValidateSlot(7, 8))
	assert.Error(t, v.ValidateSlot(-1, 8))
	assert.Error(t, v.ValidateSlot(8, 8))
}

func TestValidatePIN(t *testing.T) {
	v := New()
	pin := 5
	assert.NoError(t, v.ValidatePIN(&pin))

	assert.Error(t, v.ValidatePIN(nil))

	tooBig := 42
	assert.Error(t, v.ValidatePIN(&tooBig))
}

func TestValidateWaypointCount(t *testing.T) {
	v := New()
	assert.NoError(t, v.ValidateWaypointCount(1))
	assert.Error(t, v.ValidateWaypointCount(0))
	assert.Error(t, v.ValidateWaypointCount(maxWaypointsPerPath+1))
}

func TestValidateUnitID(t *testing.T) {
	v := New()
	assert.NoError(t, v.ValidateUnitID(1))
	assert.Error(t, v.ValidateUnitID(0))
	assert.Error(t, v.ValidateUnitID(-3))
}
