package unit

import (
	"mud-platform-backend/internal/geomath"
	"mud-platform-backend/internal/path"
)

// keyboardMachine implements spec.md Sec.4.4: inactive -> active -> cooldown
// -> inactive, with saved-path preservation across the override.
type keyboardMachine struct {
	Overriding bool
	Cooldown   float64 // counts down from 0.5s after input ceases
	inCooldown bool

	SavedWaypoints []path.Waypoint
	SavedPath      []path.Point
	SavedPathIndex int
	hasSaved       bool
}

const keyboardReleaseDelay = 0.5

// stepKeyboard arbitrates keyboard override for this tick (spec.md Sec.4.1
// step 13, Sec.4.4). Returns whether the unit is under manual control this
// tick (path following must be suppressed).
func (u *Unit) stepKeyboard(dt float64, in Input) (manual bool) {
	k := &u.Keyboard

	if in.hasDirectionalInput() {
		if !k.Overriding {
			k.Overriding = true
			k.inCooldown = false
			k.Cooldown = 0
			k.SavedWaypoints = u.Waypoints
			k.SavedPath = u.Path
			k.SavedPathIndex = u.PathIndex
			k.hasSaved = true
			u.IsFollowingPath = false
			u.cancelTransition()
		}
		k.inCooldown = false
		k.Cooldown = 0
		return true
	}

	if k.Overriding {
		if !k.inCooldown {
			k.inCooldown = true
			k.Cooldown = keyboardReleaseDelay
		}
		k.Cooldown -= dt
		if k.Cooldown <= 0 {
			k.Overriding = false
			k.inCooldown = false
			u.VelocityDirection = geomath.Vec3{}
			// Saved path is preserved; isFollowingPath stays false until an
			// explicit PLAY command (spec.md Sec.4.4).
			return false
		}
		return true
	}

	return false
}

// ResumeFromKeyboardSave resumes following the unit's current path once a
// keyboard override has saved one (spec.md Sec.4.6). It does not reinstate
// SavedWaypoints, SavedPath or SavedPathIndex, and Play does not call it.
func (u *Unit) ResumeFromKeyboardSave() {
	if !u.Keyboard.hasSaved {
		return
	}
	u.IsFollowingPath = u.HasPath()
}
