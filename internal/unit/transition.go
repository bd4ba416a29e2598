package unit

import (
	"mud-platform-backend/internal/geomath"
	"mud-platform-backend/internal/path"
)

// transitionMachine follows a rejoin arc while the main path is being
// replaced mid-travel (spec.md Sec.4.1 step 8, Sec.4.2).
type transitionMachine struct {
	Active bool
	Path   []path.Point
	Index  int
}

// beginTransition installs a new transition arc, cancelling any prior one.
func (u *Unit) beginTransition(arc []path.Point) {
	u.Transition.Active = true
	u.Transition.Path = arc
	u.Transition.Index = 0
}

func (u *Unit) cancelTransition() {
	u.Transition.Active = false
	u.Transition.Path = nil
	u.Transition.Index = 0
}

// stepTransition advances along the transition arc by up to budget meters,
// returning the meters actually consumed. When the arc completes, it clears
// itself and the main path resumes at the preserved pathIndex (spec.md
// Sec.4.1 step 8).
func (u *Unit) stepTransition(budget float64) (consumed float64, advanced bool) {
	t := &u.Transition
	if !t.Active || len(t.Path) == 0 {
		return 0, false
	}

	for budget > 1e-9 && t.Index < len(t.Path) {
		target := t.Path[t.Index].Position
		toTarget := target.Sub(u.Position)
		dist := toTarget.Length()
		if dist < 1e-6 {
			t.Index++
			continue
		}
		dir := toTarget.Normalized()
		step := dist
		if step > budget {
			step = budget
		}
		u.Position = u.Position.Add(dir.Scale(step))
		u.VelocityDirection = dir
		budget -= step
		consumed += step
		if step >= dist-1e-9 {
			t.Index++
		}
	}

	if t.Index >= len(t.Path) {
		u.cancelTransition()
	}
	return consumed, true
}
