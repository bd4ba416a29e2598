// Package arbiter classifies raw pointer/keyboard events from a connected
// peer into command.Command values (spec.md Sec.4.5/4.6, C10). It is the
// only place UI-driven mutation is allowed to originate: anything here
// produces a command.Command that flows through the same ordered queue as
// every other peer's input, rather than mutating unit state directly. In
// particular, dragging a path marker must re-emit SET_PATH like any other
// path edit — a known gap in the system this spec was distilled from (it
// let marker drags bypass the command path and mutate state in place,
// breaking cross-peer determinism) — and this reimplementation does not
// reproduce that gap (spec.md Sec.9).
package arbiter

import (
	"mud-platform-backend/internal/command"
)

// dragThresholdPx is the minimum pointer travel, in screen pixels, before a
// press-drag-release sequence is classified as a drag rather than a click
// (spec.md Sec.4.5).
const dragThresholdPx = 3.0

// PointerEvent is a single raw pointer sample from a connected peer.
type PointerEvent struct {
	Kind   PointerKind
	X, Y   float64 // screen-space pixels
	UnitID int     // hit-tested target, 0 if none
	// WorldPos is the terrain-projected world position under the pointer,
	// already resolved by the transport layer (arbiter does no raycasting).
	WorldPos    [3]float64
	WaypointID  string // set when the pointer is on a waypoint marker, identifies the marker to drag
}

// PointerKind enumerates the raw pointer phases the arbiter consumes.
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
)

// dragState tracks one in-flight press-to-release gesture for one slot.
type dragState struct {
	active      bool
	startX, startY float64
	draggingMarker bool
	waypointID     string
	targetUnitID   int
	path           []command.WaypointInput
}

// Arbiter turns a slot's raw pointer/keyboard stream into ordered commands.
// One Arbiter per connected slot; it holds only in-flight gesture state,
// never unit state.
type Arbiter struct {
	slot  int
	drags map[int]*dragState // keyed by a synthetic single-pointer id (0 for single-touch/mouse)
}

// New constructs an Arbiter for slot.
func New(slot int) *Arbiter {
	return &Arbiter{slot: slot, drags: map[int]*dragState{}}
}

// HandlePointer classifies one raw pointer event, returning zero or more
// draft commands. Only Type, UnitID and Waypoints are meaningful on the
// return value: the transport layer must run each one through
// command.Factory.Stamp(slot, ...) to attach the (tick, issuedBySlot) pair
// before enqueueing, since the arbiter has no view of the current tick. A
// plain click with no drag distance against a unit produces SELECT; a click
// against empty terrain with a unit selected produces MOVE; a marker drag
// always ends in SET_PATH, never a direct mutation.
func (a *Arbiter) HandlePointer(ev PointerEvent, selectedUnitID int, currentWaypoints []command.WaypointInput) []command.Command {
	switch ev.Kind {
	case PointerDown:
		a.drags[0] = &dragState{active: true, startX: ev.X, startY: ev.Y}
		if ev.WaypointID != "" {
			d := a.drags[0]
			d.draggingMarker = true
			d.waypointID = ev.WaypointID
			d.targetUnitID = ev.UnitID
			d.path = append([]command.WaypointInput(nil), currentWaypoints...)
		}
		return nil

	case PointerMove:
		d := a.drags[0]
		if d == nil || !d.active {
			return nil
		}
		if !a.pastDragThreshold(d, ev) {
			return nil
		}
		if d.draggingMarker {
			a.applyMarkerDrag(d, ev)
		}
		return nil

	case PointerUp:
		d := a.drags[0]
		delete(a.drags, 0)
		if d == nil {
			return nil
		}
		dragged := a.pastDragThreshold(d, ev)

		if d.draggingMarker {
			if !dragged {
				return nil // a non-drag release on a marker is a no-op, not a click-through
			}
			a.applyMarkerDrag(d, ev)
			return []command.Command{{UnitID: d.targetUnitID, Type: command.SetPath, Waypoints: d.path}}
		}

		if dragged {
			return nil // plain terrain/empty-space drags (e.g. camera pan) emit no command
		}
		if ev.UnitID != 0 {
			return []command.Command{{UnitID: ev.UnitID, Type: command.Select}}
		}
		if selectedUnitID != 0 {
			return []command.Command{{
				UnitID: selectedUnitID,
				Type:   command.Move,
				Waypoints: []command.WaypointInput{{
					ID:       newWaypointID(),
					Position: ev.WorldPos,
				}},
			}}
		}
		return nil
	}
	return nil
}

func (a *Arbiter) pastDragThreshold(d *dragState, ev PointerEvent) bool {
	dx := ev.X - d.startX
	dy := ev.Y - d.startY
	return dx*dx+dy*dy >= dragThresholdPx*dragThresholdPx
}

// applyMarkerDrag updates the in-flight waypoint list to reflect the
// marker's new world position. This mutates only the Arbiter's local draft,
// never the unit: the draft is committed as a single SET_PATH on release.
func (a *Arbiter) applyMarkerDrag(d *dragState, ev PointerEvent) {
	for i := range d.path {
		if d.path[i].ID == d.waypointID {
			d.path[i].Position = ev.WorldPos
			return
		}
	}
}

// HandleKeyboard classifies a raw directional key state into a Select-less
// manual Input; keyboard override never produces a queued command (it is
// not subject to cross-peer ordering — spec.md Sec.4.4 local-authority
// note), it is applied directly via unit.SetManualInput by the transport
// layer.
func (a *Arbiter) HandleKeyboard(moveForward, turnInput float64) (forward, turn float64) {
	return moveForward, turnInput
}

var waypointSeq int

// newWaypointID mints a locally-unique waypoint ID. IDs only need to be
// unique within one unit's path, so a process-local counter is sufficient;
// they are never compared across peers for equality, only resolved by the
// issuing peer's own rebuild of PathSegmentIndices.
func newWaypointID() string {
	waypointSeq++
	return "wp-" + itoa(waypointSeq)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := [20]byte{}
	i := len(digits)
	for n > 0 {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return string(digits[i:])
}
