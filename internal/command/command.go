// Package command implements the cross-peer command queue (spec.md Sec.4.5,
// C7): the Type enum, the per-command envelope, and a stable ordering that
// is the sole source of cross-peer determinism — two peers that receive the
// same set of commands for a tick must drain them in the same order
// regardless of network arrival order. Grounded on
// internal/game/processor.GameProcessor's action-string dispatch idiom,
// generalized from a single in-process switch into an ordered, queued
// envelope type.
package command

import "sort"

// Type is the kind of a queued command (spec.md Sec.4.5).
type Type string

const (
	Select    Type = "SELECT"
	Deselect  Type = "DESELECT"
	Move      Type = "MOVE"
	ClosePath Type = "CLOSE_PATH"
	SetPath   Type = "SET_PATH"
	Clear     Type = "CLEAR"
	Play      Type = "PLAY"
	Pause     Type = "PAUSE"
)

// typeOrder gives every Type a stable rank so that two commands with an
// identical (tick, issuedBySlot, unitId) still sort deterministically
// instead of depending on queue insertion order.
var typeOrder = map[Type]int{
	Select:    0,
	Deselect:  1,
	Move:      2,
	ClosePath: 3,
	SetPath:   4,
	Clear:     5,
	Play:      6,
	Pause:     7,
}

// WaypointInput is the wire shape of a single waypoint in a MOVE/SET_PATH
// payload (spec.md Sec.6).
type WaypointInput struct {
	ID       string
	Position [3]float64
}

// Command is one queued, ordered unit of input (spec.md Sec.4.5). Tick and
// IssuedBySlot are stamped by the Input Factory, never by the client.
type Command struct {
	Tick         uint64
	IssuedBySlot int
	UnitID       int
	Type         Type
	Waypoints    []WaypointInput // MOVE (single-element), SET_PATH (full list)
}

// lessKey compares the ordering key (tick, issuedBySlot, unitId, type).
func lessKey(a, b Command) bool {
	if a.Tick != b.Tick {
		return a.Tick < b.Tick
	}
	if a.IssuedBySlot != b.IssuedBySlot {
		return a.IssuedBySlot < b.IssuedBySlot
	}
	if a.UnitID != b.UnitID {
		return a.UnitID < b.UnitID
	}
	return typeOrder[a.Type] < typeOrder[b.Type]
}

// Queue buffers commands for tick-gated draining. It is not goroutine-safe
// on its own; callers serialize access through the simloop's single tick
// goroutine (spec.md Sec.5).
type Queue struct {
	pending []Command
}

// NewQueue constructs an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue admits a command for future draining. Commands stamped for a tick
// that has already been drained are the caller's responsibility to reject
// upstream (spec.md Sec.7: late commands are dropped, not retroactively
// applied).
func (q *Queue) Enqueue(c Command) {
	q.pending = append(q.pending, c)
}

// DrainTick removes and returns, in stable (tick, issuedBySlot, unitId,
// type) order, every command stamped for exactly the given tick. Commands
// stamped for a different tick remain queued.
func (q *Queue) DrainTick(tick uint64) []Command {
	var due []Command
	var rest []Command
	for _, c := range q.pending {
		if c.Tick == tick {
			due = append(due, c)
		} else {
			rest = append(rest, c)
		}
	}
	q.pending = rest

	sort.SliceStable(due, func(i, j int) bool {
		return lessKey(due[i], due[j])
	})
	return due
}

// Len reports the number of commands still buffered (diagnostic use only).
func (q *Queue) Len() int {
	return len(q.pending)
}
