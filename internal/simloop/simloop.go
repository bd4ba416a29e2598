// Package simloop drives the fixed-rate authoritative simulation tick
// (spec.md Sec.4.7, C8): snapshot-drain-tick-snapshot at 20Hz, decoupled
// from render frame rate via the render-time interpolation buffers already
// held on each unit. Grounded on cmd/game-server/main.go's graceful
// start/stop wiring, generalized from an HTTP server lifecycle to a
// ticker-driven simulation loop.
package simloop

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"mud-platform-backend/internal/command"
	"mud-platform-backend/internal/metrics"
	"mud-platform-backend/internal/seat"
	"mud-platform-backend/internal/unit"
)

// TickHz is the fixed authoritative simulation rate (spec.md Sec.4.7).
const TickHz = 20

// TickDuration is the fixed per-tick delta time in seconds.
const TickDuration = 1.0 / TickHz

// Loop owns the authoritative unit set and drives it at TickHz, independent
// of how fast (or slow) anything renders.
type Loop struct {
	units    map[int]*unit.Unit
	order    []int // stable ascending unit IDs, recomputed only when units change
	queue    *command.Queue
	deps     unit.Dependencies
	tick      uint64
	log       zerolog.Logger
	onTicked  func(tick uint64)
	onCommand func(cmd command.Command)
}

// New constructs a Loop over deps (terrain + obstacle oracles).
func New(deps unit.Dependencies, queue *command.Queue, log zerolog.Logger) *Loop {
	return &Loop{
		units: map[int]*unit.Unit{},
		queue: queue,
		deps:  deps,
		log:   log.With().Str("component", "simloop").Logger(),
	}
}

// AddUnit registers a unit with the loop, keyed by its ID.
func (l *Loop) AddUnit(u *unit.Unit) {
	l.units[u.ID] = u
	l.order = append(l.order, u.ID)
	sort.Ints(l.order)
	metrics.SetSimActiveUnits(len(l.units))
}

// RemoveUnit unregisters a unit (e.g. on despawn).
func (l *Loop) RemoveUnit(id int) {
	delete(l.units, id)
	for i, v := range l.order {
		if v == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	metrics.SetSimActiveUnits(len(l.units))
}

// Unit returns the unit with id, or nil if not registered.
func (l *Loop) Unit(id int) *unit.Unit {
	return l.units[id]
}

// Units returns every registered unit in stable ascending-ID order, used by
// the transport layer to build each tick's broadcast snapshot.
func (l *Loop) Units() []*unit.Unit {
	out := make([]*unit.Unit, len(l.order))
	for i, id := range l.order {
		out[i] = l.units[id]
	}
	return out
}

// CurrentTick reports the tick about to be (or currently being) processed;
// wired into command.Factory so issued commands are stamped consistently.
func (l *Loop) CurrentTick() uint64 {
	return l.tick
}

// OnTicked registers a callback invoked after every tick completes, used by
// the transport layer to broadcast the new snapshot. Tick duration is
// recorded by Step itself, not through this callback.
func (l *Loop) OnTicked(fn func(tick uint64)) {
	l.onTicked = fn
}

// OnCommand registers a callback invoked once per drained command, in the
// same deterministic order DrainTick produced it, before apply mutates any
// unit. Used to durably append every command to the session's event log
// (spec.md Sec.8) independent of whether it was ultimately authorized.
func (l *Loop) OnCommand(fn func(cmd command.Command)) {
	l.onCommand = fn
}

// Run blocks, ticking at TickHz until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(float64(time.Second) * TickDuration))
	defer ticker.Stop()

	l.log.Info().Float64("hz", TickHz).Msg("simulation loop starting")
	for {
		select {
		case <-ctx.Done():
			l.log.Info().Uint64("final_tick", l.tick).Msg("simulation loop stopping")
			return
		case <-ticker.C:
			l.Step(TickDuration)
		}
	}
}

// Step runs exactly one authoritative tick at the given dt (exported so
// tests and a headless replay driver can single-step deterministically
// without a real-time ticker).
func (l *Loop) Step(dt float64) {
	start := time.Now()
	defer func() { metrics.RecordSimTick(time.Since(start)) }()

	for _, id := range l.order {
		l.units[id].SnapshotPrev()
	}

	for _, cmd := range l.queue.DrainTick(l.tick) {
		if l.onCommand != nil {
			l.onCommand(cmd)
		}
		l.apply(cmd)
	}

	for _, id := range l.order {
		u := l.units[id]
		u.Tick(dt, inputFor(u), l.deps)
	}

	for _, id := range l.order {
		l.units[id].SnapshotCurr()
	}

	l.tick++
	if l.onTicked != nil {
		l.onTicked(l.tick)
	}
}

// inputFor derives this tick's manual Input from whatever the transport
// layer last stamped onto the unit via SetManualInput. Kept as a seam so
// unit.Unit need not import the command/transport packages.
func inputFor(u *unit.Unit) unit.Input {
	return u.PendingInput
}

// apply gates a drained command through seat authority before mutating the
// target unit (spec.md Sec.4.5: only the owning slot's commands take
// effect). SELECT is applied for any slot; any other command from a slot
// that does not own the unit is dropped silently, with no metric recorded.
func (l *Loop) apply(cmd command.Command) {
	u, ok := l.units[cmd.UnitID]
	if !ok {
		return
	}
	if cmd.Type != command.Select && !seat.IsAuthorized(u, cmd.IssuedBySlot) {
		return
	}

	switch cmd.Type {
	case command.Select:
		seat.Select(u, cmd.IssuedBySlot)
	case command.Deselect:
		seat.Deselect(u, cmd.IssuedBySlot)
	case command.Move:
		if len(cmd.Waypoints) == 0 {
			return
		}
		wp := cmd.Waypoints[0]
		u.AddWaypoint(wp.ID, vec3From(wp.Position), l.deps.Terrain)
	case command.SetPath:
		u.SetPath(waypointsFrom(cmd.Waypoints), l.deps.Terrain)
	case command.ClosePath:
		u.ClosePath(l.deps.Terrain)
	case command.Clear:
		u.ClearPath()
	case command.Play:
		u.Play()
	case command.Pause:
		u.Pause()
	}
}
