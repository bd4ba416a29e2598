package eventstore

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"mud-platform-backend/internal/command"
)

const commandAggregateType = "SimSession"
const commandEventType = "CommandIssued"

// commandPayload is the JSON shape stored for every CommandIssued event.
// It mirrors command.Command field-for-field; kept as a separate type so
// renaming a Command field doesn't silently change the wire/storage format.
type commandPayload struct {
	Tick         uint64                  `json:"tick"`
	IssuedBySlot int                     `json:"issued_by_slot"`
	UnitID       int                     `json:"unit_id"`
	Type         command.Type            `json:"type"`
	Waypoints    []command.WaypointInput `json:"waypoints,omitempty"`
}

// CommandLog appends every issued Command to an EventStore, scoped by
// sessionID, and can replay them back out in the same
// (tick, issuedBySlot, unitId, type) order command.Queue.DrainTick uses
// (spec.md Sec.8: replaying a session's command log must reproduce the
// same authoritative simulation bit-for-bit). Replay is implemented on top
// of a ReplayEngine rather than calling the store directly, so the same
// version-range fetch-then-filter logic backs both ad-hoc debug replay
// (ReplayEvents/RewindToTimestamp) and the command log's own full replay.
type CommandLog struct {
	store       EventStore
	engine      ReplayEngine
	sessionID   string
	projections *ProjectionManager
}

// NewCommandLog scopes store to a single session's command history.
func NewCommandLog(store EventStore, sessionID string) *CommandLog {
	return &CommandLog{store: store, engine: NewPostgresReplayEngine(store), sessionID: sessionID}
}

// SetProjections wires pm so every Append also updates pm's read models in
// the same call, keeping them current with the log without a separate
// polling/subscription step.
func (l *CommandLog) SetProjections(pm *ProjectionManager) {
	l.projections = pm
}

// Append durably records cmd as the next event for this session. version
// must be monotonically increasing per session (the caller-side event
// sequence number, not the simulation tick — two commands can share a
// tick).
func (l *CommandLog) Append(ctx context.Context, version int64, cmd command.Command) error {
	payload := commandPayload{
		Tick:         cmd.Tick,
		IssuedBySlot: cmd.IssuedBySlot,
		UnitID:       cmd.UnitID,
		Type:         cmd.Type,
		Waypoints:    cmd.Waypoints,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("eventstore: marshal command: %w", err)
	}
	event := Event{
		ID:            uuid.NewString(),
		EventType:     commandEventType,
		AggregateID:   l.sessionID,
		AggregateType: commandAggregateType,
		Version:       version,
		Timestamp:     time.Now().UTC(),
		Payload:       data,
	}
	if err := l.store.AppendEvent(ctx, event); err != nil {
		return err
	}
	if l.projections != nil {
		return l.projections.ProjectEvent(ctx, event)
	}
	return nil
}

// Replay reconstructs every command issued for this session as a
// command.Queue, ordered exactly as DrainTick would have delivered it live:
// by tick, then issuedBySlot, then unitId, then type. Visual-only state
// (interpolation buffers, per-unit RNG substream draws) is never part of
// the event log in the first place, so replaying it can never reproduce
// anything but the authoritative path the units actually took — the
// "strip visual stream" property spec.md Sec.8 asks for falls out of the
// log's schema rather than needing an explicit filter step.
func (l *CommandLog) Replay(ctx context.Context) (*command.Queue, error) {
	events, err := l.engine.ReplayEvents(ctx, l.sessionID, 0, math.MaxInt64)
	if err != nil {
		return nil, fmt.Errorf("eventstore: fetch command log: %w", err)
	}

	cmds := make([]command.Command, 0, len(events))
	for _, e := range events {
		if e.EventType != commandEventType {
			continue
		}
		var p commandPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return nil, fmt.Errorf("eventstore: unmarshal command: %w", err)
		}
		cmds = append(cmds, command.Command{
			Tick:         p.Tick,
			IssuedBySlot: p.IssuedBySlot,
			UnitID:       p.UnitID,
			Type:         p.Type,
			Waypoints:    p.Waypoints,
		})
	}

	sort.SliceStable(cmds, func(i, j int) bool {
		return cmds[i].Tick < cmds[j].Tick
	})

	queue := command.NewQueue()
	for _, c := range cmds {
		queue.Enqueue(c)
	}
	return queue, nil
}

// ReplayUpTo reconstructs the command.Queue as it stood at cutoff, for
// stepping a determinism bug back to a specific wall-clock moment rather
// than replaying the whole session.
func (l *CommandLog) ReplayUpTo(ctx context.Context, cutoff time.Time) (*command.Queue, error) {
	events, err := l.engine.RewindToTimestamp(ctx, l.sessionID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("eventstore: rewind command log: %w", err)
	}

	queue := command.NewQueue()
	for _, e := range events {
		if e.EventType != commandEventType {
			continue
		}
		var p commandPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return nil, fmt.Errorf("eventstore: unmarshal command: %w", err)
		}
		queue.Enqueue(command.Command{
			Tick:         p.Tick,
			IssuedBySlot: p.IssuedBySlot,
			UnitID:       p.UnitID,
			Type:         p.Type,
			Waypoints:    p.Waypoints,
		})
	}
	return queue, nil
}
