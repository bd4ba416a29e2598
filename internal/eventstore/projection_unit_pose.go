package eventstore

import (
	"context"
	"encoding/json"
	"sync"
)

// UnitPoseRecord is one unit's most recently issued waypoint target, the
// read model UnitPoseProjection maintains.
type UnitPoseRecord struct {
	LastCommandType string
	LastWaypoints   []CommandWaypoint
	LastTick        uint64
}

// CommandWaypoint is the projection-side copy of command.WaypointInput;
// kept separate so this package never imports command just to shape a read
// model field.
type CommandWaypoint struct {
	ID       string     `json:"id"`
	Position [3]float64 `json:"position"`
}

// UnitPoseProjection builds an in-memory "where did this unit last get told
// to go" read model from CommandIssued events, so a debug tool or recovery
// path can ask "what was unit N doing" without replaying the whole session
// through the simulation (spec.md Sec.8 CQRS read-model note). It only
// tracks MOVE/SET_PATH targets: SELECT/DESELECT/CLEAR/PLAY/PAUSE carry no
// waypoints worth projecting.
type UnitPoseProjection struct {
	mu     sync.RWMutex
	byUnit map[int]UnitPoseRecord
}

// NewUnitPoseProjection returns an empty projection.
func NewUnitPoseProjection() *UnitPoseProjection {
	return &UnitPoseProjection{byUnit: make(map[int]UnitPoseRecord)}
}

// Name identifies this projection to a ProjectionManager.
func (p *UnitPoseProjection) Name() string {
	return "unit_pose"
}

// HandleEvent updates the read model from event. Non-command events and
// command types that carry no waypoints are ignored.
func (p *UnitPoseProjection) HandleEvent(ctx context.Context, event Event) error {
	if event.EventType != commandEventType {
		return nil
	}

	var payload commandPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return err
	}
	if len(payload.Waypoints) == 0 {
		return nil
	}

	waypoints := make([]CommandWaypoint, len(payload.Waypoints))
	for i, wp := range payload.Waypoints {
		waypoints[i] = CommandWaypoint{ID: wp.ID, Position: wp.Position}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.byUnit[payload.UnitID] = UnitPoseRecord{
		LastCommandType: string(payload.Type),
		LastWaypoints:   waypoints,
		LastTick:        payload.Tick,
	}
	return nil
}

// Snapshot returns unitID's last known target, and whether one has ever
// been recorded.
func (p *UnitPoseProjection) Snapshot(unitID int) (UnitPoseRecord, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rec, ok := p.byUnit[unitID]
	return rec, ok
}
