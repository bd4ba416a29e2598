// Package transport fans out the authoritative simulation over WebSocket
// (in-process, per-session) and NATS (cross-instance), and defines the wire
// shape of commands, seat events and snapshots (spec.md Sec.6, C11).
// Grounded on cmd/game-server/websocket/{hub.go,client.go,protocol.go} —
// generalized from per-character uuid.UUID keys to per-slot int keys, since
// a simulation session's peers are numbered seats rather than persistent
// player characters — and on internal/nats/event_listener.go for the NATS
// subject/subscribe shape.
package transport

import "encoding/json"

// MessageType tags the envelope of every message exchanged over the
// WebSocket connection, mirroring cmd/game-server/websocket/protocol.go's
// ClientMessage/ServerMessage split.
type MessageType string

const (
	MessageTypeCommand      MessageType = "command"
	MessageTypeSeatRequest  MessageType = "seat_request"
	MessageTypeManualInput  MessageType = "manual_input"
	MessageTypePointerEvent MessageType = "pointer_event"
	MessageTypeSnapshot     MessageType = "snapshot"
	MessageTypeSeatEvent    MessageType = "seat_event"
	MessageTypeError        MessageType = "error"
)

// ClientMessage is the envelope a connected peer sends.
type ClientMessage struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ServerMessage is the envelope broadcast to peers.
type ServerMessage struct {
	Type MessageType `json:"type"`
	Data interface{} `json:"data"`
}

// CommandData is the wire shape of a queued command (spec.md Sec.6).
type CommandData struct {
	UnitID    int             `json:"unitId"`
	Type      string          `json:"type"` // one of command.Type's string values
	Waypoints []WaypointWire  `json:"waypoints,omitempty"`
}

// WaypointWire is the wire shape of one waypoint.
type WaypointWire struct {
	ID       string     `json:"id"`
	Position [3]float64 `json:"position"`
}

// PointerEventData is the wire shape of one raw pointer sample from a
// connected peer (spec.md Sec.4.5/C10): select/deselect clicks, move-to-point
// clicks, and marker-drag gestures all arrive as a stream of these rather
// than pre-classified commands, since only the server-side arbiter decides
// what gesture they add up to.
type PointerEventData struct {
	Kind           int        `json:"kind"` // arbiter.PointerDown/Move/Up
	X              float64    `json:"x"`
	Y              float64    `json:"y"`
	UnitID         int        `json:"unitId"`
	WorldPos       [3]float64 `json:"worldPos"`
	WaypointID     string     `json:"waypointId,omitempty"`
	SelectedUnitID int        `json:"selectedUnitId"`
}

// ManualInputData is the wire shape of a per-tick manual control sample
// (spec.md Sec.4.4); unlike Command, this is never queued or ordered — it
// is applied directly as the most recent sample for the issuing slot's
// currently-overriding unit.
type ManualInputData struct {
	UnitID      int     `json:"unitId"`
	MoveForward float64 `json:"moveForward"`
	TurnInput   float64 `json:"turnInput"`
}

// SeatRequestData is the wire shape of an acquisition/release attempt
// (spec.md Sec.4.5).
type SeatRequestData struct {
	UnitID  int  `json:"unitId"`
	Release bool `json:"release"`
	PIN     *int `json:"pin,omitempty"`
}

// SeatEventData is broadcast whenever a seat request grants a unit to a new
// owner, and whenever one arrives from another instance over NATS, carrying
// ownerHistory's newest entry for clients to render the transition
// (spec.md Sec.3/Sec.4.5). A seat release is not broadcast.
type SeatEventData struct {
	UnitID       int    `json:"unitId"`
	OwnerSlot    int    `json:"ownerSlot"`
	PreviousSlot int    `json:"previousSlot"`
	Method       string `json:"method"`
	Tick         uint64 `json:"tick"`
}

// UnitSnapshot is the wire shape of one unit's interpolatable pose, sent
// every authoritative tick (spec.md Sec.4.7).
type UnitSnapshot struct {
	UnitID     int        `json:"unitId"`
	Position   [3]float64 `json:"position"`
	Quaternion [4]float64 `json:"quaternion"` // w,x,y,z
	OwnerSlot  int        `json:"ownerSlot"`
	IsStuck    bool       `json:"isStuck"`
	IsBlocked  bool       `json:"isBlocked"`
}

// SnapshotData is the full per-tick broadcast payload.
type SnapshotData struct {
	Tick  uint64         `json:"tick"`
	Units []UnitSnapshot `json:"units"`
}

// ErrorData mirrors cmd/game-server/websocket/protocol.go's ErrorData.
type ErrorData struct {
	Message string `json:"message"`
}
