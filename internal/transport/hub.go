package transport

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"mud-platform-backend/internal/arbiter"
	"mud-platform-backend/internal/command"
	"mud-platform-backend/internal/metrics"
	"mud-platform-backend/internal/seat"
	"mud-platform-backend/internal/unit"
	"mud-platform-backend/internal/validation"
)

var validate = validation.New()

// InboundMessage pairs a raw client message with the connection it arrived
// on (spec.md Sec.6), mirroring cmd/game-server/websocket.ClientMessageWrapper.
type InboundMessage struct {
	Client  *Client
	Message *ClientMessage
}

// UnitLookup resolves a unit ID to its authoritative state, satisfied by
// simloop.Loop. Kept as an interface so transport never imports simloop
// directly (simloop already imports command/seat/unit; transport must not
// close that cycle).
type UnitLookup interface {
	Unit(id int) *unit.Unit
}

// Hub fans inbound client messages into the command queue / manual-input
// slots and fans outbound snapshots/seat events to every connected peer.
// Grounded on cmd/game-server/websocket/hub.go, generalized from
// character-uuid keys to per-slot int keys.
type Hub struct {
	Clients map[int]*Client

	Inbound    chan *InboundMessage
	Register   chan *Client
	Unregister chan *Client

	Factory *command.Factory
	Queue   *command.Queue
	Units   UnitLookup

	log zerolog.Logger
	mu  sync.RWMutex
}

// NewHub constructs a Hub wired to the shared command queue and unit
// lookup.
func NewHub(factory *command.Factory, queue *command.Queue, units UnitLookup, log zerolog.Logger) *Hub {
	return &Hub{
		Clients:    make(map[int]*Client),
		Inbound:    make(chan *InboundMessage, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Factory:    factory,
		Queue:      queue,
		Units:      units,
		log:        log.With().Str("component", "transport.hub").Logger(),
	}
}

// Run processes register/unregister/inbound events until stopped. It is
// meant to run on its own goroutine, separate from the simloop tick
// goroutine (spec.md Sec.5); the only shared-state touch point is Queue,
// which is safe because DrainTick is only ever called from the simloop
// goroutine while Enqueue here only appends.
func (h *Hub) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case c := <-h.Register:
			h.mu.Lock()
			h.Clients[c.Slot] = c
			h.mu.Unlock()
			metrics.SetSimActiveConnections(h.clientCount())
		case c := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.Clients[c.Slot]; ok {
				delete(h.Clients, c.Slot)
				close(c.Send)
			}
			h.mu.Unlock()
			metrics.SetSimActiveConnections(h.clientCount())
		case msg := <-h.Inbound:
			h.handle(msg)
		}
	}
}

func (h *Hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.Clients)
}

func (h *Hub) handle(msg *InboundMessage) {
	switch msg.Message.Type {
	case MessageTypeCommand:
		h.handleCommand(msg)
	case MessageTypeManualInput:
		h.handleManualInput(msg)
	case MessageTypePointerEvent:
		h.handlePointerEvent(msg)
	case MessageTypeSeatRequest:
		h.handleSeatRequest(msg)
	default:
		msg.Client.SendError("unknown message type")
	}
}

func (h *Hub) handleCommand(msg *InboundMessage) {
	var data CommandData
	if err := json.Unmarshal(msg.Message.Data, &data); err != nil {
		msg.Client.SendError("invalid command payload")
		return
	}
	if err := validate.ValidateUnitID(data.UnitID); err != nil {
		msg.Client.SendError(err.Error())
		return
	}
	typ := command.Type(data.Type)
	waypoints := make([]command.WaypointInput, len(data.Waypoints))
	for i, wp := range data.Waypoints {
		waypoints[i] = command.WaypointInput{ID: wp.ID, Position: wp.Position}
	}
	if typ == command.Move || typ == command.SetPath {
		if err := validate.ValidateWaypointCount(len(waypoints)); err != nil {
			msg.Client.SendError(err.Error())
			return
		}
	}
	cmd := h.Factory.Stamp(msg.Client.Slot, data.UnitID, typ, waypoints)
	h.Queue.Enqueue(cmd)
	metrics.RecordSimCommand(string(typ))
}

func (h *Hub) handleManualInput(msg *InboundMessage) {
	var data ManualInputData
	if err := json.Unmarshal(msg.Message.Data, &data); err != nil {
		msg.Client.SendError("invalid manual input payload")
		return
	}
	u := h.Units.Unit(data.UnitID)
	if u == nil || !seat.IsAuthorized(u, msg.Client.Slot) {
		return
	}
	u.SetManualInput(unit.Input{MoveForward: data.MoveForward, TurnInput: data.TurnInput})
}

// handlePointerEvent runs a raw pointer sample through the client's own
// Arbiter (C10), stamping and enqueueing any command it classifies the
// gesture into. The arbiter never mutates unit state directly (spec.md
// Sec.9) — a marker drag only ever produces a SET_PATH command like any
// other path edit.
func (h *Hub) handlePointerEvent(msg *InboundMessage) {
	var data PointerEventData
	if err := json.Unmarshal(msg.Message.Data, &data); err != nil {
		msg.Client.SendError("invalid pointer event payload")
		return
	}

	ev := arbiter.PointerEvent{
		Kind:       arbiter.PointerKind(data.Kind),
		X:          data.X,
		Y:          data.Y,
		UnitID:     data.UnitID,
		WorldPos:   data.WorldPos,
		WaypointID: data.WaypointID,
	}

	current := h.currentWaypoints(data.SelectedUnitID)
	for _, cmd := range msg.Client.Arbiter.HandlePointer(ev, data.SelectedUnitID, current) {
		stamped := h.Factory.Stamp(msg.Client.Slot, cmd.UnitID, cmd.Type, cmd.Waypoints)
		h.Queue.Enqueue(stamped)
		metrics.RecordSimCommand(string(cmd.Type))
	}
}

// currentWaypoints fetches unitID's present waypoint list in wire form, the
// seed an in-flight marker drag mutates before committing a SET_PATH.
func (h *Hub) currentWaypoints(unitID int) []command.WaypointInput {
	u := h.Units.Unit(unitID)
	if u == nil {
		return nil
	}
	out := make([]command.WaypointInput, len(u.Waypoints))
	for i, wp := range u.Waypoints {
		out[i] = command.WaypointInput{ID: wp.ID, Position: [3]float64{wp.Position.X, wp.Position.Y, wp.Position.Z}}
	}
	return out
}

func (h *Hub) handleSeatRequest(msg *InboundMessage) {
	var data SeatRequestData
	if err := json.Unmarshal(msg.Message.Data, &data); err != nil {
		msg.Client.SendError("invalid seat request payload")
		return
	}
	u := h.Units.Unit(data.UnitID)
	if u == nil {
		msg.Client.SendError("no such unit")
		return
	}
	if data.Release {
		seat.Release(u, msg.Client.Slot)
		return
	}
	if data.PIN != nil {
		if err := validate.ValidatePIN(data.PIN); err != nil {
			msg.Client.SendError(err.Error())
			return
		}
	}
	historyLen := len(u.Seat.OwnerHistory)
	result := seat.Acquire(u, msg.Client.Slot, data.PIN, 0, msg.Client.Slot == 0)
	if !result.Granted {
		metrics.RecordSimSeatDeny(string(result.Reason))
		msg.Client.SendError("seat denied: " + string(result.Reason))
		return
	}
	metrics.RecordSimSeatGrant("seat_claim")
	if len(u.Seat.OwnerHistory) > historyLen {
		ev := u.Seat.OwnerHistory[len(u.Seat.OwnerHistory)-1]
		h.BroadcastSeatEvent(SeatEventData{
			UnitID:       u.ID,
			OwnerSlot:    ev.Slot,
			PreviousSlot: ev.PreviousSlot,
			Method:       string(ev.Method),
			Tick:         ev.AcquiredAt,
		})
	}
}

// BroadcastSnapshot fans the per-tick authoritative snapshot out to every
// connected peer (spec.md Sec.4.7).
func (h *Hub) BroadcastSnapshot(snap SnapshotData) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.Clients))
	for _, c := range h.Clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.SendMessage(MessageTypeSnapshot, snap)
	}
}

// BroadcastSeatEvent fans a seat ownership change out to every connected
// peer (spec.md Sec.4.5).
func (h *Hub) BroadcastSeatEvent(ev SeatEventData) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.Clients))
	for _, c := range h.Clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.SendMessage(MessageTypeSeatEvent, ev)
	}
}
