package transport

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"mud-platform-backend/internal/command"
)

// NATSBridge fans commands and seat events across instances of the same
// simulation session, so a session sharded across multiple simserver
// processes stays consistent. Grounded on internal/nats/event_listener.go's
// subscribe/unmarshal/dispatch shape, generalized from a single fixed
// subject ("spatial.command.move") to a per-session subject pair.
type NATSBridge struct {
	nc        *nats.Conn
	sessionID string
	queue     *command.Queue
	hub       *Hub
	log       zerolog.Logger
}

// NewNATSBridge constructs a bridge for sessionID.
func NewNATSBridge(nc *nats.Conn, sessionID string, queue *command.Queue, hub *Hub, log zerolog.Logger) *NATSBridge {
	return &NATSBridge{
		nc:        nc,
		sessionID: sessionID,
		queue:     queue,
		hub:       hub,
		log:       log.With().Str("component", "transport.nats").Str("session", sessionID).Logger(),
	}
}

func (b *NATSBridge) commandSubject() string {
	return fmt.Sprintf("sim.%s.command", b.sessionID)
}

func (b *NATSBridge) seatSubject() string {
	return fmt.Sprintf("sim.%s.seat", b.sessionID)
}

// PublishCommand fans a locally-received command to every other instance
// sharing this session.
func (b *NATSBridge) PublishCommand(cmd command.Command) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("nats bridge: marshal command: %w", err)
	}
	return b.nc.Publish(b.commandSubject(), data)
}

// PublishSeatEvent fans a locally-applied seat change to every other
// instance sharing this session.
func (b *NATSBridge) PublishSeatEvent(ev SeatEventData) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("nats bridge: marshal seat event: %w", err)
	}
	return b.nc.Publish(b.seatSubject(), data)
}

// Subscribe starts listening for commands and seat events published by
// other instances of this session, merging them into the local queue/hub.
func (b *NATSBridge) Subscribe() error {
	if _, err := b.nc.Subscribe(b.commandSubject(), func(msg *nats.Msg) {
		var cmd command.Command
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			b.log.Error().Err(err).Msg("failed to unmarshal remote command")
			return
		}
		b.queue.Enqueue(cmd)
	}); err != nil {
		return fmt.Errorf("nats bridge: subscribe command: %w", err)
	}

	if _, err := b.nc.Subscribe(b.seatSubject(), func(msg *nats.Msg) {
		var ev SeatEventData
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			b.log.Error().Err(err).Msg("failed to unmarshal remote seat event")
			return
		}
		b.hub.BroadcastSeatEvent(ev)
	}); err != nil {
		return fmt.Errorf("nats bridge: subscribe seat: %w", err)
	}

	return nil
}
