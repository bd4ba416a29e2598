package transport

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"mud-platform-backend/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Handler upgrades authenticated HTTP connections to WebSocket and wires
// the resulting Client into Hub, grounded on
// cmd/game-server/websocket/handler.go's upgrade-then-register shape.
// Identity resolution differs from the teacher: there is no per-character
// lobby join here, only a bearer token resolved to a stable operator
// identity and, through the Registry, a stable slot.
type Handler struct {
	Hub      *Hub
	Issuer   *session.TokenIssuer
	Registry *session.Registry
	log      zerolog.Logger
}

// NewHandler constructs a websocket upgrade handler.
func NewHandler(hub *Hub, issuer *session.TokenIssuer, registry *session.Registry, log zerolog.Logger) *Handler {
	return &Handler{
		Hub:      hub,
		Issuer:   issuer,
		Registry: registry,
		log:      log.With().Str("component", "transport.handler").Logger(),
	}
}

// ServeHTTP authenticates the bearer token, resolves it to a stable slot,
// and upgrades the connection.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	operatorID, err := h.Issuer.Verify(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	slot, err := h.Registry.Slot(context.Background(), operatorID)
	if err != nil {
		h.log.Warn().Err(err).Str("operator_id", operatorID).Msg("slot assignment failed")
		http.Error(w, "session full", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(h.Hub, conn, slot, h.log)
	h.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	h.log.Info().Int("slot", slot).Str("operator_id", operatorID).Msg("connection established")
}
