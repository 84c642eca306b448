package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hearthcall/hearth/internal/adapter/driven/gateway/ws"
	"github.com/hearthcall/hearth/internal/core/domain"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict to the deployed origin once the domain is settled
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the connection and runs it until the peer goes away.
// The read loop feeds the router; whatever notifications come back go out
// through the hub. A dying connection always ends in the disconnect rules.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Error while upgrading ws")
		return
	}

	connID := uuid.New().String()
	client := ws.NewClient(connID, conn)

	l := log.With().Str("conn_id", connID).Logger()
	l.Info().Msg("New client connected")

	h.Hub.Register(client)
	go client.WritePump()

	client.ReadPump(func(ev domain.Event) {
		h.Hub.Deliver(h.Router.Dispatch(connID, ev))
	})

	l.Info().Msg("Client disconnected")
	h.Hub.Unregister(connID)
	h.Hub.Deliver(h.Router.Disconnect(connID))
}
