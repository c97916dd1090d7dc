package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vjeyam/sports-odds-pipeline/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin enforcement happens in the CORS layer; the dashboard is the
	// only expected consumer
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the connection and attaches the client to the run hub
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		fmt.Printf("websocket upgrade failed: %v\n", err)
		return
	}

	client := hub.NewClient(uuid.New().String(), conn, h.hub)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
