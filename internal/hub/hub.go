// Package hub pushes pipeline run-state transitions to connected
// dashboard clients over WebSocket.
package hub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vjeyam/sports-odds-pipeline/pkg/models"
)

// Message types pushed to clients
const (
	MessageTypeRunUpdate = "run_update"
	MessageTypeHeartbeat = "heartbeat"
)

// ServerMessage is the envelope for every outbound frame
type ServerMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub maintains the set of active clients and fans run updates out to them
type Hub struct {
	clients   map[*Client]bool
	clientsMu sync.RWMutex

	broadcast  chan models.PipelineRun
	register   chan *Client
	unregister chan *Client

	// lastRun lets a freshly connected client catch up immediately
	lastRun   *models.PipelineRun
	lastRunMu sync.RWMutex
}

// New creates a hub; call Run to start its loop
func New() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.PipelineRun, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run drives the hub until ctx is done
func (h *Hub) Run(ctx context.Context) {
	fmt.Println("✓ Hub started")

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.registerClient(c)
		case c := <-h.unregister:
			h.unregisterClient(c)
		case run := <-h.broadcast:
			h.broadcastRun(run)
		}
	}
}

// NotifyRun queues a run snapshot for broadcast. Satisfies the
// orchestrator's notifier without blocking it: a full buffer drops the
// update, clients reconcile via the runs endpoint.
func (h *Hub) NotifyRun(run models.PipelineRun) {
	h.lastRunMu.Lock()
	h.lastRun = &run
	h.lastRunMu.Unlock()

	select {
	case h.broadcast <- run:
	default:
		fmt.Println("[Hub] broadcast buffer full, dropping run update")
	}
}

// Register adds a client to the hub
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) registerClient(c *Client) {
	h.clientsMu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.clientsMu.Unlock()

	fmt.Printf("[Hub] client %s connected (total: %d)\n", c.ID, total)

	// Replay the latest known run state to the new client
	h.lastRunMu.RLock()
	last := h.lastRun
	h.lastRunMu.RUnlock()
	if last != nil {
		c.TrySend(ServerMessage{
			Type:      MessageTypeRunUpdate,
			Payload:   *last,
			Timestamp: time.Now().UTC(),
		})
	}
}

func (h *Hub) unregisterClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.Send)
		fmt.Printf("[Hub] client %s disconnected (total: %d)\n", c.ID, len(h.clients))
	}
}

func (h *Hub) broadcastRun(run models.PipelineRun) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	message := ServerMessage{
		Type:      MessageTypeRunUpdate,
		Payload:   run,
		Timestamp: time.Now().UTC(),
	}

	for _, c := range clients {
		if !c.TrySend(message) {
			// Slow client, cut it loose rather than stall the fan-out
			fmt.Printf("[Hub] client %s buffer full, disconnecting\n", c.ID)
			go h.Unregister(c)
		}
	}
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	fmt.Printf("[Hub] shutting down (%d active clients)\n", len(h.clients))
	for c := range h.clients {
		close(c.Send)
		delete(h.clients, c)
	}
}
