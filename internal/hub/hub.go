// Package hub fans generated meta-picks out to connected dashboard clients.
package hub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/wsclient"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/pkg/models"
)

// Hub maintains the set of active clients and broadcasts decisions to them
type Hub struct {
	// Registered clients
	clients   map[*wsclient.Client]bool
	clientsMu sync.RWMutex

	// Inbound decisions from the engine loop
	broadcast chan models.Decision

	// Register requests from clients
	register chan *wsclient.Client

	// Unregister requests from clients
	unregister chan *wsclient.Client

	// Metrics
	totalConnections int64
	totalMessages    int64
	metricsMu        sync.Mutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*wsclient.Client]bool),
		broadcast:  make(chan models.Decision, 1000),
		register:   make(chan *wsclient.Client),
		unregister: make(chan *wsclient.Client),
	}
}

// Run starts the hub's main loop
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

		case decision := <-h.broadcast:
			h.broadcastDecision(decision)
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(c *wsclient.Client) {
	h.register <- c
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *wsclient.Client) {
	h.unregister <- c
}

// Broadcast sends a decision to all matching clients (non-blocking)
func (h *Hub) Broadcast(decision models.Decision) {
	select {
	case h.broadcast <- decision:
	default:
		// Broadcast buffer full - drop message
		fmt.Println("⚠️  Broadcast buffer full, dropping decision")
	}
}

// registerClient adds a client to the active clients map
func (h *Hub) registerClient(c *wsclient.Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[c] = true
	h.incrementTotalConnections()

	fmt.Printf("client %s connected (total: %d)\n", c.ID, len(h.clients))
}

// unregisterClient removes a client from the active clients map
func (h *Hub) unregisterClient(c *wsclient.Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.Send)
		fmt.Printf("client %s disconnected (total: %d)\n", c.ID, len(h.clients))
	}
}

// broadcastDecision sends a decision to every client whose filter matches
func (h *Hub) broadcastDecision(decision models.Decision) {
	h.clientsMu.RLock()
	clients := make([]*wsclient.Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	message := wsclient.ServerMessage{
		Type:      wsclient.MessageTypeMetaPick,
		Payload:   decision,
		Timestamp: time.Now(),
	}

	sent := 0
	dropped := 0

	for _, c := range clients {
		if !c.MatchesSport(decision.SportKey) {
			continue
		}

		if c.TrySend(message) {
			sent++
		} else {
			dropped++
			// Client buffer full - they're too slow, disconnect them
			fmt.Printf("⚠️  client %s buffer full, disconnecting\n", c.ID)
			go h.Unregister(c)
		}
	}

	if sent > 0 {
		h.incrementTotalMessages()
	}

	if dropped > 0 {
		fmt.Printf("⚠️  Dropped %d messages (slow clients)\n", dropped)
	}
}

// GetClientCount returns the number of active clients
func (h *Hub) GetClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// GetMetrics returns hub metrics
func (h *Hub) GetMetrics() map[string]interface{} {
	h.clientsMu.RLock()
	activeClients := len(h.clients)
	h.clientsMu.RUnlock()

	h.metricsMu.Lock()
	totalConnections := h.totalConnections
	totalMessages := h.totalMessages
	h.metricsMu.Unlock()

	return map[string]interface{}{
		"active_clients":    activeClients,
		"total_connections": totalConnections,
		"total_messages":    totalMessages,
	}
}

// shutdown closes all client connections
func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	fmt.Printf("🛑 Shutting down hub (%d active clients)\n", len(h.clients))

	for c := range h.clients {
		close(c.Send)
		delete(h.clients, c)
	}
}

// incrementTotalConnections safely increments the total connections counter
func (h *Hub) incrementTotalConnections() {
	h.metricsMu.Lock()
	defer h.metricsMu.Unlock()
	h.totalConnections++
}

// incrementTotalMessages safely increments the total messages counter
func (h *Hub) incrementTotalMessages() {
	h.metricsMu.Lock()
	defer h.metricsMu.Unlock()
	h.totalMessages++
}
