// Package wsclient holds one dashboard websocket connection and its pumps.
package wsclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// Buffer size for outbound messages
	sendBufferSize = 256
)

// MessageType identifies server message payloads
type MessageType string

const (
	MessageTypeMetaPick MessageType = "meta_pick"
)

// ServerMessage is the wire format pushed to clients
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// ClientMessage is the wire format received from clients
type ClientMessage struct {
	Type     string `json:"type"`      // "subscribe"
	SportKey string `json:"sport_key"` // empty = all sports
}

// Hub defines the interface for the broadcast hub
type Hub interface {
	Unregister(client *Client)
}

// Client represents a websocket client connection
type Client struct {
	ID   string
	conn *websocket.Conn
	Send chan ServerMessage // Exported for hub access
	hub  Hub

	sportKey string
	filterMu sync.RWMutex
}

// NewClient creates a new client instance
func NewClient(id string, conn *websocket.Conn, hub Hub) *Client {
	return &Client{
		ID:   id,
		conn: conn,
		Send: make(chan ServerMessage, sendBufferSize),
		hub:  hub,
	}
}

// MatchesSport reports whether this client wants decisions for a sport
func (c *Client) MatchesSport(sportKey string) bool {
	c.filterMu.RLock()
	defer c.filterMu.RUnlock()
	return c.sportKey == "" || c.sportKey == sportKey
}

// ReadPump pumps messages from the websocket connection to the hub
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg ClientMessage
			if err := c.conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					fmt.Printf("client %s unexpected close: %v\n", c.ID, err)
				}
				return
			}

			if msg.Type == "subscribe" {
				c.filterMu.Lock()
				c.sportKey = msg.SportKey
				c.filterMu.Unlock()
			}
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				fmt.Printf("client %s write error: %v\n", c.ID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend sends a message to the client (non-blocking).
// Returns true if sent, false if the buffer is full.
func (c *Client) TrySend(msg ServerMessage) bool {
	select {
	case c.Send <- msg:
		return true
	default:
		// Buffer full - client is too slow
		return false
	}
}
