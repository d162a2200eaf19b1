package services

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"groundstation/internal/models"
)

// WebSocketMessage is the envelope sent to dashboard clients
type WebSocketMessage struct {
	Type      string      `json:"type"` // "cycle", "event", "pong", "error"
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Token     string      `json:"token,omitempty"` // client auth messages
}

// ClientConnection represents a connected dashboard client
type ClientConnection struct {
	ID    string
	Conn  *websocket.Conn
	Send  chan WebSocketMessage
	Close chan bool
}

// WebSocketHub fans completed cycles and mode events out to every connected
// dashboard. The session pushes into it; it never polls on its own.
type WebSocketHub struct {
	clients    map[string]*ClientConnection
	broadcast  chan WebSocketMessage
	register   chan *ClientConnection
	unregister chan string
	mu         sync.RWMutex
	done       chan bool
}

// NewWebSocketHub creates and starts the hub
func NewWebSocketHub() *WebSocketHub {
	hub := &WebSocketHub{
		clients:    make(map[string]*ClientConnection),
		broadcast:  make(chan WebSocketMessage, 256),
		register:   make(chan *ClientConnection),
		unregister: make(chan string),
		done:       make(chan bool),
	}
	go hub.run()
	return hub
}

// run manages the hub's event loop
func (h *WebSocketHub) run() {
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("[WS] Client connected: %s (total: %d)", client.ID, total)

		case clientID := <-h.unregister:
			h.mu.Lock()
			if client, exists := h.clients[clientID]; exists {
				delete(h.clients, clientID)
				close(client.Send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("[WS] Client disconnected: %s (total: %d)", clientID, total)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.Send <- msg:
				default:
					// client's send channel is full, skip this message
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a new client to the hub
func (h *WebSocketHub) Register(client *ClientConnection) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *WebSocketHub) Unregister(clientID string) {
	h.unregister <- clientID
}

// BroadcastCycle publishes a completed polling cycle to every client
func (h *WebSocketHub) BroadcastCycle(snapshot CycleSnapshot) {
	h.enqueue(WebSocketMessage{
		Type:      "cycle",
		Timestamp: time.Now(),
		Data:      snapshot,
	})
}

// BroadcastEvent publishes a mode-controller event to every client
func (h *WebSocketHub) BroadcastEvent(event models.ModeEvent) {
	h.enqueue(WebSocketMessage{
		Type:      "event",
		Timestamp: time.Now(),
		Data:      event,
	})
}

// enqueue drops the message rather than blocking the polling loop when the
// broadcast channel is full
func (h *WebSocketHub) enqueue(msg WebSocketMessage) {
	select {
	case h.broadcast <- msg:
	default:
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop gracefully stops the hub
func (h *WebSocketHub) Stop() {
	h.done <- true
}
