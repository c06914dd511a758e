package websocket

import (
	"log"
	"sync"
	"time"

	"waveclip/types"
)

// Hub interface defines the methods for managing WebSocket connections
type Hub interface {
	Run()
	Broadcast(msg types.SessionMessage)
	BroadcastError(sessionID, message string)
	RegisterClient(client *Client)
	UnregisterClient(client *Client)
}

// hub maintains the set of active clients and fans session messages out to
// every client watching that session
type hub struct {
	// Registered clients mapped by session ID
	clients map[string]map[*Client]bool

	// Broadcast channel for sending messages to a session's clients
	broadcast chan types.SessionMessage

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex for thread-safe operations
	mu sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() Hub {
	return &hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan types.SessionMessage, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main event loop
func (h *hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.sessionID] == nil {
				h.clients[client.sessionID] = make(map[*Client]bool)
			}
			h.clients[client.sessionID][client] = true
			h.mu.Unlock()
			log.Printf("WebSocket client connected for session %s", client.sessionID)

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.sessionID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.clients, client.sessionID)
					}
				}
			}
			h.mu.Unlock()
			log.Printf("WebSocket client disconnected for session %s", client.sessionID)

		case message := <-h.broadcast:
			h.mu.RLock()
			if clients, ok := h.clients[message.SessionID]; ok {
				for client := range clients {
					select {
					case client.send <- message:
					default:
						close(client.send)
						delete(clients, client)
					}
				}
				if len(clients) == 0 {
					delete(h.clients, message.SessionID)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast sends a message to every client of the message's session
func (h *hub) Broadcast(msg types.SessionMessage) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	select {
	case h.broadcast <- msg:
	default:
		log.Printf("WebSocket broadcast channel full, dropping message for session %s", msg.SessionID)
	}
}

// BroadcastError sends a user-visible error message to a session's clients
func (h *hub) BroadcastError(sessionID, message string) {
	h.Broadcast(types.SessionMessage{
		SessionID: sessionID,
		Type:      "error",
		Message:   message,
		Timestamp: time.Now(),
	})
}

// RegisterClient registers a new client with the hub
func (h *hub) RegisterClient(client *Client) {
	h.register <- client
}

// UnregisterClient unregisters a client from the hub
func (h *hub) UnregisterClient(client *Client) {
	h.unregister <- client
}
