package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"waveclip/types"

	"github.com/gorilla/websocket"
)

// WebSocket upgrader with CORS support
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin for development
		// In production, check against allowed origins
		return true
	},
}

// Client represents a WebSocket client connection for one session
type Client struct {
	hub       Hub
	conn      *websocket.Conn
	send      chan types.SessionMessage
	sessionID string

	// onEvent receives pointer/playback events decoded from the wire
	onEvent func(types.InputEvent)

	// onClose runs once when the connection goes away, on every exit path.
	// Used to end an in-flight drag so gestures never leak across clients.
	onClose func()
}

// NewClient creates a new WebSocket client
func NewClient(hub Hub, conn *websocket.Conn, sessionID string, onEvent func(types.InputEvent), onClose func()) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan types.SessionMessage, 256),
		sessionID: sessionID,
		onEvent:   onEvent,
		onClose:   onClose,
	}
}

// StartPumps starts the read and write pumps for the client
func (c *Client) StartPumps() {
	go c.writePump()
	go c.readPump()
}

// readPump decodes input events from the connection and hands them to the
// session. Pointer-move events fire at high frequency, so the handler must
// stay cheap.
func (c *Client) readPump() {
	defer func() {
		if c.onClose != nil {
			c.onClose()
		}
		c.hub.UnregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var event types.InputEvent
		if err := json.Unmarshal(message, &event); err != nil {
			log.Printf("WebSocket bad input event for session %s: %v", c.sessionID, err)
			continue
		}

		if c.onEvent != nil {
			c.onEvent(event)
		}
	}
}

// writePump handles writing to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				log.Printf("WebSocket write error: %v", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// GetUpgrader returns the WebSocket upgrader
func GetUpgrader() websocket.Upgrader {
	return upgrader
}
