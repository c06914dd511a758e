package handlers

import (
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"waveclip/audio"
	"waveclip/config"
	"waveclip/services"
	"waveclip/types"
	"waveclip/websocket"

	"github.com/gin-gonic/gin"
)

// SessionHandler handles session lifecycle, source upload and timeline input
type SessionHandler struct {
	sessions services.SessionService
	jobQueue services.JobQueue
	hub      websocket.Hub
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(ss services.SessionService, jq services.JobQueue, hub websocket.Hub) *SessionHandler {
	return &SessionHandler{
		sessions: ss,
		jobQueue: jq,
		hub:      hub,
	}
}

// CreateSession creates a new empty editing session
func (h *SessionHandler) CreateSession(c *gin.Context) {
	session := h.sessions.Create()
	c.JSON(http.StatusCreated, gin.H{
		"message": "Session created successfully",
		"state":   session.Snapshot(),
	})
}

// GetSession returns the full state snapshot of a session
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, exists := h.sessions.Get(c.Param("id"))
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "session not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"state": session.Snapshot(),
	})
}

// DeleteSession discards a session and its clips
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	if !h.sessions.Delete(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "session not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "session deleted successfully",
	})
}

// UploadSource accepts an audio file upload and queues its decoding. The
// session keeps serving its previous source until the new one is fully
// decoded; on decode failure nothing changes.
func (h *SessionHandler) UploadSource(c *gin.Context) {
	session, exists := h.sessions.Get(c.Param("id"))
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "session not found",
		})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "file field is required",
			"details": err.Error(),
		})
		return
	}

	if fileHeader.Size > config.GetMaxUploadBytes() {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "file too large",
		})
		return
	}

	// Gate on media type before touching the payload
	format, err := audio.DetectFormat(fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{
			"error":   "unsupported file type",
			"details": err.Error(),
		})
		return
	}

	tmp, err := os.CreateTemp("", "waveclip-upload-*"+filepath.Ext(fileHeader.Filename))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to store upload",
		})
		return
	}
	tmp.Close()

	if err := c.SaveUploadedFile(fileHeader, tmp.Name()); err != nil {
		os.Remove(tmp.Name())
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to read file",
			"details": err.Error(),
		})
		return
	}

	job := h.jobQueue.EnqueueDecode(session, tmp.Name(), fileHeader.Filename, format)
	c.JSON(http.StatusAccepted, gin.H{
		"message": "Source upload queued for decoding",
		"job":     job,
	})
}

// ApplyInput applies one pointer or playback event to the session's
// timeline and returns the resulting state snapshot.
func (h *SessionHandler) ApplyInput(c *gin.Context) {
	session, exists := h.sessions.Get(c.Param("id"))
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "session not found",
		})
		return
	}

	var event types.InputEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid input event",
			"details": err.Error(),
		})
		return
	}

	if err := session.ApplyInput(event); err != nil {
		if errors.Is(err, services.ErrUnknownEvent) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	state := session.Snapshot()
	h.broadcastState(session)
	c.JSON(http.StatusOK, gin.H{
		"state": state,
	})
}

// HandleWebSocketConnection handles a session's WebSocket: state snapshots
// and job progress go out, pointer/playback events come in.
func (h *SessionHandler) HandleWebSocketConnection(c *gin.Context) {
	session, exists := h.sessions.Get(c.Param("id"))
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	upgrader := websocket.GetUpgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	onEvent := func(event types.InputEvent) {
		if err := session.ApplyInput(event); err != nil {
			h.hub.BroadcastError(session.ID, err.Error())
			return
		}
		h.broadcastState(session)
	}
	// A dropped connection releases any drag it started, mirroring a
	// pointer release observed outside the track.
	onClose := func() {
		session.EndDrag()
	}

	client := websocket.NewClient(h.hub, conn, session.ID, onEvent, onClose)
	h.hub.RegisterClient(client)

	// Start client pumps and push the current state to the new client
	client.StartPumps()
	h.broadcastState(session)
}

func (h *SessionHandler) broadcastState(session *services.Session) {
	if h.hub == nil {
		return
	}
	state := session.Snapshot()
	h.hub.Broadcast(types.SessionMessage{
		SessionID: session.ID,
		Type:      "state",
		State:     &state,
		Timestamp: time.Now(),
	})
}
