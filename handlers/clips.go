package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"waveclip/services"

	"github.com/gin-gonic/gin"
)

// ClipHandler handles clip export, listing, preview and download
type ClipHandler struct {
	sessions services.SessionService
	jobQueue services.JobQueue
}

// NewClipHandler creates a new clip handler
func NewClipHandler(ss services.SessionService, jq services.JobQueue) *ClipHandler {
	return &ClipHandler{
		sessions: ss,
		jobQueue: jq,
	}
}

// ExportClip queues trimming the current selection into a new clip. The
// frontend disables the export action while end <= start; the server still
// rejects such requests in case a stale client invokes it anyway.
func (h *ClipHandler) ExportClip(c *gin.Context) {
	session, exists := h.sessions.Get(c.Param("id"))
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "session not found",
		})
		return
	}

	state := session.Snapshot()
	if !state.Ready {
		c.JSON(http.StatusConflict, gin.H{
			"error": "no source loaded",
		})
		return
	}
	if state.Selection.End <= state.Selection.Start {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "invalid selection: end must be greater than start",
		})
		return
	}

	job := h.jobQueue.EnqueueExport(session)
	c.JSON(http.StatusAccepted, gin.H{
		"message": "Clip export queued successfully",
		"job":     job,
	})
}

// ListClips returns all clips exported in this session
func (h *ClipHandler) ListClips(c *gin.Context) {
	session, exists := h.sessions.Get(c.Param("id"))
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "session not found",
		})
		return
	}

	clips := session.Snapshot().Clips
	c.JSON(http.StatusOK, gin.H{
		"clips": clips,
		"total": len(clips),
	})
}

// DownloadClip serves a clip's WAV bytes as a file attachment
func (h *ClipHandler) DownloadClip(c *gin.Context) {
	clip, ok := h.findClip(c)
	if !ok {
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", clip.Filename()))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "audio/wav", clip.Data)
}

// StreamClip serves a clip for in-browser preview playback. Range requests
// are honored so the preview player can seek.
func (h *ClipHandler) StreamClip(c *gin.Context) {
	clip, ok := h.findClip(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "audio/wav")
	c.Header("Cache-Control", "no-store")
	http.ServeContent(c.Writer, c.Request, clip.Filename(), clip.CreatedAt, bytes.NewReader(clip.Data))
}

// findClip resolves the session and clip from the request path, writing the
// appropriate 404 when either is missing.
func (h *ClipHandler) findClip(c *gin.Context) (*services.Clip, bool) {
	session, exists := h.sessions.Get(c.Param("id"))
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "session not found",
		})
		return nil, false
	}

	clip, exists := session.Clip(c.Param("clipId"))
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "clip not found",
		})
		return nil, false
	}

	return clip, true
}
