package types

import "time"

// SessionMessage is a WebSocket message pushed to the clients of a session.
type SessionMessage struct {
	SessionID string        `json:"sessionId"`
	Type      string        `json:"type"` // "state", "status", "complete", "error"
	State     *SessionState `json:"state,omitempty"`
	Job       *Job          `json:"job,omitempty"`
	Clip      *ClipInfo     `json:"clip,omitempty"`
	Message   string        `json:"message,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// InputEvent is a pointer or playback notification sent by the browser.
// Press, move, release and click-seek drive the timeline drag machine; tick,
// play, pause and ended mirror the playback engine.
type InputEvent struct {
	Type       string  `json:"type"` // "press", "move", "release", "seek", "tick", "play", "pause", "ended"
	Target     string  `json:"target,omitempty"`
	PointerX   float64 `json:"pointerX,omitempty"`
	TrackWidth float64 `json:"trackWidth,omitempty"`
	Position   float64 `json:"position,omitempty"` // playback tick position, seconds
}
