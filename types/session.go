package types

import (
	"time"

	"waveclip/timeline"
)

// ClipInfo is the wire view of an exported clip. The serialized WAV bytes
// themselves are served by the download/stream endpoints, not embedded here.
type ClipInfo struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	Filename   string    `json:"filename"` // "<label>.wav"
	Size       int       `json:"size"`     // serialized bytes
	RangeStart float64   `json:"rangeStart"`
	RangeEnd   float64   `json:"rangeEnd"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SessionState is a full snapshot of one editing session, pushed to clients
// after every state transition.
type SessionState struct {
	SessionID  string                 `json:"sessionId"`
	Name       string                 `json:"name,omitempty"` // display name of the loaded source
	Ready      bool                   `json:"ready"`          // a decoded source is loaded
	Duration   float64                `json:"duration"`
	SampleRate int                    `json:"sampleRate,omitempty"`
	Channels   int                    `json:"channels,omitempty"`
	Selection  timeline.Selection     `json:"selection"`
	Playback   timeline.PlaybackState `json:"playback"`
	DragTarget string                 `json:"dragTarget,omitempty"` // empty when idle
	Clips      []ClipInfo             `json:"clips"`
}
