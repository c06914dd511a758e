// Package timeline implements the selection interaction model for the
// trimming timeline: it turns pointer gestures (press, move, release, click)
// into selection and playhead updates, keeping every value inside the
// duration of the loaded source. The package is pure state arithmetic and has
// no knowledge of HTTP, websockets or rendering.
package timeline

// DefaultSelectionSeconds is the length of the selection created when a new
// source is loaded, capped at the source duration.
const DefaultSelectionSeconds = 10.0

// Target identifies which timeline handle a gesture manipulates.
type Target string

const (
	TargetStart    Target = "start"
	TargetEnd      Target = "end"
	TargetPlayhead Target = "playhead"
)

// Valid reports whether t is one of the known drag targets.
func (t Target) Valid() bool {
	switch t {
	case TargetStart, TargetEnd, TargetPlayhead:
		return true
	}
	return false
}

// Selection is the user-chosen time range in seconds.
// Invariant: 0 <= Start <= End <= duration.
type Selection struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// PlaybackState mirrors the browser playback engine.
type PlaybackState struct {
	Position float64 `json:"position"`
	Playing  bool    `json:"playing"`
}

// DragState exists only while a pointer drag is in progress.
type DragState struct {
	Target        Target
	AnchorPointer float64 // pointer x offset at press, pixels
	AnchorValue   float64 // value of the dragged field at press, seconds
	TrackWidth    float64 // track width at press, pixels
}

// Machine is the Idle/Dragging state machine for one timeline.
// It is not safe for concurrent use; callers serialize access.
type Machine struct {
	duration  float64
	selection Selection
	playback  PlaybackState
	drag      *DragState
}

// NewMachine returns a machine reset for a source of the given duration.
func NewMachine(duration float64) *Machine {
	m := &Machine{}
	m.Reset(duration)
	return m
}

// Reset installs a new source duration and returns the machine to its
// initial state: idle, selection [0, min(10, duration)], playhead at zero.
func (m *Machine) Reset(duration float64) {
	if duration < 0 {
		duration = 0
	}
	m.duration = duration
	m.selection = Selection{Start: 0, End: min(DefaultSelectionSeconds, duration)}
	m.playback = PlaybackState{}
	m.drag = nil
}

// Duration returns the duration of the loaded source in seconds.
func (m *Machine) Duration() float64 { return m.duration }

// Selection returns the current selection.
func (m *Machine) Selection() Selection { return m.selection }

// Playback returns the mirrored playback state.
func (m *Machine) Playback() PlaybackState { return m.playback }

// Dragging returns the active drag target, if any.
func (m *Machine) Dragging() (Target, bool) {
	if m.drag == nil {
		return "", false
	}
	return m.drag.Target, true
}

// BeginDrag records drag state for the given target, anchoring the current
// value of the dragged field. Starting a new drag abandons any active one.
// Invalid targets and non-positive track widths are ignored.
func (m *Machine) BeginDrag(target Target, pointerPos, trackWidth float64) {
	if !target.Valid() || trackWidth <= 0 {
		return
	}

	var anchor float64
	switch target {
	case TargetStart:
		anchor = m.selection.Start
	case TargetEnd:
		anchor = m.selection.End
	case TargetPlayhead:
		anchor = m.playback.Position
	}

	m.drag = &DragState{
		Target:        target,
		AnchorPointer: pointerPos,
		AnchorValue:   anchor,
		TrackWidth:    trackWidth,
	}
}

// UpdateDrag applies pointer movement to the dragged field. A no-op when
// idle, so stray move events are harmless. The candidate value is the anchor
// shifted by the pointer delta converted to seconds, clamped to
// [0, duration]; start and end handles additionally refuse to cross each
// other, while the playhead seeks freely.
func (m *Machine) UpdateDrag(pointerPos float64) {
	if m.drag == nil {
		return
	}

	delta := (pointerPos - m.drag.AnchorPointer) / m.drag.TrackWidth * m.duration
	candidate := clamp(m.drag.AnchorValue+delta, 0, m.duration)

	switch m.drag.Target {
	case TargetStart:
		m.selection = Selection{Start: min(candidate, m.selection.End), End: m.selection.End}
	case TargetEnd:
		m.selection = Selection{Start: m.selection.Start, End: max(candidate, m.selection.Start)}
	case TargetPlayhead:
		m.playback.Position = candidate
	}
}

// EndDrag clears the drag state unconditionally. Safe to call when idle.
func (m *Machine) EndDrag() {
	m.drag = nil
}

// ClickSeek handles a one-shot click on the track: the playhead jumps to the
// time under the pointer, clamped to [0, duration].
func (m *Machine) ClickSeek(pointerPos, trackWidth float64) {
	m.playback.Position = PointerToTime(pointerPos, trackWidth, m.duration)
}

// Tick mirrors a position update from the playback engine.
func (m *Machine) Tick(position float64) {
	m.playback.Position = clamp(position, 0, m.duration)
}

// SetPlaying mirrors a play or pause notification.
func (m *Machine) SetPlaying(playing bool) {
	m.playback.Playing = playing
}

// Ended mirrors the playback-ended notification.
func (m *Machine) Ended() {
	m.playback.Playing = false
	m.playback.Position = m.duration
}

// PointerToTime maps a pointer pixel offset on the track to a time in
// seconds, clamped to [0, duration]. A non-positive track width maps
// everything to zero.
func PointerToTime(offsetPx, trackWidthPx, duration float64) float64 {
	if trackWidthPx <= 0 {
		return 0
	}
	return clamp(offsetPx/trackWidthPx*duration, 0, duration)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
