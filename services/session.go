package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"waveclip/audio"
	"waveclip/timeline"
	"waveclip/types"

	"github.com/google/uuid"
)

// ErrNoSource means an operation needs a decoded source and none is loaded.
var ErrNoSource = errors.New("no source loaded")

// ErrUnknownEvent means an input event had an unrecognized type.
var ErrUnknownEvent = errors.New("unknown input event type")

// Clip is an exported audio asset: serialized WAV bytes plus the selection
// range it was cut from. Immutable once created; lives for the session.
type Clip struct {
	ID         string
	Label      string
	Data       []byte
	RangeStart float64
	RangeEnd   float64
	CreatedAt  time.Time
}

// Filename returns the download name for the clip.
func (c *Clip) Filename() string {
	return c.Label + ".wav"
}

// Info returns the wire view of the clip.
func (c *Clip) Info() types.ClipInfo {
	return types.ClipInfo{
		ID:         c.ID,
		Label:      c.Label,
		Filename:   c.Filename(),
		Size:       len(c.Data),
		RangeStart: c.RangeStart,
		RangeEnd:   c.RangeEnd,
		CreatedAt:  c.CreatedAt,
	}
}

// Session is one browser editing session: at most one decoded source, the
// timeline machine driven by that browser's gestures, and the clips exported
// so far. All methods are safe for concurrent use.
type Session struct {
	ID string

	mu           sync.RWMutex
	name         string
	source       *audio.Source
	machine      *timeline.Machine
	clips        []*Clip
	clipsCreated int
	generation   int
}

func newSession() *Session {
	return &Session{
		ID:      uuid.New().String(),
		machine: timeline.NewMachine(0),
	}
}

// BeginLoad marks the start of a new source load and returns its generation.
// Any decode still in flight for an earlier generation is thereby superseded.
func (s *Session) BeginLoad() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

// CompleteLoad atomically installs a decoded source and resets the timeline,
// provided gen is still the current load generation. Returns false when the
// result is stale and was discarded. Clips are session-scoped and survive a
// source swap.
func (s *Session) CompleteLoad(gen int, src *audio.Source, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return false
	}

	s.source = src
	s.name = name
	s.machine.Reset(src.Duration())
	return true
}

// ApplyInput routes one pointer or playback event into the timeline machine.
func (s *Session) ApplyInput(ev types.InputEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Type {
	case "press":
		s.machine.BeginDrag(timeline.Target(ev.Target), ev.PointerX, ev.TrackWidth)
	case "move":
		s.machine.UpdateDrag(ev.PointerX)
	case "release":
		s.machine.EndDrag()
	case "seek":
		s.machine.ClickSeek(ev.PointerX, ev.TrackWidth)
	case "tick":
		s.machine.Tick(ev.Position)
	case "play":
		s.machine.SetPlaying(true)
	case "pause":
		s.machine.SetPlaying(false)
	case "ended":
		s.machine.Ended()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}

	return nil
}

// EndDrag force-ends any in-flight drag. Called on client teardown so a
// dropped connection cannot leave the machine stuck in Dragging.
func (s *Session) EndDrag() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine.EndDrag()
}

// Export trims the current selection out of the source, serializes it as WAV
// and appends it to the session's clip set with the next sequential label.
func (s *Session) Export() (*Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.source == nil {
		return nil, ErrNoSource
	}

	sel := s.machine.Selection()
	trimmed, err := audio.Trim(s.source, sel.Start, sel.End)
	if err != nil {
		return nil, err
	}

	data, err := audio.EncodeWAV(trimmed)
	if err != nil {
		return nil, err
	}

	s.clipsCreated++
	clip := &Clip{
		ID:         uuid.New().String(),
		Label:      fmt.Sprintf("Clip %d", s.clipsCreated),
		Data:       data,
		RangeStart: sel.Start,
		RangeEnd:   sel.End,
		CreatedAt:  time.Now(),
	}
	s.clips = append(s.clips, clip)

	return clip, nil
}

// Clip returns an exported clip by ID.
func (s *Session) Clip(id string) (*Clip, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clips {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// Snapshot returns the full wire-level state of the session.
func (s *Session) Snapshot() types.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := types.SessionState{
		SessionID: s.ID,
		Name:      s.name,
		Ready:     s.source != nil,
		Duration:  s.machine.Duration(),
		Selection: s.machine.Selection(),
		Playback:  s.machine.Playback(),
		Clips:     make([]types.ClipInfo, 0, len(s.clips)),
	}
	if s.source != nil {
		state.SampleRate = s.source.SampleRate
		state.Channels = s.source.NumChannels()
	}
	if target, ok := s.machine.Dragging(); ok {
		state.DragTarget = string(target)
	}
	for _, c := range s.clips {
		state.Clips = append(state.Clips, c.Info())
	}

	return state
}

// SessionService interface defines the methods for managing editing sessions
type SessionService interface {
	Create() *Session
	Get(id string) (*Session, bool)
	Delete(id string) bool
}

// sessionService is the in-memory session registry. Nothing is persisted;
// session lifetime is the browser session.
type sessionService struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionService creates a new session service
func NewSessionService() SessionService {
	return &sessionService{
		sessions: make(map[string]*Session),
	}
}

// Create registers a new empty session
func (ss *sessionService) Create() *Session {
	session := newSession()

	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sessions[session.ID] = session

	return session
}

// Get retrieves a session by ID
func (ss *sessionService) Get(id string) (*Session, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	session, exists := ss.sessions[id]
	return session, exists
}

// Delete discards a session and everything it holds
func (ss *sessionService) Delete(id string) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if _, exists := ss.sessions[id]; !exists {
		return false
	}
	delete(ss.sessions, id)
	return true
}
